package handle

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTableInsertGet(t *testing.T) {
	tbl := New[string]()
	ref := tbl.Insert("hello")

	value, ok := tbl.Get(ref)
	require.True(t, ok)
	assert.Equal(t, "hello", value)
}

func TestTableStaleAfterRemove(t *testing.T) {
	tbl := New[int]()
	ref := tbl.Insert(42)

	_, ok := tbl.Remove(ref)
	require.True(t, ok)

	_, ok = tbl.Get(ref)
	assert.False(t, ok, "removed ref must be stale")
}

func TestTableGenerationBumpOnReuse(t *testing.T) {
	tbl := New[int]()
	first := tbl.Insert(1)
	tbl.Remove(first)

	second := tbl.Insert(2)

	_, ok := tbl.Get(first)
	assert.False(t, ok, "old ref into a reused slot must stay stale")

	value, ok := tbl.Get(second)
	require.True(t, ok)
	assert.Equal(t, 2, value)
}

func TestTableEachSkipsRemoved(t *testing.T) {
	tbl := New[string]()
	a := tbl.Insert("a")
	tbl.Insert("b")
	tbl.Remove(a)

	var seen []string
	tbl.Each(func(ref Ref, value string) {
		seen = append(seen, value)
	})
	assert.Equal(t, []string{"b"}, seen)
}

func TestRefZero(t *testing.T) {
	var zero Ref
	assert.True(t, zero.Zero())

	tbl := New[int]()
	ref := tbl.Insert(1)
	assert.False(t, ref.Zero())
}
