package script

import (
	"github.com/dop251/goja"

	"github.com/sdoering01/neopult/internal/handle"
)

// wrapProcessHandle marshals a process handle as an opaque JS object. Stale
// handles (the process already exited and its slot was recycled) make
// every call a benign no-op instead of a crash (spec.md §9 "Handles with
// stale identity").
func (h *Host) wrapProcessHandle(ref handle.Ref) *goja.Object {
	obj := h.rt.NewObject()

	h.mustSet(obj, "write", func(data string) {
		if err := h.proc.Write(ref, []byte(data)); err != nil {
			h.logger.Warn("write to stale or closed process", "error", err)
		}
	})

	h.mustSet(obj, "writeln", func(line string) {
		if err := h.proc.Writeln(ref, line); err != nil {
			h.logger.Warn("writeln to stale or closed process", "error", err)
		}
	})

	h.mustSet(obj, "kill", func() { h.proc.Kill(ref) })

	return obj
}
