package wm

import (
	"fmt"
	"regexp"
	"strconv"
)

// Size is a width/height pair in pixels.
type Size struct {
	W, H int
}

// Margin is the primary window's distance from each root edge.
type Margin struct {
	Top, Right, Bottom, Left int
}

// Position is a top-left coordinate in root-window space.
type Position struct {
	X, Y int
}

// XCorner and YCorner name the corner a min-geometry descriptor is anchored
// to (spec.md §4.3.3 "Min placement").
type XCorner int

const (
	Left XCorner = iota
	Right
)

type YCorner int

const (
	Top YCorner = iota
	Bottom
)

// MinGeometry is a parsed corner-anchored rectangle descriptor of the form
// "WxH±X±Y" (spec.md GLOSSARY "Min geometry"). '+' on the X component means
// anchored to the left, '-' anchored to the right; '+' on Y means anchored
// to the top, '-' anchored to the bottom. Offsets are always non-negative
// magnitudes measured from the chosen corner.
type MinGeometry struct {
	Width, Height int
	OffsetX       int
	OffsetY       int
	XCorner       XCorner
	YCorner       YCorner
}

// DefaultMinGeometry is used by claim_window and create_virtual_window when
// no min_geometry is supplied (spec.md §4.3.1).
const DefaultMinGeometry = "480x360-0-0"

var minGeometryPattern = regexp.MustCompile(`^(\d+)x(\d+)([+-]\d+)([+-]\d+)$`)

// ParseMinGeometry parses a descriptor like "480x360-0-0".
func ParseMinGeometry(s string) (MinGeometry, error) {
	m := minGeometryPattern.FindStringSubmatch(s)
	if m == nil {
		return MinGeometry{}, fmt.Errorf("wm: invalid min geometry descriptor %q", s)
	}
	w, _ := strconv.Atoi(m[1])
	h, _ := strconv.Atoi(m[2])
	xOff, _ := strconv.Atoi(m[3])
	yOff, _ := strconv.Atoi(m[4])

	g := MinGeometry{Width: w, Height: h}
	if xOff < 0 {
		g.XCorner = Right
		g.OffsetX = -xOff
	} else {
		g.XCorner = Left
		g.OffsetX = xOff
	}
	if yOff < 0 {
		g.YCorner = Bottom
		g.OffsetY = -yOff
	} else {
		g.YCorner = Top
		g.OffsetY = yOff
	}
	return g, nil
}

// Alignment renders the corner as the two-letter code ("lt", "rt", "rb",
// "lb") delivered to virtual windows alongside set_geometry calls.
func (g MinGeometry) Alignment() string {
	var x, y byte
	if g.XCorner == Left {
		x = 'l'
	} else {
		x = 'r'
	}
	if g.YCorner == Top {
		y = 't'
	} else {
		y = 'b'
	}
	return string([]byte{x, y})
}

// Place resolves the descriptor against a root of size root into an
// absolute top-left position.
func (g MinGeometry) Place(root Size) Position {
	var x, y int
	if g.XCorner == Left {
		x = g.OffsetX
	} else {
		x = root.W - g.Width - g.OffsetX
	}
	if g.YCorner == Top {
		y = g.OffsetY
	} else {
		y = root.H - g.Height - g.OffsetY
	}
	return Position{X: x, Y: y}
}
