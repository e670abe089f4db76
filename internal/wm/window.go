package wm

import "github.com/jezek/xgb/xproto"

// Mode is one of the three compositing modes a managed window can be in
// (spec.md §4.3.3).
type Mode int

const (
	Hidden Mode = iota
	Min
	Max
)

func (m Mode) String() string {
	switch m {
	case Max:
		return "max"
	case Min:
		return "min"
	default:
		return "hidden"
	}
}

// DemotionAction is the policy applied to a window that loses primary
// status while remaining in max mode, because a different window became
// primary (spec.md §4.3.3 "Primary-demotion-action"). It is ignored for
// claimed real windows, which always behave as DoNothing.
type DemotionAction int

const (
	DoNothing DemotionAction = iota
	MakeMin
	HideOnDemotion
)

// VirtualCallbacks are invoked, on the loop thread and never reentrantly
// into the window manager, whenever a virtual window's placement changes
// (spec.md §4.3.2).
type VirtualCallbacks struct {
	SetGeometry func(pos Position, size Size, zIndex int, alignment string)
	Map         func()
	Unmap       func()
}

// Window is one entry in the management table: either a real X window or a
// virtual one with no backing X resource (spec.md §3 "Window handle").
type Window struct {
	owner string

	xwin     xproto.Window
	virtual  *VirtualCallbacks
	demotion DemotionAction

	mode Mode

	minGeometry MinGeometry
	maxSize     Size
	maxMargin   Margin

	// insertSeq orders min-window z-stacking and claim "most recently
	// created" tie-breaking. maxSeq is assigned each time the window
	// enters max mode and is the primary-election ordering key.
	insertSeq uint64
	maxSeq    uint64

	mapped bool
}

// IsVirtual reports whether the window has no backing X resource.
func (w *Window) IsVirtual() bool { return w.virtual != nil }

// Owner is the name of the plugin instance that owns the window.
func (w *Window) Owner() string { return w.owner }

// Mode returns the window's current mode.
func (w *Window) Mode() Mode { return w.mode }

// MinGeometry returns the window's configured min-geometry descriptor.
func (w *Window) MinGeometry() MinGeometry { return w.minGeometry }
