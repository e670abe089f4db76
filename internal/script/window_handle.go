package script

import (
	"github.com/dop251/goja"

	"github.com/sdoering01/neopult/internal/handle"
	"github.com/sdoering01/neopult/internal/wm"
)

// wrapWindowHandle marshals a window handle (real or virtual) as an opaque
// JS object (spec.md §6.4 "On WindowHandle").
func (h *Host) wrapWindowHandle(ref handle.Ref) *goja.Object {
	obj := h.rt.NewObject()

	h.mustSet(obj, "max", func(call goja.FunctionCall) goja.Value {
		sizeObj := optObject(h.rt, call.Argument(0))
		w, _ := optInt(sizeObj, "w")
		ht, _ := optInt(sizeObj, "h")

		var margin wm.Margin
		if opts := optObject(h.rt, call.Argument(1)); opts != nil {
			if marginObj := optObject(h.rt, opts.Get("margin")); marginObj != nil {
				margin.Top, _ = optInt(marginObj, "top")
				margin.Right, _ = optInt(marginObj, "right")
				margin.Bottom, _ = optInt(marginObj, "bottom")
				margin.Left, _ = optInt(marginObj, "left")
			}
		}

		if err := h.wmgr.Max(ref, wm.Size{W: w, H: ht}, margin); err != nil {
			h.logger.Warn("max on stale or reentrant window call", "error", err)
		}
		return goja.Undefined()
	})

	h.mustSet(obj, "min", func() {
		if err := h.wmgr.Min(ref); err != nil {
			h.logger.Warn("min on stale or reentrant window call", "error", err)
		}
	})

	h.mustSet(obj, "hide", func() {
		if err := h.wmgr.Hide(ref); err != nil {
			h.logger.Warn("hide on stale or reentrant window call", "error", err)
		}
	})

	h.mustSet(obj, "unclaim", func() {
		if err := h.wmgr.Unclaim(ref); err != nil {
			h.logger.Warn("unclaim on stale or reentrant window call", "error", err)
		}
	})

	h.mustSet(obj, "is_primary_window", func() bool {
		return h.wmgr.IsPrimary(ref)
	})

	return obj
}
