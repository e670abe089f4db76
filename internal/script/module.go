package script

import (
	"fmt"

	"github.com/dop251/goja"

	"github.com/sdoering01/neopult/internal/registry"
)

func (h *Host) wrapModule(m *registry.Module) *goja.Object {
	obj := h.rt.NewObject()
	scope := fmt.Sprintf("%s::%s", m.PluginInstanceName(), m.Name())

	h.mustSet(obj, "register_action", func(call goja.FunctionCall) goja.Value {
		name := call.Argument(0).String()
		callback, err := asCallable(h.rt, call.Argument(1), "register_action callback")
		if err != nil {
			panic(h.rt.NewGoError(err))
		}
		displayName := ""
		if opts := optObject(h.rt, call.Argument(2)); opts != nil {
			displayName, _ = optString(opts, "display_name")
		}
		actionScope := fmt.Sprintf("%s::%s", scope, name)
		ok := m.RegisterAction(name, displayName, func() {
			h.invoke(actionScope, callback)
		})
		return h.rt.ToValue(ok)
	})

	h.mustSet(obj, "set_status", func(v goja.Value) {
		if v == nil || goja.IsUndefined(v) || goja.IsNull(v) {
			m.SetStatus("")
			return
		}
		m.SetStatus(v.String())
	})

	h.mustSet(obj, "get_status", func() goja.Value {
		status := m.Status()
		if status == "" {
			return goja.Null()
		}
		return h.rt.ToValue(status)
	})

	h.mustSet(obj, "set_message", func(v goja.Value) {
		if v == nil || goja.IsUndefined(v) || goja.IsNull(v) {
			m.SetMessage("")
			return
		}
		m.SetMessage(v.String())
	})

	h.mustSet(obj, "set_active_actions", func(v goja.Value) {
		m.SetActiveActions(stringSlice(h.rt, v))
	})

	h.mustSet(obj, "log", h.scopedLogObject(scope))

	return obj
}
