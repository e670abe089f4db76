package script

import (
	"github.com/dop251/goja"

	"github.com/sdoering01/neopult/internal/handle"
	"github.com/sdoering01/neopult/internal/registry"
)

func registryToken(v goja.Value) registry.SubToken {
	return registry.SubToken(v.ToInteger())
}

// apiCreateStore implements neopult.api.create_store(initial?).
func (h *Host) apiCreateStore(call goja.FunctionCall) goja.Value {
	var initial interface{}
	if len(call.Arguments) > 0 && !goja.IsUndefined(call.Argument(0)) {
		initial = call.Argument(0).Export()
	}
	ref := h.reg.CreateStore(initial)
	return h.wrapStore(ref)
}

func (h *Host) wrapStore(ref handle.Ref) *goja.Object {
	obj := h.rt.NewObject()

	h.mustSet(obj, "get", func() goja.Value {
		store, ok := h.reg.Store(ref)
		if !ok {
			return goja.Null()
		}
		return h.rt.ToValue(store.Get())
	})

	h.mustSet(obj, "set", func(call goja.FunctionCall) goja.Value {
		store, ok := h.reg.Store(ref)
		if !ok {
			return goja.Undefined()
		}
		var value interface{}
		if len(call.Arguments) > 0 {
			value = call.Argument(0).Export()
		}
		store.Set(value)
		return goja.Undefined()
	})

	h.mustSet(obj, "subscribe", func(callbackVal goja.Value) (goja.Value, error) {
		store, ok := h.reg.Store(ref)
		if !ok {
			return goja.Null(), nil
		}
		callback, err := asCallable(h.rt, callbackVal, "subscribe argument")
		if err != nil {
			return nil, err
		}
		token := store.Subscribe(func(value interface{}) {
			h.invoke("store::subscriber", callback, h.rt.ToValue(value))
		})
		return h.rt.ToValue(uint64(token)), nil
	})

	h.mustSet(obj, "unsubscribe", func(tokenVal goja.Value) bool {
		store, ok := h.reg.Store(ref)
		if !ok {
			return false
		}
		return store.Unsubscribe(registryToken(tokenVal))
	})

	return obj
}
