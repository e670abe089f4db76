package script

import (
	"fmt"

	"github.com/dop251/goja"

	"github.com/sdoering01/neopult/internal/handle"
	"github.com/sdoering01/neopult/internal/process"
	"github.com/sdoering01/neopult/internal/registry"
	"github.com/sdoering01/neopult/internal/wm"
)

// apiRegisterPluginInstance implements
// neopult.api.register_plugin_instance(name, {on_cleanup?}).
func (h *Host) apiRegisterPluginInstance(call goja.FunctionCall) goja.Value {
	name := call.Argument(0).String()
	p := h.reg.RegisterPluginInstance(name)
	if p == nil {
		return goja.Null()
	}
	if opts := optObject(h.rt, call.Argument(1)); opts != nil {
		if cb, ok := optFunc(opts, "on_cleanup"); ok {
			p.SetOnCleanup(func() {
				h.invoke(fmt.Sprintf("%s::on_cleanup", name), cb)
			})
		}
	}
	return h.wrapPluginInstance(p)
}

func (h *Host) wrapPluginInstance(p *registry.PluginInstance) *goja.Object {
	obj := h.rt.NewObject()
	scope := p.Name()

	h.mustSet(obj, "register_module", func(call goja.FunctionCall) goja.Value {
		name := call.Argument(0).String()
		displayName := ""
		if opts := optObject(h.rt, call.Argument(1)); opts != nil {
			displayName, _ = optString(opts, "display_name")
		}
		m := h.reg.RegisterModule(p, name, displayName)
		if m == nil {
			return goja.Null()
		}
		return h.wrapModule(m)
	})

	h.mustSet(obj, "spawn_process", func(call goja.FunctionCall) goja.Value {
		cmd := call.Argument(0).String()
		var args []string
		var envs map[string]string
		var onOutput goja.Callable
		hasOnOutput := false
		if opts := optObject(h.rt, call.Argument(1)); opts != nil {
			args = stringSlice(h.rt, opts.Get("args"))
			envs = stringMap(opts.Get("envs"))
			onOutput, hasOnOutput = optFunc(opts, "on_output")
		}

		callbackScope := fmt.Sprintf("%s::%s", scope, cmd)
		ref, err := h.proc.Spawn(cmd, process.SpawnOptions{
			Args: args,
			Envs: envs,
			OnOutput: func(stream process.Stream, line string) {
				if !hasOnOutput {
					return
				}
				h.invoke(callbackScope, onOutput, h.rt.ToValue(stream.String()), h.rt.ToValue(line))
			},
		})
		if err != nil {
			h.logger.Error("spawn_process failed", "scope", scope, "command", cmd, "error", err)
			return goja.Null()
		}
		p.TrackProcess(ref)
		return h.wrapProcessHandle(ref)
	})

	h.mustSet(obj, "claim_window", func(call goja.FunctionCall) goja.Value {
		classSubstring := call.Argument(0).String()
		var jsCallback goja.Value
		var opts *goja.Object

		// claim_window(class, callback) and claim_window(class, opts,
		// callback) are both accepted.
		if len(call.Arguments) >= 3 {
			opts = optObject(h.rt, call.Argument(1))
			jsCallback = call.Argument(2)
		} else {
			jsCallback = call.Argument(1)
		}
		callback, err := asCallable(h.rt, jsCallback, "claim_window callback")
		if err != nil {
			panic(h.rt.NewGoError(err))
		}

		claimOpts := wm.ClaimOptions{}
		if opts != nil {
			claimOpts.TimeoutMs, _ = optInt(opts, "timeout_ms")
			claimOpts.MinGeometry, _ = optString(opts, "min_geometry")
			claimOpts.IgnoreManaged, _ = optBool(opts, "ignore_managed")
		}

		err = h.wmgr.ClaimWindow(scope, classSubstring, claimOpts, func(ref handle.Ref, ok bool) {
			if !ok {
				h.invoke(fmt.Sprintf("%s::claim_window", scope), callback, goja.Null())
				return
			}
			p.TrackWindow(ref)
			h.invoke(fmt.Sprintf("%s::claim_window", scope), callback, h.wrapWindowHandle(ref))
		})
		if err != nil {
			h.logger.Error("claim_window rejected", "scope", scope, "error", err)
		}
		return goja.Undefined()
	})

	h.mustSet(obj, "create_virtual_window", func(call goja.FunctionCall) goja.Value {
		opts := optObject(h.rt, call.Argument(1))
		if opts == nil {
			panic(h.rt.NewTypeError("create_virtual_window requires an options object"))
		}

		vOpts := wm.VirtualWindowOptions{}
		vOpts.MinGeometry, _ = optString(opts, "min_geometry")
		vOpts.PrimaryDemotion = parseDemotionAction(optStringOr(opts, "primary_demotion_action", "do_nothing"))

		if setGeom, ok := optFunc(opts, "set_geometry"); ok {
			vOpts.Callbacks.SetGeometry = func(pos wm.Position, size wm.Size, zIndex int, alignment string) {
				h.invoke(fmt.Sprintf("%s::set_geometry", scope), setGeom,
					h.rt.ToValue(pos.X), h.rt.ToValue(pos.Y),
					h.rt.ToValue(size.W), h.rt.ToValue(size.H),
					h.rt.ToValue(zIndex), h.rt.ToValue(alignment))
			}
		}
		if mapFn, ok := optFunc(opts, "map"); ok {
			vOpts.Callbacks.Map = func() { h.invoke(fmt.Sprintf("%s::map", scope), mapFn) }
		}
		if unmapFn, ok := optFunc(opts, "unmap"); ok {
			vOpts.Callbacks.Unmap = func() { h.invoke(fmt.Sprintf("%s::unmap", scope), unmapFn) }
		}

		ref, err := h.wmgr.CreateVirtualWindow(scope, vOpts)
		if err != nil {
			h.logger.Error("create_virtual_window failed", "scope", scope, "error", err)
			return goja.Null()
		}
		p.TrackWindow(ref)
		return h.wrapWindowHandle(ref)
	})

	h.mustSet(obj, "log", h.scopedLogObject(scope))

	return obj
}

func parseDemotionAction(s string) wm.DemotionAction {
	switch s {
	case "make_min":
		return wm.MakeMin
	case "hide":
		return wm.HideOnDemotion
	default:
		return wm.DoNothing
	}
}

func optStringOr(obj *goja.Object, name, fallback string) string {
	if v, ok := optString(obj, name); ok {
		return v
	}
	return fallback
}

func stringMap(v goja.Value) map[string]string {
	if v == nil || goja.IsUndefined(v) || goja.IsNull(v) {
		return nil
	}
	exported, ok := v.Export().(map[string]interface{})
	if !ok {
		return nil
	}
	out := make(map[string]string, len(exported))
	for k, val := range exported {
		out[k] = fmt.Sprint(val)
	}
	return out
}
