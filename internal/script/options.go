package script

import "github.com/dop251/goja"

// optObject extracts an object argument, treating undefined/null as "no
// options supplied".
func optObject(rt *goja.Runtime, v goja.Value) *goja.Object {
	if v == nil || goja.IsUndefined(v) || goja.IsNull(v) {
		return nil
	}
	return v.ToObject(rt)
}

func optString(obj *goja.Object, name string) (string, bool) {
	if obj == nil {
		return "", false
	}
	v := obj.Get(name)
	if v == nil || goja.IsUndefined(v) || goja.IsNull(v) {
		return "", false
	}
	return v.String(), true
}

func optInt(obj *goja.Object, name string) (int, bool) {
	if obj == nil {
		return 0, false
	}
	v := obj.Get(name)
	if v == nil || goja.IsUndefined(v) || goja.IsNull(v) {
		return 0, false
	}
	return int(v.ToInteger()), true
}

func optBool(obj *goja.Object, name string) (bool, bool) {
	if obj == nil {
		return false, false
	}
	v := obj.Get(name)
	if v == nil || goja.IsUndefined(v) || goja.IsNull(v) {
		return false, false
	}
	return v.ToBoolean(), true
}

func optFunc(obj *goja.Object, name string) (goja.Callable, bool) {
	if obj == nil {
		return nil, false
	}
	v := obj.Get(name)
	if v == nil || goja.IsUndefined(v) || goja.IsNull(v) {
		return nil, false
	}
	fn, ok := goja.AssertFunction(v)
	return fn, ok
}

func stringSlice(rt *goja.Runtime, v goja.Value) []string {
	if v == nil || goja.IsUndefined(v) || goja.IsNull(v) {
		return nil
	}
	exported := v.Export()
	raw, ok := exported.([]interface{})
	if !ok {
		return nil
	}
	out := make([]string, 0, len(raw))
	for _, item := range raw {
		if s, ok := item.(string); ok {
			out = append(out, s)
		}
	}
	return out
}
