package registry

import "github.com/sdoering01/neopult/internal/handle"

// PluginInstance is a named container created by register_plugin_instance
// and destroyed only at process shutdown (spec.md §3 "Plugin instance").
type PluginInstance struct {
	name      string
	onCleanup func()

	modules      []*Module
	moduleIndex  map[string]int

	// Owned resources, tracked only for invariant 2 (every window/process
	// handle belongs to exactly one plugin instance) and for shutdown:
	// on_cleanup fires before surviving child processes are killed, but the
	// WM and process-supervisor tables themselves are owned by internal/wm
	// and internal/process, not here.
	processRefs []handle.Ref
	windowRefs  []handle.Ref
}

// Name is the plugin instance's name, unique within the process.
func (p *PluginInstance) Name() string { return p.name }

// SetOnCleanup installs the callback run once at shutdown, before child
// processes are torn down (spec.md §4.1).
func (p *PluginInstance) SetOnCleanup(cb func()) { p.onCleanup = cb }

// RunCleanup invokes on_cleanup, if any was registered.
func (p *PluginInstance) RunCleanup() {
	if p.onCleanup != nil {
		p.onCleanup()
	}
}

// Module looks up one of this instance's modules by name.
func (p *PluginInstance) Module(name string) (*Module, bool) {
	idx, ok := p.moduleIndex[name]
	if !ok {
		return nil, false
	}
	return p.modules[idx], true
}

// Modules returns the instance's modules in registration order.
func (p *PluginInstance) Modules() []*Module {
	out := make([]*Module, len(p.modules))
	copy(out, p.modules)
	return out
}

// TrackProcess records ref as owned by this instance.
func (p *PluginInstance) TrackProcess(ref handle.Ref) { p.processRefs = append(p.processRefs, ref) }

// TrackWindow records ref as owned by this instance.
func (p *PluginInstance) TrackWindow(ref handle.Ref) { p.windowRefs = append(p.windowRefs, ref) }

// ProcessRefs returns the process handles owned by this instance.
func (p *PluginInstance) ProcessRefs() []handle.Ref {
	out := make([]handle.Ref, len(p.processRefs))
	copy(out, p.processRefs)
	return out
}

// WindowRefs returns the window handles owned by this instance.
func (p *PluginInstance) WindowRefs() []handle.Ref {
	out := make([]handle.Ref, len(p.windowRefs))
	copy(out, p.windowRefs)
	return out
}
