// Package registry is the in-memory model of user-visible state: plugin
// instances, their modules, actions and active-action sets, and the
// independently-lived stores (spec.md §3, §4.5, component C5). It is the
// single source of truth the admin WebSocket server (C6) mirrors to
// clients; every mutation here that changes client-visible state notifies
// the registry's Observer synchronously, on the caller's thread (which is
// always the event loop's thread by construction (see internal/loop).
package registry

import "github.com/sdoering01/neopult/internal/handle"

// Observer receives change notifications for module status, message and
// active-actions, mirroring the three notification kinds in spec.md §4.6.
type Observer interface {
	ModuleStatusChanged(pluginInstance, module, status string, statusSet bool)
	ModuleMessageChanged(pluginInstance, module, message string, messageSet bool)
	ModuleActiveActionsChanged(pluginInstance, module string, active []string)
}

type nopObserver struct{}

func (nopObserver) ModuleStatusChanged(string, string, string, bool)    {}
func (nopObserver) ModuleMessageChanged(string, string, string, bool)   {}
func (nopObserver) ModuleActiveActionsChanged(string, string, []string) {}

// Registry owns every plugin instance and every store for the process's
// lifetime.
type Registry struct {
	instances     []*PluginInstance
	instanceIndex map[string]int

	stores *handle.Table[*Store]

	observer Observer
}

// New creates an empty registry.
func New() *Registry {
	return &Registry{
		instanceIndex: map[string]int{},
		stores:        handle.New[*Store](),
		observer:      nopObserver{},
	}
}

// SetObserver installs the observer that receives change notifications.
// Only one observer is supported; the admin server (C6) fans out to its own
// connected clients from inside its implementation.
func (r *Registry) SetObserver(o Observer) {
	if o == nil {
		o = nopObserver{}
	}
	r.observer = o
}

// RegisterPluginInstance creates a new, empty plugin instance. Returns nil
// if name collides with an existing instance (invariant 1); the registry is
// left unchanged.
func (r *Registry) RegisterPluginInstance(name string) *PluginInstance {
	if _, exists := r.instanceIndex[name]; exists {
		return nil
	}
	p := &PluginInstance{name: name, moduleIndex: map[string]int{}}
	r.instances = append(r.instances, p)
	r.instanceIndex[name] = len(r.instances) - 1
	return p
}

// PluginInstance looks up an instance by name.
func (r *Registry) PluginInstance(name string) (*PluginInstance, bool) {
	idx, ok := r.instanceIndex[name]
	if !ok {
		return nil, false
	}
	return r.instances[idx], true
}

// PluginInstances returns every instance in registration order.
func (r *Registry) PluginInstances() []*PluginInstance {
	out := make([]*PluginInstance, len(r.instances))
	copy(out, r.instances)
	return out
}

// RegisterModule creates a new module on p. Returns nil, leaving p
// unchanged, if name collides with an existing module on p.
func (r *Registry) RegisterModule(p *PluginInstance, name, displayName string) *Module {
	if _, exists := p.moduleIndex[name]; exists {
		return nil
	}
	m := &Module{
		pluginInstance: p.name,
		name:           name,
		displayName:    displayName,
		actionIndex:    map[string]int{},
		activeActions:  map[string]struct{}{},
		reg:            r,
	}
	p.modules = append(p.modules, m)
	p.moduleIndex[name] = len(p.modules) - 1
	return m
}

// CreateStore creates a new, independently-lived store and returns its
// capability reference.
func (r *Registry) CreateStore(initial any) handle.Ref {
	return r.stores.Insert(NewStore(initial))
}

// Store resolves a store reference. ok is false for a stale reference.
func (r *Registry) Store(ref handle.Ref) (*Store, bool) {
	return r.stores.Get(ref)
}

func (r *Registry) notifyStatus(m *Module) {
	r.observer.ModuleStatusChanged(m.pluginInstance, m.name, m.status, m.status != "")
}

func (r *Registry) notifyMessage(m *Module) {
	r.observer.ModuleMessageChanged(m.pluginInstance, m.name, m.message, m.message != "")
}

func (r *Registry) notifyActiveActions(m *Module, active []string) {
	r.observer.ModuleActiveActionsChanged(m.pluginInstance, m.name, active)
}
