package registry

// Module is named within its plugin instance and carries all
// operator-visible state for one logical feature of a plugin (spec.md §3
// "Module"). Every field is mutated only from script callbacks running on
// the event-loop thread.
type Module struct {
	pluginInstance string
	name           string
	displayName    string // empty means unset

	status  string // empty means unset
	message string // empty means unset

	actions      []Action
	actionIndex  map[string]int
	activeActions map[string]struct{}

	reg *Registry
}

// Name is the module's name, unique within its plugin instance.
func (m *Module) Name() string { return m.name }

// PluginInstanceName is the name of the owning plugin instance.
func (m *Module) PluginInstanceName() string { return m.pluginInstance }

// DisplayName exposes the module's optional display name for snapshotting.
func (m *Module) DisplayName() (string, bool) {
	return m.displayName, m.displayName != ""
}

// RegisterAction adds a new action to the module. Returns false, leaving
// the module unchanged, if name collides with an existing action in this
// module (invariant 1, §9 Open Question (i): reject with no effect).
func (m *Module) RegisterAction(name, displayName string, cb ActionCallback) bool {
	if _, exists := m.actionIndex[name]; exists {
		return false
	}
	m.actions = append(m.actions, Action{Name: name, DisplayName: displayName, Callback: cb})
	m.actionIndex[name] = len(m.actions) - 1
	return true
}

// Action looks up a registered action by name.
func (m *Module) Action(name string) (Action, bool) {
	idx, ok := m.actionIndex[name]
	if !ok {
		return Action{}, false
	}
	return m.actions[idx], true
}

// Actions returns the module's actions in registration order.
func (m *Module) Actions() []Action {
	out := make([]Action, len(m.actions))
	copy(out, m.actions)
	return out
}

// SetStatus replaces the status and notifies the registry's observer.
// An empty string clears the status (the scripting host maps its "nil"
// onto the empty string here; see internal/script).
func (m *Module) SetStatus(status string) {
	if m.status == status {
		return
	}
	m.status = status
	m.reg.notifyStatus(m)
}

// Status returns the current status, or "" if unset.
func (m *Module) Status() string { return m.status }

// SetMessage replaces the message, rendered as HTML by admin clients and
// passed through verbatim: the core never sanitizes it (spec.md §9 "HTML
// in messages").
func (m *Module) SetMessage(message string) {
	if m.message == message {
		return
	}
	m.message = message
	m.reg.notifyMessage(m)
}

// Message returns the current message, or "" if unset.
func (m *Module) Message() string { return m.message }

// SetActiveActions replaces the set of active action names. Per invariant 4
// and spec.md §9 Open Question (ii), names that do not name a registered
// action in this module are silently filtered out rather than causing the
// whole call to fail, the stricter-but-still-useful reading the spec
// recommends.
func (m *Module) SetActiveActions(names []string) {
	next := make(map[string]struct{}, len(names))
	ordered := make([]string, 0, len(names))
	for _, n := range names {
		if _, known := m.actionIndex[n]; !known {
			continue
		}
		if _, dup := next[n]; dup {
			continue
		}
		next[n] = struct{}{}
		ordered = append(ordered, n)
	}
	if sameSet(m.activeActionNames(), ordered) {
		return
	}
	m.activeActions = next
	m.reg.notifyActiveActions(m, ordered)
}

// ActiveActions returns the active action names in no particular order.
func (m *Module) ActiveActions() []string {
	out := make([]string, 0, len(m.activeActions))
	for n := range m.activeActions {
		out = append(out, n)
	}
	return out
}

func (m *Module) activeActionNames() []string {
	return m.ActiveActions()
}

func sameSet(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	set := make(map[string]struct{}, len(a))
	for _, v := range a {
		set[v] = struct{}{}
	}
	for _, v := range b {
		if _, ok := set[v]; !ok {
			return false
		}
	}
	return true
}
