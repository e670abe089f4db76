package registry

// ActionCallback is invoked when an operator calls an action through the
// admin protocol (spec.md §4.6 "Requests") or, in principle, from any other
// host-side trigger. It always runs on the event-loop thread.
type ActionCallback func()

// Action is immutable after registration (spec.md §3 "Action").
type Action struct {
	Name        string
	DisplayName string // empty means unset
	Callback    ActionCallback
}

// ActionInfo is the client-facing projection of an Action (spec.md §6.3):
// {name, display_name}. The callback is never exposed past the core.
type ActionInfo struct {
	Name        string `json:"name"`
	DisplayName *string `json:"display_name"`
}

// Info projects an Action into its client-facing form, used by the admin
// server when it serializes a module's action list.
func (a Action) Info() ActionInfo {
	info := ActionInfo{Name: a.Name}
	if a.DisplayName != "" {
		dn := a.DisplayName
		info.DisplayName = &dn
	}
	return info
}
