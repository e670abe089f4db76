// Package admin is the authenticated WebSocket admin server (spec.md §4.6,
// component C6): auth handshake, registry snapshot, live notifications,
// heartbeat, and action-call dispatch.
package admin

import "github.com/sdoering01/neopult/internal/registry"

// SystemInfoMessage is the full-registry snapshot sent once, right after a
// successful auth handshake (spec.md §6.3).
type SystemInfoMessage struct {
	SystemInfo SystemInfo `json:"system_info"`
}

type SystemInfo struct {
	PluginInstances []PluginInstanceInfo `json:"plugin_instances"`
}

type PluginInstanceInfo struct {
	Name    string       `json:"name"`
	Modules []ModuleInfo `json:"modules"`
}

type ModuleInfo struct {
	Name          string                `json:"name"`
	DisplayName   *string               `json:"display_name"`
	Status        *string               `json:"status"`
	Message       *string               `json:"message"`
	Actions       []registry.ActionInfo `json:"actions"`
	ActiveActions []string              `json:"active_actions"`
}

// NotificationMessage wraps one of the three live-update kinds (spec.md
// §6.3). Exactly one field is populated per message.
type NotificationMessage struct {
	Notification Notification `json:"notification"`
}

type Notification struct {
	ModuleStatusUpdate        *ModuleStatusUpdate        `json:"module_status_update,omitempty"`
	ModuleMessageUpdate       *ModuleMessageUpdate       `json:"module_message_update,omitempty"`
	ModuleActiveActionsUpdate *ModuleActiveActionsUpdate `json:"module_active_actions_update,omitempty"`
}

type ModuleStatusUpdate struct {
	PluginInstance string  `json:"plugin_instance"`
	Module         string  `json:"module"`
	NewStatus      *string `json:"new_status"`
}

type ModuleMessageUpdate struct {
	PluginInstance string  `json:"plugin_instance"`
	Module         string  `json:"module"`
	NewMessage     *string `json:"new_message"`
}

type ModuleActiveActionsUpdate struct {
	PluginInstance   string   `json:"plugin_instance"`
	Module           string   `json:"module"`
	NewActiveActions []string `json:"new_active_actions"`
}

// RequestEnvelope is a client→server action call (spec.md §6.3).
type RequestEnvelope struct {
	Request *RequestBody `json:"request"`
}

type RequestBody struct {
	RequestID string      `json:"request_id"`
	Body      RequestBodyInner `json:"body"`
}

type RequestBodyInner struct {
	CallAction *CallActionBody `json:"call_action"`
}

type CallActionBody struct {
	PluginInstance string `json:"plugin_instance"`
	Module         string `json:"module"`
	Action         string `json:"action"`
}

func strPtr(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
