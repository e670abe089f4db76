package admin

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSystemInfoMessageMarshaling(t *testing.T) {
	displayName := "Display Name"
	status := "running"
	msg := SystemInfoMessage{SystemInfo: SystemInfo{
		PluginInstances: []PluginInstanceInfo{
			{
				Name: "browser",
				Modules: []ModuleInfo{
					{
						Name:          "tab",
						DisplayName:   &displayName,
						Status:        &status,
						Message:       nil,
						Actions:       nil,
						ActiveActions: []string{"reload"},
					},
				},
			},
		},
	}}

	data, err := json.Marshal(msg)
	require.NoError(t, err)

	var roundTripped map[string]any
	require.NoError(t, json.Unmarshal(data, &roundTripped))

	info := roundTripped["system_info"].(map[string]any)
	instances := info["plugin_instances"].([]any)
	require.Len(t, instances, 1)

	modules := instances[0].(map[string]any)["modules"].([]any)
	module := modules[0].(map[string]any)
	assert.Equal(t, "tab", module["name"])
	assert.Equal(t, "Display Name", module["display_name"])
	assert.Equal(t, "running", module["status"])
	assert.Nil(t, module["message"])
}

func TestNotificationMessageOnlyPopulatedFieldIsPresent(t *testing.T) {
	status := "stopped"
	msg := NotificationMessage{Notification: Notification{
		ModuleStatusUpdate: &ModuleStatusUpdate{
			PluginInstance: "browser",
			Module:         "tab",
			NewStatus:      &status,
		},
	}}

	data, err := json.Marshal(msg)
	require.NoError(t, err)

	var roundTripped map[string]any
	require.NoError(t, json.Unmarshal(data, &roundTripped))
	notification := roundTripped["notification"].(map[string]any)

	if _, present := notification["module_status_update"]; !present {
		t.Fatal("expected module_status_update to be present")
	}
	if _, present := notification["module_message_update"]; present {
		t.Fatal("expected module_message_update to be omitted")
	}
	if _, present := notification["module_active_actions_update"]; present {
		t.Fatal("expected module_active_actions_update to be omitted")
	}
}

func TestRequestEnvelopeUnmarshalCallAction(t *testing.T) {
	raw := `{"request":{"request_id":"r1","body":{"call_action":{"plugin_instance":"browser","module":"tab","action":"reload"}}}}`

	var env RequestEnvelope
	require.NoError(t, json.Unmarshal([]byte(raw), &env))
	require.NotNil(t, env.Request)
	require.NotNil(t, env.Request.Body.CallAction)

	call := env.Request.Body.CallAction
	assert.Equal(t, "browser", call.PluginInstance)
	assert.Equal(t, "tab", call.Module)
	assert.Equal(t, "reload", call.Action)
	assert.Equal(t, "r1", env.Request.RequestID)
}

func TestStrPtrEmptyIsNil(t *testing.T) {
	if strPtr("") != nil {
		t.Fatal("strPtr(\"\") should be nil")
	}
	got := strPtr("x")
	require.NotNil(t, got)
	assert.Equal(t, "x", *got)
}
