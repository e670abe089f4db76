package script

import (
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/sdoering01/neopult/internal/config"
	"github.com/sdoering01/neopult/internal/loop"
	"github.com/sdoering01/neopult/internal/process"
	"github.com/sdoering01/neopult/internal/registry"
)

// newTestHost wires a Host against a real registry and process supervisor,
// but a nil *wm.Manager: none of these tests touch claim_window or
// create_virtual_window. The loop is never run; run_later callbacks are
// inspected directly via its deferred queue.
func newTestHost(t *testing.T) (*Host, *loop.Loop, *registry.Registry) {
	t.Helper()
	l := loop.New()
	reg := registry.New()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	proc := process.New(l.Post, logger)
	h := New(config.Config{Channel: 3, Home: "/srv/neopult"}, l, reg, proc, nil, logger)
	return h, l, reg
}

func TestGetChannelAndChannelHome(t *testing.T) {
	h, _, _ := newTestHost(t)
	if err := h.LoadFile("test.js", `
		globalThis.result = {
			channel: neopult.api.get_channel(),
			home: neopult.api.get_channel_home(),
		};
	`); err != nil {
		t.Fatalf("LoadFile: %v", err)
	}

	result := h.rt.Get("result").ToObject(h.rt)
	if got := result.Get("channel").ToInteger(); got != 3 {
		t.Fatalf("got channel %d, want 3", got)
	}
	if got := result.Get("home").String(); got != "/srv/neopult/channel-3" {
		t.Fatalf("got home %q, want /srv/neopult/channel-3", got)
	}
}

func TestRegisterPluginInstanceRejectsDuplicateFromScript(t *testing.T) {
	h, _, _ := newTestHost(t)
	err := h.LoadFile("test.js", `
		var first = neopult.api.register_plugin_instance("browser", {});
		var second = neopult.api.register_plugin_instance("browser", {});
		if (first === null) { throw new Error("expected first registration to succeed"); }
		if (second !== null) { throw new Error("expected duplicate registration to fail"); }
	`)
	if err != nil {
		t.Fatalf("LoadFile: %v", err)
	}
}

func TestModuleStatusAndActiveActionsRoundTrip(t *testing.T) {
	h, _, reg := newTestHost(t)
	err := h.LoadFile("test.js", `
		var p = neopult.api.register_plugin_instance("browser", {});
		var m = p.register_module("tab", {display_name: "Tab"});
		m.register_action("reload", function() {});
		m.set_status("running");
		m.set_active_actions(["reload", "bogus"]);
	`)
	if err != nil {
		t.Fatalf("LoadFile: %v", err)
	}

	p, ok := reg.PluginInstance("browser")
	if !ok {
		t.Fatal("expected plugin instance to be registered")
	}
	m, ok := p.Module("tab")
	if !ok {
		t.Fatal("expected module to be registered")
	}
	if m.Status() != "running" {
		t.Fatalf("got status %q, want running", m.Status())
	}
	active := m.ActiveActions()
	if len(active) != 1 || active[0] != "reload" {
		t.Fatalf("got active actions %v, want [reload]", active)
	}
}

func TestActionCallbackInvokedFromGo(t *testing.T) {
	h, _, reg := newTestHost(t)
	err := h.LoadFile("test.js", `
		var p = neopult.api.register_plugin_instance("browser", {});
		var m = p.register_module("tab", {});
		globalThis.calls = 0;
		m.register_action("reload", function() { globalThis.calls++; });
	`)
	if err != nil {
		t.Fatalf("LoadFile: %v", err)
	}

	p, _ := reg.PluginInstance("browser")
	m, _ := p.Module("tab")
	action, ok := m.Action("reload")
	if !ok {
		t.Fatal("expected reload action to be registered")
	}
	action.Callback()
	action.Callback()

	calls := h.rt.Get("calls").ToInteger()
	if calls != 2 {
		t.Fatalf("got %d calls, want 2", calls)
	}
}

func TestStoreSubscribeReceivesSetValue(t *testing.T) {
	h, _, _ := newTestHost(t)
	err := h.LoadFile("test.js", `
		var store = neopult.api.create_store("init");
		globalThis.seen = [];
		store.subscribe(function(v) { globalThis.seen.push(v); });
		store.set("a");
		store.set("b");
	`)
	if err != nil {
		t.Fatalf("LoadFile: %v", err)
	}

	seen := h.rt.Get("seen").Export().([]interface{})
	if len(seen) != 2 || seen[0] != "a" || seen[1] != "b" {
		t.Fatalf("got %v, want [a b]", seen)
	}
}

func TestRunLaterDefersOntoLoopQueue(t *testing.T) {
	h, l, _ := newTestHost(t)
	err := h.LoadFile("test.js", `
		globalThis.ran = false;
		neopult.api.run_later(function() { globalThis.ran = true; });
	`)
	if err != nil {
		t.Fatalf("LoadFile: %v", err)
	}

	if h.rt.Get("ran").ToBoolean() {
		t.Fatal("run_later callback must not fire synchronously")
	}

	// Drive the loop's deferred queue exactly like Loop.Run would between
	// two external events.
	done := make(chan struct{})
	l.Post(func() {})
	go func() {
		l.Stop()
		close(done)
	}()
	l.Run(nil)
	<-done

	if !h.rt.Get("ran").ToBoolean() {
		t.Fatal("expected run_later callback to have fired by loop shutdown")
	}
}

func TestSpawnProcessCapturesOutput(t *testing.T) {
	h, l, _ := newTestHost(t)

	// The child's stdout line arrives asynchronously via dispatch (l.Post).
	// on_output signals lineSeen instead of the test polling with a sleep;
	// the loop itself is the only goroutine that ever touches the goja
	// runtime, so notifyLineSeen (called from on_output, on the loop
	// thread) is the only writer and there is no concurrent access to rt.
	lineSeen := make(chan struct{})
	h.rt.Set("notifyLineSeen", func() {
		select {
		case <-lineSeen:
		default:
			close(lineSeen)
		}
	})

	err := h.LoadFile("test.js", `
		var p = neopult.api.register_plugin_instance("shell", {});
		globalThis.lines = [];
		p.spawn_process("sh", {
			args: ["-c", "echo hi"],
			on_output: function(stream, line) {
				globalThis.lines.push(line);
				notifyLineSeen();
			},
		});
	`)
	if err != nil {
		t.Fatalf("LoadFile: %v", err)
	}

	runDone := make(chan struct{})
	go func() {
		l.Run(nil)
		close(runDone)
	}()

	select {
	case <-lineSeen:
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for on_output to fire")
	}
	l.Stop()
	<-runDone

	lines := h.rt.Get("lines").Export().([]interface{})
	if len(lines) != 1 || lines[0] != "hi" {
		t.Fatalf("got lines %v, want [hi]", lines)
	}
}

func TestGenerateTokenLengthAndAlphabet(t *testing.T) {
	h, _, _ := newTestHost(t)
	err := h.LoadFile("test.js", `
		globalThis.token = neopult.api.generate_token(24);
	`)
	if err != nil {
		t.Fatalf("LoadFile: %v", err)
	}
	token := h.rt.Get("token").String()
	if len(token) != 24 {
		t.Fatalf("got token length %d, want 24", len(token))
	}
	if strings.ContainsAny(token, " \t\n") {
		t.Fatalf("token %q contains whitespace", token)
	}
}

func TestGenerateTokenRejectsNonPositiveLength(t *testing.T) {
	h, _, _ := newTestHost(t)
	err := h.LoadFile("test.js", `neopult.api.generate_token(0);`)
	if err == nil {
		t.Fatal("expected generate_token(0) to raise a script error")
	}
}
