// Package script is the scripting host bridge (spec.md §4.4, component
// C4). It embeds goja, a pure-Go ECMAScript engine, installs the
// neopult.* global API before the channel script loads, and marshals host
// objects (plugin instances, modules, processes, windows, stores) as
// opaque JavaScript objects closing over Go capability handles.
//
// Every goja call happens on the event loop's goroutine: the runtime is
// never touched concurrently, so host API functions run synchronously and
// mutate registry/process/wm state directly instead of round-tripping
// through a separate script goroutine. The one place the source language's
// blocking `claim_window` could not translate directly into a
// single-threaded JS runtime is claim_window itself, which here takes a
// callback invoked once the window is found or the timeout fires (spec.md
// §4.4 "yields cooperatively... no OS thread is blocked", satisfied here
// because no goroutine blocks at all; the continuation simply runs later
// as an ordinary loop-thread event).
package script

import (
	"fmt"
	"log/slog"

	"github.com/dop251/goja"

	"github.com/sdoering01/neopult/internal/config"
	"github.com/sdoering01/neopult/internal/loop"
	"github.com/sdoering01/neopult/internal/process"
	"github.com/sdoering01/neopult/internal/registry"
	"github.com/sdoering01/neopult/internal/wm"
)

// Host wires the scripting runtime to every other subsystem.
type Host struct {
	rt  *goja.Runtime
	cfg config.Config

	loop *loop.Loop
	reg  *registry.Registry
	proc *process.Supervisor
	wmgr *wm.Manager

	logger *slog.Logger
}

// New builds a Host and installs the neopult global before any script runs.
func New(cfg config.Config, l *loop.Loop, reg *registry.Registry, proc *process.Supervisor, wmgr *wm.Manager, logger *slog.Logger) *Host {
	h := &Host{
		rt:     goja.New(),
		cfg:    cfg,
		loop:   l,
		reg:    reg,
		proc:   proc,
		wmgr:   wmgr,
		logger: logger,
	}
	h.installGlobals()
	return h
}

func (h *Host) installGlobals() {
	neopult := h.rt.NewObject()

	api := h.rt.NewObject()
	h.mustSet(api, "register_plugin_instance", h.apiRegisterPluginInstance)
	h.mustSet(api, "create_store", h.apiCreateStore)
	h.mustSet(api, "run_later", h.apiRunLater)
	h.mustSet(api, "get_channel", func() int { return h.cfg.Channel })
	h.mustSet(api, "get_channel_home", func() string { return h.cfg.ChannelHome() })
	h.mustSet(api, "generate_token", h.apiGenerateToken)
	h.mustSet(neopult, "api", api)

	cfgObj := h.rt.NewObject()
	h.mustSet(cfgObj, "websocket_password", h.cfg.WebsocketPassword)
	h.mustSet(neopult, "config", cfgObj)

	h.mustSet(neopult, "log", h.scopedLogObject(""))

	h.mustSet(h.rt.GlobalObject(), "neopult", neopult)
}

func (h *Host) mustSet(obj *goja.Object, name string, value interface{}) {
	if err := obj.Set(name, value); err != nil {
		panic(fmt.Sprintf("script: installing %q: %v", name, err))
	}
}

// LoadFile compiles and runs the channel's entry script. Errors here are
// fatal (spec.md §4.4 "Errors raised during the initial script load are
// fatal").
func (h *Host) LoadFile(path, src string) error {
	prog, err := goja.Compile(path, src, false)
	if err != nil {
		return fmt.Errorf("script: compile %s: %w", path, err)
	}
	if _, err := h.rt.RunProgram(prog); err != nil {
		return fmt.Errorf("script: run %s: %w", path, err)
	}
	return nil
}

// callScoped invokes a script callback, catching any panic/JS exception and
// logging it with a scope label instead of letting it escape onto the loop
// (spec.md §4.4, §7 "ScriptError").
func (h *Host) callScoped(scope string, fn func() error) {
	defer func() {
		if r := recover(); r != nil {
			h.logger.Error("script callback panicked", "scope", scope, "panic", fmt.Sprint(r))
		}
	}()
	if err := fn(); err != nil {
		h.logger.Error("script callback failed", "scope", scope, "error", err)
	}
}

func (h *Host) invoke(scope string, callable goja.Callable, args ...goja.Value) {
	h.callScoped(scope, func() error {
		_, err := callable(goja.Undefined(), args...)
		return err
	})
}

func asCallable(rt *goja.Runtime, v goja.Value, what string) (goja.Callable, error) {
	fn, ok := goja.AssertFunction(v)
	if !ok {
		return nil, fmt.Errorf("script: %s must be a function", what)
	}
	return fn, nil
}

func (h *Host) scopedLogObject(scope string) *goja.Object {
	logger := h.logger
	if scope != "" {
		logger = logger.With("scope", scope)
	}
	obj := h.rt.NewObject()
	h.mustSet(obj, "debug", func(msg string) { logger.Debug(msg) })
	h.mustSet(obj, "info", func(msg string) { logger.Info(msg) })
	h.mustSet(obj, "warn", func(msg string) { logger.Warn(msg) })
	h.mustSet(obj, "error", func(msg string) { logger.Error(msg) })
	return obj
}

func (h *Host) apiRunLater(callbackVal goja.Value) error {
	callback, err := asCallable(h.rt, callbackVal, "run_later argument")
	if err != nil {
		return err
	}
	h.loop.RunLater(func() {
		h.invoke("run_later", callback)
	})
	return nil
}
