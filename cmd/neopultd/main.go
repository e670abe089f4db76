// Command neopultd is the per-channel orchestrator process (spec.md §4,
// component C7): it loads configuration, builds the logger, connects the
// window manager, starts the process supervisor and admin server, loads
// the channel's init script, and wires signal-driven shutdown.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sdoering01/neopult/internal/admin"
	"github.com/sdoering01/neopult/internal/config"
	"github.com/sdoering01/neopult/internal/loop"
	"github.com/sdoering01/neopult/internal/logging"
	"github.com/sdoering01/neopult/internal/process"
	"github.com/sdoering01/neopult/internal/registry"
	"github.com/sdoering01/neopult/internal/script"
	"github.com/sdoering01/neopult/internal/wm"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, "neopultd:", err)
		os.Exit(1)
	}

	rootLogger, filter := logging.New(os.Stdout, cfg.Log)
	logger := rootLogger.With("channel", cfg.Channel)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	l := loop.New()
	reg := registry.New()

	procLogger := logging.ForComponent(os.Stdout, filter, "process")
	proc := process.New(l.Post, procLogger)

	wmLogger := logging.ForComponent(os.Stdout, filter, "wm")
	wmgr, err := wm.New(cfg.Display, l.Post, l.RunLater, func(err error) {
		logger.Error("fatal X error, shutting down", "error", err)
		l.Fatal(err)
	}, wmLogger)
	if err != nil {
		logger.Error("failed to start window manager", "error", err)
		os.Exit(1)
	}

	adminLogger := logging.ForComponent(os.Stdout, filter, "admin")
	adminServer := admin.NewServer(admin.Config{
		Password:          cfg.WebsocketPassword,
		AuthTimeout:       time.Duration(cfg.AuthTimeoutMs) * time.Millisecond,
		HeartbeatInterval: time.Duration(cfg.HeartbeatIntervalMs) * time.Millisecond,
		HeartbeatMiss:     time.Duration(cfg.HeartbeatMissMs) * time.Millisecond,
	}, reg, l, adminLogger)

	mux := http.NewServeMux()
	mux.Handle("/ws", adminServer.Handler())
	httpServer := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.AdminPort()),
		Handler: mux,
	}
	go func() {
		logger.Info("admin websocket server listening", "port", cfg.AdminPort())
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("admin websocket server stopped", "error", err)
		}
	}()

	scriptLogger := logging.ForComponent(os.Stdout, filter, "script")
	host := script.New(cfg, l, reg, proc, wmgr, scriptLogger)

	go func() {
		<-ctx.Done()
		logger.Info("shutdown requested")
		l.Stop()
	}()

	src, err := os.ReadFile(cfg.InitScript())
	if err != nil {
		logger.Error("failed to read init script", "path", cfg.InitScript(), "error", err)
		os.Exit(1)
	}
	if err := host.LoadFile(cfg.InitScript(), string(src)); err != nil {
		logger.Error("fatal error loading init script", "error", err)
		os.Exit(1)
	}

	l.Run(func() {
		for _, p := range reg.PluginInstances() {
			p.RunCleanup()
		}
	})

	proc.KillAll()
	wmgr.Close()
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer shutdownCancel()
	_ = httpServer.Shutdown(shutdownCtx)

	if err := l.FatalErr(); err != nil {
		logger.Error("exiting after fatal error", "error", err)
		os.Exit(1)
	}
}
