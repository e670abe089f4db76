// Package logging builds the process-wide slog logger from a RUST_LOG-style
// filter string, following the scoped-logger convention the teacher repo
// uses throughout api/pkg/desktop (a *slog.Logger threaded into every
// constructor, never a package-level global).
package logging

import (
	"fmt"
	"io"
	"log/slog"
	"strings"
)

// Filter parses a level-filter string of the form "info" or
// "warn,wm=debug,admin=debug": a global default level followed by optional
// per-module overrides, mirroring NEOPULT_LOG from spec.md §6.1.
type Filter struct {
	Default   slog.Level
	Overrides map[string]slog.Level
}

// ParseFilter parses s, defaulting to info on an empty string and ignoring
// unparsable segments rather than failing startup over a log-level typo.
func ParseFilter(s string) Filter {
	f := Filter{Default: slog.LevelInfo, Overrides: map[string]slog.Level{}}
	if strings.TrimSpace(s) == "" {
		return f
	}
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		if module, level, found := strings.Cut(part, "="); found {
			if lvl, ok := parseLevel(level); ok {
				f.Overrides[module] = lvl
			}
			continue
		}
		if lvl, ok := parseLevel(part); ok {
			f.Default = lvl
		}
	}
	return f
}

func parseLevel(s string) (slog.Level, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "trace", "debug":
		return slog.LevelDebug, true
	case "info":
		return slog.LevelInfo, true
	case "warn", "warning":
		return slog.LevelWarn, true
	case "error":
		return slog.LevelError, true
	default:
		return 0, false
	}
}

// LevelFor resolves the effective level for a named module (a component tag
// such as "wm" or "admin"), falling back to the default level.
func (f Filter) LevelFor(module string) slog.Level {
	if lvl, ok := f.Overrides[module]; ok {
		return lvl
	}
	return f.Default
}

// New builds the root logger at the filter's default level. Components that
// need a stricter or looser level (per f.Overrides) get one via
// ForComponent instead of a shared global, matching the teacher's "logger
// is a constructor argument" convention.
func New(w io.Writer, filterSpec string) (*slog.Logger, Filter) {
	filter := ParseFilter(filterSpec)
	handler := slog.NewTextHandler(w, &slog.HandlerOptions{Level: filter.Default})
	return slog.New(handler), filter
}

// ForComponent returns base re-leveled for a named component (creating a new
// handler at that component's configured level) and tagged with
// component=name, for the per-subsystem loggers C1–C7 each take.
func ForComponent(w io.Writer, filter Filter, name string) *slog.Logger {
	handler := slog.NewTextHandler(w, &slog.HandlerOptions{Level: filter.LevelFor(name)})
	return slog.New(handler).With("component", name)
}

// Scoped returns a logger tagged with a "plugin_instance::module" style
// scope label, used when catching and logging errors raised from script
// callbacks per §4.4/§7 (ScriptError).
func Scoped(base *slog.Logger, pluginInstance, module string) *slog.Logger {
	scope := pluginInstance
	if module != "" {
		scope = fmt.Sprintf("%s::%s", pluginInstance, module)
	}
	return base.With("scope", scope)
}
