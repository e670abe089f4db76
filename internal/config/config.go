// Package config loads the channel process's environment-derived
// configuration with envconfig, the library the teacher repo uses for its
// own process configuration (api/pkg/config/config.go, cli_config.go).
package config

import (
	"fmt"
	"path/filepath"

	"github.com/kelseyhightower/envconfig"
)

// Config is the channel process's full environment-derived configuration,
// per spec.md §6.1.
type Config struct {
	// Channel is NEOPULT_CHANNEL, an integer 0..99 identifying the X
	// display and the derived admin port.
	Channel int `envconfig:"NEOPULT_CHANNEL" required:"true"`

	// Home is NEOPULT_HOME; the channel's own home directory is
	// Home/channel-<Channel>.
	Home string `envconfig:"NEOPULT_HOME" required:"true"`

	// Display is the X11 DISPLAY the window manager connects to.
	Display string `envconfig:"DISPLAY" required:"true"`

	// Log is a RUST_LOG-style level filter (see internal/logging).
	Log string `envconfig:"NEOPULT_LOG" default:"info"`

	// WebsocketPassword, if set, is read once at script-load time and
	// exposed to scripts as neopult.config.websocket_password; changes to
	// the environment after load are not observed (spec.md §5).
	WebsocketPassword string `envconfig:"NEOPULT_WEBSOCKET_PASSWORD"`

	// AdminPortBase is added to Channel to produce the admin WebSocket
	// port; spec.md §4.6 gives 4200 + channel as the convention.
	AdminPortBase int `envconfig:"NEOPULT_ADMIN_PORT_BASE" default:"4200"`

	// AuthTimeoutMs is the server-configured auth handshake timeout
	// (spec.md §4.6 conventionally 5s).
	AuthTimeoutMs int `envconfig:"NEOPULT_AUTH_TIMEOUT_MS" default:"5000"`

	// HeartbeatIntervalMs is the ping cadence for admin WebSocket clients.
	HeartbeatIntervalMs int `envconfig:"NEOPULT_HEARTBEAT_INTERVAL_MS" default:"10000"`

	// HeartbeatMissMs is how long the server waits for a "pong" before
	// closing a connection that missed a heartbeat.
	HeartbeatMissMs int `envconfig:"NEOPULT_HEARTBEAT_MISS_MS" default:"15000"`
}

// Load reads Config from the process environment.
func Load() (Config, error) {
	var c Config
	if err := envconfig.Process("", &c); err != nil {
		return Config{}, fmt.Errorf("load config: %w", err)
	}
	return c, nil
}

// ChannelHome is NEOPULT_HOME/channel-<N>, the directory scripts and their
// plugins live under (spec.md §6.2).
func (c Config) ChannelHome() string {
	return filepath.Join(c.Home, fmt.Sprintf("channel-%d", c.Channel))
}

// PluginPath is ChannelHome/plugins, on the script module search path.
func (c Config) PluginPath() string {
	return filepath.Join(c.ChannelHome(), "plugins")
}

// InitScript is the channel script loaded at start (spec.md §6.2); this
// implementation's scripting host is JS (see internal/script), so the
// conventional init.lua becomes init.js.
func (c Config) InitScript() string {
	return filepath.Join(c.ChannelHome(), "init.js")
}

// AdminPort is the TCP port the admin WebSocket server listens on.
func (c Config) AdminPort() int {
	return c.AdminPortBase + c.Channel
}
