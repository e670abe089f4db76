package config

import "testing"

func setBaseEnv(t *testing.T) {
	t.Helper()
	t.Setenv("NEOPULT_CHANNEL", "3")
	t.Setenv("NEOPULT_HOME", "/srv/neopult")
	t.Setenv("DISPLAY", ":3")
}

func TestLoadAppliesDefaults(t *testing.T) {
	setBaseEnv(t)

	c, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if c.Channel != 3 {
		t.Fatalf("got channel %d, want 3", c.Channel)
	}
	if c.Log != "info" {
		t.Fatalf("got log filter %q, want info", c.Log)
	}
	if c.AdminPortBase != 4200 {
		t.Fatalf("got admin port base %d, want 4200", c.AdminPortBase)
	}
}

func TestLoadFailsWithoutRequiredFields(t *testing.T) {
	t.Setenv("NEOPULT_CHANNEL", "")
	t.Setenv("NEOPULT_HOME", "")
	t.Setenv("DISPLAY", "")

	if _, err := Load(); err == nil {
		t.Fatal("expected Load to fail when required fields are missing")
	}
}

func TestChannelHomeAndDerivedPaths(t *testing.T) {
	c := Config{Channel: 7, Home: "/srv/neopult"}

	if got, want := c.ChannelHome(), "/srv/neopult/channel-7"; got != want {
		t.Fatalf("ChannelHome() = %q, want %q", got, want)
	}
	if got, want := c.PluginPath(), "/srv/neopult/channel-7/plugins"; got != want {
		t.Fatalf("PluginPath() = %q, want %q", got, want)
	}
	if got, want := c.InitScript(), "/srv/neopult/channel-7/init.js"; got != want {
		t.Fatalf("InitScript() = %q, want %q", got, want)
	}
}

func TestAdminPortAddsBaseAndChannel(t *testing.T) {
	c := Config{Channel: 5, AdminPortBase: 4200}
	if got, want := c.AdminPort(), 4205; got != want {
		t.Fatalf("AdminPort() = %d, want %d", got, want)
	}
}
