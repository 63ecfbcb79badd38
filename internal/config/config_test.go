// SPDX-License-Identifier: MPL-2.0

package config

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

// setupDirs redirects config and data directory lookups to temp dirs.
// Tests mutating the overrides cannot run in parallel.
func setupDirs(t *testing.T) (configDir, dataDir string) {
	t.Helper()

	configDir = t.TempDir()
	dataDir = t.TempDir()
	SetConfigDirOverride(configDir)
	SetDataDirOverride(dataDir)
	t.Cleanup(Reset)
	return configDir, dataDir
}

func writeConfigFile(t *testing.T, dir, content string) string {
	t.Helper()

	path := filepath.Join(dir, ConfigFileName+"."+ConfigFileExt)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("writing config file: %v", err)
	}
	return path
}

func TestLoadDefaults(t *testing.T) {
	_, dataDir := setupDirs(t)

	cfg, err := NewProvider().Load(context.Background(), LoadOptions{})
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.Release.Owner != "ungoogled-software" {
		t.Errorf("Release.Owner = %q, want default", cfg.Release.Owner)
	}
	if cfg.Release.Repo != "ungoogled-chromium-portablelinux" {
		t.Errorf("Release.Repo = %q, want default", cfg.Release.Repo)
	}
	if cfg.Install.Executable != "chrome" {
		t.Errorf("Install.Executable = %q, want chrome", cfg.Install.Executable)
	}
	if cfg.Network.ProbeTimeout != 4*time.Second {
		t.Errorf("Network.ProbeTimeout = %v, want 4s", cfg.Network.ProbeTimeout)
	}

	// Directory fields derive from the data dir at load time.
	if want := filepath.Join(dataDir, "app"); cfg.Install.Dir != want {
		t.Errorf("Install.Dir = %q, want %q", cfg.Install.Dir, want)
	}
	if want := filepath.Join(dataDir, "profile"); cfg.Launch.ProfileDir != want {
		t.Errorf("Launch.ProfileDir = %q, want %q", cfg.Launch.ProfileDir, want)
	}
}

func TestLoadConfigFile(t *testing.T) {
	configDir, _ := setupDirs(t)

	writeConfigFile(t, configDir, `
release: {
	owner: "someone-else"
	repo:  "portable-fork"
}
install: {
	dir: "/opt/chromium"
}
launch: {
	backend:      "x11"
	scale_factor: "1.5"
	extra_flags: ["--disable-breakpad"]
}
network: {
	probe_timeout:    "10s"
	download_timeout: "5m"
}
desktop: {
	notify: false
}
`)

	cfg, err := NewProvider().Load(context.Background(), LoadOptions{})
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.Release.Owner != "someone-else" {
		t.Errorf("Release.Owner = %q, want override", cfg.Release.Owner)
	}
	if cfg.Install.Dir != "/opt/chromium" {
		t.Errorf("Install.Dir = %q, want /opt/chromium", cfg.Install.Dir)
	}
	if cfg.Launch.ScaleFactor != "1.5" {
		t.Errorf("Launch.ScaleFactor = %q, want 1.5", cfg.Launch.ScaleFactor)
	}
	if len(cfg.Launch.ExtraFlags) != 1 || cfg.Launch.ExtraFlags[0] != "--disable-breakpad" {
		t.Errorf("Launch.ExtraFlags = %v, want [--disable-breakpad]", cfg.Launch.ExtraFlags)
	}
	if cfg.Network.ProbeTimeout != 10*time.Second {
		t.Errorf("Network.ProbeTimeout = %v, want 10s", cfg.Network.ProbeTimeout)
	}
	if cfg.Network.DownloadTimeout != 5*time.Minute {
		t.Errorf("Network.DownloadTimeout = %v, want 5m", cfg.Network.DownloadTimeout)
	}
	if cfg.Launch.Backend != "x11" {
		t.Errorf("Launch.Backend = %q, want x11", cfg.Launch.Backend)
	}
	if cfg.Desktop.Notify {
		t.Error("Desktop.Notify = true, want overridden false")
	}

	// Untouched fields keep their defaults.
	if cfg.Release.BaseURL != "https://github.com" {
		t.Errorf("Release.BaseURL = %q, want default", cfg.Release.BaseURL)
	}
	if cfg.Install.Executable != "chrome" {
		t.Errorf("Install.Executable = %q, want default", cfg.Install.Executable)
	}
}

func TestLoadExplicitConfigFile(t *testing.T) {
	setupDirs(t)

	path := filepath.Join(t.TempDir(), "custom.cue")
	if err := os.WriteFile(path, []byte(`release: owner: "custom"`), 0o644); err != nil {
		t.Fatalf("writing config file: %v", err)
	}

	cfg, err := NewProvider().Load(context.Background(), LoadOptions{ConfigFilePath: path})
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Release.Owner != "custom" {
		t.Errorf("Release.Owner = %q, want custom", cfg.Release.Owner)
	}
}

func TestLoadExplicitConfigFileMissing(t *testing.T) {
	setupDirs(t)

	_, err := NewProvider().Load(context.Background(), LoadOptions{
		ConfigFilePath: filepath.Join(t.TempDir(), "nope.cue"),
	})
	if err == nil {
		t.Fatal("Load with missing explicit config succeeded, want error")
	}
}

func TestLoadRejectsSchemaViolation(t *testing.T) {
	configDir, _ := setupDirs(t)

	// desktop.notify must be a bool.
	writeConfigFile(t, configDir, `desktop: notify: "yes"`)

	_, err := NewProvider().Load(context.Background(), LoadOptions{})
	if err == nil {
		t.Fatal("Load with schema violation succeeded, want error")
	}
	if !strings.Contains(err.Error(), "notify") {
		t.Errorf("error %q does not name the offending field", err)
	}
}

func TestLoadRejectsMalformedCUE(t *testing.T) {
	configDir, _ := setupDirs(t)

	writeConfigFile(t, configDir, `release: { owner: `)

	_, err := NewProvider().Load(context.Background(), LoadOptions{})
	if err == nil {
		t.Fatal("Load with malformed CUE succeeded, want error")
	}
}

func TestLoadRejectsEmptyRequiredField(t *testing.T) {
	configDir, _ := setupDirs(t)

	writeConfigFile(t, configDir, `release: owner: ""`)

	_, err := NewProvider().Load(context.Background(), LoadOptions{})
	if err == nil {
		t.Fatal("Load with empty release.owner succeeded, want error")
	}
}

func TestLoadCanceledContext(t *testing.T) {
	setupDirs(t)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewProvider().Load(ctx, LoadOptions{})
	if err == nil {
		t.Fatal("Load with canceled context succeeded, want error")
	}
}

func TestValidate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{name: "defaults are valid", mutate: func(c *Config) {}},
		{name: "relative base url", mutate: func(c *Config) { c.Release.BaseURL = "github.com" }, wantErr: true},
		{name: "missing owner", mutate: func(c *Config) { c.Release.Owner = "" }, wantErr: true},
		{name: "missing archive template", mutate: func(c *Config) { c.Release.ArchiveTemplate = "" }, wantErr: true},
		{name: "missing executable", mutate: func(c *Config) { c.Install.Executable = "" }, wantErr: true},
		{name: "zero probe timeout", mutate: func(c *Config) { c.Network.ProbeTimeout = 0 }, wantErr: true},
		{name: "zero download timeout allowed", mutate: func(c *Config) { c.Network.DownloadTimeout = 0 }},
		{name: "negative download timeout", mutate: func(c *Config) { c.Network.DownloadTimeout = -time.Second }, wantErr: true},
		{name: "unknown backend", mutate: func(c *Config) { c.Launch.Backend = "fb" }, wantErr: true},
		{name: "wayland backend allowed", mutate: func(c *Config) { c.Launch.Backend = "wayland" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			cfg := DefaultConfig()
			tt.mutate(cfg)

			err := cfg.Validate()
			if tt.wantErr && err == nil {
				t.Error("Validate succeeded, want error")
			}
			if !tt.wantErr && err != nil {
				t.Errorf("Validate failed: %v", err)
			}
		})
	}
}

func TestExpandHome(t *testing.T) {
	home, err := os.UserHomeDir()
	if err != nil {
		t.Skipf("no home directory: %v", err)
	}

	tests := []struct {
		name  string
		input string
		want  string
	}{
		{name: "tilde prefix", input: "~" + string(filepath.Separator) + "x", want: filepath.Join(home, "x")},
		{name: "bare tilde", input: "~", want: home},
		{name: "absolute path untouched", input: "/opt/app", want: "/opt/app"},
		{name: "tilde mid-path untouched", input: "/a/~b", want: "/a/~b"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := expandHome(tt.input)
			if err != nil {
				t.Fatalf("expandHome(%q) failed: %v", tt.input, err)
			}
			if got != tt.want {
				t.Errorf("expandHome(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}
