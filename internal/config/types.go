// SPDX-License-Identifier: MPL-2.0

package config

import (
	"fmt"
	"net/url"
	"time"
)

type (
	// Config is the root configuration structure.
	Config struct {
		Release ReleaseConfig `mapstructure:"release"`
		Install InstallConfig `mapstructure:"install"`
		Launch  LaunchConfig  `mapstructure:"launch"`
		Network NetworkConfig `mapstructure:"network"`
		Desktop DesktopConfig `mapstructure:"desktop"`
		UI      UIConfig      `mapstructure:"ui"`
	}

	// ReleaseConfig locates the release host and names its artifacts.
	ReleaseConfig struct {
		// BaseURL is the release host root, e.g. "https://github.com".
		BaseURL string `mapstructure:"base_url"`
		// Owner and Repo identify the release repository.
		Owner string `mapstructure:"owner"`
		Repo  string `mapstructure:"repo"`
		// ArchiveTemplate is the per-platform archive filename; {tag} is
		// replaced with the resolved release tag.
		ArchiveTemplate string `mapstructure:"archive_template"`
		// ChecksumPageTemplate optionally overrides the URL of the checksum
		// document; {tag} is replaced with the resolved release tag. Empty
		// means the per-tag release page.
		ChecksumPageTemplate string `mapstructure:"checksum_page_template"`
	}

	// InstallConfig describes the local installation layout.
	InstallConfig struct {
		// Dir is the install directory. Empty resolves to the per-user data
		// directory at load time.
		Dir string `mapstructure:"dir"`
		// Executable is the application binary's filename inside Dir.
		Executable string `mapstructure:"executable"`
		// VersionFile is the sidecar version record's filename inside Dir.
		VersionFile string `mapstructure:"version_file"`
		// Icon is the application icon path relative to Dir, used for
		// first-run desktop integration.
		Icon string `mapstructure:"icon"`
	}

	// LaunchConfig feeds the launch flag composer.
	LaunchConfig struct {
		// ProfileDir is the isolated user-data directory. Empty resolves to
		// the per-user data directory at load time. It lives outside the
		// install directory and survives reinstalls.
		ProfileDir string `mapstructure:"profile_dir"`
		// Backend pins the display backend: "wayland", "x11", or "auto"/""
		// for environment detection. Command-line control flags override it.
		Backend string `mapstructure:"backend"`
		// ScaleFactor is passed through as a UI scale override when Wayland
		// flags are active. Deliberately a free-form string.
		ScaleFactor string `mapstructure:"scale_factor"`
		// ExtraFlags are always passed to the application, before any
		// user-supplied flags.
		ExtraFlags []string `mapstructure:"extra_flags"`
	}

	// NetworkConfig tunes network behavior.
	NetworkConfig struct {
		// ProbeTimeout bounds the connectivity probe; an unreachable host
		// degrades to offline behavior within this window.
		ProbeTimeout time.Duration `mapstructure:"probe_timeout"`
		// DownloadTimeout bounds every release-host request, including the
		// archive download. Zero means no limit.
		DownloadTimeout time.Duration `mapstructure:"download_timeout"`
	}

	// DesktopConfig controls the presentation sink.
	DesktopConfig struct {
		// Integrate enables first-run desktop entry creation.
		Integrate bool `mapstructure:"integrate"`
		// Notify enables desktop notifications.
		Notify bool `mapstructure:"notify"`
		// AppName is the display name used in notifications and menus.
		AppName string `mapstructure:"app_name"`
	}

	// UIConfig controls CLI output behavior.
	UIConfig struct {
		Verbose bool `mapstructure:"verbose"`
	}
)

// DefaultConfig returns the built-in defaults: upstream ungoogled-chromium
// portable Linux builds, installed under the per-user data directory.
func DefaultConfig() *Config {
	return &Config{
		Release: ReleaseConfig{
			BaseURL:         "https://github.com",
			Owner:           "ungoogled-software",
			Repo:            "ungoogled-chromium-portablelinux",
			ArchiveTemplate: "ungoogled-chromium_{tag}_linux.tar.xz",
		},
		Install: InstallConfig{
			Executable:  "chrome",
			VersionFile: ".uclaunch-version",
			Icon:        "product_logo_48.png",
		},
		Network: NetworkConfig{
			ProbeTimeout:    4 * time.Second,
			DownloadTimeout: 15 * time.Minute,
		},
		Desktop: DesktopConfig{
			Integrate: true,
			Notify:    true,
			AppName:   "Ungoogled Chromium",
		},
	}
}

// Validate checks constraints the CUE schema cannot express.
func (c *Config) Validate() error {
	u, err := url.Parse(c.Release.BaseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("release.base_url %q is not an absolute URL", c.Release.BaseURL)
	}
	if c.Release.Owner == "" || c.Release.Repo == "" {
		return fmt.Errorf("release.owner and release.repo must be set")
	}
	if c.Release.ArchiveTemplate == "" {
		return fmt.Errorf("release.archive_template must be set")
	}
	if c.Install.Executable == "" {
		return fmt.Errorf("install.executable must be set")
	}
	if c.Install.VersionFile == "" {
		return fmt.Errorf("install.version_file must be set")
	}
	if c.Network.ProbeTimeout <= 0 {
		return fmt.Errorf("network.probe_timeout must be positive")
	}
	if c.Network.DownloadTimeout < 0 {
		return fmt.Errorf("network.download_timeout must not be negative")
	}
	switch c.Launch.Backend {
	case "", "auto", "wayland", "x11":
	default:
		return fmt.Errorf("launch.backend %q is not one of auto, wayland, x11", c.Launch.Backend)
	}
	return nil
}
