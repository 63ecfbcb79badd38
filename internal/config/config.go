// SPDX-License-Identifier: MPL-2.0

package config

import (
	"context"
	_ "embed"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"github.com/spf13/viper"

	"uclaunch/internal/cueutil"
)

const (
	// AppName is the application name, used for config and data directories.
	AppName = "uclaunch"
	// ConfigFileName is the name of the config file (without extension).
	ConfigFileName = "config"
	// ConfigFileExt is the config file extension.
	ConfigFileExt = "cue"
)

//go:embed config_schema.cue
var configSchema string

// ConfigDir returns the uclaunch configuration directory using
// platform-specific conventions: Windows uses %APPDATA%, macOS uses
// ~/Library/Application Support, Linux and others use $XDG_CONFIG_HOME
// (defaulting to ~/.config).
//
//nolint:revive // ConfigDir is more descriptive than Dir for external callers
func ConfigDir() (string, error) {
	if configDirOverride != "" {
		return configDirOverride, nil
	}

	var configDir string

	switch runtime.GOOS {
	case "windows":
		configDir = os.Getenv("APPDATA")
		if configDir == "" {
			configDir = filepath.Join(os.Getenv("USERPROFILE"), "AppData", "Roaming")
		}
	case "darwin":
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("failed to get home directory: %w", err)
		}
		configDir = filepath.Join(home, "Library", "Application Support")
	default: // Linux and others
		configDir = os.Getenv("XDG_CONFIG_HOME")
		if configDir == "" {
			home, err := os.UserHomeDir()
			if err != nil {
				return "", fmt.Errorf("failed to get home directory: %w", err)
			}
			configDir = filepath.Join(home, ".config")
		}
	}

	return filepath.Join(configDir, AppName), nil
}

// DataDir returns the uclaunch data directory ($XDG_DATA_HOME or
// ~/.local/share on Linux), which hosts the default install and profile
// directories.
func DataDir() (string, error) {
	if dataDirOverride != "" {
		return dataDirOverride, nil
	}

	if data := os.Getenv("XDG_DATA_HOME"); data != "" {
		return filepath.Join(data, AppName), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}
	return filepath.Join(home, ".local", "share", AppName), nil
}

// loadWithOptions performs option-driven config loading without mutating
// package-level state.
func loadWithOptions(ctx context.Context, opts LoadOptions) (*Config, string, error) {
	select {
	case <-ctx.Done():
		return nil, "", fmt.Errorf("load config canceled: %w", ctx.Err())
	default:
	}

	v := viper.New()

	defaults := DefaultConfig()
	v.SetDefault("release.base_url", defaults.Release.BaseURL)
	v.SetDefault("release.owner", defaults.Release.Owner)
	v.SetDefault("release.repo", defaults.Release.Repo)
	v.SetDefault("release.archive_template", defaults.Release.ArchiveTemplate)
	v.SetDefault("release.checksum_page_template", defaults.Release.ChecksumPageTemplate)
	v.SetDefault("install.dir", defaults.Install.Dir)
	v.SetDefault("install.executable", defaults.Install.Executable)
	v.SetDefault("install.version_file", defaults.Install.VersionFile)
	v.SetDefault("install.icon", defaults.Install.Icon)
	v.SetDefault("launch.profile_dir", defaults.Launch.ProfileDir)
	v.SetDefault("launch.backend", defaults.Launch.Backend)
	v.SetDefault("launch.scale_factor", defaults.Launch.ScaleFactor)
	v.SetDefault("launch.extra_flags", defaults.Launch.ExtraFlags)
	v.SetDefault("network.probe_timeout", defaults.Network.ProbeTimeout)
	v.SetDefault("network.download_timeout", defaults.Network.DownloadTimeout)
	v.SetDefault("desktop.integrate", defaults.Desktop.Integrate)
	v.SetDefault("desktop.notify", defaults.Desktop.Notify)
	v.SetDefault("desktop.app_name", defaults.Desktop.AppName)
	v.SetDefault("ui.verbose", defaults.UI.Verbose)

	resolvedPath := ""

	if opts.ConfigFilePath != "" {
		// A custom config file path is used exclusively; a missing file is
		// an error rather than a silent fallback.
		if !fileExists(opts.ConfigFilePath) {
			return nil, "", fmt.Errorf("config file not found: %s", opts.ConfigFilePath)
		}
		if err := loadCUEIntoViper(v, opts.ConfigFilePath); err != nil {
			return nil, "", err
		}
		resolvedPath = opts.ConfigFilePath
	} else {
		cfgDir, err := configDirWithOverride(opts.ConfigDirPath)
		if err != nil {
			return nil, "", err
		}

		cuePath := filepath.Join(cfgDir, ConfigFileName+"."+ConfigFileExt)
		if fileExists(cuePath) {
			if err := loadCUEIntoViper(v, cuePath); err != nil {
				return nil, "", err
			}
			resolvedPath = cuePath
		}
		// No config file found: defaults apply, no error.
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, "", fmt.Errorf("failed to parse config: %w", err)
	}

	if err := applyDerivedDefaults(&cfg); err != nil {
		return nil, "", err
	}

	if err := cfg.Validate(); err != nil {
		if resolvedPath != "" {
			return nil, "", fmt.Errorf("%s: %w", resolvedPath, err)
		}
		return nil, "", err
	}

	return &cfg, resolvedPath, nil
}

// applyDerivedDefaults fills the directory fields that depend on the user's
// home at load time and expands a leading "~" in user-supplied paths. The
// profile directory deliberately lives outside the install directory so it
// survives reinstalls and upgrades.
func applyDerivedDefaults(cfg *Config) error {
	if cfg.Install.Dir == "" || cfg.Launch.ProfileDir == "" {
		dataDir, err := DataDir()
		if err != nil {
			return err
		}
		if cfg.Install.Dir == "" {
			cfg.Install.Dir = filepath.Join(dataDir, "app")
		}
		if cfg.Launch.ProfileDir == "" {
			cfg.Launch.ProfileDir = filepath.Join(dataDir, "profile")
		}
	}

	for _, p := range []*string{&cfg.Install.Dir, &cfg.Launch.ProfileDir} {
		expanded, err := expandHome(*p)
		if err != nil {
			return err
		}
		*p = expanded
	}
	return nil
}

// expandHome replaces a leading "~" with the user's home directory.
func expandHome(p string) (string, error) {
	if p != "~" && !strings.HasPrefix(p, "~"+string(filepath.Separator)) {
		return p, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}
	return filepath.Join(home, strings.TrimPrefix(p, "~")), nil
}

// configDirWithOverride resolves the configuration directory, honoring
// explicit provider options before platform defaults.
func configDirWithOverride(configDirPath string) (string, error) {
	if configDirPath != "" {
		return configDirPath, nil
	}
	return ConfigDir()
}

// loadCUEIntoViper parses a CUE file, validates it against the #Config
// schema, and merges its contents into Viper. Manual parsing instead of a
// struct decode because the result must merge into Viper's config map to
// preserve defaults.
func loadCUEIntoViper(v *viper.Viper, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}

	if err := cueutil.CheckFileSize(data, cueutil.DefaultMaxFileSize, path); err != nil {
		return err
	}

	ctx := cuecontext.New()

	schemaValue := ctx.CompileString(configSchema)
	if schemaValue.Err() != nil {
		return fmt.Errorf("internal error: failed to compile config schema: %w", schemaValue.Err())
	}

	userValue := ctx.CompileBytes(data, cue.Filename(path))
	if userValue.Err() != nil {
		return cueutil.FormatError(userValue.Err(), path)
	}

	// Unify with the schema to validate against the #Config definition.
	// Concrete(false) because all config fields are optional.
	schema := schemaValue.LookupPath(cue.ParsePath("#Config"))
	unified := schema.Unify(userValue)
	if err := unified.Validate(cue.Concrete(false)); err != nil {
		return cueutil.FormatError(err, path)
	}

	var configMap map[string]any
	if err := unified.Decode(&configMap); err != nil {
		return cueutil.FormatError(err, path)
	}

	if err := v.MergeConfigMap(configMap); err != nil {
		return fmt.Errorf("failed to merge config: %w", err)
	}

	return nil
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}
