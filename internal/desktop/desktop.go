// SPDX-License-Identifier: MPL-2.0

package desktop

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/charmbracelet/log"
)

type (
	// Integrator is the production Sink: notifications go to the structured
	// logger and, best effort, to the desktop notification daemon; first-run
	// integration writes a desktop entry so the application shows up in
	// launcher menus.
	Integrator struct {
		appID           string // desktop entry filename stem, e.g. "uclaunch-chromium"
		displayName     string // menu display name
		execPath        string // installed executable the entry launches
		applicationsDir string // override for tests; empty means XDG default
		notify          bool
		integrate       bool
		logger          *log.Logger
	}

	// IntegratorOption configures an Integrator during construction.
	IntegratorOption func(*Integrator)
)

// WithApplicationsDir overrides the desktop entry directory, primarily for tests.
func WithApplicationsDir(dir string) IntegratorOption {
	return func(i *Integrator) { i.applicationsDir = dir }
}

// WithLogger sets the logger notifications are mirrored to.
func WithLogger(l *log.Logger) IntegratorOption {
	return func(i *Integrator) { i.logger = l }
}

// WithNotifications toggles desktop notifications. Logging is unaffected.
func WithNotifications(enabled bool) IntegratorOption {
	return func(i *Integrator) { i.notify = enabled }
}

// WithMenuIntegration toggles desktop entry creation. When disabled,
// Integrate is a no-op.
func WithMenuIntegration(enabled bool) IntegratorOption {
	return func(i *Integrator) { i.integrate = enabled }
}

// NewIntegrator creates the production Sink for the given application.
// execPath is the installed executable the desktop entry will launch.
func NewIntegrator(appID, displayName, execPath string, opts ...IntegratorOption) *Integrator {
	i := &Integrator{
		appID:       appID,
		displayName: displayName,
		execPath:    execPath,
		notify:      true,
		integrate:   true,
		logger:      log.Default(),
	}
	for _, opt := range opts {
		opt(i)
	}
	return i
}

// Notify mirrors the message to the logger and, when enabled, to the desktop
// notification daemon. Notification failures are ignored: a missing daemon
// must never break an update run.
func (i *Integrator) Notify(level Level, message string) {
	switch level {
	case LevelWarn:
		i.logger.Warn(message)
	case LevelError:
		i.logger.Error(message)
	default:
		i.logger.Info(message)
	}

	if i.notify {
		_ = sendNotification(urgencyFor(level), i.displayName, message)
	}
}

// Integrate writes the desktop entry for a freshly installed application.
// Called exactly once, on the first successful install.
func (i *Integrator) Integrate(installDir, iconPath string) error {
	if !i.integrate {
		return nil
	}

	dir := i.applicationsDir
	if dir == "" {
		var err error
		dir, err = defaultApplicationsDir()
		if err != nil {
			return err
		}
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating applications directory: %w", err)
	}

	entry := desktopEntry(i.displayName, i.execPath, iconPath)
	dest := filepath.Join(dir, i.appID+".desktop")

	tmp, err := os.CreateTemp(dir, i.appID+".desktop.*")
	if err != nil {
		return fmt.Errorf("creating desktop entry: %w", err)
	}
	if _, err := tmp.WriteString(entry); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmp.Name())
		return fmt.Errorf("writing desktop entry: %w", err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmp.Name())
		return fmt.Errorf("closing desktop entry: %w", err)
	}
	if err := os.Chmod(tmp.Name(), 0o644); err != nil {
		_ = os.Remove(tmp.Name())
		return fmt.Errorf("setting desktop entry permissions: %w", err)
	}
	if err := os.Rename(tmp.Name(), dest); err != nil {
		_ = os.Remove(tmp.Name())
		return fmt.Errorf("installing desktop entry: %w", err)
	}

	i.logger.Info("desktop entry installed", "path", dest)
	return nil
}

// desktopEntry renders the freedesktop.org entry content.
func desktopEntry(name, execPath, iconPath string) string {
	return fmt.Sprintf(`[Desktop Entry]
Version=1.0
Type=Application
Name=%s
Exec=%s %%U
Icon=%s
Terminal=false
StartupNotify=true
Categories=Network;WebBrowser;
`, name, execPath, iconPath)
}

// defaultApplicationsDir resolves the per-user desktop entry directory per
// the XDG base directory spec.
func defaultApplicationsDir() (string, error) {
	if data := os.Getenv("XDG_DATA_HOME"); data != "" {
		return filepath.Join(data, "applications"), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolving home directory: %w", err)
	}
	return filepath.Join(home, ".local", "share", "applications"), nil
}

func urgencyFor(level Level) string {
	switch level {
	case LevelError:
		return "critical"
	case LevelWarn:
		return "normal"
	default:
		return "low"
	}
}
