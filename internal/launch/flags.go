// SPDX-License-Identifier: MPL-2.0

// Package launch composes the managed application's command line from
// environment signals and user overrides, and starts the process detached
// from the orchestrator.
package launch

import (
	"os"
	"strings"
)

const (
	// FlagForceWayland is the control flag that enables Wayland flags
	// regardless of environment evidence. Consumed, never forwarded.
	FlagForceWayland = "--force-wayland"

	// FlagForceX11 is the control flag that suppresses all Wayland flags.
	// Consumed, never forwarded.
	FlagForceX11 = "--force-x11"

	flagUserDataDir    = "--user-data-dir"
	flagOzonePlatform  = "--ozone-platform"
	flagWaylandBackend = "--ozone-platform=wayland"
	flagScaleFactor    = "--force-device-scale-factor"
)

type (
	// Backend is the selected display backend.
	Backend int

	// Environment is an explicit, read-only snapshot of the display-related
	// environment. It replaces implicit os.Getenv lookups inside the
	// composition logic so tests can drive every branch.
	Environment struct {
		SessionType    string // $XDG_SESSION_TYPE
		WaylandDisplay string // $WAYLAND_DISPLAY
	}

	// Options carries the configured, non-environment inputs to composition.
	Options struct {
		// ProfileDir is prepended as an isolated user-data directory unless
		// the user already supplied one. Isolation prevents state collisions
		// with other installations sharing the engine's default profile
		// location.
		ProfileDir string

		// ScaleFactor, when non-empty and Wayland flags are active, is passed
		// through as a UI scale override. It is not validated numerically.
		ScaleFactor string

		// ExtraFlags are configured flags inserted before the user's own.
		ExtraFlags []string
	}

	// Composition is the result of composing a launch command line.
	Composition struct {
		Backend Backend
		Args    []string
	}
)

const (
	// BackendDefault lets the application pick its native backend (X11 or
	// XWayland fallback); no special flags are added.
	BackendDefault Backend = iota
	// BackendWayland runs the application natively on Wayland.
	BackendWayland
)

// String returns a human-readable name for the backend.
func (b Backend) String() string {
	if b == BackendWayland {
		return "wayland"
	}
	return "default"
}

// CurrentEnvironment snapshots the display-related process environment.
func CurrentEnvironment() Environment {
	return Environment{
		SessionType:    os.Getenv("XDG_SESSION_TYPE"),
		WaylandDisplay: os.Getenv("WAYLAND_DISPLAY"),
	}
}

// WaylandSession reports whether the environment shows evidence of a running
// Wayland session.
func (e Environment) WaylandSession() bool {
	return strings.EqualFold(e.SessionType, "wayland") || e.WaylandDisplay != ""
}

// Compose builds the final argument list for the application process.
//
// userArgs are partitioned into the two recognized control flags and
// pass-through flags; control flags are consumed here. Backend detection
// precedence: an explicit platform flag among the pass-through arguments
// disables detection entirely; otherwise FlagForceX11 wins outright,
// then FlagForceWayland or Wayland session evidence enables Wayland flags,
// and the default adds nothing.
func Compose(userArgs []string, env Environment, opts Options) Composition {
	var forceWayland, forceX11 bool
	passthrough := make([]string, 0, len(userArgs))
	for _, a := range userArgs {
		switch a {
		case FlagForceWayland:
			forceWayland = true
		case FlagForceX11:
			forceX11 = true
		default:
			passthrough = append(passthrough, a)
		}
	}

	var args []string
	if opts.ProfileDir != "" && !hasFlag(passthrough, flagUserDataDir) && !hasFlag(opts.ExtraFlags, flagUserDataDir) {
		args = append(args, flagUserDataDir+"="+opts.ProfileDir)
	}
	args = append(args, opts.ExtraFlags...)
	args = append(args, passthrough...)

	backend := BackendDefault
	switch {
	case hasPlatformFlag(passthrough) || hasPlatformFlag(opts.ExtraFlags):
		// User intent wins over auto-detection.
	case forceX11:
		// Forced X11 suppresses every Wayland flag, including the scale
		// override.
	case forceWayland || env.WaylandSession():
		backend = BackendWayland
		args = append(args, flagWaylandBackend)
		if opts.ScaleFactor != "" {
			args = append(args, flagScaleFactor+"="+opts.ScaleFactor)
		}
	}

	return Composition{Backend: backend, Args: args}
}

// hasFlag reports whether args contains name, bare or in name=value form.
func hasFlag(args []string, name string) bool {
	for _, a := range args {
		if a == name || strings.HasPrefix(a, name+"=") {
			return true
		}
	}
	return false
}

// hasPlatformFlag matches any explicit backend selection, covering both
// --ozone-platform=... and --ozone-platform-hint=....
func hasPlatformFlag(args []string) bool {
	for _, a := range args {
		if strings.HasPrefix(a, flagOzonePlatform) {
			return true
		}
	}
	return false
}
