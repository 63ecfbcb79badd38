// SPDX-License-Identifier: MPL-2.0

// Package desktop is the presentation boundary of the update engine: user
// notifications and one-time desktop-menu integration. The engine only ever
// talks to the Sink interface, so it can run headless (and be tested) with a
// no-op implementation.
package desktop

import "fmt"

// Level classifies a notification.
type Level int

const (
	// LevelInfo is routine progress information.
	LevelInfo Level = iota
	// LevelWarn is a condition the user should know about but that does not
	// stop the run, such as an unverifiable download.
	LevelWarn
	// LevelError is a fatal condition; the run is about to terminate.
	LevelError
)

// String returns a human-readable name for the level.
func (l Level) String() string {
	switch l {
	case LevelInfo:
		return "info"
	case LevelWarn:
		return "warn"
	case LevelError:
		return "error"
	}
	return fmt.Sprintf("level(%d)", int(l))
}

// Sink is the capability the update engine uses for all user-facing side
// effects outside its own process output.
type Sink interface {
	// Notify surfaces a message to the user. Best effort: implementations
	// must not fail the run.
	Notify(level Level, message string)

	// Integrate performs one-time desktop integration for a fresh install,
	// given the install directory and the resolved icon path.
	Integrate(installDir, iconPath string) error
}

// NoopSink discards all presentation calls.
type NoopSink struct{}

// Notify implements Sink.
func (NoopSink) Notify(Level, string) {}

// Integrate implements Sink.
func (NoopSink) Integrate(string, string) error { return nil }
