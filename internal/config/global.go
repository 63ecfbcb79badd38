// SPDX-License-Identifier: MPL-2.0

package config

// configDirOverride and dataDirOverride let tests redirect directory lookups.
// Necessary because os.UserHomeDir() doesn't reliably respect the HOME
// environment variable on all platforms.
var (
	configDirOverride string
	dataDirOverride   string
)

// Reset clears test overrides. Call from test cleanup to restore defaults.
func Reset() {
	configDirOverride = ""
	dataDirOverride = ""
}

// SetConfigDirOverride sets a custom config directory path, primarily for
// tests.
func SetConfigDirOverride(dir string) {
	configDirOverride = dir
}

// SetDataDirOverride sets a custom data directory path, primarily for tests.
func SetDataDirOverride(dir string) {
	dataDirOverride = dir
}
