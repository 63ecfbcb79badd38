// SPDX-License-Identifier: MPL-2.0

// Package config loads the uclaunch configuration: a CUE file validated
// against an embedded schema and merged into Viper over built-in defaults.
// Everything the update engine and the launch composer need (release host
// coordinates, install and profile directories, display preferences) comes
// from here; neither consults the environment for configuration directly.
package config
