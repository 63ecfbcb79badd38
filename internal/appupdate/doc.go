// SPDX-License-Identifier: MPL-2.0

// Package appupdate implements the update lifecycle for the managed browser
// installation: resolving the latest published release, comparing it against
// the installed version, downloading and verifying the release archive, and
// installing it without ever leaving a half-written installation behind.
//
// The package is organized into five concerns:
//   - version.go: dotted-numeric version parsing and component-wise ordering
//   - store.go: the sidecar version record that is the source of truth for
//     "what is installed"
//   - resolver.go: redirect-based latest-release resolution and archive download
//   - checksum.go: SHA256 digest extraction from checksum pages and verification
//   - engine.go: the orchestrator that composes the above into one run
package appupdate
