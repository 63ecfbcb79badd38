// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"errors"
	"fmt"

	"uclaunch/internal/appupdate"
	"uclaunch/internal/launch"
)

// Exit codes. Scripts wrapping uclaunch branch on these, so they are part
// of the CLI contract.
const (
	ExitOK            = 0
	ExitGeneric       = 1
	ExitOfflineNoInst = 2
	ExitResolution    = 3
	ExitDownload      = 4
	ExitChecksum      = 5
	ExitExtraction    = 6
	ExitLaunch        = 7
)

// classifyExitCode maps a lifecycle error to its exit code.
func classifyExitCode(err error) int {
	var (
		resErr  *appupdate.ResolutionError
		dlErr   *appupdate.DownloadError
		extErr  *appupdate.ExtractionError
		procErr *launch.ProcessError
	)
	switch {
	case errors.Is(err, appupdate.ErrNotInstalled):
		return ExitOfflineNoInst
	case errors.As(err, &resErr):
		return ExitResolution
	case errors.As(err, &dlErr):
		return ExitDownload
	case errors.Is(err, appupdate.ErrChecksumMismatch):
		return ExitChecksum
	case errors.As(err, &extErr):
		return ExitExtraction
	case errors.As(err, &procErr):
		return ExitLaunch
	default:
		return ExitGeneric
	}
}

// formatFatalError renders a lifecycle error with remediation hints where
// the failure mode has a known next step for the user.
func formatFatalError(err error) string {
	msg := ErrorStyle.Render("Error: ") + err.Error()

	switch classifyExitCode(err) {
	case ExitOfflineNoInst:
		msg += "\n\n" + SubtitleStyle.Render("The release host is unreachable and no version is installed yet.\n"+
			"Connect to the network and run ") + CmdStyle.Render("uclaunch update") + SubtitleStyle.Render(" to install.")
	case ExitResolution:
		msg += "\n\n" + SubtitleStyle.Render("Could not determine the latest release. The release host may be\n"+
			"down or the configured repository may have moved. Check the\n"+
			"release settings in your config file.")
	case ExitChecksum:
		msg += "\n\n" + SubtitleStyle.Render("The downloaded archive does not match its published checksum.\n"+
			"Nothing was installed. Retry later; if the mismatch persists,\n"+
			"treat the release as suspect.")
	case ExitExtraction:
		msg += "\n\n" + SubtitleStyle.Render("Extraction failed before the new version was activated; the\n"+
			"previous installation is untouched.")
	case ExitLaunch:
		msg += "\n\n" + SubtitleStyle.Render("The installed executable could not be started. Run ") + CmdStyle.Render("uclaunch check") + SubtitleStyle.Render("\nto inspect the installation state.")
	}
	return msg
}

// fatal wraps err in an ExitError carrying its classified exit code.
func fatal(err error) error {
	return &ExitError{Code: classifyExitCode(err), Err: err}
}

// fatalf builds a generic ExitError from a format string.
func fatalf(format string, args ...any) error {
	return &ExitError{Code: ExitGeneric, Err: fmt.Errorf(format, args...)}
}
