// SPDX-License-Identifier: MPL-2.0

package launch

import (
	"fmt"
	"os"
	"os/exec"
)

// ProcessError reports a failure to start the application. It is distinct
// from install failures so a user can retry the launch without
// re-downloading anything.
type ProcessError struct {
	Path string
	Err  error
}

// Error returns a human-readable description of the launch failure.
func (e *ProcessError) Error() string {
	return fmt.Sprintf("launching %s: %v", e.Path, e.Err)
}

// Unwrap returns the underlying error.
func (e *ProcessError) Unwrap() error { return e.Err }

// Start launches the application detached: its own session, standard streams
// on the null device, never waited on. The process outlives the orchestrator,
// which exits immediately after a successful start.
func Start(exePath string, args []string) (int, error) {
	devnull, err := os.OpenFile(os.DevNull, os.O_RDWR, 0)
	if err != nil {
		return 0, &ProcessError{Path: exePath, Err: err}
	}
	defer func() {
		// The child holds its own descriptor after Start.
		_ = devnull.Close()
	}()

	cmd := exec.Command(exePath, args...)
	cmd.Stdin = devnull
	cmd.Stdout = devnull
	cmd.Stderr = devnull
	cmd.SysProcAttr = detachAttr()

	if err := cmd.Start(); err != nil {
		return 0, &ProcessError{Path: exePath, Err: err}
	}

	pid := cmd.Process.Pid
	_ = cmd.Process.Release()
	return pid, nil
}
