// SPDX-License-Identifier: MPL-2.0

package launch

import (
	"errors"
	"os/exec"
	"path/filepath"
	"testing"
)

func TestStartMissingExecutable(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "does-not-exist")
	_, err := Start(path, nil)

	var procErr *ProcessError
	if !errors.As(err, &procErr) {
		t.Fatalf("error = %v, want *ProcessError", err)
	}
	if procErr.Path != path {
		t.Errorf("Path = %q, want %q", procErr.Path, path)
	}
}

func TestStartDetached(t *testing.T) {
	t.Parallel()

	exe, err := exec.LookPath("true")
	if err != nil {
		t.Skip("no 'true' binary available")
	}

	pid, err := Start(exe, nil)
	if err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	if pid <= 0 {
		t.Errorf("pid = %d, want > 0", pid)
	}
}
