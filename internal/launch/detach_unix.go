// SPDX-License-Identifier: MPL-2.0

//go:build unix

package launch

import "syscall"

// detachAttr puts the child in its own session so it survives the
// orchestrator's exit and terminal.
func detachAttr() *syscall.SysProcAttr {
	return &syscall.SysProcAttr{Setsid: true}
}
