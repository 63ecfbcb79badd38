// SPDX-License-Identifier: MPL-2.0

package appupdate

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

type (
	// InstalledState is the durable record of what is installed: the version
	// string from the sidecar record and the path of the application
	// executable it describes.
	InstalledState struct {
		Version        Version
		ExecutablePath string
	}

	// Store reads and writes the sidecar version record inside the install
	// directory. The record is deliberately a separate file written by the
	// installer itself; the installed version is never re-derived by invoking
	// the application with a --version flag and scraping its output.
	Store struct {
		installDir  string
		exeName     string
		versionFile string
	}
)

// NewStore creates a Store for the given install directory. exeName is the
// application executable's filename within the directory and versionFile the
// sidecar record's filename.
func NewStore(installDir, exeName, versionFile string) *Store {
	return &Store{
		installDir:  installDir,
		exeName:     exeName,
		versionFile: versionFile,
	}
}

// InstallDir returns the directory the store manages.
func (s *Store) InstallDir() string {
	return s.installDir
}

// ExecutablePath returns the expected path of the installed executable.
func (s *Store) ExecutablePath() string {
	return filepath.Join(s.installDir, s.exeName)
}

// Read returns the installed state, or nil when nothing trustworthy is
// installed. The version record and the executable must both exist and the
// record must parse: a record without its binary is a ghost left behind by a
// manual deletion, and a binary without a parseable record has unknown
// provenance. Either way the state is treated as absent.
func (s *Store) Read() (*InstalledState, error) {
	data, err := os.ReadFile(s.versionPath())
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading version record: %w", err)
	}

	exe := s.ExecutablePath()
	if _, err := os.Stat(exe); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("checking installed executable: %w", err)
	}

	v, err := ParseVersion(strings.TrimSpace(string(data)))
	if err != nil {
		// Corrupt record: untrustworthy state reads as not installed.
		return nil, nil
	}

	return &InstalledState{Version: v, ExecutablePath: exe}, nil
}

// Write records v as the installed version. Callers must invoke it only after
// extraction has fully completed, so a crash mid-install leaves the record at
// its prior state instead of naming files that never arrived. The record is
// written to a temp file and renamed into place so it is never partially
// written.
func (s *Store) Write(v Version) (err error) {
	if err := os.MkdirAll(s.installDir, 0o755); err != nil {
		return fmt.Errorf("creating install directory: %w", err)
	}

	tmp, err := os.CreateTemp(s.installDir, s.versionFile+".*")
	if err != nil {
		return fmt.Errorf("creating version record: %w", err)
	}
	defer func() {
		if err != nil {
			_ = os.Remove(tmp.Name())
		}
	}()

	if _, err = tmp.WriteString(v.String() + "\n"); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("writing version record: %w", err)
	}
	if err = tmp.Close(); err != nil {
		return fmt.Errorf("closing version record: %w", err)
	}

	if err = os.Rename(tmp.Name(), s.versionPath()); err != nil {
		return fmt.Errorf("replacing version record: %w", err)
	}
	return nil
}

func (s *Store) versionPath() string {
	return filepath.Join(s.installDir, s.versionFile)
}
