// SPDX-License-Identifier: MPL-2.0

package appupdate

import (
	"archive/tar"
	"bufio"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/ulikunitz/xz"
)

// ExtractionError reports a failure while unpacking or installing the release
// archive. Any prior installation is left intact when it occurs.
type ExtractionError struct {
	Archive string
	Err     error
}

// Error returns a human-readable description of the extraction failure.
func (e *ExtractionError) Error() string {
	return fmt.Sprintf("extracting %s: %v", e.Archive, e.Err)
}

// Unwrap returns the underlying error.
func (e *ExtractionError) Unwrap() error { return e.Err }

// InstallArchive unpacks the tar.xz archive at archivePath into installDir,
// stripping the archive's single top-level directory so files land directly
// under the target path.
//
// The payload is fully extracted into a staging directory next to installDir
// and then swapped in with renames (staging next to the target keeps the
// renames on one filesystem). A failure at any point leaves the existing
// installation byte-for-byte unchanged; the staging directory and any backup
// are cleaned up on every path.
func InstallArchive(archivePath, installDir string) error {
	parent := filepath.Dir(installDir)
	if err := os.MkdirAll(parent, 0o755); err != nil {
		return &ExtractionError{Archive: archivePath, Err: err}
	}

	staging, err := os.MkdirTemp(parent, ".uclaunch-stage-*")
	if err != nil {
		return &ExtractionError{Archive: archivePath, Err: err}
	}
	defer func() {
		// No-op after a successful swap; removes the partial payload otherwise.
		_ = os.RemoveAll(staging)
	}()

	if err := unpack(archivePath, staging); err != nil {
		return &ExtractionError{Archive: archivePath, Err: err}
	}

	// Swap the staged payload into place. The prior installation is moved
	// aside first so it can be restored if the final rename fails.
	backup := ""
	if _, statErr := os.Stat(installDir); statErr == nil {
		backup = installDir + ".old-" + time.Now().UTC().Format("20060102T150405Z")
		if err := os.Rename(installDir, backup); err != nil {
			return &ExtractionError{Archive: archivePath, Err: err}
		}
	}

	if err := os.Rename(staging, installDir); err != nil {
		if backup != "" {
			_ = os.Rename(backup, installDir)
		}
		return &ExtractionError{Archive: archivePath, Err: err}
	}

	if backup != "" {
		_ = os.RemoveAll(backup)
	}
	return nil
}

// unpack extracts every entry of the tar.xz archive into dest with the
// top-level directory component stripped.
func unpack(archivePath, dest string) (err error) {
	f, err := os.Open(archivePath)
	if err != nil {
		return err
	}
	defer func() {
		// Read-only handle; close errors are exotic.
		_ = f.Close()
	}()

	xzr, err := xz.NewReader(bufio.NewReader(f))
	if err != nil {
		return fmt.Errorf("opening xz stream: %w", err)
	}

	tr := tar.NewReader(xzr)
	for {
		hdr, nextErr := tr.Next()
		if errors.Is(nextErr, io.EOF) {
			return nil
		}
		if nextErr != nil {
			return fmt.Errorf("reading tar entry: %w", nextErr)
		}

		rel, ok := stripTopLevel(hdr.Name)
		if !ok {
			continue
		}
		// Reject entries that would escape the destination.
		if !filepath.IsLocal(rel) {
			return fmt.Errorf("archive entry %q escapes the install directory", hdr.Name)
		}
		target := filepath.Join(dest, filepath.FromSlash(rel))

		switch hdr.Typeflag {
		case tar.TypeDir:
			if err := os.MkdirAll(target, fs.FileMode(hdr.Mode)&fs.ModePerm|0o700); err != nil {
				return err
			}
		case tar.TypeReg:
			if err := writeEntry(target, tr, fs.FileMode(hdr.Mode)&fs.ModePerm); err != nil {
				return err
			}
		case tar.TypeSymlink:
			// Links must stay inside the payload; the archive ships relative
			// library links.
			if filepath.IsAbs(hdr.Linkname) || !filepath.IsLocal(path.Join(path.Dir(rel), hdr.Linkname)) {
				return fmt.Errorf("archive symlink %q escapes the install directory", hdr.Name)
			}
			if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
				return err
			}
			if err := os.Symlink(hdr.Linkname, target); err != nil {
				return err
			}
		default:
			// Hard links, devices, and pax metadata entries are not part of
			// the application payload.
			continue
		}
	}
}

// writeEntry creates the file at target with the given mode and copies the
// tar entry's content into it.
func writeEntry(target string, r io.Reader, mode fs.FileMode) (err error) {
	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return err
	}

	out, err := os.OpenFile(target, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, mode|0o600)
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := out.Close(); closeErr != nil && err == nil {
			err = closeErr
		}
	}()

	if _, err = io.Copy(out, r); err != nil {
		return fmt.Errorf("writing %s: %w", target, err)
	}
	return nil
}

// stripTopLevel removes the first path component of a tar entry name. The
// boolean is false for the top-level directory entry itself and for entries
// with nothing below it.
func stripTopLevel(name string) (string, bool) {
	name = path.Clean(strings.TrimPrefix(name, "./"))
	i := strings.IndexByte(name, '/')
	if i < 0 {
		return "", false
	}
	rel := name[i+1:]
	if rel == "" || rel == "." {
		return "", false
	}
	return rel, true
}
