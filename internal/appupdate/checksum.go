// SPDX-License-Identifier: MPL-2.0

package appupdate

import (
	"bufio"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"os"
	"regexp"
	"strings"
)

// ErrChecksumMismatch indicates the computed SHA256 digest does not match the
// published digest. This is always fatal and is never downgraded to a warning.
var ErrChecksumMismatch = errors.New("checksum mismatch")

// proximityWindow is how far past an archive filename mention a digest is
// searched for in HTML checksum pages (the digest typically sits in the next
// markup element).
const proximityWindow = 2048

var (
	prefixedDigestPattern = regexp.MustCompile(`(?i)sha-?256:\s*([0-9a-fA-F]{64})`)
	bareDigestPattern     = regexp.MustCompile(`\b[0-9a-fA-F]{64}\b`)
)

type (
	// VerifyStatus is the outcome of archive verification.
	VerifyStatus int

	// ChecksumError provides details about a digest mismatch. It wraps
	// ErrChecksumMismatch so callers can classify with errors.Is.
	ChecksumError struct {
		Filename string
		Expected string
		Got      string
	}
)

const (
	// StatusUnverified means no digest was published for the archive; the
	// install proceeds but the run must surface a warning distinguishable
	// from a verified install.
	StatusUnverified VerifyStatus = iota

	// StatusVerified means the published digest matched the downloaded bytes.
	StatusVerified

	// StatusMismatch means a digest was published and did not match. The
	// archive must be discarded before any extraction occurs.
	StatusMismatch
)

// String returns a human-readable name for the verification status.
func (s VerifyStatus) String() string {
	switch s {
	case StatusUnverified:
		return "unverified"
	case StatusVerified:
		return "verified"
	case StatusMismatch:
		return "mismatch"
	}
	return "unverified"
}

// Error returns a human-readable description of the mismatch with both digest
// values for debugging.
func (e *ChecksumError) Error() string {
	return fmt.Sprintf("checksum mismatch for %s\nExpected: %s\nGot:      %s", e.Filename, e.Expected, e.Got)
}

// Unwrap returns ErrChecksumMismatch so callers can use errors.Is.
func (e *ChecksumError) Unwrap() error { return ErrChecksumMismatch }

// DigestFor scans a checksum document for the SHA256 digest associated with
// the named archive. Two layouts are recognized:
//
//   - sha256sum output: "<hex>  <name>" per line, as published in plain-text
//     checksum files
//   - release pages: the archive name followed by "sha256:<hex>" (or a bare
//     64-hex digest) within the next proximityWindow bytes of markup
//
// The second return value is false when the document carries no digest for
// the archive.
func DigestFor(doc []byte, name string) (string, bool) {
	if d, ok := digestFromSumLines(doc, name); ok {
		return d, true
	}
	return digestNearName(string(doc), name)
}

// digestFromSumLines handles the classic sha256sum line format.
func digestFromSumLines(doc []byte, name string) (string, bool) {
	scanner := bufio.NewScanner(strings.NewReader(string(doc)))
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)
	for scanner.Scan() {
		fields := strings.Fields(strings.TrimSpace(scanner.Text()))
		if len(fields) < 2 || !isHexDigest(fields[0]) {
			continue
		}
		// sha256sum prefixes binary-mode filenames with '*'.
		if strings.TrimPrefix(fields[len(fields)-1], "*") == name {
			return strings.ToLower(fields[0]), true
		}
	}
	return "", false
}

// digestNearName handles HTML release pages where the digest follows the
// archive name in nearby markup.
func digestNearName(text, name string) (string, bool) {
	for i := 0; ; {
		j := strings.Index(text[i:], name)
		if j < 0 {
			return "", false
		}
		pos := i + j + len(name)

		end := pos + proximityWindow
		if end > len(text) {
			end = len(text)
		}
		window := text[pos:end]

		if m := prefixedDigestPattern.FindStringSubmatch(window); m != nil {
			return strings.ToLower(m[1]), true
		}
		if m := bareDigestPattern.FindString(window); m != "" {
			return strings.ToLower(m), true
		}

		i = pos
	}
}

// Verify checks the downloaded archive at archivePath against the digest the
// checksum document publishes for archiveName.
//
// When the document carries no digest for the archive, Verify returns
// StatusUnverified with a nil error: the manifest format may have changed
// upstream, and hard-failing every run on a cosmetic change is worse than the
// residual risk. A published digest that does not match returns
// StatusMismatch with a *ChecksumError, which callers must treat as fatal.
func Verify(archivePath string, doc []byte, archiveName string) (VerifyStatus, error) {
	expected, ok := DigestFor(doc, archiveName)
	if !ok {
		return StatusUnverified, nil
	}

	got, err := FileDigest(archivePath)
	if err != nil {
		return StatusUnverified, err
	}

	if !strings.EqualFold(got, expected) {
		return StatusMismatch, &ChecksumError{
			Filename: archiveName,
			Expected: expected,
			Got:      got,
		}
	}

	return StatusVerified, nil
}

// FileDigest computes the lowercase hex-encoded SHA256 digest of the file at
// path, streaming it through the hash.
func FileDigest(path string) (_ string, err error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer func() {
		// Read-only handle; close errors are exotic.
		_ = f.Close()
	}()

	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", fmt.Errorf("hashing %s: %w", path, err)
	}

	return hex.EncodeToString(h.Sum(nil)), nil
}

func isHexDigest(s string) bool {
	if len(s) != 64 {
		return false
	}
	for _, c := range s {
		if (c < '0' || c > '9') && (c < 'a' || c > 'f') && (c < 'A' || c > 'F') {
			return false
		}
	}
	return true
}
