// SPDX-License-Identifier: MPL-2.0

package appupdate

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// ErrUnparsableTag indicates a release tag carries no dotted-numeric version.
// An unparsable tag is always a resolution failure: treating it as "nothing
// new" would silently mask an upstream tag format change and strand users on
// an old version forever.
var ErrUnparsableTag = errors.New("release tag has no numeric version")

// Version is a dotted-numeric version such as "126.0.6478.126". Ordering is
// component-wise integer comparison, never lexical, so "10.0" sorts after
// "9.9". Chromium-style versions have four components, but any count works;
// missing components compare as zero.
type Version struct {
	raw   string
	parts []uint64
}

// ParseVersion parses a fully dotted-numeric string. Every dot-separated
// component must be an unsigned integer.
func ParseVersion(s string) (Version, error) {
	if s == "" {
		return Version{}, fmt.Errorf("%w: empty version string", ErrUnparsableTag)
	}

	fields := strings.Split(s, ".")
	parts := make([]uint64, 0, len(fields))
	for _, f := range fields {
		n, err := strconv.ParseUint(f, 10, 64)
		if err != nil {
			return Version{}, fmt.Errorf("%w: %q", ErrUnparsableTag, s)
		}
		parts = append(parts, n)
	}

	return Version{raw: s, parts: parts}, nil
}

// VersionFromTag derives the numeric version from a release tag by stripping
// any leading non-numeric prefix and any packaging suffix after the dotted
// numeric run: "v2.1.0" yields "2.1.0" and "126.0.6478.126-1" yields
// "126.0.6478.126".
func VersionFromTag(tag string) (Version, error) {
	start := strings.IndexFunc(tag, isASCIIDigit)
	if start < 0 {
		return Version{}, fmt.Errorf("%w: %q", ErrUnparsableTag, tag)
	}

	rest := tag[start:]
	end := len(rest)
	for i, r := range rest {
		if !isASCIIDigit(r) && r != '.' {
			end = i
			break
		}
	}

	numeric := strings.Trim(rest[:end], ".")
	if numeric == "" {
		return Version{}, fmt.Errorf("%w: %q", ErrUnparsableTag, tag)
	}

	v, err := ParseVersion(numeric)
	if err != nil {
		return Version{}, fmt.Errorf("%w: %q", ErrUnparsableTag, tag)
	}
	return v, nil
}

// IsZero reports whether v is the zero Version (no parsed components).
func (v Version) IsZero() bool {
	return len(v.parts) == 0
}

// String returns the version as it was parsed, without any stripped prefix
// or suffix.
func (v Version) String() string {
	return v.raw
}

// Compare returns -1, 0, or +1 when v is respectively older than, equal to,
// or newer than o. Comparison is component-wise; shorter versions are padded
// with zero components.
func (v Version) Compare(o Version) int {
	n := len(v.parts)
	if len(o.parts) > n {
		n = len(o.parts)
	}

	for i := 0; i < n; i++ {
		var a, b uint64
		if i < len(v.parts) {
			a = v.parts[i]
		}
		if i < len(o.parts) {
			b = o.parts[i]
		}
		switch {
		case a < b:
			return -1
		case a > b:
			return 1
		}
	}

	return 0
}

func isASCIIDigit(r rune) bool {
	return r >= '0' && r <= '9'
}
