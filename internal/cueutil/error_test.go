// SPDX-License-Identifier: MPL-2.0

package cueutil

import (
	"errors"
	"strings"
	"testing"

	"cuelang.org/go/cue/cuecontext"
)

func TestFormatError(t *testing.T) {
	t.Parallel()

	t.Run("nil error", func(t *testing.T) {
		t.Parallel()

		if got := FormatError(nil, "config.cue"); got != nil {
			t.Errorf("FormatError(nil) = %v, want nil", got)
		}
	})

	t.Run("plain error gets file context", func(t *testing.T) {
		t.Parallel()

		got := FormatError(errors.New("boom"), "config.cue")
		if got == nil || !strings.Contains(got.Error(), "config.cue") {
			t.Errorf("FormatError = %v, want file path in message", got)
		}
	})

	t.Run("cue error names the field", func(t *testing.T) {
		t.Parallel()

		ctx := cuecontext.New()
		schema := ctx.CompileString(`desktop: notify: bool`)
		user := ctx.CompileString(`desktop: notify: "yes"`)
		err := schema.Unify(user).Validate()
		if err == nil {
			t.Fatal("expected a CUE validation error")
		}

		got := FormatError(err, "config.cue")
		if got == nil {
			t.Fatal("FormatError = nil, want error")
		}
		msg := got.Error()
		if !strings.Contains(msg, "config.cue") {
			t.Errorf("message %q missing file path", msg)
		}
		if !strings.Contains(msg, "notify") {
			t.Errorf("message %q missing field path", msg)
		}
	})
}

func TestFormatPath(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		path []string
		want string
	}{
		{name: "empty", path: nil, want: ""},
		{name: "single", path: []string{"release"}, want: "release"},
		{name: "nested", path: []string{"release", "owner"}, want: "release.owner"},
		{name: "list index", path: []string{"launch", "extra_flags", "0"}, want: "launch.extra_flags[0]"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			if got := formatPath(tt.path); got != tt.want {
				t.Errorf("formatPath(%v) = %q, want %q", tt.path, got, tt.want)
			}
		})
	}
}

func TestCheckFileSize(t *testing.T) {
	t.Parallel()

	if err := CheckFileSize(make([]byte, 10), 10, "x.cue"); err != nil {
		t.Errorf("CheckFileSize at limit failed: %v", err)
	}
	if err := CheckFileSize(make([]byte, 11), 10, "x.cue"); err == nil {
		t.Error("CheckFileSize over limit succeeded, want error")
	}
}
