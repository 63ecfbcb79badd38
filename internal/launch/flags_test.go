// SPDX-License-Identifier: MPL-2.0

package launch

import (
	"slices"
	"testing"
)

func TestCompose(t *testing.T) {
	t.Parallel()

	x11 := Environment{SessionType: "x11"}
	wayland := Environment{SessionType: "wayland", WaylandDisplay: "wayland-0"}

	tests := []struct {
		name        string
		userArgs    []string
		env         Environment
		opts        Options
		wantBackend Backend
		wantArgs    []string
	}{
		{
			name:        "x11 session adds nothing",
			env:         x11,
			wantBackend: BackendDefault,
			wantArgs:    nil,
		},
		{
			name:        "wayland session adds backend flag",
			env:         wayland,
			wantBackend: BackendWayland,
			wantArgs:    []string{"--ozone-platform=wayland"},
		},
		{
			name:        "wayland display alone is evidence",
			env:         Environment{WaylandDisplay: "wayland-1"},
			wantBackend: BackendWayland,
			wantArgs:    []string{"--ozone-platform=wayland"},
		},
		{
			name:        "scale factor only with wayland flags",
			env:         wayland,
			opts:        Options{ScaleFactor: "1.5"},
			wantBackend: BackendWayland,
			wantArgs:    []string{"--ozone-platform=wayland", "--force-device-scale-factor=1.5"},
		},
		{
			name:        "scale factor suppressed on default backend",
			env:         x11,
			opts:        Options{ScaleFactor: "1.5"},
			wantBackend: BackendDefault,
			wantArgs:    nil,
		},
		{
			name:        "force-x11 beats wayland evidence",
			userArgs:    []string{"--force-x11"},
			env:         wayland,
			opts:        Options{ScaleFactor: "1.5"},
			wantBackend: BackendDefault,
			wantArgs:    nil,
		},
		{
			name:        "force-wayland beats x11 session",
			userArgs:    []string{"--force-wayland"},
			env:         x11,
			wantBackend: BackendWayland,
			wantArgs:    []string{"--ozone-platform=wayland"},
		},
		{
			name:        "force-x11 beats force-wayland",
			userArgs:    []string{"--force-wayland", "--force-x11"},
			env:         wayland,
			wantBackend: BackendDefault,
			wantArgs:    nil,
		},
		{
			name:        "explicit platform flag disables detection",
			userArgs:    []string{"--ozone-platform=x11"},
			env:         wayland,
			wantBackend: BackendDefault,
			wantArgs:    []string{"--ozone-platform=x11"},
		},
		{
			name:        "platform hint flag also disables detection",
			userArgs:    []string{"--ozone-platform-hint=auto"},
			env:         wayland,
			wantBackend: BackendDefault,
			wantArgs:    []string{"--ozone-platform-hint=auto"},
		},
		{
			name:        "explicit platform beats force-wayland",
			userArgs:    []string{"--force-wayland", "--ozone-platform=x11"},
			env:         x11,
			wantBackend: BackendDefault,
			wantArgs:    []string{"--ozone-platform=x11"},
		},
		{
			name:        "profile dir prepended",
			env:         x11,
			opts:        Options{ProfileDir: "/home/u/.local/share/uclaunch/profile"},
			wantBackend: BackendDefault,
			wantArgs:    []string{"--user-data-dir=/home/u/.local/share/uclaunch/profile"},
		},
		{
			name:        "user profile dir wins over configured one",
			userArgs:    []string{"--user-data-dir=/tmp/p"},
			env:         x11,
			opts:        Options{ProfileDir: "/home/u/profile"},
			wantBackend: BackendDefault,
			wantArgs:    []string{"--user-data-dir=/tmp/p"},
		},
		{
			name:        "extra flags before user flags",
			userArgs:    []string{"--incognito"},
			env:         x11,
			opts:        Options{ExtraFlags: []string{"--disable-breakpad"}},
			wantBackend: BackendDefault,
			wantArgs:    []string{"--disable-breakpad", "--incognito"},
		},
		{
			name:     "full composition order",
			userArgs: []string{"--force-wayland", "--incognito"},
			env:      x11,
			opts: Options{
				ProfileDir:  "/p",
				ScaleFactor: "2",
				ExtraFlags:  []string{"--disable-breakpad"},
			},
			wantBackend: BackendWayland,
			wantArgs: []string{
				"--user-data-dir=/p",
				"--disable-breakpad",
				"--incognito",
				"--ozone-platform=wayland",
				"--force-device-scale-factor=2",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got := Compose(tt.userArgs, tt.env, tt.opts)
			if got.Backend != tt.wantBackend {
				t.Errorf("Backend = %s, want %s", got.Backend, tt.wantBackend)
			}
			if !slices.Equal(got.Args, tt.wantArgs) {
				t.Errorf("Args = %v, want %v", got.Args, tt.wantArgs)
			}
		})
	}
}

func TestWaylandSession(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		env  Environment
		want bool
	}{
		{name: "empty environment", env: Environment{}, want: false},
		{name: "x11 session", env: Environment{SessionType: "x11"}, want: false},
		{name: "wayland session type", env: Environment{SessionType: "wayland"}, want: true},
		{name: "case insensitive", env: Environment{SessionType: "Wayland"}, want: true},
		{name: "display without session type", env: Environment{WaylandDisplay: "wayland-0"}, want: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			if got := tt.env.WaylandSession(); got != tt.want {
				t.Errorf("WaylandSession() = %v, want %v", got, tt.want)
			}
		})
	}
}
