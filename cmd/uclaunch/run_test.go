// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"uclaunch/internal/appupdate"
	"uclaunch/internal/launch"
)

type fakeRunner struct {
	outcome *appupdate.Outcome
	err     error
}

func (f *fakeRunner) Run(_ context.Context) (*appupdate.Outcome, error) {
	return f.outcome, f.err
}

func mustVersion(t *testing.T, s string) appupdate.Version {
	t.Helper()
	v, err := appupdate.ParseVersion(s)
	if err != nil {
		t.Fatalf("ParseVersion(%q) failed: %v", s, err)
	}
	return v
}

func TestRunLifecycleLaunches(t *testing.T) {
	t.Parallel()

	var out bytes.Buffer
	var gotExe string
	var gotArgs []string

	p := runParams{
		stdout: &out,
		engine: &fakeRunner{outcome: &appupdate.Outcome{
			Action:         appupdate.ActionUpgrade,
			Installed:      mustVersion(t, "126.0.6478.126"),
			Verification:   appupdate.StatusVerified,
			ExecutablePath: "/opt/app/chrome",
		}},
		launchApp: true,
		userArgs:  []string{"--incognito"},
		env:       launch.Environment{SessionType: "x11"},
		opts:      launch.Options{ProfileDir: "/p"},
		start: func(exePath string, args []string) (int, error) {
			gotExe = exePath
			gotArgs = args
			return 4242, nil
		},
	}

	if err := runLifecycle(context.Background(), p); err != nil {
		t.Fatalf("runLifecycle failed: %v", err)
	}

	if gotExe != "/opt/app/chrome" {
		t.Errorf("launched %q, want /opt/app/chrome", gotExe)
	}
	wantArgs := []string{"--user-data-dir=/p", "--incognito"}
	if len(gotArgs) != len(wantArgs) || gotArgs[0] != wantArgs[0] || gotArgs[1] != wantArgs[1] {
		t.Errorf("launch args = %v, want %v", gotArgs, wantArgs)
	}

	text := out.String()
	if !strings.Contains(text, "Upgraded to version 126.0.6478.126") {
		t.Errorf("output %q missing upgrade line", text)
	}
	if !strings.Contains(text, "4242") {
		t.Errorf("output %q missing pid", text)
	}
}

func TestRunLifecycleUpdateOnly(t *testing.T) {
	t.Parallel()

	var out bytes.Buffer
	started := false

	p := runParams{
		stdout: &out,
		engine: &fakeRunner{outcome: &appupdate.Outcome{
			Action:         appupdate.ActionInstall,
			Installed:      mustVersion(t, "126.0.6478.126"),
			Verification:   appupdate.StatusVerified,
			FirstInstall:   true,
			ExecutablePath: "/opt/app/chrome",
		}},
		launchApp: false,
		start: func(_ string, _ []string) (int, error) {
			started = true
			return 0, nil
		},
	}

	if err := runLifecycle(context.Background(), p); err != nil {
		t.Fatalf("runLifecycle failed: %v", err)
	}
	if started {
		t.Error("update-only lifecycle launched the application")
	}
	if !strings.Contains(out.String(), "Installed version 126.0.6478.126") {
		t.Errorf("output %q missing install line", out.String())
	}
}

func TestRunLifecycleOffline(t *testing.T) {
	t.Parallel()

	var out bytes.Buffer
	p := runParams{
		stdout: &out,
		engine: &fakeRunner{outcome: &appupdate.Outcome{
			Offline:        true,
			Installed:      mustVersion(t, "124.0.6367.78"),
			ExecutablePath: "/opt/app/chrome",
		}},
		launchApp: true,
		start:     func(_ string, _ []string) (int, error) { return 7, nil },
	}

	if err := runLifecycle(context.Background(), p); err != nil {
		t.Fatalf("runLifecycle failed: %v", err)
	}
	if !strings.Contains(out.String(), "Offline") {
		t.Errorf("output %q missing offline notice", out.String())
	}
}

func TestRunLifecycleUnverifiedWarns(t *testing.T) {
	t.Parallel()

	var out bytes.Buffer
	p := runParams{
		stdout: &out,
		engine: &fakeRunner{outcome: &appupdate.Outcome{
			Action:         appupdate.ActionInstall,
			Installed:      mustVersion(t, "126.0.6478.126"),
			Verification:   appupdate.StatusUnverified,
			ExecutablePath: "/opt/app/chrome",
		}},
	}

	if err := runLifecycle(context.Background(), p); err != nil {
		t.Fatalf("runLifecycle failed: %v", err)
	}
	if !strings.Contains(out.String(), "integrity not verified") {
		t.Errorf("output %q missing unverified warning", out.String())
	}
}

func TestRunLifecycleEngineError(t *testing.T) {
	t.Parallel()

	p := runParams{
		stdout: &bytes.Buffer{},
		engine: &fakeRunner{err: appupdate.ErrNotInstalled},
	}

	err := runLifecycle(context.Background(), p)
	if !errors.Is(err, appupdate.ErrNotInstalled) {
		t.Fatalf("error = %v, want ErrNotInstalled", err)
	}
}
