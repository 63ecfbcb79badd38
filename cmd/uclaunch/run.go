// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"uclaunch/internal/appupdate"
	"uclaunch/internal/launch"
)

// lifecycleRunner is the engine surface the run/update commands need.
type lifecycleRunner interface {
	Run(ctx context.Context) (*appupdate.Outcome, error)
}

// runParams carries everything runLifecycle needs, so tests can substitute
// the engine and the process starter.
type runParams struct {
	stdout io.Writer
	engine lifecycleRunner

	// launchApp is false for `uclaunch update`.
	launchApp bool
	userArgs  []string
	env       launch.Environment
	opts      launch.Options
	start     func(exePath string, args []string) (int, error)
}

func newRunCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run [-- application flags]",
		Short: "Update if a newer release exists, then launch the browser",
		Args:  cobra.ArbitraryArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runFromCobra(cmd, args, true)
		},
	}
	addControlFlags(cmd)
	return cmd
}

func newUpdateCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "update",
		Short: "Download and install the latest release without launching",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runFromCobra(cmd, args, false)
		},
	}
}

// runFromCobra assembles runParams from flags and config, then executes the
// lifecycle. Shared by the root command, `run` and `update`.
func runFromCobra(cmd *cobra.Command, args []string, launchApp bool) error {
	cmd.SilenceUsage = true
	cmd.SilenceErrors = true

	cfg, err := loadConfig(cmd.Context())
	if err != nil {
		return fatalf("loading configuration: %w", err)
	}
	logger := newLogger(cfg)

	userArgs := args
	forceX11, _ := cmd.Flags().GetBool("force-x11")
	forceWayland, _ := cmd.Flags().GetBool("force-wayland")
	if !forceX11 && !forceWayland {
		// A configured backend applies only when no control flag pins one.
		switch cfg.Launch.Backend {
		case "wayland":
			forceWayland = true
		case "x11":
			forceX11 = true
		}
	}
	if forceX11 {
		userArgs = append([]string{launch.FlagForceX11}, userArgs...)
	}
	if forceWayland {
		userArgs = append([]string{launch.FlagForceWayland}, userArgs...)
	}

	p := runParams{
		stdout:    cmd.OutOrStdout(),
		engine:    buildEngine(cfg, logger),
		launchApp: launchApp,
		userArgs:  userArgs,
		env:       launch.CurrentEnvironment(),
		opts: launch.Options{
			ProfileDir:  cfg.Launch.ProfileDir,
			ScaleFactor: cfg.Launch.ScaleFactor,
			ExtraFlags:  cfg.Launch.ExtraFlags,
		},
		start: launch.Start,
	}

	if err := runLifecycle(cmd.Context(), p); err != nil {
		fmt.Fprintln(cmd.ErrOrStderr(), formatFatalError(err))
		return fatal(err)
	}
	return nil
}

// runLifecycle drives one update pass and, when requested, launches the
// installed executable detached from this process.
func runLifecycle(ctx context.Context, p runParams) error {
	out, err := p.engine.Run(ctx)
	if err != nil {
		return err
	}

	reportOutcome(p.stdout, out)

	if !p.launchApp {
		return nil
	}

	comp := launch.Compose(p.userArgs, p.env, p.opts)
	pid, err := p.start(out.ExecutablePath, comp.Args)
	if err != nil {
		return err
	}
	fmt.Fprintln(p.stdout, SubtitleStyle.Render(fmt.Sprintf("Launched (pid %d, backend %s)", pid, backendName(comp.Backend))))
	return nil
}

// reportOutcome prints the human-readable result of an update pass.
func reportOutcome(w io.Writer, out *appupdate.Outcome) {
	switch {
	case out.Offline:
		fmt.Fprintln(w, WarningStyle.Render(fmt.Sprintf("Offline: using installed version %s", out.Installed)))
	case out.Action == appupdate.ActionNone:
		fmt.Fprintln(w, SuccessStyle.Render(fmt.Sprintf("Already up to date (version %s)", out.Installed)))
	case out.Action == appupdate.ActionInstall:
		fmt.Fprintln(w, SuccessStyle.Render(fmt.Sprintf("Installed version %s", out.Installed)))
	case out.Action == appupdate.ActionUpgrade:
		fmt.Fprintln(w, SuccessStyle.Render(fmt.Sprintf("Upgraded to version %s", out.Installed)))
	}

	if out.Action != appupdate.ActionNone && !out.Offline {
		switch out.Verification {
		case appupdate.StatusVerified:
			fmt.Fprintln(w, SubtitleStyle.Render("Checksum verified"))
		case appupdate.StatusUnverified:
			fmt.Fprintln(w, WarningStyle.Render("No published checksum found; integrity not verified"))
		}
	}
}

func backendName(b launch.Backend) string {
	if b == launch.BackendWayland {
		return "wayland"
	}
	return "default"
}
