// SPDX-License-Identifier: MPL-2.0

// Package cmd contains all CLI commands for uclaunch.
package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/charmbracelet/fang"
	"github.com/spf13/cobra"
)

var (
	// Version is the semantic version (set via -ldflags).
	Version = "dev"
	// Commit is the git commit hash (set via -ldflags).
	Commit = "unknown"
	// BuildDate is the build timestamp (set via -ldflags).
	BuildDate = "unknown"

	// verbose enables debug-level logging.
	verbose bool
	// cfgFile allows specifying a custom config file.
	cfgFile string

	// rootCmd represents the base command. Invoked without a subcommand it
	// performs the full update-and-launch lifecycle, so `uclaunch` alone
	// behaves like `uclaunch run`.
	rootCmd = &cobra.Command{
		Use:   "uclaunch [flags] [-- application flags]",
		Short: "Keep a portable Chromium build up to date and launch it",
		Long: TitleStyle.Render("uclaunch") + SubtitleStyle.Render(" - update-and-launch orchestrator for a portable Chromium build") + `

uclaunch resolves the latest published release of the managed browser,
compares it with the installed version, downloads and verifies new
releases, installs them without disturbing a working installation, and
finally starts the browser detached with display-appropriate flags.

Everything after ` + CmdStyle.Render("--") + ` is passed to the browser, except the two
control flags ` + CmdStyle.Render("--force-wayland") + ` and ` + CmdStyle.Render("--force-x11") + `, which steer backend
detection and are consumed here.

` + SubtitleStyle.Render("Examples:") + `
  uclaunch                         Update if needed, then launch
  uclaunch check                   Report installed vs latest version
  uclaunch update                  Update without launching
  uclaunch -- --incognito          Launch with extra browser flags
  uclaunch --force-x11             Suppress Wayland flags for this run`,
		Args: cobra.ArbitraryArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runFromCobra(cmd, args, true)
		},
	}
)

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose output")
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.config/uclaunch/config.cue)")

	addControlFlags(rootCmd)

	rootCmd.AddCommand(newRunCommand())
	rootCmd.AddCommand(newCheckCommand())
	rootCmd.AddCommand(newUpdateCommand())
}

// addControlFlags registers the backend control flags on commands that
// launch the browser.
func addControlFlags(cmd *cobra.Command) {
	cmd.Flags().Bool("force-wayland", false, "enable Wayland flags regardless of session type")
	cmd.Flags().Bool("force-x11", false, "suppress all Wayland flags")
}

// getVersionString returns a formatted version string for display.
func getVersionString() string {
	if Version == "dev" {
		return "dev (built from source)"
	}
	return fmt.Sprintf("%s (commit: %s, built: %s)", Version, Commit, BuildDate)
}

// Execute adds all child commands to the root command and sets flags
// appropriately. This is called by main.main().
func Execute() {
	if err := fang.Execute(
		context.Background(),
		rootCmd,
		fang.WithVersion(getVersionString()),
		fang.WithNotifySignal(os.Interrupt),
	); err != nil {
		var exitErr *ExitError
		if errors.As(err, &exitErr) {
			os.Exit(exitErr.Code)
		}
		os.Exit(1)
	}
}
