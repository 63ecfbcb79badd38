// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"uclaunch/internal/appupdate"
)

// statusChecker is the engine surface the check command needs.
type statusChecker interface {
	Check(ctx context.Context) (*appupdate.Status, error)
}

func newCheckCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "check",
		Short: "Report the installed version and whether an update is available",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cmd.SilenceUsage = true
			cmd.SilenceErrors = true

			cfg, err := loadConfig(cmd.Context())
			if err != nil {
				return fatalf("loading configuration: %w", err)
			}
			logger := newLogger(cfg)

			if err := runCheck(cmd.Context(), cmd.OutOrStdout(), buildEngine(cfg, logger)); err != nil {
				fmt.Fprintln(cmd.ErrOrStderr(), formatFatalError(err))
				return fatal(err)
			}
			return nil
		},
	}
}

// runCheck queries the engine and prints a status report without modifying
// the installation.
func runCheck(ctx context.Context, w io.Writer, engine statusChecker) error {
	st, err := engine.Check(ctx)
	if err != nil {
		return err
	}

	if st.Installed == nil {
		fmt.Fprintln(w, WarningStyle.Render("Installed: none"))
	} else {
		fmt.Fprintf(w, "Installed: %s\n", st.Installed.Version)
	}

	if st.Offline {
		fmt.Fprintln(w, WarningStyle.Render("Latest:    unknown (offline)"))
		return nil
	}

	fmt.Fprintf(w, "Latest:    %s\n", st.Latest.Version)
	if st.UpdateAvailable {
		fmt.Fprintln(w, SuccessStyle.Render("Update available - run ")+CmdStyle.Render("uclaunch update"))
	} else {
		fmt.Fprintln(w, SubtitleStyle.Render("Up to date"))
	}
	return nil
}
