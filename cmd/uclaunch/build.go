// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"context"
	"net/http"
	"os"

	"github.com/charmbracelet/log"

	"uclaunch/internal/appupdate"
	"uclaunch/internal/config"
	"uclaunch/internal/desktop"
)

// loadConfig resolves configuration for a command invocation, honoring the
// persistent --config flag.
func loadConfig(ctx context.Context) (*config.Config, error) {
	provider := config.NewProvider()
	return provider.Load(ctx, config.LoadOptions{ConfigFilePath: cfgFile})
}

// newLogger builds the command logger. Debug level is gated on the
// persistent --verbose flag or the config file equivalent.
func newLogger(cfg *config.Config) *log.Logger {
	logger := log.NewWithOptions(os.Stderr, log.Options{
		ReportTimestamp: false,
		Prefix:          "uclaunch",
	})
	if verbose || cfg.UI.Verbose {
		logger.SetLevel(log.DebugLevel)
	}
	return logger
}

// buildEngine wires the release resolver, version store and desktop sink
// into a lifecycle engine according to cfg.
func buildEngine(cfg *config.Config, logger *log.Logger) *appupdate.Engine {
	store := appupdate.NewStore(cfg.Install.Dir, cfg.Install.Executable, cfg.Install.VersionFile)

	resolverOpts := []appupdate.ResolverOption{
		appupdate.WithBaseURL(cfg.Release.BaseURL),
		appupdate.WithRepo(cfg.Release.Owner, cfg.Release.Repo),
		appupdate.WithArchiveTemplate(cfg.Release.ArchiveTemplate),
		appupdate.WithChecksumPageTemplate(cfg.Release.ChecksumPageTemplate),
		appupdate.WithUserAgent("uclaunch/" + Version),
	}
	if cfg.Network.DownloadTimeout > 0 {
		resolverOpts = append(resolverOpts,
			appupdate.WithHTTPClient(&http.Client{Timeout: cfg.Network.DownloadTimeout}))
	}
	source := appupdate.NewResolver(resolverOpts...)

	sink := desktop.NewIntegrator(config.AppName, cfg.Desktop.AppName, store.ExecutablePath(),
		desktop.WithLogger(logger),
		desktop.WithNotifications(cfg.Desktop.Notify),
		desktop.WithMenuIntegration(cfg.Desktop.Integrate),
	)

	return appupdate.NewEngine(store, source, cfg.Install.Dir,
		appupdate.WithLogger(logger),
		appupdate.WithSink(sink),
		appupdate.WithProbe(cfg.Release.BaseURL, cfg.Network.ProbeTimeout),
		appupdate.WithIconPath(cfg.Install.Icon),
	)
}
