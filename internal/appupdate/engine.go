// SPDX-License-Identifier: MPL-2.0

package appupdate

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/charmbracelet/log"

	"uclaunch/internal/desktop"
)

// ErrNotInstalled is returned when the release host is unreachable and no
// prior installation exists: there is nothing to launch and nothing to fetch.
var ErrNotInstalled = errors.New("release host unreachable and no installed version")

// defaultProbeTimeout bounds the connectivity probe so an unreachable host
// degrades to offline behavior within a few seconds instead of hanging.
const defaultProbeTimeout = 4 * time.Second

type (
	// Action is the engine's install decision for one run.
	Action int

	// ReleaseSource resolves and fetches release artifacts. Satisfied by
	// *Resolver; tests substitute a local fake.
	ReleaseSource interface {
		ResolveLatest(ctx context.Context) (*ReleaseDescriptor, error)
		DownloadArchive(ctx context.Context, desc *ReleaseDescriptor, destDir string) (string, error)
		FetchChecksumSource(ctx context.Context, desc *ReleaseDescriptor) ([]byte, error)
	}

	// StateStore persists the installed state. Satisfied by *Store.
	StateStore interface {
		Read() (*InstalledState, error)
		Write(v Version) error
		ExecutablePath() string
	}

	// Outcome summarizes a completed engine run.
	Outcome struct {
		Action         Action
		Offline        bool         // run skipped resolution because the host was unreachable
		Installed      Version      // installed version after the run
		Latest         Version      // latest resolved version; zero when offline
		Verification   VerifyStatus // meaningful only when Action != ActionNone
		FirstInstall   bool
		ExecutablePath string
	}

	// Status is the result of a check-only run: no download, no install.
	Status struct {
		Offline         bool
		Installed       *InstalledState    // nil when nothing is installed
		Latest          *ReleaseDescriptor // nil when offline
		UpdateAvailable bool
	}

	// Engine drives one update run as an explicit sequence of states:
	// connectivity probe, resolution, comparison, download, verification,
	// install, and version recording. Each transition is its own method so
	// the decision logic is testable in isolation.
	Engine struct {
		store        StateStore
		source       ReleaseSource
		sink         desktop.Sink
		logger       *log.Logger
		installDir   string
		iconRelPath  string
		probeURL     string
		probeTimeout time.Duration
		probeClient  *http.Client
	}

	// EngineOption configures an Engine during construction.
	EngineOption func(*Engine)
)

const (
	// ActionNone means the run changed nothing: already up to date, or
	// offline with an existing install.
	ActionNone Action = iota
	// ActionInstall means a first-time install was performed.
	ActionInstall
	// ActionUpgrade means an older installation was replaced.
	ActionUpgrade
)

// String returns a human-readable name for the action.
func (a Action) String() string {
	switch a {
	case ActionNone:
		return "none"
	case ActionInstall:
		return "install"
	case ActionUpgrade:
		return "upgrade"
	}
	return "none"
}

// WithSink sets the presentation sink. Defaults to desktop.NoopSink.
func WithSink(s desktop.Sink) EngineOption {
	return func(e *Engine) { e.sink = s }
}

// WithLogger sets the engine's structured logger.
func WithLogger(l *log.Logger) EngineOption {
	return func(e *Engine) { e.logger = l }
}

// WithProbe sets the connectivity probe target and timeout. The probe URL
// defaults to the public release host; a zero timeout keeps the default.
func WithProbe(url string, timeout time.Duration) EngineOption {
	return func(e *Engine) {
		e.probeURL = url
		if timeout > 0 {
			e.probeTimeout = timeout
		}
	}
}

// WithProbeClient overrides the HTTP client used for the connectivity probe,
// primarily for tests.
func WithProbeClient(c *http.Client) EngineOption {
	return func(e *Engine) { e.probeClient = c }
}

// WithIconPath sets the icon path, relative to the install directory, handed
// to desktop integration on first install.
func WithIconPath(rel string) EngineOption {
	return func(e *Engine) { e.iconRelPath = rel }
}

// NewEngine creates an Engine operating on the given store and release
// source. installDir is the directory the release payload is installed into.
func NewEngine(store StateStore, source ReleaseSource, installDir string, opts ...EngineOption) *Engine {
	e := &Engine{
		store:        store,
		source:       source,
		sink:         desktop.NoopSink{},
		logger:       log.Default(),
		installDir:   installDir,
		iconRelPath:  "product_logo_48.png",
		probeURL:     "https://github.com",
		probeTimeout: defaultProbeTimeout,
		probeClient:  http.DefaultClient,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Online probes the release host. Any HTTP response, whatever its status,
// proves reachability; only transport failures count as offline.
func (e *Engine) Online(ctx context.Context) bool {
	ctx, cancel := context.WithTimeout(ctx, e.probeTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodHead, e.probeURL, http.NoBody)
	if err != nil {
		return false
	}

	resp, err := e.probeClient.Do(req)
	if err != nil {
		return false
	}
	_ = resp.Body.Close()
	return true
}

// Check resolves the latest release and compares it against the installed
// state without downloading or installing anything.
func (e *Engine) Check(ctx context.Context) (*Status, error) {
	installed, err := e.store.Read()
	if err != nil {
		return nil, err
	}

	if !e.Online(ctx) {
		return &Status{Offline: true, Installed: installed}, nil
	}

	desc, err := e.source.ResolveLatest(ctx)
	if err != nil {
		return nil, err
	}

	return &Status{
		Installed:       installed,
		Latest:          desc,
		UpdateAvailable: decide(installed, desc) != ActionNone,
	}, nil
}

// Run executes one full update cycle and returns its outcome. With no new
// release published, the run is a pure no-op beyond resolution, so repeated
// invocations are idempotent.
func (e *Engine) Run(ctx context.Context) (*Outcome, error) {
	if !e.Online(ctx) {
		return e.offlineOutcome()
	}

	desc, err := e.source.ResolveLatest(ctx)
	if err != nil {
		return nil, err
	}

	installed, err := e.store.Read()
	if err != nil {
		return nil, err
	}

	action := decide(installed, desc)
	if action == ActionNone {
		e.logger.Info("already up to date", "version", installed.Version)
		return &Outcome{
			Action:         ActionNone,
			Installed:      installed.Version,
			Latest:         desc.Version,
			ExecutablePath: installed.ExecutablePath,
		}, nil
	}

	e.logger.Info("update needed", "action", action, "latest", desc.Version)
	return e.install(ctx, desc, action)
}

// offlineOutcome handles the unreachable-host branch: launch what is
// installed, or fail when nothing is.
func (e *Engine) offlineOutcome() (*Outcome, error) {
	installed, err := e.store.Read()
	if err != nil {
		return nil, err
	}
	if installed == nil {
		return nil, ErrNotInstalled
	}

	e.logger.Warn("release host unreachable, skipping update", "installed", installed.Version)
	return &Outcome{
		Offline:        true,
		Installed:      installed.Version,
		ExecutablePath: installed.ExecutablePath,
	}, nil
}

// decide picks the action by component-wise version comparison. A fresh
// install is needed when no trustworthy state exists; an upgrade when the
// available version is strictly newer.
func decide(installed *InstalledState, desc *ReleaseDescriptor) Action {
	switch {
	case installed == nil:
		return ActionInstall
	case desc.Version.Compare(installed.Version) > 0:
		return ActionUpgrade
	default:
		return ActionNone
	}
}

// install downloads, verifies, extracts, and records the release. Downloaded
// artifacts live in a per-run staging directory that is removed on every
// exit path.
func (e *Engine) install(ctx context.Context, desc *ReleaseDescriptor, action Action) (_ *Outcome, err error) {
	stageDir, err := os.MkdirTemp("", "uclaunch-*")
	if err != nil {
		return nil, fmt.Errorf("creating staging directory: %w", err)
	}
	defer func() {
		_ = os.RemoveAll(stageDir)
	}()

	e.logger.Info("downloading release archive", "url", desc.ArchiveURL)
	archivePath, err := e.source.DownloadArchive(ctx, desc, stageDir)
	if err != nil {
		return nil, err
	}

	status, err := e.verify(ctx, desc, archivePath)
	if err != nil {
		// Mismatch or hashing failure: the archive is discarded with the
		// staging directory before anything touches the install tree.
		return nil, err
	}
	if status == StatusUnverified {
		e.sink.Notify(desktop.LevelWarn, fmt.Sprintf(
			"no checksum published for %s; installing without verification", desc.ArchiveName))
	}

	if err := InstallArchive(archivePath, e.installDir); err != nil {
		return nil, err
	}

	// Recording the version is the final step so a crash anywhere above
	// leaves the record at its prior state.
	if err := e.store.Write(desc.Version); err != nil {
		return nil, fmt.Errorf("recording installed version: %w", err)
	}

	first := action == ActionInstall
	if first {
		icon := filepath.Join(e.installDir, e.iconRelPath)
		if integrateErr := e.sink.Integrate(e.installDir, icon); integrateErr != nil {
			// The install itself succeeded; a missing menu entry is not worth
			// failing the run over.
			e.logger.Warn("desktop integration failed", "error", integrateErr)
		}
	}

	e.logger.Info("installed", "version", desc.Version, "verification", status)
	return &Outcome{
		Action:         action,
		Installed:      desc.Version,
		Latest:         desc.Version,
		Verification:   status,
		FirstInstall:   first,
		ExecutablePath: e.store.ExecutablePath(),
	}, nil
}

// verify fetches the checksum document and validates the downloaded archive
// against it. An unreachable or unusable document degrades to an unverified
// install; a digest that is present and wrong is fatal.
func (e *Engine) verify(ctx context.Context, desc *ReleaseDescriptor, archivePath string) (VerifyStatus, error) {
	doc, err := e.source.FetchChecksumSource(ctx, desc)
	if err != nil {
		e.logger.Warn("checksum source unavailable", "error", err)
		return StatusUnverified, nil
	}

	status, err := Verify(archivePath, doc, desc.ArchiveName)
	if err != nil {
		return status, err
	}

	e.logger.Debug("archive verification finished", "status", status)
	return status, nil
}
