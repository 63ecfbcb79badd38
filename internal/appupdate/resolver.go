// SPDX-License-Identifier: MPL-2.0

package appupdate

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
)

const (
	// tagMarker is the path segment the latest-release redirect must land on.
	tagMarker = "/releases/tag/"

	// tagPlaceholder is expanded with the resolved release tag in archive and
	// checksum-page templates.
	tagPlaceholder = "{tag}"

	// maxChecksumSourceBytes bounds the checksum document read (4 MB). Release
	// pages are well under this; the limit guards against a misbehaving host.
	maxChecksumSourceBytes = 4 << 20
)

type (
	// ReleaseDescriptor describes one published release, resolved fresh each
	// run and never persisted.
	ReleaseDescriptor struct {
		Tag               string  // Release tag as published, e.g. "126.0.6478.126-1"
		Version           Version // Numeric version derived from the tag
		ArchiveName       string  // Fixed per-platform archive filename for this tag
		ArchiveURL        string  // Direct archive download URL
		ChecksumSourceURL string  // Page or file publishing the archive digest
	}

	// ResolutionError reports a failure to determine the latest release.
	ResolutionError struct {
		URL    string
		Reason string
		Err    error
	}

	// DownloadError reports a network or disk failure while fetching the
	// release archive.
	DownloadError struct {
		URL string
		Err error
	}

	// Resolver determines the latest published release and fetches its
	// artifacts. It deliberately avoids the release host's structured API:
	// the "latest" endpoint's redirect target is authoritative for the tag,
	// which works unauthenticated and is immune to API rate limits.
	Resolver struct {
		httpClient       *http.Client
		baseURL          string
		owner            string
		repo             string
		archiveTemplate  string
		checksumTemplate string
		userAgent        string
	}

	// ResolverOption configures a Resolver during construction.
	ResolverOption func(*Resolver)
)

// Error returns a human-readable description of the resolution failure.
func (e *ResolutionError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("resolving latest release from %s: %s: %v", e.URL, e.Reason, e.Err)
	}
	return fmt.Sprintf("resolving latest release from %s: %s", e.URL, e.Reason)
}

// Unwrap returns the underlying error, if any.
func (e *ResolutionError) Unwrap() error { return e.Err }

// Error returns a human-readable description of the download failure.
func (e *DownloadError) Error() string {
	return fmt.Sprintf("downloading %s: %v", e.URL, e.Err)
}

// Unwrap returns the underlying error.
func (e *DownloadError) Unwrap() error { return e.Err }

// WithHTTPClient sets a custom HTTP client, useful for tests or proxies.
func WithHTTPClient(c *http.Client) ResolverOption {
	return func(r *Resolver) { r.httpClient = c }
}

// WithBaseURL overrides the release host base URL, primarily for test servers.
func WithBaseURL(base string) ResolverOption {
	return func(r *Resolver) { r.baseURL = strings.TrimRight(base, "/") }
}

// WithRepo overrides the release repository owner and name.
func WithRepo(owner, repo string) ResolverOption {
	return func(r *Resolver) {
		r.owner = owner
		r.repo = repo
	}
}

// WithArchiveTemplate sets the archive filename template. The {tag}
// placeholder is replaced with the resolved release tag.
func WithArchiveTemplate(t string) ResolverOption {
	return func(r *Resolver) { r.archiveTemplate = t }
}

// WithChecksumPageTemplate sets the full URL template of the checksum
// document. When empty, the per-tag release page is used.
func WithChecksumPageTemplate(t string) ResolverOption {
	return func(r *Resolver) { r.checksumTemplate = t }
}

// WithUserAgent sets the User-Agent header sent with every request.
func WithUserAgent(ua string) ResolverOption {
	return func(r *Resolver) { r.userAgent = ua }
}

// NewResolver creates a Resolver with sensible defaults: the upstream
// ungoogled-chromium portable Linux repository on github.com.
func NewResolver(opts ...ResolverOption) *Resolver {
	r := &Resolver{
		httpClient:      http.DefaultClient,
		baseURL:         "https://github.com",
		owner:           "ungoogled-software",
		repo:            "ungoogled-chromium-portablelinux",
		archiveTemplate: "ungoogled-chromium_{tag}_linux.tar.xz",
		userAgent:       "uclaunch/dev",
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// ResolveLatest requests the host's latest-release endpoint, follows its
// redirects, and treats the final URL's path as authoritative for the release
// tag. Any outcome that does not yield a per-tag page with a numeric version
// is a ResolutionError; there is no "assume no update" fallback.
func (r *Resolver) ResolveLatest(ctx context.Context) (*ReleaseDescriptor, error) {
	latestURL := fmt.Sprintf("%s/%s/%s/releases/latest", r.baseURL, r.owner, r.repo)

	resp, err := r.get(ctx, latestURL)
	if err != nil {
		return nil, &ResolutionError{URL: latestURL, Reason: "release host unreachable", Err: err}
	}
	defer func() { _ = resp.Body.Close() }() // body content is not consumed

	if resp.StatusCode != http.StatusOK {
		return nil, &ResolutionError{URL: latestURL, Reason: fmt.Sprintf("unexpected status %d", resp.StatusCode)}
	}

	// resp.Request reflects the final request after redirects.
	final := resp.Request.URL
	idx := strings.Index(final.Path, tagMarker)
	if idx < 0 {
		return nil, &ResolutionError{URL: latestURL, Reason: fmt.Sprintf("latest redirect landed on %s, not a release tag page", final.Path)}
	}

	tag := strings.Trim(final.Path[idx+len(tagMarker):], "/")
	if unescaped, uerr := url.PathUnescape(tag); uerr == nil {
		tag = unescaped
	}
	if tag == "" {
		return nil, &ResolutionError{URL: latestURL, Reason: "release tag page has an empty tag"}
	}

	version, err := VersionFromTag(tag)
	if err != nil {
		return nil, &ResolutionError{URL: latestURL, Reason: "unparsable release tag", Err: err}
	}

	name := strings.ReplaceAll(r.archiveTemplate, tagPlaceholder, tag)

	checksumURL := fmt.Sprintf("%s/%s/%s/releases/tag/%s", r.baseURL, r.owner, r.repo, url.PathEscape(tag))
	if r.checksumTemplate != "" {
		checksumURL = strings.ReplaceAll(r.checksumTemplate, tagPlaceholder, tag)
	}

	return &ReleaseDescriptor{
		Tag:               tag,
		Version:           version,
		ArchiveName:       name,
		ArchiveURL:        fmt.Sprintf("%s/%s/%s/releases/download/%s/%s", r.baseURL, r.owner, r.repo, url.PathEscape(tag), name),
		ChecksumSourceURL: checksumURL,
	}, nil
}

// DownloadArchive streams the release archive into destDir and returns the
// path of the downloaded file. Partial files are removed on failure.
func (r *Resolver) DownloadArchive(ctx context.Context, desc *ReleaseDescriptor, destDir string) (_ string, err error) {
	resp, err := r.get(ctx, desc.ArchiveURL)
	if err != nil {
		return "", &DownloadError{URL: desc.ArchiveURL, Err: err}
	}
	defer func() { _ = resp.Body.Close() }() // read-only response body

	if resp.StatusCode != http.StatusOK {
		return "", &DownloadError{URL: desc.ArchiveURL, Err: fmt.Errorf("unexpected status %d", resp.StatusCode)}
	}

	dest := filepath.Join(destDir, desc.ArchiveName)
	f, err := os.Create(dest)
	if err != nil {
		return "", &DownloadError{URL: desc.ArchiveURL, Err: err}
	}

	if _, err = io.Copy(f, resp.Body); err != nil {
		_ = f.Close()
		_ = os.Remove(dest)
		return "", &DownloadError{URL: desc.ArchiveURL, Err: err}
	}
	if err = f.Close(); err != nil {
		_ = os.Remove(dest)
		return "", &DownloadError{URL: desc.ArchiveURL, Err: err}
	}

	return dest, nil
}

// FetchChecksumSource retrieves the checksum document published for the
// release. A failure here is not fatal to the run: the caller degrades to an
// unverified install with a warning.
func (r *Resolver) FetchChecksumSource(ctx context.Context, desc *ReleaseDescriptor) ([]byte, error) {
	resp, err := r.get(ctx, desc.ChecksumSourceURL)
	if err != nil {
		return nil, fmt.Errorf("fetching checksum source %s: %w", desc.ChecksumSourceURL, err)
	}
	defer func() { _ = resp.Body.Close() }() // read-only response body

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetching checksum source %s: unexpected status %d", desc.ChecksumSourceURL, resp.StatusCode)
	}

	doc, err := io.ReadAll(io.LimitReader(resp.Body, maxChecksumSourceBytes))
	if err != nil {
		return nil, fmt.Errorf("reading checksum source %s: %w", desc.ChecksumSourceURL, err)
	}
	return doc, nil
}

func (r *Resolver) get(ctx context.Context, reqURL string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("User-Agent", r.userAgent)

	return r.httpClient.Do(req)
}
