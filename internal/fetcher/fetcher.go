// Package fetcher downloads remote inputs (http, https and ftp URLs) to local
// temp files so the loader can read them like any other path.
package fetcher

import (
	"context"
	"io"
	"net/url"
	"os"
	"path"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
)

// Fetcher downloads remote data.
type Fetcher interface {
	// Download fetches the URL and returns the response body.
	Download(ctx context.Context, url string) (io.ReadCloser, error)

	// DownloadToFile fetches the URL and writes it to the given path. Returns bytes written.
	DownloadToFile(ctx context.Context, url string, path string) (int64, error)
}

// Options configures remote input resolution.
type Options struct {
	UserAgent  string
	Timeout    time.Duration
	MaxRetries int
	// TempDir holds downloads; empty uses the OS default.
	TempDir string
}

// IsRemote reports whether input is a URL this package can download.
func IsRemote(input string) bool {
	switch scheme(input) {
	case "http", "https", "ftp":
		return true
	}
	return false
}

func scheme(input string) string {
	i := strings.Index(input, "://")
	if i <= 0 {
		return ""
	}
	return strings.ToLower(input[:i])
}

// Resolver turns inputs into local paths.
type Resolver struct {
	http    Fetcher
	ftp     Fetcher
	tempDir string
}

// NewResolver creates a Resolver with HTTP and FTP fetchers built from opts.
func NewResolver(opts Options) *Resolver {
	return &Resolver{
		http: NewHTTPFetcher(HTTPOptions{
			UserAgent:  opts.UserAgent,
			Timeout:    opts.Timeout,
			MaxRetries: opts.MaxRetries,
		}),
		ftp:     NewFTPFetcher(FTPOptions{Timeout: opts.Timeout}),
		tempDir: opts.TempDir,
	}
}

// Resolve returns a local path for input. Local paths are returned as given.
// Remote inputs are downloaded to a temp file that keeps the URL's extension;
// the returned cleanup removes it and is always safe to call.
func (r *Resolver) Resolve(ctx context.Context, input string) (string, func(), error) {
	noop := func() {}
	if !IsRemote(input) {
		return input, noop, nil
	}

	u, err := url.Parse(input)
	if err != nil {
		return "", noop, eris.Wrapf(err, "fetcher: parse url %s", input)
	}
	f := r.http
	if strings.EqualFold(u.Scheme, "ftp") {
		f = r.ftp
	}

	tmp, err := os.CreateTemp(r.tempDir, "sheet-doctor-*"+strings.ToLower(path.Ext(u.Path)))
	if err != nil {
		return "", noop, eris.Wrap(err, "fetcher: create temp file")
	}
	local := tmp.Name()
	_ = tmp.Close()
	cleanup := func() { _ = os.Remove(local) }

	n, err := f.DownloadToFile(ctx, input, local)
	if err != nil {
		cleanup()
		return "", noop, eris.Wrapf(err, "fetcher: download %s", redact(u))
	}

	zap.L().Info("fetcher: downloaded remote input",
		zap.String("url", redact(u)),
		zap.String("path", local),
		zap.Int64("bytes", n),
	)
	return local, cleanup, nil
}

// redact drops credentials from u for logs and errors.
func redact(u *url.URL) string {
	c := *u
	c.User = nil
	return c.String()
}

// save copies body into a new file at path.
func save(body io.ReadCloser, path string) (int64, error) {
	defer body.Close() //nolint:errcheck

	file, err := os.Create(path)
	if err != nil {
		return 0, eris.Wrap(err, "create file")
	}
	defer file.Close() //nolint:errcheck

	n, err := io.Copy(file, body)
	if err != nil {
		return n, eris.Wrap(err, "write file")
	}
	return n, nil
}
