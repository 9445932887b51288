package downloader

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/homestage-ai/staging-client/internal/utils/hashutil"

	"github.com/gammazero/workerpool"
	"github.com/vbauerster/mpb/v7"
	"github.com/vbauerster/mpb/v7/decor"
)

// Result reports one finished fetch.
type Result struct {
	URL  string
	Path string
	Err  error
}

// Downloader fetches staged image URLs into the output directory on a
// bounded worker pool. File names come from the blake3 hash of the
// content, so refetching the same result is idempotent.
type Downloader struct {
	wp         *workerpool.WorkerPool
	outputDir  string
	httpClient *http.Client
	progress   *mpb.Progress
}

type Option func(*Downloader)

// WithProgress renders a per-file progress bar, for interactive use.
func WithProgress(progress *mpb.Progress) Option {
	return func(d *Downloader) {
		d.progress = progress
	}
}

func WithHTTPClient(httpClient *http.Client) Option {
	return func(d *Downloader) {
		d.httpClient = httpClient
	}
}

func New(outputDir string, maxWorkers int, options ...Option) *Downloader {
	d := &Downloader{
		wp:         workerpool.New(maxWorkers),
		outputDir:  outputDir,
		httpClient: &http.Client{Timeout: 2 * time.Minute},
	}

	for _, opt := range options {
		opt(d)
	}

	return d
}

func (d *Downloader) Stop() {
	d.wp.StopWait()
}

// FetchAll queues every URL and blocks until all fetches finish. It
// returns the local path per URL; failed fetches are reported in the
// joined error and omitted from the map.
func (d *Downloader) FetchAll(ctx context.Context, urls []string) (map[string]string, error) {
	response := make(chan Result, len(urls))
	for _, url := range urls {
		d.Fetch(ctx, url, response)
	}

	var errs []error
	paths := make(map[string]string, len(urls))
	for range urls {
		res := <-response
		if res.Err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", res.URL, res.Err))
			continue
		}
		paths[res.URL] = res.Path
	}

	return paths, errors.Join(errs...)
}

// Fetch queues one download. The result is delivered on the response
// channel when the fetch finishes.
func (d *Downloader) Fetch(ctx context.Context, url string, response chan Result) {
	d.wp.Submit(func() {
		path, err := d.fetch(ctx, url)
		response <- Result{URL: url, Path: path, Err: err}
	})
}

func (d *Downloader) fetch(ctx context.Context, url string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", err
	}

	resp, err := d.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to fetch staged image: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("fetch failed with status %d", resp.StatusCode)
	}

	reader := io.Reader(resp.Body)
	if d.progress != nil {
		bar := d.progress.AddBar(resp.ContentLength,
			mpb.PrependDecorators(
				decor.Name(path.Base(url), decor.WC{W: 30, C: decor.DidentRight}),
				decor.CountersKibiByte("% .2f / % .2f"),
			),
			mpb.AppendDecorators(
				decor.EwmaETA(decor.ET_STYLE_GO, 90),
			),
			mpb.BarRemoveOnComplete(),
		)
		reader = bar.ProxyReader(resp.Body)
	}

	content, err := io.ReadAll(reader)
	if err != nil {
		return "", fmt.Errorf("failed to read staged image: %w", err)
	}

	if err := os.MkdirAll(d.outputDir, os.ModePerm); err != nil {
		return "", err
	}

	dest := filepath.Join(d.outputDir, hashutil.Blake3Hash(content)+extensionFor(url))
	if err := os.WriteFile(dest, content, 0644); err != nil {
		return "", fmt.Errorf("failed to save staged image: %w", err)
	}

	return dest, nil
}

func extensionFor(url string) string {
	ext := path.Ext(url)
	if i := strings.IndexByte(ext, '?'); i >= 0 {
		ext = ext[:i]
	}
	if ext == "" {
		ext = ".png"
	}

	return ext
}
