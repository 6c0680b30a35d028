package downloader

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/guiyumin/vgrab/internal/core/extractor"
	"github.com/guiyumin/vgrab/internal/core/formats"
	"github.com/guiyumin/vgrab/internal/core/metrics"
)

// Downloader lists formats and downloads videos into a fixed directory
// through an extraction backend. Calls are synchronous; there is no
// queue, retry or cleanup.
type Downloader struct {
	ext       extractor.Extractor
	outputDir string
	metrics   *metrics.Metrics
}

// Result describes a completed download
type Result struct {
	// Path is the file location on disk
	Path string
	// Filename is the base name of Path
	Filename string
}

// New creates a Downloader. m may be nil.
func New(ext extractor.Extractor, outputDir string, m *metrics.Metrics) *Downloader {
	return &Downloader{
		ext:       ext,
		outputDir: outputDir,
		metrics:   m,
	}
}

// EnsureDir creates the downloads directory if it does not exist yet
func EnsureDir(dir string) error {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}
	return nil
}

// OutputDir returns the downloads directory
func (d *Downloader) OutputDir() string {
	return d.outputDir
}

// Backend returns the extraction backend name
func (d *Downloader) Backend() string {
	return d.ext.Name()
}

// Formats probes url and returns the normalized format listing
func (d *Downloader) Formats(ctx context.Context, url string) (*formats.Probe, error) {
	start := time.Now()
	info, err := d.ext.Probe(ctx, url)
	d.metrics.ObserveExtraction("probe", err, time.Since(start))
	if err != nil {
		return nil, err
	}
	return formats.Normalize(info), nil
}

// Download fetches url using formatID as the selector ("best" when empty).
// The file stays in the downloads directory after the call.
func (d *Downloader) Download(ctx context.Context, url, formatID string) (*Result, error) {
	if formatID == "" {
		formatID = extractor.SelectorBest
	}

	start := time.Now()
	path, err := d.ext.Fetch(ctx, url, formatID, d.outputDir)
	d.metrics.ObserveExtraction("fetch", err, time.Since(start))
	if err != nil {
		return nil, err
	}

	return &Result{
		Path:     path,
		Filename: filepath.Base(path),
	}, nil
}

// Stream downloads the best available format, for callers that send the
// file straight back as the response body.
func (d *Downloader) Stream(ctx context.Context, url string) (*Result, error) {
	return d.Download(ctx, url, extractor.SelectorBest)
}

// FormatBytes renders a byte count for humans (e.g., "3.4 MB")
func FormatBytes(b int64) string {
	const unit = 1024
	if b < unit {
		return fmt.Sprintf("%d B", b)
	}
	div, exp := int64(unit), 0
	for n := b / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %cB", float64(b)/float64(div), "KMGTPE"[exp])
}
