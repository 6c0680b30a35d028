package downloader

import (
	"context"
	"log"

	"github.com/guiyumin/vgrab/internal/core/config"
	"github.com/guiyumin/vgrab/internal/core/extractor"
	"github.com/guiyumin/vgrab/internal/core/metrics"
)

// FromConfig builds the configured extraction backend and returns a
// Downloader writing into cfg.OutputDir. The directory is created here.
func FromConfig(ctx context.Context, cfg *config.Config, m *metrics.Metrics) (*Downloader, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	ext, err := extractor.New(cfg.Extractor.Backend, extractor.Options{
		YtdlpPath: cfg.Extractor.YtdlpPath,
		Quiet:     cfg.Extractor.Quiet,
	})
	if err != nil {
		return nil, err
	}

	if ext.Name() == "ytdlp" && cfg.Extractor.AutoInstall && cfg.Extractor.YtdlpPath == "" {
		log.Println("Ensuring yt-dlp is installed...")
		if err := extractor.InstallYtdlp(ctx); err != nil {
			return nil, err
		}
	}

	if err := EnsureDir(cfg.OutputDir); err != nil {
		return nil, err
	}

	return New(ext, cfg.OutputDir, m), nil
}
