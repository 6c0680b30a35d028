package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/guiyumin/vgrab/internal/core/config"
	"github.com/guiyumin/vgrab/internal/core/downloader"
	"github.com/guiyumin/vgrab/internal/core/metrics"
	"github.com/guiyumin/vgrab/internal/core/version"
	"github.com/guiyumin/vgrab/internal/server"
)

func main() {
	// Command-line flags
	port := flag.Int("port", 0, "HTTP listen port (default: 5000)")
	host := flag.String("host", "", "interface to bind (default: 0.0.0.0)")
	output := flag.String("output", "", "output directory for downloads")
	backend := flag.String("backend", "", "extraction backend (ytdlp, youtube)")
	showVersion := flag.Bool("version", false, "show version")
	flag.Parse()

	if *showVersion {
		fmt.Printf("vgrab-server %s\n", version.Version)
		return
	}

	// Load configuration (flag > env > config > default)
	config.LoadDotEnv()
	cfg := config.LoadOrDefault()
	if *port != 0 {
		cfg.Server.Port = *port
	}
	if *host != "" {
		cfg.Server.Host = *host
	}
	if *output != "" {
		cfg.OutputDir = *output
	}
	if *backend != "" {
		cfg.Extractor.Backend = *backend
	}

	var m *metrics.Metrics
	if cfg.Server.Metrics {
		m = metrics.New()
	}

	dl, err := downloader.FromConfig(context.Background(), cfg, m)
	if err != nil {
		log.Fatalf("Startup error: %v", err)
	}

	srv := server.NewServer(cfg.Server.Addr(), dl, m)

	// Handle graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-sigChan
		log.Println("Shutting down server...")
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		srv.Stop(ctx)
	}()

	if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Fatalf("Server error: %v", err)
	}
}
