package config

import (
	"log"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// Environment variables that override the config file
const (
	EnvHost      = "VGRAB_HOST"
	EnvPort      = "VGRAB_PORT"
	EnvOutputDir = "VGRAB_OUTPUT_DIR"
	EnvBackend   = "VGRAB_BACKEND"
	EnvYtdlpPath = "VGRAB_YTDLP_PATH"
)

// LoadDotEnv loads .env and then .env.local from the working directory.
// Variables already present in the process environment win over .env,
// .env.local wins over both.
func LoadDotEnv() {
	if _, err := os.Stat(".env"); err == nil {
		if err := godotenv.Load(".env"); err != nil {
			log.Printf("Warning: failed to load .env: %v", err)
		}
	}
	if _, err := os.Stat(".env.local"); err == nil {
		if err := godotenv.Overload(".env.local"); err != nil {
			log.Printf("Warning: failed to load .env.local: %v", err)
		}
	}
}

// ApplyEnv overrides cfg with any VGRAB_* variables that are set
func ApplyEnv(cfg *Config) {
	if v := os.Getenv(EnvHost); v != "" {
		cfg.Server.Host = v
	}
	if v := os.Getenv(EnvPort); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Server.Port = port
		} else {
			log.Printf("Warning: ignoring invalid %s=%q", EnvPort, v)
		}
	}
	if v := os.Getenv(EnvOutputDir); v != "" {
		cfg.OutputDir = expandPath(v)
	}
	if v := os.Getenv(EnvBackend); v != "" {
		cfg.Extractor.Backend = v
	}
	if v := os.Getenv(EnvYtdlpPath); v != "" {
		cfg.Extractor.YtdlpPath = v
	}
}
