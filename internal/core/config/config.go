package config

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"gopkg.in/yaml.v3"
)

const (
	ConfigFileName = "config.yml"
	AppDirName     = "vgrab"
)

const (
	DefaultHost      = "0.0.0.0"
	DefaultPort      = 5000
	DefaultOutputDir = "downloads"
	DefaultBackend   = "ytdlp"
)

// ConfigDir returns the standard config directory for vgrab.
// Windows: %APPDATA%\vgrab\
// macOS/Linux: ~/.config/vgrab/
func ConfigDir() (string, error) {
	if runtime.GOOS == "windows" {
		appData := os.Getenv("APPDATA")
		if appData != "" {
			return filepath.Join(appData, AppDirName), nil
		}
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", AppDirName), nil
}

// ConfigPath returns the path to the config file.
// e.g., ~/.config/vgrab/config.yml
func ConfigPath() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, ConfigFileName), nil
}

type Config struct {
	// Directory every download is written to (created at startup)
	OutputDir string `yaml:"output_dir,omitempty"`

	// Server configuration for `vgrab serve`
	Server ServerConfig `yaml:"server,omitempty"`

	// Extraction backend configuration
	Extractor ExtractorConfig `yaml:"extractor,omitempty"`
}

// ServerConfig holds HTTP server settings for `vgrab serve`
type ServerConfig struct {
	// Host is the interface to bind (default: 0.0.0.0)
	Host string `yaml:"host,omitempty"`

	// Port is the HTTP listen port (default: 5000)
	Port int `yaml:"port,omitempty"`

	// Metrics exposes Prometheus metrics at /metrics
	Metrics bool `yaml:"metrics"`
}

// ExtractorConfig selects and tunes the extraction backend
type ExtractorConfig struct {
	// Backend is "ytdlp" or "youtube"
	Backend string `yaml:"backend,omitempty"`

	// YtdlpPath overrides the yt-dlp executable looked up in PATH
	YtdlpPath string `yaml:"ytdlp_path,omitempty"`

	// Quiet suppresses yt-dlp console output
	Quiet bool `yaml:"quiet"`

	// AutoInstall downloads a yt-dlp binary at startup when none is found
	AutoInstall bool `yaml:"auto_install,omitempty"`
}

// Addr returns the host:port the server listens on
func (s ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// DefaultConfig returns a config with sensible defaults
func DefaultConfig() *Config {
	return &Config{
		OutputDir: DefaultOutputDir,
		Server: ServerConfig{
			Host:    DefaultHost,
			Port:    DefaultPort,
			Metrics: true,
		},
		Extractor: ExtractorConfig{
			Backend: DefaultBackend,
			Quiet:   true,
		},
	}
}

// Validate checks config values are within acceptable bounds.
func (c *Config) Validate() error {
	switch strings.ToLower(c.Extractor.Backend) {
	case "ytdlp", "youtube":
	default:
		return fmt.Errorf("unsupported extractor backend %q (valid: ytdlp, youtube)", c.Extractor.Backend)
	}

	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port %d", c.Server.Port)
	}

	if c.OutputDir == "" {
		return fmt.Errorf("output_dir cannot be empty")
	}

	return nil
}

// Exists checks if config file exists
func Exists() bool {
	path, err := ConfigPath()
	if err != nil {
		return false
	}
	_, err = os.Stat(path)
	return err == nil
}

// Load reads the config from ~/.config/vgrab/config.yml.
// Missing keys keep their default values.
func Load() (*Config, error) {
	path, err := ConfigPath()
	if err != nil {
		return nil, err
	}
	return LoadFile(path)
}

// LoadFile reads the config from an explicit path
func LoadFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config file not found: %w", err)
	}

	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}

	// Expand tilde in OutputDir
	cfg.OutputDir = expandPath(cfg.OutputDir)

	return cfg, nil
}

// expandPath expands the tilde (~) in the path to the user's home directory.
// It handles both forward and backward slashes to ensure cross-platform compatibility
// for configuration files.
func expandPath(path string) string {
	if path == "" {
		return ""
	}

	if strings.HasPrefix(path, "~") {
		// Only expand if it's explicitly "~", "~/", or "~\"
		if len(path) == 1 || path[1] == '/' || path[1] == '\\' {
			home, err := os.UserHomeDir()
			if err == nil {
				subPath := path[1:]
				if len(subPath) > 0 && (subPath[0] == '/' || subPath[0] == '\\') {
					subPath = subPath[1:]
				}
				return filepath.Join(home, subPath)
			}
		}
	}

	return path
}

// Save writes the config to ~/.config/vgrab/config.yml
func Save(cfg *Config) error {
	configPath, err := ConfigPath()
	if err != nil {
		return fmt.Errorf("failed to get config path: %w", err)
	}
	return SaveFile(cfg, configPath)
}

// SaveFile writes the config to an explicit path
func SaveFile(cfg *Config, configPath string) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to serialize config: %w", err)
	}

	// Ensure config directory exists
	configDir := filepath.Dir(configPath)
	if err := os.MkdirAll(configDir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	header := "# vgrab configuration file\n# Run 'vgrab init' to regenerate with defaults\n\n"
	content := header + string(data)

	return os.WriteFile(configPath, []byte(content), 0644)
}

// SavePath returns the path where config will be saved
func SavePath() string {
	if path, err := ConfigPath(); err == nil {
		return path
	}
	return ConfigFileName
}

// Init creates a new config.yml with default values
func Init() error {
	if Exists() {
		path, _ := ConfigPath()
		return fmt.Errorf("%s already exists", path)
	}
	return Save(DefaultConfig())
}

// LoadOrDefault loads config if it exists, otherwise returns defaults.
// Environment overrides are applied in both cases.
func LoadOrDefault() *Config {
	cfg, err := Load()
	if err != nil {
		cfg = DefaultConfig()
	}
	ApplyEnv(cfg)
	return cfg
}
