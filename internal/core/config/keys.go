package config

import (
	"fmt"
	"strconv"
)

// Keys lists the settings accepted by Get and Set
var Keys = []string{
	"output_dir",
	"server.host",
	"server.port",
	"server.metrics",
	"extractor.backend",
	"extractor.ytdlp_path",
	"extractor.quiet",
	"extractor.auto_install",
}

// Get returns a config value by its dotted key
func (c *Config) Get(key string) (string, error) {
	switch key {
	case "output_dir":
		return c.OutputDir, nil
	case "server.host":
		return c.Server.Host, nil
	case "server.port":
		return strconv.Itoa(c.Server.Port), nil
	case "server.metrics":
		return strconv.FormatBool(c.Server.Metrics), nil
	case "extractor.backend":
		return c.Extractor.Backend, nil
	case "extractor.ytdlp_path":
		return c.Extractor.YtdlpPath, nil
	case "extractor.quiet":
		return strconv.FormatBool(c.Extractor.Quiet), nil
	case "extractor.auto_install":
		return strconv.FormatBool(c.Extractor.AutoInstall), nil
	}
	return "", fmt.Errorf("unknown config key: %s", key)
}

// Set updates a config value by its dotted key. The result is validated.
func (c *Config) Set(key, value string) error {
	next := *c

	switch key {
	case "output_dir":
		next.OutputDir = expandPath(value)
	case "server.host":
		next.Server.Host = value
	case "server.port":
		port, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("invalid port number: %s", value)
		}
		next.Server.Port = port
	case "server.metrics", "extractor.quiet", "extractor.auto_install":
		b, err := strconv.ParseBool(value)
		if err != nil {
			return fmt.Errorf("invalid boolean for %s: %s", key, value)
		}
		switch key {
		case "server.metrics":
			next.Server.Metrics = b
		case "extractor.quiet":
			next.Extractor.Quiet = b
		default:
			next.Extractor.AutoInstall = b
		}
	case "extractor.backend":
		next.Extractor.Backend = value
	case "extractor.ytdlp_path":
		next.Extractor.YtdlpPath = expandPath(value)
	default:
		return fmt.Errorf("unknown config key: %s", key)
	}

	if err := next.Validate(); err != nil {
		return err
	}
	*c = next
	return nil
}
