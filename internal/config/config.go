package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/steepan/devops-project/internal/server"
)

// Config is the resolved runtime configuration for the greeting service.
type Config struct {
	Server    server.Config
	LogLevel  string
	LogFormat string
}

// configFile mirrors the YAML schema used by configs/default.yaml.
type configFile struct {
	Service struct {
		Port     int    `yaml:"port"`
		Greeting string `yaml:"greeting"`
	} `yaml:"service"`
	Timeouts struct {
		Read     string `yaml:"read"`
		Write    string `yaml:"write"`
		Idle     string `yaml:"idle"`
		Shutdown string `yaml:"shutdown"`
	} `yaml:"timeouts"`
	Logging struct {
		Level     string  `yaml:"level"`
		Format    string  `yaml:"format"`
		AccessDir *string `yaml:"access_dir"`
		Stdout    bool    `yaml:"stdout"`
	} `yaml:"logging"`
	TLS struct {
		CertFile string `yaml:"cert_file"`
		KeyFile  string `yaml:"key_file"`
	} `yaml:"tls"`
}

// Load resolves configuration in priority order: defaults -> file -> env.
// A missing file is not an error; a malformed one is.
func Load(path string) (Config, error) {
	cfg := Config{
		Server:    server.DefaultConfig(),
		LogLevel:  "info",
		LogFormat: "json",
	}
	port := 8080

	if path != "" {
		raw, err := os.ReadFile(path)
		switch {
		case err == nil:
			if err := applyFile(&cfg, &port, raw); err != nil {
				return Config{}, fmt.Errorf("parse config file %s: %w", path, err)
			}
		case errors.Is(err, fs.ErrNotExist):
		default:
			return Config{}, fmt.Errorf("read config file %s: %w", path, err)
		}
	}

	port, err := envInt("PORT", port)
	if err != nil {
		return Config{}, err
	}
	cfg.Server.Greeting = envOrDefault("GREETING", cfg.Server.Greeting)
	cfg.LogLevel = envOrDefault("LOG_LEVEL", cfg.LogLevel)
	cfg.LogFormat = envOrDefault("LOG_FORMAT", cfg.LogFormat)
	if dir, ok := os.LookupEnv("ACCESS_LOG_DIR"); ok {
		cfg.Server.LoggerConfig.LogDir = dir
	}
	cfg.Server.LoggerConfig.Stdout = envBool("ACCESS_LOG_STDOUT", cfg.Server.LoggerConfig.Stdout)
	cfg.Server.TLSCertFile = envOrDefault("TLS_CERT", cfg.Server.TLSCertFile)
	cfg.Server.TLSKeyFile = envOrDefault("TLS_KEY", cfg.Server.TLSKeyFile)

	if port <= 0 || port > 65535 {
		return Config{}, fmt.Errorf("invalid port %d", port)
	}
	cfg.Server.Addr = ":" + strconv.Itoa(port)
	cfg.Server.TLSEnabled = cfg.Server.TLSCertFile != "" && cfg.Server.TLSKeyFile != ""

	return cfg, nil
}

func applyFile(cfg *Config, port *int, raw []byte) error {
	var f configFile
	if err := yaml.Unmarshal(raw, &f); err != nil {
		return err
	}

	if f.Service.Port != 0 {
		*port = f.Service.Port
	}
	if f.Service.Greeting != "" {
		cfg.Server.Greeting = f.Service.Greeting
	}

	durations := []struct {
		raw string
		dst *time.Duration
	}{
		{f.Timeouts.Read, &cfg.Server.ReadTimeout},
		{f.Timeouts.Write, &cfg.Server.WriteTimeout},
		{f.Timeouts.Idle, &cfg.Server.IdleTimeout},
		{f.Timeouts.Shutdown, &cfg.Server.ShutdownTimeout},
	}
	for _, d := range durations {
		if strings.TrimSpace(d.raw) == "" {
			continue
		}
		v, err := time.ParseDuration(d.raw)
		if err != nil {
			return fmt.Errorf("timeout %q: %w", d.raw, err)
		}
		*d.dst = v
	}

	if f.Logging.Level != "" {
		cfg.LogLevel = f.Logging.Level
	}
	if f.Logging.Format != "" {
		cfg.LogFormat = f.Logging.Format
	}
	if f.Logging.AccessDir != nil {
		cfg.Server.LoggerConfig.LogDir = *f.Logging.AccessDir
	}
	cfg.Server.LoggerConfig.Stdout = f.Logging.Stdout
	cfg.Server.TLSCertFile = f.TLS.CertFile
	cfg.Server.TLSKeyFile = f.TLS.KeyFile
	return nil
}

// envOrDefault returns an env var when present, otherwise the provided fallback.
func envOrDefault(name, fallback string) string {
	if value := os.Getenv(name); value != "" {
		return value
	}
	return fallback
}

// envInt parses an integer env var; unset or empty keeps fallback, malformed is an error.
func envInt(name string, fallback int) (int, error) {
	raw := strings.TrimSpace(os.Getenv(name))
	if raw == "" {
		return fallback, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", name, raw, err)
	}
	return v, nil
}

func envBool(name string, fallback bool) bool {
	switch os.Getenv(name) {
	case "1", "true", "TRUE", "yes", "YES":
		return true
	case "0", "false", "FALSE", "no", "NO":
		return false
	default:
		return fallback
	}
}
