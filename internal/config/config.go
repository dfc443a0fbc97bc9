package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/micro-ha/zabbix-adapters/internal/model"
)

const (
	defaultHTTPAddr = ":9105"
)

// Config stores runtime settings. Load fills it from environment variables;
// ApplyFile and explicit flags are layered on top by the command.
type Config struct {
	Router   model.RouterConfig
	HTTPAddr string
	LogLevel slog.Level
}

// Load builds Config from environment variables using stable defaults.
// An unknown ROUTEROS_API is rejected, as it is in the config file.
func Load() (Config, error) {
	variant, err := model.ParseVariant(getenv("ROUTEROS_API", ""))
	if err != nil {
		return Config{}, fmt.Errorf("ROUTEROS_API: %w", err)
	}
	return Config{
		Router: model.RouterConfig{
			Host:       getenv("ROUTEROS_HOST", ""),
			Username:   getenv("ROUTEROS_USERNAME", ""),
			Password:   os.Getenv("ROUTEROS_PASSWORD"),
			SSL:        parseBool("ROUTEROS_SSL", false),
			VerifyTLS:  parseBool("ROUTEROS_VERIFY_TLS", false),
			API:        variant,
			TimeoutSec: parseInt("ROUTEROS_TIMEOUT_SEC", 0),
		},
		HTTPAddr: getenv("HTTP_ADDR", defaultHTTPAddr),
		LogLevel: ParseLogLevel(getenv("LOG_LEVEL", "info")),
	}, nil
}

// File is the YAML configuration document. Unset keys leave the
// environment-derived value untouched.
type File struct {
	Router struct {
		Host       string `yaml:"host"`
		Username   string `yaml:"username"`
		Password   string `yaml:"password"`
		SSL        *bool  `yaml:"ssl"`
		VerifyTLS  *bool  `yaml:"verify_tls"`
		API        string `yaml:"api"`
		TimeoutSec int    `yaml:"timeout_sec"`
	} `yaml:"router"`
	HTTPAddr string `yaml:"http_addr"`
	LogLevel string `yaml:"log_level"`
}

// LoadFile reads and parses a YAML config file.
func LoadFile(path string) (File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return File{}, err
	}

	var file File
	if err := yaml.Unmarshal(data, &file); err != nil {
		return File{}, fmt.Errorf("parse %s: %w", path, err)
	}
	if file.Router.API != "" {
		if _, err := model.ParseVariant(file.Router.API); err != nil {
			return File{}, fmt.Errorf("parse %s: %w", path, err)
		}
	}
	return file, nil
}

// ApplyFile overlays the values present in file.
func (c Config) ApplyFile(file File) Config {
	r := file.Router
	if strings.TrimSpace(r.Host) != "" {
		c.Router.Host = strings.TrimSpace(r.Host)
	}
	if strings.TrimSpace(r.Username) != "" {
		c.Router.Username = strings.TrimSpace(r.Username)
	}
	if r.Password != "" {
		c.Router.Password = r.Password
	}
	if r.SSL != nil {
		c.Router.SSL = *r.SSL
	}
	if r.VerifyTLS != nil {
		c.Router.VerifyTLS = *r.VerifyTLS
	}
	if variant, err := model.ParseVariant(r.API); err == nil && r.API != "" {
		c.Router.API = variant
	}
	if r.TimeoutSec > 0 {
		c.Router.TimeoutSec = r.TimeoutSec
	}
	if strings.TrimSpace(file.HTTPAddr) != "" {
		c.HTTPAddr = strings.TrimSpace(file.HTTPAddr)
	}
	if strings.TrimSpace(file.LogLevel) != "" {
		c.LogLevel = ParseLogLevel(file.LogLevel)
	}
	return c
}

// LoadWithFile is Load followed by ApplyFile when path is set.
func LoadWithFile(path string) (Config, error) {
	cfg, err := Load()
	if err != nil {
		return Config{}, err
	}
	if strings.TrimSpace(path) == "" {
		return cfg, nil
	}
	file, err := LoadFile(path)
	if err != nil {
		return Config{}, err
	}
	return cfg.ApplyFile(file), nil
}

func getenv(key string, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		trimmed := strings.TrimSpace(value)
		if trimmed != "" {
			return trimmed
		}
	}
	return fallback
}

func parseBool(key string, fallback bool) bool {
	raw, ok := os.LookupEnv(key)
	if !ok {
		return fallback
	}
	value, err := strconv.ParseBool(strings.TrimSpace(raw))
	if err != nil {
		return fallback
	}
	return value
}

func parseInt(key string, fallback int) int {
	raw, ok := os.LookupEnv(key)
	if !ok {
		return fallback
	}
	value, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil || value <= 0 {
		return fallback
	}
	return value
}

// ParseLogLevel maps a level name onto slog levels, defaulting to info.
func ParseLogLevel(raw string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
