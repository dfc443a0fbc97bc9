package routeros

import (
	"net"
	"strings"
	"time"

	"github.com/micro-ha/zabbix-adapters/internal/model"
)

const (
	apiPort    = "8728"
	apiSSLPort = "8729"
)

// Config is one API-level connection profile.
type Config struct {
	Address   string
	Username  string
	Password  string
	UseTLS    bool
	VerifyTLS bool
	Timeout   time.Duration
}

// ConfigFromModel converts a router profile into API connection settings.
func ConfigFromModel(cfg model.RouterConfig) Config {
	return Config{
		Address:   cfg.Host,
		Username:  cfg.Username,
		Password:  cfg.Password,
		UseTLS:    cfg.SSL,
		VerifyTLS: cfg.VerifyTLS,
		Timeout:   cfg.Timeout(),
	}
}

// normalizeConfig checks the credentials and resolves the dial address.
// The password is used verbatim.
func normalizeConfig(cfg Config) (Config, error) {
	cfg.Address = strings.TrimSpace(cfg.Address)
	cfg.Username = strings.TrimSpace(cfg.Username)
	if cfg.Timeout <= 0 {
		cfg.Timeout = model.RouterConfig{}.Timeout()
	}

	required := []struct {
		field string
		value string
	}{
		{"address", cfg.Address},
		{"username", cfg.Username},
		{"password", cfg.Password},
	}
	for _, r := range required {
		if r.value == "" {
			return Config{}, &ValidationError{Field: r.field, Reason: "is required"}
		}
	}

	address, err := normalizeAddress(cfg.Address, cfg.UseTLS)
	if err != nil {
		return Config{}, err
	}
	cfg.Address = address
	return cfg, nil
}

// normalizeAddress accepts a bare host, host:port or a URL and returns
// host:port, adding the API or API-SSL port when none is given.
func normalizeAddress(raw string, useTLS bool) (string, error) {
	host := strings.TrimSpace(raw)
	if _, rest, ok := strings.Cut(host, "://"); ok {
		host = rest
	}
	host, _, _ = strings.Cut(host, "/")
	if at := strings.LastIndex(host, "@"); at >= 0 {
		host = host[at+1:]
	}
	host = strings.TrimSpace(host)
	if strings.Trim(host, "[]") == "" {
		return "", &ValidationError{Field: "address", Reason: "host is empty"}
	}

	if _, _, err := net.SplitHostPort(host); err == nil {
		return host, nil
	}
	port := apiPort
	if useTLS {
		port = apiSSLPort
	}
	return net.JoinHostPort(strings.Trim(host, "[]"), port), nil
}
