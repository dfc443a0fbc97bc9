package model

import (
	"strings"
	"time"
)

const (
	defaultRouterTimeout = 10 * time.Second
	minRouterTimeout     = time.Second
)

// RouterConfig represents a normalized RouterOS connection profile.
type RouterConfig struct {
	Host       string  `yaml:"host"`
	Username   string  `yaml:"username"`
	Password   string  `yaml:"password"`
	SSL        bool    `yaml:"ssl"`
	VerifyTLS  bool    `yaml:"verify_tls"`
	API        Variant `yaml:"api"`
	TimeoutSec int     `yaml:"timeout_sec"`
}

// Configured reports whether all credentials needed to open a session are set.
func (c RouterConfig) Configured() bool {
	return strings.TrimSpace(c.Host) != "" &&
		strings.TrimSpace(c.Username) != "" &&
		c.Password != ""
}

func (c RouterConfig) Timeout() time.Duration {
	if c.TimeoutSec <= 0 {
		return defaultRouterTimeout
	}
	timeout := time.Duration(c.TimeoutSec) * time.Second
	if timeout < minRouterTimeout {
		return minRouterTimeout
	}
	return timeout
}

// Variant returns the configured controller API, falling back to CAPsMAN.
func (c RouterConfig) Variant() Variant {
	if c.API == "" {
		return VariantCAPsMAN
	}
	return c.API
}
