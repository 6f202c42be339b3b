package api

import (
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"bhss/internal/errors"
)

// Config holds the settings of the REST client
type Config struct {
	BaseURL   string        `json:"base_url"`
	Timeout   time.Duration `json:"timeout"`
	TokenFile string        `json:"token_file"`
}

// DefaultConfig returns defaults suitable for a local server
func DefaultConfig() *Config {
	tokenFile := ".bhss.json"
	if home, err := os.UserHomeDir(); err == nil {
		tokenFile = filepath.Join(home, ".bhss.json")
	}
	return &Config{
		BaseURL:   "http://localhost:8080",
		Timeout:   30 * time.Second,
		TokenFile: tokenFile,
	}
}

// Validate checks if the configuration is usable
func (c *Config) Validate() error {
	if c.BaseURL == "" {
		return errors.ConfigInvalid("base url is required")
	}
	u, err := url.Parse(c.BaseURL)
	if err != nil || u.Host == "" || (u.Scheme != "http" && u.Scheme != "https") {
		return errors.ConfigInvalid("base url must be an absolute http(s) url")
	}
	if c.Timeout <= 0 {
		return errors.ConfigInvalid("timeout must be positive")
	}
	if c.TokenFile == "" {
		return errors.ConfigInvalid("token file is required")
	}
	return nil
}

// WebSocketURL derives the notification socket address from the base url
func (c *Config) WebSocketURL() string {
	base := strings.TrimSuffix(c.BaseURL, "/")
	switch {
	case strings.HasPrefix(base, "https://"):
		base = "wss://" + strings.TrimPrefix(base, "https://")
	case strings.HasPrefix(base, "http://"):
		base = "ws://" + strings.TrimPrefix(base, "http://")
	}
	return base + "/ws"
}
