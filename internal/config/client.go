package config

import (
	"fmt"
	"net/url"
	"time"

	"github.com/spf13/viper"
)

type ClientConfig struct {
	BaseURL   string
	Timeout   time.Duration
	UserAgent string
}

func (c ClientConfig) Validate() error {
	if c.BaseURL == "" {
		return fmt.Errorf("missing API base URL")
	}

	u, err := url.ParseRequestURI(c.BaseURL)
	if err != nil {
		return fmt.Errorf("failed to parse API base URL: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("unsupported API URL scheme: %s", u.Scheme)
	}

	if c.Timeout < 0 {
		return fmt.Errorf("timeout must not be negative")
	}

	return nil
}

func LoadClientConfigFromCLI() ClientConfig {
	return ClientConfig{
		BaseURL:   viper.GetString("api-url"),
		Timeout:   viper.GetDuration("timeout"),
		UserAgent: viper.GetString("user-agent"),
	}
}
