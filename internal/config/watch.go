package config

import (
	"fmt"
	"net"
	"time"

	"github.com/spf13/viper"
)

type WatchConfig struct {
	Interval         time.Duration
	EnablePrometheus bool
	PrometheusAddr   string
}

func (c WatchConfig) Validate() error {
	if c.Interval <= 0 {
		return fmt.Errorf("interval must be positive")
	}

	if c.EnablePrometheus {
		if _, _, err := net.SplitHostPort(c.PrometheusAddr); err != nil {
			return fmt.Errorf("invalid Prometheus address: %w", err)
		}
	}

	return nil
}

func LoadWatchConfigFromCLI() WatchConfig {
	return WatchConfig{
		Interval:         viper.GetDuration("interval"),
		EnablePrometheus: viper.GetBool("enable-prometheus"),
		PrometheusAddr:   viper.GetString("prometheus-addr"),
	}
}
