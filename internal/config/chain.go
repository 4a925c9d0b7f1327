package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
)

type ChainConfig struct {
	Debounce time.Duration
	DBPath   string
}

func (c ChainConfig) Validate() error {
	if c.Debounce <= 0 {
		return fmt.Errorf("debounce must be positive")
	}
	if c.DBPath == "" {
		return fmt.Errorf("missing snapshot database path")
	}
	return nil
}

func LoadChainConfigFromCLI() ChainConfig {
	return ChainConfig{
		Debounce: viper.GetDuration("debounce"),
		DBPath:   viper.GetString("db-path"),
	}
}
