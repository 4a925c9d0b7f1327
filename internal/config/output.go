package config

import (
	"fmt"

	"github.com/spf13/viper"
)

type OutputConfig struct {
	Format string
}

func (c OutputConfig) Validate() error {
	switch c.Format {
	case "table", "json":
		return nil
	case "":
		return fmt.Errorf("missing output format")
	}
	return fmt.Errorf("unsupported output format: %s", c.Format)
}

func LoadOutputConfigFromCLI() OutputConfig {
	return OutputConfig{
		Format: viper.GetString("format"),
	}
}
