package config

import (
	"fmt"
	"math"

	"github.com/spf13/viper"
)

type TransferConfig struct {
	From        string
	To          string
	Amount      float64
	Fee         float64
	Note        string
	PrivateKey  string
	GenerateKey bool
}

func (c TransferConfig) Validate() error {
	if c.From == "" || c.To == "" {
		return fmt.Errorf("both --from and --to are required")
	}
	if math.IsNaN(c.Amount) || math.IsInf(c.Amount, 0) || c.Amount <= 0 {
		return fmt.Errorf("amount must be a positive number")
	}
	if c.Fee < 0 {
		return fmt.Errorf("fee must not be negative")
	}
	if c.GenerateKey && c.PrivateKey != "" {
		return fmt.Errorf("cannot set --private-key and --generate-key together")
	}
	return nil
}

func LoadTransferConfigFromCLI() TransferConfig {
	return TransferConfig{
		From:        viper.GetString("from"),
		To:          viper.GetString("to"),
		Amount:      viper.GetFloat64("amount"),
		Fee:         viper.GetFloat64("fee"),
		Note:        viper.GetString("note"),
		PrivateKey:  viper.GetString("private-key"),
		GenerateKey: viper.GetBool("generate-key"),
	}
}
