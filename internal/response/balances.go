package response

import (
	"encoding/json"

	"github.com/manifest-network/chainctl/internal/models"
	"github.com/manifest-network/chainctl/internal/utils"
)

// pendingValueKeys lists the entry fields holding a pending balance, in priority order.
var pendingValueKeys = []string{"value", "amount", "can_spend", "balance", "pending"}

// PendingBalances reduces either an address→amount object or an array of
// {address, value|amount|can_spend|balance|pending} entries to one mapping.
// Entries without an address or a numeric value are skipped; any other shape
// yields an empty mapping.
func PendingBalances(data json.RawMessage) models.PendingBalances {
	out := models.PendingBalances{}

	v, err := decode(data)
	if err != nil {
		return out
	}

	switch shaped := v.(type) {
	case []any:
		for _, item := range shaped {
			entry, ok := item.(map[string]any)
			if !ok {
				continue
			}
			address, _ := entry["address"].(string)
			if address == "" {
				continue
			}
			if value, ok := firstNumber(entry, pendingValueKeys...); ok {
				out[address] = value
			}
		}
	case map[string]any:
		for address, raw := range shaped {
			if address == "" {
				continue
			}
			if value, ok := utils.Number(raw); ok {
				out[address] = value
			}
		}
	}

	return out
}

// Balance accepts a bare number, a numeric string or {"balance": n}.
func Balance(data json.RawMessage) (float64, error) {
	v, err := decode(data)
	if err != nil {
		return 0, err
	}

	if value, ok := utils.Number(v); ok {
		return value, nil
	}
	if obj, ok := v.(map[string]any); ok {
		if value, ok := utils.Number(obj["balance"]); ok {
			return value, nil
		}
	}
	return 0, malformed("balance is not numeric: %s", truncate(data))
}

// Prize accepts a bare number, a numeric string, or an object exposing
// prize, reward, amount or value (first numeric hit wins).
func Prize(data json.RawMessage) (float64, error) {
	v, err := decode(data)
	if err != nil {
		return 0, ErrInvalidPrize
	}

	if value, ok := utils.Number(v); ok {
		return value, nil
	}
	if obj, ok := v.(map[string]any); ok {
		if value, ok := firstNumber(obj, "prize", "reward", "amount", "value"); ok {
			return value, nil
		}
	}
	return 0, ErrInvalidPrize
}

func firstNumber(obj map[string]any, keys ...string) (float64, bool) {
	for _, key := range keys {
		if value, ok := utils.Number(obj[key]); ok {
			return value, true
		}
	}
	return 0, false
}

func truncate(data json.RawMessage) string {
	const limit = 128
	if len(data) <= limit {
		return string(data)
	}
	return string(data[:limit]) + "..."
}
