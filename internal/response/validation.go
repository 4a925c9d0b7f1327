package response

import (
	"encoding/json"

	"github.com/manifest-network/chainctl/internal/models"
	"github.com/manifest-network/chainctl/internal/utils"
)

// Validation normalizes the validate endpoint. A bare boolean is a whole-chain
// verdict. An object may carry "valid" (boolean or per-block array), "status",
// "results" and "blocks"; per-block arrays are concatenated and deduplicated
// by index, the later entry winning.
//
// IsValid comes from a boolean "valid", else a boolean "status", else true when
// there are no entries at all, else the conjunction of the entries. The
// no-entries default keeps status-only endpoints from reporting false alarms;
// it also means a backend that omits detail on failure reads as valid.
func Validation(data json.RawMessage) (models.ValidationResult, error) {
	v, err := decode(data)
	if err != nil {
		return models.ValidationResult{}, err
	}

	obj, isObject := v.(map[string]any)
	if !isObject {
		if verdict, ok := utils.Bool(v); ok {
			return models.ValidationResult{IsValid: verdict, Entries: []models.ValidationEntry{}}, nil
		}
		return models.ValidationResult{}, malformed("unexpected validation payload: %s", truncate(data))
	}

	var direct *bool
	if raw, present := obj["valid"]; present {
		if _, isArray := raw.([]any); !isArray {
			if b, ok := utils.Bool(raw); ok {
				direct = &b
			}
		}
	}
	if direct == nil {
		if b, ok := utils.Bool(obj["status"]); ok {
			direct = &b
		}
	}

	var collected []models.ValidationEntry
	for _, key := range []string{"valid", "results", "blocks"} {
		collected = append(collected, validationEntries(obj[key])...)
	}
	entries := dedupeEntries(collected)

	result := models.ValidationResult{Entries: entries}
	switch {
	case direct != nil:
		result.IsValid = *direct
	case len(entries) == 0:
		result.IsValid = true
	default:
		result.IsValid = true
		for _, entry := range entries {
			if !entry.Valid {
				result.IsValid = false
				break
			}
		}
	}
	return result, nil
}

func validationEntries(v any) []models.ValidationEntry {
	items, ok := v.([]any)
	if !ok {
		return nil
	}

	entries := make([]models.ValidationEntry, 0, len(items))
	for _, item := range items {
		detail, ok := item.(map[string]any)
		if !ok {
			continue
		}
		index, ok := utils.Integer(detail["index"])
		if !ok {
			continue
		}
		valid, ok := utils.Bool(detail["valid"])
		if !ok {
			valid, ok = utils.Bool(detail["status"])
		}
		if !ok {
			continue
		}
		entries = append(entries, models.ValidationEntry{Index: index, Valid: valid})
	}
	return entries
}

// dedupeEntries keeps one entry per index at its first position, holding the
// last value seen for that index.
func dedupeEntries(entries []models.ValidationEntry) []models.ValidationEntry {
	out := make([]models.ValidationEntry, 0, len(entries))
	position := make(map[int]int, len(entries))
	for _, entry := range entries {
		if i, seen := position[entry.Index]; seen {
			out[i] = entry
			continue
		}
		position[entry.Index] = len(out)
		out = append(out, entry)
	}
	return out
}
