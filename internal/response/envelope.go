package response

import (
	"bytes"
	"encoding/json"
	"strconv"
	"strings"

	"github.com/manifest-network/chainctl/internal/utils"
)

// Result is a response with its envelope, if any, taken apart.
type Result struct {
	Data    json.RawMessage
	Success bool
	Error   *string
}

// IsEnvelope reports whether payload is a {data, success, error} wrapper: an
// object with a "success" key and a "data" or "error" key.
func IsEnvelope(payload json.RawMessage) bool {
	_, ok := envelopeFields(payload)
	return ok
}

func envelopeFields(payload json.RawMessage) (map[string]json.RawMessage, bool) {
	trimmed := bytes.TrimSpace(payload)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return nil, false
	}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal(trimmed, &fields); err != nil {
		return nil, false
	}

	if _, ok := fields["success"]; !ok {
		return nil, false
	}
	_, hasData := fields["data"]
	_, hasError := fields["error"]
	if !hasData && !hasError {
		return nil, false
	}
	return fields, true
}

// Unwrap detects an envelope and extracts its parts. A payload that is not an
// envelope is the data itself and counts as a success.
func Unwrap(payload json.RawMessage) Result {
	fields, ok := envelopeFields(payload)
	if !ok {
		return Result{Data: payload, Success: true}
	}

	success := true
	if raw, ok := fields["success"]; ok {
		var flag any
		if err := json.Unmarshal(raw, &flag); err == nil {
			if b, isBool := flag.(bool); isBool && !b {
				success = false
			}
		}
	}

	var errValue any
	if raw, ok := fields["error"]; ok {
		errValue, _ = decode(raw)
	}

	return Result{
		Data:    fields["data"],
		Success: success,
		Error:   ErrorMessage(errValue),
	}
}

// RequireSuccess unwraps payload and fails with a RequestError when the
// envelope reports success=false.
func RequireSuccess(payload json.RawMessage) (json.RawMessage, error) {
	result := Unwrap(payload)
	if !result.Success {
		msg := DefaultErrorMessage
		if result.Error != nil {
			msg = *result.Error
		}
		return nil, &RequestError{Message: msg}
	}
	return result.Data, nil
}

// ErrorMessage normalizes the envelope error field. Strings pass through,
// arrays are joined with ", " after dropping empty parts, objects prefer a
// string "message" and are otherwise serialized. Empty values give nil.
func ErrorMessage(v any) *string {
	var msg string
	switch e := v.(type) {
	case nil:
		return nil
	case string:
		msg = e
	case []any:
		parts := make([]string, 0, len(e))
		for _, part := range e {
			if s := stringify(part); s != "" {
				parts = append(parts, s)
			}
		}
		msg = strings.Join(parts, ", ")
	case map[string]any:
		if m, ok := e["message"].(string); ok {
			msg = m
		} else {
			msg = stringify(e)
		}
	case bool:
		if !e {
			return nil
		}
		msg = stringify(e)
	default:
		if f, ok := utils.Number(e); ok && f == 0 {
			return nil
		}
		msg = stringify(e)
	}

	if msg == "" {
		return nil
	}
	return &msg
}

func stringify(v any) string {
	switch s := v.(type) {
	case nil:
		return ""
	case string:
		return s
	case json.Number:
		return s.String()
	case float64:
		return strconv.FormatFloat(s, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(s)
	}

	b, err := json.Marshal(v)
	if err != nil {
		return ""
	}
	return string(b)
}

// decode parses raw JSON into generic values, keeping numbers as json.Number.
// Missing data decodes to nil.
func decode(raw json.RawMessage) (any, error) {
	if len(bytes.TrimSpace(raw)) == 0 {
		return nil, nil
	}

	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()

	var v any
	if err := dec.Decode(&v); err != nil {
		return nil, malformed("invalid JSON: %v", err)
	}
	return v, nil
}

func unmarshalNumbers(raw json.RawMessage, v any) error {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	return dec.Decode(v)
}
