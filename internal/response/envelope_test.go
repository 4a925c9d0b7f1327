package response_test

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/manifest-network/chainctl/internal/response"
)

func raw(s string) json.RawMessage {
	return json.RawMessage(s)
}

func TestUnwrap(t *testing.T) {
	t.Run("Envelope with data", func(t *testing.T) {
		result := response.Unwrap(raw(`{"success": true, "data": [1, 2]}`))
		assert.True(t, result.Success)
		assert.JSONEq(t, `[1, 2]`, string(result.Data))
		assert.Nil(t, result.Error)
	})

	t.Run("Envelope with error only", func(t *testing.T) {
		result := response.Unwrap(raw(`{"success": false, "error": "boom"}`))
		assert.False(t, result.Success)
		assert.Nil(t, result.Data)
		require.NotNil(t, result.Error)
		assert.Equal(t, "boom", *result.Error)
	})

	t.Run("Success other than false counts as success", func(t *testing.T) {
		result := response.Unwrap(raw(`{"success": "false", "data": 3}`))
		assert.True(t, result.Success)

		result = response.Unwrap(raw(`{"success": null, "data": 3}`))
		assert.True(t, result.Success)
	})

	t.Run("Object without success key is data", func(t *testing.T) {
		payload := raw(`{"data": 1, "error": null}`)
		result := response.Unwrap(payload)
		assert.True(t, result.Success)
		assert.JSONEq(t, string(payload), string(result.Data))
	})

	t.Run("Success without data or error is data", func(t *testing.T) {
		payload := raw(`{"success": false, "message": "x"}`)
		result := response.Unwrap(payload)
		assert.True(t, result.Success)
		assert.JSONEq(t, string(payload), string(result.Data))
	})

	t.Run("Scalars and arrays are data", func(t *testing.T) {
		for _, payload := range []string{`5`, `"text"`, `true`, `[{"success": false, "data": 1}]`, `null`} {
			result := response.Unwrap(raw(payload))
			assert.True(t, result.Success, payload)
			assert.Equal(t, payload, string(result.Data))
			assert.Nil(t, result.Error)
		}
	})
}

func TestRequireSuccess(t *testing.T) {
	data, err := response.RequireSuccess(raw(`{"success": true, "data": {"a": 1}}`))
	require.NoError(t, err)
	assert.JSONEq(t, `{"a": 1}`, string(data))

	_, err = response.RequireSuccess(raw(`{"success": false, "error": ["bad", "", "worse"]}`))
	require.Error(t, err)
	assert.True(t, errors.Is(err, response.ErrRequestFailed))
	assert.Equal(t, "bad, worse", err.Error())

	_, err = response.RequireSuccess(raw(`{"success": false, "error": null}`))
	require.Error(t, err)
	assert.Equal(t, response.DefaultErrorMessage, err.Error())

	var reqErr *response.RequestError
	require.ErrorAs(t, err, &reqErr)
}

func TestErrorMessage(t *testing.T) {
	tests := []struct {
		name  string
		input any
		want  *string
	}{
		{"nil", nil, nil},
		{"string", "oops", ptr("oops")},
		{"empty string", "", nil},
		{"array", []any{"a", json.Number("2"), nil, "", true}, ptr("a, 2, true")},
		{"empty array", []any{"", nil}, nil},
		{"object with message", map[string]any{"message": "bad input", "code": json.Number("4")}, ptr("bad input")},
		{"object without message", map[string]any{"code": json.Number("4")}, ptr(`{"code":4}`)},
		{"object with non-string message", map[string]any{"message": json.Number("1")}, ptr(`{"message":1}`)},
		{"number", json.Number("500"), ptr("500")},
		{"zero", json.Number("0"), nil},
		{"false", false, nil},
		{"true", true, ptr("true")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, response.ErrorMessage(tt.input))
		})
	}
}

func ptr[T any](v T) *T {
	return &v
}
