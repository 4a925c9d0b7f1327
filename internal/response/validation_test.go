package response_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/manifest-network/chainctl/internal/models"
	"github.com/manifest-network/chainctl/internal/response"
)

func TestValidation(t *testing.T) {
	t.Run("Bare boolean", func(t *testing.T) {
		result, err := response.Validation(raw(`false`))
		require.NoError(t, err)
		assert.False(t, result.IsValid)
		assert.Empty(t, result.Entries)
	})

	t.Run("No entries defaults to valid", func(t *testing.T) {
		result, err := response.Validation(raw(`{"results": [], "blocks": []}`))
		require.NoError(t, err)
		assert.True(t, result.IsValid)
		assert.Empty(t, result.Entries)
	})

	t.Run("Later duplicate wins", func(t *testing.T) {
		result, err := response.Validation(raw(`{
			"results": [{"index": 2, "valid": true}],
			"blocks": [{"index": 2, "valid": false}]
		}`))
		require.NoError(t, err)
		assert.Equal(t, []models.ValidationEntry{{Index: 2, Valid: false}}, result.Entries)
		assert.False(t, result.IsValid)
	})

	t.Run("Valid array is a detail source", func(t *testing.T) {
		result, err := response.Validation(raw(`{
			"valid": [{"index": 0, "valid": true}, {"index": 1, "status": "false"}],
			"results": [{"index": "3", "valid": 1}]
		}`))
		require.NoError(t, err)
		assert.Equal(t, []models.ValidationEntry{
			{Index: 0, Valid: true},
			{Index: 1, Valid: false},
			{Index: 3, Valid: true},
		}, result.Entries)
		assert.False(t, result.IsValid)
	})

	t.Run("Direct boolean valid wins over entries", func(t *testing.T) {
		result, err := response.Validation(raw(`{"valid": true, "blocks": [{"index": 1, "valid": false}]}`))
		require.NoError(t, err)
		assert.True(t, result.IsValid)
		assert.Len(t, result.Entries, 1)
	})

	t.Run("Status used when valid absent", func(t *testing.T) {
		result, err := response.Validation(raw(`{"status": "False"}`))
		require.NoError(t, err)
		assert.False(t, result.IsValid)
	})

	t.Run("Unknown valid falls through to status", func(t *testing.T) {
		result, err := response.Validation(raw(`{"valid": "maybe", "status": true, "results": [{"index": 0, "valid": false}]}`))
		require.NoError(t, err)
		assert.True(t, result.IsValid)
	})

	t.Run("Conjunction of entries", func(t *testing.T) {
		result, err := response.Validation(raw(`{"results": [{"index": 0, "valid": true}, {"index": 1, "valid": true}]}`))
		require.NoError(t, err)
		assert.True(t, result.IsValid)
	})

	t.Run("Drops entries without index or verdict", func(t *testing.T) {
		result, err := response.Validation(raw(`{"results": [
			{"valid": false},
			{"index": "x", "valid": false},
			{"index": 1.5, "valid": false},
			{"index": 2},
			{"index": 3, "valid": "nope"},
			7
		]}`))
		require.NoError(t, err)
		assert.Empty(t, result.Entries)
		assert.True(t, result.IsValid)
	})

	t.Run("Unexpected shape", func(t *testing.T) {
		_, err := response.Validation(raw(`[1, 2]`))
		assert.ErrorIs(t, err, response.ErrMalformedResponse)

		_, err = response.Validation(raw(`null`))
		assert.ErrorIs(t, err, response.ErrMalformedResponse)
	})
}
