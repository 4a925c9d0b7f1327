package response_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/manifest-network/chainctl/internal/models"
	"github.com/manifest-network/chainctl/internal/response"
)

func TestPendingBalances(t *testing.T) {
	t.Run("Map and array forms agree", func(t *testing.T) {
		fromMap := response.PendingBalances(raw(`{"addr": 5}`))
		fromArray := response.PendingBalances(raw(`[{"address": "addr", "value": 5}]`))
		assert.Equal(t, models.PendingBalances{"addr": 5}, fromMap)
		assert.Equal(t, fromMap, fromArray)
	})

	t.Run("Array value keys in priority order", func(t *testing.T) {
		got := response.PendingBalances(raw(`[
			{"address": "a", "amount": "7"},
			{"address": "b", "can_spend": 8, "balance": 1},
			{"address": "c", "balance": 9},
			{"address": "d", "pending": 10},
			{"address": "e", "value": "x", "amount": 11}
		]`))
		assert.Equal(t, models.PendingBalances{"a": 7, "b": 8, "c": 9, "d": 10, "e": 11}, got)
	})

	t.Run("Skips entries without address or value", func(t *testing.T) {
		got := response.PendingBalances(raw(`[
			{"value": 1},
			{"address": "", "value": 2},
			{"address": "x"},
			{"address": "y", "value": null},
			"junk",
			{"address": "z", "value": 0}
		]`))
		assert.Equal(t, models.PendingBalances{"z": 0}, got)
	})

	t.Run("Map drops non numeric values", func(t *testing.T) {
		got := response.PendingBalances(raw(`{"a": "12.5", "b": "n/a", "c": null}`))
		assert.Equal(t, models.PendingBalances{"a": 12.5}, got)
	})

	t.Run("Other shapes are empty", func(t *testing.T) {
		assert.Empty(t, response.PendingBalances(raw(`42`)))
		assert.Empty(t, response.PendingBalances(raw(`null`)))
		assert.Empty(t, response.PendingBalances(nil))
	})
}

func TestBalance(t *testing.T) {
	v, err := response.Balance(raw(`12`))
	require.NoError(t, err)
	assert.Equal(t, 12.0, v)

	v, err = response.Balance(raw(`{"balance": "3.5"}`))
	require.NoError(t, err)
	assert.Equal(t, 3.5, v)

	v, err = response.Balance(raw(`0`))
	require.NoError(t, err)
	assert.Equal(t, 0.0, v)

	_, err = response.Balance(raw(`{"amount": 1}`))
	assert.True(t, errors.Is(err, response.ErrMalformedResponse))

	_, err = response.Balance(raw(`null`))
	assert.True(t, errors.Is(err, response.ErrMalformedResponse))
}

func TestPrize(t *testing.T) {
	tests := []struct {
		name    string
		payload string
		want    float64
	}{
		{"number", `50`, 50},
		{"string", `"12.5"`, 12.5},
		{"prize key", `{"prize": 10, "reward": 20}`, 10},
		{"reward key", `{"reward": "20", "amount": 30}`, 20},
		{"amount key", `{"prize": "n/a", "amount": 30}`, 30},
		{"value key", `{"value": 40}`, 40},
		{"zero", `0`, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := response.Prize(raw(tt.payload))
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	for _, payload := range []string{`{}`, `"abc"`, `null`, `[1]`, `{"prize": null}`, `true`} {
		t.Run("invalid "+payload, func(t *testing.T) {
			_, err := response.Prize(raw(payload))
			require.Error(t, err)
			assert.ErrorIs(t, err, response.ErrInvalidPrize)
			assert.ErrorIs(t, err, response.ErrMalformedResponse)
		})
	}
}
