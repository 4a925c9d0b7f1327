package response_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/manifest-network/chainctl/internal/response"
)

func TestWallets(t *testing.T) {
	wallets, err := response.Wallets(raw(`[
		{"address": "a1", "name": "alice", "public_key": "pk-a", "public": "ignored", "private_key": "sk-a", "balance": 10},
		{"address": "b1", "public": "pk-b"},
		{"address": "c1", "balance": "n/a"}
	]`))
	require.NoError(t, err)
	require.Len(t, wallets, 3)

	assert.Equal(t, "a1", wallets[0].Address)
	require.NotNil(t, wallets[0].Name)
	assert.Equal(t, "alice", *wallets[0].Name)
	assert.Equal(t, "pk-a", wallets[0].PublicKey)
	require.NotNil(t, wallets[0].PrivateKey)
	assert.Equal(t, "sk-a", *wallets[0].PrivateKey)
	require.NotNil(t, wallets[0].Balance)
	assert.Equal(t, 10.0, *wallets[0].Balance)

	assert.Equal(t, "pk-b", wallets[1].PublicKey)
	assert.Nil(t, wallets[1].Name)
	assert.Nil(t, wallets[1].PrivateKey)

	assert.Equal(t, "", wallets[2].PublicKey)
	assert.Nil(t, wallets[2].Balance)
}

func TestWalletsRejectsMissingAddress(t *testing.T) {
	_, err := response.Wallets(raw(`[{"name": "nobody"}]`))
	assert.ErrorIs(t, err, response.ErrMalformedResponse)

	_, err = response.Wallet(raw(`{"address": ""}`))
	assert.ErrorIs(t, err, response.ErrMalformedResponse)

	_, err = response.Wallets(raw(`{"address": "x"}`))
	assert.ErrorIs(t, err, response.ErrMalformedResponse)
}

func TestWalletsNullIsEmpty(t *testing.T) {
	wallets, err := response.Wallets(raw(`null`))
	require.NoError(t, err)
	assert.Empty(t, wallets)
}

func TestBuildSign(t *testing.T) {
	tx := `{"z": 1, "a": [1.10, "x"]}`
	result, err := response.BuildSign(raw(`{"tx": ` + tx + `, "pub": "p", "sign": "s"}`))
	require.NoError(t, err)
	assert.Equal(t, tx, string(result.Tx))
	assert.Equal(t, "p", result.Pub)
	assert.Equal(t, "s", result.Sign)

	_, err = response.BuildSign(raw(`{"pub": "p", "sign": "s"}`))
	assert.ErrorIs(t, err, response.ErrMalformedResponse)

	_, err = response.BuildSign(raw(`{"tx": {}, "sign": "s"}`))
	assert.ErrorIs(t, err, response.ErrMalformedResponse)
}

func TestMessage(t *testing.T) {
	assert.Equal(t, "ok", response.Message(raw(`"ok"`)))
	assert.Equal(t, "moved", response.Message(raw(`{"message": "moved"}`)))
	assert.Equal(t, "", response.Message(raw(`{"message": 1}`)))
	assert.Equal(t, "", response.Message(nil))
}
