package client_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/manifest-network/chainctl/internal/client"
	"github.com/manifest-network/chainctl/internal/config"
	"github.com/manifest-network/chainctl/internal/models"
	"github.com/manifest-network/chainctl/internal/response"
	"github.com/manifest-network/chainctl/internal/testutil"
)

type recordingObserver struct {
	mu       sync.Mutex
	outcomes map[string][]string
}

func (o *recordingObserver) ObserveRequest(endpoint, outcome string, _ time.Duration) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.outcomes == nil {
		o.outcomes = make(map[string][]string)
	}
	o.outcomes[endpoint] = append(o.outcomes[endpoint], outcome)
}

func newClient(t *testing.T, opts ...client.Option) (*client.ChainClient, *testutil.ChainServer) {
	t.Helper()
	server := testutil.NewChainServer(t)
	c := client.NewChainClient(config.ClientConfig{BaseURL: server.URL, Timeout: 5 * time.Second, UserAgent: "chainctl/test"}, opts...)
	return c, server
}

func TestWallets(t *testing.T) {
	c, server := newClient(t)
	server.Reply(http.MethodGet, "/wallet", 200, `{"success": true, "data": [{"address": "a1", "public": "pk"}]}`)

	wallets, err := c.Wallets(context.Background())
	require.NoError(t, err)
	require.Len(t, wallets, 1)
	assert.Equal(t, "pk", wallets[0].PublicKey)

	calls := server.Calls(http.MethodGet, "/wallet")
	require.Len(t, calls, 1)
	_, err = uuid.Parse(calls[0].Header.Get("X-Request-ID"))
	assert.NoError(t, err)
	assert.Equal(t, "chainctl/test", calls[0].Header.Get("User-Agent"))
}

func TestCreateWallet(t *testing.T) {
	c, server := newClient(t)
	server.Reply(http.MethodPost, "/wallet/create", 200, `{"address": "n1", "name": "new", "public_key": "pk"}`)

	wallet, err := c.CreateWallet(context.Background(), "new")
	require.NoError(t, err)
	assert.Equal(t, "n1", wallet.Address)

	_, err = c.CreateWallet(context.Background(), "")
	require.NoError(t, err)

	calls := server.Calls(http.MethodPost, "/wallet/create")
	require.Len(t, calls, 2)
	assert.JSONEq(t, `{"name": "new"}`, string(calls[0].Body))
	assert.Empty(t, calls[1].Body)
}

func TestWalletBalance(t *testing.T) {
	c, server := newClient(t)
	server.Reply(http.MethodPost, "/wallet/balance", 200, `{"balance": 42}`)

	balance, err := c.WalletBalance(context.Background(), "a1")
	require.NoError(t, err)
	assert.Equal(t, 42.0, balance)
	assert.JSONEq(t, `{"address": "a1"}`, string(server.Calls(http.MethodPost, "/wallet/balance")[0].Body))

	server.Reply(http.MethodPost, "/wallet/balance", 200, `{"data": {"oops": 1}, "success": true}`)
	_, err = c.WalletBalance(context.Background(), "a1")
	assert.ErrorIs(t, err, response.ErrMalformedResponse)
	assert.Contains(t, err.Error(), "balance of a1")
}

func TestPendingBalances(t *testing.T) {
	c, server := newClient(t)
	server.Reply(http.MethodPost, "/pending_balance", 200, `[{"address": "a1", "can_spend": 9}]`)

	got, err := c.PendingBalances(context.Background(), []string{"a1", "", "a1", "b1"})
	require.NoError(t, err)
	assert.Equal(t, models.PendingBalances{"a1": 9}, got)

	calls := server.Calls(http.MethodPost, "/pending_balance")
	require.Len(t, calls, 1)
	assert.JSONEq(t, `{"addresses": ["a1", "b1"]}`, string(calls[0].Body))

	got, err = c.PendingBalances(context.Background(), []string{""})
	require.NoError(t, err)
	assert.Empty(t, got)
	assert.Len(t, server.Calls(http.MethodPost, "/pending_balance"), 1)
}

func TestBuildSignAndApproveForwardTxVerbatim(t *testing.T) {
	c, server := newClient(t)
	tx := `{"b": 2, "a": 1.50, "nested": {"z": [3, 2, 1]}}`
	server.Reply(http.MethodPost, "/transaction/build_sign", 200,
		`{"success": true, "data": {"tx": `+tx+`, "pub": "pub-key", "sign": "sig"}}`)
	server.Reply(http.MethodPost, "/transaction/approve", 200, `{"message": "Transaction moved to mempool."}`)

	fee := 1.0
	signed, err := c.BuildSign(context.Background(), models.BuildSignRequest{
		SenderAddress:   "a1",
		ReceiverAddress: "b1",
		Amount:          5,
		Fee:             &fee,
	})
	require.NoError(t, err)

	buildCalls := server.Calls(http.MethodPost, "/transaction/build_sign")
	require.Len(t, buildCalls, 1)
	assert.JSONEq(t, `{"sender_address": "a1", "receiver_address": "b1", "amount": 5, "fee": 1}`, string(buildCalls[0].Body))

	msg, err := c.Approve(context.Background(), signed)
	require.NoError(t, err)
	assert.Equal(t, "Transaction moved to mempool.", msg)

	approveCalls := server.Calls(http.MethodPost, "/transaction/approve")
	require.Len(t, approveCalls, 1)
	assert.Contains(t, string(approveCalls[0].Body), `"tx":`+tx)

	var body map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(approveCalls[0].Body, &body))
	assert.Equal(t, `"pub-key"`, string(body["pub"]))
	assert.Equal(t, `"sig"`, string(body["sign"]))
}

func TestChainValidateAndBlockUpdates(t *testing.T) {
	c, server := newClient(t)
	server.Reply(http.MethodGet, "/chain", 200, `[{"index": 0, "hash": "h0", "previous_hash": "0"}]`)
	server.Reply(http.MethodGet, "/validate", 200, `true`)
	server.Reply(http.MethodPost, "/block/", 200, `{"message": "updated"}`)
	server.Reply(http.MethodPost, "/block/remine", 200, `"whatever"`)

	blocks, err := c.Chain(context.Background())
	require.NoError(t, err)
	require.Len(t, blocks, 1)

	result, err := c.Validate(context.Background())
	require.NoError(t, err)
	assert.True(t, result.IsValid)

	require.NoError(t, c.UpdateBlock(context.Background(), models.BlockUpdate{Index: 1, PreviousHash: "x"}))
	assert.JSONEq(t, `{"index": 1, "previous_hash": "x"}`, string(server.Calls(http.MethodPost, "/block/")[0].Body))

	require.NoError(t, c.RemineBlock(context.Background(), 3))
	assert.JSONEq(t, `{"index": 3}`, string(server.Calls(http.MethodPost, "/block/remine")[0].Body))
}

func TestMineAndPrize(t *testing.T) {
	c, server := newClient(t)
	server.Reply(http.MethodPost, "/mine", 200, `{"message": "Block mined"}`)
	server.Reply(http.MethodGet, "/prize", 200, `{"data": {"reward": "25"}, "success": true}`)

	result, err := c.Mine(context.Background(), "m1")
	require.NoError(t, err)
	require.NotNil(t, result.Message)
	assert.Equal(t, "Block mined", *result.Message)
	assert.JSONEq(t, `{"miner": "m1"}`, string(server.Calls(http.MethodPost, "/mine")[0].Body))

	prize, err := c.Prize(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 25.0, prize)
}

func TestMempool(t *testing.T) {
	c, server := newClient(t)
	server.Reply(http.MethodGet, "/mempool", 200, `[{"sender": "a", "receiver": "b", "amount": 1}]`)

	txs, err := c.Mempool(context.Background())
	require.NoError(t, err)
	require.Len(t, txs, 1)
}

func TestErrors(t *testing.T) {
	observer := &recordingObserver{}
	c, server := newClient(t, client.WithObserver(observer))

	t.Run("EnvelopeFailure", func(t *testing.T) {
		server.Reply(http.MethodGet, "/chain", 200, `{"success": false, "error": {"message": "chain locked"}}`)
		_, err := c.Chain(context.Background())
		require.Error(t, err)
		assert.ErrorIs(t, err, response.ErrRequestFailed)
		assert.Equal(t, "chain locked", err.Error())
	})

	t.Run("HTTPStatusWithEnvelope", func(t *testing.T) {
		server.Reply(http.MethodGet, "/prize", 500, `{"success": false, "error": ["db down", "retry later"]}`)
		_, err := c.Prize(context.Background())
		var reqErr *response.RequestError
		require.ErrorAs(t, err, &reqErr)
		assert.Equal(t, 500, reqErr.Status)
		assert.Equal(t, "db down, retry later", reqErr.Message)
	})

	t.Run("HTTPStatusWithoutBody", func(t *testing.T) {
		server.Reply(http.MethodGet, "/validate", 502, ``)
		_, err := c.Validate(context.Background())
		assert.ErrorIs(t, err, response.ErrRequestFailed)
		assert.Equal(t, "request failed with status code 502", err.Error())
	})

	t.Run("TransportFailure", func(t *testing.T) {
		down := client.NewChainClient(config.ClientConfig{BaseURL: "http://127.0.0.1:1"})
		_, err := down.Wallets(context.Background())
		assert.ErrorIs(t, err, response.ErrRequestFailed)
	})

	t.Run("ContextCanceled", func(t *testing.T) {
		server.Reply(http.MethodGet, "/mempool", 200, `[]`)
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		_, err := c.Mempool(ctx)
		require.Error(t, err)
		assert.True(t, client.IsCanceled(err))
		assert.True(t, errors.Is(err, response.ErrRequestFailed))
	})

	observer.mu.Lock()
	defer observer.mu.Unlock()
	assert.Equal(t, []string{"rejected"}, observer.outcomes["/chain"])
	assert.Equal(t, []string{"500"}, observer.outcomes["/prize"])
	assert.Equal(t, []string{"502"}, observer.outcomes["/validate"])
}
