package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"

	"github.com/pkg/errors"

	"github.com/manifest-network/chainctl/internal/models"
	"github.com/manifest-network/chainctl/internal/response"
)

// Wallets lists every wallet.
func (c *ChainClient) Wallets(ctx context.Context) ([]models.Wallet, error) {
	data, err := c.get(ctx, "/wallet")
	if err != nil {
		return nil, err
	}
	return response.Wallets(data)
}

// CreateWallet creates a wallet, optionally named.
func (c *ChainClient) CreateWallet(ctx context.Context, name string) (models.Wallet, error) {
	var body any
	if name != "" {
		body = map[string]string{"name": name}
	}
	data, err := c.post(ctx, "/wallet/create", body)
	if err != nil {
		return models.Wallet{}, err
	}
	return response.Wallet(data)
}

// WalletBalance returns the confirmed balance of address.
func (c *ChainClient) WalletBalance(ctx context.Context, address string) (float64, error) {
	data, err := c.post(ctx, "/wallet/balance", map[string]string{"address": address})
	if err != nil {
		return 0, err
	}
	balance, err := response.Balance(data)
	if err != nil {
		return 0, errors.WithMessage(err, fmt.Sprintf("balance of %s", address))
	}
	return balance, nil
}

// PendingBalances fetches the mempool-inclusive balances of addresses in one
// request. Empty and duplicate addresses are dropped; with nothing left no
// request is made.
func (c *ChainClient) PendingBalances(ctx context.Context, addresses []string) (models.PendingBalances, error) {
	unique := make([]string, 0, len(addresses))
	seen := make(map[string]struct{}, len(addresses))
	for _, address := range addresses {
		if address == "" {
			continue
		}
		if _, dup := seen[address]; dup {
			continue
		}
		seen[address] = struct{}{}
		unique = append(unique, address)
	}
	if len(unique) == 0 {
		return models.PendingBalances{}, nil
	}

	data, err := c.post(ctx, "/pending_balance", map[string][]string{"addresses": unique})
	if err != nil {
		return nil, err
	}
	return response.PendingBalances(data), nil
}

// BuildSign asks the service to build and sign a transfer.
func (c *ChainClient) BuildSign(ctx context.Context, req models.BuildSignRequest) (models.BuildSignResult, error) {
	data, err := c.post(ctx, "/transaction/build_sign", req)
	if err != nil {
		return models.BuildSignResult{}, err
	}
	return response.BuildSign(data)
}

// Approve submits a signed bundle to the mempool and returns the server's
// message, if any. The tx bytes are sent exactly as received from BuildSign.
func (c *ChainClient) Approve(ctx context.Context, signed models.BuildSignResult) (string, error) {
	body, err := approvalBody(signed)
	if err != nil {
		return "", err
	}
	data, err := c.post(ctx, "/transaction/approve", body)
	if err != nil {
		return "", err
	}
	return response.Message(data), nil
}

func approvalBody(signed models.BuildSignResult) ([]byte, error) {
	pub, err := json.Marshal(signed.Pub)
	if err != nil {
		return nil, err
	}
	sign, err := json.Marshal(signed.Sign)
	if err != nil {
		return nil, err
	}
	tx := signed.Tx
	if len(tx) == 0 {
		tx = json.RawMessage("null")
	}

	var buf bytes.Buffer
	buf.WriteString(`{"tx":`)
	buf.Write(tx)
	buf.WriteString(`,"pub":`)
	buf.Write(pub)
	buf.WriteString(`,"sign":`)
	buf.Write(sign)
	buf.WriteString(`}`)
	return buf.Bytes(), nil
}

// Mine mines the mempool into a new block rewarding miner.
func (c *ChainClient) Mine(ctx context.Context, miner string) (models.MineResult, error) {
	data, err := c.post(ctx, "/mine", map[string]string{"miner": miner})
	if err != nil {
		return models.MineResult{}, err
	}
	return response.Mine(data), nil
}

// Prize returns the current block reward.
func (c *ChainClient) Prize(ctx context.Context) (float64, error) {
	data, err := c.get(ctx, "/prize")
	if err != nil {
		return 0, err
	}
	return response.Prize(data)
}

// Chain returns every block in index order as served.
func (c *ChainClient) Chain(ctx context.Context) ([]models.Block, error) {
	data, err := c.get(ctx, "/chain")
	if err != nil {
		return nil, err
	}
	return response.Blocks(data)
}

// Validate asks the service to verify the chain.
func (c *ChainClient) Validate(ctx context.Context) (models.ValidationResult, error) {
	data, err := c.get(ctx, "/validate")
	if err != nil {
		return models.ValidationResult{}, err
	}
	return response.Validation(data)
}

// UpdateBlock proposes a new previous hash for a block.
func (c *ChainClient) UpdateBlock(ctx context.Context, update models.BlockUpdate) error {
	_, err := c.post(ctx, "/block/", update)
	return err
}

// RemineBlock re-mines the block at index. The response body is ignored.
func (c *ChainClient) RemineBlock(ctx context.Context, index int) error {
	_, err := c.post(ctx, "/block/remine", map[string]int{"index": index})
	return err
}

// Mempool lists transactions waiting to be mined.
func (c *ChainClient) Mempool(ctx context.Context) ([]models.Transaction, error) {
	data, err := c.get(ctx, "/mempool")
	if err != nil {
		return nil, err
	}
	return response.Transactions(data)
}
