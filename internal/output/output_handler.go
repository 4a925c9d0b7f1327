package output

import (
	"fmt"
	"io"

	"github.com/manifest-network/chainctl/internal/chain"
	"github.com/manifest-network/chainctl/internal/config"
	"github.com/manifest-network/chainctl/internal/models"
)

// ChainView is a chain together with the markers the reconciler keeps for it.
type ChainView struct {
	Blocks  []models.Block
	Invalid []int
	Dirty   []int
}

type OutputHandler interface {
	WriteWallets(wallets []models.WalletBalance) error
	WriteChain(view ChainView) error
	WriteTransactions(txs []models.Transaction) error
	WriteVerdict(verdict chain.Verdict) error
	WriteMessage(message string) error
	Close() error
}

func NewOutputHandler(cfg config.OutputConfig, w io.Writer) (OutputHandler, error) {
	switch cfg.Format {
	case "table":
		return NewTableOutputHandler(w), nil
	case "json":
		return NewJSONOutputHandler(w), nil
	}
	return nil, fmt.Errorf("unsupported output format: %s", cfg.Format)
}

func contains(set []int, v int) bool {
	for _, x := range set {
		if x == v {
			return true
		}
	}
	return false
}
