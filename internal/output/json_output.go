package output

import (
	"encoding/json"
	"io"

	"github.com/manifest-network/chainctl/internal/chain"
	"github.com/manifest-network/chainctl/internal/models"
)

// JSONOutputHandler writes one indented JSON document per call.
type JSONOutputHandler struct {
	enc *json.Encoder
}

func NewJSONOutputHandler(w io.Writer) *JSONOutputHandler {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return &JSONOutputHandler{enc: enc}
}

func (h *JSONOutputHandler) WriteWallets(wallets []models.WalletBalance) error {
	if wallets == nil {
		wallets = []models.WalletBalance{}
	}
	return h.enc.Encode(wallets)
}

type jsonChain struct {
	Blocks  []models.Block `json:"blocks"`
	Invalid []int          `json:"invalid"`
	Dirty   []int          `json:"dirty"`
}

func (h *JSONOutputHandler) WriteChain(view ChainView) error {
	return h.enc.Encode(jsonChain{
		Blocks:  orEmpty(view.Blocks),
		Invalid: orEmpty(view.Invalid),
		Dirty:   orEmpty(view.Dirty),
	})
}

func (h *JSONOutputHandler) WriteTransactions(txs []models.Transaction) error {
	return h.enc.Encode(orEmpty(txs))
}

type jsonVerdict struct {
	Valid   bool                     `json:"valid"`
	Invalid []int                    `json:"invalid"`
	Entries []models.ValidationEntry `json:"entries"`
}

func (h *JSONOutputHandler) WriteVerdict(verdict chain.Verdict) error {
	return h.enc.Encode(jsonVerdict{
		Valid:   verdict.Valid,
		Invalid: orEmpty(verdict.Invalid),
		Entries: orEmpty(verdict.Result.Entries),
	})
}

func (h *JSONOutputHandler) WriteMessage(message string) error {
	return h.enc.Encode(map[string]string{"message": message})
}

func (h *JSONOutputHandler) Close() error {
	return nil
}

func orEmpty[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
