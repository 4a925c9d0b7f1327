package output

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/fatih/color"
	"github.com/olekukonko/tablewriter"

	"github.com/manifest-network/chainctl/internal/chain"
	"github.com/manifest-network/chainctl/internal/models"
	"github.com/manifest-network/chainctl/internal/utils"
)

var (
	invalidColor = color.New(color.FgRed, color.Bold)
	editedColor  = color.New(color.FgYellow)
	validColor   = color.New(color.FgGreen)
)

// TableOutputHandler renders human readable tables.
type TableOutputHandler struct {
	w io.Writer
}

func NewTableOutputHandler(w io.Writer) *TableOutputHandler {
	return &TableOutputHandler{w: w}
}

func (h *TableOutputHandler) table(header ...string) *tablewriter.Table {
	t := tablewriter.NewWriter(h.w)
	t.SetHeader(header)
	t.SetAutoWrapText(false)
	t.SetAutoFormatHeaders(true)
	t.SetHeaderAlignment(tablewriter.ALIGN_LEFT)
	t.SetAlignment(tablewriter.ALIGN_LEFT)
	t.SetBorder(false)
	t.SetCenterSeparator("")
	t.SetColumnSeparator("")
	t.SetRowSeparator("")
	t.SetHeaderLine(false)
	t.SetTablePadding("  ")
	t.SetNoWhiteSpace(true)
	return t
}

func (h *TableOutputHandler) WriteWallets(wallets []models.WalletBalance) error {
	t := h.table("name", "address", "public key", "balance", "pending", "delta")
	for _, w := range wallets {
		name := "-"
		if w.Name != nil && *w.Name != "" {
			name = *w.Name
		}
		t.Append([]string{
			name,
			w.Address,
			utils.Shorten(w.PublicKey, utils.DefaultVisible),
			utils.FormatOptionalAmount(w.Balance, utils.DefaultFractionDigits),
			utils.FormatOptionalAmount(w.Pending, utils.DefaultFractionDigits),
			pendingDelta(w),
		})
	}
	t.Render()
	return nil
}

// pendingDelta is the change the mempool will apply to the confirmed balance.
func pendingDelta(w models.WalletBalance) string {
	if w.Pending == nil {
		return "-"
	}
	confirmed := 0.0
	if w.Balance != nil {
		confirmed = *w.Balance
	}
	delta := *w.Pending - confirmed
	switch {
	case delta > 0:
		return "+" + utils.FormatAmount(delta, utils.DefaultFractionDigits)
	case delta < 0:
		return "-" + utils.FormatAmount(-delta, utils.DefaultFractionDigits)
	}
	return "0"
}

func (h *TableOutputHandler) WriteChain(view ChainView) error {
	t := h.table("index", "hash", "previous hash", "difficulty", "mining time", "txs", "status")
	for _, b := range view.Blocks {
		t.Append([]string{
			strconv.Itoa(b.Index),
			utils.Shorten(b.Hash, utils.DefaultVisible),
			utils.Shorten(b.PreviousHash, utils.DefaultVisible),
			utils.FormatOptionalAmount(b.Difficulty, 0),
			utils.FormatOptionalAmount(b.MiningTime, 3),
			strconv.Itoa(len(b.AllTransactions())),
			blockStatus(view, b.Index),
		})
	}
	t.Render()
	return nil
}

func blockStatus(view ChainView, index int) string {
	var parts []string
	if contains(view.Invalid, index) {
		parts = append(parts, invalidColor.Sprint("invalid"))
	}
	if contains(view.Dirty, index) {
		parts = append(parts, editedColor.Sprint("edited"))
	}
	if len(parts) == 0 {
		return "-"
	}
	return strings.Join(parts, ",")
}

func (h *TableOutputHandler) WriteTransactions(txs []models.Transaction) error {
	if len(txs) == 0 {
		return h.WriteMessage("No pending transactions.")
	}
	t := h.table("from", "to", "amount", "fee", "note", "status")
	for _, tx := range txs {
		note, status := "-", "-"
		if tx.Note != nil && *tx.Note != "" {
			note = *tx.Note
		}
		if tx.Status != nil && *tx.Status != "" {
			status = *tx.Status
		}
		t.Append([]string{
			utils.Shorten(tx.From(), utils.DefaultVisible),
			utils.Shorten(tx.To(), utils.DefaultVisible),
			utils.FormatAmount(tx.Amount, utils.DefaultFractionDigits),
			utils.FormatOptionalAmount(tx.Fee, utils.DefaultFractionDigits),
			note,
			status,
		})
	}
	t.Render()
	return nil
}

func (h *TableOutputHandler) WriteVerdict(verdict chain.Verdict) error {
	if verdict.Valid {
		return h.WriteMessage(validColor.Sprint("Chain is valid."))
	}
	blocks := make([]string, 0, len(verdict.Invalid))
	for _, index := range verdict.Invalid {
		blocks = append(blocks, "#"+strconv.Itoa(index))
	}
	return h.WriteMessage(invalidColor.Sprintf("Chain is invalid: %s.", strings.Join(blocks, ", ")))
}

func (h *TableOutputHandler) WriteMessage(message string) error {
	_, err := fmt.Fprintln(h.w, message)
	return err
}

func (h *TableOutputHandler) Close() error {
	return nil
}
