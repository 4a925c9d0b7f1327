package response

import (
	"encoding/json"
	"log/slog"

	"github.com/manifest-network/chainctl/internal/models"
	"github.com/manifest-network/chainctl/internal/utils"
)

type apiTransaction struct {
	Sender          *string `json:"sender"`
	Receiver        *string `json:"receiver"`
	SenderAddress   *string `json:"sender_address"`
	ReceiverAddress *string `json:"receiver_address"`
	Amount          any     `json:"amount"`
	Fee             any     `json:"fee"`
	Note            *string `json:"note"`
	Hash            *string `json:"hash"`
	Status          any     `json:"status"`
}

type apiBlockData struct {
	Type         string           `json:"type"`
	Transactions []apiTransaction `json:"transactions"`
	Coinbase     *struct {
		Amount          any     `json:"amount"`
		ReceiverAddress *string `json:"receiver_address"`
		SenderAddress   *string `json:"sender_address"`
	} `json:"coinbase"`
	Alloc []struct {
		ReceiverAddress *string `json:"receiver_address"`
		Value           any     `json:"value"`
	} `json:"alloc"`
}

type apiBlock struct {
	Index        any              `json:"index"`
	Hash         any              `json:"hash"`
	PreviousHash any              `json:"previous_hash"`
	Difficulty   any              `json:"difficulty"`
	MiningTime   any              `json:"mining_time"`
	Timestamp    any              `json:"timestamp"`
	Transactions []apiTransaction `json:"transactions"`
	Data         *apiBlockData    `json:"data"`
}

// Block maps one block record. Only the index is required.
func Block(data json.RawMessage) (models.Block, error) {
	var raw apiBlock
	if err := unmarshalNumbers(data, &raw); err != nil {
		return models.Block{}, malformed("block: %v", err)
	}
	return raw.toModel()
}

// Blocks maps the chain. A null payload is an empty chain.
func Blocks(data json.RawMessage) ([]models.Block, error) {
	var raw []apiBlock
	if err := unmarshalNumbers(orNull(data), &raw); err != nil {
		return nil, malformed("chain: %v", err)
	}

	blocks := make([]models.Block, 0, len(raw))
	for _, b := range raw {
		block, err := b.toModel()
		if err != nil {
			return nil, err
		}
		blocks = append(blocks, block)
	}
	return blocks, nil
}

// Transactions maps a list of transactions, e.g. the mempool.
func Transactions(data json.RawMessage) ([]models.Transaction, error) {
	var raw []apiTransaction
	if err := unmarshalNumbers(orNull(data), &raw); err != nil {
		return nil, malformed("transactions: %v", err)
	}
	return mapTransactions(raw), nil
}

// Mine maps the mine response. A block that cannot be mapped is dropped: the
// block was mined either way and the caller reloads the chain anyhow.
func Mine(data json.RawMessage) models.MineResult {
	var raw struct {
		Message any             `json:"message"`
		Block   json.RawMessage `json:"block"`
	}
	var result models.MineResult
	if err := json.Unmarshal(orNull(data), &raw); err != nil {
		if msg := Message(data); msg != "" {
			result.Message = &msg
		}
		return result
	}

	if msg, ok := raw.Message.(string); ok {
		result.Message = &msg
	}
	if len(raw.Block) > 0 && string(raw.Block) != "null" {
		block, err := Block(raw.Block)
		if err != nil {
			slog.Debug("Ignoring unreadable mined block", "error", err)
		} else {
			result.Block = &block
		}
	}
	return result
}

func (b apiBlock) toModel() (models.Block, error) {
	index, ok := utils.Integer(b.Index)
	if !ok {
		return models.Block{}, malformed("block index %v is not an integer", b.Index)
	}

	block := models.Block{
		Index:        index,
		Hash:         stringify(b.Hash),
		PreviousHash: stringify(b.PreviousHash),
		Difficulty:   optionalNumber(b.Difficulty),
		MiningTime:   optionalNumber(b.MiningTime),
		Transactions: mapTransactions(b.Transactions),
	}
	if b.Timestamp != nil {
		ts := stringify(b.Timestamp)
		block.Timestamp = &ts
	}

	if b.Data != nil {
		data := &models.BlockData{
			Type:         b.Data.Type,
			Transactions: mapTransactions(b.Data.Transactions),
		}
		if cb := b.Data.Coinbase; cb != nil {
			data.Coinbase = &models.Coinbase{
				Amount:          optionalNumber(cb.Amount),
				ReceiverAddress: deref(cb.ReceiverAddress),
				SenderAddress:   cb.SenderAddress,
			}
		}
		for _, alloc := range b.Data.Alloc {
			data.Alloc = append(data.Alloc, models.Allocation{
				ReceiverAddress: deref(alloc.ReceiverAddress),
				Value:           optionalNumber(alloc.Value),
			})
		}
		block.Data = data
	}

	return block, nil
}

func mapTransactions(raw []apiTransaction) []models.Transaction {
	if len(raw) == 0 {
		return nil
	}

	txs := make([]models.Transaction, 0, len(raw))
	for _, t := range raw {
		tx := models.Transaction{
			Sender:          deref(t.Sender),
			Receiver:        deref(t.Receiver),
			SenderAddress:   deref(t.SenderAddress),
			ReceiverAddress: deref(t.ReceiverAddress),
			Fee:             optionalNumber(t.Fee),
			Note:            t.Note,
			Hash:            t.Hash,
		}
		if amount, ok := utils.Number(t.Amount); ok {
			tx.Amount = amount
		}
		if t.Status != nil {
			status := stringify(t.Status)
			tx.Status = &status
		}
		txs = append(txs, tx)
	}
	return txs
}

func optionalNumber(v any) *float64 {
	if f, ok := utils.Number(v); ok {
		return &f
	}
	return nil
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
