package models

import "encoding/json"

// Wallet is a wallet known to the chain service. Optional fields are pointers
// so an absent balance is never confused with a zero one.
type Wallet struct {
	Address    string   `json:"address"`
	Name       *string  `json:"name,omitempty"`
	PublicKey  string   `json:"public_key"`
	PrivateKey *string  `json:"private_key,omitempty"`
	Balance    *float64 `json:"balance,omitempty"`
}

// WalletBalance is a wallet together with its pending (mempool-inclusive) balance.
type WalletBalance struct {
	Wallet
	Pending *float64 `json:"pending_balance,omitempty"`
}

// PendingBalances maps an address to its spendable balance including the mempool.
// It may be partial.
type PendingBalances map[string]float64

// Transaction is a transfer as embedded in a block or listed in the mempool.
// The service uses both sender/receiver and sender_address/receiver_address.
type Transaction struct {
	Sender          string   `json:"sender,omitempty"`
	Receiver        string   `json:"receiver,omitempty"`
	SenderAddress   string   `json:"sender_address,omitempty"`
	ReceiverAddress string   `json:"receiver_address,omitempty"`
	Amount          float64  `json:"amount"`
	Fee             *float64 `json:"fee,omitempty"`
	Note            *string  `json:"note,omitempty"`
	Hash            *string  `json:"hash,omitempty"`
	Status          *string  `json:"status,omitempty"`
}

// From returns the sending address under either naming.
func (t Transaction) From() string {
	if t.Sender != "" {
		return t.Sender
	}
	return t.SenderAddress
}

// To returns the receiving address under either naming.
func (t Transaction) To() string {
	if t.Receiver != "" {
		return t.Receiver
	}
	return t.ReceiverAddress
}

// Coinbase is the mining reward entry of a block.
type Coinbase struct {
	Amount          *float64 `json:"amount,omitempty"`
	ReceiverAddress string   `json:"receiver_address,omitempty"`
	SenderAddress   *string  `json:"sender_address,omitempty"`
}

// Allocation is a genesis allocation.
type Allocation struct {
	ReceiverAddress string   `json:"receiver_address,omitempty"`
	Value           *float64 `json:"value,omitempty"`
}

// BlockData is the nested payload some blocks carry instead of top-level transactions.
type BlockData struct {
	Type         string        `json:"type,omitempty"`
	Transactions []Transaction `json:"transactions,omitempty"`
	Coinbase     *Coinbase     `json:"coinbase,omitempty"`
	Alloc        []Allocation  `json:"alloc,omitempty"`
}

// Block is one entry of the chain. Index order is canonical chain order.
// Hash linkage is never verified locally.
type Block struct {
	Index        int           `json:"index"`
	Hash         string        `json:"hash"`
	PreviousHash string        `json:"previous_hash"`
	Difficulty   *float64      `json:"difficulty,omitempty"`
	MiningTime   *float64      `json:"mining_time,omitempty"`
	Timestamp    *string       `json:"timestamp,omitempty"`
	Transactions []Transaction `json:"transactions,omitempty"`
	Data         *BlockData    `json:"data,omitempty"`
}

// AllTransactions returns the block's transactions, falling back to the nested data payload.
func (b Block) AllTransactions() []Transaction {
	if len(b.Transactions) > 0 || b.Data == nil {
		return b.Transactions
	}
	return b.Data.Transactions
}

// CloneBlocks returns a copy of the blocks slice. Blocks are treated as values; the
// nested slices are shared and must not be mutated.
func CloneBlocks(blocks []Block) []Block {
	if blocks == nil {
		return nil
	}
	out := make([]Block, len(blocks))
	copy(out, blocks)
	return out
}

// BlockUpdate is a proposed amendment of a block's previous hash.
type BlockUpdate struct {
	Index        int    `json:"index"`
	PreviousHash string `json:"previous_hash"`
}

// BuildSignRequest asks the service to build and sign a transfer.
type BuildSignRequest struct {
	SenderAddress   string   `json:"sender_address"`
	ReceiverAddress string   `json:"receiver_address"`
	Amount          float64  `json:"amount"`
	Fee             *float64 `json:"fee,omitempty"`
	Note            *string  `json:"note,omitempty"`
	PrivateKey      *string  `json:"private_key,omitempty"`
}

// BuildSignResult is the signed bundle returned by the service. It is opaque and
// must reach the approval endpoint unmodified, so Tx keeps the raw bytes.
type BuildSignResult struct {
	Tx   json.RawMessage `json:"tx"`
	Pub  string          `json:"pub"`
	Sign string          `json:"sign"`
}

// ValidationEntry is the verdict for one block.
type ValidationEntry struct {
	Index int  `json:"index"`
	Valid bool `json:"valid"`
}

// ValidationResult is the normalized chain validation verdict.
type ValidationResult struct {
	IsValid bool              `json:"is_valid"`
	Entries []ValidationEntry `json:"entries"`
}

// MineResult is the response of the mine endpoint.
type MineResult struct {
	Message *string `json:"message,omitempty"`
	Block   *Block  `json:"block,omitempty"`
}
