// Package mining triggers block mining and tracks the current block reward.
package mining

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/pkg/errors"

	"github.com/manifest-network/chainctl/internal/models"
	"github.com/manifest-network/chainctl/internal/utils"
)

// DefaultMineMessage is reported when the service returns no message.
const DefaultMineMessage = "Pending transactions were mined into a new block."

var ErrMinerRequired = errors.New("miner address is required")

type API interface {
	PrizeSource
	Mine(ctx context.Context, miner string) (models.MineResult, error)
}

// Outcome describes a mined block. Prize is nil when the reward could not be
// fetched; Block is nil when the service did not return a readable block.
type Outcome struct {
	Message string
	Prize   *float64
	Block   *models.Block
}

// Summary renders the outcome for the wallet labelled minerLabel.
func (o Outcome) Summary(minerLabel string) string {
	if o.Prize == nil {
		return o.Message
	}
	return fmt.Sprintf("%s Mining reward: %s coins credited to %s (plus collected fees).",
		o.Message, utils.FormatAmount(*o.Prize, utils.DefaultFractionDigits), minerLabel)
}

type Miner struct {
	api    API
	prizes *PrizeLookup
}

// NewMiner returns a Miner sharing prizes; a nil lookup gets a private one.
func NewMiner(api API, prizes *PrizeLookup) *Miner {
	if prizes == nil {
		prizes = NewPrizeLookup(api)
	}
	return &Miner{api: api, prizes: prizes}
}

func (m *Miner) Prizes() *PrizeLookup { return m.prizes }

// Mine mines pending transactions into a new block rewarding miner. The reward
// is resolved first; failing to resolve it does not prevent mining. The
// cached reward is dropped afterwards since the next block may pay differently.
func (m *Miner) Mine(ctx context.Context, miner string) (Outcome, error) {
	if strings.TrimSpace(miner) == "" {
		return Outcome{}, ErrMinerRequired
	}

	var outcome Outcome
	if prize, err := m.prizes.Get(ctx); err != nil {
		slog.Warn("Could not fetch the current block reward", "error", err)
	} else {
		outcome.Prize = &prize
	}

	result, err := m.api.Mine(ctx, miner)
	if err != nil {
		return Outcome{}, errors.WithMessage(err, "mining failed")
	}
	m.prizes.Invalidate()

	outcome.Message = DefaultMineMessage
	if result.Message != nil && *result.Message != "" {
		outcome.Message = *result.Message
	}
	outcome.Block = result.Block

	slog.Info("Block mined", "miner", miner)
	return outcome, nil
}
