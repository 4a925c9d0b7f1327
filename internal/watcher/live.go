// Package watcher polls the chain service and reports when the chain or its
// validity changes.
package watcher

import (
	"context"
	"log/slog"
	"slices"
	"time"

	"github.com/pkg/errors"

	"github.com/manifest-network/chainctl/internal/chain"
	"github.com/manifest-network/chainctl/internal/models"
)

// Chain is the part of the reconciler the watcher drives.
type Chain interface {
	Load(ctx context.Context) error
	Validate(ctx context.Context) (chain.Verdict, error)
	Loaded() []models.Block
}

// Observation is the state of the chain at one poll.
type Observation struct {
	Blocks    int
	NewBlocks int
	TipHash   string
	Verdict   chain.Verdict
}

func (o Observation) differs(prev *Observation) bool {
	if prev == nil {
		return true
	}
	return o.Blocks != prev.Blocks ||
		o.TipHash != prev.TipHash ||
		o.Verdict.Valid != prev.Verdict.Valid ||
		!slices.Equal(o.Verdict.Invalid, prev.Verdict.Invalid)
}

// Watch polls c every interval until ctx is done and calls onChange with the
// first observation and every one that differs from its predecessor. Poll
// failures are logged and retried at the next tick; an onChange error stops
// the watch.
func Watch(ctx context.Context, c Chain, interval time.Duration, onChange func(Observation) error) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	var last *Observation
	for {
		obs, err := poll(ctx, c, last)
		switch {
		case err != nil && ctx.Err() != nil:
			return nil
		case err != nil:
			slog.Error("Failed to poll chain", "error", err)
		case obs.differs(last):
			if err := onChange(obs); err != nil {
				return errors.WithMessage(err, "failed to report chain change")
			}
			last = &obs
		}

		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}
	}
}

func poll(ctx context.Context, c Chain, last *Observation) (Observation, error) {
	if err := c.Load(ctx); err != nil {
		return Observation{}, err
	}
	verdict, err := c.Validate(ctx)
	if err != nil {
		return Observation{}, err
	}

	blocks := c.Loaded()
	obs := Observation{Blocks: len(blocks), Verdict: verdict}
	if len(blocks) > 0 {
		obs.TipHash = blocks[len(blocks)-1].Hash
	}
	if last != nil && obs.Blocks > last.Blocks {
		obs.NewBlocks = obs.Blocks - last.Blocks
	}
	slog.Debug("Polled chain", "blocks", obs.Blocks, "valid", verdict.Valid)
	return obs, nil
}
