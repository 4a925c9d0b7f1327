package mining

import (
	"context"
	"sync"

	"github.com/pkg/errors"
)

// PrizeSource fetches the current block reward.
type PrizeSource interface {
	Prize(ctx context.Context) (float64, error)
}

// PrizeLookup caches the block reward until it is invalidated. A failed fetch
// leaves nothing cached.
type PrizeLookup struct {
	api PrizeSource

	mu    sync.Mutex
	prize *float64
}

func NewPrizeLookup(api PrizeSource) *PrizeLookup {
	return &PrizeLookup{api: api}
}

// Get returns the cached reward or fetches it. Concurrent callers share one fetch.
func (p *PrizeLookup) Get(ctx context.Context) (float64, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.prize != nil {
		return *p.prize, nil
	}

	prize, err := p.api.Prize(ctx)
	if err != nil {
		p.prize = nil
		return 0, errors.WithMessage(err, "failed to fetch block reward")
	}
	p.prize = &prize
	return prize, nil
}

// Cached returns the reward without fetching.
func (p *PrizeLookup) Cached() (float64, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.prize == nil {
		return 0, false
	}
	return *p.prize, true
}

func (p *PrizeLookup) Invalidate() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.prize = nil
}
