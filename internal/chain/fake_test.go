package chain

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/manifest-network/chainctl/internal/models"
)

type manualTimer struct {
	clock   *manualClock
	f       func()
	stopped bool
	fired   bool
}

func (t *manualTimer) Stop() bool {
	t.clock.mu.Lock()
	defer t.clock.mu.Unlock()
	if t.stopped || t.fired {
		return false
	}
	t.stopped = true
	return true
}

// manualClock hands out timers that only fire when Fire is called.
type manualClock struct {
	mu     sync.Mutex
	timers []*manualTimer
}

func (c *manualClock) AfterFunc(_ time.Duration, f func()) timer {
	c.mu.Lock()
	defer c.mu.Unlock()
	t := &manualTimer{clock: c, f: f}
	c.timers = append(c.timers, t)
	return t
}

// Fire runs every armed timer synchronously and returns how many fired.
func (c *manualClock) Fire() int {
	c.mu.Lock()
	var due []*manualTimer
	for _, t := range c.timers {
		if !t.stopped && !t.fired {
			t.fired = true
			due = append(due, t)
		}
	}
	c.mu.Unlock()

	for _, t := range due {
		t.f()
	}
	return len(due)
}

// fakeAPI records every call in order.
type fakeAPI struct {
	mu     sync.Mutex
	calls  []string
	chain  []models.Block
	result models.ValidationResult

	chainErr    error
	validateErr error
	updateErr   error
	remineErr   error

	updateGate chan struct{}
	remineGate chan struct{}
}

func (f *fakeAPI) record(call string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, call)
}

func (f *fakeAPI) Calls() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.calls...)
}

func (f *fakeAPI) Chain(_ context.Context) ([]models.Block, error) {
	f.record("chain")
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.chainErr != nil {
		return nil, f.chainErr
	}
	return models.CloneBlocks(f.chain), nil
}

func (f *fakeAPI) Validate(_ context.Context) (models.ValidationResult, error) {
	f.record("validate")
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.result, f.validateErr
}

func (f *fakeAPI) UpdateBlock(ctx context.Context, update models.BlockUpdate) error {
	f.record(fmt.Sprintf("update:%d:%s", update.Index, update.PreviousHash))
	if f.updateGate != nil {
		select {
		case <-f.updateGate:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.updateErr
}

func (f *fakeAPI) RemineBlock(ctx context.Context, index int) error {
	f.record(fmt.Sprintf("remine:%d", index))
	if f.remineGate != nil {
		select {
		case <-f.remineGate:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.remineErr
}

func testChain(n int) []models.Block {
	blocks := make([]models.Block, n)
	prev := "0"
	for i := range blocks {
		hash := fmt.Sprintf("h%d", i)
		blocks[i] = models.Block{Index: i, Hash: hash, PreviousHash: prev}
		prev = hash
	}
	return blocks
}
