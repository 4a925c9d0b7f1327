// Package wallets keeps the wallet list together with confirmed and pending
// balances refreshed from the chain service.
package wallets

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"maps"
	"slices"
	"sync"

	pkgerrors "github.com/pkg/errors"
	"golang.org/x/sync/errgroup"

	"github.com/manifest-network/chainctl/internal/models"
	"github.com/manifest-network/chainctl/internal/utils"
)

// DefaultConcurrency bounds the balance requests in flight during a refresh.
const DefaultConcurrency = 8

type API interface {
	Wallets(ctx context.Context) ([]models.Wallet, error)
	CreateWallet(ctx context.Context, name string) (models.Wallet, error)
	WalletBalance(ctx context.Context, address string) (float64, error)
	PendingBalances(ctx context.Context, addresses []string) (models.PendingBalances, error)
}

// Report lists what a refresh could not update. Entries it names kept their
// previous values.
type Report struct {
	BalanceErrors map[string]error
	PendingErr    error
}

func (r Report) Failed() bool {
	return len(r.BalanceErrors) > 0 || r.PendingErr != nil
}

// Err joins every failure of the report, sorted by address.
func (r Report) Err() error {
	var errs []error
	for _, address := range slices.Sorted(maps.Keys(r.BalanceErrors)) {
		errs = append(errs, fmt.Errorf("balance of %s: %w", address, r.BalanceErrors[address]))
	}
	if r.PendingErr != nil {
		errs = append(errs, fmt.Errorf("pending balances: %w", r.PendingErr))
	}
	return errors.Join(errs...)
}

type Option func(*Book)

func WithConcurrency(n int) Option {
	return func(b *Book) {
		if n > 0 {
			b.concurrency = n
		}
	}
}

// WithProgress is called after each balance request completes.
func WithProgress(f func(done, total int)) Option {
	return func(b *Book) {
		b.progress = f
	}
}

type Book struct {
	api         API
	concurrency int
	progress    func(done, total int)

	mu      sync.RWMutex
	wallets []models.WalletBalance
}

func NewBook(api API, opts ...Option) *Book {
	b := &Book{api: api, concurrency: DefaultConcurrency}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

type fetched struct {
	balances map[string]float64
	pending  models.PendingBalances
	report   Report
}

// fetch requests every balance concurrently plus one pending batch, and waits
// for all of them. Failures are recorded per address and never abort the rest.
func (b *Book) fetch(ctx context.Context, addresses []string) fetched {
	out := fetched{
		balances: make(map[string]float64, len(addresses)),
		report:   Report{BalanceErrors: make(map[string]error)},
	}
	if len(addresses) == 0 {
		return out
	}

	var mu sync.Mutex
	done := 0

	var g errgroup.Group
	g.SetLimit(b.concurrency)

	g.Go(func() error {
		pending, err := b.api.PendingBalances(ctx, addresses)
		mu.Lock()
		defer mu.Unlock()
		if err != nil {
			slog.Warn("Pending balance fetch failed", "error", err)
			out.report.PendingErr = err
			return nil
		}
		out.pending = pending
		return nil
	})

	for _, address := range addresses {
		g.Go(func() error {
			balance, err := b.api.WalletBalance(ctx, address)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				slog.Warn("Balance fetch failed", "address", address, "error", err)
				out.report.BalanceErrors[address] = err
			} else {
				out.balances[address] = balance
			}
			done++
			if b.progress != nil {
				b.progress(done, len(addresses))
			}
			return nil
		})
	}

	_ = g.Wait()
	return out
}

// apply merges fetched values into w. Anything not fetched keeps the value
// from fallback.
func (f fetched) apply(w models.WalletBalance, fallback *models.WalletBalance) models.WalletBalance {
	if balance, ok := f.balances[w.Address]; ok {
		w.Balance = &balance
	} else if w.Balance == nil && fallback != nil {
		w.Balance = fallback.Balance
	}

	if pending, ok := f.pending[w.Address]; ok {
		w.Pending = &pending
	} else if fallback != nil {
		w.Pending = fallback.Pending
	}
	return w
}

// Refresh reloads the wallet list and all balances and swaps them in at once.
// A failed listing leaves the book untouched.
func (b *Book) Refresh(ctx context.Context) (Report, error) {
	list, err := b.api.Wallets(ctx)
	if err != nil {
		return Report{}, pkgerrors.WithMessage(err, "failed to list wallets")
	}

	addresses := make([]string, 0, len(list))
	for _, w := range list {
		addresses = append(addresses, w.Address)
	}
	result := b.fetch(ctx, addresses)

	b.mu.Lock()
	defer b.mu.Unlock()

	previous := b.index()
	next := make([]models.WalletBalance, 0, len(list))
	for _, w := range list {
		var fallback *models.WalletBalance
		if prev, ok := previous[w.Address]; ok {
			fallback = &prev
		}
		next = append(next, result.apply(models.WalletBalance{Wallet: w}, fallback))
	}
	b.wallets = next

	slog.Debug("Wallets refreshed", "wallets", len(next), "failures", len(result.report.BalanceErrors))
	return result.report, nil
}

// RefreshBalances refreshes the balances of known wallets among addresses.
func (b *Book) RefreshBalances(ctx context.Context, addresses []string) Report {
	b.mu.RLock()
	known := b.index()
	b.mu.RUnlock()

	targets := make([]string, 0, len(addresses))
	for _, address := range addresses {
		if _, ok := known[address]; ok && !slices.Contains(targets, address) {
			targets = append(targets, address)
		}
	}
	result := b.fetch(ctx, targets)

	b.mu.Lock()
	defer b.mu.Unlock()

	next := make([]models.WalletBalance, len(b.wallets))
	for i, w := range b.wallets {
		if slices.Contains(targets, w.Address) {
			current := w
			next[i] = result.apply(w, &current)
		} else {
			next[i] = w
		}
	}
	b.wallets = next
	return result.report
}

// Create asks the service for a new wallet and adds it to the book.
func (b *Book) Create(ctx context.Context, name string) (models.Wallet, error) {
	w, err := b.api.CreateWallet(ctx, name)
	if err != nil {
		return models.Wallet{}, pkgerrors.WithMessage(err, "failed to create wallet")
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	b.wallets = append(slices.Clone(b.wallets), models.WalletBalance{Wallet: w})

	slog.Info("Wallet created", "address", w.Address)
	return w, nil
}

// Wallets returns the wallets in listing order.
func (b *Book) Wallets() []models.WalletBalance {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return slices.Clone(b.wallets)
}

func (b *Book) Lookup(address string) (models.WalletBalance, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	w, ok := b.index()[address]
	return w, ok
}

// Label names a wallet by its name, falling back to the shortened address.
func (b *Book) Label(address string) string {
	if w, ok := b.Lookup(address); ok && w.Name != nil && *w.Name != "" {
		return *w.Name
	}
	return utils.Shorten(address, utils.DefaultVisible)
}

// Addresses returns the known addresses, sorted.
func (b *Book) Addresses() []string {
	b.mu.RLock()
	defer b.mu.RUnlock()
	out := make([]string, 0, len(b.wallets))
	for _, w := range b.wallets {
		out = append(out, w.Address)
	}
	slices.Sort(out)
	return out
}

func (b *Book) index() map[string]models.WalletBalance {
	out := make(map[string]models.WalletBalance, len(b.wallets))
	for _, w := range b.wallets {
		out[w.Address] = w
	}
	return out
}
