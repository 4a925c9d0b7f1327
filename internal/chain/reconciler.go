package chain

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"sync"
	"time"

	pkgerrors "github.com/pkg/errors"
	"golang.org/x/sync/errgroup"

	"github.com/manifest-network/chainctl/internal/models"
)

// DefaultDebounce is the quiet period before an edited block is pushed.
const DefaultDebounce = 500 * time.Millisecond

// maxRestoreConcurrency bounds the corrective writes issued by Restore.
const maxRestoreConcurrency = 16

var (
	ErrUnknownBlock     = errors.New("unknown block")
	ErrRemineInProgress = errors.New("remine already in progress")
	ErrClosed           = errors.New("reconciler closed")
)

// API is the part of the chain service the reconciler drives.
type API interface {
	Chain(ctx context.Context) ([]models.Block, error)
	Validate(ctx context.Context) (models.ValidationResult, error)
	UpdateBlock(ctx context.Context, update models.BlockUpdate) error
	RemineBlock(ctx context.Context, index int) error
}

// Verdict is the outcome of a validation as the reconciler sees it.
// Valid holds when the service says so or when no known block is invalid.
type Verdict struct {
	Valid   bool
	Invalid []int
	Result  models.ValidationResult
}

// Stats is a point-in-time summary of the reconciler state.
type Stats struct {
	Blocks         int
	Dirty          int
	Invalid        int
	PendingUpdates int
	Remining       int
	Validated      bool
	Valid          bool
}

type pendingUpdate struct {
	timer  timer
	update models.BlockUpdate
}

// Reconciler keeps two views of the chain: loaded, the last snapshot read
// from the service, and edited, the working copy with local edits. Edits are
// pushed to the service after a per-block quiet period.
type Reconciler struct {
	api         API
	debounce    time.Duration
	afterFunc   afterFunc
	onPushError func(index int, err error)

	ctx    context.Context
	cancel context.CancelFunc

	mu       sync.Mutex
	loaded   []models.Block
	edited   []models.Block
	invalid  map[int]struct{}
	timers   map[int]*pendingUpdate
	remining map[int]struct{}
	verdict  *Verdict
	closed   bool
	busy     counter
	pushes   counter
}

type Option func(*Reconciler)

// WithDebounce sets the per-block quiet period.
func WithDebounce(d time.Duration) Option {
	return func(r *Reconciler) {
		if d > 0 {
			r.debounce = d
		}
	}
}

// WithPushErrorHandler is called when a debounced push fails.
func WithPushErrorHandler(f func(index int, err error)) Option {
	return func(r *Reconciler) {
		r.onPushError = f
	}
}

func withAfterFunc(f afterFunc) Option {
	return func(r *Reconciler) {
		r.afterFunc = f
	}
}

func NewReconciler(api API, opts ...Option) *Reconciler {
	ctx, cancel := context.WithCancel(context.Background())
	r := &Reconciler{
		api:       api,
		debounce:  DefaultDebounce,
		afterFunc: realAfterFunc,
		ctx:       ctx,
		cancel:    cancel,
		invalid:   make(map[int]struct{}),
		timers:    make(map[int]*pendingUpdate),
		remining:  make(map[int]struct{}),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Load replaces both views with the service's chain and clears invalid
// markers. Pending pushes are cancelled and in-flight ones awaited first so
// none of them lands after the snapshot is taken.
func (r *Reconciler) Load(ctx context.Context) error {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return ErrClosed
	}
	r.cancelPendingLocked()
	r.mu.Unlock()

	if err := r.waitPushes(ctx); err != nil {
		return err
	}

	blocks, err := r.api.Chain(ctx)
	if err != nil {
		return pkgerrors.WithMessage(err, "failed to load chain")
	}
	blocks = sortedByIndex(blocks)

	r.mu.Lock()
	defer r.mu.Unlock()
	r.loaded = blocks
	r.edited = models.CloneBlocks(blocks)
	r.invalid = make(map[int]struct{})
	r.verdict = nil

	slog.Debug("Chain loaded", "blocks", len(blocks))
	return nil
}

// Rebase makes snapshot the authoritative view while keeping the working
// view, so a later Restore pushes the service back to snapshot.
func (r *Reconciler) Rebase(snapshot []models.Block) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.loaded = sortedByIndex(models.CloneBlocks(snapshot))
}

// SetPreviousHash edits the previous hash of the block at index in the
// working view and schedules a debounced push of the new value.
func (r *Reconciler) SetPreviousHash(index int, previousHash string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return ErrClosed
	}

	pos := position(r.edited, index)
	if pos < 0 {
		return fmt.Errorf("%w: #%d", ErrUnknownBlock, index)
	}

	next := models.CloneBlocks(r.edited)
	next[pos].PreviousHash = previousHash
	r.edited = next

	r.scheduleLocked(models.BlockUpdate{Index: index, PreviousHash: previousHash})
	return nil
}

func (r *Reconciler) scheduleLocked(update models.BlockUpdate) {
	if prev, ok := r.timers[update.Index]; ok {
		prev.timer.Stop()
		delete(r.timers, update.Index)
		r.busy.done()
	}

	p := &pendingUpdate{update: update}
	r.timers[update.Index] = p
	r.busy.add()
	p.timer = r.afterFunc(r.debounce, func() { r.push(p) })
}

// push runs when a debounce timer fires. A timer that was cancelled or
// replaced after it started firing is no longer registered and does nothing.
func (r *Reconciler) push(p *pendingUpdate) {
	r.mu.Lock()
	if r.timers[p.update.Index] != p {
		r.mu.Unlock()
		return
	}
	delete(r.timers, p.update.Index)
	r.pushes.add()
	ctx := r.ctx
	r.mu.Unlock()

	defer func() {
		r.mu.Lock()
		r.pushes.done()
		r.busy.done()
		r.mu.Unlock()
	}()

	slog.Debug("Pushing block update", "index", p.update.Index, "previous_hash", p.update.PreviousHash)
	if err := r.api.UpdateBlock(ctx, p.update); err != nil {
		slog.Error("Failed to update block", "index", p.update.Index, "error", err)
		if r.onPushError != nil {
			r.onPushError(p.update.Index, err)
		}
	}
}

func (r *Reconciler) cancelPendingLocked() {
	if len(r.timers) == 0 {
		return
	}
	for index, p := range r.timers {
		p.timer.Stop()
		delete(r.timers, index)
		r.busy.done()
	}
	slog.Debug("Cancelled pending block updates")
}

func (r *Reconciler) waitPushes(ctx context.Context) error {
	r.mu.Lock()
	ch := r.pushes.wait()
	r.mu.Unlock()

	select {
	case <-ch:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// WaitIdle blocks until no debounced push is scheduled or running.
func (r *Reconciler) WaitIdle(ctx context.Context) error {
	r.mu.Lock()
	ch := r.busy.wait()
	r.mu.Unlock()

	select {
	case <-ch:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Restore pushes the loaded values of every block whose working copy differs
// and then resets the working view to the loaded one. Pending pushes are
// cancelled and in-flight ones awaited before any corrective write is issued.
// The working view is reset even when some writes fail; the failures are
// returned joined.
func (r *Reconciler) Restore(ctx context.Context) error {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return ErrClosed
	}
	r.cancelPendingLocked()
	r.mu.Unlock()

	if err := r.waitPushes(ctx); err != nil {
		return err
	}

	r.mu.Lock()
	loaded := r.loaded
	toRestore := diff(loaded, r.edited)
	r.mu.Unlock()

	if len(loaded) == 0 {
		return nil
	}

	errs := make([]error, len(toRestore))
	var g errgroup.Group
	g.SetLimit(maxRestoreConcurrency)
	for i, block := range toRestore {
		g.Go(func() error {
			update := models.BlockUpdate{Index: block.Index, PreviousHash: block.PreviousHash}
			if err := r.api.UpdateBlock(ctx, update); err != nil {
				errs[i] = fmt.Errorf("block #%d: %w", block.Index, err)
			}
			return nil
		})
	}
	_ = g.Wait()

	r.mu.Lock()
	r.edited = models.CloneBlocks(r.loaded)
	r.invalid = make(map[int]struct{})
	r.verdict = nil
	r.mu.Unlock()

	slog.Info("Blocks restored", "count", len(toRestore))
	return errors.Join(errs...)
}

// Validate asks the service to verify the chain and records the invalid
// blocks. Entries for blocks the reconciler does not know are discarded.
func (r *Reconciler) Validate(ctx context.Context) (Verdict, error) {
	result, err := r.api.Validate(ctx)
	if err != nil {
		return Verdict{}, pkgerrors.WithMessage(err, "failed to validate chain")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	known := models.ValidationResult{IsValid: result.IsValid, Entries: make([]models.ValidationEntry, 0, len(result.Entries))}
	invalid := make(map[int]struct{})
	indexes := make([]int, 0)
	for _, entry := range result.Entries {
		if position(r.loaded, entry.Index) < 0 {
			continue
		}
		known.Entries = append(known.Entries, entry)
		if entry.Valid {
			continue
		}
		if _, dup := invalid[entry.Index]; dup {
			continue
		}
		invalid[entry.Index] = struct{}{}
		indexes = append(indexes, entry.Index)
	}

	verdict := Verdict{
		Valid:   result.IsValid || len(indexes) == 0,
		Invalid: indexes,
		Result:  known,
	}
	r.invalid = invalid
	r.verdict = &verdict

	if verdict.Valid {
		slog.Debug("Chain validated", "valid", true)
	} else {
		slog.Warn("Chain invalid", "blocks", indexes)
	}
	return verdict, nil
}

// Remine re-mines the block at index, then reloads the chain and validates
// it again, in that order: a remine can change the validity of every later
// block. A block already being remined is not resubmitted. Reload and
// validation failures name the block as re-mined, since the remine itself
// went through.
func (r *Reconciler) Remine(ctx context.Context, index int) (Verdict, error) {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return Verdict{}, ErrClosed
	}
	if _, busy := r.remining[index]; busy {
		r.mu.Unlock()
		return Verdict{}, fmt.Errorf("%w: #%d", ErrRemineInProgress, index)
	}
	r.remining[index] = struct{}{}
	r.mu.Unlock()

	defer func() {
		r.mu.Lock()
		delete(r.remining, index)
		r.mu.Unlock()
	}()

	if err := r.api.RemineBlock(ctx, index); err != nil {
		return Verdict{}, pkgerrors.WithMessage(err, fmt.Sprintf("failed to remine block %d", index))
	}
	slog.Info("Block submitted for re-mining", "index", index)

	if err := r.Load(ctx); err != nil {
		return Verdict{}, pkgerrors.WithMessage(err, fmt.Sprintf("block %d re-mined, reload failed", index))
	}
	verdict, err := r.Validate(ctx)
	if err != nil {
		return Verdict{}, pkgerrors.WithMessage(err, fmt.Sprintf("block %d re-mined", index))
	}
	return verdict, nil
}

// Close cancels every pending push and waits for running ones. Further edits
// fail with ErrClosed.
func (r *Reconciler) Close() error {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return nil
	}
	r.closed = true
	r.cancelPendingLocked()
	ch := r.pushes.wait()
	r.mu.Unlock()

	r.cancel()
	<-ch
	return nil
}

// Loaded returns the last snapshot read from the service.
func (r *Reconciler) Loaded() []models.Block {
	r.mu.Lock()
	defer r.mu.Unlock()
	return models.CloneBlocks(r.loaded)
}

// Edited returns the working view.
func (r *Reconciler) Edited() []models.Block {
	r.mu.Lock()
	defer r.mu.Unlock()
	return models.CloneBlocks(r.edited)
}

// Dirty returns the indexes whose working copy differs from the loaded one.
func (r *Reconciler) Dirty() []int {
	r.mu.Lock()
	defer r.mu.Unlock()

	blocks := diff(r.loaded, r.edited)
	out := make([]int, 0, len(blocks))
	for _, b := range blocks {
		out = append(out, b.Index)
	}
	return out
}

// InvalidBlocks returns the indexes marked invalid by the last validation, sorted.
func (r *Reconciler) InvalidBlocks() []int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return sortedKeys(r.invalid)
}

// IsInvalid reports whether the block at index is marked invalid.
func (r *Reconciler) IsInvalid(index int) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.invalid[index]
	return ok
}

// Remining reports whether a remine of the block at index is in flight.
func (r *Reconciler) Remining(index int) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.remining[index]
	return ok
}

// PendingUpdates returns the indexes with a scheduled push, sorted.
func (r *Reconciler) PendingUpdates() []int {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]int, 0, len(r.timers))
	for index := range r.timers {
		out = append(out, index)
	}
	slices.Sort(out)
	return out
}

func (r *Reconciler) Stats() Stats {
	r.mu.Lock()
	defer r.mu.Unlock()

	s := Stats{
		Blocks:         len(r.loaded),
		Dirty:          len(diff(r.loaded, r.edited)),
		Invalid:        len(r.invalid),
		PendingUpdates: len(r.timers),
		Remining:       len(r.remining),
	}
	if r.verdict != nil {
		s.Validated = true
		s.Valid = r.verdict.Valid
	}
	return s
}

// diff returns the loaded blocks whose working copy has a different hash or
// previous hash.
func diff(loaded, edited []models.Block) []models.Block {
	originals := make(map[int]models.Block, len(loaded))
	for _, b := range loaded {
		originals[b.Index] = b
	}

	var out []models.Block
	for _, b := range edited {
		original, ok := originals[b.Index]
		if !ok {
			continue
		}
		if b.Hash == original.Hash && b.PreviousHash == original.PreviousHash {
			continue
		}
		out = append(out, original)
	}
	return out
}

func position(blocks []models.Block, index int) int {
	return slices.IndexFunc(blocks, func(b models.Block) bool { return b.Index == index })
}

func sortedByIndex(blocks []models.Block) []models.Block {
	slices.SortStableFunc(blocks, func(a, b models.Block) int { return a.Index - b.Index })
	return blocks
}

func sortedKeys(set map[int]struct{}) []int {
	out := make([]int, 0, len(set))
	for k := range set {
		out = append(out, k)
	}
	slices.Sort(out)
	return out
}
