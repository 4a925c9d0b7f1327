// Package transfer drives a transaction through participant selection, key
// confirmation, server-side build and sign, and approval.
package transfer

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math"
	"slices"
	"strings"

	pkgerrors "github.com/pkg/errors"

	"github.com/manifest-network/chainctl/internal/models"
	"github.com/manifest-network/chainctl/internal/utils"
)

// Stage is a step of the workflow, in order.
type Stage int

const (
	StageParticipants Stage = iota
	StageKey
	StageBuild
	StageApprove
)

func (s Stage) String() string {
	switch s {
	case StageParticipants:
		return "participants"
	case StageKey:
		return "key"
	case StageBuild:
		return "build"
	case StageApprove:
		return "approve"
	default:
		return fmt.Sprintf("stage(%d)", int(s))
	}
}

// DefaultApprovalMessage is reported when the service does not say anything
// about an approved transaction.
const DefaultApprovalMessage = "Transaction moved to mempool."

var (
	ErrUnknownWallet      = errors.New("unknown wallet")
	ErrMissingParticipant = errors.New("sender and receiver are required")
	ErrSameParticipants   = errors.New("sender and receiver must differ")
	ErrInvalidAmount      = errors.New("amount must be a positive number")
	ErrOverBalance        = errors.New("insufficient balance")
	ErrMissingKey         = errors.New("private key is required")
	ErrNotBuilt           = errors.New("transaction has not been built")
	ErrWrongStage         = errors.New("operation not allowed at this stage")
)

// OverBalanceError reports a transfer whose amount and fee exceed what the
// sender can spend.
type OverBalanceError struct {
	Available float64
	WithFee   bool
}

func (e *OverBalanceError) Error() string {
	what := "amount"
	if e.WithFee {
		what = "amount + fee"
	}
	return fmt.Sprintf("%s exceeds available balance (%s coins)", what, utils.FormatAmount(e.Available, utils.DefaultFractionDigits))
}

func (e *OverBalanceError) Is(target error) bool {
	return target == ErrOverBalance
}

// Signer builds, signs and approves transactions on the chain service.
type Signer interface {
	BuildSign(ctx context.Context, req models.BuildSignRequest) (models.BuildSignResult, error)
	Approve(ctx context.Context, signed models.BuildSignResult) (string, error)
}

// Choice is a wallet as offered for selection.
type Choice struct {
	Address string
	Label   string
}

type Option func(*Workflow)

// WithEntropy sets the random source used by GenerateKey.
func WithEntropy(r io.Reader) Option {
	return func(w *Workflow) {
		w.entropy = r
	}
}

// WithRefresh sets a callback run after a successful approval, before the
// workflow resets.
func WithRefresh(f func(ctx context.Context) error) Option {
	return func(w *Workflow) {
		w.refresh = f
	}
}

// Workflow is the transfer state machine. It is not safe for concurrent use.
type Workflow struct {
	api     Signer
	entropy io.Reader
	refresh func(ctx context.Context) error
	wallets []models.WalletBalance

	stage       Stage
	sender      string
	receiver    string
	amount      *float64
	fee         float64
	note        string
	key         string
	originalKey string
	weakKey     bool
	result      *models.BuildSignResult
}

func New(api Signer, wallets []models.WalletBalance, opts ...Option) *Workflow {
	w := &Workflow{
		api:     api,
		entropy: rand.Reader,
		wallets: wallets,
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// SetWallets replaces the wallets offered for selection.
func (w *Workflow) SetWallets(wallets []models.WalletBalance) {
	w.wallets = wallets
}

// Choices lists the selectable wallets labelled "name (public key)".
func (w *Workflow) Choices() []Choice {
	out := make([]Choice, 0, len(w.wallets))
	for _, wallet := range w.wallets {
		name := utils.Shorten(wallet.Address, utils.DefaultVisible)
		if wallet.Name != nil {
			name = *wallet.Name
		}
		label := name
		if pub := utils.Shorten(wallet.PublicKey, utils.DefaultVisible); pub != "" {
			label = fmt.Sprintf("%s (%s)", name, pub)
		}
		out = append(out, Choice{Address: wallet.Address, Label: label})
	}
	return out
}

func (w *Workflow) Stage() Stage { return w.stage }

func (w *Workflow) Sender() string   { return w.sender }
func (w *Workflow) Receiver() string { return w.receiver }
func (w *Workflow) Fee() float64     { return w.fee }
func (w *Workflow) Note() string     { return w.note }

func (w *Workflow) Amount() (float64, bool) {
	if w.amount == nil {
		return 0, false
	}
	return *w.amount, true
}

func (w *Workflow) wallet(address string) (models.WalletBalance, bool) {
	i := slices.IndexFunc(w.wallets, func(wb models.WalletBalance) bool { return wb.Address == address })
	if i < 0 {
		return models.WalletBalance{}, false
	}
	return w.wallets[i], true
}

// SelectSender picks the sending wallet and preloads its private key, which
// also becomes the key RestoreKey returns to.
func (w *Workflow) SelectSender(address string) error {
	wallet, ok := w.wallet(address)
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownWallet, address)
	}
	w.sender = address
	w.originalKey = ""
	if wallet.PrivateKey != nil {
		w.originalKey = *wallet.PrivateKey
	}
	w.key = w.originalKey
	w.weakKey = false
	w.result = nil
	return nil
}

func (w *Workflow) SelectReceiver(address string) error {
	if _, ok := w.wallet(address); !ok {
		return fmt.Errorf("%w: %s", ErrUnknownWallet, address)
	}
	w.receiver = address
	w.result = nil
	return nil
}

func (w *Workflow) SetAmount(amount float64) {
	w.amount = &amount
	w.result = nil
}

func (w *Workflow) ClearAmount() {
	w.amount = nil
	w.result = nil
}

// SetFee sets the fee. Non-finite values count as no fee.
func (w *Workflow) SetFee(fee float64) {
	if math.IsNaN(fee) || math.IsInf(fee, 0) {
		fee = 0
	}
	w.fee = fee
	w.result = nil
}

func (w *Workflow) SetNote(note string) {
	w.note = note
	w.result = nil
}

// AvailableToSpend is the more conservative of the sender's confirmed and
// pending balances, never negative. A missing confirmed balance counts as 0
// and a missing pending balance as the confirmed one.
func (w *Workflow) AvailableToSpend() float64 {
	wallet, ok := w.wallet(w.sender)
	if !ok {
		return 0
	}
	confirmed := 0.0
	if wallet.Balance != nil {
		confirmed = *wallet.Balance
	}
	pending := confirmed
	if wallet.Pending != nil {
		pending = *wallet.Pending
	}
	return math.Max(0, math.Min(confirmed, pending))
}

// CheckParticipants reports why the workflow cannot leave the participants stage.
func (w *Workflow) CheckParticipants() error {
	if w.sender == "" || w.receiver == "" {
		return ErrMissingParticipant
	}
	if w.sender == w.receiver {
		return ErrSameParticipants
	}
	if w.amount == nil || math.IsNaN(*w.amount) || math.IsInf(*w.amount, 0) || *w.amount <= 0 {
		return ErrInvalidAmount
	}
	available := w.AvailableToSpend()
	if *w.amount+w.fee > available {
		return &OverBalanceError{Available: available, WithFee: w.fee != 0}
	}
	return nil
}

// CheckKey reports why the workflow cannot leave the key stage. An empty key
// is accepted only for a sender that has no key at all; KeyWarning is set then.
func (w *Workflow) CheckKey() error {
	if w.key != "" || w.KeyWarning() {
		return nil
	}
	return ErrMissingKey
}

// KeyWarning reports that the transfer proceeds without a private key because
// the sender has none.
func (w *Workflow) KeyWarning() bool {
	return w.key == "" && w.originalKey == ""
}

func (w *Workflow) Key() string { return w.key }

// WeakKey reports that the current key came from the fallback generator.
func (w *Workflow) WeakKey() bool { return w.weakKey }

// GenerateKey replaces the key with a fresh random one.
func (w *Workflow) GenerateKey() string {
	w.key, w.weakKey = generateKey(w.entropy)
	w.result = nil
	return w.key
}

// RestoreKey goes back to the sender's own key.
func (w *Workflow) RestoreKey() {
	w.key = w.originalKey
	w.weakKey = false
	w.result = nil
}

func (w *Workflow) SetKey(key string) {
	w.key = key
	w.weakKey = false
	w.result = nil
}

// Next advances one stage if the current stage's guard holds.
func (w *Workflow) Next() error {
	var err error
	switch w.stage {
	case StageParticipants:
		err = w.CheckParticipants()
	case StageKey:
		err = w.CheckKey()
	case StageBuild:
		if w.result == nil {
			err = ErrNotBuilt
		}
	default:
		err = ErrWrongStage
	}
	if err != nil {
		return err
	}
	w.stage++
	return nil
}

// Back returns to an earlier stage. Nothing is cleared.
func (w *Workflow) Back(to Stage) error {
	if to < StageParticipants || to >= w.stage {
		return fmt.Errorf("%w: cannot go back from %s to %s", ErrWrongStage, w.stage, to)
	}
	w.stage = to
	return nil
}

// Result returns the stored build result.
func (w *Workflow) Result() (models.BuildSignResult, bool) {
	if w.result == nil {
		return models.BuildSignResult{}, false
	}
	return *w.result, true
}

func (w *Workflow) request() models.BuildSignRequest {
	req := models.BuildSignRequest{
		SenderAddress:   w.sender,
		ReceiverAddress: w.receiver,
		Amount:          *w.amount,
	}
	fee := w.fee
	req.Fee = &fee
	if note := strings.TrimSpace(w.note); note != "" {
		req.Note = &note
	}
	if w.key != "" {
		key := w.key
		req.PrivateKey = &key
	}
	return req
}

// Build asks the service to build and sign the transfer. A failure clears any
// previously stored result.
func (w *Workflow) Build(ctx context.Context) (models.BuildSignResult, error) {
	if w.stage != StageBuild {
		return models.BuildSignResult{}, fmt.Errorf("%w: build requires the %s stage", ErrWrongStage, StageBuild)
	}
	if err := w.CheckParticipants(); err != nil {
		return models.BuildSignResult{}, err
	}

	result, err := w.api.BuildSign(ctx, w.request())
	if err != nil {
		w.result = nil
		return models.BuildSignResult{}, pkgerrors.WithMessage(err, "failed to sign transaction")
	}

	w.result = &result
	slog.Info("Transaction built and signed", "sender", w.sender, "receiver", w.receiver)
	return result, nil
}

// Approve submits the stored result. On success the refresh callback runs and
// the workflow resets; on failure it stays at the approve stage with the
// result intact.
func (w *Workflow) Approve(ctx context.Context) (string, error) {
	if w.stage != StageApprove {
		return "", fmt.Errorf("%w: approval requires the %s stage", ErrWrongStage, StageApprove)
	}
	if w.result == nil {
		return "", ErrNotBuilt
	}

	message, err := w.api.Approve(ctx, *w.result)
	if err != nil {
		return "", pkgerrors.WithMessage(err, "approval failed")
	}
	if message == "" {
		message = DefaultApprovalMessage
	}
	slog.Info("Transaction approved", "message", message)

	if w.refresh != nil {
		if err := w.refresh(ctx); err != nil {
			slog.Warn("Failed to refresh after approval", "error", err)
		}
	}
	w.Cancel()
	return message, nil
}

// Cancel discards all transient state.
func (w *Workflow) Cancel() {
	*w = Workflow{
		api:     w.api,
		entropy: w.entropy,
		refresh: w.refresh,
		wallets: w.wallets,
	}
}
