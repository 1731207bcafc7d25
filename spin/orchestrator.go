package spin

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/cookedzera/farcaster-spin/pkg/providers"
	"github.com/cookedzera/farcaster-spin/wallet"
)

const (
	defaultConfirmations       = 1
	defaultConfirmationTimeout = 90 * time.Second
	finishTimeout              = 5 * time.Second
)

// SessionSource supplies the wallet session snapshot sampled at precheck.
// *wallet.SessionProvider satisfies it.
type SessionSource interface {
	Current() wallet.Session
}

// OrchestratorOptions configures an Orchestrator.
type OrchestratorOptions struct {
	// Config may be nil when validation failed at startup; every spin then
	// terminates with FailureNotConfigured before touching the network.
	Config   *ValidatedConfig
	Sessions SessionSource
	Contract providers.WheelContract
	Ledger   *Ledger

	// Store and Events are optional best-effort collaborators.
	Store  AttemptStore
	Events EventPublisher

	Logger              zerolog.Logger
	Confirmations       uint64
	ConfirmationTimeout time.Duration
}

// Orchestrator drives the spin-claim flow end to end: precheck, submission,
// confirmation, reward reconciliation and terminal result. It owns every
// Attempt for its lifetime and enforces the one-in-flight-attempt invariant
// through an exclusive slot.
type Orchestrator struct {
	cfg      *ValidatedConfig
	sessions SessionSource
	contract providers.WheelContract
	ledger   *Ledger
	store    AttemptStore
	events   EventPublisher
	logger   zerolog.Logger

	confirmations  uint64
	confirmTimeout time.Duration

	mu       sync.Mutex
	inFlight *Attempt
	history  map[uuid.UUID]*Attempt
}

// NewOrchestrator creates an orchestrator.
func NewOrchestrator(opts OrchestratorOptions) *Orchestrator {
	if opts.Confirmations == 0 {
		opts.Confirmations = defaultConfirmations
	}
	if opts.ConfirmationTimeout == 0 {
		opts.ConfirmationTimeout = defaultConfirmationTimeout
	}

	return &Orchestrator{
		cfg:            opts.Config,
		sessions:       opts.Sessions,
		contract:       opts.Contract,
		ledger:         opts.Ledger,
		store:          opts.Store,
		events:         opts.Events,
		logger:         opts.Logger.With().Str("component", "spin_orchestrator").Logger(),
		confirmations:  opts.Confirmations,
		confirmTimeout: opts.ConfirmationTimeout,
	}
}

// Spin runs one attempt through the state machine and returns its terminal
// snapshot. A second call while an attempt is non-terminal fails immediately
// with ErrAlreadyInProgress and creates nothing.
func (o *Orchestrator) Spin(ctx context.Context) (*Attempt, error) {
	attempt, err := o.begin()
	if err != nil {
		return nil, err
	}

	logger := o.logger.With().Str("attempt_id", attempt.ID.String()).Logger()

	// Session is sampled once, here. A mid-flight account switch does not
	// redirect the attempt: the transaction is bound to the account that
	// signed it, and confirmation simply resolves against that account.
	session := o.sessions.Current()

	if o.cfg == nil {
		logger.Warn().Msg("Spin refused: contract configuration not validated")
		return o.fail(attempt, FailureNotConfigured), nil
	}
	switch session.Status(o.cfg.ChainID()) {
	case wallet.StatusDisconnected:
		logger.Warn().Msg("Spin refused: wallet not connected")
		return o.fail(attempt, FailureNotConnected), nil
	case wallet.StatusWrongNetwork:
		logger.Warn().
			Int64("session_chain_id", session.ChainID).
			Int64("expected_chain_id", o.cfg.ChainID()).
			Msg("Spin refused: wallet on wrong network")
		return o.fail(attempt, FailureWrongNetwork), nil
	}

	o.mu.Lock()
	attempt.Owner = session.Address
	o.mu.Unlock()

	o.transition(attempt, StateSubmitting)
	txHash, err := o.contract.SubmitSpin(ctx, session.Signer)
	if err != nil {
		if errors.Is(err, providers.ErrSubmissionRejected) {
			logger.Warn().Err(err).Msg("Spin submission rejected")
			return o.fail(attempt, FailureSubmissionRejected), nil
		}
		logger.Warn().Err(err).Msg("Spin broadcast failed, network unavailable")
		return o.fail(attempt, FailureNetworkUnavailable), nil
	}

	o.mu.Lock()
	attempt.TxHash = txHash
	o.mu.Unlock()
	logger.Info().Str("tx_hash", txHash.Hex()).Msg("Spin transaction broadcast")

	return o.settle(ctx, attempt, session.Address), nil
}

// Recheck re-invokes the idempotent tail of the flow (confirmation wait
// and/or reward reconciliation) for an attempt that ended ambiguously. It
// never re-broadcasts the transaction.
func (o *Orchestrator) Recheck(ctx context.Context, id uuid.UUID) (*Attempt, error) {
	o.mu.Lock()
	attempt, ok := o.history[id]
	o.mu.Unlock()

	if !ok && o.store != nil {
		loaded, err := o.store.Load(ctx, id)
		if err == nil && loaded != nil {
			attempt = loaded
			ok = true
		}
	}
	if !ok {
		return nil, ErrAttemptNotFound
	}
	if !attempt.Failure.Recheckable() || attempt.TxHash == (common.Hash{}) {
		return nil, ErrNotRecheckable
	}

	// A degraded boot has no contract to resolve against. The attempt is
	// left untouched so it stays recheckable once configuration is fixed.
	if o.cfg == nil {
		o.logger.Warn().Str("attempt_id", id.String()).Msg("Recheck refused: contract configuration not validated")
		return nil, ErrNotConfigured
	}

	o.mu.Lock()
	if o.inFlight != nil {
		o.mu.Unlock()
		return nil, ErrAlreadyInProgress
	}
	resumeFrom := attempt.Failure
	delete(o.history, id)
	attempt.Failure = FailureNone
	attempt.FinishedAt = time.Time{}
	o.inFlight = attempt
	o.mu.Unlock()

	o.logger.Info().
		Str("attempt_id", id.String()).
		Str("tx_hash", attempt.TxHash.Hex()).
		Str("resume_from", resumeFrom.String()).
		Msg("Rechecking spin attempt")

	if resumeFrom == FailureConfirmationTimeout {
		return o.settle(ctx, attempt, attempt.Owner), nil
	}
	return o.reconcile(ctx, attempt, attempt.Owner), nil
}

// Attempt returns a snapshot of the attempt with the given id, checking the
// in-flight slot, the unacknowledged history and finally the store.
func (o *Orchestrator) Attempt(ctx context.Context, id uuid.UUID) (*Attempt, error) {
	o.mu.Lock()
	if o.inFlight != nil && o.inFlight.ID == id {
		out := o.inFlight.clone()
		o.mu.Unlock()
		return out, nil
	}
	if a, ok := o.history[id]; ok {
		out := a.clone()
		o.mu.Unlock()
		return out, nil
	}
	o.mu.Unlock()

	if o.store != nil {
		if a, err := o.store.Load(ctx, id); err == nil && a != nil {
			return a, nil
		}
	}
	return nil, ErrAttemptNotFound
}

// Current returns a snapshot of the in-flight attempt, or nil.
func (o *Orchestrator) Current() *Attempt {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.inFlight == nil {
		return nil
	}
	return o.inFlight.clone()
}

// Acknowledge marks a terminal attempt as seen by the UI and evicts it.
// Deleting an absent key is a no-op in the store, so existence is checked
// there before the delete counts as an eviction.
func (o *Orchestrator) Acknowledge(ctx context.Context, id uuid.UUID) error {
	o.mu.Lock()
	_, ok := o.history[id]
	delete(o.history, id)
	o.mu.Unlock()

	if o.store != nil {
		if !ok {
			if _, err := o.store.Load(ctx, id); err == nil {
				ok = true
			}
		}
		if ok {
			if err := o.store.Delete(ctx, id); err != nil {
				o.logger.Warn().Err(err).Str("attempt_id", id.String()).Msg("Failed to evict attempt from store")
			}
		}
	}
	if !ok {
		return ErrAttemptNotFound
	}
	return nil
}

// begin claims the exclusive in-flight slot and creates the attempt.
func (o *Orchestrator) begin() (*Attempt, error) {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.inFlight != nil {
		return nil, ErrAlreadyInProgress
	}
	if o.history == nil {
		o.history = make(map[uuid.UUID]*Attempt)
	}

	attempt := &Attempt{
		ID:          uuid.New(),
		RequestedAt: time.Now().UTC(),
		State:       StatePrecheck,
	}
	o.inFlight = attempt
	return attempt, nil
}

// settle waits for the confirmation depth and then reconciles rewards.
func (o *Orchestrator) settle(ctx context.Context, attempt *Attempt, owner common.Address) *Attempt {
	o.transition(attempt, StatePendingConfirmation)

	waitCtx, cancel := context.WithTimeout(ctx, o.confirmTimeout)
	receipt, err := o.contract.AwaitConfirmation(waitCtx, attempt.TxHash, o.confirmations)
	cancel()
	if err != nil {
		// Anything that interrupts the wait leaves the on-chain outcome
		// unknown: the transaction may still land. Never report this as
		// rejection; the attempt stays recheckable against the same hash.
		o.logger.Warn().Err(err).
			Str("attempt_id", attempt.ID.String()).
			Str("tx_hash", attempt.TxHash.Hex()).
			Msg("Confirmation wait ended without a receipt")
		return o.fail(attempt, FailureConfirmationTimeout)
	}

	if receipt.Status == types.ReceiptStatusFailed {
		o.logger.Warn().
			Str("attempt_id", attempt.ID.String()).
			Str("tx_hash", attempt.TxHash.Hex()).
			Msg("Spin transaction reverted on-chain")
		return o.fail(attempt, FailureSubmissionRejected)
	}

	return o.reconcile(ctx, attempt, owner)
}

// reconcile refreshes the reward ledger and finishes the attempt. A ledger
// failure after a confirmed spin is surfaced distinctly: the spin succeeded
// on-chain but the reward state could not be read.
func (o *Orchestrator) reconcile(ctx context.Context, attempt *Attempt, owner common.Address) *Attempt {
	o.transition(attempt, StateReconciling)

	snapshot, err := o.ledger.Refresh(ctx, o.cfg, owner)
	if err != nil {
		o.logger.Warn().Err(err).
			Str("attempt_id", attempt.ID.String()).
			Msg("Reward reconciliation failed after confirmed spin")
		return o.fail(attempt, FailureReconciliationFailed)
	}

	rewards := make([]RewardGrant, len(snapshot.Entries))
	for i, entry := range snapshot.Entries {
		rewards[i] = RewardGrant{TokenSymbol: entry.TokenSymbol, Amount: entry.Amount}
	}

	o.mu.Lock()
	attempt.Rewards = rewards
	attempt.State = StateSucceeded
	attempt.FinishedAt = time.Now().UTC()
	if o.history == nil {
		o.history = make(map[uuid.UUID]*Attempt)
	}
	o.history[attempt.ID] = attempt
	if o.inFlight == attempt {
		o.inFlight = nil
	}
	out := attempt.clone()
	o.mu.Unlock()

	o.logger.Info().
		Str("attempt_id", attempt.ID.String()).
		Str("tx_hash", attempt.TxHash.Hex()).
		Int("reward_tokens", len(rewards)).
		Msg("Spin succeeded")

	o.finish(out)
	return out
}

// fail finishes the attempt in StateFailed with the given kind.
func (o *Orchestrator) fail(attempt *Attempt, kind FailureKind) *Attempt {
	o.mu.Lock()
	attempt.State = StateFailed
	attempt.Failure = kind
	attempt.FinishedAt = time.Now().UTC()
	if o.history == nil {
		o.history = make(map[uuid.UUID]*Attempt)
	}
	o.history[attempt.ID] = attempt
	if o.inFlight == attempt {
		o.inFlight = nil
	}
	out := attempt.clone()
	o.mu.Unlock()

	o.finish(out)
	return out
}

// transition moves the attempt to a non-terminal state.
func (o *Orchestrator) transition(attempt *Attempt, state State) {
	o.mu.Lock()
	attempt.State = state
	o.mu.Unlock()

	o.logger.Debug().
		Str("attempt_id", attempt.ID.String()).
		Str("state", state.String()).
		Msg("Spin attempt state changed")
}

// finish persists and publishes a terminal attempt, best-effort.
func (o *Orchestrator) finish(attempt *Attempt) {
	ctx, cancel := context.WithTimeout(context.Background(), finishTimeout)
	defer cancel()

	if o.store != nil {
		if err := o.store.Save(ctx, attempt); err != nil {
			o.logger.Warn().Err(err).Str("attempt_id", attempt.ID.String()).Msg("Failed to persist attempt")
		}
	}
	if o.events != nil {
		if err := o.events.PublishSpinResult(ctx, attempt); err != nil {
			o.logger.Warn().Err(err).Str("attempt_id", attempt.ID.String()).Msg("Failed to publish spin result")
		}
	}
}
