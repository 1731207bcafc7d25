package spin

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/cookedzera/farcaster-spin/pkg/providers"
)

// PartialReadError reports that one or more token balance reads failed.
// The refresh as a whole is rejected: callers must never display a
// silently-incomplete balance table.
type PartialReadError struct {
	FailedTokens []string
	Causes       []error
}

// Error implements the error interface.
func (e *PartialReadError) Error() string {
	return fmt.Sprintf("balance refresh failed for tokens [%s]", strings.Join(e.FailedTokens, ", "))
}

// Unwrap exposes the first underlying cause for errors.Is classification.
func (e *PartialReadError) Unwrap() error {
	if len(e.Causes) == 0 {
		return nil
	}
	return e.Causes[0]
}

// Ledger tracks reward token balances for the game. Refreshes are
// all-or-nothing: either every configured token is read, or the previous
// snapshot stays in place untouched.
type Ledger struct {
	contract providers.WheelContract
	logger   zerolog.Logger

	mu   sync.RWMutex
	last *BalanceSnapshot
}

// NewLedger creates a ledger reading balances through the contract boundary.
func NewLedger(contract providers.WheelContract, logger zerolog.Logger) *Ledger {
	return &Ledger{
		contract: contract,
		logger:   logger.With().Str("component", "reward_ledger").Logger(),
	}
}

// Refresh reads every configured token balance for owner concurrently and
// replaces the cached snapshot atomically. If any single read fails the whole
// refresh fails with PartialReadError and the cached snapshot is unchanged.
// A successful snapshot always covers all tokens, zero balances included.
func (l *Ledger) Refresh(ctx context.Context, cfg *ValidatedConfig, owner common.Address) (*BalanceSnapshot, error) {
	tokens := cfg.Tokens()
	entries := make([]BalanceEntry, len(tokens))
	readErrs := make([]error, len(tokens))

	g, gctx := errgroup.WithContext(ctx)
	for i, token := range tokens {
		i, token := i, token
		g.Go(func() error {
			amount, err := l.contract.BalanceOf(gctx, token.Address, owner)
			if err != nil {
				readErrs[i] = err
				// Recorded per token; the group itself is not cancelled
				// so the error report covers every failed read.
				return nil
			}
			entries[i] = BalanceEntry{
				TokenSymbol: token.Symbol,
				Address:     token.Address,
				Amount:      amount,
				ObservedAt:  time.Now().UTC(),
			}
			return nil
		})
	}
	_ = g.Wait()

	var failed []string
	var causes []error
	for i, err := range readErrs {
		if err != nil {
			failed = append(failed, tokens[i].Symbol)
			causes = append(causes, err)
		}
	}
	if len(failed) > 0 {
		l.logger.Warn().
			Strs("failed_tokens", failed).
			Str("owner", owner.Hex()).
			Msg("Balance refresh failed, keeping previous snapshot")
		return nil, &PartialReadError{FailedTokens: failed, Causes: causes}
	}

	snapshot := &BalanceSnapshot{
		Owner:   owner,
		Entries: entries,
		TakenAt: time.Now().UTC(),
	}

	l.mu.Lock()
	l.last = snapshot
	l.mu.Unlock()

	l.logger.Debug().
		Str("owner", owner.Hex()).
		Int("tokens", len(entries)).
		Msg("Reward balances refreshed")

	return snapshot, nil
}

// Last returns the most recent complete snapshot, or nil if no refresh has
// succeeded yet.
func (l *Ledger) Last() *BalanceSnapshot {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.last
}
