package spin

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/google/uuid"
)

// State is the position of a spin attempt in the orchestration state machine.
//
// Flow: Idle -> Precheck -> Submitting -> PendingConfirmation -> Reconciling
// and finally Succeeded or Failed. Terminal states are exit-only.
type State int

const (
	StateIdle State = iota
	StatePrecheck
	StateSubmitting
	StatePendingConfirmation
	StateReconciling
	StateSucceeded
	StateFailed
)

// String returns the state name used in logs and API payloads.
func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StatePrecheck:
		return "precheck"
	case StateSubmitting:
		return "submitting"
	case StatePendingConfirmation:
		return "pending_confirmation"
	case StateReconciling:
		return "reconciling"
	case StateSucceeded:
		return "succeeded"
	case StateFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Terminal reports whether the state is exit-only.
func (s State) Terminal() bool {
	return s == StateSucceeded || s == StateFailed
}

// MarshalJSON encodes the state as its name.
func (s State) MarshalJSON() ([]byte, error) {
	return []byte(`"` + s.String() + `"`), nil
}

// UnmarshalJSON decodes a state name.
func (s *State) UnmarshalJSON(data []byte) error {
	var name string
	if err := json.Unmarshal(data, &name); err != nil {
		return err
	}
	for candidate := StateIdle; candidate <= StateFailed; candidate++ {
		if candidate.String() == name {
			*s = candidate
			return nil
		}
	}
	return fmt.Errorf("unknown spin state %q", name)
}

// FailureKind classifies why an attempt ended in StateFailed. The taxonomy
// is part of the API: the UI decides between "try again", "check status" and
// "fix your wallet" based on it, so kinds must never be conflated.
type FailureKind int

const (
	FailureNone FailureKind = iota
	FailureAlreadyInProgress
	FailureNotConfigured
	FailureNotConnected
	FailureWrongNetwork
	FailureSubmissionRejected
	FailureNetworkUnavailable
	FailureConfirmationTimeout
	FailureReconciliationFailed
)

// String returns the failure kind name.
func (k FailureKind) String() string {
	switch k {
	case FailureNone:
		return "none"
	case FailureAlreadyInProgress:
		return "already_in_progress"
	case FailureNotConfigured:
		return "not_configured"
	case FailureNotConnected:
		return "not_connected"
	case FailureWrongNetwork:
		return "wrong_network"
	case FailureSubmissionRejected:
		return "submission_rejected"
	case FailureNetworkUnavailable:
		return "network_unavailable"
	case FailureConfirmationTimeout:
		return "confirmation_timeout"
	case FailureReconciliationFailed:
		return "reconciliation_failed"
	default:
		return "unknown"
	}
}

// MarshalJSON encodes the failure kind as its name.
func (k FailureKind) MarshalJSON() ([]byte, error) {
	return []byte(`"` + k.String() + `"`), nil
}

// UnmarshalJSON decodes a failure kind name.
func (k *FailureKind) UnmarshalJSON(data []byte) error {
	var name string
	if err := json.Unmarshal(data, &name); err != nil {
		return err
	}
	for candidate := FailureNone; candidate <= FailureReconciliationFailed; candidate++ {
		if candidate.String() == name {
			*k = candidate
			return nil
		}
	}
	return fmt.Errorf("unknown failure kind %q", name)
}

// Retryable reports whether a fresh spin is a safe remediation. Submission
// rejection needs an explicit user decision and an ambiguous outcome needs a
// recheck, not a resubmission.
func (k FailureKind) Retryable() bool {
	return k == FailureNetworkUnavailable
}

// Recheckable reports whether Recheck may be re-invoked against the stored
// transaction hash. Only the steps after broadcast are idempotent.
func (k FailureKind) Recheckable() bool {
	return k == FailureConfirmationTimeout || k == FailureReconciliationFailed
}

// Ambiguous reports whether the on-chain outcome is unknown. The UI must
// offer "check status" instead of claiming flat failure for these.
func (k FailureKind) Ambiguous() bool {
	return k == FailureConfirmationTimeout || k == FailureReconciliationFailed
}

// RewardGrant is one token's reward reading after a confirmed spin. A zero
// amount is a valid outcome; "no win" is not an error.
type RewardGrant struct {
	TokenSymbol string   `json:"tokenSymbol"`
	Amount      *big.Int `json:"amount"`
}

// Attempt tracks a single spin request from trigger to terminal state. It is
// owned exclusively by the orchestrator for its lifetime and evicted once the
// UI acknowledges the terminal state.
type Attempt struct {
	ID          uuid.UUID      `json:"id"`
	Owner       common.Address `json:"owner"`
	RequestedAt time.Time      `json:"requestedAt"`
	State       State          `json:"state"`
	TxHash      common.Hash    `json:"txHash"`
	Failure     FailureKind    `json:"failure"`
	Rewards     []RewardGrant  `json:"rewards,omitempty"`
	FinishedAt  time.Time      `json:"finishedAt,omitempty"`
}

// clone returns a copy safe to hand outside the orchestrator's lock.
func (a *Attempt) clone() *Attempt {
	cp := *a
	if a.Rewards != nil {
		cp.Rewards = make([]RewardGrant, len(a.Rewards))
		copy(cp.Rewards, a.Rewards)
	}
	return &cp
}

// BalanceEntry is one token's observed balance.
type BalanceEntry struct {
	TokenSymbol string         `json:"tokenSymbol"`
	Address     common.Address `json:"address"`
	Amount      *big.Int       `json:"amount"`
	ObservedAt  time.Time      `json:"observedAt"`
}

// BalanceSnapshot is a complete reading of all configured reward tokens for
// one owner. It is replaced wholesale on refresh, never patched, so readers
// never observe a mix of stale and fresh balances.
type BalanceSnapshot struct {
	Owner   common.Address `json:"owner"`
	Entries []BalanceEntry `json:"entries"`
	TakenAt time.Time      `json:"takenAt"`
}

// AttemptStore persists terminal attempts so the UI can re-query an outcome
// after a reload. Persistence is best-effort for the spin flow itself.
type AttemptStore interface {
	Save(ctx context.Context, attempt *Attempt) error
	Load(ctx context.Context, id uuid.UUID) (*Attempt, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

// EventPublisher receives terminal attempts, e.g. for a Kafka events topic.
// Publishing must never block or fail the spin flow.
type EventPublisher interface {
	PublishSpinResult(ctx context.Context, attempt *Attempt) error
}

// Errors returned by the orchestrator's entry points.
var (
	// ErrAlreadyInProgress is returned when a spin is requested while
	// another attempt for the session is still non-terminal. No new
	// attempt is created and the in-flight one is untouched.
	ErrAlreadyInProgress = errors.New("another spin attempt is already in flight")

	// ErrAttemptNotFound is returned by lookups for unknown or already
	// acknowledged attempt ids.
	ErrAttemptNotFound = errors.New("spin attempt not found")

	// ErrNotRecheckable is returned when Recheck is invoked for an
	// attempt whose failure kind does not permit it.
	ErrNotRecheckable = errors.New("spin attempt is not recheckable")

	// ErrNotConfigured is returned by Recheck when no validated contract
	// configuration is available. The attempt is left as it was.
	ErrNotConfigured = errors.New("contract configuration is not usable")
)
