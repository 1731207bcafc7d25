package spin

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"sync"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/cookedzera/farcaster-spin/pkg/providers"
	"github.com/cookedzera/farcaster-spin/wallet"
)

type fakeContract struct {
	mu           sync.Mutex
	submitCalls  int
	awaitCalls   int
	balanceCalls int

	submitFn  func(ctx context.Context, signer wallet.Signer) (common.Hash, error)
	awaitFn   func(ctx context.Context, txHash common.Hash, confirmations uint64) (*types.Receipt, error)
	balanceFn func(ctx context.Context, token, owner common.Address) (*big.Int, error)
}

func (f *fakeContract) SubmitSpin(ctx context.Context, signer wallet.Signer) (common.Hash, error) {
	f.mu.Lock()
	f.submitCalls++
	fn := f.submitFn
	f.mu.Unlock()
	if fn != nil {
		return fn(ctx, signer)
	}
	return common.HexToHash("0x01"), nil
}

func (f *fakeContract) AwaitConfirmation(ctx context.Context, txHash common.Hash, confirmations uint64) (*types.Receipt, error) {
	f.mu.Lock()
	f.awaitCalls++
	fn := f.awaitFn
	f.mu.Unlock()
	if fn != nil {
		return fn(ctx, txHash, confirmations)
	}
	return &types.Receipt{Status: types.ReceiptStatusSuccessful}, nil
}

func (f *fakeContract) BalanceOf(ctx context.Context, token, owner common.Address) (*big.Int, error) {
	f.mu.Lock()
	f.balanceCalls++
	fn := f.balanceFn
	f.mu.Unlock()
	if fn != nil {
		return fn(ctx, token, owner)
	}
	return big.NewInt(0), nil
}

func (f *fakeContract) calls() (submit, await, balance int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.submitCalls, f.awaitCalls, f.balanceCalls
}

type fakeSessions struct {
	mu      sync.Mutex
	session wallet.Session
}

func (f *fakeSessions) Current() wallet.Session {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.session
}

type fakeSigner struct {
	addr common.Address
}

func (f *fakeSigner) Address() common.Address {
	return f.addr
}

func (f *fakeSigner) SignTx(tx *types.Transaction, chainID *big.Int) (*types.Transaction, error) {
	return tx, nil
}

type fakeStore struct {
	mu      sync.Mutex
	saved   map[uuid.UUID]*Attempt
	deleted []uuid.UUID
}

func newFakeStore() *fakeStore {
	return &fakeStore{saved: make(map[uuid.UUID]*Attempt)}
}

func (f *fakeStore) Save(ctx context.Context, attempt *Attempt) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.saved[attempt.ID] = attempt
	return nil
}

func (f *fakeStore) Load(ctx context.Context, id uuid.UUID) (*Attempt, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if a, ok := f.saved[id]; ok {
		return a, nil
	}
	return nil, ErrAttemptNotFound
}

func (f *fakeStore) Delete(ctx context.Context, id uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.saved, id)
	f.deleted = append(f.deleted, id)
	return nil
}

type fakePublisher struct {
	mu        sync.Mutex
	published []*Attempt
}

func (f *fakePublisher) PublishSpinResult(ctx context.Context, attempt *Attempt) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.published = append(f.published, attempt)
	return nil
}

func (f *fakePublisher) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.published)
}

func testValidatedConfig(t *testing.T) *ValidatedConfig {
	t.Helper()
	validated, err := ValidateConfig(validContractConfig())
	if err != nil {
		t.Fatalf("failed to validate test config: %v", err)
	}
	return validated
}

func connectedSession(chainID int64) wallet.Session {
	signer := &fakeSigner{addr: common.HexToAddress("0xabcdef0123456789abcdef0123456789abcdef01")}
	return wallet.Session{
		Address:   signer.Address(),
		ChainID:   chainID,
		Connected: true,
		Signer:    signer,
	}
}

func newTestOrchestrator(cfg *ValidatedConfig, sessions SessionSource, contract providers.WheelContract) *Orchestrator {
	return NewOrchestrator(OrchestratorOptions{
		Config:   cfg,
		Sessions: sessions,
		Contract: contract,
		Ledger:   NewLedger(contract, zerolog.Nop()),
		Logger:   zerolog.Nop(),
	})
}

func TestSpinNotConfigured(t *testing.T) {
	contract := &fakeContract{}
	sessions := &fakeSessions{session: connectedSession(421614)}
	o := newTestOrchestrator(nil, sessions, contract)

	attempt, err := o.Spin(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if attempt.State != StateFailed {
		t.Errorf("expected state failed, got %s", attempt.State)
	}
	if attempt.Failure != FailureNotConfigured {
		t.Errorf("expected failure not_configured, got %s", attempt.Failure)
	}

	submit, await, balance := contract.calls()
	if submit != 0 || await != 0 || balance != 0 {
		t.Errorf("expected zero contract calls, got submit=%d await=%d balance=%d", submit, await, balance)
	}
}

func TestSpinNotConnected(t *testing.T) {
	contract := &fakeContract{}
	sessions := &fakeSessions{} // zero session, disconnected
	o := newTestOrchestrator(testValidatedConfig(t), sessions, contract)

	attempt, err := o.Spin(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if attempt.Failure != FailureNotConnected {
		t.Errorf("expected failure not_connected, got %s", attempt.Failure)
	}
	if submit, _, _ := contract.calls(); submit != 0 {
		t.Errorf("expected no submission, got %d calls", submit)
	}
}

func TestSpinWrongNetwork(t *testing.T) {
	contract := &fakeContract{}
	sessions := &fakeSessions{session: connectedSession(1)} // mainnet, expected 421614
	o := newTestOrchestrator(testValidatedConfig(t), sessions, contract)

	attempt, err := o.Spin(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if attempt.Failure != FailureWrongNetwork {
		t.Errorf("expected failure wrong_network, got %s", attempt.Failure)
	}
	if attempt.Failure == FailureNotConnected {
		t.Error("wrong network must not be reported as not connected")
	}
	if submit, _, _ := contract.calls(); submit != 0 {
		t.Errorf("expected no submission, got %d calls", submit)
	}
}

func TestSpinSuccess(t *testing.T) {
	balances := map[common.Address]*big.Int{
		common.HexToAddress(tokenAddrA): big.NewInt(10),
		common.HexToAddress(tokenAddrB): big.NewInt(0),
		common.HexToAddress(tokenAddrC): big.NewInt(5),
	}
	contract := &fakeContract{
		balanceFn: func(ctx context.Context, token, owner common.Address) (*big.Int, error) {
			return balances[token], nil
		},
	}
	sessions := &fakeSessions{session: connectedSession(421614)}
	store := newFakeStore()
	events := &fakePublisher{}

	o := NewOrchestrator(OrchestratorOptions{
		Config:   testValidatedConfig(t),
		Sessions: sessions,
		Contract: contract,
		Ledger:   NewLedger(contract, zerolog.Nop()),
		Store:    store,
		Events:   events,
		Logger:   zerolog.Nop(),
	})

	attempt, err := o.Spin(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if attempt.State != StateSucceeded {
		t.Fatalf("expected state succeeded, got %s (failure %s)", attempt.State, attempt.Failure)
	}
	if attempt.TxHash == (common.Hash{}) {
		t.Error("expected a transaction hash on the attempt")
	}

	// Every configured token must appear, zero balances included.
	if len(attempt.Rewards) != 3 {
		t.Fatalf("expected 3 reward entries, got %d", len(attempt.Rewards))
	}
	wantAmounts := map[string]int64{"AIDOGE": 10, "BOOP": 0, "BOBOTRUM": 5}
	for _, grant := range attempt.Rewards {
		want, ok := wantAmounts[grant.TokenSymbol]
		if !ok {
			t.Errorf("unexpected reward token %s", grant.TokenSymbol)
			continue
		}
		if grant.Amount.Int64() != want {
			t.Errorf("token %s: expected amount %d, got %s", grant.TokenSymbol, want, grant.Amount)
		}
	}

	if o.Current() != nil {
		t.Error("expected no in-flight attempt after a terminal spin")
	}

	got, err := o.Attempt(context.Background(), attempt.ID)
	if err != nil {
		t.Fatalf("expected attempt to remain queryable: %v", err)
	}
	if got.State != StateSucceeded {
		t.Errorf("expected queried state succeeded, got %s", got.State)
	}

	if _, ok := store.saved[attempt.ID]; !ok {
		t.Error("expected terminal attempt to be persisted")
	}
	if events.count() != 1 {
		t.Errorf("expected 1 published result, got %d", events.count())
	}
}

func TestSpinAlreadyInProgress(t *testing.T) {
	started := make(chan struct{})
	release := make(chan struct{})
	var once sync.Once

	contract := &fakeContract{
		submitFn: func(ctx context.Context, signer wallet.Signer) (common.Hash, error) {
			once.Do(func() { close(started) })
			<-release
			return common.HexToHash("0x01"), nil
		},
	}
	sessions := &fakeSessions{session: connectedSession(421614)}
	o := newTestOrchestrator(testValidatedConfig(t), sessions, contract)

	done := make(chan *Attempt, 1)
	go func() {
		attempt, _ := o.Spin(context.Background())
		done <- attempt
	}()

	<-started

	if _, err := o.Spin(context.Background()); !errors.Is(err, ErrAlreadyInProgress) {
		t.Errorf("expected ErrAlreadyInProgress, got %v", err)
	}

	close(release)
	first := <-done
	if first.State != StateSucceeded {
		t.Errorf("expected first attempt to succeed, got %s (failure %s)", first.State, first.Failure)
	}

	// The rejected second request must not have consumed a submission.
	if submit, _, _ := contract.calls(); submit != 1 {
		t.Errorf("expected exactly 1 submission, got %d", submit)
	}

	// The slot is free again after the first attempt finished.
	if _, err := o.Spin(context.Background()); err != nil {
		t.Errorf("expected a fresh spin to start after completion, got %v", err)
	}
}

func TestSpinSubmissionRejected(t *testing.T) {
	contract := &fakeContract{
		submitFn: func(ctx context.Context, signer wallet.Signer) (common.Hash, error) {
			return common.Hash{}, fmt.Errorf("%w: insufficient funds", providers.ErrSubmissionRejected)
		},
	}
	sessions := &fakeSessions{session: connectedSession(421614)}
	o := newTestOrchestrator(testValidatedConfig(t), sessions, contract)

	attempt, err := o.Spin(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if attempt.Failure != FailureSubmissionRejected {
		t.Errorf("expected failure submission_rejected, got %s", attempt.Failure)
	}
	if attempt.Failure.Retryable() {
		t.Error("a rejected submission must not be marked retryable")
	}
	if attempt.Failure.Recheckable() {
		t.Error("a rejected submission must not be recheckable")
	}
}

func TestSpinNetworkUnavailable(t *testing.T) {
	contract := &fakeContract{
		submitFn: func(ctx context.Context, signer wallet.Signer) (common.Hash, error) {
			return common.Hash{}, fmt.Errorf("%w: connection refused", providers.ErrNetworkUnavailable)
		},
	}
	sessions := &fakeSessions{session: connectedSession(421614)}
	o := newTestOrchestrator(testValidatedConfig(t), sessions, contract)

	attempt, err := o.Spin(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if attempt.Failure != FailureNetworkUnavailable {
		t.Errorf("expected failure network_unavailable, got %s", attempt.Failure)
	}
	if !attempt.Failure.Retryable() {
		t.Error("a broadcast failure before acceptance is safe to retry")
	}
}

func TestSpinConfirmationTimeout(t *testing.T) {
	contract := &fakeContract{
		awaitFn: func(ctx context.Context, txHash common.Hash, confirmations uint64) (*types.Receipt, error) {
			return nil, context.DeadlineExceeded
		},
	}
	sessions := &fakeSessions{session: connectedSession(421614)}
	o := newTestOrchestrator(testValidatedConfig(t), sessions, contract)

	attempt, err := o.Spin(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if attempt.Failure != FailureConfirmationTimeout {
		t.Errorf("expected failure confirmation_timeout, got %s", attempt.Failure)
	}
	if attempt.Failure == FailureSubmissionRejected {
		t.Error("an expired wait must never be reported as rejection")
	}
	if !attempt.Failure.Recheckable() {
		t.Error("a timed-out confirmation must stay recheckable")
	}
	if !attempt.Failure.Ambiguous() {
		t.Error("a timed-out confirmation has an unknown on-chain outcome")
	}
	if attempt.TxHash == (common.Hash{}) {
		t.Error("the transaction hash must be retained for recheck")
	}
}

func TestSpinRevertedOnChain(t *testing.T) {
	contract := &fakeContract{
		awaitFn: func(ctx context.Context, txHash common.Hash, confirmations uint64) (*types.Receipt, error) {
			return &types.Receipt{Status: types.ReceiptStatusFailed}, nil
		},
	}
	sessions := &fakeSessions{session: connectedSession(421614)}
	o := newTestOrchestrator(testValidatedConfig(t), sessions, contract)

	attempt, err := o.Spin(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if attempt.Failure != FailureSubmissionRejected {
		t.Errorf("expected a reverted receipt to report submission_rejected, got %s", attempt.Failure)
	}
	if _, _, balance := contract.calls(); balance != 0 {
		t.Errorf("expected no reconciliation after a revert, got %d balance reads", balance)
	}
}

func TestRecheckAfterReconciliationFailure(t *testing.T) {
	failReads := true
	var mu sync.Mutex

	contract := &fakeContract{}
	contract.balanceFn = func(ctx context.Context, token, owner common.Address) (*big.Int, error) {
		mu.Lock()
		failing := failReads
		mu.Unlock()
		if failing {
			return nil, fmt.Errorf("%w: rpc down", providers.ErrNetworkUnavailable)
		}
		return big.NewInt(7), nil
	}
	sessions := &fakeSessions{session: connectedSession(421614)}
	o := newTestOrchestrator(testValidatedConfig(t), sessions, contract)

	attempt, err := o.Spin(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if attempt.Failure != FailureReconciliationFailed {
		t.Fatalf("expected failure reconciliation_failed, got %s", attempt.Failure)
	}
	if attempt.Failure == FailureSubmissionRejected || attempt.Failure == FailureConfirmationTimeout {
		t.Error("a failed reward read after confirmation is its own failure kind")
	}

	mu.Lock()
	failReads = false
	mu.Unlock()

	submitBefore, _, _ := contract.calls()

	rechecked, err := o.Recheck(context.Background(), attempt.ID)
	if err != nil {
		t.Fatalf("unexpected recheck error: %v", err)
	}
	if rechecked.State != StateSucceeded {
		t.Errorf("expected recheck to succeed, got %s (failure %s)", rechecked.State, rechecked.Failure)
	}
	if rechecked.TxHash != attempt.TxHash {
		t.Error("recheck must resolve against the original transaction hash")
	}

	submitAfter, _, _ := contract.calls()
	if submitAfter != submitBefore {
		t.Errorf("recheck must never re-broadcast: submissions went %d -> %d", submitBefore, submitAfter)
	}
}

func TestRecheckAfterConfirmationTimeout(t *testing.T) {
	timedOut := true
	var mu sync.Mutex

	contract := &fakeContract{
		awaitFn: func(ctx context.Context, txHash common.Hash, confirmations uint64) (*types.Receipt, error) {
			mu.Lock()
			defer mu.Unlock()
			if timedOut {
				return nil, context.DeadlineExceeded
			}
			return &types.Receipt{Status: types.ReceiptStatusSuccessful}, nil
		},
	}
	sessions := &fakeSessions{session: connectedSession(421614)}
	o := newTestOrchestrator(testValidatedConfig(t), sessions, contract)

	attempt, err := o.Spin(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if attempt.Failure != FailureConfirmationTimeout {
		t.Fatalf("expected failure confirmation_timeout, got %s", attempt.Failure)
	}

	mu.Lock()
	timedOut = false
	mu.Unlock()

	rechecked, err := o.Recheck(context.Background(), attempt.ID)
	if err != nil {
		t.Fatalf("unexpected recheck error: %v", err)
	}
	if rechecked.State != StateSucceeded {
		t.Errorf("expected recheck to succeed, got %s (failure %s)", rechecked.State, rechecked.Failure)
	}

	// The confirmation wait ran again for the same hash.
	_, await, _ := contract.calls()
	if await != 2 {
		t.Errorf("expected 2 confirmation waits, got %d", await)
	}
}

func TestRecheckRefusedForFinalOutcomes(t *testing.T) {
	contract := &fakeContract{
		submitFn: func(ctx context.Context, signer wallet.Signer) (common.Hash, error) {
			return common.Hash{}, fmt.Errorf("%w: execution reverted", providers.ErrSubmissionRejected)
		},
	}
	sessions := &fakeSessions{session: connectedSession(421614)}
	o := newTestOrchestrator(testValidatedConfig(t), sessions, contract)

	attempt, err := o.Spin(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if attempt.Failure != FailureSubmissionRejected {
		t.Fatalf("expected failure submission_rejected, got %s", attempt.Failure)
	}

	if _, err := o.Recheck(context.Background(), attempt.ID); !errors.Is(err, ErrNotRecheckable) {
		t.Errorf("expected ErrNotRecheckable, got %v", err)
	}
}

func TestRecheckRefusedOnDegradedBoot(t *testing.T) {
	// A previous healthy run left a recheckable attempt in the store; this
	// run booted without a usable contract configuration.
	store := newFakeStore()
	stored := &Attempt{
		ID:      uuid.New(),
		State:   StateFailed,
		Failure: FailureConfirmationTimeout,
		TxHash:  common.HexToHash("0x01"),
	}
	if err := store.Save(context.Background(), stored); err != nil {
		t.Fatalf("failed to seed store: %v", err)
	}

	o := NewOrchestrator(OrchestratorOptions{
		Sessions: &fakeSessions{},
		Ledger:   NewLedger(nil, zerolog.Nop()),
		Store:    store,
		Logger:   zerolog.Nop(),
	})

	if _, err := o.Recheck(context.Background(), stored.ID); !errors.Is(err, ErrNotConfigured) {
		t.Fatalf("expected ErrNotConfigured, got %v", err)
	}

	// The stored attempt is untouched and stays recheckable for a later,
	// correctly configured run.
	loaded, err := store.Load(context.Background(), stored.ID)
	if err != nil {
		t.Fatalf("expected the attempt to survive: %v", err)
	}
	if loaded.Failure != FailureConfirmationTimeout {
		t.Errorf("expected failure confirmation_timeout preserved, got %s", loaded.Failure)
	}
	if o.Current() != nil {
		t.Error("expected the in-flight slot to stay free")
	}
}

func TestRecheckUnknownAttempt(t *testing.T) {
	contract := &fakeContract{}
	sessions := &fakeSessions{session: connectedSession(421614)}
	o := newTestOrchestrator(testValidatedConfig(t), sessions, contract)

	if _, err := o.Recheck(context.Background(), uuid.New()); !errors.Is(err, ErrAttemptNotFound) {
		t.Errorf("expected ErrAttemptNotFound, got %v", err)
	}
}

func TestAcknowledgeEvictsAttempt(t *testing.T) {
	contract := &fakeContract{}
	sessions := &fakeSessions{session: connectedSession(421614)}
	o := newTestOrchestrator(testValidatedConfig(t), sessions, contract)

	attempt, err := o.Spin(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if err := o.Acknowledge(context.Background(), attempt.ID); err != nil {
		t.Fatalf("unexpected acknowledge error: %v", err)
	}
	if _, err := o.Attempt(context.Background(), attempt.ID); !errors.Is(err, ErrAttemptNotFound) {
		t.Errorf("expected the attempt to be evicted, got %v", err)
	}
	if err := o.Acknowledge(context.Background(), attempt.ID); !errors.Is(err, ErrAttemptNotFound) {
		t.Errorf("expected a second acknowledge to report not found, got %v", err)
	}
}

func TestAcknowledgeUnknownAttemptWithStore(t *testing.T) {
	// The store's delete is a no-op for missing keys and must not turn an
	// unknown id into a successful acknowledgement.
	contract := &fakeContract{}
	sessions := &fakeSessions{session: connectedSession(421614)}
	store := newFakeStore()

	o := NewOrchestrator(OrchestratorOptions{
		Config:   testValidatedConfig(t),
		Sessions: sessions,
		Contract: contract,
		Ledger:   NewLedger(contract, zerolog.Nop()),
		Store:    store,
		Logger:   zerolog.Nop(),
	})

	if err := o.Acknowledge(context.Background(), uuid.New()); !errors.Is(err, ErrAttemptNotFound) {
		t.Errorf("expected ErrAttemptNotFound for an unknown id, got %v", err)
	}
	if len(store.deleted) != 0 {
		t.Errorf("expected no store delete for an unknown id, got %v", store.deleted)
	}
}

func TestAcknowledgeStoreOnlyAttempt(t *testing.T) {
	// An attempt known only to the store, e.g. after a restart, is still
	// acknowledgeable.
	store := newFakeStore()
	stored := &Attempt{
		ID:      uuid.New(),
		State:   StateFailed,
		Failure: FailureSubmissionRejected,
		TxHash:  common.HexToHash("0x01"),
	}
	if err := store.Save(context.Background(), stored); err != nil {
		t.Fatalf("failed to seed store: %v", err)
	}

	contract := &fakeContract{}
	o := NewOrchestrator(OrchestratorOptions{
		Config:   testValidatedConfig(t),
		Sessions: &fakeSessions{},
		Contract: contract,
		Ledger:   NewLedger(contract, zerolog.Nop()),
		Store:    store,
		Logger:   zerolog.Nop(),
	})

	if err := o.Acknowledge(context.Background(), stored.ID); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := store.Load(context.Background(), stored.ID); !errors.Is(err, ErrAttemptNotFound) {
		t.Errorf("expected the stored attempt to be evicted, got %v", err)
	}
}

func TestAttemptSnapshotIsolation(t *testing.T) {
	contract := &fakeContract{
		balanceFn: func(ctx context.Context, token, owner common.Address) (*big.Int, error) {
			return big.NewInt(3), nil
		},
	}
	sessions := &fakeSessions{session: connectedSession(421614)}
	o := newTestOrchestrator(testValidatedConfig(t), sessions, contract)

	attempt, err := o.Spin(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	attempt.Rewards[0].TokenSymbol = "TAMPERED"
	attempt.State = StateIdle

	fresh, err := o.Attempt(context.Background(), attempt.ID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if fresh.State != StateSucceeded {
		t.Errorf("expected internal state untouched, got %s", fresh.State)
	}
	if fresh.Rewards[0].TokenSymbol == "TAMPERED" {
		t.Error("expected reward slice to be copied per snapshot")
	}
}

func TestSpinUsesDefaultTimeouts(t *testing.T) {
	o := NewOrchestrator(OrchestratorOptions{Logger: zerolog.Nop()})
	if o.confirmations != defaultConfirmations {
		t.Errorf("expected default confirmations %d, got %d", defaultConfirmations, o.confirmations)
	}
	if o.confirmTimeout != defaultConfirmationTimeout {
		t.Errorf("expected default timeout %s, got %s", defaultConfirmationTimeout, o.confirmTimeout)
	}
}
