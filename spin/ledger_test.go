package spin

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/rs/zerolog"

	"github.com/cookedzera/farcaster-spin/pkg/providers"
)

func TestLedgerRefreshCoversEveryToken(t *testing.T) {
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
	ledger := NewLedger(contract, zerolog.Nop())
	owner := common.HexToAddress("0xabcdef0123456789abcdef0123456789abcdef01")

	snapshot, err := ledger.Refresh(context.Background(), testValidatedConfig(t), owner)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if snapshot.Owner != owner {
		t.Errorf("expected owner %s, got %s", owner.Hex(), snapshot.Owner.Hex())
	}
	if len(snapshot.Entries) != 3 {
		t.Fatalf("expected 3 entries, got %d", len(snapshot.Entries))
	}

	// Entries follow configuration order, zero balances included.
	wantSymbols := []string{"AIDOGE", "BOOP", "BOBOTRUM"}
	wantAmounts := []int64{10, 0, 5}
	for i, entry := range snapshot.Entries {
		if entry.TokenSymbol != wantSymbols[i] {
			t.Errorf("entry %d: expected symbol %s, got %s", i, wantSymbols[i], entry.TokenSymbol)
		}
		if entry.Amount.Int64() != wantAmounts[i] {
			t.Errorf("entry %d: expected amount %d, got %s", i, wantAmounts[i], entry.Amount)
		}
		if entry.ObservedAt.IsZero() {
			t.Errorf("entry %d: expected an observation timestamp", i)
		}
	}

	if ledger.Last() != snapshot {
		t.Error("expected Last to return the snapshot just taken")
	}
}

func TestLedgerRefreshAllOrNothing(t *testing.T) {
	failing := common.HexToAddress(tokenAddrB)
	contract := &fakeContract{
		balanceFn: func(ctx context.Context, token, owner common.Address) (*big.Int, error) {
			if token == failing {
				return nil, fmt.Errorf("%w: rpc down", providers.ErrNetworkUnavailable)
			}
			return big.NewInt(1), nil
		},
	}
	ledger := NewLedger(contract, zerolog.Nop())
	cfg := testValidatedConfig(t)
	owner := common.HexToAddress("0xabcdef0123456789abcdef0123456789abcdef01")

	snapshot, err := ledger.Refresh(context.Background(), cfg, owner)
	if err == nil {
		t.Fatal("expected an error when one read fails")
	}
	if snapshot != nil {
		t.Error("expected no snapshot on a partial failure")
	}

	var partial *PartialReadError
	if !errors.As(err, &partial) {
		t.Fatalf("expected *PartialReadError, got %T", err)
	}
	if len(partial.FailedTokens) != 1 || partial.FailedTokens[0] != "BOOP" {
		t.Errorf("expected failed tokens [BOOP], got %v", partial.FailedTokens)
	}
	if !errors.Is(err, providers.ErrNetworkUnavailable) {
		t.Error("expected the underlying cause to remain classifiable")
	}
}

func TestLedgerRefreshKeepsPreviousSnapshotOnFailure(t *testing.T) {
	fail := false
	contract := &fakeContract{
		balanceFn: func(ctx context.Context, token, owner common.Address) (*big.Int, error) {
			if fail {
				return nil, fmt.Errorf("%w: rpc down", providers.ErrNetworkUnavailable)
			}
			return big.NewInt(42), nil
		},
	}
	ledger := NewLedger(contract, zerolog.Nop())
	cfg := testValidatedConfig(t)
	owner := common.HexToAddress("0xabcdef0123456789abcdef0123456789abcdef01")

	good, err := ledger.Refresh(context.Background(), cfg, owner)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	fail = true
	if _, err := ledger.Refresh(context.Background(), cfg, owner); err == nil {
		t.Fatal("expected the second refresh to fail")
	}

	if ledger.Last() != good {
		t.Error("expected the previous complete snapshot to stay in place")
	}
}

func TestLedgerRefreshReportsEveryFailedToken(t *testing.T) {
	ok := common.HexToAddress(tokenAddrA)
	contract := &fakeContract{
		balanceFn: func(ctx context.Context, token, owner common.Address) (*big.Int, error) {
			if token == ok {
				return big.NewInt(1), nil
			}
			return nil, fmt.Errorf("%w: rpc down", providers.ErrNetworkUnavailable)
		},
	}
	ledger := NewLedger(contract, zerolog.Nop())
	owner := common.HexToAddress("0xabcdef0123456789abcdef0123456789abcdef01")

	_, err := ledger.Refresh(context.Background(), testValidatedConfig(t), owner)

	var partial *PartialReadError
	if !errors.As(err, &partial) {
		t.Fatalf("expected *PartialReadError, got %T", err)
	}
	if len(partial.FailedTokens) != 2 {
		t.Errorf("expected both failing tokens reported, got %v", partial.FailedTokens)
	}
}

func TestLedgerLastBeforeAnyRefresh(t *testing.T) {
	ledger := NewLedger(&fakeContract{}, zerolog.Nop())
	if ledger.Last() != nil {
		t.Error("expected no snapshot before the first refresh")
	}
}
