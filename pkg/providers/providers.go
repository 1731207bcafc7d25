package providers

import (
	"context"
	"errors"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"

	"github.com/cookedzera/farcaster-spin/wallet"
)

// Sentinel errors for the on-chain boundary. Implementations wrap these so
// callers can classify outcomes with errors.Is.
var (
	// ErrSubmissionRejected means the signer or the node refused the
	// transaction itself (bad signature, insufficient funds, revert).
	// Re-broadcasting without explicit user consent is not safe.
	ErrSubmissionRejected = errors.New("spin submission rejected")

	// ErrNetworkUnavailable means the RPC endpoint could not be reached.
	// The operation may be retried by the caller.
	ErrNetworkUnavailable = errors.New("chain network unavailable")
)

// WheelContract is the public call surface of the deployed wheel game
// contract. The contract's internal logic is opaque; this interface is the
// only way the rest of the module talks to it.
type WheelContract interface {
	// SubmitSpin broadcasts a spin transaction signed by the given signer
	// and returns the transaction hash once the node accepts it.
	SubmitSpin(ctx context.Context, signer wallet.Signer) (common.Hash, error)

	// AwaitConfirmation blocks until the transaction has the requested
	// confirmation depth or ctx expires.
	AwaitConfirmation(ctx context.Context, txHash common.Hash, confirmations uint64) (*types.Receipt, error)

	// BalanceOf reads the ERC20 balance of owner for the given token.
	BalanceOf(ctx context.Context, token, owner common.Address) (*big.Int, error)
}

// DirectoryProfile is the payload returned by the identity directory.
// All fields are optional; absent fields decode to empty strings.
type DirectoryProfile struct {
	Username    string `json:"username,omitempty"`
	DisplayName string `json:"display_name,omitempty"`
	AvatarURL   string `json:"avatar_url,omitempty"`
	Bio         string `json:"bio,omitempty"`
}

// Directory is a best-effort lookup against the social identity hub.
// A failed lookup must never gate identity resolution.
type Directory interface {
	Profile(ctx context.Context, fid int64) (*DirectoryProfile, error)
}
