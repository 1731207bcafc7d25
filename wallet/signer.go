package wallet

import (
	"crypto/ecdsa"
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
)

// Signer is the capability a connected wallet session exposes for signing
// transactions. The orchestrator never sees key material, only this handle.
type Signer interface {
	// Address returns the account the signer signs for.
	Address() common.Address

	// SignTx signs the transaction for the given chain id.
	SignTx(tx *types.Transaction, chainID *big.Int) (*types.Transaction, error)
}

// PrivateKeySigner signs with an in-process ECDSA key. Used when the service
// itself holds the spinning account (operator mode) and in tests.
type PrivateKeySigner struct {
	key  *ecdsa.PrivateKey
	addr common.Address
}

// NewPrivateKeySigner creates a signer from a hex-encoded private key.
func NewPrivateKeySigner(hexKey string) (*PrivateKeySigner, error) {
	key, err := crypto.HexToECDSA(strings.TrimPrefix(hexKey, "0x"))
	if err != nil {
		return nil, fmt.Errorf("failed to parse private key: %w", err)
	}
	return &PrivateKeySigner{
		key:  key,
		addr: crypto.PubkeyToAddress(key.PublicKey),
	}, nil
}

// Address returns the account derived from the private key.
func (s *PrivateKeySigner) Address() common.Address {
	return s.addr
}

// SignTx signs tx with the EIP-155 signer for chainID.
func (s *PrivateKeySigner) SignTx(tx *types.Transaction, chainID *big.Int) (*types.Transaction, error) {
	signed, err := types.SignTx(tx, types.LatestSignerForChainID(chainID), s.key)
	if err != nil {
		return nil, fmt.Errorf("failed to sign transaction: %w", err)
	}
	return signed, nil
}
