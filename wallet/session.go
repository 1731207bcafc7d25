package wallet

import (
	"sync"

	"github.com/ethereum/go-ethereum/common"
	"github.com/rs/zerolog"
)

// Status describes the session relative to the configured chain.
// WrongNetwork is deliberately distinct from Disconnected: the remediation
// differs (prompt a network switch vs. prompt a connect).
type Status int

const (
	StatusDisconnected Status = iota
	StatusWrongNetwork
	StatusConnected
)

// String returns the status name.
func (s Status) String() string {
	switch s {
	case StatusConnected:
		return "connected"
	case StatusWrongNetwork:
		return "wrong_network"
	default:
		return "disconnected"
	}
}

// Session is a point-in-time snapshot of the wallet connection. Consumers
// sample it when they need it and never cache it across a transaction's
// lifetime; the user may disconnect mid-flight.
type Session struct {
	Address   common.Address
	ChainID   int64
	Connected bool
	Signer    Signer
}

// Status classifies the session against the expected chain id.
func (s Session) Status(expectedChainID int64) Status {
	if !s.Connected || s.Signer == nil {
		return StatusDisconnected
	}
	if s.ChainID != expectedChainID {
		return StatusWrongNetwork
	}
	return StatusConnected
}

// Listener receives the new session snapshot after a change.
type Listener func(Session)

// SessionProvider owns the current wallet session and notifies listeners on
// connect, disconnect, account switch and chain switch.
type SessionProvider struct {
	mu        sync.RWMutex
	session   Session
	listeners []Listener
	logger    zerolog.Logger
}

// NewSessionProvider creates a provider with no connected session.
func NewSessionProvider(logger zerolog.Logger) *SessionProvider {
	return &SessionProvider{
		logger: logger.With().Str("component", "wallet_session").Logger(),
	}
}

// Current returns a snapshot of the session.
func (p *SessionProvider) Current() Session {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.session
}

// OnChange registers a listener fired after every session mutation.
func (p *SessionProvider) OnChange(l Listener) {
	p.mu.Lock()
	p.listeners = append(p.listeners, l)
	p.mu.Unlock()
}

// Connect attaches a signer on the given chain.
func (p *SessionProvider) Connect(signer Signer, chainID int64) {
	p.update(func(s *Session) {
		s.Address = signer.Address()
		s.ChainID = chainID
		s.Connected = true
		s.Signer = signer
	})
	p.logger.Info().
		Str("address", signer.Address().Hex()).
		Int64("chain_id", chainID).
		Msg("Wallet connected")
}

// Disconnect clears the session.
func (p *SessionProvider) Disconnect() {
	p.update(func(s *Session) {
		*s = Session{}
	})
	p.logger.Info().Msg("Wallet disconnected")
}

// SwitchChain changes the chain id while keeping the account.
func (p *SessionProvider) SwitchChain(chainID int64) {
	p.update(func(s *Session) {
		s.ChainID = chainID
	})
	p.logger.Info().Int64("chain_id", chainID).Msg("Wallet chain switched")
}

// SwitchAccount replaces the signer while keeping the chain.
func (p *SessionProvider) SwitchAccount(signer Signer) {
	p.update(func(s *Session) {
		s.Address = signer.Address()
		s.Signer = signer
		s.Connected = true
	})
	p.logger.Info().Str("address", signer.Address().Hex()).Msg("Wallet account switched")
}

// update applies the mutation under the lock, then notifies listeners with
// the new snapshot outside of it.
func (p *SessionProvider) update(mutate func(*Session)) {
	p.mu.Lock()
	mutate(&p.session)
	snapshot := p.session
	listeners := make([]Listener, len(p.listeners))
	copy(listeners, p.listeners)
	p.mu.Unlock()

	for _, l := range listeners {
		l(snapshot)
	}
}
