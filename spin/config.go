package spin

import (
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/common"
)

// PlaceholderAddress is the sentinel left in static configuration before a
// real deployment address is filled in. Configurations carrying it must be
// refused before any network call is attempted.
const PlaceholderAddress = "0x0000000000000000000000000000000000000000"

// ConfigErrorKind classifies contract configuration failures.
type ConfigErrorKind int

const (
	ConfigMissingAddress ConfigErrorKind = iota + 1
	ConfigMalformedAddress
	ConfigDuplicateToken
)

// String returns the kind name.
func (k ConfigErrorKind) String() string {
	switch k {
	case ConfigMissingAddress:
		return "missing_address"
	case ConfigMalformedAddress:
		return "malformed_address"
	case ConfigDuplicateToken:
		return "duplicate_token"
	default:
		return "unknown"
	}
}

// ConfigError reports why a contract configuration was rejected.
type ConfigError struct {
	Kind   ConfigErrorKind
	Detail string
}

// Error implements the error interface.
func (e *ConfigError) Error() string {
	return fmt.Sprintf("contract config %s: %s", e.Kind, e.Detail)
}

// TokenConfig is one reward token entry from static configuration.
type TokenConfig struct {
	Symbol   string `mapstructure:"symbol" json:"symbol"`
	Address  string `mapstructure:"address" json:"address"`
	Decimals int32  `mapstructure:"decimals" json:"decimals"`
}

// ContractConfig is the raw, unvalidated contract configuration loaded once
// at startup. It never mutates; a new deployment means a new instance.
type ContractConfig struct {
	WheelGameAddress string        `mapstructure:"wheel_game_address" json:"wheelGameAddress"`
	RewardTokens     []TokenConfig `mapstructure:"reward_tokens" json:"rewardTokens"`
	ChainID          int64         `mapstructure:"chain_id" json:"chainId"`
}

// Token is a validated reward token.
type Token struct {
	Symbol   string
	Address  common.Address
	Decimals int32
}

// ValidatedConfig is the capability token every chain-touching component
// requires. It is only obtainable through ValidateConfig, so holding one
// proves the configuration passed validation.
type ValidatedConfig struct {
	wheelGame common.Address
	tokens    []Token
	chainID   int64
}

// WheelGame returns the deployed wheel game contract address.
func (c *ValidatedConfig) WheelGame() common.Address {
	return c.wheelGame
}

// Tokens returns the configured reward tokens in configuration order.
func (c *ValidatedConfig) Tokens() []Token {
	out := make([]Token, len(c.tokens))
	copy(out, c.tokens)
	return out
}

// ChainID returns the expected chain id.
func (c *ValidatedConfig) ChainID() int64 {
	return c.chainID
}

// ValidateConfig checks the contract configuration without touching the
// network. It is the only constructor for ValidatedConfig.
func ValidateConfig(cfg ContractConfig) (*ValidatedConfig, error) {
	raw := strings.TrimSpace(cfg.WheelGameAddress)
	if raw == "" || strings.EqualFold(raw, PlaceholderAddress) {
		return nil, &ConfigError{
			Kind:   ConfigMissingAddress,
			Detail: "wheel game address is empty or still the placeholder",
		}
	}

	wheel, err := parseAddress(raw)
	if err != nil {
		return nil, &ConfigError{
			Kind:   ConfigMalformedAddress,
			Detail: fmt.Sprintf("wheel game address %q: %v", raw, err),
		}
	}

	if cfg.ChainID <= 0 {
		return nil, &ConfigError{
			Kind:   ConfigMalformedAddress,
			Detail: fmt.Sprintf("chain id %d is not a valid network id", cfg.ChainID),
		}
	}

	seen := map[common.Address]string{wheel: "wheel game contract"}
	tokens := make([]Token, 0, len(cfg.RewardTokens))
	for _, tc := range cfg.RewardTokens {
		if strings.TrimSpace(tc.Symbol) == "" {
			return nil, &ConfigError{
				Kind:   ConfigMalformedAddress,
				Detail: fmt.Sprintf("reward token %q has no symbol", tc.Address),
			}
		}

		addr, err := parseAddress(strings.TrimSpace(tc.Address))
		if err != nil {
			return nil, &ConfigError{
				Kind:   ConfigMalformedAddress,
				Detail: fmt.Sprintf("token %s address %q: %v", tc.Symbol, tc.Address, err),
			}
		}
		if addr == (common.Address{}) {
			return nil, &ConfigError{
				Kind:   ConfigMalformedAddress,
				Detail: fmt.Sprintf("token %s address is the zero address", tc.Symbol),
			}
		}

		if prev, ok := seen[addr]; ok {
			return nil, &ConfigError{
				Kind:   ConfigDuplicateToken,
				Detail: fmt.Sprintf("token %s shares address %s with %s", tc.Symbol, addr.Hex(), prev),
			}
		}
		seen[addr] = "token " + tc.Symbol

		tokens = append(tokens, Token{
			Symbol:   tc.Symbol,
			Address:  addr,
			Decimals: tc.Decimals,
		})
	}

	return &ValidatedConfig{
		wheelGame: wheel,
		tokens:    tokens,
		chainID:   cfg.ChainID,
	}, nil
}

// parseAddress validates hex format and, for mixed-case input, the EIP-55
// checksum. All-lowercase and all-uppercase inputs carry no checksum.
func parseAddress(raw string) (common.Address, error) {
	if raw == "" {
		return common.Address{}, fmt.Errorf("empty address")
	}
	if !common.IsHexAddress(raw) {
		return common.Address{}, fmt.Errorf("not a hex address")
	}

	addr := common.HexToAddress(raw)
	stripped := strings.TrimPrefix(raw, "0x")
	if stripped != strings.ToLower(stripped) && stripped != strings.ToUpper(stripped) {
		if raw != addr.Hex() {
			return common.Address{}, fmt.Errorf("checksum mismatch")
		}
	}

	return addr, nil
}
