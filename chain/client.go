package chain

import (
	"context"
	"fmt"
	"math/big"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/rs/zerolog"

	"github.com/cookedzera/farcaster-spin/pkg/providers"
	"github.com/cookedzera/farcaster-spin/spin"
	"github.com/cookedzera/farcaster-spin/wallet"
)

const (
	wheelGameABI = `[{"name":"spin","type":"function","stateMutability":"nonpayable","inputs":[],"outputs":[]}]`
	erc20ABI     = `[{"name":"balanceOf","type":"function","stateMutability":"view","inputs":[{"name":"owner","type":"address"}],"outputs":[{"name":"","type":"uint256"}]}]`

	defaultGasLimit     = 300_000
	defaultPollInterval = 2 * time.Second
)

// Config holds chain client tuning.
type Config struct {
	GasLimit     uint64
	PollInterval time.Duration
}

// Client implements providers.WheelContract against a JSON-RPC endpoint.
// It requires a ValidatedConfig: an unvalidated contract address never
// reaches this package.
type Client struct {
	eth          *ethclient.Client
	wheel        common.Address
	chainID      *big.Int
	gasLimit     uint64
	pollInterval time.Duration
	spinCalldata []byte
	erc20        abi.ABI
	logger       zerolog.Logger
}

// Dial connects to the RPC endpoint for the validated deployment.
func Dial(ctx context.Context, rpcURL string, cfg *spin.ValidatedConfig, clientCfg Config, logger zerolog.Logger) (*Client, error) {
	eth, err := ethclient.DialContext(ctx, rpcURL)
	if err != nil {
		return nil, fmt.Errorf("failed to dial rpc endpoint: %w", err)
	}
	return New(eth, cfg, clientCfg, logger)
}

// New wraps an existing ethclient for the validated deployment.
func New(eth *ethclient.Client, cfg *spin.ValidatedConfig, clientCfg Config, logger zerolog.Logger) (*Client, error) {
	wheel, err := abi.JSON(strings.NewReader(wheelGameABI))
	if err != nil {
		return nil, fmt.Errorf("failed to parse wheel game abi: %w", err)
	}
	erc20, err := abi.JSON(strings.NewReader(erc20ABI))
	if err != nil {
		return nil, fmt.Errorf("failed to parse erc20 abi: %w", err)
	}
	calldata, err := wheel.Pack("spin")
	if err != nil {
		return nil, fmt.Errorf("failed to pack spin calldata: %w", err)
	}

	gasLimit := clientCfg.GasLimit
	if gasLimit == 0 {
		gasLimit = defaultGasLimit
	}
	pollInterval := clientCfg.PollInterval
	if pollInterval == 0 {
		pollInterval = defaultPollInterval
	}

	return &Client{
		eth:          eth,
		wheel:        cfg.WheelGame(),
		chainID:      big.NewInt(cfg.ChainID()),
		gasLimit:     gasLimit,
		pollInterval: pollInterval,
		spinCalldata: calldata,
		erc20:        erc20,
		logger:       logger.With().Str("component", "chain_client").Logger(),
	}, nil
}

// Close releases the underlying RPC connection.
func (c *Client) Close() {
	c.eth.Close()
}

// SubmitSpin builds, signs and broadcasts a spin transaction.
func (c *Client) SubmitSpin(ctx context.Context, signer wallet.Signer) (common.Hash, error) {
	from := signer.Address()

	nonce, err := c.eth.PendingNonceAt(ctx, from)
	if err != nil {
		return common.Hash{}, fmt.Errorf("%w: failed to fetch nonce: %v", providers.ErrNetworkUnavailable, err)
	}
	gasPrice, err := c.eth.SuggestGasPrice(ctx)
	if err != nil {
		return common.Hash{}, fmt.Errorf("%w: failed to fetch gas price: %v", providers.ErrNetworkUnavailable, err)
	}

	tx := types.NewTransaction(nonce, c.wheel, big.NewInt(0), c.gasLimit, gasPrice, c.spinCalldata)
	signed, err := signer.SignTx(tx, c.chainID)
	if err != nil {
		return common.Hash{}, fmt.Errorf("%w: signer refused: %v", providers.ErrSubmissionRejected, err)
	}

	if err := c.eth.SendTransaction(ctx, signed); err != nil {
		if isRejection(err) {
			return common.Hash{}, fmt.Errorf("%w: %v", providers.ErrSubmissionRejected, err)
		}
		return common.Hash{}, fmt.Errorf("%w: %v", providers.ErrNetworkUnavailable, err)
	}

	c.logger.Info().
		Str("tx_hash", signed.Hash().Hex()).
		Str("from", from.Hex()).
		Uint64("nonce", nonce).
		Msg("Spin transaction sent")

	return signed.Hash(), nil
}

// AwaitConfirmation polls for the receipt and then for the confirmation
// depth. It returns ctx.Err() when the wait is cut short; the transaction
// may still land afterwards.
func (c *Client) AwaitConfirmation(ctx context.Context, txHash common.Hash, confirmations uint64) (*types.Receipt, error) {
	ticker := time.NewTicker(c.pollInterval)
	defer ticker.Stop()

	for {
		receipt, err := c.eth.TransactionReceipt(ctx, txHash)
		if err == nil {
			confirmed, cerr := c.hasDepth(ctx, receipt, confirmations)
			if cerr != nil {
				return nil, cerr
			}
			if confirmed {
				return receipt, nil
			}
		} else if err != ethereum.NotFound {
			c.logger.Debug().Err(err).Str("tx_hash", txHash.Hex()).Msg("Receipt poll failed")
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-ticker.C:
		}
	}
}

// hasDepth checks whether the receipt's block has the requested depth.
func (c *Client) hasDepth(ctx context.Context, receipt *types.Receipt, confirmations uint64) (bool, error) {
	if confirmations <= 1 {
		return true, nil
	}
	head, err := c.eth.BlockNumber(ctx)
	if err != nil {
		if ctx.Err() != nil {
			return false, ctx.Err()
		}
		return false, nil
	}
	return head+1 >= receipt.BlockNumber.Uint64()+confirmations, nil
}

// BalanceOf reads an ERC20 balance through eth_call.
func (c *Client) BalanceOf(ctx context.Context, token, owner common.Address) (*big.Int, error) {
	calldata, err := c.erc20.Pack("balanceOf", owner)
	if err != nil {
		return nil, fmt.Errorf("failed to pack balanceOf calldata: %w", err)
	}

	result, err := c.eth.CallContract(ctx, ethereum.CallMsg{To: &token, Data: calldata}, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: balanceOf call failed for %s: %v", providers.ErrNetworkUnavailable, token.Hex(), err)
	}

	values, err := c.erc20.Unpack("balanceOf", result)
	if err != nil || len(values) != 1 {
		return nil, fmt.Errorf("failed to decode balanceOf result for %s: %v", token.Hex(), err)
	}
	amount, ok := values[0].(*big.Int)
	if !ok {
		return nil, fmt.Errorf("unexpected balanceOf result type %T for %s", values[0], token.Hex())
	}
	return amount, nil
}

// isRejection reports whether a send error is a node-side refusal of the
// transaction itself rather than a transport failure.
func isRejection(err error) bool {
	msg := strings.ToLower(err.Error())
	for _, marker := range []string{
		"insufficient funds",
		"nonce too low",
		"replacement transaction underpriced",
		"transaction underpriced",
		"execution reverted",
		"invalid sender",
		"exceeds block gas limit",
	} {
		if strings.Contains(msg, marker) {
			return true
		}
	}
	return false
}
