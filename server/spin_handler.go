package server

import (
	"github.com/ethereum/go-ethereum/common"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	apperrors "github.com/cookedzera/farcaster-spin/errors"
	"github.com/cookedzera/farcaster-spin/spin"
)

// SpinHandler exposes the spin orchestration flow over HTTP.
type SpinHandler struct {
	app    *App
	logger zerolog.Logger
}

// NewSpinHandler creates a new spin handler
func NewSpinHandler(app *App) *SpinHandler {
	return &SpinHandler{
		app:    app,
		logger: app.logger.With().Str("handler", "spin").Logger(),
	}
}

// RewardView is a reward grant with a human-readable amount.
type RewardView struct {
	TokenSymbol     string `json:"tokenSymbol"`
	Amount          string `json:"amount"`
	FormattedAmount string `json:"formattedAmount"`
}

// AttemptView is the API shape of a spin attempt.
type AttemptView struct {
	ID          string       `json:"id"`
	State       string       `json:"state"`
	Failure     string       `json:"failure,omitempty"`
	Retryable   bool         `json:"retryable"`
	Recheckable bool         `json:"recheckable"`
	TxHash      string       `json:"txHash,omitempty"`
	Rewards     []RewardView `json:"rewards,omitempty"`
	RequestedAt string       `json:"requestedAt"`
}

// Spin triggers a full spin attempt and returns its terminal snapshot.
// A failed attempt is still a 200: the outcome taxonomy lives in the
// payload so the client can pick the right remediation.
func (h *SpinHandler) Spin(c *gin.Context) {
	attempt, err := h.app.orchestrator.Spin(c.Request.Context())
	if err != nil {
		h.handleSpinError(c, err)
		return
	}
	OK(c, h.attemptView(attempt))
}

// Recheck re-runs the idempotent tail of an ambiguous attempt.
func (h *SpinHandler) Recheck(c *gin.Context) {
	id, ok := h.attemptID(c)
	if !ok {
		return
	}

	attempt, err := h.app.orchestrator.Recheck(c.Request.Context(), id)
	if err != nil {
		h.handleSpinError(c, err)
		return
	}
	OK(c, h.attemptView(attempt))
}

// Get returns the current snapshot of an attempt.
func (h *SpinHandler) Get(c *gin.Context) {
	id, ok := h.attemptID(c)
	if !ok {
		return
	}

	attempt, err := h.app.orchestrator.Attempt(c.Request.Context(), id)
	if err != nil {
		h.handleSpinError(c, err)
		return
	}
	OK(c, h.attemptView(attempt))
}

// Acknowledge marks a terminal attempt as seen and evicts it.
func (h *SpinHandler) Acknowledge(c *gin.Context) {
	id, ok := h.attemptID(c)
	if !ok {
		return
	}

	if err := h.app.orchestrator.Acknowledge(c.Request.Context(), id); err != nil {
		h.handleSpinError(c, err)
		return
	}
	NoContent(c)
}

// Rewards refreshes and returns the full reward balance snapshot for the
// connected session.
func (h *SpinHandler) Rewards(c *gin.Context) {
	if h.app.contractCfg == nil {
		HandleAppError(c, apperrors.New(apperrors.ErrNotConfigured, "contract configuration is not usable"))
		return
	}

	session := h.app.sessions.Current()
	owner := session.Address
	if raw := c.Query("address"); raw != "" {
		if !common.IsHexAddress(raw) {
			HandleAppError(c, apperrors.New(apperrors.ErrInvalidRequest, "invalid owner address"))
			return
		}
		owner = common.HexToAddress(raw)
	} else if !session.Connected {
		HandleAppError(c, apperrors.New(apperrors.ErrWalletNotConnected, "no wallet connected"))
		return
	}

	snapshot, err := h.app.ledger.Refresh(c.Request.Context(), h.app.contractCfg, owner)
	if err != nil {
		HandleAppError(c, apperrors.Wrap(err, apperrors.ErrReconciliationFailed, "failed to refresh reward balances"))
		return
	}
	OK(c, snapshot)
}

// Status reports wallet connectivity and the in-flight attempt, if any.
func (h *SpinHandler) Status(c *gin.Context) {
	session := h.app.sessions.Current()

	status := "not_configured"
	if h.app.contractCfg != nil {
		status = session.Status(h.app.contractCfg.ChainID()).String()
	}

	payload := gin.H{
		"wallet":    status,
		"chainId":   session.ChainID,
		"connected": session.Connected,
	}
	if session.Connected {
		payload["address"] = session.Address.Hex()
	}
	if current := h.app.orchestrator.Current(); current != nil {
		payload["currentAttempt"] = h.attemptView(current)
	}

	OK(c, payload)
}

func (h *SpinHandler) attemptID(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		HandleAppError(c, apperrors.New(apperrors.ErrInvalidRequest, "invalid attempt id"))
		return uuid.UUID{}, false
	}
	return id, true
}

func (h *SpinHandler) handleSpinError(c *gin.Context, err error) {
	switch err {
	case spin.ErrAlreadyInProgress:
		HandleAppError(c, apperrors.Wrap(err, apperrors.ErrSpinInProgress, "a spin is already in progress"))
	case spin.ErrAttemptNotFound:
		HandleAppError(c, apperrors.Wrap(err, apperrors.ErrAttemptNotFound, "spin attempt not found"))
	case spin.ErrNotRecheckable:
		HandleAppError(c, apperrors.Wrap(err, apperrors.ErrAttemptNotRetryable, "attempt outcome is final and cannot be rechecked"))
	case spin.ErrNotConfigured:
		HandleAppError(c, apperrors.Wrap(err, apperrors.ErrNotConfigured, "contract configuration is not usable"))
	default:
		HandleAppError(c, err)
	}
}

// attemptView converts an attempt to its API shape, formatting reward
// amounts with the configured token decimals.
func (h *SpinHandler) attemptView(attempt *spin.Attempt) AttemptView {
	view := AttemptView{
		ID:          attempt.ID.String(),
		State:       attempt.State.String(),
		Retryable:   attempt.Failure.Retryable(),
		Recheckable: attempt.Failure.Recheckable(),
		RequestedAt: attempt.RequestedAt.Format("2006-01-02T15:04:05Z07:00"),
	}
	if attempt.Failure != spin.FailureNone {
		view.Failure = attempt.Failure.String()
	}
	if attempt.TxHash != (common.Hash{}) {
		view.TxHash = attempt.TxHash.Hex()
	}

	decimals := map[string]int32{}
	if h.app.contractCfg != nil {
		for _, token := range h.app.contractCfg.Tokens() {
			decimals[token.Symbol] = token.Decimals
		}
	}
	for _, grant := range attempt.Rewards {
		formatted := decimal.NewFromBigInt(grant.Amount, -decimals[grant.TokenSymbol]).String()
		view.Rewards = append(view.Rewards, RewardView{
			TokenSymbol:     grant.TokenSymbol,
			Amount:          grant.Amount.String(),
			FormattedAmount: formatted,
		})
	}

	return view
}
