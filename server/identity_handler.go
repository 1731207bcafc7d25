package server

import (
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/cookedzera/farcaster-spin/auth"
	"github.com/cookedzera/farcaster-spin/identity"
)

// IdentityHandler exposes identity resolution over HTTP.
type IdentityHandler struct {
	app    *App
	logger zerolog.Logger
}

// NewIdentityHandler creates a new identity handler
func NewIdentityHandler(app *App) *IdentityHandler {
	return &IdentityHandler{
		app:    app,
		logger: app.logger.With().Str("handler", "identity").Logger(),
	}
}

// Me resolves the social identity for the authenticated session. A session
// without a fid is a valid anonymous state, not an error.
func (h *IdentityHandler) Me(c *gin.Context) {
	sctx := sessionContextFromClaims(c)

	record, err := h.app.resolver.Resolve(c.Request.Context(), sctx)
	if err == identity.ErrNoSession {
		OK(c, gin.H{"anonymous": true})
		return
	}
	if err != nil {
		HandleAppError(c, err)
		return
	}

	OK(c, record)
}

// sessionContextFromClaims rebuilds the live session context from the JWT
// the host environment signed for this session.
func sessionContextFromClaims(c *gin.Context) *identity.SessionContext {
	fid := auth.GetFid(c)
	if fid <= 0 {
		return nil
	}
	return &identity.SessionContext{
		User: &identity.SessionUser{
			Fid:      fid,
			Username: auth.GetUsername(c),
		},
	}
}
