package provider

import (
	"context"
	"fmt"
	"net/http"

	"github.com/rs/zerolog"

	"github.com/cookedzera/farcaster-spin/config"
	"github.com/cookedzera/farcaster-spin/httpclient"
	"github.com/cookedzera/farcaster-spin/pkg/providers"
)

// DirectoryProvider implements providers.Directory against the backend
// identity directory. Lookups are best-effort by contract; the resolver
// swallows every failure this provider returns.
type DirectoryProvider struct {
	client *httpclient.Client
	logger zerolog.Logger
}

// NewDirectoryProvider creates a new directory provider
func NewDirectoryProvider(cfg config.IdentityConfig, logger zerolog.Logger) *DirectoryProvider {
	return &DirectoryProvider{
		client: httpclient.New(httpclient.Config{
			BaseURL: cfg.DirectoryBaseURL,
			Timeout: cfg.Timeout,
			Logger:  logger,
		}),
		logger: logger.With().Str("component", "directory_provider").Logger(),
	}
}

// Profile fetches the directory profile for a fid.
func (p *DirectoryProvider) Profile(ctx context.Context, fid int64) (*providers.DirectoryProfile, error) {
	resp, err := p.client.Get(ctx, fmt.Sprintf("/identity/%d", fid))
	if err != nil {
		return nil, fmt.Errorf("directory lookup failed: %w", err)
	}

	if resp.StatusCode == http.StatusNotFound {
		return nil, fmt.Errorf("no directory entry for fid %d", fid)
	}
	if !resp.IsSuccess() {
		return nil, fmt.Errorf("directory returned status %d", resp.StatusCode)
	}

	var profile providers.DirectoryProfile
	if err := resp.Unmarshal(&profile); err != nil {
		return nil, fmt.Errorf("malformed directory payload: %w", err)
	}

	return &profile, nil
}
