package identity

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/cookedzera/farcaster-spin/pkg/providers"
)

const defaultDirectoryTimeout = 3 * time.Second

// ErrNoSession means resolution was attempted with no session context or no
// user identifier in it. Callers treat this as "anonymous", not as a failure;
// it is kept distinct from "not resolved yet".
var ErrNoSession = errors.New("no session context available")

// Source records where the resolved identity fields came from.
type Source int

const (
	SourceSession Source = iota + 1
	SourceDirectory
	SourceMerged
)

// String returns the source name.
func (s Source) String() string {
	switch s {
	case SourceSession:
		return "session"
	case SourceDirectory:
		return "directory"
	case SourceMerged:
		return "merged"
	default:
		return "unknown"
	}
}

// MarshalJSON encodes the source as its name.
func (s Source) MarshalJSON() ([]byte, error) {
	return []byte(`"` + s.String() + `"`), nil
}

// UnmarshalJSON decodes a source name.
func (s *Source) UnmarshalJSON(data []byte) error {
	var name string
	if err := json.Unmarshal(data, &name); err != nil {
		return err
	}
	for candidate := SourceSession; candidate <= SourceMerged; candidate++ {
		if candidate.String() == name {
			*s = candidate
			return nil
		}
	}
	return fmt.Errorf("unknown identity source %q", name)
}

// SessionUser is the user block of the host-supplied session context.
// Only the fid is guaranteed; the rest is optional.
type SessionUser struct {
	Fid         int64  `json:"fid"`
	Username    string `json:"username,omitempty"`
	DisplayName string `json:"displayName,omitempty"`
	AvatarURL   string `json:"pfpUrl,omitempty"`
}

// SessionContext is the live, locally supplied identity context from the
// embedding host. It may be absent entirely.
type SessionContext struct {
	User *SessionUser `json:"user,omitempty"`
}

// Record is a resolved social identity, cached for the session lifetime.
type Record struct {
	Fid         int64     `json:"fid"`
	Username    string    `json:"username,omitempty"`
	DisplayName string    `json:"displayName,omitempty"`
	AvatarURL   string    `json:"avatarUrl,omitempty"`
	Bio         string    `json:"bio,omitempty"`
	Source      Source    `json:"source"`
	ResolvedAt  time.Time `json:"resolvedAt"`
}

// Resolver merges the live session context with a best-effort directory
// lookup. The live context is authoritative for presence and wins per field;
// the directory only fills gaps and its failures are swallowed.
type Resolver struct {
	directory providers.Directory
	timeout   time.Duration
	logger    zerolog.Logger

	mu     sync.Mutex
	cached *Record
}

// NewResolver creates a resolver. directory may be nil to disable enrichment.
func NewResolver(directory providers.Directory, timeout time.Duration, logger zerolog.Logger) *Resolver {
	if timeout <= 0 {
		timeout = defaultDirectoryTimeout
	}
	return &Resolver{
		directory: directory,
		timeout:   timeout,
		logger:    logger.With().Str("component", "identity_resolver").Logger(),
	}
}

// Resolve returns the identity for the session context, resolving it on the
// first call and serving the cached record afterwards. A bare-fid record is
// an acceptable success: partial data never fails resolution.
func (r *Resolver) Resolve(ctx context.Context, sctx *SessionContext) (*Record, error) {
	if sctx == nil || sctx.User == nil || sctx.User.Fid <= 0 {
		return nil, ErrNoSession
	}

	r.mu.Lock()
	if r.cached != nil && r.cached.Fid == sctx.User.Fid {
		out := *r.cached
		r.mu.Unlock()
		return &out, nil
	}
	r.mu.Unlock()

	record := r.resolve(ctx, sctx.User)

	r.mu.Lock()
	r.cached = record
	out := *record
	r.mu.Unlock()

	return &out, nil
}

// Reset drops the cached record. Called on session reset or account change.
func (r *Resolver) Reset() {
	r.mu.Lock()
	r.cached = nil
	r.mu.Unlock()
	r.logger.Debug().Msg("Identity cache reset")
}

func (r *Resolver) resolve(ctx context.Context, user *SessionUser) *Record {
	record := &Record{
		Fid:         user.Fid,
		Username:    user.Username,
		DisplayName: user.DisplayName,
		AvatarURL:   user.AvatarURL,
		Source:      SourceSession,
		ResolvedAt:  time.Now().UTC(),
	}

	profile := r.lookup(ctx, user.Fid)
	if profile == nil {
		return record
	}

	sessionFields := record.Username != "" || record.DisplayName != "" || record.AvatarURL != ""
	filled := false
	if record.Username == "" && profile.Username != "" {
		record.Username = profile.Username
		filled = true
	}
	if record.DisplayName == "" && profile.DisplayName != "" {
		record.DisplayName = profile.DisplayName
		filled = true
	}
	if record.AvatarURL == "" && profile.AvatarURL != "" {
		record.AvatarURL = profile.AvatarURL
		filled = true
	}
	if record.Bio == "" && profile.Bio != "" {
		record.Bio = profile.Bio
		filled = true
	}

	if filled {
		if sessionFields {
			record.Source = SourceMerged
		} else {
			record.Source = SourceDirectory
		}
	}
	return record
}

// lookup performs the bounded directory call. Any failure (timeout, non-200,
// malformed payload) returns nil and is logged at debug level only.
func (r *Resolver) lookup(ctx context.Context, fid int64) *providers.DirectoryProfile {
	if r.directory == nil {
		return nil
	}

	lookupCtx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	profile, err := r.directory.Profile(lookupCtx, fid)
	if err != nil {
		r.logger.Debug().Err(err).Int64("fid", fid).Msg("Directory enrichment skipped")
		return nil
	}
	return profile
}
