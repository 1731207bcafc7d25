package provider

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	coreredis "github.com/cookedzera/farcaster-spin/db/redis"
	"github.com/cookedzera/farcaster-spin/spin"
)

// Terminal attempts are only interesting until the player has seen them;
// a day covers every realistic reload window.
const attemptTTL = 24 * time.Hour

// AttemptStore implements spin.AttemptStore using Redis.
type AttemptStore struct {
	redis  *coreredis.Client
	logger zerolog.Logger
}

// NewAttemptStore creates a new attempt store
func NewAttemptStore(redisClient *coreredis.Client, logger zerolog.Logger) *AttemptStore {
	return &AttemptStore{
		redis:  redisClient,
		logger: logger.With().Str("component", "attempt_store").Logger(),
	}
}

func (s *AttemptStore) key(id uuid.UUID) string {
	return fmt.Sprintf("wheel:attempt:%s", id)
}

// Save persists a terminal attempt.
func (s *AttemptStore) Save(ctx context.Context, attempt *spin.Attempt) error {
	if err := s.redis.SetJSON(ctx, s.key(attempt.ID), attempt, attemptTTL); err != nil {
		return fmt.Errorf("failed to save attempt: %w", err)
	}
	return nil
}

// Load retrieves a stored attempt by id.
func (s *AttemptStore) Load(ctx context.Context, id uuid.UUID) (*spin.Attempt, error) {
	var attempt spin.Attempt
	if err := s.redis.GetJSON(ctx, s.key(id), &attempt); err != nil {
		if err == coreredis.ErrNotFound {
			return nil, spin.ErrAttemptNotFound
		}
		return nil, fmt.Errorf("failed to load attempt: %w", err)
	}
	return &attempt, nil
}

// Delete evicts an acknowledged attempt.
func (s *AttemptStore) Delete(ctx context.Context, id uuid.UUID) error {
	if err := s.redis.Delete(ctx, s.key(id)); err != nil {
		return fmt.Errorf("failed to delete attempt: %w", err)
	}
	return nil
}
