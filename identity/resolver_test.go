package identity

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/cookedzera/farcaster-spin/pkg/providers"
)

type fakeDirectory struct {
	mu      sync.Mutex
	calls   int
	profile *providers.DirectoryProfile
	err     error
	delay   time.Duration
}

func (f *fakeDirectory) Profile(ctx context.Context, fid int64) (*providers.DirectoryProfile, error) {
	f.mu.Lock()
	f.calls++
	profile, err, delay := f.profile, f.err, f.delay
	f.mu.Unlock()

	if delay > 0 {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(delay):
		}
	}
	return profile, err
}

func (f *fakeDirectory) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

func sessionWith(fid int64, username, displayName, avatar string) *SessionContext {
	return &SessionContext{
		User: &SessionUser{
			Fid:         fid,
			Username:    username,
			DisplayName: displayName,
			AvatarURL:   avatar,
		},
	}
}

func TestResolveWithoutSession(t *testing.T) {
	r := NewResolver(&fakeDirectory{}, time.Second, zerolog.Nop())

	tests := []struct {
		name string
		sctx *SessionContext
	}{
		{name: "nil context", sctx: nil},
		{name: "context without user", sctx: &SessionContext{}},
		{name: "user without fid", sctx: sessionWith(0, "alice", "", "")},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := r.Resolve(context.Background(), tt.sctx); !errors.Is(err, ErrNoSession) {
				t.Errorf("expected ErrNoSession, got %v", err)
			}
		})
	}
}

func TestResolveSessionWinsPerField(t *testing.T) {
	directory := &fakeDirectory{
		profile: &providers.DirectoryProfile{
			DisplayName: "Directory Name",
			AvatarURL:   "https://dir.example/pfp.png",
			Bio:         "builder",
		},
	}
	r := NewResolver(directory, time.Second, zerolog.Nop())

	record, err := r.Resolve(context.Background(), sessionWith(190522, "cookedzera", "Session Name", ""))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// The live session is authoritative where it has a value.
	if record.DisplayName != "Session Name" {
		t.Errorf("expected session display name to win, got %q", record.DisplayName)
	}
	if record.Username != "cookedzera" {
		t.Errorf("expected session username, got %q", record.Username)
	}
	// The directory only fills gaps.
	if record.AvatarURL != "https://dir.example/pfp.png" {
		t.Errorf("expected directory avatar to fill the gap, got %q", record.AvatarURL)
	}
	if record.Bio != "builder" {
		t.Errorf("expected directory bio to fill the gap, got %q", record.Bio)
	}
	if record.Source != SourceMerged {
		t.Errorf("expected source merged, got %s", record.Source)
	}
}

func TestResolveDirectoryOnlyFields(t *testing.T) {
	directory := &fakeDirectory{
		profile: &providers.DirectoryProfile{
			Username:    "cookedzera",
			DisplayName: "Cooked",
		},
	}
	r := NewResolver(directory, time.Second, zerolog.Nop())

	record, err := r.Resolve(context.Background(), sessionWith(190522, "", "", ""))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if record.Username != "cookedzera" || record.DisplayName != "Cooked" {
		t.Errorf("expected directory fields, got username=%q displayName=%q", record.Username, record.DisplayName)
	}
	if record.Source != SourceDirectory {
		t.Errorf("expected source directory, got %s", record.Source)
	}
}

func TestResolveSwallowsDirectoryFailure(t *testing.T) {
	directory := &fakeDirectory{err: errors.New("hub returned 502")}
	r := NewResolver(directory, time.Second, zerolog.Nop())

	record, err := r.Resolve(context.Background(), sessionWith(190522, "", "", ""))
	if err != nil {
		t.Fatalf("a directory failure must not fail resolution: %v", err)
	}
	if record.Fid != 190522 {
		t.Errorf("expected fid 190522, got %d", record.Fid)
	}
	if record.Username != "" || record.DisplayName != "" {
		t.Error("expected a bare-fid record when the directory is down")
	}
	if record.Source != SourceSession {
		t.Errorf("expected source session, got %s", record.Source)
	}
}

func TestResolveSwallowsDirectoryTimeout(t *testing.T) {
	directory := &fakeDirectory{
		delay:   200 * time.Millisecond,
		profile: &providers.DirectoryProfile{Username: "late"},
	}
	r := NewResolver(directory, 10*time.Millisecond, zerolog.Nop())

	record, err := r.Resolve(context.Background(), sessionWith(190522, "", "", ""))
	if err != nil {
		t.Fatalf("a directory timeout must not fail resolution: %v", err)
	}
	if record.Username != "" {
		t.Error("expected the slow lookup result to be dropped")
	}
}

func TestResolveCachesPerSession(t *testing.T) {
	directory := &fakeDirectory{
		profile: &providers.DirectoryProfile{Username: "cookedzera"},
	}
	r := NewResolver(directory, time.Second, zerolog.Nop())
	sctx := sessionWith(190522, "", "", "")

	if _, err := r.Resolve(context.Background(), sctx); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := r.Resolve(context.Background(), sctx); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if directory.callCount() != 1 {
		t.Errorf("expected 1 directory lookup, got %d", directory.callCount())
	}

	// A different fid bypasses the cache.
	if _, err := r.Resolve(context.Background(), sessionWith(3, "", "", "")); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if directory.callCount() != 2 {
		t.Errorf("expected a fresh lookup for a new fid, got %d calls", directory.callCount())
	}
}

func TestResetDropsCache(t *testing.T) {
	directory := &fakeDirectory{
		profile: &providers.DirectoryProfile{Username: "cookedzera"},
	}
	r := NewResolver(directory, time.Second, zerolog.Nop())
	sctx := sessionWith(190522, "", "", "")

	if _, err := r.Resolve(context.Background(), sctx); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	r.Reset()
	if _, err := r.Resolve(context.Background(), sctx); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if directory.callCount() != 2 {
		t.Errorf("expected a re-resolve after reset, got %d calls", directory.callCount())
	}
}

func TestResolveWithoutDirectory(t *testing.T) {
	r := NewResolver(nil, time.Second, zerolog.Nop())

	record, err := r.Resolve(context.Background(), sessionWith(190522, "cookedzera", "", ""))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if record.Username != "cookedzera" {
		t.Errorf("expected session fields to pass through, got %q", record.Username)
	}
	if record.Source != SourceSession {
		t.Errorf("expected source session, got %s", record.Source)
	}
}
