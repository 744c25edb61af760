package session

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
)

// DefaultExpiry is assumed when the server omits an expiry from a token
// envelope and the token itself carries none.
const DefaultExpiry = 24 * time.Hour

// persisted is the durable on-disk layout of a session. The expiry is kept
// as a string-encoded millisecond timestamp; a value that fails to parse is
// treated as absent rather than as an error.
type persisted struct {
	Token       string   `json:"token,omitempty"`
	TokenExpiry string   `json:"token_expiry,omitempty"`
	Profile     *Profile `json:"profile,omitempty"`
}

// Store is the single source of truth for client-side authorization state.
// It owns the bearer token, its expiry, and the cached identity profile,
// backed by a JSON file written atomically. All mutation goes through
// Commit, Clear, and SetProfile; no caller touches the fields directly.
type Store struct {
	mu   sync.RWMutex
	path string

	token     string
	expiresAt int64 // ms since epoch, 0 == absent
	profile   *Profile

	// Volatile state, never persisted.
	lastLogin       json.RawMessage
	fetchingProfile bool
}

// NewStore creates a session store persisting to baseDir/session.json.
// If baseDir is empty, uses ~/.orgcli/
func NewStore(baseDir string) (*Store, error) {
	if baseDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("failed to get home directory: %w", err)
		}
		baseDir = filepath.Join(home, ".orgcli")
	}

	if err := os.MkdirAll(baseDir, 0700); err != nil {
		return nil, fmt.Errorf("failed to create session directory: %w", err)
	}

	return &Store{path: filepath.Join(baseDir, "session.json")}, nil
}

// Restore loads durable state into memory. A missing, unreadable, or
// malformed session file is treated as "no session" and never returns an
// error to the caller.
func (s *Store) Restore() {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := os.ReadFile(s.path)
	if err != nil {
		if !os.IsNotExist(err) {
			log.Debug().Err(err).Msg("session file unreadable, starting logged out")
		}
		s.resetLocked()
		return
	}

	var p persisted
	if err := json.Unmarshal(data, &p); err != nil {
		log.Debug().Err(err).Msg("session file malformed, starting logged out")
		s.resetLocked()
		return
	}

	if p.Token == "" {
		s.resetLocked()
		return
	}

	s.token = p.Token
	s.profile = p.Profile
	s.expiresAt = 0
	if p.TokenExpiry != "" {
		ms, err := strconv.ParseInt(p.TokenExpiry, 10, 64)
		if err != nil {
			log.Debug().Str("tokenExpiry", p.TokenExpiry).Msg("invalid expiry in session file, treating as absent")
		} else {
			s.expiresAt = ms
		}
	}

	log.Debug().Bool("hasExpiry", s.expiresAt != 0).Msg("session restored")
}

// Sync reconciles in-memory state with durable storage, covering stale
// state after another process logged in or out. A durable token missing
// from memory is restored; in-memory state claiming authentication when
// durable storage holds no token is cleared.
func (s *Store) Sync() {
	s.mu.Lock()

	data, err := os.ReadFile(s.path)
	var p persisted
	if err == nil {
		if uerr := json.Unmarshal(data, &p); uerr != nil {
			p = persisted{}
		}
	}

	switch {
	case p.Token != "" && s.token == "":
		s.mu.Unlock()
		log.Debug().Msg("durable token not reflected in memory, restoring")
		s.Restore()
		return
	case p.Token == "" && s.token != "":
		log.Debug().Msg("memory claims authenticated but durable token gone, clearing")
		s.resetLocked()
	}

	s.mu.Unlock()
}

// Commit atomically replaces the token and expiry, in memory and on disk.
// Prior token and expiry are fully replaced, never merged; the cached
// profile is preserved.
func (s *Store) Commit(token string, expiresAt time.Time) error {
	if token == "" {
		return fmt.Errorf("refusing to commit empty token")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.token = token
	s.expiresAt = expiresAt.UnixMilli()

	return s.saveLocked()
}

// Clear removes the token, expiry, and profile from memory and durable
// storage. Idempotent: clearing an already cleared store is a no-op.
func (s *Store) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.resetLocked()

	if err := os.Remove(s.path); err != nil && !os.IsNotExist(err) {
		log.Warn().Err(err).Msg("failed to remove session file")
	}
}

// Authenticated reports whether a token is present. This is the only
// definition of "logged in" the client has.
func (s *Store) Authenticated() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.token != ""
}

// Token returns the current bearer token, or "" when logged out.
func (s *Store) Token() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.token
}

// ExpiresAt returns the token expiry, or the zero time when absent.
func (s *Store) ExpiresAt() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.expiresAt == 0 {
		return time.Time{}
	}
	return time.UnixMilli(s.expiresAt)
}

// IsExpired reports whether the token is past its expiry. An absent expiry
// counts as expired for authorization decisions, but absence alone never
// triggers a proactive refresh (see IsExpiringSoon).
func (s *Store) IsExpired(now time.Time) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.expiresAt == 0 {
		return true
	}
	return now.UnixMilli() >= s.expiresAt
}

// IsExpiringSoon reports whether the token expires within threshold. True
// iff 0 < expiresAt-now < threshold: an already expired token and an
// absent expiry both return false, as does delta exactly at the threshold.
func (s *Store) IsExpiringSoon(now time.Time, threshold time.Duration) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.expiresAt == 0 {
		return false
	}
	delta := s.expiresAt - now.UnixMilli()
	return delta > 0 && delta < threshold.Milliseconds()
}

// Profile returns the cached identity profile, or nil when none is loaded.
func (s *Store) Profile() *Profile {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.profile
}

// SetProfile replaces the cached profile and persists the snapshot. The
// profile is discarded when the session has been cleared since the fetch
// started: a profile must never repopulate a logged-out store.
func (s *Store) SetProfile(p *Profile) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.token == "" {
		log.Debug().Msg("discarding profile for cleared session")
		return nil
	}

	s.profile = p
	return s.saveLocked()
}

// SetLastLogin stashes the raw login envelope for the current process only.
func (s *Store) SetLastLogin(raw json.RawMessage) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastLogin = raw
}

// LastLogin returns the raw envelope from the most recent login, if any.
func (s *Store) LastLogin() json.RawMessage {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lastLogin
}

// BeginProfileFetch marks a profile fetch as in progress. Returns false if
// one is already running, so callers skip duplicate loads.
func (s *Store) BeginProfileFetch() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.fetchingProfile {
		return false
	}
	s.fetchingProfile = true
	return true
}

// EndProfileFetch clears the in-progress marker.
func (s *Store) EndProfileFetch() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.fetchingProfile = false
}

// resetLocked clears in-memory state. Callers hold s.mu.
func (s *Store) resetLocked() {
	s.token = ""
	s.expiresAt = 0
	s.profile = nil
	s.lastLogin = nil
	s.fetchingProfile = false
}

// saveLocked writes durable state atomically. Callers hold s.mu.
func (s *Store) saveLocked() error {
	p := persisted{
		Token:   s.token,
		Profile: s.profile,
	}
	if s.expiresAt != 0 {
		p.TokenExpiry = strconv.FormatInt(s.expiresAt, 10)
	}

	data, err := json.MarshalIndent(p, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal session: %w", err)
	}

	tempPath := s.path + ".tmp"
	if err := os.WriteFile(tempPath, data, 0600); err != nil {
		return fmt.Errorf("failed to write session: %w", err)
	}

	if err := os.Rename(tempPath, s.path); err != nil {
		os.Remove(tempPath)
		return fmt.Errorf("failed to save session: %w", err)
	}

	return nil
}
