package session

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
)

// Sentinel errors
var (
	// ErrNotAuthenticated is returned when an operation needs a token and
	// the store holds none.
	ErrNotAuthenticated = errors.New("not authenticated")
)

// Refresher performs the actual token refresh call. The API client
// implements it; tests substitute fakes.
type Refresher interface {
	RefreshToken(ctx context.Context) (token string, expiresAt time.Time, err error)
}

// Coordinator decides when a token is worth refreshing and guarantees at
// most one refresh call in flight at a time. Callers that arrive while a
// refresh is running attach to the pending attempt and return when it
// settles, whatever the outcome, instead of issuing duplicate calls.
type Coordinator struct {
	store     *Store
	refresher Refresher
	threshold time.Duration

	mu       sync.Mutex
	inflight chan struct{} // non-nil while a refresh runs, closed when it settles
}

// NewCoordinator creates a refresh coordinator. A zero threshold falls back
// to 10 minutes.
func NewCoordinator(store *Store, refresher Refresher, threshold time.Duration) *Coordinator {
	if threshold <= 0 {
		threshold = 10 * time.Minute
	}
	return &Coordinator{
		store:     store,
		refresher: refresher,
		threshold: threshold,
	}
}

// MaybeRefresh refreshes the token if it is expiring soon. A failed refresh
// is logged and otherwise swallowed: the current token may still be valid
// until its actual expiry, so the caller's request proceeds with it.
func (c *Coordinator) MaybeRefresh(ctx context.Context) {
	if !c.store.IsExpiringSoon(time.Now(), c.threshold) {
		return
	}

	c.mu.Lock()
	if c.inflight != nil {
		done := c.inflight
		c.mu.Unlock()
		select {
		case <-done:
		case <-ctx.Done():
		}
		return
	}

	done := make(chan struct{})
	c.inflight = done
	c.mu.Unlock()

	defer func() {
		c.mu.Lock()
		c.inflight = nil
		c.mu.Unlock()
		close(done)
	}()

	// Re-check once we own the attempt: a refresh that settled between our
	// first check and taking ownership may already have renewed the token.
	if !c.store.IsExpiringSoon(time.Now(), c.threshold) {
		return
	}

	token, expiresAt, err := c.refresher.RefreshToken(ctx)
	if err != nil {
		log.Warn().Err(err).Msg("token refresh failed, keeping current token")
		return
	}

	if err := c.store.Commit(token, expiresAt); err != nil {
		log.Warn().Err(err).Msg("failed to persist refreshed token")
		return
	}

	log.Debug().Time("expiresAt", expiresAt).Msg("token refreshed")
}
