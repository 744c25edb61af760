package guard

import (
	"context"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/leagueops/orgcli/internal/api"
	"github.com/leagueops/orgcli/internal/session"
)

// SessionAPI is the slice of the API client the guard depends on.
type SessionAPI interface {
	FetchProfile(ctx context.Context) (*session.Profile, error)
	Logout(ctx context.Context) error
}

// Decision is the terminal outcome of one navigation evaluation: either
// the navigation proceeds, or it is redirected. There is no third state.
type Decision struct {
	Allow bool
	To    string
	Query url.Values
}

// Redirected reports whether the decision is a redirect.
func (d Decision) Redirected() bool {
	return !d.Allow
}

// Target renders the redirect destination including its query string.
func (d Decision) Target() string {
	if d.Allow {
		return ""
	}
	if len(d.Query) == 0 {
		return d.To
	}
	return d.To + "?" + d.Query.Encode()
}

// Guard gates every route transition on session state, per-route metadata,
// and account activation. One Guard instance serves the whole application.
type Guard struct {
	store    *session.Store
	api      SessionAPI
	notifier api.Notifier

	mu sync.Mutex
	// redirecting is the one-shot escape valve: set when a login or
	// landing redirect is issued, consumed by the next evaluation to
	// break redirect loops. It never leaves this process.
	redirecting bool

	background sync.WaitGroup
}

// New creates a navigation guard.
func New(store *session.Store, sessionAPI SessionAPI, notifier api.Notifier) *Guard {
	if notifier == nil {
		notifier = api.LogNotifier{}
	}
	return &Guard{store: store, api: sessionAPI, notifier: notifier}
}

// Evaluate runs the guard state machine for one navigation attempt. The
// checks execute strictly in order: escape valve, state sync, admin
// requirement, auth requirement, public-route handling. Every path ends in
// Allow or a redirect instruction.
func (g *Guard) Evaluate(ctx context.Context, target string) Decision {
	path := target
	if i := strings.IndexByte(path, '?'); i >= 0 {
		path = path[:i]
	}
	route := Lookup(path)

	// A redirect we issued ourselves passes unconditionally; this is a
	// one-shot marker, not a state the guard stays in.
	g.mu.Lock()
	if g.redirecting {
		g.redirecting = false
		g.mu.Unlock()
		log.Debug().Str("path", path).Msg("redirect in progress, allowing navigation")
		return Decision{Allow: true}
	}
	g.mu.Unlock()

	// Reconcile in-memory session state with durable storage before any
	// authorization decision reads it.
	g.store.Sync()
	authenticated := g.store.Authenticated()

	log.Debug().Str("path", path).Str("route", route.Name).Bool("authenticated", authenticated).Msg("evaluating navigation")

	if route.RequiresAdmin {
		if !authenticated {
			return g.redirectMarked(LoginPath, url.Values{"redirect": {target}})
		}
		if !g.store.Profile().IsAdmin() {
			g.notifier.Toast("you do not have administrator permission")
			return g.redirect(DefaultLandingPath, nil)
		}
		return Decision{Allow: true}
	}

	if route.RequiresAuth {
		if !authenticated {
			return g.redirectMarked(LoginPath, url.Values{"redirect": {target}})
		}

		profile := g.store.Profile()

		// Only an explicit deactivation blocks access: an account the
		// server never flagged either way passes.
		if profile.Deactivated() {
			g.notifier.Warn("your account has not been activated, contact your organization administrator")
			if err := g.api.Logout(ctx); err != nil {
				log.Debug().Err(err).Msg("forced logout failed server-side, local state cleared")
			}
			return g.redirectMarked(LoginPath, url.Values{"needActivation": {"true"}})
		}

		if len(route.Roles) > 0 && profile.Complete() && !hasAnyRole(profile, route.Roles) {
			g.notifier.Toast("you do not have permission to access this page")
			return g.redirect(DefaultLandingPath, nil)
		}

		// Navigation never waits on profile completeness; missing fields
		// load in the background.
		if !profile.Complete() {
			g.background.Add(1)
			go g.fetchProfile()
		}

		return Decision{Allow: true}
	}

	// Public route: a logged-in user heading for the login page lands on
	// the dashboard instead.
	if authenticated && route.Path == LoginPath {
		return g.redirectMarked(DefaultLandingPath, nil)
	}

	return Decision{Allow: true}
}

// Wait blocks until background profile fetches have settled. Used by the
// CLI before exit and by tests.
func (g *Guard) Wait() {
	g.background.Wait()
}

// redirect issues a redirect without setting the escape marker.
func (g *Guard) redirect(to string, query url.Values) Decision {
	return Decision{To: to, Query: query}
}

// redirectMarked issues a redirect and arms the one-shot escape valve so
// the follow-up navigation is allowed unconditionally.
func (g *Guard) redirectMarked(to string, query url.Values) Decision {
	g.mu.Lock()
	g.redirecting = true
	g.mu.Unlock()
	return Decision{To: to, Query: query}
}

// fetchProfile loads the profile behind an allowed navigation. Failures
// are logged only: the navigation has already proceeded, and the store
// discards the result if a logout cleared the session in the meantime.
func (g *Guard) fetchProfile() {
	defer g.background.Done()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if _, err := g.api.FetchProfile(ctx); err != nil {
		log.Debug().Err(err).Msg("background profile fetch failed, navigation already allowed")
	}
}

func hasAnyRole(p *session.Profile, roles []string) bool {
	for _, r := range roles {
		if p.HasRole(r) {
			return true
		}
	}
	return false
}
