package session

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/zerolog/log"
	"golang.org/x/oauth2"
)

// ExpiryFromToken derives an absolute expiry for a bearer token the server
// handed back without one. When the token is a parseable JWT its exp claim
// wins; otherwise the default 24 hour lifetime applies. The claim is read
// unverified because the client holds no key material, and the value only
// schedules refreshes: the server remains the authority on validity.
func ExpiryFromToken(token string, now time.Time) time.Time {
	parser := jwt.NewParser()
	claims := jwt.RegisteredClaims{}
	if _, _, err := parser.ParseUnverified(token, &claims); err == nil && claims.ExpiresAt != nil {
		log.Debug().Time("expiry", claims.ExpiresAt.Time).Msg("recovered expiry from token exp claim")
		return claims.ExpiresAt.Time
	}
	return now.Add(DefaultExpiry)
}

// TokenSource adapts the store to oauth2.TokenSource so libraries that
// accept one can consume the session's bearer token directly.
func (s *Store) TokenSource() oauth2.TokenSource {
	return storeTokenSource{store: s}
}

type storeTokenSource struct {
	store *Store
}

func (ts storeTokenSource) Token() (*oauth2.Token, error) {
	tok := ts.store.Token()
	if tok == "" {
		return nil, ErrNotAuthenticated
	}
	return &oauth2.Token{
		AccessToken: tok,
		TokenType:   "Bearer",
		Expiry:      ts.store.ExpiresAt(),
	}, nil
}
