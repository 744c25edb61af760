package api

import (
	"net/http"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/leagueops/orgcli/internal/session"
)

// excludedPaths never get a bearer header or a proactive refresh: the auth
// endpoints themselves, and the captcha which precedes any session.
var excludedPaths = []string{
	"/api/login",
	"/api/logout",
	"/api/auth/refresh",
	"/api/captcha",
}

func excluded(path string) bool {
	for _, p := range excludedPaths {
		if strings.HasPrefix(path, p) {
			return true
		}
	}
	return false
}

const userAgent = "orgcli"

// authTransport runs before every outbound call. For guarded endpoints it
// triggers a proactive token refresh and attaches the freshest bearer
// token; for every call it adds the AJAX marker header. A refresh failure
// never stops the request: it goes out with the old token.
type authTransport struct {
	base    http.RoundTripper
	store   *session.Store
	refresh *session.Coordinator
}

func (t *authTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	// Per RoundTripper contract the request is not mutated in place.
	req = req.Clone(req.Context())
	req.Header.Set("X-Requested-With", "XMLHttpRequest")
	req.Header.Set("User-Agent", userAgent)

	if !excluded(req.URL.Path) {
		if t.store.Token() != "" {
			t.refresh.MaybeRefresh(req.Context())
		}
		// Re-read after the refresh so the request carries the newest token.
		if token := t.store.Token(); token != "" {
			req.Header.Set("Authorization", "Bearer "+token)
		} else {
			log.Debug().Str("path", req.URL.Path).Msg("guarded request without token")
		}
	}

	return t.base.RoundTrip(req)
}
