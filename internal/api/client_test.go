package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leagueops/orgcli/internal/session"
)

// stubNotifier records classification side effects.
type stubNotifier struct {
	toasts  []string
	warns   []string
	confirm bool

	confirmCalls int
}

func (n *stubNotifier) Toast(msg string) { n.toasts = append(n.toasts, msg) }
func (n *stubNotifier) Warn(msg string)  { n.warns = append(n.warns, msg) }
func (n *stubNotifier) ConfirmReauth() bool {
	n.confirmCalls++
	return n.confirm
}

func newTestClient(t *testing.T, handler http.Handler, opts ...Option) (*Client, *session.Store, *stubNotifier) {
	t.Helper()

	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	store, err := session.NewStore(t.TempDir())
	require.NoError(t, err)

	notifier := &stubNotifier{confirm: true}
	opts = append([]Option{WithNotifier(notifier)}, opts...)

	client := New(Config{
		BaseURL:          srv.URL,
		Timeout:          5 * time.Second,
		RefreshThreshold: 10 * time.Minute,
		DeviceID:         "dev-1",
		CacheDir:         t.TempDir(),
	}, store, opts...)

	return client, store, notifier
}

func jsonHandler(status int, body string) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		w.Write([]byte(body))
	})
}

func TestClient_AttachesBearerToGuardedRequests(t *testing.T) {
	var gotAuth, gotMarker string
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		gotMarker = r.Header.Get("X-Requested-With")
		w.Write([]byte(`{"code":200}`))
	})

	client, store, _ := newTestClient(t, handler)
	require.NoError(t, store.Commit("tok-1", time.Now().Add(time.Hour)))

	require.NoError(t, client.Call(context.Background(), http.MethodGet, "/api/users/me", nil, nil))
	assert.Equal(t, "Bearer tok-1", gotAuth)
	assert.Equal(t, "XMLHttpRequest", gotMarker)
}

func TestClient_NoBearerOnExcludedEndpoints(t *testing.T) {
	var gotAuth string
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		w.Write([]byte(`{"code":200,"data":{"key":"k"}}`))
	})

	client, store, _ := newTestClient(t, handler)
	require.NoError(t, store.Commit("tok-1", time.Now().Add(time.Hour)))

	_, err := client.Captcha(context.Background(), "login")
	require.NoError(t, err)
	assert.Empty(t, gotAuth)
}

func TestClient_NoBearerWhenLoggedOut(t *testing.T) {
	var gotAuth string
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		w.Write([]byte(`{"code":200}`))
	})

	client, _, _ := newTestClient(t, handler)

	require.NoError(t, client.Call(context.Background(), http.MethodGet, "/api/activities", nil, nil))
	assert.Empty(t, gotAuth)
}

func TestClient_ProactiveRefreshBeforeGuardedCall(t *testing.T) {
	refreshCalls := 0
	var gotAuth string
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/auth/refresh":
			refreshCalls++
			assert.Equal(t, "Bearer tok-old", r.Header.Get("Authorization"))
			fmt.Fprintf(w, `{"code":200,"data":{"token":"tok-new","expiry_time":%d}}`,
				time.Now().Add(time.Hour).UnixMilli())
		default:
			gotAuth = r.Header.Get("Authorization")
			w.Write([]byte(`{"code":200}`))
		}
	})

	client, store, _ := newTestClient(t, handler)
	require.NoError(t, store.Commit("tok-old", time.Now().Add(5*time.Minute)))

	require.NoError(t, client.Call(context.Background(), http.MethodGet, "/api/users/me", nil, nil))

	assert.Equal(t, 1, refreshCalls)
	assert.Equal(t, "Bearer tok-new", gotAuth)
	assert.Equal(t, "tok-new", store.Token())
}

func TestClient_RefreshFailureDoesNotBlockRequest(t *testing.T) {
	var gotAuth string
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/auth/refresh":
			w.WriteHeader(http.StatusBadGateway)
		default:
			gotAuth = r.Header.Get("Authorization")
			w.Write([]byte(`{"code":200}`))
		}
	})

	client, store, notifier := newTestClient(t, handler)
	require.NoError(t, store.Commit("tok-old", time.Now().Add(5*time.Minute)))

	require.NoError(t, client.Call(context.Background(), http.MethodGet, "/api/users/me", nil, nil))

	// The old token rides along and the failure surfaces nowhere visible.
	assert.Equal(t, "Bearer tok-old", gotAuth)
	assert.Equal(t, "tok-old", store.Token())
	assert.Empty(t, notifier.toasts)
}

func TestClient_SessionExpired(t *testing.T) {
	t.Run("clears session and runs hook on confirm", func(t *testing.T) {
		hookRan := false
		client, store, notifier := newTestClient(t,
			jsonHandler(200, `{"code":401,"message":"token expired"}`),
			WithSessionExpiredHook(func() { hookRan = true }))
		require.NoError(t, store.Commit("tok-1", time.Now().Add(time.Hour)))

		err := client.Call(context.Background(), http.MethodGet, "/api/users/me", nil, nil)
		assert.ErrorIs(t, err, ErrSessionExpired)
		assert.False(t, store.Authenticated())
		assert.Equal(t, 1, notifier.confirmCalls)
		assert.True(t, hookRan)
	})

	t.Run("clears session even when user declines", func(t *testing.T) {
		hookRan := false
		client, store, notifier := newTestClient(t,
			jsonHandler(200, `{"code":"UNAUTHORIZED"}`),
			WithSessionExpiredHook(func() { hookRan = true }))
		notifier.confirm = false
		require.NoError(t, store.Commit("tok-1", time.Now().Add(time.Hour)))

		err := client.Call(context.Background(), http.MethodGet, "/api/users/me", nil, nil)
		assert.ErrorIs(t, err, ErrSessionExpired)
		assert.False(t, store.Authenticated())
		assert.False(t, hookRan)
	})
}

func TestClient_BusinessError(t *testing.T) {
	client, store, notifier := newTestClient(t,
		jsonHandler(200, `{"code":4001,"message":"captcha mismatch"}`))
	require.NoError(t, store.Commit("tok-1", time.Now().Add(time.Hour)))

	err := client.Call(context.Background(), http.MethodPost, "/api/activities", nil, nil)

	var be *BusinessError
	require.ErrorAs(t, err, &be)
	assert.Equal(t, 4001, be.Code)
	assert.Equal(t, "captcha mismatch", be.Message)
	assert.Equal(t, []string{"captcha mismatch"}, notifier.toasts)
	// A business failure never touches the session.
	assert.True(t, store.Authenticated())
}

func TestClient_HTTPStatusMapping(t *testing.T) {
	tests := []struct {
		status  int
		message string
	}{
		{400, "bad request, check the request parameters"},
		{403, "permission denied for this resource"},
		{404, "the requested resource does not exist"},
		{500, "server error, contact the administrator"},
	}

	for _, tt := range tests {
		client, _, notifier := newTestClient(t, jsonHandler(tt.status, `{}`))

		err := client.Call(context.Background(), http.MethodGet, "/api/activities", nil, nil)

		var ne *NetworkError
		require.ErrorAs(t, err, &ne)
		assert.Equal(t, tt.status, ne.Status)
		assert.Equal(t, tt.message, ne.Error())
		assert.Equal(t, []string{tt.message}, notifier.toasts)
	}
}

func TestClient_Timeout(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	})
	client, _, notifier := newTestClient(t, handler)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	err := client.Call(ctx, http.MethodGet, "/api/activities", nil, nil)

	var ne *NetworkError
	require.ErrorAs(t, err, &ne)
	assert.True(t, ne.Timeout())
	assert.Equal(t, "request timed out, check your network connection", ne.Error())
	assert.Equal(t, []string{ne.Error()}, notifier.toasts)
}

func TestClient_BinaryBodyOnJSONEndpoint(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "image/png")
		w.Write([]byte{0x89, 0x50, 0x4e, 0x47})
	})
	client, _, _ := newTestClient(t, handler)

	err := client.Call(context.Background(), http.MethodGet, "/api/activities", nil, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "binary response")
}

func TestClient_Fetch(t *testing.T) {
	payload := []byte{0x89, 0x50, 0x4e, 0x47}
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "image/png")
		w.Write(payload)
	})
	client, _, _ := newTestClient(t, handler)

	body, ct, err := client.Fetch(context.Background(), "/api/captcha/image?codeType=login")
	require.NoError(t, err)
	assert.Equal(t, payload, body)
	assert.Equal(t, "image/png", ct)
}

func TestClient_Login(t *testing.T) {
	t.Run("commits token with server expiry", func(t *testing.T) {
		expiry := time.Now().Add(2 * time.Hour).UnixMilli()
		var gotBody map[string]any
		handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "/api/login", r.URL.Path)
			assert.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))
			w.Write([]byte(fmt.Sprintf(`{"code":200,"data":{"token":"tok-1","expiry_time":%d}}`, expiry)))
		})
		client, store, _ := newTestClient(t, handler)

		err := client.Login(context.Background(), Credentials{Card: "card-1", Password: "pw"}, "abcd", "key-1")
		require.NoError(t, err)

		assert.True(t, store.Authenticated())
		assert.Equal(t, "tok-1", store.Token())
		assert.Equal(t, expiry, store.ExpiresAt().UnixMilli())
		assert.NotEmpty(t, store.LastLogin())

		user := gotBody["user"].(map[string]any)
		assert.Equal(t, "card-1", user["card"])
		assert.Equal(t, "abcd", gotBody["captcha"])
		assert.Equal(t, "key-1", gotBody["captchaKey"])
	})

	t.Run("derives default expiry when server omits one", func(t *testing.T) {
		client, store, _ := newTestClient(t,
			jsonHandler(200, `{"code":200,"data":{"token":"opaque-token"}}`))

		before := time.Now()
		require.NoError(t, client.Login(context.Background(), Credentials{Card: "c", Password: "p"}, "abcd", ""))

		expiresAt := store.ExpiresAt()
		assert.WithinDuration(t, before.Add(session.DefaultExpiry), expiresAt, time.Minute)
	})

	t.Run("rejects envelope without token", func(t *testing.T) {
		client, store, _ := newTestClient(t, jsonHandler(200, `{"code":200,"data":{}}`))

		err := client.Login(context.Background(), Credentials{Card: "c", Password: "p"}, "abcd", "")
		require.Error(t, err)
		assert.False(t, store.Authenticated())
	})
}

func TestClient_Logout(t *testing.T) {
	t.Run("clears session on success", func(t *testing.T) {
		client, store, _ := newTestClient(t, jsonHandler(200, `{"code":200}`))
		require.NoError(t, store.Commit("tok-1", time.Now().Add(time.Hour)))

		require.NoError(t, client.Logout(context.Background()))
		assert.False(t, store.Authenticated())
	})

	t.Run("treats 403 as success", func(t *testing.T) {
		client, store, _ := newTestClient(t, jsonHandler(403, `{}`))
		require.NoError(t, store.Commit("tok-1", time.Now().Add(time.Hour)))

		require.NoError(t, client.Logout(context.Background()))
		assert.False(t, store.Authenticated())
	})

	t.Run("clears session even when server errors", func(t *testing.T) {
		client, store, _ := newTestClient(t, jsonHandler(500, `{}`))
		require.NoError(t, store.Commit("tok-1", time.Now().Add(time.Hour)))

		err := client.Logout(context.Background())
		var ne *NetworkError
		require.ErrorAs(t, err, &ne)
		assert.False(t, store.Authenticated())
	})
}

func TestClient_CaptchaFallback(t *testing.T) {
	client, _, _ := newTestClient(t, jsonHandler(500, `{}`))

	captcha, err := client.Captcha(context.Background(), "login")
	require.NoError(t, err)
	assert.Equal(t, "dev-1", captcha.Key)
	assert.Contains(t, captcha.ImageURL, "/api/captcha/image?codeType=login&deviceId=dev-1")
}

func TestNetworkError_Unwrap(t *testing.T) {
	inner := errors.New("boom")
	ne := &NetworkError{Message: "network error", Err: inner}
	assert.ErrorIs(t, ne, inner)
}
