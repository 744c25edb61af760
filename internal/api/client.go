package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/leagueops/orgcli/internal/client"
	"github.com/leagueops/orgcli/internal/session"
)

// Config holds the client construction parameters.
type Config struct {
	BaseURL          string
	Timeout          time.Duration
	RefreshThreshold time.Duration
	DeviceID         string

	// CacheDir backs the caching transport used for binary fetches
	// (captcha images, exported documents). Empty means in-memory cache.
	CacheDir string
}

// Option customizes a Client.
type Option func(*Client)

// WithNotifier sets the user-notification surface.
func WithNotifier(n Notifier) Option {
	return func(c *Client) { c.notifier = n }
}

// WithSessionExpiredHook sets the callback run after a session-expired
// response has cleared the store and the user confirmed re-authentication.
// The router wires this to a redirect to the login page.
func WithSessionExpiredHook(fn func()) Option {
	return func(c *Client) { c.onSessionExpired = fn }
}

// WithBaseTransport replaces the underlying HTTP transport, primarily for
// tests.
func WithBaseTransport(rt http.RoundTripper) Option {
	return func(c *Client) { c.baseTransport = rt }
}

// Client is the single outbound entry point for every API call. It owns
// header injection, proactive token refresh, response classification, and
// uniform error surfacing, so the per-domain wrappers never see an auth
// header or an envelope.
type Client struct {
	baseURL  string
	deviceID string

	store    *session.Store
	notifier Notifier

	httpClient   *http.Client // JSON pipeline with classification
	binaryClient *http.Client // cached transport, classification bypassed

	baseTransport    http.RoundTripper
	onSessionExpired func()
}

// New creates a Client bound to a session store.
func New(cfg Config, store *session.Store, opts ...Option) *Client {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}

	c := &Client{
		baseURL:  strings.TrimRight(cfg.BaseURL, "/"),
		deviceID: cfg.DeviceID,
		store:    store,
		notifier: LogNotifier{},
	}

	for _, opt := range opts {
		opt(c)
	}

	if c.baseTransport == nil {
		c.baseTransport = http.DefaultTransport
	}

	coord := session.NewCoordinator(store, c, cfg.RefreshThreshold)
	auth := &authTransport{base: c.baseTransport, store: store, refresh: coord}

	c.httpClient = &http.Client{
		Timeout:   cfg.Timeout,
		Transport: auth,
	}
	c.binaryClient = client.NewCachingHTTPClient(cfg.CacheDir, auth, cfg.Timeout)

	return c
}

// Call sends a JSON request through the full interceptor/classifier
// pipeline and unmarshals the envelope's data payload into out. All four
// failure kinds surface as errors: ErrSessionExpired, *BusinessError,
// *NetworkError, or a wrapped decode error.
func (c *Client) Call(ctx context.Context, method, path string, payload, out any) error {
	req, err := c.newRequest(ctx, method, path, payload)
	if err != nil {
		return err
	}

	env, err := c.do(req)
	if err != nil {
		return err
	}

	if out != nil && len(env.Data) > 0 {
		if err := json.Unmarshal(env.Data, out); err != nil {
			return fmt.Errorf("failed to decode response data: %w", err)
		}
	}

	return nil
}

// Fetch retrieves a binary resource (captcha image, exported document)
// through the caching transport. Binary responses bypass envelope
// classification entirely: the body and content type are returned as-is.
func (c *Client) Fetch(ctx context.Context, path string) ([]byte, string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return nil, "", fmt.Errorf("failed to build request: %w", err)
	}

	resp, err := c.binaryClient.Do(req)
	if err != nil {
		ne := transportError(err)
		c.notifier.Toast(ne.Message)
		return nil, "", ne
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		ne := &NetworkError{
			Status:  resp.StatusCode,
			Message: statusMessage(resp.StatusCode),
			Err:     fmt.Errorf("http status %d", resp.StatusCode),
		}
		c.notifier.Toast(ne.Message)
		return nil, "", ne
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, "", transportError(err)
	}

	return body, resp.Header.Get("Content-Type"), nil
}

// newRequest builds a JSON API request.
func (c *Client) newRequest(ctx context.Context, method, path string, payload any) (*http.Request, error) {
	var body io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal request: %w", err)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	return req, nil
}

// do runs a request through the pipeline and classifies the response into
// exactly one outcome, driving the user-visible side effects for the three
// failure kinds.
func (c *Client) do(req *http.Request) (*Envelope, error) {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		ne := transportError(err)
		log.Debug().Err(err).Str("path", req.URL.Path).Msg("request failed")
		c.notifier.Toast(ne.Message)
		return nil, ne
	}
	defer resp.Body.Close()

	if ct := resp.Header.Get("Content-Type"); binaryContentType(ct) {
		// Binary bodies are not envelopes; callers wanting them use Fetch.
		io.Copy(io.Discard, resp.Body)
		return nil, fmt.Errorf("binary response (%s) on JSON endpoint %s", ct, req.URL.Path)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		ne := &NetworkError{
			Status:  resp.StatusCode,
			Message: statusMessage(resp.StatusCode),
			Err:     fmt.Errorf("http status %d", resp.StatusCode),
		}
		log.Debug().Int("status", resp.StatusCode).Str("path", req.URL.Path).Msg("request rejected")
		c.notifier.Toast(ne.Message)
		return nil, ne
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		ne := transportError(err)
		c.notifier.Toast(ne.Message)
		return nil, ne
	}

	env, err := decodeEnvelope(body)
	if err != nil {
		ne := &NetworkError{Status: resp.StatusCode, Message: "network error, try again later", Err: err}
		log.Debug().Err(err).Str("path", req.URL.Path).Msg("unrecognized envelope")
		c.notifier.Toast(ne.Message)
		return nil, ne
	}

	if env.OK() {
		return env, nil
	}

	if env.Unauthorized() {
		c.sessionExpired()
		return nil, ErrSessionExpired
	}

	msg := env.Message
	if msg == "" {
		msg = "request failed"
	}
	log.Debug().Int("code", env.Code).Str("path", req.URL.Path).Str("message", msg).Msg("business error")
	c.notifier.Toast(msg)
	return nil, &BusinessError{Code: env.Code, Message: msg}
}

// sessionExpired is the terminal handling for an unauthorized envelope:
// prompt, clear the session, then hand off to the router. The session is
// cleared whether or not the user confirms.
func (c *Client) sessionExpired() {
	confirmed := c.notifier.ConfirmReauth()
	c.store.Clear()
	if confirmed && c.onSessionExpired != nil {
		c.onSessionExpired()
	}
}
