package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/leagueops/orgcli/internal/session"
)

// Credentials are the login form fields.
type Credentials struct {
	Card     string
	Password string
}

// tokenData is the token/expiry payload shared by the login and refresh
// envelopes. ExpiryTime is ms since epoch and may be absent.
type tokenData struct {
	Token      string `json:"token"`
	ExpiryTime int64  `json:"expiry_time"`
}

// Login authenticates and commits the returned token to the session store.
// When the server omits an expiry the token's own exp claim is used, and
// failing that a 24 hour default. The raw login envelope is stashed in the
// store's volatile state for later inspection.
func (c *Client) Login(ctx context.Context, creds Credentials, captcha, captchaKey string) error {
	payload := map[string]any{
		"user": map[string]string{
			"card": creds.Card,
			"pwd":  creds.Password,
		},
		"captcha": captcha,
	}
	if captchaKey != "" {
		payload["captchaKey"] = captchaKey
	}

	req, err := c.newRequest(ctx, http.MethodPost, "/api/login", payload)
	if err != nil {
		return err
	}

	env, err := c.do(req)
	if err != nil {
		return err
	}

	var data tokenData
	if len(env.Data) > 0 {
		if err := json.Unmarshal(env.Data, &data); err != nil {
			return fmt.Errorf("failed to decode login response: %w", err)
		}
	}
	if data.Token == "" {
		return fmt.Errorf("login response missing token")
	}

	now := time.Now()
	expiresAt := time.UnixMilli(data.ExpiryTime)
	if data.ExpiryTime <= 0 {
		expiresAt = session.ExpiryFromToken(data.Token, now)
	}

	if err := c.store.Commit(data.Token, expiresAt); err != nil {
		return err
	}
	c.store.SetLastLogin(env.Raw)

	log.Info().Str("card", creds.Card).Time("expiresAt", expiresAt).Msg("logged in")

	return nil
}

// Logout invalidates the session server-side on a best-effort basis and
// clears local state regardless of the outcome. A 403 from the endpoint is
// acceptable: the server already considers the session gone.
func (c *Client) Logout(ctx context.Context) error {
	token := c.store.Token()

	req, err := c.newRequest(ctx, http.MethodPost, "/api/logout", struct{}{})
	if err != nil {
		c.store.Clear()
		return err
	}
	if token != "" {
		// The logout path is excluded from interception, so the bearer
		// header is attached here explicitly.
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.httpClient.Do(req)
	c.store.Clear()
	if err != nil {
		log.Warn().Err(err).Msg("logout request failed, local state cleared anyway")
		return transportError(err)
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)

	if resp.StatusCode == http.StatusForbidden {
		log.Debug().Msg("logout returned 403, treating as success")
		return nil
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		log.Warn().Int("status", resp.StatusCode).Msg("logout rejected, local state cleared anyway")
		return &NetworkError{
			Status:  resp.StatusCode,
			Message: statusMessage(resp.StatusCode),
			Err:     fmt.Errorf("http status %d", resp.StatusCode),
		}
	}

	log.Info().Msg("logged out")

	return nil
}

// RefreshToken obtains a fresh token using the current one. It implements
// session.Refresher for the coordinator and deliberately bypasses the
// classifier side effects: a failed refresh must stay invisible to the
// user, since the current token may still be valid until actual expiry.
func (c *Client) RefreshToken(ctx context.Context) (string, time.Time, error) {
	token := c.store.Token()
	if token == "" {
		return "", time.Time{}, session.ErrNotAuthenticated
	}

	req, err := c.newRequest(ctx, http.MethodPost, "/api/auth/refresh", nil)
	if err != nil {
		return "", time.Time{}, err
	}
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("refresh request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		io.Copy(io.Discard, resp.Body)
		return "", time.Time{}, fmt.Errorf("refresh rejected with status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("refresh response unreadable: %w", err)
	}

	env, err := decodeEnvelope(body)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("refresh response malformed: %w", err)
	}
	if !env.OK() {
		return "", time.Time{}, fmt.Errorf("refresh failed: %s", env.Message)
	}

	var data tokenData
	if len(env.Data) > 0 {
		if err := json.Unmarshal(env.Data, &data); err != nil {
			return "", time.Time{}, fmt.Errorf("refresh response malformed: %w", err)
		}
	}
	if data.Token == "" {
		return "", time.Time{}, errors.New("refresh response missing token")
	}

	now := time.Now()
	expiresAt := time.UnixMilli(data.ExpiryTime)
	if data.ExpiryTime <= 0 {
		expiresAt = session.ExpiryFromToken(data.Token, now)
	}

	return data.Token, expiresAt, nil
}

// Captcha fetches a login captcha challenge. The endpoint is excluded from
// auth interception. When the JSON endpoint is unreachable the caller gets
// a direct image URL to load instead, mirroring the web client's fallback.
type Captcha struct {
	Image    string `json:"captchaImg"` // inline image data when present
	Key      string `json:"key"`
	ImageURL string `json:"-"` // set when falling back to a direct fetch
}

func (c *Client) Captcha(ctx context.Context, codeType string) (*Captcha, error) {
	var out Captcha
	err := c.Call(ctx, http.MethodPost, "/api/captcha", map[string]string{
		"codeType": codeType,
		"deviceId": c.deviceID,
	}, &out)
	if err == nil {
		if out.Key == "" {
			out.Key = c.deviceID
		}
		return &out, nil
	}

	var ne *NetworkError
	if errors.As(err, &ne) {
		url := c.CaptchaImageURL(codeType)
		log.Debug().Str("url", url).Msg("captcha endpoint unreachable, falling back to image URL")
		return &Captcha{Key: c.deviceID, ImageURL: url}, nil
	}

	return nil, err
}

// CaptchaImageURL builds the direct captcha image URL. The timestamp
// parameter defeats intermediary caches.
func (c *Client) CaptchaImageURL(codeType string) string {
	return fmt.Sprintf("%s/api/captcha/image?codeType=%s&deviceId=%s&t=%d&direct=true",
		c.baseURL, codeType, c.deviceID, time.Now().UnixMilli())
}
