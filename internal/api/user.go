package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/rs/zerolog/log"

	"github.com/leagueops/orgcli/internal/session"
)

// FetchProfile loads the current user's identity profile and caches it in
// the session store. Concurrent fetches are collapsed: a second caller
// while one is running simply gets the cached profile. The store itself
// discards the result if the session was cleared while the fetch ran.
func (c *Client) FetchProfile(ctx context.Context) (*session.Profile, error) {
	if !c.store.BeginProfileFetch() {
		log.Debug().Msg("profile fetch already in progress, returning cached profile")
		return c.store.Profile(), nil
	}
	defer c.store.EndProfileFetch()

	var raw json.RawMessage
	if err := c.Call(ctx, http.MethodGet, "/api/users/me", nil, &raw); err != nil {
		return nil, err
	}

	profile, err := decodeProfile(raw)
	if err != nil {
		return nil, err
	}

	if err := c.store.SetProfile(profile); err != nil {
		return nil, err
	}

	return profile, nil
}

// userFields is the user object as the service emits it. Several fields
// arrive in either snake_case or camelCase depending on the endpoint
// revision; both spellings are listed and the first populated one wins.
type userFields struct {
	ID       json.Number `json:"id"`
	Name     string      `json:"name"`
	Card     string      `json:"card"`
	Username string      `json:"username"`
	Roles    []string    `json:"roles"`

	LeaguePosition    string `json:"league_position"`
	LeaguePositionAlt string `json:"leaguePosition"`

	IsActivated    *bool `json:"isActivated"`
	IsActivatedAlt *bool `json:"is_activated"`
}

// orgFields carries the organization descriptors that accompany the user.
type orgFields struct {
	OrgName    string `json:"org_name"`
	OrgNameAlt string `json:"orgName"`

	FullName    string `json:"full_name"`
	FullNameAlt string `json:"fullName"`
}

// decodeProfile maps the loosely-typed profile payload to a Profile. The
// accepted shapes, tried in order: a `{data: {...}}` wrapper around either
// of the others, a `{user: {...}, org_name, ...}` composite, and a flat
// user object.
func decodeProfile(raw json.RawMessage) (*session.Profile, error) {
	// Unwrap one level of {data: {...}} nesting when present.
	var wrap struct {
		Data json.RawMessage `json:"data"`
	}
	if err := json.Unmarshal(raw, &wrap); err == nil && len(wrap.Data) > 0 {
		raw = wrap.Data
	}

	var composite struct {
		orgFields
		User json.RawMessage `json:"user"`
	}
	if err := json.Unmarshal(raw, &composite); err != nil {
		return nil, fmt.Errorf("unrecognized profile payload: %w", err)
	}

	userRaw := composite.User
	if len(userRaw) == 0 {
		// Flat variant: the user fields sit at the top level.
		userRaw = raw
	}

	var u userFields
	if err := json.Unmarshal(userRaw, &u); err != nil {
		return nil, fmt.Errorf("unrecognized profile payload: %w", err)
	}
	if u.ID == "" && u.Name == "" && u.Card == "" {
		return nil, fmt.Errorf("profile payload missing user identity")
	}

	profile := &session.Profile{
		ID:           u.ID.String(),
		Name:         u.Name,
		Card:         u.Card,
		Username:     u.Username,
		Roles:        u.Roles,
		Organization: firstNonEmpty(composite.OrgName, composite.OrgNameAlt, composite.FullName, composite.FullNameAlt),
		Position:     firstNonEmpty(u.LeaguePosition, u.LeaguePositionAlt),
	}
	if u.IsActivated != nil {
		profile.Activated = u.IsActivated
	} else if u.IsActivatedAlt != nil {
		profile.Activated = u.IsActivatedAlt
	}

	log.Debug().Str("id", profile.ID).Str("name", profile.Name).Msg("profile decoded")

	return profile, nil
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}
