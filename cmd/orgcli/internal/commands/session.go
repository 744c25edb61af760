package commands

import (
	"context"
	"fmt"
	"strings"
	"time"
)

type LogoutCmd struct{}

func (l *LogoutCmd) Run(ctx context.Context, globals *Globals) error {
	app, err := newApp(globals)
	if err != nil {
		return err
	}

	if !app.store.Authenticated() {
		fmt.Println("Not logged in.")
		return nil
	}

	// Server-side invalidation is best effort; local state is gone even
	// when the request fails.
	if err := app.client.Logout(ctx); err != nil {
		fmt.Println("Logged out locally; the server could not be reached.")
		return nil
	}

	fmt.Println("Logged out.")
	return nil
}

type WhoamiCmd struct{}

func (w *WhoamiCmd) Run(ctx context.Context, globals *Globals) error {
	app, err := newApp(globals)
	if err != nil {
		return err
	}

	if !app.store.Authenticated() {
		fmt.Println("Not logged in.")
		return nil
	}

	now := time.Now()
	expiresAt := app.store.ExpiresAt()

	fmt.Println("Logged in.")
	switch {
	case expiresAt.IsZero():
		fmt.Println("Session expiry: unknown")
	case app.store.IsExpired(now):
		fmt.Printf("Session expired at %s\n", expiresAt.Local().Format(time.RFC1123))
	default:
		fmt.Printf("Session expires %s\n", expiresAt.Local().Format(time.RFC1123))
	}

	if p := app.store.Profile(); p != nil {
		fmt.Printf("Name:         %s\n", p.Name)
		fmt.Printf("Card:         %s\n", p.Card)
		fmt.Printf("Organization: %s\n", p.Organization)
		if len(p.Roles) > 0 {
			fmt.Printf("Roles:        %s\n", strings.Join(p.Roles, ", "))
		}
	}

	return nil
}

type ProfileCmd struct{}

func (p *ProfileCmd) Run(ctx context.Context, globals *Globals) error {
	app, err := newApp(globals)
	if err != nil {
		return err
	}

	profile, err := app.client.FetchProfile(ctx)
	if err != nil {
		return err
	}

	fmt.Printf("Name:         %s\n", profile.Name)
	fmt.Printf("Card:         %s\n", profile.Card)
	fmt.Printf("Organization: %s\n", profile.Organization)
	fmt.Printf("Position:     %s\n", profile.Position)
	if len(profile.Roles) > 0 {
		fmt.Printf("Roles:        %s\n", strings.Join(profile.Roles, ", "))
	}
	if profile.Activated != nil {
		fmt.Printf("Activated:    %t\n", *profile.Activated)
	}

	return nil
}
