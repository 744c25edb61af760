package commands

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/leagueops/orgcli/internal/api"
)

type LoginCmd struct {
	Card     string `help:"Membership card number" required:""`
	Password string `help:"Password" env:"ORGCLI_PASSWORD"`
	Captcha  string `help:"Captcha answer; fetched interactively when omitted"`
}

func (l *LoginCmd) Run(ctx context.Context, globals *Globals) error {
	app, err := newApp(globals)
	if err != nil {
		return err
	}

	password := l.Password
	if password == "" {
		password, err = prompt("Password")
		if err != nil {
			return err
		}
	}

	captcha := l.Captcha
	var captchaKey string
	if captcha == "" {
		challenge, err := app.client.Captcha(ctx, "login")
		if err != nil {
			return fmt.Errorf("failed to fetch captcha: %w", err)
		}
		captchaKey = challenge.Key

		switch {
		case challenge.ImageURL != "":
			fmt.Fprintf(os.Stderr, "Open the captcha image: %s\n", challenge.ImageURL)
		case challenge.Image != "":
			path := filepath.Join(app.cfg.Dir(), "captcha.png")
			if err := writeCaptchaImage(path, challenge.Image); err != nil {
				return err
			}
			fmt.Fprintf(os.Stderr, "Captcha image written to %s\n", path)
		}

		captcha, err = prompt("Captcha")
		if err != nil {
			return err
		}
	}

	err = app.client.Login(ctx, api.Credentials{Card: l.Card, Password: password}, captcha, captchaKey)
	if err != nil {
		return err
	}

	fmt.Printf("Logged in as %s. Session expires %s.\n", l.Card, app.store.ExpiresAt().Local().Format("2006-01-02 15:04"))

	return nil
}
