package main

import (
	"context"

	"github.com/alecthomas/kong"

	"github.com/leagueops/orgcli/cmd/orgcli/internal/commands"
)

var (
	version = "dev"
	cli     struct {
		Login         commands.LoginCmd         `cmd:"" help:"Log in to the service"`
		Logout        commands.LogoutCmd        `cmd:"" help:"Log out and clear the local session"`
		Whoami        commands.WhoamiCmd        `cmd:"" help:"Show the current session state"`
		Profile       commands.ProfileCmd       `cmd:"" help:"Fetch and show the user profile"`
		Open          commands.OpenCmd          `cmd:"" help:"Evaluate navigation to a route path"`
		Activities    commands.ActivitiesCmd    `cmd:"" help:"List activities"`
		Honors        commands.HonorsCmd        `cmd:"" help:"List honors"`
		Transfers     commands.TransfersCmd     `cmd:"" help:"List membership transfers"`
		Notifications commands.NotificationsCmd `cmd:"" help:"List or watch notifications"`
		Debug         bool                      `help:"Enable debug mode."`
		ConfigDir     string                    `help:"Override the config directory." env:"ORGCLI_CONFIG_DIR"`
		Version       kong.VersionFlag
	}
)

func main() {
	ctx := context.Background()
	cmd := kong.Parse(&cli,
		kong.Vars{
			"version": version,
		},
		kong.BindTo(ctx, (*context.Context)(nil)))
	err := cmd.Run(&commands.Globals{Debug: cli.Debug, Version: version, ConfigDir: cli.ConfigDir})
	cmd.FatalIfErrorf(err)
}
