package commands

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/leagueops/orgcli/internal/api"
	"github.com/leagueops/orgcli/internal/config"
	"github.com/leagueops/orgcli/internal/guard"
	"github.com/leagueops/orgcli/internal/logger"
	"github.com/leagueops/orgcli/internal/session"
)

type Globals struct {
	Debug   bool
	Version string

	// ConfigDir overrides ~/.orgcli, mainly for tests and scripting.
	ConfigDir string
}

// app wires the config, session store, API client, and navigation guard
// for one command invocation.
type app struct {
	cfg    *config.Config
	store  *session.Store
	client *api.Client
	guard  *guard.Guard
}

func newApp(globals *Globals) (*app, error) {
	log.Logger = logger.Setup(globals.Debug)
	zerolog.DefaultContextLogger = &log.Logger

	cfg, err := config.Load(globals.ConfigDir)
	if err != nil {
		return nil, err
	}

	store, err := session.NewStore(cfg.Dir())
	if err != nil {
		return nil, err
	}
	store.Restore()

	notifier := &terminalNotifier{}

	client := api.New(api.Config{
		BaseURL:          cfg.ServerURL,
		Timeout:          cfg.RequestTimeout,
		RefreshThreshold: cfg.RefreshThreshold,
		DeviceID:         cfg.DeviceID,
		CacheDir:         filepath.Join(cfg.Dir(), "cache"),
	}, store,
		api.WithNotifier(notifier),
		api.WithSessionExpiredHook(func() {
			fmt.Fprintf(os.Stderr, "Session expired. Run `orgcli login` to sign in again.\n")
		}),
	)

	return &app{
		cfg:    cfg,
		store:  store,
		client: client,
		guard:  guard.New(store, client, notifier),
	}, nil
}

// terminalNotifier renders classification side effects on the terminal.
type terminalNotifier struct{}

func (terminalNotifier) Toast(msg string) {
	fmt.Fprintf(os.Stderr, "error: %s\n", msg)
}

func (terminalNotifier) Warn(msg string) {
	fmt.Fprintf(os.Stderr, "warning: %s\n", msg)
}

func (terminalNotifier) ConfirmReauth() bool {
	fmt.Fprint(os.Stderr, "Your login has expired. Log in again? [Y/n] ")
	reader := bufio.NewReader(os.Stdin)
	line, err := reader.ReadString('\n')
	if err != nil {
		return true
	}
	answer := strings.ToLower(strings.TrimSpace(line))
	return answer == "" || answer == "y" || answer == "yes"
}

// prompt reads one line from stdin with a label.
func prompt(label string) (string, error) {
	fmt.Fprintf(os.Stderr, "%s: ", label)
	reader := bufio.NewReader(os.Stdin)
	line, err := reader.ReadString('\n')
	if err != nil {
		return "", fmt.Errorf("failed to read input: %w", err)
	}
	return strings.TrimSpace(line), nil
}
