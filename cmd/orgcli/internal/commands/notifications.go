package commands

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v5"

	"github.com/leagueops/orgcli/internal/api"
)

type NotificationsCmd struct {
	List  NotificationsListCmd  `cmd:"" default:"1" help:"List notifications"`
	Watch NotificationsWatchCmd `cmd:"" help:"Poll for new notifications"`
}

type NotificationsListCmd struct {
	Page int `help:"Page number" default:"1"`
	Size int `help:"Items per page" default:"20"`
}

func (n *NotificationsListCmd) Run(ctx context.Context, globals *Globals) error {
	app, err := newApp(globals)
	if err != nil {
		return err
	}

	page, err := app.client.ListNotifications(ctx, n.Page, n.Size)
	if err != nil {
		return err
	}

	printNotifications(page.Items, nil)
	fmt.Printf("%d notifications total\n", page.Total)

	return nil
}

type NotificationsWatchCmd struct {
	Interval time.Duration `help:"Poll interval" default:"30s"`
}

// Run polls the notifications endpoint and prints anything new. The
// pipeline itself never retries, so transient transport failures are
// retried here in calling code, with exponential backoff; business and
// session errors end the watch.
func (n *NotificationsWatchCmd) Run(ctx context.Context, globals *Globals) error {
	app, err := newApp(globals)
	if err != nil {
		return err
	}

	fmt.Println("Watching notifications (press Ctrl+C to stop)...")

	seen := make(map[int]bool)

	ticker := time.NewTicker(n.Interval)
	defer ticker.Stop()

	for {
		page, err := backoff.Retry(ctx, func() (*api.Page[api.Notification], error) {
			page, err := app.client.ListNotifications(ctx, 1, 20)
			if err != nil {
				var ne *api.NetworkError
				if errors.As(err, &ne) {
					return nil, err // transient, retry
				}
				return nil, backoff.Permanent(err)
			}
			return page, nil
		}, backoff.WithBackOff(backoff.NewExponentialBackOff()), backoff.WithMaxTries(5))
		if err != nil {
			return err
		}

		printNotifications(page.Items, seen)

		select {
		case <-ticker.C:
		case <-ctx.Done():
			return nil
		}
	}
}

func printNotifications(items []api.Notification, seen map[int]bool) {
	for _, item := range items {
		if seen != nil {
			if seen[item.ID] {
				continue
			}
			seen[item.ID] = true
		}
		marker := " "
		if !item.Read {
			marker = "*"
		}
		fmt.Printf("%s %-6d %-20s %s\n", marker, item.ID, item.SentAt, item.Title)
	}
}
