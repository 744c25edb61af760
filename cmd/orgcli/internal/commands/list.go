package commands

import (
	"context"
	"fmt"
)

type ActivitiesCmd struct {
	Page int `help:"Page number" default:"1"`
	Size int `help:"Items per page" default:"20"`
}

func (a *ActivitiesCmd) Run(ctx context.Context, globals *Globals) error {
	app, err := newApp(globals)
	if err != nil {
		return err
	}

	page, err := app.client.ListActivities(ctx, a.Page, a.Size)
	if err != nil {
		return err
	}

	for _, act := range page.Items {
		fmt.Printf("%-6d %-12s %-10s %s\n", act.ID, act.Date, act.Status, act.Title)
	}
	fmt.Printf("%d activities total\n", page.Total)

	return nil
}

type HonorsCmd struct {
	Page int `help:"Page number" default:"1"`
	Size int `help:"Items per page" default:"20"`
}

func (h *HonorsCmd) Run(ctx context.Context, globals *Globals) error {
	app, err := newApp(globals)
	if err != nil {
		return err
	}

	page, err := app.client.ListHonors(ctx, h.Page, h.Size)
	if err != nil {
		return err
	}

	for _, honor := range page.Items {
		fmt.Printf("%-6d %-10s %s\n", honor.ID, honor.Status, honor.Title)
	}
	fmt.Printf("%d honors total\n", page.Total)

	return nil
}

type TransfersCmd struct {
	Page int `help:"Page number" default:"1"`
	Size int `help:"Items per page" default:"20"`
}

func (t *TransfersCmd) Run(ctx context.Context, globals *Globals) error {
	app, err := newApp(globals)
	if err != nil {
		return err
	}

	page, err := app.client.ListTransfers(ctx, t.Page, t.Size)
	if err != nil {
		return err
	}

	for _, tr := range page.Items {
		fmt.Printf("%-6d %-10s -> %s\n", tr.ID, tr.Status, tr.TargetOrg)
	}
	fmt.Printf("%d transfers total\n", page.Total)

	return nil
}
