package commands

import (
	"context"
	"fmt"
)

type OpenCmd struct {
	Path string `arg:"" help:"Route path to navigate to, e.g. /dashboard/activities"`
}

// Run evaluates the navigation guard for the given path and reports the
// decision chain, following redirects until a navigation is allowed.
func (o *OpenCmd) Run(ctx context.Context, globals *Globals) error {
	app, err := newApp(globals)
	if err != nil {
		return err
	}
	defer app.guard.Wait()

	target := o.Path
	for {
		decision := app.guard.Evaluate(ctx, target)
		if decision.Allow {
			fmt.Printf("-> %s\n", target)
			return nil
		}
		fmt.Printf("   %s redirected to %s\n", target, decision.Target())
		target = decision.Target()
	}
}
