package commands

import (
	"context"
	"fmt"

	terrors "git.home.luguber.info/inful/hardtrack/internal/errors"
)

// ResetCmd implements the 'reset' command.
type ResetCmd struct {
	Yes bool `help:"Really wipe every completed day and today's checklist"`
}

func (r *ResetCmd) Run(_ *Global, root *CLI) error {
	if !r.Yes {
		return terrors.ValidationFailed("--yes", "resetting wipes every completed day; pass --yes to confirm")
	}

	ctx := context.Background()
	a, err := openApp(ctx, root)
	if err != nil {
		return err
	}
	defer a.Close()

	if err := a.state.ResetAll(ctx); err != nil {
		return err
	}
	fmt.Println("All challenge progress cleared. Back to day 1.")
	return nil
}
