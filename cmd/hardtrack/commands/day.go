package commands

import (
	"context"
	"fmt"

	"git.home.luguber.info/inful/hardtrack/internal/challenge"
	terrors "git.home.luguber.info/inful/hardtrack/internal/errors"
)

// DayCmd groups day-level commands.
type DayCmd struct {
	Complete DayCompleteCmd `cmd:"" help:"Record the current day as completed and advance"`
	Weekday  DayWeekdayCmd  `cmd:"" help:"Show which real-world weekday a challenge day falls on"`
}

// DayCompleteCmd implements 'hardtrack day complete'.
type DayCompleteCmd struct{}

func (d *DayCompleteCmd) Run(_ *Global, root *CLI) error {
	ctx := context.Background()
	a, err := openApp(ctx, root)
	if err != nil {
		return err
	}
	defer a.Close()

	current, advanced, err := a.state.CompleteDay(ctx)
	if err != nil {
		return err
	}
	if !advanced {
		fmt.Printf("Day %d is already recorded. Nothing to do.\n", current)
		return nil
	}
	fmt.Printf("Day %d completed. Now on day %d of %d.\n", current-1, current, challenge.TotalDays)
	return nil
}

// DayWeekdayCmd implements 'hardtrack day weekday'.
type DayWeekdayCmd struct {
	Day int `arg:"" help:"Challenge day number"`
}

func (d *DayWeekdayCmd) Run(_ *Global, root *CLI) error {
	if d.Day < 1 {
		return terrors.ValidationFailed("day", "must be 1 or higher")
	}

	ctx := context.Background()
	a, err := openApp(ctx, root)
	if err != nil {
		return err
	}
	defer a.Close()

	fmt.Printf("Day %d falls on a %s.\n", d.Day, a.state.WeekdayForDay(d.Day))
	return nil
}
