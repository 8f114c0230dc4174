package commands

import (
	"context"
	"encoding/json"
	"fmt"

	"git.home.luguber.info/inful/hardtrack/internal/challenge"
	terrors "git.home.luguber.info/inful/hardtrack/internal/errors"
	"git.home.luguber.info/inful/hardtrack/internal/stats"
)

// StatusCmd implements the 'status' command.
type StatusCmd struct {
	JSON bool `help:"Emit the summary as JSON"`
}

func (s *StatusCmd) Run(_ *Global, root *CLI) error {
	ctx := context.Background()
	a, err := openApp(ctx, root)
	if err != nil {
		return err
	}
	defer a.Close()

	summary := stats.Collect(a.state)
	weeks := stats.WeeklyBreakdown(a.state.CompletedDays(), summary.CurrentDay)

	if s.JSON {
		payload := struct {
			stats.Summary
			Weeks []stats.Week `json:"weeks"`
		}{summary, weeks}

		out, err := json.MarshalIndent(payload, "", "  ")
		if err != nil {
			return terrors.SerializationError("status", err)
		}
		fmt.Println(string(out))
		return nil
	}

	fmt.Printf("Day %d of %d\n", summary.CurrentDay, challenge.TotalDays)
	fmt.Printf("Completed: %d days (%d%%)\n", summary.CompletedCount, summary.ProgressPercent)
	fmt.Printf("Checklist: %d of %d done (%d%%)\n",
		summary.Tasks.CountDone(), len(challenge.AllTasks), summary.TasksDonePercent)
	fmt.Printf("Streak: %d current, %d longest\n", summary.CurrentStreak, summary.LongestStreak)
	fmt.Printf("Remaining: %d days\n", summary.DaysRemaining)

	if len(weeks) > 0 {
		week := weeks[len(weeks)-1]
		fmt.Printf("This week: %d of %d days (week %d)\n",
			week.Completed, week.EndDay-week.StartDay+1, week.Number)
	}
	return nil
}
