package commands

import (
	"context"
	"fmt"
	"strings"

	"git.home.luguber.info/inful/hardtrack/internal/workout"
)

// LogCmd groups exercise log commands.
type LogCmd struct {
	Add      LogAddCmd      `cmd:"" help:"Add an exercise entry"`
	Rm       LogRmCmd       `cmd:"" help:"Delete an entry by id"`
	List     LogListCmd     `cmd:"" help:"List the entries logged for a day"`
	Template LogTemplateCmd `cmd:"" help:"Add the whole suggested session for a day"`
	Prefill  LogPrefillCmd  `cmd:"" help:"Look an exercise up in the catalog"`
}

// LogAddCmd implements 'hardtrack log add'.
type LogAddCmd struct {
	Name   string `arg:"" help:"Exercise name"`
	Weight string `help:"Weight used, free text"`
	Sets   string `help:"Number of sets"`
	Reps   string `help:"Reps per set"`
	Notes  string `help:"Free-form notes"`
	Day    int    `short:"d" help:"Challenge day (defaults to the current day)"`
}

func (l *LogAddCmd) Run(_ *Global, root *CLI) error {
	ctx := context.Background()
	a, err := openApp(ctx, root)
	if err != nil {
		return err
	}
	defer a.Close()

	day := resolveDay(a, l.Day)
	entry, added, err := a.wlog.AddExercise(ctx, day, workout.Draft{
		Name:   l.Name,
		Weight: l.Weight,
		Sets:   l.Sets,
		Reps:   l.Reps,
		Notes:  l.Notes,
	})
	if err != nil {
		return err
	}
	if !added {
		fmt.Println("Exercise name is required. Nothing added.")
		return nil
	}
	fmt.Printf("Added %s to day %d (id %s).\n", entry.Name, day, entry.ID)
	return nil
}

// LogRmCmd implements 'hardtrack log rm'.
type LogRmCmd struct {
	ID  string `arg:"" help:"Entry id (see 'log list')"`
	Day int    `short:"d" help:"Challenge day (defaults to the current day)"`
}

func (l *LogRmCmd) Run(_ *Global, root *CLI) error {
	ctx := context.Background()
	a, err := openApp(ctx, root)
	if err != nil {
		return err
	}
	defer a.Close()

	day := resolveDay(a, l.Day)
	removed, err := a.wlog.DeleteExercise(ctx, day, l.ID)
	if err != nil {
		return err
	}
	if !removed {
		fmt.Printf("No entry %s on day %d. Nothing removed.\n", l.ID, day)
		return nil
	}
	fmt.Printf("Removed entry %s from day %d.\n", l.ID, day)
	return nil
}

// LogListCmd implements 'hardtrack log list'.
type LogListCmd struct {
	Day int `short:"d" help:"Challenge day (defaults to the current day)"`
}

func (l *LogListCmd) Run(_ *Global, root *CLI) error {
	ctx := context.Background()
	a, err := openApp(ctx, root)
	if err != nil {
		return err
	}
	defer a.Close()

	day := resolveDay(a, l.Day)
	entries := a.wlog.Entries(day)
	if len(entries) == 0 {
		fmt.Printf("Nothing logged for day %d.\n", day)
		return nil
	}

	fmt.Printf("Day %d:\n", day)
	for i, e := range entries {
		fmt.Printf("%2d. %s  [%s]\n", i+1, formatEntry(e), e.ID)
	}
	return nil
}

func formatEntry(e workout.Entry) string {
	parts := []string{e.Name}
	switch {
	case e.Sets != "" && e.Reps != "":
		parts = append(parts, e.Sets+" x "+e.Reps)
	case e.Sets != "":
		parts = append(parts, e.Sets+" sets")
	case e.Reps != "":
		parts = append(parts, e.Reps+" reps")
	}
	if e.Weight != "" {
		parts = append(parts, "@ "+e.Weight)
	}
	if e.Notes != "" {
		parts = append(parts, "("+e.Notes+")")
	}
	return strings.Join(parts, "  ")
}

// LogTemplateCmd implements 'hardtrack log template'.
type LogTemplateCmd struct {
	Day int `short:"d" help:"Challenge day (defaults to the current day)"`
}

func (l *LogTemplateCmd) Run(_ *Global, root *CLI) error {
	ctx := context.Background()
	a, err := openApp(ctx, root)
	if err != nil {
		return err
	}
	defer a.Close()

	day := resolveDay(a, l.Day)
	weekday := a.state.WeekdayForDay(day)
	plan, ok := a.catalog.ForWeekday(weekday)
	if !ok {
		fmt.Printf("No template for %s. Nothing added.\n", weekday)
		return nil
	}

	added, err := a.wlog.AddAllFromTemplate(ctx, day, plan.Exercises)
	if err != nil {
		return err
	}
	fmt.Printf("Added %d exercises from the %s template (%s) to day %d.\n",
		added, weekday, plan.Focus, day)
	return nil
}

// LogPrefillCmd implements 'hardtrack log prefill'.
type LogPrefillCmd struct {
	Name string `arg:"" help:"Exercise name, small typos tolerated"`
}

func (l *LogPrefillCmd) Run(_ *Global, root *CLI) error {
	ctx := context.Background()
	a, err := openApp(ctx, root)
	if err != nil {
		return err
	}
	defer a.Close()

	te, weekday, ok := a.catalog.FindExercise(l.Name)
	if !ok {
		fmt.Printf("No catalog exercise matches %q.\n", l.Name)
		return nil
	}

	draft := workout.PrefillExercise(te.Exercise, te.SetsReps)
	fmt.Printf("%s (%s)\n", draft.Name, weekday)
	if draft.Sets != "" {
		fmt.Printf("  sets: %s\n", draft.Sets)
	}
	if draft.Reps != "" {
		fmt.Printf("  reps: %s\n", draft.Reps)
	}
	return nil
}
