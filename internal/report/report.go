// Package report renders the tracker state as a Markdown progress report and
// as a standalone HTML page.
package report

import (
	"bytes"
	"fmt"
	"strings"
	"time"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"

	"git.home.luguber.info/inful/hardtrack/internal/catalog"
	"git.home.luguber.info/inful/hardtrack/internal/challenge"
	"git.home.luguber.info/inful/hardtrack/internal/stats"
	"git.home.luguber.info/inful/hardtrack/internal/workout"
)

// Input carries everything one report needs. Build assembles it from the
// live state; tests construct it by hand.
type Input struct {
	GeneratedAt time.Time
	Weekday     time.Weekday
	Summary     stats.Summary
	Weeks       []stats.Week
	Quote       string
	Plan        catalog.DayPlan
	HasPlan     bool
	Entries     []workout.Entry
}

// Build assembles the report input for the current day. cat may be nil, in
// which case the quote and suggested session are left out.
func Build(c *challenge.State, l *workout.Log, cat *catalog.Catalog, now time.Time) Input {
	day := c.CurrentDay()
	wd := c.WeekdayForDay(day)
	in := Input{
		GeneratedAt: now,
		Weekday:     wd,
		Summary:     stats.Collect(c),
		Weeks:       stats.WeeklyBreakdown(c.CompletedDays(), day),
		Entries:     l.Entries(day),
	}
	if cat != nil {
		in.Quote = cat.QuoteForDay(day)
		in.Plan, in.HasPlan = cat.ForWeekday(wd)
	}
	return in
}

// Markdown renders the report as GitHub-flavored Markdown.
func Markdown(in Input) string {
	var b strings.Builder

	fmt.Fprintf(&b, "# 75 Hard, Day %d\n\n", in.Summary.CurrentDay)
	fmt.Fprintf(&b, "Generated %s (%s)\n\n", in.GeneratedAt.Format("2006-01-02 15:04"), in.Weekday)
	if in.Quote != "" {
		fmt.Fprintf(&b, "> %s\n\n", in.Quote)
	}

	fmt.Fprintf(&b, "## Checklist (%d%%)\n\n", in.Summary.TasksDonePercent)
	for _, id := range challenge.AllTasks {
		mark := " "
		if in.Summary.Tasks[id] {
			mark = "x"
		}
		fmt.Fprintf(&b, "- [%s] %s\n", mark, id.Label())
	}
	b.WriteString("\n## Progression\n\n")
	fmt.Fprintf(&b, "- Completed days: %d of %d (%d%%)\n", in.Summary.CompletedCount, challenge.TotalDays, in.Summary.ProgressPercent)
	fmt.Fprintf(&b, "- Current streak: %d\n", in.Summary.CurrentStreak)
	fmt.Fprintf(&b, "- Longest streak: %d\n", in.Summary.LongestStreak)
	fmt.Fprintf(&b, "- Days remaining: %d\n", in.Summary.DaysRemaining)

	if len(in.Weeks) > 0 {
		b.WriteString("\n## Weeks\n\n")
		b.WriteString("| Week | Days | Completed | % |\n")
		b.WriteString("|-----:|------|----------:|--:|\n")
		for _, w := range in.Weeks {
			fmt.Fprintf(&b, "| %d | %d-%d | %d | %d |\n", w.Number, w.StartDay, w.EndDay, w.Completed, w.Percent)
		}
	}

	if in.HasPlan {
		fmt.Fprintf(&b, "\n## Suggested session: %s\n\n", in.Plan.Focus)
		for _, te := range in.Plan.Exercises {
			fmt.Fprintf(&b, "- %s (%s)\n", te.Exercise, te.SetsReps)
		}
	}

	b.WriteString("\n## Logged exercises\n\n")
	if len(in.Entries) == 0 {
		b.WriteString("Nothing logged for today yet.\n")
		return b.String()
	}
	b.WriteString("| # | Exercise | Weight | Sets | Reps | Notes |\n")
	b.WriteString("|--:|----------|--------|-----:|------|-------|\n")
	for i, e := range in.Entries {
		fmt.Fprintf(&b, "| %d | %s | %s | %s | %s | %s |\n",
			i+1, cell(e.Name), cell(e.Weight), cell(e.Sets), cell(e.Reps), cell(e.Notes))
	}
	return b.String()
}

var renderer = goldmark.New(
	goldmark.WithExtensions(extension.GFM),
)

// HTML renders the report as a standalone page. The Markdown rendering is
// the single source of truth; this only converts and wraps it.
func HTML(in Input) ([]byte, error) {
	var body bytes.Buffer
	if err := renderer.Convert([]byte(Markdown(in)), &body); err != nil {
		return nil, err
	}

	var page bytes.Buffer
	fmt.Fprintf(&page, pageShell, in.Summary.CurrentDay, body.String())
	return page.Bytes(), nil
}

// cell makes a value safe for a Markdown table cell.
func cell(s string) string {
	s = strings.ReplaceAll(s, "|", "\\|")
	return strings.ReplaceAll(s, "\n", " ")
}

const pageShell = `<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1">
<title>75 Hard, Day %d</title>
<style>
body { font-family: system-ui, sans-serif; max-width: 42em; margin: 2em auto; padding: 0 1em; line-height: 1.5; }
table { border-collapse: collapse; }
th, td { border: 1px solid #ccc; padding: 0.3em 0.6em; }
blockquote { color: #555; border-left: 3px solid #ccc; margin-left: 0; padding-left: 1em; }
</style>
</head>
<body>
%s</body>
</html>
`
