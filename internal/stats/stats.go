// Package stats derives progression figures from the challenge ledger. All
// functions are pure; nothing here touches the store.
package stats

import (
	"time"

	"git.home.luguber.info/inful/hardtrack/internal/challenge"
	"git.home.luguber.info/inful/hardtrack/internal/workout"
)

// Summary is the headline view of a running challenge.
type Summary struct {
	CurrentDay       int               `json:"currentDay"`
	CompletedCount   int               `json:"completedDays"`
	ProgressPercent  int               `json:"progressPercent"`
	TasksDonePercent int               `json:"tasksDonePercent"`
	CurrentStreak    int               `json:"currentStreak"`
	LongestStreak    int               `json:"longestStreak"`
	DaysRemaining    int               `json:"daysRemaining"`
	Tasks            challenge.TaskSet `json:"tasks"`
}

// Collect builds a Summary from the live challenge state.
func Collect(c *challenge.State) Summary {
	days := c.CompletedDays()
	remaining := challenge.TotalDays - len(days)
	if remaining < 0 {
		remaining = 0
	}
	return Summary{
		CurrentDay:       c.CurrentDay(),
		CompletedCount:   len(days),
		ProgressPercent:  c.ProgressPercentage(),
		TasksDonePercent: c.TasksCompletedPercentage(),
		CurrentStreak:    CurrentStreak(days, c.CurrentDay()),
		LongestStreak:    LongestStreak(days),
		DaysRemaining:    remaining,
		Tasks:            c.Tasks(),
	}
}

// CurrentStreak counts the unbroken run of completed days leading up to the
// current day. Day 1 with nothing completed yet reads as 0.
func CurrentStreak(days []int, currentDay int) int {
	set := make(map[int]bool, len(days))
	for _, d := range days {
		set[d] = true
	}
	streak := 0
	for d := currentDay - 1; d >= 1 && set[d]; d-- {
		streak++
	}
	return streak
}

// LongestStreak returns the longest run of consecutive days anywhere in the
// ledger. The input must be ascending, as CompletedDays returns it.
func LongestStreak(days []int) int {
	longest, run := 0, 0
	for i, d := range days {
		switch {
		case i == 0 || d == days[i-1]+1:
			run++
		case d == days[i-1]:
			continue
		default:
			run = 1
		}
		if run > longest {
			longest = run
		}
	}
	return longest
}

// WeekOf maps a challenge day to its 1-based week number.
func WeekOf(day int) int {
	return (day-1)/7 + 1
}

// Week summarizes one 7-day window of the program. The final program week is
// short: days 71 to 75.
type Week struct {
	Number    int `json:"week"`
	StartDay  int `json:"startDay"`
	EndDay    int `json:"endDay"`
	Completed int `json:"completed"`
	Percent   int `json:"percent"`
}

// WeeklyBreakdown buckets the ledger into weeks, covering every week touched
// by either the ledger or the current day.
func WeeklyBreakdown(days []int, currentDay int) []Week {
	last := WeekOf(currentDay)
	for _, d := range days {
		if w := WeekOf(d); w > last {
			last = w
		}
	}

	weeks := make([]Week, 0, last)
	for n := 1; n <= last; n++ {
		start := (n-1)*7 + 1
		end := n * 7
		if start <= challenge.TotalDays && end > challenge.TotalDays {
			end = challenge.TotalDays
		}
		completed := 0
		for _, d := range days {
			if d >= start && d <= end {
				completed++
			}
		}
		span := end - start + 1
		weeks = append(weeks, Week{
			Number:    n,
			StartDay:  start,
			EndDay:    end,
			Completed: completed,
			Percent:   completed * 100 / span,
		})
	}
	return weeks
}

// ByWeekday counts completed days per real-world weekday using the state's
// day-to-weekday mapping.
func ByWeekday(c *challenge.State) map[time.Weekday]int {
	out := make(map[time.Weekday]int)
	for _, d := range c.CompletedDays() {
		out[c.WeekdayForDay(d)]++
	}
	return out
}

// WorkoutTotals reports how many days carry at least one logged entry and
// the entry count overall.
func WorkoutTotals(d workout.Days) (daysLogged, entries int) {
	for _, list := range d {
		if len(list) > 0 {
			daysLogged++
		}
		entries += len(list)
	}
	return daysLogged, entries
}
