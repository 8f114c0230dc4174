package stats

import (
	"context"
	"testing"

	"git.home.luguber.info/inful/hardtrack/internal/challenge"
	"git.home.luguber.info/inful/hardtrack/internal/store"
	"git.home.luguber.info/inful/hardtrack/internal/workout"
	"github.com/stretchr/testify/require"
)

func newTestChallenge(t *testing.T) *challenge.State {
	t.Helper()
	s, err := store.New(store.NewMemory(), nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	c := challenge.New(context.Background(), s, nil)
	t.Cleanup(c.Close)
	return c
}

func TestCurrentStreak(t *testing.T) {
	tests := []struct {
		days       []int
		currentDay int
		want       int
	}{
		{nil, 1, 0},
		{[]int{1, 2, 3}, 4, 3},
		{[]int{1, 3}, 4, 1},
		{[]int{1, 2}, 4, 0},
		{[]int{1, 2, 3, 4, 5}, 6, 5},
		{[]int{2, 3}, 2, 0},
	}
	for _, tt := range tests {
		require.Equal(t, tt.want, CurrentStreak(tt.days, tt.currentDay), "days=%v current=%d", tt.days, tt.currentDay)
	}
}

func TestLongestStreak(t *testing.T) {
	tests := []struct {
		days []int
		want int
	}{
		{nil, 0},
		{[]int{1}, 1},
		{[]int{1, 3, 5}, 1},
		{[]int{1, 2, 3, 7, 8}, 3},
		{[]int{2, 3, 4, 5, 10, 11, 12, 13, 14}, 5},
		{[]int{1, 1, 2}, 2},
	}
	for _, tt := range tests {
		require.Equal(t, tt.want, LongestStreak(tt.days), "days=%v", tt.days)
	}
}

func TestWeekOf(t *testing.T) {
	require.Equal(t, 1, WeekOf(1))
	require.Equal(t, 1, WeekOf(7))
	require.Equal(t, 2, WeekOf(8))
	require.Equal(t, 10, WeekOf(70))
	require.Equal(t, 11, WeekOf(75))
	require.Equal(t, 12, WeekOf(78))
}

func TestWeeklyBreakdown(t *testing.T) {
	days := []int{1, 2, 3, 4, 5, 6, 7, 8, 9, 10}
	weeks := WeeklyBreakdown(days, 11)
	require.Len(t, weeks, 2)

	require.Equal(t, Week{Number: 1, StartDay: 1, EndDay: 7, Completed: 7, Percent: 100}, weeks[0])
	require.Equal(t, Week{Number: 2, StartDay: 8, EndDay: 14, Completed: 3, Percent: 42}, weeks[1])
}

func TestWeeklyBreakdownFinalWeekIsShort(t *testing.T) {
	weeks := WeeklyBreakdown([]int{71, 72}, 73)
	require.Len(t, weeks, 11)

	last := weeks[10]
	require.Equal(t, 11, last.Number)
	require.Equal(t, 71, last.StartDay)
	require.Equal(t, 75, last.EndDay)
	require.Equal(t, 2, last.Completed)
	require.Equal(t, 40, last.Percent)
}

func TestWeeklyBreakdownFreshChallenge(t *testing.T) {
	weeks := WeeklyBreakdown(nil, 1)
	require.Len(t, weeks, 1)
	require.Equal(t, Week{Number: 1, StartDay: 1, EndDay: 7}, weeks[0])
}

func TestCollect(t *testing.T) {
	c := newTestChallenge(t)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		_, _, err := c.CompleteDay(ctx)
		require.NoError(t, err)
	}
	_, err := c.ToggleTask(ctx, challenge.TaskReading)
	require.NoError(t, err)

	s := Collect(c)
	require.Equal(t, 4, s.CurrentDay)
	require.Equal(t, 3, s.CompletedCount)
	require.Equal(t, 4, s.ProgressPercent)
	require.Equal(t, 11, s.TasksDonePercent)
	require.Equal(t, 3, s.CurrentStreak)
	require.Equal(t, 3, s.LongestStreak)
	require.Equal(t, 72, s.DaysRemaining)
	require.True(t, s.Tasks[challenge.TaskReading])
}

func TestByWeekday(t *testing.T) {
	c := newTestChallenge(t)
	ctx := context.Background()

	// Days a week apart land on the same weekday no matter what today is.
	for i := 0; i < 8; i++ {
		_, _, err := c.CompleteDay(ctx)
		require.NoError(t, err)
	}

	counts := ByWeekday(c)
	total := 0
	for _, n := range counts {
		total += n
	}
	require.Equal(t, 8, total)
	require.Equal(t, 2, counts[c.WeekdayForDay(1)])
	require.Equal(t, 1, counts[c.WeekdayForDay(2)])
}

func TestWorkoutTotals(t *testing.T) {
	days := workout.Days{
		"day-1": {{ID: "a", Name: "Squat"}, {ID: "b", Name: "Row"}},
		"day-2": {},
		"day-3": {{ID: "c", Name: "Run"}},
	}
	daysLogged, entries := WorkoutTotals(days)
	require.Equal(t, 2, daysLogged)
	require.Equal(t, 3, entries)
}
