// Package challenge implements the progression state machine of the 75-day
// program: the day counter, the completed-day ledger and today's checklist,
// all held in store-bound slots so every running instance converges on the
// same values.
package challenge

import (
	"context"
	"log/slog"
	"sort"
	"time"

	"git.home.luguber.info/inful/hardtrack/internal/logfields"
	"git.home.luguber.info/inful/hardtrack/internal/store"
)

// TotalDays is the length of the program.
const TotalDays = 75

// Slot keys in the durable medium.
const (
	KeyCurrentDay    = "currentDayNumber"
	KeyCompletedDays = "completedDays"
	KeyTodayTasks    = "todayTasks"
)

// State owns the three challenge slots and enforces the progression rules
// between them. The day counter never decreases and the ledger only grows;
// both survive restarts and converge across instances through the store.
type State struct {
	st     *store.Store
	logger *slog.Logger

	day   *store.Slot[int]
	done  *store.Slot[[]int]
	tasks *store.Slot[TaskSet]

	now func() time.Time
}

// New binds the challenge slots on s. First runs observe the initial state:
// day 1, empty ledger, all tasks unchecked.
func New(ctx context.Context, s *store.Store, logger *slog.Logger) *State {
	if logger == nil {
		logger = slog.Default()
	}
	return &State{
		st:     s,
		logger: logger,
		day:    store.Bind(ctx, s, KeyCurrentDay, 1),
		done:   store.Bind(ctx, s, KeyCompletedDays, []int{}),
		tasks:  store.Bind(ctx, s, KeyTodayTasks, NewTaskSet()),
		now:    time.Now,
	}
}

// Close detaches the slots from the store.
func (c *State) Close() {
	c.day.Close()
	c.done.Close()
	c.tasks.Close()
}

// CurrentDay returns the challenge day the tracker is on.
func (c *State) CurrentDay() int {
	return c.day.Get()
}

// CompletedDays returns the ledger in ascending order without duplicates.
func (c *State) CompletedDays() []int {
	return normalizeDays(c.done.Get())
}

// Tasks returns today's checklist state.
func (c *State) Tasks() TaskSet {
	return c.tasks.Get().normalized()
}

// ToggleTask flips the named task and reports its new state. Unknown
// identifiers leave the checklist untouched.
func (c *State) ToggleTask(ctx context.Context, id TaskID) (bool, error) {
	if !id.Valid() {
		c.logger.Debug("ignoring unknown task", logfields.Task(string(id)))
		return false, nil
	}

	next, err := c.tasks.Update(ctx, func(prev TaskSet) TaskSet {
		ts := prev.normalized()
		ts[id] = !ts[id]
		return ts
	})
	if err != nil {
		return false, err
	}
	return next[id], nil
}

// ResetTasks unchecks the whole checklist. Advancing the day never does
// this implicitly; it is always an explicit step.
func (c *State) ResetTasks(ctx context.Context) error {
	return c.tasks.Set(ctx, NewTaskSet())
}

// CompleteDay records the current day in the ledger and advances the
// counter, returning the day the tracker is on afterwards. Calling it again
// while the current day is already recorded is a no-op with advanced=false.
//
// Both steps run as atomic read-modify-writes against the freshest
// persisted values, so two instances completing the same stale day converge
// on a single increment: the ledger add is idempotent and the counter only
// moves when it still holds the day this call saw.
func (c *State) CompleteDay(ctx context.Context) (current int, advanced bool, err error) {
	day := c.day.Get()
	if containsDay(c.done.Get(), day) {
		c.logger.Debug("day already recorded", logfields.Day(day))
		return day, false, nil
	}

	if _, err := c.done.Update(ctx, func(prev []int) []int {
		return addDay(prev, day)
	}); err != nil {
		return day, false, err
	}

	next, err := c.day.Update(ctx, func(prev int) int {
		if prev != day {
			return prev // another instance advanced first
		}
		return day + 1
	})
	if err != nil {
		return day, false, err
	}

	c.logger.Info("day completed", logfields.Day(day), logfields.Percent(c.ProgressPercentage()))
	return next, true, nil
}

// ProgressPercentage reports ledger size against the 75-day program,
// floored. There is no cap: a ledger grown past 75 entries reads as more
// than 100.
func (c *State) ProgressPercentage() int {
	return len(c.CompletedDays()) * 100 / TotalDays
}

// TasksCompletedPercentage reports how much of today's checklist is done,
// floored.
func (c *State) TasksCompletedPercentage() int {
	return c.Tasks().CountDone() * 100 / len(AllTasks)
}

// WeekdayForDay maps challenge day n to the real-world weekday it falls on,
// anchored on the current day being today. No calendar date is stored per
// day; the mapping is always computed against now, so it shifts if days are
// completed late.
func (c *State) WeekdayForDay(n int) time.Weekday {
	offset := (n - c.day.Get()) % 7
	if offset < 0 {
		offset += 7
	}
	return time.Weekday((int(c.now().Weekday()) + offset) % 7)
}

// ResetAll clears the counter, the ledger and the checklist back to their
// defaults in one store operation.
func (c *State) ResetAll(ctx context.Context) error {
	if err := c.st.Clear(ctx, KeyCurrentDay, KeyCompletedDays, KeyTodayTasks); err != nil {
		return err
	}
	c.logger.Info("challenge state reset")
	return nil
}

// OnChange registers fn to run after any of the three slots converges on a
// new value. The returned cancel removes all three registrations.
func (c *State) OnChange(fn func()) func() {
	cancels := []func(){
		c.day.OnChange(func(int) { fn() }),
		c.done.OnChange(func([]int) { fn() }),
		c.tasks.OnChange(func(TaskSet) { fn() }),
	}
	return func() {
		for _, cancel := range cancels {
			cancel()
		}
	}
}

func containsDay(days []int, day int) bool {
	for _, d := range days {
		if d == day {
			return true
		}
	}
	return false
}

// addDay inserts day into the ledger keeping it sorted and duplicate-free.
// The input is never mutated.
func addDay(days []int, day int) []int {
	out := normalizeDays(days)
	i := sort.SearchInts(out, day)
	if i < len(out) && out[i] == day {
		return out
	}
	out = append(out, 0)
	copy(out[i+1:], out[i:])
	out[i] = day
	return out
}

// normalizeDays returns a sorted, deduplicated copy of the ledger. Content
// written by hand or by older builds may be unordered.
func normalizeDays(days []int) []int {
	out := append([]int(nil), days...)
	sort.Ints(out)
	n := 0
	for _, d := range out {
		if n > 0 && out[n-1] == d {
			continue
		}
		out[n] = d
		n++
	}
	return out[:n]
}
