// Package workout keeps the day-indexed exercise log. Entries are only ever
// appended or deleted; an edit is a delete followed by an add.
package workout

import (
	"context"
	"log/slog"
	"regexp"
	"strconv"
	"strings"
	"time"

	"git.home.luguber.info/inful/hardtrack/internal/catalog"
	"git.home.luguber.info/inful/hardtrack/internal/logfields"
	"git.home.luguber.info/inful/hardtrack/internal/store"
	"github.com/google/uuid"
)

// KeyWorkouts is the store slot holding the whole log.
const KeyWorkouts = "workouts"

// Entry is one logged exercise. Everything but the name is free-form text;
// weights and repetitions are never computed with, only displayed.
type Entry struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Weight string `json:"weight"`
	Sets   string `json:"sets"`
	Reps   string `json:"reps"`
	Notes  string `json:"notes"`
}

// Draft is the user-supplied part of an entry, before an identifier is
// assigned.
type Draft struct {
	Name   string
	Weight string
	Sets   string
	Reps   string
	Notes  string
}

// Days maps a day key to that day's entries in insertion order.
type Days map[string][]Entry

// DayKey derives the log key for a challenge day.
func DayKey(day int) string {
	return "day-" + strconv.Itoa(day)
}

// Log is a live binding to the workouts slot.
type Log struct {
	logger *slog.Logger
	slot   *store.Slot[Days]

	newID func() string
}

// New binds the workouts slot on s. A first run observes an empty log.
func New(ctx context.Context, s *store.Store, logger *slog.Logger) *Log {
	if logger == nil {
		logger = slog.Default()
	}
	return &Log{
		logger: logger,
		slot:   store.Bind(ctx, s, KeyWorkouts, Days{}),
		newID:  newEntryID,
	}
}

// Close detaches the log from the store.
func (l *Log) Close() {
	l.slot.Close()
}

// Entries returns a copy of the given day's sequence, oldest first.
func (l *Log) Entries(day int) []Entry {
	return append([]Entry(nil), l.slot.Get()[DayKey(day)]...)
}

// All returns a copy of the whole log.
func (l *Log) All() Days {
	return cloneDays(l.slot.Get())
}

// AddExercise appends a new entry to the given day and reports it. A draft
// with an empty name is dropped without touching the log.
func (l *Log) AddExercise(ctx context.Context, day int, d Draft) (Entry, bool, error) {
	name := strings.TrimSpace(d.Name)
	if name == "" {
		l.logger.Debug("dropping unnamed exercise", logfields.Day(day))
		return Entry{}, false, nil
	}

	entry := Entry{
		ID:     l.newID(),
		Name:   name,
		Weight: d.Weight,
		Sets:   d.Sets,
		Reps:   d.Reps,
		Notes:  d.Notes,
	}

	key := DayKey(day)
	if _, err := l.slot.Update(ctx, func(prev Days) Days {
		next := cloneDays(prev)
		next[key] = append(next[key], entry)
		return next
	}); err != nil {
		return Entry{}, false, err
	}

	l.logger.Info("exercise added", logfields.Day(day), logfields.EntryID(entry.ID))
	return entry, true, nil
}

// DeleteExercise removes the entry with the given id from the day. An unknown
// id leaves the log untouched and reports false. The day's slice stays in the
// log even when the delete empties it.
func (l *Log) DeleteExercise(ctx context.Context, day int, id string) (bool, error) {
	key := DayKey(day)
	removed := false

	if _, err := l.slot.Update(ctx, func(prev Days) Days {
		removed = false
		next := cloneDays(prev)
		entries := next[key]
		for i, e := range entries {
			if e.ID == id {
				next[key] = append(entries[:i:i], entries[i+1:]...)
				removed = true
				break
			}
		}
		return next
	}); err != nil {
		return false, err
	}

	if removed {
		l.logger.Info("exercise removed", logfields.Day(day), logfields.EntryID(id))
	}
	return removed, nil
}

// AddAllFromTemplate appends one entry per template exercise to the given
// day, splitting the combined sets/reps text best-effort. Unparseable text
// leaves both fields empty rather than failing the batch. Returns the number
// of entries added.
func (l *Log) AddAllFromTemplate(ctx context.Context, day int, tmpl []catalog.TemplateExercise) (int, error) {
	entries := make([]Entry, 0, len(tmpl))
	for _, te := range tmpl {
		name := strings.TrimSpace(te.Exercise)
		if name == "" {
			continue
		}
		sets, reps := SplitSetsReps(te.SetsReps)
		entries = append(entries, Entry{
			ID:   l.newID(),
			Name: name,
			Sets: sets,
			Reps: reps,
		})
	}
	if len(entries) == 0 {
		return 0, nil
	}

	key := DayKey(day)
	if _, err := l.slot.Update(ctx, func(prev Days) Days {
		next := cloneDays(prev)
		next[key] = append(next[key], entries...)
		return next
	}); err != nil {
		return 0, err
	}

	l.logger.Info("template applied", logfields.Day(day), logfields.Count(len(entries)))
	return len(entries), nil
}

// OnChange registers fn to run after the log converges on a new value.
func (l *Log) OnChange(fn func()) func() {
	return l.slot.OnChange(func(Days) { fn() })
}

// setsRepsRe matches "<sets> x <reps>" where reps is free text such as "8",
// "Max", "45 sec" or "30 min". The separator accepts the letter x in either
// case and the multiplication sign.
var setsRepsRe = regexp.MustCompile(`^\s*(\d+)\s*[xX×]\s*(.+?)\s*$`)

// SplitSetsReps splits a combined sets/reps text into its parts. Text that
// does not follow the pattern yields two empty strings.
func SplitSetsReps(text string) (sets, reps string) {
	m := setsRepsRe.FindStringSubmatch(text)
	if m == nil {
		return "", ""
	}
	return m[1], m[2]
}

// PrefillExercise builds a draft from a template exercise for pre-populating
// the add form. It is a pure helper; nothing is persisted until the draft is
// passed to AddExercise.
func PrefillExercise(name, setsReps string) Draft {
	sets, reps := SplitSetsReps(setsReps)
	return Draft{Name: name, Sets: sets, Reps: reps}
}

// newEntryID returns an identifier unique within the instance's lifetime.
// The millisecond prefix keeps ids roughly sortable by creation time and the
// random suffix separates adds within the same instant.
func newEntryID() string {
	return strconv.FormatInt(time.Now().UnixMilli(), 10) + "-" + uuid.NewString()[:8]
}

// cloneDays copies the log one level deep so update closures never mutate
// the mirror in place.
func cloneDays(d Days) Days {
	out := make(Days, len(d))
	for k, entries := range d {
		out[k] = append([]Entry(nil), entries...)
	}
	return out
}
