package challenge

import (
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// TaskID identifies one item of the fixed daily checklist.
type TaskID string

// The reference configuration: two workout slots, one diet slot, four water
// increments, one photo slot and one reading slot.
const (
	TaskMorningWorkout TaskID = "morningWorkout"
	TaskEveningWorkout TaskID = "eveningWorkout"
	TaskDiet           TaskID = "diet"
	TaskWater1         TaskID = "water1"
	TaskWater2         TaskID = "water2"
	TaskWater3         TaskID = "water3"
	TaskWater4         TaskID = "water4"
	TaskProgressPhoto  TaskID = "progressPhoto"
	TaskReading        TaskID = "reading"
)

// AllTasks lists every task identifier in presentation order.
var AllTasks = []TaskID{
	TaskMorningWorkout,
	TaskEveningWorkout,
	TaskDiet,
	TaskWater1,
	TaskWater2,
	TaskWater3,
	TaskWater4,
	TaskProgressPhoto,
	TaskReading,
}

var titler = cases.Title(language.English)

// Valid reports whether id belongs to the fixed enumeration.
func (t TaskID) Valid() bool {
	for _, known := range AllTasks {
		if t == known {
			return true
		}
	}
	return false
}

// Label renders the identifier for display, e.g. "morningWorkout" becomes
// "Morning Workout" and "water1" becomes "Water 1".
func (t TaskID) Label() string {
	var b strings.Builder
	prev := rune(0)
	for i, r := range string(t) {
		if i > 0 && (unicode.IsUpper(r) || (unicode.IsDigit(r) && !unicode.IsDigit(prev))) {
			b.WriteByte(' ')
		}
		b.WriteRune(unicode.ToLower(r))
		prev = r
	}
	return titler.String(b.String())
}

// TaskSet maps every task to its completion state for the current day.
type TaskSet map[TaskID]bool

// NewTaskSet returns the all-false default checklist.
func NewTaskSet() TaskSet {
	ts := make(TaskSet, len(AllTasks))
	for _, id := range AllTasks {
		ts[id] = false
	}
	return ts
}

// CountDone returns how many known tasks are checked off.
func (s TaskSet) CountDone() int {
	n := 0
	for _, id := range AllTasks {
		if s[id] {
			n++
		}
	}
	return n
}

// AllDone reports whether every task of the checklist is checked off.
func (s TaskSet) AllDone() bool {
	return s.CountDone() == len(AllTasks)
}

// normalized returns a copy holding exactly the fixed enumeration: unknown
// keys from hand-edited or foreign content are dropped and missing ones
// default to false.
func (s TaskSet) normalized() TaskSet {
	out := make(TaskSet, len(AllTasks))
	for _, id := range AllTasks {
		out[id] = s[id]
	}
	return out
}
