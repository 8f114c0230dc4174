package workout

import (
	"context"
	"regexp"
	"testing"

	"git.home.luguber.info/inful/hardtrack/internal/catalog"
	"git.home.luguber.info/inful/hardtrack/internal/store"
	"github.com/stretchr/testify/require"
)

func newTestLog(t *testing.T) (*Log, *store.Store, *store.MemoryBackend) {
	t.Helper()
	backend := store.NewMemory()
	s, err := store.New(backend, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	l := New(context.Background(), s, nil)
	t.Cleanup(l.Close)
	return l, s, backend
}

func TestLog_AddExercise(t *testing.T) {
	l, _, _ := newTestLog(t)
	ctx := context.Background()

	entry, added, err := l.AddExercise(ctx, 3, Draft{
		Name:   "  Squat  ",
		Weight: "135",
		Sets:   "4",
		Reps:   "8",
	})
	require.NoError(t, err)
	require.True(t, added)
	require.Equal(t, "Squat", entry.Name)
	require.NotEmpty(t, entry.ID)

	got := l.Entries(3)
	require.Len(t, got, 1)
	require.Equal(t, entry, got[0])
	require.Empty(t, l.Entries(4))
}

func TestLog_AddExerciseEmptyNameIsNoop(t *testing.T) {
	l, _, backend := newTestLog(t)
	ctx := context.Background()

	for _, name := range []string{"", "   ", "\t"} {
		entry, added, err := l.AddExercise(ctx, 1, Draft{Name: name})
		require.NoError(t, err)
		require.False(t, added)
		require.Zero(t, entry)
	}

	require.Empty(t, l.Entries(1))
	_, found, err := backend.Load(ctx, KeyWorkouts)
	require.NoError(t, err)
	require.False(t, found)
}

func TestLog_AddThenDeleteLeavesEmptyDay(t *testing.T) {
	l, st, _ := newTestLog(t)
	ctx := context.Background()

	entry, added, err := l.AddExercise(ctx, 3, Draft{Name: "Squat", Weight: "135", Sets: "4", Reps: "8"})
	require.NoError(t, err)
	require.True(t, added)

	removed, err := l.DeleteExercise(ctx, 3, entry.ID)
	require.NoError(t, err)
	require.True(t, removed)
	require.Empty(t, l.Entries(3))

	// The day stays in the log as an empty sequence rather than vanishing.
	persisted := store.Get(ctx, st, KeyWorkouts, Days{})
	got, ok := persisted[DayKey(3)]
	require.True(t, ok)
	require.Empty(t, got)
}

func TestLog_DeleteUnknownIDIsNoop(t *testing.T) {
	l, _, _ := newTestLog(t)
	ctx := context.Background()

	_, _, err := l.AddExercise(ctx, 2, Draft{Name: "Deadlift"})
	require.NoError(t, err)

	removed, err := l.DeleteExercise(ctx, 2, "no-such-id")
	require.NoError(t, err)
	require.False(t, removed)
	require.Len(t, l.Entries(2), 1)
}

func TestLog_InsertionOrderPreserved(t *testing.T) {
	l, _, _ := newTestLog(t)
	ctx := context.Background()

	for _, name := range []string{"Bench Press", "Row", "Curl"} {
		_, added, err := l.AddExercise(ctx, 1, Draft{Name: name})
		require.NoError(t, err)
		require.True(t, added)
	}

	got := l.Entries(1)
	require.Len(t, got, 3)
	require.Equal(t, "Bench Press", got[0].Name)
	require.Equal(t, "Row", got[1].Name)
	require.Equal(t, "Curl", got[2].Name)

	// Deleting from the middle keeps the remaining order.
	removed, err := l.DeleteExercise(ctx, 1, got[1].ID)
	require.NoError(t, err)
	require.True(t, removed)

	got = l.Entries(1)
	require.Len(t, got, 2)
	require.Equal(t, "Bench Press", got[0].Name)
	require.Equal(t, "Curl", got[1].Name)
}

func TestLog_EntryIDsAreUnique(t *testing.T) {
	l, _, _ := newTestLog(t)
	ctx := context.Background()

	idRe := regexp.MustCompile(`^\d+-[0-9a-f]{8}$`)
	seen := map[string]bool{}
	for i := 0; i < 20; i++ {
		entry, _, err := l.AddExercise(ctx, 1, Draft{Name: "Push Up"})
		require.NoError(t, err)
		require.Regexp(t, idRe, entry.ID)
		require.False(t, seen[entry.ID], entry.ID)
		seen[entry.ID] = true
	}
}

func TestLog_AddAllFromTemplate(t *testing.T) {
	l, _, _ := newTestLog(t)
	ctx := context.Background()

	n, err := l.AddAllFromTemplate(ctx, 1, []catalog.TemplateExercise{
		{Exercise: "Plank", SetsReps: "3 x 45 sec"},
		{Exercise: "Burpees", SetsReps: "5 x Max"},
		{Exercise: "  ", SetsReps: "3 x 10"},
		{Exercise: "Mobility Flow", SetsReps: "10 minutes"},
	})
	require.NoError(t, err)
	require.Equal(t, 3, n)

	got := l.Entries(1)
	require.Len(t, got, 3)

	require.Equal(t, "Plank", got[0].Name)
	require.Equal(t, "3", got[0].Sets)
	require.Equal(t, "45 sec", got[0].Reps)

	require.Equal(t, "Burpees", got[1].Name)
	require.Equal(t, "5", got[1].Sets)
	require.Equal(t, "Max", got[1].Reps)

	// Unparseable text leaves both fields empty instead of failing the batch.
	require.Equal(t, "Mobility Flow", got[2].Name)
	require.Empty(t, got[2].Sets)
	require.Empty(t, got[2].Reps)
}

func TestLog_AddAllFromTemplateEmptyBatch(t *testing.T) {
	l, _, backend := newTestLog(t)
	ctx := context.Background()

	n, err := l.AddAllFromTemplate(ctx, 1, nil)
	require.NoError(t, err)
	require.Zero(t, n)

	n, err = l.AddAllFromTemplate(ctx, 1, []catalog.TemplateExercise{{Exercise: " "}})
	require.NoError(t, err)
	require.Zero(t, n)

	_, found, err := backend.Load(ctx, KeyWorkouts)
	require.NoError(t, err)
	require.False(t, found)
}

func TestLog_ConvergesAcrossInstances(t *testing.T) {
	ctx := context.Background()
	backend := store.NewMemory()

	s1, err := store.New(backend, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s1.Close() })
	s2, err := store.New(backend, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s2.Close() })

	a := New(ctx, s1, nil)
	t.Cleanup(a.Close)
	b := New(ctx, s2, nil)
	t.Cleanup(b.Close)

	entry, _, err := a.AddExercise(ctx, 7, Draft{Name: "Run", Notes: "easy pace"})
	require.NoError(t, err)

	got := b.Entries(7)
	require.Len(t, got, 1)
	require.Equal(t, entry, got[0])
}

func TestSplitSetsReps(t *testing.T) {
	tests := []struct {
		text string
		sets string
		reps string
	}{
		{"3 x 45 sec", "3", "45 sec"},
		{"5 x Max", "5", "Max"},
		{"4x8", "4", "8"},
		{"4 X 12", "4", "12"},
		{"3 × 30 min", "3", "30 min"},
		{"  12 x 3  ", "12", "3"},
		{"bodyweight", "", ""},
		{"x 8", "", ""},
		{"3 x", "", ""},
		{"", "", ""},
	}
	for _, tt := range tests {
		sets, reps := SplitSetsReps(tt.text)
		require.Equal(t, tt.sets, sets, tt.text)
		require.Equal(t, tt.reps, reps, tt.text)
	}
}

func TestPrefillExercise(t *testing.T) {
	d := PrefillExercise("Plank", "3 x 45 sec")
	require.Equal(t, Draft{Name: "Plank", Sets: "3", Reps: "45 sec"}, d)

	d = PrefillExercise("Hike", "one hour")
	require.Equal(t, Draft{Name: "Hike"}, d)
}
