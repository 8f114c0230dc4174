package commands

import (
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	terrors "git.home.luguber.info/inful/hardtrack/internal/errors"
)

// setupWorkspace points the process at a temp directory holding a config
// file with a file-backed store, so state persists across command runs.
func setupWorkspace(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Chdir(dir)

	cfg := "data_dir: " + filepath.Join(dir, "data") + "\nstore:\n  backend: file\n"
	require.NoError(t, os.WriteFile("hardtrack.yaml", []byte(cfg), 0o644))
	return dir
}

func captureOutput(t *testing.T, fn func() error) (string, error) {
	t.Helper()
	old := os.Stdout
	r, w, err := os.Pipe()
	require.NoError(t, err)
	os.Stdout = w

	runErr := fn()

	require.NoError(t, w.Close())
	os.Stdout = old
	out, err := io.ReadAll(r)
	require.NoError(t, err)
	return string(out), runErr
}

func TestInitCmd(t *testing.T) {
	t.Chdir(t.TempDir())
	root := &CLI{}

	out, err := captureOutput(t, func() error {
		return (&InitCmd{}).Run(nil, root)
	})
	require.NoError(t, err)
	require.Contains(t, out, "hardtrack initialized")
	require.FileExists(t, "hardtrack.yaml")
	require.DirExists(t, "hardtrack-data")

	_, err = captureOutput(t, func() error {
		return (&InitCmd{}).Run(nil, root)
	})
	require.Error(t, err)
	require.True(t, terrors.IsCategory(err, terrors.CategoryConfig))

	_, err = captureOutput(t, func() error {
		return (&InitCmd{Force: true}).Run(nil, root)
	})
	require.NoError(t, err)
}

func TestTaskCommands(t *testing.T) {
	setupWorkspace(t)
	root := &CLI{}

	out, err := captureOutput(t, func() error {
		return (&TaskToggleCmd{Task: "morningWorkout"}).Run(nil, root)
	})
	require.NoError(t, err)
	require.Contains(t, out, "Morning Workout: done")

	out, err = captureOutput(t, func() error {
		return (&TaskListCmd{}).Run(nil, root)
	})
	require.NoError(t, err)
	require.Contains(t, out, "[x] morningWorkout")
	require.Contains(t, out, "[ ] reading")
	require.Contains(t, out, "1 of 9 done (11%)")

	out, err = captureOutput(t, func() error {
		return (&TaskToggleCmd{Task: "sleep"}).Run(nil, root)
	})
	require.NoError(t, err)
	require.Contains(t, out, `Unknown task "sleep"`)

	out, err = captureOutput(t, func() error {
		return (&TaskResetCmd{}).Run(nil, root)
	})
	require.NoError(t, err)
	require.Contains(t, out, "Checklist cleared.")

	out, err = captureOutput(t, func() error {
		return (&TaskListCmd{}).Run(nil, root)
	})
	require.NoError(t, err)
	require.Contains(t, out, "0 of 9 done (0%)")
}

func TestDayCompleteAdvances(t *testing.T) {
	setupWorkspace(t)
	root := &CLI{}

	out, err := captureOutput(t, func() error {
		return (&DayCompleteCmd{}).Run(nil, root)
	})
	require.NoError(t, err)
	require.Contains(t, out, "Day 1 completed. Now on day 2 of 75.")

	out, err = captureOutput(t, func() error {
		return (&StatusCmd{}).Run(nil, root)
	})
	require.NoError(t, err)
	require.Contains(t, out, "Day 2 of 75")
	require.Contains(t, out, "Completed: 1 days (1%)")
	require.Contains(t, out, "Remaining: 74 days")
}

func TestDayWeekdayRejectsBadDay(t *testing.T) {
	setupWorkspace(t)
	root := &CLI{}

	_, err := captureOutput(t, func() error {
		return (&DayWeekdayCmd{Day: 0}).Run(nil, root)
	})
	require.Error(t, err)
	require.True(t, terrors.IsCategory(err, terrors.CategoryValidation))
}

func TestLogCommands(t *testing.T) {
	setupWorkspace(t)
	root := &CLI{}

	out, err := captureOutput(t, func() error {
		return (&LogAddCmd{Name: "Squat", Sets: "4", Reps: "8", Weight: "100kg"}).Run(nil, root)
	})
	require.NoError(t, err)
	require.Contains(t, out, "Added Squat to day 1")

	out, err = captureOutput(t, func() error {
		return (&LogListCmd{}).Run(nil, root)
	})
	require.NoError(t, err)
	require.Contains(t, out, "Day 1:")
	require.Contains(t, out, "Squat  4 x 8  @ 100kg")

	out, err = captureOutput(t, func() error {
		return (&LogRmCmd{ID: "bogus"}).Run(nil, root)
	})
	require.NoError(t, err)
	require.Contains(t, out, "No entry bogus on day 1. Nothing removed.")

	out, err = captureOutput(t, func() error {
		return (&LogListCmd{Day: 30}).Run(nil, root)
	})
	require.NoError(t, err)
	require.Contains(t, out, "Nothing logged for day 30.")
}

func TestLogAddEmptyNameIsNotice(t *testing.T) {
	setupWorkspace(t)
	root := &CLI{}

	out, err := captureOutput(t, func() error {
		return (&LogAddCmd{Name: "   "}).Run(nil, root)
	})
	require.NoError(t, err)
	require.Contains(t, out, "Exercise name is required. Nothing added.")
}

func TestLogTemplateAndPrefill(t *testing.T) {
	setupWorkspace(t)
	root := &CLI{}

	// Day 1 maps to the real-world weekday of the test run, so the plan
	// size varies; the notice shape does not.
	out, err := captureOutput(t, func() error {
		return (&LogTemplateCmd{}).Run(nil, root)
	})
	require.NoError(t, err)
	require.Regexp(t, `Added [1-9] exercises from the \w+ template`, out)

	out, err = captureOutput(t, func() error {
		return (&LogListCmd{}).Run(nil, root)
	})
	require.NoError(t, err)
	require.Contains(t, out, "Day 1:")

	out, err = captureOutput(t, func() error {
		return (&LogPrefillCmd{Name: "sqat"}).Run(nil, root)
	})
	require.NoError(t, err)
	require.Contains(t, out, "Squat (Friday)")
	require.Contains(t, out, "sets: 4")
	require.Contains(t, out, "reps: 8")

	out, err = captureOutput(t, func() error {
		return (&LogPrefillCmd{Name: "underwater basket weaving"}).Run(nil, root)
	})
	require.NoError(t, err)
	require.Contains(t, out, "No catalog exercise matches")
}

func TestStatusJSON(t *testing.T) {
	setupWorkspace(t)
	root := &CLI{}

	_, err := captureOutput(t, func() error {
		return (&DayCompleteCmd{}).Run(nil, root)
	})
	require.NoError(t, err)

	out, err := captureOutput(t, func() error {
		return (&StatusCmd{JSON: true}).Run(nil, root)
	})
	require.NoError(t, err)

	var payload struct {
		CurrentDay    int `json:"currentDay"`
		CompletedDays int `json:"completedDays"`
		Weeks         []struct {
			Number    int `json:"week"`
			Completed int `json:"completed"`
		} `json:"weeks"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &payload))
	require.Equal(t, 2, payload.CurrentDay)
	require.Equal(t, 1, payload.CompletedDays)
	require.NotEmpty(t, payload.Weeks)
	require.Equal(t, 1, payload.Weeks[0].Completed)
}

func TestResetCmd(t *testing.T) {
	setupWorkspace(t)
	root := &CLI{}

	_, err := captureOutput(t, func() error {
		return (&DayCompleteCmd{}).Run(nil, root)
	})
	require.NoError(t, err)

	_, err = captureOutput(t, func() error {
		return (&ResetCmd{}).Run(nil, root)
	})
	require.Error(t, err)
	require.True(t, terrors.IsCategory(err, terrors.CategoryValidation))

	out, err := captureOutput(t, func() error {
		return (&ResetCmd{Yes: true}).Run(nil, root)
	})
	require.NoError(t, err)
	require.Contains(t, out, "Back to day 1.")

	out, err = captureOutput(t, func() error {
		return (&StatusCmd{}).Run(nil, root)
	})
	require.NoError(t, err)
	require.Contains(t, out, "Day 1 of 75")
	require.Contains(t, out, "Completed: 0 days (0%)")
}

func TestReportCmdWritesFile(t *testing.T) {
	dir := setupWorkspace(t)
	root := &CLI{}

	_, err := captureOutput(t, func() error {
		return (&LogAddCmd{Name: "Bench Press", Sets: "4", Reps: "8"}).Run(nil, root)
	})
	require.NoError(t, err)

	target := filepath.Join(dir, "report.md")
	out, err := captureOutput(t, func() error {
		return (&ReportCmd{Out: target}).Run(nil, root)
	})
	require.NoError(t, err)
	require.Contains(t, out, "Report written to")

	raw, err := os.ReadFile(target)
	require.NoError(t, err)
	require.Contains(t, string(raw), "# 75 Hard, Day 1")
	require.Contains(t, string(raw), "Bench Press")

	htmlTarget := filepath.Join(dir, "report.html")
	_, err = captureOutput(t, func() error {
		return (&ReportCmd{HTML: true, Out: htmlTarget}).Run(nil, root)
	})
	require.NoError(t, err)

	raw, err = os.ReadFile(htmlTarget)
	require.NoError(t, err)
	require.Contains(t, string(raw), "<!DOCTYPE html>")
}

func TestStatePersistsAcrossCommands(t *testing.T) {
	setupWorkspace(t)
	root := &CLI{}

	for i := 0; i < 3; i++ {
		_, err := captureOutput(t, func() error {
			return (&DayCompleteCmd{}).Run(nil, root)
		})
		require.NoError(t, err)
	}

	out, err := captureOutput(t, func() error {
		return (&StatusCmd{}).Run(nil, root)
	})
	require.NoError(t, err)
	require.Contains(t, out, "Day 4 of 75")
	require.Contains(t, out, "Completed: 3 days (4%)")
	require.Contains(t, out, "Streak: 3 current, 3 longest")
}
