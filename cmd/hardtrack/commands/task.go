package commands

import (
	"context"
	"fmt"

	"git.home.luguber.info/inful/hardtrack/internal/challenge"
)

// TaskCmd groups checklist commands.
type TaskCmd struct {
	List   TaskListCmd   `cmd:"" help:"List today's checklist"`
	Toggle TaskToggleCmd `cmd:"" help:"Flip one task between done and not done"`
	Reset  TaskResetCmd  `cmd:"" help:"Uncheck every task on today's checklist"`
}

// TaskListCmd implements 'hardtrack task list'.
type TaskListCmd struct{}

func (t *TaskListCmd) Run(_ *Global, root *CLI) error {
	ctx := context.Background()
	a, err := openApp(ctx, root)
	if err != nil {
		return err
	}
	defer a.Close()

	tasks := a.state.Tasks()
	for _, id := range challenge.AllTasks {
		mark := " "
		if tasks[id] {
			mark = "x"
		}
		fmt.Printf("[%s] %-15s %s\n", mark, id, id.Label())
	}
	fmt.Printf("%d of %d done (%d%%)\n",
		tasks.CountDone(), len(challenge.AllTasks), a.state.TasksCompletedPercentage())
	return nil
}

// TaskToggleCmd implements 'hardtrack task toggle'.
type TaskToggleCmd struct {
	Task string `arg:"" help:"Task identifier (see 'task list')"`
}

func (t *TaskToggleCmd) Run(_ *Global, root *CLI) error {
	ctx := context.Background()
	a, err := openApp(ctx, root)
	if err != nil {
		return err
	}
	defer a.Close()

	id := challenge.TaskID(t.Task)
	if !id.Valid() {
		fmt.Printf("Unknown task %q. See 'hardtrack task list' for identifiers.\n", t.Task)
		return nil
	}
	done, err := a.state.ToggleTask(ctx, id)
	if err != nil {
		return err
	}

	state := "not done"
	if done {
		state = "done"
	}
	fmt.Printf("%s: %s\n", id.Label(), state)
	return nil
}

// TaskResetCmd implements 'hardtrack task reset'.
type TaskResetCmd struct{}

func (t *TaskResetCmd) Run(_ *Global, root *CLI) error {
	ctx := context.Background()
	a, err := openApp(ctx, root)
	if err != nil {
		return err
	}
	defer a.Close()

	if err := a.state.ResetTasks(ctx); err != nil {
		return err
	}
	fmt.Println("Checklist cleared.")
	return nil
}
