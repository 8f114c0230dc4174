package commands

import (
	"context"
	"fmt"
	"os"
	"time"

	terrors "git.home.luguber.info/inful/hardtrack/internal/errors"
	"git.home.luguber.info/inful/hardtrack/internal/report"
)

// ReportCmd implements the 'report' command.
type ReportCmd struct {
	HTML bool   `help:"Render a standalone HTML page instead of Markdown"`
	Out  string `short:"o" type:"path" help:"Write to a file instead of stdout"`
}

func (r *ReportCmd) Run(_ *Global, root *CLI) error {
	ctx := context.Background()
	a, err := openApp(ctx, root)
	if err != nil {
		return err
	}
	defer a.Close()

	in := report.Build(a.state, a.wlog, a.catalog, time.Now())

	var out []byte
	if r.HTML {
		out, err = report.HTML(in)
		if err != nil {
			return err
		}
	} else {
		out = []byte(report.Markdown(in))
	}

	if r.Out == "" {
		_, _ = os.Stdout.Write(out)
		return nil
	}
	if err := os.WriteFile(r.Out, out, 0o644); err != nil {
		return terrors.StorageError("write report", err)
	}
	fmt.Printf("Report written to %s.\n", r.Out)
	return nil
}
