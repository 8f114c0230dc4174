package main

import (
	"log/slog"
	"os"

	"github.com/alecthomas/kong"

	"git.home.luguber.info/inful/hardtrack/cmd/hardtrack/commands"
	terrors "git.home.luguber.info/inful/hardtrack/internal/errors"
	"git.home.luguber.info/inful/hardtrack/internal/version"
)

func main() {
	cli := &commands.CLI{}
	ctx := kong.Parse(cli,
		kong.Name("hardtrack"),
		kong.Description("Local 75 Hard challenge tracker with convergent multi-context state."),
		kong.UsageOnError(),
		kong.Vars{"version": version.Full()},
		// kong exits itself only for parse problems and --version; map the
		// failures to the usage exit code.
		kong.Exit(func(code int) {
			if code != 0 {
				code = 2
			}
			os.Exit(code)
		}),
	)

	if err := ctx.Run(&commands.Global{Logger: slog.Default()}); err != nil {
		terrors.NewCLIErrorAdapter(cli.Verbose, slog.Default()).HandleError(err)
	}
}
