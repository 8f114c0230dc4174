package commands

import (
	"fmt"
	"os"

	"git.home.luguber.info/inful/hardtrack/internal/config"
	terrors "git.home.luguber.info/inful/hardtrack/internal/errors"
)

// InitCmd implements the 'init' command.
type InitCmd struct {
	Force bool `help:"Overwrite an existing configuration file"`
}

func (i *InitCmd) Run(_ *Global, root *CLI) error {
	path := root.Config
	if path == "" {
		path = config.DefaultPath
	}

	fmt.Printf("Writing configuration to %s\n", path)
	if err := config.Init(path, i.Force); err != nil {
		return err
	}

	cfg := config.Default()
	if err := os.MkdirAll(cfg.DataDir, 0o755); err != nil {
		return terrors.StorageError("create data directory", err)
	}

	fmt.Println("hardtrack initialized")
	return nil
}
