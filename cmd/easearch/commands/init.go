package commands

import (
	"fmt"
	"io"
	"path/filepath"

	"git.home.luguber.info/inful/easearch/internal/config"
	dberrors "git.home.luguber.info/inful/easearch/internal/foundation/errors"
)

// InitCmd implements the 'init' command.
type InitCmd struct {
	Force  bool   `help:"Overwrite existing configuration file"`
	Output string `short:"o" name:"output" help:"Directory to write easearch.yaml into" type:"path"`
}

func (i *InitCmd) Run(g *Global, root *CLI) error {
	path := root.Config
	if i.Output != "" {
		path = filepath.Join(i.Output, config.DefaultFile)
	}
	if path == "" {
		path = config.DefaultFile
	}
	return RunInit(g.out(), path, i.Force)
}

func RunInit(w io.Writer, configPath string, force bool) error {
	_, _ = fmt.Fprintf(w, "Writing configuration to %s\n", configPath)
	if err := config.Init(configPath, force); err != nil {
		return dberrors.WrapError(err, dberrors.CategoryConfig, "initialization failed").
			WithContext("file", configPath).
			Build()
	}
	_, _ = fmt.Fprintln(w, "Initialized successfully")
	return nil
}
