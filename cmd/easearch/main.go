package main

import (
	"log/slog"
	"os"

	"github.com/alecthomas/kong"

	"git.home.luguber.info/inful/easearch/cmd/easearch/commands"
	dberrors "git.home.luguber.info/inful/easearch/internal/foundation/errors"
	"git.home.luguber.info/inful/easearch/internal/version"
)

func main() {
	cli := &commands.CLI{}
	parser := kong.Parse(cli,
		kong.Name("easearch"),
		kong.Description("Build a static full-text search index for an HTML export and inject a search widget into every page."),
		kong.UsageOnError(),
		kong.Vars{"version": version.String()},
	)

	err := parser.Run(&commands.Global{Out: os.Stdout}, cli)
	dberrors.NewCLIErrorAdapter(cli.Verbose, slog.Default()).HandleError(err)
}
