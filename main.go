package main

import (
	"os"

	"github.com/alecthomas/kong"
	"github.com/posener/complete"
	"github.com/willabides/kongplete"

	"github.com/hangxie/csv-browser/cmd"
)

var cli struct {
	Browse cmd.BrowseCmd `cmd:"" default:"withargs" help:"Browse a CSV source in the terminal."`
	Serve  cmd.ServeCmd  `cmd:"" help:"Serve a CSV source as a JSON API."`
	WebUI  cmd.WebUICmd  `cmd:"" name:"webui" help:"Serve a CSV source as a web page."`
	Query  cmd.QueryCmd  `cmd:"" help:"Query a running serve or webui command."`

	InstallCompletions kongplete.InstallCompletions `cmd:"" help:"Install shell completions."`
}

func main() {
	parser := kong.Must(
		&cli,
		kong.UsageOnError(),
		kong.ConfigureHelp(kong.HelpOptions{Compact: true}),
		kong.Description("Yet another utility to browse CSV data, for full usage see https://github.com/hangxie/csv-browser/blob/main/README.md"),
	)
	kongplete.Complete(parser, kongplete.WithPredictor("file", complete.PredictFiles("*")))

	ctx, err := parser.Parse(os.Args[1:])
	parser.FatalIfErrorf(err)
	ctx.FatalIfErrorf(ctx.Run())
}
