package main

import (
	"github.com/alecthomas/kong"
)

// version is set by ldflags during build
var version = "dev"

type CLI struct {
	Version kong.VersionFlag `short:"v" help:"Show version"`
	Server  ServerCmd        `cmd:"" help:"Run the game server"`
	Play    PlayCmd          `cmd:"" help:"Play a hot-seat shotgun match in the terminal"`
	Watch   WatchCmd         `cmd:"" help:"Follow a session and log its state changes"`
	Archive ArchiveCmd       `cmd:"" help:"Inspect archived matches"`
}

func main() {
	var cli CLI
	ctx := kong.Parse(&cli,
		kong.Name("parlor"),
		kong.Description("Two-player shotgun and card matches over HTTP"),
		kong.UsageOnError(),
		kong.ConfigureHelp(kong.HelpOptions{
			Compact: true,
		}),
		kong.Vars{
			"version": version,
		},
	)
	err := ctx.Run()
	ctx.FatalIfErrorf(err)
}
