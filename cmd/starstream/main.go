package main

import (
	"github.com/alecthomas/kong"
)

// version is set by ldflags during build
var version = "dev"

type CLI struct {
	Version      kong.VersionFlag `short:"v" help:"Show version"`
	Serve        ServeCmd         `cmd:"" help:"Run the gateway and admin panel"`
	Migrate      MigrateCmd       `cmd:"" help:"Apply the database schema and exit"`
	HashPassword HashPasswordCmd  `cmd:"hash-password" help:"Hash an admin password for ADMIN_PASSWORD_HASH"`
}

func main() {
	var cli CLI
	ctx := kong.Parse(&cli,
		kong.Name("starstream"),
		kong.Description("Community currency and five-card-draw game service"),
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
