package main

import (
	"github.com/alecthomas/kong"

	"github.com/julianstephens/fitbot/internal/cli"
	"github.com/julianstephens/fitbot/internal/config"
	"github.com/julianstephens/fitbot/internal/constants"
	apperr "github.com/julianstephens/fitbot/internal/errors"
	"github.com/julianstephens/fitbot/internal/logger"
)

var CLI struct {
	Version kong.VersionFlag
	DB      string `help:"SQLite path, postgres:// connection string or memory://. Overrides FITBOT_DB." placeholder:"PATH|DSN"`
	Debug   bool   `help:"Verbose logging to stderr. Overrides FITBOT_DEBUG."`
	Token   string `help:"Telegram bot token. Overrides FITBOT_TOKEN and the keyring."`

	Run      cli.RunCmd      `cmd:"" help:"Start the bot and the weekly snapshot scheduler." default:"1"`
	Init     cli.InitCmd     `cmd:"" help:"Initialize fitbot storage."`
	Migrate  cli.MigrateCmd  `cmd:"" help:"Run database migrations."`
	Snapshot cli.SnapshotCmd `cmd:"" help:"Run the weekly weight snapshot now."`
	Users    cli.UsersCmd    `cmd:"" help:"List registered users."`
	History  cli.HistoryCmd  `cmd:"" help:"Show a user's weight history."`
	Doctor   cli.DoctorCmd   `cmd:"" help:"Run health checks and diagnostics."`
	DebugCmd cli.DebugCmd    `cmd:"" name:"debug" help:"Debug commands for troubleshooting."`
	Backup   struct {
		Create  cli.BackupCreateCmd  `cmd:"" help:"Create a manual backup." default:"1"`
		List    cli.BackupListCmd    `cmd:"" help:"List available backups."`
		Restore cli.BackupRestoreCmd `cmd:"" help:"Restore from a backup."`
	} `cmd:"" help:"Manage database backups."`
	TokenCmd struct {
		Set    cli.TokenSetCmd    `cmd:"" help:"Store the bot token in the OS keyring."`
		Status cli.TokenStatusCmd `cmd:"" help:"Show keyring and token status."`
		Delete cli.TokenDeleteCmd `cmd:"" help:"Remove the bot token from the OS keyring."`
	} `cmd:"" name:"token" help:"Manage the bot token."`
}

func main() {
	ctx := kong.Parse(&CLI,
		kong.Name(constants.AppName),
		kong.Description("Telegram fitness bot: registration, weight log and weekly snapshots"),
		kong.UsageOnError(),
		kong.ConfigureHelp(kong.HelpOptions{
			Compact:             true,
			NoExpandSubcommands: true,
		}),
		kong.Vars{"version": constants.Version},
	)

	cfg, err := config.Load()
	if err != nil {
		apperr.Fatal(err)
	}
	if CLI.DB != "" {
		cfg.DB = CLI.DB
	}
	if CLI.Debug {
		cfg.Debug = true
	}
	if CLI.Token != "" {
		cfg.Token = CLI.Token
	}
	if err := cfg.Normalize(); err != nil {
		apperr.Fatal(err)
	}

	if err := logger.Init(logger.Config{
		Debug:     cfg.Debug,
		ConfigDir: cfg.Dir(),
		Stderr:    ctx.Command() == "run",
		JSON:      cfg.LogJSON,
	}); err != nil {
		apperr.Fatal(err)
	}

	apperr.Fatal(ctx.Run(cli.NewContext(cfg)))
}
