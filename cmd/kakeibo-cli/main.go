package main

import (
	"log/slog"
	"os"

	"github.com/pterm/pterm"

	"kakeibo/internal/cli"
	"kakeibo/internal/config"
	"kakeibo/internal/log"
)

func main() {
	cli.LoadEnvFile()

	// Diagnostics go to stderr so tables on stdout stay clean.
	logger := cli.SetupLogger(slog.LevelWarn, log.ComponentCLI, os.Stderr)
	cfg := config.Load()

	app := cli.NewApp(logger, cli.Defaults{
		DBPath:    cfg.SQLiteDBPath,
		WeekStart: cfg.WeekStart,
	})
	if err := app.Execute(); err != nil {
		pterm.Error.Println(err)
		os.Exit(1)
	}
}
