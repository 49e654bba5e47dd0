package main

import (
	"log/slog"
	"os"
	"path/filepath"

	"github.com/alecthomas/kong"
	"github.com/dgallion1/docvoice/internal/config"
	"github.com/joho/godotenv"
)

// CLI is the docvoice command line.
type CLI struct {
	config.Logging `embed:""`

	Config kong.ConfigFlag `help:"JSON file with option defaults." placeholder:"FILE"`

	Narrate NarrateCmd `cmd:"" default:"withargs" help:"Narrate a PDF or text document into a single WAV file."`
	Serve   ServeCmd   `cmd:"" help:"Run the narration HTTP service."`
}

// Globals is bound into every command's Run.
type Globals struct {
	Log *slog.Logger
}

func main() {
	envFiles := []string{".env", "docvoice.env"}
	if home, err := os.UserHomeDir(); err == nil {
		envFiles = append(envFiles, filepath.Join(home, ".config/docvoice.env"))
	}
	for _, envFile := range envFiles {
		if _, err := os.Stat(envFile); err == nil {
			if err := godotenv.Load(envFile); err != nil {
				slog.Error("failed to load environment file", "error", err, "file", envFile)
			}
		}
	}

	configFiles := []string{"docvoice.json"}
	if home, err := os.UserHomeDir(); err == nil {
		configFiles = append(configFiles, filepath.Join(home, ".config/docvoice.json"))
	}

	var cli CLI
	ctx := kong.Parse(&cli,
		kong.Name("docvoice"),
		kong.Description("Turn documents into narrated audio in a reference voice."),
		kong.UsageOnError(),
		kong.Configuration(kong.JSON, configFiles...),
	)

	log := cli.Logger(os.Stderr)
	slog.SetDefault(log)

	if err := ctx.Run(&Globals{Log: log}); err != nil {
		log.Error("docvoice failed", "command", ctx.Command(), "error", err)
		os.Exit(1)
	}
}
