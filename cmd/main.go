package main

import (
	"context"
	"os"

	"github.com/coralsong/spotify-mcp/internal/shared"
	"github.com/urfave/cli/v3"
)

const version = "0.3.0"

func main() {
	logger := shared.NewLogger(nil)

	runner := NewRunner(RunnerOpts{Logger: logger})

	// Running the bare binary serves, so MCP hosts can exec it without
	// arguments.
	app := &cli.Command{
		Name:     "spotify-mcp",
		Usage:    "Spotify search and playback tools for MCP clients",
		Version:  version,
		Flags:    []cli.Flag{configFlag(), verboseFlag()},
		Commands: runner.register(),
		Action:   runner.Serve,
	}

	if err := app.Run(context.Background(), os.Args); err != nil {
		logger.Fatalf("application error: %v", err)
	}
}
