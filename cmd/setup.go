package main

import (
	"context"

	"github.com/coralsong/spotify-mcp/internal/shared"
	"github.com/urfave/cli/v3"
)

func setupCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:   "setup",
		Usage:  "Write a starter configuration file",
		Flags:  []cli.Flag{configFlag()},
		Action: r.Setup,
	}
}

// Setup writes the embedded example configuration to the target path.
// It refuses to overwrite an existing file.
func (r *Runner) Setup(ctx context.Context, cmd *cli.Command) error {
	path := cmd.String("config")

	if err := shared.CreateConfigFile(path); err != nil {
		return err
	}

	r.logger.Info("config file created", "path", path)

	r.writePlain("✓ Configuration written to %s\n", path)
	r.writePlainln("Next steps:")
	r.writePlain("1. Add CLIENT_ID and CLIENT_SECRET from the Spotify developer dashboard\n")
	r.writePlain("2. Run 'spotify-mcp auth --save' to mint a refresh token for playback control\n")

	return nil
}
