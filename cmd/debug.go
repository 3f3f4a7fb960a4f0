package main

import (
	"context"

	"github.com/coralsong/spotify-mcp/internal/shared"
	"github.com/urfave/cli/v3"
)

func debugCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:   "debug",
		Usage:  "Print the configuration report shown by the debug-config tool",
		Flags:  []cli.Flag{configFlag()},
		Action: r.Debug,
	}
}

// Debug prints the troubleshooting report. It attempts a token grant and
// a device listing, so it exercises the configured credentials for real.
func (r *Runner) Debug(ctx context.Context, cmd *cli.Command) error {
	config := r.resolveConfig(cmd)

	return r.printReport(ctx, config)
}

func (r *Runner) printReport(ctx context.Context, config *shared.Config) error {
	report := r.registry(config).ConfigReport(ctx)

	return r.writePlain("%s\n", report)
}
