package main

import (
	"context"
	"fmt"

	"github.com/charmbracelet/log"
	"github.com/coralsong/spotify-mcp/internal/auth"
	"github.com/coralsong/spotify-mcp/internal/shared"
	"github.com/coralsong/spotify-mcp/internal/spotify"
	"github.com/coralsong/spotify-mcp/internal/tools"
	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/urfave/cli/v3"
)

func serveCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:   "serve",
		Usage:  "Serve Spotify tools to an MCP client over stdio",
		Flags:  []cli.Flag{configFlag(), verboseFlag()},
		Action: r.Serve,
	}
}

// Serve runs the MCP server on the stdio transport until the client
// disconnects. Logs go to stderr; stdout carries the protocol.
func (r *Runner) Serve(ctx context.Context, cmd *cli.Command) error {
	if cmd.Bool("verbose") {
		shared.SetLogLevel(r.logger, log.DebugLevel)
	}

	config := r.resolveConfig(cmd)

	manager := auth.NewManager(auth.ManagerOpts{
		Credentials: config.Credentials.Spotify,
		Logger:      shared.WithLogger(r.logger, "component", "auth"),
	})
	client := spotify.NewClient(spotify.ClientOpts{
		Tokens: manager,
		Logger: shared.WithLogger(r.logger, "component", "spotify"),
	})
	registry := tools.NewRegistry(tools.RegistryOpts{
		Config:  config,
		Service: client,
		Tokens:  manager,
		Logger:  r.logger,
	})

	srv := mcp.NewServer(&mcp.Implementation{Name: "spotify-mcp", Version: version}, nil)
	registry.Install(srv)

	r.logger.Info("serving Spotify tools over stdio", "grant_mode", manager.GrantMode())

	if err := srv.Run(ctx, &mcp.StdioTransport{}); err != nil {
		return fmt.Errorf("mcp server stopped: %w", err)
	}

	r.logger.Info("client disconnected", "api_requests", client.Requests(), "token_grants", manager.Grants())

	return nil
}
