package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/log"
	"github.com/coralsong/spotify-mcp/internal/auth"
	"github.com/coralsong/spotify-mcp/internal/shared"
	"github.com/coralsong/spotify-mcp/internal/spotify"
	"github.com/coralsong/spotify-mcp/internal/tools"
	"github.com/urfave/cli/v3"
)

// Runner holds all dependencies for CLI commands and provides methods for each command action.
type Runner struct {
	config     *shared.Config
	configPath string
	service    spotify.Service
	tokens     tools.TokenStatus
	logger     *log.Logger
	output     io.Writer
}

// RunnerOpts contains configuration options for creating a Runner.
//
// Service and Tokens are normally left nil and assembled from the
// configuration; tests inject doubles through them.
type RunnerOpts struct {
	Config     *shared.Config
	ConfigPath string
	Service    spotify.Service
	Tokens     tools.TokenStatus
	Logger     *log.Logger
	Output     io.Writer
}

// NewRunner creates a new Runner with the provided configuration
func NewRunner(opts RunnerOpts) *Runner {
	if opts.Config == nil {
		opts.Config = shared.DefaultConfig()
	}
	if opts.ConfigPath == "" {
		opts.ConfigPath = "config.toml"
	}
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}
	if opts.Output == nil {
		opts.Output = os.Stdout
	}

	return &Runner{
		config:     opts.Config,
		configPath: opts.ConfigPath,
		service:    opts.Service,
		tokens:     opts.Tokens,
		logger:     opts.Logger,
		output:     opts.Output,
	}
}

func (r *Runner) register() []*cli.Command {
	commands := []*cli.Command{}
	for _, fn := range [](func(*Runner) *cli.Command){
		serveCommand, authCommand, debugCommand, setupCommand,
	} {
		commands = append(commands, fn(r))
	}

	return commands
}

// resolveConfig reloads configuration for a command invocation when its
// --config flag is present; commands without the flag keep the runner's
// current config.
func (r *Runner) resolveConfig(cmd *cli.Command) *shared.Config {
	if path := cmd.String("config"); path != "" {
		r.configPath = path
		r.config = shared.ResolveConfig(path)
	}

	return r.config
}

// registry assembles the token manager, API client, and tool registry
// from the resolved configuration, reusing injected doubles when tests
// provide them.
func (r *Runner) registry(config *shared.Config) *tools.Registry {
	tokens := r.tokens
	if tokens == nil {
		tokens = auth.NewManager(auth.ManagerOpts{
			Credentials: config.Credentials.Spotify,
			Logger:      r.logger,
		})
	}

	svc := r.service
	if svc == nil {
		svc = spotify.NewClient(spotify.ClientOpts{
			Tokens: tokens,
			Logger: r.logger,
		})
	}

	return tools.NewRegistry(tools.RegistryOpts{
		Config:  config,
		Service: svc,
		Tokens:  tokens,
		Logger:  r.logger,
	})
}

func configFlag() *cli.StringFlag {
	return &cli.StringFlag{
		Name:    "config",
		Aliases: []string{"c"},
		Usage:   "Path to configuration file",
		Value:   "config.toml",
	}
}

func verboseFlag() *cli.BoolFlag {
	return &cli.BoolFlag{
		Name:  "verbose",
		Usage: "Enable debug logging",
	}
}

func (r *Runner) writeJSON(data any, pretty bool) error {
	var output []byte
	var err error

	if pretty {
		output, err = json.MarshalIndent(data, "", "  ")
	} else {
		output, err = json.Marshal(data)
	}

	if err != nil {
		return fmt.Errorf("failed to marshal JSON: %w", err)
	}

	if _, err := r.output.Write(output); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}

	if _, err := r.output.Write([]byte("\n")); err != nil {
		return fmt.Errorf("failed to write newline: %w", err)
	}

	return nil
}

func (r *Runner) writePlain(format string, args ...any) error {
	text := fmt.Sprintf(format, args...)
	if _, err := r.output.Write([]byte(text)); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func (r *Runner) writePlainln(format string, args ...any) error {
	text := "\n" + fmt.Sprintf(format, args...) + "\n"
	if _, err := r.output.Write([]byte(text)); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}
