package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/coralsong/spotify-mcp/internal/auth"
	"github.com/coralsong/spotify-mcp/internal/server"
	"github.com/coralsong/spotify-mcp/internal/shared"
	"github.com/joho/godotenv"
	"github.com/urfave/cli/v3"
	"golang.org/x/oauth2"
)

var tokenStyle = lipgloss.NewStyle().
	Bold(true).
	Foreground(lipgloss.Color("#1DB954")).
	Border(lipgloss.RoundedBorder()).
	BorderForeground(lipgloss.Color("#1DB954")).
	Padding(0, 1)

func authCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "auth",
		Usage: "Authorize with Spotify in the browser and mint a refresh token",
		Flags: []cli.Flag{
			configFlag(),
			&cli.BoolFlag{
				Name:    "save",
				Aliases: []string{"s"},
				Usage:   "Write the refresh token into the configuration file",
			},
			&cli.StringFlag{
				Name:  "env-file",
				Usage: "Merge the refresh token into the named env file",
			},
			&cli.BoolFlag{
				Name:  "json",
				Usage: "Print the refresh token as JSON",
			},
		},
		Action: r.Auth,
	}
}

// Auth performs the OAuth2 authorization-code flow for Spotify.
//
// Starts a local HTTP server, opens the browser for user authorization,
// exchanges the code, and prints the minted refresh token.
func (r *Runner) Auth(ctx context.Context, cmd *cli.Command) error {
	config := r.resolveConfig(cmd)

	if config.Credentials.Spotify.ClientID == "" || config.Credentials.Spotify.ClientSecret == "" {
		return fmt.Errorf("%w: CLIENT_ID and CLIENT_SECRET must be set before authorizing", shared.ErrMissingCredentials)
	}

	token, err := r.doOAuth(ctx, config)
	if err != nil {
		return err
	}

	if err := config.Credentials.Spotify.Update(token); err != nil {
		return fmt.Errorf("failed to store refresh token: %w", err)
	}

	if cmd.Bool("json") {
		if err := r.writeJSON(map[string]string{"refresh_token": token.RefreshToken}, true); err != nil {
			return err
		}
	} else {
		r.writePlainln("✓ Authorization successful")
		r.writePlain("%s\n", tokenStyle.Render(shared.EnvRefreshToken+"="+token.RefreshToken))
	}

	saved := false

	if cmd.Bool("save") {
		if err := shared.SaveConfig(r.configPath, config); err != nil {
			return fmt.Errorf("failed to save config: %w", err)
		}
		r.writePlain("✓ Refresh token saved to %s\n", r.configPath)
		saved = true
	}

	if envFile := cmd.String("env-file"); envFile != "" {
		if err := writeEnvFile(envFile, token.RefreshToken); err != nil {
			return fmt.Errorf("failed to update %s: %w", envFile, err)
		}
		r.writePlain("✓ Refresh token saved to %s\n", envFile)
		saved = true
	}

	if !saved && !cmd.Bool("json") {
		r.writePlain("\nSet %s in the server environment, or re-run with --save.\n", shared.EnvRefreshToken)
	}

	return nil
}

// doOAuth executes the authorization flow with a local callback server.
func (r *Runner) doOAuth(ctx context.Context, config *shared.Config) (*oauth2.Token, error) {
	state := shared.GenerateID()

	oauthConfig := auth.OAuthConfig(config.Credentials.Spotify)
	handler := server.NewOAuthHandler(oauthConfig, state)

	router := server.NewBasicRouter()
	router.Use(server.LogRequests(r.logger))
	router.Handler(handler)

	addr := fmt.Sprintf("%s:%d", config.Server.Host, config.Server.Port)
	httpServer := &http.Server{
		Addr:    addr,
		Handler: router,
	}

	serverErrors := make(chan error, 1)
	go func() {
		r.logger.Info("starting authorization callback server", "addr", addr)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serverErrors <- err
		}
	}()

	time.Sleep(100 * time.Millisecond)

	authURL := oauthConfig.AuthCodeURL(state)
	r.writePlain("→ Opening browser for Spotify authorization...\n")
	if err := shared.OpenBrowser(authURL); err != nil {
		r.logger.Warnf("failed to open browser automatically %v", err)
		r.writePlainln("⚠ Could not open browser automatically.")
		r.writePlain("Please open this URL in your browser:\n%s\n\n", authURL)
	}

	r.writePlain("→ Waiting for authorization (2 minute timeout)...\n")

	timeout := time.NewTimer(2 * time.Minute)
	defer timeout.Stop()

	var result server.OAuthResult

	select {
	case result = <-handler.Result():
	case err := <-serverErrors:
		return nil, fmt.Errorf("callback server error: %w", err)
	case <-timeout.C:
		return nil, fmt.Errorf("%w: no callback received within 2 minutes", shared.ErrTimeout)
	case <-ctx.Done():
		return nil, ctx.Err()
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		r.logger.Warn("error shutting down callback server", "error", err)
	}

	if result.Error() != nil {
		return nil, fmt.Errorf("authorization failed: %w", result.Error())
	}

	if result.Token == nil {
		return nil, fmt.Errorf("no token received")
	}

	return result.Token, nil
}

// writeEnvFile merges the refresh token into an env file, preserving
// existing entries and creating the file when missing.
func writeEnvFile(path, refreshToken string) error {
	env := map[string]string{}
	if _, err := os.Stat(path); err == nil {
		existing, err := godotenv.Read(path)
		if err != nil {
			return fmt.Errorf("failed to read existing env file: %w", err)
		}
		env = existing
	}

	env[shared.EnvRefreshToken] = refreshToken

	return godotenv.Write(env, path)
}
