package tools

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync/atomic"
	"time"

	"github.com/charmbracelet/log"
	"github.com/coralsong/spotify-mcp/internal/models"
	"github.com/coralsong/spotify-mcp/internal/shared"
	"github.com/coralsong/spotify-mcp/internal/spotify"
	"github.com/lithammer/dedent"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// TokenStatus is the view of the token lifecycle the registry needs for
// the troubleshooting report.
type TokenStatus interface {
	Token(ctx context.Context) (string, error)
	UserScoped() bool
	GrantMode() string
	Grants() int64
	Expiry() time.Time
}

// Registry owns the tool handlers and their shared collaborators.
type Registry struct {
	cfg    *shared.Config
	svc    spotify.Service
	tokens TokenStatus
	logger *log.Logger
	now    func() time.Time

	calls    atomic.Int64
	failures atomic.Int64
}

// RegistryOpts configures a [Registry]. Zero fields fall back to defaults.
type RegistryOpts struct {
	Config  *shared.Config
	Service spotify.Service
	Tokens  TokenStatus
	Logger  *log.Logger
	Now     func() time.Time // defaults to time.Now
}

// NewRegistry creates a new Registry with the provided options.
func NewRegistry(opts RegistryOpts) *Registry {
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}

	return &Registry{
		cfg:    opts.Config,
		svc:    opts.Service,
		tokens: opts.Tokens,
		logger: opts.Logger,
		now:    opts.Now,
	}
}

// Install registers every tool on the server. Input schemas are inferred
// from the typed input structs.
func (r *Registry) Install(srv *mcp.Server) {
	mcp.AddTool(srv, &mcp.Tool{
		Name: "search",
		Description: describe(`
			Search the Spotify track catalog.

			Returns a JSON array of tracks with name, artist, album, uri,
			and duration. Pass a track's uri to the play tool to start
			playback.`),
	}, r.handleSearch)

	mcp.AddTool(srv, &mcp.Tool{
		Name: "play",
		Description: describe(`
			Start playback of a track on the active Spotify device.

			Accepts a bare track id or any spotify: URI. Requires an
			account with playback permission and an open Spotify client.`),
	}, r.handlePlay)

	mcp.AddTool(srv, &mcp.Tool{
		Name: "currently-playing",
		Description: describe(`
			Show the track currently playing on Spotify, with progress and
			playback state.`),
	}, r.handleNowPlaying)

	mcp.AddTool(srv, &mcp.Tool{
		Name: "devices",
		Description: describe(`
			List the Spotify playback devices available to this account and
			which one is active.`),
	}, r.handleDevices)

	mcp.AddTool(srv, &mcp.Tool{
		Name: "playlists",
		Description: describe(`
			List the user's Spotify playlists with owners and track counts.`),
	}, r.handlePlaylists)

	mcp.AddTool(srv, &mcp.Tool{
		Name: "playlist-tracks",
		Description: describe(`
			List the tracks of a playlist given by id or spotify: URI.`),
	}, r.handlePlaylistTracks)

	mcp.AddTool(srv, &mcp.Tool{
		Name: "play-playlist",
		Description: describe(`
			Start playback of a playlist on the active device, optionally
			shuffled.`),
	}, r.handlePlayPlaylist)

	mcp.AddTool(srv, &mcp.Tool{
		Name: "search-and-play",
		Description: describe(`
			Search the track catalog and immediately play the top result on
			the active device.`),
	}, r.handleSearchAndPlay)

	mcp.AddTool(srv, &mcp.Tool{
		Name: "find-playlist-and-play",
		Description: describe(`
			Find the first playlist whose name contains the given text
			(case-insensitive) and start playing it.`),
	}, r.handleFindPlaylistAndPlay)

	mcp.AddTool(srv, &mcp.Tool{
		Name: "debug-config",
		Description: describe(`
			Report which configuration variables are set, whether a token
			can be obtained, and whether playback is possible right now.
			For troubleshooting, not machine parsing.`),
	}, r.handleDebugConfig)
}

type searchInput struct {
	Query string `json:"query" jsonschema:"text to search the track catalog for"`
	Limit int    `json:"limit,omitempty" jsonschema:"maximum number of results; defaults to 5"`
}

type playInput struct {
	TrackID string `json:"track_id" jsonschema:"track id or spotify URI to play"`
}

type playlistsInput struct {
	Limit int `json:"limit,omitempty" jsonschema:"maximum number of playlists; defaults to 20"`
}

type playlistTracksInput struct {
	PlaylistID string `json:"playlist_id" jsonschema:"playlist id or spotify URI"`
	Limit      int    `json:"limit,omitempty" jsonschema:"maximum number of tracks; defaults to 50"`
}

type playPlaylistInput struct {
	PlaylistID string `json:"playlist_id" jsonschema:"playlist id or spotify URI"`
	Shuffle    bool   `json:"shuffle,omitempty" jsonschema:"enable shuffle before starting playback"`
}

type searchAndPlayInput struct {
	Query string `json:"query" jsonschema:"text to search for; the top result is played"`
}

type findPlaylistInput struct {
	Name    string `json:"name" jsonschema:"playlist name to match case-insensitively"`
	Shuffle bool   `json:"shuffle,omitempty" jsonschema:"enable shuffle before starting playback"`
}

type noInput struct{}

func (r *Registry) handleSearch(ctx context.Context, req *mcp.CallToolRequest, in searchInput) (*mcp.CallToolResult, any, error) {
	r.calls.Add(1)

	limit := in.Limit
	if limit <= 0 {
		limit = 5
	}

	tracks, err := r.svc.Search(ctx, in.Query, limit)
	if err != nil {
		return r.fail(err), nil, nil
	}

	if len(tracks) == 0 {
		return textResult("No results found for: " + in.Query), nil, nil
	}

	return r.renderJSON(tracks), nil, nil
}

func (r *Registry) handlePlay(ctx context.Context, req *mcp.CallToolRequest, in playInput) (*mcp.CallToolResult, any, error) {
	r.calls.Add(1)

	if err := r.svc.Play(ctx, in.TrackID); err != nil {
		return r.fail(err), nil, nil
	}

	return textResult("Playback started for " + spotify.NormalizeURI("track", in.TrackID) + "."), nil, nil
}

func (r *Registry) handleNowPlaying(ctx context.Context, req *mcp.CallToolRequest, in noInput) (*mcp.CallToolResult, any, error) {
	r.calls.Add(1)

	playback, err := r.svc.NowPlaying(ctx)
	if err != nil {
		return r.fail(err), nil, nil
	}

	if playback == nil {
		return textResult("Nothing is currently playing."), nil, nil
	}

	return r.renderJSON(playback), nil, nil
}

func (r *Registry) handleDevices(ctx context.Context, req *mcp.CallToolRequest, in noInput) (*mcp.CallToolResult, any, error) {
	r.calls.Add(1)

	devices, err := r.svc.Devices(ctx)
	if err != nil {
		return r.fail(err), nil, nil
	}

	if len(devices) == 0 {
		return textResult("No devices found."), nil, nil
	}

	return r.renderJSON(devices), nil, nil
}

func (r *Registry) handlePlaylists(ctx context.Context, req *mcp.CallToolRequest, in playlistsInput) (*mcp.CallToolResult, any, error) {
	r.calls.Add(1)

	limit := in.Limit
	if limit <= 0 {
		limit = 20
	}

	playlists, err := r.svc.Playlists(ctx, limit)
	if err != nil {
		return r.fail(err), nil, nil
	}

	if len(playlists) == 0 {
		return textResult("No playlists found."), nil, nil
	}

	return r.renderJSON(playlists), nil, nil
}

func (r *Registry) handlePlaylistTracks(ctx context.Context, req *mcp.CallToolRequest, in playlistTracksInput) (*mcp.CallToolResult, any, error) {
	r.calls.Add(1)

	limit := in.Limit
	if limit <= 0 {
		limit = 50
	}

	tracks, err := r.svc.PlaylistTracks(ctx, in.PlaylistID, limit)
	if err != nil {
		return r.fail(err), nil, nil
	}

	if len(tracks) == 0 {
		return textResult("No tracks found in playlist."), nil, nil
	}

	return r.renderJSON(tracks), nil, nil
}

func (r *Registry) handlePlayPlaylist(ctx context.Context, req *mcp.CallToolRequest, in playPlaylistInput) (*mcp.CallToolResult, any, error) {
	r.calls.Add(1)

	playlist, err := r.svc.PlayPlaylist(ctx, in.PlaylistID, in.Shuffle)
	if err != nil {
		return r.fail(err), nil, nil
	}

	return textResult(playingPlaylistText(playlist.Name, in.Shuffle)), nil, nil
}

func (r *Registry) handleSearchAndPlay(ctx context.Context, req *mcp.CallToolRequest, in searchAndPlayInput) (*mcp.CallToolResult, any, error) {
	r.calls.Add(1)

	tracks, err := r.svc.Search(ctx, in.Query, 1)
	if err != nil {
		return r.fail(err), nil, nil
	}

	if len(tracks) == 0 {
		return textResult("No results found for: " + in.Query), nil, nil
	}

	track := tracks[0]
	if err := r.svc.Play(ctx, track.URI); err != nil {
		return r.fail(err), nil, nil
	}

	return textResult("Playing: " + track.Name + " by " + track.Artist), nil, nil
}

func (r *Registry) handleFindPlaylistAndPlay(ctx context.Context, req *mcp.CallToolRequest, in findPlaylistInput) (*mcp.CallToolResult, any, error) {
	r.calls.Add(1)

	if in.Name == "" {
		return r.fail(fmt.Errorf("%w: playlist name", shared.ErrMissingArgument)), nil, nil
	}

	playlists, err := r.svc.Playlists(ctx, 50)
	if err != nil {
		return r.fail(err), nil, nil
	}

	var match *models.Playlist
	needle := strings.ToLower(in.Name)
	for i := range playlists {
		if strings.Contains(strings.ToLower(playlists[i].Name), needle) {
			match = &playlists[i]
			break
		}
	}

	if match == nil {
		return textResult("No playlist found matching: " + in.Name), nil, nil
	}

	playlist, err := r.svc.PlayPlaylist(ctx, match.ID, in.Shuffle)
	if err != nil {
		return r.fail(err), nil, nil
	}

	return textResult(playingPlaylistText(playlist.Name, in.Shuffle)), nil, nil
}

func (r *Registry) handleDebugConfig(ctx context.Context, req *mcp.CallToolRequest, in noInput) (*mcp.CallToolResult, any, error) {
	r.calls.Add(1)

	return textResult(r.ConfigReport(ctx)), nil, nil
}

func playingPlaylistText(name string, shuffle bool) string {
	text := "Playing playlist: " + name
	if shuffle {
		text += " (shuffle on)"
	}
	return text
}

// fail converts an operation error into a text response and counts it.
func (r *Registry) fail(err error) *mcp.CallToolResult {
	r.failures.Add(1)
	r.logger.Error("tool call failed", "error", err)
	return textResult(errorText(err))
}

// errorText maps an error onto its user-facing remediation message.
func errorText(err error) string {
	switch {
	case errors.Is(err, shared.ErrNoActiveDevice):
		return "Error: No active Spotify playback device found. Please open Spotify on a device first."
	case errors.Is(err, shared.ErrPremiumRequired):
		return "Error: This action requires Spotify Premium. Playback control is not available on free accounts."
	case errors.Is(err, shared.ErrMissingPermission):
		return "Error: Missing playback permission. Configure REFRESH_TOKEN (see the auth command) to control playback."
	case errors.Is(err, shared.ErrAuthFailed):
		return "Error: " + err.Error() + ". Check CLIENT_ID, CLIENT_SECRET, and REFRESH_TOKEN."
	}
	return "Error: " + err.Error()
}

func textResult(text string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{&mcp.TextContent{Text: text}},
	}
}

// renderJSON marshals v with indentation into a text result.
func (r *Registry) renderJSON(v any) *mcp.CallToolResult {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return r.fail(fmt.Errorf("failed to encode result: %w", err))
	}
	return textResult(string(data))
}

func describe(s string) string {
	return strings.TrimSpace(dedent.Dedent(s))
}
