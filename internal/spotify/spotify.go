package spotify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync/atomic"
	"time"

	"github.com/charmbracelet/log"
	"github.com/coralsong/spotify-mcp/internal/models"
	"github.com/coralsong/spotify-mcp/internal/shared"
)

const spotifyBaseURL = "https://api.spotify.com/v1"

// TokenSource provides bearer tokens for outbound requests.
type TokenSource interface {
	Token(ctx context.Context) (string, error)
	UserScoped() bool
}

// Service is the operation surface the tool layer builds on.
type Service interface {
	Search(ctx context.Context, query string, limit int) ([]models.Track, error)
	Play(ctx context.Context, idOrURI string) error
	NowPlaying(ctx context.Context) (*models.Playback, error)
	Devices(ctx context.Context) ([]models.Device, error)
	Playlists(ctx context.Context, limit int) ([]models.Playlist, error)
	PlaylistTracks(ctx context.Context, idOrURI string, limit int) ([]models.Track, error)
	PlayPlaylist(ctx context.Context, idOrURI string, shuffle bool) (*models.Playlist, error)
}

// Spotify API response types based on https://developer.spotify.com/documentation/web-api/reference/

type apiArtist struct {
	Name string `json:"name"`
}

type apiAlbum struct {
	Name string `json:"name"`
}

type apiTrack struct {
	ID         string      `json:"id"`
	Name       string      `json:"name"`
	Artists    []apiArtist `json:"artists"`
	Album      apiAlbum    `json:"album"`
	DurationMS int         `json:"duration_ms"`
	URI        string      `json:"uri"`
}

type searchResponse struct {
	Tracks struct {
		Items []apiTrack `json:"items"`
	} `json:"tracks"`
}

type playbackResponse struct {
	IsPlaying  bool      `json:"is_playing"`
	ProgressMS int       `json:"progress_ms"`
	Item       *apiTrack `json:"item"`
}

type apiDevice struct {
	ID            string `json:"id"`
	Name          string `json:"name"`
	Type          string `json:"type"`
	IsActive      bool   `json:"is_active"`
	VolumePercent int    `json:"volume_percent"`
}

type devicesResponse struct {
	Devices []apiDevice `json:"devices"`
}

type apiOwner struct {
	ID          string `json:"id"`
	DisplayName string `json:"display_name"`
}

type apiPlaylist struct {
	ID     string   `json:"id"`
	Name   string   `json:"name"`
	Owner  apiOwner `json:"owner"`
	Public bool     `json:"public"`
	Tracks struct {
		Total int `json:"total"`
	} `json:"tracks"`
	URI string `json:"uri"`
}

type playlistsResponse struct {
	Items []apiPlaylist `json:"items"`
}

type playlistItemsResponse struct {
	Items []struct {
		Track *apiTrack `json:"track"`
	} `json:"items"`
}

// Client calls the Spotify Web API with tokens minted by a [TokenSource].
type Client struct {
	tokens  TokenSource
	client  *http.Client
	logger  *log.Logger
	baseURL string

	requests atomic.Int64
}

// ClientOpts configures a [Client]. Zero fields fall back to defaults.
type ClientOpts struct {
	Tokens     TokenSource
	HTTPClient *http.Client
	Logger     *log.Logger
	BaseURL    string // defaults to the public Web API
}

// NewClient creates a new Web API client.
func NewClient(opts ClientOpts) *Client {
	if opts.HTTPClient == nil {
		opts.HTTPClient = &http.Client{Timeout: 30 * time.Second}
	}
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}
	if opts.BaseURL == "" {
		opts.BaseURL = spotifyBaseURL
	}

	return &Client{
		tokens:  opts.Tokens,
		client:  opts.HTTPClient,
		logger:  opts.Logger,
		baseURL: opts.BaseURL,
	}
}

// doRequest performs an authenticated request against the Web API. A nil
// result skips decoding, which also covers 204 responses.
func (c *Client) doRequest(ctx context.Context, method, endpoint string, body, result any) error {
	token, err := c.tokens.Token(ctx)
	if err != nil {
		return err
	}

	var payload io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to encode request body: %w", err)
		}
		payload = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+endpoint, payload)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", shared.ErrAPIRequest, err)
	}
	defer resp.Body.Close()

	c.requests.Add(1)
	c.logger.Debug("spotify API request", "method", method, "endpoint", endpoint, "status", resp.StatusCode)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return decodeAPIError(resp)
	}

	if result == nil || resp.StatusCode == http.StatusNoContent {
		return nil
	}

	if err := json.NewDecoder(resp.Body).Decode(result); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}

	return nil
}

// Requests returns the number of Web API requests issued so far.
func (c *Client) Requests() int64 {
	return c.requests.Load()
}

// requireUserScope rejects playback control before any request goes out
// when the client-credentials grant is in effect, since that grant never
// carries the playback scopes.
func (c *Client) requireUserScope() error {
	if c.tokens.UserScoped() {
		return nil
	}
	return fmt.Errorf("%w: playback control requires a refresh token", shared.ErrMissingPermission)
}

// Search queries the track catalog and returns up to limit results.
func (c *Client) Search(ctx context.Context, query string, limit int) ([]models.Track, error) {
	if query == "" {
		return nil, fmt.Errorf("%w: search query", shared.ErrMissingArgument)
	}
	if limit <= 0 {
		limit = 5
	}
	if limit > 50 {
		limit = 50
	}

	endpoint := fmt.Sprintf("/search?q=%s&type=track&limit=%d", url.QueryEscape(query), limit)

	var response searchResponse
	if err := c.doRequest(ctx, http.MethodGet, endpoint, nil, &response); err != nil {
		return nil, err
	}

	tracks := make([]models.Track, 0, len(response.Tracks.Items))
	for _, item := range response.Tracks.Items {
		tracks = append(tracks, toTrack(item))
	}

	return tracks, nil
}

// Play starts playback of a track on the active device. The id may be a
// bare track id or any playable URI; non-track URIs play as a context.
func (c *Client) Play(ctx context.Context, idOrURI string) error {
	if idOrURI == "" {
		return fmt.Errorf("%w: track id", shared.ErrMissingArgument)
	}
	if err := c.requireUserScope(); err != nil {
		return err
	}

	uri := NormalizeURI("track", idOrURI)

	body := map[string]any{"context_uri": uri}
	if strings.Contains(uri, ":track:") {
		body = map[string]any{"uris": []string{uri}}
	}

	return c.doRequest(ctx, http.MethodPut, "/me/player/play", body, nil)
}

// NowPlaying reports the current playback state. A nil result with a nil
// error means nothing is playing.
func (c *Client) NowPlaying(ctx context.Context) (*models.Playback, error) {
	var response playbackResponse
	if err := c.doRequest(ctx, http.MethodGet, "/me/player/currently-playing", nil, &response); err != nil {
		return nil, err
	}

	if response.Item == nil {
		return nil, nil
	}

	return &models.Playback{
		Track:     toTrack(*response.Item),
		IsPlaying: response.IsPlaying,
		Progress:  models.FormatDuration(response.ProgressMS),
	}, nil
}

// Devices lists the playback devices available to the account.
func (c *Client) Devices(ctx context.Context) ([]models.Device, error) {
	var response devicesResponse
	if err := c.doRequest(ctx, http.MethodGet, "/me/player/devices", nil, &response); err != nil {
		return nil, err
	}

	devices := make([]models.Device, 0, len(response.Devices))
	for _, d := range response.Devices {
		devices = append(devices, models.Device{
			ID:     d.ID,
			Name:   d.Name,
			Type:   d.Type,
			Active: d.IsActive,
			Volume: d.VolumePercent,
		})
	}

	return devices, nil
}

// Playlists lists the user's playlists.
func (c *Client) Playlists(ctx context.Context, limit int) ([]models.Playlist, error) {
	if limit <= 0 {
		limit = 20
	}
	if limit > 50 {
		limit = 50
	}

	endpoint := fmt.Sprintf("/me/playlists?limit=%d", limit)

	var response playlistsResponse
	if err := c.doRequest(ctx, http.MethodGet, endpoint, nil, &response); err != nil {
		return nil, err
	}

	playlists := make([]models.Playlist, 0, len(response.Items))
	for _, item := range response.Items {
		playlists = append(playlists, toPlaylist(item))
	}

	return playlists, nil
}

// PlaylistTracks lists the tracks of a playlist given by bare id or URI.
func (c *Client) PlaylistTracks(ctx context.Context, idOrURI string, limit int) ([]models.Track, error) {
	if idOrURI == "" {
		return nil, fmt.Errorf("%w: playlist id", shared.ErrMissingArgument)
	}
	if limit <= 0 {
		limit = 50
	}
	if limit > 100 {
		limit = 100
	}

	endpoint := fmt.Sprintf("/playlists/%s/tracks?limit=%d", ResourceID(idOrURI), limit)

	var response playlistItemsResponse
	if err := c.doRequest(ctx, http.MethodGet, endpoint, nil, &response); err != nil {
		return nil, playlistErr(err, idOrURI)
	}

	tracks := make([]models.Track, 0, len(response.Items))
	for _, item := range response.Items {
		// Removed and local tracks come back as null items.
		if item.Track == nil {
			continue
		}
		tracks = append(tracks, toTrack(*item.Track))
	}

	return tracks, nil
}

// PlayPlaylist starts playback of a playlist, optionally enabling shuffle
// first, and returns the playlist's metadata.
func (c *Client) PlayPlaylist(ctx context.Context, idOrURI string, shuffle bool) (*models.Playlist, error) {
	if idOrURI == "" {
		return nil, fmt.Errorf("%w: playlist id", shared.ErrMissingArgument)
	}
	if err := c.requireUserScope(); err != nil {
		return nil, err
	}

	var playlist apiPlaylist
	endpoint := fmt.Sprintf("/playlists/%s", ResourceID(idOrURI))
	if err := c.doRequest(ctx, http.MethodGet, endpoint, nil, &playlist); err != nil {
		return nil, playlistErr(err, idOrURI)
	}

	if shuffle {
		if err := c.doRequest(ctx, http.MethodPut, "/me/player/shuffle?state=true", nil, nil); err != nil {
			return nil, err
		}
	}

	body := map[string]any{"context_uri": NormalizeURI("playlist", idOrURI)}
	if err := c.doRequest(ctx, http.MethodPut, "/me/player/play", body, nil); err != nil {
		return nil, err
	}

	result := toPlaylist(playlist)
	return &result, nil
}

func toTrack(t apiTrack) models.Track {
	track := models.Track{
		Name:     t.Name,
		Album:    t.Album.Name,
		URI:      t.URI,
		Duration: models.FormatDuration(t.DurationMS),
	}

	if len(t.Artists) > 0 {
		track.Artist = t.Artists[0].Name
	}

	return track
}

func toPlaylist(p apiPlaylist) models.Playlist {
	return models.Playlist{
		ID:         p.ID,
		Name:       p.Name,
		Owner:      p.Owner.DisplayName,
		URI:        p.URI,
		TrackCount: p.Tracks.Total,
		Public:     p.Public,
	}
}
