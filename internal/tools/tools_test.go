package tools

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/coralsong/spotify-mcp/internal/models"
	"github.com/coralsong/spotify-mcp/internal/shared"
	tu "github.com/coralsong/spotify-mcp/internal/testing"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

func resultText(t *testing.T, res *mcp.CallToolResult) string {
	t.Helper()

	if res == nil || len(res.Content) == 0 {
		t.Fatal("expected a text result")
	}

	tc, ok := res.Content[0].(*mcp.TextContent)
	if !ok {
		t.Fatalf("expected text content, got %T", res.Content[0])
	}

	return tc.Text
}

func newTestRegistry(svc *tu.MockService, tokens TokenStatus) *Registry {
	return NewRegistry(RegistryOpts{
		Config:  shared.DefaultConfig(),
		Service: svc,
		Tokens:  tokens,
	})
}

func TestInstall(t *testing.T) {
	reg := newTestRegistry(&tu.MockService{}, &tu.MockTokens{})

	srv := mcp.NewServer(&mcp.Implementation{Name: "spotify-mcp-test", Version: "0.0.0"}, nil)
	reg.Install(srv)
}

func TestSearchTool(t *testing.T) {
	t.Run("renders matching tracks as JSON", func(t *testing.T) {
		svc := &tu.MockService{
			SearchFunc: func(ctx context.Context, query string, limit int) ([]models.Track, error) {
				return []models.Track{{
					Name:     "Bohemian Rhapsody",
					Artist:   "Queen",
					Album:    "A Night at the Opera",
					URI:      "spotify:track:3z8h0TU7ReDPLIbEnYhWZb",
					Duration: "5:54",
				}}, nil
			},
		}
		reg := newTestRegistry(svc, nil)

		res, _, err := reg.handleSearch(context.Background(), nil, searchInput{Query: "Bohemian Rhapsody", Limit: 1})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		var tracks []map[string]any
		if err := json.Unmarshal([]byte(resultText(t, res)), &tracks); err != nil {
			t.Fatalf("result is not valid JSON: %v", err)
		}

		if len(tracks) != 1 {
			t.Fatalf("expected one track, got %d", len(tracks))
		}

		if tracks[0]["name"] != "Bohemian Rhapsody" || tracks[0]["artist"] != "Queen" {
			t.Errorf("unexpected track payload: %v", tracks[0])
		}
	})

	t.Run("applies the default limit", func(t *testing.T) {
		var gotLimit int
		svc := &tu.MockService{
			SearchFunc: func(ctx context.Context, query string, limit int) ([]models.Track, error) {
				gotLimit = limit
				return nil, nil
			},
		}
		reg := newTestRegistry(svc, nil)

		if _, _, err := reg.handleSearch(context.Background(), nil, searchInput{Query: "x"}); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if gotLimit != 5 {
			t.Errorf("expected default limit 5, got %d", gotLimit)
		}
	})

	t.Run("reports an empty result", func(t *testing.T) {
		reg := newTestRegistry(&tu.MockService{}, nil)

		res, _, _ := reg.handleSearch(context.Background(), nil, searchInput{Query: "nothing here"})

		if got := resultText(t, res); got != "No results found for: nothing here" {
			t.Errorf("unexpected text %q", got)
		}
	})
}

func TestPlayTool(t *testing.T) {
	t.Run("confirms playback with the normalized URI", func(t *testing.T) {
		reg := newTestRegistry(&tu.MockService{}, nil)

		res, _, _ := reg.handlePlay(context.Background(), nil, playInput{TrackID: "abc123"})

		if got := resultText(t, res); got != "Playback started for spotify:track:abc123." {
			t.Errorf("unexpected text %q", got)
		}
	})

	t.Run("translates a missing device into remediation text", func(t *testing.T) {
		svc := &tu.MockService{
			PlayFunc: func(ctx context.Context, idOrURI string) error {
				return fmt.Errorf("%w: Player command failed", shared.ErrNoActiveDevice)
			},
		}
		reg := newTestRegistry(svc, nil)

		res, _, _ := reg.handlePlay(context.Background(), nil, playInput{TrackID: "xyz"})

		want := "Error: No active Spotify playback device found. Please open Spotify on a device first."
		if got := resultText(t, res); got != want {
			t.Errorf("expected %q, got %q", want, got)
		}

		if res.IsError {
			t.Error("failures must come back as successful text results")
		}
	})
}

func TestNowPlayingTool(t *testing.T) {
	t.Run("reports idle playback", func(t *testing.T) {
		reg := newTestRegistry(&tu.MockService{}, nil)

		res, _, _ := reg.handleNowPlaying(context.Background(), nil, noInput{})

		if got := resultText(t, res); got != "Nothing is currently playing." {
			t.Errorf("unexpected text %q", got)
		}
	})

	t.Run("renders the playing track", func(t *testing.T) {
		svc := &tu.MockService{
			NowPlayingFunc: func(ctx context.Context) (*models.Playback, error) {
				return &models.Playback{
					Track:     models.Track{Name: "Fairytale", Artist: "Alexander Rybak", URI: "spotify:track:f1"},
					IsPlaying: true,
					Progress:  "0:42",
				}, nil
			},
		}
		reg := newTestRegistry(svc, nil)

		res, _, _ := reg.handleNowPlaying(context.Background(), nil, noInput{})

		var playback map[string]any
		if err := json.Unmarshal([]byte(resultText(t, res)), &playback); err != nil {
			t.Fatalf("result is not valid JSON: %v", err)
		}

		if playback["name"] != "Fairytale" || playback["is_playing"] != true {
			t.Errorf("unexpected playback payload: %v", playback)
		}
	})
}

func TestListTools(t *testing.T) {
	t.Run("devices reports none found", func(t *testing.T) {
		reg := newTestRegistry(&tu.MockService{}, nil)

		res, _, _ := reg.handleDevices(context.Background(), nil, noInput{})

		if got := resultText(t, res); got != "No devices found." {
			t.Errorf("unexpected text %q", got)
		}
	})

	t.Run("playlists reports none found without follow-up calls", func(t *testing.T) {
		svc := &tu.MockService{}
		reg := newTestRegistry(svc, nil)

		res, _, _ := reg.handlePlaylists(context.Background(), nil, playlistsInput{})

		if got := resultText(t, res); got != "No playlists found." {
			t.Errorf("unexpected text %q", got)
		}

		if svc.CallCount("playlist-tracks") != 0 {
			t.Error("expected no playlist-track calls for an empty listing")
		}
	})

	t.Run("playlists forwards the default limit", func(t *testing.T) {
		var gotLimit int
		svc := &tu.MockService{
			PlaylistsFunc: func(ctx context.Context, limit int) ([]models.Playlist, error) {
				gotLimit = limit
				return nil, nil
			},
		}
		reg := newTestRegistry(svc, nil)

		reg.handlePlaylists(context.Background(), nil, playlistsInput{})

		if gotLimit != 20 {
			t.Errorf("expected default limit 20, got %d", gotLimit)
		}
	})

	t.Run("playlist tracks reports an empty playlist", func(t *testing.T) {
		var gotLimit int
		svc := &tu.MockService{
			PlaylistTracksFunc: func(ctx context.Context, idOrURI string, limit int) ([]models.Track, error) {
				gotLimit = limit
				return nil, nil
			},
		}
		reg := newTestRegistry(svc, nil)

		res, _, _ := reg.handlePlaylistTracks(context.Background(), nil, playlistTracksInput{PlaylistID: "pl1"})

		if got := resultText(t, res); got != "No tracks found in playlist." {
			t.Errorf("unexpected text %q", got)
		}

		if gotLimit != 50 {
			t.Errorf("expected default limit 50, got %d", gotLimit)
		}
	})
}

func TestPlayPlaylistTool(t *testing.T) {
	svc := &tu.MockService{
		PlayPlaylistFunc: func(ctx context.Context, idOrURI string, shuffle bool) (*models.Playlist, error) {
			return &models.Playlist{ID: idOrURI, Name: "Focus"}, nil
		},
	}
	reg := newTestRegistry(svc, nil)

	t.Run("confirms playback", func(t *testing.T) {
		res, _, _ := reg.handlePlayPlaylist(context.Background(), nil, playPlaylistInput{PlaylistID: "pl1"})

		if got := resultText(t, res); got != "Playing playlist: Focus" {
			t.Errorf("unexpected text %q", got)
		}
	})

	t.Run("notes shuffle", func(t *testing.T) {
		res, _, _ := reg.handlePlayPlaylist(context.Background(), nil, playPlaylistInput{PlaylistID: "pl1", Shuffle: true})

		if got := resultText(t, res); got != "Playing playlist: Focus (shuffle on)" {
			t.Errorf("unexpected text %q", got)
		}
	})
}

func TestSearchAndPlayTool(t *testing.T) {
	t.Run("plays the top result", func(t *testing.T) {
		var played string
		svc := &tu.MockService{
			SearchFunc: func(ctx context.Context, query string, limit int) ([]models.Track, error) {
				if limit != 1 {
					t.Errorf("expected search limit 1, got %d", limit)
				}
				return []models.Track{{Name: "Fairytale", Artist: "Alexander Rybak", URI: "spotify:track:f1"}}, nil
			},
			PlayFunc: func(ctx context.Context, idOrURI string) error {
				played = idOrURI
				return nil
			},
		}
		reg := newTestRegistry(svc, nil)

		res, _, _ := reg.handleSearchAndPlay(context.Background(), nil, searchAndPlayInput{Query: "fairytale"})

		if got := resultText(t, res); got != "Playing: Fairytale by Alexander Rybak" {
			t.Errorf("unexpected text %q", got)
		}

		if played != "spotify:track:f1" {
			t.Errorf("expected the top result's URI to play, got %q", played)
		}
	})

	t.Run("skips playback when nothing matches", func(t *testing.T) {
		svc := &tu.MockService{}
		reg := newTestRegistry(svc, nil)

		res, _, _ := reg.handleSearchAndPlay(context.Background(), nil, searchAndPlayInput{Query: "gibberish"})

		if got := resultText(t, res); got != "No results found for: gibberish" {
			t.Errorf("unexpected text %q", got)
		}

		if svc.CallCount("play") != 0 {
			t.Error("expected no play call for an empty search")
		}
	})
}

func TestFindPlaylistAndPlayTool(t *testing.T) {
	library := []models.Playlist{
		{ID: "pl1", Name: "Summer Roadtrip", URI: "spotify:playlist:pl1"},
		{ID: "pl2", Name: "Chill", URI: "spotify:playlist:pl2"},
	}

	t.Run("plays the first case-insensitive match", func(t *testing.T) {
		var playedID string
		svc := &tu.MockService{
			PlaylistsFunc: func(ctx context.Context, limit int) ([]models.Playlist, error) {
				if limit != 50 {
					t.Errorf("expected listing limit 50, got %d", limit)
				}
				return library, nil
			},
			PlayPlaylistFunc: func(ctx context.Context, idOrURI string, shuffle bool) (*models.Playlist, error) {
				playedID = idOrURI
				return &library[0], nil
			},
		}
		reg := newTestRegistry(svc, nil)

		res, _, _ := reg.handleFindPlaylistAndPlay(context.Background(), nil, findPlaylistInput{Name: "roadtrip"})

		if got := resultText(t, res); got != "Playing playlist: Summer Roadtrip" {
			t.Errorf("unexpected text %q", got)
		}

		if playedID != "pl1" {
			t.Errorf("expected playlist pl1 to play, got %q", playedID)
		}

		if svc.CallCount("play-playlist") != 1 {
			t.Errorf("expected exactly one play call, got %d", svc.CallCount("play-playlist"))
		}
	})

	t.Run("reports when nothing matches", func(t *testing.T) {
		svc := &tu.MockService{
			PlaylistsFunc: func(ctx context.Context, limit int) ([]models.Playlist, error) {
				return library, nil
			},
		}
		reg := newTestRegistry(svc, nil)

		res, _, _ := reg.handleFindPlaylistAndPlay(context.Background(), nil, findPlaylistInput{Name: "gym"})

		if got := resultText(t, res); got != "No playlist found matching: gym" {
			t.Errorf("unexpected text %q", got)
		}

		if svc.CallCount("play-playlist") != 0 {
			t.Error("expected no play call without a match")
		}
	})
}

func TestErrorText(t *testing.T) {
	t.Run("pins the device remediation text", func(t *testing.T) {
		err := fmt.Errorf("%w: Player command failed", shared.ErrNoActiveDevice)

		want := "Error: No active Spotify playback device found. Please open Spotify on a device first."
		if got := errorText(err); got != want {
			t.Errorf("expected %q, got %q", want, got)
		}
	})

	t.Run("describes premium and permission failures", func(t *testing.T) {
		if got := errorText(shared.ErrPremiumRequired); !strings.Contains(got, "Spotify Premium") {
			t.Errorf("expected a premium remediation, got %q", got)
		}

		if got := errorText(shared.ErrMissingPermission); !strings.Contains(got, "REFRESH_TOKEN") {
			t.Errorf("expected a permission remediation, got %q", got)
		}
	})

	t.Run("falls back to the raw message", func(t *testing.T) {
		if got := errorText(errors.New("boom")); got != "Error: boom" {
			t.Errorf("unexpected text %q", got)
		}
	})
}

func TestConfigReport(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	t.Run("healthy user-scoped setup", func(t *testing.T) {
		cfg := shared.DefaultConfig()
		cfg.Credentials.Spotify.ClientID = "id"
		cfg.Credentials.Spotify.ClientSecret = "secret"
		cfg.Credentials.Spotify.RefreshToken = "refresh"

		svc := &tu.MockService{
			DevicesFunc: func(ctx context.Context) ([]models.Device, error) {
				return []models.Device{{ID: "d1", Name: "Kitchen", Active: true}}, nil
			},
		}

		tokens := &tu.MockTokens{
			AccessToken: "tok",
			Scoped:      true,
			Mode:        "refresh_token",
			GrantCount:  2,
			ExpiresAt:   now.Add(30 * time.Minute),
		}

		reg := NewRegistry(RegistryOpts{
			Config:  cfg,
			Service: svc,
			Tokens:  tokens,
			Now:     func() time.Time { return now },
		})

		report := reg.ConfigReport(context.Background())

		for _, want := range []string{
			"CLIENT_ID:     set",
			"CLIENT_SECRET: set",
			"REFRESH_TOKEN: set",
			"Grant mode: refresh_token",
			"Token: OK (expires in 30m0s)",
			"Playback privilege: yes",
			"Active device: yes (Kitchen)",
			"grants:     2",
		} {
			if !strings.Contains(report, want) {
				t.Errorf("expected report to contain %q\n%s", want, report)
			}
		}
	})

	t.Run("reduced mode without a refresh token", func(t *testing.T) {
		tokens := &tu.MockTokens{AccessToken: "tok", Mode: "client_credentials", ExpiresAt: now.Add(time.Hour)}
		reg := NewRegistry(RegistryOpts{
			Config:  shared.DefaultConfig(),
			Service: &tu.MockService{},
			Tokens:  tokens,
			Now:     func() time.Time { return now },
		})

		report := reg.ConfigReport(context.Background())

		for _, want := range []string{
			"REFRESH_TOKEN: not set",
			"client_credentials (reduced capability)",
			"Playback privilege: no",
			"Active device: none found",
		} {
			if !strings.Contains(report, want) {
				t.Errorf("expected report to contain %q\n%s", want, report)
			}
		}
	})

	t.Run("failed grants surface in the token line", func(t *testing.T) {
		tokens := &tu.MockTokens{Err: fmt.Errorf("%w: bad credentials", shared.ErrAuthFailed), Mode: "client_credentials"}
		reg := NewRegistry(RegistryOpts{
			Config:  shared.DefaultConfig(),
			Service: &tu.MockService{},
			Tokens:  tokens,
		})

		report := reg.ConfigReport(context.Background())

		if !strings.Contains(report, "Token: FAILED") {
			t.Errorf("expected a failed token line\n%s", report)
		}
	})

	t.Run("counts calls and failures", func(t *testing.T) {
		svc := &tu.MockService{
			PlayFunc: func(ctx context.Context, idOrURI string) error { return errors.New("boom") },
		}
		tokens := &tu.MockTokens{AccessToken: "tok", Mode: "client_credentials", ExpiresAt: now}
		reg := NewRegistry(RegistryOpts{
			Config:  shared.DefaultConfig(),
			Service: svc,
			Tokens:  tokens,
			Now:     func() time.Time { return now },
		})

		reg.handlePlay(context.Background(), nil, playInput{TrackID: "x"})

		report := reg.ConfigReport(context.Background())

		if !strings.Contains(report, "tool calls: 1") || !strings.Contains(report, "failures:   1") {
			t.Errorf("expected counters in the report\n%s", report)
		}
	})
}
