// package testing contains shared testing utilities
package testing

import (
	"context"
	"errors"
	"io"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/coralsong/spotify-mcp/internal/models"
)

// MockService is a configurable test double for the spotify service
// interface. Each operation records its name and delegates to the
// matching func field; nil fields return empty results.
type MockService struct {
	mu    sync.Mutex
	calls []string

	SearchFunc         func(ctx context.Context, query string, limit int) ([]models.Track, error)
	PlayFunc           func(ctx context.Context, idOrURI string) error
	NowPlayingFunc     func(ctx context.Context) (*models.Playback, error)
	DevicesFunc        func(ctx context.Context) ([]models.Device, error)
	PlaylistsFunc      func(ctx context.Context, limit int) ([]models.Playlist, error)
	PlaylistTracksFunc func(ctx context.Context, idOrURI string, limit int) ([]models.Track, error)
	PlayPlaylistFunc   func(ctx context.Context, idOrURI string, shuffle bool) (*models.Playlist, error)
}

func (m *MockService) record(call string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, call)
}

// Calls returns the operations invoked so far, in order.
func (m *MockService) Calls() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.calls...)
}

// CallCount returns how many times the named operation was invoked.
func (m *MockService) CallCount(name string) int {
	m.mu.Lock()
	defer m.mu.Unlock()

	n := 0
	for _, c := range m.calls {
		if c == name {
			n++
		}
	}
	return n
}

func (m *MockService) Search(ctx context.Context, query string, limit int) ([]models.Track, error) {
	m.record("search")
	if m.SearchFunc != nil {
		return m.SearchFunc(ctx, query, limit)
	}
	return []models.Track{}, nil
}

func (m *MockService) Play(ctx context.Context, idOrURI string) error {
	m.record("play")
	if m.PlayFunc != nil {
		return m.PlayFunc(ctx, idOrURI)
	}
	return nil
}

func (m *MockService) NowPlaying(ctx context.Context) (*models.Playback, error) {
	m.record("now-playing")
	if m.NowPlayingFunc != nil {
		return m.NowPlayingFunc(ctx)
	}
	return nil, nil
}

func (m *MockService) Devices(ctx context.Context) ([]models.Device, error) {
	m.record("devices")
	if m.DevicesFunc != nil {
		return m.DevicesFunc(ctx)
	}
	return []models.Device{}, nil
}

func (m *MockService) Playlists(ctx context.Context, limit int) ([]models.Playlist, error) {
	m.record("playlists")
	if m.PlaylistsFunc != nil {
		return m.PlaylistsFunc(ctx, limit)
	}
	return []models.Playlist{}, nil
}

func (m *MockService) PlaylistTracks(ctx context.Context, idOrURI string, limit int) ([]models.Track, error) {
	m.record("playlist-tracks")
	if m.PlaylistTracksFunc != nil {
		return m.PlaylistTracksFunc(ctx, idOrURI, limit)
	}
	return []models.Track{}, nil
}

func (m *MockService) PlayPlaylist(ctx context.Context, idOrURI string, shuffle bool) (*models.Playlist, error) {
	m.record("play-playlist")
	if m.PlayPlaylistFunc != nil {
		return m.PlayPlaylistFunc(ctx, idOrURI, shuffle)
	}
	return &models.Playlist{ID: idOrURI, Name: idOrURI}, nil
}

// MockTokens is a fixed-value test double for the token status interface.
type MockTokens struct {
	AccessToken string
	Err         error
	Scoped      bool
	Mode        string
	GrantCount  int64
	ExpiresAt   time.Time
}

func (m *MockTokens) Token(ctx context.Context) (string, error) { return m.AccessToken, m.Err }
func (m *MockTokens) UserScoped() bool                          { return m.Scoped }
func (m *MockTokens) GrantMode() string                         { return m.Mode }
func (m *MockTokens) Grants() int64                             { return m.GrantCount }
func (m *MockTokens) Expiry() time.Time                         { return m.ExpiresAt }

// FWriter always returns an error on Write
type FWriter struct{}

func (f *FWriter) Write(p []byte) (n int, err error) {
	return 0, errors.New("write failed")
}

// LimitedWriter fails after a certain number of writes
type LimitedWriter struct {
	maxWrites int
	written   int
	target    io.Writer
}

func (l *LimitedWriter) Write(p []byte) (n int, err error) {
	if l.written >= l.maxWrites {
		return 0, errors.New("write limit exceeded")
	}
	l.written++
	return l.target.Write(p)
}

func NewLimitedWriter(maxWrites, written int, target io.Writer) LimitedWriter {
	return LimitedWriter{maxWrites: maxWrites, written: written, target: target}
}

func AssertFileExists(t *testing.T, path string) {
	t.Helper()
	if _, err := os.Stat(path); os.IsNotExist(err) {
		t.Errorf("File does not exist: %s", path)
	}
}

func MustReadFile(t *testing.T, path string) string {
	t.Helper()
	content, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("Failed to read file %s: %v", path, err)
	}
	return string(content)
}
