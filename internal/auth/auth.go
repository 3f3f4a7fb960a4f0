package auth

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/charmbracelet/log"
	"github.com/coralsong/spotify-mcp/internal/shared"
	"golang.org/x/oauth2"
)

const (
	spotifyAuthURL  = "https://accounts.spotify.com/authorize"
	spotifyTokenURL = "https://accounts.spotify.com/api/token"

	// expiryMargin is applied twice: subtracted from the granted lifetime
	// when the deadline is recorded, and again when the deadline is checked.
	expiryMargin = 60 * time.Second
)

// Scopes requested during browser authorization. Playback control and
// private playlist access both ride on the refresh token these produce.
var Scopes = []string{
	"user-read-playback-state",
	"user-modify-playback-state",
	"user-read-currently-playing",
	"playlist-read-private",
	"playlist-read-collaborative",
}

// OAuthConfig builds the oauth2 configuration for the browser
// authorization-code flow.
func OAuthConfig(creds shared.SpotifyConfig) *oauth2.Config {
	return &oauth2.Config{
		ClientID:     creds.ClientID,
		ClientSecret: creds.ClientSecret,
		RedirectURL:  creds.RedirectURI,
		Scopes:       Scopes,
		Endpoint: oauth2.Endpoint{
			AuthURL:  spotifyAuthURL,
			TokenURL: spotifyTokenURL,
		},
	}
}

// Manager tracks the current access token and re-mints it before expiry.
//
// The zero state holds no token, so the first [Manager.Token] call always
// performs a grant. Credentials are immutable for the process lifetime; a
// rotated refresh token in a grant response is ignored.
type Manager struct {
	creds    shared.SpotifyConfig
	client   *http.Client
	logger   *log.Logger
	tokenURL string
	now      func() time.Time

	mu          sync.Mutex
	accessToken string
	expiresAt   time.Time

	grants atomic.Int64
}

// ManagerOpts configures a [Manager]. Zero fields fall back to defaults.
type ManagerOpts struct {
	Credentials shared.SpotifyConfig
	HTTPClient  *http.Client
	Logger      *log.Logger
	TokenURL    string           // defaults to the Spotify accounts endpoint
	Now         func() time.Time // defaults to time.Now
}

// NewManager creates a new Manager with the provided options.
func NewManager(opts ManagerOpts) *Manager {
	if opts.HTTPClient == nil {
		opts.HTTPClient = &http.Client{Timeout: 30 * time.Second}
	}
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}
	if opts.TokenURL == "" {
		opts.TokenURL = spotifyTokenURL
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}

	return &Manager{
		creds:    opts.Credentials,
		client:   opts.HTTPClient,
		logger:   opts.Logger,
		tokenURL: opts.TokenURL,
		now:      opts.Now,
	}
}

// Token returns an access token valid for the immediately following request.
//
// The cached token is reused while it has more than sixty seconds of
// validity left; otherwise exactly one grant runs for this call. The grant
// flow is chosen per attempt, and a failed refresh never falls back to the
// client-credentials grant.
func (m *Manager) Token(ctx context.Context) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	if m.accessToken != "" && now.Before(m.expiresAt.Add(-expiryMargin)) {
		return m.accessToken, nil
	}

	grant, err := m.requestToken(ctx)
	if err != nil {
		return "", fmt.Errorf("%w: %v", shared.ErrAuthFailed, err)
	}

	m.accessToken = grant.AccessToken
	m.expiresAt = now.Add(time.Duration(grant.ExpiresIn)*time.Second - expiryMargin)
	m.grants.Add(1)

	m.logger.Debug("access token granted", "mode", m.GrantMode(), "expires_in", grant.ExpiresIn)

	return m.accessToken, nil
}

// grantResponse is the token endpoint's success payload.
type grantResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int    `json:"expires_in"`
	Scope       string `json:"scope"`
}

// requestToken performs one POST against the token endpoint using the flow
// implied by the configured credentials. Callers hold m.mu.
func (m *Manager) requestToken(ctx context.Context) (*grantResponse, error) {
	if m.creds.ClientID == "" || m.creds.ClientSecret == "" {
		return nil, fmt.Errorf("%w: client id and secret are required", shared.ErrMissingCredentials)
	}

	form := url.Values{}
	if m.creds.RefreshToken != "" {
		form.Set("grant_type", "refresh_token")
		form.Set("refresh_token", m.creds.RefreshToken)
	} else {
		form.Set("grant_type", "client_credentials")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, m.tokenURL, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, fmt.Errorf("failed to create token request: %w", err)
	}

	req.SetBasicAuth(m.creds.ClientID, m.creds.ClientSecret)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := m.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("token request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, fmt.Errorf("token endpoint returned status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var grant grantResponse
	if err := json.NewDecoder(resp.Body).Decode(&grant); err != nil {
		return nil, fmt.Errorf("failed to decode token response: %w", err)
	}

	if grant.AccessToken == "" {
		return nil, fmt.Errorf("token response contained no access token")
	}

	return &grant, nil
}

// UserScoped reports whether a refresh credential is configured, meaning
// grants carry the full user scopes including playback control.
func (m *Manager) UserScoped() bool {
	return m.creds.RefreshToken != ""
}

// GrantMode names the flow the next grant will use.
func (m *Manager) GrantMode() string {
	if m.UserScoped() {
		return "refresh_token"
	}
	return "client_credentials"
}

// Grants returns the number of successful grants performed so far.
func (m *Manager) Grants() int64 {
	return m.grants.Load()
}

// Expiry returns the recorded deadline of the current token, or the zero
// time when no token has been granted yet.
func (m *Manager) Expiry() time.Time {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.expiresAt
}
