package auth

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/spotify"

	"github.com/dzx-app/dzx/internal/server"
	"github.com/dzx-app/dzx/internal/services"
	"github.com/dzx-app/dzx/internal/shared"
)

// Store owns the OAuth token lifecycle for every platform: it serves cached
// tokens, refreshes them silently when the platform supports refresh, and
// drives the interactive browser flow when no usable token exists.
type Store struct {
	cfg        *shared.Config
	cache      *TokenCache
	logger     *log.Logger
	httpClient *http.Client

	spotify *oauth2.Config
	deezer  *deezerExchanger

	// Browser opens the authorization URL during interactive flows. Tests
	// replace it to avoid launching a real browser.
	Browser func(url string) error

	mu     sync.Mutex
	tokens map[services.Platform]*oauth2.Token
}

// NewStore builds a Store from configuration, priming its in-memory token map
// from the on-disk cache.
func NewStore(cfg *shared.Config, cache *TokenCache, logger *log.Logger, httpClient *http.Client) (*Store, error) {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}

	tokens, err := cache.Load()
	if err != nil {
		return nil, err
	}

	s := &Store{
		cfg:        cfg,
		cache:      cache,
		logger:     logger,
		httpClient: httpClient,
		spotify: &oauth2.Config{
			ClientID:     cfg.Credentials.Spotify.ClientID,
			ClientSecret: cfg.Credentials.Spotify.ClientSecret,
			RedirectURL:  cfg.Credentials.Spotify.RedirectURI,
			Endpoint:     spotify.Endpoint,
			Scopes: []string{
				"playlist-read-private",
				"playlist-read-collaborative",
				"playlist-modify-public",
				"playlist-modify-private",
			},
		},
		deezer:  newDeezerExchanger(cfg.Credentials.Deezer.AppID, cfg.Credentials.Deezer.AppSecret, httpClient),
		Browser: shared.OpenBrowser,
		tokens:  tokens,
	}
	return s, nil
}

func (s *Store) timeout() time.Duration {
	return time.Duration(s.cfg.Auth.TimeoutSeconds) * time.Second
}

// Token returns a usable access token for the platform. Expired Spotify
// tokens are refreshed silently; an expired Deezer token (which carries no
// refresh token) surfaces [shared.ErrTokenExpired] so the caller can
// re-authorize.
func (s *Store) Token(ctx context.Context, platform services.Platform) (*oauth2.Token, error) {
	s.mu.Lock()
	token := s.tokens[platform]
	s.mu.Unlock()

	if token == nil {
		return nil, fmt.Errorf("%w: no %s token in cache (run `dzx auth %s`)",
			shared.ErrAuthFailed, platform, platform)
	}
	if token.Valid() {
		return token, nil
	}

	if platform == services.PlatformSpotify && token.RefreshToken != "" {
		return s.refreshSpotify(ctx, token)
	}
	return nil, fmt.Errorf("%w: %s token expired and cannot be refreshed (run `dzx auth %s`)",
		shared.ErrTokenExpired, platform, platform)
}

// Refresh forces a token refresh regardless of expiry. Platform clients call
// it after a 401 so that a revoked-but-unexpired token gets one chance to
// recover.
func (s *Store) Refresh(ctx context.Context, platform services.Platform) (*oauth2.Token, error) {
	s.mu.Lock()
	token := s.tokens[platform]
	s.mu.Unlock()

	if token == nil {
		return nil, fmt.Errorf("%w: no %s token to refresh", shared.ErrAuthFailed, platform)
	}

	if platform != services.PlatformSpotify || token.RefreshToken == "" {
		return nil, fmt.Errorf("%w: %s grants no refresh token", shared.ErrNoRefreshToken, platform)
	}

	// Zero the expiry so the oauth2 token source performs a real refresh
	// rather than returning the cached access token.
	stale := &oauth2.Token{RefreshToken: token.RefreshToken}
	return s.refreshSpotify(ctx, stale)
}

func (s *Store) refreshSpotify(ctx context.Context, token *oauth2.Token) (*oauth2.Token, error) {
	ctx = context.WithValue(ctx, oauth2.HTTPClient, s.httpClient)

	fresh, err := s.spotify.TokenSource(ctx, token).Token()
	if err != nil {
		return nil, fmt.Errorf("%w: spotify refresh failed: %v", shared.ErrAuthFailed, err)
	}

	// Spotify omits the refresh token from refresh responses; carry the old
	// one forward so the next refresh still works.
	if fresh.RefreshToken == "" {
		fresh.RefreshToken = token.RefreshToken
	}

	if err := s.save(services.PlatformSpotify, fresh); err != nil {
		return nil, err
	}

	s.logger.Debug("refreshed spotify token", "expiry", fresh.Expiry)
	return fresh, nil
}

// Authorize runs the interactive authorization flow: it starts the local
// callback listener, opens the platform's consent page in a browser, and
// waits for the redirect. The flow is abandoned after the configured timeout
// with [shared.ErrAuthTimeout]; nothing is written to the cache in that case.
func (s *Store) Authorize(ctx context.Context, platform services.Platform) (*oauth2.Token, error) {
	if err := s.checkCredentials(platform); err != nil {
		return nil, err
	}

	state := shared.GenerateID()
	authURL, callbackPath, err := s.flowURLs(platform, state)
	if err != nil {
		return nil, err
	}

	var exchange server.Exchanger
	switch platform {
	case services.PlatformSpotify:
		exchange = s.spotify
	case services.PlatformDeezer:
		exchange = s.deezer
	default:
		return nil, fmt.Errorf("%w: unknown platform %q", shared.ErrInvalidArgument, platform)
	}

	handler := server.NewCallbackHandler(exchange, state)
	addr := fmt.Sprintf("%s:%d", s.cfg.Auth.CallbackHost, s.cfg.Auth.CallbackPort)

	srv, srvErrs := server.Start(addr, map[string]http.Handler{callbackPath: handler})
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		srv.Shutdown(shutdownCtx)
	}()

	s.logger.Info("opening browser for authorization", "platform", platform)
	if err := s.Browser(authURL); err != nil {
		s.logger.Warn("could not open browser; visit the URL manually", "url", authURL)
	}

	timer := time.NewTimer(s.timeout())
	defer timer.Stop()

	select {
	case res := <-handler.Result():
		if res.Err != nil {
			return nil, fmt.Errorf("%w: %v", shared.ErrAuthFailed, res.Err)
		}
		if err := s.save(platform, res.Token); err != nil {
			return nil, err
		}
		s.logger.Info("authorization complete", "platform", platform)
		return res.Token, nil
	case err := <-srvErrs:
		return nil, fmt.Errorf("callback listener failed: %w", err)
	case <-timer.C:
		return nil, fmt.Errorf("%w: no callback received within %s", shared.ErrAuthTimeout, s.timeout())
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// AuthURL returns the consent page URL for the platform with a fresh state
// parameter. Meant for environments where opening a browser is not possible;
// pair it with [Store.SetToken] to install the resulting token manually.
func (s *Store) AuthURL(platform services.Platform) (string, error) {
	if err := s.checkCredentials(platform); err != nil {
		return "", err
	}

	authURL, _, err := s.flowURLs(platform, shared.GenerateID())
	return authURL, err
}

// SetToken installs a manually obtained access token for the platform.
// expiresIn of zero marks a non-expiring token.
func (s *Store) SetToken(platform services.Platform, accessToken string, expiresIn time.Duration) error {
	if accessToken == "" {
		return fmt.Errorf("%w: empty access token", shared.ErrInvalidInput)
	}

	token := &oauth2.Token{AccessToken: accessToken}
	if expiresIn > 0 {
		token.Expiry = time.Now().Add(expiresIn)
	}
	return s.save(platform, token)
}

// Logout discards the platform's token from memory and disk.
func (s *Store) Logout(platform services.Platform) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.tokens, platform)
	return s.cache.Save(s.tokens)
}

// Provider returns the per-platform adapter the services layer expects.
func (s *Store) Provider(platform services.Platform) services.TokenProvider {
	return &provider{store: s, platform: platform}
}

func (s *Store) save(platform services.Platform, token *oauth2.Token) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.tokens[platform] = token
	if err := s.cache.Save(s.tokens); err != nil {
		return fmt.Errorf("failed to persist tokens: %w", err)
	}
	return nil
}

func (s *Store) checkCredentials(platform services.Platform) error {
	switch platform {
	case services.PlatformSpotify:
		if s.cfg.Credentials.Spotify.ClientID == "" || s.cfg.Credentials.Spotify.ClientSecret == "" {
			return fmt.Errorf("%w: spotify client_id/client_secret not configured", shared.ErrMissingCredentials)
		}
	case services.PlatformDeezer:
		if s.cfg.Credentials.Deezer.AppID == "" || s.cfg.Credentials.Deezer.AppSecret == "" {
			return fmt.Errorf("%w: deezer app_id/app_secret not configured", shared.ErrMissingCredentials)
		}
	}
	return nil
}

// flowURLs derives the consent URL and the local callback path for the
// platform's configured redirect URI.
func (s *Store) flowURLs(platform services.Platform, state string) (authURL, callbackPath string, err error) {
	var redirect string
	switch platform {
	case services.PlatformSpotify:
		redirect = s.cfg.Credentials.Spotify.RedirectURI
		authURL = s.spotify.AuthCodeURL(state)
	case services.PlatformDeezer:
		redirect = s.cfg.Credentials.Deezer.RedirectURI
		authURL = deezerAuthCodeURL(s.cfg.Credentials.Deezer.AppID, redirect, state)
	default:
		return "", "", fmt.Errorf("%w: unknown platform %q", shared.ErrInvalidArgument, platform)
	}

	u, err := url.Parse(redirect)
	if err != nil || u.Path == "" {
		return "", "", fmt.Errorf("%w: malformed redirect URI %q", shared.ErrInvalidConfig, redirect)
	}
	return authURL, u.Path, nil
}

// provider adapts the store to a single platform for the request layer.
type provider struct {
	store    *Store
	platform services.Platform
}

func (p *provider) Token(ctx context.Context) (*oauth2.Token, error) {
	return p.store.Token(ctx, p.platform)
}

func (p *provider) Refresh(ctx context.Context) (*oauth2.Token, error) {
	return p.store.Refresh(ctx, p.platform)
}
