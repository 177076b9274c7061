// Spotify API implementation of [Service]
//
// Response types follow https://developer.spotify.com/documentation/web-api/reference/
package services

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"iter"
	"net/http"
	"net/url"

	"github.com/dzx-app/dzx/internal/shared"
)

const (
	spotifyBaseURL = "https://api.spotify.com/v1"

	spotifyPageSize = 100 // playlist tracks page limit
	spotifyAddLimit = 100 // max track URIs per add call
)

type spotifyArtist struct {
	Name string `json:"name"`
}

type spotifyAlbum struct {
	Name string `json:"name"`
}

type spotifyTrack struct {
	ID         string          `json:"id"`
	Name       string          `json:"name"`
	Artists    []spotifyArtist `json:"artists"`
	Album      spotifyAlbum    `json:"album"`
	DurationMS int             `json:"duration_ms"`
	Type       string          `json:"type"`
}

type spotifyPlaylistTrack struct {
	Track spotifyTrack `json:"track"`
}

type spotifyTrackPage struct {
	Items  []spotifyPlaylistTrack `json:"items"`
	Total  int                    `json:"total"`
	Limit  int                    `json:"limit"`
	Offset int                    `json:"offset"`
	Next   *string                `json:"next"`
}

type spotifyPlaylist struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Public      bool   `json:"public"`
	Tracks      struct {
		Total int `json:"total"`
	} `json:"tracks"`
}

type spotifyPlaylistPage struct {
	Items  []spotifyPlaylist `json:"items"`
	Total  int               `json:"total"`
	Offset int               `json:"offset"`
	Next   *string           `json:"next"`
}

// SpotifyService implements [Service] for the Spotify Web API.
type SpotifyService struct {
	baseURL string
	client  *client
	tokens  TokenProvider

	userID string // cached after the first /me call
}

// NewSpotifyService creates a Spotify client. Tokens come from the provider on
// every request; pacing and retry behavior follow cfg.
func NewSpotifyService(tokens TokenProvider, httpClient *http.Client, cfg shared.HTTPConfig) *SpotifyService {
	return &SpotifyService{
		baseURL: spotifyBaseURL,
		client:  newClient(httpClient, tokens, cfg),
		tokens:  tokens,
	}
}

func (s *SpotifyService) Name() string       { return "Spotify" }
func (s *SpotifyService) Platform() Platform { return PlatformSpotify }
func (s *SpotifyService) MaxBatch() int      { return spotifyAddLimit }

// request builds a bearer-authenticated request; invoked per retry attempt so
// refreshed tokens are picked up.
func (s *SpotifyService) request(method, endpoint string, body []byte) func(ctx context.Context) (*http.Request, error) {
	return func(ctx context.Context) (*http.Request, error) {
		var rd io.Reader
		if body != nil {
			rd = bytes.NewReader(body)
		}

		req, err := http.NewRequestWithContext(ctx, method, s.baseURL+endpoint, rd)
		if err != nil {
			return nil, err
		}

		token, err := s.tokens.Token(ctx)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", shared.ErrAuthFailed, err)
		}
		req.Header.Set("Authorization", "Bearer "+token.AccessToken)
		req.Header.Set("Content-Type", "application/json")
		return req, nil
	}
}

// GetPlaylists retrieves all playlists readable by the authenticated user.
func (s *SpotifyService) GetPlaylists(ctx context.Context) ([]Playlist, error) {
	var all []Playlist
	offset := 0

	for {
		endpoint := fmt.Sprintf("/me/playlists?limit=50&offset=%d", offset)
		var page spotifyPlaylistPage
		if err := s.client.do(ctx, s.request(http.MethodGet, endpoint, nil), &page); err != nil {
			return nil, fmt.Errorf("%w: %v", shared.ErrAPIRequest, err)
		}

		for _, sp := range page.Items {
			all = append(all, Playlist{
				ID:          sp.ID,
				Name:        sp.Name,
				Description: sp.Description,
				TrackCount:  sp.Tracks.Total,
				Public:      sp.Public,
			})
		}

		if page.Next == nil || len(page.Items) == 0 {
			break
		}
		offset += len(page.Items)
	}

	return all, nil
}

// GetPlaylist retrieves a playlist's metadata by ID.
func (s *SpotifyService) GetPlaylist(ctx context.Context, playlistID string) (*Playlist, error) {
	var sp spotifyPlaylist
	endpoint := fmt.Sprintf("/playlists/%s?fields=id,name,description,public,tracks.total", playlistID)
	if err := s.client.do(ctx, s.request(http.MethodGet, endpoint, nil), &sp); err != nil {
		return nil, mapPlaylistError(err)
	}

	return &Playlist{
		ID:          sp.ID,
		Name:        sp.Name,
		Description: sp.Description,
		TrackCount:  sp.Tracks.Total,
		Public:      sp.Public,
	}, nil
}

// ListPlaylistTracks pages through /playlists/{id}/tracks lazily.
func (s *SpotifyService) ListPlaylistTracks(ctx context.Context, playlistID string) iter.Seq2[Track, error] {
	return func(yield func(Track, error) bool) {
		offset := 0
		for {
			endpoint := fmt.Sprintf("/playlists/%s/tracks?limit=%d&offset=%d", playlistID, spotifyPageSize, offset)
			var page spotifyTrackPage
			if err := s.client.do(ctx, s.request(http.MethodGet, endpoint, nil), &page); err != nil {
				yield(Track{}, mapPlaylistError(err))
				return
			}

			for _, item := range page.Items {
				// Local files and episodes carry no usable ID.
				if item.Track.ID == "" {
					continue
				}
				if !yield(s.toTrack(item.Track), nil) {
					return
				}
			}

			if page.Next == nil || len(page.Items) == 0 {
				return
			}
			offset += len(page.Items)
		}
	}
}

// SearchTracks queries the catalog, returning candidates in API order.
func (s *SpotifyService) SearchTracks(ctx context.Context, query string) ([]Track, error) {
	endpoint := fmt.Sprintf("/search?type=track&limit=10&q=%s", url.QueryEscape(query))

	var resp struct {
		Tracks struct {
			Items []spotifyTrack `json:"items"`
		} `json:"tracks"`
	}
	if err := s.client.do(ctx, s.request(http.MethodGet, endpoint, nil), &resp); err != nil {
		return nil, fmt.Errorf("%w: %v", shared.ErrAPIRequest, err)
	}

	tracks := make([]Track, 0, len(resp.Tracks.Items))
	for _, st := range resp.Tracks.Items {
		tracks = append(tracks, s.toTrack(st))
	}
	return tracks, nil
}

// CreatePlaylist creates a private playlist owned by the current user.
func (s *SpotifyService) CreatePlaylist(ctx context.Context, name string) (string, error) {
	userID, err := s.currentUserID(ctx)
	if err != nil {
		return "", err
	}

	body, err := json.Marshal(map[string]any{
		"name":   name,
		"public": false,
	})
	if err != nil {
		return "", fmt.Errorf("failed to marshal create request: %w", err)
	}

	var created struct {
		ID string `json:"id"`
	}
	endpoint := fmt.Sprintf("/users/%s/playlists", url.PathEscape(userID))
	if err := s.client.do(ctx, s.request(http.MethodPost, endpoint, body), &created); err != nil {
		return "", fmt.Errorf("%w: failed to create playlist: %v", shared.ErrAPIRequest, err)
	}
	if created.ID == "" {
		return "", fmt.Errorf("%w: create playlist returned no ID", shared.ErrAPIRequest)
	}
	return created.ID, nil
}

// AddTracks appends one batch of track IDs (max [spotifyAddLimit]) to a playlist.
func (s *SpotifyService) AddTracks(ctx context.Context, playlistID string, trackIDs []string) error {
	if len(trackIDs) == 0 {
		return nil
	}
	if len(trackIDs) > spotifyAddLimit {
		return fmt.Errorf("%w: batch of %d exceeds limit %d", shared.ErrInvalidArgument, len(trackIDs), spotifyAddLimit)
	}

	uris := make([]string, len(trackIDs))
	for i, id := range trackIDs {
		uris[i] = "spotify:track:" + id
	}

	body, err := json.Marshal(map[string]any{"uris": uris})
	if err != nil {
		return fmt.Errorf("failed to marshal add request: %w", err)
	}

	endpoint := fmt.Sprintf("/playlists/%s/tracks", playlistID)
	if err := s.client.do(ctx, s.request(http.MethodPost, endpoint, body), nil); err != nil {
		return fmt.Errorf("%w: failed to add tracks: %v", shared.ErrAPIRequest, err)
	}
	return nil
}

func (s *SpotifyService) currentUserID(ctx context.Context) (string, error) {
	if s.userID != "" {
		return s.userID, nil
	}

	var user struct {
		ID string `json:"id"`
	}
	if err := s.client.do(ctx, s.request(http.MethodGet, "/me", nil), &user); err != nil {
		return "", fmt.Errorf("%w: %v", shared.ErrAPIRequest, err)
	}
	if user.ID == "" {
		return "", fmt.Errorf("%w: /me returned no user ID", shared.ErrAPIRequest)
	}
	s.userID = user.ID
	return s.userID, nil
}

func (s *SpotifyService) toTrack(st spotifyTrack) Track {
	track := Track{
		ID:       st.ID,
		Title:    st.Name,
		Album:    st.Album.Name,
		Duration: st.DurationMS / 1000,
	}
	if len(st.Artists) > 0 {
		track.Artist = st.Artists[0].Name
	}
	return track
}

// mapPlaylistError converts 403/404 on playlist reads into the shared
// inaccessible-playlist sentinel.
func mapPlaylistError(err error) error {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		if apiErr.Status == http.StatusForbidden || apiErr.Status == http.StatusNotFound {
			return fmt.Errorf("%w: status %d", shared.ErrInaccessiblePlaylist, apiErr.Status)
		}
	}
	return err
}
