// package services implements the Spotify and Deezer platform clients
package services

import (
	"context"
	"iter"

	"golang.org/x/oauth2"
)

// Platform identifies one of the two streaming services.
type Platform string

const (
	PlatformSpotify Platform = "spotify"
	PlatformDeezer  Platform = "deezer"
)

// Service defines the contract for a streaming platform client.
type Service interface {
	// Name returns the display name of the service (e.g. "Spotify").
	Name() string

	// Platform returns the platform tag for this service.
	Platform() Platform

	// GetPlaylists retrieves all playlists readable by the authenticated user.
	GetPlaylists(ctx context.Context) ([]Playlist, error)

	// GetPlaylist retrieves a playlist's metadata by ID.
	GetPlaylist(ctx context.Context, playlistID string) (*Playlist, error)

	// ListPlaylistTracks returns a lazy sequence over all tracks of a playlist,
	// fetching pages transparently until exhausted. The sequence is finite and
	// restartable: ranging again re-fetches from the first page.
	ListPlaylistTracks(ctx context.Context, playlistID string) iter.Seq2[Track, error]

	// SearchTracks searches the platform catalog and returns candidates best-first.
	SearchTracks(ctx context.Context, query string) ([]Track, error)

	// CreatePlaylist creates a playlist owned by the authenticated user and
	// returns its ID.
	CreatePlaylist(ctx context.Context, name string) (string, error)

	// AddTracks appends one batch of track IDs to a playlist. A batch must not
	// exceed MaxBatch entries.
	AddTracks(ctx context.Context, playlistID string, trackIDs []string) error

	// MaxBatch returns the platform's max-items-per-call limit for AddTracks.
	MaxBatch() int
}

// TokenProvider supplies bearer tokens for a platform client.
//
// Implemented by the auth store; Refresh is called after an HTTP 401 so the
// client can retry once with fresh credentials.
type TokenProvider interface {
	Token(ctx context.Context) (*oauth2.Token, error)
	Refresh(ctx context.Context) (*oauth2.Token, error)
}

// Track represents a music track from either platform. Immutable once fetched.
type Track struct {
	ID       string `json:"id"`
	Title    string `json:"title"`
	Artist   string `json:"artist"`
	Album    string `json:"album,omitempty"`
	Duration int    `json:"duration,omitempty"` // seconds
}

// Playlist represents playlist metadata from either platform.
type Playlist struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	TrackCount  int    `json:"track_count"`
	Public      bool   `json:"public"`
}
