// package testing contains shared testing utilities
package testing

import (
	"context"
	"errors"
	"fmt"
	"iter"
	"net/http"
	"os"
	"testing"

	"github.com/dzx-app/dzx/internal/services"
)

// MockService is a configurable test double for [services.Service].
type MockService struct {
	ServiceName  string
	PlatformName services.Platform

	Playlists     []services.Playlist
	Tracks        []services.Track
	SearchResults map[string][]services.Track
	CreatedID     string
	BatchLimit    int

	PlaylistErr error
	SearchErr   error
	CreateErr   error
	AddErr      error
	// AddFailures counts how many AddTracks calls fail before succeeding.
	AddFailures int

	SearchQueries []string
	AddCalls      [][]string
	CreatedNames  []string
}

func (m *MockService) Name() string { return m.ServiceName }

func (m *MockService) Platform() services.Platform { return m.PlatformName }

func (m *MockService) GetPlaylists(ctx context.Context) ([]services.Playlist, error) {
	return m.Playlists, m.PlaylistErr
}

func (m *MockService) GetPlaylist(ctx context.Context, playlistID string) (*services.Playlist, error) {
	if m.PlaylistErr != nil {
		return nil, m.PlaylistErr
	}
	for i := range m.Playlists {
		if m.Playlists[i].ID == playlistID {
			return &m.Playlists[i], nil
		}
	}
	return &services.Playlist{ID: playlistID, Name: "playlist " + playlistID, TrackCount: len(m.Tracks)}, nil
}

func (m *MockService) ListPlaylistTracks(ctx context.Context, playlistID string) iter.Seq2[services.Track, error] {
	return func(yield func(services.Track, error) bool) {
		if m.PlaylistErr != nil {
			yield(services.Track{}, m.PlaylistErr)
			return
		}
		for _, t := range m.Tracks {
			if !yield(t, nil) {
				return
			}
		}
	}
}

func (m *MockService) SearchTracks(ctx context.Context, query string) ([]services.Track, error) {
	m.SearchQueries = append(m.SearchQueries, query)
	if m.SearchErr != nil {
		return nil, m.SearchErr
	}
	return m.SearchResults[query], nil
}

func (m *MockService) CreatePlaylist(ctx context.Context, name string) (string, error) {
	if m.CreateErr != nil {
		return "", m.CreateErr
	}
	m.CreatedNames = append(m.CreatedNames, name)
	if m.CreatedID != "" {
		return m.CreatedID, nil
	}
	return fmt.Sprintf("created-%d", len(m.CreatedNames)), nil
}

func (m *MockService) AddTracks(ctx context.Context, playlistID string, trackIDs []string) error {
	m.AddCalls = append(m.AddCalls, trackIDs)
	if m.AddFailures > 0 {
		m.AddFailures--
		return errors.New("add failed")
	}
	return m.AddErr
}

func (m *MockService) MaxBatch() int {
	if m.BatchLimit > 0 {
		return m.BatchLimit
	}
	return 100
}

// FWriter always returns an error on Write
type FWriter struct{}

func (f *FWriter) Write(p []byte) (n int, err error) {
	return 0, errors.New("write failed")
}

// MockRoundTripper allows custom HTTP responses for testing
type MockRoundTripper struct {
	response *http.Response
	err      error
}

func NewMockRoundTripper(r *http.Response, e error) *MockRoundTripper {
	return &MockRoundTripper{response: r, err: e}
}

func (m *MockRoundTripper) RoundTrip(*http.Request) (*http.Response, error) {
	return m.response, m.err
}

func AssertFileExists(t *testing.T, path string) {
	t.Helper()
	if _, err := os.Stat(path); os.IsNotExist(err) {
		t.Errorf("File does not exist: %s", path)
	}
}

func AssertNoFile(t *testing.T, path string) {
	t.Helper()
	if _, err := os.Stat(path); err == nil {
		t.Errorf("File should not exist: %s", path)
	}
}
