// Deezer API implementation of [Service]
//
// The Deezer API authenticates via an access_token request parameter rather
// than a bearer header, reports most failures inside 200 responses, and pages
// with index/limit. See https://developers.deezer.com/api
package services

import (
	"context"
	"fmt"
	"io"
	"iter"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/dzx-app/dzx/internal/shared"
)

const (
	deezerBaseURL = "https://api.deezer.com"

	deezerPageSize = 50 // playlist tracks page limit
	deezerAddLimit = 50 // songs per add call, kept equal to the page size
)

// Deezer in-body error codes.
const (
	deezerErrQuota          = 4
	deezerErrOAuth          = 200
	deezerErrTokenInvalid   = 300
	deezerErrDataNotFound   = 800
	deezerErrPermissionDeny = 500
)

type deezerError struct {
	Type    string `json:"type"`
	Message string `json:"message"`
	Code    int    `json:"code"`
}

type deezerArtist struct {
	Name string `json:"name"`
}

type deezerAlbum struct {
	Title string `json:"title"`
}

type deezerTrack struct {
	ID       int64        `json:"id"`
	Title    string       `json:"title"`
	Artist   deezerArtist `json:"artist"`
	Album    deezerAlbum  `json:"album"`
	Duration int          `json:"duration"`
}

type deezerTrackPage struct {
	Data  []deezerTrack `json:"data"`
	Total int           `json:"total"`
	Next  *string       `json:"next"`
	Error *deezerError  `json:"error"`
}

type deezerPlaylist struct {
	ID         int64        `json:"id"`
	Title      string       `json:"title"`
	Desc       string       `json:"description"`
	Public     bool         `json:"public"`
	TrackCount int          `json:"nb_tracks"`
	Error      *deezerError `json:"error"`
}

// DeezerService implements [Service] for the Deezer API.
//
// Public playlist reads work without a token; playlist creation and track
// additions require one.
type DeezerService struct {
	baseURL string
	client  *client
	tokens  TokenProvider
}

// NewDeezerService creates a Deezer client. tokens may be nil for read-only use.
func NewDeezerService(tokens TokenProvider, httpClient *http.Client, cfg shared.HTTPConfig) *DeezerService {
	return &DeezerService{
		baseURL: deezerBaseURL,
		client:  newClient(httpClient, tokens, cfg),
		tokens:  tokens,
	}
}

func (d *DeezerService) Name() string       { return "Deezer" }
func (d *DeezerService) Platform() Platform { return PlatformDeezer }
func (d *DeezerService) MaxBatch() int      { return deezerAddLimit }

// request builds a GET/POST request with query and form values; access_token
// is appended when authed is set, re-read per attempt.
func (d *DeezerService) request(method, endpoint string, query url.Values, form url.Values, authed bool) func(ctx context.Context) (*http.Request, error) {
	return func(ctx context.Context) (*http.Request, error) {
		q := url.Values{}
		for k, vs := range query {
			q[k] = vs
		}

		if authed {
			if d.tokens == nil {
				return nil, fmt.Errorf("%w: Deezer access token required", shared.ErrAuthFailed)
			}
			token, err := d.tokens.Token(ctx)
			if err != nil {
				return nil, fmt.Errorf("%w: %v", shared.ErrAuthFailed, err)
			}
			q.Set("access_token", token.AccessToken)
		}

		apiURL := d.baseURL + endpoint
		if len(q) > 0 {
			apiURL += "?" + q.Encode()
		}

		var body io.Reader
		if form != nil {
			body = strings.NewReader(form.Encode())
		}

		req, err := http.NewRequestWithContext(ctx, method, apiURL, body)
		if err != nil {
			return nil, err
		}
		if form != nil {
			req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		}
		return req, nil
	}
}

// GetPlaylists retrieves the authenticated user's playlists.
func (d *DeezerService) GetPlaylists(ctx context.Context) ([]Playlist, error) {
	var all []Playlist
	index := 0

	for {
		q := url.Values{"limit": {strconv.Itoa(deezerPageSize)}, "index": {strconv.Itoa(index)}}
		var page struct {
			Data  []deezerPlaylist `json:"data"`
			Next  *string          `json:"next"`
			Error *deezerError     `json:"error"`
		}
		if err := d.client.do(ctx, d.request(http.MethodGet, "/user/me/playlists", q, nil, true), &page); err != nil {
			return nil, fmt.Errorf("%w: %v", shared.ErrAPIRequest, err)
		}
		if err := page.Error.toErr(); err != nil {
			return nil, err
		}

		for _, dp := range page.Data {
			all = append(all, Playlist{
				ID:          strconv.FormatInt(dp.ID, 10),
				Name:        dp.Title,
				Description: dp.Desc,
				TrackCount:  dp.TrackCount,
				Public:      dp.Public,
			})
		}

		if page.Next == nil || len(page.Data) == 0 {
			break
		}
		index += len(page.Data)
	}

	return all, nil
}

// GetPlaylist retrieves a playlist's metadata by ID.
func (d *DeezerService) GetPlaylist(ctx context.Context, playlistID string) (*Playlist, error) {
	var dp deezerPlaylist
	endpoint := "/playlist/" + url.PathEscape(playlistID)
	if err := d.client.do(ctx, d.request(http.MethodGet, endpoint, nil, nil, false), &dp); err != nil {
		return nil, mapPlaylistError(err)
	}
	if err := dp.Error.toErr(); err != nil {
		return nil, err
	}

	return &Playlist{
		ID:          strconv.FormatInt(dp.ID, 10),
		Name:        dp.Title,
		Description: dp.Desc,
		TrackCount:  dp.TrackCount,
		Public:      dp.Public,
	}, nil
}

// ListPlaylistTracks pages through /playlist/{id}/tracks lazily.
func (d *DeezerService) ListPlaylistTracks(ctx context.Context, playlistID string) iter.Seq2[Track, error] {
	endpoint := "/playlist/" + url.PathEscape(playlistID) + "/tracks"

	return func(yield func(Track, error) bool) {
		index := 0
		for {
			q := url.Values{"limit": {strconv.Itoa(deezerPageSize)}, "index": {strconv.Itoa(index)}}
			var page deezerTrackPage
			if err := d.client.do(ctx, d.request(http.MethodGet, endpoint, q, nil, false), &page); err != nil {
				yield(Track{}, mapPlaylistError(err))
				return
			}
			if err := page.Error.toErr(); err != nil {
				yield(Track{}, err)
				return
			}

			for _, dt := range page.Data {
				if !yield(toDeezerTrack(dt), nil) {
					return
				}
			}

			if page.Next == nil || len(page.Data) == 0 {
				return
			}
			index += len(page.Data)
		}
	}
}

// SearchTracks queries /search, returning candidates in Deezer ranking order.
func (d *DeezerService) SearchTracks(ctx context.Context, query string) ([]Track, error) {
	q := url.Values{"q": {query}, "limit": {"10"}}
	var page deezerTrackPage
	if err := d.client.do(ctx, d.request(http.MethodGet, "/search", q, nil, false), &page); err != nil {
		return nil, fmt.Errorf("%w: %v", shared.ErrAPIRequest, err)
	}
	if err := page.Error.toErr(); err != nil {
		return nil, err
	}

	tracks := make([]Track, 0, len(page.Data))
	for _, dt := range page.Data {
		tracks = append(tracks, toDeezerTrack(dt))
	}
	return tracks, nil
}

// CreatePlaylist creates a playlist in the authenticated user's library.
func (d *DeezerService) CreatePlaylist(ctx context.Context, name string) (string, error) {
	form := url.Values{"title": {name}}
	var created struct {
		ID    int64        `json:"id"`
		Error *deezerError `json:"error"`
	}
	if err := d.client.do(ctx, d.request(http.MethodPost, "/user/me/playlists", nil, form, true), &created); err != nil {
		return "", fmt.Errorf("%w: failed to create playlist: %v", shared.ErrAPIRequest, err)
	}
	if err := created.Error.toErr(); err != nil {
		return "", err
	}
	if created.ID == 0 {
		return "", fmt.Errorf("%w: create playlist returned no ID", shared.ErrAPIRequest)
	}
	return strconv.FormatInt(created.ID, 10), nil
}

// AddTracks appends one batch of track IDs (max [deezerAddLimit]) to a playlist.
func (d *DeezerService) AddTracks(ctx context.Context, playlistID string, trackIDs []string) error {
	if len(trackIDs) == 0 {
		return nil
	}
	if len(trackIDs) > deezerAddLimit {
		return fmt.Errorf("%w: batch of %d exceeds limit %d", shared.ErrInvalidArgument, len(trackIDs), deezerAddLimit)
	}

	form := url.Values{"songs": {strings.Join(trackIDs, ",")}}
	endpoint := "/playlist/" + url.PathEscape(playlistID) + "/tracks"

	// A successful add returns a bare boolean body.
	var ok any
	if err := d.client.do(ctx, d.request(http.MethodPost, endpoint, nil, form, true), &ok); err != nil {
		return fmt.Errorf("%w: failed to add tracks: %v", shared.ErrAPIRequest, err)
	}
	if m, isMap := ok.(map[string]any); isMap {
		if _, hasErr := m["error"]; hasErr {
			return fmt.Errorf("%w: add tracks rejected", shared.ErrAPIRequest)
		}
	}
	return nil
}

// toErr maps a Deezer in-body error onto the shared taxonomy.
func (e *deezerError) toErr() error {
	if e == nil {
		return nil
	}
	switch e.Code {
	case deezerErrQuota:
		return fmt.Errorf("%w: %s", shared.ErrRateLimited, e.Message)
	case deezerErrOAuth, deezerErrTokenInvalid:
		return fmt.Errorf("%w: %s", shared.ErrAuthFailed, e.Message)
	case deezerErrDataNotFound, deezerErrPermissionDeny:
		return fmt.Errorf("%w: %s", shared.ErrInaccessiblePlaylist, e.Message)
	default:
		return fmt.Errorf("%w: %s (code %d)", shared.ErrAPIRequest, e.Message, e.Code)
	}
}

func toDeezerTrack(dt deezerTrack) Track {
	return Track{
		ID:       strconv.FormatInt(dt.ID, 10),
		Title:    dt.Title,
		Artist:   dt.Artist.Name,
		Album:    dt.Album.Title,
		Duration: dt.Duration,
	}
}
