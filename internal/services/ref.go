// Playlist reference parsing for user-supplied links and IDs.
//
// Recognized shapes:
//
//	https://open.spotify.com/playlist/{id}
//	spotify:playlist:{id}
//	https://www.deezer.com/playlist/{id}
//	https://deezer.com/{lang}/playlist/{id}
//	https://link.deezer.com/s/{code} (resolved via redirect)
package services

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"regexp"
	"strings"

	"github.com/dzx-app/dzx/internal/shared"
)

var (
	spotifyIDPattern = regexp.MustCompile(`^[0-9A-Za-z]{22}$`)
	deezerIDPattern  = regexp.MustCompile(`^[0-9]+$`)
)

// Ref is a normalized (platform, playlist ID) pair derived from user input.
type Ref struct {
	Platform Platform
	ID       string
	Name     string
}

// RefParser normalizes playlist URLs, URIs, and bare IDs into a [Ref].
//
// The HTTP client is only used to resolve short links; parsing recognized
// shapes never touches the network.
type RefParser struct {
	httpClient *http.Client
}

// NewRefParser creates a RefParser. A nil client falls back to [http.DefaultClient].
func NewRefParser(httpClient *http.Client) *RefParser {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &RefParser{httpClient: httpClient}
}

// Parse normalizes a playlist link into a validated [Ref].
func (p *RefParser) Parse(ctx context.Context, input string) (*Ref, error) {
	input = strings.TrimSpace(input)
	if input == "" {
		return nil, fmt.Errorf("%w: empty playlist link", shared.ErrInvalidInput)
	}

	if id, ok := strings.CutPrefix(input, "spotify:playlist:"); ok {
		return NewRef(PlatformSpotify, id)
	}

	u, err := url.Parse(input)
	if err == nil && u.Host == "" && !strings.Contains(input, "://") {
		// Scheme-less links like "deezer.com/fr/playlist/123" are accepted.
		u, err = url.Parse("https://" + input)
	}
	if err != nil || u.Host == "" {
		return nil, fmt.Errorf("%w: unrecognized playlist link %q", shared.ErrInvalidInput, input)
	}

	host := strings.TrimPrefix(u.Host, "www.")
	switch {
	case host == "link.deezer.com":
		resolved, err := p.resolveShortLink(ctx, input)
		if err != nil {
			return nil, err
		}
		return p.Parse(ctx, resolved)

	case host == "open.spotify.com" || strings.HasSuffix(host, ".spotify.com"):
		id, ok := playlistPathID(u.Path)
		if !ok {
			return nil, fmt.Errorf("%w: no playlist ID in %q", shared.ErrInvalidInput, input)
		}
		return NewRef(PlatformSpotify, id)

	case host == "deezer.com" || strings.HasSuffix(host, ".deezer.com"):
		id, ok := playlistPathID(u.Path)
		if !ok {
			return nil, fmt.Errorf("%w: no playlist ID in %q", shared.ErrInvalidInput, input)
		}
		return NewRef(PlatformDeezer, id)
	}

	return nil, fmt.Errorf("%w: unsupported host %q", shared.ErrInvalidInput, u.Host)
}

// NewRef builds a Ref from an explicit platform and bare ID, validating the
// ID against the platform's known shape before any network use.
func NewRef(platform Platform, id string) (*Ref, error) {
	id = strings.TrimSpace(id)
	switch platform {
	case PlatformSpotify:
		if !spotifyIDPattern.MatchString(id) {
			return nil, fmt.Errorf("%w: %q is not a Spotify playlist ID", shared.ErrInvalidInput, id)
		}
	case PlatformDeezer:
		if !deezerIDPattern.MatchString(id) {
			return nil, fmt.Errorf("%w: %q is not a Deezer playlist ID", shared.ErrInvalidInput, id)
		}
	default:
		return nil, fmt.Errorf("%w: unknown platform %q", shared.ErrInvalidInput, platform)
	}
	return &Ref{Platform: platform, ID: id}, nil
}

// resolveShortLink follows redirects on a short link and returns the final URL.
func (p *RefParser) resolveShortLink(ctx context.Context, shortURL string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodHead, shortURL, nil)
	if err != nil {
		return "", fmt.Errorf("failed to build request: %w", err)
	}

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: failed to resolve short link: %v", shared.ErrNetwork, err)
	}
	defer resp.Body.Close()

	final := resp.Request.URL.String()
	if final == "" || final == shortURL {
		return "", fmt.Errorf("%w: short link did not resolve", shared.ErrInvalidInput)
	}
	return final, nil
}

// playlistPathID extracts the segment following "/playlist/" in a URL path,
// tolerating locale prefixes and trailing query-ish cruft.
func playlistPathID(path string) (string, bool) {
	const marker = "/playlist/"
	idx := strings.Index(path, marker)
	if idx < 0 {
		return "", false
	}
	rest := path[idx+len(marker):]
	if i := strings.IndexAny(rest, "/?"); i >= 0 {
		rest = rest[:i]
	}
	if rest == "" {
		return "", false
	}
	return rest, true
}
