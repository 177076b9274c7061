// package match finds the destination platform's counterpart of a source
// track. Candidates come from the destination's search endpoint; matching is
// a tiered comparison over normalized titles and artists.
package match

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/dzx-app/dzx/internal/services"
	"github.com/dzx-app/dzx/internal/shared"
)

// Confidence grades how a candidate was accepted.
type Confidence string

const (
	// ConfidenceExact means normalized title and artist both matched.
	ConfidenceExact Confidence = "exact"
	// ConfidencePartial means the titles contain one another and the
	// artists share at least one word.
	ConfidencePartial Confidence = "partial"
	// ConfidenceFallback means no candidate passed comparison and the
	// first search result was taken as-is.
	ConfidenceFallback Confidence = "fallback"
	// ConfidenceNone means the search returned nothing.
	ConfidenceNone Confidence = "none"
)

// Result pairs a source track with its accepted counterpart, if any.
type Result struct {
	Source     services.Track  `json:"source"`
	Match      *services.Track `json:"match,omitempty"`
	Confidence Confidence      `json:"confidence"`
}

// Searcher is the slice of the service contract the matcher needs.
type Searcher interface {
	SearchTracks(ctx context.Context, query string) ([]services.Track, error)
}

// Matcher resolves source tracks against one destination platform.
type Matcher struct {
	dest Searcher
}

func NewMatcher(dest Searcher) *Matcher {
	return &Matcher{dest: dest}
}

// Match searches the destination for the track and grades the best candidate.
// A track with no counterpart returns a Result with ConfidenceNone and
// [shared.ErrMatchNotFound]; transport failures are returned as-is.
func (m *Matcher) Match(ctx context.Context, track services.Track) (Result, error) {
	result := Result{Source: track, Confidence: ConfidenceNone}

	query := strings.TrimSpace(Normalize(track.Artist) + " " + Normalize(track.Title))
	if query == "" {
		return result, fmt.Errorf("%w: track %q has no searchable text", shared.ErrMatchNotFound, track.ID)
	}

	candidates, err := m.dest.SearchTracks(ctx, query)
	if err != nil {
		return result, err
	}
	if len(candidates) == 0 {
		return result, fmt.Errorf("%w: no results for %q", shared.ErrMatchNotFound, query)
	}

	wantTitle := Normalize(track.Title)
	wantArtist := Normalize(track.Artist)

	for i, c := range candidates {
		if Normalize(c.Title) == wantTitle && Normalize(c.Artist) == wantArtist {
			result.Match = &candidates[i]
			result.Confidence = ConfidenceExact
			return result, nil
		}
	}

	for i, c := range candidates {
		if partialMatch(wantTitle, wantArtist, c) {
			result.Match = &candidates[i]
			result.Confidence = ConfidencePartial
			return result, nil
		}
	}

	result.Match = &candidates[0]
	result.Confidence = ConfidenceFallback
	return result, nil
}

// partialMatch accepts a candidate whose normalized title contains (or is
// contained by) the wanted title, provided the artists share at least one
// word. Substring containment alone is too loose: "Love" would match every
// track with "love" in its name.
func partialMatch(wantTitle, wantArtist string, c services.Track) bool {
	haveTitle := Normalize(c.Title)
	if haveTitle == "" || wantTitle == "" {
		return false
	}
	if !strings.Contains(haveTitle, wantTitle) && !strings.Contains(wantTitle, haveTitle) {
		return false
	}
	return tokenOverlap(wantArtist, Normalize(c.Artist)) > 0
}

// IsNotFound reports whether the error marks a track with no counterpart, as
// opposed to a transport or auth failure.
func IsNotFound(err error) bool {
	return errors.Is(err, shared.ErrMatchNotFound)
}
