// package tasks orchestrates a full playlist conversion: fetch from the
// source platform, match every track against the destination, create the
// destination playlist, and add the matched tracks in batches.
package tasks

import (
	"context"
	"fmt"
	"time"

	"github.com/charmbracelet/log"

	"github.com/dzx-app/dzx/internal/match"
	"github.com/dzx-app/dzx/internal/services"
	"github.com/dzx-app/dzx/internal/shared"
)

// State tracks where a conversion is in its lifecycle. Transitions are
// linear; Failed is reachable from every state before Done.
type State int

const (
	StateIdle State = iota
	StateFetching
	StateMatching
	StateCreatingDestination
	StateAddingTracks
	StateDone
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateFetching:
		return "fetching"
	case StateMatching:
		return "matching"
	case StateCreatingDestination:
		return "creating destination"
	case StateAddingTracks:
		return "adding tracks"
	case StateDone:
		return "done"
	case StateFailed:
		return "failed"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// ConversionResult is the full outcome of one conversion run. Unmatched and
// FailedAdds record partial failures; a run that added at least some tracks
// still finishes in StateDone.
type ConversionResult struct {
	State          State             `json:"state"`
	SourceRef      services.Ref      `json:"source_ref"`
	SourceName     string            `json:"source_name"`
	DestPlatform   services.Platform `json:"dest_platform"`
	DestPlaylistID string            `json:"dest_playlist_id,omitempty"`
	DestName       string            `json:"dest_name,omitempty"`

	Matches    []match.Result   `json:"matches"`
	Unmatched  []services.Track `json:"unmatched"`
	FailedAdds []services.Track `json:"failed_adds,omitempty"`

	TotalTracks int `json:"total_tracks"`
	AddedCount  int `json:"added_count"`
}

// Converter runs conversions from one source service to one destination.
type Converter struct {
	source  services.Service
	dest    services.Service
	matcher *match.Matcher
	logger  *log.Logger
}

func NewConverter(source, dest services.Service, logger *log.Logger) *Converter {
	return &Converter{
		source:  source,
		dest:    dest,
		matcher: match.NewMatcher(dest),
		logger:  logger,
	}
}

// Run converts the referenced playlist. destName overrides the generated
// destination playlist name when non-empty. Progress updates are emitted on
// progress if it is non-nil; sends never block.
//
// The returned result is meaningful even when err is non-nil: its State and
// populated fields show how far the run got.
func (c *Converter) Run(ctx context.Context, progress chan<- ProgressUpdate, ref services.Ref, destName string) (*ConversionResult, error) {
	result := &ConversionResult{
		State:        StateIdle,
		SourceRef:    ref,
		DestPlatform: c.dest.Platform(),
	}

	tracks, err := c.fetch(ctx, progress, ref, result)
	if err != nil {
		result.State = StateFailed
		return result, err
	}

	if err := c.matchAll(ctx, progress, tracks, result); err != nil {
		result.State = StateFailed
		return result, err
	}

	if err := c.createDestination(ctx, progress, destName, result); err != nil {
		result.State = StateFailed
		return result, err
	}

	if err := c.addAll(ctx, progress, result); err != nil {
		result.State = StateFailed
		return result, err
	}

	result.State = StateDone
	sendProgress(progress, ProgressUpdate{
		Phase:   PhaseDone,
		Message: fmt.Sprintf("added %d of %d tracks to %q", result.AddedCount, result.TotalTracks, result.DestName),
	})
	return result, nil
}

func (c *Converter) fetch(ctx context.Context, progress chan<- ProgressUpdate, ref services.Ref, result *ConversionResult) ([]services.Track, error) {
	result.State = StateFetching

	playlist, err := c.source.GetPlaylist(ctx, ref.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch source playlist: %w", err)
	}
	result.SourceName = playlist.Name

	sendProgress(progress, ProgressUpdate{
		Phase:   PhaseFetching,
		Total:   playlist.TrackCount,
		Message: fmt.Sprintf("fetching %q (%d tracks)", playlist.Name, playlist.TrackCount),
	})

	var tracks []services.Track
	for track, err := range c.source.ListPlaylistTracks(ctx, ref.ID) {
		if err != nil {
			return nil, fmt.Errorf("failed to list source tracks: %w", err)
		}
		tracks = append(tracks, track)
		sendProgress(progress, ProgressUpdate{
			Phase:   PhaseFetching,
			Step:    len(tracks),
			Total:   playlist.TrackCount,
			Message: fmt.Sprintf("fetched %d/%d", len(tracks), playlist.TrackCount),
		})
	}

	result.TotalTracks = len(tracks)
	if len(tracks) == 0 {
		return nil, fmt.Errorf("%w: playlist %q has no tracks", shared.ErrInvalidInput, playlist.Name)
	}
	return tracks, nil
}

// matchAll resolves every source track sequentially. Tracks with no
// counterpart accumulate in result.Unmatched without failing the run;
// transport or auth errors abort it.
func (c *Converter) matchAll(ctx context.Context, progress chan<- ProgressUpdate, tracks []services.Track, result *ConversionResult) error {
	result.State = StateMatching

	for i, track := range tracks {
		sendProgress(progress, ProgressUpdate{
			Phase:   PhaseMatching,
			Step:    i + 1,
			Total:   len(tracks),
			Message: fmt.Sprintf("matching %q by %s", track.Title, track.Artist),
		})

		res, err := c.matcher.Match(ctx, track)
		if err != nil {
			if match.IsNotFound(err) {
				c.logger.Warn("no match found", "title", track.Title, "artist", track.Artist)
				result.Unmatched = append(result.Unmatched, track)
				continue
			}
			return fmt.Errorf("match failed for %q: %w", track.Title, err)
		}

		c.logger.Debug("matched track",
			"title", track.Title, "artist", track.Artist, "confidence", res.Confidence)
		result.Matches = append(result.Matches, res)
	}

	if len(result.Matches) == 0 {
		return fmt.Errorf("%w: none of the %d tracks matched on %s",
			shared.ErrMatchNotFound, len(tracks), c.dest.Name())
	}
	return nil
}

func (c *Converter) createDestination(ctx context.Context, progress chan<- ProgressUpdate, destName string, result *ConversionResult) error {
	result.State = StateCreatingDestination

	name := destName
	if name == "" {
		name = fmt.Sprintf("From %s - %d", c.source.Name(), time.Now().Unix())
	}

	sendProgress(progress, ProgressUpdate{
		Phase:   PhaseCreating,
		Message: fmt.Sprintf("creating %q on %s", name, c.dest.Name()),
	})

	id, err := c.dest.CreatePlaylist(ctx, name)
	if err != nil {
		return fmt.Errorf("failed to create destination playlist: %w", err)
	}

	result.DestPlaylistID = id
	result.DestName = name
	return nil
}

// addAll pushes matched tracks in destination-sized batches. A failed batch
// is retried once; tracks from a batch that fails twice land in
// result.FailedAdds and the run continues.
func (c *Converter) addAll(ctx context.Context, progress chan<- ProgressUpdate, result *ConversionResult) error {
	result.State = StateAddingTracks

	matched := make([]services.Track, 0, len(result.Matches))
	for _, m := range result.Matches {
		matched = append(matched, *m.Match)
	}

	batchSize := c.dest.MaxBatch()
	for start := 0; start < len(matched); start += batchSize {
		end := min(start+batchSize, len(matched))
		batch := matched[start:end]

		batchIDs := make([]string, len(batch))
		for i, t := range batch {
			batchIDs[i] = t.ID
		}

		sendProgress(progress, ProgressUpdate{
			Phase:   PhaseAdding,
			Step:    end,
			Total:   len(matched),
			Message: fmt.Sprintf("adding tracks %d-%d of %d", start+1, end, len(matched)),
		})

		err := c.dest.AddTracks(ctx, result.DestPlaylistID, batchIDs)
		if err != nil {
			c.logger.Warn("batch add failed, retrying once", "batch_start", start, "error", err)
			err = c.dest.AddTracks(ctx, result.DestPlaylistID, batchIDs)
		}
		if err != nil {
			c.logger.Error("batch add failed twice, skipping", "batch_start", start, "error", err)
			result.FailedAdds = append(result.FailedAdds, batch...)
			continue
		}

		result.AddedCount += len(batch)
	}

	// Failed batches are reported, not fatal: the run completes with the
	// playlist it managed to fill, even when that is empty.
	return nil
}
