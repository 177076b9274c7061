package ui

import (
	"context"
	"errors"
	"testing"

	"github.com/dzx-app/dzx/internal/services"
	"github.com/dzx-app/dzx/internal/shared"
	"github.com/dzx-app/dzx/internal/tasks"
	tu "github.com/dzx-app/dzx/internal/testing"
)

func mustRef(t *testing.T, platform services.Platform, id string) services.Ref {
	t.Helper()
	ref, err := services.NewRef(platform, id)
	if err != nil {
		t.Fatalf("NewRef: %v", err)
	}
	return *ref
}

// runConversion drives the progress command loop the way bubbletea would
// until the conversion finishes.
func runConversion(t *testing.T, m *Model, ref services.Ref) convertDoneMsg {
	t.Helper()
	_, cmd := m.startConversion(ref)
	if cmd == nil {
		t.Fatalf("startConversion returned no command, view = %v, err = %v", m.view, m.err)
	}
	for {
		switch msg := cmd().(type) {
		case convertDoneMsg:
			return msg
		case progressUpdateMsg:
			cmd = m.waitForProgress()
		default:
			t.Fatalf("unexpected message %T", msg)
		}
	}
}

func TestStartConversion(t *testing.T) {
	spotify := &tu.MockService{
		ServiceName:  "Spotify",
		PlatformName: services.PlatformSpotify,
		CreatedID:    "sp-new",
		SearchResults: map[string][]services.Track{
			"artist x song a": {{ID: "sp1", Title: "Song A", Artist: "Artist X"}},
		},
	}
	deezer := &tu.MockService{
		ServiceName:  "Deezer",
		PlatformName: services.PlatformDeezer,
		Tracks: []services.Track{
			{ID: "dz1", Title: "Song A", Artist: "Artist X"},
		},
	}
	converters := map[services.Platform]*tasks.Converter{
		services.PlatformDeezer: tasks.NewConverter(deezer, spotify, shared.NewLogger(nil)),
	}

	t.Run("pasted link routes by source platform", func(t *testing.T) {
		m := NewModel(context.Background(), spotify, converters, nil, nil)

		done := runConversion(t, m, mustRef(t, services.PlatformDeezer, "1234567890"))
		if done.err != nil {
			t.Fatalf("conversion error: %v", done.err)
		}
		if done.result.State != tasks.StateDone {
			t.Errorf("state = %v, want done", done.result.State)
		}
		if done.result.DestPlaylistID != "sp-new" {
			t.Errorf("destination playlist = %q, want sp-new", done.result.DestPlaylistID)
		}
		if len(spotify.AddCalls) != 1 || spotify.AddCalls[0][0] != "sp1" {
			t.Errorf("spotify add calls = %+v, want one call with sp1", spotify.AddCalls)
		}
	})

	t.Run("source without a converter shows an error", func(t *testing.T) {
		m := NewModel(context.Background(), spotify, converters, nil, nil)

		_, _ = m.startConversion(mustRef(t, services.PlatformSpotify, "1234567890123456789012"))
		if m.view != MessageView {
			t.Errorf("view = %v, want message view", m.view)
		}
		if !errors.Is(m.err, shared.ErrInvalidArgument) {
			t.Errorf("err = %v, want ErrInvalidArgument", m.err)
		}
	})
}
