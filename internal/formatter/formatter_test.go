package formatter

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/dzx-app/dzx/internal/match"
	"github.com/dzx-app/dzx/internal/services"
	"github.com/dzx-app/dzx/internal/tasks"
)

func sampleResult() *tasks.ConversionResult {
	matched := services.Track{ID: "d1", Title: "Song A", Artist: "Artist X"}
	return &tasks.ConversionResult{
		State:          tasks.StateDone,
		SourceRef:      services.Ref{Platform: services.PlatformSpotify, ID: "abc"},
		SourceName:     "Road Trip",
		DestPlatform:   services.PlatformDeezer,
		DestPlaylistID: "99",
		DestName:       "Road Trip (Deezer)",
		Matches: []match.Result{
			{Source: services.Track{ID: "s1", Title: "Song A", Artist: "Artist X"}, Match: &matched, Confidence: match.ConfidenceExact},
		},
		Unmatched:   []services.Track{{ID: "s2", Title: "Unknown Track", Artist: "Ghost"}},
		TotalTracks: 2,
		AddedCount:  1,
	}
}

func TestParseFormat(t *testing.T) {
	tests := []struct {
		input   string
		want    Format
		wantErr bool
	}{
		{"text", FormatText, false},
		{"", FormatText, false},
		{"markdown", FormatMarkdown, false},
		{"md", FormatMarkdown, false},
		{"JSON", FormatJSON, false},
		{"yaml", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseFormat(tt.input)
			if tt.wantErr {
				if err == nil {
					t.Fatal("expected error")
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseFormat(%q): %v", tt.input, err)
			}
			if got != tt.want {
				t.Errorf("ParseFormat(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestRender(t *testing.T) {
	t.Run("text", func(t *testing.T) {
		out, err := Render(sampleResult(), FormatText)
		if err != nil {
			t.Fatalf("Render: %v", err)
		}
		for _, want := range []string{"Road Trip", "2 total, 1 matched, 1 added", "Unknown Track - Ghost"} {
			if !strings.Contains(out, want) {
				t.Errorf("text output missing %q:\n%s", want, out)
			}
		}
	})

	t.Run("text caps listed unmatched", func(t *testing.T) {
		result := sampleResult()
		result.Unmatched = nil
		for i := range 15 {
			result.Unmatched = append(result.Unmatched, services.Track{
				ID: fmt.Sprintf("u%d", i), Title: fmt.Sprintf("Missing %d", i), Artist: "Ghost",
			})
		}

		out, err := Render(result, FormatText)
		if err != nil {
			t.Fatalf("Render: %v", err)
		}
		if !strings.Contains(out, "... and 5 more") {
			t.Errorf("expected capped listing, got:\n%s", out)
		}
		if strings.Contains(out, "Missing 12") {
			t.Error("tracks past the cap should not be listed")
		}
	})

	t.Run("markdown", func(t *testing.T) {
		out, err := Render(sampleResult(), FormatMarkdown)
		if err != nil {
			t.Fatalf("Render: %v", err)
		}
		for _, want := range []string{"# Playlist Conversion Report", "## Matches", "## Unmatched", "| exact |"} {
			if !strings.Contains(out, want) {
				t.Errorf("markdown output missing %q:\n%s", want, out)
			}
		}
	})

	t.Run("json is complete and parseable", func(t *testing.T) {
		out, err := Render(sampleResult(), FormatJSON)
		if err != nil {
			t.Fatalf("Render: %v", err)
		}

		var decoded tasks.ConversionResult
		if err := json.Unmarshal([]byte(out), &decoded); err != nil {
			t.Fatalf("output is not valid JSON: %v", err)
		}
		if decoded.AddedCount != 1 || len(decoded.Unmatched) != 1 {
			t.Errorf("decoded = %+v", decoded)
		}
	})
}

func TestWriteReport(t *testing.T) {
	path := filepath.Join(t.TempDir(), "report.md")

	if err := WriteReport(sampleResult(), FormatMarkdown, path); err != nil {
		t.Fatalf("WriteReport: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	if !strings.Contains(string(data), "# Playlist Conversion Report") {
		t.Errorf("report content = %q", string(data))
	}
}
