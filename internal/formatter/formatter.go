// package formatter renders conversion results for terminals and report
// files. Three formats are supported: plain text, Markdown, and JSON.
package formatter

import (
	"fmt"
	"os"
	"strings"

	"github.com/dzx-app/dzx/internal/match"
	"github.com/dzx-app/dzx/internal/shared"
	"github.com/dzx-app/dzx/internal/tasks"
)

// Format names an output rendering.
type Format string

const (
	FormatText     Format = "text"
	FormatMarkdown Format = "markdown"
	FormatJSON     Format = "json"
)

// maxListedUnmatched caps the unmatched tracks printed inline; the full list
// is always present in JSON output.
const maxListedUnmatched = 10

// ParseFormat validates a user-supplied format name.
func ParseFormat(s string) (Format, error) {
	switch Format(strings.ToLower(s)) {
	case FormatText, "":
		return FormatText, nil
	case FormatMarkdown, "md":
		return FormatMarkdown, nil
	case FormatJSON:
		return FormatJSON, nil
	default:
		return "", fmt.Errorf("%w: unknown format %q (want text, markdown, or json)", shared.ErrInvalidArgument, s)
	}
}

// Render formats a conversion result in the requested format.
func Render(result *tasks.ConversionResult, format Format) (string, error) {
	switch format {
	case FormatText:
		return renderText(result), nil
	case FormatMarkdown:
		return renderMarkdown(result), nil
	case FormatJSON:
		data, err := shared.MarshalJSON(result, true)
		if err != nil {
			return "", err
		}
		return string(data) + "\n", nil
	default:
		return "", fmt.Errorf("%w: unknown format %q", shared.ErrInvalidArgument, format)
	}
}

// WriteReport renders the result and writes it to path.
func WriteReport(result *tasks.ConversionResult, format Format, path string) error {
	out, err := Render(result, format)
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, []byte(out), 0644); err != nil {
		return fmt.Errorf("failed to write report: %w", err)
	}
	return nil
}

func renderText(r *tasks.ConversionResult) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Conversion %s\n", r.State)
	fmt.Fprintf(&b, "Source:      %s (%s)\n", r.SourceName, r.SourceRef.Platform)
	if r.DestName != "" {
		fmt.Fprintf(&b, "Destination: %s (%s)\n", r.DestName, r.DestPlatform)
	}
	fmt.Fprintf(&b, "Tracks:      %d total, %d matched, %d added\n",
		r.TotalTracks, len(r.Matches), r.AddedCount)

	if n := countConfidence(r.Matches, match.ConfidencePartial); n > 0 {
		fmt.Fprintf(&b, "Partial matches: %d\n", n)
	}
	if n := countConfidence(r.Matches, match.ConfidenceFallback); n > 0 {
		fmt.Fprintf(&b, "Fallback matches: %d\n", n)
	}

	if len(r.Unmatched) > 0 {
		fmt.Fprintf(&b, "\nUnmatched (%d):\n", len(r.Unmatched))
		for i, t := range r.Unmatched {
			if i == maxListedUnmatched {
				fmt.Fprintf(&b, "  ... and %d more\n", len(r.Unmatched)-maxListedUnmatched)
				break
			}
			fmt.Fprintf(&b, "  %s - %s\n", t.Title, t.Artist)
		}
	}

	if len(r.FailedAdds) > 0 {
		fmt.Fprintf(&b, "\nMatched but not added (%d):\n", len(r.FailedAdds))
		for i, t := range r.FailedAdds {
			if i == maxListedUnmatched {
				fmt.Fprintf(&b, "  ... and %d more\n", len(r.FailedAdds)-maxListedUnmatched)
				break
			}
			fmt.Fprintf(&b, "  %s - %s\n", t.Title, t.Artist)
		}
	}

	return b.String()
}

func renderMarkdown(r *tasks.ConversionResult) string {
	var b strings.Builder

	fmt.Fprintf(&b, "# Playlist Conversion Report\n\n")
	fmt.Fprintf(&b, "- **Status:** %s\n", r.State)
	fmt.Fprintf(&b, "- **Source:** %s (%s)\n", r.SourceName, r.SourceRef.Platform)
	if r.DestName != "" {
		fmt.Fprintf(&b, "- **Destination:** %s (%s)\n", r.DestName, r.DestPlatform)
	}
	fmt.Fprintf(&b, "- **Tracks:** %d total, %d matched, %d added\n", r.TotalTracks, len(r.Matches), r.AddedCount)

	if len(r.Matches) > 0 {
		fmt.Fprintf(&b, "\n## Matches\n\n")
		fmt.Fprintf(&b, "| Source | Match | Confidence |\n|---|---|---|\n")
		for _, m := range r.Matches {
			fmt.Fprintf(&b, "| %s - %s | %s - %s | %s |\n",
				m.Source.Title, m.Source.Artist, m.Match.Title, m.Match.Artist, m.Confidence)
		}
	}

	if len(r.Unmatched) > 0 {
		fmt.Fprintf(&b, "\n## Unmatched\n\n")
		for _, t := range r.Unmatched {
			fmt.Fprintf(&b, "- %s - %s\n", t.Title, t.Artist)
		}
	}

	if len(r.FailedAdds) > 0 {
		fmt.Fprintf(&b, "\n## Matched But Not Added\n\n")
		for _, t := range r.FailedAdds {
			fmt.Fprintf(&b, "- %s - %s\n", t.Title, t.Artist)
		}
	}

	return b.String()
}

func countConfidence(matches []match.Result, want match.Confidence) int {
	n := 0
	for _, m := range matches {
		if m.Confidence == want {
			n++
		}
	}
	return n
}
