package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/urfave/cli/v3"

	"github.com/dzx-app/dzx/internal/formatter"
	"github.com/dzx-app/dzx/internal/services"
	"github.com/dzx-app/dzx/internal/shared"
	"github.com/dzx-app/dzx/internal/tasks"
)

// ConvertRun converts one playlist to the destination platform.
func (r *Runner) ConvertRun(ctx context.Context, cmd *cli.Command) error {
	format, err := formatter.ParseFormat(cmd.String("format"))
	if err != nil {
		return err
	}

	ref, err := r.parseSourceRef(ctx, cmd.String("url"), cmd.String("from"))
	if err != nil {
		return err
	}

	dest := services.Platform(strings.ToLower(cmd.String("to")))
	if dest == ref.Platform {
		return fmt.Errorf("%w: source and destination are both %s", shared.ErrInvalidArgument, dest)
	}

	converter, err := r.converter(ref.Platform, dest)
	if err != nil {
		return err
	}

	r.logger.Info("starting conversion", "source", ref.ID, "from", ref.Platform, "to", dest)
	r.writePlain("Converting playlist %s (%s → %s)...\n\n", ref.ID, ref.Platform, dest)

	progressCh := make(chan tasks.ProgressUpdate, 50)
	go func() {
		for update := range progressCh {
			switch update.Phase {
			case tasks.PhaseFetching:
				r.writePlain("📥 %s\n", update.Message)
			case tasks.PhaseMatching:
				if update.Step == 1 {
					r.writePlain("\n🔍 Matching tracks...\n")
				}
				r.writePlain("   %s\n", update.Message)
			case tasks.PhaseCreating:
				r.writePlain("\n📝 %s\n", update.Message)
			case tasks.PhaseAdding:
				r.writePlain("➕ %s\n", update.Message)
			}
		}
	}()

	result, runErr := converter.Run(ctx, progressCh, *ref, cmd.String("name"))
	close(progressCh)

	if runErr != nil {
		return runErr
	}

	r.writePlain("\n")
	r.writePlainHeader("Conversion Complete!")

	rendered, err := formatter.Render(result, format)
	if err != nil {
		return err
	}
	r.writePlain("%s", rendered)

	if path := cmd.String("report"); path != "" {
		if err := formatter.WriteReport(result, format, path); err != nil {
			return err
		}
		r.writePlain("\nReport written to %s\n", path)
	}

	return nil
}

// parseSourceRef resolves the --url flag, falling back to --from for bare IDs.
func (r *Runner) parseSourceRef(ctx context.Context, input, from string) (*services.Ref, error) {
	ref, err := r.refs.Parse(ctx, input)
	if err == nil {
		return ref, nil
	}

	// A bare ID carries no platform; trust the --from flag.
	platform := services.Platform(strings.ToLower(from))
	if bare, bareErr := services.NewRef(platform, input); bareErr == nil {
		return bare, nil
	}
	return nil, err
}
