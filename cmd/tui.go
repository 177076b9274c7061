package main

import (
	"context"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/urfave/cli/v3"

	"github.com/dzx-app/dzx/internal/services"
	"github.com/dzx-app/dzx/internal/shared"
	"github.com/dzx-app/dzx/internal/tasks"
	"github.com/dzx-app/dzx/internal/ui"
)

// TUI launches the interactive menu.
func (r *Runner) TUI(ctx context.Context, cmd *cli.Command) error {
	// Redirect logs to file to avoid interfering with TUI rendering
	fileLogger, err := shared.NewFileLogger("./tmp/dzx-tui.log")
	if err != nil {
		return fmt.Errorf("failed to create file logger: %w", err)
	}
	r.SetLogger(fileLogger)

	toDeezer, err := r.converter(services.PlatformSpotify, services.PlatformDeezer)
	if err != nil {
		return err
	}
	toSpotify, err := r.converter(services.PlatformDeezer, services.PlatformSpotify)
	if err != nil {
		return err
	}
	converters := map[services.Platform]*tasks.Converter{
		services.PlatformSpotify: toDeezer,
		services.PlatformDeezer:  toSpotify,
	}

	model := ui.NewModel(ctx, r.spotify, converters, r.store, r.refs)
	p := tea.NewProgram(model)

	if _, err := p.Run(); err != nil {
		return fmt.Errorf("error running TUI: %w", err)
	}

	return nil
}
