package main

import (
	"context"
	"fmt"
	"os"

	"github.com/urfave/cli/v3"

	"github.com/dzx-app/dzx/internal/shared"
)

// ConfigInit writes a starter config file from the embedded example.
func (r *Runner) ConfigInit(ctx context.Context, cmd *cli.Command) error {
	path := cmd.String("path")

	if _, err := os.Stat(path); err == nil && !cmd.Bool("force") {
		return fmt.Errorf("%w: %s already exists (use --force to overwrite)", shared.ErrInvalidArgument, path)
	}

	if err := shared.CreateConfigFile(path); err != nil {
		return err
	}

	r.logger.Info("config file created", "path", path)
	r.writePlain("✓ Config written to %s\n", path)
	return r.writePlain("Fill in your Spotify and Deezer credentials before authorizing.\n")
}

// ConfigShow prints the active configuration with secrets blanked.
func (r *Runner) ConfigShow(ctx context.Context, cmd *cli.Command) error {
	spotify := r.config.Credentials.Spotify.Map()
	spotify["client_secret"] = redact(spotify["client_secret"])
	deezer := r.config.Credentials.Deezer.Map()
	deezer["app_secret"] = redact(deezer["app_secret"])

	return r.writeJSON(map[string]any{
		"credentials": map[string]any{"spotify": spotify, "deezer": deezer},
		"auth":        r.config.Auth,
		"http":        r.config.HTTP,
	}, true)
}

func redact(s string) string {
	if s == "" {
		return ""
	}
	return "••••••••"
}
