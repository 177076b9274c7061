package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/urfave/cli/v3"

	"github.com/dzx-app/dzx/internal/services"
	"github.com/dzx-app/dzx/internal/shared"
)

// AuthSpotify runs the interactive Spotify authorization flow.
func (r *Runner) AuthSpotify(ctx context.Context, cmd *cli.Command) error {
	r.logger.Info("starting spotify authorization")

	if _, err := r.store.Authorize(ctx, services.PlatformSpotify); err != nil {
		return err
	}
	return r.writePlain("✓ Spotify authorization complete\n")
}

// AuthDeezer authorizes with Deezer. Three modes: the default browser flow,
// --url-only to print the consent URL, and --token to install a manually
// obtained access token.
func (r *Runner) AuthDeezer(ctx context.Context, cmd *cli.Command) error {
	if token := cmd.String("token"); token != "" {
		if err := r.store.SetToken(services.PlatformDeezer, token, 0); err != nil {
			return err
		}
		return r.writePlain("✓ Deezer token saved\n")
	}

	if cmd.Bool("url-only") {
		url, err := r.store.AuthURL(services.PlatformDeezer)
		if err != nil {
			return err
		}
		r.writePlain("Open this URL to authorize Deezer:\n\n%s\n\n", url)
		return r.writePlain("Then install the resulting token with `dzx auth deezer --token <token>`\n")
	}

	r.logger.Info("starting deezer authorization")

	if _, err := r.store.Authorize(ctx, services.PlatformDeezer); err != nil {
		return err
	}
	return r.writePlain("✓ Deezer authorization complete\n")
}

// AuthStatus reports which platforms currently have a usable token.
func (r *Runner) AuthStatus(ctx context.Context, cmd *cli.Command) error {
	for _, platform := range []services.Platform{services.PlatformSpotify, services.PlatformDeezer} {
		if _, err := r.store.Token(ctx, platform); err != nil {
			r.writePlain("✗ %s: %v\n", platform, err)
		} else {
			r.writePlain("✓ %s: authorized\n", platform)
		}
	}
	return nil
}

// AuthLogout discards cached tokens for one platform, or all of them.
func (r *Runner) AuthLogout(ctx context.Context, cmd *cli.Command) error {
	name := strings.ToLower(cmd.StringArg("platform"))

	switch name {
	case "", "all":
		for _, platform := range []services.Platform{services.PlatformSpotify, services.PlatformDeezer} {
			if err := r.store.Logout(platform); err != nil {
				return err
			}
		}
		return r.writePlain("✓ All tokens discarded\n")
	case string(services.PlatformSpotify), string(services.PlatformDeezer):
		if err := r.store.Logout(services.Platform(name)); err != nil {
			return err
		}
		return r.writePlain("✓ %s token discarded\n", name)
	default:
		return fmt.Errorf("%w: unknown platform %q", shared.ErrInvalidArgument, name)
	}
}
