package main

import (
	"context"

	"github.com/urfave/cli/v3"

	"github.com/dzx-app/dzx/internal/services"
	"github.com/dzx-app/dzx/internal/shared"
)

// SpotifyPlaylists lists the authorized user's Spotify playlists.
func (r *Runner) SpotifyPlaylists(ctx context.Context, cmd *cli.Command) error {
	return r.listPlaylists(ctx, r.spotify, cmd.Bool("json"), cmd.Bool("pretty"))
}

// DeezerPlaylists lists the authorized user's Deezer playlists.
func (r *Runner) DeezerPlaylists(ctx context.Context, cmd *cli.Command) error {
	return r.listPlaylists(ctx, r.deezer, cmd.Bool("json"), cmd.Bool("pretty"))
}

func (r *Runner) listPlaylists(ctx context.Context, svc services.Service, asJSON, pretty bool) error {
	r.logger.Info("fetching playlists", "service", svc.Name())

	playlists, err := svc.GetPlaylists(ctx)
	if err != nil {
		return err
	}

	if asJSON {
		return r.writeJSON(playlists, pretty)
	}

	r.writePlainHeader(svc.Name() + " Playlists")
	for i, pl := range playlists {
		r.writePlain("%d. %s [%s] (%d tracks)", i+1, pl.Name, shared.VisibilityString(pl.Public), pl.TrackCount)
		if pl.Description != "" {
			r.writePlain(" - %s", pl.Description)
		}
		r.writePlain("\n   ID: %s\n", pl.ID)
	}
	r.writePlain("\nTotal: %d playlists\n", len(playlists))
	return nil
}

// SpotifyTracks lists the tracks of one playlist, resolving URLs and URIs.
func (r *Runner) SpotifyTracks(ctx context.Context, cmd *cli.Command) error {
	ref, err := r.refs.Parse(ctx, cmd.String("id"))
	if err != nil {
		return err
	}

	svc, err := r.resolveService(ref.Platform)
	if err != nil {
		return err
	}

	playlist, err := svc.GetPlaylist(ctx, ref.ID)
	if err != nil {
		return err
	}

	var tracks []services.Track
	for track, err := range svc.ListPlaylistTracks(ctx, ref.ID) {
		if err != nil {
			return err
		}
		tracks = append(tracks, track)
	}

	if cmd.Bool("json") {
		return r.writeJSON(tracks, true)
	}

	r.writePlainHeader(playlist.Name)
	for i, t := range tracks {
		r.writePlain("%d. %s - %s", i+1, t.Artist, t.Title)
		if t.Duration > 0 {
			r.writePlain(" [%s]", shared.FormatDuration(t.Duration))
		}
		r.writePlain("\n")
	}
	r.writePlain("\nTotal: %d tracks\n", len(tracks))
	return nil
}
