// submodule cmd contains command definitions
package main

import "github.com/urfave/cli/v3"

// configCommand handles configuration file management
func configCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "config",
		Usage: "Manage configuration",
		Commands: []*cli.Command{
			{
				Name:  "init",
				Usage: "Create a config file from the embedded example",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "path",
						Aliases: []string{"p"},
						Usage:   "Where to write the config file",
						Value:   "config.toml",
					},
					&cli.BoolFlag{
						Name:  "force",
						Usage: "Overwrite an existing file",
					},
				},
				Action: r.ConfigInit,
			},
			{
				Name:   "show",
				Usage:  "Print the active configuration",
				Action: r.ConfigShow,
			},
		},
	}
}

// authCommand handles OAuth authorization for both platforms
func authCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "auth",
		Usage: "Authorize with a streaming platform",
		Commands: []*cli.Command{
			{
				Name:   "spotify",
				Usage:  "Authorize with Spotify using OAuth2",
				Action: r.AuthSpotify,
			},
			{
				Name:  "deezer",
				Usage: "Authorize with Deezer using OAuth2",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "token",
						Usage: "Install a manually obtained access token instead of running the browser flow",
					},
					&cli.BoolFlag{
						Name:  "url-only",
						Usage: "Print the consent URL without opening a browser",
					},
				},
				Action: r.AuthDeezer,
			},
			{
				Name:   "status",
				Usage:  "Show which platforms have cached tokens",
				Action: r.AuthStatus,
			},
			{
				Name:  "logout",
				Usage: "Discard cached tokens",
				Arguments: []cli.Argument{
					&cli.StringArg{
						Name: "platform",
					},
				},
				Action: r.AuthLogout,
			},
		},
	}
}

// spotifyCommand handles Spotify operations
func spotifyCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "spotify",
		Aliases: []string{"spot"},
		Usage:   "Spotify playlist operations",
		Commands: []*cli.Command{
			{
				Name:  "playlists",
				Usage: "List your Spotify playlists",
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "json",
						Usage: "Output raw JSON",
					},
					&cli.BoolFlag{
						Name:  "pretty",
						Usage: "Pretty-print output",
					},
				},
				Action: r.SpotifyPlaylists,
			},
			{
				Name:  "tracks",
				Usage: "List the tracks of a playlist",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "id",
						Usage:    "Playlist ID or URL",
						Required: true,
					},
					&cli.BoolFlag{
						Name:  "json",
						Usage: "Output raw JSON",
					},
				},
				Action: r.SpotifyTracks,
			},
		},
	}
}

// deezerCommand handles Deezer operations
func deezerCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "deezer",
		Aliases: []string{"dz"},
		Usage:   "Deezer playlist operations",
		Commands: []*cli.Command{
			{
				Name:  "playlists",
				Usage: "List your Deezer playlists",
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "json",
						Usage: "Output raw JSON",
					},
					&cli.BoolFlag{
						Name:  "pretty",
						Usage: "Pretty-print output",
					},
				},
				Action: r.DeezerPlaylists,
			},
		},
	}
}

// convertCommand handles playlist conversion
func convertCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "convert",
		Usage: "Convert playlists between platforms",
		Commands: []*cli.Command{
			{
				Name:  "run",
				Usage: "Convert a playlist to another platform",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "url",
						Usage:    "Source playlist URL, URI, or ID",
						Required: true,
					},
					&cli.StringFlag{
						Name:  "from",
						Usage: "Source platform when the URL is a bare ID (spotify or deezer)",
						Value: "spotify",
					},
					&cli.StringFlag{
						Name:  "to",
						Usage: "Destination platform (spotify or deezer)",
						Value: "deezer",
					},
					&cli.StringFlag{
						Name:  "name",
						Usage: "Destination playlist name (generated when omitted)",
					},
					&cli.StringFlag{
						Name:  "report",
						Usage: "Write a conversion report to this path",
					},
					&cli.StringFlag{
						Name:  "format",
						Usage: "Report format (text, markdown, or json)",
						Value: "text",
					},
				},
				Action: r.ConvertRun,
			},
		},
	}
}

// tuiCommand launches the interactive menu
func tuiCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "menu",
		Aliases: []string{"tui"},
		Usage:   "Launch the interactive menu",
		Action:  r.TUI,
	}
}
