package main

import (
	"context"
	"os"
	"strings"

	"github.com/urfave/cli/v3"

	"github.com/dzx-app/dzx/internal/auth"
	"github.com/dzx-app/dzx/internal/services"
	"github.com/dzx-app/dzx/internal/shared"
)

func main() {
	logger := shared.NewLogger(nil)

	config, err := shared.LoadConfig("config.toml")
	if err != nil {
		// The config command must stay reachable without a config file so
		// `dzx config init` can create one.
		if !isConfigInvocation(os.Args) {
			logger.Fatalf("%v", err)
		}
		config = shared.DefaultConfig()
	}

	tokenPath := config.Auth.TokenFile
	if tokenPath == "" {
		if p, err := shared.DefaultTokenPath(); err == nil {
			tokenPath = p
		} else {
			tokenPath = "tokens.json"
		}
	}

	store, err := auth.NewStore(config, auth.NewTokenCache(tokenPath), logger, nil)
	if err != nil {
		logger.Fatalf("failed to initialize token store: %v", err)
	}

	spotify := services.NewSpotifyService(store.Provider(services.PlatformSpotify), nil, config.HTTP)
	deezer := services.NewDeezerService(store.Provider(services.PlatformDeezer), nil, config.HTTP)

	runner := NewRunner(RunnerOpts{
		Config:  config,
		Store:   store,
		Spotify: spotify,
		Deezer:  deezer,
		Logger:  logger,
	})

	app := &cli.Command{
		Name:     "dzx",
		Usage:    "Convert playlists between Spotify & Deezer",
		Version:  "0.3.0",
		Commands: runner.register(),
	}

	if err := app.Run(context.Background(), os.Args); err != nil {
		logger.Fatalf("application error: %v", err)
	}
}

// isConfigInvocation reports whether the first subcommand in args is the
// config command.
func isConfigInvocation(args []string) bool {
	for _, arg := range args[1:] {
		if strings.HasPrefix(arg, "-") {
			continue
		}
		return arg == "config"
	}
	return false
}
