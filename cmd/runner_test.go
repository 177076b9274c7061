package main

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/dzx-app/dzx/internal/auth"
	"github.com/dzx-app/dzx/internal/services"
	"github.com/dzx-app/dzx/internal/shared"
	tu "github.com/dzx-app/dzx/internal/testing"
)

func newTestRunner(t *testing.T, spotify, deezer services.Service) (*Runner, *bytes.Buffer) {
	t.Helper()

	config := shared.DefaultConfig()
	cache := auth.NewTokenCache(filepath.Join(t.TempDir(), "tokens.json"))
	store, err := auth.NewStore(config, cache, shared.NewLogger(nil), nil)
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}

	output := &bytes.Buffer{}
	runner := NewRunner(RunnerOpts{
		Config:  config,
		Store:   store,
		Spotify: spotify,
		Deezer:  deezer,
		Logger:  shared.NewLogger(output),
		Output:  output,
	})
	return runner, output
}

func TestRunner(t *testing.T) {
	t.Run("NewRunner", func(t *testing.T) {
		t.Run("with all dependencies provided", func(t *testing.T) {
			config := shared.DefaultConfig()
			output := &bytes.Buffer{}
			httpClient := &http.Client{}
			spotify := &tu.MockService{ServiceName: "Spotify"}
			deezer := &tu.MockService{ServiceName: "Deezer"}

			runner := NewRunner(RunnerOpts{
				Config:     config,
				Logger:     shared.NewLogger(nil),
				Output:     output,
				HTTPClient: httpClient,
				Spotify:    spotify,
				Deezer:     deezer,
			})

			if runner.config != config {
				t.Error("expected config to be set")
			}
			if runner.spotify != spotify || runner.deezer != deezer {
				t.Error("expected services to be set")
			}
			if runner.refs == nil {
				t.Error("expected ref parser to be initialized")
			}
		})

		t.Run("fills defaults", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{})
			if runner.config == nil || runner.logger == nil || runner.output != os.Stdout {
				t.Error("expected defaults for config, logger, and output")
			}
			if runner.httpClient != http.DefaultClient {
				t.Error("expected default HTTP client")
			}
		})
	})

	t.Run("resolveService", func(t *testing.T) {
		spotify := &tu.MockService{ServiceName: "Spotify", PlatformName: services.PlatformSpotify}
		runner, _ := newTestRunner(t, spotify, nil)

		svc, err := runner.resolveService(services.PlatformSpotify)
		if err != nil || svc != services.Service(spotify) {
			t.Errorf("resolveService(spotify) = %v, %v", svc, err)
		}

		if _, err := runner.resolveService(services.PlatformDeezer); !errors.Is(err, shared.ErrServiceUnavailable) {
			t.Errorf("missing deezer service: error = %v, want ErrServiceUnavailable", err)
		}

		if _, err := runner.resolveService(services.Platform("tidal")); !errors.Is(err, shared.ErrInvalidArgument) {
			t.Errorf("unknown platform: error = %v, want ErrInvalidArgument", err)
		}
	})

	t.Run("write helpers", func(t *testing.T) {
		t.Run("writePlain formats to output", func(t *testing.T) {
			runner, output := newTestRunner(t, nil, nil)
			if err := runner.writePlain("count: %d\n", 3); err != nil {
				t.Fatalf("writePlain: %v", err)
			}
			if output.String() != "count: 3\n" {
				t.Errorf("output = %q", output.String())
			}
		})

		t.Run("writeJSON emits valid JSON plus newline", func(t *testing.T) {
			runner, output := newTestRunner(t, nil, nil)
			if err := runner.writeJSON(map[string]int{"n": 1}, false); err != nil {
				t.Fatalf("writeJSON: %v", err)
			}
			if got := output.String(); got != `{"n":1}`+"\n" {
				t.Errorf("output = %q", got)
			}
		})

		t.Run("write failures surface", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{Output: &tu.FWriter{}, Logger: shared.NewLogger(nil)})
			if err := runner.writePlain("x"); err == nil {
				t.Error("expected error from failing writer")
			}
			if err := runner.writeJSON(map[string]int{}, false); err == nil {
				t.Error("expected error from failing writer")
			}
		})
	})

	t.Run("listPlaylists", func(t *testing.T) {
		spotify := &tu.MockService{
			ServiceName:  "Spotify",
			PlatformName: services.PlatformSpotify,
			Playlists: []services.Playlist{
				{ID: "p1", Name: "Road Trip", TrackCount: 12, Description: "van tunes", Public: true},
				{ID: "p2", Name: "Focus", TrackCount: 40},
			},
		}

		t.Run("plain output", func(t *testing.T) {
			runner, output := newTestRunner(t, spotify, nil)
			if err := runner.listPlaylists(context.Background(), spotify, false, false); err != nil {
				t.Fatalf("listPlaylists: %v", err)
			}
			for _, want := range []string{"Road Trip [Public]", "Focus [Private]", "van tunes", "Total: 2 playlists"} {
				if !strings.Contains(output.String(), want) {
					t.Errorf("output missing %q:\n%s", want, output.String())
				}
			}
		})

		t.Run("json output", func(t *testing.T) {
			runner, output := newTestRunner(t, spotify, nil)
			if err := runner.listPlaylists(context.Background(), spotify, true, false); err != nil {
				t.Fatalf("listPlaylists: %v", err)
			}
			if !strings.Contains(output.String(), `"id":"p1"`) {
				t.Errorf("json output = %q", output.String())
			}
		})

		t.Run("service error propagates", func(t *testing.T) {
			failing := &tu.MockService{ServiceName: "Spotify", PlaylistErr: shared.ErrAuthFailed}
			runner, _ := newTestRunner(t, failing, nil)
			if err := runner.listPlaylists(context.Background(), failing, false, false); !errors.Is(err, shared.ErrAuthFailed) {
				t.Errorf("error = %v, want ErrAuthFailed", err)
			}
		})
	})

	t.Run("converter wires source and destination", func(t *testing.T) {
		spotify := &tu.MockService{ServiceName: "Spotify", PlatformName: services.PlatformSpotify}
		deezer := &tu.MockService{ServiceName: "Deezer", PlatformName: services.PlatformDeezer}
		runner, _ := newTestRunner(t, spotify, deezer)

		if _, err := runner.converter(services.PlatformSpotify, services.PlatformDeezer); err != nil {
			t.Errorf("converter: %v", err)
		}
		if _, err := runner.converter(services.PlatformSpotify, services.Platform("tidal")); err == nil {
			t.Error("expected error for unknown destination")
		}
	})
}

func TestIsConfigInvocation(t *testing.T) {
	cases := []struct {
		name string
		args []string
		want bool
	}{
		{"config init", []string{"dzx", "config", "init"}, true},
		{"config after flag", []string{"dzx", "--verbose", "config", "show"}, true},
		{"other command", []string{"dzx", "auth", "spotify"}, false},
		{"no command", []string{"dzx"}, false},
		{"config as subcommand only", []string{"dzx", "convert", "config"}, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := isConfigInvocation(tc.args); got != tc.want {
				t.Errorf("isConfigInvocation(%v) = %v, want %v", tc.args, got, tc.want)
			}
		})
	}
}

func TestConfigShow(t *testing.T) {
	runner, output := newTestRunner(t, nil, nil)
	runner.config.Credentials.Spotify.ClientID = "sp-id"
	runner.config.Credentials.Spotify.ClientSecret = "sp-secret"
	runner.config.Credentials.Deezer.AppSecret = "dz-secret"

	if err := runner.ConfigShow(context.Background(), nil); err != nil {
		t.Fatalf("ConfigShow: %v", err)
	}
	if strings.Contains(output.String(), "sp-secret") || strings.Contains(output.String(), "dz-secret") {
		t.Errorf("output leaks secrets:\n%s", output.String())
	}
	for _, want := range []string{`"client_id": "sp-id"`, "••••••••"} {
		if !strings.Contains(output.String(), want) {
			t.Errorf("output missing %q:\n%s", want, output.String())
		}
	}
}
