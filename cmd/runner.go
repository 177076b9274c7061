package main

import (
	"fmt"
	"io"
	"net/http"
	"os"

	"github.com/charmbracelet/log"
	"github.com/urfave/cli/v3"

	"github.com/dzx-app/dzx/internal/auth"
	"github.com/dzx-app/dzx/internal/services"
	"github.com/dzx-app/dzx/internal/shared"
	"github.com/dzx-app/dzx/internal/tasks"
)

// Runner holds all dependencies for CLI commands and provides methods for each command action.
type Runner struct {
	config     *shared.Config
	store      *auth.Store
	spotify    services.Service
	deezer     services.Service
	refs       *services.RefParser
	httpClient *http.Client
	logger     *log.Logger
	output     io.Writer
}

// RunnerOpts contains configuration options for creating a Runner.
type RunnerOpts struct {
	Config     *shared.Config
	Store      *auth.Store
	Spotify    services.Service
	Deezer     services.Service
	HTTPClient *http.Client
	Logger     *log.Logger
	Output     io.Writer
}

// NewRunner creates a new Runner with the provided configuration
func NewRunner(opts RunnerOpts) *Runner {
	if opts.Config == nil {
		opts.Config = shared.DefaultConfig()
	}
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}
	if opts.Output == nil {
		opts.Output = os.Stdout
	}
	if opts.HTTPClient == nil {
		opts.HTTPClient = http.DefaultClient
	}

	return &Runner{
		config:     opts.Config,
		store:      opts.Store,
		spotify:    opts.Spotify,
		deezer:     opts.Deezer,
		refs:       services.NewRefParser(opts.HTTPClient),
		httpClient: opts.HTTPClient,
		logger:     opts.Logger,
		output:     opts.Output,
	}
}

func (r *Runner) register() []*cli.Command {
	commands := []*cli.Command{}
	for _, fn := range [](func(*Runner) *cli.Command){
		configCommand, authCommand, spotifyCommand, deezerCommand, convertCommand, tuiCommand,
	} {
		commands = append(commands, fn(r))
	}

	return commands
}

// SetLogger replaces the runner's logger.
func (r *Runner) SetLogger(logger *log.Logger) {
	r.logger = logger
}

// converter builds a Converter for the named source and destination platforms.
func (r *Runner) converter(source, dest services.Platform) (*tasks.Converter, error) {
	sourceSvc, err := r.resolveService(source)
	if err != nil {
		return nil, err
	}
	destSvc, err := r.resolveService(dest)
	if err != nil {
		return nil, err
	}
	return tasks.NewConverter(sourceSvc, destSvc,
		shared.WithLogger(r.logger, "task", "convert", "from", source, "to", dest)), nil
}

// resolveService resolves a platform name to its corresponding Service instance.
func (r *Runner) resolveService(platform services.Platform) (services.Service, error) {
	switch platform {
	case services.PlatformSpotify:
		if r.spotify == nil {
			return nil, fmt.Errorf("%w: Spotify service not initialized", shared.ErrServiceUnavailable)
		}
		return r.spotify, nil
	case services.PlatformDeezer:
		if r.deezer == nil {
			return nil, fmt.Errorf("%w: Deezer service not initialized", shared.ErrServiceUnavailable)
		}
		return r.deezer, nil
	default:
		return nil, fmt.Errorf("%w: invalid platform '%s' (must be 'spotify' or 'deezer')", shared.ErrInvalidArgument, platform)
	}
}

func (r *Runner) writeJSON(data any, pretty bool) error {
	output, err := shared.MarshalJSON(data, pretty)
	if err != nil {
		return fmt.Errorf("failed to marshal JSON: %w", err)
	}

	if _, err := r.output.Write(output); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}

	if _, err := r.output.Write([]byte("\n")); err != nil {
		return fmt.Errorf("failed to write newline: %w", err)
	}

	return nil
}

func (r *Runner) writePlain(format string, args ...any) error {
	text := fmt.Sprintf(format, args...)
	if _, err := r.output.Write([]byte(text)); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func (r *Runner) writePlainHeader(title string) {
	r.writePlain("═══════════════════════════════════════\n")
	r.writePlain("%v\n", title)
	r.writePlain("═══════════════════════════════════════\n")
}
