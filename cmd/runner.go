package main

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/listkit/internal/formatter"
	"github.com/desertthunder/listkit/internal/journal"
	"github.com/desertthunder/listkit/internal/models"
	"github.com/desertthunder/listkit/internal/repositories"
	"github.com/desertthunder/listkit/internal/services"
	"github.com/desertthunder/listkit/internal/shared"
	"github.com/desertthunder/listkit/internal/tasks"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/urfave/cli/v3"
)

// Runner holds all dependencies for CLI commands and provides methods for each command action.
type Runner struct {
	config     *shared.Config
	configPath string
	logger     *log.Logger
	output     io.Writer
	progress   io.Writer
	registry   *prometheus.Registry
	metrics    *tasks.Metrics

	mu    sync.Mutex
	repos map[models.Provider]services.ProviderRepository
	store journal.Store
	db    *sql.DB
}

// RunnerOpts contains configuration options for creating a Runner.
type RunnerOpts struct {
	Config     *shared.Config
	ConfigPath string
	Logger     *log.Logger
	Output     io.Writer
	Progress   io.Writer

	// Repositories replaces the HTTP provider adapters, keyed by provider.
	Repositories map[models.Provider]services.ProviderRepository
	// Store replaces the sqlite journal store.
	Store journal.Store
}

// NewRunner creates a new Runner with the provided configuration.
//
// Without a Config the runner loads one from ConfigPath before the first command runs.
func NewRunner(opts RunnerOpts) *Runner {
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}
	if opts.Output == nil {
		opts.Output = os.Stdout
	}
	if opts.Progress == nil {
		opts.Progress = os.Stderr
	}
	if opts.Repositories == nil {
		opts.Repositories = make(map[models.Provider]services.ProviderRepository)
	}

	registry := prometheus.NewRegistry()
	metrics, err := tasks.NewMetrics(registry)
	if err != nil {
		opts.Logger.Warn("metrics disabled", "error", err)
	}

	return &Runner{
		config:     opts.Config,
		configPath: opts.ConfigPath,
		logger:     opts.Logger,
		output:     opts.Output,
		progress:   opts.Progress,
		registry:   registry,
		metrics:    metrics,
		repos:      opts.Repositories,
		store:      opts.Store,
	}
}

func (r *Runner) register() []*cli.Command {
	commands := []*cli.Command{}
	for _, fn := range [](func(*Runner) *cli.Command){
		setupCommand, playlistsCommand, copyCommand, mergeCommand, extractCommand,
		shuffleCommand, importCommand, deleteCommand, structuredCommand, historyCommand,
	} {
		commands = append(commands, fn(r))
	}

	return commands
}

// app builds the root command.
func (r *Runner) app() *cli.Command {
	return &cli.Command{
		Name:    "listkit",
		Usage:   "Bulk playlist operations for Spotify & YouTube with undo",
		Version: "0.1.0",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Path to configuration file",
				Value:   "config.toml",
			},
		},
		Before:   r.Configure,
		After:    r.Flush,
		Commands: r.register(),
	}
}

// Configure loads the config file (falling back to defaults when it does not exist),
// applies environment overrides and sets the log level.
func (r *Runner) Configure(ctx context.Context, cmd *cli.Command) (context.Context, error) {
	if r.config != nil {
		return ctx, nil
	}

	path := cmd.String("config")
	if path == "" {
		path = r.configPath
	}
	r.configPath = path

	config := shared.DefaultConfig()
	if _, err := os.Stat(path); err == nil {
		if config, err = shared.LoadConfig(path); err != nil {
			return ctx, err
		}
	} else {
		r.logger.Debug("config file not found, using defaults", "path", path)
	}

	if err := config.ApplyEnv(".env", filepath.Join(filepath.Dir(path), ".env")); err != nil {
		return ctx, err
	}
	if err := config.Validate(); err != nil {
		return ctx, err
	}

	shared.SetLogLevel(r.logger, shared.ParseLogLevel(config.Logging.Level))
	r.config = config
	return ctx, nil
}

// Flush writes the metrics textfile when one is configured.
func (r *Runner) Flush(ctx context.Context, cmd *cli.Command) error {
	if r.config == nil || r.config.Metrics.Textfile == "" {
		return nil
	}
	return tasks.WriteTextfile(r.registry, r.config.Metrics.Textfile)
}

// Close releases the journal database.
func (r *Runner) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.db == nil {
		return nil
	}
	err := r.db.Close()
	r.db, r.store = nil, nil
	return err
}

// repository returns the adapter for provider, building the HTTP one on first use.
func (r *Runner) repository(provider models.Provider) services.ProviderRepository {
	r.mu.Lock()
	defer r.mu.Unlock()

	if repo, ok := r.repos[provider]; ok {
		return repo
	}

	rateLimit := services.WithRateLimit(r.config.Orchestrator.RateLimit)
	var repo services.ProviderRepository
	switch provider {
	case models.ProviderYouTube:
		repo = services.NewYouTubeRepository(r.config.Providers.YouTube.BaseURL, rateLimit)
	default:
		repo = services.NewSpotifyRepository(r.config.Providers.Spotify.BaseURL, rateLimit)
	}
	r.repos[provider] = repo
	return repo
}

// journalStore opens the sqlite journal on first use.
func (r *Runner) journalStore() (journal.Store, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.store != nil {
		return r.store, nil
	}

	db, err := shared.OpenJournalDatabase(r.config.Database)
	if err != nil {
		return nil, fmt.Errorf("failed to open journal: %w", err)
	}
	r.db = db
	r.store = repositories.NewCommandRepository(db)
	return r.store, nil
}

func (r *Runner) token(provider models.Provider) string {
	if provider == models.ProviderYouTube {
		return r.config.Providers.YouTube.AccessToken
	}
	return r.config.Providers.Spotify.AccessToken
}

func (r *Runner) retryPolicy() services.RetryPolicy {
	return services.RetryPolicy{
		MaxAttempts: r.config.Orchestrator.MaxAttempts,
		Delay:       r.config.Orchestrator.RetryDelay,
	}
}

// history loads the persisted journal for provider.
func (r *Runner) history(ctx context.Context, provider models.Provider) (*journal.History, error) {
	store, err := r.journalStore()
	if err != nil {
		return nil, err
	}

	repo := r.repository(provider)
	h := journal.NewHistory(repo, services.NewToken(r.token(provider)),
		journal.WithStore(store),
		journal.WithRetryPolicy(r.retryPolicy()),
		journal.WithLogger(shared.WithLogger(r.logger, "provider", provider)),
		journal.WithInverseHook(r.metrics.ObserveUndo),
	)
	if err := h.Load(ctx); err != nil {
		return nil, err
	}
	return h, nil
}

// engine builds a playlist engine for provider backed by the persisted journal.
func (r *Runner) engine(ctx context.Context, provider models.Provider) (*tasks.PlaylistEngine, error) {
	token := r.token(provider)
	if token == "" {
		return nil, fmt.Errorf("%w: no %s access token (set providers.%s.access_token or %s)",
			shared.ErrMissingCredentials, provider, provider, tokenEnv(provider))
	}

	history, err := r.history(ctx, provider)
	if err != nil {
		return nil, err
	}

	privacy, err := models.ParsePrivacy(r.config.Orchestrator.DefaultPrivacy)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", shared.ErrInvalidConfig, err)
	}

	return tasks.NewPlaylistEngine(r.repository(provider), services.NewToken(token), history,
		tasks.WithRetryPolicy(r.retryPolicy()),
		tasks.WithLogger(shared.WithLogger(r.logger, "provider", provider)),
		tasks.WithMetrics(r.metrics),
		tasks.WithDefaultPrivacy(privacy),
	), nil
}

func tokenEnv(provider models.Provider) string {
	if provider == models.ProviderYouTube {
		return shared.EnvYouTubeToken
	}
	return shared.EnvSpotifyToken
}

// track runs fn with a progress channel whose updates are printed as they arrive.
// It returns once fn has returned and every update has been printed.
func (r *Runner) track(quiet bool, fn func(progress chan<- tasks.ProgressUpdate) error) error {
	progressCh := make(chan tasks.ProgressUpdate, 50)
	done := make(chan struct{})
	go func() {
		defer close(done)
		for update := range progressCh {
			if quiet {
				r.logger.Debug(update.Message, "phase", update.Phase, "step", update.Step, "total", update.Total)
				continue
			}
			fmt.Fprintln(r.progress, formatter.RenderProgress(update))
		}
	}()

	err := fn(progressCh)
	close(progressCh)
	<-done
	return err
}

func (r *Runner) writeJSON(data any, pretty bool) error {
	var output []byte
	var err error

	if pretty {
		output, err = json.MarshalIndent(data, "", "  ")
	} else {
		output, err = json.Marshal(data)
	}

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
