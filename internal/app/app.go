package app

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/Rajesh82359/movie-data-pipeline/internal/cache"
	"github.com/Rajesh82359/movie-data-pipeline/internal/config"
	"github.com/Rajesh82359/movie-data-pipeline/internal/database"
	"github.com/Rajesh82359/movie-data-pipeline/internal/domain"
	"github.com/Rajesh82359/movie-data-pipeline/internal/logger"
	"github.com/Rajesh82359/movie-data-pipeline/internal/notification"
	"github.com/Rajesh82359/movie-data-pipeline/internal/ratings"
	"github.com/Rajesh82359/movie-data-pipeline/internal/repository"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
)

// ErrMoviesFileMissing is returned when the catalog file does not exist.
var ErrMoviesFileMissing = errors.New("movies file not found")

// RunOptions are the per-run switches exposed on the command line.
type RunOptions struct {
	// Limit caps the number of catalog rows processed; negative means no cap.
	Limit           int
	NoEnrich        bool
	RecreateRatings bool
}

// App represents the main application with all dependencies initialized
type App struct {
	log                 zerolog.Logger
	config              *domain.Config
	paths               *domain.Paths
	unmatchedRepo       domain.UnmatchedRepository
	notificationService domain.NotificationService
	metadataClient      domain.MetadataClient
	now                 func() time.Time
}

type Option func(*App)

// WithMetadataClient replaces the OMDb client.
func WithMetadataClient(c domain.MetadataClient) Option {
	return func(a *App) {
		a.metadataClient = c
	}
}

func WithNotifier(n domain.NotificationService) Option {
	return func(a *App) {
		a.notificationService = n
	}
}

func WithClock(fn func() time.Time) Option {
	return func(a *App) {
		a.now = fn
	}
}

// NewApp loads configuration from the environment and builds the application.
func NewApp(opts ...Option) (*App, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	return New(logger.NewLoggerWithLevel(cfg.LogLevel), cfg, opts...), nil
}

// New builds the application from an explicit configuration.
func New(log zerolog.Logger, cfg *domain.Config, opts ...Option) *App {
	a := &App{
		log:                 log,
		config:              cfg,
		paths:               domain.NewPaths(cfg.DataDir),
		unmatchedRepo:       repository.NewFileRepository(log),
		notificationService: notification.NewService(log, cfg.DiscordWebhookURL),
		now:                 time.Now,
	}

	for _, opt := range opts {
		opt(a)
	}

	return a
}

func (a *App) Paths() *domain.Paths {
	return a.paths
}

// Run executes the import: connect, optionally recreate the ratings table,
// load movies with enrichment, then load ratings. An interrupt during the
// movie phase ends the run early without an error.
func (a *App) Run(ctx context.Context, opts RunOptions) (err error) {
	notifyCtx := context.WithoutCancel(ctx)

	defer func() {
		if err != nil {
			a.log.Error().Err(err).Msg("Run failed")
			if notifyErr := a.notificationService.SendError(notifyCtx, err); notifyErr != nil {
				a.log.Warn().Err(notifyErr).Msg("Failed to send error notification")
			}
		}
	}()

	a.log.Info().Str("data_dir", a.paths.RootDir).Msg("Starting ETL process")

	lock, err := cache.AcquireRunLock(a.paths.CachePath)
	if err != nil {
		return err
	}
	defer lock.Release()

	// Database work must survive an interrupt long enough to commit.
	dbCtx := context.WithoutCancel(ctx)

	db, err := database.NewDB(dbCtx, a.config, a.log)
	if err != nil {
		return errors.Wrap(err, "failed to connect to database")
	}
	defer func() {
		if closeErr := db.Close(); closeErr != nil {
			a.log.Warn().Err(closeErr).Msg("Failed to close database")
		}
		a.log.Info().Msg("Database connection closed")
	}()

	if opts.RecreateRatings {
		if _, err := db.RecreateRatingsTable(dbCtx, a.now()); err != nil {
			return errors.Wrap(err, "failed to recreate ratings table")
		}
	}

	if err := db.EnsureSchema(dbCtx); err != nil {
		return err
	}

	if _, err := os.Stat(a.paths.MoviesPath); err != nil {
		if os.IsNotExist(err) {
			return errors.Wrap(ErrMoviesFileMissing, a.paths.MoviesPath)
		}
		return errors.Wrap(err, "failed to stat movies file")
	}

	ratingsPresent := true
	if _, err := os.Stat(a.paths.RatingsPath); err != nil {
		a.log.Warn().Str("path", a.paths.RatingsPath).Msg("Ratings file not found, continuing only with movies")
		ratingsPresent = false
	}

	stats := domain.Statistics{}

	if err := a.loadMovies(ctx, dbCtx, db, opts, &stats); err != nil {
		return err
	}

	if stats.Interrupted {
		a.sendSummary(notifyCtx, stats)
		return nil
	}

	if ratingsPresent {
		a.loadRatings(dbCtx, db, &stats)
	} else {
		a.log.Info().Msg("Skipping ratings import")
	}

	a.sendSummary(notifyCtx, stats)
	a.log.Info().Msg("ETL finished")
	return nil
}

func (a *App) loadRatings(ctx context.Context, db *database.DB, stats *domain.Statistics) {
	repo := database.NewRatingRepo(a.log, db)
	svc := ratings.NewService(a.log, a.config, repo)

	sum, err := svc.Load(ctx, a.paths.RatingsPath)
	if sum != nil {
		stats.RatingChunks = len(sum.Chunks)
		stats.RatingChunksBad = sum.FailedChunks
		stats.RatingsInserted = sum.Inserted
		stats.RatingsBad = sum.Bad
	}
	if err != nil {
		a.log.Error().Err(err).Msg("Ratings import stopped")
	}
}

func (a *App) sendSummary(ctx context.Context, stats domain.Statistics) {
	if err := a.notificationService.SendSuccess(ctx, stats); err != nil {
		a.log.Warn().Err(err).Msg("Failed to send success notification")
	}
}
