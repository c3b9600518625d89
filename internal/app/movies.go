package app

import (
	"context"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/Rajesh82359/movie-data-pipeline/internal/cache"
	"github.com/Rajesh82359/movie-data-pipeline/internal/database"
	"github.com/Rajesh82359/movie-data-pipeline/internal/domain"
	"github.com/Rajesh82359/movie-data-pipeline/internal/enrich"
	"github.com/Rajesh82359/movie-data-pipeline/internal/movies"
	"github.com/Rajesh82359/movie-data-pipeline/internal/omdb"
	"github.com/pkg/errors"
)

const (
	commitEvery    = 50
	cacheSaveEvery = 100
)

// loadMovies streams the catalog into the movies table, enriching rows on
// the way. ctx is watched for SIGINT and SIGTERM; dbCtx carries every
// database call so pending work can still be committed after an interrupt.
func (a *App) loadMovies(ctx, dbCtx context.Context, db *database.DB, opts RunOptions, stats *domain.Statistics) error {
	sigCtx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	catalog, err := movies.OpenCatalog(a.paths.MoviesPath, a.log)
	if err != nil {
		return errors.Wrap(err, "failed to load movies file")
	}
	defer catalog.Close()

	store := cache.Load(a.paths.CachePath, a.log)

	client := a.metadataClient
	if client == nil {
		client = omdb.NewClient(a.log, a.config)
	}
	enricher := enrich.NewService(a.log, a.config, store, client)

	repo := database.NewMovieRepo(a.log, db)
	loader := movies.NewLoader(a.log, repo)
	unmatched := &domain.UnmatchedMovies{}

	if err := repo.Begin(dbCtx); err != nil {
		return err
	}
	defer repo.Rollback()

	phase := &moviePhase{
		app:       a,
		enricher:  enricher,
		loader:    loader,
		repo:      repo,
		unmatched: unmatched,
		stats:     stats,
	}

	var readErr error
	rateLimitLogged := false

	for {
		if sigCtx.Err() != nil {
			stats.Interrupted = true
			break
		}
		if opts.Limit >= 0 && stats.MoviesProcessed >= opts.Limit {
			break
		}

		m, err := catalog.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			readErr = err
			break
		}

		if !loader.Upsert(dbCtx, m) {
			stats.MoviesFailed++
		}

		if !opts.NoEnrich {
			if enricher.RateLimited() {
				if !rateLimitLogged {
					a.log.Warn().Msg("Stopping enrichment: OMDb rate limit reached earlier in this run")
					rateLimitLogged = true
				}
			} else {
				phase.enrich(sigCtx, dbCtx, m)
			}
		}

		stats.MoviesProcessed++
		if stats.MoviesProcessed%cacheSaveEvery == 0 {
			store.SaveOrWarn()
			a.log.Info().
				Int("processed", stats.MoviesProcessed).
				Int("enriched", stats.MoviesEnriched).
				Msg("Processed movies")
		}
	}

	if stats.Interrupted {
		a.log.Warn().Msg("Interrupted, saving cache and committing before exit")
	}

	store.SaveOrWarn()
	a.storeUnmatched(dbCtx, unmatched)

	if err := repo.Commit(); err != nil {
		a.log.Error().Err(err).Msg("Failed to commit movies")
	} else if stats.Interrupted {
		a.log.Info().Msg("Partial changes committed")
	}

	stats.MoviesSkipped = catalog.Skipped()
	stats.Unmatched = len(unmatched.Movies)
	stats.ExternalCalls = client.Calls()
	stats.RateLimited = client.RateLimited()

	a.log.Info().
		Int("processed", stats.MoviesProcessed).
		Int("enriched", stats.MoviesEnriched).
		Int("skipped", stats.MoviesSkipped).
		Int("omdb_calls", stats.ExternalCalls).
		Msg("Finished processing movies")

	if readErr != nil {
		return errors.Wrap(readErr, "failed to read movies file")
	}
	return nil
}

// moviePhase holds the collaborators of one movie-phase run.
type moviePhase struct {
	app       *App
	enricher  enrich.Service
	loader    *movies.Loader
	repo      *database.MovieRepo
	unmatched *domain.UnmatchedMovies
	stats     *domain.Statistics
}

func (p *moviePhase) enrich(ctx, dbCtx context.Context, m domain.Movie) {
	res := p.enricher.Lookup(ctx, m.Title)

	if !res.Found() {
		if !res.Aborted && p.app.config.OMDbAPIKey != "" {
			p.unmatched.Add(m.MovieID, m.Title, res.Key)
		}
		return
	}

	if !p.loader.ApplyEnrichment(dbCtx, m.MovieID, res.Enrichment) {
		return
	}

	p.stats.MoviesEnriched++
	if p.stats.MoviesEnriched%commitEvery == 0 {
		if err := p.repo.Checkpoint(dbCtx); err != nil {
			p.app.log.Warn().Err(err).Msg("Periodic commit failed")
		} else {
			p.app.log.Info().Int("enriched", p.stats.MoviesEnriched).Msg("Committed enrichments")
		}
	}
}

// storeUnmatched replaces the report of the previous run, even when this run
// has nothing to report.
func (a *App) storeUnmatched(ctx context.Context, unmatched *domain.UnmatchedMovies) {
	if unmatched.Movies == nil {
		unmatched.Movies = []domain.UnmatchedMovie{}
	}
	if err := a.unmatchedRepo.StoreUnmatched(ctx, a.paths.UnmatchedPath, unmatched); err != nil {
		a.log.Warn().Err(err).Str("path", a.paths.UnmatchedPath).Msg("Failed to write unmatched titles")
	}
}
