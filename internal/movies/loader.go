// Package movies reads the movie catalog and writes it to the store.
package movies

import (
	"context"

	"github.com/Rajesh82359/movie-data-pipeline/internal/domain"
	"github.com/rs/zerolog"
)

// Loader applies catalog rows and enrichment records. Row failures are
// logged and reported through the return value, never propagated.
type Loader struct {
	log  zerolog.Logger
	repo domain.MovieRepository
}

func NewLoader(log zerolog.Logger, repo domain.MovieRepository) *Loader {
	return &Loader{
		log:  log.With().Str("module", "movies").Logger(),
		repo: repo,
	}
}

// Upsert writes m and reports whether it succeeded.
func (l *Loader) Upsert(ctx context.Context, m domain.Movie) bool {
	if err := l.repo.UpsertMovie(ctx, m); err != nil {
		l.log.Error().Err(err).Int("movie_id", m.MovieID).Str("title", m.Title).Msg("Failed to insert/update movie")
		return false
	}
	return true
}

// ApplyEnrichment writes e for movieID and reports whether it succeeded.
func (l *Loader) ApplyEnrichment(ctx context.Context, movieID int, e *domain.Enrichment) bool {
	if e == nil {
		return false
	}
	if err := l.repo.ApplyEnrichment(ctx, movieID, e); err != nil {
		l.log.Warn().Err(err).Int("movie_id", movieID).Msg("Could not write enrichment")
		return false
	}
	return true
}
