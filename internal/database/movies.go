package database

import (
	"context"
	"database/sql"

	sq "github.com/Masterminds/squirrel"
	"github.com/Rajesh82359/movie-data-pipeline/internal/domain"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
)

// MovieRepo writes catalog rows. Writes go through an open batch transaction
// when one is active, so they can be committed in groups.
type MovieRepo struct {
	log zerolog.Logger
	db  *DB
	tx  *Tx
}

var _ domain.MovieRepository = (*MovieRepo)(nil)

func NewMovieRepo(log zerolog.Logger, db *DB) *MovieRepo {
	return &MovieRepo{
		log: log.With().Str("repo", "movies").Logger(),
		db:  db,
	}
}

// Begin opens the batch transaction.
func (r *MovieRepo) Begin(ctx context.Context) error {
	if r.tx != nil {
		return errors.New("movie transaction already open")
	}
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	r.tx = tx
	return nil
}

// Commit commits the batch transaction, if any.
func (r *MovieRepo) Commit() error {
	if r.tx == nil {
		return nil
	}
	tx := r.tx
	r.tx = nil
	if err := tx.Commit(); err != nil {
		return errors.Wrap(err, "failed to commit movie transaction")
	}
	return nil
}

// Checkpoint commits pending writes and opens a new batch transaction. A new
// transaction is opened even when the commit fails.
func (r *MovieRepo) Checkpoint(ctx context.Context) error {
	commitErr := r.Commit()
	if err := r.Begin(ctx); err != nil {
		return err
	}
	return commitErr
}

// Rollback discards the batch transaction, if any.
func (r *MovieRepo) Rollback() error {
	if r.tx == nil {
		return nil
	}
	tx := r.tx
	r.tx = nil
	if err := tx.Rollback(); err != nil && !errors.Is(err, sql.ErrTxDone) {
		return errors.Wrap(err, "failed to roll back movie transaction")
	}
	return nil
}

func (r *MovieRepo) runner() runner {
	if r.tx != nil {
		return r.tx
	}
	return r.db.handler
}

// guarded runs fn inside a savepoint when a batch transaction is open.
func (r *MovieRepo) guarded(ctx context.Context, fn func() error) error {
	if r.tx == nil {
		return fn()
	}
	return r.tx.WithSavepoint(ctx, "movie_row", fn)
}

// UpsertMovie inserts the movie or overwrites title and genres of an existing row.
func (r *MovieRepo) UpsertMovie(ctx context.Context, m domain.Movie) error {
	queryBuilder := r.db.squirrel.
		Insert(moviesTable).
		Columns("movieId", "title", "genres").
		Values(m.MovieID, m.Title, m.Genres).
		Suffix("ON CONFLICT (movieId) DO UPDATE SET title = excluded.title, genres = excluded.genres")

	query, args, err := queryBuilder.ToSql()
	if err != nil {
		return errors.Wrap(err, "error building query")
	}

	r.log.Trace().Str("query", query).Interface("args", args).Msg("UpsertMovie")

	return r.guarded(ctx, func() error {
		if _, err := r.runner().ExecContext(ctx, query, args...); err != nil {
			return errors.Wrap(err, "error executing query")
		}
		return nil
	})
}

// ApplyEnrichment stores metadata columns for movieID.
func (r *MovieRepo) ApplyEnrichment(ctx context.Context, movieID int, e *domain.Enrichment) error {
	if e == nil {
		return nil
	}

	queryBuilder := r.db.squirrel.
		Update(moviesTable).
		Set("director", e.Director).
		Set("plot", e.Plot).
		Set("box_office", e.BoxOffice).
		Set("year", e.Year).
		Set("imdb_id", e.ImdbID).
		Set("last_enriched_at", formatTime(e.EnrichedAt)).
		Where(sq.Eq{"movieId": movieID})

	query, args, err := queryBuilder.ToSql()
	if err != nil {
		return errors.Wrap(err, "error building query")
	}

	r.log.Trace().Str("query", query).Interface("args", args).Msg("ApplyEnrichment")

	return r.guarded(ctx, func() error {
		res, err := r.runner().ExecContext(ctx, query, args...)
		if err != nil {
			return errors.Wrap(err, "error executing query")
		}
		if n, err := res.RowsAffected(); err == nil && n == 0 {
			r.log.Debug().Int("movie_id", movieID).Msg("No movie row to enrich")
		}
		return nil
	})
}

// GetMovie returns the stored row for movieID.
func (r *MovieRepo) GetMovie(ctx context.Context, movieID int) (*domain.StoredMovie, error) {
	queryBuilder := r.db.squirrel.
		Select("movieId", "title", "genres", "director", "plot", "box_office", "year", "imdb_id", "last_enriched_at").
		From(moviesTable).
		Where(sq.Eq{"movieId": movieID})

	query, args, err := queryBuilder.ToSql()
	if err != nil {
		return nil, errors.Wrap(err, "error building query")
	}

	r.log.Trace().Str("query", query).Interface("args", args).Msg("GetMovie")

	var m domain.StoredMovie
	var genres, director, plot, boxOffice, imdbID, enrichedAt sql.NullString
	var year sql.NullInt64
	err = r.runner().QueryRowContext(ctx, query, args...).
		Scan(&m.MovieID, &m.Title, &genres, &director, &plot, &boxOffice, &year, &imdbID, &enrichedAt)
	if err != nil {
		return nil, errors.Wrap(err, "error scanning row")
	}

	m.Genres = nullString(genres)
	m.Director = nullString(director)
	m.Plot = nullString(plot)
	m.BoxOffice = nullString(boxOffice)
	m.ImdbID = nullString(imdbID)
	if enrichedAt.Valid {
		if t, err := parseStoredTime(enrichedAt.String); err == nil {
			s := formatTime(t)
			m.LastEnrichedAt = &s
		} else {
			m.LastEnrichedAt = &enrichedAt.String
		}
	}
	if year.Valid {
		y := int(year.Int64)
		m.Year = &y
	}

	return &m, nil
}

// CountMovies returns the number of catalog rows.
func (r *MovieRepo) CountMovies(ctx context.Context) (int, error) {
	return r.db.count(ctx, r.runner(), moviesTable)
}

func (db *DB) count(ctx context.Context, q runner, table string) (int, error) {
	query, args, err := db.squirrel.Select("COUNT(*)").From(table).ToSql()
	if err != nil {
		return 0, errors.Wrap(err, "error building query")
	}

	var n int
	if err := q.QueryRowContext(ctx, query, args...).Scan(&n); err != nil {
		return 0, errors.Wrap(err, "error executing query")
	}
	return n, nil
}

func nullString(v sql.NullString) *string {
	if !v.Valid {
		return nil
	}
	s := v.String
	return &s
}
