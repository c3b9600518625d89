package database

import (
	"context"
	"database/sql"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/Rajesh82359/movie-data-pipeline/internal/domain"
	"github.com/pkg/errors"
)

const (
	moviesTable  = "movies"
	ratingsTable = "ratings"
)

type dialectSchema struct {
	movies  string
	ratings string
}

var schemas = map[domain.Driver]dialectSchema{
	domain.DriverSQLite: {
		movies: `
CREATE TABLE IF NOT EXISTS movies (
	movieId INTEGER PRIMARY KEY,
	title TEXT NOT NULL,
	genres TEXT,
	director TEXT,
	plot TEXT,
	box_office TEXT,
	year INTEGER,
	imdb_id TEXT,
	last_enriched_at TIMESTAMP
);`,
		ratings: `
CREATE TABLE IF NOT EXISTS ratings (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	userId INTEGER NOT NULL,
	movieId INTEGER NOT NULL,
	rating NUMERIC(3,2) NOT NULL,
	"timestamp" TIMESTAMP NULL,
	UNIQUE (userId, movieId)
);`,
	},
	domain.DriverPostgres: {
		movies: `
CREATE TABLE IF NOT EXISTS movies (
	movieId INTEGER PRIMARY KEY,
	title TEXT NOT NULL,
	genres TEXT,
	director TEXT,
	plot TEXT,
	box_office TEXT,
	year INTEGER,
	imdb_id TEXT,
	last_enriched_at TIMESTAMP
);`,
		ratings: `
CREATE TABLE IF NOT EXISTS ratings (
	id BIGSERIAL PRIMARY KEY,
	userId INTEGER NOT NULL,
	movieId INTEGER NOT NULL,
	rating NUMERIC(3,2) NOT NULL,
	"timestamp" TIMESTAMP NULL,
	UNIQUE (userId, movieId)
);`,
	},
}

func (db *DB) schema() (dialectSchema, error) {
	s, ok := schemas[db.Driver]
	if !ok {
		return dialectSchema{}, errors.Errorf("no schema for driver %s", db.Driver)
	}
	return s, nil
}

// EnsureSchema creates the movies and ratings tables when they are missing.
func (db *DB) EnsureSchema(ctx context.Context) error {
	db.lock.Lock()
	defer db.lock.Unlock()

	s, err := db.schema()
	if err != nil {
		return err
	}

	for _, stmt := range []string{s.movies, s.ratings} {
		if _, err := db.handler.ExecContext(ctx, stmt); err != nil {
			return errors.Wrap(err, "failed to initialize schema")
		}
	}

	db.log.Debug().Msg("Database schema ready")
	return nil
}

// TableExists reports whether a table with the given name exists.
func (db *DB) TableExists(ctx context.Context, name string) (bool, error) {
	var builder sq.SelectBuilder
	switch db.Driver {
	case domain.DriverPostgres:
		builder = db.squirrel.
			Select("table_name").
			From("information_schema.tables").
			Where("table_schema = current_schema()").
			Where(sq.Eq{"table_name": name})
	default:
		builder = db.squirrel.
			Select("name").
			From("sqlite_master").
			Where(sq.Eq{"type": "table", "name": name})
	}

	query, args, err := builder.ToSql()
	if err != nil {
		return false, errors.Wrap(err, "error building query")
	}

	db.log.Trace().Str("query", query).Interface("args", args).Msg("TableExists")

	var found string
	err = db.handler.QueryRowContext(ctx, query, args...).Scan(&found)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, errors.Wrap(err, "error executing query")
	}
	return true, nil
}

// RecreateRatingsTable moves an existing ratings table aside as
// ratings_bad_<YYYYMMDDHHMMSS> and creates an empty one. A failed rename is
// logged and tolerated. It returns the backup table name, if any.
func (db *DB) RecreateRatingsTable(ctx context.Context, now time.Time) (string, error) {
	s, err := db.schema()
	if err != nil {
		return "", err
	}

	var backup string
	exists, err := db.TableExists(ctx, ratingsTable)
	if err != nil {
		db.log.Warn().Err(err).Msg("Could not check for existing ratings table")
	}

	if exists {
		name := "ratings_bad_" + now.Format("20060102150405")
		if _, err := db.handler.ExecContext(ctx, "ALTER TABLE "+ratingsTable+" RENAME TO "+name); err != nil {
			db.log.Warn().Err(err).Str("table", name).Msg("Could not rename existing ratings table")
		} else {
			backup = name
			db.log.Info().Str("table", name).Msg("Renamed existing ratings table")
		}
	}

	if _, err := db.handler.ExecContext(ctx, s.ratings); err != nil {
		return backup, errors.Wrap(err, "failed to create ratings table")
	}

	db.log.Info().Msg("Created fresh ratings table")
	return backup, nil
}
