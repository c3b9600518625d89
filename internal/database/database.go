package database

import (
	"context"
	"database/sql"
	"fmt"
	"net/url"
	"path/filepath"
	"strconv"
	"sync"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/Rajesh82359/movie-data-pipeline/internal/domain"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	_ "modernc.org/sqlite"
)

// timeLayout is the column format for TIMESTAMP values written by the pipeline.
const timeLayout = "2006-01-02 15:04:05"

// DB wraps the relational store shared by the movie and rating repositories.
type DB struct {
	handler  *sql.DB
	log      zerolog.Logger
	lock     sync.RWMutex
	squirrel sq.StatementBuilderType

	Driver domain.Driver
	DSN    string
}

// NewDB opens and pings the configured store.
func NewDB(ctx context.Context, cfg *domain.Config, log zerolog.Logger) (*DB, error) {
	db := &DB{
		log:      log.With().Str("module", "database").Logger(),
		squirrel: sq.StatementBuilder.PlaceholderFormat(sq.Dollar),
		Driver:   cfg.DBDriver,
	}

	var driverName string
	switch cfg.DBDriver {
	case domain.DriverSQLite:
		driverName = "sqlite"
		db.DSN = sqliteDSN(cfg)
	case domain.DriverPostgres:
		driverName = "pgx"
		db.DSN = postgresDSN(cfg)
	default:
		return nil, errors.Errorf("unsupported database driver: %s", cfg.DBDriver)
	}

	var err error
	db.handler, err = sql.Open(driverName, db.DSN)
	if err != nil {
		return nil, errors.Wrap(err, "unable to connect to database")
	}

	// The pipeline is single threaded and holds one long transaction during
	// the movie phase. Every statement of that phase must go through it.
	db.handler.SetMaxOpenConns(1)

	if err := db.handler.PingContext(ctx); err != nil {
		db.handler.Close()
		return nil, errors.Wrap(err, "unable to reach database")
	}

	if db.Driver == domain.DriverSQLite {
		if _, err = db.handler.ExecContext(ctx, `PRAGMA journal_mode = wal;`); err != nil {
			db.handler.Close()
			return nil, errors.Wrap(err, "unable to enable WAL mode")
		}
	}

	db.log.Info().Str("driver", string(db.Driver)).Str("host", displayHost(cfg)).Msg("Connected to database")
	return db, nil
}

func sqliteDSN(cfg *domain.Config) string {
	name := cfg.DBName
	if filepath.Ext(name) == "" {
		name += ".db"
	}
	if !filepath.IsAbs(name) {
		name = filepath.Join(cfg.DataDir, name)
	}
	return name + "?_pragma=busy_timeout%3d1000"
}

func postgresDSN(cfg *domain.Config) string {
	u := url.URL{
		Scheme: "postgres",
		User:   url.UserPassword(cfg.DBUser, cfg.DBPassword),
		Host:   fmt.Sprintf("%s:%d", cfg.DBHost, cfg.DBPort),
		Path:   "/" + cfg.DBName,
	}
	q := u.Query()
	if cfg.DBSSLMode != "" {
		q.Set("sslmode", cfg.DBSSLMode)
	}
	u.RawQuery = q.Encode()
	return u.String()
}

func displayHost(cfg *domain.Config) string {
	if cfg.DBDriver == domain.DriverSQLite {
		return cfg.DataDir
	}
	return cfg.DBHost + ":" + strconv.Itoa(cfg.DBPort)
}

// Close closes the database connection
func (db *DB) Close() error {
	if db.Driver == domain.DriverSQLite {
		if _, err := db.handler.Exec(`PRAGMA optimize;`); err != nil {
			return errors.Wrap(err, "query planner optimization")
		}
	}

	return db.handler.Close()
}

// Ping checks if the database connection is alive
func (db *DB) Ping() error {
	return db.handler.Ping()
}

// BeginTx starts a new transaction
func (db *DB) BeginTx(ctx context.Context, opts *sql.TxOptions) (*Tx, error) {
	tx, err := db.handler.BeginTx(ctx, opts)
	if err != nil {
		return nil, errors.Wrap(err, "failed to begin transaction")
	}

	return &Tx{
		Tx:      tx,
		handler: db,
	}, nil
}

// Tx represents a database transaction
type Tx struct {
	*sql.Tx
	handler *DB
}

// WithSavepoint runs fn inside a savepoint. A failing fn is rolled back to the
// savepoint and the surrounding transaction stays usable.
func (tx *Tx) WithSavepoint(ctx context.Context, name string, fn func() error) error {
	if _, err := tx.ExecContext(ctx, "SAVEPOINT "+name); err != nil {
		return errors.Wrap(err, "failed to create savepoint")
	}

	if err := fn(); err != nil {
		if _, rbErr := tx.ExecContext(ctx, "ROLLBACK TO SAVEPOINT "+name); rbErr != nil {
			return errors.Wrapf(rbErr, "failed to roll back savepoint after: %v", err)
		}
		if _, relErr := tx.ExecContext(ctx, "RELEASE SAVEPOINT "+name); relErr != nil {
			tx.handler.log.Warn().Err(relErr).Str("savepoint", name).Msg("Failed to release savepoint")
		}
		return err
	}

	if _, err := tx.ExecContext(ctx, "RELEASE SAVEPOINT "+name); err != nil {
		return errors.Wrap(err, "failed to release savepoint")
	}
	return nil
}

// runner is satisfied by *sql.DB and *sql.Tx.
type runner interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func formatTimePtr(t *time.Time) any {
	if t == nil {
		return nil
	}
	return formatTime(*t)
}

// parseStoredTime reads a TIMESTAMP column scanned as text. Drivers that
// decode the column natively hand it back in RFC 3339.
func parseStoredTime(s string) (time.Time, error) {
	if t, err := time.ParseInLocation(timeLayout, s, time.UTC); err == nil {
		return t, nil
	}
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}, errors.Wrapf(err, "unrecognised timestamp %q", s)
	}
	return t.UTC(), nil
}
