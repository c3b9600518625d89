package database

import (
	"context"
	"database/sql"

	sq "github.com/Masterminds/squirrel"
	"github.com/Rajesh82359/movie-data-pipeline/internal/domain"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
)

// ratingsBatchSize bounds the rows of one INSERT statement.
const ratingsBatchSize = 500

const ratingsConflict = `ON CONFLICT (userId, movieId) DO UPDATE SET rating = excluded.rating, "timestamp" = COALESCE(excluded."timestamp", ratings."timestamp")`

type RatingRepo struct {
	log       zerolog.Logger
	db        *DB
	batchSize int
}

var _ domain.RatingRepository = (*RatingRepo)(nil)

func NewRatingRepo(log zerolog.Logger, db *DB) *RatingRepo {
	return &RatingRepo{
		log:       log.With().Str("repo", "ratings").Logger(),
		db:        db,
		batchSize: ratingsBatchSize,
	}
}

// UpsertChunk writes ratings in one transaction. Existing rows get the new
// rating, and the new timestamp only when it is set. On error nothing from
// the chunk is kept.
func (r *RatingRepo) UpsertChunk(ctx context.Context, ratings []domain.Rating) error {
	rows := collapse(ratings)
	if len(rows) == 0 {
		return nil
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	for start := 0; start < len(rows); start += r.batchSize {
		end := min(start+r.batchSize, len(rows))

		queryBuilder := r.db.squirrel.
			Insert(ratingsTable).
			Columns("userId", "movieId", "rating", `"timestamp"`).
			Suffix(ratingsConflict)

		for _, row := range rows[start:end] {
			queryBuilder = queryBuilder.Values(row.UserID, row.MovieID, row.Rating.Round(2), formatTimePtr(row.Timestamp))
		}

		query, args, err := queryBuilder.ToSql()
		if err != nil {
			return errors.Wrap(err, "error building query")
		}

		r.log.Trace().Int("rows", end-start).Msg("UpsertChunk batch")

		if _, err := tx.ExecContext(ctx, query, args...); err != nil {
			return errors.Wrap(err, "error executing query")
		}
	}

	if err := tx.Commit(); err != nil {
		return errors.Wrap(err, "failed to commit ratings chunk")
	}
	return nil
}

// collapse merges repeated (userId, movieId) pairs so a single statement
// never touches the same row twice. Later rows win; a missing timestamp
// keeps the earlier one.
func collapse(ratings []domain.Rating) []domain.Rating {
	type pair struct{ user, movie int }

	out := make([]domain.Rating, 0, len(ratings))
	seen := make(map[pair]int, len(ratings))
	for _, rt := range ratings {
		k := pair{rt.UserID, rt.MovieID}
		i, ok := seen[k]
		if !ok {
			seen[k] = len(out)
			out = append(out, rt)
			continue
		}
		out[i].Rating = rt.Rating
		if rt.Timestamp != nil {
			out[i].Timestamp = rt.Timestamp
		}
	}
	return out
}

// GetRating returns the stored rating for a user and movie.
func (r *RatingRepo) GetRating(ctx context.Context, userID, movieID int) (*domain.Rating, error) {
	queryBuilder := r.db.squirrel.
		Select("userId", "movieId", "rating", `"timestamp"`).
		From(ratingsTable).
		Where(sq.Eq{"userId": userID, "movieId": movieID})

	query, args, err := queryBuilder.ToSql()
	if err != nil {
		return nil, errors.Wrap(err, "error building query")
	}

	r.log.Trace().Str("query", query).Interface("args", args).Msg("GetRating")

	var (
		rt domain.Rating
		ts sql.NullString
	)
	err = r.db.handler.QueryRowContext(ctx, query, args...).Scan(&rt.UserID, &rt.MovieID, &rt.Rating, &ts)
	if err != nil {
		return nil, errors.Wrap(err, "error scanning row")
	}

	if ts.Valid {
		t, err := parseStoredTime(ts.String)
		if err != nil {
			return nil, err
		}
		rt.Timestamp = &t
	}

	return &rt, nil
}

// CountRatings returns the number of stored ratings.
func (r *RatingRepo) CountRatings(ctx context.Context) (int, error) {
	return r.db.count(ctx, r.db.handler, ratingsTable)
}

// CountRatingsIn counts rows of an arbitrary ratings table, such as a backup.
func (r *RatingRepo) CountRatingsIn(ctx context.Context, table string) (int, error) {
	return r.db.count(ctx, r.db.handler, table)
}
