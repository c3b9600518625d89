package ratings

import (
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/Rajesh82359/movie-data-pipeline/internal/domain"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
)

// maxRating is the exclusive bound of the NUMERIC(3,2) rating column.
var maxRating = decimal.NewFromInt(10)

// columns holds the header positions of a ratings file. ts is -1 when the
// file carries no timestamp column.
type columns struct {
	user, movie, rating, ts int
}

func readHeader(header []string) (columns, error) {
	cols := columns{user: -1, movie: -1, rating: -1, ts: -1}
	for i, name := range header {
		switch strings.TrimSpace(strings.TrimPrefix(name, "\ufeff")) {
		case "userId":
			cols.user = i
		case "movieId":
			cols.movie = i
		case "rating":
			cols.rating = i
		case "timestamp":
			cols.ts = i
		}
	}
	if cols.user < 0 || cols.movie < 0 || cols.rating < 0 {
		return cols, errors.New("ratings header must contain userId, movieId and rating")
	}
	return cols, nil
}

// parseRow coerces one record. Any invalid id or rating makes the row bad;
// an invalid timestamp only clears the timestamp.
func parseRow(rec []string, cols columns) (domain.Rating, error) {
	var r domain.Rating
	var err error

	if r.UserID, err = parseID(field(rec, cols.user)); err != nil {
		return r, errors.Wrap(err, "userId")
	}
	if r.MovieID, err = parseID(field(rec, cols.movie)); err != nil {
		return r, errors.Wrap(err, "movieId")
	}

	d, err := decimal.NewFromString(strings.TrimSpace(field(rec, cols.rating)))
	if err != nil {
		return r, errors.Wrap(err, "rating")
	}
	r.Rating = d.Round(2)
	if r.Rating.Abs().GreaterThanOrEqual(maxRating) {
		return r, errors.Errorf("rating out of range %q", field(rec, cols.rating))
	}

	if cols.ts >= 0 {
		r.Timestamp = parseEpoch(field(rec, cols.ts))
	}
	return r, nil
}

// parseID accepts integers, including float notation with no fraction.
// Values must fit the INTEGER id columns.
func parseID(s string) (int, error) {
	s = strings.TrimSpace(s)
	if n, err := strconv.ParseInt(s, 10, 64); err == nil {
		if n > math.MaxInt32 || n < math.MinInt32 {
			return 0, errors.Errorf("integer out of range %q", s)
		}
		return int(n), nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) || f != math.Trunc(f) {
		return 0, errors.Errorf("invalid integer %q", s)
	}
	if f > math.MaxInt32 || f < math.MinInt32 {
		return 0, errors.Errorf("integer out of range %q", s)
	}
	return int(f), nil
}

// parseEpoch converts epoch seconds to a UTC time truncated to the second.
// Missing or unparseable values yield nil.
func parseEpoch(s string) *time.Time {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}

	var t time.Time
	if sec, err := strconv.ParseInt(s, 10, 64); err == nil {
		t = time.Unix(sec, 0).UTC()
	} else {
		f, err := strconv.ParseFloat(s, 64)
		if err != nil || math.IsNaN(f) || math.IsInf(f, 0) || math.Abs(f) > 1e12 {
			return nil
		}
		t = time.Unix(int64(math.Floor(f)), 0).UTC()
	}

	if t.Year() < 1000 || t.Year() > 9999 {
		return nil
	}
	return &t
}

func field(rec []string, i int) string {
	if i < 0 || i >= len(rec) {
		return ""
	}
	return rec[i]
}
