package domain

import (
	"encoding/json"
	"time"
)

// Movie is a row of the movie catalog.
type Movie struct {
	MovieID int
	Title   string
	Genres  *string
}

// Enrichment is the metadata merged into a movie row after a successful lookup.
// The JSON field names match the on-disk cache format.
type Enrichment struct {
	Director   *string         `json:"director"`
	Plot       *string         `json:"plot"`
	BoxOffice  *string         `json:"box_office"`
	Year       *int            `json:"year"`
	ImdbID     *string         `json:"imdb_id"`
	Raw        json.RawMessage `json:"raw,omitempty"`
	EnrichedAt time.Time       `json:"enriched_at"`
}

// StoredMovie is a movie row as persisted, enrichment columns included.
type StoredMovie struct {
	Movie
	Director       *string
	Plot           *string
	BoxOffice      *string
	Year           *int
	ImdbID         *string
	LastEnrichedAt *string
}

// UnmatchedMovie records a title the metadata service could not resolve.
type UnmatchedMovie struct {
	MovieID  int    `yaml:"movieId"`
	Title    string `yaml:"title"`
	CacheKey string `yaml:"cacheKey"`
}

type UnmatchedMovies struct {
	Movies []UnmatchedMovie `yaml:"unmatchedMovies"`
}

func (u *UnmatchedMovies) Add(movieID int, title, key string) {
	u.Movies = append(u.Movies, UnmatchedMovie{
		MovieID:  movieID,
		Title:    title,
		CacheKey: key,
	})
}
