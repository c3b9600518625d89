package domain

import "context"

// RatingRepository writes one chunk of ratings in a single transaction.
type RatingRepository interface {
	UpsertChunk(ctx context.Context, ratings []Rating) error
}

// UnmatchedRepository persists the unmatched-titles report.
type UnmatchedRepository interface {
	GetUnmatched(ctx context.Context, path string) (*UnmatchedMovies, error)
	StoreUnmatched(ctx context.Context, path string, movies *UnmatchedMovies) error
}

// MovieRepository writes catalog rows and their enrichment columns.
type MovieRepository interface {
	UpsertMovie(ctx context.Context, m Movie) error
	ApplyEnrichment(ctx context.Context, movieID int, e *Enrichment) error
}
