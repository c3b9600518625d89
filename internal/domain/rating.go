package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Rating is one user's rating of one movie. (UserID, MovieID) is unique.
type Rating struct {
	UserID    int
	MovieID   int
	Rating    decimal.Decimal
	Timestamp *time.Time
}

// ChunkResult summarises one ratings chunk.
type ChunkResult struct {
	Chunk    int
	Inserted int
	Bad      int
	Total    int
	Failed   bool
}
