// Package ratings streams ratings.csv into the store in fixed-size chunks.
package ratings

import (
	"context"
	"encoding/csv"
	"io"
	"os"

	"github.com/Rajesh82359/movie-data-pipeline/internal/domain"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
)

type Service interface {
	Load(ctx context.Context, path string) (*Summary, error)
}

// Summary aggregates the chunk results of one load.
type Summary struct {
	Chunks       []domain.ChunkResult
	Inserted     int
	Bad          int
	FailedChunks int
}

type service struct {
	log       zerolog.Logger
	repo      domain.RatingRepository
	chunkSize int
}

func NewService(log zerolog.Logger, cfg *domain.Config, repo domain.RatingRepository) Service {
	chunkSize := cfg.ChunkSize
	if chunkSize <= 0 {
		chunkSize = 250000
	}
	return &service{
		log:       log.With().Str("module", "ratings").Logger(),
		repo:      repo,
		chunkSize: chunkSize,
	}
}

// Load reads path chunk by chunk. Bad rows are counted and dropped, a chunk
// that fails to write is rolled back and skipped. Only I/O errors on the
// file itself are returned.
func (s *service) Load(ctx context.Context, path string) (*Summary, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to open ratings file %s", path)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1
	r.ReuseRecord = true

	header, err := r.Read()
	if err == io.EOF {
		s.log.Warn().Str("path", path).Msg("Ratings file is empty")
		return &Summary{}, nil
	}
	if err != nil {
		return nil, errors.Wrap(err, "failed to read ratings header")
	}

	cols, err := readHeader(header)
	if err != nil {
		return nil, err
	}
	if cols.ts < 0 {
		s.log.Warn().Msg("Ratings file has no timestamp column, timestamps will be null")
	}

	sum := &Summary{}
	batch := make([]domain.Rating, 0, min(s.chunkSize, 100000))
	rows, bad := 0, 0

	flush := func() {
		res := domain.ChunkResult{Chunk: len(sum.Chunks) + 1, Bad: bad}
		s.log.Info().Int("chunk", res.Chunk).Msg("Processing ratings chunk")

		if len(batch) == 0 {
			s.log.Info().Int("chunk", res.Chunk).Int("rows_bad", bad).Msg("Chunk has no valid rows")
		} else if err := s.repo.UpsertChunk(ctx, batch); err != nil {
			res.Failed = true
			sum.FailedChunks++
			s.log.Error().Err(err).Int("chunk", res.Chunk).Msg("Failed to insert ratings chunk")
		} else {
			res.Inserted = len(batch)
			sum.Inserted += len(batch)
		}

		sum.Bad += bad
		res.Total = sum.Inserted
		sum.Chunks = append(sum.Chunks, res)

		if !res.Failed && res.Inserted > 0 {
			s.log.Info().
				Int("chunk", res.Chunk).
				Int("rows_inserted", res.Inserted).
				Int("rows_bad", res.Bad).
				Int("total", res.Total).
				Msg("Upserted ratings chunk")
		}

		batch = batch[:0]
		rows, bad = 0, 0
	}

	for {
		rec, err := r.Read()
		if err == io.EOF {
			break
		}

		var parseErr *csv.ParseError
		switch {
		case errors.As(err, &parseErr):
			bad++
		case err != nil:
			return sum, errors.Wrap(err, "failed to read ratings row")
		default:
			if rt, err := parseRow(rec, cols); err != nil {
				bad++
				s.log.Trace().Err(err).Msg("Dropping bad ratings row")
			} else {
				batch = append(batch, rt)
			}
		}

		rows++
		if rows == s.chunkSize {
			if err := ctx.Err(); err != nil {
				return sum, errors.Wrap(err, "ratings load cancelled")
			}
			flush()
		}
	}

	if rows > 0 {
		flush()
	}

	return sum, nil
}
