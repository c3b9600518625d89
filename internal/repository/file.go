package repository

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/Rajesh82359/movie-data-pipeline/internal/domain"
	"github.com/rs/zerolog"
	"gopkg.in/yaml.v3"
)

// FileRepository implements domain.UnmatchedRepository using file storage
type FileRepository struct {
	log zerolog.Logger
}

// NewFileRepository creates a new file-based repository
func NewFileRepository(log zerolog.Logger) *FileRepository {
	return &FileRepository{
		log: log.With().Str("module", "repository").Logger(),
	}
}

var _ domain.UnmatchedRepository = (*FileRepository)(nil)

// GetUnmatched reads the unmatched-titles report
func (r *FileRepository) GetUnmatched(ctx context.Context, path string) (*domain.UnmatchedMovies, error) {
	um := &domain.UnmatchedMovies{}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("file does not exist: %w", err)
	}

	defer f.Close()
	b, err := io.ReadAll(f)
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}

	err = yaml.Unmarshal(b, um)
	if err != nil {
		return nil, fmt.Errorf("failed to unmarshal yaml: %w", err)
	}

	return um, nil
}

// StoreUnmatched writes the report with a blank line between entries
func (r *FileRepository) StoreUnmatched(ctx context.Context, path string, movies *domain.UnmatchedMovies) error {
	b, err := yaml.Marshal(movies)
	if err != nil {
		return fmt.Errorf("failed to marshal yaml: %w", err)
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create directory %s: %w", dir, err)
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}
	defer f.Close()

	lines := strings.Split(string(b), "\n")
	for i, line := range lines {
		if strings.Contains(line, "cacheKey:") {
			lines[i] += "\n"
		}
	}

	_, err = f.Write([]byte(strings.Join(lines, "\n")))
	if err != nil {
		return fmt.Errorf("failed to write file: %w", err)
	}

	r.log.Debug().Str("path", path).Int("count", len(movies.Movies)).Msg("stored unmatched titles")
	return nil
}
