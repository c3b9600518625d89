package repository

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/Rajesh82359/movie-data-pipeline/internal/domain"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStoreAndGetUnmatched(t *testing.T) {
	repo := NewFileRepository(zerolog.Nop())
	path := filepath.Join(t.TempDir(), "reports", "omdb-unmatched.yaml")
	ctx := context.Background()

	um := &domain.UnmatchedMovies{}
	um.Add(7, "Sabrina (1995)", "Sabrina__1995")
	um.Add(9, "Sudden Death (1995)", "Sudden Death__1995")
	require.NoError(t, repo.StoreUnmatched(ctx, path, um))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(data), "unmatchedMovies:\n"))
	assert.Contains(t, string(data), "cacheKey: Sabrina__1995\n\n")

	got, err := repo.GetUnmatched(ctx, path)
	require.NoError(t, err)
	assert.Equal(t, um.Movies, got.Movies)
}

func TestGetUnmatchedMissingFile(t *testing.T) {
	repo := NewFileRepository(zerolog.Nop())

	_, err := repo.GetUnmatched(context.Background(), filepath.Join(t.TempDir(), "omdb-unmatched.yaml"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}
