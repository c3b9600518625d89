package cache

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/Rajesh82359/movie-data-pipeline/internal/domain"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func strPtr(s string) *string { return &s }

func TestLoadMissingFile(t *testing.T) {
	s := Load(filepath.Join(t.TempDir(), "omdb_cache.json"), zerolog.Nop())
	assert.Equal(t, 0, s.Len())
}

func TestLoadCorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "omdb_cache.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o644))

	s := Load(path, zerolog.Nop())
	assert.Equal(t, 0, s.Len())

	s.Store("Heat__1995", nil)
	require.NoError(t, s.Save())
}

func TestSaveAndReload(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "omdb_cache.json")
	year := 1995
	enrichedAt := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

	s := Load(path, zerolog.Nop())
	s.Store("Toy Story__1995", &domain.Enrichment{
		Director:   strPtr("John Lasseter"),
		Year:       &year,
		ImdbID:     strPtr("tt0114709"),
		Raw:        json.RawMessage(`{"Title":"Toy Story"}`),
		EnrichedAt: enrichedAt,
	})
	s.Store("Unknown Film__", nil)
	require.NoError(t, s.Save())

	reloaded := Load(path, zerolog.Nop())
	require.Equal(t, 2, reloaded.Len())

	hit, found := reloaded.Lookup("Toy Story__1995")
	require.True(t, found)
	require.NotNil(t, hit)
	assert.Equal(t, "John Lasseter", *hit.Director)
	assert.Nil(t, hit.Plot)
	assert.Equal(t, 1995, *hit.Year)
	assert.True(t, enrichedAt.Equal(hit.EnrichedAt))
	assert.JSONEq(t, `{"Title":"Toy Story"}`, string(hit.Raw))

	miss, found := reloaded.Lookup("Unknown Film__")
	assert.True(t, found)
	assert.Nil(t, miss)

	_, found = reloaded.Lookup("Unknown Film__1999")
	assert.False(t, found)

	assert.Equal(t, []string{"Toy Story__1995", "Unknown Film__"}, reloaded.Keys())
}

func TestSavedFileIsReadableJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "omdb_cache.json")
	s := Load(path, zerolog.Nop())
	s.Store("Amélie__2001", nil)
	require.NoError(t, s.Save())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"Amélie__2001": null`)
}

func TestLoadOriginalFormat(t *testing.T) {
	path := filepath.Join(t.TempDir(), "omdb_cache.json")
	payload := `{
  "Heat__1995": {
    "director": "Michael Mann",
    "plot": null,
    "box_office": "$67,436,818",
    "year": 1995,
    "imdb_id": "tt0113277",
    "raw": {"Title": "Heat", "Response": "True"},
    "enriched_at": "2024-01-02T03:04:05.123456+00:00"
  }
}`
	require.NoError(t, os.WriteFile(path, []byte(payload), 0o644))

	s := Load(path, zerolog.Nop())
	hit, found := s.Lookup("Heat__1995")
	require.True(t, found)
	require.NotNil(t, hit)
	assert.Equal(t, "$67,436,818", *hit.BoxOffice)
	assert.Equal(t, 2024, hit.EnrichedAt.Year())
}

func TestRunLockIsExclusive(t *testing.T) {
	path := filepath.Join(t.TempDir(), "omdb_cache.json")

	first, err := AcquireRunLock(path)
	require.NoError(t, err)

	_, err = AcquireRunLock(path)
	assert.ErrorIs(t, err, ErrLocked)

	require.NoError(t, first.Release())

	second, err := AcquireRunLock(path)
	require.NoError(t, err)
	require.NoError(t, second.Release())
}
