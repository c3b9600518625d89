package movies

import (
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestCatalogReadsRows(t *testing.T) {
	path := writeFile(t, "movies.csv", `movieId,title,genres
1,Toy Story (1995),Adventure|Animation|Children|Comedy|Fantasy
abc,Broken Row,Drama
11,"American President, The (1995)",Comedy|Drama|Romance
42,Untitled (2001),
`)

	c, err := OpenCatalog(path, zerolog.Nop())
	require.NoError(t, err)
	defer c.Close()

	m, err := c.Next()
	require.NoError(t, err)
	assert.Equal(t, 1, m.MovieID)
	assert.Equal(t, "Toy Story (1995)", m.Title)
	require.NotNil(t, m.Genres)
	assert.Equal(t, "Adventure|Animation|Children|Comedy|Fantasy", *m.Genres)

	m, err = c.Next()
	require.NoError(t, err)
	assert.Equal(t, 11, m.MovieID)
	assert.Equal(t, "American President, The (1995)", m.Title)

	m, err = c.Next()
	require.NoError(t, err)
	assert.Equal(t, 42, m.MovieID)
	assert.Nil(t, m.Genres)

	_, err = c.Next()
	assert.Equal(t, io.EOF, err)
	assert.Equal(t, 1, c.Skipped())
}

func TestCatalogColumnOrderFromHeader(t *testing.T) {
	path := writeFile(t, "movies.csv", "title,movieId\nHeat (1995),6\n")

	c, err := OpenCatalog(path, zerolog.Nop())
	require.NoError(t, err)
	defer c.Close()

	m, err := c.Next()
	require.NoError(t, err)
	assert.Equal(t, 6, m.MovieID)
	assert.Equal(t, "Heat (1995)", m.Title)
	assert.Nil(t, m.Genres)
}

func TestCatalogRejectsMissingColumns(t *testing.T) {
	path := writeFile(t, "movies.csv", "id,name\n1,Toy Story\n")

	_, err := OpenCatalog(path, zerolog.Nop())
	assert.Error(t, err)
}

func TestCatalogMissingFile(t *testing.T) {
	_, err := OpenCatalog(filepath.Join(t.TempDir(), "movies.csv"), zerolog.Nop())
	require.Error(t, err)
	assert.ErrorIs(t, err, os.ErrNotExist)
}
