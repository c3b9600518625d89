package domain

import "path/filepath"

type DataFile string

const (
	MoviesFile    DataFile = "movies.csv"
	RatingsFile   DataFile = "ratings.csv"
	CacheFile     DataFile = "omdb_cache.json"
	UnmatchedFile DataFile = "omdb-unmatched.yaml"
)

// Paths holds the locations of every file the pipeline reads or writes.
type Paths struct {
	RootDir       string
	MoviesPath    string
	RatingsPath   string
	CachePath     string
	UnmatchedPath string
}

// NewPaths resolves all data files relative to rootDir.
func NewPaths(rootDir string) *Paths {
	if rootDir == "" {
		rootDir = "."
	}
	return &Paths{
		RootDir:       rootDir,
		MoviesPath:    makePath(rootDir, MoviesFile),
		RatingsPath:   makePath(rootDir, RatingsFile),
		CachePath:     makePath(rootDir, CacheFile),
		UnmatchedPath: makePath(rootDir, UnmatchedFile),
	}
}

func makePath(rootDir string, f DataFile) string {
	return filepath.Join(rootDir, string(f))
}
