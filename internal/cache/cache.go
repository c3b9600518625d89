// Package cache persists enrichment lookups across runs in a JSON file keyed
// by "{cleanTitle}__{year}". A null value records a confirmed miss.
package cache

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"sort"

	"github.com/Rajesh82359/movie-data-pipeline/internal/domain"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
)

// Store is an in-memory view of the cache file.
type Store struct {
	log     zerolog.Logger
	path    string
	entries map[string]*domain.Enrichment
}

var _ domain.EnrichmentCache = (*Store)(nil)

// Load reads the cache file at path. A missing file yields an empty cache;
// an unreadable or malformed file is logged and also yields an empty cache.
func Load(path string, log zerolog.Logger) *Store {
	s := &Store{
		log:     log.With().Str("module", "cache").Logger(),
		path:    path,
		entries: make(map[string]*domain.Enrichment),
	}

	entries, err := readFile(path)
	if err != nil {
		s.log.Warn().Err(err).Str("path", path).Msg("Failed to read enrichment cache; starting fresh")
		return s
	}
	if entries != nil {
		s.entries = entries
	}

	s.log.Debug().Str("path", path).Int("entries", len(s.entries)).Msg("Loaded enrichment cache")
	return s
}

func readFile(path string) (map[string]*domain.Enrichment, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, errors.Wrap(err, "failed to read cache file")
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, nil
	}

	entries := make(map[string]*domain.Enrichment)
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, errors.Wrap(err, "failed to parse cache file")
	}
	return entries, nil
}

// Lookup returns the cached record for key. found reports whether the key
// exists; a found nil record is a cached miss.
func (s *Store) Lookup(key string) (*domain.Enrichment, bool) {
	e, found := s.entries[key]
	return e, found
}

// Store records e (possibly nil) under key.
func (s *Store) Store(key string, e *domain.Enrichment) {
	s.entries[key] = e
}

func (s *Store) Len() int {
	return len(s.entries)
}

// Save writes the cache back to disk through a temp file and rename.
func (s *Store) Save() error {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(s.entries); err != nil {
		return errors.Wrap(err, "failed to marshal cache")
	}

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return errors.Wrapf(err, "failed to create cache directory %s", dir)
	}

	tmpPath := s.path + ".tmp"
	if err := os.WriteFile(tmpPath, buf.Bytes(), 0o644); err != nil {
		return errors.Wrap(err, "failed to write temp cache file")
	}
	if err := os.Rename(tmpPath, s.path); err != nil {
		os.Remove(tmpPath)
		return errors.Wrap(err, "failed to replace cache file")
	}

	s.log.Debug().Str("path", s.path).Int("entries", len(s.entries)).Msg("Saved enrichment cache")
	return nil
}

// SaveOrWarn saves the cache and logs instead of returning a failure.
func (s *Store) SaveOrWarn() {
	if err := s.Save(); err != nil {
		s.log.Error().Err(err).Str("path", s.path).Msg("Failed to save enrichment cache")
	}
}

// Keys returns all cache keys in sorted order.
func (s *Store) Keys() []string {
	keys := make([]string, 0, len(s.entries))
	for k := range s.entries {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
