package movies

import (
	"encoding/csv"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/Rajesh82359/movie-data-pipeline/internal/domain"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
)

// Catalog streams movies.csv rows.
type Catalog struct {
	log     zerolog.Logger
	f       *os.File
	r       *csv.Reader
	idCol   int
	titCol  int
	genCol  int
	line    int
	skipped int
}

// OpenCatalog opens path and reads its header. The file must have movieId
// and title columns; genres is optional.
func OpenCatalog(path string, log zerolog.Logger) (*Catalog, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to open catalog %s", path)
	}

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1
	r.LazyQuotes = true
	r.ReuseRecord = true

	header, err := r.Read()
	if err != nil {
		f.Close()
		return nil, errors.Wrap(err, "failed to read catalog header")
	}

	c := &Catalog{
		log:    log.With().Str("module", "catalog").Logger(),
		f:      f,
		r:      r,
		idCol:  -1,
		titCol: -1,
		genCol: -1,
		line:   1,
	}
	for i, name := range header {
		switch strings.TrimSpace(strings.TrimPrefix(name, "\ufeff")) {
		case "movieId":
			c.idCol = i
		case "title":
			c.titCol = i
		case "genres":
			c.genCol = i
		}
	}
	if c.idCol < 0 || c.titCol < 0 {
		f.Close()
		return nil, errors.Errorf("catalog %s is missing movieId or title column", path)
	}

	return c, nil
}

// Next returns the next valid movie, or io.EOF when the file is exhausted.
// Rows without an integer movieId are skipped.
func (c *Catalog) Next() (domain.Movie, error) {
	for {
		rec, err := c.r.Read()
		if err == io.EOF {
			return domain.Movie{}, io.EOF
		}
		c.line++

		var parseErr *csv.ParseError
		if errors.As(err, &parseErr) {
			c.skipped++
			c.log.Warn().Err(err).Int("line", c.line).Msg("Skipping malformed catalog row")
			continue
		}
		if err != nil {
			return domain.Movie{}, errors.Wrap(err, "failed to read catalog row")
		}

		id, err := strconv.Atoi(strings.TrimSpace(field(rec, c.idCol)))
		if err != nil {
			c.skipped++
			c.log.Debug().Int("line", c.line).Str("movie_id", field(rec, c.idCol)).Msg("Skipping catalog row with invalid movieId")
			continue
		}

		m := domain.Movie{
			MovieID: id,
			Title:   field(rec, c.titCol),
		}
		if g := field(rec, c.genCol); g != "" {
			m.Genres = &g
		}
		return m, nil
	}
}

// Skipped returns the number of rows dropped so far.
func (c *Catalog) Skipped() int {
	return c.skipped
}

func (c *Catalog) Close() error {
	return c.f.Close()
}

func field(rec []string, i int) string {
	if i < 0 || i >= len(rec) {
		return ""
	}
	return rec[i]
}
