// Package enrich resolves catalog titles to metadata records, consulting the
// persistent cache before the external service.
package enrich

import (
	"context"
	"strconv"
	"strings"
	"time"

	"github.com/Rajesh82359/movie-data-pipeline/internal/domain"
	"github.com/Rajesh82359/movie-data-pipeline/internal/title"
	"github.com/rs/zerolog"
)

const notAvailable = "N/A"

type Service interface {
	Enrich(ctx context.Context, rawTitle string) *domain.Enrichment
	Lookup(ctx context.Context, rawTitle string) Result
	RateLimited() bool
}

// Result describes how a title was resolved. CacheHit is set when the answer
// came from the cache, miss entries included. Attempted is set when the
// external service was consulted. Aborted is set when the lookup stopped
// because of rate limiting or cancellation. Aborted lookups leave no cache
// entry, so a title cut short this way is retried on the next run instead of
// being recorded as a miss.
type Result struct {
	Key        string
	Enrichment *domain.Enrichment
	CacheHit   bool
	Attempted  bool
	Aborted    bool
}

// Found reports whether an enrichment record is available.
func (r Result) Found() bool {
	return r.Enrichment != nil
}

// SleepFunc waits for d or until ctx is done.
type SleepFunc func(ctx context.Context, d time.Duration)

type service struct {
	log    zerolog.Logger
	cache  domain.EnrichmentCache
	client domain.MetadataClient
	apiKey string
	delay  time.Duration
	sleep  SleepFunc
	now    func() time.Time
}

type Option func(*service)

func WithSleep(fn SleepFunc) Option {
	return func(s *service) {
		s.sleep = fn
	}
}

func WithClock(fn func() time.Time) Option {
	return func(s *service) {
		s.now = fn
	}
}

func NewService(log zerolog.Logger, cfg *domain.Config, cache domain.EnrichmentCache, client domain.MetadataClient, opts ...Option) Service {
	s := &service{
		log:    log.With().Str("module", "enrich").Logger(),
		cache:  cache,
		client: client,
		apiKey: cfg.OMDbAPIKey,
		delay:  cfg.OMDbSleep,
		sleep:  sleepContext,
		now:    time.Now,
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

func (s *service) RateLimited() bool {
	return s.client.RateLimited()
}

func (s *service) Enrich(ctx context.Context, rawTitle string) *domain.Enrichment {
	return s.Lookup(ctx, rawTitle).Enrichment
}

func (s *service) Lookup(ctx context.Context, rawTitle string) Result {
	year, _ := title.ExtractYear(rawTitle)
	clean := title.Clean(rawTitle)
	res := Result{Key: title.Key(clean, year)}

	if e, found := s.cache.Lookup(res.Key); found {
		s.log.Debug().Str("cache_key", res.Key).Msg("Cache hit")
		res.Enrichment = e
		res.CacheHit = true
		return res
	}

	if s.apiKey == "" {
		s.cache.Store(res.Key, nil)
		return res
	}

	res.Attempted = true
	data := s.query(ctx, clean, year)
	switch {
	case data != nil:
		res.Enrichment = buildEnrichment(data, year, s.now())
		s.log.Debug().Str("cache_key", res.Key).Interface("director", res.Enrichment.Director).Msg("Enriched title")
	case s.client.RateLimited() || ctx.Err() != nil:
		res.Aborted = true
	default:
		s.log.Debug().Str("cache_key", res.Key).Msg("No metadata found")
	}

	if !res.Aborted {
		s.cache.Store(res.Key, res.Enrichment)
	}

	s.sleep(ctx, s.delay)
	return res
}

type attempt struct {
	title string
	year  int
}

// query runs the lookup strategies in order and returns the first hit.
func (s *service) query(ctx context.Context, clean string, year int) *domain.OMDbResponse {
	var attempts []attempt
	if year > 0 {
		attempts = append(attempts, attempt{clean, year})
	}
	attempts = append(attempts, attempt{clean, 0})

	if alt := title.Prefix(clean); alt != "" && alt != clean {
		if year > 0 {
			attempts = append(attempts, attempt{alt, year})
		}
		attempts = append(attempts, attempt{alt, 0})
	}

	for _, a := range attempts {
		if s.client.RateLimited() || ctx.Err() != nil {
			return nil
		}
		if data := s.client.Query(ctx, a.title, a.year); data != nil {
			return data
		}
	}

	return nil
}

func buildEnrichment(data *domain.OMDbResponse, year int, now time.Time) *domain.Enrichment {
	e := &domain.Enrichment{
		Director:   available(data.Director),
		Plot:       available(data.Plot),
		BoxOffice:  available(data.BoxOffice),
		ImdbID:     available(data.ImdbID),
		Raw:        data.Raw,
		EnrichedAt: now.UTC(),
	}

	if y, ok := digits(data.Year); ok {
		e.Year = &y
	} else if year > 0 {
		e.Year = &year
	}

	return e
}

func available(v string) *string {
	v = strings.TrimSpace(v)
	if v == "" || v == notAvailable {
		return nil
	}
	return &v
}

func digits(v string) (int, bool) {
	if v == "" {
		return 0, false
	}
	for _, r := range v {
		if r < '0' || r > '9' {
			return 0, false
		}
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, false
	}
	return n, true
}

func sleepContext(ctx context.Context, d time.Duration) {
	if d <= 0 {
		return
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
	case <-t.C:
	}
}
