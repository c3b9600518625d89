// Package omdb talks to the OMDb HTTP API.
package omdb

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/Rajesh82359/movie-data-pipeline/internal/domain"
	"github.com/go-resty/resty/v2"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
)

const (
	defaultRetryCount   = 2
	defaultRetryWait    = 500 * time.Millisecond
	defaultRetryMaxWait = 4 * time.Second
)

var errRateLimited = errors.New("omdb rate limit reached")

type Client struct {
	log     zerolog.Logger
	http    *resty.Client
	apiKey  string
	baseURL string
	session *Session
}

var _ domain.MetadataClient = (*Client)(nil)

type Option func(*Client)

// WithRetryWait overrides the transport backoff bounds.
func WithRetryWait(wait, maxWait time.Duration) Option {
	return func(c *Client) {
		c.http.SetRetryWaitTime(wait).SetRetryMaxWaitTime(maxWait)
	}
}

func NewClient(log zerolog.Logger, cfg *domain.Config, opts ...Option) *Client {
	httpClient := resty.New().
		SetTimeout(cfg.OMDbTimeout).
		SetRetryCount(defaultRetryCount).
		SetRetryWaitTime(defaultRetryWait).
		SetRetryMaxWaitTime(defaultRetryMaxWait).
		SetHeader("Accept", "application/json").
		AddRetryCondition(retryTransient)

	c := &Client{
		log:     log.With().Str("module", "omdb").Logger(),
		http:    httpClient,
		apiKey:  cfg.OMDbAPIKey,
		baseURL: cfg.OMDbAPIURL,
		session: NewSession(cfg.OMDbDailyLimit),
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// retryTransient retries network failures, 429 and 5xx responses.
func retryTransient(resp *resty.Response, err error) bool {
	if resp != nil && resp.Request != nil && resp.Request.Context().Err() != nil {
		return false
	}
	if err != nil {
		return true
	}
	if resp == nil {
		return false
	}
	code := resp.StatusCode()
	return code == http.StatusTooManyRequests || code >= http.StatusInternalServerError
}

func (c *Client) RateLimited() bool {
	return c.session.RateLimited()
}

func (c *Client) Calls() int {
	return c.session.Calls()
}

// Query resolves title (and year when non-zero) to a movie record. It tries
// an exact title lookup, then a search whose first hit is fetched by id.
// Failures are logged and reported as nil.
func (c *Client) Query(ctx context.Context, title string, year int) *domain.OMDbResponse {
	if c.apiKey == "" {
		c.log.Debug().Msg("OMDb API key not set, skipping lookup")
		return nil
	}

	params := map[string]string{
		"t":    title,
		"plot": "short",
		"r":    "json",
	}
	addYear(params, year)

	res, err := c.lookup(ctx, params)
	if err != nil {
		c.logFailure(err, title, year)
		return nil
	}
	if res.OK() {
		return res
	}

	searchParams := map[string]string{
		"s":    title,
		"type": "movie",
		"r":    "json",
	}
	addYear(searchParams, year)

	var search domain.OMDbSearchResponse
	if _, err := c.get(ctx, searchParams, &search); err != nil {
		c.logFailure(err, title, year)
		return nil
	}
	if search.Response != "True" || len(search.Search) == 0 {
		c.log.Trace().Str("title", title).Int("year", year).Msg("No OMDb search results")
		return nil
	}

	imdbID := search.Search[0].ImdbID
	res, err = c.lookup(ctx, map[string]string{
		"i":    imdbID,
		"plot": "short",
		"r":    "json",
	})
	if err != nil {
		c.logFailure(err, title, year)
		return nil
	}
	if !res.OK() {
		return nil
	}

	c.log.Trace().Str("title", title).Str("imdb_id", imdbID).Msg("Resolved title through search")
	return res
}

func (c *Client) lookup(ctx context.Context, params map[string]string) (*domain.OMDbResponse, error) {
	var res domain.OMDbResponse
	body, err := c.get(ctx, params, &res)
	if err != nil {
		return nil, err
	}
	res.Raw = body
	return &res, nil
}

// get performs one request against the API and decodes the body into out.
func (c *Client) get(ctx context.Context, params map[string]string, out any) (json.RawMessage, error) {
	if !c.session.allow() {
		return nil, errRateLimited
	}

	resp, err := c.http.R().
		SetContext(ctx).
		SetQueryParam("apikey", c.apiKey).
		SetQueryParams(params).
		Get(c.baseURL)
	if err != nil {
		return nil, errors.Wrap(err, "failed to execute OMDb request")
	}
	c.session.record()

	c.log.Trace().
		Int("status", resp.StatusCode()).
		Int("calls", c.session.Calls()).
		Msg("OMDb response")

	if resp.StatusCode() == http.StatusUnauthorized {
		c.session.markRateLimited()
		return nil, errRateLimited
	}
	if !resp.IsSuccess() {
		return nil, errors.Errorf("unexpected OMDb status %d", resp.StatusCode())
	}

	body := resp.Body()
	if err := json.Unmarshal(body, out); err != nil {
		return nil, errors.Wrap(err, "failed to decode OMDb response")
	}

	if msg := errorMessage(out); msg != "" && strings.Contains(strings.ToLower(msg), "limit") {
		c.session.markRateLimited()
		return nil, errors.Wrap(errRateLimited, msg)
	}

	return json.RawMessage(body), nil
}

func errorMessage(out any) string {
	switch v := out.(type) {
	case *domain.OMDbResponse:
		return v.Error
	case *domain.OMDbSearchResponse:
		return v.Error
	}
	return ""
}

func (c *Client) logFailure(err error, title string, year int) {
	switch {
	case errors.Is(err, errRateLimited):
		c.log.Warn().Err(err).Str("title", title).Int("calls", c.session.Calls()).Msg("OMDb rate limit reached, skipping lookups")
	case ctxDone(err):
		c.log.Debug().Err(err).Str("title", title).Msg("OMDb request cancelled")
	default:
		c.log.Warn().Err(err).Str("title", title).Int("year", year).Msg("OMDb request failed")
	}
}

func ctxDone(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}

func addYear(params map[string]string, year int) {
	if year > 0 {
		params["y"] = strconv.Itoa(year)
	}
}
