package omdb

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync"
	"testing"
	"time"

	"github.com/Rajesh82359/movie-data-pipeline/internal/domain"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeOMDb struct {
	mu       sync.Mutex
	requests []url.Values
	handler  func(w http.ResponseWriter, q url.Values, n int)
}

func (f *fakeOMDb) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	q := r.URL.Query()
	f.requests = append(f.requests, q)
	n := len(f.requests)
	f.mu.Unlock()

	w.Header().Set("Content-Type", "application/json")
	f.handler(w, q, n)
}

func (f *fakeOMDb) Requests() []url.Values {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]url.Values(nil), f.requests...)
}

func newTestClient(t *testing.T, f *fakeOMDb, limit int) *Client {
	t.Helper()
	srv := httptest.NewServer(f)
	t.Cleanup(srv.Close)

	cfg := &domain.Config{
		OMDbAPIKey:     "secret",
		OMDbAPIURL:     srv.URL + "/",
		OMDbDailyLimit: limit,
		OMDbTimeout:    2 * time.Second,
	}
	return NewClient(zerolog.Nop(), cfg, WithRetryWait(time.Millisecond, 5*time.Millisecond))
}

const toyStory = `{"Title":"Toy Story","Year":"1995","Director":"John Lasseter","Plot":"A cowboy doll...","BoxOffice":"$223,225,679","imdbID":"tt0114709","Response":"True"}`

func TestQueryTitleLookup(t *testing.T) {
	f := &fakeOMDb{handler: func(w http.ResponseWriter, q url.Values, n int) {
		w.Write([]byte(toyStory))
	}}
	c := newTestClient(t, f, 1000)

	res := c.Query(context.Background(), "Toy Story", 1995)
	require.NotNil(t, res)
	assert.Equal(t, "John Lasseter", res.Director)
	assert.Equal(t, "tt0114709", res.ImdbID)
	assert.JSONEq(t, toyStory, string(res.Raw))
	assert.Equal(t, 1, c.Calls())
	assert.False(t, c.RateLimited())

	reqs := f.Requests()
	require.Len(t, reqs, 1)
	assert.Equal(t, "secret", reqs[0].Get("apikey"))
	assert.Equal(t, "Toy Story", reqs[0].Get("t"))
	assert.Equal(t, "1995", reqs[0].Get("y"))
	assert.Equal(t, "short", reqs[0].Get("plot"))
	assert.Equal(t, "json", reqs[0].Get("r"))
}

func TestQueryWithoutYearOmitsParam(t *testing.T) {
	f := &fakeOMDb{handler: func(w http.ResponseWriter, q url.Values, n int) {
		w.Write([]byte(toyStory))
	}}
	c := newTestClient(t, f, 1000)

	require.NotNil(t, c.Query(context.Background(), "Toy Story", 0))
	reqs := f.Requests()
	require.Len(t, reqs, 1)
	assert.False(t, reqs[0].Has("y"))
}

func TestQueryFallsBackToSearch(t *testing.T) {
	f := &fakeOMDb{handler: func(w http.ResponseWriter, q url.Values, n int) {
		switch {
		case q.Has("t"):
			w.Write([]byte(`{"Response":"False","Error":"Movie not found!"}`))
		case q.Has("s"):
			w.Write([]byte(`{"Search":[{"Title":"Toy Story","Year":"1995","imdbID":"tt0114709","Type":"movie"},{"Title":"Toy Story 2","Year":"1999","imdbID":"tt0120363","Type":"movie"}],"totalResults":"2","Response":"True"}`))
		case q.Get("i") == "tt0114709":
			w.Write([]byte(toyStory))
		default:
			w.WriteHeader(http.StatusBadRequest)
		}
	}}
	c := newTestClient(t, f, 1000)

	res := c.Query(context.Background(), "Toy Story", 1995)
	require.NotNil(t, res)
	assert.Equal(t, "tt0114709", res.ImdbID)
	assert.Equal(t, 3, c.Calls())

	reqs := f.Requests()
	require.Len(t, reqs, 3)
	assert.Equal(t, "Toy Story", reqs[1].Get("s"))
	assert.Equal(t, "movie", reqs[1].Get("type"))
	assert.Equal(t, "1995", reqs[1].Get("y"))
	assert.Equal(t, "tt0114709", reqs[2].Get("i"))
	assert.Equal(t, "short", reqs[2].Get("plot"))
}

func TestQuerySearchWithoutResults(t *testing.T) {
	f := &fakeOMDb{handler: func(w http.ResponseWriter, q url.Values, n int) {
		if q.Has("t") {
			w.Write([]byte(`{"Response":"False","Error":"Movie not found!"}`))
			return
		}
		w.Write([]byte(`{"Response":"False","Error":"Movie not found!"}`))
	}}
	c := newTestClient(t, f, 1000)

	assert.Nil(t, c.Query(context.Background(), "Nonexistent Film", 0))
	assert.Equal(t, 2, c.Calls())
	assert.False(t, c.RateLimited())
}

func TestQueryUnauthorizedSetsRateLimit(t *testing.T) {
	f := &fakeOMDb{handler: func(w http.ResponseWriter, q url.Values, n int) {
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"Response":"False","Error":"Invalid API key!"}`))
	}}
	c := newTestClient(t, f, 1000)

	assert.Nil(t, c.Query(context.Background(), "Heat", 1995))
	assert.True(t, c.RateLimited())
	assert.Equal(t, 1, c.Calls())

	assert.Nil(t, c.Query(context.Background(), "Casino", 1995))
	assert.Len(t, f.Requests(), 1)
}

func TestQueryLimitPayloadSetsRateLimit(t *testing.T) {
	f := &fakeOMDb{handler: func(w http.ResponseWriter, q url.Values, n int) {
		w.Write([]byte(`{"Response":"False","Error":"Request limit reached!"}`))
	}}
	c := newTestClient(t, f, 1000)

	assert.Nil(t, c.Query(context.Background(), "Heat", 1995))
	assert.True(t, c.RateLimited())
	assert.Len(t, f.Requests(), 1)
}

func TestQueryStopsAtCallBudget(t *testing.T) {
	f := &fakeOMDb{handler: func(w http.ResponseWriter, q url.Values, n int) {
		w.Write([]byte(`{"Response":"False","Error":"Movie not found!"}`))
	}}
	c := newTestClient(t, f, 1)

	assert.Nil(t, c.Query(context.Background(), "Heat", 1995))
	assert.True(t, c.RateLimited())
	assert.Equal(t, 1, c.Calls())
	assert.Len(t, f.Requests(), 1)
}

func TestQueryRetriesTransientFailures(t *testing.T) {
	f := &fakeOMDb{handler: func(w http.ResponseWriter, q url.Values, n int) {
		if n <= 2 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.Write([]byte(toyStory))
	}}
	c := newTestClient(t, f, 1000)

	res := c.Query(context.Background(), "Toy Story", 1995)
	require.NotNil(t, res)
	assert.Len(t, f.Requests(), 3)
	assert.Equal(t, 1, c.Calls())
}

func TestQueryGivesUpAfterRetries(t *testing.T) {
	f := &fakeOMDb{handler: func(w http.ResponseWriter, q url.Values, n int) {
		w.WriteHeader(http.StatusInternalServerError)
	}}
	c := newTestClient(t, f, 1000)

	assert.Nil(t, c.Query(context.Background(), "Toy Story", 1995))
	assert.Len(t, f.Requests(), 3)
	assert.False(t, c.RateLimited())
}

func TestQueryWithoutAPIKey(t *testing.T) {
	f := &fakeOMDb{handler: func(w http.ResponseWriter, q url.Values, n int) {
		w.Write([]byte(toyStory))
	}}
	c := newTestClient(t, f, 1000)
	c.apiKey = ""

	assert.Nil(t, c.Query(context.Background(), "Toy Story", 1995))
	assert.Empty(t, f.Requests())
}

func TestSessionBudget(t *testing.T) {
	s := NewSession(2)
	assert.True(t, s.allow())
	s.record()
	assert.True(t, s.allow())
	s.record()
	assert.False(t, s.allow())
	assert.True(t, s.RateLimited())
	assert.Equal(t, 2, s.Calls())
}
