package notification

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/Rajesh82359/movie-data-pipeline/internal/domain"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDiscordSendSuccess(t *testing.T) {
	var got discordWebhook
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	svc := NewService(zerolog.Nop(), srv.URL)
	err := svc.SendSuccess(context.Background(), domain.Statistics{
		MoviesProcessed: 10,
		MoviesEnriched:  7,
		Unmatched:       3,
		ExternalCalls:   12,
		RateLimited:     true,
		RatingChunks:    2,
		RatingsInserted: 100,
	})
	require.NoError(t, err)

	require.Len(t, got.Embeds, 1)
	assert.Equal(t, "Movie ETL Run Completed", got.Embeds[0].Title)
	assert.Contains(t, got.Embeds[0].Description, "rate limit")
	require.Len(t, got.Embeds[0].Fields, 4)
	assert.Equal(t, "7 enriched, 3 unmatched", got.Embeds[0].Fields[1].Value)
}

func TestDiscordSendErrorReportsStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
	}))
	defer srv.Close()

	svc := NewDiscordService(zerolog.Nop(), srv.URL)
	err := svc.SendError(context.Background(), errors.New("unable to reach database"))
	assert.ErrorContains(t, err, "status 400")
}

func TestNoWebhookConfigured(t *testing.T) {
	svc := NewService(zerolog.Nop(), "")
	assert.NoError(t, svc.SendSuccess(context.Background(), domain.Statistics{}))
	assert.NoError(t, svc.SendError(context.Background(), errors.New("boom")))
}
