package notification

import (
	"context"

	"github.com/Rajesh82359/movie-data-pipeline/internal/domain"
	"github.com/rs/zerolog"
)

// Service writes the run summary to the log and forwards it to Discord when
// a webhook is configured.
type Service struct {
	log     zerolog.Logger
	discord *DiscordService
}

func NewService(log zerolog.Logger, webhookURL string) domain.NotificationService {
	var discord *DiscordService
	if webhookURL != "" {
		discord = NewDiscordService(log, webhookURL)
	}

	return &Service{
		log:     log.With().Str("module", "summary").Logger(),
		discord: discord,
	}
}

func (s *Service) SendSuccess(ctx context.Context, stats domain.Statistics) error {
	s.log.Info().
		Int("movies_processed", stats.MoviesProcessed).
		Int("movies_enriched", stats.MoviesEnriched).
		Int("movies_failed", stats.MoviesFailed).
		Int("movies_skipped", stats.MoviesSkipped).
		Int("unmatched", stats.Unmatched).
		Int("omdb_calls", stats.ExternalCalls).
		Bool("rate_limited", stats.RateLimited).
		Bool("interrupted", stats.Interrupted).
		Int("rating_chunks", stats.RatingChunks).
		Int("rating_chunks_failed", stats.RatingChunksBad).
		Int("ratings_upserted", stats.RatingsInserted).
		Int("ratings_bad", stats.RatingsBad).
		Msg("Run summary")

	if s.discord != nil {
		return s.discord.SendSuccess(ctx, stats)
	}
	return nil
}

func (s *Service) SendError(ctx context.Context, err error) error {
	if s.discord != nil {
		return s.discord.SendError(ctx, err)
	}
	return nil
}
