package notification

import (
	"context"
	"fmt"
	"time"

	"github.com/Rajesh82359/movie-data-pipeline/internal/domain"
	"github.com/go-resty/resty/v2"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
)

// DiscordService implements NotificationService for Discord webhooks
type DiscordService struct {
	log        zerolog.Logger
	webhookURL string
	httpClient *resty.Client
}

// NewDiscordService creates a new Discord notification service
func NewDiscordService(log zerolog.Logger, webhookURL string) *DiscordService {
	return &DiscordService{
		log:        log.With().Str("module", "notification").Str("type", "discord").Logger(),
		webhookURL: webhookURL,
		httpClient: resty.New().SetTimeout(10 * time.Second),
	}
}

// SendSuccess sends a success notification with statistics
func (s *DiscordService) SendSuccess(ctx context.Context, stats domain.Statistics) error {
	if s.webhookURL == "" {
		return nil
	}

	title := "Movie ETL Run Completed"
	description := "Movies and ratings imported successfully"
	color := 0x00ff00
	switch {
	case stats.Interrupted:
		title = "Movie ETL Run Interrupted"
		description = "Run stopped early; progress so far was committed"
		color = 0xffa500
	case stats.RateLimited:
		description = "OMDb rate limit reached; enrichment stopped early"
		color = 0xffff00
	}

	embed := discordEmbed{
		Title:       title,
		Description: description,
		Color:       color,
		Timestamp:   time.Now().Format(time.RFC3339),
		Fields: []discordField{
			{
				Name:   "Movies",
				Value:  fmt.Sprintf("%d processed, %d failed, %d skipped", stats.MoviesProcessed, stats.MoviesFailed, stats.MoviesSkipped),
				Inline: false,
			},
			{
				Name:   "Enrichment",
				Value:  fmt.Sprintf("%d enriched, %d unmatched", stats.MoviesEnriched, stats.Unmatched),
				Inline: true,
			},
			{
				Name:   "OMDb Calls",
				Value:  fmt.Sprintf("%d", stats.ExternalCalls),
				Inline: true,
			},
			{
				Name:   "Ratings",
				Value:  fmt.Sprintf("%d upserted, %d bad rows, %d/%d chunks failed", stats.RatingsInserted, stats.RatingsBad, stats.RatingChunksBad, stats.RatingChunks),
				Inline: false,
			},
		},
	}

	payload := discordWebhook{
		Embeds: []discordEmbed{embed},
	}

	return s.sendWebhook(ctx, payload)
}

// SendError sends an error notification with error details
func (s *DiscordService) SendError(ctx context.Context, err error) error {
	if s.webhookURL == "" {
		return nil
	}

	embed := discordEmbed{
		Title:       "Movie ETL Run Failed",
		Description: fmt.Sprintf("Import failed with error:\n```%s```", err.Error()),
		Color:       0xff0000,
		Timestamp:   time.Now().Format(time.RFC3339),
	}

	payload := discordWebhook{
		Embeds: []discordEmbed{embed},
	}

	return s.sendWebhook(ctx, payload)
}

// sendWebhook sends a webhook payload to Discord
func (s *DiscordService) sendWebhook(ctx context.Context, payload discordWebhook) error {
	resp, err := s.httpClient.R().
		SetContext(ctx).
		SetHeader("Content-Type", "application/json").
		SetBody(payload).
		Post(s.webhookURL)
	if err != nil {
		return errors.Wrap(err, "failed to send webhook request")
	}

	if !resp.IsSuccess() {
		return fmt.Errorf("webhook request failed with status %d", resp.StatusCode())
	}

	s.log.Debug().Msg("Discord notification sent successfully")
	return nil
}

// discordWebhook represents a Discord webhook payload
type discordWebhook struct {
	Embeds []discordEmbed `json:"embeds"`
}

// discordEmbed represents a Discord embed
type discordEmbed struct {
	Title       string         `json:"title"`
	Description string         `json:"description,omitempty"`
	Color       int            `json:"color"`
	Timestamp   string         `json:"timestamp,omitempty"`
	Fields      []discordField `json:"fields,omitempty"`
}

// discordField represents a Discord embed field
type discordField struct {
	Name   string `json:"name"`
	Value  string `json:"value"`
	Inline bool   `json:"inline"`
}
