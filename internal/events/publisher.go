package events

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/maltedev/amazon-search-scraper/internal/scraper"
	"github.com/redis/go-redis/v9"
)

// EventType represents the type of event
type EventType string

const (
	// EventTypeScrapeCompleted is published after every scrape, successful or not
	EventTypeScrapeCompleted EventType = "SCRAPE_COMPLETED"
)

// RedisClient interface for Redis operations (for testing)
type RedisClient interface {
	XAdd(ctx context.Context, args *redis.XAddArgs) *redis.StringCmd
	Close() error
}

// ScrapeCompletedPayload is the JSON document stored in the stream's data field
type ScrapeCompletedPayload struct {
	EventID    string    `json:"event_id"`
	EventType  string    `json:"event_type"`
	Timestamp  time.Time `json:"timestamp"`
	ScrapeID   string    `json:"scrape_id"`
	Keyword    string    `json:"keyword"`
	Domain     string    `json:"domain"`
	Status     string    `json:"status"`
	Products   int       `json:"products"`
	Sponsored  int       `json:"sponsored"`
	Skipped    int       `json:"skipped"`
	Captcha    bool      `json:"captcha"`
	Error      string    `json:"error,omitempty"`
	DurationMS int64     `json:"duration_ms"`
	Source     string    `json:"source"`
}

// Publisher appends scrape events to a Redis stream
type Publisher struct {
	redis  RedisClient
	stream string
	maxLen int64
	logger *slog.Logger
	now    func() time.Time
}

// NewPublisher creates a publisher writing to stream. maxLen > 0 caps the
// stream length approximately.
func NewPublisher(client RedisClient, stream string, maxLen int64, logger *slog.Logger) *Publisher {
	if logger == nil {
		logger = slog.Default()
	}
	return &Publisher{
		redis:  client,
		stream: stream,
		maxLen: maxLen,
		logger: logger.With("component", "event_publisher"),
		now:    time.Now,
	}
}

// PublishScrapeCompleted publishes a SCRAPE_COMPLETED event
func (p *Publisher) PublishScrapeCompleted(ctx context.Context, summary scraper.ScrapeSummary) error {
	payload := ScrapeCompletedPayload{
		EventID:    uuid.New().String(),
		EventType:  string(EventTypeScrapeCompleted),
		Timestamp:  p.now().UTC(),
		ScrapeID:   summary.ScrapeID,
		Keyword:    summary.Keyword,
		Domain:     summary.Domain,
		Status:     summary.Status,
		Products:   summary.Products,
		Sponsored:  summary.Sponsored,
		Skipped:    summary.Skipped,
		Captcha:    summary.Captcha,
		Error:      summary.Error,
		DurationMS: summary.Duration.Milliseconds(),
		Source:     "amazon-search-scraper",
	}

	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	args := &redis.XAddArgs{
		Stream: p.stream,
		Values: map[string]interface{}{
			"data":       string(data),
			"event_id":   payload.EventID,
			"event_type": payload.EventType,
			"scrape_id":  payload.ScrapeID,
			"domain":     payload.Domain,
			"status":     payload.Status,
			"timestamp":  fmt.Sprintf("%d", payload.Timestamp.UnixNano()),
		},
	}
	if p.maxLen > 0 {
		args.MaxLen = p.maxLen
		args.Approx = true
	}

	id, err := p.redis.XAdd(ctx, args).Result()
	if err != nil {
		return fmt.Errorf("failed to publish to redis: %w", err)
	}

	p.logger.Debug("event published",
		"type", payload.EventType,
		"event_id", payload.EventID,
		"scrape_id", payload.ScrapeID,
		"stream", p.stream,
		"stream_id", id,
	)

	return nil
}

// Close releases the underlying Redis client
func (p *Publisher) Close() error {
	return p.redis.Close()
}

// Connect opens a Redis client and verifies it with PING
func Connect(ctx context.Context, addr, password string, db int) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	return client, nil
}

var _ scraper.Notifier = (*Publisher)(nil)
