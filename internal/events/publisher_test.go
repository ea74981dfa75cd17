package events

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/maltedev/amazon-search-scraper/internal/scraper"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// MockRedisClient is a mock for Redis client
type MockRedisClient struct {
	mock.Mock
}

func (m *MockRedisClient) XAdd(ctx context.Context, args *redis.XAddArgs) *redis.StringCmd {
	mockArgs := m.Called(ctx, args)
	cmd := redis.NewStringCmd(ctx)
	if mockArgs.Get(0) != nil {
		cmd.SetErr(mockArgs.Error(0))
	} else {
		cmd.SetVal("1234567890-0")
	}
	return cmd
}

func (m *MockRedisClient) Close() error {
	args := m.Called()
	return args.Error(0)
}

func TestPublisher_PublishScrapeCompleted(t *testing.T) {
	ctx := context.Background()
	logger := slog.Default()

	summary := scraper.ScrapeSummary{
		ScrapeID:  "5b7a3f6e-1111-2222-3333-444455556666",
		Keyword:   "usb hub",
		Domain:    "us",
		Status:    scraper.StatusSuccess,
		Products:  20,
		Sponsored: 2,
		Duration:  1500 * time.Millisecond,
	}

	t.Run("publishes event to stream", func(t *testing.T) {
		mockRedis := new(MockRedisClient)
		publisher := NewPublisher(mockRedis, "stream:search_scrapes", 1000, logger)

		mockRedis.On("XAdd", ctx, mock.MatchedBy(func(args *redis.XAddArgs) bool {
			if args.Stream != "stream:search_scrapes" || args.MaxLen != 1000 || !args.Approx {
				return false
			}
			if args.Values.(map[string]interface{})["event_type"] != string(EventTypeScrapeCompleted) || args.Values.(map[string]interface{})["scrape_id"] != summary.ScrapeID {
				return false
			}

			data, ok := args.Values.(map[string]interface{})["data"].(string)
			if !ok {
				return false
			}
			var payload ScrapeCompletedPayload
			if err := json.Unmarshal([]byte(data), &payload); err != nil {
				return false
			}
			return payload.Products == 20 &&
				payload.Keyword == "usb hub" &&
				payload.DurationMS == 1500 &&
				payload.EventID != ""
		})).Return(nil).Once()

		err := publisher.PublishScrapeCompleted(ctx, summary)

		require.NoError(t, err)
		mockRedis.AssertExpectations(t)
	})

	t.Run("returns redis errors", func(t *testing.T) {
		mockRedis := new(MockRedisClient)
		publisher := NewPublisher(mockRedis, "stream:search_scrapes", 0, logger)

		redisErr := errors.New("redis connection failed")
		mockRedis.On("XAdd", ctx, mock.MatchedBy(func(args *redis.XAddArgs) bool {
			return args.MaxLen == 0 && !args.Approx
		})).Return(redisErr)

		err := publisher.PublishScrapeCompleted(ctx, summary)

		assert.Error(t, err)
		assert.ErrorIs(t, err, redisErr)
	})

	t.Run("failed scrape carries error message", func(t *testing.T) {
		mockRedis := new(MockRedisClient)
		publisher := NewPublisher(mockRedis, "stream:search_scrapes", 0, logger)

		failed := summary
		failed.Status = scraper.StatusFailed
		failed.Products = 0
		failed.Error = "fetch failed after 4 attempt(s): status 503"

		mockRedis.On("XAdd", ctx, mock.MatchedBy(func(args *redis.XAddArgs) bool {
			var payload ScrapeCompletedPayload
			if err := json.Unmarshal([]byte(args.Values.(map[string]interface{})["data"].(string)), &payload); err != nil {
				return false
			}
			return args.Values.(map[string]interface{})["status"] == scraper.StatusFailed && payload.Error == failed.Error
		})).Return(nil).Once()

		require.NoError(t, publisher.PublishScrapeCompleted(ctx, failed))
		mockRedis.AssertExpectations(t)
	})
}

func TestPublisher_Close(t *testing.T) {
	mockRedis := new(MockRedisClient)
	mockRedis.On("Close").Return(nil).Once()

	publisher := NewPublisher(mockRedis, "stream:search_scrapes", 0, nil)

	assert.NoError(t, publisher.Close())
	mockRedis.AssertExpectations(t)
}
