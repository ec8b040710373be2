package redis

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/bosowa/fuel-ledger/internal/api/metrics"
	"github.com/bosowa/fuel-ledger/internal/core/ports"
)

// SummaryCache is a best-effort read-through cache for stock summaries,
// backed by Redis. The TTL is sized to the dashboard polling interval, so a
// stale entry is at most one poll old. Backend failures degrade to a miss;
// they never fail the read.
// Key format: summary:<category> ("summary:_all" for the combined view)
type SummaryCache struct {
	client *redis.Client
	ttl    time.Duration
	logger zerolog.Logger
}

// NewSummaryCache creates a SummaryCache wrapping the given Redis client.
func NewSummaryCache(client *redis.Client, ttl time.Duration, logger zerolog.Logger) *SummaryCache {
	if ttl <= 0 {
		ttl = 10 * time.Second
	}
	return &SummaryCache{client: client, ttl: ttl, logger: logger}
}

func (c *SummaryCache) Get(ctx context.Context, category string) (*ports.StockSummary, bool) {
	raw, err := c.client.Get(ctx, c.key(category)).Bytes()
	if err != nil {
		if err != redis.Nil {
			c.logger.Warn().Err(err).Msg("summary cache read failed")
		}
		metrics.SummaryCacheTotal.WithLabelValues("miss").Inc()
		return nil, false
	}

	var summary ports.StockSummary
	if err := json.Unmarshal(raw, &summary); err != nil {
		c.logger.Warn().Err(err).Msg("summary cache entry corrupt")
		metrics.SummaryCacheTotal.WithLabelValues("miss").Inc()
		return nil, false
	}

	metrics.SummaryCacheTotal.WithLabelValues("hit").Inc()
	return &summary, true
}

func (c *SummaryCache) Set(ctx context.Context, category string, summary *ports.StockSummary) {
	raw, err := json.Marshal(summary)
	if err != nil {
		return
	}
	if err := c.client.Set(ctx, c.key(category), raw, c.ttl).Err(); err != nil {
		c.logger.Warn().Err(err).Msg("summary cache write failed")
	}
}

// Invalidate drops the entry for category along with the combined view; both
// are recomputed from the ledger on the next read. A ledger write must evict
// here so the poll-interval TTL never delays the writer's own next read.
func (c *SummaryCache) Invalidate(ctx context.Context, category string) {
	keys := []string{c.key("")}
	if category != "" {
		keys = append(keys, c.key(category))
	}
	if err := c.client.Del(ctx, keys...).Err(); err != nil {
		c.logger.Warn().Err(err).Str("category", category).Msg("summary cache invalidation failed")
	}
}

func (c *SummaryCache) key(category string) string {
	if category == "" {
		return "summary:_all"
	}
	return "summary:" + category
}

var _ ports.SummaryCache = (*SummaryCache)(nil)
