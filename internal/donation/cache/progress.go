// Package cache holds the Redis-backed campaign progress cache. It is a
// read-side optimization only: every method is best-effort and the ledger
// never depends on it.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"kindra/internal/donation/service"
	id "kindra/pkg/domain"
)

const keyPrefix = "campaign:progress:"

// ProgressCache caches campaign progress snapshots in Redis.
type ProgressCache struct {
	client *redis.Client
	ttl    time.Duration
	logger *slog.Logger
}

// NewProgressCache constructs a ProgressCache. A non-positive ttl defaults
// to five minutes.
func NewProgressCache(client *redis.Client, ttl time.Duration, logger *slog.Logger) *ProgressCache {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &ProgressCache{client: client, ttl: ttl, logger: logger}
}

func (c *ProgressCache) Get(ctx context.Context, campaignID id.CampaignID) (*service.CampaignProgress, bool) {
	raw, err := c.client.Get(ctx, keyPrefix+campaignID.String()).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			c.logger.WarnContext(ctx, "progress cache read failed",
				"campaign_id", campaignID.String(), "error", err.Error())
		}
		return nil, false
	}
	var p service.CampaignProgress
	if err := json.Unmarshal(raw, &p); err != nil {
		// Treat a corrupt entry as a miss and drop it.
		c.Invalidate(ctx, campaignID)
		return nil, false
	}
	return &p, true
}

func (c *ProgressCache) Set(ctx context.Context, campaignID id.CampaignID, p service.CampaignProgress) {
	raw, err := json.Marshal(p)
	if err != nil {
		return
	}
	if err := c.client.Set(ctx, keyPrefix+campaignID.String(), raw, c.ttl).Err(); err != nil {
		c.logger.WarnContext(ctx, "progress cache write failed",
			"campaign_id", campaignID.String(), "error", err.Error())
	}
}

func (c *ProgressCache) Invalidate(ctx context.Context, campaignID id.CampaignID) {
	if err := c.client.Del(ctx, keyPrefix+campaignID.String()).Err(); err != nil {
		c.logger.WarnContext(ctx, "progress cache invalidation failed",
			"campaign_id", campaignID.String(), "error", err.Error())
	}
}
