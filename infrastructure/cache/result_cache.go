package cache

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"flowfarm/domain/model"
	"flowfarm/infrastructure/logger"

	"github.com/redis/go-redis/v9"
)

const resultTTL = 24 * time.Hour

// ResultCache keeps resolved job results (job id -> winning media) in memory
// and mirrors them to Redis when a client is configured, so results survive a
// process restart. The in-memory map is authoritative within one run.
type ResultCache struct {
	mu      sync.RWMutex
	results map[string]model.JobResult
	redis   *redis.Client
}

func NewResultCache(client *redis.Client) *ResultCache {
	return &ResultCache{
		results: make(map[string]model.JobResult),
		redis:   client,
	}
}

func redisKey(jobID string) string { return "flowfarm:result:" + jobID }

// Put stores a resolved result. Redis mirroring is best effort.
func (c *ResultCache) Put(ctx context.Context, result model.JobResult) {
	c.mu.Lock()
	c.results[result.JobID] = result
	c.mu.Unlock()

	if c.redis == nil {
		return
	}
	data, err := json.Marshal(result)
	if err != nil {
		return
	}
	if err := c.redis.Set(ctx, redisKey(result.JobID), data, resultTTL).Err(); err != nil {
		logger.GetLogger().WithField("error", err).Warn("Failed to mirror job result to Redis")
	}
}

// Get returns a resolved result, falling back to Redis on an in-memory miss.
func (c *ResultCache) Get(ctx context.Context, jobID string) (model.JobResult, bool) {
	c.mu.RLock()
	result, ok := c.results[jobID]
	c.mu.RUnlock()
	if ok {
		return result, true
	}

	if c.redis == nil {
		return model.JobResult{}, false
	}
	data, err := c.redis.Get(ctx, redisKey(jobID)).Bytes()
	if err != nil {
		return model.JobResult{}, false
	}
	if err := json.Unmarshal(data, &result); err != nil {
		return model.JobResult{}, false
	}
	c.mu.Lock()
	c.results[jobID] = result
	c.mu.Unlock()
	return result, true
}
