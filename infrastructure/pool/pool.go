package pool

import (
	"context"
	"sync"
	"time"

	"flowfarm/domain/model"
	"flowfarm/domain/repository"
	"flowfarm/infrastructure/logger"
)

// TokenPool holds the active lanes and hands them out round-robin so request
// volume spreads evenly across accounts. Multi-step chains pin a lane ByName
// instead, since the provider ties operation handles to the account that
// created them.
type TokenPool struct {
	mu       sync.Mutex
	lanes    []model.Lane
	cursor   int
	fallback model.Lane
}

// New creates an empty pool. The fallback lane is an explicit record built
// from ambient configuration; it is returned whenever the pool has no entries
// so callers never stall on an empty pool.
func New(fallback model.Lane) *TokenPool {
	if fallback.Name == "" {
		fallback.Name = "default"
	}
	return &TokenPool{fallback: fallback}
}

// Load replaces the pool contents with the named lanes from the store and
// resets the round-robin cursor. Unknown names are skipped with a warning.
// An empty name list loads every stored lane.
func (p *TokenPool) Load(ctx context.Context, store repository.ILaneStore, names []string) error {
	var lanes []model.Lane
	if len(names) == 0 {
		all, err := store.ListAll(ctx)
		if err != nil {
			return err
		}
		lanes = all
	} else {
		for _, name := range names {
			lane, err := store.FindByName(ctx, name)
			if err != nil {
				return err
			}
			if lane == nil {
				logger.GetLogger().WithField("lane", name).Warn("Lane not found in store, skipping")
				continue
			}
			lanes = append(lanes, *lane)
		}
	}

	p.mu.Lock()
	p.lanes = lanes
	p.cursor = 0
	p.mu.Unlock()

	logger.GetLogger().WithField("size", len(lanes)).Info("Lane pool loaded")
	return nil
}

// Reset empties the pool.
func (p *TokenPool) Reset() {
	p.mu.Lock()
	p.lanes = nil
	p.cursor = 0
	p.mu.Unlock()
}

// Next returns the lane at the cursor and advances it. Never blocks, never
// fails: an empty pool yields the fallback lane.
func (p *TokenPool) Next() model.Lane {
	p.mu.Lock()
	defer p.mu.Unlock()
	if len(p.lanes) == 0 {
		return p.fallback
	}
	lane := p.lanes[p.cursor]
	p.cursor = (p.cursor + 1) % len(p.lanes)
	return lane
}

// ByName returns the named lane. A miss degrades to Next() with a warning:
// callers prefer best-effort progress over a stalled pipeline.
func (p *TokenPool) ByName(name string) model.Lane {
	p.mu.Lock()
	for i := range p.lanes {
		if p.lanes[i].Name == name {
			lane := p.lanes[i]
			p.mu.Unlock()
			return lane
		}
	}
	p.mu.Unlock()
	logger.GetLogger().WithField("lane", name).Warn("Lane not in pool, falling back to round-robin")
	return p.Next()
}

// UpdateBearer refreshes a pooled lane's bearer token in place.
func (p *TokenPool) UpdateBearer(name, bearer string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	for i := range p.lanes {
		if p.lanes[i].Name == name {
			p.lanes[i].BearerToken = bearer
			p.lanes[i].LastRefreshedAt = time.Now()
			return
		}
	}
	if p.fallback.Name == name {
		p.fallback.BearerToken = bearer
		p.fallback.LastRefreshedAt = time.Now()
	}
}

// Size returns the number of pooled lanes.
func (p *TokenPool) Size() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.lanes)
}

// Names returns the pooled lane names in order.
func (p *TokenPool) Names() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	names := make([]string, len(p.lanes))
	for i := range p.lanes {
		names[i] = p.lanes[i].Name
	}
	return names
}
