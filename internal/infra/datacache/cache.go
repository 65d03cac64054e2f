// Package datacache keeps one time-boxed snapshot of every configured data
// source. A refresh replaces the whole snapshot or nothing.
package datacache

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"

	"school-assistant/internal/domain"
	"school-assistant/internal/domain/model"
	"school-assistant/internal/domain/ports/adapter"
	"school-assistant/internal/infra/metrics"
)

var _ adapter.DataProvider = (*Cache)(nil)

type Cache struct {
	sources  []model.DataSource
	fetcher  adapter.SourceFetcher
	duration time.Duration
	now      func() time.Time
	log      *zerolog.Logger

	mu    sync.RWMutex
	snap  *model.DataSnapshot
	group singleflight.Group
}

func New(sources []model.DataSource, fetcher adapter.SourceFetcher, duration time.Duration, now func() time.Time, logger *zerolog.Logger) *Cache {
	if now == nil {
		now = time.Now
	}
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}
	return &Cache{
		sources:  sources,
		fetcher:  fetcher,
		duration: duration,
		now:      now,
		log:      logger,
	}
}

// Get returns the current snapshot, refreshing every source when the cache is
// empty or older than its duration. Concurrent callers share one refresh.
func (c *Cache) Get(ctx context.Context) (*model.DataSnapshot, error) {
	if s := c.fresh(); s != nil {
		metrics.IncCacheRequest("sources", "hit")
		return s, nil
	}
	metrics.IncCacheRequest("sources", "miss")

	// the shared refresh must outlive any single caller's cancellation
	refreshCtx := context.WithoutCancel(ctx)
	ch := c.group.DoChan("refresh", func() (any, error) {
		if s := c.fresh(); s != nil {
			return s, nil
		}
		return c.refresh(refreshCtx)
	})

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.(*model.DataSnapshot), nil
	}
}

// Refresh refetches every source regardless of age. On failure the previous
// snapshot stays in place. It shares the in-flight refresh with Get callers.
func (c *Cache) Refresh(ctx context.Context) error {
	res := <-c.group.DoChan("refresh", func() (any, error) {
		return c.refresh(ctx)
	})
	return res.Err
}

// Invalidate drops the snapshot so the next Get refetches.
func (c *Cache) Invalidate() {
	c.mu.Lock()
	c.snap = nil
	c.mu.Unlock()
}

func (c *Cache) fresh() *model.DataSnapshot {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.snap == nil || c.now().Sub(c.snap.FetchedAt) > c.duration {
		return nil
	}
	return c.snap
}

func (c *Cache) refresh(ctx context.Context) (*model.DataSnapshot, error) {
	if len(c.sources) == 0 {
		metrics.IncCacheRefresh("error")
		return nil, fmt.Errorf("%w: ORGANIZATION_DATA_SOURCES not configured", domain.ErrNotConfigured)
	}
	startedAt := c.now()
	c.log.Info().Int("sources", len(c.sources)).Msg("data cache stale or empty; fetching all sources")

	texts := make([]string, len(c.sources))
	g, gctx := errgroup.WithContext(ctx)
	for i, src := range c.sources {
		g.Go(func() error {
			body, err := c.fetcher.Fetch(gctx, src.URL)
			if err != nil {
				return fmt.Errorf("source %s: %w", src.Name, err)
			}
			texts[i] = body
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		metrics.IncCacheRefresh("error")
		c.log.Error().Err(err).Msg("data cache refresh failed; keeping previous snapshot")
		return nil, err
	}

	snap := &model.DataSnapshot{
		Data:      make(map[string]string, len(c.sources)),
		Names:     make([]string, 0, len(c.sources)),
		FetchedAt: startedAt,
	}
	for i, src := range c.sources {
		if _, dup := snap.Data[src.Name]; !dup {
			snap.Names = append(snap.Names, src.Name)
		}
		snap.Data[src.Name] = texts[i]
	}

	c.mu.Lock()
	c.snap = snap
	c.mu.Unlock()

	metrics.IncCacheRefresh("ok")
	metrics.ObserveStage("fetch", c.now().Sub(startedAt).Seconds())
	c.log.Info().Strs("sources", snap.Names).Msg("data cache refreshed")
	return snap, nil
}
