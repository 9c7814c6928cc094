package scheduler

import (
	"context"

	"go.uber.org/zap"
)

// Pruner drops expired entries and reports how many were removed.
type Pruner interface {
	Prune() int
}

// CachePruneJob returns a job that prunes expired market data cache entries.
func CachePruneJob(schedule string, cache Pruner, logger *zap.Logger) Job {
	return Job{
		Name:     "market-cache-prune",
		Schedule: schedule,
		Run: func(context.Context) error {
			if n := cache.Prune(); n > 0 {
				logger.Debug("Pruned market data cache", zap.Int("entries", n))
			}
			return nil
		},
	}
}
