package jobs

import (
	"context"

	"github.com/joefrost01/batch-report/pkg/logger"
)

// CacheCleanupJobName is the registered name of the cache cleanup job
const CacheCleanupJobName = "cache_cleanup"

// StaleCleaner drops expired entries and reports how many
type StaleCleaner interface {
	CleanStale() int
}

// CacheCleanupJob evicts expired reports from the in-process cache
type CacheCleanupJob struct {
	cache  StaleCleaner
	logger *logger.Logger
}

// NewCacheCleanupJob creates a new cache cleanup job
func NewCacheCleanupJob(c StaleCleaner, log *logger.Logger) *CacheCleanupJob {
	if log == nil {
		log = logger.Nop()
	}
	return &CacheCleanupJob{
		cache:  c,
		logger: log.Component(CacheCleanupJobName),
	}
}

// Name returns the job name
func (j *CacheCleanupJob) Name() string {
	return CacheCleanupJobName
}

// Schedule returns the cron schedule (every 5 minutes)
func (j *CacheCleanupJob) Schedule() string {
	return "0 */5 * * * *"
}

// Run executes the cache cleanup
func (j *CacheCleanupJob) Run(ctx context.Context) error {
	j.logger.Debug("Starting scheduled cache cleanup")

	if count := j.cache.CleanStale(); count > 0 {
		j.logger.WithField("removed", count).Info("Cache cleanup completed")
	}

	return nil
}
