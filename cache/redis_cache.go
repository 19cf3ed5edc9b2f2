package cache

import (
	"log/slog"
	"time"

	"pos-insights/dao/redis"
	"pos-insights/logging"
	"pos-insights/models"
)

// RedisCache shares datasets between dashboard replicas through Redis.
// Redis failures degrade to cache misses.
type RedisCache struct {
	dao    *redis.RedisDatasetDAO
	ttl    time.Duration
	logger *slog.Logger
}

func NewRedisCache(dao *redis.RedisDatasetDAO, ttl time.Duration, logger *slog.Logger) *RedisCache {
	return &RedisCache{dao: dao, ttl: ttl, logger: logging.For(logger, "RedisCache")}
}

func (c *RedisCache) Get(key Key) (*models.Dataset, bool) {
	ds, modTime, err := c.dao.GetDataset(key.Path)
	if err != nil {
		c.logger.Warn("Dataset cache read failed", slog.String("key", key.String()), slog.Any("error", err))
		return nil, false
	}
	if ds == nil || !modTime.Equal(key.ModTime) {
		return nil, false
	}
	return ds, true
}

func (c *RedisCache) Put(key Key, ds *models.Dataset) {
	if err := c.dao.SetDataset(key.Path, key.ModTime, ds, c.ttl); err != nil {
		c.logger.Warn("Dataset cache write failed", slog.String("key", key.String()), slog.Any("error", err))
	}
}

func (c *RedisCache) Invalidate(path string) {
	paths := []string{path}
	if path == "" {
		var err error
		if paths, err = c.dao.ListDatasetPaths(); err != nil {
			c.logger.Warn("Failed to list cached datasets", slog.Any("error", err))
			return
		}
	}
	for _, p := range paths {
		if err := c.dao.DeleteDataset(p); err != nil {
			c.logger.Warn("Dataset cache delete failed", slog.String("path", p), slog.Any("error", err))
		}
	}
	c.logger.Info("Invalidated dataset cache", slog.Int("entries", len(paths)))
}
