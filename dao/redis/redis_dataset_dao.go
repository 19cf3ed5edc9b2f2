package redis

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"pos-insights/db"
	"pos-insights/models"
)

// DATASET_KEY_FORMAT stores one canonical dataset per source path.
const DATASET_KEY_FORMAT = "dataset_v1:%s"

// cachedDataset is the JSON document stored under a dataset key. ModTime is
// the source file's modification time when the dataset was loaded.
type cachedDataset struct {
	Path    string          `json:"path"`
	ModTime time.Time       `json:"mod_time"`
	Dataset *models.Dataset `json:"dataset"`
}

// RedisDatasetDAO handles dataset cache entries in Redis.
type RedisDatasetDAO struct {
	client db.RedisClient
}

// NewRedisDatasetDAO initializes a RedisDatasetDAO with the Redis client.
func NewRedisDatasetDAO(client db.RedisClient) *RedisDatasetDAO {
	return &RedisDatasetDAO{client: client}
}

// SetDataset caches ds for path as loaded at modTime.
func (dao *RedisDatasetDAO) SetDataset(path string, modTime time.Time, ds *models.Dataset, ttl time.Duration) error {
	data, err := json.Marshal(cachedDataset{Path: path, ModTime: modTime, Dataset: ds})
	if err != nil {
		return fmt.Errorf("failed to marshal dataset for %s: %w", path, err)
	}
	if err := dao.client.Set(fmt.Sprintf(DATASET_KEY_FORMAT, path), string(data), ttl); err != nil {
		return fmt.Errorf("failed to set dataset in redis: %w", err)
	}
	return nil
}

// GetDataset returns the cached dataset for path and the modification time it
// was cached at. A cache miss returns (nil, zero time, nil).
func (dao *RedisDatasetDAO) GetDataset(path string) (*models.Dataset, time.Time, error) {
	str, err := dao.client.Get(fmt.Sprintf(DATASET_KEY_FORMAT, path))
	if err != nil {
		if errors.Is(err, db.ErrKeyNotFound) {
			return nil, time.Time{}, nil
		}
		return nil, time.Time{}, fmt.Errorf("failed to get dataset from redis: %w", err)
	}
	var cached cachedDataset
	if err := json.Unmarshal([]byte(str), &cached); err != nil {
		return nil, time.Time{}, fmt.Errorf("failed to unmarshal dataset JSON: %w", err)
	}
	return cached.Dataset, cached.ModTime, nil
}

// DeleteDataset drops the entry for path.
func (dao *RedisDatasetDAO) DeleteDataset(path string) error {
	key := fmt.Sprintf(DATASET_KEY_FORMAT, path)
	if err := dao.client.Del(key); err != nil {
		return fmt.Errorf("failed to delete dataset key %s: %w", key, err)
	}
	return nil
}

// ListDatasetPaths returns the source paths of every cached dataset.
func (dao *RedisDatasetDAO) ListDatasetPaths() ([]string, error) {
	keys, err := dao.client.Keys(fmt.Sprintf(DATASET_KEY_FORMAT, "*"))
	if err != nil {
		return nil, fmt.Errorf("failed to list dataset keys: %w", err)
	}
	prefix := fmt.Sprintf(DATASET_KEY_FORMAT, "")
	paths := make([]string, 0, len(keys))
	for _, k := range keys {
		paths = append(paths, strings.TrimPrefix(k, prefix))
	}
	return paths, nil
}
