package services

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"

	"pos-insights/apperr"
	"pos-insights/cache"
	"pos-insights/config"
	"pos-insights/logging"
	"pos-insights/metrics"
	"pos-insights/models"
	"pos-insights/util"
)

// DatasetLoader reads the canonical file for the dashboard, going through the
// injected cache for local files.
type DatasetLoader struct {
	cache   cache.DatasetCache
	fetcher TableFetcher
	policy  util.DatePolicy
	logger  *slog.Logger
	metrics *metrics.Metrics
}

func NewDatasetLoader(c cache.DatasetCache, fetcher TableFetcher, policy util.DatePolicy, logger *slog.Logger, m *metrics.Metrics) *DatasetLoader {
	return &DatasetLoader{
		cache:   c,
		fetcher: fetcher,
		policy:  policy,
		logger:  logging.For(logger, "DatasetLoader"),
		metrics: m,
	}
}

// Load returns the dataset at path. A missing file is *apperr.SourceUnavailable.
func (l *DatasetLoader) Load(ctx context.Context, path string) (*models.Dataset, error) {
	if config.IsRemote(path) {
		if l.fetcher == nil {
			return nil, &apperr.SourceUnavailable{Path: path, Err: errors.New("no remote fetcher configured")}
		}
		table, err := l.fetcher.FetchCSVTable(ctx, path)
		if err != nil {
			return nil, err
		}
		return l.decode(table)
	}

	if abs, err := filepath.Abs(path); err == nil {
		path = abs
	}
	info, err := os.Stat(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, &apperr.SourceUnavailable{Path: path, Err: err}
		}
		return nil, fmt.Errorf("failed to stat %q: %w", path, err)
	}

	key := cache.Key{Path: path, ModTime: info.ModTime()}
	if l.cache != nil {
		if ds, ok := l.cache.Get(key); ok {
			l.metrics.CacheHit()
			return ds, nil
		}
		l.metrics.CacheMiss()
	}

	table, err := util.ReadTable(path)
	if err != nil {
		return nil, err
	}
	ds, err := l.decode(table)
	if err != nil {
		return nil, err
	}
	l.logger.Info("Loaded dataset", slog.String("path", path), slog.Int("rows", ds.Len()))

	if l.cache != nil {
		l.cache.Put(key, ds)
	}
	return ds, nil
}

// Invalidate drops the cached copy of path ("" drops everything).
func (l *DatasetLoader) Invalidate(path string) {
	if path != "" && !config.IsRemote(path) {
		if abs, err := filepath.Abs(path); err == nil {
			path = abs
		}
	}
	if l.cache != nil {
		l.cache.Invalidate(path)
	}
	l.logger.Info("Dataset cache invalidated", slog.String("path", path))
}

func (l *DatasetLoader) decode(table *models.RawTable) (*models.Dataset, error) {
	ds, _, err := NormalizeTable(table, NormalizeOptions{Policy: l.policy, Lenient: true})
	if err != nil {
		return nil, fmt.Errorf("failed to decode dataset: %w", err)
	}
	return ds, nil
}
