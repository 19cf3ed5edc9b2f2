package services

import (
	"context"
	"log/slog"
	"time"

	"pos-insights/logging"
	"pos-insights/models"
)

// PipelineRunner re-runs the normalizer pipeline.
type PipelineRunner interface {
	Run(ctx context.Context, inputPath, outputPath string) (*models.NormalizeResult, error)
}

// CacheInvalidator drops cached datasets for a path.
type CacheInvalidator interface {
	Invalidate(path string)
}

// DatasetRefresherService periodically rebuilds the canonical dataset from
// the raw input so the dashboard picks up new transactions.
type DatasetRefresherService struct {
	pipeline   PipelineRunner
	cache      CacheInvalidator
	inputPath  string
	outputPath string
	logger     *slog.Logger
}

func NewDatasetRefresherService(
	pipeline PipelineRunner,
	cache CacheInvalidator,
	inputPath, outputPath string,
	logger *slog.Logger,
) *DatasetRefresherService {
	return &DatasetRefresherService{
		pipeline:   pipeline,
		cache:      cache,
		inputPath:  inputPath,
		outputPath: outputPath,
		logger:     logging.For(logger, "DatasetRefresherService"),
	}
}

// StartPeriodicJob launches the background loop at the given interval. It
// stops when ctx is cancelled.
func (dr *DatasetRefresherService) StartPeriodicJob(ctx context.Context, interval time.Duration) {
	go dr.startPeriodicJob(ctx, interval)
}

func (dr *DatasetRefresherService) startPeriodicJob(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			dr.logger.Info("Stopping periodic dataset refresher job")
			return
		case <-ticker.C:
			dr.logger.Info("Running periodic dataset refresher job")
			if err := dr.RefreshDataset(ctx); err != nil {
				dr.logger.Error("RefreshDataset returned error", slog.Any("error", err))
			}
		}
	}
}

// RefreshDataset runs the pipeline once and drops the cached canonical file.
// A persistence warning is logged, not returned: the previous file stays in
// place for the dashboard.
func (dr *DatasetRefresherService) RefreshDataset(ctx context.Context) error {
	result, err := dr.pipeline.Run(ctx, dr.inputPath, dr.outputPath)
	if err != nil {
		return err
	}
	if result.Warning != nil {
		dr.logger.Warn("Refreshed dataset was not persisted",
			slog.String("run_id", result.RunID.String()),
			slog.Any("error", result.Warning))
		return nil
	}

	if dr.cache != nil {
		dr.cache.Invalidate(result.OutputPath)
	}
	dr.logger.Info("Dataset refreshed",
		slog.String("run_id", result.RunID.String()),
		slog.Int("rows", result.Stats.Rows),
		slog.String("output", result.OutputPath))
	return nil
}
