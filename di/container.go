package di

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"pos-insights/api"
	"pos-insights/cache"
	"pos-insights/config"
	"pos-insights/dao/redis"
	"pos-insights/db"
	"pos-insights/logging"
	"pos-insights/metrics"
	"pos-insights/regression"
	"pos-insights/server"
	"pos-insights/server/handlers"
	services "pos-insights/service"
	"pos-insights/util"

	goredis "github.com/go-redis/redis/v8"
	"github.com/gorilla/mux"
)

// Container holds all application dependencies.
type Container struct {
	Config                  *config.Config
	InputPath               string
	OutputPath              string
	Logger                  *slog.Logger
	Metrics                 *metrics.Metrics
	HTTPClient              *api.HTTPClient
	RedisClient             db.RedisClient
	RedisDatasetDao         *redis.RedisDatasetDAO
	DatasetCache            cache.DatasetCache
	CacheWatcher            *cache.Watcher
	DatasetLoader           *services.DatasetLoader
	NormalizerService       *services.NormalizerService
	WeeklyForecastService   *services.WeeklyForecastService
	TrendService            *services.TrendService
	DatasetRefresherService *services.DatasetRefresherService
	DashboardHandler        *handlers.DashboardHandler
	MuxRouter               *mux.Router
	Router                  *server.Router
	DashboardHttpServer     *server.DashboardHttpServer

	goRedisClient *db.GoRedisClient
}

// NewContainer initializes and wires up all dependencies.
func NewContainer(cfg *config.Config, logger *slog.Logger) (*Container, error) {
	logging.For(logger, "Container").Info("Initializing container",
		slog.String("cache_backend", cfg.Cache.Backend),
		slog.String("date_order", cfg.Dates.Order))

	policy, err := util.NewDatePolicy(cfg.Dates.Order, cfg.Dates.Strict)
	if err != nil {
		return nil, err
	}
	anchor, err := config.ParseWeekday(cfg.Forecast.AnchorWeekday)
	if err != nil {
		return nil, err
	}

	c := &Container{
		Config:  cfg,
		Logger:  logger,
		Metrics: metrics.New(),
		// Dataset locations are full URLs, so no base.
		HTTPClient: api.NewHTTPClient(""),
	}

	if err := c.initCache(cfg, logger); err != nil {
		return nil, err
	}

	inputPath := config.ResolvePath(cfg.Paths.Input)
	outputPath := config.ResolvePath(cfg.Paths.Output)
	c.InputPath, c.OutputPath = inputPath, outputPath

	c.DatasetLoader = services.NewDatasetLoader(c.DatasetCache, c.HTTPClient, policy, logger, c.Metrics)
	c.NormalizerService = services.NewNormalizerService(policy, c.HTTPClient, logger, c.Metrics)
	c.WeeklyForecastService = services.NewWeeklyForecastService(services.WeeklyForecastOptions{
		Anchor:  anchor,
		Lags:    cfg.Forecast.Lags,
		Horizon: cfg.Forecast.Horizon,
		Forest: regression.Params{
			Trees:    cfg.Forecast.Trees,
			Seed:     cfg.Forecast.Seed,
			MaxDepth: cfg.Forecast.MaxDepth,
			MinLeaf:  cfg.Forecast.MinLeaf,
		},
	}, logger, c.Metrics)
	c.TrendService = services.NewTrendService(cfg.Trend.TargetYear, logger, c.Metrics)
	c.DatasetRefresherService = services.NewDatasetRefresherService(c.NormalizerService, c.DatasetLoader, inputPath, outputPath, logger)

	// Initialize dashboard handler
	c.DashboardHandler = handlers.NewDashboardHandler(c.DatasetLoader, c.WeeklyForecastService, c.TrendService, outputPath, logger)

	// Initialize mux router
	c.MuxRouter = mux.NewRouter()
	invalidateLimiter := server.NewRateLimiter(cfg.Server.InvalidateRPS, cfg.Server.InvalidateBurst, logger)
	c.Router = server.NewRouter(c.DashboardHandler, c.Metrics, invalidateLimiter, c.MuxRouter)
	c.DashboardHttpServer = server.NewDashboardHttpServer(c.Router, c.MuxRouter, cfg.Server.Addr, cfg.Server.ShutdownTimeout, logger)

	if cfg.Cache.WatchFiles && !config.IsRemote(outputPath) {
		watcher, err := cache.NewWatcher(c.DatasetCache, logger)
		if err != nil {
			return nil, err
		}
		if err := watcher.Watch(outputPath); err != nil {
			// The output directory may not exist before the first run.
			logger.Warn("Dataset file watching disabled", slog.Any("error", err))
			_ = watcher.Close()
		} else {
			c.CacheWatcher = watcher
		}
	}

	return c, nil
}

func (c *Container) initCache(cfg *config.Config, logger *slog.Logger) error {
	switch cfg.Cache.Backend {
	case config.CACHE_BACKEND_REDIS:
		// Initialize Redis Client internals
		redisInternalClient := goredis.NewClient(&goredis.Options{
			Addr:        cfg.Cache.RedisAddr,
			Password:    cfg.Cache.RedisPass,
			DB:          cfg.Cache.RedisDB,
			DialTimeout: 5 * time.Second,
		})

		redisClient, err := db.NewGoRedisClient(context.Background(), redisInternalClient)
		if err != nil {
			_ = redisInternalClient.Close()
			return fmt.Errorf("failed to connect to Redis at %s: %w", cfg.Cache.RedisAddr, err)
		}
		c.goRedisClient = redisClient
		c.RedisClient = redisClient
		c.RedisDatasetDao = redis.NewRedisDatasetDAO(redisClient)
		c.DatasetCache = cache.NewRedisCache(c.RedisDatasetDao, cfg.Cache.TTL, logger)
	default:
		c.DatasetCache = cache.NewMemoryCache(cfg.Cache.TTL)
	}
	return nil
}

// Close releases the watcher and the Redis connection.
func (c *Container) Close() error {
	var firstErr error
	if c.CacheWatcher != nil {
		if err := c.CacheWatcher.Close(); err != nil {
			firstErr = err
		}
	}
	if c.goRedisClient != nil {
		if err := c.goRedisClient.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
