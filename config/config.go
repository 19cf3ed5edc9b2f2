package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Dataset paths
const DEFAULT_INPUT_PATH = "data/Balaji Fast Food Sales.csv"
const DEFAULT_OUTPUT_PATH = "data/processed_dataset.csv"

// Date parsing policy
const DATE_ORDER_DAY_FIRST = "day-first"
const DATE_ORDER_MONTH_FIRST = "month-first"
const DEFAULT_DATE_ORDER = DATE_ORDER_DAY_FIRST

// Weekly forecaster
const DEFAULT_ANCHOR_WEEKDAY = "friday"
const DEFAULT_FORECAST_LAGS = 8
const MAX_FORECAST_LAGS = 8
const DEFAULT_FORECAST_HORIZON = 4
const DEFAULT_FOREST_TREES = 100
const DEFAULT_FOREST_SEED = 42
const DEFAULT_FOREST_MIN_LEAF = 1

// Yearly trend
const DEFAULT_TREND_TARGET_YEAR = 2024

// Dashboard server
const DEFAULT_SERVER_ADDR = ":8080"
const DEFAULT_SHUTDOWN_TIMEOUT = 5 * time.Second

// Zero disables the periodic pipeline re-run while serving.
const DEFAULT_REFRESH_INTERVAL time.Duration = 0

// Cache invalidation rate limit; zero rps disables it.
const DEFAULT_INVALIDATE_RPS = 1.0
const DEFAULT_INVALIDATE_BURST = 5

// Dataset cache
const CACHE_BACKEND_MEMORY = "memory"
const CACHE_BACKEND_REDIS = "redis"
const DEFAULT_REDIS_ADDRESS = "redis:6379"
const DEFAULT_CACHE_TTL = 30 * time.Minute

// Logging
const DEFAULT_LOG_LEVEL = "info"
const DEFAULT_LOG_FORMAT = "json"

const ENV_PREFIX = "POS_INSIGHTS"

// Config is the full application configuration.
type Config struct {
	Paths    PathsConfig    `mapstructure:"paths"`
	Dates    DatesConfig    `mapstructure:"dates"`
	Forecast ForecastConfig `mapstructure:"forecast"`
	Trend    TrendConfig    `mapstructure:"trend"`
	Server   ServerConfig   `mapstructure:"server"`
	Cache    CacheConfig    `mapstructure:"cache"`
	Logging  LoggingConfig  `mapstructure:"logging"`
}

type PathsConfig struct {
	Input  string `mapstructure:"input"`
	Output string `mapstructure:"output"`
}

// DatesConfig selects how ambiguous day/month tokens are read.
type DatesConfig struct {
	Order  string `mapstructure:"order" validate:"dateorder"`
	Strict bool   `mapstructure:"strict"`
}

type ForecastConfig struct {
	AnchorWeekday string `mapstructure:"anchor_weekday" validate:"weekday"`
	Lags          int    `mapstructure:"lags" validate:"min=1,max=8"`
	Horizon       int    `mapstructure:"horizon" validate:"min=1"`
	Trees         int    `mapstructure:"trees" validate:"min=1"`
	Seed          int64  `mapstructure:"seed"`
	MaxDepth      int    `mapstructure:"max_depth" validate:"min=0"`
	MinLeaf       int    `mapstructure:"min_leaf" validate:"min=0"`
}

type TrendConfig struct {
	TargetYear int `mapstructure:"target_year"`
}

type ServerConfig struct {
	Addr            string        `mapstructure:"addr"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
	RefreshInterval time.Duration `mapstructure:"refresh_interval" validate:"min=0s"`
	InvalidateRPS   float64       `mapstructure:"invalidate_rps" validate:"min=0"`
	InvalidateBurst int           `mapstructure:"invalidate_burst" validate:"min=0"`
}

type CacheConfig struct {
	Backend    string        `mapstructure:"backend" validate:"oneof=memory redis"`
	TTL        time.Duration `mapstructure:"ttl"`
	WatchFiles bool          `mapstructure:"watch_files"`
	RedisAddr  string        `mapstructure:"redis_addr"`
	RedisPass  string        `mapstructure:"redis_password"`
	RedisDB    int           `mapstructure:"redis_db"`
}

type LoggingConfig struct {
	Level  string `mapstructure:"level" validate:"omitempty,oneof=debug info warn warning error"`
	Format string `mapstructure:"format" validate:"omitempty,oneof=json text"`
}

// BaseDir returns the absolute path of the project root directory
func BaseDir() string {
	if root := os.Getenv("PROJECT_ROOT"); root != "" {
		return root
	}

	wd, err := os.Getwd()
	if err != nil {
		panic("Unable to determine working directory: " + err.Error())
	}

	return wd
}

// ResolvePath anchors relative dataset paths at BaseDir. URLs and absolute
// paths are returned unchanged.
func ResolvePath(path string) string {
	if path == "" || filepath.IsAbs(path) || IsRemote(path) {
		return path
	}
	return filepath.Join(BaseDir(), path)
}

// IsRemote reports whether the dataset location is an http(s) URL.
func IsRemote(path string) bool {
	lower := strings.ToLower(path)
	return strings.HasPrefix(lower, "http://") || strings.HasPrefix(lower, "https://")
}

// Default returns the configuration used when no file or env overrides exist.
func Default() *Config {
	return &Config{
		Paths: PathsConfig{
			Input:  DEFAULT_INPUT_PATH,
			Output: DEFAULT_OUTPUT_PATH,
		},
		Dates: DatesConfig{Order: DEFAULT_DATE_ORDER},
		Forecast: ForecastConfig{
			AnchorWeekday: DEFAULT_ANCHOR_WEEKDAY,
			Lags:          DEFAULT_FORECAST_LAGS,
			Horizon:       DEFAULT_FORECAST_HORIZON,
			Trees:         DEFAULT_FOREST_TREES,
			Seed:          DEFAULT_FOREST_SEED,
			MinLeaf:       DEFAULT_FOREST_MIN_LEAF,
		},
		Trend: TrendConfig{TargetYear: DEFAULT_TREND_TARGET_YEAR},
		Server: ServerConfig{
			Addr:            DEFAULT_SERVER_ADDR,
			ShutdownTimeout: DEFAULT_SHUTDOWN_TIMEOUT,
			RefreshInterval: DEFAULT_REFRESH_INTERVAL,
			InvalidateRPS:   DEFAULT_INVALIDATE_RPS,
			InvalidateBurst: DEFAULT_INVALIDATE_BURST,
		},
		Cache: CacheConfig{
			Backend:   CACHE_BACKEND_MEMORY,
			TTL:       DEFAULT_CACHE_TTL,
			RedisAddr: DEFAULT_REDIS_ADDRESS,
		},
		Logging: LoggingConfig{
			Level:  DEFAULT_LOG_LEVEL,
			Format: DEFAULT_LOG_FORMAT,
		},
	}
}

// Load reads config.yaml (optional), a .env file (optional) and
// POS_INSIGHTS_* environment variables, env taking precedence.
func Load(configFile string) (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	setDefaults(v, Default())

	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath("./")
		v.AddConfigPath("./config/")
		v.AddConfigPath("$HOME/.pos-insights/")
	}

	v.SetEnvPrefix(ENV_PREFIX)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if configFile != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &cfg, nil
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()

	// Report fields by their config key.
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("mapstructure"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	_ = v.RegisterValidation("dateorder", func(fl validator.FieldLevel) bool {
		switch strings.ToLower(fl.Field().String()) {
		case DATE_ORDER_DAY_FIRST, DATE_ORDER_MONTH_FIRST:
			return true
		}
		return false
	})
	_ = v.RegisterValidation("weekday", func(fl validator.FieldLevel) bool {
		_, err := ParseWeekday(fl.Field().String())
		return err == nil
	})
	return v
}

// Validate rejects settings the pipeline cannot honour.
func (c *Config) Validate() error {
	err := validate.Struct(c)
	if err == nil {
		return nil
	}
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return err
	}
	msgs := make([]string, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		msgs = append(msgs, fieldMessage(fe))
	}
	return errors.New(strings.Join(msgs, "; "))
}

func fieldMessage(fe validator.FieldError) string {
	field := fe.Namespace()
	if i := strings.Index(field, "."); i >= 0 {
		field = field[i+1:]
	}
	switch fe.Tag() {
	case "dateorder":
		return fmt.Sprintf("%s must be %q or %q, got %q", field, DATE_ORDER_DAY_FIRST, DATE_ORDER_MONTH_FIRST, fe.Value())
	case "weekday":
		return fmt.Sprintf("%s: unknown weekday %q", field, fe.Value())
	case "oneof":
		return fmt.Sprintf("%s must be one of [%s], got %q", field, fe.Param(), fe.Value())
	case "min":
		return fmt.Sprintf("%s must be at least %s, got %v", field, fe.Param(), fe.Value())
	case "max":
		return fmt.Sprintf("%s must be at most %s, got %v", field, fe.Param(), fe.Value())
	}
	return fmt.Sprintf("%s failed %s validation", field, fe.Tag())
}

// ParseWeekday maps a weekday name ("friday", "Fri") to time.Weekday.
func ParseWeekday(name string) (time.Weekday, error) {
	key := strings.ToLower(strings.TrimSpace(name))
	for d := time.Sunday; d <= time.Saturday; d++ {
		full := strings.ToLower(d.String())
		if key == full || key == full[:3] {
			return d, nil
		}
	}
	return time.Sunday, fmt.Errorf("unknown weekday %q", name)
}

func setDefaults(v *viper.Viper, d *Config) {
	v.SetDefault("paths.input", d.Paths.Input)
	v.SetDefault("paths.output", d.Paths.Output)
	v.SetDefault("dates.order", d.Dates.Order)
	v.SetDefault("dates.strict", d.Dates.Strict)
	v.SetDefault("forecast.anchor_weekday", d.Forecast.AnchorWeekday)
	v.SetDefault("forecast.lags", d.Forecast.Lags)
	v.SetDefault("forecast.horizon", d.Forecast.Horizon)
	v.SetDefault("forecast.trees", d.Forecast.Trees)
	v.SetDefault("forecast.seed", d.Forecast.Seed)
	v.SetDefault("forecast.max_depth", d.Forecast.MaxDepth)
	v.SetDefault("forecast.min_leaf", d.Forecast.MinLeaf)
	v.SetDefault("trend.target_year", d.Trend.TargetYear)
	v.SetDefault("server.addr", d.Server.Addr)
	v.SetDefault("server.shutdown_timeout", d.Server.ShutdownTimeout)
	v.SetDefault("server.refresh_interval", d.Server.RefreshInterval)
	v.SetDefault("server.invalidate_rps", d.Server.InvalidateRPS)
	v.SetDefault("server.invalidate_burst", d.Server.InvalidateBurst)
	v.SetDefault("cache.backend", d.Cache.Backend)
	v.SetDefault("cache.ttl", d.Cache.TTL)
	v.SetDefault("cache.watch_files", d.Cache.WatchFiles)
	v.SetDefault("cache.redis_addr", d.Cache.RedisAddr)
	v.SetDefault("cache.redis_password", d.Cache.RedisPass)
	v.SetDefault("cache.redis_db", d.Cache.RedisDB)
	v.SetDefault("logging.level", d.Logging.Level)
	v.SetDefault("logging.format", d.Logging.Format)
}
