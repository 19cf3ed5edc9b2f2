package cmd

import (
	"context"
	"fmt"
	"io"
	"os"

	"pos-insights/config"
	"pos-insights/di"
	"pos-insights/logging"

	"github.com/spf13/cobra"
)

// rootOptions are the persistent flags shared by every command. Flags that
// were set explicitly override config.yaml and environment values.
type rootOptions struct {
	configFile string
	input      string
	output     string
	dateOrder  string
	strict     bool
	logLevel   string
}

// NewRootCommand builds the pos-insights command tree.
func NewRootCommand() *cobra.Command {
	opts := &rootOptions{}

	rootCmd := &cobra.Command{
		Use:   "pos-insights",
		Short: "POS transaction normalizer, sales forecaster and dashboard",
		Long: `pos-insights cleans raw point-of-sale transaction exports into a
canonical dataset, projects weekly sales with a random forest over lagged
weeks, fits a yearly sales trend, and serves an interactive sales dashboard.`,
		SilenceUsage: true,
	}

	flags := rootCmd.PersistentFlags()
	flags.StringVar(&opts.configFile, "config", "", "Path to config.yaml (default: ./config.yaml, ./config/, $HOME/.pos-insights/)")
	flags.StringVar(&opts.input, "input", "", "Raw transaction file (.csv, .xlsx or http(s) URL)")
	flags.StringVar(&opts.output, "output", "", "Canonical dataset CSV path")
	flags.StringVar(&opts.dateOrder, "date-order", "", "How to read ambiguous dates: day-first or month-first")
	flags.BoolVar(&opts.strict, "strict", false, "Reject ambiguous dates instead of coercing them")
	flags.StringVar(&opts.logLevel, "log-level", "", "Log level: debug, info, warn, error")

	rootCmd.AddCommand(
		newNormalizeCommand(opts),
		newForecastCommand(opts),
		newTrendCommand(opts),
		newServeCommand(opts),
	)
	return rootCmd
}

// Execute runs the root command
func Execute() {
	if err := NewRootCommand().ExecuteContext(context.Background()); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// loadConfig reads the config layers and applies explicitly set flags.
func (o *rootOptions) loadConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg, err := config.Load(o.configFile)
	if err != nil {
		return nil, err
	}

	flags := cmd.Flags()
	if flags.Changed("input") {
		cfg.Paths.Input = o.input
	}
	if flags.Changed("output") {
		cfg.Paths.Output = o.output
	}
	if flags.Changed("date-order") {
		cfg.Dates.Order = o.dateOrder
	}
	if flags.Changed("strict") {
		cfg.Dates.Strict = o.strict
	}
	if flags.Changed("log-level") {
		cfg.Logging.Level = o.logLevel
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid flags: %w", err)
	}
	return cfg, nil
}

// container loads config and wires the dependencies for one command run.
// Logs go to the command's error stream so stdout stays parseable.
func (o *rootOptions) container(cmd *cobra.Command) (*di.Container, error) {
	cfg, err := o.loadConfig(cmd)
	if err != nil {
		return nil, err
	}
	return o.containerFor(cmd, cfg)
}

func (o *rootOptions) containerFor(cmd *cobra.Command, cfg *config.Config) (*di.Container, error) {
	logger := logging.New(cfg.Logging, cmd.ErrOrStderr())
	return di.NewContainer(cfg, logger)
}

func printf(w io.Writer, format string, args ...interface{}) {
	fmt.Fprintf(w, format, args...)
}
