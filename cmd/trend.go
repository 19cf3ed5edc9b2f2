package cmd

import (
	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
)

func newTrendCommand(opts *rootOptions) *cobra.Command {
	var year int

	trendCmd := &cobra.Command{
		Use:   "trend",
		Short: "Predict total sales for a year from the yearly linear trend",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			container, err := opts.container(cmd)
			if err != nil {
				return err
			}
			defer container.Close()

			if !cmd.Flags().Changed("year") {
				year = container.TrendService.TargetYear()
			}

			ds, err := container.DatasetLoader.Load(cmd.Context(), container.OutputPath)
			if err != nil {
				return err
			}
			prediction, err := container.TrendService.PredictYear(ds, year)
			if err != nil {
				return err
			}

			printf(cmd.OutOrStdout(), "Predicted Sales for %d: %s (from %d years, slope %.2f)\n",
				prediction.TargetYear,
				humanize.CommafWithDigits(prediction.PredictedTotal, 2),
				prediction.YearsObserved,
				prediction.Slope)
			return nil
		},
	}

	trendCmd.Flags().IntVar(&year, "year", 0, "Target year (default: trend.target_year)")
	return trendCmd
}
