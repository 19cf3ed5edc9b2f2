package cmd

import (
	"encoding/json"

	"github.com/spf13/cobra"
)

func newForecastCommand(opts *rootOptions) *cobra.Command {
	var asJSON bool

	forecastCmd := &cobra.Command{
		Use:   "forecast",
		Short: "Project the next weekly sales totals from the canonical dataset",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			container, err := opts.container(cmd)
			if err != nil {
				return err
			}
			defer container.Close()

			ds, err := container.DatasetLoader.Load(cmd.Context(), container.OutputPath)
			if err != nil {
				return err
			}
			result, err := container.WeeklyForecastService.Forecast(ds)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if asJSON {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(result)
			}
			printf(out, "Weekly forecast (%s anchors, last observed %s)\n", result.AnchorWeekday, result.LastObserved)
			for _, p := range result.Points {
				printf(out, "%s\t%.2f\n", p.Date, p.Value)
			}
			return nil
		},
	}

	forecastCmd.Flags().BoolVar(&asJSON, "json", false, "Print the forecast as JSON")
	return forecastCmd
}
