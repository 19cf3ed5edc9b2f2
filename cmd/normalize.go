package cmd

import (
	"github.com/spf13/cobra"
)

func newNormalizeCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "normalize",
		Short: "Clean the raw transaction file into the canonical dataset",
		Long: `Reads the raw transaction file, normalizes headers and dates, fills
missing transaction types, derives Year, Hour and total_amount, and
overwrites the canonical dataset CSV. A failed write is reported as a
warning; the command still succeeds.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			container, err := opts.container(cmd)
			if err != nil {
				return err
			}
			defer container.Close()

			result, err := container.NormalizerService.Run(cmd.Context(), container.InputPath, container.OutputPath)
			if err != nil {
				return err
			}

			policy := container.NormalizerService.Policy()
			out := cmd.OutOrStdout()
			printf(out, "run_id: %s\n", result.RunID)
			printf(out, "date_order: %s (strict: %t)\n", policy.Order, policy.Strict)
			printf(out, "rows: %d\n", result.Stats.Rows)
			printf(out, "invalid_dates: %d\n", result.Stats.InvalidDates)
			printf(out, "filled_transaction_type: %d\n", result.Stats.FilledTransactionType)
			if result.Warning != nil {
				printf(cmd.ErrOrStderr(), "warning: %v\n", result.Warning)
				return nil
			}
			printf(out, "Processed dataset saved to %s\n", result.OutputPath)
			return nil
		},
	}
}
