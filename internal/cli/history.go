package cli

import (
	"strconv"

	"github.com/spf13/cobra"

	serrors "github.com/example/dotscaffold/internal/errors"
	"github.com/example/dotscaffold/internal/wire"
)

// HistoryCmd returns the history command
func HistoryCmd() *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "history",
		Short: "List journaled scaffold runs",
		Long: `List scaffold runs recorded in the run journal, newest first.

Examples:
  dotscaffold history
  dotscaffold history --limit 5
  dotscaffold history show 12 --failed`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			adapter, err := wire.HistoryAdapterWithOutput(cmd.OutOrStdout())
			if err != nil {
				return err
			}
			_, err = adapter.List(cmd.Context(), limit)
			return err
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "l", 20, "Maximum number of runs to list (0 for all)")
	cmd.AddCommand(historyShowCmd())

	return cmd
}

func historyShowCmd() *cobra.Command {
	var failedOnly bool

	cmd := &cobra.Command{
		Use:   "show [run-id]",
		Short: "Show the steps of one run",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			runID, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil || runID <= 0 {
				return serrors.Newf(serrors.EInputValidation, "invalid run id %q", args[0])
			}

			adapter, err := wire.HistoryAdapterWithOutput(cmd.OutOrStdout())
			if err != nil {
				return err
			}
			_, err = adapter.Show(cmd.Context(), runID, failedOnly)
			return err
		},
	}

	cmd.Flags().BoolVar(&failedOnly, "failed", false, "Only show failed and skipped steps")

	return cmd
}
