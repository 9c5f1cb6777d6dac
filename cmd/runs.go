package main

import (
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/sells-group/contract-guard/internal/model"
	"github.com/sells-group/contract-guard/internal/store"
)

var (
	runsStatus   string
	runsContract string
	runsLimit    int
)

var runsCmd = &cobra.Command{
	Use:   "runs",
	Short: "List persisted analysis runs",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		st, err := store.NewSQLite(cfg.Store.Path)
		if err != nil {
			return eris.Wrap(err, "open store")
		}
		defer st.Close()

		if err := st.Migrate(ctx); err != nil {
			return eris.Wrap(err, "migrate store")
		}

		runs, err := st.ListRuns(ctx, store.RunFilter{
			Status:     model.RunStatus(runsStatus),
			ContractID: runsContract,
			Limit:      runsLimit,
		})
		if err != nil {
			return eris.Wrap(err, "list runs")
		}

		return printJSON(runs)
	},
}

func init() {
	runsCmd.Flags().StringVar(&runsStatus, "status", "", "filter by status (queued/running/complete/failed)")
	runsCmd.Flags().StringVar(&runsContract, "contract", "", "filter by contract id")
	runsCmd.Flags().IntVar(&runsLimit, "limit", 0, "max runs to return (default 100)")
	rootCmd.AddCommand(runsCmd)
}
