package cmd

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"clothsy/internal/store"
)

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Inspect or repair the site statistics aggregate",
}

var statsShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the stored aggregate next to the recomputed values",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withStore(cmd.Context(), func(st *store.Store) error {
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(map[string]any{"advisory": st.Stats(), "computed": st.ComputeStats()})
		})
	},
}

var statsReconcileCmd = &cobra.Command{
	Use:   "reconcile",
	Short: "Overwrite the aggregate counters with values recomputed from the tables",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withStore(cmd.Context(), func(st *store.Store) error {
			got, err := st.Reconcile(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "orders=%d products=%d subscribers=%d\n",
				got.TotalOrders, got.TotalProducts, got.TotalSubscribers)
			return nil
		})
	},
}

func init() {
	statsCmd.AddCommand(statsShowCmd, statsReconcileCmd)
	rootCmd.AddCommand(statsCmd)
}
