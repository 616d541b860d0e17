package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "clothsy",
	Short: "Clothsy storefront backend",
	Long: `Clothsy serves the storefront API, the admin API and the admin pages
on top of an in-process mirror of the product, order, subscriber and stats
tables (SQLite or Supabase).`,
	SilenceUsage: true,
}

// Execute runs the root command
func Execute() {
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
