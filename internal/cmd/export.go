package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"clothsy/internal/app"
	"clothsy/internal/config"
	"clothsy/internal/store"
)

var (
	exportFormat string
	exportOut    string
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export data from the configured backend",
}

var exportOrdersCmd = &cobra.Command{
	Use:   "orders",
	Short: "Export every order as CSV or Excel",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withStore(cmd.Context(), func(st *store.Store) error {
			return exportOrders(st, exportFormat, exportOut, cmd.OutOrStdout())
		})
	},
}

func init() {
	exportOrdersCmd.Flags().StringVar(&exportFormat, "format", "csv", "csv or xlsx")
	exportOrdersCmd.Flags().StringVarP(&exportOut, "out", "o", "", "output file (default stdout)")
	exportCmd.AddCommand(exportOrdersCmd)
	rootCmd.AddCommand(exportCmd)
}

func exportOrders(st *store.Store, format, out string, stdout io.Writer) error {
	w := stdout
	if out != "" {
		f, err := os.Create(out)
		if err != nil {
			return err
		}
		defer f.Close()
		w = f
	}
	switch strings.ToLower(format) {
	case "csv":
		out, err := st.ExportOrdersCSV()
		if err != nil {
			return err
		}
		_, err = io.WriteString(w, out)
		return err
	case "xlsx":
		if out == "" {
			return fmt.Errorf("xlsx export needs --out")
		}
		return st.ExportOrdersXLSX(w)
	}
	return fmt.Errorf("unknown format %q (want csv or xlsx)", format)
}

// withStore loads config, mirrors the backend once and runs fn. Notifications
// are never sent from CLI commands.
func withStore(ctx context.Context, fn func(st *store.Store) error) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	tables, db, err := app.Tables(cfg)
	if err != nil {
		return err
	}
	if db != nil {
		defer db.Close()
	}
	st := store.New(tables)
	st.Initialize(ctx)
	return fn(st)
}
