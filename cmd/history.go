package main

import (
	"encoding/json"
	"os"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/big-sky-labs/parcel-cli/internal/store"
)

var (
	historyGeocode string
	historyLimit   int
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Show recent lookups",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		st, err := store.Open(cfg.Store.Path)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		if err := st.Migrate(ctx); err != nil {
			return eris.Wrap(err, "migrate store")
		}

		records, err := st.Recent(ctx, historyGeocode, historyLimit)
		if err != nil {
			return err
		}

		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(records)
	},
}

func init() {
	historyCmd.Flags().StringVar(&historyGeocode, "geocode", "", "filter by geocode")
	historyCmd.Flags().IntVar(&historyLimit, "limit", 50, "max records to show")
	rootCmd.AddCommand(historyCmd)
}
