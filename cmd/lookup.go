package main

import (
	"encoding/json"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var lookupCmd = &cobra.Command{
	Use:   "lookup <geocode>",
	Short: "Resolve a single parcel geocode",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		env, err := initPipeline(ctx)
		if err != nil {
			return err
		}
		defer env.Close()

		info, err := env.Pipeline.LookupOne(ctx, args[0])
		if err != nil {
			return err
		}

		zap.L().Info("lookup complete",
			zap.String("geocode", info.Geocode),
			zap.String("address", info.Address),
			zap.String("coord_source", info.CoordSource),
		)

		// Print result JSON to stdout
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(info)
	},
}

func init() {
	rootCmd.AddCommand(lookupCmd)
}
