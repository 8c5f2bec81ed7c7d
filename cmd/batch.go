package main

import (
	"bufio"
	"encoding/json"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var batchFile string

var batchCmd = &cobra.Command{
	Use:   "batch [geocode ...]",
	Short: "Resolve a set of parcel geocodes",
	Long:  "Resolves geocodes given as arguments, or one per line from --file. Blank lines and lines starting with # are skipped.",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		geocodes := args
		if batchFile != "" {
			fromFile, err := readGeocodeFile(batchFile)
			if err != nil {
				return err
			}
			geocodes = append(geocodes, fromFile...)
		}
		if len(geocodes) == 0 {
			return eris.New("no geocodes given")
		}

		env, err := initPipeline(ctx)
		if err != nil {
			return err
		}
		defer env.Close()

		summary, err := env.Pipeline.LookupBatch(ctx, geocodes)
		if err != nil {
			return err
		}

		zap.L().Info("batch complete",
			zap.Int("requested", summary.TotalRequested),
			zap.Int("successful", summary.TotalSuccessful),
			zap.Int("failed", summary.TotalFailed),
		)

		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(summary)
	},
}

// readGeocodeFile reads one geocode per line, skipping blanks and # comments.
func readGeocodeFile(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, eris.Wrapf(err, "open geocode file %s", path)
	}
	defer f.Close() //nolint:errcheck

	var geocodes []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		geocodes = append(geocodes, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, eris.Wrapf(err, "read geocode file %s", path)
	}
	return geocodes, nil
}

func init() {
	batchCmd.Flags().StringVar(&batchFile, "file", "", "path to a file with one geocode per line")
	rootCmd.AddCommand(batchCmd)
}
