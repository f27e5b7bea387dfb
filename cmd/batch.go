package main

import (
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/domain-cli/internal/model"
)

var (
	batchInput  string
	batchOutput string
)

var batchCmd = &cobra.Command{
	Use:   "batch",
	Short: "Enrich every company in a CSV or XLSX file",
	RunE: func(cmd *cobra.Command, args []string) error {
		data, err := os.ReadFile(batchInput)
		if err != nil {
			return eris.Wrap(err, "read input")
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		env, err := initPipeline(ctx, "batch")
		if err != nil {
			return err
		}
		defer env.Close()

		snap, err := env.Engine.Submit(ctx, filepath.Base(batchInput), data)
		if err != nil {
			return eris.Wrap(err, "submit batch")
		}
		zap.L().Info("processing batch",
			zap.String("job_id", snap.JobID),
			zap.Int("rows", snap.Total),
		)

		snap, err = env.Engine.Wait(ctx, snap.JobID)
		if err != nil {
			return err
		}
		if snap.Status != model.JobStatusCompleted {
			return eris.Errorf("batch %s %s: %s", snap.JobID, snap.Status, snap.Error)
		}

		output, err := env.Engine.Result(ctx, snap.JobID)
		if err != nil {
			return eris.Wrap(err, "read batch result")
		}

		dest := batchOutput
		if dest == "" {
			dest = defaultOutputPath(batchInput)
		}
		if err := os.WriteFile(dest, output, 0o644); err != nil {
			return eris.Wrap(err, "write output")
		}

		fmt.Fprintf(cmd.OutOrStdout(), "Enriched %d companies (%d errors) -> %s\n", snap.Total, len(snap.Errors), dest)
		for _, e := range snap.Errors {
			fmt.Fprintf(cmd.OutOrStdout(), "  row %d: %s\n", e.RowIndex, e.Message)
		}
		return nil
	},
}

// defaultOutputPath returns input with an "_enriched.csv" suffix in place of
// its extension.
func defaultOutputPath(input string) string {
	return strings.TrimSuffix(input, filepath.Ext(input)) + "_enriched.csv"
}

func init() {
	batchCmd.Flags().StringVar(&batchInput, "input", "", "CSV or XLSX file to enrich")
	batchCmd.Flags().StringVar(&batchOutput, "output", "", "output CSV path (default <input>_enriched.csv)")
	_ = batchCmd.MarkFlagRequired("input")
	rootCmd.AddCommand(batchCmd)
}
