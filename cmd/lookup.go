package main

import (
	"os/signal"
	"strings"
	"syscall"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/sells-group/domain-cli/internal/model"
	"github.com/sells-group/domain-cli/internal/tabular"
)

var (
	lookupDebug  bool
	lookupFormat string
)

var lookupCmd = &cobra.Command{
	Use:   "lookup NAME [LOCATION]",
	Short: "Find the domain of a single company",
	Long:  "Looks up one company. LOCATION is free text such as \"Cupertino, CA\". With --debug the queries, alternatives, reasoning, and metadata are printed as well.",
	Args:  cobra.RangeArgs(1, 2),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := checkFormat(lookupFormat); err != nil {
			return err
		}
		name := strings.TrimSpace(args[0])
		if name == "" {
			return eris.New("company name is required")
		}
		var location string
		if len(args) == 2 {
			location = args[1]
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		env, err := initPipeline(ctx, "lookup")
		if err != nil {
			return err
		}
		defer env.Close()

		out := cmd.OutOrStdout()
		if !lookupDebug {
			summary := env.Pipeline.Lookup(ctx, name, location)
			if lookupFormat == formatText {
				writeSummaryText(out, name, summary)
				return nil
			}
			return writeStructured(out, lookupFormat, summary)
		}

		res := env.Pipeline.Enrich(ctx, model.CompanyRequest{
			Name:    name,
			Address: tabular.ParseLocation(location),
		})
		if lookupFormat == formatText {
			writeResultText(out, name, res)
			return nil
		}
		return writeStructured(out, lookupFormat, res)
	},
}

func init() {
	lookupCmd.Flags().BoolVar(&lookupDebug, "debug", false, "print queries, alternatives, reasoning and metadata")
	lookupCmd.Flags().StringVar(&lookupFormat, "format", formatText, "output format: text, json or yaml")
	rootCmd.AddCommand(lookupCmd)
}
