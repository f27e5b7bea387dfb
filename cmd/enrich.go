package main

import (
	"os/signal"
	"strings"
	"syscall"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/sells-group/domain-cli/internal/model"
)

var (
	enrichAddr   model.Address
	enrichFormat string
)

var enrichCmd = &cobra.Command{
	Use:   "enrich NAME",
	Short: "Run a detailed enrichment with a structured address",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := checkFormat(enrichFormat); err != nil {
			return err
		}
		req := model.CompanyRequest{
			Name:    strings.TrimSpace(args[0]),
			Address: trimAddress(enrichAddr),
		}
		if req.Name == "" {
			return eris.New("company name is required")
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		env, err := initPipeline(ctx, "lookup")
		if err != nil {
			return err
		}
		defer env.Close()

		res := env.Pipeline.Enrich(ctx, req)
		if enrichFormat == formatText {
			writeResultText(cmd.OutOrStdout(), req.Name, res)
			return nil
		}
		return writeStructured(cmd.OutOrStdout(), enrichFormat, res)
	},
}

func trimAddress(a model.Address) model.Address {
	return model.Address{
		Street:  strings.TrimSpace(a.Street),
		City:    strings.TrimSpace(a.City),
		State:   strings.TrimSpace(a.State),
		Zip:     strings.TrimSpace(a.Zip),
		Country: strings.TrimSpace(a.Country),
	}
}

func init() {
	f := enrichCmd.Flags()
	f.StringVar(&enrichAddr.Street, "street", "", "street address")
	f.StringVar(&enrichAddr.City, "city", "", "city")
	f.StringVar(&enrichAddr.State, "state", "", "state or region")
	f.StringVar(&enrichAddr.Zip, "zip", "", "postal code")
	f.StringVar(&enrichAddr.Country, "country", "", "country")
	f.StringVar(&enrichFormat, "format", formatJSON, "output format: text, json or yaml")
	rootCmd.AddCommand(enrichCmd)
}
