package main

import (
	"os"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/domain-cli/internal/config"
)

var cfg *config.Config

var rootCmd = &cobra.Command{
	Use:          "domain-cli",
	Short:        "Find the official website domain of a company",
	Long:         "Searches the web for a company, asks a language model to pick its official domain, and checks that the domain answers over HTTP. Runs single lookups, batch files, or an HTTP API.",
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		c, err := config.Load()
		if err != nil {
			return eris.Wrap(err, "load config")
		}
		cfg = c

		if err := config.InitLogger(cfg.Log); err != nil {
			return eris.Wrap(err, "init logger")
		}

		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = zap.L().Sync()
	},
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
