// cmd/manage/main.go
package main

import (
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/javajoker/storefront-backend/internal/config"
	"github.com/javajoker/storefront-backend/internal/utils"
)

var cfg *config.Config

func main() {
	if err := newRootCommand().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:          "manage",
		Short:        "Storefront administration tasks",
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			loaded, err := config.Load()
			if err != nil {
				return err
			}
			cfg = loaded
			utils.ConfigureLogger(cfg.Log.Level, cfg.IsProduction())
			logrus.WithField("environment", cfg.Environment).Debug("Configuration loaded")
			return nil
		},
	}

	root.AddCommand(newDBCommand(), newStripeCommand())
	return root
}
