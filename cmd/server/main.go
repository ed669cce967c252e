// Command server runs the coffee shop drinks API and its maintenance tasks.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/iliyamo/coffee-shop-api/internal/config"
	"github.com/iliyamo/coffee-shop-api/internal/logging"
)

var (
	version = "dev"

	envFile string
	logger  *zap.Logger

	rootCmd = &cobra.Command{
		Use:           "server",
		Short:         "coffee shop drinks API",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if err := config.LoadDotEnv(envFile); err != nil {
				return fmt.Errorf("load %s: %w", envFile, err)
			}
			env := os.Getenv("APP_ENV")
			if env == "" {
				env = "dev"
			}
			var err error
			logger, err = logging.New(env, os.Getenv("LOG_LEVEL"))
			return err
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if logger != nil {
				_ = logger.Sync()
			}
		},
	}
)

func init() {
	rootCmd.PersistentFlags().StringVar(&envFile, "env-file", ".env", "dotenv file to load if present")
	rootCmd.AddCommand(serveCmd, migrateCmd, tokenCmd, consumeCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}
