package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/cognicore/kwplan/pkg/kwplan/config"
)

// app carries global flags and the logger shared by every subcommand
type app struct {
	configPath string
	verbose    bool

	logger *zap.Logger
}

func newRootCmd() *cobra.Command {
	a := &app{logger: zap.NewNop()}

	root := &cobra.Command{
		Use:   "kwplan",
		Short: "Turn harvested keyword research into a campaign plan",
		Long: `kwplan deduplicates, filters and classifies harvested keywords into ad
groups, assigns match types and bid recommendations, and writes the result
table plus per-group files.

Downstream commands re-read the result table to build Performance Max
themes and shopping bids.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg := zap.NewProductionConfig()
			if a.verbose {
				cfg.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
			}
			logger, err := cfg.Build()
			if err != nil {
				return fmt.Errorf("failed to initialize logger: %w", err)
			}
			a.logger = logger
			return nil
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			_ = a.logger.Sync()
		},
	}

	root.PersistentFlags().StringVarP(&a.configPath, "config", "c", "config.yaml", "Campaign configuration file")
	root.PersistentFlags().BoolVarP(&a.verbose, "verbose", "v", false, "Enable verbose logging")

	root.AddCommand(
		a.processCmd(),
		a.themesCmd(),
		a.shoppingCmd(),
		a.importHTMLCmd(),
		a.runsCmd(),
	)
	return root
}

func (a *app) loadConfig() (*config.Components, error) {
	loader := config.Loader{ConfigPath: a.configPath}
	return loader.Load()
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
