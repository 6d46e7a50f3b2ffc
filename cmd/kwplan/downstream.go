package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/cognicore/kwplan/pkg/kwplan/export"
	"github.com/cognicore/kwplan/pkg/kwplan/shopping"
	"github.com/cognicore/kwplan/pkg/kwplan/themes"
)

const (
	themesFile   = "performance_max_themes.json"
	shoppingFile = "shopping_cpc_bids.csv"
)

func (a *app) themesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "themes",
		Short: "Group ad groups from the result table into Performance Max themes",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			components, err := a.loadConfig()
			if err != nil {
				return err
			}
			cfg := components.Config

			rows, err := export.LoadCSV(filepath.Join(cfg.Output.Dir, cfg.Output.MainFile))
			if err != nil {
				return fmt.Errorf("read results (run process first): %w", err)
			}

			out := themes.Build(rows, themes.Options{
				Brand:      cfg.Brand.Name,
				Competitor: cfg.Competitor.Name,
				Categories: cfg.CategoryTerms,
				Locations:  cfg.ServiceLocations,
			})
			path := filepath.Join(cfg.Output.Dir, themesFile)
			if err := export.WriteJSON(path, out); err != nil {
				return err
			}
			a.logger.Info("wrote themes", zap.String("path", path), zap.Int("themes", len(out)))
			fmt.Fprintf(cmd.OutOrStdout(), "Generated %s with %d themes\n", path, len(out))
			return nil
		},
	}
}

func (a *app) shoppingCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "shopping-bids",
		Short: "Derive shopping campaign bids from the result table",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			components, err := a.loadConfig()
			if err != nil {
				return err
			}
			cfg := components.Config

			rows, err := export.LoadCSV(filepath.Join(cfg.Output.Dir, cfg.Output.MainFile))
			if err != nil {
				return fmt.Errorf("read results (run process first): %w", err)
			}

			bids := shopping.Calculate(rows, shopping.Options{
				TargetCPA:      cfg.TargetCPA(),
				ConversionRate: cfg.ConversionRate(),
				CurrencySymbol: cfg.Output.CurrencySymbol,
			})

			path := filepath.Join(cfg.Output.Dir, shoppingFile)
			f, err := os.Create(path)
			if err != nil {
				return err
			}
			if err := shopping.WriteCSV(f, bids); err != nil {
				f.Close()
				return fmt.Errorf("write %s: %w", path, err)
			}
			if err := f.Close(); err != nil {
				return err
			}

			var total float64
			for _, b := range bids {
				total += b.SuggestedBid
			}
			fields := []zap.Field{zap.String("path", path), zap.Int("bids", len(bids)), zap.Float64("bid_sum", total)}
			if budget := cfg.Budgets.ShoppingAds; budget != nil {
				fields = append(fields, zap.Float64("budget", *budget))
			}
			a.logger.Info("wrote shopping bids", fields...)
			fmt.Fprintf(cmd.OutOrStdout(), "Generated %s with %d bids\n", path, len(bids))
			return nil
		},
	}
}
