package main

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/cognicore/kwplan/pkg/kwplan/config"
	"github.com/cognicore/kwplan/pkg/kwplan/export"
	"github.com/cognicore/kwplan/pkg/kwplan/keyword"
	"github.com/cognicore/kwplan/pkg/kwplan/metrics"
	"github.com/cognicore/kwplan/pkg/kwplan/pipeline"
	"github.com/cognicore/kwplan/pkg/kwplan/report"
	"github.com/cognicore/kwplan/pkg/kwplan/source"
	"github.com/cognicore/kwplan/pkg/kwplan/store"
	"github.com/cognicore/kwplan/pkg/kwplan/store/sqlite"
)

const summaryFile = "summary.json"

func (a *app) processCmd() *cobra.Command {
	var input string
	cmd := &cobra.Command{
		Use:   "process",
		Short: "Build the keyword result table from harvested data",
		Long: `Reads the harvested keyword data (.json ordered by source, or .jsonl with a
source field per line), runs the classification pipeline and writes the
result table, optional per-group files and a summary.json under the output
directory. When archive_path or metrics_path are configured the run is also
archived to SQLite and its metrics written as a Prometheus textfile. Result
files are staged and only replace earlier ones once the archive succeeded.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.process(cmd.Context(), cmd, input)
		},
	}
	cmd.Flags().StringVarP(&input, "input", "i", "", "Harvested keyword data (default: output.raw_data_file)")
	return cmd
}

func (a *app) process(ctx context.Context, cmd *cobra.Command, input string) error {
	components, err := a.loadConfig()
	if err != nil {
		return err
	}
	cfg := components.Config
	if input == "" {
		input = cfg.Output.RawDataFile
	}

	batches, err := loadBatches(input, a.logger)
	if err != nil {
		return fmt.Errorf("load keywords: %w", err)
	}

	rec := metrics.NewRecorder()
	p, err := pipeline.New(pipeline.Options{
		Config:  cfg,
		Rules:   components.Rules,
		Logger:  a.logger,
		Metrics: rec,
	})
	if err != nil {
		return err
	}

	res, runErr := p.Run(ctx, batches)
	if cfg.Output.MetricsPath != "" {
		if err := rec.WriteTextfile(cfg.Output.MetricsPath); err != nil {
			a.logger.Warn("write metrics textfile", zap.String("path", cfg.Output.MetricsPath), zap.Error(err))
		}
	}
	if runErr != nil {
		return runErr
	}

	w := &export.Writer{
		Dir:         cfg.Output.Dir,
		MainFile:    cfg.Output.MainFile,
		SummaryFile: summaryFile,
		PerGroup:    cfg.Output.CreateIndividualAdGroupFiles,
		Logger:      a.logger,
	}
	staged, err := w.Stage(ctx, res.Rows)
	if err != nil {
		return fmt.Errorf("export: %w", err)
	}

	if cfg.Output.ArchivePath != "" {
		id, err := archive(ctx, cfg.Output.ArchivePath, cfg.Advanced.MatchTypeStrategy, res.Rows)
		if err != nil {
			staged.Discard()
			return fmt.Errorf("archive run: %w", err)
		}
		a.logger.Info("archived run", zap.String("id", id), zap.String("path", cfg.Output.ArchivePath))
	}

	files, err := staged.Commit()
	if err != nil {
		return fmt.Errorf("export: %w", err)
	}

	summary := report.Summarize(res.Rows)
	if err := report.Print(cmd.OutOrStdout(), header(cfg), summary); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "\nProcessing completed. Results in %s\n", files.Main)
	return nil
}

// loadBatches picks the reader by file extension
func loadBatches(path string, logger *zap.Logger) ([]source.Batch, error) {
	if strings.EqualFold(filepath.Ext(path), ".jsonl") {
		return source.LoadJSONL(path, logger)
	}
	return source.LoadJSON(path)
}

func archive(ctx context.Context, path, strategy string, rows []keyword.Row) (string, error) {
	st, err := sqlite.OpenSQLite(ctx, path)
	if err != nil {
		return "", err
	}
	defer st.Close()

	run := store.NewRun(store.NewIDs(), strategy, rows)
	if err := st.SaveRun(ctx, run); err != nil {
		return "", err
	}
	return run.ID, nil
}

func header(cfg *config.Config) report.Header {
	var minVolume int64
	if cfg.Filters.MinSearchVolume != nil {
		minVolume = *cfg.Filters.MinSearchVolume
	}
	return report.Header{
		Brand:           cfg.Brand.Name,
		BrandURL:        cfg.Brand.URL,
		Competitor:      cfg.Competitor.Name,
		CompetitorURL:   cfg.Competitor.URL,
		MinSearchVolume: minVolume,
		CurrencySymbol:  cfg.Output.CurrencySymbol,
	}
}
