package main

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/cognicore/kwplan/pkg/kwplan/source"
)

func (a *app) importHTMLCmd() *cobra.Command {
	var out string
	cmd := &cobra.Command{
		Use:   "import-html [page.html]...",
		Short: "Convert saved keyword-planner pages into harvested keyword data",
		Long: `Parses the keyword table of each saved page and writes one source per file,
named after the file without extension, to the raw data file.

Example:
  kwplan import-html brand.html competitor.html`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if out == "" {
				components, err := a.loadConfig()
				if err != nil {
					return err
				}
				out = components.Config.Output.RawDataFile
			}

			batches := make([]source.Batch, 0, len(args))
			for _, path := range args {
				records, err := parsePage(path)
				if err != nil {
					return fmt.Errorf("parse %s: %w", path, err)
				}
				name := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
				a.logger.Info("parsed page", zap.String("source", name), zap.Int("keywords", len(records)))
				batches = append(batches, source.Batch{Name: name, Records: records})
			}

			f, err := os.Create(out)
			if err != nil {
				return err
			}
			bw := bufio.NewWriter(f)
			if err := source.WriteJSON(bw, batches); err != nil {
				f.Close()
				return err
			}
			if err := bw.Flush(); err != nil {
				f.Close()
				return err
			}
			if err := f.Close(); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Wrote %d sources to %s\n", len(batches), out)
			return nil
		},
	}
	cmd.Flags().StringVarP(&out, "out", "o", "", "Output file (default: output.raw_data_file)")
	return cmd
}

func parsePage(path string) ([]source.RawRecord, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return source.ParseHTMLTable(bufio.NewReader(f))
}
