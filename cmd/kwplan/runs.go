package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/cognicore/kwplan/pkg/kwplan/export"
	"github.com/cognicore/kwplan/pkg/kwplan/store"
	"github.com/cognicore/kwplan/pkg/kwplan/store/sqlite"
)

func (a *app) runsCmd() *cobra.Command {
	var (
		archivePath string
		limit       int
	)

	open := func(cmd *cobra.Command) (store.Store, error) {
		if archivePath == "" {
			components, err := a.loadConfig()
			if err != nil {
				return nil, err
			}
			archivePath = components.Config.Output.ArchivePath
		}
		if archivePath == "" {
			return nil, fmt.Errorf("no archive: set output.archive_path or --archive")
		}
		return sqlite.OpenSQLite(cmd.Context(), archivePath)
	}

	runs := &cobra.Command{
		Use:   "runs",
		Short: "List archived runs",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := open(cmd)
			if err != nil {
				return err
			}
			defer st.Close()

			infos, err := st.ListRuns(cmd.Context(), limit)
			if err != nil {
				return err
			}
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "ID\tCREATED\tSTRATEGY\tROWS")
			for _, info := range infos {
				fmt.Fprintf(tw, "%s\t%s\t%s\t%d\n", info.ID, humanize.Time(info.CreatedAt), info.Strategy, info.RowCount)
			}
			return tw.Flush()
		},
	}
	runs.PersistentFlags().StringVar(&archivePath, "archive", "", "SQLite archive (default: output.archive_path)")
	runs.Flags().IntVarP(&limit, "limit", "n", 20, "Maximum runs to list (0 = all)")

	runs.AddCommand(&cobra.Command{
		Use:   "show <id>",
		Short: "Print an archived result table as CSV",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := open(cmd)
			if err != nil {
				return err
			}
			defer st.Close()

			run, err := st.GetRun(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return export.WriteCSV(cmd.OutOrStdout(), run.Rows, false)
		},
	})
	return runs
}
