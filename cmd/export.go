package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/sells-group/census-choropleth/internal/config"
	"github.com/sells-group/census-choropleth/internal/db"
	"github.com/sells-group/census-choropleth/internal/pipeline"
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Copy a normalized table into PostGIS",
	Long: `Loads and normalizes the configured dataset and replaces its PostGIS
table (location, value, geom). With --xlsx the Location and value columns are
written to a spreadsheet instead.`,
	RunE: runExport,
}

func init() {
	exportCmd.Flags().String("topic", "", "override data.data_topic")
	exportCmd.Flags().String("xlsx", "", "write a spreadsheet to this path instead of PostGIS")
	rootCmd.AddCommand(exportCmd)
}

func runExport(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()

	columns, err := config.LoadColumns(cfg.ColumnsFile)
	if err != nil {
		return err
	}
	var topics []string
	if topic, _ := cmd.Flags().GetString("topic"); topic != "" {
		topics = []string{topic}
	}
	reqs, err := buildRequests(cfg, columns, topics, nil, false)
	if err != nil {
		return err
	}
	req := reqs[0]

	p, err := newPipeline(cfg)
	if err != nil {
		return err
	}
	table, err := p.Prepare(ctx, req.Key, req.Column)
	if err != nil {
		return err
	}

	if path, _ := cmd.Flags().GetString("xlsx"); path != "" {
		if err := pipeline.WriteXLSX(table, path); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s\t%d rows\n", path, table.Len())
		return nil
	}

	pool, err := db.Connect(ctx, cfg.PostGIS.DatabaseURL)
	if err != nil {
		return err
	}
	defer pool.Close()

	n, err := pipeline.Export(ctx, pool, cfg.PostGIS.Schema, req.Key, table)
	if err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "%s.%s\t%d rows\n", cfg.PostGIS.Schema, pipeline.ExportTableName(req.Key), n)
	return nil
}
