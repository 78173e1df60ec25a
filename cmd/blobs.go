package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/census-choropleth/internal/source"
)

var blobsCmd = &cobra.Command{
	Use:   "blobs",
	Short: "List blobs in the remote census container",
	Long:  "Lists every blob name in the census container using data.conn_str. Names are printed as pages arrive.",
	RunE: func(cmd *cobra.Command, _ []string) error {
		lister, err := source.NewBlobLister(cfg.Data.ConnStr)
		if err != nil {
			return err
		}

		limit, _ := cmd.Flags().GetInt("limit")
		n := 0
		for name, err := range lister.List(cmd.Context()) {
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), name)
			n++
			if limit > 0 && n >= limit {
				break
			}
		}

		zap.L().Info("blobs listed", zap.String("container", lister.Container()), zap.Int("count", n))
		return nil
	},
}

func init() {
	blobsCmd.Flags().Int("limit", 0, "stop after this many names (0 = all)")
	rootCmd.AddCommand(blobsCmd)
}
