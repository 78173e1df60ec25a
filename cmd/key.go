package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/sells-group/census-choropleth/internal/artifact"
	"github.com/sells-group/census-choropleth/internal/source"
)

var keyCmd = &cobra.Command{
	Use:   "key",
	Short: "Print the artifact name and paths for the configured dataset",
	RunE: func(cmd *cobra.Command, _ []string) error {
		key := cfg.Data.Key()
		if topic, _ := cmd.Flags().GetString("topic"); topic != "" {
			key.Topic = topic
		}
		if err := key.Validate(cfg.Vocabulary); err != nil {
			return err
		}

		loader, err := source.NewLoader(cfg.Source.Format)
		if err != nil {
			return err
		}
		loader.LocationColumn = cfg.Source.LocationColumn

		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "name:   %s\n", key)
		fmt.Fprintf(out, "source: %s\n", loader.Path(cfg.WorkDir, key))
		fmt.Fprintf(out, "layer:  %s\n", key.Layer())
		fmt.Fprintf(out, "column: %s\n", loader.LocationFor(key))
		fmt.Fprintf(out, "figure: %s\n", key.FigurePath(cfg.WorkDir, artifact.EncodingJSON))
		return nil
	},
}

func init() {
	keyCmd.Flags().String("topic", "", "override data.data_topic")
	rootCmd.AddCommand(keyCmd)
}
