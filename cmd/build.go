package main

import (
	"fmt"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/census-choropleth/internal/artifact"
	"github.com/sells-group/census-choropleth/internal/config"
	"github.com/sells-group/census-choropleth/internal/figstore"
	"github.com/sells-group/census-choropleth/internal/pipeline"
	"github.com/sells-group/census-choropleth/internal/source"
)

var buildCmd = &cobra.Command{
	Use:   "build",
	Short: "Build choropleth figures",
	Long: `Loads the configured source layer, normalizes the topic's value column and
writes the figure in every requested encoding. Existing figures are reused
unless --overwrite is set.`,
	RunE: runBuild,
}

func init() {
	buildCmd.Flags().StringSlice("topics", nil, "topics to build (default: data.data_topic)")
	buildCmd.Flags().Bool("all", false, "build every topic in the column catalog")
	buildCmd.Flags().Bool("overwrite", false, "rebuild figures that already exist")
	buildCmd.Flags().StringSlice("encoding", nil, "output encodings (default: figure.encodings)")
	rootCmd.AddCommand(buildCmd)
}

func runBuild(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()

	topics, _ := cmd.Flags().GetStringSlice("topics")
	all, _ := cmd.Flags().GetBool("all")
	encodingFlags, _ := cmd.Flags().GetStringSlice("encoding")

	overwrite := cfg.Figure.Overwrite
	if cmd.Flags().Changed("overwrite") {
		overwrite, _ = cmd.Flags().GetBool("overwrite")
	}

	figCfg := cfg.Figure
	if len(encodingFlags) > 0 {
		figCfg.Encodings = encodingFlags
	}
	encodings, err := figCfg.ParsedEncodings()
	if err != nil {
		return err
	}

	columns, err := config.LoadColumns(cfg.ColumnsFile)
	if err != nil {
		return err
	}
	if all {
		topics = columns.Topics()
	}

	reqs, err := buildRequests(cfg, columns, topics, encodings, overwrite)
	if err != nil {
		return err
	}

	p, err := newPipeline(cfg)
	if err != nil {
		return err
	}

	results, err := p.RunBatch(ctx, reqs, cfg.Batch.Concurrency)
	if err != nil {
		return eris.Wrap(err, "build")
	}

	for _, res := range results {
		status := "built"
		if res.Skipped {
			status = "exists"
		}
		for _, path := range res.Paths {
			fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\t%s\n", res.Key, status, path)
		}
	}

	zap.L().Info("build complete", zap.Int("figures", len(results)))
	return nil
}

// buildRequests expands the configured dataset into one request per topic.
// With no topics, the configured data_topic is built.
func buildRequests(c *config.Config, columns config.Columns, topics []string, encodings []artifact.Encoding, overwrite bool) ([]pipeline.Request, error) {
	if len(topics) == 0 {
		topics = []string{c.Data.DataTopic}
	}

	reqs := make([]pipeline.Request, 0, len(topics))
	for _, topic := range topics {
		key := c.Data.Key()
		key.Topic = topic
		if err := key.Validate(c.Vocabulary); err != nil {
			return nil, err
		}

		column, err := columns.For(topic)
		if err != nil {
			return nil, err
		}

		reqs = append(reqs, pipeline.Request{
			Key:       key,
			Column:    column,
			Encodings: encodings,
			Overwrite: overwrite,
		})
	}
	return reqs, nil
}

func newPipeline(c *config.Config) (*pipeline.Pipeline, error) {
	loader, err := source.NewLoader(c.Source.Format)
	if err != nil {
		return nil, err
	}
	loader.LocationColumn = c.Source.LocationColumn
	return pipeline.New(c.WorkDir, c.Vocabulary, loader, figstore.New(c.WorkDir)), nil
}
