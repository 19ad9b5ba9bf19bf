package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/skdltmxn/typemeta/graphexport"
)

var (
	exportClean     bool
	exportBatchSize int
	exportWorkers   int
)

var exportCmd = &cobra.Command{
	Use:   "export <source>...",
	Short: "Export a source into Neo4j",
	Long: `Export the types of a source, their merged members and the calls their
method bodies make into a Neo4j property graph.

The server is taken from the neo4j section of the configuration file or
from METAVIEW_NEO4J_URI, METAVIEW_NEO4J_USERNAME, METAVIEW_NEO4J_PASSWORD
and METAVIEW_NEO4J_DATABASE.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runExport,
}

func init() {
	exportCmd.Flags().BoolVar(&exportClean, "clean", false, "remove previously exported nodes first")
	exportCmd.Flags().IntVar(&exportBatchSize, "batch-size", 500, "rows per statement")
	exportCmd.Flags().IntVar(&exportWorkers, "workers", 4, "node batches in flight")
}

func runExport(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	s, err := openSource(ctx, args)
	if err != nil {
		return err
	}
	for _, a := range s.assemblies {
		if err := a.Warm(ctx); err != nil {
			return err
		}
	}
	g := graphexport.Collect(s.types())

	e, err := graphexport.Dial(ctx, graphexport.Config{
		URI:       cfg.Neo4j.URI,
		Username:  cfg.Neo4j.Username,
		Password:  cfg.Neo4j.Password,
		Database:  cfg.Neo4j.Database,
		BatchSize: exportBatchSize,
		Workers:   exportWorkers,
		Logger:    logger,
	})
	if err != nil {
		return err
	}
	defer e.Close(ctx)

	if err := e.CreateIndexes(ctx); err != nil {
		return fmt.Errorf("failed to create indexes: %w", err)
	}
	if exportClean {
		if err := e.Clean(ctx); err != nil {
			return fmt.Errorf("failed to clean graph: %w", err)
		}
	}
	stats, err := e.Export(ctx, g)
	if err != nil {
		return err
	}

	fmt.Fprintf(output, "Exported %d nodes and %d relationships in %d statements\n",
		stats.Nodes, stats.Edges, stats.Statements)
	return nil
}
