package graphexport

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"slices"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/skdltmxn/typemeta/collections"
)

const (
	defaultBatchSize = 500
	defaultWorkers   = 4
)

// Runner executes one Cypher statement.
type Runner interface {
	Run(ctx context.Context, cypher string, params map[string]any) error
}

// Config describes the target database and how rows are batched.
type Config struct {
	URI      string
	Username string
	Password string

	// Database selects a database other than the server default.
	Database string

	// BatchSize is the number of rows per UNWIND statement.
	BatchSize int

	// Workers bounds the node batches in flight.
	Workers int

	Logger *zap.Logger
}

// Stats counts what an export wrote.
type Stats struct {
	Nodes      int
	Edges      int
	Statements int
}

// Exporter loads graphs with batched UNWIND statements.
type Exporter struct {
	run     Runner
	log     *zap.Logger
	batch   int
	workers int
	rows    *collections.Buffer[[]map[string]any]
	close   func(context.Context) error
}

// New creates an exporter that sends statements to r.
func New(r Runner, cfg Config) *Exporter {
	e := &Exporter{
		run:     r,
		log:     cfg.Logger,
		batch:   cfg.BatchSize,
		workers: cfg.Workers,
	}
	if e.log == nil {
		e.log = zap.NewNop()
	}
	if e.batch <= 0 {
		e.batch = defaultBatchSize
	}
	if e.workers <= 0 {
		e.workers = defaultWorkers
	}
	e.rows = collections.NewBuffer(e.workers,
		func() []map[string]any { return make([]map[string]any, 0, e.batch) },
		collections.WithRelease(func(rows []map[string]any) { clear(rows[:cap(rows)]) }),
	)
	return e
}

// Dial connects to the Neo4j server at cfg.URI and verifies the connection.
func Dial(ctx context.Context, cfg Config) (*Exporter, error) {
	driver, err := neo4j.NewDriverWithContext(cfg.URI, neo4j.BasicAuth(cfg.Username, cfg.Password, ""))
	if err != nil {
		return nil, fmt.Errorf("graphexport: create driver: %w", err)
	}
	if err := driver.VerifyConnectivity(ctx); err != nil {
		_ = driver.Close(ctx)
		return nil, fmt.Errorf("graphexport: connect %s: %w", cfg.URI, err)
	}
	e := New(driverRunner{driver: driver, database: cfg.Database}, cfg)
	e.close = driver.Close
	return e, nil
}

// Close releases the driver of a dialed exporter.
func (e *Exporter) Close(ctx context.Context) error {
	if e.close == nil {
		return nil
	}
	return e.close(ctx)
}

type driverRunner struct {
	driver   neo4j.DriverWithContext
	database string
}

func (d driverRunner) Run(ctx context.Context, cypher string, params map[string]any) error {
	var opts []neo4j.ExecuteQueryConfigurationOption
	if d.database != "" {
		opts = append(opts, neo4j.ExecuteQueryWithDatabase(d.database))
	}
	_, err := neo4j.ExecuteQuery(ctx, d.driver, cypher, params, neo4j.EagerResultTransformer, opts...)
	return err
}

// CreateIndexes ensures the node key index exists.
func (e *Exporter) CreateIndexes(ctx context.Context) error {
	e.log.Info("creating indexes")
	return e.run.Run(ctx, "CREATE INDEX meta_key IF NOT EXISTS FOR (n:Meta) ON (n.key)", nil)
}

// Clean removes every node a previous export wrote.
func (e *Exporter) Clean(ctx context.Context) error {
	e.log.Info("cleaning graph")
	return e.run.Run(ctx, "MATCH (n:Meta) DETACH DELETE n", nil)
}

func nodeCypher(label string) string {
	return "UNWIND $batch AS row MERGE (n:Meta {key: row.key}) SET n:" + label + ", n += row.props"
}

func edgeCypher(rel string) string {
	return "UNWIND $batch AS row MATCH (a:Meta {key: row.from}), (b:Meta {key: row.to}) MERGE (a)-[:" + rel + "]->(b)"
}

// Export writes the nodes of g, then its relationships. Node batches run
// concurrently. Relationship batches run one at a time, since MERGEs sharing
// endpoints contend for the same node locks.
func (e *Exporter) Export(ctx context.Context, g *Graph) (Stats, error) {
	var stats Stats

	byLabel := make(map[string][]map[string]any)
	for _, n := range g.Nodes {
		byLabel[n.Label] = append(byLabel[n.Label], map[string]any{"key": n.Key, "props": n.Props})
	}
	eg, gctx := errgroup.WithContext(ctx)
	eg.SetLimit(e.workers)
	for _, label := range slices.Sorted(maps.Keys(byLabel)) {
		rows := byLabel[label]
		e.log.Info("loading nodes", zap.String("label", label), zap.Int("count", len(rows)))
		stats.Nodes += len(rows)
		for chunk := range slices.Chunk(rows, e.batch) {
			stats.Statements++
			eg.Go(func() error { return e.send(gctx, nodeCypher(label), chunk) })
		}
	}
	if err := eg.Wait(); err != nil {
		return stats, fmt.Errorf("graphexport: nodes: %w", err)
	}

	byType := make(map[string][]map[string]any)
	for _, ed := range g.Edges {
		byType[ed.Type] = append(byType[ed.Type], map[string]any{"from": ed.From, "to": ed.To})
	}
	for _, rel := range slices.Sorted(maps.Keys(byType)) {
		rows := byType[rel]
		e.log.Info("loading relationships", zap.String("type", rel), zap.Int("count", len(rows)))
		stats.Edges += len(rows)
		for chunk := range slices.Chunk(rows, e.batch) {
			if err := ctx.Err(); err != nil {
				return stats, err
			}
			stats.Statements++
			if err := e.send(ctx, edgeCypher(rel), chunk); err != nil {
				return stats, fmt.Errorf("graphexport: %s: %w", rel, err)
			}
		}
	}
	return stats, nil
}

// send runs one batch through a pooled row slice.
func (e *Exporter) send(ctx context.Context, cypher string, chunk []map[string]any) error {
	el := e.rows.Activate()
	defer el.Deactivate()
	el.Value = append(el.Value[:0], chunk...)
	err := e.run.Run(ctx, cypher, map[string]any{"batch": el.Value})
	if err != nil && !errors.Is(err, context.Canceled) {
		e.log.Warn("batch failed", zap.Int("rows", len(chunk)), zap.Error(err))
	}
	return err
}
