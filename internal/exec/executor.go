// Package exec evaluates physical expressions over record batches.
//
// An Executor projects a list of named expressions onto every input batch
// and returns one output record per batch. Structurally equal expressions
// are evaluated once per batch. Large inputs are spread over a worker pool,
// one batch per work item, so output order always matches input order.
package exec

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/apache/arrow-go/v18/arrow/memory"
	"github.com/paveg/kairos/internal/config"
	"github.com/paveg/kairos/internal/errors"
	"github.com/paveg/kairos/internal/expr"
	kio "github.com/paveg/kairos/internal/io"
	"github.com/paveg/kairos/internal/monitoring"
	"github.com/paveg/kairos/internal/parallel"
	"github.com/paveg/kairos/internal/validation"
)

const projectOp = "Project"

// Projection names an expression whose result becomes an output column.
type Projection struct {
	Name string
	Expr expr.PhysicalExpr
}

// Executor runs projections over record batches.
type Executor struct {
	cfg     config.Config
	mem     memory.Allocator
	pool    *parallel.WorkerPool
	metrics *monitoring.MetricsCollector
	logger  *slog.Logger
}

// Option configures an Executor.
type Option func(*Executor)

// WithAllocator sets the allocator used for output arrays.
func WithAllocator(mem memory.Allocator) Option {
	return func(e *Executor) { e.mem = mem }
}

// WithMetrics records every projection in mc.
func WithMetrics(mc *monitoring.MetricsCollector) Option {
	return func(e *Executor) { e.metrics = mc }
}

// WithLogger sets the logger used when verbose logging is on.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Executor) { e.logger = logger }
}

// New creates an executor. Close releases its worker pool.
func New(cfg config.Config, opts ...Option) *Executor {
	e := &Executor{
		cfg:    cfg.WithDefaults(),
		mem:    memory.DefaultAllocator,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.metrics == nil && e.cfg.MetricsCollection {
		e.metrics = monitoring.NewMetricsCollector(true)
	}
	e.pool = parallel.NewWorkerPool(e.cfg.WorkerPoolSize)
	return e
}

// Metrics returns the collector projections are recorded in, or nil.
func (e *Executor) Metrics() *monitoring.MetricsCollector { return e.metrics }

// Close stops the worker pool.
func (e *Executor) Close() { e.pool.Close() }

func (e *Executor) debug(msg string, args ...any) {
	if e.cfg.VerboseLogging {
		e.logger.Debug(msg, args...)
	}
}

// OutputSchema returns the schema Project produces for input batches of
// the given schema.
func OutputSchema(projections []Projection, input *arrow.Schema) (*arrow.Schema, error) {
	fields := make([]arrow.Field, len(projections))
	for i, p := range projections {
		dt, err := p.Expr.DataType(input)
		if err != nil {
			return nil, fmt.Errorf("resolving type of %s: %w", p.Name, err)
		}
		nullable, err := p.Expr.Nullable(input)
		if err != nil {
			return nil, fmt.Errorf("resolving nullability of %s: %w", p.Name, err)
		}
		fields[i] = arrow.Field{Name: p.Name, Type: dt, Nullable: nullable}
	}
	return arrow.NewSchema(fields, nil), nil
}

// Project evaluates projections against every batch. All batches must share
// one schema. On error every partially built output is released and no
// records are returned. The caller owns the returned records.
func (e *Executor) Project(ctx context.Context, projections []Projection, batches []arrow.Record) ([]arrow.Record, error) {
	names := make([]string, len(projections))
	for i, p := range projections {
		names[i] = p.Name
	}
	if err := validation.NewCompoundValidator(
		validation.NewNotEmptyValidator(len(projections), "projections", projectOp),
		validation.NewNameValidator(names, projectOp),
		validation.NewSchemaValidator(batches, projectOp),
	).Validate(); err != nil {
		return nil, err
	}
	if len(batches) == 0 {
		return nil, nil
	}

	input := batches[0].Schema()
	var rows int64
	for _, b := range batches {
		rows += b.NumRows()
	}

	schema, err := OutputSchema(projections, input)
	if err != nil {
		return nil, err
	}

	exprs := make([]expr.PhysicalExpr, len(projections))
	for i, p := range projections {
		exprs[i] = p.Expr
	}
	unique, index := expr.Deduplicate(exprs)

	concurrent := rows >= int64(e.cfg.ParallelThreshold) && len(batches) > 1
	e.debug("projecting",
		"batches", len(batches), "rows", rows,
		"expressions", len(exprs), "distinct", len(unique), "parallel", concurrent)

	p := &projector{mem: e.mem, schema: schema, unique: unique, index: index}

	var out []arrow.Record
	err = e.metrics.RecordOperation("project", func() (monitoring.Sample, error) {
		var err error
		if concurrent {
			out, err = parallel.ProcessIndexed(ctx, e.pool, batches, p.projectItem)
		} else {
			out, err = p.projectAll(ctx, batches)
		}
		return monitoring.Sample{Rows: rows, Parallel: concurrent}, err
	})
	if err != nil {
		kio.ReleaseAll(out)
		e.debug("projection failed", "error", err)
		return nil, err
	}
	return out, nil
}

// projector evaluates one projection list batch by batch.
type projector struct {
	mem    memory.Allocator
	schema *arrow.Schema
	unique []expr.PhysicalExpr
	index  []int
}

func (p *projector) projectAll(ctx context.Context, batches []arrow.Record) ([]arrow.Record, error) {
	out := make([]arrow.Record, 0, len(batches))
	for i, b := range batches {
		if err := ctx.Err(); err != nil {
			return out, err
		}
		rec, err := p.project(b)
		if err != nil {
			return out, fmt.Errorf("batch %d: %w", i, err)
		}
		out = append(out, rec)
	}
	return out, nil
}

func (p *projector) projectItem(ctx context.Context, i int, batch arrow.Record) (arrow.Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	rec, err := p.project(batch)
	if err != nil {
		return nil, fmt.Errorf("batch %d: %w", i, err)
	}
	return rec, nil
}

// project evaluates the distinct expressions once and assembles the output
// record from them.
func (p *projector) project(batch arrow.Record) (arrow.Record, error) {
	n := int(batch.NumRows())
	arrays := make([]arrow.Array, len(p.unique))
	defer func() {
		for _, a := range arrays {
			if a != nil {
				a.Release()
			}
		}
	}()

	for i, e := range p.unique {
		val, err := e.Evaluate(p.mem, batch)
		if err != nil {
			return nil, err
		}
		arr, err := val.ToArray(p.mem, n)
		val.Release()
		if err != nil {
			return nil, err
		}
		arrays[i] = arr
		if arr.Len() != n {
			return nil, errors.NewInternalError(projectOp, "%s produced %d rows for a batch of %d", e, arr.Len(), n)
		}
	}

	cols := make([]arrow.Array, len(p.index))
	for i, u := range p.index {
		want := p.schema.Field(i).Type
		if !arrow.TypeEqual(want, arrays[u].DataType()) {
			return nil, errors.NewInternalError(projectOp, "%s produced %s, declared %s", p.unique[u], arrays[u].DataType(), want)
		}
		cols[i] = arrays[u]
	}
	return array.NewRecord(p.schema, cols, int64(n)), nil
}
