// Package kairos evaluates date and time interval arithmetic over Apache
// Arrow record batches. This package is the sole public API for the library.
//
// Expressions are built from columns and literals:
//
//	shifted, err := kairos.Col("ts").Add(kairos.IntervalDT(1, 0), schema)
//
// and evaluated against one batch with Evaluate, or against many batches
// with an Executor.
package kairos

import (
	"context"
	"io"
	"log/slog"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/memory"
	"github.com/paveg/kairos/internal/config"
	"github.com/paveg/kairos/internal/errors"
	"github.com/paveg/kairos/internal/exec"
	"github.com/paveg/kairos/internal/expr"
	kio "github.com/paveg/kairos/internal/io"
	"github.com/paveg/kairos/internal/operators"
	"github.com/paveg/kairos/internal/scalar"
)

// Expression is the public type for a physical expression.
// It wraps the internal expression tree to hide implementation details.
type Expression struct {
	e expr.PhysicalExpr
}

// Col references a column of the evaluated batch by name.
func Col(name string) Expression {
	return Expression{e: expr.Col(name)}
}

// Literal constructors

// Date32 is a date literal counted in days since the UNIX epoch.
func Date32(days int32) Expression { return lit(scalar.NewDate32(days)) }

// Date64 is a date literal counted in milliseconds since the UNIX epoch.
func Date64(millis int64) Expression { return lit(scalar.NewDate64(millis)) }

// Timestamp is a timestamp literal in unit, without a time zone.
func Timestamp(v int64, unit arrow.TimeUnit) Expression {
	return lit(scalar.NewTimestamp(v, &arrow.TimestampType{Unit: unit}))
}

// IntervalYM is a year-month interval literal.
func IntervalYM(months int32) Expression { return lit(scalar.NewIntervalYM(months)) }

// IntervalDT is a day-time interval literal.
func IntervalDT(days, millis int32) Expression { return lit(scalar.NewIntervalDT(days, millis)) }

// IntervalMDN is a month-day-nanosecond interval literal.
func IntervalMDN(months, days int32, nanos int64) Expression {
	return lit(scalar.NewIntervalMDN(months, days, nanos))
}

// Null is a typed null literal.
func Null(dt arrow.DataType) Expression { return lit(scalar.NewNull(dt)) }

func lit(v scalar.Value) Expression {
	return Expression{e: expr.Lit(v)}
}

// Arithmetic operations

// Add returns e + other. Operand types are resolved against schema and
// checked immediately.
func (e Expression) Add(other Expression, schema *arrow.Schema) (Expression, error) {
	return e.binary(operators.Plus, other, schema)
}

// Sub returns e - other.
func (e Expression) Sub(other Expression, schema *arrow.Schema) (Expression, error) {
	return e.binary(operators.Minus, other, schema)
}

// Apply combines e and other with an operator given as text ("+" or "-").
func (e Expression) Apply(op string, other Expression, schema *arrow.Schema) (Expression, error) {
	parsed, err := operators.Parse(op)
	if err != nil {
		return Expression{}, err
	}
	return e.binary(parsed, other, schema)
}

func (e Expression) binary(op operators.Operator, other Expression, schema *arrow.Schema) (Expression, error) {
	node, err := expr.NewDateTimeIntervalExpr(e.e, op, other.e, schema)
	if err != nil {
		return Expression{}, err
	}
	return Expression{e: node}, nil
}

// DataType returns the type e produces over batches of schema.
func (e Expression) DataType(schema *arrow.Schema) (arrow.DataType, error) {
	return e.e.DataType(schema)
}

// Nullable reports whether e may produce nulls over batches of schema.
func (e Expression) Nullable(schema *arrow.Schema) (bool, error) {
	return e.e.Nullable(schema)
}

// Equal reports structural equality.
func (e Expression) Equal(other Expression) bool {
	if e.e == nil || other.e == nil {
		return e.e == other.e
	}
	return e.e.Equal(other.e)
}

func (e Expression) String() string {
	if e.e == nil {
		return "<nil>"
	}
	return e.e.String()
}

// Evaluate computes e over batch. Scalar results are broadcast to the
// batch length. The caller owns the returned array.
func (e Expression) Evaluate(batch arrow.Record, mem memory.Allocator) (arrow.Array, error) {
	v, err := e.e.Evaluate(mem, batch)
	if err != nil {
		return nil, err
	}
	defer v.Release()
	return v.ToArray(mem, int(batch.NumRows()))
}

// Execution

// Config is the executor configuration.
type Config = config.Config

// DefaultConfig returns the default executor configuration.
func DefaultConfig() Config { return config.NewConfig() }

// Projection names an expression whose result becomes an output column.
type Projection struct {
	Name string
	Expr Expression
}

// Executor evaluates projections over many batches, concurrently when the
// input is large enough.
type Executor struct {
	x *exec.Executor
}

// ExecutorOption configures an Executor.
type ExecutorOption = exec.Option

// WithLogger routes the executor's debug logs, emitted when VerboseLogging
// is set, to logger.
func WithLogger(logger *slog.Logger) ExecutorOption { return exec.WithLogger(logger) }

// NewExecutor creates an executor allocating output from mem.
func NewExecutor(cfg Config, mem memory.Allocator, opts ...ExecutorOption) *Executor {
	opts = append([]ExecutorOption{exec.WithAllocator(mem)}, opts...)
	return &Executor{x: exec.New(cfg, opts...)}
}

// Project evaluates projections against every batch and returns one record
// per batch. The caller owns the returned records.
func (x *Executor) Project(ctx context.Context, projections []Projection, batches []arrow.Record) ([]arrow.Record, error) {
	return x.x.Project(ctx, toInternal(projections), batches)
}

// MetricsSummary describes the projections run so far. It is empty unless
// the executor was configured with MetricsCollection.
func (x *Executor) MetricsSummary() string {
	mc := x.x.Metrics()
	if mc == nil || !mc.IsEnabled() {
		return ""
	}
	return mc.GetSummary().String()
}

// Close releases the executor's workers.
func (x *Executor) Close() { x.x.Close() }

// OutputSchema returns the schema Project produces for input.
func OutputSchema(projections []Projection, input *arrow.Schema) (*arrow.Schema, error) {
	return exec.OutputSchema(toInternal(projections), input)
}

func toInternal(projections []Projection) []exec.Projection {
	out := make([]exec.Projection, len(projections))
	for i, p := range projections {
		out[i] = exec.Projection{Name: p.Name, Expr: p.Expr.e}
	}
	return out
}

// I/O

// CSVOptions configures CSV input.
type CSVOptions = kio.CSVOptions

// ParquetOptions configures Parquet input and output.
type ParquetOptions = kio.ParquetOptions

// DefaultCSVOptions returns comma-separated input with a header row.
func DefaultCSVOptions() CSVOptions { return kio.DefaultCSVOptions() }

// DefaultParquetOptions returns snappy-compressed output.
func DefaultParquetOptions() ParquetOptions { return kio.DefaultParquetOptions() }

// ReadCSV reads r into records matching schema.
func ReadCSV(r io.Reader, schema *arrow.Schema, opts CSVOptions, mem memory.Allocator) ([]arrow.Record, error) {
	return kio.ReadCSV(r, schema, opts, mem)
}

// ReadParquet reads r into records.
func ReadParquet(r io.Reader, opts ParquetOptions, mem memory.Allocator) ([]arrow.Record, error) {
	return kio.ReadParquet(r, opts, mem)
}

// WriteJSON writes records to w as JSON lines.
func WriteJSON(w io.Writer, records []arrow.Record) error {
	return kio.WriteJSON(w, records)
}

// WriteParquet writes records, which must share a schema, to w.
func WriteParquet(w io.Writer, records []arrow.Record, opts ParquetOptions, mem memory.Allocator) error {
	return kio.NewParquetWriter(w, opts, mem).Write(records)
}

// ReleaseAll releases every record.
func ReleaseAll(records []arrow.Record) { kio.ReleaseAll(records) }

// Error classification

// IsTypeMismatch reports whether err rejected an operand type combination
// while building an expression.
func IsTypeMismatch(err error) bool { return errors.IsTypeMismatch(err) }

// IsUnsupportedType reports whether err is a type combination that cannot
// be evaluated.
func IsUnsupportedType(err error) bool { return errors.IsUnsupportedType(err) }

// IsOverflow reports whether err is an arithmetic overflow.
func IsOverflow(err error) bool { return errors.IsOverflow(err) }
