package exec

import (
	"bytes"
	"context"
	"log/slog"
	"testing"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/paveg/kairos/internal/config"
	"github.com/paveg/kairos/internal/errors"
	"github.com/paveg/kairos/internal/expr"
	kio "github.com/paveg/kairos/internal/io"
	"github.com/paveg/kairos/internal/monitoring"
	"github.com/paveg/kairos/internal/operators"
	"github.com/paveg/kairos/internal/scalar"
	"github.com/paveg/kairos/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var tsMilli = &arrow.TimestampType{Unit: arrow.Millisecond}

func eventColumns(start int64, n int) []testutil.Column {
	ts := make([]int64, n)
	days := make([]int32, n)
	for i := range n {
		ts[i] = (start + int64(i)) * 1000
		days[i] = int32(start) + int32(i)
	}
	return []testutil.Column{
		testutil.TimestampColumn("ts", tsMilli, ts),
		testutil.Date32Column("day", days),
	}
}

func makeBatches(t *testing.T, mem *testutil.TestMemoryContext, sizes ...int) []arrow.Record {
	t.Helper()
	var batches []arrow.Record
	var start int64
	for _, n := range sizes {
		batches = append(batches, testutil.NewRecord(mem.Allocator, eventColumns(start, n)...))
		start += int64(n)
	}
	return batches
}

func projections(t *testing.T, schema *arrow.Schema) []Projection {
	t.Helper()
	plusDay, err := expr.NewDateTimeIntervalExpr(expr.Col("ts"), operators.Plus, expr.Lit(scalar.NewIntervalDT(1, 0)), schema)
	require.NoError(t, err)
	plusDayAgain, err := expr.NewDateTimeIntervalExpr(expr.Col("ts"), operators.Plus, expr.Lit(scalar.NewIntervalDT(1, 0)), schema)
	require.NoError(t, err)
	nextMonth, err := expr.NewDateTimeIntervalExpr(expr.Col("day"), operators.Plus, expr.Lit(scalar.NewIntervalYM(1)), schema)
	require.NoError(t, err)
	return []Projection{
		{Name: "tomorrow", Expr: plusDay},
		{Name: "next_month", Expr: nextMonth},
		{Name: "tomorrow_again", Expr: plusDayAgain},
		{Name: "ts", Expr: expr.Col("ts")},
	}
}

func TestProject(t *testing.T) {
	tests := []struct {
		name      string
		threshold int
		parallel  bool
	}{
		{"sequential", 1_000_000, false},
		{"parallel", 1, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mem := testutil.SetupMemoryTest(t)
			defer mem.Release()

			batches := makeBatches(t, mem, 3, 2, 4)
			defer kio.ReleaseAll(batches)

			metrics := monitoring.NewMetricsCollector(true)
			cfg := config.Config{ParallelThreshold: tt.threshold, WorkerPoolSize: 2}
			ex := New(cfg, WithAllocator(mem.Allocator), WithMetrics(metrics))
			defer ex.Close()

			out, err := ex.Project(context.Background(), projections(t, batches[0].Schema()), batches)
			require.NoError(t, err)
			defer kio.ReleaseAll(out)

			require.Len(t, out, 3)
			assert.Equal(t, []string{"tomorrow", "next_month", "tomorrow_again", "ts"}, fieldNames(out[0].Schema()))

			// Second batch starts at row 3.
			second := out[1]
			assert.Equal(t, int64(2), second.NumRows())
			testutil.AssertValues(t, second.Column(0), []arrow.Timestamp{86_403_000, 86_404_000})
			testutil.AssertValues(t, second.Column(1), []arrow.Date32{34, 35})
			assert.Same(t, second.Column(0), second.Column(2), "duplicate expressions share one array")
			testutil.AssertValues(t, second.Column(3), []arrow.Timestamp{3_000, 4_000})

			recorded := metrics.GetMetrics()
			require.Len(t, recorded, 1)
			assert.Equal(t, int64(9), recorded[0].RowsProcessed)
			assert.Equal(t, tt.parallel, recorded[0].Parallel)
		})
	}
}

func fieldNames(s *arrow.Schema) []string {
	names := make([]string, s.NumFields())
	for i, f := range s.Fields() {
		names[i] = f.Name
	}
	return names
}

func TestProjectScalarBroadcast(t *testing.T) {
	mem := testutil.SetupMemoryTest(t)
	defer mem.Release()

	batches := makeBatches(t, mem, 3)
	defer kio.ReleaseAll(batches)

	constant, err := expr.NewDateTimeIntervalExpr(
		expr.Lit(scalar.NewDate32(0)), operators.Minus, expr.Lit(scalar.NewIntervalYM(1)), batches[0].Schema())
	require.NoError(t, err)

	ex := New(config.NewConfig(), WithAllocator(mem.Allocator))
	defer ex.Close()

	out, err := ex.Project(context.Background(), []Projection{{Name: "c", Expr: constant}}, batches)
	require.NoError(t, err)
	defer kio.ReleaseAll(out)

	testutil.AssertValues(t, out[0].Column(0), []arrow.Date32{-31, -31, -31})
	assert.False(t, out[0].Schema().Field(0).Nullable)
}

func TestProjectFailureReleasesPartialOutput(t *testing.T) {
	for _, threshold := range []int{1, 1_000_000} {
		mem := testutil.SetupMemoryTest(t)

		ok := testutil.NewRecord(mem.Allocator, testutil.Date32Column("day", []int32{0, 1}))
		bad := testutil.NewRecord(mem.Allocator, testutil.Date32Column("day", []int32{2, 2_147_483_000}))
		batches := []arrow.Record{ok, ok, bad, ok}

		shift, err := expr.NewDateTimeIntervalExpr(expr.Col("day"), operators.Plus, expr.Lit(scalar.NewIntervalDT(10_000, 0)), ok.Schema())
		require.NoError(t, err)

		ex := New(config.Config{ParallelThreshold: threshold, WorkerPoolSize: 2}, WithAllocator(mem.Allocator))
		out, err := ex.Project(context.Background(), []Projection{{Name: "d", Expr: shift}}, batches)
		ex.Close()

		require.Error(t, err)
		assert.True(t, errors.IsOverflow(err))
		assert.Contains(t, err.Error(), "batch 2")
		assert.Nil(t, out)

		ok.Release()
		bad.Release()
		mem.Release()
	}
}

func TestProjectValidation(t *testing.T) {
	mem := testutil.SetupMemoryTest(t)
	defer mem.Release()

	ex := New(config.NewConfig(), WithAllocator(mem.Allocator))
	defer ex.Close()

	batches := makeBatches(t, mem, 1)
	defer kio.ReleaseAll(batches)

	_, err := ex.Project(context.Background(), nil, batches)
	assert.ErrorContains(t, err, "no projections given")

	out, err := ex.Project(context.Background(), []Projection{{Name: "ts", Expr: expr.Col("ts")}}, nil)
	require.NoError(t, err)
	assert.Nil(t, out)

	other := testutil.NewRecord(mem.Allocator, testutil.Date32Column("day", []int32{1}))
	defer other.Release()
	_, err = ex.Project(context.Background(), []Projection{{Name: "ts", Expr: expr.Col("ts")}}, []arrow.Record{batches[0], other})
	assert.ErrorContains(t, err, "batch 1 has schema")

	_, err = ex.Project(context.Background(), []Projection{{Name: "x", Expr: expr.Col("missing")}}, batches)
	assert.ErrorContains(t, err, "resolving type of x")

	_, err = ex.Project(context.Background(), []Projection{{Name: "ts", Expr: expr.Col("ts")}, {Name: "ts", Expr: expr.Col("day")}}, batches)
	assert.ErrorContains(t, err, `duplicate output column "ts"`)
}

func TestProjectCanceled(t *testing.T) {
	mem := testutil.SetupMemoryTest(t)
	defer mem.Release()

	batches := makeBatches(t, mem, 2, 2)
	defer kio.ReleaseAll(batches)

	ex := New(config.NewConfig(), WithAllocator(mem.Allocator))
	defer ex.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := ex.Project(ctx, []Projection{{Name: "ts", Expr: expr.Col("ts")}}, batches)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestVerboseLogging(t *testing.T) {
	mem := testutil.SetupMemoryTest(t)
	defer mem.Release()

	batches := makeBatches(t, mem, 2)
	defer kio.ReleaseAll(batches)

	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))

	quiet := New(config.NewConfig(), WithAllocator(mem.Allocator), WithLogger(logger))
	out, err := quiet.Project(context.Background(), []Projection{{Name: "ts", Expr: expr.Col("ts")}}, batches)
	require.NoError(t, err)
	kio.ReleaseAll(out)
	quiet.Close()
	assert.Empty(t, buf.String())

	cfg := config.NewConfig()
	cfg.VerboseLogging = true
	cfg.MetricsCollection = true
	verbose := New(cfg, WithAllocator(mem.Allocator), WithLogger(logger))
	defer verbose.Close()
	out, err = verbose.Project(context.Background(), []Projection{{Name: "ts", Expr: expr.Col("ts")}}, batches)
	require.NoError(t, err)
	kio.ReleaseAll(out)

	assert.Contains(t, buf.String(), "msg=projecting")
	assert.Contains(t, buf.String(), "rows=2")
	require.NotNil(t, verbose.Metrics())
	assert.Len(t, verbose.Metrics().GetMetrics(), 1)
}
