package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/memory"
	"github.com/paveg/kairos"
	"github.com/paveg/kairos/internal/config"
	"github.com/paveg/kairos/internal/datatypes"
	"github.com/paveg/kairos/internal/validation"
	"github.com/spf13/cobra"
)

const (
	formatJSON    = "json"
	formatParquet = "parquet"
)

type evalConfig struct {
	input       string
	schema      string
	column      string
	op          string
	rhsColumn   string
	months      int32
	days        int32
	nanos       int64
	as          string
	output      string
	format      string
	compression string
}

func defaultEvalConfig() evalConfig {
	return evalConfig{
		op:          "+",
		as:          "result",
		format:      formatJSON,
		compression: kairos.DefaultParquetOptions().Compression,
	}
}

func makeEvalCommand(flags *globalFlags) *cobra.Command {
	ec := defaultEvalConfig()
	runCmdFunc := func(cmd *cobra.Command, _ []string) error {
		cfg, err := flags.loadConfig()
		if err != nil {
			return err
		}
		logger := newLogger(cmd.ErrOrStderr(), cfg.VerboseLogging)
		return runEval(cmd.Context(), ec, cfg, cmd.OutOrStdout(), logger)
	}

	cmd := &cobra.Command{
		Use:   "eval",
		Short: "Evaluate <column> <op> <interval or column> over every row of a file",
		Long: `Evaluate <column> <op> <interval or column> over every row of a CSV or Parquet file.

The right operand is the interval given by --months, --days and --nanos, or
the column named by --rhs-column. Output rows hold every input column
followed by the result column.`,
		Args: cobra.NoArgs,
		RunE: runCmdFunc,
	}
	cmd.Flags().StringVar(&ec.input, "input", ec.input, "input file, .csv or .parquet")
	cmd.Flags().StringVar(&ec.schema, "schema", ec.schema, `CSV column types, e.g. "ts:timestamp[ms, tz=UTC],d:date32"`)
	cmd.Flags().StringVar(&ec.column, "column", ec.column, "left operand column")
	cmd.Flags().StringVar(&ec.op, "op", ec.op, "operator, + or -")
	cmd.Flags().StringVar(&ec.rhsColumn, "rhs-column", ec.rhsColumn, "right operand column, replaces the interval flags")
	cmd.Flags().Int32Var(&ec.months, "months", ec.months, "interval months")
	cmd.Flags().Int32Var(&ec.days, "days", ec.days, "interval days")
	cmd.Flags().Int64Var(&ec.nanos, "nanos", ec.nanos, "interval nanoseconds")
	cmd.Flags().StringVar(&ec.as, "as", ec.as, "name of the result column")
	cmd.Flags().StringVarP(&ec.output, "output", "o", ec.output, "output file (default: stdout)")
	cmd.Flags().StringVar(&ec.format, "output-format", ec.format, "output format, json or parquet")
	cmd.Flags().StringVar(&ec.compression, "compression", ec.compression, "parquet compression: snappy, gzip, lz4, zstd or uncompressed")
	_ = cmd.MarkFlagRequired("input")
	_ = cmd.MarkFlagRequired("column")
	return cmd
}

func runEval(ctx context.Context, ec evalConfig, cfg config.Config, stdout io.Writer, logger *slog.Logger) error {
	if ec.format != formatJSON && ec.format != formatParquet {
		return fmt.Errorf("unknown output format %q, expected %s or %s", ec.format, formatJSON, formatParquet)
	}

	mem := memory.NewGoAllocator()
	batches, err := readInput(ec, cfg, mem)
	if err != nil {
		return err
	}
	defer kairos.ReleaseAll(batches)
	if len(batches) == 0 {
		logger.Info("input has no rows", "input", ec.input)
		return nil
	}

	schema := batches[0].Schema()
	if schema.HasField(ec.as) {
		return fmt.Errorf("result column %q already exists in the input; pick another name with --as", ec.as)
	}

	columns := []string{ec.column}
	rhs := kairos.IntervalMDN(ec.months, ec.days, ec.nanos)
	if ec.rhsColumn != "" {
		columns = append(columns, ec.rhsColumn)
		rhs = kairos.Col(ec.rhsColumn)
	}
	if err := validation.ValidateColumns(schema, "eval", columns...); err != nil {
		return err
	}
	result, err := kairos.Col(ec.column).Apply(ec.op, rhs, schema)
	if err != nil {
		return fmt.Errorf("building expression: %w", err)
	}

	projections := make([]kairos.Projection, 0, schema.NumFields()+1)
	for _, f := range schema.Fields() {
		projections = append(projections, kairos.Projection{Name: f.Name, Expr: kairos.Col(f.Name)})
	}
	projections = append(projections, kairos.Projection{Name: ec.as, Expr: result})

	x := kairos.NewExecutor(cfg, mem, kairos.WithLogger(logger))
	defer x.Close()

	logger.Debug("evaluating", "expr", result.String(), "batches", len(batches))
	results, err := x.Project(ctx, projections, batches)
	if err != nil {
		return fmt.Errorf("evaluating %s: %w", result, err)
	}
	defer kairos.ReleaseAll(results)

	if err := writeOutput(ec, results, stdout, mem); err != nil {
		return err
	}
	if summary := x.MetricsSummary(); summary != "" {
		logger.Info("metrics", "summary", summary)
	}
	return nil
}

func readInput(ec evalConfig, cfg config.Config, mem memory.Allocator) ([]arrow.Record, error) {
	f, err := os.Open(ec.input)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	switch ext := strings.ToLower(filepath.Ext(ec.input)); ext {
	case ".csv":
		if ec.schema == "" {
			return nil, fmt.Errorf("--schema is required for CSV input")
		}
		schema, err := parseSchema(ec.schema)
		if err != nil {
			return nil, err
		}
		opts := kairos.DefaultCSVOptions()
		opts.BatchSize = cfg.BatchSize
		return kairos.ReadCSV(f, schema, opts, mem)
	case ".parquet", ".pq":
		opts := kairos.DefaultParquetOptions()
		opts.BatchSize = cfg.BatchSize
		return kairos.ReadParquet(f, opts, mem)
	default:
		return nil, fmt.Errorf("unsupported input format %q, expected .csv or .parquet", ext)
	}
}

func writeOutput(ec evalConfig, results []arrow.Record, stdout io.Writer, mem memory.Allocator) (err error) {
	w := stdout
	if ec.output != "" {
		f, cerr := os.Create(ec.output)
		if cerr != nil {
			return cerr
		}
		defer func() {
			if cerr := f.Close(); err == nil {
				err = cerr
			}
		}()
		w = f
	}

	if ec.format == formatParquet {
		opts := kairos.DefaultParquetOptions()
		opts.Compression = ec.compression
		return kairos.WriteParquet(w, results, opts, mem)
	}
	return kairos.WriteJSON(w, results)
}

// parseSchema parses "name:type,name:type". Types use the names Arrow
// prints, so commas inside brackets belong to the type.
func parseSchema(def string) (*arrow.Schema, error) {
	var fields []arrow.Field
	for _, entry := range splitTopLevel(def) {
		name, typ, ok := strings.Cut(entry, ":")
		name = strings.TrimSpace(name)
		if !ok || name == "" {
			return nil, fmt.Errorf("malformed schema entry %q, expected name:type", entry)
		}
		dt, err := datatypes.ParseDataType(typ)
		if err != nil {
			return nil, fmt.Errorf("column %s: %w", name, err)
		}
		fields = append(fields, arrow.Field{Name: name, Type: dt, Nullable: true})
	}
	return arrow.NewSchema(fields, nil), nil
}

func splitTopLevel(s string) []string {
	var parts []string
	depth, start := 0, 0
	for i, r := range s {
		switch r {
		case '[':
			depth++
		case ']':
			if depth > 0 {
				depth--
			}
		case ',':
			if depth == 0 {
				parts = append(parts, s[start:i])
				start = i + 1
			}
		}
	}
	return append(parts, s[start:])
}
