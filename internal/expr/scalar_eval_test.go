package expr

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"testing"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/cockroachdb/datadriven"
	crdberrors "github.com/cockroachdb/errors"
	"github.com/paveg/kairos/internal/errors"
	"github.com/paveg/kairos/internal/operators"
	"github.com/paveg/kairos/internal/scalar"
	"github.com/stretchr/testify/require"
)

var (
	binaryRe  = regexp.MustCompile(`^\s*(\w+\([^)]*\))\s*(\S+)\s*(\w+\([^)]*\))\s*$`)
	operandRe = regexp.MustCompile(`^(\w+)\(([^)]*)\)$`)
)

// parseOperand reads literals such as date32(3), ts_ms(1500), dt(1, 0) or
// mdn(null). A single "null" argument gives a typed null.
func parseOperand(s string) (scalar.Value, error) {
	m := operandRe.FindStringSubmatch(s)
	if m == nil {
		return scalar.Value{}, fmt.Errorf("malformed operand %q", s)
	}
	name := m[1]

	var args []int64
	isNull := strings.TrimSpace(m[2]) == "null"
	if !isNull && strings.TrimSpace(m[2]) != "" {
		for _, a := range strings.Split(m[2], ",") {
			v, err := strconv.ParseInt(strings.TrimSpace(a), 10, 64)
			if err != nil {
				return scalar.Value{}, fmt.Errorf("operand %q: %w", s, err)
			}
			args = append(args, v)
		}
	}

	var typ arrow.DataType
	var build func() scalar.Value
	arg := func(i int) int64 {
		if i < len(args) {
			return args[i]
		}
		return 0
	}
	timestamp := func(unit arrow.TimeUnit) {
		tt := &arrow.TimestampType{Unit: unit}
		typ, build = tt, func() scalar.Value { return scalar.NewTimestamp(arg(0), tt) }
	}

	switch name {
	case "null":
		return scalar.NewNull(nil), nil
	case "date32":
		typ, build = arrow.FixedWidthTypes.Date32, func() scalar.Value { return scalar.NewDate32(int32(arg(0))) }
	case "date64":
		typ, build = arrow.FixedWidthTypes.Date64, func() scalar.Value { return scalar.NewDate64(arg(0)) }
	case "ts_s":
		timestamp(arrow.Second)
	case "ts_ms":
		timestamp(arrow.Millisecond)
	case "ts_us":
		timestamp(arrow.Microsecond)
	case "ts_ns":
		timestamp(arrow.Nanosecond)
	case "ym":
		typ, build = arrow.FixedWidthTypes.MonthInterval, func() scalar.Value { return scalar.NewIntervalYM(int32(arg(0))) }
	case "dt":
		typ, build = arrow.FixedWidthTypes.DayTimeInterval, func() scalar.Value {
			return scalar.NewIntervalDT(int32(arg(0)), int32(arg(1)))
		}
	case "mdn":
		typ, build = arrow.FixedWidthTypes.MonthDayNanoInterval, func() scalar.Value {
			return scalar.NewIntervalMDN(int32(arg(0)), int32(arg(1)), arg(2))
		}
	case "i64":
		typ, build = arrow.PrimitiveTypes.Int64, func() scalar.Value { return scalar.NewInt64(arg(0)) }
	default:
		return scalar.Value{}, fmt.Errorf("unknown operand kind %q", name)
	}

	if isNull {
		return scalar.NewNull(typ), nil
	}
	return build(), nil
}

func parseBinary(t *testing.T, input string) (*DateTimeIntervalExpr, error) {
	m := binaryRe.FindStringSubmatch(strings.TrimSpace(input))
	require.NotNil(t, m, "malformed expression %q", input)

	left, err := parseOperand(m[1])
	require.NoError(t, err)
	op, err := operators.Parse(m[2])
	require.NoError(t, err)
	right, err := parseOperand(m[3])
	require.NoError(t, err)

	return NewDateTimeIntervalExpr(Lit(left), op, Lit(right), arrow.NewSchema(nil, nil))
}

func errorKind(err error) string {
	var e *errors.ExprError
	if crdberrors.As(err, &e) {
		return e.Kind.String()
	}
	return err.Error()
}

func TestScalarArithmeticDataDriven(t *testing.T) {
	datadriven.RunTest(t, "testdata/scalar_arith", func(t *testing.T, d *datadriven.TestData) string {
		var out strings.Builder
		for _, line := range strings.Split(strings.TrimSpace(d.Input), "\n") {
			e, err := parseBinary(t, line)
			if err != nil {
				fmt.Fprintf(&out, "construct: %s\n", err)
				continue
			}

			switch d.Cmd {
			case "eval":
				res, err := e.Evaluate(nil, nil)
				if err != nil {
					fmt.Fprintf(&out, "eval: %s\n", errorKind(err))
					continue
				}
				fmt.Fprintf(&out, "%s\n", res.Scalar())
			case "type":
				dt, err := e.DataType(nil)
				require.NoError(t, err)
				nullable, err := e.Nullable(nil)
				require.NoError(t, err)
				fmt.Fprintf(&out, "%s nullable=%t\n", dt, nullable)
			default:
				d.Fatalf(t, "unknown command %q", d.Cmd)
			}
		}
		return out.String()
	})
}
