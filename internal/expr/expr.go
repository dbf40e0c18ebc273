// Package expr provides physical expressions evaluated against Arrow record
// batches, including the temporal arithmetic node that adds intervals to
// dates and timestamps.
package expr

import (
	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/memory"
	"github.com/paveg/kairos/internal/intervals"
)

// ExprType discriminates the physical expression variants
type ExprType int

const (
	ExprColumn ExprType = iota
	ExprLiteral
	ExprDateTimeInterval
)

func (t ExprType) String() string {
	switch t {
	case ExprColumn:
		return "column"
	case ExprLiteral:
		return "literal"
	case ExprDateTimeInterval:
		return "datetime_interval"
	default:
		return "unknown"
	}
}

// PhysicalExpr is an immutable expression that can be evaluated against a
// record batch. Implementations hold no mutable state, so a single tree may
// be evaluated concurrently on disjoint batches.
type PhysicalExpr interface {
	Type() ExprType
	String() string

	// DataType returns the type produced when evaluated against schema.
	DataType(schema *arrow.Schema) (arrow.DataType, error)
	// Nullable reports whether the result may contain nulls.
	Nullable(schema *arrow.Schema) (bool, error)
	// Evaluate computes the expression over batch. The caller owns the
	// returned value and must Release it.
	Evaluate(mem memory.Allocator, batch arrow.Record) (ColumnarValue, error)

	Children() []PhysicalExpr
	// WithNewChildren returns a copy of the expression over new children.
	WithNewChildren(children []PhysicalExpr) (PhysicalExpr, error)
	// Equal reports structural equality.
	Equal(other PhysicalExpr) bool
}

// BoundsExpr is implemented by expressions that take part in range
// propagation.
type BoundsExpr interface {
	PhysicalExpr

	// EvaluateBounds computes the output range from the children's ranges.
	EvaluateBounds(children []intervals.Interval) (intervals.Interval, error)
	// PropagateConstraints narrows the children's ranges given the range of
	// the output. A nil entry means the child cannot be narrowed; an empty
	// result means nothing could be propagated.
	PropagateConstraints(target intervals.Interval, children []intervals.Interval) ([]*intervals.Interval, error)
}

func childrenEqual(a, b []PhysicalExpr) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if !a[i].Equal(b[i]) {
			return false
		}
	}
	return true
}
