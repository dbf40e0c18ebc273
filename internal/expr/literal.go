package expr

import (
	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/memory"
	"github.com/paveg/kairos/internal/errors"
	"github.com/paveg/kairos/internal/scalar"
)

// LiteralExpr is a constant scalar
type LiteralExpr struct {
	value scalar.Value
}

// Lit creates a literal expression
func Lit(v scalar.Value) *LiteralExpr {
	return &LiteralExpr{value: v}
}

func (l *LiteralExpr) Type() ExprType { return ExprLiteral }

func (l *LiteralExpr) String() string { return l.value.String() }

func (l *LiteralExpr) Value() scalar.Value { return l.value }

func (l *LiteralExpr) DataType(*arrow.Schema) (arrow.DataType, error) {
	return l.value.DataType(), nil
}

func (l *LiteralExpr) Nullable(*arrow.Schema) (bool, error) {
	return l.value.IsNull(), nil
}

func (l *LiteralExpr) Evaluate(memory.Allocator, arrow.Record) (ColumnarValue, error) {
	return ScalarValue(l.value), nil
}

func (l *LiteralExpr) Children() []PhysicalExpr { return nil }

func (l *LiteralExpr) WithNewChildren(children []PhysicalExpr) (PhysicalExpr, error) {
	if len(children) != 0 {
		return nil, errors.NewInvalidInputError("LiteralExpr", "literals have no children")
	}
	return l, nil
}

func (l *LiteralExpr) Equal(other PhysicalExpr) bool {
	if other == nil || other.Type() != ExprLiteral {
		return false
	}
	o, ok := other.(*LiteralExpr)
	return ok && o.value.Equal(l.value)
}
