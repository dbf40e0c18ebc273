package expr

import (
	"fmt"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/memory"
	"github.com/paveg/kairos/internal/errors"
)

// ColumnExpr references a column of the input batch by name
type ColumnExpr struct {
	name string
}

// Col creates a column reference
func Col(name string) *ColumnExpr {
	return &ColumnExpr{name: name}
}

func (c *ColumnExpr) Type() ExprType { return ExprColumn }

func (c *ColumnExpr) String() string { return c.name }

func (c *ColumnExpr) Name() string { return c.name }

func (c *ColumnExpr) field(schema *arrow.Schema) (arrow.Field, int, error) {
	indices := schema.FieldIndices(c.name)
	if len(indices) == 0 {
		return arrow.Field{}, 0, errors.NewInvalidInputError("ColumnExpr",
			fmt.Sprintf("column %q not found in schema", c.name))
	}
	return schema.Field(indices[0]), indices[0], nil
}

func (c *ColumnExpr) DataType(schema *arrow.Schema) (arrow.DataType, error) {
	f, _, err := c.field(schema)
	if err != nil {
		return nil, err
	}
	return f.Type, nil
}

func (c *ColumnExpr) Nullable(schema *arrow.Schema) (bool, error) {
	f, _, err := c.field(schema)
	if err != nil {
		return false, err
	}
	return f.Nullable, nil
}

// Evaluate returns the referenced column, retained for the caller.
func (c *ColumnExpr) Evaluate(_ memory.Allocator, batch arrow.Record) (ColumnarValue, error) {
	_, idx, err := c.field(batch.Schema())
	if err != nil {
		return ColumnarValue{}, err
	}
	col := batch.Column(idx)
	col.Retain()
	return ArrayValue(col), nil
}

func (c *ColumnExpr) Children() []PhysicalExpr { return nil }

func (c *ColumnExpr) WithNewChildren(children []PhysicalExpr) (PhysicalExpr, error) {
	if len(children) != 0 {
		return nil, errors.NewInvalidInputError("ColumnExpr", "column references have no children")
	}
	return c, nil
}

func (c *ColumnExpr) Equal(other PhysicalExpr) bool {
	if other == nil || other.Type() != ExprColumn {
		return false
	}
	o, ok := other.(*ColumnExpr)
	return ok && o.name == c.name
}
