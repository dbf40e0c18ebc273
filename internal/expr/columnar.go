package expr

import (
	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/memory"
	"github.com/paveg/kairos/internal/scalar"
)

// ColumnarValue is the result of evaluating an expression: either a single
// scalar or an array with one element per row.
type ColumnarValue struct {
	array  arrow.Array
	scalar scalar.Value
}

// ScalarValue wraps a scalar result.
func ScalarValue(v scalar.Value) ColumnarValue {
	return ColumnarValue{scalar: v}
}

// ArrayValue wraps an array result, taking ownership of arr.
func ArrayValue(arr arrow.Array) ColumnarValue {
	return ColumnarValue{array: arr}
}

// IsArray reports whether the value holds an array.
func (c ColumnarValue) IsArray() bool { return c.array != nil }

// Array returns the held array, or nil for a scalar.
func (c ColumnarValue) Array() arrow.Array { return c.array }

// Scalar returns the held scalar. It is meaningless for arrays.
func (c ColumnarValue) Scalar() scalar.Value { return c.scalar }

func (c ColumnarValue) DataType() arrow.DataType {
	if c.array != nil {
		return c.array.DataType()
	}
	return c.scalar.DataType()
}

// ToArray returns the value as an array of n rows. Arrays are retained,
// scalars are broadcast. The caller must Release the result.
func (c ColumnarValue) ToArray(mem memory.Allocator, n int) (arrow.Array, error) {
	if c.array != nil {
		c.array.Retain()
		return c.array, nil
	}
	return c.scalar.ToArray(mem, n)
}

// Release frees the held array, if any.
func (c ColumnarValue) Release() {
	if c.array != nil {
		c.array.Release()
	}
}
