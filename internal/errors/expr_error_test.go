package errors_test

import (
	stderrors "errors"
	"fmt"
	"testing"

	"github.com/apache/arrow-go/v18/arrow"
	crdberrors "github.com/cockroachdb/errors"
	"github.com/paveg/kairos/internal/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExprError_Error(t *testing.T) {
	tests := []struct {
		name     string
		err      *errors.ExprError
		expected string
	}{
		{
			name: "without hint",
			err: &errors.ExprError{
				Op:      "Evaluate",
				Kind:    errors.KindOverflow,
				Message: "date32 out of range",
			},
			expected: "Evaluate failed (arithmetic overflow): date32 out of range",
		},
		{
			name: "with hint",
			err: (&errors.ExprError{
				Op:      "Evaluate",
				Kind:    errors.KindInvalidInput,
				Message: "bad",
			}).WithHint("try again"),
			expected: "Evaluate failed (invalid input): bad. Hint: try again",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.err.Error())
		})
	}
}

func TestNewTypeMismatchError(t *testing.T) {
	err := errors.NewTypeMismatchError("DateTimeIntervalExpr",
		arrow.FixedWidthTypes.Date32, "=", arrow.FixedWidthTypes.MonthDayNanoInterval)

	assert.True(t, errors.IsTypeMismatch(err))
	assert.False(t, errors.IsInternal(err))
	assert.Contains(t, err.Error(), "invalid operation = between 'date32' and 'month_day_nano_interval'")
}

func TestNewInternalError(t *testing.T) {
	err := errors.NewInternalError("Evaluate", "operator %s reached evaluation", "*")

	assert.True(t, errors.IsInternal(err))
	assert.Equal(t, "operator * reached evaluation", err.Message)
	require.Error(t, err.Unwrap())
	assert.True(t, crdberrors.IsAssertionFailure(err.Unwrap()))
}

func TestExprError_Is(t *testing.T) {
	err1 := errors.NewOverflowError("Evaluate", "int32 overflow")
	err2 := errors.NewOverflowError("Evaluate", "int32 overflow")
	err3 := errors.NewUnsupportedTypeError("Evaluate", "int32 overflow")

	assert.True(t, err1.Is(err2))
	assert.False(t, err1.Is(err3))
	assert.False(t, err1.Is(stderrors.New("different error")))
}

func TestKindPredicatesSeeThroughWrapping(t *testing.T) {
	wrapped := fmt.Errorf("evaluating batch 3: %w", errors.NewOverflowError("Evaluate", "boom"))

	assert.True(t, errors.IsOverflow(wrapped))
	assert.False(t, errors.IsUnsupportedType(wrapped))
	assert.False(t, errors.IsInvalidInput(wrapped))
	assert.True(t, errors.IsInvalidInput(fmt.Errorf("bounds: %w", errors.NewInvalidInputError("Compare", "unordered"))))
	assert.True(t, stderrors.Is(
		fmt.Errorf("ctx: %w", errors.ErrMismatchedLength), errors.ErrMismatchedLength))
}
