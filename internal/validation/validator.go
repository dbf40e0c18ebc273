// Package validation provides input validation for projections.
// Validators are small values checked one by one, so callers can compose
// exactly the checks an operation needs and report the first failure.
package validation

import (
	"fmt"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/paveg/kairos/internal/errors"
)

// Validator interface for input validation
type Validator interface {
	Validate() error
}

// ColumnValidator validates that columns exist in a schema
type ColumnValidator struct {
	schema  *arrow.Schema
	columns []string
	op      string
}

// NewColumnValidator creates a validator for column references
func NewColumnValidator(schema *arrow.Schema, op string, columns ...string) *ColumnValidator {
	return &ColumnValidator{
		schema:  schema,
		columns: columns,
		op:      op,
	}
}

// Validate checks if all columns exist in the schema
func (v *ColumnValidator) Validate() error {
	for _, column := range v.columns {
		if !v.schema.HasField(column) {
			return errors.NewInvalidInputError(v.op, fmt.Sprintf("column %q does not exist", column))
		}
	}
	return nil
}

// SchemaValidator validates that batches share one schema
type SchemaValidator struct {
	batches []arrow.Record
	op      string
}

// NewSchemaValidator creates a validator comparing every batch's schema to
// the first batch's
func NewSchemaValidator(batches []arrow.Record, op string) *SchemaValidator {
	return &SchemaValidator{
		batches: batches,
		op:      op,
	}
}

// Validate checks if all schemas are equal
func (v *SchemaValidator) Validate() error {
	if len(v.batches) == 0 {
		return nil
	}
	want := v.batches[0].Schema()
	for i, b := range v.batches[1:] {
		if !b.Schema().Equal(want) {
			return errors.NewInvalidInputError(v.op,
				fmt.Sprintf("batch %d has schema %s, expected %s", i+1, b.Schema(), want))
		}
	}
	return nil
}

// NameValidator validates output column names
type NameValidator struct {
	names []string
	op    string
}

// NewNameValidator creates a validator requiring non-empty, distinct names
func NewNameValidator(names []string, op string) *NameValidator {
	return &NameValidator{
		names: names,
		op:    op,
	}
}

// Validate checks names are non-empty and unique
func (v *NameValidator) Validate() error {
	seen := make(map[string]struct{}, len(v.names))
	for i, name := range v.names {
		if name == "" {
			return errors.NewInvalidInputError(v.op, fmt.Sprintf("output column %d has an empty name", i))
		}
		if _, dup := seen[name]; dup {
			return errors.NewInvalidInputError(v.op, fmt.Sprintf("duplicate output column %q", name))
		}
		seen[name] = struct{}{}
	}
	return nil
}

// NotEmptyValidator validates that an operation received some inputs
type NotEmptyValidator struct {
	count int
	what  string
	op    string
}

// NewNotEmptyValidator creates a validator failing when count is zero
func NewNotEmptyValidator(count int, what, op string) *NotEmptyValidator {
	return &NotEmptyValidator{
		count: count,
		what:  what,
		op:    op,
	}
}

// Validate checks count is positive
func (v *NotEmptyValidator) Validate() error {
	if v.count <= 0 {
		return errors.NewInvalidInputError(v.op, fmt.Sprintf("no %s given", v.what))
	}
	return nil
}

// CompoundValidator combines multiple validators
type CompoundValidator struct {
	validators []Validator
}

// NewCompoundValidator creates a validator that checks multiple conditions
func NewCompoundValidator(validators ...Validator) *CompoundValidator {
	return &CompoundValidator{
		validators: validators,
	}
}

// Validate runs all validators and returns the first error encountered
func (v *CompoundValidator) Validate() error {
	for _, validator := range v.validators {
		if err := validator.Validate(); err != nil {
			return err
		}
	}
	return nil
}

// Convenience validation functions

// ValidateColumns is a convenience function for column validation
func ValidateColumns(schema *arrow.Schema, op string, columns ...string) error {
	return NewColumnValidator(schema, op, columns...).Validate()
}

// ValidateSchemas is a convenience function for schema validation
func ValidateSchemas(batches []arrow.Record, op string) error {
	return NewSchemaValidator(batches, op).Validate()
}

// ValidateNames is a convenience function for output name validation
func ValidateNames(names []string, op string) error {
	return NewNameValidator(names, op).Validate()
}
