package io

import (
	"fmt"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
)

// Write writes one JSON object per row. Dates render as YYYY-MM-DD,
// timestamps in UTC and intervals as objects of their components.
func (w *JSONWriter) Write(records []arrow.Record) error {
	for i, rec := range records {
		if err := array.RecordToJSON(rec, w.writer); err != nil {
			return fmt.Errorf("writing record %d as JSON: %w", i, err)
		}
	}
	return nil
}
