package io

import (
	"fmt"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/csv"
)

// Read reads CSV data and returns one record per batch. Date columns expect
// YYYY-MM-DD and timestamp columns any layout arrow.TimestampFromString
// accepts. Interval columns cannot be read from CSV.
func (r *CSVReader) Read() ([]arrow.Record, error) {
	for _, f := range r.schema.Fields() {
		switch f.Type.ID() {
		case arrow.INTERVAL_MONTHS, arrow.INTERVAL_DAY_TIME, arrow.INTERVAL_MONTH_DAY_NANO:
			return nil, fmt.Errorf("reading CSV: column %s: interval columns are not supported", f.Name)
		}
	}

	batchSize := r.options.BatchSize
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}
	delimiter := r.options.Delimiter
	if delimiter == 0 {
		delimiter = ','
	}

	opts := []csv.Option{
		csv.WithAllocator(r.mem),
		csv.WithHeader(r.options.Header),
		csv.WithChunk(batchSize),
		csv.WithComma(delimiter),
		csv.WithNullReader(true, r.options.NullValues...),
	}
	if r.options.Comment != 0 {
		opts = append(opts, csv.WithComment(r.options.Comment))
	}

	rdr := csv.NewReader(r.reader, r.schema, opts...)
	defer rdr.Release()

	var records []arrow.Record
	for rdr.Next() {
		// A parse failure still yields a record; the error must be checked first.
		if err := rdr.Err(); err != nil {
			ReleaseAll(records)
			return nil, fmt.Errorf("reading CSV: %w", err)
		}
		rec := rdr.Record()
		rec.Retain()
		records = append(records, rec)
	}
	if err := rdr.Err(); err != nil {
		ReleaseAll(records)
		return nil, fmt.Errorf("reading CSV: %w", err)
	}
	return records, nil
}
