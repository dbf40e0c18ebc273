// Package io moves Arrow record batches in and out of the executor.
//
// Readers turn CSV or Parquet input into a slice of records of at most
// BatchSize rows each; writers emit evaluation results as JSON lines or
// Parquet. Every record handed out is owned by the caller, who must
// Release it.
package io

import (
	"io"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/memory"
)

// DefaultBatchSize is the default number of rows per record
const DefaultBatchSize = 4096

// RecordReader reads a whole source into record batches
type RecordReader interface {
	Read() ([]arrow.Record, error)
}

// RecordWriter writes record batches to a destination
type RecordWriter interface {
	Write(records []arrow.Record) error
}

// CSVOptions contains configuration options for CSV input
type CSVOptions struct {
	// Delimiter is the field delimiter (default: comma)
	Delimiter rune
	// Comment is the comment character (default: 0 = disabled)
	Comment rune
	// Header indicates whether the first row contains headers
	Header bool
	// BatchSize is the number of rows per record
	BatchSize int
	// NullValues are the cell values read as null (default: "", "NULL", "null")
	NullValues []string
}

// DefaultCSVOptions returns default CSV options
func DefaultCSVOptions() CSVOptions {
	return CSVOptions{
		Delimiter: ',',
		Header:    true,
		BatchSize: DefaultBatchSize,
	}
}

// CSVReader reads CSV data against a fixed schema
type CSVReader struct {
	reader  io.Reader
	schema  *arrow.Schema
	options CSVOptions
	mem     memory.Allocator
}

// NewCSVReader creates a new CSV reader with the specified options
func NewCSVReader(reader io.Reader, schema *arrow.Schema, options CSVOptions, mem memory.Allocator) *CSVReader {
	return &CSVReader{
		reader:  reader,
		schema:  schema,
		options: options,
		mem:     mem,
	}
}

// ParquetOptions contains configuration options for Parquet operations
type ParquetOptions struct {
	// Compression codec for written files: snappy, gzip, lz4, zstd or uncompressed
	Compression string
	// BatchSize is the number of rows per record
	BatchSize int
}

// DefaultParquetOptions returns default Parquet options
func DefaultParquetOptions() ParquetOptions {
	return ParquetOptions{
		Compression: "snappy",
		BatchSize:   DefaultBatchSize,
	}
}

// ParquetReader reads Parquet data into records
type ParquetReader struct {
	reader  io.Reader
	options ParquetOptions
	mem     memory.Allocator
}

// NewParquetReader creates a new Parquet reader with the specified options
func NewParquetReader(reader io.Reader, options ParquetOptions, mem memory.Allocator) *ParquetReader {
	return &ParquetReader{
		reader:  reader,
		options: options,
		mem:     mem,
	}
}

// ParquetWriter writes records to Parquet format
type ParquetWriter struct {
	writer  io.Writer
	options ParquetOptions
	mem     memory.Allocator
}

// NewParquetWriter creates a new Parquet writer with the specified options
func NewParquetWriter(writer io.Writer, options ParquetOptions, mem memory.Allocator) *ParquetWriter {
	return &ParquetWriter{
		writer:  writer,
		options: options,
		mem:     mem,
	}
}

// JSONWriter writes records as JSON lines, one object per row
type JSONWriter struct {
	writer io.Writer
}

// NewJSONWriter creates a new JSON lines writer
func NewJSONWriter(writer io.Writer) *JSONWriter {
	return &JSONWriter{writer: writer}
}

// ReadCSV reads all of r into records matching schema.
func ReadCSV(r io.Reader, schema *arrow.Schema, options CSVOptions, mem memory.Allocator) ([]arrow.Record, error) {
	return NewCSVReader(r, schema, options, mem).Read()
}

// ReadParquet reads all of r into records.
func ReadParquet(r io.Reader, options ParquetOptions, mem memory.Allocator) ([]arrow.Record, error) {
	return NewParquetReader(r, options, mem).Read()
}

// WriteJSON writes records to w as JSON lines.
func WriteJSON(w io.Writer, records []arrow.Record) error {
	return NewJSONWriter(w).Write(records)
}

// ReleaseAll releases every record in records.
func ReleaseAll(records []arrow.Record) {
	for _, rec := range records {
		if rec != nil {
			rec.Release()
		}
	}
}

var (
	_ RecordReader = (*CSVReader)(nil)
	_ RecordReader = (*ParquetReader)(nil)
	_ RecordWriter = (*ParquetWriter)(nil)
	_ RecordWriter = (*JSONWriter)(nil)
)
