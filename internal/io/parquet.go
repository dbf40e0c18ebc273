package io

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/parquet"
	"github.com/apache/arrow-go/v18/parquet/compress"
	"github.com/apache/arrow-go/v18/parquet/file"
	"github.com/apache/arrow-go/v18/parquet/pqarrow"
)

// Read reads Parquet data and returns one record per batch.
func (r *ParquetReader) Read() ([]arrow.Record, error) {
	// Parquet needs random access to the footer.
	data, err := io.ReadAll(r.reader)
	if err != nil {
		return nil, fmt.Errorf("reading data: %w", err)
	}

	pqReader, err := file.NewParquetReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("creating parquet file reader: %w", err)
	}
	defer pqReader.Close()

	batchSize := r.options.BatchSize
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}
	arrowReader, err := pqarrow.NewFileReader(pqReader, pqarrow.ArrowReadProperties{BatchSize: int64(batchSize)}, r.mem)
	if err != nil {
		return nil, fmt.Errorf("creating arrow file reader: %w", err)
	}

	rr, err := arrowReader.GetRecordReader(context.Background(), nil, nil)
	if err != nil {
		return nil, fmt.Errorf("creating record reader: %w", err)
	}
	defer rr.Release()

	var records []arrow.Record
	for rr.Next() {
		rec := rr.Record()
		rec.Retain()
		records = append(records, rec)
	}
	if err := rr.Err(); err != nil && !errors.Is(err, io.EOF) {
		ReleaseAll(records)
		return nil, fmt.Errorf("reading record batches: %w", err)
	}
	return records, nil
}

func compressionCodec(name string) (compress.Compression, error) {
	switch name {
	case "", "snappy":
		return compress.Codecs.Snappy, nil
	case "gzip":
		return compress.Codecs.Gzip, nil
	case "lz4":
		return compress.Codecs.Lz4Raw, nil
	case "zstd":
		return compress.Codecs.Zstd, nil
	case "uncompressed":
		return compress.Codecs.Uncompressed, nil
	default:
		return compress.Codecs.Uncompressed, fmt.Errorf("unknown parquet compression %q", name)
	}
}

// Write writes records, which must share a schema, as one Parquet file.
// The Arrow schema is stored in the file so timestamp units and time zones
// survive a round trip.
func (w *ParquetWriter) Write(records []arrow.Record) error {
	if len(records) == 0 {
		return fmt.Errorf("writing parquet: no records")
	}

	codec, err := compressionCodec(w.options.Compression)
	if err != nil {
		return err
	}

	props := parquet.NewWriterProperties(
		parquet.WithCompression(codec),
		parquet.WithAllocator(w.mem),
	)
	arrowProps := pqarrow.NewArrowWriterProperties(
		pqarrow.WithAllocator(w.mem),
		pqarrow.WithStoreSchema(),
	)

	schema := records[0].Schema()
	writer, err := pqarrow.NewFileWriter(schema, w.writer, props, arrowProps)
	if err != nil {
		return fmt.Errorf("creating file writer: %w", err)
	}

	for i, rec := range records {
		if !rec.Schema().Equal(schema) {
			_ = writer.Close()
			return fmt.Errorf("writing parquet: record %d has schema %s, expected %s", i, rec.Schema(), schema)
		}
		if err := writer.Write(rec); err != nil {
			_ = writer.Close()
			return fmt.Errorf("writing record %d: %w", i, err)
		}
	}
	if err := writer.Close(); err != nil {
		return fmt.Errorf("closing parquet writer: %w", err)
	}
	return nil
}
