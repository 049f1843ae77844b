package writer

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"

	"github.com/xitongsys/parquet-go/parquet"
	"github.com/xitongsys/parquet-go/source"
	pqwriter "github.com/xitongsys/parquet-go/writer"

	"oiflow/internal/models"
)

type historyParquetRecord struct {
	Date    string  `parquet:"name=date, type=BYTE_ARRAY, convertedtype=UTF8"`
	TotalOI float64 `parquet:"name=total_oi, type=DOUBLE"`
}

// memFile adapts a byte buffer to the parquet writer's file interface so the
// file is assembled in memory and flushed to disk in one step.
type memFile struct {
	buffer *bytes.Buffer
}

func newMemFile() *memFile {
	return &memFile{buffer: &bytes.Buffer{}}
}

func (m *memFile) Create(string) (source.ParquetFile, error) { return m, nil }
func (m *memFile) Open(string) (source.ParquetFile, error)   { return m, nil }
func (m *memFile) Seek(int64, int) (int64, error)            { return int64(m.buffer.Len()), nil }
func (m *memFile) Read([]byte) (int, error)                  { return 0, fmt.Errorf("read not supported") }
func (m *memFile) Write(b []byte) (int, error)               { return m.buffer.Write(b) }
func (m *memFile) Close() error                              { return nil }
func (m *memFile) Bytes() []byte                             { return m.buffer.Bytes() }

func writeParquet(series models.HistorySeries, path string) error {
	mem := newMemFile()
	pw, err := pqwriter.NewParquetWriter(mem, new(historyParquetRecord), 1)
	if err != nil {
		return fmt.Errorf("create parquet writer: %w", err)
	}
	pw.CompressionType = parquet.CompressionCodec_SNAPPY

	for _, day := range series {
		rec := historyParquetRecord{Date: day.Date, TotalOI: day.TotalOI}
		if err := pw.Write(rec); err != nil {
			return fmt.Errorf("write parquet row: %w", err)
		}
	}
	if err := pw.WriteStop(); err != nil {
		return fmt.Errorf("finalize parquet file: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create output directory: %w", err)
	}
	if err := os.WriteFile(path, mem.Bytes(), 0o644); err != nil {
		return fmt.Errorf("write parquet file: %w", err)
	}
	return nil
}
