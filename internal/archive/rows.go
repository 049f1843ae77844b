package archive

import (
	"encoding/csv"
	"fmt"
	"io"
	"strings"
)

// RowStream reads a decoded daily archive as a header-qualified CSV stream.
// The first line names the columns; every following line is mapped to those
// names positionally. Row order is the upstream emission order: repeated full
// sweeps over the instrument universe, one sweep per sampling instant.
type RowStream struct {
	reader  *csv.Reader
	columns map[string]int
}

// NewRowStream parses the header line and prepares the stream. It fails when
// the text is empty or the header cannot be read.
func NewRowStream(text string) (*RowStream, error) {
	reader := csv.NewReader(strings.NewReader(text))
	// Sweep rows occasionally vary in trailing columns.
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("read csv header: %w", err)
	}

	columns := make(map[string]int, len(header))
	for i, name := range header {
		columns[strings.TrimSpace(name)] = i
	}

	return &RowStream{reader: reader, columns: columns}, nil
}

// HasColumns reports whether every named column is declared in the header.
func (s *RowStream) HasColumns(names ...string) bool {
	for _, name := range names {
		if _, ok := s.columns[name]; !ok {
			return false
		}
	}
	return true
}

// Next returns the next row as a column-name lookup, or io.EOF when the
// stream is exhausted. A short row simply lacks the trailing columns.
func (s *RowStream) Next() (Row, error) {
	record, err := s.reader.Read()
	if err == io.EOF {
		return Row{}, io.EOF
	}
	if err != nil {
		return Row{}, fmt.Errorf("read csv row: %w", err)
	}
	return Row{columns: s.columns, values: record}, nil
}

// Row is one parsed record, addressable by declared column name.
type Row struct {
	columns map[string]int
	values  []string
}

// Field returns the named column's value and whether it is present.
func (r Row) Field(name string) (string, bool) {
	idx, ok := r.columns[name]
	if !ok || idx >= len(r.values) {
		return "", false
	}
	return r.values[idx], true
}
