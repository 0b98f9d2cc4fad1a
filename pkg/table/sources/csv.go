package sources

import (
	"encoding/csv"
	"io"
	"strings"

	"github.com/athapong/graph-bridge/pkg/table"
	"github.com/pkg/errors"
)

// ReadCSV reads a delimited table. The first record is the header; cells are
// typed with table.InferValue so blank cells become missing.
func ReadCSV(r io.Reader, delimiter rune) (*table.Table, error) {
	reader := csv.NewReader(r)
	if delimiter != 0 {
		reader.Comma = delimiter
	}
	reader.LazyQuotes = true
	reader.TrimLeadingSpace = true
	reader.FieldsPerRecord = -1

	records, err := reader.ReadAll()
	if err != nil {
		return nil, errors.Wrap(err, "parse csv")
	}
	if len(records) == 0 {
		return nil, errors.New("empty csv input")
	}

	header := make([]string, len(records[0]))
	for i, h := range records[0] {
		header[i] = strings.TrimSpace(strings.TrimPrefix(h, "\ufeff"))
	}

	rows := make([][]any, 0, len(records)-1)
	for _, rec := range records[1:] {
		cells := make([]any, len(header))
		for j := range header {
			if j < len(rec) {
				cells[j] = table.InferValue(rec[j])
			}
		}
		rows = append(rows, cells)
	}

	return table.New(header, rows)
}
