package sources

import (
	"bytes"
	"io"
	"strings"

	"github.com/athapong/graph-bridge/pkg/table"
	"github.com/pkg/errors"
	"github.com/segmentio/parquet-go"
)

const parquetBatchSize = 256

// ReadParquet reads a flat Parquet file into a table. Null values become
// missing cells; nested or repeated schemas are rejected.
func ReadParquet(r io.ReaderAt, size int64) (*table.Table, error) {
	f, err := parquet.OpenFile(r, size)
	if err != nil {
		return nil, errors.Wrap(err, "open parquet")
	}

	paths := f.Schema().Columns()
	columns := make([]string, len(paths))
	for i, path := range paths {
		if len(path) != 1 {
			return nil, errors.Errorf("nested parquet column %q is not supported", strings.Join(path, "."))
		}
		columns[i] = path[0]
	}

	var rows [][]any
	buf := make([]parquet.Row, parquetBatchSize)
	for _, rg := range f.RowGroups() {
		if err := readRowGroup(rg, len(columns), buf, &rows); err != nil {
			return nil, err
		}
	}

	return table.New(columns, rows)
}

// ReadParquetBytes is ReadParquet over an in-memory file
func ReadParquetBytes(data []byte) (*table.Table, error) {
	return ReadParquet(bytes.NewReader(data), int64(len(data)))
}

func readRowGroup(rg parquet.RowGroup, width int, buf []parquet.Row, out *[][]any) error {
	rows := rg.Rows()
	defer rows.Close()

	for {
		n, err := rows.ReadRows(buf)
		for _, row := range buf[:n] {
			cells := make([]any, width)
			for _, v := range row {
				c := v.Column()
				if c < 0 || c >= width {
					return errors.Errorf("parquet value for unknown column %d", c)
				}
				cells[c] = parquetValue(v)
			}
			*out = append(*out, cells)
		}
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return errors.Wrap(err, "read parquet rows")
		}
	}
}

func parquetValue(v parquet.Value) any {
	if v.IsNull() {
		return nil
	}
	switch v.Kind() {
	case parquet.Boolean:
		return v.Boolean()
	case parquet.Int32:
		return int64(v.Int32())
	case parquet.Int64:
		return v.Int64()
	case parquet.Float:
		return float64(v.Float())
	case parquet.Double:
		return v.Double()
	case parquet.ByteArray, parquet.FixedLenByteArray:
		return string(v.ByteArray())
	}
	return v.String()
}
