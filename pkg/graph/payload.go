package graph

import (
	"bytes"
	"encoding/json"
	"math"

	"github.com/athapong/graph-bridge/pkg/table"
	"github.com/pkg/errors"
	"github.com/tidwall/gjson"
)

// Record is one flat row whose keys keep the table's column order when
// encoded. Missing cells encode as null.
type Record struct {
	Columns []string
	Values  []interface{}
}

// Get returns the value of the named field
func (r Record) Get(column string) (interface{}, bool) {
	for i, c := range r.Columns {
		if c == column {
			return r.Values[i], true
		}
	}
	return nil, false
}

// MarshalJSON encodes the record as an object with ordered keys
func (r Record) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, c := range r.Columns {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(c)
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')

		val, err := marshalCell(r.Values[i])
		if err != nil {
			return nil, errors.Wrapf(err, "field %q", c)
		}
		buf.Write(val)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

func marshalCell(v interface{}) ([]byte, error) {
	if table.IsMissing(v) {
		return []byte("null"), nil
	}
	if f, ok := v.(float64); ok && math.IsInf(f, 0) {
		return []byte("null"), nil
	}
	return json.Marshal(v)
}

// Records converts every row of t into a Record, in row order
func Records(t *table.Table) []Record {
	columns := t.Columns()
	out := make([]Record, t.Len())
	for i := range out {
		out[i] = Record{Columns: columns, Values: t.Cells(i)}
	}
	return out
}

// EdgeRecords reads a normalized table as typed edges
func EdgeRecords(t *table.Table) ([]EdgeRecord, error) {
	norm, err := t.Select(EdgeColumns...)
	if err != nil {
		return nil, configErr(errors.Wrap(err, "not a normalized edge table"))
	}
	out := make([]EdgeRecord, norm.Len())
	for i := range out {
		cells := norm.Cells(i)
		out[i] = EdgeRecord{Source: cells[0], Target: cells[1], RelationshipType: cells[2]}
	}
	return out, nil
}

// Serialize encodes t as a compact JSON array of records. The output is
// deterministic for a given table: rows in table order, keys in column order.
func Serialize(t *table.Table) (string, error) {
	records := Records(t)

	var buf bytes.Buffer
	buf.WriteByte('[')
	for i, r := range records {
		if i > 0 {
			buf.WriteByte(',')
		}
		b, err := r.MarshalJSON()
		if err != nil {
			return "", errors.Wrapf(err, "record %d", i)
		}
		buf.Write(b)
	}
	buf.WriteByte(']')
	return buf.String(), nil
}

// DecodePayload parses a serialized payload back into a table. Column order
// is the first-seen key order; keys absent from a record are missing cells.
func DecodePayload(payload string) (*table.Table, error) {
	if !gjson.Valid(payload) {
		return nil, errors.New("payload is not valid JSON")
	}
	root := gjson.Parse(payload)
	if !root.IsArray() {
		return nil, errors.New("payload must be a JSON array")
	}

	var columns []string
	seen := make(map[string]bool)
	var rows []map[string]interface{}
	var err error

	root.ForEach(func(_, elem gjson.Result) bool {
		if !elem.IsObject() {
			err = errors.Errorf("record %d is not an object", len(rows))
			return false
		}
		row := make(map[string]interface{})
		elem.ForEach(func(key, value gjson.Result) bool {
			k := key.String()
			if !seen[k] {
				seen[k] = true
				columns = append(columns, k)
			}
			row[k] = table.JSONValue(value)
			return true
		})
		rows = append(rows, row)
		return true
	})
	if err != nil {
		return nil, err
	}
	return table.FromMaps(columns, rows)
}
