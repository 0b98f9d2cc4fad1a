package sources

import (
	"github.com/athapong/graph-bridge/pkg/table"
	"github.com/pkg/errors"
	"github.com/tidwall/gjson"
)

// ReadJSON reads an array of flat objects into a table. Column order is the
// order in which keys are first seen; keys absent from an object are missing
// cells. dataPath optionally selects a nested array (gjson path, e.g.
// "data.items").
func ReadJSON(data []byte, dataPath string) (*table.Table, error) {
	if !gjson.ValidBytes(data) {
		return nil, errors.New("parse json: invalid document")
	}

	root := gjson.ParseBytes(data)
	if dataPath != "" {
		root = root.Get(dataPath)
		if !root.Exists() {
			return nil, errors.Errorf("invalid data path: %q not found", dataPath)
		}
	}
	if !root.IsArray() {
		return nil, errors.New("json input must be an array of objects")
	}

	var columns []string
	seen := make(map[string]bool)
	var rows []map[string]any
	var rowErr error

	root.ForEach(func(_, elem gjson.Result) bool {
		if !elem.IsObject() {
			rowErr = errors.Errorf("row %d is not an object", len(rows))
			return false
		}
		row := make(map[string]any)
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
	if rowErr != nil {
		return nil, rowErr
	}

	return table.FromMaps(columns, rows)
}
