package table

import (
	"strconv"

	"github.com/tidwall/gjson"
)

// JSONValue converts a gjson value into a cell. Integral numbers become
// int64, other numbers float64; nested objects and arrays are kept as their
// raw JSON text.
func JSONValue(v gjson.Result) any {
	switch v.Type {
	case gjson.Null:
		return nil
	case gjson.True:
		return true
	case gjson.False:
		return false
	case gjson.Number:
		if i, err := strconv.ParseInt(v.Raw, 10, 64); err == nil {
			return i
		}
		return v.Num
	case gjson.String:
		return v.Str
	}
	return v.Raw
}
