package table

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

// ErrIncomparable is returned when two cell values have no ordering between them
var ErrIncomparable = errors.New("values are not comparable")

// Normalize converts a Go value into one of the cell kinds a table holds:
// nil (missing), float64, int64, string or bool. NaN becomes missing and
// anything that is not a scalar is rendered as text.
func Normalize(v any) any {
	switch n := v.(type) {
	case nil:
		return nil
	case string, bool, int64:
		return n
	case float64:
		if math.IsNaN(n) {
			return nil
		}
		return n
	case float32:
		if math.IsNaN(float64(n)) {
			return nil
		}
		return float64(n)
	case int:
		return int64(n)
	case int8:
		return int64(n)
	case int16:
		return int64(n)
	case int32:
		return int64(n)
	case uint:
		return int64(n)
	case uint8:
		return int64(n)
	case uint16:
		return int64(n)
	case uint32:
		return int64(n)
	case uint64:
		if n > math.MaxInt64 {
			return float64(n)
		}
		return int64(n)
	case json.Number:
		if i, err := n.Int64(); err == nil {
			return i
		}
		if f, err := n.Float64(); err == nil {
			return f
		}
		return n.String()
	case []byte:
		return string(n)
	}
	return fmt.Sprint(v)
}

// InferValue parses a raw text cell the way delimited sources are read:
// empty is missing, then number, then bool, otherwise the trimmed string.
func InferValue(s string) any {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	if i, err := strconv.ParseInt(s, 10, 64); err == nil {
		return i
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		if math.IsNaN(f) {
			return nil
		}
		return f
	}
	switch strings.ToLower(s) {
	case "true":
		return true
	case "false":
		return false
	}
	return s
}

// IsMissing reports whether v represents a missing cell
func IsMissing(v any) bool {
	if v == nil {
		return true
	}
	if f, ok := v.(float64); ok && math.IsNaN(f) {
		return true
	}
	return false
}

func asFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case int64:
		return float64(n), true
	}
	return 0, false
}

// Equal reports whether two normalized cell values are equal. Numbers are
// compared by value regardless of integer or float representation; values of
// different kinds are never equal. Missing equals missing.
func Equal(a, b any) bool {
	a, b = Normalize(a), Normalize(b)
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	if fa, ok := asFloat(a); ok {
		fb, ok := asFloat(b)
		return ok && fa == fb
	}
	return a == b
}

// CompareValues orders two cell values, returning -1, 0 or 1. Missing values
// and values of different kinds have no order and yield ErrIncomparable.
func CompareValues(a, b any) (int, error) {
	a, b = Normalize(a), Normalize(b)
	if a == nil || b == nil {
		return 0, errors.Wrapf(ErrIncomparable, "missing value in ordered comparison (%v, %v)", a, b)
	}

	if fa, ok := asFloat(a); ok {
		fb, ok := asFloat(b)
		if !ok {
			return 0, errors.Wrapf(ErrIncomparable, "%T and %T", a, b)
		}
		switch {
		case fa < fb:
			return -1, nil
		case fa > fb:
			return 1, nil
		}
		return 0, nil
	}

	switch x := a.(type) {
	case string:
		y, ok := b.(string)
		if !ok {
			return 0, errors.Wrapf(ErrIncomparable, "%T and %T", a, b)
		}
		return strings.Compare(x, y), nil
	case bool:
		y, ok := b.(bool)
		if !ok {
			return 0, errors.Wrapf(ErrIncomparable, "%T and %T", a, b)
		}
		switch {
		case x == y:
			return 0, nil
		case !x:
			return -1, nil
		}
		return 1, nil
	}
	return 0, errors.Wrapf(ErrIncomparable, "unsupported kind %T", a)
}

// Key returns a comparable representation of v suitable for set membership.
// Integers and floats with the same value share a key.
func Key(v any) any {
	v = Normalize(v)
	if i, ok := v.(int64); ok {
		return float64(i)
	}
	return v
}
