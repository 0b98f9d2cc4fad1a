package graph

import (
	"fmt"
	"reflect"
	"strings"

	"github.com/athapong/graph-bridge/pkg/table"
	mapset "github.com/deckarep/golang-set/v2"
	"github.com/pkg/errors"
	"github.com/tidwall/gjson"
)

// Operator names a filter comparison
type Operator string

const (
	OpEq    Operator = "eq"
	OpGt    Operator = "gt"
	OpGte   Operator = "gte"
	OpLt    Operator = "lt"
	OpLte   Operator = "lte"
	OpNeq   Operator = "neq"
	OpIn    Operator = "in"
	OpNotIn Operator = "not-in"
)

var operatorAliases = map[string]Operator{
	"==":     OpEq,
	"=":      OpEq,
	"eq":     OpEq,
	">":      OpGt,
	"gt":     OpGt,
	">=":     OpGte,
	"gte":    OpGte,
	"<":      OpLt,
	"lt":     OpLt,
	"<=":     OpLte,
	"lte":    OpLte,
	"!=":     OpNeq,
	"neq":    OpNeq,
	"in":     OpIn,
	"not in": OpNotIn,
	"not-in": OpNotIn,
	"not_in": OpNotIn,
}

// ParseOperator resolves an operator spelling such as ">" or "not in"
func ParseOperator(s string) (Operator, error) {
	op, ok := operatorAliases[strings.ToLower(strings.TrimSpace(s))]
	if !ok {
		return "", configErr(errors.Wrapf(ErrUnsupportedOperator, "%q", s))
	}
	return op, nil
}

// Predicate is a condition on a single cell. It is one of Equals, Compare
// or Membership.
type Predicate interface {
	isPredicate()
	fmt.Stringer
}

// Equals matches cells equal to Value. A nil Value matches missing cells.
type Equals struct {
	Value interface{}
}

// Compare matches cells ordered against Value by Op, one of gt, gte, lt,
// lte or neq. Missing cells never satisfy an ordered comparison and always
// satisfy neq against a present value.
type Compare struct {
	Op    Operator
	Value interface{}
}

// Membership matches cells whose value is in Set, or not in it when Negated
type Membership struct {
	Set     mapset.Set[interface{}]
	Negated bool
}

func (Equals) isPredicate()     {}
func (Compare) isPredicate()    {}
func (Membership) isPredicate() {}

func (p Equals) String() string  { return fmt.Sprintf("eq %v", p.Value) }
func (p Compare) String() string { return fmt.Sprintf("%s %v", p.Op, p.Value) }
func (p Membership) String() string {
	op := OpIn
	if p.Negated {
		op = OpNotIn
	}
	return fmt.Sprintf("%s %v", op, p.Set.ToSlice())
}

// NewMembership builds a membership predicate from operand values
func NewMembership(values []interface{}, negated bool) Membership {
	set := mapset.NewThreadUnsafeSet[interface{}]()
	for _, v := range values {
		set.Add(table.Key(v))
	}
	return Membership{Set: set, Negated: negated}
}

// NewPredicate builds the predicate for op applied to operand
func NewPredicate(op Operator, operand interface{}) (Predicate, error) {
	switch op {
	case OpEq:
		return Equals{Value: table.Normalize(operand)}, nil
	case OpNeq:
		return Compare{Op: op, Value: table.Normalize(operand)}, nil
	case OpGt, OpGte, OpLt, OpLte:
		v := table.Normalize(operand)
		if table.IsMissing(v) {
			return nil, configErr(errors.Wrapf(ErrInvalidCondition, "operator %s needs a value", op))
		}
		return Compare{Op: op, Value: v}, nil
	case OpIn, OpNotIn:
		values, ok := listOperand(operand)
		if !ok {
			return nil, configErr(errors.Wrapf(ErrInvalidCondition, "operator %s needs a list, got %T", op, operand))
		}
		return NewMembership(values, op == OpNotIn), nil
	}
	return nil, configErr(errors.Wrapf(ErrUnsupportedOperator, "%q", op))
}

func listOperand(v interface{}) ([]interface{}, bool) {
	if list, ok := v.([]interface{}); ok {
		return list, true
	}
	rv := reflect.ValueOf(v)
	if !rv.IsValid() || (rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array) {
		return nil, false
	}
	out := make([]interface{}, rv.Len())
	for i := range out {
		out[i] = rv.Index(i).Interface()
	}
	return out, true
}

// Condition applies a predicate to one column
type Condition struct {
	Column    string
	Predicate Predicate
}

// NewCondition builds a condition from an operator spelling
func NewCondition(column, operator string, operand interface{}) (Condition, error) {
	if column == "" {
		return Condition{}, configErr(errors.Wrap(ErrInvalidCondition, "empty column name"))
	}
	op, err := ParseOperator(operator)
	if err != nil {
		return Condition{}, errors.Wrapf(err, "filter on %q", column)
	}
	pred, err := NewPredicate(op, operand)
	if err != nil {
		return Condition{}, errors.Wrapf(err, "filter on %q", column)
	}
	return Condition{Column: column, Predicate: pred}, nil
}

func (c Condition) String() string {
	return fmt.Sprintf("%s %s", c.Column, c.Predicate)
}

// Match reports whether cell satisfies the condition
func (c Condition) Match(cell interface{}) (bool, error) {
	switch p := c.Predicate.(type) {
	case Equals:
		return table.Equal(cell, p.Value), nil
	case Compare:
		if p.Op == OpNeq {
			return !table.Equal(cell, p.Value), nil
		}
		if table.IsMissing(cell) {
			return false, nil
		}
		cmp, err := table.CompareValues(cell, p.Value)
		if err != nil {
			return false, errors.Wrapf(err, "%s", p)
		}
		switch p.Op {
		case OpGt:
			return cmp > 0, nil
		case OpGte:
			return cmp >= 0, nil
		case OpLt:
			return cmp < 0, nil
		case OpLte:
			return cmp <= 0, nil
		}
		return false, configErr(errors.Wrapf(ErrUnsupportedOperator, "%q", p.Op))
	case Membership:
		if p.Set == nil {
			return p.Negated, nil
		}
		return p.Set.Contains(table.Key(cell)) != p.Negated, nil
	}
	return false, configErr(errors.Wrapf(ErrInvalidCondition, "column %q has no predicate", c.Column))
}

// Spec is an ordered conjunction of conditions
type Spec []Condition

// Columns lists the columns the spec references, in order and without repeats
func (s Spec) Columns() []string {
	seen := mapset.NewThreadUnsafeSet[string]()
	var out []string
	for _, c := range s {
		if seen.Add(c.Column) {
			out = append(out, c.Column)
		}
	}
	return out
}

// Filter returns the rows of t satisfying every condition of spec, in their
// original order. Configuration errors are reported before any row is
// evaluated; no partial table is ever returned.
func Filter(t *table.Table, spec Spec) (*table.Table, error) {
	for _, c := range spec {
		if c.Predicate == nil {
			return nil, configErr(errors.Wrapf(ErrInvalidCondition, "column %q has no predicate", c.Column))
		}
		if !t.HasColumn(c.Column) {
			return nil, configErr(errors.Wrapf(table.ErrColumnNotFound, "filter column %q", c.Column))
		}
	}

	out := t
	for _, c := range spec {
		next, err := out.Where(c.Column, c.Match)
		if err != nil {
			return nil, errors.Wrapf(err, "filter %s", c)
		}
		out = next
	}
	return out, nil
}

// ParseSpec reads a filter specification from JSON. Two shapes are accepted:
// an object mapping column to a bare value (equality) or to
// {"operator": ..., "value": ...}, and a list of
// {"column": ..., "operator": ..., "value": ...}. Condition order follows the
// document. Empty input and null yield an empty spec.
func ParseSpec(data []byte) (Spec, error) {
	if len(strings.TrimSpace(string(data))) == 0 {
		return nil, nil
	}
	if !gjson.ValidBytes(data) {
		return nil, configErr(errors.Wrap(ErrInvalidCondition, "filter spec is not valid JSON"))
	}

	root := gjson.ParseBytes(data)
	var spec Spec
	var err error

	switch {
	case root.Type == gjson.Null:
		return nil, nil
	case root.IsObject():
		root.ForEach(func(key, value gjson.Result) bool {
			var c Condition
			c, err = conditionFromJSON(key.String(), value)
			spec = append(spec, c)
			return err == nil
		})
	case root.IsArray():
		root.ForEach(func(_, entry gjson.Result) bool {
			if !entry.IsObject() {
				err = configErr(errors.Wrapf(ErrInvalidCondition, "list entry %s is not an object", entry.Raw))
				return false
			}
			var c Condition
			c, err = NewCondition(
				entry.Get("column").String(),
				operatorOrEq(entry.Get("operator")),
				jsonValue(entry.Get("value")),
			)
			spec = append(spec, c)
			return err == nil
		})
	default:
		return nil, configErr(errors.Wrap(ErrInvalidCondition, "filter spec must be an object or a list"))
	}

	if err != nil {
		return nil, err
	}
	return spec, nil
}

func conditionFromJSON(column string, value gjson.Result) (Condition, error) {
	if value.IsObject() {
		op := value.Get("operator")
		if !op.Exists() {
			return Condition{}, configErr(errors.Wrapf(ErrInvalidCondition, "filter on %q: object operand needs an operator", column))
		}
		return NewCondition(column, op.String(), jsonValue(value.Get("value")))
	}
	if value.IsArray() {
		return Condition{}, configErr(errors.Wrapf(ErrInvalidCondition, "filter on %q: use the in operator for lists", column))
	}
	return NewCondition(column, string(OpEq), jsonValue(value))
}

func operatorOrEq(op gjson.Result) string {
	if !op.Exists() {
		return string(OpEq)
	}
	return op.String()
}

// jsonValue converts a filter operand. Arrays become lists for the
// membership operators; everything else is a table cell.
func jsonValue(v gjson.Result) interface{} {
	if !v.IsArray() {
		return table.JSONValue(v)
	}
	out := []interface{}{}
	v.ForEach(func(_, elem gjson.Result) bool {
		out = append(out, jsonValue(elem))
		return true
	})
	return out
}
