package query

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/athapong/graph-bridge/pkg/graph"
	"github.com/athapong/graph-bridge/pkg/table"
	"github.com/pkg/errors"
)

// Filter is one filter condition in list form
type Filter struct {
	Column   string      `json:"column" yaml:"column"`
	Operator string      `json:"operator,omitempty" yaml:"operator,omitempty"`
	Value    interface{} `json:"value" yaml:"value"`
}

// Condition compiles the filter. An empty operator means equality.
func (f Filter) Condition() (graph.Condition, error) {
	op := f.Operator
	if op == "" {
		op = string(graph.OpEq)
	}
	return graph.NewCondition(f.Column, op, f.Value)
}

// Query describes a filtered-subset request
type Query struct {
	Columns graph.Columns `json:"columns"`
	Filters []Filter      `json:"filters"`
	Limit   *int          `json:"limit,omitempty"`
}

// New starts a query mapping source and target columns
func New(source, target string) *Query {
	return &Query{
		Columns: graph.Columns{Source: source, Target: target},
		Filters: make([]Filter, 0),
	}
}

// RelationshipType names the relationship type column
func (q *Query) RelationshipType(column string) *Query {
	q.Columns.RelationshipType = column
	return q
}

// DefaultRelationshipType sets the value used when no relationship column is named
func (q *Query) DefaultRelationshipType(value string) *Query {
	q.Columns.DefaultRelationshipType = value
	return q
}

// Where adds a condition
func (q *Query) Where(column, operator string, value interface{}) *Query {
	q.Filters = append(q.Filters, Filter{Column: column, Operator: operator, Value: value})
	return q
}

// AddFilter adds a condition in list form
func (q *Query) AddFilter(filter Filter) *Query {
	q.Filters = append(q.Filters, filter)
	return q
}

// SetLimit bounds the number of edges; zero is honoured
func (q *Query) SetLimit(limit int) *Query {
	q.Limit = graph.RecordLimit(limit)
	return q
}

// Compile turns the query into pipeline options
func (q *Query) Compile() (graph.ProcessOptions, error) {
	spec, err := Compile(q.Filters)
	if err != nil {
		return graph.ProcessOptions{}, err
	}
	return graph.ProcessOptions{
		Columns:    q.Columns,
		Filters:    spec,
		MaxRecords: q.Limit,
	}, nil
}

// Compile converts list-form filters into a spec, keeping their order
func Compile(filters []Filter) (graph.Spec, error) {
	spec := make(graph.Spec, 0, len(filters))
	for i, f := range filters {
		c, err := f.Condition()
		if err != nil {
			return nil, errors.Wrapf(err, "filter %d", i)
		}
		spec = append(spec, c)
	}
	return spec, nil
}

func (q *Query) String() string {
	bytes, _ := json.MarshalIndent(q, "", "  ")
	return fmt.Sprintf("%s", bytes)
}

// Expression operators, longest first so ">=" is not read as ">"
var expressionOperators = []string{" not in ", " in ", ">=", "<=", "!=", "==", ">", "<", "="}

// ParseWhere reads a one-line condition such as "weight>0.5",
// "kind in a,b" or "team != red". Values are typed like CSV cells; the
// operand of in and not in is a comma separated list.
func ParseWhere(expr string) (Filter, error) {
	for _, op := range expressionOperators {
		idx := strings.Index(expr, op)
		if idx <= 0 {
			continue
		}
		column := strings.TrimSpace(expr[:idx])
		raw := strings.TrimSpace(expr[idx+len(op):])
		op = strings.TrimSpace(op)

		if op == "in" || op == "not in" {
			var values []interface{}
			for _, part := range strings.Split(raw, ",") {
				values = append(values, table.InferValue(part))
			}
			return Filter{Column: column, Operator: op, Value: values}, nil
		}
		return Filter{Column: column, Operator: op, Value: table.InferValue(raw)}, nil
	}
	return Filter{}, graph.ConfigError(errors.Wrapf(graph.ErrInvalidCondition, "cannot parse condition %q", expr))
}
