package graph

import (
	"testing"

	"github.com/athapong/graph-bridge/pkg/table"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func weightedTable() *table.Table {
	return table.MustNew(
		[]string{"person1", "connection", "person2", "weight", "team"},
		[][]any{
			{"Alice", "friend", "Bob", 0.2, "red"},
			{"Bob", "colleague", "Charlie", 0.6, "blue"},
			{"Charlie", "family", "Diana", 0.9, nil},
			{"Diana", "friend", "Alice", 1, "red"},
		},
	)
}

func mustSpec(t *testing.T, js string) Spec {
	t.Helper()
	spec, err := ParseSpec([]byte(js))
	require.NoError(t, err)
	return spec
}

func column(t *testing.T, tbl *table.Table, name string) []any {
	t.Helper()
	values, err := tbl.Column(name)
	require.NoError(t, err)
	return values
}

func TestFilter_GreaterThan(t *testing.T) {
	tbl := table.MustNew([]string{"weight"}, [][]any{{0.2}, {0.6}, {0.9}})

	out, err := Filter(tbl, mustSpec(t, `{"weight": {"operator": ">", "value": 0.5}}`))
	require.NoError(t, err)

	assert.Equal(t, []any{0.6, 0.9}, column(t, out, "weight"))
	assert.Equal(t, 3, tbl.Len(), "input table must not change")
}

func TestFilter_BareValueIsEquality(t *testing.T) {
	out, err := Filter(weightedTable(), mustSpec(t, `{"connection": "friend"}`))
	require.NoError(t, err)

	assert.Equal(t, []any{"Alice", "Diana"}, column(t, out, "person1"))
}

func TestFilter_ConditionsAreConjunctive(t *testing.T) {
	out, err := Filter(weightedTable(), mustSpec(t, `{"connection": "friend", "weight": {"operator": ">=", "value": 1}}`))
	require.NoError(t, err)

	assert.Equal(t, []any{"Diana"}, column(t, out, "person1"))
}

func TestFilter_Operators(t *testing.T) {
	cases := []struct {
		name string
		spec string
		want []any
	}{
		{"lt", `{"weight": {"operator": "<", "value": 0.6}}`, []any{"Alice"}},
		{"lte", `{"weight": {"operator": "<=", "value": 0.6}}`, []any{"Alice", "Bob"}},
		{"gte int operand", `{"weight": {"operator": "gte", "value": 1}}`, []any{"Diana"}},
		{"neq keeps missing", `{"team": {"operator": "!=", "value": "red"}}`, []any{"Bob", "Charlie"}},
		{"in", `{"person2": {"operator": "in", "value": ["Bob", "Diana"]}}`, []any{"Alice", "Charlie"}},
		{"not in", `{"person2": {"operator": "not in", "value": ["Bob", "Diana"]}}`, []any{"Bob", "Diana"}},
		{"ordered skips missing", `{"team": {"operator": ">", "value": "a"}}`, []any{"Alice", "Bob", "Diana"}},
		{"eq null matches missing", `{"team": null}`, []any{"Charlie"}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			spec := mustSpec(t, tc.spec)
			out, err := Filter(weightedTable(), spec)
			require.NoError(t, err)
			assert.Equal(t, tc.want, column(t, out, "person1"))

			// every surviving row satisfies every condition
			for _, c := range spec {
				for _, v := range column(t, out, c.Column) {
					ok, err := c.Match(v)
					require.NoError(t, err)
					assert.True(t, ok, "%s on %v", c, v)
				}
			}
		})
	}
}

func TestFilter_MembershipMatchesAcrossNumericKinds(t *testing.T) {
	cond, err := NewCondition("weight", "in", []int{1, 2})
	require.NoError(t, err)

	out, err := Filter(weightedTable(), Spec{cond})
	require.NoError(t, err)
	assert.Equal(t, []any{"Diana"}, column(t, out, "person1"))
}

func TestFilter_UnsupportedOperator(t *testing.T) {
	_, err := ParseSpec([]byte(`{"weight": {"operator": "~=", "value": 0.5}}`))
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrConfig))
	assert.True(t, errors.Is(err, ErrUnsupportedOperator))
}

func TestFilter_MissingColumnIsConfigError(t *testing.T) {
	out, err := Filter(weightedTable(), Spec{{Column: "age", Predicate: Equals{Value: int64(3)}}})
	assert.Nil(t, out)
	assert.True(t, errors.Is(err, ErrConfig))
	assert.True(t, errors.Is(err, table.ErrColumnNotFound))
}

func TestFilter_IncomparableKindsSurface(t *testing.T) {
	out, err := Filter(weightedTable(), mustSpec(t, `{"person1": {"operator": ">", "value": 3}}`))
	assert.Nil(t, out)
	assert.True(t, errors.Is(err, table.ErrIncomparable))
	assert.False(t, errors.Is(err, ErrConfig))
}

func TestFilter_EmptySpecKeepsEverything(t *testing.T) {
	out, err := Filter(weightedTable(), nil)
	require.NoError(t, err)
	assert.Equal(t, 4, out.Len())
}

func TestParseSpec_KeepsDocumentOrder(t *testing.T) {
	spec := mustSpec(t, `{"weight": {"operator": "lt", "value": 1}, "connection": "friend", "team": {"operator": "in", "value": ["red"]}}`)

	assert.Equal(t, []string{"weight", "connection", "team"}, spec.Columns())
	assert.IsType(t, Compare{}, spec[0].Predicate)
	assert.IsType(t, Equals{}, spec[1].Predicate)
	assert.IsType(t, Membership{}, spec[2].Predicate)
}

func TestParseSpec_ListForm(t *testing.T) {
	spec := mustSpec(t, `[{"column": "weight", "operator": "gt", "value": 0.5}, {"column": "connection", "value": "friend"}]`)

	require.Len(t, spec, 2)
	assert.Equal(t, Compare{Op: OpGt, Value: 0.5}, spec[0].Predicate)
	assert.Equal(t, Equals{Value: "friend"}, spec[1].Predicate)
}

func TestParseSpec_Invalid(t *testing.T) {
	cases := map[string]string{
		"object without operator": `{"weight": {"value": 1}}`,
		"list without in":         `{"weight": [1, 2]}`,
		"in needs list":           `{"weight": {"operator": "in", "value": 1}}`,
		"gt needs value":          `{"weight": {"operator": "gt"}}`,
		"scalar root":             `42`,
		"broken json":             `{"weight":`,
		"list entry not object":   `[1]`,
		"list entry no column":    `[{"operator": "eq", "value": 1}]`,
	}
	for name, js := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := ParseSpec([]byte(js))
			assert.True(t, errors.Is(err, ErrConfig), "%v", err)
		})
	}
}

func TestParseSpec_EmptyInput(t *testing.T) {
	for _, js := range []string{"", "  ", "null"} {
		spec, err := ParseSpec([]byte(js))
		require.NoError(t, err)
		assert.Empty(t, spec)
	}
}

func TestParseOperator_Aliases(t *testing.T) {
	for in, want := range map[string]Operator{
		"==": OpEq, ">": OpGt, ">=": OpGte, "<": OpLt, "<=": OpLte,
		"!=": OpNeq, "IN": OpIn, "not in": OpNotIn, "not_in": OpNotIn,
	} {
		got, err := ParseOperator(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}
}
