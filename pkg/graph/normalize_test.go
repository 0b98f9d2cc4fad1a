package graph

import (
	"testing"

	"github.com/athapong/graph-bridge/pkg/table"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalize_RenamesToEdgeSchema(t *testing.T) {
	tbl := table.MustNew(
		[]string{"person1", "connection", "person2"},
		[][]any{{"Alice", "friend", "Bob"}},
	)

	out, err := Normalize(tbl, Columns{Source: "person1", Target: "person2", RelationshipType: "connection"})
	require.NoError(t, err)

	assert.Equal(t, EdgeColumns, out.Columns())
	assert.Equal(t, map[string]any{"Source": "Alice", "Target": "Bob", "RelationshipType": "friend"}, out.Row(0))
}

func TestNormalize_DefaultRelationshipType(t *testing.T) {
	tbl := weightedTable()

	out, err := Normalize(tbl, Columns{Source: "person1", Target: "person2"})
	require.NoError(t, err)
	assert.Equal(t, []any{"connection", "connection", "connection", "connection"}, column(t, out, ColumnRelationshipType))

	out, err = Normalize(tbl, Columns{Source: "person1", Target: "person2", DefaultRelationshipType: "knows"})
	require.NoError(t, err)
	assert.Equal(t, "knows", out.Row(0)[ColumnRelationshipType])
}

func TestNormalize_EmptyDefaultRelationshipTypeIsUnset(t *testing.T) {
	out, err := Normalize(weightedTable(), Columns{Source: "person1", Target: "person2", DefaultRelationshipType: ""})
	require.NoError(t, err)
	assert.Equal(t, DefaultRelationshipType, out.Row(0)[ColumnRelationshipType])
	assert.Equal(t, "connection", DefaultRelationshipType)
}

func TestNormalize_DropsUnreferencedColumns(t *testing.T) {
	out, err := Normalize(weightedTable(), Columns{Source: "team", Target: "weight", RelationshipType: "connection"})
	require.NoError(t, err)

	assert.Equal(t, EdgeColumns, out.Columns())
	assert.Equal(t, 4, out.Len())
	assert.Nil(t, out.Row(2)[ColumnSource])
}

func TestNormalize_SameColumnTwice(t *testing.T) {
	out, err := Normalize(weightedTable(), Columns{Source: "person1", Target: "person1"})
	require.NoError(t, err)
	assert.Equal(t, column(t, out, ColumnSource), column(t, out, ColumnTarget))
}

func TestNormalize_SchemaErrors(t *testing.T) {
	cases := map[string]Columns{
		"unknown source":   {Source: "nope", Target: "person2"},
		"unknown target":   {Source: "person1", Target: "nope"},
		"unknown relation": {Source: "person1", Target: "person2", RelationshipType: "nope"},
	}
	for name, cols := range cases {
		t.Run(name, func(t *testing.T) {
			out, err := Normalize(weightedTable(), cols)
			assert.Nil(t, out)
			assert.True(t, errors.Is(err, ErrConfig))
			assert.True(t, errors.Is(err, table.ErrColumnNotFound))
		})
	}

	_, err := Normalize(weightedTable(), Columns{Target: "person2"})
	assert.True(t, errors.Is(err, ErrMissingColumn))
	assert.True(t, errors.Is(err, ErrConfig))
}

func TestLimit(t *testing.T) {
	tbl := table.MustNew([]string{"n"}, [][]any{{1}, {2}, {3}, {4}, {5}})

	for _, max := range []int{0, 1, 2, 5, 6, 100} {
		out, trunc, err := Limit(tbl, max)
		require.NoError(t, err)

		want := max
		if tbl.Len() < max {
			want = tbl.Len()
		}
		assert.Equal(t, want, out.Len(), "max %d", max)
		assert.Equal(t, tbl.Len() > max, trunc != nil, "max %d", max)
	}
}

func TestLimit_KeepsFirstRows(t *testing.T) {
	tbl := table.MustNew([]string{"n"}, [][]any{{1}, {2}, {3}, {4}, {5}})

	out, trunc, err := Limit(tbl, 2)
	require.NoError(t, err)
	assert.Equal(t, []any{int64(1), int64(2)}, column(t, out, "n"))
	require.NotNil(t, trunc)
	assert.Equal(t, Truncation{From: 5, To: 2}, *trunc)
	assert.Contains(t, trunc.Advisory().Message, "5 to 2")
}

func TestLimit_Negative(t *testing.T) {
	_, _, err := Limit(weightedTable(), -1)
	assert.True(t, errors.Is(err, ErrInvalidLimit))
	assert.True(t, errors.Is(err, ErrConfig))
}
