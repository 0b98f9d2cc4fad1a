package graph

import (
	"github.com/athapong/graph-bridge/pkg/table"
	"github.com/pkg/errors"
)

// Columns maps caller columns onto the edge schema. RelationshipType is
// optional; when empty every edge gets DefaultRelationshipType. An empty
// DefaultRelationshipType means unset and falls back to the package default
// "connection", so an empty relationship type cannot be requested this way.
type Columns struct {
	Source                  string `json:"source" yaml:"source"`
	Target                  string `json:"target" yaml:"target"`
	RelationshipType        string `json:"relationship_type,omitempty" yaml:"relationship_type,omitempty"`
	DefaultRelationshipType string `json:"default_relationship_type,omitempty" yaml:"default_relationship_type,omitempty"`
}

// Referenced lists the input columns the mapping reads
func (c Columns) Referenced() []string {
	cols := []string{c.Source, c.Target}
	if c.RelationshipType != "" {
		cols = append(cols, c.RelationshipType)
	}
	return cols
}

func (c Columns) defaultType() string {
	if c.DefaultRelationshipType == "" {
		return DefaultRelationshipType
	}
	return c.DefaultRelationshipType
}

// Normalize projects t onto exactly the Source, Target and RelationshipType
// columns. Unreferenced columns are dropped. A column may be referenced more
// than once, e.g. a self-loop mapping with the same source and target.
func Normalize(t *table.Table, cols Columns) (*table.Table, error) {
	if cols.Source == "" {
		return nil, configErr(errors.Wrap(ErrMissingColumn, "source"))
	}
	if cols.Target == "" {
		return nil, configErr(errors.Wrap(ErrMissingColumn, "target"))
	}

	sources, err := t.Column(cols.Source)
	if err != nil {
		return nil, configErr(errors.Wrap(err, "source column"))
	}
	targets, err := t.Column(cols.Target)
	if err != nil {
		return nil, configErr(errors.Wrap(err, "target column"))
	}

	var types []interface{}
	if cols.RelationshipType != "" {
		types, err = t.Column(cols.RelationshipType)
		if err != nil {
			return nil, configErr(errors.Wrap(err, "relationship type column"))
		}
	}

	fallback := cols.defaultType()
	rows := make([][]interface{}, t.Len())
	for i := range rows {
		var rel interface{} = fallback
		if types != nil {
			rel = types[i]
		}
		rows[i] = []interface{}{sources[i], targets[i], rel}
	}
	return table.New(EdgeColumns, rows)
}
