package graph

import (
	"fmt"

	"github.com/athapong/graph-bridge/pkg/table"
	mapset "github.com/deckarep/golang-set/v2"
)

// Summary counts what a normalized table will show in the viewer
type Summary struct {
	Edges             int            `json:"edges"`
	Nodes             int            `json:"nodes"`
	RelationshipTypes map[string]int `json:"relationship_types"`
}

// Summarize counts edges, distinct endpoint values and edges per
// relationship type. Missing endpoints are not counted as nodes.
func Summarize(t *table.Table) (Summary, error) {
	edges, err := EdgeRecords(t)
	if err != nil {
		return Summary{}, err
	}

	nodes := mapset.NewThreadUnsafeSet[interface{}]()
	summary := Summary{
		Edges:             len(edges),
		RelationshipTypes: make(map[string]int),
	}
	for _, e := range edges {
		for _, endpoint := range []interface{}{e.Source, e.Target} {
			if !table.IsMissing(endpoint) {
				nodes.Add(table.Key(endpoint))
			}
		}
		summary.RelationshipTypes[relationshipLabel(e.RelationshipType)]++
	}
	summary.Nodes = nodes.Cardinality()
	return summary, nil
}

func relationshipLabel(v interface{}) string {
	if table.IsMissing(v) {
		return ""
	}
	return fmt.Sprint(v)
}
