package sources

import (
	"context"
	"fmt"

	"github.com/athapong/graph-bridge/pkg/table"
	"github.com/neo4j/neo4j-go-driver/v4/neo4j"
	"github.com/pkg/errors"
)

// Neo4jSource runs read-only Cypher queries and exposes the result rows as a
// table whose columns are the query's return keys.
type Neo4jSource struct {
	driver   neo4j.Driver
	database string
}

// NewNeo4jSource creates a Neo4j-backed table source
func NewNeo4jSource(uri, username, password, database string) (*Neo4jSource, error) {
	auth := neo4j.BasicAuth(username, password, "")
	driver, err := neo4j.NewDriver(uri, auth)
	if err != nil {
		return nil, errors.Wrap(err, "failed to create Neo4j driver")
	}
	return &Neo4jSource{driver: driver, database: database}, nil
}

// Close releases the driver
func (s *Neo4jSource) Close() error {
	if s.driver != nil {
		return s.driver.Close()
	}
	return nil
}

// Query runs cypher in a read session and collects every record
func (s *Neo4jSource) Query(ctx context.Context, cypher string, params map[string]interface{}) (*table.Table, error) {
	session := s.driver.NewSession(neo4j.SessionConfig{
		AccessMode:   neo4j.AccessModeRead,
		DatabaseName: s.database,
	})
	defer session.Close()

	result, err := session.Run(cypher, params)
	if err != nil {
		return nil, errors.Wrap(err, "run cypher")
	}

	keys, err := result.Keys()
	if err != nil {
		return nil, errors.Wrap(err, "read result keys")
	}

	var rows [][]interface{}
	for result.Next() {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		rows = append(rows, result.Record().Values)
	}
	if err := result.Err(); err != nil {
		return nil, errors.Wrap(err, "iterate cypher result")
	}

	return recordsToTable(keys, rows)
}

func recordsToTable(keys []string, values [][]interface{}) (*table.Table, error) {
	rows := make([][]any, len(values))
	for i, vals := range values {
		cells := make([]any, len(vals))
		for j, v := range vals {
			cells[j] = neo4jCell(v)
		}
		rows[i] = cells
	}
	return table.New(keys, rows)
}

// neo4jCell flattens graph values into scalars. Nodes are shown by their
// name, label or id property; relationships by their type.
func neo4jCell(v interface{}) any {
	switch n := v.(type) {
	case neo4j.Node:
		for _, key := range []string{"name", "label", "id"} {
			if p, ok := n.Props[key]; ok {
				return table.Normalize(p)
			}
		}
		return fmt.Sprintf("node:%d", n.Id)
	case neo4j.Relationship:
		return n.Type
	}
	return table.Normalize(v)
}
