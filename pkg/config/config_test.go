package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/athapong/graph-bridge/pkg/graph"
	"github.com/athapong/graph-bridge/pkg/graph/delivery"
	"github.com/athapong/graph-bridge/pkg/graph/display"
	"github.com/athapong/graph-bridge/pkg/graph/query"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleJob = `
name: people
input:
  location: data/people.csv
columns:
  source: person1
  target: person2
  relationship_type: connection
filters:
  - column: weight
    operator: ">"
    value: 0.5
  - column: team
    operator: in
    value: [red, blue]
  - column: active
    value: true
max_records: 50
delivery:
  method: js
`

func hasIssue(issues []Issue, sev IssueSeverity, path, msgSubstr string) bool {
	for _, iss := range issues {
		if iss.Severity == sev && iss.Path == path && strings.Contains(iss.Message, msgSubstr) {
			return true
		}
	}
	return false
}

func TestParse_SampleJob(t *testing.T) {
	job, err := Parse([]byte(sampleJob))
	require.NoError(t, err)

	assert.Empty(t, job.Validate())

	opts, err := job.ProcessOptions()
	require.NoError(t, err)
	assert.Equal(t, graph.Columns{Source: "person1", Target: "person2", RelationshipType: "connection"}, opts.Columns)
	require.NotNil(t, opts.MaxRecords)
	assert.Equal(t, 50, *opts.MaxRecords)
	require.Len(t, opts.Filters, 3)
	assert.Equal(t, []string{"weight", "team", "active"}, opts.Filters.Columns())
	assert.Equal(t, graph.Equals{Value: true}, opts.Filters[2].Predicate)
}

func TestLoad_JSONJob(t *testing.T) {
	path := filepath.Join(t.TempDir(), "job.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"input":{"cypher":"MATCH (a)-[r]->(b) RETURN a, type(r) AS rel, b"},"columns":{"source":"a","target":"b","relationship_type":"rel"}}`), 0o644))

	job, err := Load(path)
	require.NoError(t, err)
	assert.Empty(t, job.Validate())
	assert.Equal(t, "rel", job.Columns.RelationshipType)
}

func TestValidate_Errors(t *testing.T) {
	job := &Job{
		Input:      Input{Location: "edges.bin", Cypher: "MATCH (n) RETURN n"},
		Filters:    []query.Filter{{Column: ""}, {Column: "w", Operator: "~=", Value: 1}, {Column: "k", Operator: "in", Value: "a"}},
		MaxRecords: graph.RecordLimit(-1),
		Delivery:   Delivery{AppURL: "localhost", Method: "fax"},
	}

	issues := job.Validate()
	assert.True(t, HasErrors(issues))
	assert.True(t, hasIssue(issues, SeverityError, "input", "mutually exclusive"))
	assert.True(t, hasIssue(issues, SeverityError, "input.format", "cannot be detected"))
	assert.True(t, hasIssue(issues, SeverityError, "columns.source", "must not be empty"))
	assert.True(t, hasIssue(issues, SeverityError, "columns.target", "must not be empty"))
	assert.True(t, hasIssue(issues, SeverityError, "filters[0].column", "must not be empty"))
	assert.True(t, hasIssue(issues, SeverityError, "filters[1]", "unsupported operator"))
	assert.True(t, hasIssue(issues, SeverityError, "filters[2]", "needs a list"))
	assert.True(t, hasIssue(issues, SeverityError, "max_records", "negative"))
	assert.True(t, hasIssue(issues, SeverityError, "delivery.app_url", "absolute URL"))
	assert.True(t, hasIssue(issues, SeverityError, "delivery.method", "unsupported delivery mode"))
}

func TestValidate_Warnings(t *testing.T) {
	off := false
	job := &Job{
		Input:      Input{Location: "https://example.com/export", Format: "csv", DataPath: "items"},
		Columns:    graph.Columns{Source: "a", Target: "b"},
		MaxRecords: graph.RecordLimit(50000),
		Delivery:   Delivery{Method: "live", Display: &off},
	}

	issues := job.Validate()
	assert.False(t, HasErrors(issues))
	assert.True(t, hasIssue(issues, SeverityWarning, "input.data_path", "JSON"))
	assert.True(t, hasIssue(issues, SeverityWarning, "max_records", "live-injection"))
	assert.True(t, hasIssue(issues, SeverityWarning, "delivery.display", "URL delivery"))
}

func TestApplyDefaults(t *testing.T) {
	job, err := Parse([]byte(`{"input":{"location":"a.csv"},"columns":{"source":"a","target":"b"}}`))
	require.NoError(t, err)

	b := DefaultBridge()
	b.AppURL = "http://viewer:9000"
	b.MaxRecords = 25
	job.ApplyDefaults(b)

	require.NotNil(t, job.MaxRecords)
	assert.Equal(t, 25, *job.MaxRecords)
	opts, err := job.DeliverOptions()
	require.NoError(t, err)
	assert.Equal(t, "http://viewer:9000", opts.AppURL)
	assert.Equal(t, delivery.ModeURL, opts.Mode)
	assert.True(t, opts.Display)
}

func TestBridgeFromEnv(t *testing.T) {
	env := map[string]string{
		EnvAppURL:     "http://graph:3000",
		EnvMethod:     "js",
		EnvMaxRecords: "250",
		EnvDisplay:    "off",
		EnvHostLinger: "5s",
		EnvNeo4jURI:   "bolt://localhost:7687",
	}
	b, err := BridgeFromEnv(func(k string) string { return env[k] })
	require.NoError(t, err)

	assert.Equal(t, "http://graph:3000", b.AppURL)
	assert.Equal(t, delivery.ModeLiveInjection, b.Method)
	assert.Equal(t, 250, b.MaxRecords)
	assert.Equal(t, display.PreferenceOff, b.Display)
	assert.Equal(t, 5*time.Second, b.HostLinger)
	assert.True(t, b.Neo4j.Configured())
}

func TestBridgeFromEnv_InvalidValuesKeepDefaults(t *testing.T) {
	env := map[string]string{EnvMethod: "fax", EnvMaxRecords: "-4", EnvHostLinger: "soon"}
	b, err := BridgeFromEnv(func(k string) string { return env[k] })
	require.Error(t, err)

	assert.Equal(t, DefaultBridge(), b)
	assert.Contains(t, err.Error(), EnvMethod)
	assert.Contains(t, err.Error(), EnvMaxRecords)
	assert.Contains(t, err.Error(), EnvHostLinger)
}


func TestApplyDefaults_KeepsExplicitZeroLimit(t *testing.T) {
	job, err := Parse([]byte("input:\n  location: a.csv\ncolumns:\n  source: a\n  target: b\nmax_records: 0\n"))
	require.NoError(t, err)
	require.NotNil(t, job.MaxRecords)

	job.ApplyDefaults(DefaultBridge())
	assert.Empty(t, job.Validate())

	opts, err := job.ProcessOptions()
	require.NoError(t, err)
	require.NotNil(t, opts.MaxRecords)
	assert.Equal(t, 0, *opts.MaxRecords)
}
