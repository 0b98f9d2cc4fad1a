package config

import (
	"os"
	"strings"

	"github.com/athapong/graph-bridge/pkg/explorer"
	"github.com/athapong/graph-bridge/pkg/graph"
	"github.com/athapong/graph-bridge/pkg/graph/delivery"
	"github.com/athapong/graph-bridge/pkg/graph/query"
	"github.com/athapong/graph-bridge/pkg/table/sources"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// Input says where the table comes from: a file or URL, or a Cypher query
type Input struct {
	Location string                 `yaml:"location,omitempty" json:"location,omitempty"`
	Format   string                 `yaml:"format,omitempty" json:"format,omitempty"`
	DataPath string                 `yaml:"data_path,omitempty" json:"data_path,omitempty"`
	Cypher   string                 `yaml:"cypher,omitempty" json:"cypher,omitempty"`
	Params   map[string]interface{} `yaml:"params,omitempty" json:"params,omitempty"`
}

// SourceOptions returns the loader options for the input
func (in Input) SourceOptions() sources.Options {
	return sources.Options{Format: sources.Format(strings.ToLower(in.Format)), DataPath: in.DataPath}
}

// Delivery configures how the result reaches the viewer
type Delivery struct {
	AppURL string `yaml:"app_url,omitempty" json:"app_url,omitempty"`
	Method string `yaml:"method,omitempty" json:"method,omitempty"`
	// Display defaults to true; false keeps live injection from running
	Display *bool `yaml:"display,omitempty" json:"display,omitempty"`
}

// Job is one graph export described in a YAML (or JSON) file
type Job struct {
	Name       string         `yaml:"name,omitempty" json:"name,omitempty"`
	Input      Input          `yaml:"input" json:"input"`
	Columns    graph.Columns  `yaml:"columns" json:"columns"`
	Filters    []query.Filter `yaml:"filters,omitempty" json:"filters,omitempty"`
	// MaxRecords is unset when nil; an explicit 0 asks for no edges
	MaxRecords *int           `yaml:"max_records,omitempty" json:"max_records,omitempty"`
	Delivery   Delivery       `yaml:"delivery,omitempty" json:"delivery,omitempty"`
	// Output, when set, receives the processed records as JSON
	Output string `yaml:"output,omitempty" json:"output,omitempty"`
}

// Parse decodes a job document
func Parse(data []byte) (*Job, error) {
	var job Job
	if err := yaml.Unmarshal(data, &job); err != nil {
		return nil, errors.Wrap(err, "parse job")
	}
	return &job, nil
}

// Load reads and decodes a job file
func Load(path string) (*Job, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "read job file")
	}
	return Parse(data)
}

// ApplyDefaults fills unset delivery and limit fields from b
func (j *Job) ApplyDefaults(b Bridge) {
	if j.MaxRecords == nil {
		j.MaxRecords = graph.RecordLimit(b.MaxRecords)
	}
	if j.Delivery.AppURL == "" {
		j.Delivery.AppURL = b.AppURL
	}
	if j.Delivery.Method == "" {
		j.Delivery.Method = string(b.Method)
	}
	if j.Delivery.Display == nil {
		on := true
		j.Delivery.Display = &on
	}
}

// ProcessOptions compiles the job's pipeline options
func (j *Job) ProcessOptions() (graph.ProcessOptions, error) {
	spec, err := query.Compile(j.Filters)
	if err != nil {
		return graph.ProcessOptions{}, err
	}
	return graph.ProcessOptions{
		Columns:    j.Columns,
		Filters:    spec,
		MaxRecords: j.MaxRecords,
	}, nil
}

// DeliverOptions returns the job's delivery settings
func (j *Job) DeliverOptions() (explorer.DeliverOptions, error) {
	mode, err := delivery.ParseMode(j.Delivery.Method)
	if err != nil {
		return explorer.DeliverOptions{}, err
	}
	return explorer.DeliverOptions{
		AppURL:  j.Delivery.AppURL,
		Mode:    mode,
		Display: j.Delivery.Display == nil || *j.Delivery.Display,
	}, nil
}
