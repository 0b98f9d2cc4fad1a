package graph

import (
	"github.com/athapong/graph-bridge/pkg/graph/metrics"
	"github.com/athapong/graph-bridge/pkg/table"
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/sirupsen/logrus"
)

// ProcessOptions configures the filtered-subset pipeline
type ProcessOptions struct {
	Columns
	Filters Spec
	// MaxRecords bounds the output; nil selects DefaultMaxRecords. Zero is
	// a valid bound and yields an empty edge list.
	MaxRecords *int
}

// RecordLimit returns a MaxRecords value for n
func RecordLimit(n int) *int {
	return &n
}

// Processed is the output of the pipeline
type Processed struct {
	Table      *table.Table
	Truncation *Truncation
	Summary    Summary
	Advisories []Advisory
}

// Edges returns the output rows as typed edges
func (p *Processed) Edges() []EdgeRecord {
	edges, _ := EdgeRecords(p.Table)
	return edges
}

// Pipeline runs Filter, Normalize and Limit over a table
type Pipeline struct {
	logger *logrus.Logger
}

// Option configures a Pipeline
type Option func(*Pipeline)

// WithLogger replaces the pipeline's logger
func WithLogger(logger *logrus.Logger) Option {
	return func(p *Pipeline) {
		if logger != nil {
			p.logger = logger
		}
	}
}

// NewPipeline creates a new edge pipeline
func NewPipeline(opts ...Option) *Pipeline {
	logger := logrus.New()
	logger.SetFormatter(&logrus.JSONFormatter{})

	p := &Pipeline{logger: logger}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Process filters t, projects it onto the edge schema and bounds its size.
// The input table is never modified. Configuration errors abort the call
// and no table is returned; truncation is reported as an advisory.
func (p *Pipeline) Process(t *table.Table, opts ProcessOptions) (*Processed, error) {
	if t == nil {
		return nil, errors.New("cannot process nil table")
	}

	maxRecords := DefaultMaxRecords
	if opts.MaxRecords != nil {
		maxRecords = *opts.MaxRecords
	}

	log := p.logger.WithFields(logrus.Fields{
		"rows":        t.Len(),
		"source":      opts.Source,
		"target":      opts.Target,
		"filters":     len(opts.Filters),
		"max_records": maxRecords,
	})
	log.Info("Processing table for graph")

	filtered, err := p.stage("filter", t, func() (*table.Table, error) {
		return Filter(t, opts.Filters)
	})
	if err != nil {
		return nil, err
	}

	normalized, err := p.stage("normalize", filtered, func() (*table.Table, error) {
		return Normalize(filtered, opts.Columns)
	})
	if err != nil {
		return nil, err
	}

	var truncation *Truncation
	bounded, err := p.stage("limit", normalized, func() (*table.Table, error) {
		out, trunc, err := Limit(normalized, maxRecords)
		truncation = trunc
		return out, err
	})
	if err != nil {
		return nil, err
	}

	result := &Processed{Table: bounded, Truncation: truncation}
	if truncation != nil {
		adv := truncation.Advisory()
		result.Advisories = append(result.Advisories, adv)
		metrics.PipelineTruncations.Inc()
		log.WithFields(logrus.Fields{"from": truncation.From, "to": truncation.To}).Warn(adv.Message)
	}

	summary, err := Summarize(bounded)
	if err != nil {
		return nil, err
	}
	result.Summary = summary
	// only the latest table is reported; relationship types come from data
	metrics.GraphEdgeCount.Reset()
	for rel, n := range summary.RelationshipTypes {
		metrics.GraphEdgeCount.WithLabelValues(rel).Set(float64(n))
	}

	log.WithFields(logrus.Fields{
		"edges": summary.Edges,
		"nodes": summary.Nodes,
	}).Info("Table processing completed")
	return result, nil
}

func (p *Pipeline) stage(name string, in *table.Table, run func() (*table.Table, error)) (*table.Table, error) {
	timer := prometheus.NewTimer(metrics.PipelineDuration.WithLabelValues(name))
	out, err := run()
	timer.ObserveDuration()

	if err != nil {
		metrics.PipelineErrors.WithLabelValues(name).Inc()
		p.logger.WithError(err).WithField("stage", name).Error("Pipeline stage failed")
		return nil, err
	}

	metrics.PipelineRows.WithLabelValues(name, "in").Add(float64(in.Len()))
	metrics.PipelineRows.WithLabelValues(name, "out").Add(float64(out.Len()))
	return out, nil
}

// Process runs a pipeline with the default logger
func Process(t *table.Table, opts ProcessOptions) (*Processed, error) {
	return NewPipeline().Process(t, opts)
}
