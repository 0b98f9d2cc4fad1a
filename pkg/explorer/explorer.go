// Package explorer exposes the two ways of sending a table to the graph
// viewer: whole-table delivery and the filtered edge-list pipeline.
package explorer

import (
	"context"

	"github.com/athapong/graph-bridge/pkg/graph"
	"github.com/athapong/graph-bridge/pkg/graph/delivery"
	"github.com/athapong/graph-bridge/pkg/graph/display"
	"github.com/athapong/graph-bridge/pkg/table"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

// DefaultAppURL is where the graph viewer is expected to listen
const DefaultAppURL = "http://localhost:3000"

// DeliverOptions selects where and how a payload is delivered
type DeliverOptions struct {
	AppURL  string
	Mode    delivery.Mode
	Display bool
}

// VisualizeOptions configures whole-table delivery. Column names are
// optional; see Visualize.
type VisualizeOptions struct {
	graph.Columns
	DeliverOptions
}

// Explorer wires the pipeline to a delivery sink
type Explorer struct {
	logger        *logrus.Logger
	sink          delivery.Sink
	dispatcherOpt []delivery.Option
	pipeline      *graph.Pipeline
	dispatcher    *delivery.Dispatcher
}

// Option configures an Explorer
type Option func(*Explorer)

// WithLogger sets the logger shared by the pipeline and the dispatcher
func WithLogger(logger *logrus.Logger) Option {
	return func(e *Explorer) {
		if logger != nil {
			e.logger = logger
		}
	}
}

// WithSink replaces the browser sink
func WithSink(sink delivery.Sink) Option {
	return func(e *Explorer) {
		e.sink = sink
	}
}

// WithDispatcherOptions passes options through to the dispatcher
func WithDispatcherOptions(opts ...delivery.Option) Option {
	return func(e *Explorer) {
		e.dispatcherOpt = append(e.dispatcherOpt, opts...)
	}
}

// New creates an Explorer. Without WithSink payloads are delivered through
// the system browser.
func New(opts ...Option) *Explorer {
	logger := logrus.New()
	logger.SetFormatter(&logrus.JSONFormatter{})

	e := &Explorer{logger: logger}
	for _, opt := range opts {
		opt(e)
	}
	if e.sink == nil {
		e.sink = display.NewBrowser(display.WithLogger(e.logger))
	}

	e.pipeline = graph.NewPipeline(graph.WithLogger(e.logger))
	e.dispatcher = delivery.NewDispatcher(e.sink, append([]delivery.Option{delivery.WithLogger(e.logger)}, e.dispatcherOpt...)...)
	return e
}

// Visualize delivers a whole table to the viewer and returns the delivery
// result, whose URL is the canonical link to the visualization.
//
// When no column name is given every row is sent as-is. When at least one is
// given the table is projected onto the edge schema first, and unnamed roles
// take positional defaults: the first column is the source, the second the
// relationship type and the third the target.
func (e *Explorer) Visualize(ctx context.Context, t *table.Table, opts VisualizeOptions) (*delivery.Result, error) {
	if t == nil {
		return nil, errors.New("cannot visualize nil table")
	}

	out := t
	if opts.Source != "" || opts.Target != "" || opts.RelationshipType != "" {
		cols, err := PositionalColumns(t.Columns(), opts.Columns)
		if err != nil {
			return nil, err
		}
		if out, err = graph.Normalize(t, cols); err != nil {
			return nil, err
		}
	}

	return e.deliver(ctx, out, opts.DeliverOptions, nil)
}

// Process runs the filtered-subset pipeline without delivering anything
func (e *Explorer) Process(t *table.Table, opts graph.ProcessOptions) (*graph.Processed, error) {
	return e.pipeline.Process(t, opts)
}

// ProcessAndVisualize runs the pipeline and delivers its output. The
// result's advisories include the pipeline's truncation notice.
func (e *Explorer) ProcessAndVisualize(ctx context.Context, t *table.Table, opts graph.ProcessOptions, deliver DeliverOptions) (*graph.Processed, *delivery.Result, error) {
	processed, err := e.pipeline.Process(t, opts)
	if err != nil {
		return nil, nil, err
	}
	res, err := e.deliver(ctx, processed.Table, deliver, processed.Advisories)
	if err != nil {
		return nil, nil, err
	}
	return processed, res, nil
}

func (e *Explorer) deliver(ctx context.Context, t *table.Table, opts DeliverOptions, advisories []graph.Advisory) (*delivery.Result, error) {
	payload, err := graph.Serialize(t)
	if err != nil {
		return nil, errors.Wrap(err, "serialize payload")
	}

	appURL := opts.AppURL
	if appURL == "" {
		appURL = DefaultAppURL
	}

	res, err := e.dispatcher.Dispatch(ctx, delivery.Request{
		Payload:     payload,
		RecordCount: t.Len(),
		AppURL:      appURL,
		Mode:        opts.Mode,
		Display:     opts.Display,
	})
	if err != nil {
		return nil, err
	}
	if len(advisories) > 0 {
		res.Advisories = append(append([]graph.Advisory(nil), advisories...), res.Advisories...)
	}
	return res, nil
}

// PositionalColumns fills the unnamed roles of cols from the table's
// column order: first column as source, second as relationship type and
// third as target. A role whose position does not exist stays unnamed. The
// relationship type is left to the default value when its position is
// missing or already used as an endpoint.
func PositionalColumns(columns []string, cols graph.Columns) (graph.Columns, error) {
	at := func(i int) string {
		if i < len(columns) {
			return columns[i]
		}
		return ""
	}

	if cols.Source == "" {
		cols.Source = at(0)
	}
	if cols.Target == "" {
		cols.Target = at(2)
	}
	if cols.RelationshipType == "" {
		if rel := at(1); rel != cols.Source && rel != cols.Target {
			cols.RelationshipType = rel
		}
	}
	if cols.Source == "" || cols.Target == "" {
		return cols, graph.ConfigError(errors.Wrapf(graph.ErrMissingColumn, "table has %d columns, cannot infer source and target", len(columns)))
	}
	return cols, nil
}
