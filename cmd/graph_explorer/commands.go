package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/athapong/graph-bridge/pkg/config"
	"github.com/athapong/graph-bridge/pkg/explorer"
	"github.com/athapong/graph-bridge/pkg/graph"
	"github.com/athapong/graph-bridge/pkg/graph/delivery"
	"github.com/athapong/graph-bridge/pkg/graph/display"
	"github.com/athapong/graph-bridge/pkg/graph/query"
	"github.com/athapong/graph-bridge/pkg/table"
	"github.com/athapong/graph-bridge/pkg/table/sources"
	"github.com/joho/godotenv"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

// app carries what the commands share. sink is nil outside tests, in which
// case a browser sink is built from the bridge settings.
type app struct {
	logger *logrus.Logger
	out    io.Writer
	// errOut takes status lines when records are written to out
	errOut io.Writer
	client *http.Client
	sink   delivery.Sink
	getenv func(string) string

	envFile  string
	logLevel string
	display  string
	bridge   config.Bridge
}

func newApp() *app {
	logger := logrus.New()
	logger.SetOutput(os.Stderr)
	logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	return &app{
		logger: logger,
		out:    os.Stdout,
		errOut: os.Stderr,
		client: &http.Client{Timeout: 30 * time.Second},
		getenv: os.Getenv,
	}
}

// jobFlags mirror the fields of a job file; set flags override the file
type jobFlags struct {
	job         string
	input       string
	format      string
	dataPath    string
	cypher      string
	source      string
	target      string
	edgeType    string
	edgeDefault string
	where       []string
	filters     string
	maxRecords  int
	method      string
	appURL      string
	noDisplay   bool
	output      string
}

func newRootCmd(a *app) *cobra.Command {
	root := &cobra.Command{
		Use:           "graph_explorer",
		Short:         "Turn tables into edge lists and open them in Graph Explorer",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.setup()
		},
	}
	root.PersistentFlags().StringVar(&a.envFile, "env", ".env", "Path to environment file")
	root.PersistentFlags().StringVar(&a.logLevel, "log-level", "info", "Logging level (debug, info, warn, error)")
	root.PersistentFlags().StringVar(&a.display, "display", "", "Live-injection display: auto, on or off (default from GRAPH_EXPLORER_DISPLAY)")

	root.AddCommand(newVisualizeCmd(a), newProcessCmd(a), newValidateCmd(a))
	return root
}

func (a *app) setup() error {
	if err := godotenv.Load(a.envFile); err != nil {
		a.logger.Debugf("No env file loaded from %s: %v", a.envFile, err)
	}

	level, err := logrus.ParseLevel(a.logLevel)
	if err != nil {
		return errors.Wrap(err, "invalid log level")
	}
	a.logger.SetLevel(level)

	bridge, err := config.BridgeFromEnv(a.getenv)
	if err != nil {
		a.logger.WithError(err).Warn("Falling back to defaults for invalid Graph Explorer settings")
	}
	if a.display != "" {
		pref, err := display.ParsePreference(a.display)
		if err != nil {
			return err
		}
		bridge.Display = pref
	}
	a.bridge = bridge
	return nil
}

func addJobFlags(cmd *cobra.Command, f *jobFlags, pipeline bool) {
	fl := cmd.Flags()
	fl.StringVar(&f.job, "job", "", "YAML or JSON job file")
	fl.StringVarP(&f.input, "input", "i", "", "Path or http(s) URL of the table")
	fl.StringVar(&f.format, "format", "", "Input format: csv, tsv, json, parquet, html")
	fl.StringVar(&f.dataPath, "data-path", "", "Path of the nested JSON array holding the rows")
	fl.StringVar(&f.cypher, "cypher", "", "Read the table from Neo4j with this Cypher query")
	fl.StringVar(&f.source, "source", "", "Source node column")
	fl.StringVar(&f.target, "target", "", "Target node column")
	fl.StringVar(&f.edgeType, "edge-type", "", "Relationship type column")
	fl.StringVar(&f.method, "method", "", "Delivery method: url or js")
	fl.StringVar(&f.appURL, "app-url", "", "Graph Explorer base URL")
	fl.BoolVar(&f.noDisplay, "no-display", false, "Never use live injection")

	if pipeline {
		fl.StringVar(&f.edgeDefault, "edge-default", "", "Relationship type when no column is given")
		fl.StringArrayVarP(&f.where, "where", "w", nil, `Filter condition such as "weight>0.5" or "kind in a,b" (repeatable)`)
		fl.StringVar(&f.filters, "filters", "", "JSON filter spec")
		fl.IntVar(&f.maxRecords, "max-records", 0, "Maximum number of edges")
		fl.StringVarP(&f.output, "output", "o", "", `Write the records as JSON to this file ("-" for stdout)`)
	}
}

// buildJob loads the job file, if any, and overlays the set flags. Without
// needColumns a job may leave source and target unnamed.
func (a *app) buildJob(cmd *cobra.Command, f *jobFlags, needColumns bool) (*config.Job, error) {
	job := &config.Job{}
	if f.job != "" {
		loaded, err := config.Load(f.job)
		if err != nil {
			return nil, err
		}
		job = loaded
	}

	set := func(name string, dst *string, v string) {
		if cmd.Flags().Changed(name) {
			*dst = v
		}
	}
	set("input", &job.Input.Location, f.input)
	set("format", &job.Input.Format, f.format)
	set("data-path", &job.Input.DataPath, f.dataPath)
	set("cypher", &job.Input.Cypher, f.cypher)
	set("source", &job.Columns.Source, f.source)
	set("target", &job.Columns.Target, f.target)
	set("edge-type", &job.Columns.RelationshipType, f.edgeType)
	set("edge-default", &job.Columns.DefaultRelationshipType, f.edgeDefault)
	set("method", &job.Delivery.Method, f.method)
	set("app-url", &job.Delivery.AppURL, f.appURL)
	set("output", &job.Output, f.output)

	if cmd.Flags().Changed("max-records") {
		job.MaxRecords = graph.RecordLimit(f.maxRecords)
	}
	if f.noDisplay {
		off := false
		job.Delivery.Display = &off
	}
	for _, expr := range f.where {
		filter, err := query.ParseWhere(expr)
		if err != nil {
			return nil, err
		}
		job.Filters = append(job.Filters, filter)
	}

	job.ApplyDefaults(a.bridge)

	var issues []config.Issue
	for _, issue := range job.Validate() {
		if !needColumns && strings.HasPrefix(issue.Path, "columns.") {
			continue
		}
		issues = append(issues, issue)
	}
	for _, issue := range issues {
		if issue.Severity == config.SeverityWarning {
			a.logger.Warn(issue.Error())
		}
	}
	if config.HasErrors(issues) {
		for _, issue := range issues {
			if issue.Severity == config.SeverityError {
				a.logger.Error(issue.Error())
			}
		}
		return nil, errors.New("invalid job")
	}
	return job, nil
}

func (a *app) loadTable(ctx context.Context, in config.Input) (*table.Table, error) {
	if in.Cypher != "" {
		n := a.bridge.Neo4j
		if !n.Configured() {
			return nil, errors.New("cypher input needs NEO4J_URI")
		}
		src, err := sources.NewNeo4jSource(n.URI, n.Username, n.Password, n.Database)
		if err != nil {
			return nil, err
		}
		defer src.Close()
		return src.Query(ctx, in.Cypher, in.Params)
	}
	return sources.Load(ctx, a.client, in.Location, in.SourceOptions())
}

// explorer returns the explorer and, when deliveries go to a real browser,
// the browser so the caller can wait for live-injection pages.
func (a *app) explorer() (*explorer.Explorer, *display.Browser) {
	if a.sink != nil {
		return explorer.New(explorer.WithLogger(a.logger), explorer.WithSink(a.sink)), nil
	}
	b := display.NewBrowser(
		display.WithLogger(a.logger),
		display.WithPreference(a.bridge.Display),
		display.WithLinger(a.bridge.HostLinger),
	)
	return explorer.New(explorer.WithLogger(a.logger), explorer.WithSink(b)), b
}

// status returns where notes and summaries go: stderr when the records
// themselves are written to stdout
func (a *app) status(job *config.Job) io.Writer {
	if job != nil && job.Output == "-" {
		return a.errOut
	}
	return a.out
}

func (a *app) report(w io.Writer, res *delivery.Result) {
	for _, adv := range res.Advisories {
		fmt.Fprintf(w, "note: %s\n", adv.Message)
	}
	fmt.Fprintf(w, "Graph Explorer URL: %s\n", res.URL)
}

func newVisualizeCmd(a *app) *cobra.Command {
	f := &jobFlags{}
	cmd := &cobra.Command{
		Use:   "visualize",
		Short: "Send a whole table to Graph Explorer",
		Long: `Send a whole table to Graph Explorer. Without column flags rows are sent
as they are; with at least one, unnamed roles are taken by position
(1st source, 2nd relationship, 3rd target).`,
		RunE: func(cmd *cobra.Command, args []string) error {
			job, err := a.buildJob(cmd, f, false)
			if err != nil {
				return err
			}
			deliver, err := job.DeliverOptions()
			if err != nil {
				return err
			}
			tbl, err := a.loadTable(cmd.Context(), job.Input)
			if err != nil {
				return err
			}

			ex, browser := a.explorer()
			res, err := ex.Visualize(cmd.Context(), tbl, explorer.VisualizeOptions{
				Columns:        job.Columns,
				DeliverOptions: deliver,
			})
			if err != nil {
				return err
			}
			a.report(a.status(job), res)
			if browser != nil {
				browser.Wait()
			}
			return nil
		},
	}
	addJobFlags(cmd, f, false)
	return cmd
}

func newProcessCmd(a *app) *cobra.Command {
	f := &jobFlags{}
	var deliver bool
	cmd := &cobra.Command{
		Use:   "process",
		Short: "Filter, normalize and limit a table into a Graph Explorer edge list",
		RunE: func(cmd *cobra.Command, args []string) error {
			job, err := a.buildJob(cmd, f, true)
			if err != nil {
				return err
			}
			opts, err := job.ProcessOptions()
			if err != nil {
				return err
			}
			if f.filters != "" {
				spec, err := graph.ParseSpec([]byte(f.filters))
				if err != nil {
					return err
				}
				opts.Filters = append(opts.Filters, spec...)
			}
			tbl, err := a.loadTable(cmd.Context(), job.Input)
			if err != nil {
				return err
			}

			ex, browser := a.explorer()
			var processed *graph.Processed
			if deliver {
				deliverOpts, err := job.DeliverOptions()
				if err != nil {
					return err
				}
				var res *delivery.Result
				processed, res, err = ex.ProcessAndVisualize(cmd.Context(), tbl, opts, deliverOpts)
				if err != nil {
					return err
				}
				a.report(a.status(job), res)
			} else {
				processed, err = ex.Process(tbl, opts)
				if err != nil {
					return err
				}
				for _, adv := range processed.Advisories {
					fmt.Fprintf(a.status(job), "note: %s\n", adv.Message)
				}
			}

			s := processed.Summary
			fmt.Fprintf(a.status(job), "%d edges, %d nodes, %d relationship types\n", s.Edges, s.Nodes, len(s.RelationshipTypes))
			if job.Output != "" {
				if err := a.writeRecords(job.Output, processed.Table); err != nil {
					return err
				}
			}
			if browser != nil {
				browser.Wait()
			}
			return nil
		},
	}
	addJobFlags(cmd, f, true)
	cmd.Flags().BoolVar(&deliver, "deliver", false, "Also send the edges to Graph Explorer")
	return cmd
}

func (a *app) writeRecords(path string, t *table.Table) error {
	body, err := json.MarshalIndent(graph.Records(t), "", "  ")
	if err != nil {
		return errors.Wrap(err, "encode records")
	}
	if path == "-" {
		_, err = fmt.Fprintln(a.out, string(body))
		return err
	}
	if err := os.WriteFile(path, body, 0o644); err != nil {
		return errors.Wrap(err, "write records")
	}
	a.logger.Infof("Records saved to %s", path)
	return nil
}

func newValidateCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "validate <job file>",
		Short: "Check a job file without running it",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			job, err := config.Load(args[0])
			if err != nil {
				return err
			}
			job.ApplyDefaults(a.bridge)
			issues := job.Validate()
			for _, issue := range issues {
				fmt.Fprintln(a.out, issue.Error())
			}
			if config.HasErrors(issues) {
				return errors.Errorf("%s has errors", args[0])
			}
			fmt.Fprintf(a.out, "%s is valid\n", args[0])
			return nil
		},
	}
}
