package tools

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/athapong/graph-bridge/pkg/config"
	"github.com/athapong/graph-bridge/pkg/explorer"
	"github.com/athapong/graph-bridge/pkg/graph"
	"github.com/athapong/graph-bridge/pkg/graph/delivery"
	"github.com/athapong/graph-bridge/pkg/table"
	"github.com/athapong/graph-bridge/pkg/table/sources"
	"github.com/athapong/graph-bridge/services"
	"github.com/athapong/graph-bridge/util"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/pkg/errors"
)

// tableQuerier runs a Cypher query into a table
type tableQuerier interface {
	Query(ctx context.Context, cypher string, params map[string]interface{}) (*table.Table, error)
}

type graphTools struct {
	explorer *explorer.Explorer
	// quiet computes URLs without opening anything
	quiet  *explorer.Explorer
	bridge config.Bridge
	client *http.Client
	neo4j  func() (tableQuerier, error)
}

func newGraphTools() *graphTools {
	return &graphTools{
		explorer: services.DefaultExplorer(),
		quiet:    explorer.New(explorer.WithLogger(services.DefaultLogger()), explorer.WithSink(delivery.NopSink{})),
		bridge:   services.DefaultBridgeConfig(),
		client:   services.DefaultHttpClient(),
		neo4j: func() (tableQuerier, error) {
			return services.DefaultNeo4jSource()
		},
	}
}

func tableInputOptions() []mcp.ToolOption {
	return []mcp.ToolOption{
		mcp.WithString("input", mcp.Description("Path or http(s) URL of a CSV, TSV, JSON, Parquet or HTML table")),
		mcp.WithString("data", mcp.Description("Inline JSON array of row objects, used instead of input")),
		mcp.WithString("cypher", mcp.Description("Read-only Cypher query against the configured Neo4j database, used instead of input")),
		mcp.WithString("format", mcp.Description("Input format when it cannot be detected: csv, tsv, json, parquet, html")),
		mcp.WithString("data_path", mcp.Description("For JSON input, path of the nested array holding the rows (e.g. data.items)")),
	}
}

func deliveryOptions() []mcp.ToolOption {
	return []mcp.ToolOption{
		mcp.WithString("app_url", mcp.Description("Base URL of the Graph Explorer app (default from GRAPH_EXPLORER_URL)")),
		mcp.WithString("method", mcp.Description("Delivery method: url or js (live injection into a new window)")),
		mcp.WithBoolean("display", mcp.Description("Allow live injection when a display is available (default true)")),
		mcp.WithBoolean("open_browser", mcp.Description("Open the result in the local browser (default true); when false only the URL is returned")),
	}
}

func RegisterGraphExplorerTools(s *server.MCPServer) {
	t := newGraphTools()

	visualizeTool := mcp.NewTool("visualize_graph", append([]mcp.ToolOption{
		mcp.WithDescription("Send a whole table to the Graph Explorer app and return the visualization URL. Without column names rows are sent as-is; with at least one name the table is mapped to Source/Target/RelationshipType, taking unnamed roles from column positions (1st source, 2nd relationship, 3rd target)."),
		mcp.WithString("source_col", mcp.Description("Column holding the source node")),
		mcp.WithString("target_col", mcp.Description("Column holding the target node")),
		mcp.WithString("edge_type_col", mcp.Description("Column holding the relationship type")),
	}, append(tableInputOptions(), deliveryOptions()...)...)...)
	s.AddTool(visualizeTool, util.ErrorGuard(t.visualizeHandler))

	processTool := mcp.NewTool("process_table_for_graph", append([]mcp.ToolOption{
		mcp.WithDescription("Filter a table and turn it into a Source/Target/RelationshipType edge list for Graph Explorer. Returns the edges, a summary and any advisories; set deliver to also send them to the app."),
		mcp.WithString("source_col", mcp.Required(), mcp.Description("Column holding the source node")),
		mcp.WithString("target_col", mcp.Required(), mcp.Description("Column holding the target node")),
		mcp.WithString("edge_type_col", mcp.Description("Column holding the relationship type")),
		mcp.WithString("edge_type_default", mcp.Description("Relationship type used when edge_type_col is not given (default \"connection\")")),
		mcp.WithString("filters", mcp.Description(`JSON filter spec, e.g. {"category":"finance","weight":{"operator":">","value":0.5}}. Operators: ==, >, >=, <, <=, !=, in, not in`)),
		mcp.WithNumber("max_records", mcp.Description("Maximum number of edges (default from GRAPH_EXPLORER_MAX_RECORDS, 1000)")),
		mcp.WithBoolean("deliver", mcp.Description("Also send the edges to Graph Explorer")),
	}, append(tableInputOptions(), deliveryOptions()...)...)...)
	s.AddTool(processTool, util.ErrorGuard(t.processHandler))
}

func (t *graphTools) loadTable(ctx context.Context, req mcp.CallToolRequest) (*table.Table, error) {
	input := req.GetString("input", "")
	data := req.GetString("data", "")
	cypher := req.GetString("cypher", "")
	opts := sources.Options{
		Format:   sources.Format(req.GetString("format", "")),
		DataPath: req.GetString("data_path", ""),
	}

	switch {
	case data != "":
		return sources.ReadJSON([]byte(data), opts.DataPath)
	case cypher != "":
		src, err := t.neo4j()
		if err != nil {
			return nil, err
		}
		return src.Query(ctx, cypher, nil)
	case input != "":
		return sources.Load(ctx, t.client, input, opts)
	}
	return nil, errors.New("one of input, data or cypher is required")
}

func (t *graphTools) deliverOptions(req mcp.CallToolRequest) (explorer.DeliverOptions, *explorer.Explorer, error) {
	mode, err := delivery.ParseMode(req.GetString("method", string(t.bridge.Method)))
	if err != nil {
		return explorer.DeliverOptions{}, nil, err
	}
	ex := t.explorer
	if !req.GetBool("open_browser", true) {
		ex = t.quiet
	}
	return explorer.DeliverOptions{
		AppURL:  req.GetString("app_url", t.bridge.AppURL),
		Mode:    mode,
		Display: req.GetBool("display", true),
	}, ex, nil
}

func (t *graphTools) visualizeHandler(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	tbl, err := t.loadTable(ctx, req)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	opts, ex, err := t.deliverOptions(req)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	res, err := ex.Visualize(ctx, tbl, explorer.VisualizeOptions{
		Columns: graph.Columns{
			Source:           req.GetString("source_col", ""),
			Target:           req.GetString("target_col", ""),
			RelationshipType: req.GetString("edge_type_col", ""),
		},
		DeliverOptions: opts,
	})
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return jsonResult(map[string]interface{}{
		"records":  tbl.Len(),
		"delivery": res,
	})
}

func (t *graphTools) processHandler(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	source, err := req.RequireString("source_col")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	target, err := req.RequireString("target_col")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	spec, err := graph.ParseSpec([]byte(req.GetString("filters", "")))
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	tbl, err := t.loadTable(ctx, req)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	opts := graph.ProcessOptions{
		Columns: graph.Columns{
			Source:                  source,
			Target:                  target,
			RelationshipType:        req.GetString("edge_type_col", ""),
			DefaultRelationshipType: req.GetString("edge_type_default", ""),
		},
		Filters:    spec,
		MaxRecords: graph.RecordLimit(int(req.GetFloat("max_records", float64(t.bridge.MaxRecords)))),
	}

	out := map[string]interface{}{}
	var processed *graph.Processed
	if req.GetBool("deliver", false) {
		deliver, ex, err := t.deliverOptions(req)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		var res *delivery.Result
		processed, res, err = ex.ProcessAndVisualize(ctx, tbl, opts, deliver)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		out["delivery"] = res
	} else {
		processed, err = t.explorer.Process(tbl, opts)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
	}

	out["records"] = graph.Records(processed.Table)
	out["summary"] = processed.Summary
	if processed.Truncation != nil {
		out["truncation"] = processed.Truncation
	}
	if len(processed.Advisories) > 0 {
		out["advisories"] = processed.Advisories
	}
	return jsonResult(out)
}

func jsonResult(v interface{}) (*mcp.CallToolResult, error) {
	body, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, errors.Wrap(err, "encode result")
	}
	return mcp.NewToolResultText(string(body)), nil
}
