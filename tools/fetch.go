package tools

import (
	"context"

	"github.com/athapong/graph-bridge/pkg/graph"
	"github.com/athapong/graph-bridge/util"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

const defaultPreviewRows = 10

func RegisterFetchTool(s *server.MCPServer) {
	t := newGraphTools()

	tool := mcp.NewTool("preview_table", append([]mcp.ToolOption{
		mcp.WithDescription("Loads a table from a file, an HTTP/HTTPS URL, inline JSON or a Cypher query and returns its columns, row count and first rows. Use it to pick source, target and relationship columns before building a graph."),
		mcp.WithNumber("rows", mcp.Description("Number of rows to return (default 10)")),
	}, tableInputOptions()...)...)

	s.AddTool(tool, util.ErrorGuard(t.previewHandler))
}

func (t *graphTools) previewHandler(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	tbl, err := t.loadTable(ctx, req)
	if err != nil {
		return mcp.NewToolResultError("failed to load table: " + err.Error()), nil
	}

	n := int(req.GetFloat("rows", defaultPreviewRows))
	return jsonResult(map[string]interface{}{
		"columns": tbl.Columns(),
		"rows":    tbl.Len(),
		"head":    graph.Records(tbl.Head(n)),
	})
}
