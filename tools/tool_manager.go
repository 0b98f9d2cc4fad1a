package tools

import (
	"context"
	"fmt"
	"os"
	"slices"
	"strings"

	"github.com/athapong/graph-bridge/util"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// ToolGroup is a set of tools enabled together through ENABLE_TOOLS
type ToolGroup struct {
	Name string
	Desc string
}

// ToolGroups lists every group the server can register
var ToolGroups = []ToolGroup{
	{"tool_manager", "Tool management"},
	{"graph_explorer", "Graph Explorer: visualize_graph, process_table_for_graph"},
	{"fetch", "Table loading: preview_table"},
}

// EnabledTools returns the ENABLE_TOOLS entries and whether every tool is
// enabled because the variable is empty.
func EnabledTools() ([]string, bool) {
	enableTools := os.Getenv("ENABLE_TOOLS")
	if strings.TrimSpace(enableTools) == "" {
		return nil, true
	}
	var out []string
	for _, name := range strings.Split(enableTools, ",") {
		if name = strings.TrimSpace(name); name != "" {
			out = append(out, name)
		}
	}
	return out, false
}

// IsEnabled reports whether a tool group is enabled
func IsEnabled(name string) bool {
	enabled, all := EnabledTools()
	return all || slices.Contains(enabled, name)
}

func RegisterToolManagerTool(s *server.MCPServer) {
	tool := mcp.NewTool("tool_manager",
		mcp.WithDescription("Manage MCP tools - enable or disable tools"),
		mcp.WithString("action", mcp.Required(), mcp.Description("Action to perform: list, enable, disable")),
		mcp.WithString("tool_name", mcp.Description("Tool name to enable/disable")),
	)

	s.AddTool(tool, util.ErrorGuard(toolManagerHandler))
}

func toolManagerHandler(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	action, err := req.RequireString("action")
	if err != nil {
		return mcp.NewToolResultError("action must be a string"), nil
	}

	toolList, allEnabled := EnabledTools()

	switch action {
	case "list":
		var response strings.Builder
		response.WriteString("Available tools:\n")
		for _, t := range ToolGroups {
			status := "disabled"
			if allEnabled || slices.Contains(toolList, t.Name) {
				status = "enabled"
			}
			fmt.Fprintf(&response, "- %s (%s) [%s]\n", t.Name, t.Desc, status)
		}
		response.WriteString("\nCurrently enabled tools:\n")
		if allEnabled {
			response.WriteString("All tools are enabled (ENABLE_TOOLS is empty)\n")
		} else {
			for _, name := range toolList {
				fmt.Fprintf(&response, "- %s\n", name)
			}
		}
		return mcp.NewToolResultText(response.String()), nil

	case "enable", "disable":
		toolName := req.GetString("tool_name", "")
		if toolName == "" {
			return mcp.NewToolResultError("tool_name is required for enable/disable actions"), nil
		}
		known := slices.ContainsFunc(ToolGroups, func(g ToolGroup) bool { return g.Name == toolName })
		if !known {
			return mcp.NewToolResultError(fmt.Sprintf("unknown tool: %s", toolName)), nil
		}

		if allEnabled {
			toolList = []string{}
			if action == "disable" {
				for _, g := range ToolGroups {
					toolList = append(toolList, g.Name)
				}
			}
		}

		if action == "enable" {
			if !slices.Contains(toolList, toolName) {
				toolList = append(toolList, toolName)
			}
		} else {
			toolList = slices.DeleteFunc(toolList, func(s string) bool { return s == toolName })
		}

		os.Setenv("ENABLE_TOOLS", strings.Join(toolList, ","))
		return mcp.NewToolResultText(fmt.Sprintf("Successfully %sd tool: %s (takes effect on restart)", action, toolName)), nil

	default:
		return mcp.NewToolResultError("Invalid action. Use 'list', 'enable', or 'disable'"), nil
	}
}
