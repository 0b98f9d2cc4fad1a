package prompts

import (
	"context"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

func RegisterGraphPrompts(s *server.MCPServer) {
	prompt := mcp.NewPrompt("explore_relationships",
		mcp.WithPromptDescription("Turn a table into a relationship graph and open it in Graph Explorer"),
		mcp.WithArgument("input", mcp.ArgumentDescription("Path or URL of the table"), mcp.RequiredArgument()),
		mcp.WithArgument("focus", mcp.ArgumentDescription("What relationships to look at, e.g. 'who reports to whom'")),
	)
	s.AddPrompt(prompt, exploreRelationshipsHandler)
}

func exploreRelationshipsHandler(ctx context.Context, request mcp.GetPromptRequest) (*mcp.GetPromptResult, error) {
	input := request.Params.Arguments["input"]
	if input == "" {
		return nil, fmt.Errorf("input is required")
	}
	focus := strings.TrimSpace(request.Params.Arguments["focus"])

	var text strings.Builder
	fmt.Fprintf(&text, "Use preview_table on %s to see its columns and a few rows. ", input)
	text.WriteString("Pick the column holding the source node, the column holding the target node and, if there is one, the column describing the relationship. ")
	if focus != "" {
		fmt.Fprintf(&text, "Focus on: %s. Translate that into a filters spec if only some rows matter. ", focus)
	}
	text.WriteString("Then call process_table_for_graph with deliver=true and report the summary, any advisories and the Graph Explorer URL.")

	return &mcp.GetPromptResult{
		Description: fmt.Sprintf("Explore relationships in %s", input),
		Messages: []mcp.PromptMessage{
			{
				Role: mcp.RoleUser,
				Content: mcp.TextContent{
					Type: "text",
					Text: text.String(),
				},
			},
		},
	}, nil
}
