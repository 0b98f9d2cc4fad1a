package prompts

import (
	"context"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExploreRelationships(t *testing.T) {
	req := mcp.GetPromptRequest{}
	req.Params.Arguments = map[string]string{"input": "people.csv", "focus": "who reports to whom"}

	res, err := exploreRelationshipsHandler(context.Background(), req)
	require.NoError(t, err)
	require.Len(t, res.Messages, 1)

	text := res.Messages[0].Content.(mcp.TextContent).Text
	assert.Contains(t, text, "people.csv")
	assert.Contains(t, text, "who reports to whom")
	assert.Contains(t, text, "process_table_for_graph")
}

func TestExploreRelationships_RequiresInput(t *testing.T) {
	_, err := exploreRelationshipsHandler(context.Background(), mcp.GetPromptRequest{})
	assert.Error(t, err)
}
