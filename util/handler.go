package util

import (
	"context"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/sirupsen/logrus"
)

// ErrorGuard turns panics and returned errors of a tool handler into tool
// error results, so one failing call never takes the server down.
func ErrorGuard(handler server.ToolHandlerFunc) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (result *mcp.CallToolResult, err error) {
		defer func() {
			if r := recover(); r != nil {
				logrus.WithField("tool", request.Params.Name).Errorf("Tool panicked: %v", r)
				result = mcp.NewToolResultError(fmt.Sprintf("internal error: %v", r))
				err = nil
			}
		}()

		result, err = handler(ctx, request)
		if err != nil {
			logrus.WithError(err).WithField("tool", request.Params.Name).Error("Tool failed")
			return mcp.NewToolResultError(err.Error()), nil
		}
		return result, nil
	}
}
