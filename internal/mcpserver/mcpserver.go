package mcpserver

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/medref/ExtractionAPI/internal/extract"
	"github.com/medref/ExtractionAPI/pkg/logger_i"
)

// The MCP surface exposes the text-side pipeline stages to agent
// tooling: segmentation and scoring run on caller-supplied text,
// reference lookup runs against stored extraction results.

var logger *logger_i.Logger

type Server struct {
	srv     *mcp.Server
	extract extract.Service
}

func NewServer(extractService extract.Service) *Server {
	logger = logger_i.NewLogger("MCPServer")
	srv := mcp.NewServer(&mcp.Implementation{
		Name:    "referral-extraction",
		Version: "1.0.0",
	}, nil)

	s := &Server{srv: srv, extract: extractService}
	s.registerSegmentTool()
	s.registerScoreTool()
	s.registerReferencesTool()
	return s
}

// Run serves MCP over stdio until the context ends.
func (s *Server) Run(ctx context.Context) error {
	logger.Info("MCP server starting on stdio")
	return s.srv.Run(ctx, &mcp.StdioTransport{})
}

type endpoint func(ctx context.Context, req any) (any, error)

type decodeResult struct {
	request any
}

func (s *Server) registerTool(tool *mcp.Tool, ep endpoint, decode func(*mcp.CallToolRequest) (*decodeResult, error)) {
	s.srv.AddTool(tool, func(ctx context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		decoded, err := decode(req)
		if err != nil {
			var res mcp.CallToolResult
			res.SetError(fmt.Errorf("invalid arguments: %w", err))
			return &res, nil
		}

		resp, err := ep(ctx, decoded.request)
		if err != nil {
			var res mcp.CallToolResult
			res.SetError(errors.New(err.Error()))
			return &res, nil
		}

		data, err := json.Marshal(resp)
		if err != nil {
			var res mcp.CallToolResult
			res.SetError(fmt.Errorf("marshal: %w", err))
			return &res, nil
		}
		return &mcp.CallToolResult{
			Content: []mcp.Content{&mcp.TextContent{Text: string(data)}},
		}, nil
	})
}

func inputSchema(properties map[string]any, required []string) map[string]any {
	s := map[string]any{
		"type":       "object",
		"properties": properties,
	}
	if len(required) > 0 {
		s["required"] = required
	}
	return s
}
