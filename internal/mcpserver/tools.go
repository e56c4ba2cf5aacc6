package mcpserver

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/medref/ExtractionAPI/internal/config"
	"github.com/medref/ExtractionAPI/internal/extract/score"
	"github.com/medref/ExtractionAPI/internal/extract/segment"
)

// --- segment ---

type segmentReq struct {
	Text string `json:"text"`
}

func (s *Server) registerSegmentTool() {
	tool := &mcp.Tool{
		Name:        "referral_segment",
		Description: "Split referral document text into classified sections (patient info, diagnosis, medications, ...) with character offsets and reference points.",
		InputSchema: inputSchema(map[string]any{
			"text": map[string]any{"type": "string", "description": "Document text to segment"},
		}, []string{"text"}),
	}

	ep := func(_ context.Context, req any) (any, error) {
		r := req.(*segmentReq)
		if r.Text == "" {
			return nil, errors.New("text is required")
		}
		sections := segment.Sections(r.Text)
		return map[string]any{
			"sections":   sections,
			"references": segment.BuildReferencePoints(sections),
		}, nil
	}

	decode := func(req *mcp.CallToolRequest) (*decodeResult, error) {
		var r segmentReq
		if err := json.Unmarshal(req.Params.Arguments, &r); err != nil {
			return nil, err
		}
		return &decodeResult{request: &r}, nil
	}

	s.registerTool(tool, ep, decode)
}

// --- score ---

type scoreReq struct {
	Text        string `json:"text"`
	Query       string `json:"query"`
	MaxSections int    `json:"max_sections,omitempty"`
}

func (s *Server) registerScoreTool() {
	tool := &mcp.Tool{
		Name:        "referral_score",
		Description: "Score the sections of referral text for relevance to a query and return the best matches.",
		InputSchema: inputSchema(map[string]any{
			"text":         map[string]any{"type": "string", "description": "Document text to search"},
			"query":        map[string]any{"type": "string", "description": "Value or phrase to locate"},
			"max_sections": map[string]any{"type": "integer", "description": "Maximum sections to return"},
		}, []string{"text", "query"}),
	}

	ep := func(_ context.Context, req any) (any, error) {
		r := req.(*scoreReq)
		if r.Text == "" || r.Query == "" {
			return nil, errors.New("text and query are required")
		}
		maxSections := r.MaxSections
		if maxSections <= 0 {
			maxSections = config.DefaultMaxReferenceSections
		}
		return map[string]any{
			"matches": score.FindInText(r.Text, r.Query, maxSections),
		}, nil
	}

	decode := func(req *mcp.CallToolRequest) (*decodeResult, error) {
		var r scoreReq
		if err := json.Unmarshal(req.Params.Arguments, &r); err != nil {
			return nil, err
		}
		return &decodeResult{request: &r}, nil
	}

	s.registerTool(tool, ep, decode)
}

// --- references ---

type referencesReq struct {
	DocumentId  string `json:"document_id"`
	FieldValue  string `json:"field_value"`
	MaxSections int    `json:"max_sections,omitempty"`
}

func (s *Server) registerReferencesTool() {
	tool := &mcp.Tool{
		Name:        "referral_references",
		Description: "Find where a field value came from in an already extracted document.",
		InputSchema: inputSchema(map[string]any{
			"document_id":  map[string]any{"type": "string", "description": "Document id returned by the extraction API"},
			"field_value":  map[string]any{"type": "string", "description": "Field value to locate"},
			"max_sections": map[string]any{"type": "integer", "description": "Maximum sections to return"},
		}, []string{"document_id", "field_value"}),
	}

	ep := func(ctx context.Context, req any) (any, error) {
		r := req.(*referencesReq)
		if r.DocumentId == "" || r.FieldValue == "" {
			return nil, errors.New("document_id and field_value are required")
		}
		maxSections := r.MaxSections
		if maxSections <= 0 {
			maxSections = config.DefaultMaxReferenceSections
		}
		return s.extract.FieldReferences(ctx, r.DocumentId, r.FieldValue, maxSections)
	}

	decode := func(req *mcp.CallToolRequest) (*decodeResult, error) {
		var r referencesReq
		if err := json.Unmarshal(req.Params.Arguments, &r); err != nil {
			return nil, err
		}
		return &decodeResult{request: &r}, nil
	}

	s.registerTool(tool, ep, decode)
}
