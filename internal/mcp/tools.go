package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/dustin/go-humanize"
	mcpsdk "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/Sumatoshi-tech/autoimport/pkg/registry"
)

// Tool name constants.
const (
	ToolNameInject   = "autoimport_inject"
	ToolNameDetect   = "autoimport_detect"
	ToolNameMetadata = "autoimport_metadata"
)

// ErrCodeTooLarge indicates the code input exceeds the size limit.
var ErrCodeTooLarge = errors.New("code input exceeds maximum size")

// InjectInput is the input schema for the autoimport_inject tool.
type InjectInput struct {
	Code     string `json:"code"                jsonschema:"source code to rewrite"`
	ModuleID string `json:"module_id,omitempty" jsonschema:"optional module identifier recorded in usage metadata"`
}

// DetectInput is the input schema for the autoimport_detect tool.
type DetectInput struct {
	Code string `json:"code" jsonschema:"source code to inspect"`
}

// MetadataInput is the (empty) input schema for the autoimport_metadata tool.
type MetadataInput struct{}

// ToolOutput is a generic wrapper for tool results.
type ToolOutput struct {
	Data any `json:"data"`
}

// InjectResult is the payload of a successful autoimport_inject call.
type InjectResult struct {
	Code     string             `json:"code"`
	Changed  bool               `json:"changed"`
	Injected []registry.Binding `json:"injected"`
}

// PendingBinding is one entry of an autoimport_detect payload.
type PendingBinding struct {
	Name  string           `json:"name"`
	Bind  registry.Binding `json:"binding"`
	Start int              `json:"start"`
	End   int              `json:"end"`
}

// DetectResult is the payload of a successful autoimport_detect call.
type DetectResult struct {
	Pending []PendingBinding `json:"pending"`
}

func (s *Server) handleInject(
	ctx context.Context, _ *mcpsdk.CallToolRequest, input InjectInput,
) (*mcpsdk.CallToolResult, ToolOutput, error) {
	err := s.validateCode(input.Code)
	if err != nil {
		return errorResult(err)
	}

	res, err := s.engine.InjectImports(ctx, input.Code, input.ModuleID)
	if err != nil {
		return errorResult(err)
	}

	injected := res.Injected
	if injected == nil {
		injected = []registry.Binding{}
	}

	return jsonResult(InjectResult{Code: res.Code, Changed: res.Changed(), Injected: injected})
}

func (s *Server) handleDetect(
	ctx context.Context, _ *mcpsdk.CallToolRequest, input DetectInput,
) (*mcpsdk.CallToolResult, ToolOutput, error) {
	err := s.validateCode(input.Code)
	if err != nil {
		return errorResult(err)
	}

	det, err := s.engine.DetectImports(ctx, input.Code)
	if err != nil {
		return errorResult(err)
	}

	out := DetectResult{Pending: make([]PendingBinding, 0, len(det.Pending))}
	for _, p := range det.Pending {
		out.Pending = append(out.Pending, PendingBinding{
			Name:  p.Binding.FinalName(),
			Bind:  p.Binding,
			Start: p.First.Start,
			End:   p.First.End,
		})
	}

	return jsonResult(out)
}

func (s *Server) handleMetadata(
	_ context.Context, _ *mcpsdk.CallToolRequest, _ MetadataInput,
) (*mcpsdk.CallToolResult, ToolOutput, error) {
	return jsonResult(s.engine.Metadata())
}

func (s *Server) validateCode(code string) error {
	if uint64(len(code)) > s.maxBytes {
		return fmt.Errorf("%w: %s (max %s)", ErrCodeTooLarge,
			humanize.IBytes(uint64(len(code))), humanize.IBytes(s.maxBytes))
	}

	return nil
}

// errorResult builds a CallToolResult with isError set.
func errorResult(err error) (*mcpsdk.CallToolResult, ToolOutput, error) {
	return &mcpsdk.CallToolResult{
		Content: []mcpsdk.Content{
			&mcpsdk.TextContent{Text: err.Error()},
		},
		IsError: true,
	}, ToolOutput{}, nil
}

// jsonResult builds a CallToolResult with JSON-encoded content.
func jsonResult(value any) (*mcpsdk.CallToolResult, ToolOutput, error) {
	data, err := json.MarshalIndent(value, "", "  ")
	if err != nil {
		return errorResult(fmt.Errorf("encode result: %w", err))
	}

	return &mcpsdk.CallToolResult{
		Content: []mcpsdk.Content{
			&mcpsdk.TextContent{Text: string(data)},
		},
	}, ToolOutput{Data: value}, nil
}
