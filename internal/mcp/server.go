// Package mcp implements a Model Context Protocol server exposing the
// auto-import engine as MCP tools over stdio transport.
package mcp

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	mcpsdk "github.com/modelcontextprotocol/go-sdk/mcp"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/Sumatoshi-tech/autoimport/internal/observability"
	"github.com/Sumatoshi-tech/autoimport/pkg/autoimport"
	"github.com/Sumatoshi-tech/autoimport/pkg/version"
)

const (
	// serverName is the MCP server implementation name.
	serverName = "autoimport"

	// toolCount is the expected number of registered tools.
	toolCount = 3

	// defaultMaxCodeBytes bounds inline code when ServerDeps.MaxCodeBytes is zero.
	defaultMaxCodeBytes = 1 << 20
)

// ServerDeps holds injectable dependencies for the MCP server.
// Zero-value fields use production defaults.
type ServerDeps struct {
	// Engine answers every tool call. Required.
	Engine *autoimport.Context

	// MaxCodeBytes caps the size of inline code. Zero means 1 MiB.
	MaxCodeBytes uint64

	// Logger is an optional structured logger. Nil uses slog default.
	Logger *slog.Logger

	// Metrics is an optional RED metrics recorder. Nil disables per-tool metrics.
	Metrics *observability.REDMetrics

	// Tracer is an optional OTel tracer for per-tool-call spans. Nil disables tracing.
	Tracer trace.Tracer
}

// Server wraps the MCP SDK server with the auto-import tool registrations.
type Server struct {
	inner    *mcpsdk.Server
	engine   *autoimport.Context
	maxBytes uint64
	logger   *slog.Logger

	mu      sync.RWMutex
	tools   []string
	metrics *observability.REDMetrics
	tracer  trace.Tracer
}

// NewServer creates a new MCP server with all tools registered.
func NewServer(deps ServerDeps) *Server {
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}

	inner := mcpsdk.NewServer(
		&mcpsdk.Implementation{
			Name:    serverName,
			Version: version.Version,
		},
		&mcpsdk.ServerOptions{Logger: logger},
	)

	maxBytes := deps.MaxCodeBytes
	if maxBytes == 0 {
		maxBytes = defaultMaxCodeBytes
	}

	srv := &Server{
		inner:    inner,
		engine:   deps.Engine,
		maxBytes: maxBytes,
		logger:   logger,
		tools:    make([]string, 0, toolCount),
		metrics:  deps.Metrics,
		tracer:   deps.Tracer,
	}

	srv.registerTools()

	return srv
}

// ListToolNames returns the sorted names of all registered tools.
func (s *Server) ListToolNames() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	names := make([]string, len(s.tools))
	copy(names, s.tools)
	sort.Strings(names)

	return names
}

// Run starts the MCP server on stdio transport. It blocks until the context
// is canceled or the connection closes.
func (s *Server) Run(ctx context.Context) error {
	return s.RunWithTransport(ctx, &mcpsdk.StdioTransport{})
}

// RunWithTransport starts the MCP server on the given transport. It blocks
// until the context is canceled or the connection closes.
func (s *Server) RunWithTransport(ctx context.Context, transport mcpsdk.Transport) error {
	err := s.inner.Run(ctx, transport)
	if err != nil {
		return fmt.Errorf("mcp server: %w", err)
	}

	return nil
}

func (s *Server) registerTools() {
	addTool(s, ToolNameInject, injectToolDescription, s.handleInject)
	addTool(s, ToolNameDetect, detectToolDescription, s.handleDetect)
	addTool(s, ToolNameMetadata, metadataToolDescription, s.handleMetadata)
}

func addTool[Input any](s *Server, name, description string, handler toolHandler[Input]) {
	mcpsdk.AddTool(s.inner, &mcpsdk.Tool{
		Name:        name,
		Description: description,
	}, mcpsdk.ToolHandlerFor[Input, ToolOutput](withMetrics(s.metrics, name, withTracing(s.tracer, name, handler))))

	s.trackTool(name)
}

type toolHandler[Input any] func(context.Context, *mcpsdk.CallToolRequest, Input) (*mcpsdk.CallToolResult, ToolOutput, error)

// mcpSpanPrefix is the prefix for MCP tool span names.
const mcpSpanPrefix = "mcp."

// traceIDMetaKey is the metadata key for trace_id in MCP tool responses.
const traceIDMetaKey = "trace_id"

// withTracing wraps an MCP tool handler to create an OTel span per invocation
// and include trace_id in the response content when sampled.
func withTracing[Input any](tracer trace.Tracer, toolName string, handler toolHandler[Input]) toolHandler[Input] {
	if tracer == nil {
		return handler
	}

	return func(ctx context.Context, req *mcpsdk.CallToolRequest, input Input) (*mcpsdk.CallToolResult, ToolOutput, error) {
		ctx, span := tracer.Start(ctx, mcpSpanPrefix+toolName,
			trace.WithSpanKind(trace.SpanKindServer),
			trace.WithAttributes(attribute.String("mcp.tool", toolName)),
		)
		defer span.End()

		result, output, err := handler(ctx, req, input)

		switch {
		case err != nil:
			observability.RecordSpanError(span, err, observability.ErrTypeInternal)
		case result != nil && result.IsError:
			span.SetAttributes(attribute.String("error.type", observability.ErrTypeInvalidInput))
		}

		sc := span.SpanContext()
		if sc.IsSampled() && result != nil {
			traceContent := &mcpsdk.TextContent{Text: fmt.Sprintf("%s=%s", traceIDMetaKey, sc.TraceID().String())}
			result.Content = append(result.Content, traceContent)
		}

		return result, output, err
	}
}

// withMetrics wraps an MCP tool handler to record RED metrics per invocation.
func withMetrics[Input any](metrics *observability.REDMetrics, toolName string, handler toolHandler[Input]) toolHandler[Input] {
	if metrics == nil {
		return handler
	}

	op := mcpSpanPrefix + toolName

	return func(ctx context.Context, req *mcpsdk.CallToolRequest, input Input) (*mcpsdk.CallToolResult, ToolOutput, error) {
		start := time.Now()

		decInflight := metrics.TrackInflight(ctx, op)
		defer decInflight()

		result, output, err := handler(ctx, req, input)

		status := observability.StatusOK
		if err != nil || (result != nil && result.IsError) {
			status = observability.StatusError
		}

		metrics.RecordRequest(ctx, op, status, time.Since(start))

		return result, output, err
	}
}

func (s *Server) trackTool(name string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.tools = append(s.tools, name)
}

// Tool description constants.
const (
	injectToolDescription = "Add the missing import declarations to ECMAScript, TypeScript, " +
		"Vue or Svelte source. Returns the rewritten code and the injected bindings."

	detectToolDescription = "List the configured bindings a source uses without importing them, " +
		"with the offset of each first use. Never rewrites the code."

	metadataToolDescription = "Report how often each binding has been injected and into which modules " +
		"since the server started. Empty unless collect_meta is enabled."
)
