// Package lsp provides a Language Server Protocol server that reports
// auto-importable identifiers and offers a quick fix adding their imports.
package lsp

import (
	"context"
	"crypto/sha256"
	"fmt"
	"log/slog"
	"time"

	"github.com/tliron/glsp"
	protocol "github.com/tliron/glsp/protocol_3_16"
	"github.com/tliron/glsp/server"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	nooptrace "go.opentelemetry.io/otel/trace/noop"

	"github.com/Sumatoshi-tech/autoimport/internal/cache"
	"github.com/Sumatoshi-tech/autoimport/internal/observability"
	"github.com/Sumatoshi-tech/autoimport/internal/sourcefile"
	"github.com/Sumatoshi-tech/autoimport/pkg/autoimport"
	"github.com/Sumatoshi-tech/autoimport/pkg/version"
)

const (
	serverName = "autoimport"

	diagnosticSource = "autoimport"
	diagnosticCode   = "missing-import"

	// QuickFixTitle is the title of the code action adding missing imports.
	QuickFixTitle = "Add missing imports"

	methodPublishDiagnostics = "textDocument/publishDiagnostics"
	spanPrefix               = "lsp."

	// componentKey separates cache keys of component documents from plain
	// modules with the same text.
	componentKey = 'c'
)

// ServerDeps holds injectable dependencies for the LSP server.
// Zero-value fields use production defaults.
type ServerDeps struct {
	// Engine computes diagnostics and fixes. Required.
	Engine *autoimport.Context

	// Logger is an optional structured logger. Nil uses slog default.
	Logger *slog.Logger

	// Metrics is an optional RED metrics recorder. Nil disables per-request metrics.
	Metrics *observability.REDMetrics

	// Tracer is an optional OTel tracer. Nil disables tracing.
	Tracer trace.Tracer

	// CacheSize bounds the detection cache in bytes of document text. Zero
	// uses the cache default.
	CacheSize int64

	// Debug enables glsp protocol logging.
	Debug bool
}

// Server implements the auto-import language server.
type Server struct {
	engine  *autoimport.Context
	store   *DocumentStore
	handler protocol.Handler

	// detections caches engine results by document content.
	detections *cache.LRU[[sha256.Size]byte, *autoimport.Detection]

	logger  *slog.Logger
	metrics *observability.REDMetrics
	tracer  trace.Tracer
	debug   bool
}

// NewServer creates a language server with its handlers registered.
func NewServer(deps ServerDeps) *Server {
	srv := &Server{
		engine: deps.Engine,
		store:  NewDocumentStore(),

		detections: cache.NewLRU[[sha256.Size]byte, *autoimport.Detection](deps.CacheSize),

		logger:  deps.Logger,
		metrics: deps.Metrics,
		tracer:  deps.Tracer,
		debug:   deps.Debug,
	}

	if srv.logger == nil {
		srv.logger = slog.Default()
	}

	if srv.tracer == nil {
		srv.tracer = nooptrace.NewTracerProvider().Tracer(serverName)
	}

	srv.handler = protocol.Handler{
		Initialize:             srv.initialize,
		Initialized:            srv.initialized,
		Shutdown:               srv.shutdown,
		SetTrace:               srv.setTrace,
		TextDocumentDidOpen:    srv.didOpen,
		TextDocumentDidChange:  srv.didChange,
		TextDocumentDidSave:    srv.didSave,
		TextDocumentDidClose:   srv.didClose,
		TextDocumentCodeAction: srv.codeAction,
	}

	return srv
}

// Handler returns the protocol handler table.
func (srv *Server) Handler() *protocol.Handler {
	return &srv.handler
}

// CacheStats reports the detection cache counters.
func (srv *Server) CacheStats() cache.Stats {
	return srv.detections.Stats()
}

// Store returns the open documents.
func (srv *Server) Store() *DocumentStore {
	return srv.store
}

// Run serves the protocol on stdio until the client disconnects.
func (srv *Server) Run() error {
	lspServer := server.NewServer(&srv.handler, serverName, srv.debug)

	err := lspServer.RunStdio()
	if err != nil {
		return fmt.Errorf("lsp server: %w", err)
	}

	return nil
}

func (srv *Server) initialize(_ *glsp.Context, _ *protocol.InitializeParams) (any, error) {
	capabilities := srv.handler.CreateServerCapabilities()

	full := protocol.TextDocumentSyncKindFull
	if opts, ok := capabilities.TextDocumentSync.(*protocol.TextDocumentSyncOptions); ok {
		opts.Change = &full
	}

	capabilities.CodeActionProvider = protocol.CodeActionOptions{
		CodeActionKinds: []protocol.CodeActionKind{protocol.CodeActionKindQuickFix},
	}

	ver := version.Version

	return protocol.InitializeResult{
		Capabilities: capabilities,
		ServerInfo: &protocol.InitializeResultServerInfo{
			Name:    serverName,
			Version: &ver,
		},
	}, nil
}

func (srv *Server) initialized(_ *glsp.Context, _ *protocol.InitializedParams) error {
	return nil
}

func (srv *Server) shutdown(_ *glsp.Context) error {
	protocol.SetTraceValue(protocol.TraceValueOff)

	return nil
}

func (srv *Server) setTrace(_ *glsp.Context, params *protocol.SetTraceParams) error {
	protocol.SetTraceValue(params.Value)

	return nil
}

func (srv *Server) didOpen(ctx *glsp.Context, params *protocol.DidOpenTextDocumentParams) error {
	uri := params.TextDocument.URI

	srv.store.Set(uri, params.TextDocument.Text)

	return srv.observe("didOpen", func(octx context.Context) error {
		return srv.publishDiagnostics(octx, ctx, uri)
	})
}

func (srv *Server) didChange(ctx *glsp.Context, params *protocol.DidChangeTextDocumentParams) error {
	uri := params.TextDocument.URI

	text, _ := srv.store.Get(uri)

	for _, change := range params.ContentChanges {
		text = applyChange(text, change)
	}

	srv.store.Set(uri, text)

	return srv.observe("didChange", func(octx context.Context) error {
		return srv.publishDiagnostics(octx, ctx, uri)
	})
}

func (srv *Server) didSave(ctx *glsp.Context, params *protocol.DidSaveTextDocumentParams) error {
	uri := params.TextDocument.URI

	if params.Text != nil {
		srv.store.Set(uri, *params.Text)
	}

	if _, ok := srv.store.Get(uri); !ok {
		return nil
	}

	return srv.observe("didSave", func(octx context.Context) error {
		return srv.publishDiagnostics(octx, ctx, uri)
	})
}

func (srv *Server) didClose(ctx *glsp.Context, params *protocol.DidCloseTextDocumentParams) error {
	uri := params.TextDocument.URI
	srv.store.Delete(uri)

	ctx.Notify(methodPublishDiagnostics, &protocol.PublishDiagnosticsParams{
		URI:         uri,
		Diagnostics: []protocol.Diagnostic{},
	})

	return nil
}

func (srv *Server) codeAction(_ *glsp.Context, params *protocol.CodeActionParams) (any, error) {
	var actions []protocol.CodeAction

	err := srv.observe("codeAction", func(octx context.Context) error {
		uri := params.TextDocument.URI

		text, ok := srv.store.Get(uri)
		if !ok {
			return nil
		}

		action, found, err := srv.quickFix(octx, uri, text)
		if err != nil || !found {
			return err
		}

		actions = append(actions, action)

		return nil
	})
	if err != nil {
		return nil, err
	}

	return actions, nil
}

// Diagnostics computes one information diagnostic per pending binding of the
// document at uri, positioned at its first use.
func (srv *Server) Diagnostics(ctx context.Context, uri, text string) ([]protocol.Diagnostic, error) {
	det, err := srv.detect(ctx, uri, text)
	if err != nil {
		return nil, fmt.Errorf("diagnostics: %w", err)
	}

	idx := NewLineIndex(text)
	severity := protocol.DiagnosticSeverityInformation
	source := diagnosticSource
	diagnostics := make([]protocol.Diagnostic, 0, len(det.Pending))

	for _, p := range det.Pending {
		diagnostics = append(diagnostics, protocol.Diagnostic{
			Range:    idx.Range(p.First.Start, p.First.End),
			Severity: &severity,
			Code:     &protocol.IntegerOrString{Value: diagnosticCode},
			Source:   &source,
			Message:  fmt.Sprintf("`%s` can be auto-imported from '%s'", p.Binding.FinalName(), p.Binding.From),
		})
	}

	return diagnostics, nil
}

func (srv *Server) quickFix(ctx context.Context, uri, text string) (protocol.CodeAction, bool, error) {
	det, err := srv.detect(ctx, uri, text)
	if err != nil {
		return protocol.CodeAction{}, false, fmt.Errorf("code action: %w", err)
	}

	if len(det.Edits) == 0 {
		return protocol.CodeAction{}, false, nil
	}

	idx := NewLineIndex(text)
	edits := make([]protocol.TextEdit, 0, len(det.Edits))

	for _, e := range det.Edits {
		edits = append(edits, protocol.TextEdit{Range: idx.Range(e.Start, e.End), NewText: e.Text})
	}

	kind := protocol.CodeActionKindQuickFix
	preferred := true

	return protocol.CodeAction{
		Title:       QuickFixTitle,
		Kind:        &kind,
		IsPreferred: &preferred,
		Edit: &protocol.WorkspaceEdit{
			Changes: map[protocol.DocumentUri][]protocol.TextEdit{uri: edits},
		},
	}, true, nil
}

// detect runs the engine on the script blocks of text, reusing the result
// for identical content. Offsets are relative to the whole document.
func (srv *Server) detect(ctx context.Context, uri, text string) (*autoimport.Detection, error) {
	err := ctx.Err()
	if err != nil {
		return nil, err
	}

	component := sourcefile.IsComponent(uri)

	hash := sha256.New()
	if component {
		hash.Write([]byte{componentKey})
	}

	hash.Write([]byte(text))

	var key [sha256.Size]byte

	copy(key[:], hash.Sum(nil))

	if det, ok := srv.detections.Get(key); ok {
		return det, nil
	}

	det := &autoimport.Detection{}

	for _, b := range sourcefile.Scripts(uri, []byte(text)) {
		part, detectErr := srv.engine.DetectImports(ctx, text[b.Start:b.End])
		if detectErr != nil {
			return nil, detectErr
		}

		for _, p := range part.Pending {
			p.First.Start += b.Start
			p.First.End += b.Start
			det.Pending = append(det.Pending, p)
		}

		for _, e := range part.Edits {
			e.Start += b.Start
			e.End += b.Start
			det.Edits = append(det.Edits, e)
		}
	}

	srv.detections.Put(key, det, int64(len(text)))

	return det, nil
}

func (srv *Server) publishDiagnostics(ctx context.Context, gctx *glsp.Context, uri string) error {
	text, ok := srv.store.Get(uri)
	if !ok {
		return nil
	}

	diagnostics, err := srv.Diagnostics(ctx, uri, text)
	if err != nil {
		return err
	}

	gctx.Notify(methodPublishDiagnostics, &protocol.PublishDiagnosticsParams{
		URI:         uri,
		Diagnostics: diagnostics,
	})

	return nil
}

// observe runs fn inside a span and records RED metrics for op.
func (srv *Server) observe(op string, fn func(ctx context.Context) error) error {
	start := time.Now()

	ctx, span := srv.tracer.Start(context.Background(), spanPrefix+op,
		trace.WithSpanKind(trace.SpanKindServer),
		trace.WithAttributes(attribute.String("lsp.method", op)),
	)
	defer span.End()

	if srv.metrics != nil {
		defer srv.metrics.TrackInflight(ctx, spanPrefix+op)()
	}

	err := fn(ctx)

	status := observability.StatusOK
	if err != nil {
		status = observability.StatusError

		observability.RecordSpanError(span, err, observability.ErrTypeInternal)
		srv.logger.ErrorContext(ctx, "lsp request failed", "method", op, "error", err)
	}

	if srv.metrics != nil {
		srv.metrics.RecordRequest(ctx, spanPrefix+op, status, time.Since(start))
	}

	return err
}

// applyChange applies one content change event to text. Whole-document
// events replace the text; ranged events splice it.
func applyChange(text string, change any) string {
	switch ev := change.(type) {
	case protocol.TextDocumentContentChangeEventWhole:
		return ev.Text
	case *protocol.TextDocumentContentChangeEventWhole:
		return ev.Text
	case protocol.TextDocumentContentChangeEvent:
		return splice(text, ev.Range, ev.Text)
	case *protocol.TextDocumentContentChangeEvent:
		return splice(text, ev.Range, ev.Text)
	case map[string]any:
		newText, _ := ev["text"].(string)

		return newText
	default:
		return text
	}
}

func splice(text string, rng *protocol.Range, newText string) string {
	if rng == nil {
		return newText
	}

	idx := NewLineIndex(text)
	start, end := idx.Offset(rng.Start), idx.Offset(rng.End)

	if end < start {
		start, end = end, start
	}

	return text[:start] + newText + text[end:]
}
