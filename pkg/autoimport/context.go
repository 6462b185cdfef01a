// Package autoimport wires the registry, scanner, resolver, injector and
// metadata tracker into one reusable engine.
//
// A Context is built once from a Config and is safe for concurrent use:
//
//	engine, err := autoimport.New(autoimport.Config{
//		Imports: []registry.Binding{{Name: "ref", From: "vue"}},
//	})
//	if err != nil {
//		return err
//	}
//
//	res, err := engine.InjectImports(ctx, code, "src/App.vue")
package autoimport

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/Sumatoshi-tech/autoimport/pkg/injector"
	"github.com/Sumatoshi-tech/autoimport/pkg/metadata"
	"github.com/Sumatoshi-tech/autoimport/pkg/registry"
	"github.com/Sumatoshi-tech/autoimport/pkg/resolver"
	"github.com/Sumatoshi-tech/autoimport/pkg/scanner"
)

const (
	tracerName = "autoimport"

	attrModuleID = "autoimport.module_id"
	attrInjected = "autoimport.injected"
	attrPending  = "autoimport.pending"
	attrBytes    = "autoimport.source_bytes"
)

// Config is the resolved engine configuration.
type Config struct {
	// Imports is the catalog of auto-importable bindings.
	Imports []registry.Binding

	// MergeExisting adds names to an existing named import of the same module.
	MergeExisting bool

	// InjectAtEnd places each module's declaration after the last import
	// declaration that precedes its first use.
	InjectAtEnd bool

	// CollectMeta enables usage tracking exposed by Metadata.
	CollectMeta bool
}

// Result is the outcome of InjectImports.
type Result struct {
	// Code is the rewritten source, identical to the input when nothing was injected.
	Code string `json:"code"`

	// Injected lists the supplied bindings in registration order.
	Injected []registry.Binding `json:"injected"`

	// Edits are the substitutions applied to the input.
	Edits []injector.Edit `json:"edits"`
}

// Changed reports whether the code was rewritten.
func (r *Result) Changed() bool {
	return len(r.Edits) > 0
}

// Detection is the outcome of DetectImports.
type Detection struct {
	Pending []resolver.Pending `json:"pending"`

	// Edits are the substitutions InjectImports would apply.
	Edits []injector.Edit `json:"edits"`
}

// Context is a configured auto-import engine.
type Context struct {
	cfg      Config
	registry *registry.Registry
	injector *injector.Injector
	tracker  *metadata.Tracker

	logger   *slog.Logger
	tracer   trace.Tracer
	recorder Recorder
}

// New validates cfg and builds a Context. Duplicate final names in the
// catalog are resolved last-wins and logged at warn level.
func New(cfg Config, opts ...Option) (*Context, error) {
	reg, err := registry.New(cfg.Imports)
	if err != nil {
		return nil, fmt.Errorf("build registry: %w", err)
	}

	placement := injector.PlacementLeading
	if cfg.InjectAtEnd {
		placement = injector.PlacementFirstUse
	}

	c := &Context{
		cfg:      cfg,
		registry: reg,
		injector: injector.New(injector.Options{MergeExisting: cfg.MergeExisting, Placement: placement}),
		tracker:  metadata.NewTracker(),
		logger:   slog.Default(),
		tracer:   otel.Tracer(tracerName),
	}

	for _, opt := range opts {
		opt(c)
	}

	for _, dup := range reg.Duplicates() {
		c.logger.Warn("duplicate auto-import name, last registration wins",
			"name", dup.Winner.As,
			"replaced_from", dup.Replaced.From,
			"winner_from", dup.Winner.From,
		)
	}

	return c, nil
}

// Registry returns the normalized catalog.
func (c *Context) Registry() *registry.Registry {
	return c.registry
}

// Config returns the configuration the Context was built from.
func (c *Context) Config() Config {
	return c.cfg
}

// InjectImports adds the missing import declarations to code. moduleID names
// the source for metadata and may be empty. A cancelled ctx yields an error
// and leaves metadata untouched.
func (c *Context) InjectImports(ctx context.Context, code, moduleID string) (*Result, error) {
	start := time.Now()

	ctx, span := c.tracer.Start(ctx, "autoimport.InjectImports",
		trace.WithAttributes(
			attribute.String(attrModuleID, moduleID),
			attribute.Int(attrBytes, len(code)),
		),
	)
	defer span.End()

	err := ctx.Err()
	if err != nil {
		return nil, c.fail(span, "inject imports", err)
	}

	res := scanner.Scan(code)
	pending := resolver.Resolve(res, c.registry)
	plan := c.injector.Plan(res, pending)

	out, err := injector.ApplyEdits(code, plan.Edits)
	if err != nil {
		return nil, c.fail(span, "inject imports", err)
	}

	err = ctx.Err()
	if err != nil {
		return nil, c.fail(span, "inject imports", err)
	}

	if c.cfg.CollectMeta {
		c.tracker.Record(plan.Injected, moduleID)
	}

	if c.recorder != nil {
		c.recorder.RecordInjection(ctx, moduleID, len(plan.Injected), time.Since(start))
	}

	span.SetAttributes(attribute.Int(attrInjected, len(plan.Injected)))

	if len(plan.Injected) > 0 {
		c.logger.DebugContext(ctx, "imports injected",
			"module", moduleID,
			"names", resolver.Names(pending),
		)
	}

	return &Result{Code: out, Injected: plan.Injected, Edits: plan.Edits}, nil
}

// DetectImports reports the bindings code uses without importing them. It
// never rewrites code and never records metadata.
func (c *Context) DetectImports(ctx context.Context, code string) (*Detection, error) {
	ctx, span := c.tracer.Start(ctx, "autoimport.DetectImports",
		trace.WithAttributes(attribute.Int(attrBytes, len(code))),
	)
	defer span.End()

	err := ctx.Err()
	if err != nil {
		return nil, c.fail(span, "detect imports", err)
	}

	res := scanner.Scan(code)
	pending := resolver.Resolve(res, c.registry)
	plan := c.injector.Plan(res, pending)

	span.SetAttributes(attribute.Int(attrPending, len(pending)))

	return &Detection{Pending: pending, Edits: plan.Edits}, nil
}

// Metadata returns a copy of the usage collected so far. It is empty unless
// CollectMeta is set.
func (c *Context) Metadata() metadata.Snapshot {
	return c.tracker.Snapshot()
}

func (c *Context) fail(span trace.Span, op string, err error) error {
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())

	return fmt.Errorf("%s: %w", op, err)
}
