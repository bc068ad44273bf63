package cli

import (
	"context"
	"log/slog"

	"github.com/chazu/horologe/pkg/config"
	"github.com/chazu/horologe/pkg/engine"
	"github.com/chazu/horologe/pkg/graph"
	"github.com/chazu/horologe/pkg/kernel"
	"github.com/chazu/horologe/pkg/kernel/sdfx"
	"github.com/chazu/horologe/pkg/tessellate"
)

// App runs the movement pipeline: script or manifest, then movement graph,
// then validation, then part outlines.
type App struct {
	engine *engine.Engine
	kernel kernel.Kernel
	log    *slog.Logger
}

// PartData summarises one flattened part outline.
type PartData struct {
	PartName  string  `json:"partName"`
	Vertices  int     `json:"vertices"`
	Area      float64 `json:"area"`
	Perimeter float64 `json:"perimeter"`
}

// Problem is an evaluation error or warning with its source position, if
// known.
type Problem struct {
	Line    int    `json:"line"`
	Col     int    `json:"col"`
	Message string `json:"message"`
}

// Result is everything one evaluation produced.
type Result struct {
	Graph    *graph.MovementGraph `json:"-"`
	Parts    []PartData           `json:"parts"`
	Errors   []Problem            `json:"errors"`
	Warnings []Problem            `json:"warnings"`
}

// NewApp creates an App with a fresh engine and the sdfx kernel.
func NewApp(log *slog.Logger) *App {
	if log == nil {
		log = slog.Default()
	}
	return &App{
		engine: engine.NewEngine().WithLogger(log),
		kernel: sdfx.New(),
		log:    log.With("component", "app"),
	}
}

func newResult() Result {
	return Result{
		Parts:    []PartData{},
		Errors:   []Problem{},
		Warnings: []Problem{},
	}
}

// Evaluate runs a movement script and outlines its parts when outlines is
// set.
func (a *App) Evaluate(ctx context.Context, source string, outlines bool) Result {
	result := newResult()

	// Step 1: Evaluate the script into a movement graph and validate it.
	res, err := a.engine.Run(ctx, source)
	if err != nil {
		// Fatal error (panic, timeout, cancellation)
		a.log.Error("evaluate fatal error", "err", err)
		result.Errors = append(result.Errors, Problem{Message: err.Error()})
		return result
	}

	// Step 2: Convert eval errors and warnings.
	for _, e := range res.Errors {
		result.Errors = append(result.Errors, Problem{Line: e.Line, Col: e.Col, Message: e.Message})
	}
	for _, w := range res.Warnings {
		result.Warnings = append(result.Warnings, Problem{Line: w.Line, Col: w.Col, Message: w.Message})
	}
	if res.Graph == nil {
		return result
	}
	result.Graph = res.Graph
	if len(result.Errors) > 0 || !outlines {
		return result
	}

	// Step 3: Outline the parts.
	return a.outline(result)
}

// LoadManifest builds the movement a TOML manifest describes over base.
func (a *App) LoadManifest(ctx context.Context, data []byte, base config.Config, outlines bool) Result {
	result := newResult()

	m, err := config.ParseManifest(data, base)
	if err != nil {
		result.Errors = append(result.Errors, Problem{Message: err.Error()})
		return result
	}
	g, err := engine.BuildManifest(ctx, m)
	if err != nil {
		a.log.Error("manifest failed", "movement", m.Movement.Name, "err", err)
		result.Errors = append(result.Errors, Problem{Message: err.Error()})
		return result
	}
	result.Graph = g

	vr := graph.ValidateAll(g)
	for _, e := range vr.Errors {
		result.Errors = append(result.Errors, Problem{Message: e.Error()})
	}
	for _, w := range vr.Warnings {
		result.Warnings = append(result.Warnings, Problem{Message: w.Message})
	}
	if len(result.Errors) > 0 || !outlines {
		return result
	}
	return a.outline(result)
}

func (a *App) outline(result Result) Result {
	parts, err := tessellate.Movement(result.Graph, a.kernel)
	if err != nil {
		a.log.Error("tessellate error", "err", err)
		result.Errors = append(result.Errors, Problem{Message: "outlining failed: " + err.Error()})
		return result
	}
	for _, o := range parts {
		result.Parts = append(result.Parts, PartData{
			PartName:  o.PartName,
			Vertices:  o.VertexCount(),
			Area:      o.Area(),
			Perimeter: o.Perimeter(),
		})
	}
	return result
}
