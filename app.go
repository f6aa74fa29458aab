package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/npillmayer/schuko/tracing"

	"github.com/chazu/alphasquared/pkg/engine"
	"github.com/chazu/alphasquared/pkg/export"
	"github.com/chazu/alphasquared/pkg/glyph"
	"github.com/chazu/alphasquared/pkg/grid"
	"github.com/chazu/alphasquared/pkg/kernel"
	"github.com/chazu/alphasquared/pkg/kernel/manifold"
	"github.com/chazu/alphasquared/pkg/kernel/sdfx"
	"github.com/chazu/alphasquared/pkg/outline"
	"github.com/chazu/alphasquared/pkg/plan"
	"github.com/chazu/alphasquared/pkg/tessellate"
)

// tracer traces with key 'alphasq.app'
func tracer() tracing.Trace {
	return tracing.Select("alphasq.app")
}

// ErrInvalidPlan is returned when plan validation finds blocking errors.
var ErrInvalidPlan = errors.New("invalid plan")

// App ties job scripts, plan validation and the grid driver together.
// The command line in main.go is a thin layer over it.
type App struct {
	engine *engine.Engine
}

// JobErrors carries the evaluation errors of a job script.
type JobErrors struct {
	Path   string
	Errors []engine.EvalError
}

func (e *JobErrors) Error() string {
	msgs := make([]string, len(e.Errors))
	for i, ee := range e.Errors {
		msgs[i] = ee.Error()
	}
	return fmt.Sprintf("%s: %s", e.Path, strings.Join(msgs, "; "))
}

// NewApp creates a new App with a job script engine.
func NewApp() *App {
	return &App{engine: engine.NewEngine()}
}

// Evaluate runs job script source against base. Script errors come back as
// *JobErrors; fatal evaluation failures (timeout, panic) as plain errors.
func (a *App) Evaluate(name, source string, base *plan.Plan) (*plan.Plan, error) {
	p, evalErrs, err := a.engine.EvaluateFrom(base, source)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", name, err)
	}
	if len(evalErrs) > 0 {
		return nil, &JobErrors{Path: name, Errors: evalErrs}
	}
	return p, nil
}

// LoadJob reads a job script file and evaluates it against base.
func (a *App) LoadJob(path string, base *plan.Plan) (*plan.Plan, error) {
	source, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading job script: %w", err)
	}
	return a.Evaluate(path, string(source), base)
}

// Check validates p. Warnings are traced and returned; any error makes
// the plan unusable.
func (a *App) Check(p *plan.Plan) ([]plan.ValidationError, error) {
	result := plan.ValidateAll(p)
	for _, w := range result.Warnings {
		tracer().Infof("plan: %s", w)
	}
	if !result.OK() {
		return result.Warnings, fmt.Errorf("%w: %w", ErrInvalidPlan, errors.Join(toErrors(result.Errors)...))
	}
	return result.Warnings, nil
}

func toErrors(verrs []plan.ValidationError) []error {
	errs := make([]error, len(verrs))
	for i, e := range verrs {
		errs[i] = e
	}
	return errs
}

// Font loads the plan's font, or the bundled one when none is set. An
// unreadable font is fatal for the whole batch.
func (a *App) Font(p *plan.Plan) (*outline.Font, error) {
	if p.Font == "" {
		return outline.DefaultFont(), nil
	}
	return outline.LoadFont(p.Font)
}

// Kernel creates the geometry kernel the plan names. A kernel that is not
// compiled into this binary is fatal for the whole batch.
func (a *App) Kernel(p *plan.Plan) (kernel.Kernel, error) {
	switch name := p.KernelName(); name {
	case plan.KernelSDF:
		return sdfx.New(sdfx.WithMeshCells(p.MeshCells)), nil
	case plan.KernelManifold:
		return manifold.New()
	default:
		return nil, fmt.Errorf("%w: unknown kernel %q", ErrInvalidPlan, name)
	}
}

// RunBatch validates p and runs every pair of its two alphabets. Options
// given by the caller win over the plan's kernel.
func (a *App) RunBatch(ctx context.Context, p *plan.Plan, opts ...grid.Option) (*grid.Report, error) {
	if _, err := a.Check(p); err != nil {
		return nil, err
	}
	font, err := a.Font(p)
	if err != nil {
		return nil, err
	}
	k, err := a.Kernel(p)
	if err != nil {
		return nil, err
	}
	tracer().Debugf("kernel %s", p.KernelName())
	opts = append([]grid.Option{grid.WithKernel(k)}, opts...)
	d, err := grid.NewDriver(p, font, opts...)
	if err != nil {
		return nil, err
	}
	return d.Run(ctx)
}

// RunPair runs the single pair given as two characters, e.g. "A0".
func (a *App) RunPair(ctx context.Context, p *plan.Plan, pair string, opts ...grid.Option) (*grid.Report, error) {
	runes := []rune(pair)
	if len(runes) != 2 {
		return nil, fmt.Errorf("%w: pair %q must be exactly two characters", ErrInvalidPlan, pair)
	}
	p = p.Clone()
	p.First, p.Second = string(runes[0]), string(runes[1])
	return a.RunBatch(ctx, p, opts...)
}

// GlyphResult is the outcome of single-glyph mode.
type GlyphResult struct {
	Path      string
	Triangles int
	Report    *glyph.BuildReport
}

// RunGlyph builds the net solid of one character in the first orientation
// and exports it under the character's name.
func (a *App) RunGlyph(p *plan.Plan, char string) (*GlyphResult, error) {
	runes := []rune(char)
	if len(runes) != 1 {
		return nil, fmt.Errorf("%w: %q is not a single character", ErrInvalidPlan, char)
	}
	if _, err := a.Check(p); err != nil {
		return nil, err
	}
	font, err := a.Font(p)
	if err != nil {
		return nil, err
	}
	orient, err := glyph.LookupOrientation(p.FirstOrientation)
	if err != nil {
		return nil, err
	}
	format, err := export.ParseFormat(p.Format)
	if err != nil {
		return nil, err
	}
	exp, err := export.NewFileExporter(p.Output, format)
	if err != nil {
		return nil, err
	}

	o, err := font.Extract(runes[0], p.Size)
	if err != nil {
		return nil, err
	}
	k, err := a.Kernel(p)
	if err != nil {
		return nil, err
	}
	solid, report, err := glyph.NewBuilder(k, p.EffectiveThickness()).Build(o, orient)
	if err != nil {
		return &GlyphResult{Report: report}, err
	}
	meshes, err := tessellate.Tessellate(k, tessellate.Part{Name: char, Solid: solid})
	if err != nil {
		return &GlyphResult{Report: report}, err
	}
	mesh := meshes[0]
	path, err := exp.Export(char, mesh)
	if err != nil {
		return &GlyphResult{Report: report}, err
	}
	return &GlyphResult{Path: path, Triangles: mesh.TriangleCount(), Report: report}, nil
}
