// Command alphasquared turns pairs of characters into cross-shaped solids
// that read as one character from the front and another from the side.
//
// Usage:
//
//	alphasquared [flags] [font]
//
// Without -char or -pair every character of the first alphabet is crossed
// with every character of the second one. A job script (-job) sets up the
// plan; flags given on the command line override it. A font file may be
// given as the only argument instead of -font.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"sync"

	"github.com/npillmayer/schuko/schukonf/testconfig"
	"github.com/npillmayer/schuko/tracing"
	"github.com/npillmayer/schuko/tracing/gologadapter"
	"github.com/npillmayer/schuko/tracing/trace2go"
	"github.com/pterm/pterm"

	"github.com/chazu/alphasquared/pkg/grid"
	"github.com/chazu/alphasquared/pkg/plan"
)

var traceKeys = []string{
	"alphasq.app", "alphasq.outline", "alphasq.glyph", "alphasq.kernel",
	"alphasq.tessellate", "alphasq.export", "alphasq.engine", "alphasq.grid",
}

func main() {
	os.Exit(run(os.Args[1:]))
}

// run parses the command line and returns the process exit code, so that
// deferred cleanup happens before main exits.
func run(args []string) int {
	initDisplay()

	fs := flag.NewFlagSet("alphasquared", flag.ContinueOnError)
	font := fs.String("font", "", "Font file (default: bundled Go Regular)")
	out := fs.String("o", "", "Output directory (default \"output\")")
	char := fs.String("char", "", "Build the solid of a single character")
	pair := fs.String("pair", "", "Build a single pair, e.g. A0")
	job := fs.String("job", "", "Job script to set up the plan")
	size := fs.Float64("size", 0, "Size in millimetres per em (default 40)")
	thickness := fs.Float64("thickness", 0, "Extrusion thickness in millimetres (default: size)")
	first := fs.String("first", "", "First alphabet (default A-Z0-9)")
	second := fs.String("second", "", "Second alphabet (default A-Z0-9)")
	orient1 := fs.String("first-orientation", "", "Orientation of the first alphabet")
	orient2 := fs.String("second-orientation", "", "Orientation of the second alphabet")
	format := fs.String("format", "", "Export format [stl|json] (default stl)")
	workers := fs.Int("workers", 0, "Concurrent workers (default: one per CPU)")
	cells := fs.Int("cells", 0, "Marching cubes resolution (default 128)")
	kern := fs.String("kernel", "", "Geometry kernel [sdfx|manifold] (default sdfx)")
	tlevel := fs.String("trace", "Info", "Trace level [Debug|Info|Error]")
	if err := fs.Parse(args); err != nil {
		return 2
	}

	if err := initTracing(*tlevel); err != nil {
		pterm.Error.Println(err.Error())
		return 1
	}
	if fs.NArg() > 1 {
		pterm.Error.Printf("expected at most one font argument, got %d\n", fs.NArg())
		return 2
	}

	app := NewApp()
	p := plan.Default()
	if *job != "" {
		var err error
		if p, err = app.LoadJob(*job, p); err != nil {
			reportJobError(err)
			return 2
		}
	}
	if fs.NArg() == 1 {
		p.Font = fs.Arg(0)
	}

	// Flags given explicitly win over the job script.
	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "font":
			p.Font = *font
		case "o":
			p.Output = *out
		case "size":
			p.Size = *size
		case "thickness":
			p.Thickness = *thickness
		case "first":
			p.First = *first
		case "second":
			p.Second = *second
		case "first-orientation":
			p.FirstOrientation = *orient1
		case "second-orientation":
			p.SecondOrientation = *orient2
		case "format":
			p.Format = *format
		case "workers":
			p.Workers = *workers
		case "cells":
			p.MeshCells = *cells
		case "kernel":
			p.Kernel = *kern
		}
	})
	tracer().Debugf("plan: %s", p)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	switch {
	case *char != "":
		return runGlyph(app, p, *char)
	case *pair != "":
		pterm.Info.Printf("Building pair %s with %s\n", *pair, p.KernelName())
		report, err := app.RunPair(ctx, p, *pair, grid.WithProgress(printPair))
		return summarize(report, err)
	default:
		pterm.Info.Printf("Crossing %d × %d characters into %s with %s\n",
			len(p.Alphabet1()), len(p.Alphabet2()), p.Output, p.KernelName())
		report, err := app.RunBatch(ctx, p,
			grid.WithObserver(func(_, to grid.State) {
				tracer().Infof("%s", to)
			}),
			grid.WithProgress(printPair))
		return summarize(report, err)
	}
}

// printMu serializes progress lines; pairs finish on several workers.
var printMu sync.Mutex

// printPair prints one line per finished pair.
func printPair(r grid.PairResult) {
	printMu.Lock()
	defer printMu.Unlock()
	if r.OK() {
		pterm.Success.Printf("%s: %d triangles -> %s\n", r.Name, r.Triangles, r.Path)
		return
	}
	pterm.Warning.Printf("%s: %v\n", r.Name, r.Err)
}

// We use pterm for moderately fancy output.
func initDisplay() {
	pterm.Info.Prefix = pterm.Prefix{
		Text:  " !  ",
		Style: pterm.NewStyle(pterm.BgCyan, pterm.FgBlack),
	}
	pterm.Error.Prefix = pterm.Prefix{
		Text:  " Error",
		Style: pterm.NewStyle(pterm.BgRed, pterm.FgBlack),
	}
}

func initTracing(level string) error {
	tracing.RegisterTraceAdapter("go", gologadapter.GetAdapter(), false)
	conf := testconfig.Conf{"tracing.adapter": "go"}
	for _, key := range traceKeys {
		conf["trace."+key] = "Info"
	}
	if err := trace2go.ConfigureRoot(conf, "trace", trace2go.ReplaceTracers(true)); err != nil {
		return fmt.Errorf("error configuring tracing: %w", err)
	}
	tracing.SetTraceSelector(trace2go.Selector())

	for _, key := range traceKeys {
		t := tracing.Select(key)
		switch level {
		case "Debug":
			t.SetTraceLevel(tracing.LevelDebug)
		case "Info":
			t.SetTraceLevel(tracing.LevelInfo)
		case "Error":
			t.SetTraceLevel(tracing.LevelError)
		default:
			return fmt.Errorf("invalid trace level: %s", level)
		}
	}
	return nil
}

func reportJobError(err error) {
	var jobErrs *JobErrors
	if !errors.As(err, &jobErrs) {
		pterm.Error.Println(err.Error())
		return
	}
	for _, e := range jobErrs.Errors {
		pterm.Error.Printf("%s: %s\n", jobErrs.Path, e.Error())
	}
}

func runGlyph(app *App, p *plan.Plan, char string) int {
	res, err := app.RunGlyph(p, char)
	if res != nil && res.Report != nil {
		for _, s := range res.Report.Skipped {
			pterm.Warning.Printf("%s: %v\n", char, s)
		}
	}
	if err != nil {
		pterm.Error.Println(err.Error())
		return 1
	}
	pterm.Success.Printf("%s: %d triangles -> %s\n", char, res.Triangles, res.Path)
	return 0
}

// summarize prints the run summary and returns the exit code: 0 when every
// pair was exported, 1 when some failed, 2 when the batch could not run.
func summarize(report *grid.Report, err error) int {
	if report == nil {
		pterm.Error.Println(err.Error())
		return 2
	}
	failures := report.Failures()
	if len(failures) > 0 {
		data := [][]string{{"Key", "Kind", "Error"}}
		for _, f := range failures {
			data = append(data, []string{f.Key, string(f.Kind), f.Err.Error()})
		}
		pterm.DefaultTable.WithHasHeader().WithData(data).Render()
	}
	pterm.Info.Printf("%d solids built, %d pairs exported, %d pairs failed\n",
		len(report.BuiltKeys()), len(report.Succeeded()), len(report.Failed()))
	if err != nil {
		pterm.Error.Println(err.Error())
		return 2
	}
	if len(failures) > 0 {
		return 1
	}
	return 0
}
