package grid

import (
	"context"
	"fmt"
	"runtime"
	"sync"

	"github.com/chazu/alphasquared/pkg/export"
	"github.com/chazu/alphasquared/pkg/glyph"
	"github.com/chazu/alphasquared/pkg/kernel"
	"github.com/chazu/alphasquared/pkg/kernel/sdfx"
	"github.com/chazu/alphasquared/pkg/outline"
	"github.com/chazu/alphasquared/pkg/plan"
	"github.com/chazu/alphasquared/pkg/tessellate"
)

// OutlineSource supplies glyph outlines. *outline.Font is one.
type OutlineSource interface {
	Extract(r rune, size float64) (*outline.Outline, error)
}

// Composer turns the two solids of a pair into its cross-shape.
type Composer func(k kernel.Kernel, p Pair, a, b kernel.Solid) (kernel.Solid, error)

// Cross is the default composer, the intersection of both solids.
func Cross(k kernel.Kernel, _ Pair, a, b kernel.Solid) (kernel.Solid, error) {
	return glyph.Cross(k, a, b)
}

// Option configures a Driver.
type Option func(*Driver)

// WithKernel sets the geometry kernel. The default is the sdfx kernel at
// the plan's mesh resolution.
func WithKernel(k kernel.Kernel) Option {
	return func(d *Driver) { d.k = k }
}

// WithExporter sets where finished pairs go. The default writes files of
// the plan's format into the plan's output directory.
func WithExporter(e export.Exporter) Option {
	return func(d *Driver) { d.exporter = e }
}

// WithComposer replaces the pair composer.
func WithComposer(c Composer) Option {
	return func(d *Driver) { d.compose = c }
}

// WithWorkers bounds the number of concurrent builds and pairs.
func WithWorkers(n int) Option {
	return func(d *Driver) { d.workers = n }
}

// WithObserver registers a state transition observer.
func WithObserver(o Observer) Option {
	return func(d *Driver) { d.machine.observers = append(d.machine.observers, o) }
}

// WithProgress registers a callback invoked once per finished pair, from
// the worker that finished it.
func WithProgress(f func(PairResult)) Option {
	return func(d *Driver) { d.progress = f }
}

// Driver runs one batch. It is single use.
type Driver struct {
	plan      *plan.Plan
	src       OutlineSource
	k         kernel.Kernel
	exporter  export.Exporter
	compose   Composer
	workers   int
	progress  func(PairResult)
	orient    [2]glyph.Orientation
	thickness float64

	machine  machine
	outlines outlineCache
	solids   map[Key]kernel.Solid // written between phases only
	results  map[Key]KeyResult
}

// NewDriver prepares a batch for p, reading glyphs from src. Failing to
// resolve an orientation or to create the output directory is fatal.
func NewDriver(p *plan.Plan, src OutlineSource, opts ...Option) (*Driver, error) {
	d := &Driver{
		plan:      p.Clone(),
		src:       src,
		compose:   Cross,
		workers:   p.Workers,
		thickness: p.EffectiveThickness(),
		solids:    make(map[Key]kernel.Solid),
		results:   make(map[Key]KeyResult),
	}
	for _, opt := range opts {
		opt(d)
	}
	for i, name := range []string{p.FirstOrientation, p.SecondOrientation} {
		o, err := glyph.LookupOrientation(name)
		if err != nil {
			return nil, err
		}
		d.orient[i] = o
	}
	if d.workers <= 0 {
		d.workers = runtime.NumCPU()
	}
	if d.k == nil {
		d.k = sdfx.New(sdfx.WithMeshCells(p.MeshCells))
	}
	if d.exporter == nil {
		format, err := export.ParseFormat(p.Format)
		if err != nil {
			return nil, err
		}
		if d.exporter, err = export.NewFileExporter(p.Output, format); err != nil {
			return nil, err
		}
	}
	return d, nil
}

// State returns the current state of the run.
func (d *Driver) State() State {
	return d.machine.current()
}

// Kernel returns the geometry kernel in use.
func (d *Driver) Kernel() kernel.Kernel {
	return d.k
}

// Run executes the batch. The returned error is non-nil only when the run
// was cancelled or the driver was already used; failures of single glyphs
// or pairs are listed in the report instead. On cancellation no new work
// is started and files already exported are left in place.
func (d *Driver) Run(ctx context.Context) (*Report, error) {
	if err := d.machine.advance(BuildingAlphabet1); err != nil {
		return nil, fmt.Errorf("grid: driver already ran: %w", err)
	}
	report := &Report{}
	tracer().Infof("batch: %s", d.plan)

	if err := d.buildAlphabet(ctx, d.plan.Alphabet1(), d.orient[0]); err != nil {
		return d.finish(report), err
	}
	if err := d.machine.advance(BuildingAlphabet2); err != nil {
		return nil, err
	}
	if err := d.buildAlphabet(ctx, d.plan.Alphabet2(), d.orient[1]); err != nil {
		return d.finish(report), err
	}
	if err := d.machine.advance(ComposingPairs); err != nil {
		return nil, err
	}
	report.Pairs = d.composePairs(ctx)
	d.finish(report)
	if err := ctx.Err(); err != nil {
		return report, err
	}
	if err := d.machine.advance(Done); err != nil {
		return nil, err
	}
	tracer().Infof("batch done: %d pairs exported, %d failed", len(report.Succeeded()), len(report.Failed()))
	return report, nil
}

func (d *Driver) finish(r *Report) *Report {
	r.Keys = r.Keys[:0]
	for _, kr := range d.results {
		r.Keys = append(r.Keys, kr)
	}
	r.sort()
	return r
}

func (d *Driver) key(r rune, o glyph.Orientation) Key {
	return Key{Char: r, Orientation: o.Name, Thickness: d.thickness}
}

// buildAlphabet builds the solids of every key of the alphabet that is not
// cached yet, then publishes them.
func (d *Driver) buildAlphabet(ctx context.Context, alphabet []rune, o glyph.Orientation) error {
	var todo []Key
	for _, r := range alphabet {
		k := d.key(r, o)
		if _, done := d.results[k]; !done {
			todo = append(todo, k)
		}
	}
	tracer().Debugf("building %d solids in %s", len(todo), o.Name)

	builder := glyph.NewBuilder(d.k, d.thickness)
	built := make([]kernel.Solid, len(todo))
	results := make([]KeyResult, len(todo))
	forEach(ctx, d.workers, len(todo), func(i int) {
		k := todo[i]
		results[i] = KeyResult{Key: k}
		ol, err := d.outlines.get(d.src, k.Char, d.plan.Size)
		if err != nil {
			results[i].Err = err
		} else {
			built[i], results[i].Report, results[i].Err = builder.Build(ol, o)
		}
		if results[i].Err != nil {
			tracer().Errorf("%s: %v", k, results[i].Err)
		}
	})
	if err := ctx.Err(); err != nil {
		return err
	}
	for i, k := range todo {
		d.results[k] = results[i]
		if results[i].Err == nil {
			d.solids[k] = built[i]
		}
	}
	return nil
}

// composePairs runs every pair of the two alphabets. Pairs never started
// because of cancellation are reported with the context error.
func (d *Driver) composePairs(ctx context.Context) []PairResult {
	var pairs []Pair
	for _, a := range d.plan.Alphabet1() {
		for _, b := range d.plan.Alphabet2() {
			pairs = append(pairs, Pair{
				Name: PairName(a, b),
				A:    d.key(a, d.orient[0]),
				B:    d.key(b, d.orient[1]),
			})
		}
	}

	results := make([]PairResult, len(pairs))
	started := make([]bool, len(pairs))
	forEach(ctx, d.workers, len(pairs), func(i int) {
		started[i] = true
		results[i] = d.composePair(pairs[i])
		if d.progress != nil {
			d.progress(results[i])
		}
	})
	for i := range pairs {
		if !started[i] {
			results[i] = PairResult{Pair: pairs[i], Err: ctx.Err()}
		}
	}
	return results
}

func (d *Driver) composePair(p Pair) PairResult {
	res := PairResult{Pair: p}
	a, okA := d.solids[p.A]
	b, okB := d.solids[p.B]
	switch {
	case !okA:
		res.Err = fmt.Errorf("%w: %s", ErrDependencyFailed, p.A)
	case !okB:
		res.Err = fmt.Errorf("%w: %s", ErrDependencyFailed, p.B)
	}
	if res.Err != nil {
		tracer().Infof("pair %s skipped: %v", p.Name, res.Err)
		return res
	}

	s, err := d.compose(d.k, p, a, b)
	if err != nil {
		res.Err = err
		tracer().Errorf("pair %s: %v", p.Name, err)
		return res
	}
	mesh, err := tessellate.Mesh(d.k, p.Name, s)
	if err != nil {
		res.Err = err
		tracer().Errorf("pair %s: %v", p.Name, err)
		return res
	}
	if res.Path, err = d.exporter.Export(p.Name, mesh); err != nil {
		res.Err = err
		tracer().Errorf("pair %s: %v", p.Name, err)
		return res
	}
	res.Triangles = mesh.TriangleCount()
	return res
}

// forEach calls fn(i) for i in [0, n) on at most workers goroutines. Once
// ctx is done no further calls are started; forEach still waits for the
// running ones.
func forEach(ctx context.Context, workers, n int, fn func(i int)) {
	sem := make(chan struct{}, workers)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		select {
		case <-ctx.Done():
			wg.Wait()
			return
		case sem <- struct{}{}:
		}
		if ctx.Err() != nil {
			<-sem
			break
		}
		wg.Add(1)
		go func(i int) {
			defer func() {
				<-sem
				wg.Done()
			}()
			fn(i)
		}(i)
	}
	wg.Wait()
}

// outlineCache memoises outlines per rune. Each rune is extracted once,
// even when both alphabets ask for it at the same time.
type outlineCache struct {
	mu      sync.Mutex
	entries map[rune]*outlineEntry
}

type outlineEntry struct {
	once sync.Once
	o    *outline.Outline
	err  error
}

func (c *outlineCache) get(src OutlineSource, r rune, size float64) (*outline.Outline, error) {
	c.mu.Lock()
	if c.entries == nil {
		c.entries = make(map[rune]*outlineEntry)
	}
	e, ok := c.entries[r]
	if !ok {
		e = &outlineEntry{}
		c.entries[r] = e
	}
	c.mu.Unlock()

	e.once.Do(func() {
		e.o, e.err = src.Extract(r, size)
	})
	return e.o, e.err
}
