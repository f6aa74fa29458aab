package grid

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/npillmayer/schuko/tracing/gotestingadapter"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chazu/alphasquared/pkg/glyph"
	"github.com/chazu/alphasquared/pkg/kernel"
	"github.com/chazu/alphasquared/pkg/kernel/sdfx"
	"github.com/chazu/alphasquared/pkg/outline"
	"github.com/chazu/alphasquared/pkg/plan"
)

const testCells = 32

// memExporter keeps exported meshes in memory.
type memExporter struct {
	mu     sync.Mutex
	meshes map[string]*kernel.Mesh
}

func newMemExporter() *memExporter {
	return &memExporter{meshes: make(map[string]*kernel.Mesh)}
}

func (e *memExporter) Export(name string, m *kernel.Mesh) (string, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.meshes[name] = m
	return "mem:" + name, nil
}

func (e *memExporter) names() []string {
	e.mu.Lock()
	defer e.mu.Unlock()
	var names []string
	for n := range e.meshes {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// countingSource counts extractions and fails for the runes in missing.
type countingSource struct {
	font    *outline.Font
	missing map[rune]bool
	calls   atomic.Int32
}

func (s *countingSource) Extract(r rune, size float64) (*outline.Outline, error) {
	s.calls.Add(1)
	if s.missing[r] {
		return nil, fmt.Errorf("%w: %q", outline.ErrGlyphNotFound, r)
	}
	return s.font.Extract(r, size)
}

func testPlan(first, second string) *plan.Plan {
	p := plan.Default()
	p.Size = 20
	p.First, p.Second = first, second
	p.Workers = 4
	return p
}

func newTestDriver(t *testing.T, p *plan.Plan, src OutlineSource, opts ...Option) (*Driver, *memExporter) {
	t.Helper()
	exp := newMemExporter()
	if src == nil {
		src = outline.DefaultFont()
	}
	opts = append([]Option{
		WithKernel(sdfx.New(sdfx.WithMeshCells(testCells))),
		WithExporter(exp),
	}, opts...)
	d, err := NewDriver(p, src, opts...)
	require.NoError(t, err)
	return d, exp
}

func TestBatchIsolatesPairFailure(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "alphasq.grid")
	defer teardown()

	injected := fmt.Errorf("%w: injected", kernel.ErrBooleanFailure)
	failing := func(k kernel.Kernel, p Pair, a, b kernel.Solid) (kernel.Solid, error) {
		if p.Name == "O8" {
			return nil, injected
		}
		return Cross(k, p, a, b)
	}
	d, exp := newTestDriver(t, testPlan("ABO", "018"), nil, WithComposer(failing))

	report, err := d.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, Done, d.State())

	require.Len(t, report.Keys, 6)
	assert.Len(t, report.BuiltKeys(), 6)
	require.Len(t, report.Pairs, 9)
	assert.Len(t, report.Succeeded(), 8)

	failed := report.Failed()
	require.Len(t, failed, 1)
	assert.Equal(t, "O8", failed[0].Name)
	assert.ErrorIs(t, failed[0].Err, injected)

	fs := report.Failures()
	require.Len(t, fs, 1)
	assert.Equal(t, KindBooleanFailure, fs[0].Kind)
	assert.Equal(t, "O8", fs[0].Key)

	assert.Equal(t, []string{"A0", "A1", "A8", "B0", "B1", "B8", "O0", "O1"}, exp.names())
	for i := 1; i < len(report.Pairs); i++ {
		assert.Less(t, report.Pairs[i-1].Name, report.Pairs[i].Name)
	}
	for _, p := range report.Succeeded() {
		assert.Positive(t, p.Triangles, p.Name)
		assert.Equal(t, "mem:"+p.Name, p.Path)
		assert.Equal(t, p.Name, exp.meshes[p.Name].PartName)
	}
}

func TestStatesAdvanceInOrder(t *testing.T) {
	var seen []string
	observer := func(from, to State) {
		seen = append(seen, from.String()+">"+to.String())
	}
	d, _ := newTestDriver(t, testPlan("I", "I"), nil, WithObserver(observer))
	assert.Equal(t, Idle, d.State())

	_, err := d.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{
		"idle>building-alphabet-1",
		"building-alphabet-1>building-alphabet-2",
		"building-alphabet-2>composing-pairs",
		"composing-pairs>done",
	}, seen)
}

func TestProgressReportsEveryPair(t *testing.T) {
	src := &countingSource{font: outline.DefaultFont(), missing: map[rune]bool{'B': true}}
	var calls, failed atomic.Int32
	var mu sync.Mutex
	var names []string
	progress := func(r PairResult) {
		calls.Add(1)
		if !r.OK() {
			failed.Add(1)
		}
		mu.Lock()
		names = append(names, r.Name)
		mu.Unlock()
	}
	d, _ := newTestDriver(t, testPlan("LB", "IT"), src, WithProgress(progress))

	report, err := d.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int32(len(report.Pairs)), calls.Load())
	assert.Equal(t, int32(len(report.Failed())), failed.Load())
	assert.Equal(t, int32(2), failed.Load())
	sort.Strings(names)
	assert.Equal(t, []string{"BI", "BT", "LI", "LT"}, names)
}

func TestFailedGlyphSkipsItsPairs(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "alphasq.grid")
	defer teardown()

	src := &countingSource{font: outline.DefaultFont(), missing: map[rune]bool{'B': true}}
	d, exp := newTestDriver(t, testPlan("LB", "I"), src)

	report, err := d.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, []string{"LI"}, exp.names())
	failed := report.Failed()
	require.Len(t, failed, 1)
	assert.Equal(t, "BI", failed[0].Name)
	assert.ErrorIs(t, failed[0].Err, ErrDependencyFailed)
	assert.Contains(t, failed[0].Err.Error(), "B/identity/20")

	kinds := map[string]Kind{}
	for _, f := range report.Failures() {
		kinds[f.Key] = f.Kind
	}
	assert.Equal(t, map[string]Kind{
		"B/identity/20": KindGlyphNotFound,
		"BI":            KindDependencyFailed,
	}, kinds)
}

func TestSolidsAreBuiltOncePerKey(t *testing.T) {
	src := &countingSource{font: outline.DefaultFont()}
	p := testPlan("LL", "L")
	p.SecondOrientation = glyph.Identity.Name
	d, exp := newTestDriver(t, p, src)

	report, err := d.Run(context.Background())
	require.NoError(t, err)
	assert.EqualValues(t, 1, src.calls.Load())
	require.Len(t, report.Keys, 1)
	assert.Equal(t, Key{Char: 'L', Orientation: "identity", Thickness: 20}, report.Keys[0].Key)
	// Repeats in an alphabet are dropped before pairing.
	assert.Equal(t, []string{"LL"}, exp.names())
}

func TestOutlinesAreSharedAcrossOrientations(t *testing.T) {
	src := &countingSource{font: outline.DefaultFont()}
	d, _ := newTestDriver(t, testPlan("I", "I"), src)

	report, err := d.Run(context.Background())
	require.NoError(t, err)
	assert.Len(t, report.Keys, 2)
	assert.EqualValues(t, 1, src.calls.Load())
}

func TestRunIsSingleUse(t *testing.T) {
	d, _ := newTestDriver(t, testPlan("I", "I"), nil)
	_, err := d.Run(context.Background())
	require.NoError(t, err)

	_, err = d.Run(context.Background())
	assert.ErrorIs(t, err, ErrIllegalTransition)
}

func TestCancelledRunExportsNothing(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	d, exp := newTestDriver(t, testPlan("AB", "01"), nil)
	report, err := d.Run(ctx)
	assert.ErrorIs(t, err, context.Canceled)
	require.NotNil(t, report)
	assert.Empty(t, report.Pairs)
	assert.Empty(t, exp.names())
	assert.Equal(t, BuildingAlphabet1, d.State())
}

func TestDefaultExporterWritesFiles(t *testing.T) {
	p := testPlan("I", "I")
	p.Output = filepath.Join(t.TempDir(), "out")
	p.Format = "json"
	p.MeshCells = testCells

	d, err := NewDriver(p, outline.DefaultFont())
	require.NoError(t, err)
	report, err := d.Run(context.Background())
	require.NoError(t, err)
	require.Len(t, report.Succeeded(), 1)

	path := filepath.Join(p.Output, "II.json")
	assert.Equal(t, path, report.Pairs[0].Path)
	_, err = os.Stat(path)
	assert.NoError(t, err)
}

func TestNewDriverRejectsUnknownOrientation(t *testing.T) {
	p := testPlan("A", "B")
	p.SecondOrientation = "sideways"
	_, err := NewDriver(p, outline.DefaultFont(), WithExporter(newMemExporter()))
	assert.ErrorIs(t, err, glyph.ErrUnknownOrientation)
}

func TestMachineRefusesSkips(t *testing.T) {
	var m machine
	assert.ErrorIs(t, m.advance(ComposingPairs), ErrIllegalTransition)
	require.NoError(t, m.advance(BuildingAlphabet1))
	assert.ErrorIs(t, m.advance(BuildingAlphabet1), ErrIllegalTransition)
	assert.ErrorIs(t, m.advance(Idle), ErrIllegalTransition)
	require.NoError(t, m.advance(BuildingAlphabet2))
	require.NoError(t, m.advance(ComposingPairs))
	require.NoError(t, m.advance(Done))
	assert.ErrorIs(t, m.advance(Done+1), ErrIllegalTransition)
	assert.Equal(t, Done, m.current())
	assert.Equal(t, "State(7)", State(7).String())
}

func TestForEachBoundsConcurrency(t *testing.T) {
	var running, peak atomic.Int32
	var calls atomic.Int32
	forEach(context.Background(), 3, 40, func(int) {
		n := running.Add(1)
		for {
			p := peak.Load()
			if n <= p || peak.CompareAndSwap(p, n) {
				break
			}
		}
		calls.Add(1)
		running.Add(-1)
	})
	assert.EqualValues(t, 40, calls.Load())
	assert.LessOrEqual(t, peak.Load(), int32(3))
}

func TestClassify(t *testing.T) {
	tests := []struct {
		err  error
		want Kind
	}{
		{fmt.Errorf("x: %w", outline.ErrGlyphNotFound), KindGlyphNotFound},
		{fmt.Errorf("x: %w", glyph.ErrEmptyGlyph), KindEmptyGlyph},
		{fmt.Errorf("x: %w", glyph.ErrUnsupportedTopology), KindUnsupportedTopology},
		{fmt.Errorf("x: %w", kernel.ErrDegenerateBoundary), KindDegenerateBoundary},
		{fmt.Errorf("x: %w", kernel.ErrBooleanFailure), KindBooleanFailure},
		{fmt.Errorf("%w: %w", ErrDependencyFailed, kernel.ErrBooleanFailure), KindDependencyFailed},
		{context.Canceled, KindCancelled},
		{errors.New("disk full"), KindOther},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Classify(tt.err), tt.err.Error())
	}
}

func TestKeyString(t *testing.T) {
	k := Key{Char: 'A', Orientation: "rotate-y-90", Thickness: 12.5}
	assert.Equal(t, "A/rotate-y-90/12.5", k.String())
	assert.Equal(t, "A0", PairName('A', '0'))
}
