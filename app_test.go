package main

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/chazu/alphasquared/pkg/plan"
)

// TestE2ESmallJob exercises the full pipeline: job script → plan →
// outlines → net solids → cross-shapes → exported files.
func TestE2ESmallJob(t *testing.T) {
	app := NewApp()

	p, err := app.LoadJob("examples/small.lisp", plan.Default())
	if err != nil {
		t.Fatalf("failed to load small.lisp: %v", err)
	}
	p.Output = filepath.Join(t.TempDir(), "small")

	report, err := app.RunBatch(context.Background(), p)
	if err != nil {
		t.Fatalf("batch failed: %v", err)
	}

	// 3 × 3 pairs, 3 + 3 solids.
	if len(report.Pairs) != 9 {
		t.Fatalf("expected 9 pairs, got %d", len(report.Pairs))
	}
	if n := len(report.BuiltKeys()); n != 6 {
		t.Errorf("expected 6 solids, got %d", n)
	}
	for _, f := range report.Failures() {
		t.Errorf("unexpected failure %s (%s): %v", f.Key, f.Kind, f.Err)
	}

	for _, name := range []string{"I0", "I1", "I7", "L0", "L1", "L7", "O0", "O1", "O7"} {
		path := filepath.Join(p.Output, name+".json")
		info, err := os.Stat(path)
		if err != nil {
			t.Errorf("missing output for pair %q: %v", name, err)
			continue
		}
		if info.Size() == 0 {
			t.Errorf("pair %q: empty file", name)
		}
	}
}

// TestE2EShowcaseJobParses checks the full-size example without running it.
func TestE2EShowcaseJobParses(t *testing.T) {
	app := NewApp()
	p, err := app.LoadJob("examples/showcase.lisp", plan.Default())
	if err != nil {
		t.Fatalf("failed to load showcase.lisp: %v", err)
	}
	if got := p.PairCount(); got != 36*36 {
		t.Errorf("expected 1296 pairs, got %d", got)
	}
	if _, err := app.Check(p); err != nil {
		t.Errorf("showcase plan invalid: %v", err)
	}
}

// TestE2ESingleGlyph ensures single-glyph mode writes one file named after
// the character.
func TestE2ESingleGlyph(t *testing.T) {
	app := NewApp()
	p := plan.Default()
	p.Size = 20
	p.MeshCells = 32
	p.Output = t.TempDir()

	res, err := app.RunGlyph(p, "O")
	if err != nil {
		t.Fatalf("RunGlyph failed: %v", err)
	}
	if res.Path != filepath.Join(p.Output, "O.stl") {
		t.Errorf("unexpected path %q", res.Path)
	}
	if res.Triangles == 0 {
		t.Error("expected triangles")
	}
	if res.Report.Faces != 2 {
		t.Errorf("expected 2 faces for O, got %d", res.Report.Faces)
	}
}

// TestE2ESinglePair ensures pair mode runs exactly one pair.
func TestE2ESinglePair(t *testing.T) {
	app := NewApp()
	p := plan.Default()
	p.Size = 20
	p.MeshCells = 32
	p.Output = t.TempDir()

	report, err := app.RunPair(context.Background(), p, "T7")
	if err != nil {
		t.Fatalf("RunPair failed: %v", err)
	}
	if len(report.Pairs) != 1 || report.Pairs[0].Name != "T7" {
		t.Fatalf("expected the single pair T7, got %+v", report.Pairs)
	}
	if !report.Pairs[0].OK() {
		t.Fatalf("pair failed: %v", report.Pairs[0].Err)
	}
	if _, err := os.Stat(filepath.Join(p.Output, "T7.stl")); err != nil {
		t.Errorf("missing T7.stl: %v", err)
	}
}
