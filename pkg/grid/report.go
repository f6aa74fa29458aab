package grid

import (
	"context"
	"errors"
	"slices"
	"strings"

	"github.com/samber/lo"

	"github.com/chazu/alphasquared/pkg/glyph"
	"github.com/chazu/alphasquared/pkg/kernel"
	"github.com/chazu/alphasquared/pkg/outline"
)

// Kind classifies a failure for the run summary.
type Kind string

// Failure kinds, most specific first.
const (
	KindGlyphNotFound       Kind = "glyph-not-found"
	KindDegenerateBoundary  Kind = "degenerate-boundary"
	KindEmptyGlyph          Kind = "empty-glyph"
	KindUnsupportedTopology Kind = "unsupported-topology"
	KindBooleanFailure      Kind = "boolean-failure"
	KindDependencyFailed    Kind = "dependency-failed"
	KindUnsupported         Kind = "unsupported"
	KindCancelled           Kind = "cancelled"
	KindOther               Kind = "error"
)

var kinds = []struct {
	err  error
	kind Kind
}{
	{ErrDependencyFailed, KindDependencyFailed},
	{outline.ErrGlyphNotFound, KindGlyphNotFound},
	{glyph.ErrEmptyGlyph, KindEmptyGlyph},
	{glyph.ErrUnsupportedTopology, KindUnsupportedTopology},
	{kernel.ErrDegenerateBoundary, KindDegenerateBoundary},
	{kernel.ErrBooleanFailure, KindBooleanFailure},
	{kernel.ErrUnsupported, KindUnsupported},
	{context.Canceled, KindCancelled},
	{context.DeadlineExceeded, KindCancelled},
}

// Classify maps an error onto its failure kind.
func Classify(err error) Kind {
	for _, k := range kinds {
		if errors.Is(err, k.err) {
			return k.kind
		}
	}
	return KindOther
}

// Failure is one failed unit of work: a glyph key or a pair.
type Failure struct {
	Key  string // Key.String() of a glyph, or a pair name
	Kind Kind
	Err  error
}

func (f Failure) Error() string {
	return f.Key + ": " + f.Err.Error()
}

func (f Failure) Unwrap() error {
	return f.Err
}

func newFailure(key string, err error) Failure {
	return Failure{Key: key, Kind: Classify(err), Err: err}
}

// KeyResult is the outcome of building one net solid.
type KeyResult struct {
	Key    Key
	Report *glyph.BuildReport // nil when the outline could not be read
	Err    error
}

// PairResult is the outcome of one pair. It is not retained beyond the
// report.
type PairResult struct {
	Pair
	Path      string // exported file, empty on failure
	Triangles int
	Err       error
}

// OK reports whether the pair was exported.
func (r PairResult) OK() bool {
	return r.Err == nil
}

// Report summarises a run. Keys are sorted by Key.String(), pairs by name.
type Report struct {
	Keys  []KeyResult
	Pairs []PairResult
}

func (r *Report) sort() {
	slices.SortFunc(r.Keys, func(a, b KeyResult) int {
		return strings.Compare(a.Key.String(), b.Key.String())
	})
	slices.SortFunc(r.Pairs, func(a, b PairResult) int {
		return strings.Compare(a.Name, b.Name)
	})
}

// Succeeded returns the exported pairs.
func (r *Report) Succeeded() []PairResult {
	return lo.Filter(r.Pairs, func(p PairResult, _ int) bool { return p.OK() })
}

// Failed returns the pairs that were not exported.
func (r *Report) Failed() []PairResult {
	return lo.Filter(r.Pairs, func(p PairResult, _ int) bool { return !p.OK() })
}

// BuiltKeys returns the keys whose solid was built.
func (r *Report) BuiltKeys() []Key {
	return lo.FilterMap(r.Keys, func(k KeyResult, _ int) (Key, bool) { return k.Key, k.Err == nil })
}

// Failures lists every failed key, then every failed pair.
func (r *Report) Failures() []Failure {
	var fs []Failure
	for _, k := range r.Keys {
		if k.Err != nil {
			fs = append(fs, newFailure(k.Key.String(), k.Err))
		}
	}
	for _, p := range r.Pairs {
		if p.Err != nil {
			fs = append(fs, newFailure(p.Name, p.Err))
		}
	}
	return fs
}
