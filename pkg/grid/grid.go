// Package grid drives a batch: it builds one net solid per oriented glyph
// for both alphabets, then intersects every pair of them and hands each
// cross-shape to an exporter.
//
// Solids are built at most once per Key and cached for the rest of the
// batch. The cache is filled by the coordinating goroutine after each
// build phase and is read-only while pairs are composed, so pairs run in
// parallel without locking. A failure is confined to the glyph or pair
// that caused it; pairs that need a failed glyph are skipped and reported.
package grid

import (
	"errors"
	"fmt"

	"github.com/npillmayer/schuko/tracing"
)

// tracer traces with key 'alphasq.grid'
func tracer() tracing.Trace {
	return tracing.Select("alphasq.grid")
}

var (
	// ErrDependencyFailed marks a pair skipped because one of its glyph
	// solids could not be built.
	ErrDependencyFailed = errors.New("grid: dependency failed")

	// ErrIllegalTransition is returned when the state machine is asked to
	// skip or repeat a state.
	ErrIllegalTransition = errors.New("grid: illegal state transition")
)

// Key identifies one net solid: a character, the orientation it is placed
// in and the thickness it is extruded to.
type Key struct {
	Char        rune
	Orientation string
	Thickness   float64
}

func (k Key) String() string {
	return fmt.Sprintf("%c/%s/%g", k.Char, k.Orientation, k.Thickness)
}

// Pair names one cross-shape: the intersection of solid A and solid B.
type Pair struct {
	Name string // the two characters, e.g. "A0"
	A, B Key
}

// PairName returns the deterministic file name of the pair (a, b).
func PairName(a, b rune) string {
	return string([]rune{a, b})
}
