// Package plan describes one batch run: which font, which characters, how
// the two alphabets are oriented, and where the results go.
//
// A plan starts from Default, is refined by a job script and by command
// line flags, and is checked by ValidateAll before anything is built.
package plan

import (
	"fmt"
	"strings"
	"unicode"

	"github.com/samber/lo"
)

// Default alphabets: the upper-case Latin letters and the decimal digits.
const (
	Letters = "ABCDEFGHIJKLMNOPQRSTUVWXYZ"
	Digits  = "0123456789"
)

// Geometry kernels a plan can select.
const (
	KernelSDF      = "sdfx"
	KernelManifold = "manifold"
)

// Kernels lists the accepted kernel names.
var Kernels = []string{KernelSDF, KernelManifold}

// Plan is the complete description of a batch.
type Plan struct {
	Font      string  // font file path; empty selects the bundled font
	Size      float64 // millimetres per em
	Thickness float64 // extrusion thickness in millimetres; 0 means Size

	First, Second string // alphabets; pairs are First × Second

	FirstOrientation  string
	SecondOrientation string

	Output    string // output directory
	Format    string // export format name
	Workers   int    // 0 means one per CPU
	MeshCells int    // marching cubes resolution
	Kernel    string // geometry kernel name; empty selects sdfx
}

// Default returns the plan of the classic run: every letter and digit
// against every letter and digit, the second set turned a quarter turn.
func Default() *Plan {
	return &Plan{
		Size:              40,
		First:             Letters + Digits,
		Second:            Letters + Digits,
		FirstOrientation:  "identity",
		SecondOrientation: "rotate-y-90",
		Output:            "output",
		Format:            "stl",
		MeshCells:         128,
		Kernel:            KernelSDF,
	}
}

// Clone returns a copy of p.
func (p *Plan) Clone() *Plan {
	c := *p
	return &c
}

// EffectiveThickness returns the thickness used for extrusion.
func (p *Plan) EffectiveThickness() float64 {
	if p.Thickness > 0 {
		return p.Thickness
	}
	return p.Size
}

// KernelName returns the selected kernel, defaulting to sdfx.
func (p *Plan) KernelName() string {
	if p.Kernel == "" {
		return KernelSDF
	}
	return p.Kernel
}

// Alphabet1 returns the first alphabet with whitespace and repeats removed,
// in first-seen order.
func (p *Plan) Alphabet1() []rune {
	return Normalize(p.First)
}

// Alphabet2 returns the normalised second alphabet.
func (p *Plan) Alphabet2() []rune {
	return Normalize(p.Second)
}

// PairCount returns the number of pairs the plan produces.
func (p *Plan) PairCount() int {
	return len(p.Alphabet1()) * len(p.Alphabet2())
}

// Normalize turns an alphabet string into its distinct, visible runes.
func Normalize(alphabet string) []rune {
	visible := lo.Filter([]rune(alphabet), func(r rune, _ int) bool {
		return !unicode.IsSpace(r) && unicode.IsPrint(r)
	})
	return lo.Uniq(visible)
}

func (p *Plan) String() string {
	var b strings.Builder
	font := p.Font
	if font == "" {
		font = "(bundled)"
	}
	fmt.Fprintf(&b, "font=%s size=%g thickness=%g", font, p.Size, p.EffectiveThickness())
	fmt.Fprintf(&b, " first=%q/%s second=%q/%s", p.First, p.FirstOrientation, p.Second, p.SecondOrientation)
	fmt.Fprintf(&b, " out=%s format=%s workers=%d cells=%d kernel=%s", p.Output, p.Format, p.Workers, p.MeshCells, p.KernelName())
	return b.String()
}
