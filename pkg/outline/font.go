package outline

import (
	"errors"
	"fmt"
	"os"

	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/font/sfnt"
	"golang.org/x/image/math/fixed"
)

// ErrGlyphNotFound is returned when the font maps no glyph to a rune.
var ErrGlyphNotFound = errors.New("outline: glyph not found")

// Font is a parsed scalable font. It is safe for concurrent use.
type Font struct {
	Name string
	sfnt *sfnt.Font
}

// LoadFont loads a TrueType or OpenType font from a file.
func LoadFont(path string) (*Font, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("outline: reading font: %w", err)
	}
	f, err := ParseFont(data)
	if err != nil {
		return nil, fmt.Errorf("outline: %s: %w", path, err)
	}
	return f, nil
}

// ParseFont parses a TrueType or OpenType font from memory.
func ParseFont(data []byte) (*Font, error) {
	sf, err := sfnt.Parse(data)
	if err != nil {
		return nil, err
	}
	name, err := sf.Name(nil, sfnt.NameIDFull)
	if err != nil {
		name = ""
	}
	tracer().Debugf("parsed font %q with %d glyphs", name, sf.NumGlyphs())
	return &Font{Name: name, sfnt: sf}, nil
}

// DefaultFont returns the bundled Go Regular sans-serif font.
func DefaultFont() *Font {
	f, err := ParseFont(goregular.TTF)
	if err != nil {
		panic(fmt.Sprintf("outline: bundled font: %v", err))
	}
	return f
}

// Extract returns the closed contours of r rendered at size millimetres
// per em, with Y pointing up. It fails with ErrGlyphNotFound when the font
// has no glyph for r.
func (f *Font) Extract(r rune, size float64) (*Outline, error) {
	var buf sfnt.Buffer
	gid, err := f.sfnt.GlyphIndex(&buf, r)
	if err != nil {
		return nil, fmt.Errorf("outline: glyph index for %q: %w", r, err)
	}
	if gid == 0 {
		return nil, fmt.Errorf("%w: %q", ErrGlyphNotFound, r)
	}

	ppem := fixed.Int26_6(size * 64)
	segments, err := f.sfnt.LoadGlyph(&buf, gid, ppem, nil)
	if err != nil {
		return nil, fmt.Errorf("outline: loading glyph %q: %w", r, err)
	}

	b := NewBuilder(r)
	for _, seg := range segments {
		switch seg.Op {
		case sfnt.SegmentOpMoveTo:
			b.MoveTo(toPoint(seg.Args[0]))
		case sfnt.SegmentOpLineTo:
			b.LineTo(toPoint(seg.Args[0]))
		case sfnt.SegmentOpQuadTo:
			b.QuadTo(toPoint(seg.Args[0]), toPoint(seg.Args[1]))
		case sfnt.SegmentOpCubeTo:
			b.CubeTo(toPoint(seg.Args[0]), toPoint(seg.Args[1]), toPoint(seg.Args[2]))
		}
	}
	o := b.Outline()
	tracer().Debugf("extracted %q: %d contours, %d curves", r, len(o.Contours), o.CurveCount())
	return o, nil
}

// toPoint converts a 26.6 fixed-point sfnt coordinate (Y down) to a
// float Point with Y up.
func toPoint(p fixed.Point26_6) Point {
	return Point{X: float64(p.X) / 64, Y: -float64(p.Y) / 64}
}
