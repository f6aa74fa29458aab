package outline

// Builder accumulates path commands into closed contours. The current
// contour and the pen position are plain fields; every command returns the
// builder so calls can be chained.
//
//	o := NewBuilder('L').MoveTo(p0).LineTo(p1).LineTo(p2).Outline()
type Builder struct {
	r        rune
	contours []Contour
	current  []Curve
	start    Point
	last     Point
	open     bool
}

// NewBuilder returns an empty builder for the outline of r.
func NewBuilder(r rune) *Builder {
	return &Builder{r: r}
}

// MoveTo finishes the current contour, if any, and starts a new one at p.
func (b *Builder) MoveTo(p Point) *Builder {
	b.finish()
	b.start, b.last, b.open = p, p, true
	return b
}

// LineTo adds a straight segment from the pen position to p.
func (b *Builder) LineTo(p Point) *Builder {
	b.ensureOpen()
	b.current = append(b.current, NewLine(b.last, p))
	b.last = p
	return b
}

// QuadTo adds a quadratic Bézier with control point c ending at p.
func (b *Builder) QuadTo(c, p Point) *Builder {
	b.ensureOpen()
	b.current = append(b.current, NewQuadratic(b.last, c, p))
	b.last = p
	return b
}

// CubeTo adds a cubic Bézier with control points c1, c2 ending at p.
func (b *Builder) CubeTo(c1, c2, p Point) *Builder {
	b.ensureOpen()
	b.current = append(b.current, NewCubic(b.last, c1, c2, p))
	b.last = p
	return b
}

// Outline finishes the current contour and returns the accumulated
// outline. Every contour has passed through Close.
func (b *Builder) Outline() *Outline {
	b.finish()
	contours := make([]Contour, len(b.contours))
	copy(contours, b.contours)
	return &Outline{
		Rune:     b.r,
		Contours: contours,
		Bounds:   Bounds(contours),
	}
}

// ensureOpen starts an implicit contour at the origin when a drawing
// command arrives before any MoveTo.
func (b *Builder) ensureOpen() {
	if !b.open {
		b.start, b.last, b.open = Point{}, Point{}, true
	}
}

func (b *Builder) finish() {
	if b.open && len(b.current) > 0 {
		b.contours = append(b.contours, Close(Contour{Curves: b.current}))
	}
	b.current = nil
	b.open = false
}
