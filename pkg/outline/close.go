package outline

// Close returns c with a straight closing segment appended when the end of
// its last curve differs from the start of its first curve. Equality is
// exact. Close never drops curves; degenerate curves are removed later,
// when curves are compiled to edges.
func Close(c Contour) Contour {
	if len(c.Curves) == 0 || c.Closed() {
		return c
	}
	last := c.Curves[len(c.Curves)-1].End()
	first := c.Curves[0].Start()
	curves := make([]Curve, len(c.Curves), len(c.Curves)+1)
	copy(curves, c.Curves)
	curves = append(curves, NewLine(last, first))
	return Contour{Curves: curves}
}

// Bounds returns the box around all contours.
func Bounds(contours []Contour) Rect {
	r := EmptyRect()
	for _, c := range contours {
		r = r.Union(c.Bounds())
	}
	return r
}

// Center re-bases o so that the horizontal center of its bounding box sits
// at X = 0. Y is left alone so that glyphs keep a shared baseline.
func Center(o *Outline) *Outline {
	dx := o.Bounds.HorizontalCenter()
	contours := make([]Contour, len(o.Contours))
	for i, c := range o.Contours {
		curves := make([]Curve, len(c.Curves))
		for j, cv := range c.Curves {
			for k := range cv.Points() {
				cv.P[k].X -= dx
			}
			curves[j] = cv
		}
		contours[i] = Contour{Curves: curves}
	}
	return &Outline{
		Rune:     o.Rune,
		Contours: contours,
		Bounds:   Bounds(contours),
	}
}
