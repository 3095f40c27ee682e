// Package figure describes density figures and renders them with gonum/plot.
package figure

import "image/color"

// Curve is one density line drawn on the figure.
type Curve struct {
	Label  string
	Color  color.NRGBA
	Shaded bool
	X      []float64
	Y      []float64
}

// Figure is a set of curves sharing one pair of axes.
type Figure struct {
	Title  string
	XLabel string
	YLabel string
	Curves []Curve
}

// Labels returns the curve labels in drawing order.
func (f *Figure) Labels() []string {
	out := make([]string, 0, len(f.Curves))
	for _, c := range f.Curves {
		out = append(out, c.Label)
	}
	return out
}

// Palette used for the analyzer categories.
var (
	Blue   = color.NRGBA{R: 0x1f, G: 0x77, B: 0xb4, A: 0xff}
	Red    = color.NRGBA{R: 0xd6, G: 0x27, B: 0x28, A: 0xff}
	Yellow = color.NRGBA{R: 0xbc, G: 0xbd, B: 0x22, A: 0xff}
)
