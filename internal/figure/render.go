package figure

import (
	"errors"
	"fmt"
	"image/color"
	"io"
	"os"
	"path/filepath"
	"strings"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
)

// ErrUnsupportedFormat is returned for an output format gonum/plot cannot write.
var ErrUnsupportedFormat = errors.New("unsupported figure format")

// shadeAlpha is the opacity of the area under a shaded curve.
const shadeAlpha = 0x40

var formats = map[string]bool{
	"svg": true, "png": true, "pdf": true, "eps": true, "jpg": true, "jpeg": true, "tif": true, "tiff": true,
}

// Plot converts f into a gonum plot.
func Plot(f *Figure) (*plot.Plot, error) {
	p := plot.New()
	p.Title.Text = f.Title
	p.X.Label.Text = f.XLabel
	p.Y.Label.Text = f.YLabel
	p.Legend.Top = true
	p.Add(plotter.NewGrid())

	for _, c := range f.Curves {
		if len(c.X) != len(c.Y) {
			return nil, fmt.Errorf("curve %q: %d x values for %d y values", c.Label, len(c.X), len(c.Y))
		}
		if len(c.X) == 0 {
			continue
		}

		pts := make(plotter.XYs, len(c.X))
		for i := range c.X {
			pts[i].X = c.X[i]
			pts[i].Y = c.Y[i]
		}

		line, err := plotter.NewLine(pts)
		if err != nil {
			return nil, fmt.Errorf("curve %q: %w", c.Label, err)
		}
		line.LineStyle.Color = c.Color
		line.LineStyle.Width = vg.Points(1.5)
		if c.Shaded {
			shade := c.Color
			shade.A = shadeAlpha
			line.FillColor = color.Color(shade)
		}

		p.Add(line)
		p.Legend.Add(c.Label, line)
	}

	return p, nil
}

// Write renders f in the given format (svg, png, pdf, ...) with sides of
// size inches.
func Write(w io.Writer, f *Figure, format string, size float64) error {
	format = strings.ToLower(strings.TrimPrefix(format, "."))
	if !formats[format] {
		return fmt.Errorf("%w: %q", ErrUnsupportedFormat, format)
	}

	p, err := Plot(f)
	if err != nil {
		return err
	}

	side := vg.Length(size) * vg.Inch
	wt, err := p.WriterTo(side, side, format)
	if err != nil {
		return fmt.Errorf("creating %s canvas: %w", format, err)
	}
	if _, err := wt.WriteTo(w); err != nil {
		return fmt.Errorf("writing %s figure: %w", format, err)
	}
	return nil
}

// Save writes f to path; the extension selects the format.
func Save(path string, f *Figure, size float64) error {
	out, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating figure file: %w", err)
	}

	if err := Write(out, f, filepath.Ext(path), size); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}
