// Package analysis compares the tag count distributions of successful and
// failed reads.
package analysis

import (
	"fmt"
	"image/color"
	"io"

	"github.com/fidde/tagstats/internal/config"
	"github.com/fidde/tagstats/internal/density"
	"github.com/fidde/tagstats/internal/figure"
	"github.com/fidde/tagstats/internal/tags"
)

// Figure text.
const (
	Title  = "Density plots of the number of reads per group of tags"
	XLabel = "log10(Number of tags)"
	YLabel = "Density"
)

// Curve labels.
const (
	SuccessLabel   = "success tag"
	FailLabel      = "failed tag"
	ReferenceLabel = "No filter"
)

// Result is everything derived from one dataset, before any rendering.
type Result struct {
	Dataset       *tags.Dataset
	Distributions map[tags.Category][]int
	// Top holds the highest failing tags.
	Top    []tags.TagCount
	Figure *figure.Figure
}

// Analyze loads the three category files and derives the distributions,
// the top failing tags and the density figure.
func Analyze(cfg config.Config) (*Result, error) {
	ds, err := tags.LoadDataset(cfg.Sources(), cfg.Duplicates)
	if err != nil {
		return nil, err
	}

	dists := make(map[tags.Category][]int, len(tags.Categories))
	for _, c := range tags.Categories {
		dists[c] = ds.Distribution(c)
	}

	return &Result{
		Dataset:       ds,
		Distributions: dists,
		Top:           ds.Table(tags.Fail).Top(cfg.TopN),
		Figure:        BuildFigure(ds, cfg.IncludeReference),
	}, nil
}

// BuildFigure draws the log-scaled density of the success and fail counts,
// and of the reference counts when includeReference is set.
func BuildFigure(ds *tags.Dataset, includeReference bool) *figure.Figure {
	f := &figure.Figure{
		Title:  Title,
		XLabel: XLabel,
		YLabel: YLabel,
	}

	add := func(c tags.Category, label string, col color.NRGBA) {
		d := density.Of(ds.Distribution(c))
		f.Curves = append(f.Curves, figure.Curve{
			Label:  label,
			Color:  col,
			Shaded: true,
			X:      d.X,
			Y:      d.Y,
		})
	}

	add(tags.Success, SuccessLabel, figure.Blue)
	add(tags.Fail, FailLabel, figure.Red)
	if includeReference {
		add(tags.Reference, ReferenceLabel, figure.Yellow)
	}

	return f
}

// PrintTop writes one "tag: (<tag>, <count>)" line per entry.
func PrintTop(w io.Writer, top []tags.TagCount) error {
	for _, tc := range top {
		if _, err := fmt.Fprintf(w, "tag: (%s, %d)\n", tc.Tag, tc.Count); err != nil {
			return err
		}
	}
	return nil
}
