package analysis

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/fidde/tagstats/internal/config"
	"github.com/fidde/tagstats/internal/figure"
	"github.com/fidde/tagstats/internal/storage"
	"github.com/fidde/tagstats/internal/tags"
	"github.com/fidde/tagstats/pkg/models"
)

// Renderer displays or persists a figure. Render may block.
type Renderer interface {
	Render(ctx context.Context, f *figure.Figure) error
}

// FileRenderer writes the figure to Path; the extension picks the format.
type FileRenderer struct {
	Path string
	Size float64
}

// Render implements Renderer.
func (r FileRenderer) Render(_ context.Context, f *figure.Figure) error {
	return figure.Save(r.Path, f, r.Size)
}

// Run analyzes, prints the top failing tags to out, exports the run when
// exporter is non-nil and hands the figure to each renderer in order.
func Run(ctx context.Context, cfg config.Config, out io.Writer, exporter storage.Exporter, renderers ...Renderer) (*Result, error) {
	res, err := Analyze(cfg)
	if err != nil {
		return nil, err
	}

	if err := PrintTop(out, res.Top); err != nil {
		return nil, fmt.Errorf("printing top tags: %w", err)
	}

	if exporter != nil {
		if err := exporter.SaveRun(ctx, newRun(cfg, res.Dataset)); err != nil {
			return nil, fmt.Errorf("exporting run: %w", err)
		}
	}

	for _, r := range renderers {
		if err := r.Render(ctx, res.Figure); err != nil {
			return nil, fmt.Errorf("rendering figure: %w", err)
		}
	}

	return res, nil
}

func newRun(cfg config.Config, ds *tags.Dataset) *models.Run {
	run := &models.Run{
		ID:             models.NewRunID(),
		Created:        time.Now().UTC(),
		ProjectName:    cfg.ProjectName,
		NoFilterMarker: cfg.NoFilterMarker,
		DataPath:       cfg.DataPath,
	}

	for _, c := range tags.Categories {
		t := ds.Table(c)
		if t == nil {
			continue
		}
		entries := t.Entries()
		cr := models.CategoryResult{
			Category: string(c),
			Path:     ds.Paths[c],
			Tags:     make([]models.TagCount, len(entries)),
		}
		for i, e := range entries {
			cr.Tags[i] = models.TagCount{Tag: e.Tag, Count: e.Count}
		}
		run.Categories = append(run.Categories, cr)
	}

	return run
}
