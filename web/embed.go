// Package web provides the embedded page of the figure viewer.
package web

import (
	_ "embed"
	"html/template"
	"io"
)

//go:embed viewer.html
var viewerHTML string

var viewerTmpl = template.Must(template.New("viewer").Parse(viewerHTML))

// ViewerPage holds the values shown around the figure.
type ViewerPage struct {
	Title     string
	FigureURL string
	CloseURL  string
	Labels    []string
}

// RenderViewer writes the viewer page for p.
func RenderViewer(w io.Writer, p ViewerPage) error {
	return viewerTmpl.Execute(w, p)
}
