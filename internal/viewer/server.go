// Package viewer serves a rendered figure over HTTP until it is dismissed.
package viewer

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/fidde/tagstats/internal/figure"
	"github.com/fidde/tagstats/web"
)

const shutdownTimeout = 5 * time.Second

// Server shows one figure in the browser. Render blocks until the page's
// Close button is pressed or the context is canceled.
type Server struct {
	addr   string
	size   float64
	logger *slog.Logger
	router *chi.Mux

	mu     sync.RWMutex
	figure *figure.Figure
	svg    []byte

	started   time.Time
	dismissed chan struct{}
	closeOnce sync.Once
}

// NewServer creates a viewer listening on addr once Render is called.
// size is the figure side in inches.
func NewServer(addr string, size float64, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}

	s := &Server{
		addr:      addr,
		size:      size,
		logger:    logger,
		router:    chi.NewRouter(),
		started:   time.Now(),
		dismissed: make(chan struct{}),
	}

	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.Recoverer)
	s.router.Use(middleware.Timeout(30 * time.Second))

	s.router.Get("/", s.handleIndex)
	s.router.Get("/figure.svg", s.handleFigure)
	s.router.Post("/close", s.handleClose)
	s.router.Get("/api/v1/health", s.HandleHealth)

	return s
}

// Handler returns the HTTP handler of the viewer.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Dismiss releases a blocked Render.
func (s *Server) Dismiss() {
	s.closeOnce.Do(func() { close(s.dismissed) })
}

// SetFigure renders f to SVG and makes it the figure being served.
func (s *Server) SetFigure(f *figure.Figure) error {
	var buf bytes.Buffer
	if err := figure.Write(&buf, f, "svg", s.size); err != nil {
		return fmt.Errorf("rendering figure: %w", err)
	}

	s.mu.Lock()
	s.figure = f
	s.svg = buf.Bytes()
	s.mu.Unlock()
	return nil
}

// Render serves f and blocks until the viewer is dismissed or ctx is done.
func (s *Server) Render(ctx context.Context, f *figure.Figure) error {
	if err := s.SetFigure(f); err != nil {
		return err
	}

	ln, err := net.Listen("tcp", s.addr)
	if err != nil {
		return fmt.Errorf("listening on %s: %w", s.addr, err)
	}

	srv := &http.Server{
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errChan := make(chan error, 1)
	go func() {
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errChan <- err
		}
	}()

	s.logger.Info("figure viewer ready, close the page to continue", "url", "http://"+ln.Addr().String()+"/")

	var serveErr error
	select {
	case <-s.dismissed:
		s.logger.Info("figure viewer dismissed")
	case <-ctx.Done():
		s.logger.Info("figure viewer interrupted", "reason", ctx.Err())
	case serveErr = <-errChan:
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		s.logger.Error("figure viewer shutdown error", "error", err)
	}

	if serveErr != nil {
		return fmt.Errorf("figure viewer: %w", serveErr)
	}
	return nil
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	s.mu.RLock()
	f := s.figure
	s.mu.RUnlock()

	if f == nil {
		http.Error(w, "no figure rendered yet", http.StatusServiceUnavailable)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	err := web.RenderViewer(w, web.ViewerPage{
		Title:     f.Title,
		FigureURL: "/figure.svg",
		CloseURL:  "/close",
		Labels:    f.Labels(),
	})
	if err != nil {
		s.logger.Error("rendering viewer page", "error", err)
	}
}

func (s *Server) handleFigure(w http.ResponseWriter, r *http.Request) {
	s.mu.RLock()
	svg := s.svg
	s.mu.RUnlock()

	if svg == nil {
		http.Error(w, "no figure rendered yet", http.StatusServiceUnavailable)
		return
	}

	w.Header().Set("Content-Type", "image/svg+xml")
	w.Header().Set("Cache-Control", "no-store")
	w.Write(svg)
}

func (s *Server) handleClose(w http.ResponseWriter, r *http.Request) {
	s.Dismiss()
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	fmt.Fprintln(w, "viewer closed, you can close this tab")
}

// HealthResponse represents the health check response
type HealthResponse struct {
	Status    string    `json:"status"`
	Timestamp time.Time `json:"timestamp"`
	Uptime    string    `json:"uptime"`
	Curves    []string  `json:"curves,omitempty"`
	Dismissed bool      `json:"dismissed"`
}

// HandleHealth returns the health status of the viewer
func (s *Server) HandleHealth(w http.ResponseWriter, r *http.Request) {
	s.mu.RLock()
	f := s.figure
	s.mu.RUnlock()

	response := HealthResponse{
		Status:    "ok",
		Timestamp: time.Now(),
		Uptime:    time.Since(s.started).String(),
	}
	if f != nil {
		response.Curves = f.Labels()
	}
	select {
	case <-s.dismissed:
		response.Dismissed = true
	default:
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(response)
}
