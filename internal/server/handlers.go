// Package server exposes the tray generator over HTTP: an HTML form, an SVG
// preview and downloads for every output format.
package server

import (
	"bytes"
	"context"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"html/template"
	"net/http"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/piwi3910/GridTray/internal/config"
	"github.com/piwi3910/GridTray/internal/engine"
	"github.com/piwi3910/GridTray/internal/export"
	"github.com/piwi3910/GridTray/internal/mesh"
	"github.com/piwi3910/GridTray/internal/metrics"
	"github.com/piwi3910/GridTray/internal/model"
	"github.com/piwi3910/GridTray/internal/scad"
)

//go:embed templates/*.html
var templateFS embed.FS

var indexTemplate = template.Must(template.ParseFS(templateFS, "templates/index.html"))

// knownRoutes bounds the path label of the request metrics.
var knownRoutes = map[string]struct{}{
	"/":                    {},
	"/preview.svg":         {},
	"/model.stl":           {},
	"/download/scad":       {},
	"/download/stl":        {},
	"/download/dxf":        {},
	"/download/pdf":        {},
	"/download/labels.pdf": {},
	"/api/geometry":        {},
	"/api/presets":         {},
	"/healthz":             {},
	"/metrics":             {},
}

// versionTimeout bounds the tool version probe made by the health check.
const versionTimeout = 5 * time.Second

// toolInfo is implemented by renderers that can report on the external tool.
type toolInfo interface {
	Available() bool
	Version(ctx context.Context) (string, error)
}

// Options wires a Server. Renderer and Metrics may be nil: without a renderer
// mesh exports answer 503, without a collector nothing is recorded and
// /metrics is not served.
type Options struct {
	Config   *config.Config
	Renderer mesh.Renderer
	Metrics  *metrics.Collector
	Presets  model.PresetStore
	Logger   *zap.Logger
}

// Server holds the request handlers.
type Server struct {
	cfg       *config.Config
	renderer  mesh.Renderer
	metrics   *metrics.Collector
	presets   model.PresetStore
	generator *scad.Generator
	logger    *zap.Logger

	toolVersion func() (string, error)
}

// New creates a Server.
func New(opts Options) *Server {
	cfg := opts.Config
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Server{
		cfg:       cfg,
		renderer:  opts.Renderer,
		metrics:   opts.Metrics,
		presets:   opts.Presets,
		generator: scad.New(),
		logger:    logger.With(zap.String("component", "server")),
	}
	s.toolVersion = sync.OnceValues(func() (string, error) {
		info, ok := s.renderer.(toolInfo)
		if !ok || !info.Available() {
			return "", mesh.ErrToolUnavailable
		}
		ctx, cancel := context.WithTimeout(context.Background(), versionTimeout)
		defer cancel()
		return info.Version(ctx)
	})
	return s
}

// Handler returns the routed handler with the middleware chain applied. ctx
// bounds the background work of the rate limiter.
func (s *Server) Handler(ctx context.Context) http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /{$}", s.handleIndex)
	mux.HandleFunc("GET /preview.svg", s.handlePreview)
	mux.HandleFunc("GET /download/scad", s.handleScad)
	mux.HandleFunc("GET /download/dxf", s.handleDXF)
	mux.HandleFunc("GET /download/pdf", s.handlePDF)
	mux.HandleFunc("GET /download/labels.pdf", s.handleLabels)
	mux.HandleFunc("GET /api/geometry", s.handleGeometry)
	mux.HandleFunc("GET /api/presets", s.handlePresets)
	mux.HandleFunc("GET /healthz", s.handleHealth)

	limit := RateLimit(ctx, s.cfg.Server.MeshRateLimit, s.cfg.Server.MeshBurst, s.logger)
	mux.Handle("GET /model.stl", limit(s.handleSTL(false)))
	mux.Handle("GET /download/stl", limit(s.handleSTL(true)))

	middlewares := []Middleware{RequestID(), Recovery(s.logger), RequestLogger(s.logger)}
	if s.metrics != nil {
		mux.Handle("GET /metrics", s.metrics.Handler())
		middlewares = append(middlewares, Metrics(s.metrics))
	}
	return Chain(mux, middlewares...)
}

// indexData feeds templates/index.html.
type indexData struct {
	Config   model.TrayConfig
	Error    string
	Presets  []model.Preset
	Preview  template.URL
	Links    []link
	Estimate *model.PrintEstimate
	Outer    string
	Mesh     bool
}

type link struct {
	Label string
	URL   template.URL
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	data := indexData{
		Config:  s.cfg.Defaults,
		Presets: s.presets.Presets,
		Mesh:    s.meshAvailable(),
	}

	cfg := s.cfg.Defaults
	if len(r.URL.Query()) > 0 {
		parsed, err := ParseTrayConfig(r.URL.Query(), s.cfg.Defaults, &s.presets)
		if err != nil {
			data.Error = err.Error()
		} else {
			cfg = parsed
			data.Config = parsed
		}
	}

	if data.Error == "" {
		g, err := engine.ComputeGeometry(cfg)
		if err != nil {
			data.Error = err.Error()
		} else {
			est := model.EstimatePrint(g, s.cfg.Print.Density, s.cfg.Print.PricePerKg)
			data.Estimate = &est
			data.Outer = fmt.Sprintf("%s x %s x %s mm",
				model.FormatMM(g.OuterWidth), model.FormatMM(g.OuterHeight), model.FormatMM(g.Height))

			query := EncodeTrayConfig(cfg).Encode()
			data.Preview = template.URL("/preview.svg?" + query)
			data.Links = []link{{"OpenSCAD script", template.URL("/download/scad?" + query)}}
			if data.Mesh {
				data.Links = append(data.Links, link{"STL mesh", template.URL("/download/stl?" + query)})
			}
			data.Links = append(data.Links,
				link{"DXF outline", template.URL("/download/dxf?" + query)},
				link{"PDF plan", template.URL("/download/pdf?" + query)},
				link{"Label sheet", template.URL("/download/labels.pdf?" + query)},
			)
		}
	}

	var buf bytes.Buffer
	if err := indexTemplate.Execute(&buf, data); err != nil {
		s.logger.Error("failed to render index", zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, errorBody{Error: "internal server error"})
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = w.Write(buf.Bytes())
}

func (s *Server) handlePreview(w http.ResponseWriter, r *http.Request) {
	g, err := s.geometry(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "image/svg+xml")
	_, _ = w.Write([]byte(export.SVG(g)))
	s.recordArtifact("svg")
}

func (s *Server) handleScad(w http.ResponseWriter, r *http.Request) {
	g, err := s.geometry(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "application/x-openscad; charset=utf-8")
	setAttachment(w, g.Config.FileStem()+".scad")
	_, _ = w.Write([]byte(s.generator.Script(g)))
	s.recordArtifact("scad")
}

func (s *Server) handleSTL(attachment bool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		g, err := s.geometry(r)
		if err != nil {
			s.writeError(w, r, err)
			return
		}
		data, err := s.render(r.Context(), s.generator.Script(g))
		if err != nil {
			s.writeError(w, r, err)
			return
		}
		w.Header().Set("Content-Type", "model/stl")
		if attachment {
			setAttachment(w, g.Config.FileStem()+".stl")
		}
		_, _ = w.Write(data)
		s.recordArtifact("stl")
	}
}

func (s *Server) handleDXF(w http.ResponseWriter, r *http.Request) {
	g, err := s.geometry(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	data, err := export.DXFBytes(g)
	if err != nil {
		s.writeError(w, r, fmt.Errorf("failed to build DXF: %w", err))
		return
	}
	w.Header().Set("Content-Type", "image/vnd.dxf")
	setAttachment(w, g.Config.FileStem()+".dxf")
	_, _ = w.Write(data)
	s.recordArtifact("dxf")
}

func (s *Server) handlePDF(w http.ResponseWriter, r *http.Request) {
	g, err := s.geometry(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	est := model.EstimatePrint(g, s.cfg.Print.Density, s.cfg.Print.PricePerKg)
	var buf bytes.Buffer
	if err := export.WritePDF(&buf, g, est); err != nil {
		s.writeError(w, r, fmt.Errorf("failed to build PDF: %w", err))
		return
	}
	w.Header().Set("Content-Type", "application/pdf")
	setAttachment(w, g.Config.FileStem()+".pdf")
	_, _ = w.Write(buf.Bytes())
	s.recordArtifact("pdf")
}

func (s *Server) handleLabels(w http.ResponseWriter, r *http.Request) {
	g, err := s.geometry(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	tray := model.NamedTray{Name: r.URL.Query().Get("name"), Config: g.Config}
	var buf bytes.Buffer
	if err := export.WriteLabels(&buf, []model.NamedTray{tray}); err != nil {
		s.writeError(w, r, fmt.Errorf("failed to build labels: %w", err))
		return
	}
	w.Header().Set("Content-Type", "application/pdf")
	setAttachment(w, g.Config.FileStem()+"_labels.pdf")
	_, _ = w.Write(buf.Bytes())
	s.recordArtifact("labels")
}

// geometryResponse is the body of /api/geometry.
type geometryResponse struct {
	FileStem string              `json:"file_stem"`
	Geometry model.TrayGeometry  `json:"geometry"`
	Estimate model.PrintEstimate `json:"estimate"`
}

func (s *Server) handleGeometry(w http.ResponseWriter, r *http.Request) {
	g, err := s.geometry(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, geometryResponse{
		FileStem: g.Config.FileStem(),
		Geometry: g,
		Estimate: model.EstimatePrint(g, s.cfg.Print.Density, s.cfg.Print.PricePerKg),
	})
}

func (s *Server) handlePresets(w http.ResponseWriter, _ *http.Request) {
	presets := s.presets.Presets
	if presets == nil {
		presets = []model.Preset{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"presets": presets})
}

// healthResponse is the body of /healthz. The service is healthy without the
// mesh tool; only mesh exports are affected.
type healthResponse struct {
	Status string     `json:"status"`
	Mesh   meshHealth `json:"mesh"`
}

type meshHealth struct {
	Available bool   `json:"available"`
	Version   string `json:"version,omitempty"`
	Error     string `json:"error,omitempty"`
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	resp := healthResponse{Status: "ok"}
	version, err := s.toolVersion()
	switch {
	case err == nil:
		resp.Mesh = meshHealth{Available: true, Version: version}
	case errors.Is(err, mesh.ErrToolUnavailable):
		resp.Mesh = meshHealth{Available: false}
	default:
		resp.Mesh = meshHealth{Available: true, Error: err.Error()}
	}
	writeJSON(w, http.StatusOK, resp)
}

// geometry parses the request and lays out the tray.
func (s *Server) geometry(r *http.Request) (model.TrayGeometry, error) {
	cfg, err := ParseTrayConfig(r.URL.Query(), s.cfg.Defaults, &s.presets)
	if err != nil {
		return model.TrayGeometry{}, err
	}
	return engine.ComputeGeometry(cfg)
}

// meshAvailable reports whether STL exports can succeed.
func (s *Server) meshAvailable() bool {
	if s.renderer == nil {
		return false
	}
	if info, ok := s.renderer.(toolInfo); ok {
		return info.Available()
	}
	return true
}

// render runs the mesh tool and records the outcome.
func (s *Server) render(ctx context.Context, script string) ([]byte, error) {
	if s.renderer == nil {
		return nil, mesh.ErrToolUnavailable
	}
	done := func(string) {}
	if s.metrics != nil {
		done = s.metrics.MeshStarted()
	}
	data, err := s.renderer.Render(ctx, script)
	switch {
	case err == nil:
		done("ok")
	case errors.Is(err, mesh.ErrToolUnavailable):
		done("unavailable")
	default:
		done("failed")
	}
	return data, err
}

func (s *Server) recordArtifact(format string) {
	if s.metrics != nil {
		s.metrics.RecordArtifact(format)
	}
}

// errorBody is the JSON shape of every error response.
type errorBody struct {
	Error  string `json:"error"`
	Code   string `json:"code,omitempty"`
	Field  string `json:"field,omitempty"`
	Output string `json:"output,omitempty"`
}

// writeError maps domain errors to status codes: invalid input is 400, a
// missing tool 503 and a failing tool 502 with its output verbatim.
func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	var (
		dimErr  *model.DimensionError
		toolErr *mesh.ToolFailedError
	)
	switch {
	case errors.As(err, &dimErr):
		writeJSON(w, http.StatusBadRequest, errorBody{Error: err.Error(), Code: "InvalidDimension", Field: dimErr.Field})
	case errors.Is(err, mesh.ErrToolUnavailable):
		writeJSON(w, http.StatusServiceUnavailable, errorBody{Error: err.Error(), Code: "ExternalToolUnavailable"})
	case errors.As(err, &toolErr):
		s.logger.Warn("mesh tool failed",
			zap.String("request_id", RequestIDFromContext(r.Context())),
			zap.Int("exit_code", toolErr.ExitCode),
			zap.String("reason", toolErr.Reason))
		writeJSON(w, http.StatusBadGateway, errorBody{Error: toolErr.Error(), Code: "ExternalToolFailed", Output: toolErr.Output})
	default:
		s.logger.Error("request failed",
			zap.String("path", r.URL.Path),
			zap.String("request_id", RequestIDFromContext(r.Context())),
			zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, errorBody{Error: "internal server error"})
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func setAttachment(w http.ResponseWriter, filename string) {
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
}
