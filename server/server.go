// Package server is the HTTP shell around the conversion service.
//
// Routes:
//
//	GET  /api/v1/health
//	POST /api/v1/ocr/convert   multipart "file" + query parameters
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/gaurav-prasanna/layoutpipe/config"
	"github.com/gaurav-prasanna/layoutpipe/core"
	"github.com/gaurav-prasanna/layoutpipe/core/service"
)

const serviceName = "LayoutPipe OCR API"

// multipartMemory is how much of an upload is buffered in memory before
// spilling to temporary files.
const multipartMemory = 32 << 20

// ConvertResponse is the body of a completed conversion.
type ConvertResponse struct {
	Status       string         `json:"status"`
	OutputFormat string         `json:"output_format"`
	Content      string         `json:"content"`
	Pages        int            `json:"pages"`
	SavedFiles   []string       `json:"saved_files"`
	ImagePaths   []string       `json:"image_paths"`
	Metadata     map[string]any `json:"metadata"`
	PersistError string         `json:"persist_error,omitempty"`
}

// ErrorResponse is the body of a failed request.
type ErrorResponse struct {
	Status string  `json:"status"`
	Error  string  `json:"error"`
	Detail *string `json:"detail"`
}

// Server serves the conversion API.
type Server struct {
	cfg    *config.Config
	svc    *service.Service
	logger *slog.Logger
	router chi.Router
}

// New creates a Server.
func New(cfg *config.Config, svc *service.Service, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Server{cfg: cfg, svc: svc, logger: logger}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	r.Get("/api/v1/health", s.handleHealth)
	r.Post("/api/v1/ocr/convert", s.handleConvert)

	s.router = r
	return s
}

// Handler returns the HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.router
}

// ListenAndServe serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.cfg.Addr(),
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("server listening", "addr", srv.Addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("server error: %w", err)
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		s.logger.Info("shutting down server")
		return srv.Shutdown(shutdownCtx)
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "healthy", "service": serviceName})
}

func (s *Server) handleConvert(w http.ResponseWriter, r *http.Request) {
	req, err := s.parseRequest(w, r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error(), nil)
		return
	}

	res, err := s.svc.Process(r.Context(), *req)
	if err != nil && !service.IsPersistError(err) {
		s.logger.Error("conversion failed", "file", req.Input.Name, "error", err)
		detail := err.Error()
		writeError(w, http.StatusInternalServerError, "Internal server error", &detail)
		return
	}

	resp := ConvertResponse{
		Status:       "success",
		OutputFormat: string(req.Format),
		Content:      res.Content,
		Pages:        res.PageCount,
		SavedFiles:   res.SavedFiles,
		ImagePaths:   res.ImagePaths,
		Metadata:     res.Metadata,
	}
	if err != nil {
		resp.Status = "partial"
		resp.PersistError = err.Error()
	}
	writeJSON(w, http.StatusOK, resp)
}

// parseRequest validates the upload and query parameters.
func (s *Server) parseRequest(w http.ResponseWriter, r *http.Request) (*service.Request, error) {
	maxSize := s.cfg.MaxFileSize()
	r.Body = http.MaxBytesReader(w, r.Body, maxSize+multipartMemory)
	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		return nil, fmt.Errorf("invalid multipart upload: %v", err)
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		return nil, fmt.Errorf("file is required")
	}
	defer file.Close()

	if !s.cfg.AllowsExtension(header.Filename) {
		return nil, fmt.Errorf("invalid file type, allowed types: %s", strings.Join(s.cfg.AllowedExtensions, ", "))
	}
	if ct := header.Header.Get("Content-Type"); ct != "" && ct != "application/octet-stream" && !s.cfg.AllowsMIMEType(ct) {
		return nil, fmt.Errorf("invalid MIME type: %s", ct)
	}

	data, err := io.ReadAll(io.LimitReader(file, maxSize+1))
	if err != nil {
		return nil, fmt.Errorf("reading upload: %v", err)
	}
	if int64(len(data)) > maxSize {
		return nil, fmt.Errorf("file size exceeds maximum allowed size of %.1fMB", float64(maxSize)/(1024*1024))
	}

	q := r.URL.Query()

	formatName := q.Get("output_format")
	if formatName == "" {
		formatName = s.cfg.OutputFormat
	}
	format, err := core.ParseFormat(formatName)
	if err != nil {
		return nil, err
	}

	opts := s.cfg.Defaults
	if v := q.Get("language"); v != "" {
		switch v {
		case "en", "ch", "en&ch":
			opts.Language = v
		default:
			return nil, fmt.Errorf("language must be en, ch or en&ch")
		}
	}
	if v := q.Get("device"); v != "" {
		if v != "cpu" && v != "gpu" {
			return nil, fmt.Errorf("device must be cpu or gpu")
		}
		opts.Device = v
	}

	req := &service.Request{
		Input:     core.Input{Name: header.Filename, Data: data},
		Format:    format,
		OutputDir: q.Get("output_dir"),
	}

	flags := []struct {
		name string
		dst  *bool
	}{
		{"save_output", &req.Persist},
		{"extract_charts_only", &req.ChartOnly},
		{"markdown_tables", &req.MarkdownTables},
		{"use_doc_orientation_classify", &opts.UseDocOrientationClassify},
		{"use_doc_unwarping", &opts.UseDocUnwarping},
		{"use_textline_orientation", &opts.UseTextlineOrientation},
		{"use_table_recognition", &opts.UseTableRecognition},
		{"use_formula_recognition", &opts.UseFormulaRecognition},
		{"use_chart_recognition", &opts.UseChartRecognition},
		{"use_seal_recognition", &opts.UseSealRecognition},
		{"use_region_detection", &opts.UseRegionDetection},
	}
	for _, f := range flags {
		v := q.Get(f.name)
		if v == "" {
			continue
		}
		b, err := strconv.ParseBool(v)
		if err != nil {
			return nil, fmt.Errorf("%s must be a boolean", f.name)
		}
		*f.dst = b
	}

	req.Options = opts
	return req, nil
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	enc.Encode(v)
}

func writeError(w http.ResponseWriter, code int, msg string, detail *string) {
	writeJSON(w, code, ErrorResponse{Status: "error", Error: msg, Detail: detail})
}
