// Package service runs one document through the pipeline:
// predict → aggregate → (optionally) persist, and reports metadata.
//
// Process is synchronous and keeps no state between calls. Concurrent calls
// are safe as long as they persist to distinct output targets.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"time"

	"github.com/google/uuid"

	"github.com/gaurav-prasanna/layoutpipe/core"
	"github.com/gaurav-prasanna/layoutpipe/core/aggregate"
	"github.com/gaurav-prasanna/layoutpipe/core/output"
)

// Request describes one conversion.
type Request struct {
	Input          core.Input
	Format         core.Format
	ChartOnly      bool
	MarkdownTables bool

	// Persist writes the result under OutputDir (or the service default).
	Persist   bool
	OutputDir string
	// BaseName defaults to the input file name without extension.
	BaseName string

	Options core.EngineOptions
}

// Result is the outcome of a conversion.
type Result struct {
	Content    string
	PageCount  int
	SavedFiles []string // nil unless persisted
	ImagePaths []string
	Metadata   map[string]any
}

// Service wires an engine to the aggregator and writer.
type Service struct {
	engine           core.Engine
	agg              *aggregate.Aggregator
	defaultOutputDir string
	logger           *slog.Logger
	now              func() time.Time
}

// New creates a Service. defaultOutputDir is used when a request asks to
// persist without naming a directory.
func New(engine core.Engine, joiner core.PageJoiner, defaultOutputDir string, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		engine:           engine,
		agg:              aggregate.New(joiner, logger),
		defaultOutputDir: defaultOutputDir,
		logger:           logger,
		now:              time.Now,
	}
}

// Process predicts the document with the engine and converts it.
//
// Engine failures are returned unchanged in meaning (wrapped, never retried).
// When only persistence fails, the returned Result is complete and the
// error is a *output.PersistError.
func (s *Service) Process(ctx context.Context, req Request) (*Result, error) {
	start := s.now()
	doc, err := s.engine.Predict(ctx, req.Input, req.Options)
	if err != nil {
		return nil, fmt.Errorf("predict: %w", err)
	}
	if doc == nil {
		return nil, fmt.Errorf("predict: engine returned no document for %s", req.Input.Name)
	}
	if doc.Size == 0 {
		doc.Size = int64(len(req.Input.Data))
	}
	if doc.Name == "" {
		doc.Name = req.Input.Name
	}
	return s.process(doc, req, start)
}

// ProcessDocument converts an already predicted document.
func (s *Service) ProcessDocument(doc *core.Document, req Request) (*Result, error) {
	return s.process(doc, req, s.now())
}

func (s *Service) process(doc *core.Document, req Request, start time.Time) (*Result, error) {
	jobID := uuid.NewString()

	bundle, err := s.agg.Aggregate(doc, aggregate.Options{
		Format:         req.Format,
		ChartOnly:      req.ChartOnly,
		MarkdownTables: req.MarkdownTables,
	})
	if err != nil {
		return nil, fmt.Errorf("aggregate: %w", err)
	}

	res := &Result{
		Content:    bundle.Content,
		PageCount:  bundle.PageCount,
		ImagePaths: bundle.ImagePaths,
	}

	var persistErr error
	if req.Persist {
		res.SavedFiles, persistErr = s.persist(doc, req, bundle)
		if persistErr != nil {
			s.logger.Error("persisting output", "job_id", jobID, "error", persistErr)
		}
	}

	var size int64
	if doc != nil {
		size = doc.Size
	}
	res.Metadata = map[string]any{
		"job_id":                  jobID,
		"processing_time_seconds": roundSeconds(s.now().Sub(start)),
		"file_size_bytes":         size,
		"output_format":           string(req.Format),
		"language":                req.Options.Language,
		"device":                  req.Options.Device,
		"chart_only":              req.ChartOnly,
		"malformed_pages":         bundle.Stats.MalformedPages,
		"blocks":                  bundle.Stats.Blocks,
		"unknown_blocks":          bundle.Stats.UnknownBlocks,
		"malformed_blocks":        bundle.Stats.MalformedBlocks,
		"empty_blocks":            bundle.Stats.EmptyBlocks,
		"images":                  bundle.Stats.Images,
		"dropped_images":          bundle.Stats.DroppedImages,
	}

	s.logger.Debug("document processed",
		"job_id", jobID,
		"format", req.Format,
		"pages", res.PageCount,
		"malformed_pages", bundle.Stats.MalformedPages,
	)

	if persistErr != nil {
		return res, persistErr
	}
	return res, nil
}

func (s *Service) persist(doc *core.Document, req Request, bundle *aggregate.Bundle) ([]string, error) {
	dir := req.OutputDir
	if dir == "" {
		dir = s.defaultOutputDir
	}
	base := req.BaseName
	if base == "" {
		name := req.Input.Name
		if doc != nil && doc.Name != "" {
			name = doc.Name
		}
		base = output.BaseName(name)
	}

	w, err := output.New(dir, s.logger)
	if err != nil {
		return nil, &output.PersistError{Op: "mkdir", Path: dir, Err: err}
	}
	return w.Persist(bundle.Content, req.Format, base, bundle.Images)
}

// IsPersistError reports whether err is a persistence failure.
func IsPersistError(err error) bool {
	var pe *output.PersistError
	return errors.As(err, &pe)
}

func roundSeconds(d time.Duration) float64 {
	return math.Round(d.Seconds()*100) / 100
}
