package engine

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/gaurav-prasanna/layoutpipe/core"
)

// FileEngine serves documents whose recognition already happened: the
// input bytes are a recognition dump in the wire format.
type FileEngine struct {
	Logger *slog.Logger
}

// NewFileEngine creates a FileEngine.
func NewFileEngine(logger *slog.Logger) *FileEngine {
	if logger == nil {
		logger = slog.Default()
	}
	return &FileEngine{Logger: logger}
}

// Predict decodes in.Data. Engine options are ignored.
func (e *FileEngine) Predict(ctx context.Context, in core.Input, _ core.EngineOptions) (*core.Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	pages, err := DecodePages(in.Data, e.Logger)
	if err != nil {
		return nil, fmt.Errorf("reading recognition dump %s: %w", in.Name, err)
	}
	return &core.Document{Name: in.Name, Size: int64(len(in.Data)), Pages: pages}, nil
}
