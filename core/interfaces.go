// Package core defines the data model and stage interfaces for LayoutPipe.
// A Recognition Engine produces per-page results; the stages below turn
// them into JSON, Markdown, plain text or PDF and persist them to disk.
package core

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// Format is an output representation of a processed document.
type Format string

const (
	FormatJSON     Format = "json"
	FormatMarkdown Format = "markdown"
	FormatRaw      Format = "raw"
	FormatPDF      Format = "pdf"
)

// ErrUnsupportedFormat is returned for format names LayoutPipe does not know.
var ErrUnsupportedFormat = errors.New("unsupported output format")

// ParseFormat maps a user-supplied format name to a Format.
// "md", "text" and "txt" are accepted as aliases.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "json":
		return FormatJSON, nil
	case "markdown", "md":
		return FormatMarkdown, nil
	case "raw", "text", "txt":
		return FormatRaw, nil
	case "pdf":
		return FormatPDF, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnsupportedFormat, s)
	}
}

// ImagePayload is an embedded image that can serialize itself for a
// target file path. The path extension selects the encoding.
type ImagePayload interface {
	Encode(path string) ([]byte, error)
}

// Image is one entry of a page's image map.
type Image struct {
	Path    string
	Payload ImagePayload
}

// MarkdownInfo is a page rendered as markdown plus the images it references.
type MarkdownInfo struct {
	Text   string
	Images []Image // engine order
}

// PageResult is one page of recognition output. It is read-only for
// every stage of the pipeline.
type PageResult struct {
	// Raw is the page's structured result exactly as the engine produced it.
	Raw json.RawMessage
	// Markdown is nil when the engine delivered no readable markdown.
	Markdown *MarkdownInfo
}

// Blocks decodes the labeled content blocks of the page.
func (p PageResult) Blocks() ([]Block, error) {
	return ParseBlocks(p.Raw)
}

// Document is the ordered page sequence for one input file.
type Document struct {
	Name  string // original file name, if known
	Size  int64  // input size in bytes
	Pages []PageResult
}

// Input is a document handed to the Recognition Engine.
type Input struct {
	Name string
	Data []byte
}

// EngineOptions are passed through to the Recognition Engine. LayoutPipe
// itself never interprets them.
type EngineOptions struct {
	Language                  string `json:"language" yaml:"language"`
	Device                    string `json:"device" yaml:"device"`
	UseDocOrientationClassify bool   `json:"use_doc_orientation_classify" yaml:"use_doc_orientation_classify"`
	UseDocUnwarping           bool   `json:"use_doc_unwarping" yaml:"use_doc_unwarping"`
	UseTextlineOrientation    bool   `json:"use_textline_orientation" yaml:"use_textline_orientation"`
	UseTableRecognition       bool   `json:"use_table_recognition" yaml:"use_table_recognition"`
	UseFormulaRecognition     bool   `json:"use_formula_recognition" yaml:"use_formula_recognition"`
	UseChartRecognition       bool   `json:"use_chart_recognition" yaml:"use_chart_recognition"`
	UseSealRecognition        bool   `json:"use_seal_recognition" yaml:"use_seal_recognition"`
	UseRegionDetection        bool   `json:"use_region_detection" yaml:"use_region_detection"`
}

// DefaultEngineOptions mirrors the engine's own defaults.
func DefaultEngineOptions() EngineOptions {
	return EngineOptions{
		Language:              "en",
		Device:                "cpu",
		UseTableRecognition:   true,
		UseFormulaRecognition: true,
		UseChartRecognition:   true,
	}
}

// Engine turns raw document bytes into page results.
type Engine interface {
	Predict(ctx context.Context, in Input, opts EngineOptions) (*Document, error)
}

// PageJoiner concatenates per-page markdown into one document. The joining
// convention belongs to the engine; LayoutPipe only invokes it.
type PageJoiner interface {
	JoinPages(pages []MarkdownInfo) string
}

// Renderer converts aggregated content into the bytes of an output file.
type Renderer interface {
	Render(content string) ([]byte, error)
	// Extension returns the file extension for this renderer (e.g. ".md", ".json").
	Extension() string
}
