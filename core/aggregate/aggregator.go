// Package aggregate walks a document's pages and assembles whole-document
// content for one output format, together with the images to persist.
//
// A page that cannot be read never aborts the document: it contributes an
// empty unit, is logged, and still counts toward PageCount.
package aggregate

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/gaurav-prasanna/layoutpipe/core"
	"github.com/gaurav-prasanna/layoutpipe/core/classify"
	"github.com/gaurav-prasanna/layoutpipe/core/extract"
	"github.com/gaurav-prasanna/layoutpipe/core/normalize"
)

// Options select what Aggregate produces.
type Options struct {
	Format core.Format
	// ChartOnly keeps only images classified as chart crops.
	ChartOnly bool
	// MarkdownTables rewrites engine HTML tables as pipe tables.
	MarkdownTables bool
}

// Stats counts degradations seen while aggregating.
type Stats struct {
	Pages           int
	MalformedPages  int
	Blocks          int
	EmptyBlocks     int
	UnknownBlocks   int
	MalformedBlocks int
	Images          int
	DroppedImages   int
}

// Bundle is the aggregated result for one document.
type Bundle struct {
	Content   string
	PageCount int
	// Images holds every image to persist, in page then map order.
	Images []core.Image
	// ImagePaths lists distinct image references in the markdown content.
	ImagePaths []string
	Stats      Stats
}

// Aggregator assembles documents. It holds no per-document state and is
// safe for concurrent use.
type Aggregator struct {
	joiner core.PageJoiner
	tables *normalize.TableConverter
	logger *slog.Logger
}

// New creates an Aggregator. joiner is the engine's page-join convention.
func New(joiner core.PageJoiner, logger *slog.Logger) *Aggregator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Aggregator{
		joiner: joiner,
		tables: normalize.NewTableConverter(),
		logger: logger,
	}
}

// Aggregate builds the bundle for doc in the requested format.
func (a *Aggregator) Aggregate(doc *core.Document, opts Options) (*Bundle, error) {
	var pages []core.PageResult
	if doc != nil {
		pages = doc.Pages
	}

	b := &Bundle{PageCount: len(pages)}
	b.Stats.Pages = len(pages)

	var err error
	switch opts.Format {
	case core.FormatJSON:
		b.Content, err = a.aggregateJSON(pages, &b.Stats)
	case core.FormatMarkdown, core.FormatPDF:
		err = a.aggregateMarkdown(pages, opts, b)
	case core.FormatRaw:
		b.Content = a.aggregateRaw(pages, &b.Stats)
	default:
		return nil, fmt.Errorf("%w: %q", core.ErrUnsupportedFormat, opts.Format)
	}
	if err != nil {
		return nil, err
	}
	return b, nil
}

// aggregateJSON lists each page's structured result as delivered, keeping
// its key order and writing non-ASCII text literally.
func (a *Aggregator) aggregateJSON(pages []core.PageResult, stats *Stats) (string, error) {
	results := make([]json.RawMessage, 0, len(pages))
	for i, p := range pages {
		page, err := normalize.ReencodeJSON(p.Raw)
		if err != nil {
			a.logger.Warn("page has no readable structured result", "page", i+1, "error", err)
			stats.MalformedPages++
			results = append(results, json.RawMessage("{}"))
			continue
		}
		results = append(results, page)
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(results); err != nil {
		return "", fmt.Errorf("marshaling JSON: %w", err)
	}
	return strings.TrimSuffix(buf.String(), "\n"), nil
}

func (a *Aggregator) aggregateMarkdown(pages []core.PageResult, opts Options, b *Bundle) error {
	infos := make([]core.MarkdownInfo, 0, len(pages))
	for i, p := range pages {
		if p.Markdown == nil {
			a.logger.Warn("page has no readable markdown", "page", i+1)
			b.Stats.MalformedPages++
			infos = append(infos, core.MarkdownInfo{})
			continue
		}
		infos = append(infos, *p.Markdown)

		images := p.Markdown.Images
		if opts.ChartOnly {
			blocks, err := p.Blocks()
			if err != nil {
				// Without blocks only the keyword signal applies.
				a.logger.Warn("reading chart blocks", "page", i+1, "error", err)
			}
			images = classify.ChartImages(blocks, images)
			b.Stats.DroppedImages += len(p.Markdown.Images) - len(images)
		}
		b.Images = append(b.Images, images...)
	}
	b.Stats.Images = len(b.Images)

	content := a.joiner.JoinPages(infos)
	if opts.MarkdownTables {
		converted, err := a.tables.Convert(content)
		if err != nil {
			a.logger.Warn("converting tables", "error", err)
		}
		content = converted
	}
	b.Content = content
	b.ImagePaths = extract.ImageRefs(content)
	return nil
}

// aggregateRaw joins the text of every block, a blank line between blocks
// and between pages. Pages without text add no separator.
func (a *Aggregator) aggregateRaw(pages []core.PageResult, stats *Stats) string {
	texts := make([]string, 0, len(pages))
	for i, p := range pages {
		blocks, err := p.Blocks()
		if err != nil {
			a.logger.Warn("page has no readable blocks", "page", i+1, "error", err)
			stats.MalformedPages++
			continue
		}

		var units []string
		for j, blk := range blocks {
			stats.Blocks++
			parts, outcome := extract.Units(blk)
			switch outcome {
			case extract.Empty:
				stats.EmptyBlocks++
			case extract.Unknown:
				stats.UnknownBlocks++
				if blk.Label.Known() {
					a.logger.Debug("block has no text projection", "page", i+1, "block", j, "label", blk.Label)
				} else {
					a.logger.Debug("unrecognized block label", "page", i+1, "block", j, "label", blk.Label)
				}
			case extract.Malformed:
				stats.MalformedBlocks++
				a.logger.Warn("malformed block content", "page", i+1, "block", j, "label", blk.Label)
			}
			for _, part := range parts {
				if part != "" {
					units = append(units, part)
				}
			}
		}

		if text := strings.Join(units, "\n\n"); text != "" {
			texts = append(texts, text)
		}
	}
	return strings.Join(texts, "\n\n")
}
