// Package render — PDF renderer.
// Converts aggregated Markdown into a simple PDF using gofpdf.
// Handles headings (variable font sizes), paragraphs, code blocks, and lists.
// HTML fragments left by the engine are reduced to their text; images are
// not embedded (they are persisted next to the document instead).
package render

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/jung-kurt/gofpdf"

	"github.com/gaurav-prasanna/layoutpipe/core/normalize"
)

// PDFRenderer renders Markdown content as a PDF document.
type PDFRenderer struct {
	Title string
}

// NewPDFRenderer creates a PDFRenderer. An empty title omits the title line.
func NewPDFRenderer(title string) *PDFRenderer {
	return &PDFRenderer{Title: title}
}

// Render converts Markdown into PDF bytes.
func (r *PDFRenderer) Render(markdown string) ([]byte, error) {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetAutoPageBreak(true, 15)
	pdf.AddPage()

	// Core fonts are cp1252; translate what can be translated.
	tr := pdf.UnicodeTranslatorFromDescriptor("")

	if r.Title != "" {
		pdf.SetFont("Helvetica", "B", 18)
		pdf.MultiCell(0, 8, tr(r.Title), "", "L", false)
		pdf.Ln(6)
	}

	lines := strings.Split(markdown, "\n")
	inCodeBlock := false

	for _, line := range lines {
		if strings.HasPrefix(strings.TrimSpace(line), "```") {
			inCodeBlock = !inCodeBlock
			pdf.Ln(2)
			continue
		}

		if inCodeBlock {
			pdf.SetFont("Courier", "", 9)
			pdf.SetFillColor(245, 245, 245)
			pdf.MultiCell(0, 4.5, tr(line), "", "L", true)
			continue
		}

		if strings.TrimSpace(line) == "" {
			pdf.Ln(3)
			continue
		}

		if strings.HasPrefix(line, "#") {
			level := len(line) - len(strings.TrimLeft(line, "#"))
			renderHeading(pdf, tr(cleanLine(line)), level)
			continue
		}

		trimmed := strings.TrimSpace(line)
		if strings.HasPrefix(trimmed, "- ") || strings.HasPrefix(trimmed, "* ") {
			pdf.SetFont("Helvetica", "", 10)
			pdf.MultiCell(0, 5, tr("• "+cleanLine(trimmed[2:])), "", "L", false)
			continue
		}

		text := cleanLine(line)
		if text == "" {
			// Image-only or markup-only line.
			continue
		}
		pdf.SetFont("Helvetica", "", 10)
		pdf.MultiCell(0, 5, tr(text), "", "L", false)
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("writing PDF: %w", err)
	}
	return buf.Bytes(), nil
}

// Extension returns the file extension for PDF output.
func (r *PDFRenderer) Extension() string {
	return ".pdf"
}

// renderHeading sets the font size based on heading level and writes text.
func renderHeading(pdf *gofpdf.Fpdf, text string, level int) {
	sizes := map[int]float64{1: 18, 2: 15, 3: 13, 4: 12, 5: 11, 6: 10}
	size, ok := sizes[level]
	if !ok {
		size = 10
	}
	pdf.Ln(4)
	pdf.SetFont("Helvetica", "B", size)
	pdf.MultiCell(0, size*0.6, text, "", "L", false)
	pdf.Ln(2)
}

// cleanLine strips inline Markdown and HTML from one line.
func cleanLine(line string) string {
	return normalize.StripMarkdown(line)
}
