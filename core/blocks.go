// Package core — content blocks.
// Blocks are decoded from the engine's structured page result into a
// closed set of content variants, one per label.
package core

import (
	"encoding/json"
	"fmt"
)

// Label is the semantic label the engine assigned to a block. The set is
// open; labels not listed here are carried through untouched.
type Label string

const (
	LabelText     Label = "text"
	LabelTitle    Label = "title"
	LabelTable    Label = "table"
	LabelEquation Label = "equation"
	LabelChart    Label = "chart"
	LabelOther    Label = "other"
)

// Known reports whether l is one of the labels LayoutPipe understands.
func (l Label) Known() bool {
	switch l {
	case LabelText, LabelTitle, LabelTable, LabelEquation, LabelChart, LabelOther:
		return true
	}
	return false
}

// Block is one labeled content unit of a page.
// Content is nil when the engine sent a shape that does not fit the label.
type Block struct {
	Label   Label
	Content Content
}

// Content is the label-specific payload of a Block.
type Content interface {
	isContent()
}

// Span is one text run of a span-list text block.
type Span struct {
	Text string `json:"text"`
}

// TextContent is a text or title block delivered as a single string.
type TextContent struct{ Text string }

// SpansContent is a text or title block delivered as a list of spans.
type SpansContent struct{ Spans []Span }

// TableContent is a table block rendered as HTML markup.
type TableContent struct{ HTML string }

// EquationContent is a formula block rendered as LaTeX.
type EquationContent struct{ LaTeX string }

// OpaqueContent is the uninterpreted string of chart, other and unknown blocks.
type OpaqueContent struct{ Raw string }

func (TextContent) isContent()     {}
func (SpansContent) isContent()    {}
func (TableContent) isContent()    {}
func (EquationContent) isContent() {}
func (OpaqueContent) isContent()   {}

// wireBlock is a block as it appears in parsing_res_list.
type wireBlock struct {
	Label   string          `json:"block_label"`
	Content json.RawMessage `json:"block_content"`
}

// ParseBlocks decodes the parsing_res_list of a structured page result.
// The list may sit under a top-level "res" key or at the top level.
// A missing list yields no blocks; unreadable JSON or a list of the wrong
// type is an error.
func ParseBlocks(raw json.RawMessage) ([]Block, error) {
	if len(raw) == 0 {
		return nil, fmt.Errorf("empty page result")
	}

	var top map[string]json.RawMessage
	if err := json.Unmarshal(raw, &top); err != nil {
		return nil, fmt.Errorf("decoding page result: %w", err)
	}

	res := top
	if inner, ok := top["res"]; ok {
		res = nil
		if err := json.Unmarshal(inner, &res); err != nil {
			return nil, fmt.Errorf("decoding res: %w", err)
		}
	}

	list, ok := res["parsing_res_list"]
	if !ok || isNull(list) {
		return nil, nil
	}

	var items []json.RawMessage
	if err := json.Unmarshal(list, &items); err != nil {
		return nil, fmt.Errorf("decoding parsing_res_list: %w", err)
	}

	blocks := make([]Block, 0, len(items))
	for _, item := range items {
		var wb wireBlock
		if err := json.Unmarshal(item, &wb); err != nil {
			// Not an object: keep the slot as an unlabeled block.
			blocks = append(blocks, Block{})
			continue
		}
		label := Label(wb.Label)
		blocks = append(blocks, Block{Label: label, Content: decodeContent(label, wb.Content)})
	}
	return blocks, nil
}

// decodeContent picks the content variant for a label. Shapes that do not
// match the label decode to nil.
func decodeContent(label Label, raw json.RawMessage) Content {
	if len(raw) == 0 || isNull(raw) {
		return nil
	}

	switch label {
	case LabelText, LabelTitle:
		var s string
		if json.Unmarshal(raw, &s) == nil {
			return TextContent{Text: s}
		}
		var items []json.RawMessage
		if json.Unmarshal(raw, &items) != nil {
			return nil
		}
		spans := make([]Span, 0, len(items))
		for _, item := range items {
			var sp struct {
				Text *string `json:"text"`
			}
			if json.Unmarshal(item, &sp) != nil || sp.Text == nil {
				continue
			}
			spans = append(spans, Span{Text: *sp.Text})
		}
		return SpansContent{Spans: spans}

	case LabelTable:
		var t struct {
			HTML *string `json:"html"`
		}
		if json.Unmarshal(raw, &t) != nil || t.HTML == nil {
			return nil
		}
		return TableContent{HTML: *t.HTML}

	case LabelEquation:
		var e struct {
			LaTeX *string `json:"latex"`
		}
		if json.Unmarshal(raw, &e) != nil || e.LaTeX == nil {
			return nil
		}
		return EquationContent{LaTeX: *e.LaTeX}

	default:
		var s string
		if json.Unmarshal(raw, &s) != nil {
			return nil
		}
		return OpaqueContent{Raw: s}
	}
}

func isNull(raw json.RawMessage) bool {
	return string(raw) == "null"
}
