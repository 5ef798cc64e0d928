// Package engine adapts Recognition Engine output into core documents.
//
// The wire format is a JSON array of pages (optionally wrapped as
// {"pages": [...]}). Each page carries the structured result under "json"
// and its markdown rendering under "markdown":
//
//	[{"json": {"res": {...}},
//	  "markdown": {"markdown_texts": "...", "markdown_images": {"imgs/a.jpg": "<base64>"}}}]
package engine

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"

	"github.com/gaurav-prasanna/layoutpipe/core"
	"github.com/gaurav-prasanna/layoutpipe/core/payload"
)

type wirePage struct {
	JSON     json.RawMessage `json:"json"`
	Markdown json.RawMessage `json:"markdown"`
}

type wireMarkdown struct {
	Texts  *string         `json:"markdown_texts"`
	Text   *string         `json:"text"`
	Images json.RawMessage `json:"markdown_images"`
	Alt    json.RawMessage `json:"images"`
}

// DecodePages parses the wire format into page results. An unreadable
// envelope is an error; an unreadable markdown section only leaves that
// page without markdown.
func DecodePages(data []byte, logger *slog.Logger) ([]core.PageResult, error) {
	if logger == nil {
		logger = slog.Default()
	}

	trimmed := bytes.TrimSpace(data)
	if len(trimmed) > 0 && trimmed[0] == '{' {
		var env struct {
			Pages json.RawMessage `json:"pages"`
		}
		if err := json.Unmarshal(trimmed, &env); err != nil {
			return nil, fmt.Errorf("decoding page envelope: %w", err)
		}
		if env.Pages == nil {
			return nil, fmt.Errorf("decoding page envelope: missing pages")
		}
		trimmed = env.Pages
	}

	var raws []json.RawMessage
	if err := json.Unmarshal(trimmed, &raws); err != nil {
		return nil, fmt.Errorf("decoding pages: %w", err)
	}

	pages := make([]core.PageResult, 0, len(raws))
	for i, raw := range raws {
		var wp wirePage
		if err := json.Unmarshal(raw, &wp); err != nil {
			logger.Warn("unreadable page", "page", i+1, "error", err)
			pages = append(pages, core.PageResult{})
			continue
		}
		page := core.PageResult{Raw: wp.JSON}
		if len(wp.Markdown) > 0 && string(wp.Markdown) != "null" {
			md, err := decodeMarkdown(wp.Markdown, i+1, logger)
			if err != nil {
				logger.Warn("unreadable page markdown", "page", i+1, "error", err)
			} else {
				page.Markdown = md
			}
		}
		pages = append(pages, page)
	}
	return pages, nil
}

func decodeMarkdown(raw json.RawMessage, page int, logger *slog.Logger) (*core.MarkdownInfo, error) {
	var wm wireMarkdown
	if err := json.Unmarshal(raw, &wm); err != nil {
		return nil, fmt.Errorf("decoding markdown: %w", err)
	}

	md := &core.MarkdownInfo{}
	switch {
	case wm.Texts != nil:
		md.Text = *wm.Texts
	case wm.Text != nil:
		md.Text = *wm.Text
	}

	images := wm.Images
	if len(images) == 0 {
		images = wm.Alt
	}
	imgs, err := decodeImages(images, page, logger)
	if err != nil {
		return nil, err
	}
	md.Images = imgs
	return md, nil
}

// decodeImages reads a path → base64 object, keeping key order. An entry
// that is not valid base64 text is skipped; the rest of the page stays.
func decodeImages(raw json.RawMessage, page int, logger *slog.Logger) ([]core.Image, error) {
	if len(raw) == 0 || string(raw) == "null" {
		return nil, nil
	}

	dec := json.NewDecoder(bytes.NewReader(raw))
	tok, err := dec.Token()
	if err != nil {
		return nil, fmt.Errorf("decoding images: %w", err)
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return nil, fmt.Errorf("decoding images: expected object")
	}

	var images []core.Image
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return nil, fmt.Errorf("decoding images: %w", err)
		}
		path, _ := tok.(string)

		var value json.RawMessage
		if err := dec.Decode(&value); err != nil {
			return nil, fmt.Errorf("decoding image %s: %w", path, err)
		}
		data, err := decodeImageData(value)
		if err != nil {
			logger.Warn("unreadable page image", "page", page, "path", path, "error", err)
			continue
		}
		images = append(images, core.Image{Path: path, Payload: payload.Bytes(data)})
	}
	if _, err := dec.Token(); err != nil && err != io.EOF {
		return nil, fmt.Errorf("decoding images: %w", err)
	}
	return images, nil
}

func decodeImageData(value json.RawMessage) ([]byte, error) {
	var encoded string
	if err := json.Unmarshal(value, &encoded); err != nil {
		return nil, fmt.Errorf("image data is not a string: %w", err)
	}
	return base64.StdEncoding.DecodeString(encoded)
}
