package engine

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"github.com/gaurav-prasanna/layoutpipe/core"
)

const (
	defaultTimeout   = 10 * time.Minute
	defaultUserAgent = "LayoutPipe/1.0 (https://github.com/gaurav-prasanna/layoutpipe)"
)

// HTTPEngine calls a remote Recognition Engine over HTTP.
type HTTPEngine struct {
	URL    string
	client *http.Client
	logger *slog.Logger
}

// NewHTTPEngine creates an HTTPEngine for the predict endpoint at url.
// A zero timeout means ten minutes.
func NewHTTPEngine(url string, timeout time.Duration, logger *slog.Logger) *HTTPEngine {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &HTTPEngine{
		URL:    url,
		client: &http.Client{Timeout: timeout},
		logger: logger,
	}
}

// predictRequest is the request body sent to the engine.
type predictRequest struct {
	File     string `json:"file"`
	FileName string `json:"file_name"`
	FileType string `json:"file_type"`
	Lang     string `json:"lang"`
	core.EngineOptions
}

// EngineLanguage maps a requested language to the engine's model language.
func EngineLanguage(language string) string {
	switch language {
	case "ch", "en&ch":
		return "ch"
	default:
		return "en"
	}
}

// FileType reports whether name is a "pdf" or an "image" for the engine.
func FileType(name string) string {
	if strings.EqualFold(filepath.Ext(name), ".pdf") {
		return "pdf"
	}
	return "image"
}

// Predict sends the document to the engine and decodes its page results.
func (e *HTTPEngine) Predict(ctx context.Context, in core.Input, opts core.EngineOptions) (*core.Document, error) {
	body, err := json.Marshal(predictRequest{
		File:          base64.StdEncoding.EncodeToString(in.Data),
		FileName:      in.Name,
		FileType:      FileType(in.Name),
		Lang:          EngineLanguage(opts.Language),
		EngineOptions: opts,
	})
	if err != nil {
		return nil, fmt.Errorf("marshaling predict request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, e.URL, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("User-Agent", defaultUserAgent)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	e.logger.Debug("calling recognition engine", "url", e.URL, "file", in.Name, "bytes", len(in.Data))

	resp, err := e.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("calling engine %s: %w", e.URL, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading engine response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("engine returned %d: %s", resp.StatusCode, strings.TrimSpace(string(data)))
	}

	pages, err := DecodePages(data, e.logger)
	if err != nil {
		return nil, fmt.Errorf("decoding engine response: %w", err)
	}
	return &core.Document{Name: in.Name, Size: int64(len(in.Data)), Pages: pages}, nil
}
