package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"os"
	"path/filepath"
	"testing"

	"github.com/gaurav-prasanna/layoutpipe/config"
	"github.com/gaurav-prasanna/layoutpipe/core"
	"github.com/gaurav-prasanna/layoutpipe/core/engine"
	"github.com/gaurav-prasanna/layoutpipe/core/service"
)

type fakeEngine struct {
	opts core.EngineOptions
	in   core.Input
	err  error
}

func (f *fakeEngine) Predict(_ context.Context, in core.Input, opts core.EngineOptions) (*core.Document, error) {
	f.in, f.opts = in, opts
	if f.err != nil {
		return nil, f.err
	}
	return &core.Document{Pages: []core.PageResult{{
		Raw:      []byte(`{"res": {"parsing_res_list": [{"block_label": "text", "block_content": "Hello"}]}}`),
		Markdown: &core.MarkdownInfo{Text: "# Hello\n\n![f](imgs/fig_1.png)"},
	}}}, nil
}

func newTestServer(t *testing.T, eng core.Engine, mutate func(*config.Config)) *Server {
	t.Helper()
	cfg := config.DefaultConfig()
	cfg.OutputDir = t.TempDir()
	if mutate != nil {
		mutate(cfg)
	}
	svc := service.New(eng, engine.NewJoiner(cfg.PageSeparator), cfg.OutputDir, nil)
	return New(cfg, svc, nil)
}

func upload(t *testing.T, name, contentType string, data []byte) (*bytes.Buffer, string) {
	t.Helper()
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", `form-data; name="file"; filename="`+name+`"`)
	if contentType != "" {
		h.Set("Content-Type", contentType)
	}
	part, err := mw.CreatePart(h)
	if err != nil {
		t.Fatal(err)
	}
	part.Write(data)
	mw.Close()
	return &body, mw.FormDataContentType()
}

func post(t *testing.T, s *Server, query, name, contentType string, data []byte) *httptest.ResponseRecorder {
	t.Helper()
	body, ct := upload(t, name, contentType, data)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/ocr/convert"+query, body)
	req.Header.Set("Content-Type", ct)
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	return rec
}

func TestHealth(t *testing.T) {
	s := newTestServer(t, &fakeEngine{}, nil)
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/health", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var body map[string]string
	json.NewDecoder(rec.Body).Decode(&body)
	if body["status"] != "healthy" || body["service"] != serviceName {
		t.Fatalf("unexpected body %v", body)
	}
}

func TestConvert(t *testing.T) {
	eng := &fakeEngine{}
	s := newTestServer(t, eng, nil)

	rec := post(t, s, "?output_format=raw&language=ch&device=gpu&use_seal_recognition=true", "scan.pdf", "application/pdf", []byte("%PDF"))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body)
	}

	var resp ConvertResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatal(err)
	}
	if resp.Status != "success" || resp.OutputFormat != "raw" || resp.Content != "Hello" || resp.Pages != 1 {
		t.Fatalf("unexpected response %+v", resp)
	}
	if len(resp.SavedFiles) != 0 {
		t.Fatalf("expected nothing saved, got %v", resp.SavedFiles)
	}
	if resp.Metadata["language"] != "ch" || resp.Metadata["device"] != "gpu" {
		t.Fatalf("unexpected metadata %v", resp.Metadata)
	}

	if eng.in.Name != "scan.pdf" || string(eng.in.Data) != "%PDF" {
		t.Fatalf("unexpected engine input %+v", eng.in)
	}
	if !eng.opts.UseSealRecognition || !eng.opts.UseTableRecognition {
		t.Fatalf("unexpected engine options %+v", eng.opts)
	}
}

func TestConvertSaveOutput(t *testing.T) {
	dir := t.TempDir()
	s := newTestServer(t, &fakeEngine{}, nil)

	rec := post(t, s, "?save_output=true&output_dir="+dir, "scan.png", "image/png", []byte("png"))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body)
	}
	var resp ConvertResponse
	json.NewDecoder(rec.Body).Decode(&resp)

	want := filepath.Join(dir, "scan.md")
	if len(resp.SavedFiles) != 1 || resp.SavedFiles[0] != want {
		t.Fatalf("unexpected saved files %v", resp.SavedFiles)
	}
	if len(resp.ImagePaths) != 1 || resp.ImagePaths[0] != "imgs/fig_1.png" {
		t.Fatalf("unexpected image paths %v", resp.ImagePaths)
	}
	if _, err := os.Stat(want); err != nil {
		t.Fatal(err)
	}
}

func TestConvertPersistFailure(t *testing.T) {
	blocker := filepath.Join(t.TempDir(), "file")
	os.WriteFile(blocker, []byte("x"), 0644)
	s := newTestServer(t, &fakeEngine{}, nil)

	rec := post(t, s, "?save_output=true&output_dir="+blocker, "scan.pdf", "", []byte("%PDF"))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var resp ConvertResponse
	json.NewDecoder(rec.Body).Decode(&resp)
	if resp.Status != "partial" || resp.PersistError == "" || resp.Content != "# Hello\n\n![f](imgs/fig_1.png)" {
		t.Fatalf("unexpected response %+v", resp)
	}
}

func TestConvertRejects(t *testing.T) {
	s := newTestServer(t, &fakeEngine{}, func(c *config.Config) { c.MaxFileSizeMB = 1 })

	tests := []struct {
		name, query, file, ct string
		size                  int
	}{
		{"extension", "", "notes.txt", "text/plain", 10},
		{"mime", "", "scan.pdf", "text/html", 10},
		{"format", "?output_format=docx", "scan.pdf", "application/pdf", 10},
		{"language", "?language=fr", "scan.pdf", "application/pdf", 10},
		{"device", "?device=tpu", "scan.pdf", "application/pdf", 10},
		{"bool", "?save_output=maybe", "scan.pdf", "application/pdf", 10},
		{"size", "", "scan.pdf", "application/pdf", 1<<20 + 1},
	}
	for _, tt := range tests {
		rec := post(t, s, tt.query, tt.file, tt.ct, bytes.Repeat([]byte("x"), tt.size))
		if rec.Code != http.StatusBadRequest {
			t.Errorf("%s: expected 400, got %d", tt.name, rec.Code)
			continue
		}
		var resp ErrorResponse
		json.NewDecoder(rec.Body).Decode(&resp)
		if resp.Status != "error" || resp.Error == "" {
			t.Errorf("%s: unexpected body %+v", tt.name, resp)
		}
	}
}

func TestConvertMissingFile(t *testing.T) {
	s := newTestServer(t, &fakeEngine{}, nil)
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	mw.WriteField("other", "x")
	mw.Close()

	req := httptest.NewRequest(http.MethodPost, "/api/v1/ocr/convert", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestConvertEngineFailure(t *testing.T) {
	s := newTestServer(t, &fakeEngine{err: errors.New("engine down")}, nil)

	rec := post(t, s, "", "scan.pdf", "application/pdf", []byte("%PDF"))
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", rec.Code)
	}
	var resp ErrorResponse
	json.NewDecoder(rec.Body).Decode(&resp)
	if resp.Error != "Internal server error" || resp.Detail == nil || *resp.Detail == "" {
		t.Fatalf("unexpected body %+v", resp)
	}
}
