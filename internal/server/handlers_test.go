package server

import (
	"bytes"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/hyperjump/extractify/internal/config"
	"github.com/hyperjump/extractify/internal/models"
	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"
)

func workbook(t *testing.T, rows ...[]interface{}) []byte {
	t.Helper()
	f := excelize.NewFile()
	defer f.Close()
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			t.Fatal(err)
		}
		r := row
		if err := f.SetSheetRow("Sheet1", cell, &r); err != nil {
			t.Fatal(err)
		}
	}
	var buf bytes.Buffer
	if _, err := f.WriteTo(&buf); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

func multipartBody(t *testing.T, field, name string, content []byte) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile(field, name)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := part.Write(content); err != nil {
		t.Fatal(err)
	}
	if err := mw.Close(); err != nil {
		t.Fatal(err)
	}
	return &buf, mw.FormDataContentType()
}

func newTestServer(maxUpload int64) *Server {
	return NewServer(nil, &config.ServerConfig{Host: "localhost", Port: 8080, MaxUploadBytes: maxUpload}, zap.NewNop())
}

func TestHandleExtract_multipart(t *testing.T) {
	content := workbook(t,
		[]interface{}{"Title", "Solution"},
		[]interface{}{"Reset", "Click reset"},
		[]interface{}{"", "Only solution"},
	)
	body, ctype := multipartBody(t, "file", "faq.xlsx", content)
	r := httptest.NewRequest(http.MethodPost, "/api/v1/extract", body)
	r.Header.Set("Content-Type", ctype)
	w := httptest.NewRecorder()
	newTestServer(0).Handler().ServeHTTP(w, r)

	if w.Code != http.StatusOK {
		t.Fatalf("status: got %d body %s", w.Code, w.Body.String())
	}
	var resp models.ExtractResponse
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatal(err)
	}
	if resp.ID == "" || resp.FileName != "faq.xlsx" || resp.Format != "xlsx" || resp.Count != 2 {
		t.Errorf("response = %+v", resp)
	}
	if !strings.HasPrefix(resp.ContentID, "sha256:") {
		t.Errorf("content_id = %q", resp.ContentID)
	}
	if resp.Items[1].Title != "" || resp.Items[1].Solution != "Only solution" {
		t.Errorf("items = %+v", resp.Items)
	}
}

func TestHandleExtract_rawBody(t *testing.T) {
	content := workbook(t, []interface{}{"title"}, []interface{}{"x"})
	r := httptest.NewRequest(http.MethodPost, "/api/v1/extract?name=raw.xlsx", bytes.NewReader(content))
	r.Header.Set("Content-Type", "application/octet-stream")
	w := httptest.NewRecorder()
	newTestServer(0).Handler().ServeHTTP(w, r)

	if w.Code != http.StatusOK {
		t.Fatalf("status: got %d body %s", w.Code, w.Body.String())
	}
	var resp models.ExtractResponse
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatal(err)
	}
	if resp.FileName != "raw.xlsx" || resp.Count != 1 {
		t.Errorf("response = %+v", resp)
	}
}

func TestHandleExtract_headerOnlyReturnsEmptyItems(t *testing.T) {
	content := workbook(t, []interface{}{"Title", "Solution"})
	r := httptest.NewRequest(http.MethodPost, "/api/v1/extract", bytes.NewReader(content))
	w := httptest.NewRecorder()
	newTestServer(0).Handler().ServeHTTP(w, r)

	if w.Code != http.StatusOK {
		t.Fatalf("status: got %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), `"items":[]`) {
		t.Errorf("expected empty items array, got %s", w.Body.String())
	}
}

func TestHandleExtract_parseErrors(t *testing.T) {
	tests := []struct {
		name    string
		content []byte
		kind    string
		message string
	}{
		{"columns", workbook(t, []interface{}{"Foo", "Bar"}, []interface{}{"a", "b"}), "columns",
			"could not find 'title' or 'solution' columns in the Excel file"},
		{"decode", []byte("definitely not a workbook"), "decode", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest(http.MethodPost, "/api/v1/extract", bytes.NewReader(tt.content))
			w := httptest.NewRecorder()
			newTestServer(0).Handler().ServeHTTP(w, r)

			if w.Code != http.StatusUnprocessableEntity {
				t.Fatalf("status: got %d", w.Code)
			}
			var out map[string]string
			if err := json.NewDecoder(w.Body).Decode(&out); err != nil {
				t.Fatal(err)
			}
			if out["kind"] != tt.kind {
				t.Errorf("kind = %q, want %q", out["kind"], tt.kind)
			}
			if out["error"] == "" || (tt.message != "" && out["error"] != tt.message) {
				t.Errorf("error = %q", out["error"])
			}
		})
	}
}

func TestHandleExtract_missingFile(t *testing.T) {
	body, ctype := multipartBody(t, "other", "faq.xlsx", []byte("x"))
	r := httptest.NewRequest(http.MethodPost, "/api/v1/extract", body)
	r.Header.Set("Content-Type", ctype)
	w := httptest.NewRecorder()
	newTestServer(0).Handler().ServeHTTP(w, r)
	if w.Code != http.StatusBadRequest {
		t.Errorf("status: got %d, want 400", w.Code)
	}

	r = httptest.NewRequest(http.MethodPost, "/api/v1/extract", nil)
	w = httptest.NewRecorder()
	newTestServer(0).Handler().ServeHTTP(w, r)
	if w.Code != http.StatusBadRequest {
		t.Errorf("empty body: got %d, want 400", w.Code)
	}
}

func TestHandleExtract_tooLarge(t *testing.T) {
	r := httptest.NewRequest(http.MethodPost, "/api/v1/extract", bytes.NewReader(make([]byte, 2048)))
	w := httptest.NewRecorder()
	newTestServer(1024).Handler().ServeHTTP(w, r)
	if w.Code != http.StatusRequestEntityTooLarge {
		t.Errorf("status: got %d, want 413", w.Code)
	}
}

func TestHandleExport(t *testing.T) {
	content := workbook(t,
		[]interface{}{"Title", "Solution"},
		[]interface{}{"A", "B"},
	)
	body, ctype := multipartBody(t, "file", "report.final.xlsx", content)
	r := httptest.NewRequest(http.MethodPost, "/api/v1/export", body)
	r.Header.Set("Content-Type", ctype)
	w := httptest.NewRecorder()
	newTestServer(0).Handler().ServeHTTP(w, r)

	if w.Code != http.StatusOK {
		t.Fatalf("status: got %d body %s", w.Code, w.Body.String())
	}
	if got := w.Header().Get("Content-Disposition"); got != `attachment; filename="report-extracted.json"` {
		t.Errorf("Content-Disposition = %q", got)
	}
	want := "[\n  {\n    \"title\": \"A\",\n    \"solution\": \"B\"\n  }\n]"
	if w.Body.String() != want {
		t.Errorf("body = %q, want %q", w.Body.String(), want)
	}
}

func TestHandleExport_nothingToExport(t *testing.T) {
	content := workbook(t, []interface{}{"Title", "Solution"})
	r := httptest.NewRequest(http.MethodPost, "/api/v1/export", bytes.NewReader(content))
	w := httptest.NewRecorder()
	newTestServer(0).Handler().ServeHTTP(w, r)
	if w.Code != http.StatusUnprocessableEntity {
		t.Fatalf("status: got %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), "nothing to export") {
		t.Errorf("body = %s", w.Body.String())
	}
}

func TestHandleHealth(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/health", nil)
	w := httptest.NewRecorder()
	newTestServer(0).Handler().ServeHTTP(w, r)
	if w.Code != http.StatusOK {
		t.Errorf("status: got %d", w.Code)
	}
	var out map[string]string
	if err := json.NewDecoder(w.Body).Decode(&out); err != nil {
		t.Fatal(err)
	}
	if out["status"] != "ok" {
		t.Errorf("status field: got %q", out["status"])
	}
}

func TestHandleMetrics(t *testing.T) {
	srv := newTestServer(0)
	content := workbook(t, []interface{}{"Title"}, []interface{}{"x"})
	srv.Handler().ServeHTTP(httptest.NewRecorder(),
		httptest.NewRequest(http.MethodPost, "/api/v1/extract", bytes.NewReader(content)))

	r := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	w := httptest.NewRecorder()
	srv.Handler().ServeHTTP(w, r)
	if w.Code != http.StatusOK {
		t.Fatalf("status: got %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), "extractify_extract_total") {
		t.Error("metrics output missing extractify_extract_total")
	}
}
