package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"devcollab/internal/config"
	"devcollab/internal/logger"
	"devcollab/internal/models"
	"devcollab/internal/repository/sqlite"
	"devcollab/internal/services/sandbox"
)

func testSetup(t *testing.T) (*config.Config, *logger.Logger) {
	t.Helper()
	cfg := config.Default()
	cfg.LogDirectory = t.TempDir()
	cfg.MaxUploadMB = 1
	log := logger.NewLogger(cfg)
	t.Cleanup(func() { log.Close() })
	return cfg, log
}

func newRepository(t *testing.T) *sqlite.SnippetRepository {
	t.Helper()
	db, err := sqlite.New(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("Failed to open database: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return sqlite.NewSnippetRepository(db)
}

// ========================================
// Health
// ========================================

func TestHealthHandler(t *testing.T) {
	_, log := testSetup(t)
	rr := httptest.NewRecorder()
	HealthHandler(log)(rr, httptest.NewRequest(http.MethodGet, "/api/health", nil))

	if rr.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", rr.Code)
	}
	if strings.TrimSpace(rr.Body.String()) != `{"status":"ok"}` {
		t.Errorf("Unexpected body %q", rr.Body.String())
	}
}

// ========================================
// Snippets
// ========================================

func TestListSnippetsHandler_EmptyIsArray(t *testing.T) {
	_, log := testSetup(t)
	rr := httptest.NewRecorder()
	ListSnippetsHandler(newRepository(t), log)(rr, httptest.NewRequest(http.MethodGet, "/api/snippets", nil))

	if strings.TrimSpace(rr.Body.String()) != "[]" {
		t.Errorf("Expected [], got %q", rr.Body.String())
	}
}

func TestCreateSnippetHandler(t *testing.T) {
	_, log := testSetup(t)
	repo := newRepository(t)

	body := `{"title":"  Edges  ","code":"print(1)","tags":["cv"," "]}`
	rr := httptest.NewRecorder()
	CreateSnippetHandler(repo, log)(rr, httptest.NewRequest(http.MethodPost, "/api/snippets", strings.NewReader(body)))

	if rr.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d: %s", rr.Code, rr.Body.String())
	}

	var created map[string]interface{}
	if err := json.Unmarshal(rr.Body.Bytes(), &created); err != nil {
		t.Fatalf("Invalid JSON: %v", err)
	}
	if created["title"] != "Edges" || created["language"] != "python" {
		t.Errorf("Unexpected snippet %v", created)
	}
	if id, _ := created["id"].(string); !strings.HasPrefix(id, "s_") {
		t.Errorf("Expected s_ id, got %v", created["id"])
	}
	createdAt, _ := created["createdAt"].(string)
	if !strings.HasSuffix(createdAt, "Z") {
		t.Errorf("Expected UTC createdAt ending in Z, got %q", createdAt)
	}
	if tags, _ := created["tags"].([]interface{}); len(tags) != 1 {
		t.Errorf("Expected 1 tag, got %v", created["tags"])
	}

	if count, _ := repo.Count(nil); count != 1 {
		t.Errorf("Expected 1 stored snippet, got %d", count)
	}
}

func TestCreateSnippetHandler_Validation(t *testing.T) {
	_, log := testSetup(t)
	repo := newRepository(t)

	tests := []struct {
		name string
		body string
	}{
		{"missing title", `{"code":"x"}`},
		{"missing code", `{"title":"x"}`},
		{"not json", `title=x`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := httptest.NewRecorder()
			CreateSnippetHandler(repo, log)(rr, httptest.NewRequest(http.MethodPost, "/api/snippets", strings.NewReader(tt.body)))
			if rr.Code != http.StatusUnprocessableEntity {
				t.Errorf("Expected status 422, got %d", rr.Code)
			}
		})
	}
}

func TestGetAndDeleteSnippetHandler(t *testing.T) {
	_, log := testSetup(t)
	repo := newRepository(t)
	s := models.NewSnippet("keep", "go", "package main", nil)
	if err := repo.Insert(s); err != nil {
		t.Fatalf("Insert failed: %v", err)
	}

	req := httptest.NewRequest(http.MethodGet, "/api/snippets/"+s.ID, nil)
	req.SetPathValue("id", s.ID)
	rr := httptest.NewRecorder()
	GetSnippetHandler(repo, log)(rr, req)
	if rr.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", rr.Code)
	}

	req = httptest.NewRequest(http.MethodDelete, "/api/snippets/"+s.ID, nil)
	req.SetPathValue("id", s.ID)
	rr = httptest.NewRecorder()
	DeleteSnippetHandler(repo, log)(rr, req)
	if rr.Code != http.StatusNoContent {
		t.Fatalf("Expected status 204, got %d", rr.Code)
	}

	rr = httptest.NewRecorder()
	DeleteSnippetHandler(repo, log)(rr, req)
	if rr.Code != http.StatusNotFound {
		t.Errorf("Expected status 404 on second delete, got %d", rr.Code)
	}
}

func TestAtoiDefault(t *testing.T) {
	tests := []struct {
		input    string
		def      int
		expected int
	}{
		{"10", 5, 10},
		{"", 5, 5},
		{"abc", 10, 10},
		{"-1", 5, 5},
		{"0", 5, 5},
	}

	for _, tt := range tests {
		if result := atoiDefault(tt.input, tt.def); result != tt.expected {
			t.Errorf("atoiDefault(%q, %d) = %d, expected %d", tt.input, tt.def, result, tt.expected)
		}
	}
}

// ========================================
// CV
// ========================================

type fakeCV struct {
	low, high int
	calls     []string
}

func (f *fakeCV) Canny(data []byte, low, high int) ([]byte, error) {
	f.calls = append(f.calls, "canny")
	f.low, f.high = low, high
	if string(data) == "garbage" {
		return nil, models.ErrInvalidImage
	}
	return []byte("png-canny"), nil
}

func (f *fakeCV) Hands(data []byte) ([]byte, error) {
	f.calls = append(f.calls, "hands")
	return []byte("png-hands"), nil
}

func (f *fakeCV) Faces(data []byte) ([]byte, error) {
	f.calls = append(f.calls, "faces")
	return nil, errors.New("cascade not loaded")
}

func cvRequest(t *testing.T, method string, file []byte, fields map[string]string) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	if file != nil {
		part, err := mw.CreateFormFile("file", "frame.jpg")
		if err != nil {
			t.Fatal(err)
		}
		part.Write(file)
	}
	for k, v := range fields {
		mw.WriteField(k, v)
	}
	mw.Close()

	req := httptest.NewRequest(http.MethodPost, "/api/run/cv/"+method, &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.SetPathValue("method", method)
	return req
}

func TestRunCVHandler(t *testing.T) {
	cfg, log := testSetup(t)

	tests := []struct {
		name       string
		method     string
		file       []byte
		fields     map[string]string
		wantStatus int
		wantBody   string
		wantLow    int
		wantHigh   int
	}{
		{"canny defaults", "canny", []byte("img"), nil, http.StatusOK, "png-canny", 100, 200},
		{"canny thresholds", "canny", []byte("img"), map[string]string{"low": "10", "high": "20"}, http.StatusOK, "png-canny", 10, 20},
		{"canny bad threshold", "canny", []byte("img"), map[string]string{"low": "ten"}, http.StatusUnprocessableEntity, "", 0, 0},
		{"undecodable", "canny", []byte("garbage"), nil, http.StatusBadRequest, "", 100, 200},
		{"missing file", "hands", nil, nil, http.StatusUnprocessableEntity, "", 0, 0},
		{"hands", "hands", []byte("img"), nil, http.StatusOK, "png-hands", 0, 0},
		{"processing error", "faces", []byte("img"), nil, http.StatusInternalServerError, "", 0, 0},
		{"unknown method", "sobel", []byte("img"), nil, http.StatusNotFound, "", 0, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cv := &fakeCV{}
			rr := httptest.NewRecorder()
			RunCVHandler(cv, cfg, log)(rr, cvRequest(t, tt.method, tt.file, tt.fields))

			if rr.Code != tt.wantStatus {
				t.Fatalf("Expected status %d, got %d: %s", tt.wantStatus, rr.Code, rr.Body.String())
			}
			if tt.wantBody != "" {
				if rr.Body.String() != tt.wantBody {
					t.Errorf("Expected body %q, got %q", tt.wantBody, rr.Body.String())
				}
				if rr.Header().Get("Content-Type") != "image/png" {
					t.Errorf("Expected image/png, got %q", rr.Header().Get("Content-Type"))
				}
			}
			if cv.low != tt.wantLow || cv.high != tt.wantHigh {
				t.Errorf("Expected thresholds %d/%d, got %d/%d", tt.wantLow, tt.wantHigh, cv.low, cv.high)
			}
		})
	}
}

func TestRunCVHandler_TooLarge(t *testing.T) {
	cfg, log := testSetup(t)
	big := bytes.Repeat([]byte("x"), int(cfg.MaxUploadBytes())+1024)

	rr := httptest.NewRecorder()
	RunCVHandler(&fakeCV{}, cfg, log)(rr, cvRequest(t, "canny", big, nil))

	if rr.Code != http.StatusRequestEntityTooLarge {
		t.Errorf("Expected status 413, got %d", rr.Code)
	}
}

// ========================================
// Code
// ========================================

func TestRunCodeHandler(t *testing.T) {
	cfg, log := testSetup(t)
	cfg.CodeInterpreter = "/bin/sh"
	cfg.CodeArgs = nil
	cfg.CodeTimeoutMs = 2000
	runner := sandbox.NewRunner(cfg, log)

	form := url.Values{"code": {"echo hi"}}
	req := httptest.NewRequest(http.MethodPost, "/api/run/code", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rr := httptest.NewRecorder()
	RunCodeHandler(runner, log)(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d: %s", rr.Code, rr.Body.String())
	}
	var result sandbox.Result
	if err := json.Unmarshal(rr.Body.Bytes(), &result); err != nil {
		t.Fatalf("Invalid JSON: %v", err)
	}
	if result.ReturnCode != 0 || result.Stdout != "hi\n" {
		t.Errorf("Unexpected result %+v", result)
	}
}

type stubRunner struct{ result *sandbox.Result }

func (s stubRunner) Run(ctx context.Context, code string) (*sandbox.Result, error) {
	return s.result, nil
}

func TestRunCodeHandler_TimeoutIsOK(t *testing.T) {
	_, log := testSetup(t)
	runner := stubRunner{&sandbox.Result{ReturnCode: sandbox.TimeoutExitCode, Stderr: "\nTimeout"}}

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	mw.WriteField("code", "while True: pass")
	mw.Close()
	req := httptest.NewRequest(http.MethodPost, "/api/run/code", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	rr := httptest.NewRecorder()
	RunCodeHandler(runner, log)(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", rr.Code)
	}
	if !strings.Contains(rr.Body.String(), `"returncode":124`) {
		t.Errorf("Expected returncode 124, got %s", rr.Body.String())
	}
}

func TestRunCodeHandler_MissingCode(t *testing.T) {
	_, log := testSetup(t)
	req := httptest.NewRequest(http.MethodPost, "/api/run/code", strings.NewReader(""))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rr := httptest.NewRecorder()
	RunCodeHandler(stubRunner{}, log)(rr, req)

	if rr.Code != http.StatusUnprocessableEntity {
		t.Errorf("Expected status 422, got %d", rr.Code)
	}
}

// ========================================
// Logs
// ========================================

func TestLogsHandlers(t *testing.T) {
	_, log := testSetup(t)
	log.Warning("disk almost full")

	req := httptest.NewRequest(http.MethodGet, "/logs/warning", nil)
	req.SetPathValue("level", "warning")
	rr := httptest.NewRecorder()
	ShowLogsHandler(log)(rr, req)
	if rr.Code != http.StatusOK || !strings.Contains(rr.Body.String(), "disk almost full") {
		t.Fatalf("Expected warning log contents, got %d %q", rr.Code, rr.Body.String())
	}

	req = httptest.NewRequest(http.MethodPost, "/logs/warning/clear", nil)
	req.SetPathValue("level", "warning")
	rr = httptest.NewRecorder()
	ClearLogsHandler(log)(rr, req)
	if rr.Code != http.StatusNoContent {
		t.Fatalf("Expected status 204, got %d", rr.Code)
	}

	info, err := os.Stat(log.Path("warning"))
	if err != nil || info.Size() != 0 {
		t.Errorf("Expected empty warning log, got %v, %v", info, err)
	}

	req = httptest.NewRequest(http.MethodGet, "/logs/debug", nil)
	req.SetPathValue("level", "debug")
	rr = httptest.NewRecorder()
	ShowLogsHandler(log)(rr, req)
	if rr.Code != http.StatusNotFound {
		t.Errorf("Expected status 404 for unknown level, got %d", rr.Code)
	}
}
