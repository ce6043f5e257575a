// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package server

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/AleutianAI/ppscope/services/analyzer"
	"github.com/AleutianAI/ppscope/services/analyzer/cache"
)

func init() {
	// Set Gin to test mode to reduce noise
	gin.SetMode(gin.TestMode)
}

func setupTestRouter(t *testing.T, svc *Service) *gin.Engine {
	t.Helper()

	registry := prometheus.NewRegistry()
	metrics, err := NewMetrics(registry)
	if err != nil {
		t.Fatalf("NewMetrics failed: %v", err)
	}
	handlers := NewHandlers(svc).WithMetrics(metrics)
	return NewRouter(handlers, registry, metrics)
}

func postAnalyze(t *testing.T, router *gin.Engine, body AnalyzeRequest) *httptest.ResponseRecorder {
	t.Helper()

	raw, err := json.Marshal(body)
	if err != nil {
		t.Fatalf("marshal request: %v", err)
	}
	req, _ := http.NewRequest("POST", "/v1/analyze", bytes.NewReader(raw))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestHandlers_HandleHealth(t *testing.T) {
	svc := NewService(DefaultServiceConfig(), nil)
	router := setupTestRouter(t, svc)

	req, _ := http.NewRequest("GET", "/v1/health", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("expected status %d, got %d", http.StatusOK, w.Code)
	}

	var resp HealthResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to unmarshal response: %v", err)
	}

	if resp.Status != "ok" {
		t.Errorf("expected status 'ok', got %q", resp.Status)
	}

	if resp.Version != ServiceVersion {
		t.Errorf("expected version %q, got %q", ServiceVersion, resp.Version)
	}
}

func TestHandlers_HandleAnalyze(t *testing.T) {
	svc := NewService(DefaultServiceConfig(), nil)
	router := setupTestRouter(t, svc)

	w := postAnalyze(t, router, AnalyzeRequest{
		Files: map[string]string{
			"a.c": "#ifdef DEBUG\n#define LOG_LEVEL 3\n#endif\n",
			"b.c": "#define VERSION 2\n",
		},
	})

	if w.Code != http.StatusOK {
		t.Fatalf("expected status %d, got %d: %s", http.StatusOK, w.Code, w.Body.String())
	}

	var resp AnalyzeResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to unmarshal response: %v", err)
	}

	if resp.RequestID == "" {
		t.Error("expected generated request ID")
	}
	if resp.Result == nil {
		t.Fatal("expected result in response")
	}
	if resp.Result.TotalFiles != 2 {
		t.Errorf("expected 2 files, got %d", resp.Result.TotalFiles)
	}
	if resp.Result.TotalDefines != 2 {
		t.Errorf("expected 2 defines, got %d", resp.Result.TotalDefines)
	}
}

func TestHandlers_HandleAnalyze_RequestIDEchoed(t *testing.T) {
	svc := NewService(DefaultServiceConfig(), nil)
	router := setupTestRouter(t, svc)

	raw, _ := json.Marshal(AnalyzeRequest{Files: map[string]string{"a.c": "#define A 1\n"}})
	req, _ := http.NewRequest("POST", "/v1/analyze", bytes.NewReader(raw))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Request-ID", "caller-supplied")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if got := w.Header().Get("X-Request-ID"); got != "caller-supplied" {
		t.Errorf("expected echoed request ID, got %q", got)
	}
}

func TestHandlers_HandleAnalyze_RenderedFormat(t *testing.T) {
	svc := NewService(DefaultServiceConfig(), nil)
	router := setupTestRouter(t, svc)

	w := postAnalyze(t, router, AnalyzeRequest{
		Files:  map[string]string{"a.c": "#ifdef FEATURE\n#define X 1\n#endif\n"},
		Format: "markdown",
	})

	if w.Code != http.StatusOK {
		t.Fatalf("expected status %d, got %d: %s", http.StatusOK, w.Code, w.Body.String())
	}

	var resp ReportResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to unmarshal response: %v", err)
	}
	if resp.Format != "markdown" {
		t.Errorf("expected format markdown, got %q", resp.Format)
	}
	if !strings.Contains(resp.Report, "## Preprocessor Conditional Analysis") {
		t.Error("expected markdown report body")
	}
}

func TestHandlers_HandleAnalyze_EmptyFiles(t *testing.T) {
	svc := NewService(DefaultServiceConfig(), nil)
	router := setupTestRouter(t, svc)

	w := postAnalyze(t, router, AnalyzeRequest{Files: map[string]string{}})

	if w.Code != http.StatusBadRequest {
		t.Errorf("expected status %d, got %d", http.StatusBadRequest, w.Code)
	}
}

func TestHandlers_HandleAnalyze_InvalidFormat(t *testing.T) {
	svc := NewService(DefaultServiceConfig(), nil)
	router := setupTestRouter(t, svc)

	w := postAnalyze(t, router, AnalyzeRequest{
		Files:  map[string]string{"a.c": "#define A 1\n"},
		Format: "pdf",
	})

	if w.Code != http.StatusBadRequest {
		t.Errorf("expected status %d, got %d", http.StatusBadRequest, w.Code)
	}

	var resp ErrorResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to unmarshal response: %v", err)
	}
	if resp.Code != "INVALID_FORMAT" {
		t.Errorf("expected code INVALID_FORMAT, got %q", resp.Code)
	}
}

func TestHandlers_HandleAnalyze_TooManyFiles(t *testing.T) {
	cfg := DefaultServiceConfig()
	cfg.MaxRequestFiles = 1
	svc := NewService(cfg, nil)
	router := setupTestRouter(t, svc)

	w := postAnalyze(t, router, AnalyzeRequest{
		Files: map[string]string{"a.c": "", "b.c": ""},
	})

	if w.Code != http.StatusRequestEntityTooLarge {
		t.Errorf("expected status %d, got %d", http.StatusRequestEntityTooLarge, w.Code)
	}
}

func TestHandlers_HandleAnalyze_StrictFindings(t *testing.T) {
	svc := NewService(DefaultServiceConfig(), nil)
	router := setupTestRouter(t, svc)

	w := postAnalyze(t, router, AnalyzeRequest{
		Files:  map[string]string{"r.c": "#define _RESERVED 1\n"},
		Strict: true,
	})

	if w.Code != http.StatusOK {
		t.Fatalf("expected status %d, got %d", http.StatusOK, w.Code)
	}

	var resp AnalyzeResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to unmarshal response: %v", err)
	}
	if len(resp.Result.Errors) == 0 {
		t.Error("expected reserved-name finding in strict mode")
	}
}

func TestHandlers_HandleAnalyze_WithCache(t *testing.T) {
	c, err := cache.OpenInMemory()
	if err != nil {
		t.Fatalf("open cache: %v", err)
	}
	defer c.Close()

	svc := NewService(DefaultServiceConfig(), nil).WithCache(c)
	router := setupTestRouter(t, svc)

	body := AnalyzeRequest{
		Files: map[string]string{"a.c": "#ifdef X\n#define Y 1\n#endif\n"},
	}

	first := postAnalyze(t, router, body)
	if first.Code != http.StatusOK {
		t.Fatalf("first request failed: %d", first.Code)
	}
	second := postAnalyze(t, router, body)
	if second.Code != http.StatusOK {
		t.Fatalf("second request failed: %d", second.Code)
	}

	var a, b AnalyzeResponse
	if err := json.Unmarshal(first.Body.Bytes(), &a); err != nil {
		t.Fatalf("unmarshal first: %v", err)
	}
	if err := json.Unmarshal(second.Body.Bytes(), &b); err != nil {
		t.Fatalf("unmarshal second: %v", err)
	}
	if a.Result.TotalDirectives != b.Result.TotalDirectives {
		t.Error("cached result differs from fresh result")
	}

	n, err := c.Len()
	if err != nil {
		t.Fatalf("cache len: %v", err)
	}
	if n != 1 {
		t.Errorf("expected 1 cache entry, got %d", n)
	}
}

func TestHandlers_HandleResult(t *testing.T) {
	svc := NewService(DefaultServiceConfig(), nil)
	router := setupTestRouter(t, svc)

	w := postAnalyze(t, router, AnalyzeRequest{
		Files: map[string]string{"a.c": "#define A 1\n"},
	})
	if w.Code != http.StatusOK {
		t.Fatalf("analyze failed: %d", w.Code)
	}

	var resp AnalyzeResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshal analyze: %v", err)
	}

	req, _ := http.NewRequest("GET", "/v1/result/"+resp.RequestID, nil)
	got := httptest.NewRecorder()
	router.ServeHTTP(got, req)

	if got.Code != http.StatusOK {
		t.Fatalf("expected stored result, got %d", got.Code)
	}
	var stored AnalyzeResponse
	if err := json.Unmarshal(got.Body.Bytes(), &stored); err != nil {
		t.Fatalf("unmarshal stored: %v", err)
	}
	if stored.Result.TotalFiles != 1 {
		t.Errorf("expected stored result to match, got %d files", stored.Result.TotalFiles)
	}
}

func TestHandlers_HandleResult_Unknown(t *testing.T) {
	svc := NewService(DefaultServiceConfig(), nil)
	router := setupTestRouter(t, svc)

	req, _ := http.NewRequest("GET", "/v1/result/no-such-id", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusNotFound {
		t.Errorf("expected 404, got %d", w.Code)
	}
}

func TestService_StoreResult_Eviction(t *testing.T) {
	cfg := DefaultServiceConfig()
	cfg.MaxStoredResults = 2
	svc := NewService(cfg, nil)

	for _, id := range []string{"first", "second", "third"} {
		svc.StoreResult(id, &analyzer.Result{TotalFiles: 1})
	}

	if _, ok := svc.Result("first"); ok {
		t.Error("expected oldest result to be evicted")
	}
	if _, ok := svc.Result("second"); !ok {
		t.Error("expected second result to survive")
	}
	if _, ok := svc.Result("third"); !ok {
		t.Error("expected newest result to survive")
	}
}

func TestMetricsEndpoint(t *testing.T) {
	svc := NewService(DefaultServiceConfig(), nil)
	router := setupTestRouter(t, svc)

	// Drive one request through the middleware first.
	postAnalyze(t, router, AnalyzeRequest{Files: map[string]string{"a.c": "#define A 1\n"}})

	req, _ := http.NewRequest("GET", "/metrics", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected status %d, got %d", http.StatusOK, w.Code)
	}
	if !strings.Contains(w.Body.String(), "ppscope_http_requests_total") {
		t.Error("expected request counter in scrape output")
	}
	if !strings.Contains(w.Body.String(), "ppscope_files_analyzed_total") {
		t.Error("expected files counter in scrape output")
	}
}
