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
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/AleutianAI/ppscope/services/analyzer"
	"github.com/AleutianAI/ppscope/services/analyzer/format"
)

// Handlers contains the HTTP handlers for the analyzer service.
type Handlers struct {
	svc     *Service
	metrics *Metrics
}

// NewHandlers creates handlers for the given service.
func NewHandlers(svc *Service) *Handlers {
	return &Handlers{svc: svc}
}

// WithMetrics sets the metrics instance for method chaining.
func (h *Handlers) WithMetrics(m *Metrics) *Handlers {
	h.metrics = m
	return h
}

// HandleAnalyze handles POST /v1/analyze.
//
// Description:
//
//	Analyzes the submitted sources and returns either the structured
//	result (format "json" or empty) or a rendered report. Per-file
//	failures are findings inside the result, not HTTP errors.
//
// Request Body:
//
//	AnalyzeRequest
//
// Response:
//
//	200 OK: AnalyzeResponse or ReportResponse
//	400 Bad Request: Validation error
//	413 Request Entity Too Large: File limit exceeded
//	500 Internal Server Error: Processing error
func (h *Handlers) HandleAnalyze(c *gin.Context) {
	requestID := getOrCreateRequestID(c)
	logger := slog.With("request_id", requestID, "handler", "HandleAnalyze")

	var req AnalyzeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logger.Warn("Invalid request body", "error", err)
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error: "Invalid request body",
			Code:  "INVALID_REQUEST",
		})
		return
	}

	if len(req.Files) == 0 {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error: "files must not be empty",
			Code:  "NO_FILES",
		})
		return
	}

	formatType := format.FormatType(req.Format)
	if req.Format == "" {
		formatType = format.FormatJSON
	}
	formatter, err := format.New(formatType)
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error: err.Error(),
			Code:  "INVALID_FORMAT",
		})
		return
	}

	logger.Info("Analyzing sources", "files", len(req.Files), "strict", req.Strict)

	result, err := h.svc.Analyze(c.Request.Context(), req.Files, analyzer.Options{Strict: req.Strict})
	if err != nil {
		statusCode := http.StatusInternalServerError
		errCode := "ANALYZE_FAILED"
		if errors.Is(err, ErrTooManyFiles) {
			statusCode = http.StatusRequestEntityTooLarge
			errCode = "TOO_MANY_FILES"
		}
		logger.Error("Analysis failed", "error", err)
		c.JSON(statusCode, ErrorResponse{Error: err.Error(), Code: errCode})
		return
	}

	h.observe(result)
	h.svc.StoreResult(requestID, result)

	if formatType == format.FormatJSON {
		c.JSON(http.StatusOK, AnalyzeResponse{RequestID: requestID, Result: result})
		return
	}

	report, err := formatter.Format(result)
	if err != nil {
		logger.Error("Report rendering failed", "error", err)
		c.JSON(http.StatusInternalServerError, ErrorResponse{
			Error: err.Error(),
			Code:  "RENDER_FAILED",
		})
		return
	}

	c.JSON(http.StatusOK, ReportResponse{
		RequestID: requestID,
		Format:    string(formatter.Name()),
		Report:    report,
	})
}

// HandleResult handles GET /v1/result/:id.
//
// Description:
//
//	Returns a previously computed result by its run ID (the X-Request-ID
//	of the originating analyze call). Results live in memory and the
//	oldest are evicted once the store cap is reached.
//
// Response:
//
//	200 OK: AnalyzeResponse
//	404 Not Found: Unknown or evicted run ID
func (h *Handlers) HandleResult(c *gin.Context) {
	id := c.Param("id")
	result, ok := h.svc.Result(id)
	if !ok {
		c.JSON(http.StatusNotFound, ErrorResponse{
			Error: "unknown or evicted result id",
			Code:  "RESULT_NOT_FOUND",
		})
		return
	}
	c.JSON(http.StatusOK, AnalyzeResponse{RequestID: id, Result: result})
}

// HandleHealth handles GET /v1/health.
func (h *Handlers) HandleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, HealthResponse{Status: "ok", Version: ServiceVersion})
}

// observe feeds result counters after a successful analysis.
func (h *Handlers) observe(result *analyzer.Result) {
	if h.metrics == nil {
		return
	}
	h.metrics.FilesAnalyzedTotal.Add(float64(result.TotalFiles))
	h.metrics.DirectivesTotal.Add(float64(result.TotalDirectives))
	for _, e := range result.Errors {
		h.metrics.FindingsTotal.WithLabelValues(e.Severity.String()).Inc()
	}
}
