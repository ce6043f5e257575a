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
	"github.com/AleutianAI/ppscope/services/analyzer"
)

// AnalyzeRequest is the request body for POST /v1/analyze.
type AnalyzeRequest struct {
	// Files maps file path to file contents. Required, non-empty.
	Files map[string]string `json:"files" binding:"required"`

	// Strict enables the additional strict-mode validations.
	Strict bool `json:"strict"`

	// Format selects the report format. Empty means "json", which returns
	// the structured result directly.
	Format string `json:"format"`
}

// AnalyzeResponse is the structured response for JSON-format requests.
type AnalyzeResponse struct {
	// RequestID echoes the X-Request-ID for correlation.
	RequestID string `json:"request_id"`

	// Result is the merged analysis result.
	Result *analyzer.Result `json:"result"`
}

// ReportResponse is the response for rendered report formats.
type ReportResponse struct {
	// RequestID echoes the X-Request-ID for correlation.
	RequestID string `json:"request_id"`

	// Format is the rendered format name.
	Format string `json:"format"`

	// Report is the rendered report body.
	Report string `json:"report"`
}

// HealthResponse is the response for GET /v1/health.
type HealthResponse struct {
	Status  string `json:"status"`
	Version string `json:"version"`
}

// ErrorResponse is the standard error body.
type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}
