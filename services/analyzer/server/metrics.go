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
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics contains the Prometheus metrics for the analyzer service.
//
// All metrics use the "ppscope_" prefix for consistent naming.
//
// Thread Safety: Safe for concurrent use after creation.
type Metrics struct {
	// HTTPRequestsTotal counts HTTP requests by method, path, and status.
	HTTPRequestsTotal *prometheus.CounterVec

	// HTTPRequestDuration records HTTP request duration in seconds.
	HTTPRequestDuration *prometheus.HistogramVec

	// FilesAnalyzedTotal counts files processed by analyze requests.
	FilesAnalyzedTotal prometheus.Counter

	// DirectivesTotal counts directives seen across analyze requests.
	DirectivesTotal prometheus.Counter

	// FindingsTotal counts findings by severity.
	FindingsTotal *prometheus.CounterVec
}

// NewMetrics creates a Metrics instance registered with the given registerer.
//
// Description:
//
//	Registers all service metrics. Returns an error if any registration
//	fails, which in practice means a duplicate registration.
//
// Inputs:
//
//	reg - Prometheus registerer, typically a fresh prometheus.NewRegistry().
//
// Outputs:
//
//	*Metrics - The metrics instance with all collectors initialized.
//	error - Non-nil if registration fails.
func NewMetrics(reg prometheus.Registerer) (*Metrics, error) {
	m := &Metrics{
		HTTPRequestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "ppscope_http_requests_total",
			Help: "Total HTTP requests by method, path, and status.",
		}, []string{"method", "path", "status"}),
		HTTPRequestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "ppscope_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds.",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "path"}),
		FilesAnalyzedTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "ppscope_files_analyzed_total",
			Help: "Total files processed by analyze requests.",
		}),
		DirectivesTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "ppscope_directives_total",
			Help: "Total preprocessor directives seen.",
		}),
		FindingsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "ppscope_findings_total",
			Help: "Total findings by severity.",
		}, []string{"severity"}),
	}

	for _, c := range []prometheus.Collector{
		m.HTTPRequestsTotal,
		m.HTTPRequestDuration,
		m.FilesAnalyzedTotal,
		m.DirectivesTotal,
		m.FindingsTotal,
	} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return m, nil
}
