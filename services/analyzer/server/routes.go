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
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// RegisterRoutes registers the analyzer routes with the router group.
//
// Description:
//
//	Registers all /v1/* endpoints with the given Gin router group.
//	The router group should already have any required middleware applied.
//
// Endpoints:
//
//	POST /v1/analyze - Analyze submitted sources
//	GET  /v1/result/:id - Retrieve a stored result by run ID
//	GET  /v1/health - Health check
//
// Example:
//
//	svc := server.NewService(server.DefaultServiceConfig(), logger)
//	handlers := server.NewHandlers(svc)
//
//	v1 := router.Group("/v1")
//	server.RegisterRoutes(v1, handlers)
func RegisterRoutes(rg *gin.RouterGroup, handlers *Handlers) {
	rg.POST("/analyze", handlers.HandleAnalyze)
	rg.GET("/result/:id", handlers.HandleResult)
	rg.GET("/health", handlers.HandleHealth)
}

// NewRouter builds a ready-to-serve engine: metrics middleware, the /v1
// API group, and the Prometheus scrape endpoint.
func NewRouter(handlers *Handlers, registry *prometheus.Registry, metrics *Metrics) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	if metrics != nil {
		router.Use(MetricsMiddleware(metrics))
	}

	v1 := router.Group("/v1")
	RegisterRoutes(v1, handlers)

	if registry != nil {
		router.GET("/metrics", gin.WrapH(
			promhttp.HandlerFor(registry, promhttp.HandlerOpts{})))
	}

	return router
}
