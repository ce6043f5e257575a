// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/AleutianAI/ppscope/services/analyzer/cache"
	"github.com/AleutianAI/ppscope/services/analyzer/server"
)

// =============================================================================
// COMMAND IMPLEMENTATION
// =============================================================================

// runServe handles `ppscope serve`.
//
// # Description
//
// Runs the analyzer HTTP service until SIGINT/SIGTERM, then drains in-flight
// requests. Endpoints:
//
//	POST /v1/analyze - Analyze submitted sources
//	GET  /v1/health - Health check
//	GET  /metrics - Prometheus scrape endpoint
func runServe(cmd *cobra.Command, args []string) {
	addr := cfg.Server.Addr
	if serveAddr != "" {
		addr = serveAddr
	}

	svc := server.NewService(server.ServiceConfig{
		MaxRequestFiles:    cfg.Server.MaxRequestFiles,
		MaxAnalyzeDuration: cfg.Server.MaxAnalyzeDuration.Std(),
		Workers:            cfg.Analyzer.Workers,
	}, logger.Logger)

	if cfg.Cache.Enabled {
		cacheCfg := cache.DefaultConfig(cfg.Cache.Path)
		cacheCfg.TTL = cfg.Cache.TTL.Std()
		c, err := cache.Open(cacheCfg)
		if err != nil {
			logger.Error("Failed to open result cache", "error", err)
			os.Exit(1)
		}
		defer c.Close()
		svc.WithCache(c)
		logger.Info("Result cache enabled", "path", cfg.Cache.Path)
	}

	registry := prometheus.NewRegistry()
	metrics, err := server.NewMetrics(registry)
	if err != nil {
		logger.Error("Failed to register metrics", "error", err)
		os.Exit(1)
	}

	handlers := server.NewHandlers(svc).WithMetrics(metrics)
	router := server.NewRouter(handlers, registry, metrics)

	srv := &http.Server{
		Addr:              addr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info("Analyzer service listening", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("Server failed", "error", err)
			os.Exit(1)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop

	logger.Info("Shutting down")
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("Shutdown failed", "error", err)
	}
}
