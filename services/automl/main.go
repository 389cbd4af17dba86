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
	"log"
	"log/slog"
	"os"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"

	"github.com/AleutianAI/AleutianAutoML/services/automl/assistant"
	"github.com/AleutianAI/AleutianAutoML/services/automl/config"
	"github.com/AleutianAI/AleutianAutoML/services/automl/handlers"
	"github.com/AleutianAI/AleutianAutoML/services/automl/jobs"
	"github.com/AleutianAI/AleutianAutoML/services/automl/observability"
	"github.com/AleutianAI/AleutianAutoML/services/automl/routes"
	"github.com/AleutianAI/AleutianAutoML/services/automl/store"

	// --- OpenTelemetry imports ---
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.21.0"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
)

func initTracer(endpoint string) (func(context.Context), error) {
	ctx := context.Background()

	conn, err := grpc.NewClient(endpoint,
		grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		return nil, err
	}
	traceExporter, err := otlptracegrpc.New(ctx, otlptracegrpc.WithGRPCConn(conn))
	if err != nil {
		return nil, err
	}
	res, err := resource.New(ctx,
		resource.WithAttributes(semconv.ServiceNameKey.String("automl-service")))
	if err != nil {
		return nil, err
	}
	bsp := sdktrace.NewBatchSpanProcessor(traceExporter)
	traceProvider := sdktrace.NewTracerProvider(
		sdktrace.WithSampler(sdktrace.AlwaysSample()),
		sdktrace.WithResource(res),
		sdktrace.WithSpanProcessor(bsp))
	otel.SetTracerProvider(traceProvider)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(propagation.
		TraceContext{}, propagation.Baggage{}))

	return func(ctx context.Context) {
		ctx, cancel := context.WithTimeout(ctx, time.Second*5)
		defer cancel()
		if err := traceExporter.Shutdown(ctx); err != nil {
			slog.Error("failed to shutdown OTLP exporter", "error", err)
		}
	}, nil
}

func main() {
	// Local development convenience; ignored when no .env exists.
	_ = godotenv.Load()

	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}

	if cfg.OTelEndpoint != "" {
		cleanup, err := initTracer(cfg.OTelEndpoint)
		if err != nil {
			log.Fatalf("failed to setup the OTLP tracer: %v", err)
		}
		defer cleanup(context.Background())
	} else {
		slog.Info("AUTOML_OTEL_ENDPOINT not set. Tracing disabled.")
	}

	observability.InitMetrics()

	sessions := store.New(store.Config{
		TTL:         cfg.SessionTTL,
		MaxSessions: cfg.SessionCap,
	})
	defer sessions.Close()

	var jobStore jobs.Store
	if cfg.PostgresDSN != "" {
		pg, err := jobs.NewPostgresStore(context.Background(), cfg.PostgresDSN)
		if err != nil {
			log.Fatalf("failed to connect to the job-record store: %v", err)
		}
		defer pg.Close()
		jobStore = pg
		slog.Info("Job records persisted to Postgres")
	} else {
		jobStore = jobs.NewMemoryStore()
		slog.Info("AUTOML_POSTGRES_DSN not set. Running with in-memory job records.")
	}

	groq, err := assistant.NewClient()
	if err != nil {
		slog.Warn("Assistant disabled", "error", err)
		groq = nil
	}

	router := gin.Default()
	router.MaxMultipartMemory = int64(cfg.UploadLimitMiB) << 20
	if cfg.OTelEndpoint != "" {
		router.Use(otelgin.Middleware("automl-service"))
	}

	routes.SetupRoutes(router, handlers.Deps{
		Store:     sessions,
		Jobs:      jobStore,
		Assistant: groq,
	})

	slog.Info("Starting the AutoML pipeline service", "port", cfg.Port)
	if err := router.Run(":" + cfg.Port); err != nil {
		log.Fatalf("failed to start the server: %v", err)
	}
}
