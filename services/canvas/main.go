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
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	_ "github.com/joho/godotenv/autoload"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"

	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.21.0"

	"github.com/AleutianAI/AleutianCanvas/services/canvas/artifacts"
	"github.com/AleutianAI/AleutianCanvas/services/canvas/feedback"
	"github.com/AleutianAI/AleutianCanvas/services/canvas/generation"
	"github.com/AleutianAI/AleutianCanvas/services/canvas/identity"
	"github.com/AleutianAI/AleutianCanvas/services/canvas/routes"
	"github.com/AleutianAI/AleutianCanvas/services/canvas/store"
	"github.com/AleutianAI/AleutianCanvas/services/genai"
)

func initTracer() (func(context.Context), error) {
	ctx := context.Background()

	otelEndpoint := os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT")
	if otelEndpoint == "" {
		otelEndpoint = "aleutian-otel-collector:4317"
	}
	conn, err := grpc.NewClient(otelEndpoint,
		grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		return nil, err
	}
	traceExporter, err := otlptracegrpc.New(ctx, otlptracegrpc.WithGRPCConn(conn))
	if err != nil {
		return nil, err
	}
	res, err := resource.New(ctx,
		resource.WithAttributes(semconv.ServiceNameKey.String("canvas-service")))
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

func corsOrigins() []string {
	raw := os.Getenv("CORS_ALLOW_ORIGINS")
	if raw == "" {
		return []string{"http://localhost:3000"}
	}
	origins := strings.Split(raw, ",")
	for i := range origins {
		origins[i] = strings.TrimSpace(origins[i])
	}
	return origins
}

func main() {
	port := os.Getenv("CANVAS_PORT")
	if port == "" {
		port = "12310"
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	cleanup, err := initTracer()
	if err != nil {
		log.Fatalf("failed to setup the OTLP tracer: %v", err)
	}
	defer cleanup(context.Background())

	ctx := context.Background()

	verifier, err := identity.NewVerifierFromEnv()
	if err != nil {
		log.Fatalf("FATAL: could not initialize the identity verifier: %v", err)
	}

	pgStore, err := store.NewPostgresStore(ctx)
	if err != nil {
		log.Fatalf("FATAL: could not initialize the store: %v", err)
	}
	defer pgStore.Close()

	artifactStore, err := artifacts.NewGCSStore(ctx)
	if err != nil {
		log.Fatalf("FATAL: could not initialize the artifact store: %v", err)
	}

	log.Println("Configuring the generation client")
	provider, err := genai.NewGeminiClient()
	if err != nil {
		log.Fatalf("FATAL: could not initialize the Gemini client: %v", err)
	}

	var filer feedback.Filer
	filer, err = feedback.NewGitHubClient()
	if err != nil {
		slog.Warn("Feedback tracker not configured, /feedback will return errors", "error", err)
		filer = feedback.Disabled{}
	}

	orchestrator := generation.NewOrchestrator(pgStore, provider, artifactStore)

	router := gin.Default()
	router.Use(otelgin.Middleware("canvas-service"))
	router.Use(cors.New(cors.Config{
		AllowOrigins: corsOrigins(),
		AllowMethods: []string{"GET", "POST", "OPTIONS"},
		AllowHeaders: []string{"Origin", "Content-Type", "Accept", "Authorization"},
		MaxAge:       12 * time.Hour,
	}))

	routes.SetupRoutes(router, routes.Deps{
		Verifier:  verifier,
		Store:     pgStore,
		Generator: orchestrator,
		Artifacts: artifactStore,
		Filer:     filer,
		Model:     provider.Model(),
	})

	log.Println("Starting the canvas server on port ", port)
	if err := router.Run(":" + port); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}
