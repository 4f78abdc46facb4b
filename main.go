// Copyright (C) 2025 QIG Labs (engineering@qiglabs.io)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package main

import (
	"context"
	"log"
	"log/slog"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/qig-labs/insight-gateway/auth"
	"github.com/qig-labs/insight-gateway/datatypes"
	"github.com/qig-labs/insight-gateway/llm"
	"github.com/qig-labs/insight-gateway/routes"
	"github.com/qig-labs/insight-gateway/search"
	"github.com/qig-labs/insight-gateway/tenancy"
	"github.com/weaviate/weaviate-go-client/v5/weaviate"
	"google.golang.org/grpc/credentials/insecure"

	// --- OpenTelemetry imports ---
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.21.0"
	"google.golang.org/grpc"
)

func initTracer() (func(context.Context), error) {
	ctx := context.Background()

	otelEndpoint := os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT")
	if otelEndpoint == "" {
		otelEndpoint = "insightgw-otel-collector:4317"
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
		resource.WithAttributes(semconv.ServiceNameKey.String("insight-gateway")))
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

// newWeaviateClient parses and validates the Weaviate URL. Weaviate backs the
// tenant directory and transcript storage, so a missing or malformed URL is a
// startup error, not a request-time surprise.
func newWeaviateClient() *weaviate.Client {
	weaviateURL := strings.Trim(os.Getenv("WEAVIATE_SERVICE_URL"), "\"' ")
	if weaviateURL == "" {
		log.Fatal("WEAVIATE_SERVICE_URL is not set")
	}
	parsedURL, err := url.Parse(weaviateURL)
	if err != nil || parsedURL.Scheme == "" || parsedURL.Host == "" {
		log.Fatalf("WEAVIATE_SERVICE_URL is invalid: %q", weaviateURL)
	}
	client, err := weaviate.NewClient(weaviate.Config{
		Host:   parsedURL.Host,
		Scheme: parsedURL.Scheme,
	})
	if err != nil {
		log.Fatalf("Failed to create Weaviate client: %v", err)
	}
	datatypes.EnsureWeaviateSchema(client)
	return client
}

// newAuthProvider selects the identity verifier. The nop provider is only for
// local development and says so loudly.
func newAuthProvider() auth.AuthProvider {
	switch mode := os.Getenv("AUTH_MODE"); mode {
	case "jwt":
		provider, err := auth.NewJWTProvider(os.Getenv("GATEWAY_JWT_SECRET"))
		if err != nil {
			log.Fatalf("Failed to configure JWT auth: %v", err)
		}
		slog.Info("Using JWT token verification")
		return provider
	case "remote":
		provider, err := auth.NewRemoteProvider(os.Getenv("AUTH_VERIFY_URL"))
		if err != nil {
			log.Fatalf("Failed to configure remote auth: %v", err)
		}
		slog.Info("Using remote token verification")
		return provider
	case "", "none":
		slog.Warn("AUTH_MODE not set, all requests authenticate as local-user. Do not run this in production.")
		return &auth.NopProvider{}
	default:
		log.Fatalf("Unknown AUTH_MODE %q (expected jwt, remote, or none)", mode)
		return nil
	}
}

// newOverrideStore selects the impersonation store backend. With a data path
// overrides survive restarts; without one they live in an in-memory Badger
// instance and reset on restart, which is fine for single-node deployments.
func newOverrideStore() tenancy.ImpersonationStore {
	var store *tenancy.BadgerStore
	var err error
	if path := os.Getenv("IMPERSONATION_DB_PATH"); path != "" {
		store, err = tenancy.NewBadgerStore(path)
	} else {
		slog.Warn("IMPERSONATION_DB_PATH not set, impersonation overrides will not survive restarts")
		store, err = tenancy.NewInMemoryBadgerStore()
	}
	if err != nil {
		log.Fatalf("Failed to open impersonation store: %v", err)
	}
	return store
}

func main() {
	port := os.Getenv("GATEWAY_PORT")
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

	weaviateClient := newWeaviateClient()

	searchClient, err := search.NewClient(os.Getenv("SEARCH_SERVICE_URL"))
	if err != nil {
		log.Fatalf("Failed to configure document search client: %v", err)
	}

	llmClient, err := llm.NewOpenAIClient(
		os.Getenv("OPENAI_API_KEY"),
		os.Getenv("OPENAI_MODEL"),
		os.Getenv("OPENAI_BASE_URL"),
	)
	if err != nil {
		log.Fatalf("Failed to configure completion client: %v", err)
	}

	var adminDomains []string
	if raw := os.Getenv("ADMIN_EMAIL_DOMAINS"); raw != "" {
		adminDomains = strings.Split(raw, ",")
	} else {
		adminDomains = tenancy.DefaultAdminDomains
		slog.Warn("ADMIN_EMAIL_DOMAINS not set, using default", "domains", adminDomains)
	}

	overrides := newOverrideStore()
	directory := tenancy.NewWeaviateDirectory(weaviateClient)
	resolver := tenancy.NewResolver(directory, overrides, adminDomains)

	router := gin.Default()
	router.Use(otelgin.Middleware("insight-gateway"))

	routes.SetupRoutes(router, routes.Deps{
		AuthProvider:   newAuthProvider(),
		Resolver:       resolver,
		Directory:      directory,
		Overrides:      overrides,
		SearchClient:   searchClient,
		LLMClient:      llmClient,
		WeaviateClient: weaviateClient,
	})

	log.Println("Starting the insight gateway on port ", port)
	if err := router.Run(":" + port); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}
