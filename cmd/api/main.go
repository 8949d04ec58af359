// Package main is the entry point for the API server.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/ayushma-ai/assistant-platform/internal/config"
	"github.com/ayushma-ai/assistant-platform/internal/engine"
	"github.com/ayushma-ai/assistant-platform/internal/handler"
	"github.com/ayushma-ai/assistant-platform/internal/llm"
	"github.com/ayushma-ai/assistant-platform/internal/middleware"
	"github.com/ayushma-ai/assistant-platform/internal/objectstore"
	"github.com/ayushma-ai/assistant-platform/internal/postprocess"
	"github.com/ayushma-ai/assistant-platform/internal/reference"
	"github.com/ayushma-ai/assistant-platform/internal/service"
	"github.com/ayushma-ai/assistant-platform/internal/speech"
	"github.com/ayushma-ai/assistant-platform/internal/store"
	"github.com/ayushma-ai/assistant-platform/internal/translate"
	"github.com/ayushma-ai/assistant-platform/pkg/logger"
	"github.com/ayushma-ai/assistant-platform/pkg/tracing"
)

func main() {
	// Load configuration
	cfg := config.Load()

	// Initialize logger
	log, err := logger.New(cfg.LogLevel)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	log.Info("starting API server")

	// Initialize tracing if enabled
	ctx := context.Background()
	if cfg.TracingEnabled {
		tp, err := tracing.InitTracer(ctx, "assistant-platform", cfg.TracingEndpoint)
		if err != nil {
			log.Warn("failed to initialize tracing", "error", err)
		} else {
			defer tracing.Shutdown(ctx, tp)
		}
	}

	// Connect to NATS
	storeClient, err := store.Connect(store.Config{
		URL:      cfg.NATSURL,
		CAFile:   cfg.NATSCAFile,
		CertFile: cfg.NATSCertFile,
		KeyFile:  cfg.NATSKeyFile,
		Token:    cfg.NATSToken,
	}, log)
	if err != nil {
		log.Error("failed to connect to NATS", "error", err)
		os.Exit(1)
	}
	defer storeClient.Close()

	// Ensure the turn stream exists
	turnStore := store.NewTurnStore(storeClient)
	if err := turnStore.EnsureStream(ctx); err != nil {
		log.Error("failed to ensure stream", "error", err)
		os.Exit(1)
	}

	// Initialize LLM client
	provider := llm.Provider(cfg.DefaultLLM)
	apiKey := cfg.OpenAIAPIKey
	if provider == llm.ProviderAnthropic {
		apiKey = cfg.AnthropicAPIKey
	}
	llmClient, err := llm.NewClient(provider, apiKey)
	if err != nil {
		log.Error("failed to create LLM client", "provider", cfg.DefaultLLM, "error", err)
		os.Exit(1)
	}

	// AWS-backed collaborators are optional: the engine degrades without
	// them rather than refusing to start.
	var translator engine.Translator
	if tr, err := translate.New(ctx, translate.Config{Region: cfg.AWSRegion, Timeout: 15 * time.Second}); err != nil {
		log.Warn("translation disabled", "error", err)
	} else {
		translator = tr
	}

	var synthesizer postprocess.Synthesizer
	if sy, err := speech.New(ctx, speech.Config{
		Region:  cfg.AWSRegion,
		VoiceID: cfg.PollyVoice,
		Engine:  cfg.PollyEngine,
		Timeout: 30 * time.Second,
	}); err != nil {
		log.Warn("speech synthesis disabled", "error", err)
	} else {
		synthesizer = sy
	}

	var objects postprocess.ObjectStore
	if ob, err := objectstore.New(ctx, objectstore.Config{
		Region:    cfg.AWSRegion,
		Bucket:    cfg.S3Bucket,
		PublicURL: cfg.AudioPublicURL,
		Timeout:   30 * time.Second,
	}); err != nil {
		log.Warn("audio upload disabled", "error", err)
	} else {
		objects = ob
	}

	// Reference retrieval
	documents := reference.NewDocumentRegistry()
	var resolver engine.ReferenceResolver
	if cfg.VectorIndexURL != "" && cfg.OpenAIAPIKey != "" {
		resolver = reference.NewResolver(
			reference.NewOpenAIEmbedder(cfg.OpenAIAPIKey),
			reference.NewHTTPVectorIndex(cfg.VectorIndexURL, cfg.VectorIndexKey),
			log,
		)
	} else {
		log.Warn("reference retrieval disabled; no vector index configured")
	}

	pipeline := &postprocess.Pipeline{
		DefaultLanguage: cfg.DefaultLanguage,
		Translator:      translator,
		Synthesizer:     synthesizer,
		Objects:         objects,
		Documents:       documents,
		Turns:           turnStore,
		Log:             log,
	}

	eng := engine.New(engine.Config{
		AssistantName:    cfg.AssistantName,
		PrefixSkipTokens: cfg.PrefixSkipTokens,
		TokenTimeout:     cfg.TokenTimeout,
		DefaultLanguage:  cfg.DefaultLanguage,
	}, llmClient, resolver, translator, pipeline, turnStore, log)

	// Initialize services
	conversationSvc := service.NewConversationService(log)
	turnSvc := service.NewTurnService(eng, turnStore, conversationSvc, log)

	// Initialize handlers
	healthHandler := handler.NewHealthHandler(storeClient)
	conversationHandler := handler.NewConversationHandler(conversationSvc, turnSvc, log)
	converseHandler := handler.NewConverseHandler(turnSvc, conversationSvc, log)
	documentHandler := handler.NewDocumentHandler(documents)

	// Create router
	r := chi.NewRouter()

	// Global middleware
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.Logging(log))
	r.Use(middleware.SecurityHeaders)
	r.Use(chimiddleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"https://*", "http://*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Requested-With"},
		ExposedHeaders:   []string{"Link", "X-Correlation-ID"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	// Health endpoints (no auth required)
	r.Get("/health", healthHandler.Health)
	r.Get("/ready", healthHandler.Ready)

	// Metrics endpoint
	r.Handle("/metrics", promhttp.Handler())

	// API routes with authentication
	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWTSecret))
		r.Use(middleware.RateLimit(cfg.RateLimitRequests, cfg.RateLimitWindow))

		// Conversations
		r.Route("/conversations", func(r chi.Router) {
			r.Post("/", conversationHandler.Create)
			r.Get("/", conversationHandler.List)

			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", conversationHandler.Get)
				r.Put("/", conversationHandler.Update)
				r.Delete("/", conversationHandler.Delete)

				// Turns
				r.Get("/turns", conversationHandler.ListTurns)
				r.Post("/converse", converseHandler.Converse)
			})
		})

		// Reference documents
		r.Route("/documents", func(r chi.Router) {
			r.Post("/", documentHandler.Register)
			r.Get("/{id}", documentHandler.Get)
		})
	})

	// Create HTTP server
	server := &http.Server{
		Addr:         ":" + cfg.ServerPort,
		Handler:      r,
		ReadTimeout:  cfg.ServerReadTimeout,
		WriteTimeout: cfg.ServerWriteTimeout,
		IdleTimeout:  120 * time.Second,
	}

	// Start server in goroutine
	go func() {
		log.Info("server listening", "port", cfg.ServerPort)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	// Wait for shutdown signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down server")

	// Graceful shutdown with timeout
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error("server forced to shutdown", "error", err)
	}

	log.Info("server stopped")
}
