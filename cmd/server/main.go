package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"

	"leadchat-backend/internal/config"
	"leadchat-backend/internal/database"
	"leadchat-backend/internal/handlers"
	"leadchat-backend/internal/metrics"
	"leadchat-backend/internal/middleware"
	"leadchat-backend/internal/repository"
	"leadchat-backend/internal/router"
	"leadchat-backend/internal/services"
	"leadchat-backend/internal/websocket"
)

func main() {
	log.Println("🚀 Starting LeadChat Backend...")

	// ──── Step 1: Load Environment Variables ────
	cfg := config.Load()
	log.Println("✓ Environment variables loaded")

	sessionTTL := time.Duration(cfg.SessionTTLHours) * time.Hour
	chatMetrics := metrics.NewChatMetrics(prometheus.DefaultRegisterer)

	// ──── Step 2: Session Store (Redis or in-memory) ────
	var sessionStore services.SessionStore
	var pubsubClient *redis.Client
	if cfg.RedisURL != "" {
		redisClients, err := database.NewRedisClients(cfg.RedisURL)
		if err != nil {
			log.Fatalf("✗ Redis connection failed: %v", err)
		}
		defer redisClients.Close()
		sessionStore = repository.NewRedisSessionRepo(redisClients.Sessions, sessionTTL)
		pubsubClient = redisClients.PubSub
		log.Println("✓ Redis connected (sessions + pub/sub)")
	} else {
		sessionStore = repository.NewMemorySessionRepo(sessionTTL)
		log.Println("⚠ REDIS_URL not set, sessions are kept in memory")
	}

	// ──── Step 3: Relay Attempt Log (optional PostgreSQL) ────
	var relayLog services.RelayRecorder
	if cfg.DatabaseURL != "" {
		pool, err := database.NewPostgresPool(cfg.DatabaseURL)
		if err != nil {
			log.Fatalf("✗ PostgreSQL connection failed: %v", err)
		}
		defer pool.Close()

		if err := database.RunMigrations(pool, database.Migrations); err != nil {
			log.Fatalf("✗ Database migration failed: %v", err)
		}
		relayLog = repository.NewRelayLogRepo(pool)
		log.Println("✓ PostgreSQL connected, relay attempts will be logged")
	}

	// ──── Step 4: Assistant Client ────
	var assistant services.Assistant
	switch cfg.AssistantProvider {
	case "gemini":
		assistant = services.NewGeminiAssistant(cfg.AssistantSystemPrompt)
		log.Println("✓ Gemini assistant backend selected")
	default:
		assistant = services.NewOpenAIAssistant(
			cfg.OpenAIBaseURL,
			time.Duration(cfg.AssistantPollIntervalMS)*time.Millisecond,
			time.Duration(cfg.AssistantMaxWaitSeconds)*time.Second,
			chatMetrics,
		)
		log.Println("✓ OpenAI Assistants backend selected")
	}
	if cfg.EnvAPIKey() == "" {
		log.Println("⚠ No API key in the environment, users must enter one")
	}

	// ──── Step 5: Webhook Relay ────
	relay := services.NewWebhookRelay(
		cfg.WebhookURL,
		cfg.WebhookPayload,
		time.Duration(cfg.WebhookTimeoutSeconds)*time.Second,
		relayLog,
		chatMetrics,
	)
	if relay.Enabled() {
		log.Printf("✓ Webhook relay enabled (%s payload)", cfg.WebhookPayload)
	} else {
		log.Println("⚠ WEBHOOK_URL not set, leads will not be relayed")
	}

	// ──── Step 6: WebSocket Hub ────
	sessionAuth := middleware.NewSessionAuth(cfg.SessionSecret, sessionTTL)
	wsHub := websocket.NewHub(pubsubClient, sessionAuth)
	log.Println("✓ WebSocket hub started")

	// ──── Initialize Services & Handlers ────
	chatService := services.NewChatService(sessionStore, assistant, relay, relayLog, wsHub, chatMetrics, services.ChatOptions{
		EnvAPIKey:          cfg.EnvAPIKey(),
		DefaultAssistantID: cfg.AssistantID,
		ReuseThread:        cfg.AssistantReuseThread,
	})

	sessionHandler := handlers.NewSessionHandler(chatService, sessionAuth)
	chatHandler := handlers.NewChatHandler(chatService)

	// ──── Step 7: Start HTTP Server ────
	r := router.New(
		sessionAuth,
		sessionHandler,
		chatHandler,
		wsHub,
		prometheus.DefaultGatherer,
		cfg.RateLimitPerMinute,
		cfg.FrontendURL,
	)

	// The write timeout must outlast the assistant's max wait.
	writeTimeout := time.Duration(cfg.AssistantMaxWaitSeconds)*time.Second + 30*time.Second

	server := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.Port),
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: writeTimeout,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown
	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		<-sigChan

		log.Println("Shutting down...")

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		server.Shutdown(ctx)
	}()

	log.Printf("✓ LeadChat Backend ready on http://localhost:%s", cfg.Port)
	log.Printf("  API: http://localhost:%s/api/v1", cfg.Port)
	log.Printf("  WS:  ws://localhost:%s/api/v1/ws", cfg.Port)

	if err := server.ListenAndServe(); err != http.ErrServerClosed {
		log.Fatalf("Server error: %v", err)
	}
}
