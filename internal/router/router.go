package router

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"leadchat-backend/internal/handlers"
	"leadchat-backend/internal/middleware"
	"leadchat-backend/internal/web"
	"leadchat-backend/internal/websocket"
)

func New(
	sessionAuth *middleware.SessionAuth,
	sessionHandler *handlers.SessionHandler,
	chatHandler *handlers.ChatHandler,
	wsHub *websocket.Hub,
	gatherer prometheus.Gatherer,
	rateLimitPerMinute int,
	frontendURL string,
) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(chimiddleware.Logger)
	r.Use(chimiddleware.Recoverer)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.RequestID)
	r.Use(middleware.CORS(frontendURL))

	limiter := middleware.NewRateLimiter(rateLimitPerMinute, time.Minute)

	// Health check
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":"ok"}`))
	})

	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}
	r.Handle("/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))

	r.Route("/api/v1", func(r chi.Router) {

		// ──── Session bootstrap (public) ────
		r.With(limiter.Middleware).Post("/sessions", sessionHandler.Create)

		// ──── Current session ────
		r.Route("/session", func(r chi.Router) {
			r.Use(sessionAuth.Middleware)
			r.Get("/", sessionHandler.Get)
			r.Put("/settings", sessionHandler.UpdateSettings)
			r.Put("/contact", sessionHandler.UpdateContact)
			r.Get("/relays", sessionHandler.ListRelays)

			r.With(limiter.Middleware).Post("/messages", chatHandler.SendMessage)
			r.Delete("/messages", chatHandler.Clear)
			r.Post("/save", chatHandler.Save)
		})

		// ──── WebSocket ────
		r.Get("/ws", wsHub.HandleWebSocket)
	})

	// ──── Chat page ────
	r.Handle("/*", web.Handler())

	return r
}
