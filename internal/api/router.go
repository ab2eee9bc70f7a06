package api

import (
	"log/slog"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/enzo-projet/zogames/internal/api/handler"
	"github.com/enzo-projet/zogames/internal/api/middleware"
	"github.com/enzo-projet/zogames/internal/fanout"
	"github.com/enzo-projet/zogames/internal/services/identity"
	"github.com/enzo-projet/zogames/internal/ws"
)

// RouterConfig holds configuration for the API router
type RouterConfig struct {
	Logger          *slog.Logger
	IdentityService *identity.Service
	Fanout          *fanout.Fanout
	Gateway         *ws.Gateway
}

// NewRouter creates a new API router with all routes configured
func NewRouter(cfg RouterConfig) http.Handler {
	r := mux.NewRouter()

	authHandler := handler.NewAuthHandler(cfg.IdentityService)
	sessionHandler := handler.NewSessionHandler(cfg.Fanout)

	authMiddleware := middleware.Auth(cfg.IdentityService)
	loggingMiddleware := middleware.Logging(cfg.Logger)
	recoveryMiddleware := middleware.Recovery(cfg.Logger)

	// API subrouter with common middleware
	api := r.PathPrefix("/api/v1").Subrouter()
	api.Use(recoveryMiddleware)
	api.Use(loggingMiddleware)

	// Credential routes (no auth required to obtain one)
	api.HandleFunc("/auth/signup", authHandler.Signup).Methods(http.MethodPost)
	api.HandleFunc("/auth/login", authHandler.Login).Methods(http.MethodPost)
	api.HandleFunc("/auth/guest", authHandler.Guest).Methods(http.MethodPost)

	// Protected routes
	protected := api.NewRoute().Subrouter()
	protected.Use(authMiddleware)
	protected.HandleFunc("/auth/profile", authHandler.Profile).Methods(http.MethodGet)
	protected.HandleFunc("/sessions/{kind}/{code}", sessionHandler.Get).Methods(http.MethodGet)

	// Health check endpoint (no auth)
	api.HandleFunc("/health", healthHandler).Methods(http.MethodGet)

	// Realtime gateway; credentials travel inside the frames, not headers
	r.Handle("/ws", cfg.Gateway)

	return r
}

func healthHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(`{"status":"ok"}`))
}
