package api

import (
	"log/slog"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/mcoot/sortinghat/internal/api/handler"
	"github.com/mcoot/sortinghat/internal/api/middleware"
	sharedmw "github.com/mcoot/sortinghat/internal/middleware"
	"github.com/mcoot/sortinghat/internal/services/progression"
)

// RouterConfig holds configuration for the API router
type RouterConfig struct {
	Logger      *slog.Logger
	Progression *progression.Controller
	// AdminTokenHash is the bcrypt hash of the admin bearer token
	AdminTokenHash string
}

// NewRouter creates a new API router with all routes configured
func NewRouter(cfg RouterConfig) http.Handler {
	r := mux.NewRouter()

	characterHandler := handler.NewCharacterHandler(cfg.Progression, cfg.Logger)

	// API subrouter with common middleware
	api := r.PathPrefix("/api/v1").Subrouter()
	api.Use(middleware.Recovery(cfg.Logger))
	api.Use(sharedmw.Logging(cfg.Logger))

	// Health check endpoint (no auth)
	api.HandleFunc("/health", characterHandler.Health).Methods(http.MethodGet)

	// Admin routes
	characters := api.PathPrefix("/characters").Subrouter()
	characters.Use(middleware.AdminToken(cfg.AdminTokenHash))
	characters.HandleFunc("", characterHandler.List).Methods(http.MethodGet)
	characters.HandleFunc("/{owner}", characterHandler.Get).Methods(http.MethodGet)
	characters.HandleFunc("/{owner}", characterHandler.Delete).Methods(http.MethodDelete)
	characters.HandleFunc("/{owner}/currency/grant", characterHandler.Grant).Methods(http.MethodPost)
	characters.HandleFunc("/{owner}/currency/deduct", characterHandler.Deduct).Methods(http.MethodPost)

	return r
}
