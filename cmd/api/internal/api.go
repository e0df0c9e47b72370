package internal

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/fazecat/lexipulse/Internal/logging"
	"github.com/fazecat/lexipulse/Internal/pipeline"
)

type API struct {
	Session    *pipeline.Session
	JWTManager *JWTManager
	Now        func() time.Time
}

// Router mounts every route. Lexicon and history routes need a bearer token.
func (api *API) Router() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(CorsMiddleware())

	r.Get("/health", api.HandleHealth)

	// Public routes
	r.Post("/api/token", api.HandleGenerateToken)
	r.Post("/api/score", api.HandleScore)

	r.Group(func(r chi.Router) {
		r.Use(JWTAuthMiddleware(api.JWTManager))

		r.Get("/api/lexicon/top", api.HandleTopTerms)
		r.Get("/api/lexicon/{word}", api.HandleGetTerm)
		r.Get("/api/history", api.HandleHistory)
		r.Get("/api/history/stats", api.HandleHistoryStats)
	})
	return r
}

func (api *API) HandleHealth(w http.ResponseWriter, r *http.Request) {
	if err := api.Session.Ping(r.Context()); err != nil {
		logging.Warn("health check failed", "err", err)
		WriteError(w, http.StatusServiceUnavailable, "storage unavailable")
		return
	}
	WriteJSON(w, http.StatusOK, "healthy")
}

type tokenRequest struct {
	ClientID     string `json:"client_id"`
	ClientSecret string `json:"client_secret"`
}

func (api *API) HandleGenerateToken(w http.ResponseWriter, r *http.Request) {
	var req tokenRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.ClientID == "" {
		WriteError(w, http.StatusBadRequest, "client_id is required")
		return
	}
	if !api.JWTManager.CheckSecret(req.ClientSecret) {
		WriteError(w, http.StatusUnauthorized, "Invalid client credentials")
		return
	}

	token, expiresAt, err := api.JWTManager.GenerateToken(req.ClientID, api.Session.Ticker)
	if err != nil {
		logging.Error("token generation failed", "err", err)
		WriteError(w, http.StatusInternalServerError, "Failed to generate token")
		return
	}
	WriteJSON(w, http.StatusOK, map[string]interface{}{
		"token":      token,
		"expires_at": expiresAt.UTC().Format(time.RFC3339),
	})
}

type envelope struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
}

// WriteJSON wraps data in the success envelope.
func WriteJSON(w http.ResponseWriter, statusCode int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(envelope{Success: true, Data: data})
}

func WriteError(w http.ResponseWriter, statusCode int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(envelope{Success: false, Error: message})
}
