package api

import (
	"log/slog"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/mcoot/drawphone/internal/api/handler"
	"github.com/mcoot/drawphone/internal/api/middleware"
	"github.com/mcoot/drawphone/internal/api/response"
	"github.com/mcoot/drawphone/internal/services/chat"
	"github.com/mcoot/drawphone/internal/services/game"
)

// RouterConfig holds configuration for the API router
type RouterConfig struct {
	Logger         *slog.Logger
	GameController *game.Controller
	ChatHandler    *chat.Handler
	// FilesDir serves a local object store under /files/ when set
	FilesDir string
}

// NewRouter creates a new API router with all routes configured
func NewRouter(cfg RouterConfig) http.Handler {
	r := mux.NewRouter()

	// Create handlers
	gameHandler := handler.NewGameHandler(cfg.GameController)
	chatHandler := handler.NewChatHandler(cfg.ChatHandler)

	// Create middleware
	loggingMiddleware := middleware.Logging(cfg.Logger)
	recoveryMiddleware := middleware.Recovery(cfg.Logger)

	// API subrouter with common middleware
	api := r.PathPrefix("/api/v1").Subrouter()
	api.Use(recoveryMiddleware)
	api.Use(loggingMiddleware)

	// Game routes
	api.HandleFunc("/games", gameHandler.List).Methods(http.MethodGet)
	api.HandleFunc("/games/{name}", gameHandler.Get).Methods(http.MethodGet)

	// Turn routes, reached from the play links sent to players
	api.HandleFunc("/games/{name}/frames/{frame}", gameHandler.TurnInput).Methods(http.MethodGet)
	api.Handle("/games/{name}/frames/{frame}/caption", limitJSON(gameHandler.SubmitCaption)).Methods(http.MethodPut)
	api.HandleFunc("/games/{name}/frames/{frame}/image", gameHandler.SubmitImage).Methods(http.MethodPut)

	// Chat platform adapters forward bot commands here
	api.Handle("/chat/commands", limitJSON(chatHandler.Command)).Methods(http.MethodPost)

	// Health check endpoint
	api.HandleFunc("/health", healthHandler).Methods(http.MethodGet)

	if cfg.FilesDir != "" {
		r.PathPrefix("/files/").Handler(http.StripPrefix("/files/", http.FileServer(http.Dir(cfg.FilesDir))))
	}

	return r
}

func healthHandler(w http.ResponseWriter, r *http.Request) {
	response.JSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// MaxJSONBodyBytes bounds JSON request bodies
const MaxJSONBodyBytes = 64 << 10

func limitJSON(h http.HandlerFunc) http.Handler {
	return middleware.LimitBody(MaxJSONBodyBytes)(h)
}
