package server

import (
	"net/http"

	"github.com/cloo-solutions/mcqgen/internal/api"
	"github.com/cloo-solutions/mcqgen/internal/api/handlers"
	"github.com/cloo-solutions/mcqgen/internal/api/middleware"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

const maxBodyBytes int64 = 5 * 1024 * 1024

type RouterConfig struct {
	// APIKey guards the /v1 routes. Empty leaves them open.
	APIKey string
	Logger *zap.Logger

	GenerateHandler    *handlers.GenerateHandler
	QuestionSetHandler *handlers.QuestionSetHandler
	SearchHandler      *handlers.SearchHandler
}

func NewRouter(cfg RouterConfig) http.Handler {
	log := cfg.Logger
	if log == nil {
		log = zap.NewNop()
	}

	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.Sentry)
	r.Use(middleware.AccessLog(log))
	r.Use(middleware.MaxBodyBytes(maxBodyBytes))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		api.Success(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Route("/v1", func(r chi.Router) {
		r.Use(middleware.StaticKeyAuth(cfg.APIKey))

		r.Post("/mcqs/generate", cfg.GenerateHandler.Generate)

		r.Route("/question-sets", func(r chi.Router) {
			r.Post("/", cfg.QuestionSetHandler.Create)
			r.Get("/", cfg.QuestionSetHandler.List)
			r.Get("/{id}", cfg.QuestionSetHandler.Get)
			r.Get("/{id}/export", cfg.QuestionSetHandler.Export)
		})

		r.Post("/questions/search", cfg.SearchHandler.Search)
	})

	return r
}
