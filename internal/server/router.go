package server

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/shoshlabs/shoshchat/internal/api"
	"github.com/shoshlabs/shoshchat/internal/api/handlers"
	"github.com/shoshlabs/shoshchat/internal/api/middleware"
)

type RouterConfig struct {
	SourceHandler   *handlers.SourceHandler
	RetrieveHandler *handlers.RetrieveHandler
}

func NewRouter(cfg RouterConfig) http.Handler {
	r := chi.NewRouter()

	const maxBodyBytes int64 = 64 * 1024 * 1024

	r.Use(middleware.RequestID)
	r.Use(middleware.SentryMiddleware)
	r.Use(middleware.AccessLog)
	r.Use(middleware.MaxBodyBytes(maxBodyBytes))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		api.Success(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Group(func(r chi.Router) {
		r.Use(middleware.RequireTenant)

		r.Route("/sources", func(r chi.Router) {
			r.Post("/", cfg.SourceHandler.Create)
			r.Post("/upload", cfg.SourceHandler.Upload)
			r.Get("/", cfg.SourceHandler.List)
			r.Get("/{id}", cfg.SourceHandler.Get)
		})

		r.Post("/retrieve", cfg.RetrieveHandler.Retrieve)
	})

	return r
}
