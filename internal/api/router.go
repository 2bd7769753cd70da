package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

func cors(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func NewRouter(h *Handler) chi.Router {
	r := chi.NewRouter()
	r.Use(cors)
	r.Get("/health", h.Health)
	r.Get("/tree", h.Tree)
	r.Get("/file", h.File)
	r.Post("/pr", h.Publish)
	r.Get("/ratelimit", h.RateLimit)
	r.Post("/render", h.Render)
	r.Post("/convert", h.Convert)
	return r
}
