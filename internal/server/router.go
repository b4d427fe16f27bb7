package server

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

var DefaultOrigins = []string{"http://localhost:3000", "http://127.0.0.1:3000"}

// Router wires middleware, CORS for origins and the handler's routes.
func Router(h *Handler, origins []string) http.Handler {
	if len(origins) == 0 {
		origins = DefaultOrigins
	}

	r := chi.NewRouter()
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RealIP)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		MaxAge:         300,
	}))

	r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("vsmkit analysis server"))
	})
	h.RegisterRoutes(r)
	return r
}
