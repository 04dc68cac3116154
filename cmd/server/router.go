package main

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/cardsmith/cardsmith-api/internal/api/middleware"
	"github.com/cardsmith/cardsmith-api/internal/api/shared"
)

// setupRouter builds the HTTP routing table. Authentication applies to
// everything under /api except the auth endpoints and the health check.
func (app *application) setupRouter() http.Handler {
	r := chi.NewRouter()

	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	r.Use(middleware.TraceMiddleware)

	authMiddleware := middleware.NewAuthMiddleware(app.jwtService)

	r.Route("/api", func(r chi.Router) {
		r.Route("/auth", func(r chi.Router) {
			r.Post("/register", app.authHandler.Register)
			r.Post("/login", app.authHandler.Login)
			r.Post("/refresh", app.authHandler.RefreshToken)
		})

		r.Group(func(r chi.Router) {
			r.Use(authMiddleware.Authenticate)

			r.Post("/generations", app.generationHandler.Generate)

			r.Route("/flashcards", func(r chi.Router) {
				r.Get("/", app.flashcardHandler.List)
				r.Post("/", app.flashcardHandler.Create)
				r.Post("/bulk", app.flashcardHandler.BulkSave)
				r.Post("/bulk-delete", app.flashcardHandler.BulkDelete)

				r.Route("/{id}", func(r chi.Router) {
					r.Get("/", app.flashcardHandler.Get)
					r.Put("/", app.flashcardHandler.Update)
					r.Delete("/", app.flashcardHandler.Delete)
				})
			})
		})
	})

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		shared.RespondWithJSON(w, r, http.StatusOK, map[string]string{"status": "ok"})
	})

	return r
}
