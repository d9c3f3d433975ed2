package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/starford/ansuz/internal/newsletter"
)

// NewRouter creates a chi router with all API routes mounted.
// authEnabled controls whether Bearer token auth is enforced.
// sseHandler, if non-nil, is mounted at GET /events inside the auth group.
// flyerDir, if non-empty, enables flyer image serving at GET /flyers/{filename}.
func NewRouter(svc *newsletter.Service, authEnabled bool, token string, sseHandler http.Handler, flyerDir string) chi.Router {
	h := NewHandler(svc)

	r := chi.NewRouter()
	r.Use(AuthMiddleware(authEnabled, token))
	r.Use(CallerMiddleware)

	// Newsletter lifecycle.
	r.Get("/newsletters", h.ListNewsletters)
	r.Post("/newsletters/generate-and-save", h.GenerateAndSave)
	r.Get("/newsletters/{id}/download", h.Download)
	r.Patch("/newsletters/{id}/status", h.UpdateStatus)
	r.Delete("/newsletters/{id}", h.DeleteNewsletter)
	r.Post("/newsletters/{id}/send", h.Send)

	// SSE endpoint (protected by same auth middleware).
	if sseHandler != nil {
		r.Get("/events", sseHandler.ServeHTTP)
	}

	// Flyer images referenced by generated newsletters.
	if flyerDir != "" {
		fh := NewFlyerHandler(flyerDir)
		r.Get("/flyers/{filename}", fh.ServeFile)
	}

	return r
}
