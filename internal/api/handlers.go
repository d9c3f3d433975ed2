package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/starford/ansuz/internal/apperr"
	"github.com/starford/ansuz/internal/checksum"
	"github.com/starford/ansuz/internal/models"
	"github.com/starford/ansuz/internal/newsletter"
	"github.com/starford/ansuz/internal/store"
)

// Handler holds API route handlers.
type Handler struct {
	svc *newsletter.Service
}

// NewHandler creates a new Handler.
func NewHandler(svc *newsletter.Service) *Handler {
	return &Handler{svc: svc}
}

// newsletterID extracts and parses the {id} route parameter.
func newsletterID(r *http.Request) (uuid.UUID, error) {
	return uuid.Parse(chi.URLParam(r, "id"))
}

// writeErr maps domain errors to HTTP statuses. Internal failures are
// logged server-side and reported as an opaque 500.
func writeErr(w http.ResponseWriter, op string, err error) {
	switch {
	case errors.Is(err, apperr.ErrValidation), errors.Is(err, apperr.ErrInvalidStatus):
		writeJSON(w, http.StatusBadRequest, errorBody(err.Error()))
	case errors.Is(err, apperr.ErrNotFound):
		writeJSON(w, http.StatusNotFound, errorBody("not found"))
	case errors.Is(err, apperr.ErrIllegalTransition):
		writeJSON(w, http.StatusConflict, errorBody(err.Error()))
	default:
		slog.Error(op+" failed", slog.String("error", err.Error()))
		writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
	}
}

// writePDF sends the stored artifact with the headers clients rely on
// for inline viewing and caching.
func writePDF(w http.ResponseWriter, r *http.Request, n *models.Newsletter) {
	etag := checksum.ETag(n.PDF)
	if r.Header.Get("If-None-Match") == etag {
		w.WriteHeader(http.StatusNotModified)
		return
	}
	filename := strings.ReplaceAll(n.Title, `"`, "")
	w.Header().Set("Content-Type", store.PDFContentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("inline; filename=%q", filename+".pdf"))
	w.Header().Set("ETag", etag)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(n.PDF)
}

// ListNewsletters handles GET /api/newsletters.
//
//	@Summary		List newsletters in the caller's managed categories
//	@Tags			newsletters
//	@Produce		json
//	@Param			X-User-ID	header		string	true	"Resolved caller identity"
//	@Success		200			{object}	NewsletterListResponse
//	@Failure		400			{object}	errResponse
//	@Failure		404			{object}	errResponse
//	@Security		BearerAuth
//	@Router			/newsletters [get]
func (h *Handler) ListNewsletters(w http.ResponseWriter, r *http.Request) {
	caller, ok := callerID(r)
	if !ok {
		writeJSON(w, http.StatusBadRequest, errorBody("X-User-ID header is required"))
		return
	}
	items, err := h.svc.ListForUser(r.Context(), caller)
	if err != nil {
		writeErr(w, "list newsletters", err)
		return
	}
	writeJSON(w, http.StatusOK, NewsletterListResponse{
		Newsletters: items,
		Total:       len(items),
	})
}

// GenerateAndSave handles POST /api/newsletters/generate-and-save.
//
//	@Summary		Generate a newsletter from curated articles, persist it, and return the PDF
//	@Tags			newsletters
//	@Accept			json
//	@Produce		application/pdf
//	@Param			body	body		GenerateRequest	true	"Articles to compile"
//	@Success		200		{file}		binary
//	@Failure		400		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/newsletters/generate-and-save [post]
func (h *Handler) GenerateAndSave(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, 10<<20)
	var req GenerateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid JSON body"))
		return
	}
	if err := req.Validate(); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody(err.Error()))
		return
	}
	n, err := h.svc.Generate(r.Context(), req.Title, req.Category, req.articles())
	if err != nil {
		writeErr(w, "generate newsletter", err)
		return
	}
	writePDF(w, r, n)
}

// Download handles GET /api/newsletters/{id}/download.
//
//	@Summary		Download the rendered PDF artifact
//	@Tags			newsletters
//	@Produce		application/pdf
//	@Param			id	path		string	true	"Newsletter ID"
//	@Success		200	{file}		binary
//	@Failure		404	{object}	errResponse
//	@Security		BearerAuth
//	@Router			/newsletters/{id}/download [get]
func (h *Handler) Download(w http.ResponseWriter, r *http.Request) {
	id, err := newsletterID(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid newsletter id"))
		return
	}
	n, err := h.svc.Download(r.Context(), id)
	if err != nil {
		writeErr(w, "download newsletter", err)
		return
	}
	writePDF(w, r, n)
}

// UpdateStatus handles PATCH /api/newsletters/{id}/status.
//
//	@Summary		Set the workflow status of a newsletter
//	@Tags			newsletters
//	@Accept			json
//	@Produce		json
//	@Param			id		path		string			true	"Newsletter ID"
//	@Param			body	body		StatusRequest	true	"Target status"
//	@Success		200		{object}	NewsletterSummary
//	@Failure		400		{object}	errResponse
//	@Failure		404		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/newsletters/{id}/status [patch]
func (h *Handler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	id, err := newsletterID(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid newsletter id"))
		return
	}
	var req StatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid JSON body"))
		return
	}
	if err := req.Validate(); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody(err.Error()))
		return
	}
	n, err := h.svc.SetStatus(r.Context(), id, req.Status)
	if err != nil {
		writeErr(w, "update status", err)
		return
	}
	writeJSON(w, http.StatusOK, n)
}

// DeleteNewsletter handles DELETE /api/newsletters/{id}.
//
//	@Summary		Delete a newsletter
//	@Tags			newsletters
//	@Produce		json
//	@Param			id	path		string	true	"Newsletter ID"
//	@Success		200	{object}	messageResponse
//	@Failure		404	{object}	errResponse
//	@Security		BearerAuth
//	@Router			/newsletters/{id} [delete]
func (h *Handler) DeleteNewsletter(w http.ResponseWriter, r *http.Request) {
	id, err := newsletterID(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid newsletter id"))
		return
	}
	if err := h.svc.Delete(r.Context(), id); err != nil {
		writeErr(w, "delete newsletter", err)
		return
	}
	writeJSON(w, http.StatusOK, messageResponse{Message: "Newsletter deleted."})
}

// Send handles POST /api/newsletters/{id}/send.
//
//	@Summary		Distribute a newsletter to the given users
//	@Tags			newsletters
//	@Accept			json
//	@Produce		json
//	@Param			id		path		string		true	"Newsletter ID"
//	@Param			body	body		SendRequest	true	"Recipient user IDs"
//	@Success		200		{object}	messageResponse
//	@Failure		400		{object}	errResponse
//	@Failure		404		{object}	errResponse
//	@Failure		409		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/newsletters/{id}/send [post]
func (h *Handler) Send(w http.ResponseWriter, r *http.Request) {
	id, err := newsletterID(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid newsletter id"))
		return
	}
	var req SendRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid JSON body"))
		return
	}
	if err := req.Validate(); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody(err.Error()))
		return
	}
	if _, err := h.svc.Send(r.Context(), id, req.UserIDs); err != nil {
		writeErr(w, "send newsletter", err)
		return
	}
	writeJSON(w, http.StatusOK, messageResponse{
		Message: fmt.Sprintf("Newsletter sent to %d user(s).", len(req.UserIDs)),
	})
}
