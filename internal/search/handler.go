// TrustGuardianHub | 2026
// handler.go

package search

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/trustguardianhub/backend/internal/core"
	"github.com/trustguardianhub/backend/internal/middleware"
)

type Handler struct {
	service *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

func (h *Handler) RegisterRoutes(
	r chi.Router,
	authenticator func(http.Handler) http.Handler,
) {
	r.Route("/search", func(r chi.Router) {
		r.Use(authenticator)

		r.Get("/", h.Search)
		r.Get("/history", h.GetHistory)
		r.Delete("/history", h.ClearHistory)
		r.Delete("/history/{entryID}", h.DeleteHistoryEntry)
	})
}

func (h *Handler) Search(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	query := r.URL.Query().Get("q")

	results, err := h.service.Search(r.Context(), userID, query)
	if err != nil {
		if errors.Is(err, core.ErrInvalidInput) {
			core.BadRequest(w, "query parameter q is required")
			return
		}
		core.InternalServerError(w, err)
		return
	}

	core.OK(w, results)
}

func (h *Handler) GetHistory(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())

	entries, err := h.service.History(r.Context(), userID)
	if err != nil {
		core.InternalServerError(w, err)
		return
	}

	core.OK(w, entries)
}

func (h *Handler) DeleteHistoryEntry(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	entryID := chi.URLParam(r, "entryID")

	err := h.service.DeleteHistoryEntry(r.Context(), userID, entryID)
	if err != nil {
		if errors.Is(err, core.ErrNotFound) {
			core.NotFound(w, "search entry")
			return
		}
		core.InternalServerError(w, err)
		return
	}

	core.NoContent(w)
}

func (h *Handler) ClearHistory(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())

	if _, err := h.service.ClearHistory(r.Context(), userID); err != nil {
		core.InternalServerError(w, err)
		return
	}

	core.NoContent(w)
}
