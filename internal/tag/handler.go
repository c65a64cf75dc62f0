// TrustGuardianHub | 2026
// handler.go

package tag

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/trustguardianhub/backend/internal/core"
)

type TagRequest struct {
	Name string `json:"name" validate:"required,min=1,max=50"`
}

type Handler struct {
	service   *Service
	validator *validator.Validate
}

func NewHandler(service *Service) *Handler {
	return &Handler{
		service:   service,
		validator: validator.New(validator.WithRequiredStructEnabled()),
	}
}

func (h *Handler) RegisterRoutes(
	r chi.Router,
	authenticator func(http.Handler) http.Handler,
) {
	r.Route("/tags", func(r chi.Router) {
		r.Use(authenticator)

		r.Get("/", h.ListTags)
		r.Post("/", h.CreateTag)
		r.Put("/{tagID}", h.RenameTag)
		r.Delete("/{tagID}", h.DeleteTag)
	})
}

func (h *Handler) ListTags(w http.ResponseWriter, r *http.Request) {
	tags, err := h.service.List(r.Context())
	if err != nil {
		core.InternalServerError(w, err)
		return
	}

	core.OK(w, tags)
}

func (h *Handler) CreateTag(w http.ResponseWriter, r *http.Request) {
	var req TagRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		core.BadRequest(w, "invalid request body")
		return
	}

	if err := h.validator.Struct(req); err != nil {
		core.BadRequest(w, core.FormatValidationError(err))
		return
	}

	tag, err := h.service.Create(r.Context(), req.Name)
	if err != nil {
		if errors.Is(err, core.ErrDuplicateKey) {
			core.JSONError(w, core.DuplicateError("tag name"))
			return
		}
		core.InternalServerError(w, err)
		return
	}

	core.Created(w, tag)
}

func (h *Handler) RenameTag(w http.ResponseWriter, r *http.Request) {
	tagID := chi.URLParam(r, "tagID")

	var req TagRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		core.BadRequest(w, "invalid request body")
		return
	}

	if err := h.validator.Struct(req); err != nil {
		core.BadRequest(w, core.FormatValidationError(err))
		return
	}

	if err := h.service.Rename(r.Context(), tagID, req.Name); err != nil {
		switch {
		case errors.Is(err, core.ErrDuplicateKey):
			core.JSONError(w, core.DuplicateError("tag name"))
		case errors.Is(err, core.ErrNotFound):
			core.NotFound(w, "tag")
		default:
			core.InternalServerError(w, err)
		}
		return
	}

	core.NoContent(w)
}

func (h *Handler) DeleteTag(w http.ResponseWriter, r *http.Request) {
	tagID := chi.URLParam(r, "tagID")

	if err := h.service.Delete(r.Context(), tagID); err != nil {
		if errors.Is(err, core.ErrNotFound) {
			core.NotFound(w, "tag")
			return
		}
		core.InternalServerError(w, err)
		return
	}

	core.NoContent(w)
}
