// TrustGuardianHub | 2026
// handler.go

package message

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/trustguardianhub/backend/internal/core"
	"github.com/trustguardianhub/backend/internal/middleware"
)

type SendMessageRequest struct {
	RecipientID string `json:"recipient_id" validate:"required"`
	Content     string `json:"content"      validate:"required,min=1,max=5000"`
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
	r.Route("/messages", func(r chi.Router) {
		r.Use(authenticator)

		r.Post("/", h.SendMessage)
		r.Get("/{userID}", h.GetConversation)
	})
}

// RegisterAdminRoutes exposes the full message log to admins.
func (h *Handler) RegisterAdminRoutes(
	r chi.Router,
	authenticator, adminOnly func(http.Handler) http.Handler,
) {
	r.Route("/admin/messages", func(r chi.Router) {
		r.Use(authenticator)
		r.Use(adminOnly)

		r.Get("/", h.ListAll)
	})
}

func (h *Handler) SendMessage(w http.ResponseWriter, r *http.Request) {
	senderID := middleware.GetUserID(r.Context())

	var req SendMessageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		core.BadRequest(w, "invalid request body")
		return
	}

	if err := h.validator.Struct(req); err != nil {
		core.BadRequest(w, core.FormatValidationError(err))
		return
	}

	msg, err := h.service.Send(
		r.Context(),
		senderID,
		req.RecipientID,
		req.Content,
	)
	if err != nil {
		if errors.Is(err, core.ErrNotFound) {
			core.NotFound(w, "recipient")
			return
		}
		core.InternalServerError(w, err)
		return
	}

	core.Created(w, msg)
}

func (h *Handler) GetConversation(w http.ResponseWriter, r *http.Request) {
	callerID := middleware.GetUserID(r.Context())
	otherID := chi.URLParam(r, "userID")

	messages, err := h.service.Conversation(r.Context(), callerID, otherID)
	if err != nil {
		core.InternalServerError(w, err)
		return
	}

	core.OK(w, messages)
}

func (h *Handler) ListAll(w http.ResponseWriter, r *http.Request) {
	messages, err := h.service.ListAll(r.Context())
	if err != nil {
		core.InternalServerError(w, err)
		return
	}

	core.OK(w, messages)
}
