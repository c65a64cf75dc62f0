// TrustGuardianHub | 2026
// handler.go

package payment

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/trustguardianhub/backend/internal/core"
	"github.com/trustguardianhub/backend/internal/middleware"
)

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

// RegisterRoutes mounts the payment surface. The callback route is public:
// the gateway calls it without a bearer token.
func (h *Handler) RegisterRoutes(
	r chi.Router,
	authenticator func(http.Handler) http.Handler,
) {
	r.Route("/payments", func(r chi.Router) {
		r.Post("/callback/{paymentID}", h.Callback)

		r.Group(func(r chi.Router) {
			r.Use(authenticator)
			r.Post("/", h.Initiate)
			r.Get("/{paymentID}/status", h.Status)
			r.Get("/query/{checkoutRequestID}", h.QueryGateway)
		})
	})
}

func (h *Handler) Initiate(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())

	var req InitiateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		core.BadRequest(w, "invalid request body")
		return
	}

	if err := h.validator.Struct(req); err != nil {
		core.BadRequest(w, core.FormatValidationError(err))
		return
	}

	resp, err := h.service.Initiate(r.Context(), userID, req)
	if err != nil {
		if errors.Is(err, core.ErrInvalidInput) {
			core.BadRequest(w, "payment gateway refused the charge")
			return
		}
		core.InternalServerError(w, err)
		return
	}

	core.Created(w, resp)
}

func (h *Handler) Callback(w http.ResponseWriter, r *http.Request) {
	paymentID := chi.URLParam(r, "paymentID")

	var body CallbackBody
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		core.BadRequest(w, "invalid callback body")
		return
	}

	outcome, err := h.service.HandleCallback(r.Context(), paymentID, body)
	if err != nil {
		switch {
		case errors.Is(err, core.ErrNotFound):
			core.NotFound(w, "payment")
		case errors.Is(err, core.ErrInvalidInput):
			core.BadRequest(w, "callback metadata missing receipt")
		default:
			core.InternalServerError(w, err)
		}
		return
	}

	if outcome.Failed {
		core.OK(w, map[string]any{
			"status":      "failed",
			"result_desc": outcome.ResultDesc,
		})
		return
	}

	core.OK(w, map[string]any{
		"status": "confirmed",
		"tier":   outcome.Tier,
	})
}

func (h *Handler) Status(w http.ResponseWriter, r *http.Request) {
	paymentID := chi.URLParam(r, "paymentID")

	payment, err := h.service.Status(r.Context(), paymentID)
	if err != nil {
		if errors.Is(err, core.ErrNotFound) {
			core.NotFound(w, "payment")
			return
		}
		core.InternalServerError(w, err)
		return
	}

	core.OK(w, toStatusResponse(payment))
}

func (h *Handler) QueryGateway(w http.ResponseWriter, r *http.Request) {
	checkoutRequestID := chi.URLParam(r, "checkoutRequestID")
	if checkoutRequestID == "" {
		core.BadRequest(w, "checkout request ID required")
		return
	}

	result, err := h.service.QueryGateway(r.Context(), checkoutRequestID)
	if err != nil {
		core.InternalServerError(w, err)
		return
	}

	core.OK(w, result)
}
