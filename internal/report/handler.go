// TrustGuardianHub | 2026
// handler.go

package report

import (
	"encoding/json"
	"errors"
	"mime/multipart"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/trustguardianhub/backend/internal/core"
	"github.com/trustguardianhub/backend/internal/media"
	"github.com/trustguardianhub/backend/internal/middleware"
)

type Handler struct {
	service        *Service
	validator      *validator.Validate
	media          *media.Store
	maxUploadBytes int64
}

func NewHandler(
	service *Service,
	mediaStore *media.Store,
	maxUploadMB int,
) *Handler {
	return &Handler{
		service:        service,
		validator:      validator.New(validator.WithRequiredStructEnabled()),
		media:          mediaStore,
		maxUploadBytes: int64(maxUploadMB) << 20,
	}
}

func (h *Handler) RegisterRoutes(
	r chi.Router,
	authenticator func(http.Handler) http.Handler,
) {
	r.Route("/reports", func(r chi.Router) {
		r.Use(authenticator)

		r.Get("/", h.ListReports)
		r.Post("/", h.CreateReport)
		r.Get("/{reportID}", h.GetReport)
		r.Put("/{reportID}", h.UpdateReport)
		r.Delete("/{reportID}", h.DeleteReport)

		r.Post("/{reportID}/comments", h.AddComment)
		r.Delete("/comments/{commentID}", h.DeleteComment)

		r.Post("/{reportID}/like", h.Like)
		r.Delete("/{reportID}/like", h.Unlike)
	})
}

// CreateReport accepts a multipart form with title, description and 1..5
// files under the images field.
func (h *Handler) CreateReport(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())

	if err := r.ParseMultipartForm(h.maxUploadBytes); err != nil {
		core.BadRequest(w, "invalid multipart form")
		return
	}

	req := CreateReportRequest{
		Title:       r.FormValue("title"),
		Description: r.FormValue("description"),
	}

	if err := h.validator.Struct(req); err != nil {
		core.BadRequest(w, core.FormatValidationError(err))
		return
	}

	files := r.MultipartForm.File["images"]
	if len(files) < MinImages || len(files) > MaxImages {
		core.BadRequest(w, "between 1 and 5 images are required")
		return
	}

	names, err := h.saveImages(files)
	if err != nil {
		if errors.Is(err, core.ErrInvalidInput) {
			core.BadRequest(w, "only image uploads are allowed")
			return
		}
		core.InternalServerError(w, err)
		return
	}

	report, err := h.service.Create(r.Context(), userID, req, names)
	if err != nil {
		h.removeAll(names)
		if errors.Is(err, core.ErrInvalidInput) {
			core.BadRequest(w, "between 1 and 5 images are required")
			return
		}
		core.InternalServerError(w, err)
		return
	}

	core.Created(w, toReportResponse(r, report))
}

func (h *Handler) ListReports(w http.ResponseWriter, r *http.Request) {
	reports, err := h.service.List(r.Context())
	if err != nil {
		core.InternalServerError(w, err)
		return
	}

	core.OK(w, ToResponses(r, reports))
}

func (h *Handler) GetReport(w http.ResponseWriter, r *http.Request) {
	reportID := chi.URLParam(r, "reportID")

	detail, err := h.service.Get(r.Context(), reportID)
	if err != nil {
		if errors.Is(err, core.ErrNotFound) {
			core.NotFound(w, "report")
			return
		}
		core.InternalServerError(w, err)
		return
	}

	core.OK(w, ReportDetailResponse{
		Report:   toReportResponseWithAuthor(r, detail.Report),
		Comments: toCommentResponses(detail.Comments),
		Likes:    detail.Likes,
	})
}

// UpdateReport accepts a multipart form; any images present replace the
// stored set wholesale.
func (h *Handler) UpdateReport(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	isAdmin := middleware.GetUserRole(r.Context()) == "admin"
	reportID := chi.URLParam(r, "reportID")

	if err := r.ParseMultipartForm(h.maxUploadBytes); err != nil {
		core.BadRequest(w, "invalid multipart form")
		return
	}

	req := UpdateReportRequest{
		Title:       formValue(r, "title"),
		Description: formValue(r, "description"),
	}

	if err := h.validator.Struct(req); err != nil {
		core.BadRequest(w, core.FormatValidationError(err))
		return
	}

	patch := ReportPatch{
		Title:       req.Title,
		Description: req.Description,
	}

	var names []string
	if files := r.MultipartForm.File["images"]; len(files) > 0 {
		if len(files) > MaxImages {
			core.BadRequest(w, "at most 5 images are allowed")
			return
		}

		var err error
		names, err = h.saveImages(files)
		if err != nil {
			if errors.Is(err, core.ErrInvalidInput) {
				core.BadRequest(w, "only image uploads are allowed")
				return
			}
			core.InternalServerError(w, err)
			return
		}

		list := media.JoinImageList(names)
		patch.ImageList = &list
	}

	report, err := h.service.Update(
		r.Context(),
		userID,
		isAdmin,
		reportID,
		patch,
	)
	if err != nil {
		h.removeAll(names)
		switch {
		case errors.Is(err, core.ErrInvalidInput):
			core.BadRequest(w, "no fields to update")
		case errors.Is(err, core.ErrForbidden):
			core.Forbidden(w, "not the report owner")
		case errors.Is(err, core.ErrNotFound):
			core.NotFound(w, "report")
		default:
			core.InternalServerError(w, err)
		}
		return
	}

	core.OK(w, toReportResponse(r, report))
}

func (h *Handler) DeleteReport(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	isAdmin := middleware.GetUserRole(r.Context()) == "admin"
	reportID := chi.URLParam(r, "reportID")

	err := h.service.Delete(r.Context(), userID, isAdmin, reportID)
	if err != nil {
		switch {
		case errors.Is(err, core.ErrForbidden):
			core.Forbidden(w, "not the report owner")
		case errors.Is(err, core.ErrNotFound):
			core.NotFound(w, "report")
		default:
			core.InternalServerError(w, err)
		}
		return
	}

	core.NoContent(w)
}

func (h *Handler) AddComment(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	reportID := chi.URLParam(r, "reportID")

	var req CreateCommentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		core.BadRequest(w, "invalid request body")
		return
	}

	if err := h.validator.Struct(req); err != nil {
		core.BadRequest(w, core.FormatValidationError(err))
		return
	}

	comment, err := h.service.AddComment(
		r.Context(),
		reportID,
		userID,
		req.Content,
	)
	if err != nil {
		if errors.Is(err, core.ErrNotFound) {
			core.NotFound(w, "report")
			return
		}
		core.InternalServerError(w, err)
		return
	}

	core.Created(w, CommentResponse{
		ID:        comment.ID,
		ReportID:  comment.ReportID,
		UserID:    comment.UserID,
		Content:   comment.Content,
		CreatedAt: comment.CreatedAt,
	})
}

func (h *Handler) DeleteComment(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	isAdmin := middleware.GetUserRole(r.Context()) == "admin"
	commentID := chi.URLParam(r, "commentID")

	err := h.service.DeleteComment(r.Context(), userID, isAdmin, commentID)
	if err != nil {
		switch {
		case errors.Is(err, core.ErrForbidden):
			core.Forbidden(w, "not the comment owner")
		case errors.Is(err, core.ErrNotFound):
			core.NotFound(w, "comment")
		default:
			core.InternalServerError(w, err)
		}
		return
	}

	core.NoContent(w)
}

func (h *Handler) Like(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	reportID := chi.URLParam(r, "reportID")

	if err := h.service.Like(r.Context(), reportID, userID); err != nil {
		switch {
		case errors.Is(err, core.ErrDuplicateKey):
			core.BadRequest(w, "report already liked")
		case errors.Is(err, core.ErrNotFound):
			core.NotFound(w, "report")
		default:
			core.InternalServerError(w, err)
		}
		return
	}

	core.NoContent(w)
}

func (h *Handler) Unlike(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	reportID := chi.URLParam(r, "reportID")

	if err := h.service.Unlike(r.Context(), reportID, userID); err != nil {
		if errors.Is(err, core.ErrNotFound) {
			core.NotFound(w, "like")
			return
		}
		core.InternalServerError(w, err)
		return
	}

	core.NoContent(w)
}

// saveImages stores each upload, removing anything already written on the
// first failure.
func (h *Handler) saveImages(files []*multipart.FileHeader) ([]string, error) {
	names := make([]string, 0, len(files))
	for _, fh := range files {
		name, err := h.media.Save("report", fh)
		if err != nil {
			h.removeAll(names)
			return nil, err
		}
		names = append(names, name)
	}
	return names, nil
}

func (h *Handler) removeAll(names []string) {
	for _, name := range names {
		h.media.Remove(name)
	}
}

func formValue(r *http.Request, key string) *string {
	vals, ok := r.MultipartForm.Value[key]
	if !ok || len(vals) == 0 {
		return nil
	}
	return &vals[0]
}
