// TrustGuardianHub | 2026
// handler.go

package user

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

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
	r.Route("/users", func(r chi.Router) {
		r.Use(authenticator)

		r.Put("/me", h.UpdateProfile)
		r.Delete("/me", h.DeleteAccount)
		r.Get("/{username}", h.GetProfile)
		r.Post("/{username}/follow", h.Follow)
		r.Delete("/{username}/follow", h.Unfollow)
	})
}

func (h *Handler) GetProfile(w http.ResponseWriter, r *http.Request) {
	username := chi.URLParam(r, "username")
	viewerID := middleware.GetUserID(r.Context())

	profile, err := h.service.GetProfile(r.Context(), username, viewerID)
	if err != nil {
		if errors.Is(err, core.ErrNotFound) {
			core.NotFound(w, "user")
			return
		}
		core.InternalServerError(w, err)
		return
	}

	core.OK(w, h.toProfileResponse(r, profile))
}

// UpdateProfile accepts a multipart form: text fields username, email, bio
// and location, plus optional profile_image and cover_image uploads.
func (h *Handler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())

	if err := r.ParseMultipartForm(h.maxUploadBytes); err != nil {
		core.BadRequest(w, "invalid multipart form")
		return
	}

	req := UpdateProfileRequest{
		Username: formValue(r, "username"),
		Email:    formValue(r, "email"),
		Bio:      formValue(r, "bio"),
		Location: formValue(r, "location"),
	}

	if err := h.validator.Struct(req); err != nil {
		core.BadRequest(w, core.FormatValidationError(err))
		return
	}

	patch := ProfilePatch{
		Username: req.Username,
		Email:    req.Email,
		Bio:      req.Bio,
		Location: req.Location,
	}

	var saved []string
	cleanup := func() {
		for _, name := range saved {
			h.media.Remove(name)
		}
	}

	for field, target := range map[string]**string{
		"profile_image": &patch.ProfileImage,
		"cover_image":   &patch.CoverImage,
	} {
		if fhs := r.MultipartForm.File[field]; len(fhs) > 0 {
			name, err := h.media.Save(field, fhs[0])
			if err != nil {
				cleanup()
				if errors.Is(err, core.ErrInvalidInput) {
					core.BadRequest(w, "only image uploads are allowed")
					return
				}
				core.InternalServerError(w, err)
				return
			}
			saved = append(saved, name)
			*target = &name
		}
	}

	user, err := h.service.UpdateProfile(r.Context(), userID, patch)
	if err != nil {
		cleanup()
		if errors.Is(err, core.ErrInvalidInput) {
			core.BadRequest(w, "no fields to update")
			return
		}
		if errors.Is(err, core.ErrDuplicateKey) {
			core.JSONError(w, core.DuplicateError("username or email"))
			return
		}
		if errors.Is(err, core.ErrNotFound) {
			core.NotFound(w, "user")
			return
		}
		core.InternalServerError(w, err)
		return
	}

	core.OK(w, h.toUserResponseWithURLs(r, user))
}

func (h *Handler) DeleteAccount(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())

	if err := h.service.DeleteAccount(r.Context(), userID); err != nil {
		if errors.Is(err, core.ErrNotFound) {
			core.NotFound(w, "user")
			return
		}
		core.InternalServerError(w, err)
		return
	}

	core.NoContent(w)
}

func (h *Handler) Follow(w http.ResponseWriter, r *http.Request) {
	followerID := middleware.GetUserID(r.Context())
	username := chi.URLParam(r, "username")

	if err := h.service.Follow(r.Context(), followerID, username); err != nil {
		if errors.Is(err, core.ErrNotFound) {
			core.NotFound(w, "user")
			return
		}
		if errors.Is(err, core.ErrDuplicateKey) {
			core.BadRequest(w, "already following this user")
			return
		}
		core.InternalServerError(w, err)
		return
	}

	core.NoContent(w)
}

func (h *Handler) Unfollow(w http.ResponseWriter, r *http.Request) {
	followerID := middleware.GetUserID(r.Context())
	username := chi.URLParam(r, "username")

	err := h.service.Unfollow(r.Context(), followerID, username)
	if err != nil {
		if errors.Is(err, core.ErrNotFound) {
			core.NotFound(w, "user")
			return
		}
		if errors.Is(err, core.ErrInvalidInput) {
			core.BadRequest(w, "not following this user")
			return
		}
		core.InternalServerError(w, err)
		return
	}

	core.NoContent(w)
}

// RegisterAdminRoutes registers admin-only user management endpoints.
func (h *Handler) RegisterAdminRoutes(
	r chi.Router,
	authenticator, adminOnly func(http.Handler) http.Handler,
) {
	r.Route("/admin/users", func(r chi.Router) {
		r.Use(authenticator)
		r.Use(adminOnly)

		r.Get("/", h.ListUsers)
		r.Get("/{userID}", h.GetUser)
		r.Put("/{userID}/tier", h.UpdateUserTier)
	})
}

// ListUsers returns a paginated list of users with optional filtering.
func (h *Handler) ListUsers(w http.ResponseWriter, r *http.Request) {
	params := ListUsersParams{
		Page:     parseIntQuery(r, "page", 1),
		PageSize: parseIntQuery(r, "page_size", 20),
		Search:   r.URL.Query().Get("search"),
		Role:     r.URL.Query().Get("role"),
		Tier:     r.URL.Query().Get("tier"),
	}

	users, total, err := h.service.ListUsers(r.Context(), params)
	if err != nil {
		core.InternalServerError(w, err)
		return
	}

	core.Paginated(
		w,
		ToUserResponseList(users),
		params.Page,
		params.PageSize,
		total,
	)
}

func (h *Handler) GetUser(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userID")

	user, err := h.service.GetUser(r.Context(), userID)
	if err != nil {
		if errors.Is(err, core.ErrNotFound) {
			core.NotFound(w, "user")
			return
		}
		core.InternalServerError(w, err)
		return
	}

	core.OK(w, ToUserResponse(user))
}

// UpdateUserTier changes a user's subscription tier (admin only).
func (h *Handler) UpdateUserTier(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userID")

	var req UpdateUserTierRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		core.BadRequest(w, "invalid request body")
		return
	}

	if err := h.validator.Struct(req); err != nil {
		core.BadRequest(w, core.FormatValidationError(err))
		return
	}

	user, err := h.service.UpdateUserTier(r.Context(), userID, req.Tier)
	if err != nil {
		if errors.Is(err, core.ErrInvalidInput) {
			core.BadRequest(w, "invalid tier")
			return
		}
		if errors.Is(err, core.ErrNotFound) {
			core.NotFound(w, "user")
			return
		}
		core.InternalServerError(w, err)
		return
	}

	core.OK(w, ToUserResponse(user))
}

func (h *Handler) toProfileResponse(
	r *http.Request,
	profile *Profile,
) ProfileResponse {
	reports := make([]ProfileReport, 0, len(profile.Reports))
	for _, rep := range profile.Reports {
		rep.ImageURLs = media.PublicURLs(r, rep.ImageList)
		reports = append(reports, rep)
	}

	return ProfileResponse{
		User:           h.toUserResponseWithURLs(r, profile.User),
		FollowersCount: profile.FollowersCount,
		FollowingCount: profile.FollowingCount,
		IsFollowing:    profile.IsFollowing,
		Reports:        reports,
	}
}

func (h *Handler) toUserResponseWithURLs(
	r *http.Request,
	u *User,
) UserResponse {
	resp := ToUserResponse(u)
	resp.ProfileImage = media.PublicURL(r, u.ProfileImage)
	resp.CoverImage = media.PublicURL(r, u.CoverImage)
	return resp
}

func formValue(r *http.Request, key string) *string {
	vals, ok := r.MultipartForm.Value[key]
	if !ok || len(vals) == 0 {
		return nil
	}
	return &vals[0]
}

func parseIntQuery(r *http.Request, key string, defaultVal int) int {
	val := r.URL.Query().Get(key)
	if val == "" {
		return defaultVal
	}

	parsed, err := strconv.Atoi(val)
	if err != nil {
		return defaultVal
	}

	return parsed
}
