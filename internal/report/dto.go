// TrustGuardianHub | 2026
// dto.go

package report

import (
	"net/http"
	"time"

	"github.com/trustguardianhub/backend/internal/media"
)

type CreateReportRequest struct {
	Title       string `validate:"required,min=3,max=200"`
	Description string `validate:"required,min=3,max=5000"`
}

// ReportPatch is the typed set of optional fields an edit may carry. A new
// image list replaces the stored one wholesale.
type ReportPatch struct {
	Title       *string
	Description *string
	ImageList   *string
}

func (p ReportPatch) IsEmpty() bool {
	return p.Title == nil && p.Description == nil && p.ImageList == nil
}

type UpdateReportRequest struct {
	Title       *string `validate:"omitempty,min=3,max=200"`
	Description *string `validate:"omitempty,min=3,max=5000"`
}

type CreateCommentRequest struct {
	Content string `json:"content" validate:"required,min=1,max=2000"`
}

type ReportResponse struct {
	ID             string    `json:"report_id"`
	UserID         string    `json:"user_id"`
	Title          string    `json:"title"`
	Description    string    `json:"description"`
	ImageURLs      []string  `json:"image_urls"`
	AuthorUsername string    `json:"author_username,omitempty"`
	AuthorProfile  string    `json:"author_profile_url,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

type CommentResponse struct {
	ID             string    `json:"comment_id"`
	ReportID       string    `json:"report_id"`
	UserID         string    `json:"user_id"`
	AuthorUsername string    `json:"author_username,omitempty"`
	Content        string    `json:"content"`
	CreatedAt      time.Time `json:"created_at"`
}

type ReportDetailResponse struct {
	Report   ReportResponse    `json:"report"`
	Comments []CommentResponse `json:"comments"`
	Likes    int               `json:"likes"`
}

func toReportResponse(r *http.Request, rep *Report) ReportResponse {
	return ReportResponse{
		ID:          rep.ID,
		UserID:      rep.UserID,
		Title:       rep.Title,
		Description: rep.Description,
		ImageURLs:   media.PublicURLs(r, rep.ImageList),
		CreatedAt:   rep.CreatedAt,
		UpdatedAt:   rep.UpdatedAt,
	}
}

func toReportResponseWithAuthor(
	r *http.Request,
	rep *ReportWithAuthor,
) ReportResponse {
	resp := toReportResponse(r, &rep.Report)
	resp.AuthorUsername = rep.AuthorUsername
	resp.AuthorProfile = media.PublicURL(r, rep.AuthorProfileImage)
	return resp
}

// ToResponses shapes a list view with author fields and absolute URLs.
func ToResponses(
	r *http.Request,
	reports []ReportWithAuthor,
) []ReportResponse {
	responses := make([]ReportResponse, 0, len(reports))
	for i := range reports {
		responses = append(responses, toReportResponseWithAuthor(r, &reports[i]))
	}
	return responses
}

func toCommentResponses(comments []CommentWithAuthor) []CommentResponse {
	responses := make([]CommentResponse, 0, len(comments))
	for _, c := range comments {
		responses = append(responses, CommentResponse{
			ID:             c.ID,
			ReportID:       c.ReportID,
			UserID:         c.UserID,
			AuthorUsername: c.AuthorUsername,
			Content:        c.Content,
			CreatedAt:      c.CreatedAt,
		})
	}
	return responses
}
