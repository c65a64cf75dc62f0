// TrustGuardianHub | 2026
// dto.go

package user

import (
	"time"
)

// ProfilePatch is the typed set of optional profile fields an update may
// carry. It is translated into a parameterized UPDATE by buildUpdate, so no
// SQL is ever assembled from request strings.
type ProfilePatch struct {
	Username     *string
	Email        *string
	Bio          *string
	Location     *string
	ProfileImage *string
	CoverImage   *string
}

func (p ProfilePatch) IsEmpty() bool {
	return p.Username == nil &&
		p.Email == nil &&
		p.Bio == nil &&
		p.Location == nil &&
		p.ProfileImage == nil &&
		p.CoverImage == nil
}

type UpdateProfileRequest struct {
	Username *string `json:"username,omitempty" validate:"omitempty,min=3,max=30,alphanum"`
	Email    *string `json:"email,omitempty"    validate:"omitempty,email,max=255"`
	Bio      *string `json:"bio,omitempty"      validate:"omitempty,max=500"`
	Location *string `json:"location,omitempty" validate:"omitempty,max=100"`
}

type UpdateUserTierRequest struct {
	Tier string `json:"tier" validate:"required,oneof=FREE BASIC STANDARD PREMIUM"`
}

type UserResponse struct {
	ID           string    `json:"user_id"`
	Username     string    `json:"username"`
	Email        string    `json:"email"`
	FullName     string    `json:"full_name"`
	Phone        string    `json:"phone,omitempty"`
	Bio          string    `json:"bio,omitempty"`
	Location     string    `json:"location,omitempty"`
	ProfileImage string    `json:"profile_url,omitempty"`
	CoverImage   string    `json:"cover_url,omitempty"`
	Role         string    `json:"role"`
	Tier         string    `json:"tier"`
	Points       int       `json:"points"`
	Ranking      int       `json:"ranking"`
	CreatedAt    time.Time `json:"created_at"`
}

// ProfileResponse is the public profile view: the user, edge counts, whether
// the caller follows them, and their reports.
type ProfileResponse struct {
	User           UserResponse    `json:"user"`
	FollowersCount int             `json:"followers_count"`
	FollowingCount int             `json:"following_count"`
	IsFollowing    bool            `json:"is_following"`
	Reports        []ProfileReport `json:"reports"`
}

// ProfileReport is the report summary embedded in a profile response. The
// report package owns the full entity; this view only needs what the profile
// page renders.
type ProfileReport struct {
	ID          string    `db:"report_id"  json:"report_id"`
	Title       string    `db:"title"      json:"title"`
	Description string    `db:"description" json:"description"`
	ImageList   string    `db:"image_url"  json:"-"`
	ImageURLs   []string  `db:"-"          json:"image_urls"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
}

type ListUsersParams struct {
	Page     int    `json:"page"`
	PageSize int    `json:"page_size"`
	Search   string `json:"search"`
	Role     string `json:"role"`
	Tier     string `json:"tier"`
}

func (p *ListUsersParams) Normalize() {
	if p.Page < 1 {
		p.Page = 1
	}
	if p.PageSize < 1 {
		p.PageSize = 20
	}
	if p.PageSize > 100 {
		p.PageSize = 100
	}
}

func (p *ListUsersParams) Offset() int {
	return (p.Page - 1) * p.PageSize
}

func ToUserResponse(u *User) UserResponse {
	return UserResponse{
		ID:           u.ID,
		Username:     u.Username,
		Email:        u.Email,
		FullName:     u.FullName(),
		Phone:        u.Phone,
		Bio:          u.Bio,
		Location:     u.Location,
		ProfileImage: u.ProfileImage,
		CoverImage:   u.CoverImage,
		Role:         u.Role,
		Tier:         u.Tier,
		Points:       u.Points,
		Ranking:      u.Ranking,
		CreatedAt:    u.CreatedAt,
	}
}

func ToUserResponseList(users []User) []UserResponse {
	responses := make([]UserResponse, 0, len(users))
	for _, u := range users {
		responses = append(responses, ToUserResponse(&u))
	}
	return responses
}
