// TrustGuardianHub | 2026
// entity.go

package report

import (
	"time"
)

type Report struct {
	ID          string    `db:"report_id"`
	UserID      string    `db:"user_id"`
	Title       string    `db:"title"`
	Description string    `db:"description"`
	// Comma-delimited list of stored image filenames, 1..5 entries.
	ImageList string    `db:"image_url"`
	CreatedAt time.Time `db:"created_at"`
	UpdatedAt time.Time `db:"updated_at"`
}

// ReportWithAuthor joins the owning user's public fields for list views.
type ReportWithAuthor struct {
	Report
	AuthorUsername     string `db:"author_username"`
	AuthorProfileImage string `db:"author_profile_url"`
}

type Comment struct {
	ID        string    `db:"comment_id"`
	ReportID  string    `db:"report_id"`
	UserID    string    `db:"user_id"`
	Content   string    `db:"content"`
	CreatedAt time.Time `db:"created_at"`
}

// CommentWithAuthor carries the commenter's username for display.
type CommentWithAuthor struct {
	Comment
	AuthorUsername string `db:"author_username"`
}
