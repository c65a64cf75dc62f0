// TrustGuardianHub | 2026
// repository.go

package report

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"

	"github.com/trustguardianhub/backend/internal/core"
)

type Repository interface {
	Create(ctx context.Context, report *Report) error
	GetByID(ctx context.Context, id string) (*Report, error)
	GetWithAuthor(ctx context.Context, id string) (*ReportWithAuthor, error)
	List(ctx context.Context) ([]ReportWithAuthor, error)
	Update(ctx context.Context, id string, patch ReportPatch) error
	Delete(ctx context.Context, id string) error

	CreateComment(ctx context.Context, comment *Comment) error
	CommentsForReport(
		ctx context.Context,
		reportID string,
	) ([]CommentWithAuthor, error)
	GetComment(ctx context.Context, id string) (*Comment, error)
	DeleteComment(ctx context.Context, id string) error

	Like(ctx context.Context, reportID, userID string) error
	Unlike(ctx context.Context, reportID, userID string) error
	LikeCount(ctx context.Context, reportID string) (int, error)
}

type repository struct {
	db core.DBTX
}

func NewRepository(db core.DBTX) Repository {
	return &repository{db: db}
}

func (r *repository) Create(ctx context.Context, report *Report) error {
	query := `
		INSERT INTO reports (report_id, user_id, title, description, image_url)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING created_at, updated_at`

	err := r.db.GetContext(ctx, report, query,
		report.ID,
		report.UserID,
		report.Title,
		report.Description,
		report.ImageList,
	)
	if err != nil {
		return fmt.Errorf("create report: %w", err)
	}

	return nil
}

func (r *repository) GetByID(ctx context.Context, id string) (*Report, error) {
	query := `
		SELECT report_id, user_id, title, description, image_url,
		       created_at, updated_at
		FROM reports
		WHERE report_id = $1`

	var report Report
	err := r.db.GetContext(ctx, &report, query, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("get report: %w", core.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get report: %w", err)
	}

	return &report, nil
}

func (r *repository) GetWithAuthor(
	ctx context.Context,
	id string,
) (*ReportWithAuthor, error) {
	query := `
		SELECT r.report_id, r.user_id, r.title, r.description, r.image_url,
		       r.created_at, r.updated_at,
		       u.username AS author_username,
		       u.profile_url AS author_profile_url
		FROM reports r
		JOIN users u ON u.user_id = r.user_id
		WHERE r.report_id = $1`

	var report ReportWithAuthor
	err := r.db.GetContext(ctx, &report, query, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("get report: %w", core.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get report: %w", err)
	}

	return &report, nil
}

func (r *repository) List(ctx context.Context) ([]ReportWithAuthor, error) {
	query := `
		SELECT r.report_id, r.user_id, r.title, r.description, r.image_url,
		       r.created_at, r.updated_at,
		       u.username AS author_username,
		       u.profile_url AS author_profile_url
		FROM reports r
		JOIN users u ON u.user_id = r.user_id
		ORDER BY r.created_at DESC`

	var reports []ReportWithAuthor
	if err := r.db.SelectContext(ctx, &reports, query); err != nil {
		return nil, fmt.Errorf("list reports: %w", err)
	}

	return reports, nil
}

func buildUpdate(patch ReportPatch) (string, []any) {
	var fields []string
	var args []any

	add := func(column string, value *string) {
		if value != nil {
			fields = append(
				fields,
				fmt.Sprintf("%s = $%d", column, len(args)+1),
			)
			args = append(args, *value)
		}
	}

	add("title", patch.Title)
	add("description", patch.Description)
	add("image_url", patch.ImageList)

	if len(fields) == 0 {
		return "", nil
	}

	fields = append(fields, "updated_at = NOW()")
	return strings.Join(fields, ", "), args
}

func (r *repository) Update(
	ctx context.Context,
	id string,
	patch ReportPatch,
) error {
	setClause, args := buildUpdate(patch)
	if setClause == "" {
		return fmt.Errorf("update report: no fields: %w", core.ErrInvalidInput)
	}

	query := fmt.Sprintf(
		"UPDATE reports SET %s WHERE report_id = $%d",
		setClause,
		len(args)+1,
	)
	args = append(args, id)

	return r.execExpectingRow(ctx, "update report", query, args...)
}

func (r *repository) Delete(ctx context.Context, id string) error {
	// Comments and likes cascade via FK.
	query := `DELETE FROM reports WHERE report_id = $1`

	return r.execExpectingRow(ctx, "delete report", query, id)
}

func (r *repository) CreateComment(
	ctx context.Context,
	comment *Comment,
) error {
	query := `
		INSERT INTO comments (comment_id, report_id, user_id, content)
		VALUES ($1, $2, $3, $4)
		RETURNING created_at`

	err := r.db.GetContext(ctx, comment, query,
		comment.ID,
		comment.ReportID,
		comment.UserID,
		comment.Content,
	)
	if err != nil {
		if isForeignKeyError(err) {
			return fmt.Errorf("create comment: %w", core.ErrNotFound)
		}
		return fmt.Errorf("create comment: %w", err)
	}

	return nil
}

func (r *repository) CommentsForReport(
	ctx context.Context,
	reportID string,
) ([]CommentWithAuthor, error) {
	query := `
		SELECT c.comment_id, c.report_id, c.user_id, c.content, c.created_at,
		       u.username AS author_username
		FROM comments c
		JOIN users u ON u.user_id = c.user_id
		WHERE c.report_id = $1
		ORDER BY c.created_at ASC`

	var comments []CommentWithAuthor
	if err := r.db.SelectContext(ctx, &comments, query, reportID); err != nil {
		return nil, fmt.Errorf("list comments: %w", err)
	}

	return comments, nil
}

func (r *repository) GetComment(
	ctx context.Context,
	id string,
) (*Comment, error) {
	query := `
		SELECT comment_id, report_id, user_id, content, created_at
		FROM comments
		WHERE comment_id = $1`

	var comment Comment
	err := r.db.GetContext(ctx, &comment, query, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("get comment: %w", core.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get comment: %w", err)
	}

	return &comment, nil
}

func (r *repository) DeleteComment(ctx context.Context, id string) error {
	query := `DELETE FROM comments WHERE comment_id = $1`

	return r.execExpectingRow(ctx, "delete comment", query, id)
}

func (r *repository) Like(ctx context.Context, reportID, userID string) error {
	query := `
		INSERT INTO likes (report_id, user_id)
		VALUES ($1, $2)`

	_, err := r.db.ExecContext(ctx, query, reportID, userID)
	if err != nil {
		if isDuplicateKeyError(err) {
			return fmt.Errorf("like report: %w", core.ErrDuplicateKey)
		}
		if isForeignKeyError(err) {
			return fmt.Errorf("like report: %w", core.ErrNotFound)
		}
		return fmt.Errorf("like report: %w", err)
	}

	return nil
}

func (r *repository) Unlike(
	ctx context.Context,
	reportID, userID string,
) error {
	query := `
		DELETE FROM likes
		WHERE report_id = $1 AND user_id = $2`

	return r.execExpectingRow(ctx, "unlike report", query, reportID, userID)
}

func (r *repository) LikeCount(
	ctx context.Context,
	reportID string,
) (int, error) {
	query := `SELECT COUNT(*) FROM likes WHERE report_id = $1`

	var count int
	if err := r.db.GetContext(ctx, &count, query, reportID); err != nil {
		return 0, fmt.Errorf("count likes: %w", err)
	}

	return count, nil
}

func (r *repository) execExpectingRow(
	ctx context.Context,
	op, query string,
	args ...any,
) error {
	result, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	if rows == 0 {
		return fmt.Errorf("%s: %w", op, core.ErrNotFound)
	}

	return nil
}

func isDuplicateKeyError(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505"
	}
	return false
}

func isForeignKeyError(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23503"
	}
	return false
}
