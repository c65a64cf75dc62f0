// TrustGuardianHub | 2026
// repository.go

package user

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgconn"

	"github.com/trustguardianhub/backend/internal/core"
)

type Repository interface {
	Create(ctx context.Context, user *User) error
	GetByID(ctx context.Context, id string) (*User, error)
	GetByUsername(ctx context.Context, username string) (*User, error)
	GetByEmail(ctx context.Context, email string) (*User, error)
	GetByLogin(ctx context.Context, login string) (*User, error)
	UpdateProfile(ctx context.Context, id string, patch ProfilePatch) error
	UpdatePassword(ctx context.Context, id, passwordHash string) error
	UpdateTier(ctx context.Context, id, tier string) error
	IncrementTokenVersion(ctx context.Context, id string) error
	Delete(ctx context.Context, id string) error
	List(ctx context.Context, params ListUsersParams) ([]User, int, error)
	ExistsByUsernameOrEmail(
		ctx context.Context,
		username, email string,
	) (bool, error)

	Follow(ctx context.Context, followerID, followingID string) error
	Unfollow(ctx context.Context, followerID, followingID string) error
	IsFollowing(ctx context.Context, followerID, followingID string) (bool, error)
	FollowCounts(ctx context.Context, userID string) (int, int, error)

	ReportsForUser(ctx context.Context, userID string) ([]ProfileReport, error)

	SetResetToken(
		ctx context.Context,
		email, token string,
		expiry time.Time,
	) error
	GetByResetToken(ctx context.Context, token string) (*User, error)
	ResetPassword(ctx context.Context, id, passwordHash string) error
	ClearExpiredResetTokens(ctx context.Context) (int64, error)
}

type repository struct {
	db core.DBTX
}

func NewRepository(db core.DBTX) Repository {
	return &repository{db: db}
}

const userColumns = `
	user_id, username, email, password_hash, firstname, lastname, phone,
	bio, location, profile_url, cover_url, role, tier, points, ranking,
	token_version, reset_token, reset_token_expiry, created_at, updated_at`

func (r *repository) Create(ctx context.Context, user *User) error {
	query := `
		INSERT INTO users (
			user_id, username, email, password_hash, firstname, lastname,
			phone, role, tier
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING created_at, updated_at, points, ranking, token_version`

	err := r.db.GetContext(ctx, user, query,
		user.ID,
		user.Username,
		user.Email,
		user.PasswordHash,
		user.FirstName,
		user.LastName,
		user.Phone,
		user.Role,
		user.Tier,
	)
	if err != nil {
		if isDuplicateKeyError(err) {
			return fmt.Errorf("create user: %w", core.ErrDuplicateKey)
		}
		return fmt.Errorf("create user: %w", err)
	}

	return nil
}

func (r *repository) getOne(
	ctx context.Context,
	what, where string,
	args ...any,
) (*User, error) {
	query := fmt.Sprintf(
		"SELECT %s FROM users WHERE %s",
		userColumns,
		where,
	)

	var user User
	err := r.db.GetContext(ctx, &user, query, args...)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("get user by %s: %w", what, core.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get user by %s: %w", what, err)
	}

	return &user, nil
}

func (r *repository) GetByID(ctx context.Context, id string) (*User, error) {
	return r.getOne(ctx, "id", "user_id = $1", id)
}

func (r *repository) GetByUsername(
	ctx context.Context,
	username string,
) (*User, error) {
	return r.getOne(ctx, "username", "username = $1", username)
}

func (r *repository) GetByEmail(
	ctx context.Context,
	email string,
) (*User, error) {
	return r.getOne(ctx, "email", "email = $1", email)
}

// GetByLogin resolves a login identifier that may be a username or an email.
// Emails are stored lowercase; usernames match exactly.
func (r *repository) GetByLogin(
	ctx context.Context,
	login string,
) (*User, error) {
	return r.getOne(ctx, "login", "username = $1 OR email = LOWER($1)", login)
}

// buildUpdate translates a ProfilePatch into a parameterized SET clause.
// Only non-nil fields appear; the id parameter slot follows the last field.
func buildUpdate(patch ProfilePatch) (string, []any) {
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

	add("username", patch.Username)
	add("email", patch.Email)
	add("bio", patch.Bio)
	add("location", patch.Location)
	add("profile_url", patch.ProfileImage)
	add("cover_url", patch.CoverImage)

	if len(fields) == 0 {
		return "", nil
	}

	fields = append(fields, "updated_at = NOW()")
	return strings.Join(fields, ", "), args
}

func (r *repository) UpdateProfile(
	ctx context.Context,
	id string,
	patch ProfilePatch,
) error {
	setClause, args := buildUpdate(patch)
	if setClause == "" {
		return fmt.Errorf("update profile: no fields: %w", core.ErrInvalidInput)
	}

	query := fmt.Sprintf(
		"UPDATE users SET %s WHERE user_id = $%d",
		setClause,
		len(args)+1,
	)
	args = append(args, id)

	result, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		if isDuplicateKeyError(err) {
			return fmt.Errorf("update profile: %w", core.ErrDuplicateKey)
		}
		return fmt.Errorf("update profile: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("update profile: %w", err)
	}

	if rows == 0 {
		return fmt.Errorf("update profile: %w", core.ErrNotFound)
	}

	return nil
}

func (r *repository) UpdatePassword(
	ctx context.Context,
	id, passwordHash string,
) error {
	query := `
		UPDATE users
		SET password_hash = $2, updated_at = NOW()
		WHERE user_id = $1`

	return r.execExpectingRow(ctx, "update password", query, id, passwordHash)
}

func (r *repository) UpdateTier(ctx context.Context, id, tier string) error {
	query := `
		UPDATE users
		SET tier = $2, updated_at = NOW()
		WHERE user_id = $1`

	return r.execExpectingRow(ctx, "update tier", query, id, tier)
}

func (r *repository) IncrementTokenVersion(
	ctx context.Context,
	id string,
) error {
	query := `
		UPDATE users
		SET token_version = token_version + 1, updated_at = NOW()
		WHERE user_id = $1`

	return r.execExpectingRow(ctx, "increment token version", query, id)
}

func (r *repository) Delete(ctx context.Context, id string) error {
	// Reports, comments, likes, follows and searches cascade via FK.
	query := `DELETE FROM users WHERE user_id = $1`

	return r.execExpectingRow(ctx, "delete user", query, id)
}

func (r *repository) List(
	ctx context.Context,
	params ListUsersParams,
) ([]User, int, error) {
	params.Normalize()

	var conditions []string
	var args []any
	argIdx := 1

	conditions = append(conditions, "TRUE")

	if params.Search != "" {
		conditions = append(conditions, fmt.Sprintf(
			"(username ILIKE $%d OR email ILIKE $%d)", argIdx, argIdx))
		args = append(args, "%"+escapeLike(params.Search)+"%")
		argIdx++
	}

	if params.Role != "" {
		conditions = append(conditions, fmt.Sprintf("role = $%d", argIdx))
		args = append(args, params.Role)
		argIdx++
	}

	if params.Tier != "" {
		conditions = append(conditions, fmt.Sprintf("tier = $%d", argIdx))
		args = append(args, params.Tier)
		argIdx++
	}

	whereClause := strings.Join(conditions, " AND ")

	countQuery := fmt.Sprintf(
		"SELECT COUNT(*) FROM users WHERE %s",
		whereClause,
	)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count users: %w", err)
	}

	query := fmt.Sprintf(`
		SELECT %s
		FROM users
		WHERE %s
		ORDER BY created_at DESC
		LIMIT $%d OFFSET $%d`,
		userColumns, whereClause, argIdx, argIdx+1)

	args = append(args, params.PageSize, params.Offset())

	var users []User
	if err := r.db.SelectContext(ctx, &users, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list users: %w", err)
	}

	return users, total, nil
}

func (r *repository) ExistsByUsernameOrEmail(
	ctx context.Context,
	username, email string,
) (bool, error) {
	query := `
		SELECT EXISTS(
			SELECT 1 FROM users WHERE username = $1 OR email = $2
		)`

	var exists bool
	if err := r.db.GetContext(ctx, &exists, query, username, email); err != nil {
		return false, fmt.Errorf("check user exists: %w", err)
	}

	return exists, nil
}

func (r *repository) Follow(
	ctx context.Context,
	followerID, followingID string,
) error {
	query := `
		INSERT INTO followers (follower_id, following_id)
		VALUES ($1, $2)`

	_, err := r.db.ExecContext(ctx, query, followerID, followingID)
	if err != nil {
		if isDuplicateKeyError(err) {
			return fmt.Errorf("follow: %w", core.ErrDuplicateKey)
		}
		return fmt.Errorf("follow: %w", err)
	}

	return nil
}

func (r *repository) Unfollow(
	ctx context.Context,
	followerID, followingID string,
) error {
	query := `
		DELETE FROM followers
		WHERE follower_id = $1 AND following_id = $2`

	return r.execExpectingRow(ctx, "unfollow", query, followerID, followingID)
}

func (r *repository) IsFollowing(
	ctx context.Context,
	followerID, followingID string,
) (bool, error) {
	query := `
		SELECT EXISTS(
			SELECT 1 FROM followers
			WHERE follower_id = $1 AND following_id = $2
		)`

	var exists bool
	err := r.db.GetContext(ctx, &exists, query, followerID, followingID)
	if err != nil {
		return false, fmt.Errorf("check follow: %w", err)
	}

	return exists, nil
}

func (r *repository) FollowCounts(
	ctx context.Context,
	userID string,
) (int, int, error) {
	query := `
		SELECT
			COUNT(*) FILTER (WHERE following_id = $1) AS followers,
			COUNT(*) FILTER (WHERE follower_id = $1) AS following
		FROM followers`

	var counts struct {
		Followers int `db:"followers"`
		Following int `db:"following"`
	}
	if err := r.db.GetContext(ctx, &counts, query, userID); err != nil {
		return 0, 0, fmt.Errorf("follow counts: %w", err)
	}

	return counts.Followers, counts.Following, nil
}

func (r *repository) ReportsForUser(
	ctx context.Context,
	userID string,
) ([]ProfileReport, error) {
	query := `
		SELECT report_id, title, description, image_url, created_at
		FROM reports
		WHERE user_id = $1
		ORDER BY created_at DESC`

	var reports []ProfileReport
	if err := r.db.SelectContext(ctx, &reports, query, userID); err != nil {
		return nil, fmt.Errorf("reports for user: %w", err)
	}

	return reports, nil
}

func (r *repository) SetResetToken(
	ctx context.Context,
	email, token string,
	expiry time.Time,
) error {
	query := `
		UPDATE users
		SET reset_token = $2, reset_token_expiry = $3, updated_at = NOW()
		WHERE email = $1`

	return r.execExpectingRow(ctx, "set reset token", query, email, token, expiry)
}

func (r *repository) GetByResetToken(
	ctx context.Context,
	token string,
) (*User, error) {
	return r.getOne(
		ctx,
		"reset token",
		"reset_token = $1 AND reset_token_expiry > NOW()",
		token,
	)
}

// ResetPassword sets the new hash and clears the reset token in one statement.
func (r *repository) ResetPassword(
	ctx context.Context,
	id, passwordHash string,
) error {
	query := `
		UPDATE users
		SET password_hash = $2,
		    reset_token = NULL,
		    reset_token_expiry = NULL,
		    updated_at = NOW()
		WHERE user_id = $1`

	return r.execExpectingRow(ctx, "reset password", query, id, passwordHash)
}

func (r *repository) ClearExpiredResetTokens(
	ctx context.Context,
) (int64, error) {
	query := `
		UPDATE users
		SET reset_token = NULL, reset_token_expiry = NULL
		WHERE reset_token IS NOT NULL AND reset_token_expiry < NOW()`

	result, err := r.db.ExecContext(ctx, query)
	if err != nil {
		return 0, fmt.Errorf("clear expired reset tokens: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("clear expired reset tokens: %w", err)
	}

	return rows, nil
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

func escapeLike(s string) string {
	s = strings.ReplaceAll(s, "\\", "\\\\")
	s = strings.ReplaceAll(s, "%", "\\%")
	s = strings.ReplaceAll(s, "_", "\\_")
	return s
}
