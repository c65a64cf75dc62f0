// TrustGuardianHub | 2026
// tag.go

package tag

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgconn"

	"github.com/trustguardianhub/backend/internal/core"
)

const tagIDLength = 10

type Tag struct {
	ID        string    `db:"tag_id"    json:"tag_id"`
	Name      string    `db:"name"      json:"name"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

type Repository interface {
	Create(ctx context.Context, tag *Tag) error
	List(ctx context.Context) ([]Tag, error)
	Rename(ctx context.Context, id, name string) error
	Delete(ctx context.Context, id string) error
}

type repository struct {
	db core.DBTX
}

func NewRepository(db core.DBTX) Repository {
	return &repository{db: db}
}

func (r *repository) Create(ctx context.Context, tag *Tag) error {
	query := `
		INSERT INTO tags (tag_id, name)
		VALUES ($1, $2)
		RETURNING created_at`

	err := r.db.GetContext(ctx, tag, query, tag.ID, tag.Name)
	if err != nil {
		if isDuplicateKeyError(err) {
			return fmt.Errorf("create tag: %w", core.ErrDuplicateKey)
		}
		return fmt.Errorf("create tag: %w", err)
	}

	return nil
}

func (r *repository) List(ctx context.Context) ([]Tag, error) {
	query := `
		SELECT tag_id, name, created_at
		FROM tags
		ORDER BY name ASC`

	var tags []Tag
	if err := r.db.SelectContext(ctx, &tags, query); err != nil {
		return nil, fmt.Errorf("list tags: %w", err)
	}

	return tags, nil
}

func (r *repository) Rename(ctx context.Context, id, name string) error {
	query := `UPDATE tags SET name = $2 WHERE tag_id = $1`

	result, err := r.db.ExecContext(ctx, query, id, name)
	if err != nil {
		if isDuplicateKeyError(err) {
			return fmt.Errorf("rename tag: %w", core.ErrDuplicateKey)
		}
		return fmt.Errorf("rename tag: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("rename tag: %w", err)
	}

	if rows == 0 {
		return fmt.Errorf("rename tag: %w", core.ErrNotFound)
	}

	return nil
}

func (r *repository) Delete(ctx context.Context, id string) error {
	query := `DELETE FROM tags WHERE tag_id = $1`

	result, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("delete tag: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete tag: %w", err)
	}

	if rows == 0 {
		return fmt.Errorf("delete tag: %w", core.ErrNotFound)
	}

	return nil
}

type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

func (s *Service) Create(ctx context.Context, name string) (*Tag, error) {
	id, err := core.NewShortID(tagIDLength)
	if err != nil {
		return nil, fmt.Errorf("generate tag id: %w", err)
	}

	tag := &Tag{ID: id, Name: name}
	if err := s.repo.Create(ctx, tag); err != nil {
		return nil, err
	}

	return tag, nil
}

func (s *Service) List(ctx context.Context) ([]Tag, error) {
	return s.repo.List(ctx)
}

func (s *Service) Rename(ctx context.Context, id, name string) error {
	return s.repo.Rename(ctx, id, name)
}

func (s *Service) Delete(ctx context.Context, id string) error {
	return s.repo.Delete(ctx, id)
}

func isDuplicateKeyError(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505"
	}
	return false
}
