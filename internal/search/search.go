// TrustGuardianHub | 2026
// search.go

package search

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/trustguardianhub/backend/internal/core"
)

const searchIDLength = 10

// Result is one matched row from the fan-out query. Kind names the source
// table: user, report or tag.
type Result struct {
	Kind  string `db:"kind"  json:"kind"`
	ID    string `db:"id"    json:"id"`
	Label string `db:"label" json:"label"`
	Extra string `db:"extra" json:"extra,omitempty"`
}

type HistoryEntry struct {
	ID        string    `db:"search_id" json:"search_id"`
	UserID    string    `db:"user_id"   json:"user_id"`
	Query     string    `db:"query"     json:"query"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

type Repository interface {
	Search(ctx context.Context, query string) ([]Result, error)
	AppendHistory(ctx context.Context, entry *HistoryEntry) error
	History(ctx context.Context, userID string, limit int) ([]HistoryEntry, error)
	DeleteHistoryEntry(ctx context.Context, userID, entryID string) error
	ClearHistory(ctx context.Context, userID string) (int64, error)
}

type repository struct {
	db core.DBTX
}

func NewRepository(db core.DBTX) Repository {
	return &repository{db: db}
}

// Search fans one pattern out across the three searchable tables. One output
// row per match; no deduplication across tables.
func (r *repository) Search(
	ctx context.Context,
	query string,
) ([]Result, error) {
	pattern := "%" + escapeLike(query) + "%"

	stmt := `
		SELECT 'user' AS kind, user_id AS id, username AS label,
		       email AS extra
		FROM users
		WHERE username ILIKE $1 OR email ILIKE $1
		UNION ALL
		SELECT 'report' AS kind, report_id AS id, title AS label,
		       description AS extra
		FROM reports
		WHERE title ILIKE $1 OR description ILIKE $1
		UNION ALL
		SELECT 'tag' AS kind, tag_id AS id, name AS label, '' AS extra
		FROM tags
		WHERE name ILIKE $1`

	var results []Result
	if err := r.db.SelectContext(ctx, &results, stmt, pattern); err != nil {
		return nil, fmt.Errorf("search: %w", err)
	}

	return results, nil
}

func (r *repository) AppendHistory(
	ctx context.Context,
	entry *HistoryEntry,
) error {
	stmt := `
		INSERT INTO searches (search_id, user_id, query)
		VALUES ($1, $2, $3)
		RETURNING created_at`

	err := r.db.GetContext(ctx, entry, stmt,
		entry.ID,
		entry.UserID,
		entry.Query,
	)
	if err != nil {
		return fmt.Errorf("append search history: %w", err)
	}

	return nil
}

func (r *repository) History(
	ctx context.Context,
	userID string,
	limit int,
) ([]HistoryEntry, error) {
	stmt := `
		SELECT search_id, user_id, query, created_at
		FROM searches
		WHERE user_id = $1
		ORDER BY created_at DESC
		LIMIT $2`

	var entries []HistoryEntry
	if err := r.db.SelectContext(ctx, &entries, stmt, userID, limit); err != nil {
		return nil, fmt.Errorf("search history: %w", err)
	}

	return entries, nil
}

func (r *repository) DeleteHistoryEntry(
	ctx context.Context,
	userID, entryID string,
) error {
	stmt := `
		DELETE FROM searches
		WHERE search_id = $1 AND user_id = $2`

	result, err := r.db.ExecContext(ctx, stmt, entryID, userID)
	if err != nil {
		return fmt.Errorf("delete search entry: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete search entry: %w", err)
	}

	if rows == 0 {
		return fmt.Errorf("delete search entry: %w", core.ErrNotFound)
	}

	return nil
}

func (r *repository) ClearHistory(
	ctx context.Context,
	userID string,
) (int64, error) {
	stmt := `DELETE FROM searches WHERE user_id = $1`

	result, err := r.db.ExecContext(ctx, stmt, userID)
	if err != nil {
		return 0, fmt.Errorf("clear search history: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("clear search history: %w", err)
	}

	return rows, nil
}

const historyLimit = 10

type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// Search runs the fan-out query and appends exactly one history row, whether
// or not anything matched.
func (s *Service) Search(
	ctx context.Context,
	userID, query string,
) ([]Result, error) {
	trimmed := strings.TrimSpace(query)
	if trimmed == "" {
		return nil, fmt.Errorf("search: empty query: %w", core.ErrInvalidInput)
	}

	results, err := s.repo.Search(ctx, trimmed)
	if err != nil {
		return nil, err
	}

	id, err := core.NewShortID(searchIDLength)
	if err != nil {
		return nil, fmt.Errorf("generate search id: %w", err)
	}

	entry := &HistoryEntry{ID: id, UserID: userID, Query: trimmed}
	if err := s.repo.AppendHistory(ctx, entry); err != nil {
		return nil, err
	}

	if results == nil {
		results = []Result{}
	}

	return results, nil
}

func (s *Service) History(
	ctx context.Context,
	userID string,
) ([]HistoryEntry, error) {
	return s.repo.History(ctx, userID, historyLimit)
}

func (s *Service) DeleteHistoryEntry(
	ctx context.Context,
	userID, entryID string,
) error {
	return s.repo.DeleteHistoryEntry(ctx, userID, entryID)
}

func (s *Service) ClearHistory(
	ctx context.Context,
	userID string,
) (int64, error) {
	return s.repo.ClearHistory(ctx, userID)
}

func escapeLike(s string) string {
	s = strings.ReplaceAll(s, "\\", "\\\\")
	s = strings.ReplaceAll(s, "%", "\\%")
	s = strings.ReplaceAll(s, "_", "\\_")
	return s
}
