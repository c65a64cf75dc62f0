// TrustGuardianHub | 2026
// message.go

package message

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgconn"

	"github.com/trustguardianhub/backend/internal/core"
)

const messageIDLength = 10

// Message is append-only: no update or delete operations exist.
type Message struct {
	ID          string    `db:"message_id"   json:"message_id"`
	SenderID    string    `db:"sender_id"    json:"sender_id"`
	RecipientID string    `db:"recipient_id" json:"recipient_id"`
	Content     string    `db:"content"      json:"content"`
	CreatedAt   time.Time `db:"created_at"   json:"created_at"`
}

type Repository interface {
	Create(ctx context.Context, msg *Message) error
	Conversation(ctx context.Context, userA, userB string) ([]Message, error)
	ListAll(ctx context.Context) ([]Message, error)
}

type repository struct {
	db core.DBTX
}

func NewRepository(db core.DBTX) Repository {
	return &repository{db: db}
}

func (r *repository) Create(ctx context.Context, msg *Message) error {
	query := `
		INSERT INTO messages (message_id, sender_id, recipient_id, content)
		VALUES ($1, $2, $3, $4)
		RETURNING created_at`

	err := r.db.GetContext(ctx, msg, query,
		msg.ID,
		msg.SenderID,
		msg.RecipientID,
		msg.Content,
	)
	if err != nil {
		if isForeignKeyError(err) {
			return fmt.Errorf("create message: %w", core.ErrNotFound)
		}
		return fmt.Errorf("create message: %w", err)
	}

	return nil
}

func (r *repository) Conversation(
	ctx context.Context,
	userA, userB string,
) ([]Message, error) {
	query := `
		SELECT message_id, sender_id, recipient_id, content, created_at
		FROM messages
		WHERE (sender_id = $1 AND recipient_id = $2)
		   OR (sender_id = $2 AND recipient_id = $1)
		ORDER BY created_at ASC`

	var messages []Message
	err := r.db.SelectContext(ctx, &messages, query, userA, userB)
	if err != nil {
		return nil, fmt.Errorf("list conversation: %w", err)
	}

	return messages, nil
}

func (r *repository) ListAll(ctx context.Context) ([]Message, error) {
	query := `
		SELECT message_id, sender_id, recipient_id, content, created_at
		FROM messages
		ORDER BY created_at DESC`

	var messages []Message
	if err := r.db.SelectContext(ctx, &messages, query); err != nil {
		return nil, fmt.Errorf("list messages: %w", err)
	}

	return messages, nil
}

type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

func (s *Service) Send(
	ctx context.Context,
	senderID, recipientID, content string,
) (*Message, error) {
	id, err := core.NewShortID(messageIDLength)
	if err != nil {
		return nil, fmt.Errorf("generate message id: %w", err)
	}

	msg := &Message{
		ID:          id,
		SenderID:    senderID,
		RecipientID: recipientID,
		Content:     content,
	}

	if err := s.repo.Create(ctx, msg); err != nil {
		return nil, err
	}

	return msg, nil
}

func (s *Service) Conversation(
	ctx context.Context,
	callerID, otherID string,
) ([]Message, error) {
	return s.repo.Conversation(ctx, callerID, otherID)
}

func (s *Service) ListAll(ctx context.Context) ([]Message, error) {
	return s.repo.ListAll(ctx)
}

func isForeignKeyError(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23503"
	}
	return false
}
