// TrustGuardianHub | 2026
// repository.go

package payment

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/trustguardianhub/backend/internal/core"
)

// ConfirmResult reports what the confirmation transaction did.
type ConfirmResult struct {
	AlreadyConfirmed bool
	UserID           string
	Purpose          string
	Tier             string
}

type Repository interface {
	CreatePending(ctx context.Context, payment *Payment) error
	GetByID(ctx context.Context, id string) (*Payment, error)
	Confirm(
		ctx context.Context,
		paymentID, receipt string,
		tierFor func(purpose string) string,
	) (*ConfirmResult, error)
	DeleteOnFailure(ctx context.Context, paymentID string) error
	ExpireStale(ctx context.Context, olderThan time.Duration) (int64, error)
}

// repository holds the concrete pool rather than DBTX: Confirm owns a
// multi-statement transaction.
type repository struct {
	db *sqlx.DB
}

func NewRepository(db *sqlx.DB) Repository {
	return &repository{db: db}
}

func (r *repository) CreatePending(
	ctx context.Context,
	payment *Payment,
) error {
	query := `
		INSERT INTO payments (
			payment_id, payment_type, user_id, phone_number, purpose,
			amount, status, checkout_request_id
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING created_at, updated_at`

	err := r.db.GetContext(ctx, payment, query,
		payment.ID,
		payment.Type,
		payment.UserID,
		payment.Phone,
		payment.Purpose,
		payment.Amount,
		StatusPending,
		payment.CheckoutRequestID,
	)
	if err != nil {
		return fmt.Errorf("create payment: %w", err)
	}

	payment.Status = StatusPending

	return nil
}

func (r *repository) GetByID(
	ctx context.Context,
	id string,
) (*Payment, error) {
	query := `
		SELECT payment_id, payment_type, user_id, phone_number, purpose,
		       amount, status, checkout_request_id, mpesa_receipt_number,
		       created_at, updated_at
		FROM payments
		WHERE payment_id = $1`

	var payment Payment
	err := r.db.GetContext(ctx, &payment, query, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("get payment: %w", core.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get payment: %w", err)
	}

	return &payment, nil
}

// Confirm flips a PENDING payment to CONFIRMED and applies the bought tier
// to the owner, in one transaction. The status guard on the UPDATE makes a
// duplicate callback delivery a no-op: the second delivery matches zero rows
// and returns AlreadyConfirmed without touching the tier again.
func (r *repository) Confirm(
	ctx context.Context,
	paymentID, receipt string,
	tierFor func(purpose string) string,
) (*ConfirmResult, error) {
	var result ConfirmResult

	err := core.InTx(ctx, r.db, func(tx *sqlx.Tx) error {
		confirmStmt := `
			UPDATE payments
			SET status = $2, mpesa_receipt_number = $3, updated_at = NOW()
			WHERE payment_id = $1 AND status = $4
			RETURNING user_id, purpose`

		var row struct {
			UserID  string `db:"user_id"`
			Purpose string `db:"purpose"`
		}
		err := tx.GetContext(ctx, &row, confirmStmt,
			paymentID,
			StatusConfirmed,
			receipt,
			StatusPending,
		)
		if errors.Is(err, sql.ErrNoRows) {
			// Either absent or already confirmed; decide which.
			var status string
			checkErr := tx.GetContext(ctx, &status,
				`SELECT status FROM payments WHERE payment_id = $1`,
				paymentID,
			)
			if errors.Is(checkErr, sql.ErrNoRows) {
				return fmt.Errorf("confirm payment: %w", core.ErrNotFound)
			}
			if checkErr != nil {
				return fmt.Errorf("confirm payment: %w", checkErr)
			}

			result.AlreadyConfirmed = true
			return nil
		}
		if err != nil {
			return fmt.Errorf("confirm payment: %w", err)
		}

		result.UserID = row.UserID
		result.Purpose = row.Purpose
		result.Tier = tierFor(row.Purpose)

		tierStmt := `
			UPDATE users
			SET tier = $2, updated_at = NOW()
			WHERE user_id = $1`

		if _, err := tx.ExecContext(
			ctx,
			tierStmt,
			row.UserID,
			result.Tier,
		); err != nil {
			return fmt.Errorf("apply tier: %w", err)
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	return &result, nil
}

// DeleteOnFailure removes a PENDING payment after a failed charge. A row
// already confirmed is never deleted, and a row already gone is a no-op so
// redelivered failure callbacks stay idempotent.
func (r *repository) DeleteOnFailure(
	ctx context.Context,
	paymentID string,
) error {
	query := `
		DELETE FROM payments
		WHERE payment_id = $1 AND status = $2`

	if _, err := r.db.ExecContext(ctx, query, paymentID, StatusPending); err != nil {
		return fmt.Errorf("delete payment: %w", err)
	}

	return nil
}

// ExpireStale deletes PENDING payments older than the window; the gateway
// never answered for these.
func (r *repository) ExpireStale(
	ctx context.Context,
	olderThan time.Duration,
) (int64, error) {
	query := `
		DELETE FROM payments
		WHERE status = $1 AND created_at < NOW() - $2::interval`

	interval := fmt.Sprintf("%d seconds", int(olderThan.Seconds()))

	result, err := r.db.ExecContext(ctx, query, StatusPending, interval)
	if err != nil {
		return 0, fmt.Errorf("expire payments: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("expire payments: %w", err)
	}

	return rows, nil
}
