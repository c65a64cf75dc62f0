// TrustGuardianHub | 2026
// scheduler.go

package jobs

import (
	"context"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"
)

// TokenPurger removes expired refresh tokens.
type TokenPurger interface {
	DeleteExpired(ctx context.Context) (int64, error)
}

// ResetTokenCleaner clears expired password-reset tokens from user rows.
type ResetTokenCleaner interface {
	ClearExpiredResetTokens(ctx context.Context) (int64, error)
}

// PaymentExpirer deletes PENDING payments the gateway never resolved.
type PaymentExpirer interface {
	ExpirePending(ctx context.Context, olderThan time.Duration) (int64, error)
}

type Scheduler struct {
	cron          *cron.Cron
	logger        *slog.Logger
	tokens        TokenPurger
	resets        ResetTokenCleaner
	payments      PaymentExpirer
	pendingExpiry time.Duration
	jobTimeout    time.Duration
}

func NewScheduler(
	logger *slog.Logger,
	tokens TokenPurger,
	resets ResetTokenCleaner,
	payments PaymentExpirer,
	pendingExpiry time.Duration,
) *Scheduler {
	return &Scheduler{
		cron:          cron.New(),
		logger:        logger,
		tokens:        tokens,
		resets:        resets,
		payments:      payments,
		pendingExpiry: pendingExpiry,
		jobTimeout:    time.Minute,
	}
}

func (s *Scheduler) Start() error {
	if _, err := s.cron.AddFunc("@hourly", s.purgeExpiredTokens); err != nil {
		return err
	}

	if _, err := s.cron.AddFunc("@hourly", s.clearResetTokens); err != nil {
		return err
	}

	if _, err := s.cron.AddFunc("@every 10m", s.expirePayments); err != nil {
		return err
	}

	s.cron.Start()
	s.logger.Info("job scheduler started")

	return nil
}

// Stop halts scheduling and waits for any running job to drain.
func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
	s.logger.Info("job scheduler stopped")
}

func (s *Scheduler) purgeExpiredTokens() {
	ctx, cancel := context.WithTimeout(context.Background(), s.jobTimeout)
	defer cancel()

	n, err := s.tokens.DeleteExpired(ctx)
	if err != nil {
		s.logger.Error("purge expired refresh tokens", "error", err)
		return
	}

	if n > 0 {
		s.logger.Info("purged expired refresh tokens", "count", n)
	}
}

func (s *Scheduler) clearResetTokens() {
	ctx, cancel := context.WithTimeout(context.Background(), s.jobTimeout)
	defer cancel()

	n, err := s.resets.ClearExpiredResetTokens(ctx)
	if err != nil {
		s.logger.Error("clear expired reset tokens", "error", err)
		return
	}

	if n > 0 {
		s.logger.Info("cleared expired reset tokens", "count", n)
	}
}

func (s *Scheduler) expirePayments() {
	ctx, cancel := context.WithTimeout(context.Background(), s.jobTimeout)
	defer cancel()

	n, err := s.payments.ExpirePending(ctx, s.pendingExpiry)
	if err != nil {
		s.logger.Error("expire stale payments", "error", err)
		return
	}

	if n > 0 {
		s.logger.Info("expired stale pending payments", "count", n)
	}
}
