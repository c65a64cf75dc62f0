// TrustGuardianHub | 2026
// service.go

package payment

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/trustguardianhub/backend/internal/core"
)

const (
	paymentIDLength = 10

	receiptFieldName = "MpesaReceiptNumber"

	typeSTKPush = "stk_push"
)

type Service struct {
	repo        Repository
	gateway     Gateway
	callbackURL string
	logger      *slog.Logger
}

// NewService wires the gateway client and the callback base. callbackBase is
// the externally reachable application URL; the payment id is appended per
// initiation.
func NewService(
	repo Repository,
	gateway Gateway,
	callbackBase string,
	logger *slog.Logger,
) *Service {
	return &Service{
		repo:        repo,
		gateway:     gateway,
		callbackURL: callbackBase + "/api/payments/callback/",
		logger:      logger,
	}
}

// Initiate pushes the charge to the gateway and persists a PENDING row only
// once the gateway has accepted the request. A refused or unreachable
// gateway leaves no row behind.
func (s *Service) Initiate(
	ctx context.Context,
	userID string,
	req InitiateRequest,
) (*InitiateResponse, error) {
	id, err := core.NewShortID(paymentIDLength)
	if err != nil {
		return nil, fmt.Errorf("generate payment id: %w", err)
	}

	push := STKPush{
		Amount:      req.Amount,
		Phone:       req.Phone,
		CallbackURL: s.callbackURL + id,
		Reference:   id,
		Description: req.Purpose,
	}

	gwResp, err := s.gateway.STKPush(ctx, push)
	if err != nil {
		return nil, fmt.Errorf("gateway push: %w", err)
	}

	if gwResp.ResponseCode != "0" {
		return nil, fmt.Errorf(
			"gateway refused charge (%s): %s: %w",
			gwResp.ResponseCode,
			gwResp.ResponseDescription,
			core.ErrInvalidInput,
		)
	}

	payment := &Payment{
		ID:                id,
		Type:              typeSTKPush,
		UserID:            userID,
		Phone:             req.Phone,
		Purpose:           req.Purpose,
		Amount:            req.Amount,
		CheckoutRequestID: gwResp.CheckoutRequestID,
	}

	if err := s.repo.CreatePending(ctx, payment); err != nil {
		return nil, err
	}

	s.logger.Info("payment initiated",
		"payment_id", id,
		"user_id", userID,
		"purpose", req.Purpose,
		"amount", req.Amount,
	)

	return &InitiateResponse{
		PaymentID:         id,
		CheckoutRequestID: gwResp.CheckoutRequestID,
		ResponseCode:      gwResp.ResponseCode,
		CustomerMessage:   gwResp.CustomerMessage,
	}, nil
}

// CallbackOutcome tells the handler what the callback did.
type CallbackOutcome struct {
	Confirmed        bool
	AlreadyConfirmed bool
	Failed           bool
	ResultDesc       string
	Tier             string
}

// HandleCallback applies the gateway's verdict. Failures delete the PENDING
// row; successes confirm it and upgrade the owner's tier in one transaction.
// Duplicate success deliveries re-apply nothing.
func (s *Service) HandleCallback(
	ctx context.Context,
	paymentID string,
	body CallbackBody,
) (*CallbackOutcome, error) {
	cb := body.Body.StkCallback

	if cb.ResultCode != 0 {
		err := s.repo.DeleteOnFailure(ctx, paymentID)
		if err != nil {
			return nil, err
		}

		s.logger.Info("payment failed",
			"payment_id", paymentID,
			"result_code", cb.ResultCode,
			"result_desc", cb.ResultDesc,
		)

		return &CallbackOutcome{Failed: true, ResultDesc: cb.ResultDesc}, nil
	}

	receipt := ""
	for _, item := range cb.CallbackMetadata.Item {
		if item.Name == receiptFieldName {
			receipt = item.StringValue()
			break
		}
	}

	if receipt == "" {
		return nil, fmt.Errorf(
			"callback missing %s: %w",
			receiptFieldName,
			core.ErrInvalidInput,
		)
	}

	result, err := s.repo.Confirm(ctx, paymentID, receipt, TierForPurpose)
	if err != nil {
		return nil, err
	}

	if result.AlreadyConfirmed {
		s.logger.Info("duplicate payment callback ignored",
			"payment_id", paymentID,
		)
		return &CallbackOutcome{AlreadyConfirmed: true}, nil
	}

	s.logger.Info("payment confirmed",
		"payment_id", paymentID,
		"user_id", result.UserID,
		"tier", result.Tier,
	)

	return &CallbackOutcome{Confirmed: true, Tier: result.Tier}, nil
}

func (s *Service) Status(
	ctx context.Context,
	paymentID string,
) (*Payment, error) {
	return s.repo.GetByID(ctx, paymentID)
}

// QueryGateway proxies the gateway's own status endpoint for a checkout
// request id.
func (s *Service) QueryGateway(
	ctx context.Context,
	checkoutRequestID string,
) (map[string]any, error) {
	return s.gateway.QueryStatus(ctx, checkoutRequestID)
}

// ExpirePending removes PENDING rows older than the window. Run by the cron
// scheduler.
func (s *Service) ExpirePending(
	ctx context.Context,
	olderThan time.Duration,
) (int64, error) {
	return s.repo.ExpireStale(ctx, olderThan)
}
