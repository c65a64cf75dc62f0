// TrustGuardianHub | 2026
// service_test.go

package payment

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trustguardianhub/backend/internal/core"
)

type fakeRepo struct {
	payments map[string]*Payment
	tiers    map[string]string
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{
		payments: make(map[string]*Payment),
		tiers:    make(map[string]string),
	}
}

func (f *fakeRepo) CreatePending(_ context.Context, p *Payment) error {
	p.Status = StatusPending
	p.CreatedAt = time.Now()
	clone := *p
	f.payments[p.ID] = &clone
	return nil
}

func (f *fakeRepo) GetByID(_ context.Context, id string) (*Payment, error) {
	p, ok := f.payments[id]
	if !ok {
		return nil, fmt.Errorf("get payment: %w", core.ErrNotFound)
	}
	clone := *p
	return &clone, nil
}

func (f *fakeRepo) Confirm(
	_ context.Context,
	paymentID, receipt string,
	tierFor func(string) string,
) (*ConfirmResult, error) {
	p, ok := f.payments[paymentID]
	if !ok {
		return nil, fmt.Errorf("confirm payment: %w", core.ErrNotFound)
	}

	if p.Status == StatusConfirmed {
		return &ConfirmResult{AlreadyConfirmed: true}, nil
	}

	p.Status = StatusConfirmed
	p.MpesaReceiptNumber = &receipt

	tier := tierFor(p.Purpose)
	f.tiers[p.UserID] = tier

	return &ConfirmResult{
		UserID:  p.UserID,
		Purpose: p.Purpose,
		Tier:    tier,
	}, nil
}

func (f *fakeRepo) DeleteOnFailure(_ context.Context, paymentID string) error {
	p, ok := f.payments[paymentID]
	if ok && p.Status == StatusPending {
		delete(f.payments, paymentID)
	}
	return nil
}

func (f *fakeRepo) ExpireStale(
	_ context.Context,
	olderThan time.Duration,
) (int64, error) {
	var n int64
	cutoff := time.Now().Add(-olderThan)
	for id, p := range f.payments {
		if p.Status == StatusPending && p.CreatedAt.Before(cutoff) {
			delete(f.payments, id)
			n++
		}
	}
	return n, nil
}

type fakeGateway struct {
	response *STKPushResponse
	err      error
	pushes   []STKPush
}

func (f *fakeGateway) STKPush(
	_ context.Context,
	push STKPush,
) (*STKPushResponse, error) {
	f.pushes = append(f.pushes, push)
	if f.err != nil {
		return nil, f.err
	}
	return f.response, nil
}

func (f *fakeGateway) QueryStatus(
	_ context.Context,
	checkoutRequestID string,
) (map[string]any, error) {
	return map[string]any{"CheckoutRequestID": checkoutRequestID}, nil
}

func newTestService(
	repo Repository,
	gw Gateway,
) *Service {
	return NewService(repo, gw, "https://api.example.com", slog.Default())
}

func acceptedGateway() *fakeGateway {
	return &fakeGateway{
		response: &STKPushResponse{
			CheckoutRequestID: "ws_CO_123",
			ResponseCode:      "0",
			CustomerMessage:   "Success. Request accepted for processing",
		},
	}
}

func successCallback(receipt string) CallbackBody {
	var body CallbackBody
	body.Body.StkCallback.ResultCode = 0
	body.Body.StkCallback.CallbackMetadata.Item = []MetadataItem{
		{Name: "Amount", Value: json.RawMessage(`1500`)},
		{
			Name:  "MpesaReceiptNumber",
			Value: json.RawMessage(`"` + receipt + `"`),
		},
		{Name: "PhoneNumber", Value: json.RawMessage(`254712345678`)},
	}
	return body
}

func failureCallback(desc string) CallbackBody {
	var body CallbackBody
	body.Body.StkCallback.ResultCode = 1032
	body.Body.StkCallback.ResultDesc = desc
	return body
}

func TestInitiatePersistsPendingAfterGatewayAccepts(t *testing.T) {
	repo := newFakeRepo()
	gw := acceptedGateway()
	svc := newTestService(repo, gw)

	resp, err := svc.Initiate(context.Background(), "user-1", InitiateRequest{
		Amount:  1500,
		Phone:   "254712345678",
		Purpose: "premium_tier_package",
	})
	require.NoError(t, err)
	require.NotEmpty(t, resp.PaymentID)
	assert.Equal(t, "ws_CO_123", resp.CheckoutRequestID)

	stored, err := repo.GetByID(context.Background(), resp.PaymentID)
	require.NoError(t, err)
	assert.Equal(t, StatusPending, stored.Status)
	assert.Equal(t, "user-1", stored.UserID)
	assert.Equal(t, "premium_tier_package", stored.Purpose)

	require.Len(t, gw.pushes, 1)
	assert.Equal(
		t,
		"https://api.example.com/api/payments/callback/"+resp.PaymentID,
		gw.pushes[0].CallbackURL,
	)
}

func TestInitiateLeavesNoRowWhenGatewayRefuses(t *testing.T) {
	repo := newFakeRepo()
	gw := &fakeGateway{
		response: &STKPushResponse{
			ResponseCode:        "1",
			ResponseDescription: "Invalid PhoneNumber",
		},
	}
	svc := newTestService(repo, gw)

	_, err := svc.Initiate(context.Background(), "user-1", InitiateRequest{
		Amount:  100,
		Phone:   "bad",
		Purpose: "basic_tier_package",
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, core.ErrInvalidInput)
	assert.Empty(t, repo.payments)
}

func TestInitiateLeavesNoRowOnTransportError(t *testing.T) {
	repo := newFakeRepo()
	gw := &fakeGateway{err: errors.New("connection refused")}
	svc := newTestService(repo, gw)

	_, err := svc.Initiate(context.Background(), "user-1", InitiateRequest{
		Amount:  100,
		Phone:   "254712345678",
		Purpose: "basic_tier_package",
	})
	require.Error(t, err)
	assert.Empty(t, repo.payments)
}

func TestSuccessCallbackConfirmsAndUpgradesTier(t *testing.T) {
	repo := newFakeRepo()
	svc := newTestService(repo, acceptedGateway())

	resp, err := svc.Initiate(context.Background(), "user-1", InitiateRequest{
		Amount:  2500,
		Phone:   "254712345678",
		Purpose: "premium_tier_package",
	})
	require.NoError(t, err)

	outcome, err := svc.HandleCallback(
		context.Background(),
		resp.PaymentID,
		successCallback("ABC123"),
	)
	require.NoError(t, err)
	assert.True(t, outcome.Confirmed)
	assert.Equal(t, "PREMIUM", outcome.Tier)
	assert.Equal(t, "PREMIUM", repo.tiers["user-1"])

	stored, err := svc.Status(context.Background(), resp.PaymentID)
	require.NoError(t, err)
	assert.Equal(t, StatusConfirmed, stored.Status)
	require.NotNil(t, stored.MpesaReceiptNumber)
	assert.Equal(t, "ABC123", *stored.MpesaReceiptNumber)
}

func TestDuplicateCallbackIsIdempotent(t *testing.T) {
	repo := newFakeRepo()
	svc := newTestService(repo, acceptedGateway())

	resp, err := svc.Initiate(context.Background(), "user-1", InitiateRequest{
		Amount:  2500,
		Phone:   "254712345678",
		Purpose: "standard_tier_package",
	})
	require.NoError(t, err)

	first, err := svc.HandleCallback(
		context.Background(),
		resp.PaymentID,
		successCallback("XYZ789"),
	)
	require.NoError(t, err)
	assert.True(t, first.Confirmed)

	second, err := svc.HandleCallback(
		context.Background(),
		resp.PaymentID,
		successCallback("XYZ789"),
	)
	require.NoError(t, err)
	assert.True(t, second.AlreadyConfirmed)
	assert.False(t, second.Confirmed)

	stored, err := svc.Status(context.Background(), resp.PaymentID)
	require.NoError(t, err)
	assert.Equal(t, "XYZ789", *stored.MpesaReceiptNumber)
}

func TestFailureCallbackDeletesRow(t *testing.T) {
	repo := newFakeRepo()
	svc := newTestService(repo, acceptedGateway())

	resp, err := svc.Initiate(context.Background(), "user-1", InitiateRequest{
		Amount:  500,
		Phone:   "254712345678",
		Purpose: "basic_tier_package",
	})
	require.NoError(t, err)

	outcome, err := svc.HandleCallback(
		context.Background(),
		resp.PaymentID,
		failureCallback("Request cancelled by user"),
	)
	require.NoError(t, err)
	assert.True(t, outcome.Failed)
	assert.Equal(t, "Request cancelled by user", outcome.ResultDesc)

	_, err = svc.Status(context.Background(), resp.PaymentID)
	assert.ErrorIs(t, err, core.ErrNotFound)

	assert.Empty(t, repo.tiers)
}

func TestDuplicateFailureCallbackIsNoOp(t *testing.T) {
	repo := newFakeRepo()
	svc := newTestService(repo, acceptedGateway())

	resp, err := svc.Initiate(context.Background(), "user-1", InitiateRequest{
		Amount:  500,
		Phone:   "254712345678",
		Purpose: "basic_tier_package",
	})
	require.NoError(t, err)

	_, err = svc.HandleCallback(
		context.Background(),
		resp.PaymentID,
		failureCallback("Request cancelled by user"),
	)
	require.NoError(t, err)

	outcome, err := svc.HandleCallback(
		context.Background(),
		resp.PaymentID,
		failureCallback("Request cancelled by user"),
	)
	require.NoError(t, err)
	assert.True(t, outcome.Failed)

	// A failure redelivered after confirmation must not delete the row.
	resp2, err := svc.Initiate(context.Background(), "user-2", InitiateRequest{
		Amount:  500,
		Phone:   "254712345678",
		Purpose: "basic_tier_package",
	})
	require.NoError(t, err)

	_, err = svc.HandleCallback(
		context.Background(),
		resp2.PaymentID,
		successCallback("ABC123"),
	)
	require.NoError(t, err)

	_, err = svc.HandleCallback(
		context.Background(),
		resp2.PaymentID,
		failureCallback("late failure"),
	)
	require.NoError(t, err)

	stored, err := svc.Status(context.Background(), resp2.PaymentID)
	require.NoError(t, err)
	assert.Equal(t, StatusConfirmed, stored.Status)
}

func TestCallbackMissingReceiptFails(t *testing.T) {
	repo := newFakeRepo()
	svc := newTestService(repo, acceptedGateway())

	resp, err := svc.Initiate(context.Background(), "user-1", InitiateRequest{
		Amount:  500,
		Phone:   "254712345678",
		Purpose: "basic_tier_package",
	})
	require.NoError(t, err)

	var body CallbackBody
	body.Body.StkCallback.ResultCode = 0
	body.Body.StkCallback.CallbackMetadata.Item = []MetadataItem{
		{Name: "Amount", Value: json.RawMessage(`500`)},
	}

	_, err = svc.HandleCallback(context.Background(), resp.PaymentID, body)
	require.Error(t, err)
	assert.ErrorIs(t, err, core.ErrInvalidInput)

	stored, err := svc.Status(context.Background(), resp.PaymentID)
	require.NoError(t, err)
	assert.Equal(t, StatusPending, stored.Status)
}

func TestCallbackForUnknownPaymentIs404(t *testing.T) {
	repo := newFakeRepo()
	svc := newTestService(repo, acceptedGateway())

	_, err := svc.HandleCallback(
		context.Background(),
		"nope123456",
		successCallback("ABC123"),
	)
	assert.ErrorIs(t, err, core.ErrNotFound)
}

func TestTierForPurpose(t *testing.T) {
	assert.Equal(t, "BASIC", TierForPurpose("basic_tier_package"))
	assert.Equal(t, "STANDARD", TierForPurpose("standard_tier_package"))
	assert.Equal(t, "PREMIUM", TierForPurpose("premium_tier_package"))
	assert.Equal(t, "FREE", TierForPurpose("mystery_package"))
	assert.Equal(t, "FREE", TierForPurpose(""))
}

func TestExpirePendingRemovesOnlyStaleRows(t *testing.T) {
	repo := newFakeRepo()
	svc := newTestService(repo, acceptedGateway())

	repo.payments["old0000001"] = &Payment{
		ID:        "old0000001",
		Status:    StatusPending,
		CreatedAt: time.Now().Add(-2 * time.Hour),
	}
	repo.payments["new0000001"] = &Payment{
		ID:        "new0000001",
		Status:    StatusPending,
		CreatedAt: time.Now(),
	}

	n, err := svc.ExpirePending(context.Background(), 30*time.Minute)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	_, err = repo.GetByID(context.Background(), "old0000001")
	assert.ErrorIs(t, err, core.ErrNotFound)
	_, err = repo.GetByID(context.Background(), "new0000001")
	assert.NoError(t, err)
}
