// TrustGuardianHub | 2026
// entity.go

package payment

import (
	"time"
)

const (
	StatusPending   = "PENDING"
	StatusConfirmed = "CONFIRMED"
)

// Payment rows exist only in PENDING or CONFIRMED. A failed charge deletes
// the row; there is no FAILED state.
type Payment struct {
	ID                 string    `db:"payment_id"`
	Type               string    `db:"payment_type"`
	UserID             string    `db:"user_id"`
	Phone              string    `db:"phone_number"`
	Purpose            string    `db:"purpose"`
	Amount             int       `db:"amount"`
	Status             string    `db:"status"`
	CheckoutRequestID  string    `db:"checkout_request_id"`
	MpesaReceiptNumber *string   `db:"mpesa_receipt_number"`
	CreatedAt          time.Time `db:"created_at"`
	UpdatedAt          time.Time `db:"updated_at"`
}

var purposeTiers = map[string]string{
	"basic_tier_package":    "BASIC",
	"standard_tier_package": "STANDARD",
	"premium_tier_package":  "PREMIUM",
}

// TierForPurpose maps a payment purpose to the tier it buys. Unknown
// purposes fall back to FREE.
func TierForPurpose(purpose string) string {
	if tier, ok := purposeTiers[purpose]; ok {
		return tier
	}
	return "FREE"
}
