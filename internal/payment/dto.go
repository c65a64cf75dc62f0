// TrustGuardianHub | 2026
// dto.go

package payment

import (
	"encoding/json"
	"time"
)

type InitiateRequest struct {
	Amount  int    `json:"amount"  validate:"required,gt=0"`
	Phone   string `json:"phone"   validate:"required,min=10,max=15,numeric"`
	Purpose string `json:"purpose" validate:"required,max=100"`
}

type InitiateResponse struct {
	PaymentID         string `json:"payment_id"`
	CheckoutRequestID string `json:"checkout_request_id"`
	ResponseCode      string `json:"response_code"`
	CustomerMessage   string `json:"customer_message"`
}

type StatusResponse struct {
	PaymentID          string    `json:"payment_id"`
	Status             string    `json:"status"`
	Purpose            string    `json:"purpose"`
	Amount             int       `json:"amount"`
	MpesaReceiptNumber string    `json:"mpesa_receipt_number,omitempty"`
	CreatedAt          time.Time `json:"created_at"`
}

// CallbackBody mirrors the gateway's nested callback payload. Metadata item
// values arrive as strings or numbers, so Value stays a raw message until
// the scan.
type CallbackBody struct {
	Body struct {
		StkCallback struct {
			MerchantRequestID string `json:"MerchantRequestID"`
			CheckoutRequestID string `json:"CheckoutRequestID"`
			ResultCode        int    `json:"ResultCode"`
			ResultDesc        string `json:"ResultDesc"`
			CallbackMetadata  struct {
				Item []MetadataItem `json:"Item"`
			} `json:"CallbackMetadata"`
		} `json:"stkCallback"`
	} `json:"Body"`
}

type MetadataItem struct {
	Name  string          `json:"Name"`
	Value json.RawMessage `json:"Value"`
}

// StringValue renders the item value as a string regardless of its JSON
// type.
func (i MetadataItem) StringValue() string {
	if len(i.Value) == 0 {
		return ""
	}

	var s string
	if err := json.Unmarshal(i.Value, &s); err == nil {
		return s
	}

	var n json.Number
	if err := json.Unmarshal(i.Value, &n); err == nil {
		return n.String()
	}

	return string(i.Value)
}

func toStatusResponse(p *Payment) StatusResponse {
	resp := StatusResponse{
		PaymentID: p.ID,
		Status:    p.Status,
		Purpose:   p.Purpose,
		Amount:    p.Amount,
		CreatedAt: p.CreatedAt,
	}
	if p.MpesaReceiptNumber != nil {
		resp.MpesaReceiptNumber = *p.MpesaReceiptNumber
	}
	return resp
}
