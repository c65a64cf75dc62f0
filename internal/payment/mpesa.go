// TrustGuardianHub | 2026
// mpesa.go

package payment

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/trustguardianhub/backend/internal/config"
)

// STKPush is the outbound push-charge request the service builds.
type STKPush struct {
	Amount      int
	Phone       string
	CallbackURL string
	Reference   string
	Description string
}

type STKPushResponse struct {
	MerchantRequestID   string `json:"MerchantRequestID"`
	CheckoutRequestID   string `json:"CheckoutRequestID"`
	ResponseCode        string `json:"ResponseCode"`
	ResponseDescription string `json:"ResponseDescription"`
	CustomerMessage     string `json:"CustomerMessage"`
}

// Gateway abstracts the M-Pesa Daraja API so the service and its tests do
// not depend on the live endpoint.
type Gateway interface {
	STKPush(ctx context.Context, push STKPush) (*STKPushResponse, error)
	QueryStatus(
		ctx context.Context,
		checkoutRequestID string,
	) (map[string]any, error)
}

// MpesaClient talks to the Daraja sandbox or production API. Every call
// fetches a client-credentials OAuth token first; Daraja tokens are short
// lived and the call volume here does not justify caching one.
type MpesaClient struct {
	httpClient     *http.Client
	baseURL        string
	consumerKey    string
	consumerSecret string
	shortCode      string
	passKey        string
}

func NewMpesaClient(cfg config.MpesaConfig) *MpesaClient {
	return &MpesaClient{
		httpClient:     &http.Client{Timeout: cfg.RequestTimeout},
		baseURL:        cfg.BaseURL,
		consumerKey:    cfg.ConsumerKey,
		consumerSecret: cfg.ConsumerSecret,
		shortCode:      cfg.ShortCode,
		passKey:        cfg.PassKey,
	}
}

const timestampLayout = "20060102150405"

// derivePassword builds the Daraja request password:
// base64(shortcode + passkey + timestamp).
func derivePassword(shortCode, passKey, timestamp string) string {
	raw := shortCode + passKey + timestamp
	return base64.StdEncoding.EncodeToString([]byte(raw))
}

func (c *MpesaClient) accessToken(ctx context.Context) (string, error) {
	url := c.baseURL + "/oauth/v1/generate?grant_type=client_credentials"

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", fmt.Errorf("build token request: %w", err)
	}
	req.SetBasicAuth(c.consumerKey, c.consumerSecret)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("fetch gateway token: %w", err)
	}
	defer resp.Body.Close() //nolint:errcheck // read-only body

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return "", fmt.Errorf(
			"gateway token request failed: %d %s",
			resp.StatusCode,
			string(body),
		)
	}

	var token struct {
		AccessToken string `json:"access_token"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&token); err != nil {
		return "", fmt.Errorf("decode gateway token: %w", err)
	}

	if token.AccessToken == "" {
		return "", fmt.Errorf("gateway returned empty access token")
	}

	return token.AccessToken, nil
}

func (c *MpesaClient) STKPush(
	ctx context.Context,
	push STKPush,
) (*STKPushResponse, error) {
	token, err := c.accessToken(ctx)
	if err != nil {
		return nil, err
	}

	timestamp := time.Now().Format(timestampLayout)

	payload := map[string]any{
		"BusinessShortCode": c.shortCode,
		"Password":          derivePassword(c.shortCode, c.passKey, timestamp),
		"Timestamp":         timestamp,
		"TransactionType":   "CustomerPayBillOnline",
		"Amount":            push.Amount,
		"PartyA":            push.Phone,
		"PartyB":            c.shortCode,
		"PhoneNumber":       push.Phone,
		"CallBackURL":       push.CallbackURL,
		"AccountReference":  push.Reference,
		"TransactionDesc":   push.Description,
	}

	var result STKPushResponse
	err = c.postJSON(ctx, "/mpesa/stkpush/v1/processrequest", token, payload, &result)
	if err != nil {
		return nil, err
	}

	return &result, nil
}

func (c *MpesaClient) QueryStatus(
	ctx context.Context,
	checkoutRequestID string,
) (map[string]any, error) {
	token, err := c.accessToken(ctx)
	if err != nil {
		return nil, err
	}

	timestamp := time.Now().Format(timestampLayout)

	payload := map[string]any{
		"BusinessShortCode": c.shortCode,
		"Password":          derivePassword(c.shortCode, c.passKey, timestamp),
		"Timestamp":         timestamp,
		"CheckoutRequestID": checkoutRequestID,
	}

	var result map[string]any
	err = c.postJSON(ctx, "/mpesa/stkpushquery/v1/query", token, payload, &result)
	if err != nil {
		return nil, err
	}

	return result, nil
}

func (c *MpesaClient) postJSON(
	ctx context.Context,
	path, token string,
	payload, out any,
) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("encode gateway request: %w", err)
	}

	req, err := http.NewRequestWithContext(
		ctx,
		http.MethodPost,
		c.baseURL+path,
		bytes.NewReader(body),
	)
	if err != nil {
		return fmt.Errorf("build gateway request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("gateway request: %w", err)
	}
	defer resp.Body.Close() //nolint:errcheck // read-only body

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return fmt.Errorf(
			"gateway request failed: %d %s",
			resp.StatusCode,
			string(raw),
		)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode gateway response: %w", err)
	}

	return nil
}

var _ Gateway = (*MpesaClient)(nil)
