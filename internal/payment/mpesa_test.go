// TrustGuardianHub | 2026
// mpesa_test.go

package payment

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trustguardianhub/backend/internal/config"
)

func TestDerivePassword(t *testing.T) {
	got := derivePassword("174379", "passkey", "20260831120000")

	want := base64.StdEncoding.EncodeToString(
		[]byte("174379passkey20260831120000"),
	)
	assert.Equal(t, want, got)
}

func TestSTKPushAgainstFakeGateway(t *testing.T) {
	var pushBody map[string]any

	mux := http.NewServeMux()
	mux.HandleFunc("/oauth/v1/generate", func(w http.ResponseWriter, r *http.Request) {
		user, pass, ok := r.BasicAuth()
		require.True(t, ok)
		assert.Equal(t, "key", user)
		assert.Equal(t, "secret", pass)

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"access_token":"tok-1","expires_in":"3599"}`))
	})
	mux.HandleFunc("/mpesa/stkpush/v1/processrequest", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer tok-1", r.Header.Get("Authorization"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&pushBody))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"MerchantRequestID": "mr-1",
			"CheckoutRequestID": "ws_CO_42",
			"ResponseCode": "0",
			"ResponseDescription": "Success",
			"CustomerMessage": "Accepted"
		}`))
	})

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	client := NewMpesaClient(config.MpesaConfig{
		BaseURL:        srv.URL,
		ConsumerKey:    "key",
		ConsumerSecret: "secret",
		ShortCode:      "174379",
		PassKey:        "passkey",
		RequestTimeout: 5 * time.Second,
	})

	resp, err := client.STKPush(context.Background(), STKPush{
		Amount:      1500,
		Phone:       "254712345678",
		CallbackURL: "https://api.example.com/api/payments/callback/p1",
		Reference:   "p1",
		Description: "premium_tier_package",
	})
	require.NoError(t, err)

	assert.Equal(t, "ws_CO_42", resp.CheckoutRequestID)
	assert.Equal(t, "0", resp.ResponseCode)

	assert.Equal(t, "174379", pushBody["BusinessShortCode"])
	assert.Equal(t, "254712345678", pushBody["PhoneNumber"])
	assert.Equal(t, float64(1500), pushBody["Amount"])
	assert.Equal(
		t,
		"https://api.example.com/api/payments/callback/p1",
		pushBody["CallBackURL"],
	)

	timestamp, ok := pushBody["Timestamp"].(string)
	require.True(t, ok)
	assert.Len(t, timestamp, 14)
	assert.Equal(
		t,
		derivePassword("174379", "passkey", timestamp),
		pushBody["Password"],
	)
}

func TestSTKPushTokenFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(
		func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
		},
	))
	t.Cleanup(srv.Close)

	client := NewMpesaClient(config.MpesaConfig{
		BaseURL:        srv.URL,
		ConsumerKey:    "bad",
		ConsumerSecret: "bad",
		ShortCode:      "174379",
		PassKey:        "passkey",
		RequestTimeout: 5 * time.Second,
	})

	_, err := client.STKPush(context.Background(), STKPush{
		Amount: 100,
		Phone:  "254712345678",
	})
	require.Error(t, err)
}

func TestMetadataItemStringValue(t *testing.T) {
	cases := []struct {
		raw  string
		want string
	}{
		{`"ABC123"`, "ABC123"},
		{`1500`, "1500"},
		{`254712345678`, "254712345678"},
		{`1500.5`, "1500.5"},
	}

	for _, tc := range cases {
		item := MetadataItem{Value: json.RawMessage(tc.raw)}
		assert.Equal(t, tc.want, item.StringValue())
	}
}
