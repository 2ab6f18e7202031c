package controller

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func webhookApp(secret string) *fiber.App {
	app := fiber.New()
	wc := NewWebhookController(nil, secret)
	app.Post("/api/payments/webhook/:provider", wc.Receive)
	return app
}

func sign(secret string, body []byte) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	return hex.EncodeToString(mac.Sum(nil))
}

func TestWebhookAnswersReceivedOnBadSignature(t *testing.T) {
	app := webhookApp("topsecret")

	body := `{"external_payment_id":"ch_1","status":"paid"}`
	req := httptest.NewRequest("POST", "/api/payments/webhook/stripe", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Signature", "deadbeef")

	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, 200, resp.StatusCode)

	var out map[string]bool
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	assert.True(t, out["received"])
}

func TestWebhookAnswersReceivedOnMalformedBody(t *testing.T) {
	app := webhookApp("")

	req := httptest.NewRequest("POST", "/api/payments/webhook/stripe", strings.NewReader("not json"))
	req.Header.Set("Content-Type", "application/json")

	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, 200, resp.StatusCode)
}

func TestWebhookAnswersReceivedWithoutPaymentReference(t *testing.T) {
	app := webhookApp("topsecret")

	body := []byte(`{"status":"paid"}`)
	req := httptest.NewRequest("POST", "/api/payments/webhook/yape", strings.NewReader(string(body)))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Signature", sign("topsecret", body))

	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, 200, resp.StatusCode)
}
