package controller

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"log"

	"github.com/gofiber/fiber/v2"

	"github.com/Kjfer/peri-craft-campus-sub000/service"
)

// WebhookController ingests provider notifications. It always answers
// 200-shaped bodies: a retry storm from the provider is worse than a
// dropped event, and internal failures are logged, not surfaced.
type WebhookController struct {
	Reconciler *service.ReconcileService
	Secret     string
}

func NewWebhookController(reconciler *service.ReconcileService, secret string) *WebhookController {
	return &WebhookController{Reconciler: reconciler, Secret: secret}
}

func (wc *WebhookController) Receive(c *fiber.Ctx) error {
	provider := c.Params("provider")

	if wc.Secret != "" && !wc.verifySignature(c.Body(), c.Get("X-Signature")) {
		log.Printf("webhook from %s rejected: bad signature", provider)
		return c.JSON(fiber.Map{"received": true})
	}

	var body struct {
		ExternalPaymentID string `json:"external_payment_id"`
		OrderID           uint   `json:"order_id"`
		Status            string `json:"status"`
	}
	if err := c.BodyParser(&body); err != nil {
		log.Printf("webhook from %s rejected: invalid payload: %v", provider, err)
		return c.JSON(fiber.Map{"received": true})
	}

	var err error
	switch {
	case body.ExternalPaymentID != "":
		_, err = wc.Reconciler.ReconcileExternal(c.Context(), body.ExternalPaymentID, body.Status)
	case body.OrderID != 0:
		_, err = wc.Reconciler.ReconcileOrder(c.Context(), body.OrderID, body.Status)
	default:
		log.Printf("webhook from %s has no payment reference", provider)
	}
	if err != nil {
		log.Printf("webhook from %s not applied: %v", provider, err)
	}

	return c.JSON(fiber.Map{"received": true})
}

func (wc *WebhookController) verifySignature(body []byte, signature string) bool {
	mac := hmac.New(sha256.New, []byte(wc.Secret))
	mac.Write(body)
	expected := hex.EncodeToString(mac.Sum(nil))
	return hmac.Equal([]byte(expected), []byte(signature))
}
