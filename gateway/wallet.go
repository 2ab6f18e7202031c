package gateway

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/Kjfer/peri-craft-campus-sub000/model"
)

// WalletAdapter covers provider-hosted checkouts. Its synchronous
// return is a redirect instruction, never a payment result: the
// provider reports the real outcome later through the webhook.
type WalletAdapter struct {
	checkoutURL string
}

func (a *WalletAdapter) Process(ctx context.Context, order *model.Order, data PaymentData) (Outcome, error) {
	reference := uuid.New().String()

	url := fmt.Sprintf("%s?reference=%s&order=%s&amount=%.2f&currency=%s",
		a.checkoutURL, reference, order.OrderNumber, order.TotalAmount, order.Currency)
	if data.ReturnURL != "" {
		url += "&return_url=" + data.ReturnURL
	}

	return Outcome{
		Success:    false,
		PaymentID:  reference,
		PaymentURL: url,
		Message:    "redirect the user to complete the payment",
	}, nil
}
