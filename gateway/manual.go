package gateway

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/Kjfer/peri-craft-campus-sub000/model"
)

// ManualAdapter handles Yape/Plin style payments: the user pays
// out-of-band and submits the transaction code through the
// confirm-payment endpoint later.
type ManualAdapter struct {
	payee string
}

func (a *ManualAdapter) Process(ctx context.Context, order *model.Order, data PaymentData) (Outcome, error) {
	return Outcome{
		Success:   false,
		PaymentID: uuid.New().String(),
		Message: fmt.Sprintf(
			"transfer S/ %.1f to %s and confirm with your operation code",
			order.TotalAmount, a.payee),
	}, nil
}
