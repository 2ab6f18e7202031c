package gateway

import (
	"context"
	"fmt"

	"github.com/go-resty/resty/v2"

	"github.com/Kjfer/peri-craft-campus-sub000/config"
	"github.com/Kjfer/peri-craft-campus-sub000/model"
)

// Method is the closed set of supported payment methods. It is resolved
// once at checkout entry; nothing downstream switches on raw strings.
type Method string

const (
	MethodCard         Method = "card"
	MethodWallet       Method = "wallet"        // provider-hosted redirect checkout
	MethodManualWallet Method = "manual_wallet" // Yape/Plin style proof-of-payment
)

const (
	NextStepCardForm           = "card_form"
	NextStepRedirect           = "redirect"
	NextStepManualConfirmation = "manual_confirmation"
)

func ParseMethod(s string) (Method, error) {
	switch Method(s) {
	case MethodCard, MethodWallet, MethodManualWallet:
		return Method(s), nil
	}
	return "", fmt.Errorf("unknown payment method %q", s)
}

// Currency returns the settlement currency of the method. Manual-proof
// wallets settle in PEN; everything else is charged in USD.
func (m Method) Currency() string {
	if m == MethodManualWallet {
		return "PEN"
	}
	return "USD"
}

// NextStep tells the caller how to continue after the order is created.
func (m Method) NextStep() string {
	switch m {
	case MethodCard:
		return NextStepCardForm
	case MethodWallet:
		return NextStepRedirect
	default:
		return NextStepManualConfirmation
	}
}

// PaymentData carries the caller-supplied details for driving an
// adapter. Only the fields relevant to the chosen method are read.
type PaymentData struct {
	CardNumber  string `json:"card_number,omitempty"`
	CVV         string `json:"cvv,omitempty"`
	ExpiryMonth string `json:"expiry_month,omitempty"`
	ExpiryYear  string `json:"expiry_year,omitempty"`
	HolderName  string `json:"holder_name,omitempty"`
	ReturnURL   string `json:"return_url,omitempty"`
}

// Outcome is the uniform adapter result. For redirect and manual flows
// Success is false by design: the real success signal arrives later
// through reconciliation.
type Outcome struct {
	Success    bool   `json:"success"`
	PaymentID  string `json:"payment_id,omitempty"` // provider reference
	PaymentURL string `json:"payment_url,omitempty"`
	Message    string `json:"message"`
}

type Adapter interface {
	Process(ctx context.Context, order *model.Order, data PaymentData) (Outcome, error)
}

// Registry resolves a method to its adapter.
type Registry struct {
	adapters map[Method]Adapter
}

func NewRegistry(cfg config.Gateway) *Registry {
	client := resty.New()
	return &Registry{
		adapters: map[Method]Adapter{
			MethodCard:         &CardAdapter{client: client, processorURL: cfg.ProcessorURL},
			MethodWallet:       &WalletAdapter{checkoutURL: cfg.WalletCheckoutURL},
			MethodManualWallet: &ManualAdapter{payee: cfg.ManualPayee},
		},
	}
}

func (r *Registry) For(m Method) Adapter {
	return r.adapters[m]
}
