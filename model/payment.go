package model

import (
	"fmt"
	"time"

	"gorm.io/datatypes"
)

const (
	PaymentStatusPending   = "pending"
	PaymentStatusCompleted = "completed"
	PaymentStatusFailed    = "failed"
	PaymentStatusRealized  = "realized" // manual-proof confirmation
	PaymentStatusRefunded  = "refunded"
)

type Payment struct {
	ID                uint           `gorm:"primaryKey" json:"id"`
	UserID            uint           `gorm:"index" json:"user_id"`
	CourseID          *uint          `json:"course_id,omitempty"` // legacy single-course payments without an order
	Amount            float64        `json:"amount"`
	Currency          string         `json:"currency"`
	Method            string         `json:"method"`
	Status            string         `json:"status"` // pending | completed | failed | realized | refunded
	ExternalPaymentID string         `gorm:"index;size:64" json:"external_payment_id"`
	OperationCode     string         `json:"operation_code,omitempty"` // user-submitted transaction reference
	Metadata          datatypes.JSON `json:"metadata,omitempty"`
	CreatedAt         time.Time      `json:"created_at"`
	UpdatedAt         time.Time      `json:"updated_at"`
	PaidAt            *time.Time     `json:"paid_at,omitempty"`
}

// Terminal reports whether the payment reached a state that must not
// regress. Refunded is terminal too: it can only be entered from a
// paid-like state and never leaves.
func (p *Payment) Terminal() bool {
	switch p.Status {
	case PaymentStatusCompleted, PaymentStatusFailed, PaymentStatusRealized, PaymentStatusRefunded:
		return true
	}
	return false
}

// MarkStatus enforces the monotonic transition
// pending -> {completed|failed|realized} -> refunded.
func (p *Payment) MarkStatus(status string) error {
	switch status {
	case PaymentStatusCompleted, PaymentStatusFailed, PaymentStatusRealized:
		if p.Status != PaymentStatusPending {
			return fmt.Errorf("payment %d is already %s", p.ID, p.Status)
		}
	case PaymentStatusRefunded:
		if p.Status != PaymentStatusCompleted && p.Status != PaymentStatusRealized {
			return fmt.Errorf("payment %d cannot be refunded from %s", p.ID, p.Status)
		}
	default:
		return fmt.Errorf("unknown payment status %q", status)
	}
	p.Status = status
	return nil
}
