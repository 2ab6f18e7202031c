package model

import (
	"errors"
	"time"
)

const (
	OrderStatusPending = "pending"
	OrderStatusPaid    = "paid"
	OrderStatusFailed  = "failed"
)

type Order struct {
	ID            uint      `gorm:"primaryKey" json:"id"`
	OrderNumber   string    `gorm:"uniqueIndex;size:36" json:"order_number"`
	UserID        uint      `gorm:"index" json:"user_id"`
	TotalAmount   float64   `json:"total_amount"` // denominated in Currency
	Currency      string    `json:"currency"`     // USD | PEN
	PaymentMethod string    `json:"payment_method"`
	Status        string    `json:"status"` // pending | paid | failed
	PaymentID     *uint     `json:"payment_id,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`

	Items []OrderItem `gorm:"-" json:"items,omitempty"`
}

// OrderItem is created atomically with its Order. Price is in the
// order's currency.
type OrderItem struct {
	ID       uint    `gorm:"primaryKey" json:"id"`
	OrderID  uint    `gorm:"index" json:"order_id"`
	CourseID uint    `json:"course_id"`
	Title    string  `json:"title"`
	Price    float64 `json:"price"`
}

func (o *Order) MarkPaid() error {
	if o.Status != OrderStatusPending {
		return errors.New("only pending orders can be marked as paid")
	}
	o.Status = OrderStatusPaid
	return nil
}

func (o *Order) MarkFailed() error {
	if o.Status != OrderStatusPending {
		return errors.New("only pending orders can be marked as failed")
	}
	o.Status = OrderStatusFailed
	return nil
}
