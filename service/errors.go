package service

import "errors"

// Validation errors are surfaced before anything is persisted; the
// controllers map them to 4xx responses.
var (
	ErrEmptyCart             = errors.New("cart cannot be empty")
	ErrCourseUnavailable     = errors.New("course not found or inactive")
	ErrAlreadyEnrolled       = errors.New("already enrolled in a course from the cart")
	ErrDuplicatePendingOrder = errors.New("a pending order for this course already exists")
	ErrMethodNotEligible     = errors.New("payment method not available for your country")
	ErrUnknownPaymentMethod  = errors.New("unknown payment method")
	ErrMissingTransactionID  = errors.New("transaction id is required")
	ErrNotManualPayment      = errors.New("only manual wallet payments can be confirmed by the user")

	ErrOrderNotFound         = errors.New("order not found")
	ErrPaymentNotFound       = errors.New("payment not found")
	ErrNotOrderOwner         = errors.New("not the owner of this order")
	ErrOrderAlreadyProcessed = errors.New("order already processed")
)
