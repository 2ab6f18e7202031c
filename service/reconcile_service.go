package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/avast/retry-go"
	"gorm.io/gorm"

	"github.com/Kjfer/peri-craft-campus-sub000/config"
	"github.com/Kjfer/peri-craft-campus-sub000/gateway"
	"github.com/Kjfer/peri-craft-campus-sub000/metrics"
	"github.com/Kjfer/peri-craft-campus-sub000/model"
	"github.com/Kjfer/peri-craft-campus-sub000/repository"
)

// EventPublisher is what the reconciler needs from the Kafka producer.
type EventPublisher interface {
	PublishPaymentPaid(data interface{})
	PublishEnrollmentActivated(data interface{})
}

// ReconcileService applies asynchronous payment-status events to the
// order/payment state machine:
//
//	pending --success--> completed|realized
//	pending --failure--> failed
//	terminal --anything--> no-op
//
// Terminal no-ops make webhook retries and double confirmations safe.
type ReconcileService struct {
	orders    repository.OrderRepository
	payments  repository.PaymentRepository
	activator *EnrollmentService
	events    EventPublisher
	retryCfg  config.Checkout
	log       *slog.Logger
}

type ReconcileResult struct {
	Payment          *model.Payment
	Order            *model.Order
	AlreadyProcessed bool
	EnrolledCourses  []uint
}

func NewReconcileService(
	orders repository.OrderRepository,
	payments repository.PaymentRepository,
	activator *EnrollmentService,
	events EventPublisher,
	retryCfg config.Checkout,
	log *slog.Logger,
) *ReconcileService {
	return &ReconcileService{
		orders:    orders,
		payments:  payments,
		activator: activator,
		events:    events,
		retryCfg:  retryCfg,
		log:       log,
	}
}

// SuccessReported maps the provider's reported status onto the binary
// outcome the state machine understands.
func SuccessReported(status string) (success bool, known bool) {
	switch status {
	case "paid", "completed", "approved", "success", "succeeded", "realized":
		return true, true
	case "failed", "rejected", "declined", "cancelled", "expired", "error":
		return false, true
	}
	return false, false
}

// ReconcileExternal handles a provider notification referencing the
// provider's own payment id.
func (s *ReconcileService) ReconcileExternal(ctx context.Context, externalID, reportedStatus string) (*ReconcileResult, error) {
	success, known := SuccessReported(reportedStatus)
	if !known {
		return nil, fmt.Errorf("unrecognized reported status %q", reportedStatus)
	}

	payment, err := s.payments.FindByExternalID(ctx, externalID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrPaymentNotFound
	}
	if err != nil {
		return nil, err
	}

	if success {
		return s.applySuccess(ctx, payment)
	}
	return s.applyFailure(ctx, payment)
}

// ReconcileOrder handles a notification that references our order id
// instead of the provider reference.
func (s *ReconcileService) ReconcileOrder(ctx context.Context, orderID uint, reportedStatus string) (*ReconcileResult, error) {
	success, known := SuccessReported(reportedStatus)
	if !known {
		return nil, fmt.Errorf("unrecognized reported status %q", reportedStatus)
	}

	payment, _, err := s.paymentForOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}

	if success {
		return s.applySuccess(ctx, payment)
	}
	return s.applyFailure(ctx, payment)
}

// ConfirmManual is the user-initiated confirmation of a manual-proof
// payment: the operation code is stored and the payment moves to
// realized. Confirming twice is a no-op. Card and wallet payments are
// settled by their providers, not by the user, so any other method is
// rejected here.
func (s *ReconcileService) ConfirmManual(ctx context.Context, userID, orderID uint, transactionID string) (*ReconcileResult, error) {
	if transactionID == "" {
		return nil, ErrMissingTransactionID
	}

	payment, order, err := s.paymentForOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if order.UserID != userID {
		return nil, ErrNotOrderOwner
	}
	if payment.Method != string(gateway.MethodManualWallet) {
		return nil, ErrNotManualPayment
	}

	if payment.Terminal() {
		return &ReconcileResult{Payment: payment, Order: order, AlreadyProcessed: true}, nil
	}

	if err := s.payments.SetOperationCode(ctx, payment.ID, transactionID); err != nil {
		return nil, err
	}

	return s.applySuccess(ctx, payment)
}

func (s *ReconcileService) paymentForOrder(ctx context.Context, orderID uint) (*model.Payment, *model.Order, error) {
	order, err := s.orders.FindByID(ctx, orderID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil, ErrOrderNotFound
	}
	if err != nil {
		return nil, nil, err
	}
	if order.PaymentID == nil {
		return nil, nil, ErrPaymentNotFound
	}

	payment, err := s.payments.FindByID(ctx, *order.PaymentID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil, ErrPaymentNotFound
	}
	if err != nil {
		return nil, nil, err
	}
	return payment, order, nil
}

func (s *ReconcileService) applySuccess(ctx context.Context, payment *model.Payment) (*ReconcileResult, error) {
	if payment.Terminal() {
		order, _ := s.orderForPayment(ctx, payment)
		return &ReconcileResult{Payment: payment, Order: order, AlreadyProcessed: true}, nil
	}

	status := model.PaymentStatusCompleted
	if payment.Method == string(gateway.MethodManualWallet) {
		status = model.PaymentStatusRealized
	}

	if err := payment.MarkStatus(status); err != nil {
		return nil, err
	}
	now := time.Now()
	payment.PaidAt = &now

	if err := s.payments.UpdateStatus(ctx, payment); err != nil {
		return nil, err
	}

	// The payment may have no owning order (ad-hoc single-course
	// flows); activation then runs off the payment's own course id.
	order, _ := s.orderForPayment(ctx, payment)

	var courseIDs []uint
	if order != nil {
		if err := order.MarkPaid(); err != nil {
			return nil, err
		}
		if err := s.orders.UpdateStatus(ctx, order.ID, model.OrderStatusPaid); err != nil {
			return nil, err
		}

		items, err := s.orders.ItemsByOrder(ctx, order.ID)
		if err != nil {
			return nil, err
		}
		for _, item := range items {
			courseIDs = append(courseIDs, item.CourseID)
		}
	} else if payment.CourseID != nil {
		courseIDs = []uint{*payment.CourseID}
	}

	enrolled := s.activateWithRetry(ctx, payment, order, courseIDs)

	metrics.PaymentsReconciled.WithLabelValues(status).Inc()
	s.publishPaid(payment, order, enrolled)

	return &ReconcileResult{Payment: payment, Order: order, EnrolledCourses: enrolled}, nil
}

func (s *ReconcileService) applyFailure(ctx context.Context, payment *model.Payment) (*ReconcileResult, error) {
	if payment.Terminal() {
		order, _ := s.orderForPayment(ctx, payment)
		return &ReconcileResult{Payment: payment, Order: order, AlreadyProcessed: true}, nil
	}

	if err := payment.MarkStatus(model.PaymentStatusFailed); err != nil {
		return nil, err
	}
	if err := s.payments.UpdateStatus(ctx, payment); err != nil {
		return nil, err
	}

	order, _ := s.orderForPayment(ctx, payment)
	if order != nil {
		if err := order.MarkFailed(); err != nil {
			return nil, err
		}
		if err := s.orders.UpdateStatus(ctx, order.ID, model.OrderStatusFailed); err != nil {
			return nil, err
		}
	}

	metrics.PaymentsReconciled.WithLabelValues(model.PaymentStatusFailed).Inc()
	return &ReconcileResult{Payment: payment, Order: order}, nil
}

// activateWithRetry retries the enrollment insert; a payment that is
// captured but never enrolled is the one inconsistency this service
// must not silently swallow, so the final failure is logged loudly and
// counted. The payment is never rolled back.
func (s *ReconcileService) activateWithRetry(ctx context.Context, payment *model.Payment, order *model.Order, courseIDs []uint) []uint {
	if len(courseIDs) == 0 {
		return nil
	}

	var enrolled []uint
	err := retry.Do(
		func() error {
			var err error
			enrolled, err = s.activator.Activate(ctx, payment.UserID, courseIDs)
			return err
		},
		retry.Attempts(s.retryCfg.RetryAttempts),
		retry.Delay(s.retryCfg.RetryDelay),
		retry.MaxDelay(s.retryCfg.RetryMaxDelay),
	)
	if err != nil {
		metrics.EnrollmentActivationFailures.Inc()
		var orderID uint
		if order != nil {
			orderID = order.ID
		}
		s.log.Error("CRITICAL: payment confirmed but enrollment activation failed",
			slog.Uint64("payment_id", uint64(payment.ID)),
			slog.Uint64("order_id", uint64(orderID)),
			slog.Uint64("user_id", uint64(payment.UserID)),
			slog.Any("course_ids", courseIDs),
			slog.Any("error", err))
		return nil
	}
	return enrolled
}

func (s *ReconcileService) orderForPayment(ctx context.Context, payment *model.Payment) (*model.Order, error) {
	order, err := s.orders.FindByPaymentID(ctx, payment.ID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	return order, err
}

func (s *ReconcileService) publishPaid(payment *model.Payment, order *model.Order, enrolled []uint) {
	if s.events == nil {
		return
	}

	event := map[string]interface{}{
		"payment_id": payment.ID,
		"user_id":    payment.UserID,
		"amount":     payment.Amount,
		"currency":   payment.Currency,
		"method":     payment.Method,
		"paid_at":    payment.PaidAt.Format(time.RFC3339),
	}
	if order != nil {
		event["order_id"] = order.ID
		event["order_number"] = order.OrderNumber
	}
	s.events.PublishPaymentPaid(event)

	if len(enrolled) > 0 {
		s.events.PublishEnrollmentActivated(map[string]interface{}{
			"user_id":    payment.UserID,
			"course_ids": enrolled,
		})
	}
}
