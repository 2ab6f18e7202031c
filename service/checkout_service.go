package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"
	"unicode"

	"github.com/google/uuid"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
	"gorm.io/gorm"

	"github.com/Kjfer/peri-craft-campus-sub000/exchange"
	"github.com/Kjfer/peri-craft-campus-sub000/gateway"
	"github.com/Kjfer/peri-craft-campus-sub000/metrics"
	"github.com/Kjfer/peri-craft-campus-sub000/model"
	"github.com/Kjfer/peri-craft-campus-sub000/repository"
)

// RateService is what the orchestrator needs from the exchange package.
type RateService interface {
	GetRate(ctx context.Context, base, quote string) float64
}

// Locker serializes order creation per (user, course).
type Locker interface {
	Acquire(ctx context.Context, userID, courseID uint) (bool, error)
	Release(ctx context.Context, userID, courseID uint)
}

// Gateways resolves a payment method to its adapter.
type Gateways interface {
	For(m gateway.Method) gateway.Adapter
}

// CheckoutService creates the order/payment pair and drives it through
// the provider adapters.
type CheckoutService struct {
	orders      repository.OrderRepository
	payments    repository.PaymentRepository
	enrollments repository.EnrollmentRepository
	courses     repository.CourseRepository
	users       repository.UserRepository
	rates       RateService
	locks       Locker
	gateways    Gateways
	reconciler  *ReconcileService
	log         *slog.Logger

	allowedCountries []string // normalized
	fallbackRate     float64
}

type CheckoutResult struct {
	Order    *model.Order
	Payment  *model.Payment
	NextStep string
}

type ProcessResult struct {
	Order           *model.Order
	Payment         *model.Payment
	Outcome         gateway.Outcome
	EnrolledCourses []uint
}

func NewCheckoutService(
	orders repository.OrderRepository,
	payments repository.PaymentRepository,
	enrollments repository.EnrollmentRepository,
	courses repository.CourseRepository,
	users repository.UserRepository,
	rates RateService,
	locks Locker,
	gateways Gateways,
	reconciler *ReconcileService,
	allowedCountries []string,
	fallbackRate float64,
	log *slog.Logger,
) *CheckoutService {
	normalized := make([]string, 0, len(allowedCountries))
	for _, c := range allowedCountries {
		normalized = append(normalized, normalizeCountry(c))
	}

	return &CheckoutService{
		orders:           orders,
		payments:         payments,
		enrollments:      enrollments,
		courses:          courses,
		users:            users,
		rates:            rates,
		locks:            locks,
		gateways:         gateways,
		reconciler:       reconciler,
		log:              log,
		allowedCountries: normalized,
		fallbackRate:     fallbackRate,
	}
}

// StartCheckout validates the cart, persists the Order/OrderItems/
// Payment chain in pending state and tells the caller how to continue.
func (s *CheckoutService) StartCheckout(ctx context.Context, userID uint, items []model.CartItem, paymentMethod string) (*CheckoutResult, error) {
	start := time.Now()
	defer func() {
		metrics.CheckoutProcessingTime.Observe(time.Since(start).Seconds())
	}()

	method, err := gateway.ParseMethod(paymentMethod)
	if err != nil {
		return nil, ErrUnknownPaymentMethod
	}

	if len(items) == 0 {
		return nil, ErrEmptyCart
	}

	courseIDs := make([]uint, 0, len(items))
	for _, item := range items {
		courseIDs = append(courseIDs, item.CourseID)
	}

	if err := s.validateCart(ctx, userID, courseIDs, method); err != nil {
		return nil, err
	}

	// Advisory locks narrow the window between the duplicate checks
	// above and the inserts below.
	locked, err := s.acquireLocks(ctx, userID, courseIDs)
	if err != nil {
		return nil, err
	}
	if !locked {
		return nil, ErrDuplicatePendingOrder
	}
	defer s.releaseLocks(ctx, userID, courseIDs)

	order, payment, err := s.createOrderChain(ctx, userID, items, method)
	if err != nil {
		return nil, err
	}

	metrics.CheckoutsStarted.Inc()
	s.log.Info("checkout started",
		slog.Uint64("user_id", uint64(userID)),
		slog.String("order_number", order.OrderNumber),
		slog.String("method", string(method)),
		slog.Float64("total", order.TotalAmount),
		slog.String("currency", order.Currency))

	return &CheckoutResult{
		Order:    order,
		Payment:  payment,
		NextStep: method.NextStep(),
	}, nil
}

// ProcessOrder drives the provider adapter for an already-created
// order. Adapter errors never escape to the HTTP boundary; they are
// folded into a failed outcome.
func (s *CheckoutService) ProcessOrder(ctx context.Context, userID, orderID uint, data gateway.PaymentData) (*ProcessResult, error) {
	order, err := s.orders.FindByID(ctx, orderID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrOrderNotFound
	}
	if err != nil {
		return nil, err
	}
	if order.UserID != userID {
		return nil, ErrNotOrderOwner
	}
	if order.Status != model.OrderStatusPending {
		return nil, ErrOrderAlreadyProcessed
	}
	if order.PaymentID == nil {
		return nil, ErrPaymentNotFound
	}

	payment, err := s.payments.FindByID(ctx, *order.PaymentID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrPaymentNotFound
	}
	if err != nil {
		return nil, err
	}

	method, err := gateway.ParseMethod(order.PaymentMethod)
	if err != nil {
		return nil, ErrUnknownPaymentMethod
	}

	outcome, err := s.gateways.For(method).Process(ctx, order, data)
	if err != nil {
		s.log.Warn("payment adapter failed",
			slog.String("method", string(method)),
			slog.Uint64("order_id", uint64(order.ID)),
			slog.Any("error", err))
		outcome = gateway.Outcome{Success: false, Message: err.Error()}
	}

	if outcome.PaymentID != "" && payment.ExternalPaymentID == "" {
		if err := s.payments.SetExternalID(ctx, payment.ID, outcome.PaymentID); err != nil {
			return nil, err
		}
		payment.ExternalPaymentID = outcome.PaymentID
	}

	result := &ProcessResult{Order: order, Payment: payment, Outcome: outcome}

	// Synchronous capture (card): settle immediately through the same
	// transition the webhook path uses.
	if outcome.Success {
		recon, err := s.reconciler.applySuccess(ctx, payment)
		if err != nil {
			return nil, err
		}
		result.Order = recon.Order
		result.Payment = recon.Payment
		result.EnrolledCourses = recon.EnrolledCourses
	}

	return result, nil
}

func (s *CheckoutService) validateCart(ctx context.Context, userID uint, courseIDs []uint, method gateway.Method) error {
	active, err := s.courses.FindActive(ctx, courseIDs)
	if err != nil {
		return err
	}
	if len(active) != len(courseIDs) {
		return ErrCourseUnavailable
	}

	enrolled, err := s.enrollments.Existing(ctx, userID, courseIDs)
	if err != nil {
		return err
	}
	if len(enrolled) > 0 {
		return ErrAlreadyEnrolled
	}

	hasPending, err := s.orders.HasPendingWithCourse(ctx, userID, courseIDs)
	if err != nil {
		return err
	}
	if hasPending {
		return ErrDuplicatePendingOrder
	}

	if method == gateway.MethodManualWallet {
		country, err := s.users.ProfileCountry(ctx, userID)
		if err != nil {
			return err
		}
		if !s.countryAllowed(country) {
			return ErrMethodNotEligible
		}
	}

	return nil
}

// createOrderChain persists Order -> OrderItems -> Payment. There is no
// multi-row transaction across these stores, so each step registers a
// compensating delete that runs in reverse on failure.
func (s *CheckoutService) createOrderChain(ctx context.Context, userID uint, items []model.CartItem, method gateway.Method) (*model.Order, *model.Payment, error) {
	currency := method.Currency()

	totalUSD := 0.0
	for _, item := range items {
		totalUSD += item.UnitPriceUSD
	}

	// One rate snapshot converts the total and every item so the sums
	// stay consistent.
	rate := 1.0
	if currency != "USD" {
		rate = s.rates.GetRate(ctx, "USD", currency)
		if rate <= 0 {
			rate = s.fallbackRate
		}
	}

	order := &model.Order{
		OrderNumber:   uuid.New().String(),
		UserID:        userID,
		TotalAmount:   exchange.RoundAmount(totalUSD*rate, currency),
		Currency:      currency,
		PaymentMethod: string(method),
		Status:        model.OrderStatusPending,
	}

	var undo []func()
	fail := func(err error) (*model.Order, *model.Payment, error) {
		for i := len(undo) - 1; i >= 0; i-- {
			undo[i]()
		}
		return nil, nil, err
	}

	if err := s.orders.Create(ctx, order); err != nil {
		return nil, nil, fmt.Errorf("failed to create order: %w", err)
	}
	undo = append(undo, func() {
		if err := s.orders.Delete(ctx, order.ID); err != nil {
			s.log.Error("compensating order delete failed",
				slog.Uint64("order_id", uint64(order.ID)), slog.Any("error", err))
		}
	})

	orderItems := make([]model.OrderItem, 0, len(items))
	for _, item := range items {
		orderItems = append(orderItems, model.OrderItem{
			OrderID:  order.ID,
			CourseID: item.CourseID,
			Title:    item.Title,
			Price:    exchange.RoundAmount(item.UnitPriceUSD*rate, currency),
		})
	}
	if err := s.orders.CreateItems(ctx, orderItems); err != nil {
		return fail(fmt.Errorf("failed to create order items: %w", err))
	}
	undo = append(undo, func() {
		if err := s.orders.DeleteItems(ctx, order.ID); err != nil {
			s.log.Error("compensating item delete failed",
				slog.Uint64("order_id", uint64(order.ID)), slog.Any("error", err))
		}
	})

	payment := &model.Payment{
		UserID:   userID,
		Amount:   order.TotalAmount,
		Currency: currency,
		Method:   string(method),
		Status:   model.PaymentStatusPending,
	}
	if err := s.payments.Create(ctx, payment); err != nil {
		return fail(fmt.Errorf("failed to create payment: %w", err))
	}
	undo = append(undo, func() {
		if err := s.payments.Delete(ctx, payment.ID); err != nil {
			s.log.Error("compensating payment delete failed",
				slog.Uint64("payment_id", uint64(payment.ID)), slog.Any("error", err))
		}
	})

	if err := s.orders.LinkPayment(ctx, order.ID, payment.ID); err != nil {
		return fail(fmt.Errorf("failed to link payment: %w", err))
	}
	order.PaymentID = &payment.ID
	order.Items = orderItems

	return order, payment, nil
}

func (s *CheckoutService) acquireLocks(ctx context.Context, userID uint, courseIDs []uint) (bool, error) {
	for i, courseID := range courseIDs {
		ok, err := s.locks.Acquire(ctx, userID, courseID)
		if err != nil || !ok {
			for _, held := range courseIDs[:i] {
				s.locks.Release(ctx, userID, held)
			}
			return false, err
		}
	}
	return true, nil
}

func (s *CheckoutService) releaseLocks(ctx context.Context, userID uint, courseIDs []uint) {
	for _, courseID := range courseIDs {
		s.locks.Release(ctx, userID, courseID)
	}
}

func (s *CheckoutService) countryAllowed(country string) bool {
	normalized := normalizeCountry(country)
	for _, allowed := range s.allowedCountries {
		if normalized == allowed {
			return true
		}
	}
	return false
}

// normalizeCountry lowercases and strips diacritics so "Perú" and
// "peru" compare equal.
func normalizeCountry(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	folded, _, err := transform.String(t, s)
	if err != nil {
		folded = s
	}
	return strings.ToLower(strings.TrimSpace(folded))
}
