package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/Kjfer/peri-craft-campus-sub000/config"
	"github.com/Kjfer/peri-craft-campus-sub000/gateway"
	"github.com/Kjfer/peri-craft-campus-sub000/model"
)

type checkoutFixture struct {
	orders      *MockOrderRepository
	payments    *MockPaymentRepository
	enrollments *MockEnrollmentRepository
	courses     *MockCourseRepository
	users       *MockUserRepository
	rates       *MockRateService
	locks       *MockLocker
	gateways    *MockGateways
	events      *MockEventPublisher
	svc         *CheckoutService
}

func newCheckoutFixture() *checkoutFixture {
	f := &checkoutFixture{
		orders:      new(MockOrderRepository),
		payments:    new(MockPaymentRepository),
		enrollments: new(MockEnrollmentRepository),
		courses:     new(MockCourseRepository),
		users:       new(MockUserRepository),
		rates:       new(MockRateService),
		locks:       new(MockLocker),
		gateways:    new(MockGateways),
		events:      new(MockEventPublisher),
	}
	activator := NewEnrollmentService(f.enrollments, discardLogger())
	reconciler := NewReconcileService(
		f.orders, f.payments, activator, f.events,
		config.Checkout{RetryAttempts: 2, RetryDelay: time.Millisecond, RetryMaxDelay: time.Millisecond},
		discardLogger(),
	)
	f.svc = NewCheckoutService(
		f.orders, f.payments, f.enrollments, f.courses, f.users,
		f.rates, f.locks, f.gateways, reconciler,
		[]string{"Peru"}, 3.75, discardLogger(),
	)
	f.events.On("PublishPaymentPaid", mock.Anything).Return()
	f.events.On("PublishEnrollmentActivated", mock.Anything).Return()
	return f
}

func (f *checkoutFixture) expectCleanCart(userID uint, courseIDs []uint) {
	courses := make([]model.Course, 0, len(courseIDs))
	for _, id := range courseIDs {
		courses = append(courses, model.Course{ID: id, IsActive: true})
	}
	f.courses.On("FindActive", mock.Anything, courseIDs).Return(courses, nil)
	f.enrollments.On("Existing", mock.Anything, userID, courseIDs).Return(map[uint]bool{}, nil)
	f.orders.On("HasPendingWithCourse", mock.Anything, userID, courseIDs).Return(false, nil)
}

func (f *checkoutFixture) expectLocks(userID uint, courseIDs []uint) {
	for _, id := range courseIDs {
		f.locks.On("Acquire", mock.Anything, userID, id).Return(true, nil)
		f.locks.On("Release", mock.Anything, userID, id).Return()
	}
}

func (f *checkoutFixture) expectOrderChain(orderID, paymentID uint) {
	f.orders.On("Create", mock.Anything, mock.Anything).
		Run(func(args mock.Arguments) {
			args.Get(1).(*model.Order).ID = orderID
		}).Return(nil)
	f.orders.On("CreateItems", mock.Anything, mock.Anything).Return(nil)
	f.payments.On("Create", mock.Anything, mock.Anything).
		Run(func(args mock.Arguments) {
			args.Get(1).(*model.Payment).ID = paymentID
		}).Return(nil)
	f.orders.On("LinkPayment", mock.Anything, orderID, paymentID).Return(nil)
}

func cart(prices ...float64) []model.CartItem {
	items := make([]model.CartItem, 0, len(prices))
	for i, p := range prices {
		items = append(items, model.CartItem{CourseID: uint(i + 1), UnitPriceUSD: p, Title: "Taller"})
	}
	return items
}

func TestStartCheckoutRejectsEmptyCart(t *testing.T) {
	f := newCheckoutFixture()

	_, err := f.svc.StartCheckout(context.Background(), 7, nil, "card")
	assert.ErrorIs(t, err, ErrEmptyCart)
}

func TestStartCheckoutRejectsUnknownMethod(t *testing.T) {
	f := newCheckoutFixture()

	_, err := f.svc.StartCheckout(context.Background(), 7, cart(100), "barter")
	assert.ErrorIs(t, err, ErrUnknownPaymentMethod)
}

func TestStartCheckoutRejectsInactiveCourse(t *testing.T) {
	f := newCheckoutFixture()

	f.courses.On("FindActive", mock.Anything, []uint{1}).Return([]model.Course{}, nil)

	_, err := f.svc.StartCheckout(context.Background(), 7, cart(100), "card")
	assert.ErrorIs(t, err, ErrCourseUnavailable)
}

func TestStartCheckoutRejectsAlreadyEnrolled(t *testing.T) {
	f := newCheckoutFixture()

	f.courses.On("FindActive", mock.Anything, []uint{1}).
		Return([]model.Course{{ID: 1, IsActive: true}}, nil)
	f.enrollments.On("Existing", mock.Anything, uint(7), []uint{1}).
		Return(map[uint]bool{1: true}, nil)

	_, err := f.svc.StartCheckout(context.Background(), 7, cart(100), "card")
	assert.ErrorIs(t, err, ErrAlreadyEnrolled)
	f.orders.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestStartCheckoutRejectsDuplicatePendingOrder(t *testing.T) {
	f := newCheckoutFixture()

	f.courses.On("FindActive", mock.Anything, []uint{1}).
		Return([]model.Course{{ID: 1, IsActive: true}}, nil)
	f.enrollments.On("Existing", mock.Anything, uint(7), []uint{1}).Return(map[uint]bool{}, nil)
	f.orders.On("HasPendingWithCourse", mock.Anything, uint(7), []uint{1}).Return(true, nil)

	_, err := f.svc.StartCheckout(context.Background(), 7, cart(100), "card")
	assert.ErrorIs(t, err, ErrDuplicatePendingOrder)
}

func TestStartCheckoutCardHappyPath(t *testing.T) {
	f := newCheckoutFixture()

	f.expectCleanCart(7, []uint{1})
	f.expectLocks(7, []uint{1})
	f.expectOrderChain(10, 3)

	result, err := f.svc.StartCheckout(context.Background(), 7, cart(100), "card")
	require.NoError(t, err)

	assert.Equal(t, model.OrderStatusPending, result.Order.Status)
	assert.Equal(t, "USD", result.Order.Currency)
	assert.Equal(t, 100.0, result.Order.TotalAmount)
	assert.Equal(t, gateway.NextStepCardForm, result.NextStep)
	assert.Equal(t, model.PaymentStatusPending, result.Payment.Status)
	require.NotNil(t, result.Order.PaymentID)
	assert.Equal(t, uint(3), *result.Order.PaymentID)

	// USD carts never touch the rate service.
	f.rates.AssertNotCalled(t, "GetRate", mock.Anything, mock.Anything, mock.Anything)
	f.locks.AssertCalled(t, "Release", mock.Anything, uint(7), uint(1))
}

func TestStartCheckoutManualWalletConvertsToPEN(t *testing.T) {
	f := newCheckoutFixture()

	f.expectCleanCart(7, []uint{1})
	f.users.On("ProfileCountry", mock.Anything, uint(7)).Return("Perú", nil)
	f.expectLocks(7, []uint{1})
	f.expectOrderChain(10, 3)
	f.rates.On("GetRate", mock.Anything, "USD", "PEN").Return(3.75)

	result, err := f.svc.StartCheckout(context.Background(), 7, cart(50), "manual_wallet")
	require.NoError(t, err)

	assert.Equal(t, "PEN", result.Order.Currency)
	assert.Equal(t, 187.5, result.Order.TotalAmount)
	assert.Equal(t, 187.5, result.Payment.Amount)
	assert.Equal(t, gateway.NextStepManualConfirmation, result.NextStep)
}

func TestStartCheckoutEligibilityAccentInsensitive(t *testing.T) {
	f := newCheckoutFixture()

	f.expectCleanCart(7, []uint{1})
	f.users.On("ProfileCountry", mock.Anything, uint(7)).Return("Chile", nil)

	_, err := f.svc.StartCheckout(context.Background(), 7, cart(50), "manual_wallet")
	assert.ErrorIs(t, err, ErrMethodNotEligible)
	f.orders.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestStartCheckoutConversionConsistency(t *testing.T) {
	f := newCheckoutFixture()

	items := cart(9.99, 19.99, 49.5)
	courseIDs := []uint{1, 2, 3}

	f.expectCleanCart(7, courseIDs)
	f.users.On("ProfileCountry", mock.Anything, uint(7)).Return("peru", nil)
	f.expectLocks(7, courseIDs)
	f.expectOrderChain(10, 3)
	f.rates.On("GetRate", mock.Anything, "USD", "PEN").Return(3.75)

	result, err := f.svc.StartCheckout(context.Background(), 7, items, "manual_wallet")
	require.NoError(t, err)

	sum := 0.0
	for _, item := range result.Order.Items {
		sum += item.Price
	}
	assert.InDelta(t, result.Order.TotalAmount, sum, 0.1*float64(len(items)))
}

func TestStartCheckoutCompensatesOnItemFailure(t *testing.T) {
	f := newCheckoutFixture()

	f.expectCleanCart(7, []uint{1})
	f.expectLocks(7, []uint{1})

	f.orders.On("Create", mock.Anything, mock.Anything).
		Run(func(args mock.Arguments) {
			args.Get(1).(*model.Order).ID = 10
		}).Return(nil)
	f.orders.On("CreateItems", mock.Anything, mock.Anything).Return(errors.New("insert failed"))
	f.orders.On("Delete", mock.Anything, uint(10)).Return(nil)

	_, err := f.svc.StartCheckout(context.Background(), 7, cart(100), "card")
	require.Error(t, err)

	// No orphaned pending order without items.
	f.orders.AssertCalled(t, "Delete", mock.Anything, uint(10))
	f.payments.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestStartCheckoutLockContention(t *testing.T) {
	f := newCheckoutFixture()

	f.expectCleanCart(7, []uint{1})
	f.locks.On("Acquire", mock.Anything, uint(7), uint(1)).Return(false, nil)

	_, err := f.svc.StartCheckout(context.Background(), 7, cart(100), "card")
	assert.ErrorIs(t, err, ErrDuplicatePendingOrder)
	f.orders.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestProcessOrderCardCaptureActivatesEnrollment(t *testing.T) {
	f := newCheckoutFixture()

	order := &model.Order{ID: 10, OrderNumber: "ord-1", UserID: 7, TotalAmount: 100,
		Currency: "USD", PaymentMethod: "card", Status: model.OrderStatusPending, PaymentID: paymentID(3)}
	payment := &model.Payment{ID: 3, UserID: 7, Amount: 100, Currency: "USD",
		Method: "card", Status: model.PaymentStatusPending}

	f.orders.On("FindByID", mock.Anything, uint(10)).Return(order, nil)
	f.payments.On("FindByID", mock.Anything, uint(3)).Return(payment, nil)
	f.payments.On("SetExternalID", mock.Anything, uint(3), mock.Anything).Return(nil)
	f.payments.On("UpdateStatus", mock.Anything, mock.MatchedBy(func(p *model.Payment) bool {
		return p.Status == model.PaymentStatusCompleted
	})).Return(nil)
	f.orders.On("FindByPaymentID", mock.Anything, uint(3)).Return(order, nil)
	f.orders.On("UpdateStatus", mock.Anything, uint(10), model.OrderStatusPaid).Return(nil)
	f.orders.On("ItemsByOrder", mock.Anything, uint(10)).
		Return([]model.OrderItem{{OrderID: 10, CourseID: 1, Price: 100}}, nil)
	f.enrollments.On("Existing", mock.Anything, uint(7), []uint{1}).Return(map[uint]bool{}, nil)
	f.enrollments.On("Create", mock.Anything, mock.Anything).Return(nil)

	// No processor URL: the card adapter approves locally.
	registry := gateway.NewRegistry(config.Gateway{})
	f.gateways.On("For", gateway.MethodCard).Return(registry.For(gateway.MethodCard))

	result, err := f.svc.ProcessOrder(context.Background(), 7, 10, gateway.PaymentData{
		CardNumber: "4111111111111111", CVV: "123", ExpiryMonth: "12", ExpiryYear: "2030",
	})
	require.NoError(t, err)

	assert.True(t, result.Outcome.Success)
	assert.Equal(t, model.PaymentStatusCompleted, result.Payment.Status)
	assert.Equal(t, model.OrderStatusPaid, result.Order.Status)
	assert.Equal(t, []uint{1}, result.EnrolledCourses)
}

func TestProcessOrderFoldsAdapterError(t *testing.T) {
	f := newCheckoutFixture()

	order := &model.Order{ID: 10, UserID: 7, PaymentMethod: "card",
		Status: model.OrderStatusPending, PaymentID: paymentID(3)}
	payment := &model.Payment{ID: 3, UserID: 7, Method: "card", Status: model.PaymentStatusPending}

	f.orders.On("FindByID", mock.Anything, uint(10)).Return(order, nil)
	f.payments.On("FindByID", mock.Anything, uint(3)).Return(payment, nil)

	adapter := new(MockAdapter)
	adapter.On("Process", mock.Anything, mock.Anything, mock.Anything).
		Return(gateway.Outcome{}, errors.New("processor unreachable"))
	f.gateways.On("For", gateway.MethodCard).Return(adapter)

	result, err := f.svc.ProcessOrder(context.Background(), 7, 10, gateway.PaymentData{})
	require.NoError(t, err)

	assert.False(t, result.Outcome.Success)
	assert.Contains(t, result.Outcome.Message, "processor unreachable")
	f.payments.AssertNotCalled(t, "UpdateStatus", mock.Anything, mock.Anything)
}

func TestProcessOrderRejectsWrongOwner(t *testing.T) {
	f := newCheckoutFixture()

	order := &model.Order{ID: 10, UserID: 8, Status: model.OrderStatusPending, PaymentID: paymentID(3)}
	f.orders.On("FindByID", mock.Anything, uint(10)).Return(order, nil)

	_, err := f.svc.ProcessOrder(context.Background(), 7, 10, gateway.PaymentData{})
	assert.ErrorIs(t, err, ErrNotOrderOwner)
}

func TestProcessOrderRejectsNonPendingOrder(t *testing.T) {
	f := newCheckoutFixture()

	order := &model.Order{ID: 10, UserID: 7, Status: model.OrderStatusPaid, PaymentID: paymentID(3)}
	f.orders.On("FindByID", mock.Anything, uint(10)).Return(order, nil)

	_, err := f.svc.ProcessOrder(context.Background(), 7, 10, gateway.PaymentData{})
	assert.ErrorIs(t, err, ErrOrderAlreadyProcessed)
}

func TestNormalizeCountry(t *testing.T) {
	assert.Equal(t, "peru", normalizeCountry("Perú"))
	assert.Equal(t, "peru", normalizeCountry("  PERU "))
	assert.Equal(t, "chile", normalizeCountry("Chile"))
}
