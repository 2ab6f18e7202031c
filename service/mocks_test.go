package service

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/Kjfer/peri-craft-campus-sub000/gateway"
	"github.com/Kjfer/peri-craft-campus-sub000/model"
)

type MockOrderRepository struct {
	mock.Mock
}

func (m *MockOrderRepository) Create(ctx context.Context, order *model.Order) error {
	return m.Called(ctx, order).Error(0)
}

func (m *MockOrderRepository) Delete(ctx context.Context, orderID uint) error {
	return m.Called(ctx, orderID).Error(0)
}

func (m *MockOrderRepository) CreateItems(ctx context.Context, items []model.OrderItem) error {
	return m.Called(ctx, items).Error(0)
}

func (m *MockOrderRepository) DeleteItems(ctx context.Context, orderID uint) error {
	return m.Called(ctx, orderID).Error(0)
}

func (m *MockOrderRepository) LinkPayment(ctx context.Context, orderID, paymentID uint) error {
	return m.Called(ctx, orderID, paymentID).Error(0)
}

func (m *MockOrderRepository) UpdateStatus(ctx context.Context, orderID uint, status string) error {
	return m.Called(ctx, orderID, status).Error(0)
}

func (m *MockOrderRepository) FindByID(ctx context.Context, id uint) (*model.Order, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Order), args.Error(1)
}

func (m *MockOrderRepository) FindByPaymentID(ctx context.Context, paymentID uint) (*model.Order, error) {
	args := m.Called(ctx, paymentID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Order), args.Error(1)
}

func (m *MockOrderRepository) ItemsByOrder(ctx context.Context, orderID uint) ([]model.OrderItem, error) {
	args := m.Called(ctx, orderID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.OrderItem), args.Error(1)
}

func (m *MockOrderRepository) HasPendingWithCourse(ctx context.Context, userID uint, courseIDs []uint) (bool, error) {
	args := m.Called(ctx, userID, courseIDs)
	return args.Bool(0), args.Error(1)
}

type MockPaymentRepository struct {
	mock.Mock
}

func (m *MockPaymentRepository) Create(ctx context.Context, payment *model.Payment) error {
	return m.Called(ctx, payment).Error(0)
}

func (m *MockPaymentRepository) Delete(ctx context.Context, paymentID uint) error {
	return m.Called(ctx, paymentID).Error(0)
}

func (m *MockPaymentRepository) FindByID(ctx context.Context, id uint) (*model.Payment, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Payment), args.Error(1)
}

func (m *MockPaymentRepository) FindByExternalID(ctx context.Context, externalID string) (*model.Payment, error) {
	args := m.Called(ctx, externalID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Payment), args.Error(1)
}

func (m *MockPaymentRepository) SetExternalID(ctx context.Context, paymentID uint, externalID string) error {
	return m.Called(ctx, paymentID, externalID).Error(0)
}

func (m *MockPaymentRepository) SetOperationCode(ctx context.Context, paymentID uint, code string) error {
	return m.Called(ctx, paymentID, code).Error(0)
}

func (m *MockPaymentRepository) UpdateStatus(ctx context.Context, payment *model.Payment) error {
	return m.Called(ctx, payment).Error(0)
}

func (m *MockPaymentRepository) ListByUser(ctx context.Context, userID uint) ([]model.Payment, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Payment), args.Error(1)
}

type MockEnrollmentRepository struct {
	mock.Mock
}

func (m *MockEnrollmentRepository) Existing(ctx context.Context, userID uint, courseIDs []uint) (map[uint]bool, error) {
	args := m.Called(ctx, userID, courseIDs)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(map[uint]bool), args.Error(1)
}

func (m *MockEnrollmentRepository) Create(ctx context.Context, enrollment *model.Enrollment) error {
	return m.Called(ctx, enrollment).Error(0)
}

type MockCourseRepository struct {
	mock.Mock
}

func (m *MockCourseRepository) FindActive(ctx context.Context, ids []uint) ([]model.Course, error) {
	args := m.Called(ctx, ids)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Course), args.Error(1)
}

type MockUserRepository struct {
	mock.Mock
}

func (m *MockUserRepository) ProfileCountry(ctx context.Context, userID uint) (string, error) {
	args := m.Called(ctx, userID)
	return args.String(0), args.Error(1)
}

type MockRateService struct {
	mock.Mock
}

func (m *MockRateService) GetRate(ctx context.Context, base, quote string) float64 {
	return m.Called(ctx, base, quote).Get(0).(float64)
}

type MockLocker struct {
	mock.Mock
}

func (m *MockLocker) Acquire(ctx context.Context, userID, courseID uint) (bool, error) {
	args := m.Called(ctx, userID, courseID)
	return args.Bool(0), args.Error(1)
}

func (m *MockLocker) Release(ctx context.Context, userID, courseID uint) {
	m.Called(ctx, userID, courseID)
}

type MockEventPublisher struct {
	mock.Mock
}

func (m *MockEventPublisher) PublishPaymentPaid(data interface{}) {
	m.Called(data)
}

func (m *MockEventPublisher) PublishEnrollmentActivated(data interface{}) {
	m.Called(data)
}

type MockAdapter struct {
	mock.Mock
}

func (m *MockAdapter) Process(ctx context.Context, order *model.Order, data gateway.PaymentData) (gateway.Outcome, error) {
	args := m.Called(ctx, order, data)
	return args.Get(0).(gateway.Outcome), args.Error(1)
}

type MockGateways struct {
	mock.Mock
}

func (m *MockGateways) For(method gateway.Method) gateway.Adapter {
	return m.Called(method).Get(0).(gateway.Adapter)
}
