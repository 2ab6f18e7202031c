package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/Kjfer/peri-craft-campus-sub000/model"
)

type OrderRepository interface {
	Create(ctx context.Context, order *model.Order) error
	Delete(ctx context.Context, orderID uint) error
	CreateItems(ctx context.Context, items []model.OrderItem) error
	DeleteItems(ctx context.Context, orderID uint) error
	LinkPayment(ctx context.Context, orderID, paymentID uint) error
	UpdateStatus(ctx context.Context, orderID uint, status string) error
	FindByID(ctx context.Context, id uint) (*model.Order, error)
	FindByPaymentID(ctx context.Context, paymentID uint) (*model.Order, error)
	ItemsByOrder(ctx context.Context, orderID uint) ([]model.OrderItem, error)
	HasPendingWithCourse(ctx context.Context, userID uint, courseIDs []uint) (bool, error)
}

type orderRepository struct {
	db *gorm.DB
}

func NewOrderRepository(db *gorm.DB) OrderRepository {
	return &orderRepository{db: db}
}

func (r *orderRepository) Create(ctx context.Context, order *model.Order) error {
	return r.db.WithContext(ctx).Create(order).Error
}

func (r *orderRepository) Delete(ctx context.Context, orderID uint) error {
	return r.db.WithContext(ctx).Delete(&model.Order{}, orderID).Error
}

func (r *orderRepository) CreateItems(ctx context.Context, items []model.OrderItem) error {
	return r.db.WithContext(ctx).Create(&items).Error
}

func (r *orderRepository) DeleteItems(ctx context.Context, orderID uint) error {
	return r.db.WithContext(ctx).
		Where("order_id = ?", orderID).
		Delete(&model.OrderItem{}).Error
}

func (r *orderRepository) LinkPayment(ctx context.Context, orderID, paymentID uint) error {
	return r.db.WithContext(ctx).
		Model(&model.Order{}).
		Where("id = ?", orderID).
		Update("payment_id", paymentID).Error
}

func (r *orderRepository) UpdateStatus(ctx context.Context, orderID uint, status string) error {
	return r.db.WithContext(ctx).
		Model(&model.Order{}).
		Where("id = ?", orderID).
		Update("status", status).Error
}

func (r *orderRepository) FindByID(ctx context.Context, id uint) (*model.Order, error) {
	var order model.Order
	if err := r.db.WithContext(ctx).First(&order, id).Error; err != nil {
		return nil, err
	}
	return &order, nil
}

func (r *orderRepository) FindByPaymentID(ctx context.Context, paymentID uint) (*model.Order, error) {
	var order model.Order
	err := r.db.WithContext(ctx).
		Where("payment_id = ?", paymentID).
		First(&order).Error
	if err != nil {
		return nil, err
	}
	return &order, nil
}

func (r *orderRepository) ItemsByOrder(ctx context.Context, orderID uint) ([]model.OrderItem, error) {
	var items []model.OrderItem
	err := r.db.WithContext(ctx).
		Where("order_id = ?", orderID).
		Find(&items).Error
	return items, err
}

// HasPendingWithCourse reports whether the user already has a pending
// order containing any of the given courses.
func (r *orderRepository) HasPendingWithCourse(ctx context.Context, userID uint, courseIDs []uint) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&model.OrderItem{}).
		Joins("JOIN orders ON orders.id = order_items.order_id").
		Where("orders.user_id = ? AND orders.status = ? AND order_items.course_id IN ?",
			userID, model.OrderStatusPending, courseIDs).
		Count(&count).Error
	return count > 0, err
}
