package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"github.com/Kjfer/peri-craft-campus-sub000/model"
)

const paymentCacheTTL = 10 * time.Minute

type PaymentRepository interface {
	Create(ctx context.Context, payment *model.Payment) error
	Delete(ctx context.Context, paymentID uint) error
	FindByID(ctx context.Context, id uint) (*model.Payment, error)
	FindByExternalID(ctx context.Context, externalID string) (*model.Payment, error)
	SetExternalID(ctx context.Context, paymentID uint, externalID string) error
	SetOperationCode(ctx context.Context, paymentID uint, code string) error
	UpdateStatus(ctx context.Context, payment *model.Payment) error
	ListByUser(ctx context.Context, userID uint) ([]model.Payment, error)
}

type paymentRepository struct {
	db  *gorm.DB
	rdb *redis.Client
}

func NewPaymentRepository(db *gorm.DB, rdb *redis.Client) PaymentRepository {
	return &paymentRepository{db: db, rdb: rdb}
}

func (r *paymentRepository) Create(ctx context.Context, payment *model.Payment) error {
	if err := r.db.WithContext(ctx).Create(payment).Error; err != nil {
		return err
	}
	r.invalidate(ctx, payment.UserID)
	return nil
}

func (r *paymentRepository) Delete(ctx context.Context, paymentID uint) error {
	return r.db.WithContext(ctx).Delete(&model.Payment{}, paymentID).Error
}

func (r *paymentRepository) FindByID(ctx context.Context, id uint) (*model.Payment, error) {
	var payment model.Payment
	if err := r.db.WithContext(ctx).First(&payment, id).Error; err != nil {
		return nil, err
	}
	return &payment, nil
}

func (r *paymentRepository) FindByExternalID(ctx context.Context, externalID string) (*model.Payment, error) {
	var payment model.Payment
	err := r.db.WithContext(ctx).
		Where("external_payment_id = ?", externalID).
		First(&payment).Error
	if err != nil {
		return nil, err
	}
	return &payment, nil
}

func (r *paymentRepository) SetExternalID(ctx context.Context, paymentID uint, externalID string) error {
	return r.db.WithContext(ctx).
		Model(&model.Payment{}).
		Where("id = ?", paymentID).
		Update("external_payment_id", externalID).Error
}

func (r *paymentRepository) SetOperationCode(ctx context.Context, paymentID uint, code string) error {
	return r.db.WithContext(ctx).
		Model(&model.Payment{}).
		Where("id = ?", paymentID).
		Update("operation_code", code).Error
}

// UpdateStatus persists the (already validated) status transition held
// on the payment, plus paid_at when set.
func (r *paymentRepository) UpdateStatus(ctx context.Context, payment *model.Payment) error {
	updates := map[string]interface{}{"status": payment.Status}
	if payment.PaidAt != nil {
		updates["paid_at"] = payment.PaidAt
	}

	err := r.db.WithContext(ctx).
		Model(&model.Payment{}).
		Where("id = ?", payment.ID).
		Updates(updates).Error
	if err != nil {
		return err
	}

	r.invalidate(ctx, payment.UserID)
	return nil
}

func (r *paymentRepository) ListByUser(ctx context.Context, userID uint) ([]model.Payment, error) {
	cacheKey := fmt.Sprintf("payments:%d", userID)

	if cached, err := r.rdb.Get(ctx, cacheKey).Result(); err == nil {
		var list []model.Payment
		if err := json.Unmarshal([]byte(cached), &list); err == nil {
			return list, nil
		}
	}

	var list []model.Payment
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&list).Error
	if err != nil {
		return nil, err
	}

	if data, err := json.Marshal(list); err == nil {
		r.rdb.Set(ctx, cacheKey, data, paymentCacheTTL)
	}
	return list, nil
}

func (r *paymentRepository) invalidate(ctx context.Context, userID uint) {
	r.rdb.Del(ctx, fmt.Sprintf("payments:%d", userID))
}
