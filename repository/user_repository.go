package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"github.com/Kjfer/peri-craft-campus-sub000/model"
)

const profileCacheTTL = 10 * time.Minute

type UserRepository interface {
	ProfileCountry(ctx context.Context, userID uint) (string, error)
}

type userRepository struct {
	db  *gorm.DB
	rdb *redis.Client
}

func NewUserRepository(db *gorm.DB, rdb *redis.Client) UserRepository {
	return &userRepository{db: db, rdb: rdb}
}

// ProfileCountry reads the user's country through a Redis cache;
// profile rows change rarely and the value gates wallet eligibility on
// every checkout.
func (r *userRepository) ProfileCountry(ctx context.Context, userID uint) (string, error) {
	cacheKey := fmt.Sprintf("profile:country:%d", userID)

	if country, err := r.rdb.Get(ctx, cacheKey).Result(); err == nil {
		return country, nil
	}

	var profile model.Profile
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		First(&profile).Error
	if err != nil {
		return "", err
	}

	r.rdb.Set(ctx, cacheKey, profile.Country, profileCacheTTL)
	return profile.Country, nil
}
