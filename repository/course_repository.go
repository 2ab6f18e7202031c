package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/Kjfer/peri-craft-campus-sub000/model"
)

type CourseRepository interface {
	FindActive(ctx context.Context, ids []uint) ([]model.Course, error)
}

type courseRepository struct {
	db *gorm.DB
}

func NewCourseRepository(db *gorm.DB) CourseRepository {
	return &courseRepository{db: db}
}

// FindActive returns the active courses among ids; callers compare
// lengths to detect missing or retired courses.
func (r *courseRepository) FindActive(ctx context.Context, ids []uint) ([]model.Course, error) {
	var courses []model.Course
	err := r.db.WithContext(ctx).
		Where("id IN ? AND is_active = ?", ids, true).
		Find(&courses).Error
	return courses, err
}
