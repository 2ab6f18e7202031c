package repository

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/Kjfer/peri-craft-campus-sub000/model"
)

// ErrAlreadyEnrolled maps the unique-index violation on
// (user_id, course_id): losing a concurrent insert race is not a
// failure, the row exists.
var ErrAlreadyEnrolled = errors.New("enrollment already exists")

type EnrollmentRepository interface {
	Existing(ctx context.Context, userID uint, courseIDs []uint) (map[uint]bool, error)
	Create(ctx context.Context, enrollment *model.Enrollment) error
}

type enrollmentRepository struct {
	db *gorm.DB
}

func NewEnrollmentRepository(db *gorm.DB) EnrollmentRepository {
	return &enrollmentRepository{db: db}
}

// Existing returns the subset of courseIDs the user is enrolled in,
// in one batch query.
func (r *enrollmentRepository) Existing(ctx context.Context, userID uint, courseIDs []uint) (map[uint]bool, error) {
	var rows []model.Enrollment
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND course_id IN ?", userID, courseIDs).
		Find(&rows).Error
	if err != nil {
		return nil, err
	}

	existing := make(map[uint]bool, len(rows))
	for _, e := range rows {
		existing[e.CourseID] = true
	}
	return existing, nil
}

func (r *enrollmentRepository) Create(ctx context.Context, enrollment *model.Enrollment) error {
	err := r.db.WithContext(ctx).Create(enrollment).Error
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return ErrAlreadyEnrolled
	}
	return err
}
