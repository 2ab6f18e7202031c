package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/Kjfer/peri-craft-campus-sub000/metrics"
	"github.com/Kjfer/peri-craft-campus-sub000/model"
	"github.com/Kjfer/peri-craft-campus-sub000/repository"
)

// EnrollmentService turns "money received" into "access granted". It is
// only reachable from a confirmed-payment transition, and it is
// idempotent: re-activating an enrolled pair is a no-op.
type EnrollmentService struct {
	enrollments repository.EnrollmentRepository
	log         *slog.Logger
}

func NewEnrollmentService(enrollments repository.EnrollmentRepository, log *slog.Logger) *EnrollmentService {
	return &EnrollmentService{enrollments: enrollments, log: log}
}

// Activate creates enrollments for the courses the user does not have
// yet and returns the ids actually inserted. An empty result means
// "already enrolled" and is not an error.
func (s *EnrollmentService) Activate(ctx context.Context, userID uint, courseIDs []uint) ([]uint, error) {
	if len(courseIDs) == 0 {
		return nil, nil
	}

	existing, err := s.enrollments.Existing(ctx, userID, courseIDs)
	if err != nil {
		return nil, err
	}

	var enrolled []uint
	for _, courseID := range courseIDs {
		if existing[courseID] {
			continue
		}

		err := s.enrollments.Create(ctx, &model.Enrollment{
			UserID:             userID,
			CourseID:           courseID,
			EnrolledAt:         time.Now(),
			ProgressPercentage: 0,
		})
		if errors.Is(err, repository.ErrAlreadyEnrolled) {
			// Lost a concurrent race; the enrollment exists either way.
			continue
		}
		if err != nil {
			return enrolled, err
		}

		enrolled = append(enrolled, courseID)
	}

	if len(enrolled) > 0 {
		metrics.EnrollmentsActivated.Add(float64(len(enrolled)))
		s.log.Info("enrollments activated",
			slog.Uint64("user_id", uint64(userID)),
			slog.Any("course_ids", enrolled))
	}
	return enrolled, nil
}
