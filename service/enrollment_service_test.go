package service

import (
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/Kjfer/peri-craft-campus-sub000/model"
	"github.com/Kjfer/peri-craft-campus-sub000/repository"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(discardWriter{}, nil))
}

type discardWriter struct{}

func (discardWriter) Write(p []byte) (int, error) { return len(p), nil }

func TestActivateEnrollsOnlyMissingCourses(t *testing.T) {
	repo := new(MockEnrollmentRepository)
	svc := NewEnrollmentService(repo, discardLogger())

	repo.On("Existing", mock.Anything, uint(7), []uint{1, 2, 3}).
		Return(map[uint]bool{2: true}, nil)
	repo.On("Create", mock.Anything, mock.MatchedBy(func(e *model.Enrollment) bool {
		return e.UserID == 7 && e.ProgressPercentage == 0 && !e.EnrolledAt.IsZero()
	})).Return(nil)

	enrolled, err := svc.Activate(context.Background(), 7, []uint{1, 2, 3})
	require.NoError(t, err)
	assert.Equal(t, []uint{1, 3}, enrolled)
	repo.AssertNumberOfCalls(t, "Create", 2)
}

func TestActivateIsIdempotent(t *testing.T) {
	repo := new(MockEnrollmentRepository)
	svc := NewEnrollmentService(repo, discardLogger())

	// Second run: everything already enrolled.
	repo.On("Existing", mock.Anything, uint(7), []uint{1, 2}).
		Return(map[uint]bool{1: true, 2: true}, nil)

	enrolled, err := svc.Activate(context.Background(), 7, []uint{1, 2})
	require.NoError(t, err)
	assert.Empty(t, enrolled)
	repo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestActivateToleratesInsertRace(t *testing.T) {
	repo := new(MockEnrollmentRepository)
	svc := NewEnrollmentService(repo, discardLogger())

	repo.On("Existing", mock.Anything, uint(7), []uint{1, 2}).
		Return(map[uint]bool{}, nil)
	repo.On("Create", mock.Anything, mock.MatchedBy(func(e *model.Enrollment) bool {
		return e.CourseID == 1
	})).Return(repository.ErrAlreadyEnrolled)
	repo.On("Create", mock.Anything, mock.MatchedBy(func(e *model.Enrollment) bool {
		return e.CourseID == 2
	})).Return(nil)

	enrolled, err := svc.Activate(context.Background(), 7, []uint{1, 2})
	require.NoError(t, err)
	assert.Equal(t, []uint{2}, enrolled)
}

func TestActivateEmptySet(t *testing.T) {
	repo := new(MockEnrollmentRepository)
	svc := NewEnrollmentService(repo, discardLogger())

	enrolled, err := svc.Activate(context.Background(), 7, nil)
	require.NoError(t, err)
	assert.Nil(t, enrolled)
	repo.AssertNotCalled(t, "Existing", mock.Anything, mock.Anything, mock.Anything)
}
