package model

import "time"

// Enrollment is the access grant. One row per (user, course), enforced
// by the unique index; duplicate-key on insert means "already enrolled".
type Enrollment struct {
	ID                 uint       `gorm:"primaryKey" json:"id"`
	UserID             uint       `gorm:"uniqueIndex:idx_user_course" json:"user_id"`
	CourseID           uint       `gorm:"uniqueIndex:idx_user_course" json:"course_id"`
	EnrolledAt         time.Time  `json:"enrolled_at"`
	ProgressPercentage float64    `json:"progress_percentage"`
	CompletedAt        *time.Time `json:"completed_at,omitempty"`
}
