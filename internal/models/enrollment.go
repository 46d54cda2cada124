package models

import "time"

// EnrollmentStatus represents the relationship of a learner to a course
type EnrollmentStatus string

const (
	EnrollmentStatusNotEnrolled EnrollmentStatus = "not_enrolled"
	EnrollmentStatusPending     EnrollmentStatus = "pending"
	EnrollmentStatusApproved    EnrollmentStatus = "approved"
	EnrollmentStatusRejected    EnrollmentStatus = "rejected"
)

// Valid reports whether s is one of the known statuses
func (s EnrollmentStatus) Valid() bool {
	switch s {
	case EnrollmentStatusNotEnrolled, EnrollmentStatusPending, EnrollmentStatusApproved, EnrollmentStatusRejected:
		return true
	}
	return false
}

// EnrollmentRecord is the learner-facing view of an enrollment
type EnrollmentRecord struct {
	CourseID int              `json:"courseId"`
	Status   EnrollmentStatus `json:"status"`
	Message  string           `json:"message,omitempty"`
}

// Enrollment represents an enrollment row
//
// Absence of a row for a user and course means "not_enrolled".
type Enrollment struct {
	ID        int              `json:"id"`
	UserID    int              `json:"userId"`
	CourseID  int              `json:"courseId"`
	Status    EnrollmentStatus `json:"status"`
	Message   string           `json:"message,omitempty"`
	ProofID   *string          `json:"proofId,omitempty"`
	CreatedAt time.Time        `json:"createdAt"`
	UpdatedAt time.Time        `json:"updatedAt"`
}

// Record converts the row into its learner-facing view
func (e *Enrollment) Record() EnrollmentRecord {
	return EnrollmentRecord{
		CourseID: e.CourseID,
		Status:   e.Status,
		Message:  e.Message,
	}
}

// EnrollmentReviewItem represents an enrollment in the administrator review queue
type EnrollmentReviewItem struct {
	ID          int              `json:"id"`
	UserID      int              `json:"userId"`
	UserName    string           `json:"userName"`
	UserEmail   string           `json:"userEmail"`
	CourseID    int              `json:"courseId"`
	CourseTitle string           `json:"courseTitle"`
	Status      EnrollmentStatus `json:"status"`
	ProofID     *string          `json:"proofId,omitempty"`
	CreatedAt   time.Time        `json:"createdAt"`
}

// ReviewRequest carries the optional message of an administrator decision
type ReviewRequest struct {
	Message string `json:"message" validate:"max=500"`
}
