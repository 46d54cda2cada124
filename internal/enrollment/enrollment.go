// Package enrollment holds the enrollment status transition rules shared by the API server and the learner client
package enrollment

import (
	"fmt"

	"github.com/learnportal/backend/internal/apperrors"
	"github.com/learnportal/backend/internal/models"
)

// transitions lists every allowed status change.
// approved and rejected are terminal: no entry leaves them.
var transitions = map[models.EnrollmentStatus][]models.EnrollmentStatus{
	models.EnrollmentStatusNotEnrolled: {models.EnrollmentStatusPending, models.EnrollmentStatusApproved},
	models.EnrollmentStatusPending:     {models.EnrollmentStatusApproved, models.EnrollmentStatusRejected},
}

// CanTransition reports whether the status may change from "from" to "to"
func CanTransition(from, to models.EnrollmentStatus) bool {
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// Transition validates a status change and returns an InvalidStateTransition error when it is not allowed
func Transition(from, to models.EnrollmentStatus) error {
	if !CanTransition(from, to) {
		return apperrors.Clone(apperrors.ErrInvalidStateTransition,
			fmt.Sprintf("cannot change enrollment status from %s to %s", from, to))
	}
	return nil
}

// IsTerminal reports whether no transition leaves the status
func IsTerminal(status models.EnrollmentStatus) bool {
	return status == models.EnrollmentStatusApproved || status == models.EnrollmentStatusRejected
}

// CanAccessContent reports whether course content is visible for the status
func CanAccessContent(status models.EnrollmentStatus) bool {
	return status == models.EnrollmentStatusApproved
}

// RequireAccess returns an AccessDenied error unless the status grants access to course content
func RequireAccess(status models.EnrollmentStatus) error {
	if !CanAccessContent(status) {
		return apperrors.Clone(apperrors.ErrAccessDenied,
			fmt.Sprintf("course content requires an approved enrollment, current status is %s", status))
	}
	return nil
}

// CheckFreeEnrollment validates a free enrollment request against the course price and current status
func CheckFreeEnrollment(course models.Course, current models.EnrollmentStatus) error {
	if !course.IsFree() {
		return apperrors.Clone(apperrors.ErrInvalidStateTransition, "course is not free, a payment proof is required")
	}
	return Transition(current, models.EnrollmentStatusApproved)
}

// CheckPaymentProof validates a payment proof submission against the course price and current status
func CheckPaymentProof(course models.Course, current models.EnrollmentStatus) error {
	if course.IsFree() {
		return apperrors.Clone(apperrors.ErrInvalidStateTransition, "course is free, no payment proof is needed")
	}
	return Transition(current, models.EnrollmentStatusPending)
}

// View is what the learner is shown for a course
type View string

const (
	ViewCatalog  View = "catalog"  // preview and enroll affordance
	ViewPending  View = "pending"  // status only
	ViewRejected View = "rejected" // status only
	ViewContent  View = "content"  // videos and curriculum
)

// ViewFor maps an enrollment status to the view the learner is allowed to see
func ViewFor(status models.EnrollmentStatus) View {
	switch status {
	case models.EnrollmentStatusApproved:
		return ViewContent
	case models.EnrollmentStatusPending:
		return ViewPending
	case models.EnrollmentStatusRejected:
		return ViewRejected
	default:
		return ViewCatalog
	}
}
