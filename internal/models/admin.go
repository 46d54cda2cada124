package models

import "time"

// StudentSummary is a student row of the administrator console
type StudentSummary struct {
	ID                  int       `json:"id"`
	Name                string    `json:"name"`
	Email               string    `json:"email"`
	ApprovedEnrollments int       `json:"approvedEnrollments"`
	PendingEnrollments  int       `json:"pendingEnrollments"`
	CreatedAt           time.Time `json:"createdAt"`
}

// DashboardStats holds the platform totals shown on the administrator dashboard
type DashboardStats struct {
	TotalStudents       int                    `json:"totalStudents"`
	TotalCourses        int                    `json:"totalCourses"`
	ApprovedEnrollments int                    `json:"approvedEnrollments"`
	PendingEnrollments  int                    `json:"pendingEnrollments"`
	TotalRevenue        float64                `json:"totalRevenue"`
	PendingSubmissions  int                    `json:"pendingSubmissions"`
	RecentEnrollments   []EnrollmentReviewItem `json:"recentEnrollments"`
}
