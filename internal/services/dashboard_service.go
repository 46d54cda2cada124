package services

import (
	"context"

	"github.com/learnportal/backend/internal/models"
	"go.uber.org/zap"
)

// recentEnrollmentLimit is the number of latest enrollments shown on the dashboard
const recentEnrollmentLimit = 5

// StudentLister lists student accounts with their enrollment counts
type StudentLister interface {
	ListStudents(ctx context.Context) ([]models.StudentSummary, error)
}

// DashboardRepository computes the platform counters
type DashboardRepository interface {
	Totals(ctx context.Context) (models.DashboardStats, error)
}

// RecentEnrollmentLister returns the latest enrollments of any status
type RecentEnrollmentLister interface {
	ListRecent(ctx context.Context, limit int) ([]models.EnrollmentReviewItem, error)
}

// dashboardService serves the administrator overview pages
type dashboardService struct {
	students    StudentLister
	totals      DashboardRepository
	enrollments RecentEnrollmentLister
	logger      *zap.Logger
}

// NewDashboardService creates a new dashboard service
func NewDashboardService(students StudentLister, totals DashboardRepository, enrollments RecentEnrollmentLister, logger *zap.Logger) *dashboardService {
	return &dashboardService{
		students:    students,
		totals:      totals,
		enrollments: enrollments,
		logger:      logger,
	}
}

// Students lists every student account
func (s *dashboardService) Students(ctx context.Context) ([]models.StudentSummary, error) {
	return s.students.ListStudents(ctx)
}

// Dashboard returns the platform totals with the latest enrollments
func (s *dashboardService) Dashboard(ctx context.Context) (models.DashboardStats, error) {
	stats, err := s.totals.Totals(ctx)
	if err != nil {
		return models.DashboardStats{}, err
	}
	recent, err := s.enrollments.ListRecent(ctx, recentEnrollmentLimit)
	if err != nil {
		return models.DashboardStats{}, err
	}
	stats.RecentEnrollments = recent
	return stats, nil
}
