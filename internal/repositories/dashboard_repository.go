package repositories

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/learnportal/backend/internal/models"
)

// dashboardRepository implements services.DashboardRepository
type dashboardRepository struct {
	db *sql.DB
}

// NewDashboardRepository creates a new dashboard statistics repository
func NewDashboardRepository(db *sql.DB) *dashboardRepository {
	return &dashboardRepository{db: db}
}

// Totals computes the platform counters in a single round trip
//
// Revenue sums the price of every approved enrollment in a priced course.
func (r *dashboardRepository) Totals(ctx context.Context) (models.DashboardStats, error) {
	query := `
		SELECT
			(SELECT COUNT(*) FROM users WHERE role = ?),
			(SELECT COUNT(*) FROM courses),
			(SELECT COUNT(*) FROM enrollments WHERE status = 'approved'),
			(SELECT COUNT(*) FROM enrollments WHERE status = 'pending'),
			(SELECT COALESCE(SUM(c.price), 0) FROM enrollments e JOIN courses c ON c.id = e.course_id
				WHERE e.status = 'approved' AND c.price > 0),
			(SELECT COUNT(*) FROM assignment_submissions WHERE graded_at IS NULL)
	`

	var stats models.DashboardStats
	err := r.db.QueryRowContext(ctx, query, models.RoleStudent).Scan(
		&stats.TotalStudents,
		&stats.TotalCourses,
		&stats.ApprovedEnrollments,
		&stats.PendingEnrollments,
		&stats.TotalRevenue,
		&stats.PendingSubmissions,
	)
	if err != nil {
		return models.DashboardStats{}, fmt.Errorf("failed to compute dashboard totals: %w", err)
	}
	return stats, nil
}
