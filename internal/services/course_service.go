package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/learnportal/backend/internal/apperrors"
	"github.com/learnportal/backend/internal/models"
	"github.com/learnportal/backend/internal/progress"
	"go.uber.org/zap"
)

// CourseRepository is the interface that wraps methods for courses table data access
type CourseRepository interface {
	// Method List returns the whole catalog.
	List(ctx context.Context) ([]models.Course, error)
	// Method GetByID retrieves a course by ID.
	//
	// If the course does not exist, a NOT_FOUND error is returned together with "nil" value.
	GetByID(ctx context.Context, id int) (*models.Course, error)
	// Method Create inserts a new course and sets its ID.
	Create(ctx context.Context, course *models.Course) error
	// Method ListEnrolled returns the courses "userID" is approved for, with completed and total video counts.
	ListEnrolled(ctx context.Context, userID int) ([]models.EnrolledCourse, error)
	// Method Update replaces the editable columns of an existing course.
	Update(ctx context.Context, course *models.Course) error
	// Method DeleteUnenrolled deletes a course without enrollments and reports whether it was deleted.
	DeleteUnenrolled(ctx context.Context, id int) (bool, error)
}

// VideoWriter adds videos to a course and replaces its curriculum
type VideoWriter interface {
	Create(ctx context.Context, video *models.Video) error
	// Method ReplaceCurriculum makes "entries" the whole curriculum of "courseID" in list order.
	//
	// An entry ID that is not a video of the course gives INVALID_REFERENCE and nothing changes.
	ReplaceCurriculum(ctx context.Context, courseID int, entries []models.CurriculumVideo) ([]models.Video, error)
}

// courseService serves the catalog and the administrator course editor
type courseService struct {
	courseRepo CourseRepository
	videoRepo  VideoWriter
	logger     *zap.Logger
}

// NewCourseService creates a new course service
func NewCourseService(courseRepo CourseRepository, videoRepo VideoWriter, logger *zap.Logger) *courseService {
	return &courseService{
		courseRepo: courseRepo,
		videoRepo:  videoRepo,
		logger:     logger,
	}
}

// Explore returns the course catalog
func (s *courseService) Explore(ctx context.Context) ([]models.Course, error) {
	return s.courseRepo.List(ctx)
}

// GetCourse returns a single course of the catalog
func (s *courseService) GetCourse(ctx context.Context, courseID int) (*models.Course, error) {
	return s.courseRepo.GetByID(ctx, courseID)
}

// MyCourses returns the approved courses of a learner with their progress
func (s *courseService) MyCourses(ctx context.Context, userID int) ([]models.MyCourseItem, error) {
	enrolled, err := s.courseRepo.ListEnrolled(ctx, userID)
	if err != nil {
		return nil, err
	}

	items := make([]models.MyCourseItem, 0, len(enrolled))
	for _, e := range enrolled {
		items = append(items, models.MyCourseItem{
			Course:   e.Course,
			Progress: progress.Percentage(e.Completed, e.Total),
		})
	}
	return items, nil
}

// courseFromRequest validates a create or update body and builds the course it describes
func courseFromRequest(req *models.CreateCourseRequest) (*models.Course, error) {
	req.Title = strings.TrimSpace(req.Title)
	req.Instructor = strings.TrimSpace(req.Instructor)
	if err := validateRequest(req); err != nil {
		return nil, err
	}
	return &models.Course{
		Title:       req.Title,
		Description: req.Description,
		Instructor:  req.Instructor,
		Duration:    req.Duration,
		Price:       req.Price,
		Thumbnail:   req.Thumbnail,
	}, nil
}

// CreateCourse validates and stores a new course
func (s *courseService) CreateCourse(ctx context.Context, req *models.CreateCourseRequest) (*models.Course, error) {
	course, err := courseFromRequest(req)
	if err != nil {
		return nil, err
	}
	if err := s.courseRepo.Create(ctx, course); err != nil {
		return nil, err
	}

	s.logger.Info("course created", zap.Int("course_id", course.ID), zap.Bool("free", course.IsFree()))
	return course, nil
}

// AddVideo validates and appends a video to an existing course
func (s *courseService) AddVideo(ctx context.Context, courseID int, req *models.CreateVideoRequest) (*models.Video, error) {
	req.Title = strings.TrimSpace(req.Title)
	if err := validateRequest(req); err != nil {
		return nil, err
	}
	if _, err := s.courseRepo.GetByID(ctx, courseID); err != nil {
		return nil, err
	}

	video := &models.Video{
		CourseID: courseID,
		Title:    req.Title,
		Duration: req.Duration,
		URL:      req.URL,
		Position: req.Position,
	}
	if err := s.videoRepo.Create(ctx, video); err != nil {
		return nil, err
	}
	return video, nil
}

// UpdateCourse replaces the details of an existing course
func (s *courseService) UpdateCourse(ctx context.Context, courseID int, req *models.CreateCourseRequest) (*models.Course, error) {
	course, err := courseFromRequest(req)
	if err != nil {
		return nil, err
	}
	if _, err := s.courseRepo.GetByID(ctx, courseID); err != nil {
		return nil, err
	}

	course.ID = courseID
	if err := s.courseRepo.Update(ctx, course); err != nil {
		return nil, err
	}
	s.logger.Info("course updated", zap.Int("course_id", courseID))
	return course, nil
}

// DeleteCourse removes a course nobody is enrolled in
//
// A course with any enrollment, whatever its status, is a CONFLICT.
func (s *courseService) DeleteCourse(ctx context.Context, courseID int) error {
	if _, err := s.courseRepo.GetByID(ctx, courseID); err != nil {
		return err
	}
	deleted, err := s.courseRepo.DeleteUnenrolled(ctx, courseID)
	if err != nil {
		return err
	}
	if !deleted {
		return apperrors.Clone(apperrors.ErrConflict, fmt.Sprintf("course %d has enrollments", courseID))
	}
	s.logger.Info("course deleted", zap.Int("course_id", courseID))
	return nil
}

// ReplaceVideos replaces the whole curriculum of an existing course
func (s *courseService) ReplaceVideos(ctx context.Context, courseID int, req *models.ReplaceVideosRequest) ([]models.Video, error) {
	for i := range req.Videos {
		req.Videos[i].Title = strings.TrimSpace(req.Videos[i].Title)
	}
	if err := validateRequest(req); err != nil {
		return nil, err
	}
	if _, err := s.courseRepo.GetByID(ctx, courseID); err != nil {
		return nil, err
	}

	seen := make(map[int]bool, len(req.Videos))
	for _, v := range req.Videos {
		if v.ID == 0 {
			continue
		}
		if seen[v.ID] {
			return nil, apperrors.Clone(apperrors.ErrValidation, fmt.Sprintf("video %d is listed twice", v.ID))
		}
		seen[v.ID] = true
	}

	videos, err := s.videoRepo.ReplaceCurriculum(ctx, courseID, req.Videos)
	if err != nil {
		return nil, err
	}
	s.logger.Info("curriculum replaced", zap.Int("course_id", courseID), zap.Int("videos", len(videos)))
	return videos, nil
}
