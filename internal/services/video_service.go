package services

import (
	"context"
	"fmt"

	"github.com/learnportal/backend/internal/apperrors"
	"github.com/learnportal/backend/internal/models"
	"github.com/learnportal/backend/internal/progress"
	"go.uber.org/zap"
)

// VideoRepository is the interface that wraps methods for videos and video_completions tables data access
type VideoRepository interface {
	// Method ListByCourse returns the videos of "courseID" in curriculum order with the completion state of "userID".
	ListByCourse(ctx context.Context, courseID, userID int) ([]models.Video, error)
	// Method GetByID retrieves a video with the completion state of "userID".
	//
	// If the video does not exist, a NOT_FOUND error is returned together with "nil" value.
	GetByID(ctx context.Context, id, userID int) (*models.Video, error)
	// Method MarkCompleted records the completion of a video. It is idempotent.
	MarkCompleted(ctx context.Context, userID, videoID int) error
	// Method SaveCheckpoint stores the resume position of a video without changing its completion.
	SaveCheckpoint(ctx context.Context, userID, videoID, checkpoint int) error
}

// videoService serves course content to approved learners and tracks their progress
type videoService struct {
	videoRepo      VideoRepository
	enrollmentRepo EnrollmentRepository
	courseRepo     CourseReader
	logger         *zap.Logger
}

// NewVideoService creates a new video service
func NewVideoService(videoRepo VideoRepository, enrollmentRepo EnrollmentRepository, courseRepo CourseReader, logger *zap.Logger) *videoService {
	return &videoService{
		videoRepo:      videoRepo,
		enrollmentRepo: enrollmentRepo,
		courseRepo:     courseRepo,
		logger:         logger,
	}
}

func (s *videoService) requireApproved(ctx context.Context, userID, courseID int) error {
	return requireApproved(ctx, s.courseRepo, s.enrollmentRepo, userID, courseID)
}

// ListVideos returns the course videos in curriculum order for an approved learner
func (s *videoService) ListVideos(ctx context.Context, userID, courseID int) ([]models.Video, error) {
	if err := s.requireApproved(ctx, userID, courseID); err != nil {
		return nil, err
	}
	return s.videoRepo.ListByCourse(ctx, courseID, userID)
}

// courseVideo loads a video and checks that it belongs to courseID
func (s *videoService) courseVideo(ctx context.Context, userID, courseID, videoID int) (*models.Video, error) {
	video, err := s.videoRepo.GetByID(ctx, videoID, userID)
	if err != nil {
		return nil, err
	}
	if video.CourseID != courseID {
		return nil, apperrors.Clone(apperrors.ErrInvalidReference,
			fmt.Sprintf("video %d does not belong to course %d", videoID, courseID))
	}
	return video, nil
}

// CompleteVideo marks a video of the course as completed and returns it
// Completing an already completed video changes nothing
func (s *videoService) CompleteVideo(ctx context.Context, userID, courseID int, req *models.CompleteVideoRequest) (*models.Video, error) {
	if err := validateRequest(req); err != nil {
		return nil, err
	}
	videoID := req.VideoID
	if err := s.requireApproved(ctx, userID, courseID); err != nil {
		return nil, err
	}
	video, err := s.courseVideo(ctx, userID, courseID, videoID)
	if err != nil {
		return nil, err
	}

	if !video.Completed {
		if err := s.videoRepo.MarkCompleted(ctx, userID, videoID); err != nil {
			return nil, err
		}
		video.Completed = true
		s.logger.Debug("video completed", zap.Int("user_id", userID), zap.Int("video_id", videoID))
	}
	return video, nil
}

// SaveCheckpoint stores the resume position of a video of the course
func (s *videoService) SaveCheckpoint(ctx context.Context, userID, courseID int, req *models.CheckpointRequest) (*models.Video, error) {
	if err := validateRequest(req); err != nil {
		return nil, err
	}
	if err := s.requireApproved(ctx, userID, courseID); err != nil {
		return nil, err
	}
	video, err := s.courseVideo(ctx, userID, courseID, req.VideoID)
	if err != nil {
		return nil, err
	}

	if err := s.videoRepo.SaveCheckpoint(ctx, userID, req.VideoID, req.Checkpoint); err != nil {
		return nil, err
	}
	video.Checkpoint = req.Checkpoint
	return video, nil
}

// Progress returns the completion summary of the course for an approved learner
func (s *videoService) Progress(ctx context.Context, userID, courseID int) (models.CourseProgress, error) {
	videos, err := s.ListVideos(ctx, userID, courseID)
	if err != nil {
		return models.CourseProgress{}, err
	}
	return progress.Summary(courseID, videos), nil
}
