package learner

import (
	"context"
	"fmt"

	"github.com/learnportal/backend/internal/apperrors"
	"github.com/learnportal/backend/internal/models"
	"github.com/learnportal/backend/internal/progress"
	"go.uber.org/zap"
)

// ContentAPI is the part of the platform API the progress tracker calls
//
// Implemented by *lmsclient.Client.
type ContentAPI interface {
	Videos(ctx context.Context, courseID int) ([]models.Video, error)
	CompleteVideo(ctx context.Context, courseID, videoID int) (*models.Video, error)
}

// ProgressTracker keeps the video snapshot of each approved course
type ProgressTracker struct {
	api    ContentAPI
	store  *Store
	logger *zap.Logger
}

// NewProgressTracker creates a new progress tracker sharing store with the enrollment machine
func NewProgressTracker(api ContentAPI, store *Store, logger *zap.Logger) *ProgressTracker {
	return &ProgressTracker{api: api, store: store, logger: logger}
}

// LoadVideos fetches the videos of a course in curriculum order and replaces the snapshot.
//
// The cached enrollment status must be approved; otherwise ACCESS_DENIED is returned
// without a request.
func (t *ProgressTracker) LoadVideos(ctx context.Context, courseID int) ([]models.Video, error) {
	cs := t.store.course(courseID)
	if err := requireApproved(cs); err != nil {
		return nil, err
	}
	return t.fetch(ctx, courseID, cs)
}

// MarkCompleted marks a video as completed and refreshes the snapshot from the server.
//
// Marking an already completed video is a no-op on the server. A video that is not
// in the video list of the course is an INVALID_REFERENCE. When the list was never
// loaded it is fetched first.
func (t *ProgressTracker) MarkCompleted(ctx context.Context, courseID, videoID int) (models.Video, error) {
	cs := t.store.course(courseID)
	if err := requireApproved(cs); err != nil {
		return models.Video{}, err
	}
	known, loaded := cs.loadedVideos()
	if !loaded {
		var err error
		if known, err = t.fetch(ctx, courseID, cs); err != nil {
			return models.Video{}, err
		}
	}
	if !progress.Contains(known, videoID) {
		return models.Video{}, apperrors.Clone(apperrors.ErrInvalidReference,
			fmt.Sprintf("video %d does not belong to course %d", videoID, courseID))
	}

	video, err := t.api.CompleteVideo(ctx, courseID, videoID)
	if err != nil {
		return models.Video{}, err
	}

	videos, err := t.fetch(ctx, courseID, cs)
	if err != nil {
		// The completion is recorded; the snapshot catches up on the next load.
		t.logger.Warn("failed to refresh videos after completion",
			zap.Int("course_id", courseID),
			zap.Int("video_id", videoID),
			zap.Error(err),
		)
		return *video, nil
	}
	for _, v := range videos {
		if v.ID == videoID {
			return v, nil
		}
	}
	return *video, nil
}

// Videos returns the cached video snapshot of a course
func (t *ProgressTracker) Videos(courseID int) []models.Video {
	return t.store.course(courseID).currentVideos()
}

// Progress returns the completion percentage of the cached snapshot
func (t *ProgressTracker) Progress(courseID int) int {
	return progress.Compute(t.Videos(courseID))
}

// CertificateAvailable reports whether the cached progress rounds to 100 percent
func (t *ProgressTracker) CertificateAvailable(courseID int) bool {
	return progress.CertificateAvailable(t.Videos(courseID))
}

// NextUnwatched returns the video to advance to after currentVideoID
func (t *ProgressTracker) NextUnwatched(courseID, currentVideoID int) (models.Video, bool) {
	return progress.NextUnwatched(t.Videos(courseID), currentVideoID)
}

func (t *ProgressTracker) fetch(ctx context.Context, courseID int, cs *courseState) ([]models.Video, error) {
	ticket := t.store.ticket()
	videos, err := t.api.Videos(ctx, courseID)
	if err != nil {
		return nil, err
	}
	return cs.applyVideos(ticket, videos), nil
}

func requireApproved(cs *courseState) error {
	rec := cs.currentRecord()
	if rec.Status != models.EnrollmentStatusApproved {
		return apperrors.Clone(apperrors.ErrAccessDenied,
			fmt.Sprintf("course %d content requires an approved enrollment", rec.CourseID))
	}
	return nil
}
