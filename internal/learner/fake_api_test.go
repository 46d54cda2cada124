package learner

import (
	"context"
	"fmt"
	"io"
	"sync"

	"github.com/learnportal/backend/internal/apperrors"
	"github.com/learnportal/backend/internal/lmsclient"
	"github.com/learnportal/backend/internal/models"
)

// fakeAPI is an in-memory platform backing both EnrollmentAPI and ContentAPI
type fakeAPI struct {
	mu       sync.Mutex
	status   map[int]models.EnrollmentStatus
	videos   map[int][]models.Video
	requests int

	freeStatus  models.EnrollmentStatus // recorded by EnrollFree, approved when empty
	statusErr   error
	videosErr   error
	completeErr error
	proofs      map[int][]byte
	quizzes     map[int][]models.Quiz
	lastAnswers []models.QuizAnswer
	lastContent string
	lastFile    []byte

	// beforeStatusReturn runs after the status was read, outside the lock
	beforeStatusReturn func(call int)
	statusCalls        int
	// beforeEnrollReturn runs after EnrollFree recorded the status, outside the lock
	beforeEnrollReturn func()
}

func newFakeAPI() *fakeAPI {
	return &fakeAPI{
		status: map[int]models.EnrollmentStatus{},
		videos: map[int][]models.Video{},
		proofs:  map[int][]byte{},
		quizzes: map[int][]models.Quiz{},
	}
}

func (f *fakeAPI) withVideos(courseID, count int) *fakeAPI {
	for i := 1; i <= count; i++ {
		f.videos[courseID] = append(f.videos[courseID], models.Video{
			ID:       courseID*100 + i,
			CourseID: courseID,
			Title:    fmt.Sprintf("Lesson %d", i),
			Position: i,
		})
	}
	return f
}

func (f *fakeAPI) setStatus(courseID int, status models.EnrollmentStatus) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.status[courseID] = status
}

func (f *fakeAPI) requestCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.requests
}

func (f *fakeAPI) EnrollmentStatus(ctx context.Context, courseID int) (models.EnrollmentRecord, error) {
	f.mu.Lock()
	f.requests++
	f.statusCalls++
	call := f.statusCalls
	status, ok := f.status[courseID]
	err := f.statusErr
	f.mu.Unlock()

	if f.beforeStatusReturn != nil {
		f.beforeStatusReturn(call)
	}
	if err != nil {
		return models.EnrollmentRecord{}, err
	}
	if !ok {
		status = models.EnrollmentStatusNotEnrolled
	}
	return models.EnrollmentRecord{CourseID: courseID, Status: status}, nil
}

func (f *fakeAPI) EnrollFree(ctx context.Context, courseID int) (models.EnrollmentRecord, error) {
	f.mu.Lock()
	f.requests++
	status := f.freeStatus
	if status == "" {
		status = models.EnrollmentStatusApproved
	}
	f.status[courseID] = status
	f.mu.Unlock()

	if f.beforeEnrollReturn != nil {
		f.beforeEnrollReturn()
	}
	return models.EnrollmentRecord{CourseID: courseID, Status: status}, nil
}

func (f *fakeAPI) SubmitPaymentProof(ctx context.Context, courseID int, filename string, proof io.Reader) (models.EnrollmentRecord, error) {
	data, err := io.ReadAll(proof)
	if err != nil {
		return models.EnrollmentRecord{}, err
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	f.requests++
	f.proofs[courseID] = data
	f.status[courseID] = models.EnrollmentStatusPending
	return models.EnrollmentRecord{CourseID: courseID, Status: models.EnrollmentStatusPending}, nil
}

func (f *fakeAPI) Videos(ctx context.Context, courseID int) ([]models.Video, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.requests++

	if f.videosErr != nil {
		return nil, f.videosErr
	}
	return append([]models.Video(nil), f.videos[courseID]...), nil
}

func (f *fakeAPI) CompleteVideo(ctx context.Context, courseID, videoID int) (*models.Video, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.requests++

	if f.completeErr != nil {
		return nil, f.completeErr
	}
	videos := f.videos[courseID]
	for i := range videos {
		if videos[i].ID == videoID {
			videos[i].Completed = true
			v := videos[i]
			return &v, nil
		}
	}
	return nil, apperrors.Clone(apperrors.ErrInvalidReference, "video does not belong to course")
}

func (f *fakeAPI) Quizzes(ctx context.Context, courseID int) ([]models.Quiz, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.requests++
	return f.quizzes[courseID], nil
}

func (f *fakeAPI) Quiz(ctx context.Context, courseID, quizID int) (*models.QuizDetail, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.requests++
	for _, q := range f.quizzes[courseID] {
		if q.ID == quizID {
			return &models.QuizDetail{Quiz: q}, nil
		}
	}
	return nil, apperrors.Clone(apperrors.ErrNotFound, "quiz not found")
}

func (f *fakeAPI) SubmitQuiz(ctx context.Context, courseID, quizID int, answers []models.QuizAnswer) (*models.QuizResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.requests++
	f.lastAnswers = answers
	return &models.QuizResult{QuizSubmission: models.QuizSubmission{QuizID: quizID, Total: len(answers), Answers: answers}}, nil
}

func (f *fakeAPI) Assignments(ctx context.Context, courseID int) ([]models.Assignment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.requests++
	return []models.Assignment{{ID: 1, CourseID: courseID, Title: "Essay"}}, nil
}

func (f *fakeAPI) SubmitAssignment(ctx context.Context, courseID, assignmentID int, content string, file *lmsclient.SubmissionUpload) (*models.AssignmentSubmission, error) {
	var data []byte
	if file != nil {
		var err error
		if data, err = io.ReadAll(file.Content); err != nil {
			return nil, err
		}
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	f.requests++
	f.lastContent = content
	f.lastFile = data
	return &models.AssignmentSubmission{AssignmentID: assignmentID, Content: content, HasFile: file != nil}, nil
}
