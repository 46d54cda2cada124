// Package lmsclient is the learner-side HTTP client of the platform API
package lmsclient

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/learnportal/backend/internal/apperrors"
	"github.com/learnportal/backend/internal/models"
	"go.uber.org/zap"
)

// Multipart fields the server reads uploads from
const (
	PaymentProofField      = "payment_proof"
	SubmissionContentField = "content"
	SubmissionFileField    = "file"
)

// errorBody is the JSON error shape returned by the API
type errorBody struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

// Client calls the platform API
//
// Requests are never retried. Transport failures are returned as NETWORK_ERROR and
// non-2xx responses are mapped back into the apperrors values the server used.
type Client struct {
	http   *resty.Client
	logger *zap.Logger
}

// New creates a client for the API rooted at baseURL, e.g. http://localhost:8080/api/v1
//
// Session cookies set by the server are kept in the client cookie jar.
func New(baseURL string, timeout time.Duration, logger *zap.Logger) *Client {
	rc := resty.New().
		SetBaseURL(baseURL).
		SetTimeout(timeout).
		SetRetryCount(0).
		SetHeader("Accept", "application/json")
	return &Client{http: rc, logger: logger}
}

// SetToken makes every following request carry the access token as a bearer token
func (c *Client) SetToken(token string) {
	c.http.SetAuthToken(token)
}

// Register creates a learner account and signs the client in
func (c *Client) Register(ctx context.Context, req models.RegisterRequest) (models.TokenPair, error) {
	var pair models.TokenPair
	if err := c.do(ctx, http.MethodPost, "/auth/register", req, &pair); err != nil {
		return models.TokenPair{}, err
	}
	c.SetToken(pair.AccessToken)
	return pair, nil
}

// Login signs the client in
func (c *Client) Login(ctx context.Context, email, password string) (models.TokenPair, error) {
	var pair models.TokenPair
	if err := c.do(ctx, http.MethodPost, "/auth/login", models.LoginRequest{Email: email, Password: password}, &pair); err != nil {
		return models.TokenPair{}, err
	}
	c.SetToken(pair.AccessToken)
	return pair, nil
}

// Explore returns the course catalog
func (c *Client) Explore(ctx context.Context) ([]models.Course, error) {
	var courses []models.Course
	if err := c.do(ctx, http.MethodGet, "/courses/explore", nil, &courses); err != nil {
		return nil, err
	}
	return courses, nil
}

// Course returns a single course
func (c *Client) Course(ctx context.Context, courseID int) (*models.Course, error) {
	var course models.Course
	if err := c.do(ctx, http.MethodGet, fmt.Sprintf("/courses/explore/%d", courseID), nil, &course); err != nil {
		return nil, err
	}
	return &course, nil
}

// MyCourses returns the approved courses of the signed-in learner
func (c *Client) MyCourses(ctx context.Context) ([]models.MyCourseItem, error) {
	var items []models.MyCourseItem
	if err := c.do(ctx, http.MethodGet, "/courses/my", nil, &items); err != nil {
		return nil, err
	}
	return items, nil
}

// EnrollmentStatus returns the enrollment record of the signed-in learner
func (c *Client) EnrollmentStatus(ctx context.Context, courseID int) (models.EnrollmentRecord, error) {
	var record models.EnrollmentRecord
	err := c.do(ctx, http.MethodGet, fmt.Sprintf("/enrollments/%d/status", courseID), nil, &record)
	return record, err
}

// EnrollFree enrolls in a free course
func (c *Client) EnrollFree(ctx context.Context, courseID int) (models.EnrollmentRecord, error) {
	var record models.EnrollmentRecord
	err := c.do(ctx, http.MethodPost, fmt.Sprintf("/enrollments/%d/free", courseID), nil, &record)
	return record, err
}

// SubmitPaymentProof uploads a payment proof for a priced course
func (c *Client) SubmitPaymentProof(ctx context.Context, courseID int, filename string, proof io.Reader) (models.EnrollmentRecord, error) {
	var record models.EnrollmentRecord
	req := c.http.R().
		SetContext(ctx).
		SetFileReader(PaymentProofField, filename, proof).
		SetResult(&record).
		SetError(&errorBody{})
	resp, err := req.Post(fmt.Sprintf("/enrollments/%d/payment-proof", courseID))
	if err := c.check(resp, err); err != nil {
		return models.EnrollmentRecord{}, err
	}
	return record, nil
}

// Videos returns the videos of an approved course in curriculum order
func (c *Client) Videos(ctx context.Context, courseID int) ([]models.Video, error) {
	var videos []models.Video
	if err := c.do(ctx, http.MethodGet, fmt.Sprintf("/courses/%d/videos", courseID), nil, &videos); err != nil {
		return nil, err
	}
	return videos, nil
}

// CompleteVideo marks a video of the course as completed
func (c *Client) CompleteVideo(ctx context.Context, courseID, videoID int) (*models.Video, error) {
	var video models.Video
	body := models.CompleteVideoRequest{VideoID: videoID}
	if err := c.do(ctx, http.MethodPost, fmt.Sprintf("/videos/%d/complete", courseID), body, &video); err != nil {
		return nil, err
	}
	return &video, nil
}

// SaveCheckpoint stores the resume position of a video in seconds
func (c *Client) SaveCheckpoint(ctx context.Context, courseID, videoID, seconds int) (*models.Video, error) {
	var video models.Video
	body := models.CheckpointRequest{VideoID: videoID, Checkpoint: seconds}
	if err := c.do(ctx, http.MethodPut, fmt.Sprintf("/videos/%d/checkpoint", courseID), body, &video); err != nil {
		return nil, err
	}
	return &video, nil
}

// Progress returns the server-computed progress of a course
func (c *Client) Progress(ctx context.Context, courseID int) (models.CourseProgress, error) {
	var p models.CourseProgress
	err := c.do(ctx, http.MethodGet, fmt.Sprintf("/courses/%d/progress", courseID), nil, &p)
	return p, err
}

// Certificate downloads the PDF certificate of a completed course
func (c *Client) Certificate(ctx context.Context, courseID int) ([]byte, error) {
	resp, err := c.http.R().
		SetContext(ctx).
		SetError(&errorBody{}).
		Get(fmt.Sprintf("/courses/%d/certificate", courseID))
	if err := c.check(resp, err); err != nil {
		return nil, err
	}
	return resp.Body(), nil
}

// BankAccounts returns the accounts a course price can be paid into
func (c *Client) BankAccounts(ctx context.Context) ([]models.BankAccount, error) {
	var accounts []models.BankAccount
	if err := c.do(ctx, http.MethodGet, "/payments/bank-accounts", nil, &accounts); err != nil {
		return nil, err
	}
	return accounts, nil
}

// ForgotPassword asks the server to mail a password reset token
func (c *Client) ForgotPassword(ctx context.Context, email string) error {
	return c.do(ctx, http.MethodPost, "/auth/password/forgot", models.ForgotPasswordRequest{Email: email}, nil)
}

// ResetPassword sets a new password with a mailed reset token
func (c *Client) ResetPassword(ctx context.Context, req models.ResetPasswordRequest) error {
	return c.do(ctx, http.MethodPost, "/auth/password/reset", req, nil)
}

// Profile returns the profile of the signed-in learner
func (c *Client) Profile(ctx context.Context) (*models.Profile, error) {
	var p models.Profile
	if err := c.do(ctx, http.MethodGet, "/profile", nil, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

// UpdateProfile replaces the editable profile details
func (c *Client) UpdateProfile(ctx context.Context, req models.UpdateProfileRequest) (*models.Profile, error) {
	var p models.Profile
	if err := c.do(ctx, http.MethodPut, "/profile", req, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

// Quizzes returns the quizzes of an approved course with the best scores of the learner
func (c *Client) Quizzes(ctx context.Context, courseID int) ([]models.Quiz, error) {
	var quizzes []models.Quiz
	if err := c.do(ctx, http.MethodGet, fmt.Sprintf("/courses/%d/quizzes", courseID), nil, &quizzes); err != nil {
		return nil, err
	}
	return quizzes, nil
}

// Quiz returns a quiz with its questions
func (c *Client) Quiz(ctx context.Context, courseID, quizID int) (*models.QuizDetail, error) {
	var quiz models.QuizDetail
	if err := c.do(ctx, http.MethodGet, fmt.Sprintf("/courses/%d/quizzes/%d", courseID, quizID), nil, &quiz); err != nil {
		return nil, err
	}
	return &quiz, nil
}

// SubmitQuiz sends a quiz attempt and returns its score
func (c *Client) SubmitQuiz(ctx context.Context, courseID, quizID int, answers []models.QuizAnswer) (*models.QuizResult, error) {
	var result models.QuizResult
	body := models.SubmitQuizRequest{Answers: answers}
	if err := c.do(ctx, http.MethodPost, fmt.Sprintf("/courses/%d/quizzes/%d/submit", courseID, quizID), body, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// QuizResult returns an earlier attempt of the learner
func (c *Client) QuizResult(ctx context.Context, courseID, quizID, submissionID int) (*models.QuizResult, error) {
	var result models.QuizResult
	path := fmt.Sprintf("/courses/%d/quizzes/%d/submissions/%d", courseID, quizID, submissionID)
	if err := c.do(ctx, http.MethodGet, path, nil, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// Assignments returns the assignments of an approved course with the submissions of the learner
func (c *Client) Assignments(ctx context.Context, courseID int) ([]models.Assignment, error) {
	var assignments []models.Assignment
	if err := c.do(ctx, http.MethodGet, fmt.Sprintf("/courses/%d/assignments", courseID), nil, &assignments); err != nil {
		return nil, err
	}
	return assignments, nil
}

// SubmissionUpload is the file part of an assignment submission
type SubmissionUpload struct {
	Filename string
	Content  io.Reader
}

// SubmitAssignment hands in text content and an optional file
func (c *Client) SubmitAssignment(ctx context.Context, courseID, assignmentID int, content string, file *SubmissionUpload) (*models.AssignmentSubmission, error) {
	var submission models.AssignmentSubmission
	path := fmt.Sprintf("/courses/%d/assignments/%d/submit", courseID, assignmentID)
	if file == nil {
		if err := c.do(ctx, http.MethodPost, path, models.SubmitAssignmentRequest{Content: content}, &submission); err != nil {
			return nil, err
		}
		return &submission, nil
	}

	resp, err := c.http.R().
		SetContext(ctx).
		SetFormData(map[string]string{SubmissionContentField: content}).
		SetFileReader(SubmissionFileField, file.Filename, file.Content).
		SetResult(&submission).
		SetError(&errorBody{}).
		Post(path)
	if err := c.check(resp, err); err != nil {
		return nil, err
	}
	return &submission, nil
}

func (c *Client) do(ctx context.Context, method, path string, body, result any) error {
	req := c.http.R().
		SetContext(ctx).
		SetError(&errorBody{})
	if body != nil {
		req.SetBody(body)
	}
	if result != nil {
		req.SetResult(result)
	}
	resp, err := req.Execute(method, path)
	return c.check(resp, err)
}

// check turns a transport error or a non-2xx response into an *apperrors.Error
func (c *Client) check(resp *resty.Response, err error) error {
	if err != nil {
		c.logger.Debug("api request failed", zap.Error(err))
		return apperrors.Wrap(err, apperrors.ErrNetwork.Code, apperrors.ErrNetwork.Status, apperrors.ErrNetwork.Message)
	}

	c.logger.Debug("api request",
		zap.String("method", resp.Request.Method),
		zap.String("url", resp.Request.URL),
		zap.Int("status", resp.StatusCode()),
		zap.Duration("duration", resp.Time()),
	)
	if !resp.IsError() {
		return nil
	}

	var code, message string
	if body, ok := resp.Error().(*errorBody); ok && body != nil {
		code, message = body.Code, body.Error
	}
	if message == "" {
		message = http.StatusText(resp.StatusCode())
	}
	return apperrors.FromResponse(resp.StatusCode(), code, message)
}
