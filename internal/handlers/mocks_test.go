package handlers

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/learnportal/backend/internal/middleware"
	"github.com/learnportal/backend/internal/models"
	"github.com/stretchr/testify/require"
)

// fakeAuth authenticates every request as the given user
func fakeAuth(userID int, role models.Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			next.ServeHTTP(w, r.WithContext(middleware.WithUser(r.Context(), userID, role)))
		})
	}
}

func serve(router chi.Router, method, target string, body io.Reader, headers ...string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, body)
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func jsonBody(s string) io.Reader { return strings.NewReader(s) }

type errorBody struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) errorBody {
	t.Helper()
	var body errorBody
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body
}

// mockAuthService is a mock implementation of AuthService
type mockAuthService struct {
	pair          models.TokenPair
	err           error
	lastRefresh   string
	lastLoginMail string
	adminLogin    bool
}

// mockPasswordResetService is a mock implementation of PasswordResetService
type mockPasswordResetService struct {
	err        error
	lastForgot *models.ForgotPasswordRequest
	lastReset  *models.ResetPasswordRequest
}

func (m *mockPasswordResetService) ForgotPassword(ctx context.Context, req *models.ForgotPasswordRequest) error {
	m.lastForgot = req
	return m.err
}

func (m *mockPasswordResetService) ResetPassword(ctx context.Context, req *models.ResetPasswordRequest) error {
	m.lastReset = req
	return m.err
}

func (m *mockAuthService) Register(ctx context.Context, req *models.RegisterRequest) (models.TokenPair, error) {
	return m.pair, m.err
}

func (m *mockAuthService) Login(ctx context.Context, req *models.LoginRequest) (models.TokenPair, error) {
	m.lastLoginMail = req.Email
	return m.pair, m.err
}

func (m *mockAuthService) AdminLogin(ctx context.Context, req *models.LoginRequest) (models.TokenPair, error) {
	m.lastLoginMail = req.Email
	m.adminLogin = true
	return m.pair, m.err
}

func (m *mockAuthService) Refresh(ctx context.Context, refreshToken string) (models.TokenPair, error) {
	m.lastRefresh = refreshToken
	return m.pair, m.err
}

func (m *mockAuthService) Logout(ctx context.Context, refreshToken string) error {
	m.lastRefresh = refreshToken
	return m.err
}

// mockCourseService is a mock implementation of CourseService and CourseEditor
type mockCourseService struct {
	courses   []models.Course
	course    *models.Course
	mine      []models.MyCourseItem
	err       error
	userID    int
	courseID  int
	curricula *models.ReplaceVideosRequest
}

func (m *mockCourseService) Explore(ctx context.Context) ([]models.Course, error) {
	return m.courses, m.err
}

func (m *mockCourseService) GetCourse(ctx context.Context, courseID int) (*models.Course, error) {
	return m.course, m.err
}

func (m *mockCourseService) MyCourses(ctx context.Context, userID int) ([]models.MyCourseItem, error) {
	m.userID = userID
	return m.mine, m.err
}

func (m *mockCourseService) CreateCourse(ctx context.Context, req *models.CreateCourseRequest) (*models.Course, error) {
	if m.err != nil {
		return nil, m.err
	}
	return &models.Course{ID: 1, Title: req.Title, Instructor: req.Instructor, Price: req.Price}, nil
}

func (m *mockCourseService) AddVideo(ctx context.Context, courseID int, req *models.CreateVideoRequest) (*models.Video, error) {
	if m.err != nil {
		return nil, m.err
	}
	return &models.Video{ID: 1, CourseID: courseID, Title: req.Title, URL: req.URL}, nil
}

func (m *mockCourseService) UpdateCourse(ctx context.Context, courseID int, req *models.CreateCourseRequest) (*models.Course, error) {
	m.courseID = courseID
	if m.err != nil {
		return nil, m.err
	}
	return &models.Course{ID: courseID, Title: req.Title, Instructor: req.Instructor, Price: req.Price}, nil
}

func (m *mockCourseService) DeleteCourse(ctx context.Context, courseID int) error {
	m.courseID = courseID
	return m.err
}

func (m *mockCourseService) ReplaceVideos(ctx context.Context, courseID int, req *models.ReplaceVideosRequest) ([]models.Video, error) {
	m.courseID = courseID
	m.curricula = req
	if m.err != nil {
		return nil, m.err
	}
	videos := make([]models.Video, len(req.Videos))
	for i, v := range req.Videos {
		videos[i] = models.Video{ID: i + 1, CourseID: courseID, Title: v.Title, URL: v.URL, Position: i + 1}
	}
	return videos, nil
}

// mockDashboardService is a mock implementation of DashboardService
type mockDashboardService struct {
	students []models.StudentSummary
	stats    models.DashboardStats
	err      error
}

func (m *mockDashboardService) Students(ctx context.Context) ([]models.StudentSummary, error) {
	return m.students, m.err
}

func (m *mockDashboardService) Dashboard(ctx context.Context) (models.DashboardStats, error) {
	return m.stats, m.err
}

// mockProfileService is a mock implementation of ProfileService
type mockProfileService struct {
	profile    *models.Profile
	avatarPath string
	err        error
	userID     int
	lastUpdate *models.UpdateProfileRequest
	uploaded   []byte
}

func (m *mockProfileService) GetProfile(ctx context.Context, userID int) (*models.Profile, error) {
	m.userID = userID
	return m.profile, m.err
}

func (m *mockProfileService) UpdateProfile(ctx context.Context, userID int, req *models.UpdateProfileRequest) (*models.Profile, error) {
	m.userID = userID
	m.lastUpdate = req
	return m.profile, m.err
}

func (m *mockProfileService) UploadAvatar(ctx context.Context, userID int, r io.Reader) (*models.Profile, error) {
	m.userID = userID
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	m.uploaded = data
	return m.profile, m.err
}

func (m *mockProfileService) Avatar(ctx context.Context, userID int) (*os.File, error) {
	m.userID = userID
	if m.err != nil {
		return nil, m.err
	}
	return os.Open(m.avatarPath)
}

// mockQuizService is a mock implementation of QuizService
type mockQuizService struct {
	quizzes      []models.Quiz
	detail       *models.QuizDetail
	result       *models.QuizResult
	err          error
	userID       int
	courseID     int
	quizID       int
	submissionID int
	lastSubmit   *models.SubmitQuizRequest
	lastCreate   *models.CreateQuizRequest
}

func (m *mockQuizService) ListQuizzes(ctx context.Context, userID, courseID int) ([]models.Quiz, error) {
	m.userID, m.courseID = userID, courseID
	return m.quizzes, m.err
}

func (m *mockQuizService) GetQuiz(ctx context.Context, userID, courseID, quizID int) (*models.QuizDetail, error) {
	m.userID, m.courseID, m.quizID = userID, courseID, quizID
	return m.detail, m.err
}

func (m *mockQuizService) SubmitQuiz(ctx context.Context, userID, courseID, quizID int, req *models.SubmitQuizRequest) (*models.QuizResult, error) {
	m.userID, m.courseID, m.quizID = userID, courseID, quizID
	m.lastSubmit = req
	return m.result, m.err
}

func (m *mockQuizService) QuizResult(ctx context.Context, userID, courseID, quizID, submissionID int) (*models.QuizResult, error) {
	m.userID, m.courseID, m.quizID, m.submissionID = userID, courseID, quizID, submissionID
	return m.result, m.err
}

func (m *mockQuizService) CourseQuizzes(ctx context.Context, courseID int) ([]models.Quiz, error) {
	m.courseID = courseID
	return m.quizzes, m.err
}

func (m *mockQuizService) CreateQuiz(ctx context.Context, courseID int, req *models.CreateQuizRequest) (*models.QuizDetail, error) {
	m.courseID = courseID
	m.lastCreate = req
	return m.detail, m.err
}

func (m *mockQuizService) DeleteQuiz(ctx context.Context, quizID int) error {
	m.quizID = quizID
	return m.err
}

// mockAssignmentService is a mock implementation of AssignmentService
type mockAssignmentService struct {
	assignments  []models.Assignment
	assignment   *models.Assignment
	submission   *models.AssignmentSubmission
	submissions  []models.AssignmentSubmission
	filePath     string
	err          error
	courseID     int
	assignmentID int
	submissionID int
	lastSubmit   *models.SubmitAssignmentRequest
	lastFile     []byte
	lastGrade    *models.GradeRequest
}

func (m *mockAssignmentService) ListAssignments(ctx context.Context, userID, courseID int) ([]models.Assignment, error) {
	m.courseID = courseID
	return m.assignments, m.err
}

func (m *mockAssignmentService) GetAssignment(ctx context.Context, userID, courseID, assignmentID int) (*models.Assignment, error) {
	m.courseID, m.assignmentID = courseID, assignmentID
	return m.assignment, m.err
}

func (m *mockAssignmentService) SubmitAssignment(ctx context.Context, userID, courseID, assignmentID int, req *models.SubmitAssignmentRequest, file io.Reader) (*models.AssignmentSubmission, error) {
	m.courseID, m.assignmentID = courseID, assignmentID
	m.lastSubmit = req
	if file != nil {
		data, err := io.ReadAll(file)
		if err != nil {
			return nil, err
		}
		m.lastFile = data
	}
	return m.submission, m.err
}

func (m *mockAssignmentService) CreateAssignment(ctx context.Context, courseID int, req *models.CreateAssignmentRequest) (*models.Assignment, error) {
	m.courseID = courseID
	return m.assignment, m.err
}

func (m *mockAssignmentService) DeleteAssignment(ctx context.Context, assignmentID int) error {
	m.assignmentID = assignmentID
	return m.err
}

func (m *mockAssignmentService) Submissions(ctx context.Context, assignmentID int) ([]models.AssignmentSubmission, error) {
	m.assignmentID = assignmentID
	return m.submissions, m.err
}

func (m *mockAssignmentService) GradeSubmission(ctx context.Context, submissionID int, req *models.GradeRequest) (*models.AssignmentSubmission, error) {
	m.submissionID = submissionID
	m.lastGrade = req
	return m.submission, m.err
}

func (m *mockAssignmentService) SubmissionFile(ctx context.Context, submissionID int) (*os.File, *models.AssignmentSubmission, error) {
	m.submissionID = submissionID
	if m.err != nil {
		return nil, nil, m.err
	}
	f, err := os.Open(m.filePath)
	if err != nil {
		return nil, nil, err
	}
	return f, m.submission, nil
}

// mockVideoService is a mock implementation of VideoService
type mockVideoService struct {
	videos   []models.Video
	video    *models.Video
	progress models.CourseProgress
	err      error
	courseID int
	videoID  int
}

func (m *mockVideoService) ListVideos(ctx context.Context, userID, courseID int) ([]models.Video, error) {
	m.courseID = courseID
	return m.videos, m.err
}

func (m *mockVideoService) CompleteVideo(ctx context.Context, userID, courseID int, req *models.CompleteVideoRequest) (*models.Video, error) {
	m.courseID = courseID
	m.videoID = req.VideoID
	return m.video, m.err
}

func (m *mockVideoService) SaveCheckpoint(ctx context.Context, userID, courseID int, req *models.CheckpointRequest) (*models.Video, error) {
	m.courseID = courseID
	m.videoID = req.VideoID
	return m.video, m.err
}

func (m *mockVideoService) Progress(ctx context.Context, userID, courseID int) (models.CourseProgress, error) {
	return m.progress, m.err
}

// mockEnrollmentService is a mock implementation of EnrollmentService
type mockEnrollmentService struct {
	record  models.EnrollmentRecord
	err     error
	payload []byte
}

func (m *mockEnrollmentService) Status(ctx context.Context, userID, courseID int) (models.EnrollmentRecord, error) {
	return m.record, m.err
}

func (m *mockEnrollmentService) EnrollFree(ctx context.Context, userID, courseID int) (models.EnrollmentRecord, error) {
	return m.record, m.err
}

func (m *mockEnrollmentService) SubmitPaymentProof(ctx context.Context, userID, courseID int, proof io.Reader) (models.EnrollmentRecord, error) {
	data, err := io.ReadAll(proof)
	if err != nil {
		return models.EnrollmentRecord{}, err
	}
	m.payload = data
	return m.record, m.err
}

// mockPaymentService is a mock implementation of PaymentService
type mockPaymentService struct {
	accounts []models.BankAccount
	err      error
}

func (m *mockPaymentService) BankAccounts(ctx context.Context) ([]models.BankAccount, error) {
	return m.accounts, m.err
}

func (m *mockPaymentService) CreateBankAccount(ctx context.Context, req *models.CreateBankAccountRequest) (*models.BankAccount, error) {
	if m.err != nil {
		return nil, m.err
	}
	return &models.BankAccount{ID: 1, BankName: req.BankName, AccountHolder: req.AccountHolder, AccountNumber: req.AccountNumber}, nil
}

// mockAdminService is a mock implementation of AdminService
type mockAdminService struct {
	items      []models.EnrollmentReviewItem
	record     models.EnrollmentRecord
	proofPath  string
	proof      *models.PaymentProof
	err        error
	lastStatus string
	lastReq    *models.ReviewRequest
}

func (m *mockAdminService) ReviewQueue(ctx context.Context, status string) ([]models.EnrollmentReviewItem, error) {
	m.lastStatus = status
	return m.items, m.err
}

func (m *mockAdminService) Approve(ctx context.Context, enrollmentID int, req *models.ReviewRequest) (models.EnrollmentRecord, error) {
	m.lastReq = req
	return m.record, m.err
}

func (m *mockAdminService) Reject(ctx context.Context, enrollmentID int, req *models.ReviewRequest) (models.EnrollmentRecord, error) {
	m.lastReq = req
	return m.record, m.err
}

func (m *mockAdminService) PaymentProof(ctx context.Context, enrollmentID int) (*os.File, *models.PaymentProof, error) {
	if m.err != nil {
		return nil, nil, m.err
	}
	f, err := os.Open(m.proofPath)
	if err != nil {
		return nil, nil, err
	}
	return f, m.proof, nil
}

// mockCertificateService is a mock implementation of CertificateService
type mockCertificateService struct {
	doc []byte
	err error
}

func (m *mockCertificateService) Generate(ctx context.Context, userID, courseID int) ([]byte, error) {
	return m.doc, m.err
}

// mockPinger is a mock implementation of Pinger
type mockPinger struct {
	err error
}

func (m *mockPinger) PingContext(ctx context.Context) error {
	return m.err
}
