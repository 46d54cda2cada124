package integration

import (
	"bytes"
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	_ "github.com/go-sql-driver/mysql"
	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/mysql"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/learnportal/backend/internal/apperrors"
	"github.com/learnportal/backend/internal/auth"
	"github.com/learnportal/backend/internal/config"
	"github.com/learnportal/backend/internal/handlers"
	"github.com/learnportal/backend/internal/learner"
	"github.com/learnportal/backend/internal/lmsclient"
	"github.com/learnportal/backend/internal/middleware"
	"github.com/learnportal/backend/internal/models"
	"github.com/learnportal/backend/internal/repositories"
	"github.com/learnportal/backend/internal/services"
	"github.com/learnportal/backend/internal/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

const (
	adminEmail    = "admin@learnportal.io"
	adminPassword = "admin-password"
)

var (
	testDB     *sql.DB
	testServer *httptest.Server
	testLogger *zap.Logger
)

var testPNG = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR\x00\x00\x00\x01\x00\x00\x00\x01\x08\x06\x00\x00\x00")

// TestMain sets up and tears down the test environment
func TestMain(m *testing.M) {
	cfg, err := config.LoadTestConfig()
	if err != nil {
		panic(fmt.Sprintf("Failed to load test config: %v", err))
	}
	if cfg.DSN() == "" {
		fmt.Println("TEST_DB_* not set, skipping integration tests")
		os.Exit(0)
	}

	testLogger, err = zap.NewDevelopment()
	if err != nil {
		panic(fmt.Sprintf("Failed to initialize logger: %v", err))
	}

	testDB, err = sql.Open("mysql", cfg.DSN())
	if err != nil {
		panic(fmt.Sprintf("Failed to connect to test database: %v", err))
	}
	if err = testDB.Ping(); err != nil {
		panic(fmt.Sprintf("Failed to ping test database: %v", err))
	}
	if err = migrateUp(testDB); err != nil {
		panic(fmt.Sprintf("Failed to run migrations: %v", err))
	}

	mediaDir, err := os.MkdirTemp("", "learnportal-media")
	if err != nil {
		panic(fmt.Sprintf("Failed to create media dir: %v", err))
	}
	testServer = httptest.NewServer(setupTestRouter(testDB, mediaDir, testLogger))

	code := m.Run()

	testServer.Close()
	_ = os.RemoveAll(mediaDir)
	testDB.Close()
	os.Exit(code)
}

func migrateUp(db *sql.DB) error {
	driver, err := mysql.WithInstance(db, &mysql.Config{MigrationsTable: "learnportal_schema_migrations"})
	if err != nil {
		return err
	}
	m, err := migrate.NewWithDatabaseInstance("file://../../migrations", "mysql", driver)
	if err != nil {
		return err
	}
	if err := m.Up(); err != nil && err != migrate.ErrNoChange {
		return err
	}
	return nil
}

// setupTestRouter wires the API the same way the server binary does, minus rate limiting and metrics
func setupTestRouter(db *sql.DB, mediaDir string, logger *zap.Logger) http.Handler {
	tokens := auth.NewTokenGenerator("integration-secret", time.Hour, 24*time.Hour)

	userRepo := repositories.NewUserRepository(db, logger)
	courseRepo := repositories.NewCourseRepository(db, logger)
	videoRepo := repositories.NewVideoRepository(db, logger)
	enrollmentRepo := repositories.NewEnrollmentRepository(db, logger)
	proofRepo := repositories.NewPaymentProofRepository(db)
	tokenRepo := repositories.NewUserTokenRepository(db)
	media := storage.NewLocalStorage(mediaDir)
	proofStorage := media.In(storage.ProofDir)
	notifications := services.NewNotificationService(nil, "", logger)

	authService := services.NewAuthService(userRepo, tokenRepo, tokens, logger)
	resetService := services.NewPasswordResetService(userRepo, repositories.NewPasswordResetRepository(db), tokenRepo, notifications, logger)
	courseService := services.NewCourseService(courseRepo, videoRepo, logger)
	videoService := services.NewVideoService(videoRepo, enrollmentRepo, courseRepo, logger)
	paymentService := services.NewPaymentService(repositories.NewBankAccountRepository(db), logger)
	adminService := services.NewAdminService(enrollmentRepo, proofRepo, courseRepo, userRepo, proofStorage, notifications, logger)
	dashboardService := services.NewDashboardService(userRepo, repositories.NewDashboardRepository(db), enrollmentRepo, logger)
	quizHandler := handlers.NewQuizHandler(services.NewQuizService(repositories.NewQuizRepository(db, logger), courseRepo, enrollmentRepo, logger), logger)
	assignmentHandler := handlers.NewAssignmentHandler(services.NewAssignmentService(repositories.NewAssignmentRepository(db, logger), courseRepo, enrollmentRepo,
		media.In(storage.SubmissionDir), logger), logger)

	authMiddleware := middleware.AuthMiddleware(tokens)

	r := chi.NewRouter()
	r.Use(middleware.RequestIDMiddleware)
	r.Use(middleware.RecoveryMiddleware(logger))
	r.Route("/api/v1", func(r chi.Router) {
		handlers.NewAuthHandler(authService, resetService, handlers.CookieSettings{
			AccessTokenExpiry:  time.Hour,
			RefreshTokenExpiry: 24 * time.Hour,
		}, logger).RegisterRoutes(r)
		handlers.NewPaymentHandler(paymentService, logger).RegisterRoutes(r)
		handlers.NewCourseHandler(courseService, logger).RegisterRoutes(r, authMiddleware)
		handlers.NewVideoHandler(videoService, logger).RegisterRoutes(r, authMiddleware)
		handlers.NewCertificateHandler(services.NewCertificateService(videoService, courseRepo, userRepo, logger), logger).
			RegisterRoutes(r, authMiddleware)
		handlers.NewEnrollmentHandler(services.NewEnrollmentService(enrollmentRepo, courseRepo, proofRepo, proofStorage, logger), logger).
			RegisterRoutes(r, authMiddleware)
		handlers.NewProfileHandler(services.NewProfileService(userRepo, media.In(storage.AvatarDir), logger), logger).
			RegisterRoutes(r, authMiddleware)
		quizHandler.RegisterRoutes(r, authMiddleware)
		assignmentHandler.RegisterRoutes(r, authMiddleware)
		r.Group(func(r chi.Router) {
			r.Use(authMiddleware, middleware.RoleMiddleware(models.RoleAdmin))
			handlers.NewAdminHandler(adminService, courseService, paymentService, dashboardService, logger).RegisterRoutes(r)
			quizHandler.RegisterAdminRoutes(r)
			assignmentHandler.RegisterAdminRoutes(r)
		})
	})
	return r
}

// resetData empties every table and creates the administrator account
func resetData(t *testing.T) {
	t.Helper()
	for _, table := range []string{
		"assignment_submissions", "assignments", "quiz_submissions", "quiz_questions", "quizzes",
		"enrollments", "payment_proofs", "video_completions", "videos", "courses", "bank_accounts",
		"password_resets", "user_tokens", "users",
	} {
		_, err := testDB.Exec("DELETE FROM " + table)
		require.NoError(t, err, "Failed to clear %s", table)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(adminPassword), bcrypt.MinCost)
	require.NoError(t, err)
	_, err = testDB.Exec(`INSERT INTO users (name, email, password_hash, role) VALUES (?, ?, ?, ?)`,
		"Admin", adminEmail, string(hash), int(models.RoleAdmin))
	require.NoError(t, err)
}

func newClient() *lmsclient.Client {
	return lmsclient.New(testServer.URL+"/api/v1", 5*time.Second, testLogger)
}

func registerLearner(t *testing.T, email string) *lmsclient.Client {
	t.Helper()
	c := newClient()
	_, err := c.Register(context.Background(), models.RegisterRequest{Name: "Ada", Email: email, Password: "learner-password"})
	require.NoError(t, err)
	return c
}

// seedCourse inserts a course and its videos directly and returns the course
func seedCourse(t *testing.T, price *float64, videos int) models.Course {
	t.Helper()
	res, err := testDB.Exec(`INSERT INTO courses (title, description, instructor, price) VALUES (?, ?, ?, ?)`,
		"Concurrency in Go", "Goroutines and channels", "Rob", price)
	require.NoError(t, err)
	id, err := res.LastInsertId()
	require.NoError(t, err)

	for i := 1; i <= videos; i++ {
		_, err := testDB.Exec(`INSERT INTO videos (course_id, title, url, position) VALUES (?, ?, ?, ?)`,
			id, fmt.Sprintf("Lesson %d", i), fmt.Sprintf("https://cdn.learnportal.io/%d/%d.mp4", id, i), i)
		require.NoError(t, err)
	}
	return models.Course{ID: int(id), Title: "Concurrency in Go", Price: price}
}

func pendingEnrollmentID(t *testing.T, courseID int) int {
	t.Helper()
	var id int
	err := testDB.QueryRow(`SELECT id FROM enrollments WHERE course_id = ? AND status = 'pending'`, courseID).Scan(&id)
	require.NoError(t, err)
	return id
}

// approve reviews an enrollment as the administrator
func approve(t *testing.T, enrollmentID int) {
	t.Helper()
	req, err := http.NewRequest(http.MethodPost,
		fmt.Sprintf("%s/api/v1/admin/enrollments/%d/approve", testServer.URL, enrollmentID), bytes.NewReader(nil))
	require.NoError(t, err)
	req.Header.Set("Authorization", "Bearer "+adminToken(t))

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
}

func adminToken(t *testing.T) string {
	t.Helper()
	pair, err := newClient().Login(context.Background(), adminEmail, adminPassword)
	require.NoError(t, err)
	return pair.AccessToken
}

func TestIntegration_PricedCourseFlow(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration tests in short mode")
	}
	resetData(t)

	price := 49.99
	course := seedCourse(t, &price, 4)
	client := registerLearner(t, "ada@example.com")
	ctx := context.Background()

	store := learner.NewStore()
	machine := learner.NewEnrollmentMachine(client, store, testLogger)
	tracker := learner.NewProgressTracker(client, store, testLogger)

	rec, err := machine.CheckStatus(ctx, course.ID)
	require.NoError(t, err)
	assert.Equal(t, models.EnrollmentStatusNotEnrolled, rec.Status)

	_, err = machine.EnrollFree(ctx, course)
	require.Error(t, err)
	assert.Equal(t, apperrors.ErrInvalidStateTransition.Code, apperrors.FromError(err).Code)

	rec, err = machine.SubmitPaymentProof(ctx, course, learner.PaymentProofUpload{Filename: "receipt.png", Content: testPNG})
	require.NoError(t, err)
	assert.Equal(t, models.EnrollmentStatusPending, rec.Status)

	// The server agrees and refuses a second proof.
	_, err = client.SubmitPaymentProof(ctx, course.ID, "again.png", bytes.NewReader(testPNG))
	require.Error(t, err)
	assert.Equal(t, apperrors.ErrInvalidStateTransition.Code, apperrors.FromError(err).Code)

	// Content stays locked while pending, on the client and on the server.
	_, err = tracker.LoadVideos(ctx, course.ID)
	assert.Equal(t, apperrors.ErrAccessDenied.Code, apperrors.FromError(err).Code)
	_, err = client.Videos(ctx, course.ID)
	assert.Equal(t, apperrors.ErrAccessDenied.Code, apperrors.FromError(err).Code)

	approve(t, pendingEnrollmentID(t, course.ID))

	rec, err = machine.CheckStatus(ctx, course.ID)
	require.NoError(t, err)
	assert.Equal(t, models.EnrollmentStatusApproved, rec.Status)

	videos, err := tracker.LoadVideos(ctx, course.ID)
	require.NoError(t, err)
	require.Len(t, videos, 4)
	assert.Zero(t, tracker.Progress(course.ID))

	for _, i := range []int{0, 2} {
		_, err := tracker.MarkCompleted(ctx, course.ID, videos[i].ID)
		require.NoError(t, err)
	}
	assert.Equal(t, 50, tracker.Progress(course.ID))

	// Marking again changes nothing.
	_, err = tracker.MarkCompleted(ctx, course.ID, videos[0].ID)
	require.NoError(t, err)
	assert.Equal(t, 50, tracker.Progress(course.ID))

	next, ok := tracker.NextUnwatched(course.ID, videos[3].ID)
	require.True(t, ok)
	assert.Equal(t, videos[1].ID, next.ID)

	_, err = client.Certificate(ctx, course.ID)
	assert.Equal(t, apperrors.ErrAccessDenied.Code, apperrors.FromError(err).Code)

	for _, i := range []int{1, 3} {
		_, err := tracker.MarkCompleted(ctx, course.ID, videos[i].ID)
		require.NoError(t, err)
	}
	assert.Equal(t, 100, tracker.Progress(course.ID))
	assert.True(t, tracker.CertificateAvailable(course.ID))

	pdf, err := client.Certificate(ctx, course.ID)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(pdf, []byte("%PDF")))

	mine, err := client.MyCourses(ctx)
	require.NoError(t, err)
	require.Len(t, mine, 1)
	assert.Equal(t, 100, mine[0].Progress)
}

func TestIntegration_FreeCourseAndCrossCourseVideo(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration tests in short mode")
	}
	resetData(t)

	free := seedCourse(t, nil, 2)
	other := seedCourse(t, nil, 1)
	client := registerLearner(t, "grace@example.com")
	ctx := context.Background()

	store := learner.NewStore()
	machine := learner.NewEnrollmentMachine(client, store, testLogger)
	tracker := learner.NewProgressTracker(client, store, testLogger)

	_, err := machine.CheckStatus(ctx, free.ID)
	require.NoError(t, err)
	rec, err := machine.EnrollFree(ctx, free)
	require.NoError(t, err)
	assert.Equal(t, models.EnrollmentStatusApproved, rec.Status)
	assert.True(t, machine.CanAccessContent(free.ID))

	_, err = tracker.LoadVideos(ctx, free.ID)
	require.NoError(t, err)

	var otherVideo int
	require.NoError(t, testDB.QueryRow(`SELECT id FROM videos WHERE course_id = ?`, other.ID).Scan(&otherVideo))

	_, err = client.CompleteVideo(ctx, free.ID, otherVideo)
	require.Error(t, err)
	assert.Equal(t, apperrors.ErrInvalidReference.Code, apperrors.FromError(err).Code)
	assert.Zero(t, tracker.Progress(free.ID))
}
