package services

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/learnportal/backend/internal/apperrors"
	"github.com/learnportal/backend/internal/models"
	"gopkg.in/mail.v2"
)

// mockUserRepository is a mock implementation of UserRepository
type mockUserRepository struct {
	users     map[int]*models.User
	createErr error
	getErr    error
}

func newMockUserRepository(users ...*models.User) *mockUserRepository {
	m := &mockUserRepository{users: map[int]*models.User{}}
	for _, u := range users {
		m.users[u.ID] = u
	}
	return m
}

func (m *mockUserRepository) Create(ctx context.Context, user *models.User) error {
	if m.createErr != nil {
		return m.createErr
	}
	user.ID = len(m.users) + 1
	m.users[user.ID] = user
	return nil
}

func (m *mockUserRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	if m.getErr != nil {
		return nil, m.getErr
	}
	for _, u := range m.users {
		if u.Email == email {
			return u, nil
		}
	}
	return nil, apperrors.Clone(apperrors.ErrNotFound, "user not found")
}

func (m *mockUserRepository) GetByID(ctx context.Context, id int) (*models.User, error) {
	if m.getErr != nil {
		return nil, m.getErr
	}
	if u, ok := m.users[id]; ok {
		return u, nil
	}
	return nil, apperrors.Clone(apperrors.ErrNotFound, "user not found")
}

func (m *mockUserRepository) UpdatePassword(ctx context.Context, id int, passwordHash string) error {
	if m.createErr != nil {
		return m.createErr
	}
	u, ok := m.users[id]
	if !ok {
		return apperrors.Clone(apperrors.ErrNotFound, "user not found")
	}
	u.PasswordHash = passwordHash
	return nil
}

// mockUserTokenRepository is a mock implementation of UserTokenRepository
type mockUserTokenRepository struct {
	tokens    map[string]*models.UserToken
	err       error
	updateErr error
}

func newMockUserTokenRepository() *mockUserTokenRepository {
	return &mockUserTokenRepository{tokens: map[string]*models.UserToken{}}
}

func (m *mockUserTokenRepository) Create(ctx context.Context, userToken *models.UserToken) error {
	if m.err != nil {
		return m.err
	}
	m.tokens[userToken.Token] = userToken
	return nil
}

func (m *mockUserTokenRepository) GetByToken(ctx context.Context, token string) (*models.UserToken, error) {
	if m.err != nil {
		return nil, m.err
	}
	if t, ok := m.tokens[token]; ok {
		return t, nil
	}
	return nil, apperrors.Clone(apperrors.ErrNotFound, "token not found")
}

func (m *mockUserTokenRepository) UpdateToken(ctx context.Context, oldToken, newToken string, userID int) error {
	if m.updateErr != nil {
		return m.updateErr
	}
	t, ok := m.tokens[oldToken]
	if !ok || t.UserID != userID {
		return apperrors.Clone(apperrors.ErrNotFound, "token not found")
	}
	delete(m.tokens, oldToken)
	m.tokens[newToken] = &models.UserToken{UserID: userID, Token: newToken}
	return nil
}

func (m *mockUserTokenRepository) DeleteByToken(ctx context.Context, token string) error {
	if m.err != nil {
		return m.err
	}
	delete(m.tokens, token)
	return nil
}

func (m *mockUserTokenRepository) DeleteByUser(ctx context.Context, userID int) error {
	if m.err != nil {
		return m.err
	}
	for token, t := range m.tokens {
		if t.UserID == userID {
			delete(m.tokens, token)
		}
	}
	return nil
}

// mockTokenIssuer is a mock implementation of TokenIssuer returning numbered tokens
type mockTokenIssuer struct {
	issued      int
	generateErr error
	validateErr error
}

func (m *mockTokenIssuer) GenerateTokens(userID int, role int) (string, string, error) {
	if m.generateErr != nil {
		return "", "", m.generateErr
	}
	m.issued++
	return fmt.Sprintf("access-%d-%d-%d", userID, role, m.issued), fmt.Sprintf("refresh-%d-%d", userID, m.issued), nil
}

func (m *mockTokenIssuer) ValidateRefreshToken(token string) error {
	return m.validateErr
}

// mockCourseRepository is a mock implementation of CourseRepository
type mockCourseRepository struct {
	courses      map[int]*models.Course
	enrolled     []models.EnrolledCourse
	withLearners map[int]bool
	err          error
}

func newMockCourseRepository(courses ...models.Course) *mockCourseRepository {
	m := &mockCourseRepository{courses: map[int]*models.Course{}}
	for i := range courses {
		c := courses[i]
		m.courses[c.ID] = &c
	}
	return m
}

func (m *mockCourseRepository) List(ctx context.Context) ([]models.Course, error) {
	if m.err != nil {
		return nil, m.err
	}
	ids := make([]int, 0, len(m.courses))
	for id := range m.courses {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	out := make([]models.Course, 0, len(ids))
	for _, id := range ids {
		out = append(out, *m.courses[id])
	}
	return out, nil
}

func (m *mockCourseRepository) GetByID(ctx context.Context, id int) (*models.Course, error) {
	if m.err != nil {
		return nil, m.err
	}
	if c, ok := m.courses[id]; ok {
		copied := *c
		return &copied, nil
	}
	return nil, apperrors.Clone(apperrors.ErrNotFound, "course not found")
}

func (m *mockCourseRepository) Create(ctx context.Context, course *models.Course) error {
	if m.err != nil {
		return m.err
	}
	course.ID = len(m.courses) + 1
	m.courses[course.ID] = course
	return nil
}

func (m *mockCourseRepository) ListEnrolled(ctx context.Context, userID int) ([]models.EnrolledCourse, error) {
	return m.enrolled, m.err
}

func (m *mockCourseRepository) Update(ctx context.Context, course *models.Course) error {
	if m.err != nil {
		return m.err
	}
	copied := *course
	m.courses[course.ID] = &copied
	return nil
}

func (m *mockCourseRepository) DeleteUnenrolled(ctx context.Context, id int) (bool, error) {
	if m.err != nil {
		return false, m.err
	}
	if _, ok := m.courses[id]; !ok || m.withLearners[id] {
		return false, nil
	}
	delete(m.courses, id)
	return true, nil
}

// mockVideoRepository is a mock implementation of VideoRepository and VideoWriter for a single learner
type mockVideoRepository struct {
	videos      []*models.Video
	markCalls int
	err       error
	markErr   error
}

func (m *mockVideoRepository) ListByCourse(ctx context.Context, courseID, userID int) ([]models.Video, error) {
	if m.err != nil {
		return nil, m.err
	}
	out := []models.Video{}
	for _, v := range m.videos {
		if v.CourseID == courseID {
			out = append(out, *v)
		}
	}
	return out, nil
}

func (m *mockVideoRepository) GetByID(ctx context.Context, id, userID int) (*models.Video, error) {
	if m.err != nil {
		return nil, m.err
	}
	for _, v := range m.videos {
		if v.ID == id {
			copied := *v
			return &copied, nil
		}
	}
	return nil, apperrors.Clone(apperrors.ErrNotFound, "video not found")
}

func (m *mockVideoRepository) MarkCompleted(ctx context.Context, userID, videoID int) error {
	m.markCalls++
	if m.markErr != nil {
		return m.markErr
	}
	for _, v := range m.videos {
		if v.ID == videoID {
			v.Completed = true
		}
	}
	return nil
}

func (m *mockVideoRepository) SaveCheckpoint(ctx context.Context, userID, videoID, checkpoint int) error {
	if m.markErr != nil {
		return m.markErr
	}
	for _, v := range m.videos {
		if v.ID == videoID {
			v.Checkpoint = checkpoint
		}
	}
	return nil
}

func (m *mockVideoRepository) Create(ctx context.Context, video *models.Video) error {
	if m.err != nil {
		return m.err
	}
	video.ID = len(m.videos) + 1
	m.videos = append(m.videos, video)
	return nil
}

func (m *mockVideoRepository) ReplaceCurriculum(ctx context.Context, courseID int, entries []models.CurriculumVideo) ([]models.Video, error) {
	if m.err != nil {
		return nil, m.err
	}
	owned := map[int]*models.Video{}
	for _, v := range m.videos {
		if v.CourseID == courseID {
			owned[v.ID] = v
		}
	}

	kept := []*models.Video{}
	out := make([]models.Video, 0, len(entries))
	nextID := len(m.videos) + 1
	for i, e := range entries {
		v := &models.Video{ID: e.ID, CourseID: courseID, Title: e.Title, Duration: e.Duration, URL: e.URL, Position: i + 1}
		if e.ID != 0 {
			old, ok := owned[e.ID]
			if !ok {
				return nil, apperrors.Clone(apperrors.ErrInvalidReference, "video does not belong to course")
			}
			v.Completed = old.Completed
		} else {
			v.ID = nextID
			nextID++
		}
		kept = append(kept, v)
		out = append(out, *v)
	}

	rest := []*models.Video{}
	for _, v := range m.videos {
		if v.CourseID != courseID {
			rest = append(rest, v)
		}
	}
	m.videos = append(rest, kept...)
	return out, nil
}

// mockEnrollmentRepository is a mock implementation of EnrollmentRepository
type mockEnrollmentRepository struct {
	rows      map[int]*models.Enrollment
	getErr    error
	createErr error
	updateErr error
	updates   int
}

func newMockEnrollmentRepository(rows ...models.Enrollment) *mockEnrollmentRepository {
	m := &mockEnrollmentRepository{rows: map[int]*models.Enrollment{}}
	for i := range rows {
		e := rows[i]
		m.rows[e.ID] = &e
	}
	return m
}

func (m *mockEnrollmentRepository) GetByUserAndCourse(ctx context.Context, userID, courseID int) (*models.Enrollment, error) {
	if m.getErr != nil {
		return nil, m.getErr
	}
	for _, e := range m.rows {
		if e.UserID == userID && e.CourseID == courseID {
			copied := *e
			return &copied, nil
		}
	}
	return nil, apperrors.Clone(apperrors.ErrNotFound, "enrollment not found")
}

func (m *mockEnrollmentRepository) GetByID(ctx context.Context, id int) (*models.Enrollment, error) {
	if m.getErr != nil {
		return nil, m.getErr
	}
	if e, ok := m.rows[id]; ok {
		copied := *e
		return &copied, nil
	}
	return nil, apperrors.Clone(apperrors.ErrNotFound, "enrollment not found")
}

func (m *mockEnrollmentRepository) Create(ctx context.Context, e *models.Enrollment) error {
	if m.createErr != nil {
		return m.createErr
	}
	for _, existing := range m.rows {
		if existing.UserID == e.UserID && existing.CourseID == e.CourseID {
			return apperrors.Clone(apperrors.ErrInvalidStateTransition, "already enrolled")
		}
	}
	e.ID = len(m.rows) + 100
	copied := *e
	m.rows[e.ID] = &copied
	return nil
}

func (m *mockEnrollmentRepository) UpdateStatus(ctx context.Context, id int, from, to models.EnrollmentStatus, message string) error {
	m.updates++
	if m.updateErr != nil {
		return m.updateErr
	}
	e, ok := m.rows[id]
	if !ok || e.Status != from {
		return apperrors.Clone(apperrors.ErrInvalidStateTransition, "status changed")
	}
	e.Status = to
	e.Message = message
	return nil
}

func (m *mockEnrollmentRepository) ListByStatus(ctx context.Context, status models.EnrollmentStatus) ([]models.EnrollmentReviewItem, error) {
	if m.getErr != nil {
		return nil, m.getErr
	}
	items := []models.EnrollmentReviewItem{}
	for _, e := range m.rows {
		if e.Status == status {
			items = append(items, models.EnrollmentReviewItem{ID: e.ID, UserID: e.UserID, CourseID: e.CourseID, Status: e.Status, ProofID: e.ProofID})
		}
	}
	return items, nil
}

// mockPaymentProofRepository is a mock implementation of PaymentProofRepository
type mockPaymentProofRepository struct {
	proofs    map[string]*models.PaymentProof
	createErr error
}

func newMockPaymentProofRepository() *mockPaymentProofRepository {
	return &mockPaymentProofRepository{proofs: map[string]*models.PaymentProof{}}
}

func (m *mockPaymentProofRepository) Create(ctx context.Context, p *models.PaymentProof) error {
	if m.createErr != nil {
		return m.createErr
	}
	m.proofs[p.ID] = p
	return nil
}

func (m *mockPaymentProofRepository) GetByID(ctx context.Context, id string) (*models.PaymentProof, error) {
	if p, ok := m.proofs[id]; ok {
		return p, nil
	}
	return nil, apperrors.Clone(apperrors.ErrNotFound, "payment proof not found")
}

func (m *mockPaymentProofRepository) Delete(ctx context.Context, id string) error {
	delete(m.proofs, id)
	return nil
}

// mockNotifier is a mock implementation of Notifier
type mockNotifier struct {
	decisions []EnrollmentDecision
	err       error
}

func (m *mockNotifier) NotifyEnrollmentDecision(ctx context.Context, d EnrollmentDecision) error {
	m.decisions = append(m.decisions, d)
	return m.err
}

// mockMailSender is a mock implementation of MailSender
type mockMailSender struct {
	messages []*mail.Message
	err      error
}

func (m *mockMailSender) DialAndSend(msgs ...*mail.Message) error {
	m.messages = append(m.messages, msgs...)
	return m.err
}

// mockProgressReader is a mock implementation of ProgressReader
type mockProgressReader struct {
	progress models.CourseProgress
	err      error
}

func (m *mockProgressReader) Progress(ctx context.Context, userID, courseID int) (models.CourseProgress, error) {
	return m.progress, m.err
}

// mockBankAccountRepository is a mock implementation of BankAccountRepository
type mockBankAccountRepository struct {
	accounts []models.BankAccount
	err      error
}

func (m *mockBankAccountRepository) List(ctx context.Context) ([]models.BankAccount, error) {
	return m.accounts, m.err
}

func (m *mockBankAccountRepository) Create(ctx context.Context, a *models.BankAccount) error {
	if m.err != nil {
		return m.err
	}
	a.ID = len(m.accounts) + 1
	m.accounts = append(m.accounts, *a)
	return nil
}

// mockPasswordResetRepository is a mock implementation of PasswordResetRepository
type mockPasswordResetRepository struct {
	resets    map[string]*models.PasswordReset
	createErr error
	deleteErr error
}

func newMockPasswordResetRepository(resets ...models.PasswordReset) *mockPasswordResetRepository {
	m := &mockPasswordResetRepository{resets: map[string]*models.PasswordReset{}}
	for i := range resets {
		r := resets[i]
		m.resets[r.TokenHash] = &r
	}
	return m
}

func (m *mockPasswordResetRepository) Create(ctx context.Context, reset *models.PasswordReset) error {
	if m.createErr != nil {
		return m.createErr
	}
	m.resets[reset.TokenHash] = reset
	return nil
}

func (m *mockPasswordResetRepository) GetByHash(ctx context.Context, tokenHash string) (*models.PasswordReset, error) {
	if r, ok := m.resets[tokenHash]; ok {
		return r, nil
	}
	return nil, apperrors.Clone(apperrors.ErrNotFound, "reset token not found")
}

func (m *mockPasswordResetRepository) DeleteByUser(ctx context.Context, userID int) error {
	if m.deleteErr != nil {
		return m.deleteErr
	}
	for hash, r := range m.resets {
		if r.UserID == userID {
			delete(m.resets, hash)
		}
	}
	return nil
}

// mockResetMailer is a mock implementation of ResetMailer
type mockResetMailer struct {
	sent []PasswordResetMail
	err  error
}

func (m *mockResetMailer) SendPasswordReset(ctx context.Context, mail PasswordResetMail) error {
	m.sent = append(m.sent, mail)
	return m.err
}

// mockProfileRepository is a mock implementation of ProfileRepository
type mockProfileRepository struct {
	profiles  map[int]*models.Profile
	updateErr error
	avatarErr error
}

func newMockProfileRepository(profiles ...models.Profile) *mockProfileRepository {
	m := &mockProfileRepository{profiles: map[int]*models.Profile{}}
	for i := range profiles {
		p := profiles[i]
		m.profiles[p.ID] = &p
	}
	return m
}

func (m *mockProfileRepository) GetProfile(ctx context.Context, id int) (*models.Profile, error) {
	if p, ok := m.profiles[id]; ok {
		copied := *p
		return &copied, nil
	}
	return nil, apperrors.Clone(apperrors.ErrNotFound, "user not found")
}

func (m *mockProfileRepository) UpdateProfile(ctx context.Context, id int, req *models.UpdateProfileRequest) error {
	if m.updateErr != nil {
		return m.updateErr
	}
	p, ok := m.profiles[id]
	if !ok {
		return apperrors.Clone(apperrors.ErrNotFound, "user not found")
	}
	p.Name, p.Email, p.Bio, p.Phone, p.Address = req.Name, req.Email, req.Bio, req.Phone, req.Address
	return nil
}

func (m *mockProfileRepository) SetAvatar(ctx context.Context, id int, avatar string) error {
	if m.avatarErr != nil {
		return m.avatarErr
	}
	p := m.profiles[id]
	p.Avatar = avatar
	p.HasAvatar = avatar != ""
	return nil
}

func priced(v float64) *float64 { return &v }

// mockQuizRepository is a mock implementation of QuizRepository
type mockQuizRepository struct {
	quizzes     map[int]*models.QuizDetail
	submissions map[int]*models.QuizSubmission
	err         error
}

func newMockQuizRepository(quizzes ...models.QuizDetail) *mockQuizRepository {
	m := &mockQuizRepository{quizzes: map[int]*models.QuizDetail{}, submissions: map[int]*models.QuizSubmission{}}
	for i := range quizzes {
		q := quizzes[i]
		m.quizzes[q.ID] = &q
	}
	return m
}

func (m *mockQuizRepository) ListByCourse(ctx context.Context, courseID, userID int) ([]models.Quiz, error) {
	if m.err != nil {
		return nil, m.err
	}
	ids := []int{}
	for id, q := range m.quizzes {
		if q.CourseID == courseID {
			ids = append(ids, id)
		}
	}
	sort.Ints(ids)
	out := make([]models.Quiz, 0, len(ids))
	for _, id := range ids {
		out = append(out, m.quizzes[id].Quiz)
	}
	return out, nil
}

func (m *mockQuizRepository) GetDetail(ctx context.Context, quizID, userID int) (*models.QuizDetail, error) {
	if m.err != nil {
		return nil, m.err
	}
	q, ok := m.quizzes[quizID]
	if !ok {
		return nil, apperrors.Clone(apperrors.ErrNotFound, "quiz not found")
	}
	copied := *q
	copied.Questions = make([]models.QuizQuestion, len(q.Questions))
	for i, question := range q.Questions {
		if question.CorrectOption != nil {
			correct := *question.CorrectOption
			question.CorrectOption = &correct
		}
		copied.Questions[i] = question
	}
	return &copied, nil
}

func (m *mockQuizRepository) Create(ctx context.Context, quiz *models.QuizDetail) error {
	if m.err != nil {
		return m.err
	}
	quiz.ID = len(m.quizzes) + 1
	for i := range quiz.Questions {
		quiz.Questions[i].ID = quiz.ID*100 + i
		quiz.Questions[i].QuizID = quiz.ID
		quiz.Questions[i].Position = i + 1
	}
	quiz.QuestionCount = len(quiz.Questions)
	m.quizzes[quiz.ID] = quiz
	return nil
}

func (m *mockQuizRepository) Delete(ctx context.Context, quizID int) error {
	if _, ok := m.quizzes[quizID]; !ok {
		return apperrors.Clone(apperrors.ErrNotFound, "quiz not found")
	}
	delete(m.quizzes, quizID)
	return nil
}

func (m *mockQuizRepository) CreateSubmission(ctx context.Context, s *models.QuizSubmission) error {
	if m.err != nil {
		return m.err
	}
	s.ID = len(m.submissions) + 1
	copied := *s
	m.submissions[s.ID] = &copied
	return nil
}

func (m *mockQuizRepository) GetSubmission(ctx context.Context, id int) (*models.QuizSubmission, error) {
	if s, ok := m.submissions[id]; ok {
		copied := *s
		return &copied, nil
	}
	return nil, apperrors.Clone(apperrors.ErrNotFound, "submission not found")
}

// mockAssignmentRepository is a mock implementation of AssignmentRepository
type mockAssignmentRepository struct {
	assignments map[int]*models.Assignment
	submissions map[int]*models.AssignmentSubmission
	saveErr     error
}

func newMockAssignmentRepository(assignments ...models.Assignment) *mockAssignmentRepository {
	m := &mockAssignmentRepository{assignments: map[int]*models.Assignment{}, submissions: map[int]*models.AssignmentSubmission{}}
	for i := range assignments {
		a := assignments[i]
		m.assignments[a.ID] = &a
	}
	return m
}

func (m *mockAssignmentRepository) withSubmission(a models.Assignment, userID int) models.Assignment {
	for _, s := range m.submissions {
		if s.AssignmentID == a.ID && s.UserID == userID {
			copied := *s
			a.Submission = &copied
			a.Submitted = true
		}
	}
	return a
}

func (m *mockAssignmentRepository) ListByCourse(ctx context.Context, courseID, userID int) ([]models.Assignment, error) {
	ids := []int{}
	for id, a := range m.assignments {
		if a.CourseID == courseID {
			ids = append(ids, id)
		}
	}
	sort.Ints(ids)
	out := make([]models.Assignment, 0, len(ids))
	for _, id := range ids {
		out = append(out, m.withSubmission(*m.assignments[id], userID))
	}
	return out, nil
}

func (m *mockAssignmentRepository) GetByID(ctx context.Context, id, userID int) (*models.Assignment, error) {
	a, ok := m.assignments[id]
	if !ok {
		return nil, apperrors.Clone(apperrors.ErrNotFound, "assignment not found")
	}
	out := m.withSubmission(*a, userID)
	return &out, nil
}

func (m *mockAssignmentRepository) Create(ctx context.Context, a *models.Assignment) error {
	a.ID = len(m.assignments) + 1
	copied := *a
	m.assignments[a.ID] = &copied
	return nil
}

func (m *mockAssignmentRepository) Delete(ctx context.Context, id int) ([]string, error) {
	if _, ok := m.assignments[id]; !ok {
		return nil, apperrors.Clone(apperrors.ErrNotFound, "assignment not found")
	}
	files := []string{}
	for sid, s := range m.submissions {
		if s.AssignmentID == id {
			if s.FileID != nil {
				files = append(files, *s.FileID)
			}
			delete(m.submissions, sid)
		}
	}
	delete(m.assignments, id)
	return files, nil
}

func (m *mockAssignmentRepository) SaveSubmission(ctx context.Context, s *models.AssignmentSubmission) error {
	if m.saveErr != nil {
		return m.saveErr
	}
	s.ID = len(m.submissions) + 1
	for id, existing := range m.submissions {
		if existing.AssignmentID == s.AssignmentID && existing.UserID == s.UserID {
			s.ID = id
		}
	}
	copied := *s
	m.submissions[s.ID] = &copied
	return nil
}

func (m *mockAssignmentRepository) GetSubmission(ctx context.Context, id int) (*models.AssignmentSubmission, error) {
	if s, ok := m.submissions[id]; ok {
		copied := *s
		return &copied, nil
	}
	return nil, apperrors.Clone(apperrors.ErrNotFound, "submission not found")
}

func (m *mockAssignmentRepository) ListSubmissions(ctx context.Context, assignmentID int) ([]models.AssignmentSubmission, error) {
	ids := []int{}
	for id, s := range m.submissions {
		if s.AssignmentID == assignmentID {
			ids = append(ids, id)
		}
	}
	sort.Ints(ids)
	out := make([]models.AssignmentSubmission, 0, len(ids))
	for _, id := range ids {
		out = append(out, *m.submissions[id])
	}
	return out, nil
}

func (m *mockAssignmentRepository) Grade(ctx context.Context, id, score int, feedback string) error {
	s, ok := m.submissions[id]
	if !ok {
		return apperrors.Clone(apperrors.ErrNotFound, "submission not found")
	}
	graded := time.Date(2024, 5, 2, 0, 0, 0, 0, time.UTC)
	s.Score = &score
	s.Feedback = feedback
	s.GradedAt = &graded
	return nil
}
