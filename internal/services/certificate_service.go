package services

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"github.com/jung-kurt/gofpdf"
	"github.com/learnportal/backend/internal/apperrors"
	"github.com/learnportal/backend/internal/models"
	"go.uber.org/zap"
)

// ProgressReader computes the course progress of a learner
type ProgressReader interface {
	Progress(ctx context.Context, userID, courseID int) (models.CourseProgress, error)
}

// UserReader reads user accounts
type UserReader interface {
	GetByID(ctx context.Context, id int) (*models.User, error)
}

// certificateService renders completion certificates
type certificateService struct {
	progress   ProgressReader
	courseRepo CourseReader
	userRepo   UserReader
	logger     *zap.Logger
	now        func() time.Time
}

// NewCertificateService creates a new certificate service
func NewCertificateService(progress ProgressReader, courseRepo CourseReader, userRepo UserReader, logger *zap.Logger) *certificateService {
	return &certificateService{
		progress:   progress,
		courseRepo: courseRepo,
		userRepo:   userRepo,
		logger:     logger,
		now:        time.Now,
	}
}

// Generate renders the certificate of a learner whose progress rounds to 100 percent.
//
// With many videos one may still be incomplete, e.g. 199 of 200 rounds half up to 100.
func (s *certificateService) Generate(ctx context.Context, userID, courseID int) ([]byte, error) {
	p, err := s.progress.Progress(ctx, userID, courseID)
	if err != nil {
		return nil, err
	}
	if !p.CertificateAvailable {
		return nil, apperrors.Clone(apperrors.ErrAccessDenied,
			fmt.Sprintf("certificate requires 100%% progress, current progress is %d%%", p.Progress))
	}

	course, err := s.courseRepo.GetByID(ctx, courseID)
	if err != nil {
		return nil, err
	}
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	doc, err := renderCertificate(user.Name, course, s.now())
	if err != nil {
		s.logger.Error("failed to render certificate", zap.Error(err), zap.Int("course_id", courseID))
		return nil, err
	}
	return doc, nil
}

func renderCertificate(learner string, course *models.Course, issuedAt time.Time) ([]byte, error) {
	pdf := gofpdf.New("L", "mm", "A4", "")
	pdf.SetMargins(20, 25, 20)
	pdf.AddPage()
	tr := pdf.UnicodeTranslatorFromDescriptor("")

	pdf.SetLineWidth(1.2)
	pdf.Rect(10, 10, 277, 190, "D")

	pdf.SetFont("Arial", "B", 30)
	pdf.CellFormat(0, 20, "CERTIFICATE OF COMPLETION", "", 1, "C", false, 0, "")
	pdf.Ln(10)

	pdf.SetFont("Arial", "", 14)
	pdf.CellFormat(0, 10, "This certifies that", "", 1, "C", false, 0, "")

	pdf.SetFont("Arial", "B", 24)
	pdf.CellFormat(0, 16, tr(learner), "", 1, "C", false, 0, "")

	pdf.SetFont("Arial", "", 14)
	pdf.CellFormat(0, 10, "has successfully completed the course", "", 1, "C", false, 0, "")

	pdf.SetFont("Arial", "B", 20)
	pdf.CellFormat(0, 14, tr(course.Title), "", 1, "C", false, 0, "")
	pdf.Ln(8)

	pdf.SetFont("Arial", "", 12)
	if course.Instructor != "" {
		pdf.CellFormat(0, 8, tr("Instructor: "+course.Instructor), "", 1, "C", false, 0, "")
	}
	pdf.CellFormat(0, 8, "Issued on "+issuedAt.Format("January 2, 2006"), "", 1, "C", false, 0, "")

	buf := &bytes.Buffer{}
	if err := pdf.Output(buf); err != nil {
		return nil, fmt.Errorf("failed to render certificate pdf: %w", err)
	}
	return buf.Bytes(), nil
}
