package handlers

import (
	"bytes"
	"mime/multipart"
	"net/http"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/learnportal/backend/internal/apperrors"
	"github.com/learnportal/backend/internal/middleware"
	"github.com/learnportal/backend/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newEnrollmentRouter(svc *mockEnrollmentService) chi.Router {
	r := chi.NewRouter()
	NewEnrollmentHandler(svc, zap.NewNop()).RegisterRoutes(r, fakeAuth(5, models.RoleStudent))
	return r
}

func multipartProof(t *testing.T, field string, data []byte) (*bytes.Buffer, string) {
	t.Helper()
	body := &bytes.Buffer{}
	mw := multipart.NewWriter(body)
	part, err := mw.CreateFormFile(field, "receipt.png")
	require.NoError(t, err)
	_, err = part.Write(data)
	require.NoError(t, err)
	require.NoError(t, mw.Close())
	return body, mw.FormDataContentType()
}

func TestEnrollmentHandler_Status(t *testing.T) {
	svc := &mockEnrollmentService{record: models.EnrollmentRecord{CourseID: 2, Status: models.EnrollmentStatusRejected, Message: "blurry"}}
	rec := serve(newEnrollmentRouter(svc), http.MethodGet, "/enrollments/2/status", nil)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"courseId":2,"status":"rejected","message":"blurry"}`, rec.Body.String())
}

func TestEnrollmentHandler_EnrollFree(t *testing.T) {
	tests := []struct {
		name           string
		svc            *mockEnrollmentService
		expectedStatus int
	}{
		{name: "approved", svc: &mockEnrollmentService{record: models.EnrollmentRecord{CourseID: 1, Status: models.EnrollmentStatusApproved}}, expectedStatus: http.StatusCreated},
		{name: "priced course", svc: &mockEnrollmentService{err: apperrors.Clone(apperrors.ErrInvalidStateTransition, "course is not free")}, expectedStatus: http.StatusConflict},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := serve(newEnrollmentRouter(tt.svc), http.MethodPost, "/enrollments/1/free", nil)
			assert.Equal(t, tt.expectedStatus, rec.Code)
		})
	}
}

func TestEnrollmentHandler_SubmitPaymentProof(t *testing.T) {
	t.Run("stores proof", func(t *testing.T) {
		svc := &mockEnrollmentService{record: models.EnrollmentRecord{CourseID: 2, Status: models.EnrollmentStatusPending}}
		body, contentType := multipartProof(t, PaymentProofField, []byte("receipt-bytes"))

		rec := serve(newEnrollmentRouter(svc), http.MethodPost, "/enrollments/2/payment-proof", body, "Content-Type", contentType)
		assert.Equal(t, http.StatusCreated, rec.Code)
		assert.Equal(t, []byte("receipt-bytes"), svc.payload)
		assert.Contains(t, rec.Body.String(), `"status":"pending"`)
	})

	t.Run("missing file", func(t *testing.T) {
		svc := &mockEnrollmentService{}
		body, contentType := multipartProof(t, "other_field", []byte("receipt-bytes"))

		rec := serve(newEnrollmentRouter(svc), http.MethodPost, "/enrollments/2/payment-proof", body, "Content-Type", contentType)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Equal(t, "VALIDATION_ERROR", decodeError(t, rec).Code)
		assert.Nil(t, svc.payload)
	})

	t.Run("not multipart", func(t *testing.T) {
		rec := serve(newEnrollmentRouter(&mockEnrollmentService{}), http.MethodPost, "/enrollments/2/payment-proof", jsonBody(`{}`), "Content-Type", "application/json")
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("body too large", func(t *testing.T) {
		r := chi.NewRouter()
		r.Use(middleware.RequestSizeLimitMiddleware(64))
		NewEnrollmentHandler(&mockEnrollmentService{}, zap.NewNop()).RegisterRoutes(r, fakeAuth(5, models.RoleStudent))
		body, contentType := multipartProof(t, PaymentProofField, bytes.Repeat([]byte("x"), 1024))

		rec := serve(r, http.MethodPost, "/enrollments/2/payment-proof", body, "Content-Type", contentType)
		assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
	})

	t.Run("already pending", func(t *testing.T) {
		svc := &mockEnrollmentService{err: apperrors.Clone(apperrors.ErrInvalidStateTransition, "cannot change enrollment status from pending to pending")}
		body, contentType := multipartProof(t, PaymentProofField, []byte("receipt-bytes"))

		rec := serve(newEnrollmentRouter(svc), http.MethodPost, "/enrollments/2/payment-proof", body, "Content-Type", contentType)
		assert.Equal(t, http.StatusConflict, rec.Code)
		assert.Equal(t, "INVALID_STATE_TRANSITION", decodeError(t, rec).Code)
	})
}
