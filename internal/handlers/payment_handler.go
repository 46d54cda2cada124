package handlers

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/learnportal/backend/internal/models"
	"go.uber.org/zap"
)

// PaymentService serves the payment reference data
type PaymentService interface {
	BankAccounts(ctx context.Context) ([]models.BankAccount, error)
	CreateBankAccount(ctx context.Context, req *models.CreateBankAccountRequest) (*models.BankAccount, error)
}

// PaymentHandler handles payment reference data HTTP requests
type PaymentHandler struct {
	BaseHandler
	paymentService PaymentService
}

// NewPaymentHandler creates a new payment handler
func NewPaymentHandler(paymentService PaymentService, logger *zap.Logger) *PaymentHandler {
	return &PaymentHandler{
		BaseHandler:    BaseHandler{Logger: logger},
		paymentService: paymentService,
	}
}

// RegisterRoutes registers all payment handler routes
func (h *PaymentHandler) RegisterRoutes(r chi.Router) {
	r.Get("/payments/bank-accounts", h.BankAccounts)
}

// BankAccounts handles GET /payments/bank-accounts
// @Summary Bank accounts
// @Description Accounts a learner can transfer the course price to
// @Tags payments
// @Produce json
// @Success 200 {array} models.BankAccount
// @Router /payments/bank-accounts [get]
func (h *PaymentHandler) BankAccounts(w http.ResponseWriter, r *http.Request) {
	accounts, err := h.paymentService.BankAccounts(r.Context())
	if err != nil {
		h.RespondError(w, r, err)
		return
	}
	h.RespondJSON(w, http.StatusOK, accounts)
}
