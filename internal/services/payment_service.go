package services

import (
	"context"
	"strings"

	"github.com/learnportal/backend/internal/models"
	"go.uber.org/zap"
)

// BankAccountRepository is the interface that wraps methods for bank_accounts table data access
//
// The repository may be wrapped by a read-through cache; Create then invalidates it.
type BankAccountRepository interface {
	List(ctx context.Context) ([]models.BankAccount, error)
	Create(ctx context.Context, a *models.BankAccount) error
}

// paymentService serves the bank account reference data of the payment flow
type paymentService struct {
	bankAccountRepo BankAccountRepository
	logger          *zap.Logger
}

// NewPaymentService creates a new payment service
func NewPaymentService(bankAccountRepo BankAccountRepository, logger *zap.Logger) *paymentService {
	return &paymentService{
		bankAccountRepo: bankAccountRepo,
		logger:          logger,
	}
}

// BankAccounts returns the accounts learners can pay into
func (s *paymentService) BankAccounts(ctx context.Context) ([]models.BankAccount, error) {
	return s.bankAccountRepo.List(ctx)
}

// CreateBankAccount validates and stores a bank account
func (s *paymentService) CreateBankAccount(ctx context.Context, req *models.CreateBankAccountRequest) (*models.BankAccount, error) {
	req.BankName = strings.TrimSpace(req.BankName)
	req.AccountHolder = strings.TrimSpace(req.AccountHolder)
	req.AccountNumber = strings.TrimSpace(req.AccountNumber)
	if err := validateRequest(req); err != nil {
		return nil, err
	}

	account := &models.BankAccount{
		BankName:      req.BankName,
		AccountHolder: req.AccountHolder,
		AccountNumber: req.AccountNumber,
		BranchCode:    strings.TrimSpace(req.BranchCode),
	}
	if err := s.bankAccountRepo.Create(ctx, account); err != nil {
		return nil, err
	}

	s.logger.Info("bank account created", zap.Int("bank_account_id", account.ID))
	return account, nil
}
