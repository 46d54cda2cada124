package repositories

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/learnportal/backend/internal/models"
)

// bankAccountRepository implements services.BankAccountRepository
type bankAccountRepository struct {
	db *sql.DB
}

// NewBankAccountRepository creates a new bank account repository
func NewBankAccountRepository(db *sql.DB) *bankAccountRepository {
	return &bankAccountRepository{db: db}
}

// List returns all bank accounts ordered by ID
func (r *bankAccountRepository) List(ctx context.Context) ([]models.BankAccount, error) {
	query := `
		SELECT id, bank_name, account_holder, account_number, branch_code
		FROM bank_accounts
		ORDER BY id
	`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list bank accounts: %w", err)
	}
	defer rows.Close()

	accounts := []models.BankAccount{}
	for rows.Next() {
		var a models.BankAccount
		if err := rows.Scan(&a.ID, &a.BankName, &a.AccountHolder, &a.AccountNumber, &a.BranchCode); err != nil {
			return nil, fmt.Errorf("failed to scan bank account: %w", err)
		}
		accounts = append(accounts, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating bank accounts: %w", err)
	}
	return accounts, nil
}

// Create inserts a new bank account and sets its ID
func (r *bankAccountRepository) Create(ctx context.Context, a *models.BankAccount) error {
	query := `
		INSERT INTO bank_accounts (bank_name, account_holder, account_number, branch_code)
		VALUES (?, ?, ?, ?)
	`

	result, err := r.db.ExecContext(ctx, query, a.BankName, a.AccountHolder, a.AccountNumber, a.BranchCode)
	if err != nil {
		return fmt.Errorf("failed to create bank account: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert id: %w", err)
	}
	a.ID = int(id)
	return nil
}
