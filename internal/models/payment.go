package models

import "time"

// BankAccount is reference data displayed to the learner during the payment flow
type BankAccount struct {
	ID            int    `json:"id"`
	BankName      string `json:"bankName"`
	AccountHolder string `json:"accountHolder"`
	AccountNumber string `json:"accountNumber"`
	BranchCode    string `json:"branchCode,omitempty"`
}

// CreateBankAccountRequest represents a request to add a bank account
type CreateBankAccountRequest struct {
	BankName      string `json:"bankName" validate:"required,max=128"`
	AccountHolder string `json:"accountHolder" validate:"required,max=128"`
	AccountNumber string `json:"accountNumber" validate:"required,max=64"`
	BranchCode    string `json:"branchCode" validate:"max=32"`
}

// PaymentProof represents the metadata of an uploaded payment proof
type PaymentProof struct {
	ID          string    `json:"id"` // stored file name
	UserID      int       `json:"userId"`
	CourseID    int       `json:"courseId"`
	ContentType string    `json:"contentType"`
	Size        int64     `json:"size"`
	CreatedAt   time.Time `json:"createdAt"`
}
