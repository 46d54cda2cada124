package models

import "time"

// Profile represents the editable account details of a user
type Profile struct {
	ID        int       `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Bio       string    `json:"bio"`
	Phone     string    `json:"phone"`
	Address   string    `json:"address"`
	Avatar    string    `json:"-"` // stored file name, empty when none
	HasAvatar bool      `json:"hasAvatar"`
	CreatedAt time.Time `json:"createdAt"`
}

// UpdateProfileRequest represents a request to change the profile of the signed in user
type UpdateProfileRequest struct {
	Name    string `json:"name" validate:"required,max=128"`
	Email   string `json:"email" validate:"required,email"`
	Bio     string `json:"bio" validate:"max=1000"`
	Phone   string `json:"phone" validate:"max=32"`
	Address string `json:"address" validate:"max=255"`
}
