package domain

import (
	"time"

	"github.com/google/uuid"
)

// UserType distinguishes regular account holders from merchants.
type UserType string

const (
	UserTypeCommon   UserType = "common"
	UserTypeMerchant UserType = "merchant"
)

// IsValid reports whether t is a known user type.
func (t UserType) IsValid() bool {
	return t == UserTypeCommon || t == UserTypeMerchant
}

// DefaultUserRole is assigned server-side on creation and never taken from input.
const DefaultUserRole = "user"

// User represents a registered account holder. Each user owns exactly one wallet.
type User struct {
	ID           uuid.UUID `json:"id"`
	FullName     string    `json:"full_name"`
	Email        string    `json:"email"`
	CPF          string    `json:"cpf"`
	PasswordHash string    `json:"-"` // Never expose
	Type         UserType  `json:"type"`
	Role         string    `json:"role"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}
