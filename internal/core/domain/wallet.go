package domain

import (
	"time"

	"github.com/google/uuid"
)

// Wallet holds a user's monetary balance. Exactly one wallet exists per user,
// provisioned when the user is created. The balance is mutated only by ledger
// operations, never written directly.
type Wallet struct {
	ID        uuid.UUID `json:"id"`
	UserID    uuid.UUID `json:"user_id"`
	Balance   int64     `json:"balance"` // In cents (2-decimal fixed point)
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
