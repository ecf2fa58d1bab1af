package domain

import (
	"time"

	"github.com/google/uuid"
)

// TransactionType represents the kind of money movement.
type TransactionType string

const (
	TransactionTypeDeposit  TransactionType = "deposit"
	TransactionTypeTransfer TransactionType = "transfer"
)

// Transaction is an immutable ledger entry. Rows are append-only: they are
// created exactly once per ledger operation and never updated or deleted.
// ReceiverWalletID is set iff Type is transfer.
type Transaction struct {
	ID               uuid.UUID       `json:"id"`
	WalletID         uuid.UUID       `json:"wallet_id"` // Source wallet
	Type             TransactionType `json:"type"`
	Amount           int64           `json:"amount"` // In cents, always > 0
	ReceiverWalletID *uuid.UUID      `json:"receiver_wallet_id,omitempty"`
	ReferenceID      *string         `json:"reference_id,omitempty"` // Client idempotency key
	CreatedAt        time.Time       `json:"created_at"`
}

// IsTransfer reports whether the entry moved funds between two wallets.
func (t *Transaction) IsTransfer() bool {
	return t.Type == TransactionTypeTransfer
}

// BuildIdempotencyKey derives the dedup key for a ledger operation initiated
// by the given wallet with a client-supplied reference id.
func BuildIdempotencyKey(walletID uuid.UUID, referenceID string) string {
	return "ledger:" + walletID.String() + ":" + referenceID
}
