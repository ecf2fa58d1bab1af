package ports

import (
	"context"
	"time"

	"wallet-ledger/internal/core/domain"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// LedgerStore is the durable, consistency-enforcing core owning wallet
// balances and the transaction log. All balance mutation goes through it; the
// debit, credit and record effects of one operation commit together or not at
// all. Operations on the same wallet are linearizable; a lock that cannot be
// acquired within the configured timeout fails with a retryable Busy error.
type LedgerStore interface {
	GetBalance(ctx context.Context, walletID uuid.UUID) (int64, error)
	ApplyDeposit(ctx context.Context, req DepositRequest) (*domain.Transaction, error)
	ApplyTransfer(ctx context.Context, req TransferRequest) (*domain.Transaction, error)
}

// DepositRequest holds validated input for a deposit posting.
type DepositRequest struct {
	WalletID    uuid.UUID
	Amount      int64  // Cents
	ReferenceID string // Optional idempotency key; empty = no dedup
}

// TransferRequest holds validated input for a transfer posting.
type TransferRequest struct {
	SourceWalletID   uuid.UUID
	ReceiverWalletID uuid.UUID
	Amount           int64  // Cents
	ReferenceID      string // Optional idempotency key; empty = no dedup
}

// IdempotencyCache is the Redis-layer idempotency check (fast path).
type IdempotencyCache interface {
	Get(ctx context.Context, key string) ([]byte, error) // Returns cached response JSON or nil
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
}

// WalletService provisions wallets and performs deposits on behalf of a user.
// GetBalance returns the user's wallet with Balance populated from the ledger.
type WalletService interface {
	CreateWalletForUser(ctx context.Context, tx pgx.Tx, user *domain.User) (*domain.Wallet, error)
	Deposit(ctx context.Context, userID uuid.UUID, amount int64, referenceID string) (*domain.Transaction, error)
	GetBalance(ctx context.Context, userID uuid.UUID) (*domain.Wallet, error)
}

// TransferService moves funds between two wallets on behalf of a user.
type TransferService interface {
	Transfer(ctx context.Context, userID uuid.UUID, receiverWalletID uuid.UUID, amount int64, referenceID string) (*domain.Transaction, error)
}

// AccountService manages the user lifecycle. Create and Delete are
// transactional with wallet provisioning/removal.
type AccountService interface {
	List(ctx context.Context) ([]domain.User, error)
	Create(ctx context.Context, req CreateUserRequest) (*domain.User, error)
	Get(ctx context.Context, id uuid.UUID) (*domain.User, error)
	Update(ctx context.Context, id uuid.UUID, req UpdateUserRequest) (*domain.User, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

// CreateUserRequest holds validated input for user creation. Role is always
// forced server-side, never taken from the request.
type CreateUserRequest struct {
	FullName string
	Email    string
	CPF      string
	Password string
	Type     domain.UserType
}

// UpdateUserRequest holds the mutable user fields. Nil means unchanged.
type UpdateUserRequest struct {
	FullName *string
	Email    *string
	Password *string
}

// AuthService defines authentication business logic.
type AuthService interface {
	Login(ctx context.Context, email, password string) (string, time.Time, error) // token, expiry, error
}

// HashService handles password hashing (Argon2id).
type HashService interface {
	Hash(password string) (string, error)
	Verify(password string, hash string) (bool, error)
}

// TokenService handles JWT token operations.
type TokenService interface {
	Generate(userID uuid.UUID, email string) (string, time.Time, error)
	Validate(tokenString string) (*TokenClaims, error)
}

// TokenClaims holds the parsed JWT claims.
type TokenClaims struct {
	UserID uuid.UUID
	Email  string
}
