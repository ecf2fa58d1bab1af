package postgres

import (
	"context"
	"errors"
	"fmt"

	"wallet-ledger/internal/core/domain"
	"wallet-ledger/pkg/apperror"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// WalletRepo implements ports.WalletRepository.
type WalletRepo struct {
	pool Pool
}

// NewWalletRepo creates a new WalletRepo.
func NewWalletRepo(pool Pool) *WalletRepo {
	return &WalletRepo{pool: pool}
}

const walletColumns = `id, user_id, balance, created_at, updated_at`

// Create inserts a new wallet within a database transaction so wallet
// provisioning commits together with user creation.
func (r *WalletRepo) Create(ctx context.Context, tx pgx.Tx, w *domain.Wallet) error {
	query := `INSERT INTO wallets (id, user_id, balance, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5)`

	_, err := tx.Exec(ctx, query, w.ID, w.UserID, w.Balance, w.CreatedAt, w.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err, "wallets_user_id_key") {
			return apperror.ErrWalletExists()
		}
		return fmt.Errorf("insert wallet: %w", err)
	}
	return nil
}

// GetByID fetches a wallet by its UUID (without locking).
func (r *WalletRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.Wallet, error) {
	query := `SELECT ` + walletColumns + ` FROM wallets WHERE id = $1`
	return r.scanWallet(r.pool.QueryRow(ctx, query, id))
}

// GetByUserID fetches a user's wallet (non-locking read).
func (r *WalletRepo) GetByUserID(ctx context.Context, userID uuid.UUID) (*domain.Wallet, error) {
	query := `SELECT ` + walletColumns + ` FROM wallets WHERE user_id = $1`
	return r.scanWallet(r.pool.QueryRow(ctx, query, userID))
}

// GetByIDForUpdate fetches a wallet by ID with pessimistic locking. It MUST be
// called within a transaction. When the row lock cannot be acquired within the
// session lock_timeout it fails with a retryable Busy error.
func (r *WalletRepo) GetByIDForUpdate(ctx context.Context, tx pgx.Tx, id uuid.UUID) (*domain.Wallet, error) {
	query := `SELECT ` + walletColumns + ` FROM wallets WHERE id = $1 FOR UPDATE`

	w := &domain.Wallet{}
	err := tx.QueryRow(ctx, query, id).Scan(&w.ID, &w.UserID, &w.Balance, &w.CreatedAt, &w.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		if isLockNotAvailable(err) {
			return nil, apperror.ErrBusy(err)
		}
		return nil, fmt.Errorf("get wallet for update: %w", err)
	}
	return w, nil
}

// UpdateBalance writes a wallet's balance within a transaction. The row must
// already be locked via GetByIDForUpdate.
func (r *WalletRepo) UpdateBalance(ctx context.Context, tx pgx.Tx, walletID uuid.UUID, balance int64) error {
	query := `UPDATE wallets SET balance = $1, updated_at = NOW() WHERE id = $2`

	tag, err := tx.Exec(ctx, query, balance, walletID)
	if err != nil {
		return fmt.Errorf("update wallet balance: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("wallet not found: %s", walletID)
	}
	return nil
}

// Delete removes a wallet row within a database transaction. A wallet still
// referenced by transaction rows cannot be deleted; fund records are never
// destroyed implicitly.
func (r *WalletRepo) Delete(ctx context.Context, tx pgx.Tx, id uuid.UUID) error {
	tag, err := tx.Exec(ctx, `DELETE FROM wallets WHERE id = $1`, id)
	if err != nil {
		if isForeignKeyViolation(err) {
			return apperror.ErrUserHasFunds()
		}
		return fmt.Errorf("delete wallet: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperror.ErrNotFound("wallet")
	}
	return nil
}

// CountTransactions returns how many ledger entries reference the wallet as
// source or receiver.
func (r *WalletRepo) CountTransactions(ctx context.Context, walletID uuid.UUID) (int64, error) {
	query := `SELECT COUNT(*) FROM transactions WHERE wallet_id = $1 OR receiver_wallet_id = $1`

	var count int64
	if err := r.pool.QueryRow(ctx, query, walletID).Scan(&count); err != nil {
		return 0, fmt.Errorf("count wallet transactions: %w", err)
	}
	return count, nil
}

func (r *WalletRepo) scanWallet(row pgx.Row) (*domain.Wallet, error) {
	w := &domain.Wallet{}
	err := row.Scan(&w.ID, &w.UserID, &w.Balance, &w.CreatedAt, &w.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get wallet: %w", err)
	}
	return w, nil
}
