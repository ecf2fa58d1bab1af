package service

import (
	"context"
	"fmt"
	"time"

	"wallet-ledger/internal/core/domain"
	"wallet-ledger/internal/core/ports"
	"wallet-ledger/pkg/apperror"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog"
)

// WalletServiceImpl implements ports.WalletService.
type WalletServiceImpl struct {
	walletRepo ports.WalletRepository
	ledger     ports.LedgerStore
	retry      RetryPolicy
	log        zerolog.Logger
}

// NewWalletService creates a new WalletServiceImpl.
func NewWalletService(
	walletRepo ports.WalletRepository,
	ledger ports.LedgerStore,
	retry RetryPolicy,
	log zerolog.Logger,
) *WalletServiceImpl {
	return &WalletServiceImpl{
		walletRepo: walletRepo,
		ledger:     ledger,
		retry:      retry,
		log:        log,
	}
}

// CreateWalletForUser provisions a zero-balance wallet owned by the user. It
// runs inside the caller's database transaction so the wallet commits together
// with the user row. Fails with Conflict if the user already owns a wallet.
func (s *WalletServiceImpl) CreateWalletForUser(ctx context.Context, tx pgx.Tx, user *domain.User) (*domain.Wallet, error) {
	now := time.Now().UTC()
	wallet := &domain.Wallet{
		ID:        uuid.New(),
		UserID:    user.ID,
		Balance:   0,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := s.walletRepo.Create(ctx, tx, wallet); err != nil {
		return nil, ledgerErr("create wallet", err)
	}

	s.log.Info().
		Str("wallet_id", wallet.ID.String()).
		Str("user_id", user.ID.String()).
		Msg("wallet provisioned")

	return wallet, nil
}

// Deposit resolves the caller's wallet and delegates to the ledger, retrying
// Busy contention a bounded number of times with backoff.
func (s *WalletServiceImpl) Deposit(ctx context.Context, userID uuid.UUID, amount int64, referenceID string) (*domain.Transaction, error) {
	wallet, err := s.resolveWallet(ctx, userID)
	if err != nil {
		return nil, err
	}

	var txn *domain.Transaction
	err = retryOnBusy(ctx, s.retry, func() error {
		var applyErr error
		txn, applyErr = s.ledger.ApplyDeposit(ctx, ports.DepositRequest{
			WalletID:    wallet.ID,
			Amount:      amount,
			ReferenceID: referenceID,
		})
		return applyErr
	})
	if err != nil {
		return nil, err
	}
	return txn, nil
}

// GetBalance returns the caller's wallet with the balance read through the
// ledger, so the value reflects only committed operations.
func (s *WalletServiceImpl) GetBalance(ctx context.Context, userID uuid.UUID) (*domain.Wallet, error) {
	wallet, err := s.resolveWallet(ctx, userID)
	if err != nil {
		return nil, err
	}
	balance, err := s.ledger.GetBalance(ctx, wallet.ID)
	if err != nil {
		return nil, err
	}
	wallet.Balance = balance
	return wallet, nil
}

func (s *WalletServiceImpl) resolveWallet(ctx context.Context, userID uuid.UUID) (*domain.Wallet, error) {
	wallet, err := s.walletRepo.GetByUserID(ctx, userID)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("resolve wallet: %w", err))
	}
	if wallet == nil {
		return nil, apperror.ErrNotFound("wallet")
	}
	return wallet, nil
}
