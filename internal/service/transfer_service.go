package service

import (
	"context"
	"fmt"

	"wallet-ledger/internal/core/domain"
	"wallet-ledger/internal/core/ports"
	"wallet-ledger/pkg/apperror"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// TransferServiceImpl implements ports.TransferService.
type TransferServiceImpl struct {
	walletRepo ports.WalletRepository
	ledger     ports.LedgerStore
	retry      RetryPolicy
	log        zerolog.Logger
}

// NewTransferService creates a new TransferServiceImpl.
func NewTransferService(
	walletRepo ports.WalletRepository,
	ledger ports.LedgerStore,
	retry RetryPolicy,
	log zerolog.Logger,
) *TransferServiceImpl {
	return &TransferServiceImpl{
		walletRepo: walletRepo,
		ledger:     ledger,
		retry:      retry,
		log:        log,
	}
}

// Transfer moves funds from the caller's own wallet to the receiver wallet.
// The caller's identity is passed in explicitly; the source wallet is always
// resolved from it, and ownership is verified before the ledger is touched.
func (s *TransferServiceImpl) Transfer(ctx context.Context, userID uuid.UUID, receiverWalletID uuid.UUID, amount int64, referenceID string) (*domain.Transaction, error) {
	source, err := s.walletRepo.GetByUserID(ctx, userID)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("resolve source wallet: %w", err))
	}
	if source == nil {
		return nil, apperror.ErrNotFound("wallet")
	}

	// The wallet was resolved from the caller's own id, so a mismatched owner
	// can only mean the repository returned the wrong row. Invariant check:
	// no funds move out of a wallet the caller does not own.
	if source.UserID != userID {
		s.log.Warn().
			Str("user_id", userID.String()).
			Str("wallet_id", source.ID.String()).
			Msg("transfer rejected: caller does not own source wallet")
		return nil, apperror.ErrWalletOwnership()
	}

	var txn *domain.Transaction
	err = retryOnBusy(ctx, s.retry, func() error {
		var applyErr error
		txn, applyErr = s.ledger.ApplyTransfer(ctx, ports.TransferRequest{
			SourceWalletID:   source.ID,
			ReceiverWalletID: receiverWalletID,
			Amount:           amount,
			ReferenceID:      referenceID,
		})
		return applyErr
	})
	if err != nil {
		return nil, err
	}
	return txn, nil
}
