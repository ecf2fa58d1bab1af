package service

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"wallet-ledger/internal/core/domain"
	"wallet-ledger/internal/core/ports"
	"wallet-ledger/pkg/apperror"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog"
)

const idempotencyTTL = 24 * time.Hour

// LedgerStoreImpl implements ports.LedgerStore with pessimistic row locking.
//
// Every operation runs as a single database transaction: balance writes and
// the transaction row commit together or not at all. Wallet rows are locked
// with SELECT ... FOR UPDATE so concurrent operations on the same wallet
// serialize in commit order; a transfer locks both wallets in ascending
// wallet-ID byte order regardless of direction, so two opposing transfers can
// never deadlock. Lock waits are bounded by lock_timeout and surface as a
// retryable Busy error.
type LedgerStoreImpl struct {
	walletRepo  ports.WalletRepository
	txRepo      ports.TransactionRepository
	idempRepo   ports.IdempotencyRepository
	idempCache  ports.IdempotencyCache
	transactor  ports.DBTransactor
	lockTimeout time.Duration
	log         zerolog.Logger
}

// NewLedgerStore creates a new LedgerStoreImpl.
func NewLedgerStore(
	walletRepo ports.WalletRepository,
	txRepo ports.TransactionRepository,
	idempRepo ports.IdempotencyRepository,
	idempCache ports.IdempotencyCache,
	transactor ports.DBTransactor,
	lockTimeout time.Duration,
	log zerolog.Logger,
) *LedgerStoreImpl {
	return &LedgerStoreImpl{
		walletRepo:  walletRepo,
		txRepo:      txRepo,
		idempRepo:   idempRepo,
		idempCache:  idempCache,
		transactor:  transactor,
		lockTimeout: lockTimeout,
		log:         log,
	}
}

// GetBalance returns the wallet's balance in cents.
func (s *LedgerStoreImpl) GetBalance(ctx context.Context, walletID uuid.UUID) (int64, error) {
	wallet, err := s.walletRepo.GetByID(ctx, walletID)
	if err != nil {
		return 0, apperror.InternalError(fmt.Errorf("get wallet: %w", err))
	}
	if wallet == nil {
		return 0, apperror.ErrNotFound("wallet")
	}
	return wallet.Balance, nil
}

// ApplyDeposit credits the wallet and records one deposit transaction atomically.
func (s *LedgerStoreImpl) ApplyDeposit(ctx context.Context, req ports.DepositRequest) (*domain.Transaction, error) {
	if req.Amount <= 0 {
		return nil, apperror.ErrInvalidAmount()
	}

	idempKey := ""
	if req.ReferenceID != "" {
		idempKey = domain.BuildIdempotencyKey(req.WalletID, req.ReferenceID)
		if cached, err := s.checkIdempotency(ctx, idempKey); err != nil || cached != nil {
			return cached, err
		}
	}

	dbTx, err := s.beginLedgerTx(ctx)
	if err != nil {
		return nil, err
	}
	defer dbTx.Rollback(ctx) //nolint:errcheck

	wallet, err := s.walletRepo.GetByIDForUpdate(ctx, dbTx, req.WalletID)
	if err != nil {
		return nil, ledgerErr("lock wallet", err)
	}
	if wallet == nil {
		return nil, apperror.ErrNotFound("wallet")
	}

	now := time.Now().UTC()
	txn := &domain.Transaction{
		ID:          uuid.New(),
		WalletID:    wallet.ID,
		Type:        domain.TransactionTypeDeposit,
		Amount:      req.Amount,
		ReferenceID: optionalRef(req.ReferenceID),
		CreatedAt:   now,
	}

	if err := s.walletRepo.UpdateBalance(ctx, dbTx, wallet.ID, wallet.Balance+req.Amount); err != nil {
		return nil, ledgerErr("update balance", err)
	}
	if err := s.txRepo.Create(ctx, dbTx, txn); err != nil {
		return nil, ledgerErr("create transaction", err)
	}

	respJSON, err := s.saveIdempotencyLog(ctx, dbTx, idempKey, txn, now)
	if err != nil {
		return nil, err
	}

	if err := dbTx.Commit(ctx); err != nil {
		return nil, ledgerErr("commit tx", err)
	}

	s.cacheIdempotency(ctx, idempKey, respJSON)

	s.log.Info().
		Str("tx_id", txn.ID.String()).
		Str("wallet_id", wallet.ID.String()).
		Int64("amount", req.Amount).
		Msg("deposit applied")

	return txn, nil
}

// ApplyTransfer debits the source wallet, credits the receiver and records one
// transfer transaction, all in a single atomic commit.
func (s *LedgerStoreImpl) ApplyTransfer(ctx context.Context, req ports.TransferRequest) (*domain.Transaction, error) {
	if req.Amount <= 0 {
		return nil, apperror.ErrInvalidAmount()
	}
	if req.SourceWalletID == req.ReceiverWalletID {
		return nil, apperror.ErrSameWallet()
	}

	idempKey := ""
	if req.ReferenceID != "" {
		idempKey = domain.BuildIdempotencyKey(req.SourceWalletID, req.ReferenceID)
		if cached, err := s.checkIdempotency(ctx, idempKey); err != nil || cached != nil {
			return cached, err
		}
	}

	dbTx, err := s.beginLedgerTx(ctx)
	if err != nil {
		return nil, err
	}
	defer dbTx.Rollback(ctx) //nolint:errcheck

	source, receiver, err := s.lockWalletPair(ctx, dbTx, req.SourceWalletID, req.ReceiverWalletID)
	if err != nil {
		return nil, err
	}

	if source.Balance < req.Amount {
		return nil, apperror.ErrInsufficientFunds()
	}

	now := time.Now().UTC()
	receiverID := receiver.ID
	txn := &domain.Transaction{
		ID:               uuid.New(),
		WalletID:         source.ID,
		Type:             domain.TransactionTypeTransfer,
		Amount:           req.Amount,
		ReceiverWalletID: &receiverID,
		ReferenceID:      optionalRef(req.ReferenceID),
		CreatedAt:        now,
	}

	if err := s.walletRepo.UpdateBalance(ctx, dbTx, source.ID, source.Balance-req.Amount); err != nil {
		return nil, ledgerErr("debit source", err)
	}
	if err := s.walletRepo.UpdateBalance(ctx, dbTx, receiver.ID, receiver.Balance+req.Amount); err != nil {
		return nil, ledgerErr("credit receiver", err)
	}
	if err := s.txRepo.Create(ctx, dbTx, txn); err != nil {
		return nil, ledgerErr("create transaction", err)
	}

	respJSON, err := s.saveIdempotencyLog(ctx, dbTx, idempKey, txn, now)
	if err != nil {
		return nil, err
	}

	if err := dbTx.Commit(ctx); err != nil {
		return nil, ledgerErr("commit tx", err)
	}

	s.cacheIdempotency(ctx, idempKey, respJSON)

	s.log.Info().
		Str("tx_id", txn.ID.String()).
		Str("source_wallet_id", source.ID.String()).
		Str("receiver_wallet_id", receiver.ID.String()).
		Int64("amount", req.Amount).
		Msg("transfer applied")

	return txn, nil
}

// beginLedgerTx starts a database transaction with the configured lock_timeout
// so a wallet lock wait cannot block the request indefinitely.
func (s *LedgerStoreImpl) beginLedgerTx(ctx context.Context) (pgx.Tx, error) {
	dbTx, err := s.transactor.Begin(ctx)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("begin tx: %w", err))
	}
	if s.lockTimeout > 0 {
		stmt := fmt.Sprintf("SET LOCAL lock_timeout = %d", s.lockTimeout.Milliseconds())
		if _, err := dbTx.Exec(ctx, stmt); err != nil {
			dbTx.Rollback(ctx) //nolint:errcheck
			return nil, apperror.InternalError(fmt.Errorf("set lock timeout: %w", err))
		}
	}
	return dbTx, nil
}

// lockWalletPair locks both wallets in ascending wallet-ID byte order so that
// opposing transfers between the same pair always acquire locks in the same
// sequence.
func (s *LedgerStoreImpl) lockWalletPair(ctx context.Context, dbTx pgx.Tx, sourceID, receiverID uuid.UUID) (source, receiver *domain.Wallet, err error) {
	first, second := sourceID, receiverID
	if bytes.Compare(receiverID[:], sourceID[:]) < 0 {
		first, second = receiverID, sourceID
	}

	locked := make(map[uuid.UUID]*domain.Wallet, 2)
	for _, id := range []uuid.UUID{first, second} {
		w, err := s.walletRepo.GetByIDForUpdate(ctx, dbTx, id)
		if err != nil {
			return nil, nil, ledgerErr("lock wallet", err)
		}
		if w == nil {
			if id == sourceID {
				return nil, nil, apperror.ErrNotFound("source wallet")
			}
			return nil, nil, apperror.ErrNotFound("receiver wallet")
		}
		locked[id] = w
	}

	return locked[sourceID], locked[receiverID], nil
}

// checkIdempotency consults the Redis fast path first, then the durable DB log.
func (s *LedgerStoreImpl) checkIdempotency(ctx context.Context, key string) (*domain.Transaction, error) {
	cached, err := s.idempCache.Get(ctx, key)
	if err != nil {
		s.log.Warn().Err(err).Str("key", key).Msg("redis idempotency check failed, falling through to DB")
	}
	if cached != nil {
		return unmarshalCachedTransaction(cached)
	}

	idempLog, err := s.idempRepo.Get(ctx, key)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("db idempotency check: %w", err))
	}
	if idempLog != nil {
		return unmarshalCachedTransaction(idempLog.ResponseJSON)
	}
	return nil, nil
}

// saveIdempotencyLog writes the durable idempotency record inside the ledger
// transaction. A no-op when the operation carried no reference id.
func (s *LedgerStoreImpl) saveIdempotencyLog(ctx context.Context, dbTx pgx.Tx, key string, txn *domain.Transaction, now time.Time) ([]byte, error) {
	if key == "" {
		return nil, nil
	}

	respJSON, err := json.Marshal(txn)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("marshal response: %w", err))
	}

	entry := &domain.IdempotencyLog{
		Key:           key,
		TransactionID: txn.ID,
		ResponseJSON:  respJSON,
		CreatedAt:     now,
	}
	if err := s.idempRepo.Create(ctx, dbTx, entry); err != nil {
		return nil, ledgerErr("save idempotency log", err)
	}
	return respJSON, nil
}

// cacheIdempotency populates the Redis fast path after commit (best-effort).
func (s *LedgerStoreImpl) cacheIdempotency(ctx context.Context, key string, respJSON []byte) {
	if key == "" || respJSON == nil {
		return
	}
	if err := s.idempCache.Set(ctx, key, respJSON, idempotencyTTL); err != nil {
		s.log.Warn().Err(err).Str("key", key).Msg("failed to cache idempotency in redis")
	}
}

// ledgerErr passes typed errors (Busy, Conflict) through unchanged and wraps
// everything else as a storage failure.
func ledgerErr(op string, err error) error {
	var appErr *apperror.AppError
	if errors.As(err, &appErr) {
		return err
	}
	return apperror.InternalError(fmt.Errorf("%s: %w", op, err))
}

func unmarshalCachedTransaction(data []byte) (*domain.Transaction, error) {
	txn := &domain.Transaction{}
	if err := json.Unmarshal(data, txn); err != nil {
		return nil, apperror.InternalError(fmt.Errorf("unmarshal cached tx: %w", err))
	}
	return txn, nil
}

func optionalRef(ref string) *string {
	if ref == "" {
		return nil
	}
	return &ref
}
