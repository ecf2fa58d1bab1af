package service

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"wallet-ledger/internal/core/domain"
	"wallet-ledger/internal/core/ports"
	"wallet-ledger/internal/core/ports/mocks"
	"wallet-ledger/pkg/apperror"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

type ledgerTestDeps struct {
	store      *LedgerStoreImpl
	walletRepo *mocks.MockWalletRepository
	txRepo     *mocks.MockTransactionRepository
	idempRepo  *mocks.MockIdempotencyRepository
	idempCache *mocks.MockIdempotencyCache
	transactor *mocks.MockDBTransactor
	ctrl       *gomock.Controller
}

func setupLedgerStore(t *testing.T) *ledgerTestDeps {
	ctrl := gomock.NewController(t)
	d := &ledgerTestDeps{
		walletRepo: mocks.NewMockWalletRepository(ctrl),
		txRepo:     mocks.NewMockTransactionRepository(ctrl),
		idempRepo:  mocks.NewMockIdempotencyRepository(ctrl),
		idempCache: mocks.NewMockIdempotencyCache(ctrl),
		transactor: mocks.NewMockDBTransactor(ctrl),
		ctrl:       ctrl,
	}
	d.store = NewLedgerStore(
		d.walletRepo, d.txRepo, d.idempRepo, d.idempCache,
		d.transactor, 3*time.Second, zerolog.Nop(),
	)
	return d
}

// mockTx implements pgx.Tx for testing. Exec absorbs the SET LOCAL
// lock_timeout statement issued at the start of every ledger transaction.
type mockTx struct{ pgx.Tx }

func (m *mockTx) Exec(_ context.Context, _ string, _ ...any) (pgconn.CommandTag, error) {
	return pgconn.CommandTag{}, nil
}
func (m *mockTx) Rollback(_ context.Context) error { return nil }
func (m *mockTx) Commit(_ context.Context) error   { return nil }

// ==================== ApplyDeposit Tests ====================

func TestLedgerStore_ApplyDeposit_Success(t *testing.T) {
	d := setupLedgerStore(t)
	defer d.ctrl.Finish()

	ctx := context.Background()
	walletID := uuid.New()
	tx := &mockTx{}

	req := ports.DepositRequest{
		WalletID:    walletID,
		Amount:      10000,
		ReferenceID: "dep-001",
	}

	idempKey := domain.BuildIdempotencyKey(walletID, "dep-001")

	// Redis cache miss
	d.idempCache.EXPECT().Get(ctx, idempKey).Return(nil, nil)
	// DB idempotency miss
	d.idempRepo.EXPECT().Get(ctx, idempKey).Return(nil, nil)
	// Begin tx
	d.transactor.EXPECT().Begin(ctx).Return(tx, nil)
	// Lock wallet
	d.walletRepo.EXPECT().GetByIDForUpdate(ctx, tx, walletID).Return(&domain.Wallet{
		ID:      walletID,
		Balance: 5000,
	}, nil)
	// Credit balance (5000 + 10000)
	d.walletRepo.EXPECT().UpdateBalance(ctx, tx, walletID, int64(15000)).Return(nil)
	// Record the transaction
	d.txRepo.EXPECT().Create(ctx, tx, gomock.Any()).Return(nil)
	// Save idempotency log
	d.idempRepo.EXPECT().Create(ctx, tx, gomock.Any()).Return(nil)
	// Cache in Redis
	d.idempCache.EXPECT().Set(ctx, idempKey, gomock.Any(), idempotencyTTL).Return(nil)

	result, err := d.store.ApplyDeposit(ctx, req)
	require.NoError(t, err)
	require.NotNil(t, result)
	assert.Equal(t, domain.TransactionTypeDeposit, result.Type)
	assert.Equal(t, int64(10000), result.Amount)
	assert.Equal(t, walletID, result.WalletID)
	require.NotNil(t, result.ReferenceID)
	assert.Equal(t, "dep-001", *result.ReferenceID)
	assert.Nil(t, result.ReceiverWalletID)
}

func TestLedgerStore_ApplyDeposit_DuplicateReferenceRace(t *testing.T) {
	d := setupLedgerStore(t)
	defer d.ctrl.Finish()

	ctx := context.Background()
	walletID := uuid.New()
	tx := &mockTx{}

	req := ports.DepositRequest{
		WalletID:    walletID,
		Amount:      10000,
		ReferenceID: "dep-001",
	}

	idempKey := domain.BuildIdempotencyKey(walletID, "dep-001")

	// Both checks miss: a concurrent twin committed after we looked.
	d.idempCache.EXPECT().Get(ctx, idempKey).Return(nil, nil)
	d.idempRepo.EXPECT().Get(ctx, idempKey).Return(nil, nil)
	d.transactor.EXPECT().Begin(ctx).Return(tx, nil)
	d.walletRepo.EXPECT().GetByIDForUpdate(ctx, tx, walletID).Return(&domain.Wallet{
		ID: walletID, Balance: 5000,
	}, nil)
	d.walletRepo.EXPECT().UpdateBalance(ctx, tx, walletID, int64(15000)).Return(nil)
	d.txRepo.EXPECT().Create(ctx, tx, gomock.Any()).Return(nil)
	// The idempotency log insert lands on the twin's key.
	d.idempRepo.EXPECT().Create(ctx, tx, gomock.Any()).Return(apperror.ErrDuplicateReference())

	result, err := d.store.ApplyDeposit(ctx, req)
	assert.Nil(t, result)
	assertAppError(t, err, "LED_002")
}

func TestLedgerStore_ApplyDeposit_NoReference(t *testing.T) {
	d := setupLedgerStore(t)
	defer d.ctrl.Finish()

	ctx := context.Background()
	walletID := uuid.New()
	tx := &mockTx{}

	// No idempotency interaction at all without a reference id.
	d.transactor.EXPECT().Begin(ctx).Return(tx, nil)
	d.walletRepo.EXPECT().GetByIDForUpdate(ctx, tx, walletID).Return(&domain.Wallet{
		ID: walletID, Balance: 0,
	}, nil)
	d.walletRepo.EXPECT().UpdateBalance(ctx, tx, walletID, int64(2500)).Return(nil)
	d.txRepo.EXPECT().Create(ctx, tx, gomock.Any()).Return(nil)

	result, err := d.store.ApplyDeposit(ctx, ports.DepositRequest{WalletID: walletID, Amount: 2500})
	require.NoError(t, err)
	assert.Nil(t, result.ReferenceID)
}

func TestLedgerStore_ApplyDeposit_InvalidAmount(t *testing.T) {
	d := setupLedgerStore(t)
	defer d.ctrl.Finish()

	result, err := d.store.ApplyDeposit(context.Background(), ports.DepositRequest{
		WalletID: uuid.New(),
		Amount:   0,
	})
	assert.Nil(t, result)
	assertAppError(t, err, "VAL_001")
}

func TestLedgerStore_ApplyDeposit_WalletNotFound(t *testing.T) {
	d := setupLedgerStore(t)
	defer d.ctrl.Finish()

	ctx := context.Background()
	walletID := uuid.New()
	tx := &mockTx{}

	d.transactor.EXPECT().Begin(ctx).Return(tx, nil)
	d.walletRepo.EXPECT().GetByIDForUpdate(ctx, tx, walletID).Return(nil, nil)

	result, err := d.store.ApplyDeposit(ctx, ports.DepositRequest{WalletID: walletID, Amount: 100})
	assert.Nil(t, result)
	assertAppError(t, err, "ACC_001")
}

func TestLedgerStore_ApplyDeposit_IdempotentRedisHit(t *testing.T) {
	d := setupLedgerStore(t)
	defer d.ctrl.Finish()

	ctx := context.Background()
	walletID := uuid.New()

	cachedTx := &domain.Transaction{
		ID:       uuid.New(),
		WalletID: walletID,
		Type:     domain.TransactionTypeDeposit,
		Amount:   10000,
	}
	cachedJSON, _ := json.Marshal(cachedTx)

	idempKey := domain.BuildIdempotencyKey(walletID, "dep-cached")
	d.idempCache.EXPECT().Get(ctx, idempKey).Return(cachedJSON, nil)

	result, err := d.store.ApplyDeposit(ctx, ports.DepositRequest{
		WalletID:    walletID,
		Amount:      10000,
		ReferenceID: "dep-cached",
	})
	require.NoError(t, err)
	assert.Equal(t, cachedTx.ID, result.ID)
}

func TestLedgerStore_ApplyDeposit_IdempotentDBHit(t *testing.T) {
	d := setupLedgerStore(t)
	defer d.ctrl.Finish()

	ctx := context.Background()
	walletID := uuid.New()

	storedTx := &domain.Transaction{
		ID:       uuid.New(),
		WalletID: walletID,
		Type:     domain.TransactionTypeDeposit,
		Amount:   500,
	}
	storedJSON, _ := json.Marshal(storedTx)

	idempKey := domain.BuildIdempotencyKey(walletID, "dep-db")
	// Redis miss, DB hit
	d.idempCache.EXPECT().Get(ctx, idempKey).Return(nil, nil)
	d.idempRepo.EXPECT().Get(ctx, idempKey).Return(&domain.IdempotencyLog{
		Key:           idempKey,
		TransactionID: storedTx.ID,
		ResponseJSON:  storedJSON,
	}, nil)

	result, err := d.store.ApplyDeposit(ctx, ports.DepositRequest{
		WalletID:    walletID,
		Amount:      500,
		ReferenceID: "dep-db",
	})
	require.NoError(t, err)
	assert.Equal(t, storedTx.ID, result.ID)
}

// ==================== ApplyTransfer Tests ====================

func TestLedgerStore_ApplyTransfer_Success(t *testing.T) {
	d := setupLedgerStore(t)
	defer d.ctrl.Finish()

	ctx := context.Background()
	sourceID := uuid.New()
	receiverID := uuid.New()
	tx := &mockTx{}

	d.transactor.EXPECT().Begin(ctx).Return(tx, nil)
	d.walletRepo.EXPECT().GetByIDForUpdate(ctx, tx, sourceID).Return(&domain.Wallet{
		ID: sourceID, Balance: 10000,
	}, nil)
	d.walletRepo.EXPECT().GetByIDForUpdate(ctx, tx, receiverID).Return(&domain.Wallet{
		ID: receiverID, Balance: 0,
	}, nil)
	d.walletRepo.EXPECT().UpdateBalance(ctx, tx, sourceID, int64(7000)).Return(nil)
	d.walletRepo.EXPECT().UpdateBalance(ctx, tx, receiverID, int64(3000)).Return(nil)
	d.txRepo.EXPECT().Create(ctx, tx, gomock.Any()).Return(nil)

	result, err := d.store.ApplyTransfer(ctx, ports.TransferRequest{
		SourceWalletID:   sourceID,
		ReceiverWalletID: receiverID,
		Amount:           3000,
	})
	require.NoError(t, err)
	require.NotNil(t, result)
	assert.Equal(t, domain.TransactionTypeTransfer, result.Type)
	assert.Equal(t, sourceID, result.WalletID)
	require.NotNil(t, result.ReceiverWalletID)
	assert.Equal(t, receiverID, *result.ReceiverWalletID)
}

func TestLedgerStore_ApplyTransfer_LockOrderIsAscending(t *testing.T) {
	d := setupLedgerStore(t)
	defer d.ctrl.Finish()

	ctx := context.Background()
	// The receiver sorts strictly before the source in byte order, so it must
	// be locked first even though it is the credit side.
	sourceID := uuid.MustParse("ffffffff-0000-0000-0000-000000000000")
	receiverID := uuid.MustParse("00000000-0000-0000-0000-000000000001")
	tx := &mockTx{}

	d.transactor.EXPECT().Begin(ctx).Return(tx, nil)
	gomock.InOrder(
		d.walletRepo.EXPECT().GetByIDForUpdate(ctx, tx, receiverID).Return(&domain.Wallet{
			ID: receiverID, Balance: 0,
		}, nil),
		d.walletRepo.EXPECT().GetByIDForUpdate(ctx, tx, sourceID).Return(&domain.Wallet{
			ID: sourceID, Balance: 5000,
		}, nil),
	)
	d.walletRepo.EXPECT().UpdateBalance(ctx, tx, sourceID, int64(4000)).Return(nil)
	d.walletRepo.EXPECT().UpdateBalance(ctx, tx, receiverID, int64(1000)).Return(nil)
	d.txRepo.EXPECT().Create(ctx, tx, gomock.Any()).Return(nil)

	_, err := d.store.ApplyTransfer(ctx, ports.TransferRequest{
		SourceWalletID:   sourceID,
		ReceiverWalletID: receiverID,
		Amount:           1000,
	})
	require.NoError(t, err)
}

func TestLedgerStore_ApplyTransfer_InsufficientFunds(t *testing.T) {
	d := setupLedgerStore(t)
	defer d.ctrl.Finish()

	ctx := context.Background()
	sourceID := uuid.MustParse("00000000-0000-0000-0000-000000000001")
	receiverID := uuid.MustParse("00000000-0000-0000-0000-000000000002")
	tx := &mockTx{}

	d.transactor.EXPECT().Begin(ctx).Return(tx, nil)
	d.walletRepo.EXPECT().GetByIDForUpdate(ctx, tx, sourceID).Return(&domain.Wallet{
		ID: sourceID, Balance: 100,
	}, nil)
	d.walletRepo.EXPECT().GetByIDForUpdate(ctx, tx, receiverID).Return(&domain.Wallet{
		ID: receiverID, Balance: 0,
	}, nil)

	result, err := d.store.ApplyTransfer(ctx, ports.TransferRequest{
		SourceWalletID:   sourceID,
		ReceiverWalletID: receiverID,
		Amount:           100000,
	})
	assert.Nil(t, result)
	assertAppError(t, err, "LED_001")
}

func TestLedgerStore_ApplyTransfer_SameWallet(t *testing.T) {
	d := setupLedgerStore(t)
	defer d.ctrl.Finish()

	walletID := uuid.New()
	result, err := d.store.ApplyTransfer(context.Background(), ports.TransferRequest{
		SourceWalletID:   walletID,
		ReceiverWalletID: walletID,
		Amount:           100,
	})
	assert.Nil(t, result)
	assertAppError(t, err, "VAL_002")
}

func TestLedgerStore_ApplyTransfer_ReceiverNotFound(t *testing.T) {
	d := setupLedgerStore(t)
	defer d.ctrl.Finish()

	ctx := context.Background()
	sourceID := uuid.MustParse("00000000-0000-0000-0000-000000000001")
	receiverID := uuid.MustParse("00000000-0000-0000-0000-000000000002")
	tx := &mockTx{}

	d.transactor.EXPECT().Begin(ctx).Return(tx, nil)
	d.walletRepo.EXPECT().GetByIDForUpdate(ctx, tx, sourceID).Return(&domain.Wallet{
		ID: sourceID, Balance: 10000,
	}, nil)
	d.walletRepo.EXPECT().GetByIDForUpdate(ctx, tx, receiverID).Return(nil, nil)

	result, err := d.store.ApplyTransfer(ctx, ports.TransferRequest{
		SourceWalletID:   sourceID,
		ReceiverWalletID: receiverID,
		Amount:           1000,
	})
	assert.Nil(t, result)
	assertAppError(t, err, "ACC_001")
}

func TestLedgerStore_ApplyTransfer_BusyPassthrough(t *testing.T) {
	d := setupLedgerStore(t)
	defer d.ctrl.Finish()

	ctx := context.Background()
	sourceID := uuid.MustParse("00000000-0000-0000-0000-000000000001")
	receiverID := uuid.MustParse("00000000-0000-0000-0000-000000000002")
	tx := &mockTx{}

	d.transactor.EXPECT().Begin(ctx).Return(tx, nil)
	// Lock wait exceeded lock_timeout: the repo surfaces a Busy error, and the
	// ledger must pass it through untouched so callers can retry.
	d.walletRepo.EXPECT().GetByIDForUpdate(ctx, tx, sourceID).Return(nil, apperror.ErrBusy(nil))

	result, err := d.store.ApplyTransfer(ctx, ports.TransferRequest{
		SourceWalletID:   sourceID,
		ReceiverWalletID: receiverID,
		Amount:           1000,
	})
	assert.Nil(t, result)
	assertAppError(t, err, "SYS_002")
	assert.True(t, apperror.IsRetryable(err))
}

// ==================== GetBalance Tests ====================

func TestLedgerStore_GetBalance_Success(t *testing.T) {
	d := setupLedgerStore(t)
	defer d.ctrl.Finish()

	ctx := context.Background()
	walletID := uuid.New()
	d.walletRepo.EXPECT().GetByID(ctx, walletID).Return(&domain.Wallet{
		ID: walletID, Balance: 4242,
	}, nil)

	balance, err := d.store.GetBalance(ctx, walletID)
	require.NoError(t, err)
	assert.Equal(t, int64(4242), balance)
}

func TestLedgerStore_GetBalance_NotFound(t *testing.T) {
	d := setupLedgerStore(t)
	defer d.ctrl.Finish()

	ctx := context.Background()
	walletID := uuid.New()
	d.walletRepo.EXPECT().GetByID(ctx, walletID).Return(nil, nil)

	_, err := d.store.GetBalance(ctx, walletID)
	assertAppError(t, err, "ACC_001")
}

// ==================== Helper ====================

func assertAppError(t *testing.T, err error, expectedCode string) {
	t.Helper()
	var appErr *apperror.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, expectedCode, appErr.Code)
}
