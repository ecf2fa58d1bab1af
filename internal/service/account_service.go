package service

import (
	"context"
	"fmt"
	"time"

	"wallet-ledger/internal/core/domain"
	"wallet-ledger/internal/core/ports"
	"wallet-ledger/pkg/apperror"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// AccountServiceImpl implements ports.AccountService. User creation and
// deletion are transactional with wallet provisioning/removal: either both the
// user row and its wallet exist, or neither does.
type AccountServiceImpl struct {
	userRepo   ports.UserRepository
	walletRepo ports.WalletRepository
	walletSvc  ports.WalletService
	hashSvc    ports.HashService
	transactor ports.DBTransactor
	log        zerolog.Logger
}

// NewAccountService creates a new AccountServiceImpl.
func NewAccountService(
	userRepo ports.UserRepository,
	walletRepo ports.WalletRepository,
	walletSvc ports.WalletService,
	hashSvc ports.HashService,
	transactor ports.DBTransactor,
	log zerolog.Logger,
) *AccountServiceImpl {
	return &AccountServiceImpl{
		userRepo:   userRepo,
		walletRepo: walletRepo,
		walletSvc:  walletSvc,
		hashSvc:    hashSvc,
		transactor: transactor,
		log:        log,
	}
}

// List returns all users.
func (s *AccountServiceImpl) List(ctx context.Context) ([]domain.User, error) {
	users, err := s.userRepo.List(ctx)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("list users: %w", err))
	}
	return users, nil
}

// Create registers a user and provisions its wallet in one database
// transaction. The role is forced server-side and never taken from input.
func (s *AccountServiceImpl) Create(ctx context.Context, req ports.CreateUserRequest) (*domain.User, error) {
	if !req.Type.IsValid() {
		return nil, apperror.Validation("type must be common or merchant")
	}

	passwordHash, err := s.hashSvc.Hash(req.Password)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("hash password: %w", err))
	}

	now := time.Now().UTC()
	user := &domain.User{
		ID:           uuid.New(),
		FullName:     req.FullName,
		Email:        req.Email,
		CPF:          req.CPF,
		PasswordHash: passwordHash,
		Type:         req.Type,
		Role:         domain.DefaultUserRole,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	dbTx, err := s.transactor.Begin(ctx)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("begin tx: %w", err))
	}
	defer dbTx.Rollback(ctx) //nolint:errcheck

	if err := s.userRepo.Create(ctx, dbTx, user); err != nil {
		return nil, ledgerErr("create user", err)
	}
	if _, err := s.walletSvc.CreateWalletForUser(ctx, dbTx, user); err != nil {
		return nil, err
	}

	if err := dbTx.Commit(ctx); err != nil {
		return nil, apperror.InternalError(fmt.Errorf("commit tx: %w", err))
	}

	s.log.Info().
		Str("user_id", user.ID.String()).
		Str("type", string(user.Type)).
		Msg("user created")

	return user, nil
}

// Get fetches a user by id.
func (s *AccountServiceImpl) Get(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	user, err := s.userRepo.GetByID(ctx, id)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("get user: %w", err))
	}
	if user == nil {
		return nil, apperror.ErrNotFound("user")
	}
	return user, nil
}

// Update applies the provided fields to the user.
func (s *AccountServiceImpl) Update(ctx context.Context, id uuid.UUID, req ports.UpdateUserRequest) (*domain.User, error) {
	user, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.FullName != nil {
		user.FullName = *req.FullName
	}
	if req.Email != nil {
		user.Email = *req.Email
	}
	if req.Password != nil {
		hash, err := s.hashSvc.Hash(*req.Password)
		if err != nil {
			return nil, apperror.InternalError(fmt.Errorf("hash password: %w", err))
		}
		user.PasswordHash = hash
	}
	user.UpdatedAt = time.Now().UTC()

	if err := s.userRepo.Update(ctx, user); err != nil {
		return nil, ledgerErr("update user", err)
	}
	return user, nil
}

// Delete removes a user and its wallet atomically. Deletion is blocked with
// Conflict while the wallet holds funds or any transaction history: ledger
// records are never destroyed. The wallet row is locked for the duration so a
// concurrent deposit cannot slip in between the balance check and the delete.
func (s *AccountServiceImpl) Delete(ctx context.Context, id uuid.UUID) error {
	user, err := s.Get(ctx, id)
	if err != nil {
		return err
	}

	wallet, err := s.walletRepo.GetByUserID(ctx, user.ID)
	if err != nil {
		return apperror.InternalError(fmt.Errorf("resolve wallet: %w", err))
	}

	dbTx, err := s.transactor.Begin(ctx)
	if err != nil {
		return apperror.InternalError(fmt.Errorf("begin tx: %w", err))
	}
	defer dbTx.Rollback(ctx) //nolint:errcheck

	if wallet != nil {
		locked, err := s.walletRepo.GetByIDForUpdate(ctx, dbTx, wallet.ID)
		if err != nil {
			return ledgerErr("lock wallet", err)
		}
		if locked != nil {
			if locked.Balance != 0 {
				return apperror.ErrUserHasFunds()
			}
			count, err := s.walletRepo.CountTransactions(ctx, wallet.ID)
			if err != nil {
				return apperror.InternalError(fmt.Errorf("count transactions: %w", err))
			}
			if count > 0 {
				return apperror.ErrUserHasFunds()
			}
			// The FK from transactions to wallets is the hard backstop; a
			// violation here still maps to the same Conflict.
			if err := s.walletRepo.Delete(ctx, dbTx, wallet.ID); err != nil {
				return ledgerErr("delete wallet", err)
			}
		}
	}

	if err := s.userRepo.Delete(ctx, dbTx, user.ID); err != nil {
		return ledgerErr("delete user", err)
	}

	if err := dbTx.Commit(ctx); err != nil {
		return apperror.InternalError(fmt.Errorf("commit tx: %w", err))
	}

	s.log.Info().Str("user_id", user.ID.String()).Msg("user deleted")
	return nil
}
