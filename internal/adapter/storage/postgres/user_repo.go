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

// UserRepo implements ports.UserRepository.
type UserRepo struct {
	pool Pool
}

// NewUserRepo creates a new UserRepo.
func NewUserRepo(pool Pool) *UserRepo {
	return &UserRepo{pool: pool}
}

const userColumns = `id, full_name, email, cpf, password_hash, type, role, created_at, updated_at`

// Create inserts a new user within a database transaction so the caller can
// commit the user row together with its wallet.
func (r *UserRepo) Create(ctx context.Context, tx pgx.Tx, u *domain.User) error {
	query := `INSERT INTO users (id, full_name, email, cpf, password_hash, type, role, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`

	_, err := tx.Exec(ctx, query,
		u.ID, u.FullName, u.Email, u.CPF, u.PasswordHash,
		u.Type, u.Role, u.CreatedAt, u.UpdatedAt,
	)
	if err != nil {
		switch {
		case isUniqueViolation(err, "users_email_key"):
			return apperror.ErrEmailExists()
		case isUniqueViolation(err, "users_cpf_key"):
			return apperror.ErrCPFExists()
		}
		return fmt.Errorf("insert user: %w", err)
	}
	return nil
}

// GetByID fetches a user by its UUID.
func (r *UserRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1`
	return r.scanUser(r.pool.QueryRow(ctx, query, id))
}

// GetByEmail fetches a user by email.
func (r *UserRepo) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE email = $1`
	return r.scanUser(r.pool.QueryRow(ctx, query, email))
}

// List returns all users ordered by creation time.
func (r *UserRepo) List(ctx context.Context) ([]domain.User, error) {
	query := `SELECT ` + userColumns + ` FROM users ORDER BY created_at`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	defer rows.Close()

	users := make([]domain.User, 0)
	for rows.Next() {
		var u domain.User
		if err := rows.Scan(
			&u.ID, &u.FullName, &u.Email, &u.CPF, &u.PasswordHash,
			&u.Type, &u.Role, &u.CreatedAt, &u.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan user: %w", err)
		}
		users = append(users, u)
	}
	return users, rows.Err()
}

// Update persists the mutable user fields.
func (r *UserRepo) Update(ctx context.Context, u *domain.User) error {
	query := `UPDATE users SET full_name = $1, email = $2, password_hash = $3, updated_at = $4 WHERE id = $5`

	tag, err := r.pool.Exec(ctx, query, u.FullName, u.Email, u.PasswordHash, u.UpdatedAt, u.ID)
	if err != nil {
		if isUniqueViolation(err, "users_email_key") {
			return apperror.ErrEmailExists()
		}
		return fmt.Errorf("update user: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperror.ErrNotFound("user")
	}
	return nil
}

// Delete removes a user row within a database transaction.
func (r *UserRepo) Delete(ctx context.Context, tx pgx.Tx, id uuid.UUID) error {
	tag, err := tx.Exec(ctx, `DELETE FROM users WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete user: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperror.ErrNotFound("user")
	}
	return nil
}

func (r *UserRepo) scanUser(row pgx.Row) (*domain.User, error) {
	u := &domain.User{}
	err := row.Scan(
		&u.ID, &u.FullName, &u.Email, &u.CPF, &u.PasswordHash,
		&u.Type, &u.Role, &u.CreatedAt, &u.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get user: %w", err)
	}
	return u, nil
}
