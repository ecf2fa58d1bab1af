package postgres

import (
	"context"
	"testing"
	"time"

	"wallet-ledger/internal/core/domain"

	"github.com/google/uuid"
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestUser() *domain.User {
	now := time.Now().UTC().Truncate(time.Microsecond)
	return &domain.User{
		ID:           uuid.New(),
		FullName:     "Ana Souza",
		Email:        "ana@example.com",
		CPF:          "12345678909",
		PasswordHash: "$argon2id$hash",
		Type:         domain.UserTypeCommon,
		Role:         domain.DefaultUserRole,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}

func userTestColumns() []string {
	return []string{"id", "full_name", "email", "cpf", "password_hash", "type", "role", "created_at", "updated_at"}
}

func userRow(u *domain.User) *pgxmock.Rows {
	return pgxmock.NewRows(userTestColumns()).AddRow(
		u.ID, u.FullName, u.Email, u.CPF, u.PasswordHash,
		u.Type, u.Role, u.CreatedAt, u.UpdatedAt,
	)
}

func TestUserRepo_Create(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewUserRepo(mock)
	u := newTestUser()

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO users").
		WithArgs(u.ID, u.FullName, u.Email, u.CPF, u.PasswordHash,
			u.Type, u.Role, u.CreatedAt, u.UpdatedAt).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	tx, err := mock.Begin(context.Background())
	require.NoError(t, err)

	err = repo.Create(context.Background(), tx, u)
	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUserRepo_Create_DuplicateEmail(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewUserRepo(mock)
	u := newTestUser()

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO users").
		WithArgs(u.ID, u.FullName, u.Email, u.CPF, u.PasswordHash,
			u.Type, u.Role, u.CreatedAt, u.UpdatedAt).
		WillReturnError(&pgconn.PgError{Code: pgerrcode.UniqueViolation, ConstraintName: "users_email_key"})

	tx, err := mock.Begin(context.Background())
	require.NoError(t, err)

	err = repo.Create(context.Background(), tx, u)
	assertRepoAppError(t, err, "ACC_002")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUserRepo_Create_DuplicateCPF(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewUserRepo(mock)
	u := newTestUser()

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO users").
		WithArgs(u.ID, u.FullName, u.Email, u.CPF, u.PasswordHash,
			u.Type, u.Role, u.CreatedAt, u.UpdatedAt).
		WillReturnError(&pgconn.PgError{Code: pgerrcode.UniqueViolation, ConstraintName: "users_cpf_key"})

	tx, err := mock.Begin(context.Background())
	require.NoError(t, err)

	err = repo.Create(context.Background(), tx, u)
	assertRepoAppError(t, err, "ACC_003")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUserRepo_GetByID(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewUserRepo(mock)
	u := newTestUser()

	mock.ExpectQuery("SELECT .+ FROM users WHERE id").
		WithArgs(u.ID).
		WillReturnRows(userRow(u))

	result, err := repo.GetByID(context.Background(), u.ID)
	require.NoError(t, err)
	require.NotNil(t, result)
	assert.Equal(t, u.Email, result.Email)
	assert.Equal(t, domain.UserTypeCommon, result.Type)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUserRepo_GetByID_NotFound(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewUserRepo(mock)
	userID := uuid.New()

	mock.ExpectQuery("SELECT .+ FROM users WHERE id").
		WithArgs(userID).
		WillReturnRows(pgxmock.NewRows(userTestColumns()))

	result, err := repo.GetByID(context.Background(), userID)
	require.NoError(t, err)
	assert.Nil(t, result)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUserRepo_GetByEmail(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewUserRepo(mock)
	u := newTestUser()

	mock.ExpectQuery("SELECT .+ FROM users WHERE email").
		WithArgs(u.Email).
		WillReturnRows(userRow(u))

	result, err := repo.GetByEmail(context.Background(), u.Email)
	require.NoError(t, err)
	require.NotNil(t, result)
	assert.Equal(t, u.ID, result.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUserRepo_List(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewUserRepo(mock)
	u1 := newTestUser()
	u2 := newTestUser()
	u2.Email = "bruno@example.com"
	u2.CPF = "98765432100"

	rows := pgxmock.NewRows(userTestColumns()).
		AddRow(u1.ID, u1.FullName, u1.Email, u1.CPF, u1.PasswordHash, u1.Type, u1.Role, u1.CreatedAt, u1.UpdatedAt).
		AddRow(u2.ID, u2.FullName, u2.Email, u2.CPF, u2.PasswordHash, u2.Type, u2.Role, u2.CreatedAt, u2.UpdatedAt)

	mock.ExpectQuery("SELECT .+ FROM users ORDER BY created_at").
		WillReturnRows(rows)

	users, err := repo.List(context.Background())
	require.NoError(t, err)
	require.Len(t, users, 2)
	assert.Equal(t, "ana@example.com", users[0].Email)
	assert.Equal(t, "bruno@example.com", users[1].Email)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUserRepo_Update(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewUserRepo(mock)
	u := newTestUser()

	mock.ExpectExec("UPDATE users SET").
		WithArgs(u.FullName, u.Email, u.PasswordHash, u.UpdatedAt, u.ID).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))

	err = repo.Update(context.Background(), u)
	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUserRepo_Update_NotFound(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewUserRepo(mock)
	u := newTestUser()

	mock.ExpectExec("UPDATE users SET").
		WithArgs(u.FullName, u.Email, u.PasswordHash, u.UpdatedAt, u.ID).
		WillReturnResult(pgxmock.NewResult("UPDATE", 0))

	err = repo.Update(context.Background(), u)
	assertRepoAppError(t, err, "ACC_001")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUserRepo_Update_EmailTaken(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewUserRepo(mock)
	u := newTestUser()

	mock.ExpectExec("UPDATE users SET").
		WithArgs(u.FullName, u.Email, u.PasswordHash, u.UpdatedAt, u.ID).
		WillReturnError(&pgconn.PgError{Code: pgerrcode.UniqueViolation, ConstraintName: "users_email_key"})

	err = repo.Update(context.Background(), u)
	assertRepoAppError(t, err, "ACC_002")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUserRepo_Delete(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewUserRepo(mock)
	userID := uuid.New()

	mock.ExpectBegin()
	mock.ExpectExec("DELETE FROM users").
		WithArgs(userID).
		WillReturnResult(pgxmock.NewResult("DELETE", 1))

	tx, err := mock.Begin(context.Background())
	require.NoError(t, err)

	err = repo.Delete(context.Background(), tx, userID)
	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUserRepo_Delete_NotFound(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewUserRepo(mock)
	userID := uuid.New()

	mock.ExpectBegin()
	mock.ExpectExec("DELETE FROM users").
		WithArgs(userID).
		WillReturnResult(pgxmock.NewResult("DELETE", 0))

	tx, err := mock.Begin(context.Background())
	require.NoError(t, err)

	err = repo.Delete(context.Background(), tx, userID)
	assertRepoAppError(t, err, "ACC_001")
	assert.NoError(t, mock.ExpectationsWereMet())
}
