package apperror

import (
	"errors"
	"fmt"
	"net/http"
)

// AppError is a structured error that maps to HTTP responses.
type AppError struct {
	Code       string `json:"error_code"`
	Message    string `json:"message"`
	HTTPStatus int    `json:"-"`
	Retryable  bool   `json:"-"` // Caller may retry with backoff (Busy only)
	Err        error  `json:"-"` // Wrapped internal error (not exposed to client)
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// New creates a new AppError.
func New(code string, message string, httpStatus int) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		HTTPStatus: httpStatus,
	}
}

// Wrap wraps an internal error with an AppError.
func Wrap(code string, message string, httpStatus int, err error) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		HTTPStatus: httpStatus,
		Err:        err,
	}
}

// IsRetryable reports whether err is a retryable (Busy) error.
func IsRetryable(err error) bool {
	var appErr *AppError
	return errors.As(err, &appErr) && appErr.Retryable
}

// ---- Validation (VAL) ----

func ErrInvalidAmount() *AppError {
	return New("VAL_001", "Amount must be positive", http.StatusBadRequest)
}

func ErrSameWallet() *AppError {
	return New("VAL_002", "Source and receiver wallet must differ", http.StatusBadRequest)
}

// Validation returns a generic VAL_003 validation error.
func Validation(message string) *AppError {
	return New("VAL_003", message, http.StatusBadRequest)
}

// ---- Accounts & entities (ACC) ----

func ErrNotFound(entity string) *AppError {
	return New("ACC_001", fmt.Sprintf("%s not found", entity), http.StatusNotFound)
}

func ErrEmailExists() *AppError {
	return New("ACC_002", "Email already registered", http.StatusConflict)
}

func ErrCPFExists() *AppError {
	return New("ACC_003", "CPF already registered", http.StatusConflict)
}

func ErrWalletExists() *AppError {
	return New("ACC_004", "User already owns a wallet", http.StatusConflict)
}

func ErrUserHasFunds() *AppError {
	return New("ACC_005", "User wallet holds funds or transaction history", http.StatusConflict)
}

// ---- Ledger business rules (LED) ----

func ErrInsufficientFunds() *AppError {
	return New("LED_001", "Insufficient balance in wallet", http.StatusPaymentRequired)
}

func ErrDuplicateReference() *AppError {
	return New("LED_002", "Reference id already used with different parameters", http.StatusConflict)
}

// ---- Authentication & authorization (AUTH) ----

func ErrInvalidCredentials() *AppError {
	return New("AUTH_001", "Invalid credentials", http.StatusUnauthorized)
}

func ErrInvalidToken() *AppError {
	return New("AUTH_002", "Invalid or expired token", http.StatusUnauthorized)
}

func ErrWalletOwnership() *AppError {
	return New("AUTH_003", "Caller does not own the source wallet", http.StatusForbidden)
}

// ---- Rate limiting (RATE) ----

func ErrRateLimitExceeded() *AppError {
	return New("RATE_001", "Rate limit exceeded", http.StatusTooManyRequests)
}

// ---- System & infrastructure (SYS) ----

// ErrDatabaseError is fatal to the attempt and never retried automatically.
func ErrDatabaseError(err error) *AppError {
	return Wrap("SYS_001", "Internal database error", http.StatusInternalServerError, err)
}

// ErrBusy signals lock contention. The operation left no state change and the
// caller may retry with backoff.
func ErrBusy(err error) *AppError {
	e := Wrap("SYS_002", "Wallet busy, retry later", http.StatusServiceUnavailable, err)
	e.Retryable = true
	return e
}

// InternalError wraps an internal error as a SYS_001 error.
func InternalError(err error) *AppError {
	return Wrap("SYS_001", "Internal server error", http.StatusInternalServerError, err)
}
