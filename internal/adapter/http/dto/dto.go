package dto

// CreateUserRequest is the request body for account registration.
type CreateUserRequest struct {
	FullName             string `json:"full_name" binding:"required,min=1,max=100"`
	Email                string `json:"email" binding:"required,email,max=254"`
	CPF                  string `json:"cpf" binding:"required,cpf"`
	Password             string `json:"password" binding:"required,min=8,max=128"`
	PasswordConfirmation string `json:"password_confirmation" binding:"required,eqfield=Password"`
	Type                 string `json:"type" binding:"required,oneof=common merchant"`
}

// UpdateUserRequest is the request body for account updates.
// All fields are optional; absent fields are left untouched.
type UpdateUserRequest struct {
	FullName *string `json:"full_name,omitempty" binding:"omitempty,min=1,max=100"`
	Email    *string `json:"email,omitempty" binding:"omitempty,email,max=254"`
	Password *string `json:"password,omitempty" binding:"omitempty,min=8,max=128"`
}

// LoginRequest is the request body for login.
type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// LoginResponse is the response body for successful login.
type LoginResponse struct {
	Token  string `json:"token"`
	Expiry int64  `json:"expiry"` // Unix timestamp
}

// DepositRequest is the request body for wallet deposits.
// Amount is a decimal string ("10.00"), at most two fraction digits.
type DepositRequest struct {
	Amount      string  `json:"amount" binding:"required"`
	ReferenceID *string `json:"reference_id,omitempty" binding:"omitempty,safe_id,max=100"`
}

// TransferRequest is the request body for wallet-to-wallet transfers.
type TransferRequest struct {
	ReceiverWalletID string  `json:"receiver_wallet_id" binding:"required,uuid"`
	Amount           string  `json:"amount" binding:"required"`
	ReferenceID      *string `json:"reference_id,omitempty" binding:"omitempty,safe_id,max=100"`
}

// UserResponse is the public representation of a user account.
type UserResponse struct {
	ID        string `json:"id"`
	FullName  string `json:"full_name"`
	Email     string `json:"email"`
	CPF       string `json:"cpf"`
	Type      string `json:"type"`
	WalletID  string `json:"wallet_id,omitempty"`
	CreatedAt string `json:"created_at"`
}

// UserListResponse wraps the account listing.
type UserListResponse struct {
	Items []UserResponse `json:"items"`
	Total int            `json:"total"`
}

// TransactionResponse is the response body for ledger transaction results.
// Amount is formatted as a decimal string with two fraction digits.
type TransactionResponse struct {
	ID               string  `json:"id"`
	WalletID         string  `json:"wallet_id"`
	TransactionType  string  `json:"transaction_type"`
	Amount           string  `json:"amount"`
	ReceiverWalletID *string `json:"receiver_wallet_id,omitempty"`
	ReferenceID      *string `json:"reference_id,omitempty"`
	CreatedAt        string  `json:"created_at"`
}

// BalanceResponse is the response for a balance query.
type BalanceResponse struct {
	WalletID string `json:"wallet_id"`
	Balance  string `json:"balance"`
}
