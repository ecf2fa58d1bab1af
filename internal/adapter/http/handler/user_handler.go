package handler

import (
	"time"

	"wallet-ledger/internal/adapter/http/dto"
	"wallet-ledger/internal/core/domain"
	"wallet-ledger/internal/core/ports"
	"wallet-ledger/pkg/apperror"
	"wallet-ledger/pkg/response"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// UserHandler handles account lifecycle endpoints.
type UserHandler struct {
	accountSvc ports.AccountService
	walletSvc  ports.WalletService
}

// NewUserHandler creates a new UserHandler.
func NewUserHandler(accountSvc ports.AccountService, walletSvc ports.WalletService) *UserHandler {
	return &UserHandler{accountSvc: accountSvc, walletSvc: walletSvc}
}

// List handles GET /api/v1/users.
func (h *UserHandler) List(c *gin.Context) {
	users, err := h.accountSvc.List(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}

	items := make([]dto.UserResponse, 0, len(users))
	for i := range users {
		items = append(items, toUserResponse(&users[i], ""))
	}

	response.OK(c, dto.UserListResponse{Items: items, Total: len(items)})
}

// Create handles POST /api/v1/users.
func (h *UserHandler) Create(c *gin.Context) {
	var req dto.CreateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, apperror.Validation(err.Error()))
		return
	}
	dto.SanitizeStruct(&req)

	user, err := h.accountSvc.Create(c.Request.Context(), ports.CreateUserRequest{
		FullName: req.FullName,
		Email:    req.Email,
		CPF:      dto.NormalizeCPF(req.CPF),
		Password: req.Password,
		Type:     domain.UserType(req.Type),
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, toUserResponse(user, h.lookupWalletID(c, user.ID)))
}

// Get handles GET /api/v1/users/:id.
func (h *UserHandler) Get(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.Error(c, apperror.Validation("invalid user id"))
		return
	}

	user, err := h.accountSvc.Get(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, toUserResponse(user, h.lookupWalletID(c, user.ID)))
}

// Update handles PUT /api/v1/users/:id.
func (h *UserHandler) Update(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.Error(c, apperror.Validation("invalid user id"))
		return
	}

	var req dto.UpdateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, apperror.Validation(err.Error()))
		return
	}
	dto.SanitizeStruct(&req)

	user, err := h.accountSvc.Update(c.Request.Context(), id, ports.UpdateUserRequest{
		FullName: req.FullName,
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, toUserResponse(user, ""))
}

// Delete handles DELETE /api/v1/users/:id.
func (h *UserHandler) Delete(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.Error(c, apperror.Validation("invalid user id"))
		return
	}

	if err := h.accountSvc.Delete(c.Request.Context(), id); err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, gin.H{"deleted": true})
}

// lookupWalletID resolves the user's wallet id. Failures are non-fatal: the
// wallet id is informational in user payloads and omitted when unavailable.
func (h *UserHandler) lookupWalletID(c *gin.Context, userID uuid.UUID) string {
	wallet, err := h.walletSvc.GetBalance(c.Request.Context(), userID)
	if err != nil || wallet == nil {
		return ""
	}
	return wallet.ID.String()
}

func toUserResponse(user *domain.User, walletID string) dto.UserResponse {
	return dto.UserResponse{
		ID:        user.ID.String(),
		FullName:  user.FullName,
		Email:     user.Email,
		CPF:       user.CPF,
		Type:      string(user.Type),
		WalletID:  walletID,
		CreatedAt: user.CreatedAt.UTC().Format(time.RFC3339),
	}
}
