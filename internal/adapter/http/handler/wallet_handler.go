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

// WalletHandler handles deposit and balance endpoints for the caller's own wallet.
type WalletHandler struct {
	walletSvc ports.WalletService
}

// NewWalletHandler creates a new WalletHandler.
func NewWalletHandler(walletSvc ports.WalletService) *WalletHandler {
	return &WalletHandler{walletSvc: walletSvc}
}

// Deposit handles POST /api/v1/wallets/deposit.
func (h *WalletHandler) Deposit(c *gin.Context) {
	var req dto.DepositRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, apperror.Validation(err.Error()))
		return
	}
	dto.SanitizeStruct(&req)

	amount, err := domain.ParseAmount(req.Amount)
	if err != nil {
		response.Error(c, apperror.Validation(err.Error()))
		return
	}
	if amount <= 0 {
		response.Error(c, apperror.ErrInvalidAmount())
		return
	}

	userID := mustUserID(c)
	txn, err := h.walletSvc.Deposit(c.Request.Context(), userID, amount, refOrEmpty(req.ReferenceID))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, toTransactionResponse(txn))
}

// GetBalance handles GET /api/v1/wallets/balance.
func (h *WalletHandler) GetBalance(c *gin.Context) {
	userID := mustUserID(c)
	wallet, err := h.walletSvc.GetBalance(c.Request.Context(), userID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, dto.BalanceResponse{
		WalletID: wallet.ID.String(),
		Balance:  domain.FormatAmount(wallet.Balance),
	})
}

// mustUserID reads the authenticated user id set by the JWT middleware. The
// routes using it are always behind that middleware.
func mustUserID(c *gin.Context) uuid.UUID {
	v, _ := c.Get("user_id")
	id, _ := v.(uuid.UUID)
	return id
}

func refOrEmpty(ref *string) string {
	if ref == nil {
		return ""
	}
	return *ref
}

func toTransactionResponse(txn *domain.Transaction) dto.TransactionResponse {
	resp := dto.TransactionResponse{
		ID:              txn.ID.String(),
		WalletID:        txn.WalletID.String(),
		TransactionType: string(txn.Type),
		Amount:          domain.FormatAmount(txn.Amount),
		ReferenceID:     txn.ReferenceID,
		CreatedAt:       txn.CreatedAt.UTC().Format(time.RFC3339),
	}
	if txn.ReceiverWalletID != nil {
		receiver := txn.ReceiverWalletID.String()
		resp.ReceiverWalletID = &receiver
	}
	return resp
}
