package handler

import (
	"wallet-ledger/internal/adapter/http/dto"
	"wallet-ledger/internal/core/domain"
	"wallet-ledger/internal/core/ports"
	"wallet-ledger/pkg/apperror"
	"wallet-ledger/pkg/response"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// TransferHandler handles wallet-to-wallet transfers.
type TransferHandler struct {
	transferSvc ports.TransferService
}

// NewTransferHandler creates a new TransferHandler.
func NewTransferHandler(transferSvc ports.TransferService) *TransferHandler {
	return &TransferHandler{transferSvc: transferSvc}
}

// Transfer handles POST /api/v1/wallets/transfer.
func (h *TransferHandler) Transfer(c *gin.Context) {
	var req dto.TransferRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, apperror.Validation(err.Error()))
		return
	}
	dto.SanitizeStruct(&req)

	receiverID, err := uuid.Parse(req.ReceiverWalletID)
	if err != nil {
		response.Error(c, apperror.Validation("invalid receiver wallet id"))
		return
	}

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
	txn, err := h.transferSvc.Transfer(c.Request.Context(), userID, receiverID, amount, refOrEmpty(req.ReferenceID))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, toTransactionResponse(txn))
}
