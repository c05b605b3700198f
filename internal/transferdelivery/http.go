// Package transferdelivery manages delivery layer of transfers.
package transferdelivery

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/go-petr/pet-ledger/internal/domain"
	"github.com/go-petr/pet-ledger/internal/middleware"
	"github.com/go-petr/pet-ledger/pkg/errorspkg"
	"github.com/go-petr/pet-ledger/pkg/moneypkg"
	"github.com/go-petr/pet-ledger/pkg/tokenpkg"
	"github.com/go-petr/pet-ledger/pkg/web"
)

// Service provides service layer interface needed by transfer delivery layer.
//
//go:generate mockgen -source http.go -destination http_mock.go -package transferdelivery
type Service interface {
	Transfer(ctx context.Context, req domain.TransferRequest) (domain.TransferResult, error)
}

// Handler facilitates transfer delivery layer logic.
type Handler struct {
	service Service
}

// NewHandler returns transfer handler.
func NewHandler(ts Service) *Handler {
	return &Handler{
		service: ts,
	}
}

type request struct {
	SenderAccountID   int32       `json:"sender_account" binding:"required,min=1"`
	ReceiverAccountID int32       `json:"receiver_account" binding:"required,min=1"`
	Amount            json.Number `json:"amount" binding:"required,money"`
	// PIN format is checked after the balance, in the service.
	PIN string `json:"pin" binding:"required"`
}

type data struct {
	Transaction domain.Transaction `json:"transaction"`
	Balance     string             `json:"balance"`
}

func errStatus(err error) int {
	switch err {
	case domain.ErrInvalidAmount,
		domain.ErrAmountTooSmall,
		domain.ErrAmountTooLarge,
		domain.ErrSelfTransfer,
		domain.ErrInsufficientFunds,
		domain.ErrBalanceLimit:
		return http.StatusBadRequest
	case domain.ErrInvalidPin:
		return http.StatusForbidden
	case domain.ErrAccountNotFound, domain.ErrReceiverNotFound:
		return http.StatusNotFound
	case domain.ErrConcurrencyConflict:
		return http.StatusConflict
	}

	return http.StatusInternalServerError
}

// Create handles http request to move money between two accounts.
func (h *Handler) Create(gctx *gin.Context) {
	ctx := gctx.Request.Context()
	l := zerolog.Ctx(ctx)

	var req request
	if err := gctx.ShouldBindJSON(&req); err != nil {
		l.Info().Err(err).Send()
		gctx.JSON(http.StatusBadRequest, web.Response{Error: web.BindingErrorMsg(err)})

		return
	}

	authPayload := gctx.MustGet(middleware.AuthPayloadKey).(*tokenpkg.Payload)

	result, err := h.service.Transfer(ctx, domain.TransferRequest{
		Owner:             authPayload.Username,
		SenderAccountID:   req.SenderAccountID,
		ReceiverAccountID: req.ReceiverAccountID,
		Amount:            req.Amount.String(),
		PIN:               req.PIN,
	})
	if err != nil {
		status := errStatus(err)
		if status == http.StatusInternalServerError {
			err = errorspkg.ErrInternal
		}

		gctx.JSON(status, web.Error(err))

		return
	}

	res := web.Response{
		Data: data{
			Transaction: result.Transaction,
			Balance:     moneypkg.Format(result.SenderAccount.Balance),
		},
		Message: "transfer completed",
	}

	gctx.JSON(http.StatusCreated, res)
}
