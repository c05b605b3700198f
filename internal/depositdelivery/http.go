// Package depositdelivery manages delivery layer of cash deposits.
package depositdelivery

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

// Service provides service layer interface needed by deposit delivery layer.
//
//go:generate mockgen -source http.go -destination http_mock.go -package depositdelivery
type Service interface {
	Deposit(ctx context.Context, req domain.DepositRequest) (domain.DepositResult, error)
}

// Handler facilitates deposit delivery layer logic.
type Handler struct {
	service Service
}

// NewHandler returns deposit handler.
func NewHandler(ds Service) *Handler {
	return &Handler{
		service: ds,
	}
}

type uriRequest struct {
	ID int32 `uri:"id" binding:"required,min=1"`
}

type request struct {
	Amount json.Number `json:"amount" binding:"required,money"`
	PIN    string      `json:"pin" binding:"required"`
}

type data struct {
	AccountID       int32              `json:"account_id"`
	NewBalance      string             `json:"new_balance"`
	AmountDeposited string             `json:"amount_deposited"`
	Transaction     domain.Transaction `json:"transaction"`
}

func errStatus(err error) int {
	switch err {
	case domain.ErrInvalidAmount, domain.ErrAmountTooSmall, domain.ErrAmountTooLarge, domain.ErrBalanceLimit:
		return http.StatusBadRequest
	case domain.ErrInvalidPin:
		return http.StatusForbidden
	case domain.ErrAccountNotFound:
		return http.StatusNotFound
	case domain.ErrConcurrencyConflict:
		return http.StatusConflict
	}

	return http.StatusInternalServerError
}

// Create handles http request to deposit cash into the account.
func (h *Handler) Create(gctx *gin.Context) {
	ctx := gctx.Request.Context()
	l := zerolog.Ctx(ctx)

	var uri uriRequest
	if err := gctx.ShouldBindUri(&uri); err != nil {
		l.Info().Err(err).Send()
		gctx.JSON(http.StatusBadRequest, web.Response{Error: web.BindingErrorMsg(err)})

		return
	}

	var req request
	if err := gctx.ShouldBindJSON(&req); err != nil {
		l.Info().Err(err).Send()
		gctx.JSON(http.StatusBadRequest, web.Response{Error: web.BindingErrorMsg(err)})

		return
	}

	authPayload := gctx.MustGet(middleware.AuthPayloadKey).(*tokenpkg.Payload)

	result, err := h.service.Deposit(ctx, domain.DepositRequest{
		Owner:     authPayload.Username,
		AccountID: uri.ID,
		Amount:    req.Amount.String(),
		PIN:       req.PIN,
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
			AccountID:       result.Account.ID,
			NewBalance:      moneypkg.Format(result.Account.Balance),
			AmountDeposited: moneypkg.Format(result.Transaction.Amount),
			Transaction:     result.Transaction,
		},
		Message: "deposit completed",
	}

	gctx.JSON(http.StatusOK, res)
}
