// Package sessiondelivery exchanges refresh tokens for new access tokens over http.
package sessiondelivery

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/go-petr/pet-ledger/internal/domain"
	"github.com/go-petr/pet-ledger/pkg/errorspkg"
	"github.com/go-petr/pet-ledger/pkg/tokenpkg"
	"github.com/go-petr/pet-ledger/pkg/web"
)

// Service provides service layer interface needed by session delivery layer.
//
//go:generate mockgen -source http.go -destination http_mock.go -package sessiondelivery
type Service interface {
	RenewAccessToken(ctx context.Context, refreshToken string) (string, time.Time, error)
}

// Handler facilitates session delivery layer logic.
type Handler struct {
	service Service
}

// NewHandler returns session handler.
func NewHandler(s Service) *Handler {
	return &Handler{service: s}
}

type renewRequest struct {
	RefreshToken string `json:"refresh_token" binding:"required"`
}

func errStatus(err error) int {
	switch err {
	case tokenpkg.ErrInvalidToken,
		tokenpkg.ErrExpiredToken,
		domain.ErrBlockedSession,
		domain.ErrInvalidUser,
		domain.ErrMismatchedRefreshToken,
		domain.ErrExpiredSession:
		return http.StatusUnauthorized
	case domain.ErrSessionNotFound:
		return http.StatusNotFound
	}

	return http.StatusInternalServerError
}

// RenewAccessToken handles http request to exchange a refresh token for an access token.
func (h *Handler) RenewAccessToken(gctx *gin.Context) {
	ctx := gctx.Request.Context()

	var req renewRequest
	if err := gctx.ShouldBindJSON(&req); err != nil {
		zerolog.Ctx(ctx).Info().Err(err).Send()
		gctx.JSON(http.StatusBadRequest, web.Response{Error: web.BindingErrorMsg(err)})

		return
	}

	accessToken, expiresAt, err := h.service.RenewAccessToken(ctx, req.RefreshToken)
	if err != nil {
		status := errStatus(err)
		if status == http.StatusInternalServerError {
			err = errorspkg.ErrInternal
		}

		gctx.JSON(status, web.Error(err))

		return
	}

	gctx.JSON(http.StatusOK, web.Response{
		AccessToken:          accessToken,
		AccessTokenExpiresAt: expiresAt.Format(time.RFC3339),
	})
}
