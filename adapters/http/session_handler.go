package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	sessionUC "github.com/khoahotran/provenpro/internal/application/usecase/session"
	"github.com/khoahotran/provenpro/pkg/apperror"
	"github.com/khoahotran/provenpro/pkg/logger"
)

type SessionHandler struct {
	sessionUseCase *sessionUC.SessionUseCase
	logger         logger.Logger
}

func NewSessionHandler(uc *sessionUC.SessionUseCase, log logger.Logger) *SessionHandler {
	return &SessionHandler{sessionUseCase: uc, logger: log}
}

func (h *SessionHandler) SaveToken(c *gin.Context) {
	var req SaveTokenRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.Error(apperror.NewValidation("token", "token is required"))
		return
	}

	output, err := h.sessionUseCase.ExecuteSaveToken(c.Request.Context(), sessionUC.SaveTokenInput{Token: req.Token})
	if err != nil {
		c.Error(err)
		return
	}

	dto := SessionDTO{Subject: output.Subject}
	if !output.ExpiresAt.IsZero() {
		dto.ExpiresAt = &output.ExpiresAt
	}
	c.JSON(http.StatusCreated, dto)
}

func (h *SessionHandler) Logout(c *gin.Context) {
	if err := h.sessionUseCase.ExecuteLogout(c.Request.Context()); err != nil {
		c.Error(err)
		return
	}
	c.Status(http.StatusNoContent)
}
