package http

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	profileUC "github.com/khoahotran/provenpro/internal/application/usecase/profile"
	"github.com/khoahotran/provenpro/internal/domain/profile"
	"github.com/khoahotran/provenpro/pkg/apperror"
	"github.com/khoahotran/provenpro/pkg/logger"
)

type ProfileHandler struct {
	profileUseCase *profileUC.ProfileUseCase
	logger         logger.Logger
}

func NewProfileHandler(uc *profileUC.ProfileUseCase, log logger.Logger) *ProfileHandler {
	return &ProfileHandler{
		profileUseCase: uc,
		logger:         log,
	}
}

func (h *ProfileHandler) GetProfile(c *gin.Context) {
	force, _ := strconv.ParseBool(c.Query("refresh"))
	input := profileUC.FetchInput{ProfileID: c.Query("profile_id"), Force: force}

	output, err := h.profileUseCase.ExecuteFetch(c.Request.Context(), input)
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, ToSnapshotDTO(output.Snapshot, output.Fresh))
}

func (h *ProfileHandler) SubmitStep(c *gin.Context) {
	var req SubmitStepRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.Error(apperror.NewValidation("fields", "invalid JSON body for profile step"))
		return
	}

	output, err := h.profileUseCase.ExecuteSubmitStep(c.Request.Context(), profileUC.SubmitStepInput{
		Fields: profile.Payload(req.Fields),
	})
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusCreated, ToSnapshotDTO(output.Snapshot, output.Fresh))
}

func (h *ProfileHandler) History(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "0"))

	output, err := h.profileUseCase.ExecuteHistory(c.Request.Context(), profileUC.HistoryInput{
		Field: c.Param("field"),
		Limit: limit,
	})
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"field": c.Param("field"), "entries": ToHistoryDTOs(output.Entries)})
}
