package handlers

import (
	"context"
	"errors"
	"net/http"

	"medminder/services/dispatcher"
	"medminder/utils"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type DispatchHandler struct {
	svc dispatcher.DispatchService
}

func NewDispatchHandler(svc dispatcher.DispatchService) *DispatchHandler {
	return &DispatchHandler{svc: svc}
}

// RunDispatchHandler runs one tick now and returns its report. The tick keeps
// running if the client disconnects.
func (h *DispatchHandler) RunDispatchHandler(c *gin.Context) {
	logger := getLogger(c)

	report := h.svc.Tick(context.WithoutCancel(c.Request.Context()))
	dispatcher.LogReport(logger, report)

	switch {
	case errors.Is(report.Err, dispatcher.ErrTickInProgress):
		utils.JSONError(c, logger, http.StatusConflict, "Dispatch already running", report.Error)
	case report.Err != nil:
		logger.Error("Manual dispatch failed", zap.String("runId", report.RunID), zap.Error(report.Err))
		c.JSON(http.StatusServiceUnavailable, report)
	default:
		c.JSON(http.StatusOK, report)
	}
}
