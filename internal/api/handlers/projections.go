package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/jstittsworth/prop-projections/internal/models"
	"github.com/jstittsworth/prop-projections/internal/services"
	"github.com/jstittsworth/prop-projections/internal/store"
	"github.com/jstittsworth/prop-projections/pkg/utils"
)

// BatchController is the batch surface the API drives.
type BatchController interface {
	Start(ctx context.Context, trigger string) error
	Running() bool
	LastRun(ctx context.Context) (*models.ProjectionRun, error)
}

type BreakerReporter interface {
	Statuses() map[string]services.BreakerStatus
}

type ProjectionHandler struct {
	// Batches started over HTTP outlive the request; baseCtx is cancelled
	// at shutdown.
	baseCtx  context.Context
	batches  BatchController
	breakers BreakerReporter
	logger   *logrus.Logger
}

func NewProjectionHandler(baseCtx context.Context, batches BatchController, breakers BreakerReporter, logger *logrus.Logger) *ProjectionHandler {
	return &ProjectionHandler{
		baseCtx:  baseCtx,
		batches:  batches,
		breakers: breakers,
		logger:   logger,
	}
}

type statusResponse struct {
	Running  bool                              `json:"running"`
	LastRun  *models.ProjectionRun             `json:"last_run"`
	Breakers map[string]services.BreakerStatus `json:"breakers"`
}

// GetStatus reports the latest batch run and upstream breaker states.
func (h *ProjectionHandler) GetStatus(c *gin.Context) {
	run, err := h.batches.LastRun(c.Request.Context())
	if err != nil && !errors.Is(err, store.ErrNotFound) {
		h.logger.WithError(err).Error("Failed to load last projection run")
		utils.SendInternalError(c, "Failed to load projection status")
		return
	}

	resp := statusResponse{
		Running: h.batches.Running(),
		LastRun: run,
	}
	if h.breakers != nil {
		resp.Breakers = h.breakers.Statuses()
	}
	utils.SendSuccess(c, resp)
}

// RunProjections starts a batch in the background.
func (h *ProjectionHandler) RunProjections(c *gin.Context) {
	err := h.batches.Start(h.baseCtx, "api")
	if errors.Is(err, services.ErrBatchRunning) {
		utils.SendConflict(c, utils.ErrCodeBatchRunning, "A projection batch is already running")
		return
	}
	if err != nil {
		h.logger.WithError(err).Error("Failed to start projection batch")
		utils.SendError(c, http.StatusInternalServerError, utils.NewAppError(utils.ErrCodeBatchFailed, "Failed to start projection batch", err.Error()))
		return
	}
	utils.SendAccepted(c, gin.H{"status": "started", "trigger": "api"})
}
