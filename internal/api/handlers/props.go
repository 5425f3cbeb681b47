package handlers

import (
	"context"
	"errors"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/jstittsworth/prop-projections/internal/models"
	"github.com/jstittsworth/prop-projections/internal/store"
	"github.com/jstittsworth/prop-projections/pkg/utils"
)

type PropReader interface {
	Get(ctx context.Context, id uuid.UUID) (*models.Prop, error)
	FindByPlayerStat(ctx context.Context, player, statType string) ([]models.Prop, error)
}

// PropHandler serves stored props with their latest projection and market.
type PropHandler struct {
	props  PropReader
	logger *logrus.Logger
}

func NewPropHandler(props PropReader, logger *logrus.Logger) *PropHandler {
	return &PropHandler{props: props, logger: logger}
}

func (h *PropHandler) GetProp(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		utils.SendValidationError(c, "Invalid prop ID", err.Error())
		return
	}

	prop, err := h.props.Get(c.Request.Context(), id)
	if errors.Is(err, store.ErrNotFound) {
		utils.SendNotFound(c, "Prop not found")
		return
	}
	if err != nil {
		h.logger.WithError(err).WithField("prop_id", id.String()).Error("Failed to load prop")
		utils.SendInternalError(c, "Failed to load prop")
		return
	}
	utils.SendSuccess(c, prop)
}

// SearchProps looks up props by player and stat, e.g. ?player=LeBron James&stat=Points.
func (h *PropHandler) SearchProps(c *gin.Context) {
	player := c.Query("player")
	stat := c.Query("stat")
	if player == "" || stat == "" {
		utils.SendValidationError(c, "player and stat are required", "")
		return
	}

	props, err := h.props.FindByPlayerStat(c.Request.Context(), player, stat)
	if err != nil {
		h.logger.WithError(err).WithField("player", player).Error("Failed to search props")
		utils.SendInternalError(c, "Failed to search props")
		return
	}
	utils.SendSuccess(c, props)
}
