package handlers

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/charlesng35/abordo/internal/services"
	"github.com/charlesng35/abordo/pkg/logger"
	"github.com/charlesng35/abordo/pkg/response"
)

// CostHandler reports what the caller spent on their vehicles.
type CostHandler struct {
	costs *services.CostService
}

// NewCostHandler constructs a CostHandler.
func NewCostHandler(costs *services.CostService) *CostHandler {
	return &CostHandler{costs: costs}
}

func (h *CostHandler) dateRange(c *gin.Context) (services.DateRange, bool) {
	rng, err := h.costs.ParseRange(queryAny(c, "startDate", "start"), queryAny(c, "endDate", "end"))
	if err != nil {
		response.Error(c, err)
		return services.DateRange{}, false
	}
	return rng, true
}

// GET /api/costs/summary?startDate=&endDate=
func (h *CostHandler) Summary(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	rng, ok := h.dateRange(c)
	if !ok {
		return
	}

	summary, err := h.costs.Summary(requestContext(c), userID, rng)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, http.StatusOK, summary)
}

// GET /api/costs/export?startDate=&endDate=
func (h *CostHandler) Export(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	rng, ok := h.dateRange(c)
	if !ok {
		return
	}

	rows, err := h.costs.Export(requestContext(c), userID, rng)
	if err != nil {
		response.Error(c, err)
		return
	}

	c.Header("Content-Type", "text/csv; charset=utf-8")
	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, services.ExportFilename(rng)))
	c.Status(http.StatusOK)
	if err := services.WriteCostsCSV(c.Writer, rows); err != nil {
		// Headers are already sent; the client sees a truncated file.
		logger.WithModule("costs").Warn("write csv export", zap.String("user_id", userID), zap.Error(err))
	}
}
