package handlers

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/eshaffer321/settleup/internal/api/dto"
	"github.com/eshaffer321/settleup/internal/infrastructure/storage"
)

// StatsHandler handles settlement run statistics.
type StatsHandler struct {
	*Base
	repo storage.RunRepository
}

// NewStatsHandler creates a new stats handler.
func NewStatsHandler(repo storage.RunRepository, logger *slog.Logger) *StatsHandler {
	return &StatsHandler{
		Base: NewBase(logger),
		repo: repo,
	}
}

// Get handles GET /api/stats.
//
// Query parameters:
//   - limit: number of recent runs to include (default: 10)
func (h *StatsHandler) Get(c *gin.Context) {
	ctx := c.Request.Context()

	stats, err := h.repo.GetRunStats(ctx)
	if err != nil {
		h.logger.Error("failed to get run stats", "error", err)
		h.WriteError(c, http.StatusInternalServerError, dto.InternalError())
		return
	}

	recent, err := h.repo.ListRuns(ctx, ParseIntParam(c, "limit", 10))
	if err != nil {
		h.logger.Error("failed to list runs", "error", err)
		h.WriteError(c, http.StatusInternalServerError, dto.InternalError())
		return
	}

	h.WriteJSON(c, http.StatusOK, dto.NewStatsResponse(stats, recent))
}
