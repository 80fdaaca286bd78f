package handlers

import (
	"fmt"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/eshaffer321/settleup/internal/api/dto"
	"github.com/eshaffer321/settleup/internal/domain/worksheet"
)

// SettlementsHandler computes one-shot settlements.
type SettlementsHandler struct {
	*Base
	settler         worksheet.Settler
	reporter        *Reporter
	maxParticipants int
}

// NewSettlementsHandler creates a new settlements handler. Requests with
// more than maxParticipants rows are rejected; zero or less means no limit.
func NewSettlementsHandler(settler worksheet.Settler, reporter *Reporter, maxParticipants int, logger *slog.Logger) *SettlementsHandler {
	return &SettlementsHandler{
		Base:            NewBase(logger),
		settler:         settler,
		reporter:        reporter,
		maxParticipants: maxParticipants,
	}
}

// Create handles POST /api/settlements.
//
// Query parameters:
//   - format: "text" or "whatsapp" adds the share text as "report"
func (h *SettlementsHandler) Create(c *gin.Context) {
	formatter, ok := h.QueryFormatter(c, h.reporter)
	if !ok {
		return
	}

	var req dto.SettleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.WriteBindError(c, err)
		return
	}
	if h.maxParticipants > 0 && len(req.Participants) > h.maxParticipants {
		h.WriteError(c, http.StatusUnprocessableEntity,
			dto.LimitExceededError(fmt.Sprintf("at most %d participants per request", h.maxParticipants)))
		return
	}

	summary, err := h.settler.Settle(c.Request.Context(), req.ToParticipants())
	if err != nil {
		h.WriteSettleError(c, err)
		return
	}

	h.WriteJSON(c, http.StatusOK, dto.NewSettlementResponse(summary, RenderText(formatter, summary)))
}
