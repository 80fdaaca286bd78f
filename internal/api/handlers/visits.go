package handlers

import (
	"log/slog"
	"net/http"
	"regexp"

	"github.com/gin-gonic/gin"

	"github.com/eshaffer321/settleup/internal/api/dto"
	"github.com/eshaffer321/settleup/internal/infrastructure/storage"
)

var visitKeyPattern = regexp.MustCompile(`^[a-zA-Z0-9_.-]{1,64}$`)

// VisitsHandler handles page visit counters.
type VisitsHandler struct {
	*Base
	repo storage.VisitRepository
}

// NewVisitsHandler creates a new visits handler.
func NewVisitsHandler(repo storage.VisitRepository, logger *slog.Logger) *VisitsHandler {
	return &VisitsHandler{
		Base: NewBase(logger),
		repo: repo,
	}
}

// Increment handles POST /api/visits/:key.
func (h *VisitsHandler) Increment(c *gin.Context) {
	key, ok := h.key(c)
	if !ok {
		return
	}

	count, err := h.repo.IncrementVisit(c.Request.Context(), key)
	if err != nil {
		h.logger.Error("failed to increment visit counter", "key", key, "error", err)
		h.WriteError(c, http.StatusInternalServerError, dto.InternalError())
		return
	}
	h.WriteJSON(c, http.StatusOK, dto.VisitResponse{Key: key, Count: count})
}

// Get handles GET /api/visits/:key.
func (h *VisitsHandler) Get(c *gin.Context) {
	key, ok := h.key(c)
	if !ok {
		return
	}

	count, err := h.repo.GetVisits(c.Request.Context(), key)
	if err != nil {
		h.logger.Error("failed to read visit counter", "key", key, "error", err)
		h.WriteError(c, http.StatusInternalServerError, dto.InternalError())
		return
	}
	h.WriteJSON(c, http.StatusOK, dto.VisitResponse{Key: key, Count: count})
}

func (h *VisitsHandler) key(c *gin.Context) (string, bool) {
	key := c.Param("key")
	if !visitKeyPattern.MatchString(key) {
		h.WriteError(c, http.StatusBadRequest, dto.ValidationError("key must be 1-64 letters, digits, '.', '_' or '-'"))
		return "", false
	}
	return key, true
}
