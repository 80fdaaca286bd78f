package handlers

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/eshaffer321/settleup/internal/api/dto"
	"github.com/eshaffer321/settleup/internal/domain/worksheet"
)

// SheetsHandler handles editable worksheets. A summary is served only
// for the rows it was calculated from.
type SheetsHandler struct {
	*Base
	store    *worksheet.Store
	reporter *Reporter
}

// NewSheetsHandler creates a new sheets handler.
func NewSheetsHandler(store *worksheet.Store, reporter *Reporter, logger *slog.Logger) *SheetsHandler {
	return &SheetsHandler{
		Base:     NewBase(logger),
		store:    store,
		reporter: reporter,
	}
}

// Create handles POST /api/sheets. The body is optional.
func (h *SheetsHandler) Create(c *gin.Context) {
	var req dto.CreateSheetRequest
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
			h.WriteBindError(c, err)
			return
		}
	}

	if limit := h.store.MaxRows(); limit > 0 && len(req.Rows) > limit {
		h.WriteError(c, http.StatusUnprocessableEntity,
			dto.LimitExceededError(fmt.Sprintf("at most %d rows per sheet", limit)))
		return
	}

	sheet, err := h.store.Create()
	if err != nil {
		h.WriteSettleError(c, err)
		return
	}
	for _, row := range req.Rows {
		if _, err := sheet.AddRow(row.Name, row.Amount); err != nil {
			_ = h.store.Delete(sheet.ID())
			h.WriteSettleError(c, err)
			return
		}
	}
	h.WriteJSON(c, http.StatusCreated, dto.NewSheetResponse(sheet))
}

// Get handles GET /api/sheets/:id.
func (h *SheetsHandler) Get(c *gin.Context) {
	sheet, ok := h.sheet(c)
	if !ok {
		return
	}
	h.WriteJSON(c, http.StatusOK, dto.NewSheetResponse(sheet))
}

// Delete handles DELETE /api/sheets/:id.
func (h *SheetsHandler) Delete(c *gin.Context) {
	if err := h.store.Delete(c.Param("id")); err != nil {
		h.WriteSettleError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// AddRow handles POST /api/sheets/:id/rows.
func (h *SheetsHandler) AddRow(c *gin.Context) {
	sheet, ok := h.sheet(c)
	if !ok {
		return
	}

	var req dto.RowRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.WriteBindError(c, err)
		return
	}

	row, err := sheet.AddRow(req.Name, req.Amount)
	if err != nil {
		h.WriteSettleError(c, err)
		return
	}
	h.WriteJSON(c, http.StatusCreated, row)
}

// UpdateRow handles PUT /api/sheets/:id/rows/:rowID.
func (h *SheetsHandler) UpdateRow(c *gin.Context) {
	sheet, ok := h.sheet(c)
	if !ok {
		return
	}

	var req dto.UpdateRowRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.WriteBindError(c, err)
		return
	}

	row, err := sheet.UpdateRow(c.Param("rowID"), worksheet.RowPatch{Name: req.Name, Amount: req.Amount})
	if err != nil {
		h.WriteSettleError(c, err)
		return
	}
	h.WriteJSON(c, http.StatusOK, row)
}

// RemoveRow handles DELETE /api/sheets/:id/rows/:rowID.
func (h *SheetsHandler) RemoveRow(c *gin.Context) {
	sheet, ok := h.sheet(c)
	if !ok {
		return
	}
	if err := sheet.RemoveRow(c.Param("rowID")); err != nil {
		h.WriteSettleError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// Calculate handles POST /api/sheets/:id/calculate.
func (h *SheetsHandler) Calculate(c *gin.Context) {
	sheet, ok := h.sheet(c)
	if !ok {
		return
	}
	formatter, ok := h.QueryFormatter(c, h.reporter)
	if !ok {
		return
	}

	summary, err := sheet.Calculate(c.Request.Context())
	if err != nil {
		h.WriteSettleError(c, err)
		return
	}

	h.WriteJSON(c, http.StatusOK, dto.NewSettlementResponse(summary, RenderText(formatter, summary)))
}

// Summary handles GET /api/sheets/:id/summary. It returns 409 when the
// rows changed after the last calculation.
func (h *SheetsHandler) Summary(c *gin.Context) {
	sheet, ok := h.sheet(c)
	if !ok {
		return
	}
	formatter, ok := h.QueryFormatter(c, h.reporter)
	if !ok {
		return
	}

	summary, err := sheet.Summary()
	if err != nil {
		h.WriteSettleError(c, err)
		return
	}

	h.WriteJSON(c, http.StatusOK, dto.NewSettlementResponse(summary, RenderText(formatter, summary)))
}

func (h *SheetsHandler) sheet(c *gin.Context) (*worksheet.Sheet, bool) {
	sheet, err := h.store.Get(c.Param("id"))
	if err != nil {
		h.WriteSettleError(c, err)
		return nil, false
	}
	return sheet, true
}
