package handlers

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/eshaffer321/settleup/internal/api/dto"
	"github.com/eshaffer321/settleup/internal/domain/balance"
	"github.com/eshaffer321/settleup/internal/domain/money"
	"github.com/eshaffer321/settleup/internal/domain/report"
	"github.com/eshaffer321/settleup/internal/domain/settlement"
	"github.com/eshaffer321/settleup/internal/domain/worksheet"
)

// Base provides shared functionality for all handlers.
type Base struct {
	logger *slog.Logger
}

// NewBase creates a new base handler.
func NewBase(logger *slog.Logger) *Base {
	if logger == nil {
		logger = slog.Default()
	}
	return &Base{logger: logger}
}

// WriteJSON writes a JSON response with the given status code.
func (b *Base) WriteJSON(c *gin.Context, status int, data interface{}) {
	c.JSON(status, data)
}

// WriteError writes an error response and stops the handler chain.
func (b *Base) WriteError(c *gin.Context, status int, err dto.APIError) {
	c.AbortWithStatusJSON(status, err)
}

// WriteBindError writes the response for a request body that could not be
// bound: 413 when it hit the body limit, 400 otherwise.
func (b *Base) WriteBindError(c *gin.Context, err error) {
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		b.WriteError(c, http.StatusRequestEntityTooLarge, dto.PayloadTooLargeError(tooLarge.Limit))
		return
	}
	b.WriteError(c, http.StatusBadRequest, dto.BadRequestError("invalid JSON body"))
}

// WriteSettleError maps engine and worksheet errors to responses.
func (b *Base) WriteSettleError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, balance.ErrInsufficientParticipants):
		b.WriteError(c, http.StatusUnprocessableEntity, dto.InsufficientParticipantsError())
	case errors.Is(err, money.ErrInvalidAmount):
		b.WriteError(c, http.StatusUnprocessableEntity, dto.ValidationError("total amount is out of range"))
	case errors.Is(err, worksheet.ErrStale):
		b.WriteError(c, http.StatusConflict, dto.StaleSummaryError())
	case errors.Is(err, worksheet.ErrSheetNotFound):
		b.WriteError(c, http.StatusNotFound, dto.NotFoundError("sheet"))
	case errors.Is(err, worksheet.ErrRowNotFound):
		b.WriteError(c, http.StatusNotFound, dto.NotFoundError("row"))
	case errors.Is(err, worksheet.ErrTooManyRows):
		b.WriteError(c, http.StatusUnprocessableEntity, dto.LimitExceededError(err.Error()))
	case errors.Is(err, worksheet.ErrStoreFull):
		b.WriteError(c, http.StatusServiceUnavailable, dto.LimitExceededError(err.Error()))
	default:
		if errors.Is(err, settlement.ErrInvariantViolation) {
			b.logger.Error("settlement rejected by consistency check", "error", err)
		} else {
			b.logger.Error("settlement failed", "error", err)
		}
		b.WriteError(c, http.StatusInternalServerError, dto.InternalError())
	}
}

// ParseIntParam parses an integer query parameter with a default value.
func ParseIntParam(c *gin.Context, name string, defaultVal int) int {
	val := c.Query(name)
	if val == "" {
		return defaultVal
	}
	parsed, err := strconv.Atoi(val)
	if err != nil {
		return defaultVal
	}
	return parsed
}

// Reporter renders share text for the ?format query parameter.
type Reporter struct {
	base report.Options
}

// NewReporter creates a Reporter; opts supply locale, symbol and footer.
func NewReporter(opts report.Options) *Reporter {
	return &Reporter{base: opts}
}

// Formatter returns the formatter for format. Empty format returns nil,
// which renders no text.
func (r *Reporter) Formatter(format string) (*report.Formatter, error) {
	if format == "" {
		return nil, nil
	}
	style, err := parseFormat(format)
	if err != nil {
		return nil, err
	}
	opts := r.base
	opts.Style = style
	return report.New(opts), nil
}

// QueryFormatter reads the ?format query parameter. It writes a 400 and
// returns false when the format is unknown.
func (b *Base) QueryFormatter(c *gin.Context, r *Reporter) (*report.Formatter, bool) {
	f, err := r.Formatter(c.Query("format"))
	if err != nil {
		b.WriteError(c, http.StatusBadRequest, dto.ValidationError("format must be text or whatsapp"))
		return nil, false
	}
	return f, true
}

// RenderText renders s with f; a nil formatter renders nothing.
func RenderText(f *report.Formatter, s *settlement.Summary) string {
	if f == nil {
		return ""
	}
	return f.Render(s)
}

// parseFormat accepts "text" (plain) and "whatsapp".
func parseFormat(format string) (report.Style, error) {
	if format == "text" {
		return report.StylePlain, nil
	}
	return report.ParseStyle(format)
}
