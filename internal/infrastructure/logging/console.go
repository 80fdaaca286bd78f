package logging

import (
	"context"
	"io"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"sync"

	"golang.org/x/term"
)

// ANSI color codes
const (
	colorReset  = "\033[0m"
	colorRed    = "\033[31m"
	colorYellow = "\033[33m"
	colorCyan   = "\033[36m"
	colorGray   = "\033[90m"
)

// ComponentKey is shown in brackets instead of as key=value.
const ComponentKey = "component"

// ConsoleHandler is a slog.Handler for humans:
//
//	[INFO] [api] [15:04:05] request completed status=200 path=/api/settlements
type ConsoleHandler struct {
	w          io.Writer
	mu         *sync.Mutex
	level      slog.Leveler
	component  string
	prefix     string // dotted group path for attribute keys
	attrs      string // pre-rendered attributes from WithAttrs
	timestamps bool
	colors     bool
}

// NewConsoleHandler creates a handler writing to w. Colors are enabled
// only when w is a terminal.
func NewConsoleHandler(w io.Writer, opts *slog.HandlerOptions) *ConsoleHandler {
	h := &ConsoleHandler{
		w:          w,
		mu:         &sync.Mutex{},
		level:      slog.LevelInfo,
		timestamps: true,
		colors:     isTerminal(w),
	}
	if opts != nil && opts.Level != nil {
		h.level = opts.Level
	}
	return h
}

func isTerminal(w io.Writer) bool {
	if f, ok := w.(*os.File); ok {
		return term.IsTerminal(int(f.Fd()))
	}
	return false
}

// Enabled implements slog.Handler.
func (h *ConsoleHandler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= h.level.Level()
}

// Handle implements slog.Handler.
func (h *ConsoleHandler) Handle(_ context.Context, r slog.Record) error {
	var buf strings.Builder

	h.paint(&buf, levelColor(r.Level), "["+levelString(r.Level)+"]")
	if h.component != "" {
		buf.WriteString(" [")
		buf.WriteString(h.component)
		buf.WriteString("]")
	}
	if h.timestamps && !r.Time.IsZero() {
		buf.WriteString(" ")
		h.paint(&buf, colorGray, "["+r.Time.Format("15:04:05")+"]")
	}

	buf.WriteString(" ")
	buf.WriteString(r.Message)
	buf.WriteString(h.attrs)

	r.Attrs(func(a slog.Attr) bool {
		writeAttr(&buf, h.prefix, a)
		return true
	})
	buf.WriteString("\n")

	h.mu.Lock()
	defer h.mu.Unlock()
	_, err := io.WriteString(h.w, buf.String())
	return err
}

// WithAttrs implements slog.Handler. A "component" attribute replaces the
// bracketed component name.
func (h *ConsoleHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	clone := *h
	var buf strings.Builder
	buf.WriteString(h.attrs)
	for _, a := range attrs {
		if a.Key == ComponentKey && h.prefix == "" {
			clone.component = a.Value.String()
			continue
		}
		writeAttr(&buf, h.prefix, a)
	}
	clone.attrs = buf.String()
	return &clone
}

// WithGroup implements slog.Handler. Groups become dotted key prefixes.
func (h *ConsoleHandler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}
	clone := *h
	clone.prefix = h.prefix + name + "."
	return &clone
}

func (h *ConsoleHandler) paint(buf *strings.Builder, color, s string) {
	if !h.colors {
		buf.WriteString(s)
		return
	}
	buf.WriteString(color)
	buf.WriteString(s)
	buf.WriteString(colorReset)
}

func writeAttr(buf *strings.Builder, prefix string, a slog.Attr) {
	a.Value = a.Value.Resolve()
	if a.Equal(slog.Attr{}) {
		return
	}
	if a.Value.Kind() == slog.KindGroup {
		groupPrefix := prefix
		if a.Key != "" {
			groupPrefix += a.Key + "."
		}
		for _, ga := range a.Value.Group() {
			writeAttr(buf, groupPrefix, ga)
		}
		return
	}

	buf.WriteString(" ")
	buf.WriteString(prefix)
	buf.WriteString(a.Key)
	buf.WriteString("=")

	val := a.Value.String()
	if strings.ContainsAny(val, " \t\n\"=") {
		val = strconv.Quote(val)
	}
	buf.WriteString(val)
}

func levelColor(level slog.Level) string {
	switch {
	case level >= slog.LevelError:
		return colorRed
	case level >= slog.LevelWarn:
		return colorYellow
	case level >= slog.LevelInfo:
		return colorCyan
	default:
		return colorGray
	}
}

func levelString(level slog.Level) string {
	switch level {
	case slog.LevelDebug:
		return "DEBUG"
	case slog.LevelInfo:
		return "INFO"
	case slog.LevelWarn:
		return "WARN"
	case slog.LevelError:
		return "ERROR"
	default:
		return level.String()
	}
}
