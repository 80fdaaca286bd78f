package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"golang.org/x/term"

	"github.com/eshaffer321/settleup/internal/domain/settlement"
)

var (
	colorTitle = lipgloss.Color("#7C3AED")
	colorDebt  = lipgloss.Color("#EF4444")
	colorOK    = lipgloss.Color("#10B981")
	colorMuted = lipgloss.Color("#6B7280")

	titleStyle   = lipgloss.NewStyle().Foreground(colorTitle).Bold(true)
	debtStyle    = lipgloss.NewStyle().Foreground(colorDebt)
	settledStyle = lipgloss.NewStyle().Foreground(colorOK).Bold(true)
	mutedStyle   = lipgloss.NewStyle().Foreground(colorMuted)
	errorStyle   = lipgloss.NewStyle().Foreground(colorDebt).Bold(true)
)

// Printer writes command output, styled when the writer is a terminal.
type Printer struct {
	w      io.Writer
	styled bool
}

// NewPrinter creates a printer for w.
func NewPrinter(w io.Writer, styled bool) *Printer {
	return &Printer{w: w, styled: styled}
}

// NewStdoutPrinter styles output only when stdout is a terminal.
func NewStdoutPrinter() *Printer {
	return NewPrinter(os.Stdout, IsTerminal(os.Stdout))
}

// IsTerminal reports whether f is attached to a terminal.
func IsTerminal(f *os.File) bool {
	return term.IsTerminal(int(f.Fd()))
}

// PrintReport writes share text. Styling is applied line by line so the
// copied text stays plain.
func (p *Printer) PrintReport(text string) {
	if !p.styled {
		fmt.Fprint(p.w, text)
		return
	}

	lines := strings.Split(strings.TrimRight(text, "\n"), "\n")
	for i, line := range lines {
		switch {
		case i == 0:
			line = titleStyle.Render(line)
		case strings.Contains(line, " owes "):
			line = debtStyle.Render(line)
		case strings.Contains(strings.ToLower(line), "square"):
			line = settledStyle.Render(line)
		case line != "":
			line = mutedStyle.Render(line)
		}
		fmt.Fprintln(p.w, line)
	}
}

// PrintJSON writes the summary as indented JSON.
func (p *Printer) PrintJSON(s *settlement.Summary) error {
	enc := json.NewEncoder(p.w)
	enc.SetIndent("", "  ")
	return enc.Encode(s.View())
}

// PrintError writes an error line.
func (p *Printer) PrintError(err error) {
	msg := "error: " + err.Error()
	if p.styled {
		msg = errorStyle.Render(msg)
	}
	fmt.Fprintln(p.w, msg)
}

// PrintNote writes a secondary line (e.g. "copied to clipboard").
func (p *Printer) PrintNote(note string) {
	if p.styled {
		note = mutedStyle.Render(note)
	}
	fmt.Fprintln(p.w, note)
}
