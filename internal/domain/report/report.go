// Package report renders a settlement summary as share-ready text.
//
// The formatter only stringifies what the summary already holds; it never
// recomputes totals, shares or transfers.
package report

import (
	"fmt"
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"

	"github.com/eshaffer321/settleup/internal/domain/money"
	"github.com/eshaffer321/settleup/internal/domain/settlement"
)

// Style selects the layout of the rendered text.
type Style string

const (
	// StylePlain is a neutral text block.
	StylePlain Style = "plain"
	// StyleWhatsApp uses chat markup (*bold*) and emoji.
	StyleWhatsApp Style = "whatsapp"
)

// ParseStyle validates a style name. Empty selects StylePlain.
func ParseStyle(s string) (Style, error) {
	switch Style(strings.ToLower(strings.TrimSpace(s))) {
	case "", StylePlain:
		return StylePlain, nil
	case StyleWhatsApp:
		return StyleWhatsApp, nil
	default:
		return "", fmt.Errorf("unknown report style %q", s)
	}
}

// Options configures a Formatter.
type Options struct {
	Style  Style
	Locale language.Tag
	Symbol string // currency symbol, default "$"
	Footer string // optional closing line
}

// DefaultOptions returns plain English output with a "$" symbol.
func DefaultOptions() Options {
	return Options{
		Style:  StylePlain,
		Locale: language.English,
		Symbol: "$",
	}
}

// Formatter renders summaries.
type Formatter struct {
	opts    Options
	printer *message.Printer
}

// New creates a Formatter.
func New(opts Options) *Formatter {
	if opts.Style == "" {
		opts.Style = StylePlain
	}
	if opts.Symbol == "" {
		opts.Symbol = "$"
	}
	if opts.Locale == language.Und {
		opts.Locale = language.English
	}
	return &Formatter{
		opts:    opts,
		printer: message.NewPrinter(opts.Locale),
	}
}

// Render formats s according to the formatter's style.
func (f *Formatter) Render(s *settlement.Summary) string {
	if f.opts.Style == StyleWhatsApp {
		return f.renderWhatsApp(s)
	}
	return f.renderPlain(s)
}

func (f *Formatter) renderPlain(s *settlement.Summary) string {
	var b strings.Builder

	b.WriteString("Expense summary\n")
	fmt.Fprintf(&b, "Total: %s\n", f.Amount(s.Total, s.Currency))
	fmt.Fprintf(&b, "Participants: %d (%s each)\n\n", s.Participants, f.Amount(s.Average, s.Currency))

	if s.Settled() {
		b.WriteString("Everyone is square. Nobody owes anything.\n")
	} else {
		for _, tx := range s.Transactions {
			fmt.Fprintf(&b, "%s owes %s %s\n", tx.From, tx.To, f.Amount(tx.Amount, s.Currency))
		}
	}

	f.writeFooter(&b)
	return b.String()
}

func (f *Formatter) renderWhatsApp(s *settlement.Summary) string {
	var b strings.Builder

	b.WriteString("🧾 *Expense summary* 🧾\n")
	fmt.Fprintf(&b, "Total: %s\n", f.Amount(s.Total, s.Currency))
	fmt.Fprintf(&b, "We are %d (%s each)\n\n", s.Participants, f.Amount(s.Average, s.Currency))
	b.WriteString("💸 *Who pays whom:*\n")

	if s.Settled() {
		b.WriteString("✅ Nobody owes anything. All square!\n")
	} else {
		for _, tx := range s.Transactions {
			fmt.Fprintf(&b, "❌ %s owes %s %s\n", tx.From, tx.To, f.Amount(tx.Amount, s.Currency))
		}
	}

	f.writeFooter(&b)
	return b.String()
}

func (f *Formatter) writeFooter(b *strings.Builder) {
	if f.opts.Footer == "" {
		return
	}
	b.WriteString("\n")
	b.WriteString(f.opts.Footer)
	b.WriteString("\n")
}

// Amount formats a single amount with the currency symbol and the
// formatter's locale separators.
func (f *Formatter) Amount(a money.Amount, cur money.Currency) string {
	value := a.Decimal(cur).InexactFloat64()
	return f.opts.Symbol + f.printer.Sprint(number.Decimal(value, number.Scale(int(cur.Decimals))))
}
