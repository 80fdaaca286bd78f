package cli

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/atotto/clipboard"
	"golang.org/x/text/language"

	"github.com/eshaffer321/settleup/internal/domain/balance"
	"github.com/eshaffer321/settleup/internal/domain/report"
	"github.com/eshaffer321/settleup/internal/domain/settlement"
	"github.com/eshaffer321/settleup/internal/infrastructure/config"
	"github.com/eshaffer321/settleup/internal/infrastructure/logging"
)

// ClipboardWriter copies text to the system clipboard.
type ClipboardWriter func(text string) error

// SettleCommand runs one settlement from the command line.
type SettleCommand struct {
	Config    *config.Config
	Flags     *SettleFlags
	Stdin     io.Reader
	Out       *Printer
	Err       *Printer
	Logger    *slog.Logger
	Clipboard ClipboardWriter
}

// NewSettleCommand wires a command with the system clipboard and a
// logger built from cfg.
func NewSettleCommand(cfg *config.Config, flags *SettleFlags, stdin io.Reader, out, errOut *Printer, logw io.Writer) *SettleCommand {
	loggingCfg := cfg.Observability.Logging
	if flags.Verbose {
		loggingCfg.Level = "debug"
	}
	return &SettleCommand{
		Config:    cfg,
		Flags:     flags,
		Stdin:     stdin,
		Out:       out,
		Err:       errOut,
		Logger:    logging.NewLoggerTo(logw, loggingCfg).With(logging.ComponentKey, "settle"),
		Clipboard: clipboard.WriteAll,
	}
}

// Run computes and prints the settlement.
func (c *SettleCommand) Run(ctx context.Context) error {
	participants, err := c.participants()
	if err != nil {
		return err
	}

	balanceOpts, reportOpts, err := c.options()
	if err != nil {
		return err
	}

	engine := settlement.NewEngine(
		settlement.WithOptions(balanceOpts),
		settlement.WithLogger(c.Logger),
	)
	summary, err := engine.Settle(ctx, participants)
	if err != nil {
		return err
	}

	if c.Flags.Format == FormatJSON {
		if err := c.Out.PrintJSON(summary); err != nil {
			return err
		}
	}

	text := report.New(reportOpts).Render(summary)
	if c.Flags.Format != FormatJSON {
		c.Out.PrintReport(text)
	}

	if c.Flags.Copy {
		if err := c.Clipboard(text); err != nil {
			c.Logger.Warn("failed to copy to clipboard", "error", err)
			c.Err.PrintNote("could not copy to clipboard: " + err.Error())
		} else {
			c.Err.PrintNote("copied to clipboard")
		}
	}
	return nil
}

func (c *SettleCommand) participants() ([]balance.Participant, error) {
	if c.Flags.File != "" {
		return ReadParticipants(c.Flags.File, c.Stdin)
	}
	return ParseArgs(c.Flags.Args), nil
}

// options applies flag overrides on top of the config.
func (c *SettleCommand) options() (balance.Options, report.Options, error) {
	settlementCfg := c.Config.Settlement
	if c.Flags.Currency != "" {
		settlementCfg.Currency.Code = c.Flags.Currency
	}
	if c.Flags.Decimals >= 0 {
		settlementCfg.Currency.Decimals = int32(c.Flags.Decimals)
	}
	if err := settlementCfg.Currency.Validate(); err != nil {
		return balance.Options{}, report.Options{}, err
	}

	reportOpts, err := c.Config.Report.FormatterOptions()
	if err != nil {
		return balance.Options{}, report.Options{}, err
	}
	switch c.Flags.Format {
	case FormatWhatsApp:
		reportOpts.Style = report.StyleWhatsApp
	case FormatPlain:
		reportOpts.Style = report.StylePlain
	}
	if c.Flags.Locale != "" {
		tag, err := language.Parse(c.Flags.Locale)
		if err != nil {
			return balance.Options{}, report.Options{}, fmt.Errorf("invalid locale %q: %w", c.Flags.Locale, err)
		}
		reportOpts.Locale = tag
	}

	return settlementCfg.BalanceOptions(), reportOpts, nil
}
