package main

import (
	"context"
	"errors"
	"flag"
	"os"
	"os/signal"

	"github.com/eshaffer321/settleup/internal/cli"
	"github.com/eshaffer321/settleup/internal/domain/balance"
	"github.com/eshaffer321/settleup/internal/domain/money"
)

func main() {
	os.Exit(run())
}

func run() int {
	stderr := cli.NewPrinter(os.Stderr, cli.IsTerminal(os.Stderr))

	flags, err := cli.ParseSettleFlags(os.Args[1:], os.Stderr)
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		stderr.PrintError(err)
		return 2
	}

	cfg, err := cli.LoadConfig(flags.Config)
	if err != nil {
		stderr.PrintError(err)
		return 1
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	cmd := cli.NewSettleCommand(cfg, flags, os.Stdin, cli.NewStdoutPrinter(), stderr, os.Stderr)
	if err := cmd.Run(ctx); err != nil {
		stderr.PrintError(err)
		if errors.Is(err, balance.ErrInsufficientParticipants) || errors.Is(err, money.ErrInvalidAmount) {
			return 2
		}
		return 1
	}
	return 0
}
