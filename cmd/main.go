package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/desertthunder/listkit/internal/formatter"
	"github.com/desertthunder/listkit/internal/shared"
)

func main() {
	logger := shared.NewLogger(nil)
	runner := NewRunner(RunnerOpts{Logger: logger})
	defer runner.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := runner.app().Run(ctx, os.Args); err != nil {
		if errors.Is(err, shared.ErrInconsistentJournal) {
			logger.Warn("remote state may not match the journal; inspect with 'listkit history list'")
		}
		fmt.Fprintln(os.Stderr, formatter.RenderError(err))
		runner.Close()
		os.Exit(1)
	}
}
