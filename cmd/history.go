package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/desertthunder/listkit/internal/formatter"
	"github.com/desertthunder/listkit/internal/journal"
	"github.com/desertthunder/listkit/internal/shared"
	"github.com/urfave/cli/v3"
)

// ListHistory prints the undoable commands for a provider.
func (r *Runner) ListHistory(ctx context.Context, cmd *cli.Command) error {
	provider, err := parseProvider(cmd)
	if err != nil {
		return err
	}

	history, err := r.history(ctx, provider)
	if err != nil {
		return err
	}

	commands := history.Commands()
	if cmd.Bool("json") {
		return r.writeJSON(commands, true)
	}
	return formatter.RenderHistory(r.output, provider, commands)
}

// Undo reverts the most recent command. A partial failure leaves the remaining jobs journaled.
func (r *Runner) Undo(ctx context.Context, cmd *cli.Command) error {
	provider, err := parseProvider(cmd)
	if err != nil {
		return err
	}

	engine, err := r.engine(ctx, provider)
	if err != nil {
		return err
	}

	undone, err := engine.History().Undo(ctx)
	if err != nil {
		var undoErr *journal.UndoError
		if errors.As(err, &undoErr) {
			r.logger.Warn("undo stopped partway, run undo again to resume", "command", undoErr.CommandID)
		}
		return err
	}

	if cmd.Bool("json") {
		return r.writeJSON(undone, true)
	}
	return formatter.RenderUndo(r.output, undone)
}

// ClearHistory forgets every command for a provider.
func (r *Runner) ClearHistory(ctx context.Context, cmd *cli.Command) error {
	provider, err := parseProvider(cmd)
	if err != nil {
		return err
	}
	if !cmd.Bool("yes") {
		return fmt.Errorf("%w: pass --yes to drop the %s history without reverting it", shared.ErrMissingArgument, provider)
	}

	history, err := r.history(ctx, provider)
	if err != nil {
		return err
	}
	count := len(history.Commands())
	if err := history.Clear(ctx); err != nil {
		return err
	}
	return r.writePlain("Cleared %d %s commands\n", count, provider)
}
