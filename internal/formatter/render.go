package formatter

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/desertthunder/listkit/internal/journal"
	"github.com/desertthunder/listkit/internal/models"
	"github.com/desertthunder/listkit/internal/structure"
	"github.com/desertthunder/listkit/internal/tasks"
)

const rule = "═══════════════════════════════════════"

// Header renders a styled title between two rules.
func Header(title string) string {
	return rule + "\n" + styles.Title(title) + "\n" + rule + "\n"
}

// RenderPlaylists writes one row per playlist: id, items, title.
func RenderPlaylists(w io.Writer, provider models.Provider, playlists []models.Playlist) error {
	fmt.Fprint(w, Header(fmt.Sprintf("%s playlists (%d)", provider, len(playlists))))
	if len(playlists) == 0 {
		_, err := fmt.Fprintln(w, styles.Help("no playlists"))
		return err
	}

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tITEMS\tTITLE")
	for _, p := range playlists {
		fmt.Fprintf(tw, "%s\t%d\t%s\n", p.ID, p.ItemsTotal, p.Title)
	}
	return tw.Flush()
}

// RenderPlan writes the execution order of a structured sync, one block per level.
// Leaves are listed but marked as not executed.
func RenderPlan(w io.Writer, name string, plan [][]structure.Step) error {
	fmt.Fprint(w, Header(fmt.Sprintf("Plan for %s: %d steps", name, structure.CountExecutable(plan))))
	for i, level := range plan {
		fmt.Fprintf(w, "Stage %d\n", i+1)
		for _, step := range level {
			if step.IsLeaf() {
				fmt.Fprintf(w, "  %s %s\n", step.ID, styles.Help("(source)"))
				continue
			}
			fmt.Fprintf(w, "  %s <- %s\n", step.ID, strings.Join(step.Dependencies, ", "))
		}
	}
	return nil
}

// RenderHistory writes the journal newest first, which is undo order.
func RenderHistory(w io.Writer, provider models.Provider, commands []journal.Command) error {
	fmt.Fprint(w, Header(fmt.Sprintf("%s history (%d)", provider, len(commands))))
	if len(commands) == 0 {
		_, err := fmt.Fprintln(w, styles.Help("nothing to undo"))
		return err
	}

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tOPERATION\tJOBS\tCREATED\tSTATUS")
	for i := len(commands) - 1; i >= 0; i-- {
		cmd := commands[i]
		status := styles.OK("done")
		if cmd.PartiallyUndone {
			status = styles.Warn("partially undone")
		}
		fmt.Fprintf(tw, "%s\t%s\t%d\t%s\t%s\n", cmd.ID, cmd.Operation, len(cmd.Jobs), cmd.CreatedAt.Local().Format(time.DateTime), status)
	}
	return tw.Flush()
}

// RenderUndo summarises an undone command.
func RenderUndo(w io.Writer, cmd *journal.Command) error {
	if cmd == nil {
		_, err := fmt.Fprintln(w, styles.Help("nothing to undo"))
		return err
	}
	_, err := fmt.Fprintf(w, "%s %s (%d jobs reverted)\n", styles.OK("Undid"), cmd.Operation, len(cmd.Jobs))
	return err
}

// RenderTransfer summarises a copy, merge, extract or import.
func RenderTransfer(w io.Writer, operation string, r *tasks.TransferResult) error {
	fmt.Fprint(w, Header(fmt.Sprintf("%s into %s", operation, r.Target.Title)))
	sources := make([]string, len(r.Sources))
	for i, s := range r.Sources {
		sources[i] = s.Title
	}
	fmt.Fprintf(w, "Sources: %s\n", strings.Join(sources, ", "))
	fmt.Fprintf(w, "Target:  %s (%s)", r.Target.Title, r.Target.ID)
	if r.Created {
		fmt.Fprint(w, " "+styles.OK("new"))
	}
	fmt.Fprintln(w)
	fmt.Fprintf(w, "Added:   %d\n", len(r.Added))
	fmt.Fprintf(w, "Skipped: %d\n", r.Skipped)
	return writeCommand(w, r.CommandID)
}

// RenderShuffle summarises a shuffle.
func RenderShuffle(w io.Writer, r *tasks.ShuffleResult) error {
	fmt.Fprint(w, Header(fmt.Sprintf("Shuffled %s", r.Target.Title)))
	fmt.Fprintf(w, "Moves: %d of %d items\n", r.Moves, len(r.Items))
	return writeCommand(w, r.CommandID)
}

// RenderSync summarises a structured sync.
func RenderSync(w io.Writer, r *tasks.SyncResult) error {
	fmt.Fprint(w, Header(fmt.Sprintf("Synced %s", r.Name)))
	for _, step := range r.Executed {
		fmt.Fprintf(w, "  %s %s\n", styles.OK("✓"), step.ID)
	}
	fmt.Fprintf(w, "Added: %d, skipped: %d\n", len(r.Added), r.Skipped)
	return writeCommand(w, r.CommandID)
}

// RenderProgress formats one progress update as a single line.
func RenderProgress(u tasks.ProgressUpdate) string {
	counter := ""
	if u.Total > 0 {
		counter = fmt.Sprintf("[%d/%d] ", u.Step, u.Total)
	}
	msg := u.Message
	if u.Phase == tasks.Skipped {
		msg = styles.Help(msg)
	}
	return fmt.Sprintf("%s%s: %s", counter, u.Phase, msg)
}

// RenderError formats an error for the terminal.
func RenderError(err error) string {
	return styles.Err("error: ") + err.Error()
}

func writeCommand(w io.Writer, id string) error {
	if id == "" {
		_, err := fmt.Fprintln(w, styles.Help("nothing changed, no history recorded"))
		return err
	}
	_, err := fmt.Fprintf(w, "Command: %s %s\n", id, styles.Help("(listkit history undo reverts it)"))
	return err
}
