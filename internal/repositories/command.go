package repositories

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/desertthunder/listkit/internal/journal"
	"github.com/desertthunder/listkit/internal/models"
	"github.com/desertthunder/listkit/internal/shared"
)

// CommandRepository implements [journal.Store] on the commands and command_jobs tables.
//
// Each job is stored as a JSON payload in its own row, ordered by position.
type CommandRepository struct {
	db *sql.DB
}

// NewCommandRepository creates a new CommandRepository with the given database connection
func NewCommandRepository(db *sql.DB) *CommandRepository {
	return &CommandRepository{db: db}
}

// SaveCommand inserts cmd, or replaces the jobs and status of an existing command with the same id.
// A replaced command keeps its sequence, and so its place in the stack.
func (r *CommandRepository) SaveCommand(ctx context.Context, cmd journal.Command) error {
	var exists bool
	if err := r.db.QueryRowContext(ctx, "SELECT EXISTS(SELECT 1 FROM commands WHERE id = ?)", cmd.ID).Scan(&exists); err != nil {
		return fmt.Errorf("failed to check command: %w", err)
	}

	var sequence int
	if !exists {
		var err error
		if sequence, err = NextSequence(ctx, r.db, "commands"); err != nil {
			return fmt.Errorf("failed to generate sequence: %w", err)
		}
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if exists {
		_, err = tx.ExecContext(ctx, `UPDATE commands SET partially_undone = ? WHERE id = ?`, cmd.PartiallyUndone, cmd.ID)
		if err != nil {
			return fmt.Errorf("failed to update command: %w", err)
		}
		if _, err := tx.ExecContext(ctx, `DELETE FROM command_jobs WHERE command_id = ?`, cmd.ID); err != nil {
			return fmt.Errorf("failed to clear command jobs: %w", err)
		}
	} else {
		createdAt := cmd.CreatedAt
		if createdAt.IsZero() {
			createdAt = time.Now().UTC()
		}
		query := `
			INSERT INTO commands (id, sequence, provider, operation, created_at, partially_undone)
			VALUES (?, ?, ?, ?, ?, ?)
		`
		_, err = tx.ExecContext(ctx, query, cmd.ID, sequence, cmd.Provider.String(), cmd.Operation, createdAt, cmd.PartiallyUndone)
		if err != nil {
			return fmt.Errorf("failed to insert command: %w", err)
		}
	}

	for i, job := range cmd.Jobs {
		payload, err := json.Marshal(job)
		if err != nil {
			return fmt.Errorf("failed to encode job %d: %w", i, err)
		}
		_, err = tx.ExecContext(ctx,
			`INSERT INTO command_jobs (command_id, position, kind, payload) VALUES (?, ?, ?, ?)`,
			cmd.ID, i, string(job.Kind), string(payload),
		)
		if err != nil {
			return fmt.Errorf("failed to insert job %d: %w", i, err)
		}
	}

	return tx.Commit()
}

// GetCommand retrieves a command with its jobs by ID
func (r *CommandRepository) GetCommand(ctx context.Context, id string) (*journal.Command, error) {
	query := `
		SELECT id, provider, operation, created_at, partially_undone
		FROM commands
		WHERE id = ?
	`
	cmd, err := r.scanOne(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		return nil, err
	}
	if cmd.Jobs, err = r.jobs(ctx, cmd.ID); err != nil {
		return nil, err
	}
	return cmd, nil
}

// DeleteCommand removes a command and its jobs.
func (r *CommandRepository) DeleteCommand(ctx context.Context, id string) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM command_jobs WHERE command_id = ?`, id); err != nil {
		return fmt.Errorf("failed to delete command jobs: %w", err)
	}

	result, err := tx.ExecContext(ctx, `DELETE FROM commands WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete command: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("%w: %s", shared.ErrCommandNotFound, id)
	}

	return tx.Commit()
}

// ListCommands returns the provider's commands ordered by sequence, oldest first.
func (r *CommandRepository) ListCommands(ctx context.Context, provider models.Provider) ([]journal.Command, error) {
	query := `
		SELECT id, provider, operation, created_at, partially_undone
		FROM commands
		WHERE provider = ?
		ORDER BY sequence ASC
	`

	rows, err := r.db.QueryContext(ctx, query, provider.String())
	if err != nil {
		return nil, fmt.Errorf("failed to query commands: %w", err)
	}
	defer rows.Close()

	var commands []journal.Command
	for rows.Next() {
		cmd, err := r.scanRow(rows)
		if err != nil {
			return nil, err
		}
		commands = append(commands, *cmd)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}
	rows.Close()

	for i := range commands {
		if commands[i].Jobs, err = r.jobs(ctx, commands[i].ID); err != nil {
			return nil, err
		}
	}
	return commands, nil
}

// ClearCommands removes every command recorded for provider.
func (r *CommandRepository) ClearCommands(ctx context.Context, provider models.Provider) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		`DELETE FROM command_jobs WHERE command_id IN (SELECT id FROM commands WHERE provider = ?)`,
		provider.String(),
	)
	if err != nil {
		return fmt.Errorf("failed to delete command jobs: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM commands WHERE provider = ?`, provider.String()); err != nil {
		return fmt.Errorf("failed to delete commands: %w", err)
	}

	return tx.Commit()
}

func (r *CommandRepository) jobs(ctx context.Context, commandID string) ([]journal.Job, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT payload FROM command_jobs WHERE command_id = ? ORDER BY position ASC`, commandID)
	if err != nil {
		return nil, fmt.Errorf("failed to query jobs: %w", err)
	}
	defer rows.Close()

	var jobs []journal.Job
	for rows.Next() {
		var payload string
		if err := rows.Scan(&payload); err != nil {
			return nil, fmt.Errorf("failed to scan job: %w", err)
		}
		var job journal.Job
		if err := json.Unmarshal([]byte(payload), &job); err != nil {
			return nil, fmt.Errorf("failed to decode job of command %s: %w", commandID, err)
		}
		jobs = append(jobs, job)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}
	return jobs, nil
}

// scanOne scans a single row into a [journal.Command] without its jobs
func (r *CommandRepository) scanOne(row *sql.Row) (*journal.Command, error) {
	var (
		cmd      journal.Command
		provider string
	)
	err := row.Scan(&cmd.ID, &provider, &cmd.Operation, &cmd.CreatedAt, &cmd.PartiallyUndone)
	if err == sql.ErrNoRows {
		return nil, shared.ErrCommandNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan command: %w", err)
	}
	cmd.Provider = models.Provider(provider)
	return &cmd, nil
}

// scanRow scans a row from [sql.Rows] into a [journal.Command] without its jobs
func (r *CommandRepository) scanRow(rows *sql.Rows) (*journal.Command, error) {
	var (
		cmd      journal.Command
		provider string
	)
	if err := rows.Scan(&cmd.ID, &provider, &cmd.Operation, &cmd.CreatedAt, &cmd.PartiallyUndone); err != nil {
		return nil, fmt.Errorf("failed to scan command: %w", err)
	}
	cmd.Provider = models.Provider(provider)
	return &cmd, nil
}

var _ journal.Store = (*CommandRepository)(nil)
