package journal

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/listkit/internal/models"
	"github.com/desertthunder/listkit/internal/services"
	"github.com/desertthunder/listkit/internal/shared"
	"golang.org/x/oauth2"
)

// Store persists commands so history survives across processes.
type Store interface {
	// SaveCommand inserts cmd or replaces the stored command with the same id.
	SaveCommand(ctx context.Context, cmd Command) error
	DeleteCommand(ctx context.Context, id string) error
	// ListCommands returns the provider's commands oldest first.
	ListCommands(ctx context.Context, provider models.Provider) ([]Command, error)
	ClearCommands(ctx context.Context, provider models.Provider) error
}

// UndoError reports an inverse that failed. The journal may no longer match remote state.
type UndoError struct {
	CommandID string
	JobIndex  int
	Job       Job
	Err       error
}

func (e *UndoError) Error() string {
	return fmt.Sprintf("undo of command %s stopped at job %d (%s): %v", e.CommandID, e.JobIndex, e.Job, e.Err)
}

func (e *UndoError) Unwrap() []error {
	return []error{e.Err, shared.ErrInconsistentJournal}
}

// Option configures a [History].
type Option func(*History)

// WithStore persists pushed commands.
func WithStore(s Store) Option {
	return func(h *History) { h.store = s }
}

// WithRetryPolicy sets the policy applied to every inverse call.
func WithRetryPolicy(p services.RetryPolicy) Option {
	return func(h *History) { h.policy = p }
}

// WithLogger sets the logger.
func WithLogger(l *log.Logger) Option {
	return func(h *History) {
		if l != nil {
			h.logger = l
		}
	}
}

// WithInverseHook is called after every attempted inverse job.
func WithInverseHook(fn func(job Job, err error)) Option {
	return func(h *History) { h.onInverse = fn }
}

// History is the stack of commands for one provider and token.
type History struct {
	mu       sync.Mutex
	commands []Command
	inflight int

	repo   services.ProviderRepository
	token  *oauth2.Token
	policy services.RetryPolicy
	store  Store
	logger *log.Logger

	onInverse func(Job, error)
}

// NewHistory creates an empty history whose undo runs against repo with token.
func NewHistory(repo services.ProviderRepository, token *oauth2.Token, opts ...Option) *History {
	h := &History{
		repo:   repo,
		token:  token,
		policy: services.DefaultRetryPolicy(),
		logger: shared.DiscardLogger(),
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Provider is the provider this history undoes against.
func (h *History) Provider() models.Provider { return h.repo.Provider() }

// Load replaces the in-memory stack with the store's commands for this provider.
func (h *History) Load(ctx context.Context) error {
	if h.store == nil {
		return nil
	}
	cmds, err := h.store.ListCommands(ctx, h.Provider())
	if err != nil {
		return fmt.Errorf("failed to load history: %w", err)
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	h.commands = cmds
	return nil
}

// Push appends cmd. Commands without jobs are dropped.
func (h *History) Push(ctx context.Context, cmd Command) error {
	if len(cmd.Jobs) == 0 {
		return nil
	}
	if cmd.ID == "" {
		cmd.ID = shared.GenerateID()
	}

	h.mu.Lock()
	h.commands = append(h.commands, cmd)
	h.mu.Unlock()

	h.logger.Debug("command recorded", "id", cmd.ID, "operation", cmd.Operation, "jobs", len(cmd.Jobs))

	if h.store != nil {
		if err := h.store.SaveCommand(ctx, cmd); err != nil {
			return fmt.Errorf("failed to persist command %s: %w", cmd.ID, err)
		}
	}
	return nil
}

// Begin marks a bulk operation as running. Undo is refused until the returned func is called.
func (h *History) Begin() (done func()) {
	h.mu.Lock()
	h.inflight++
	h.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			h.mu.Lock()
			h.inflight--
			h.mu.Unlock()
		})
	}
}

// Busy reports whether an operation or an undo is running.
func (h *History) Busy() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.inflight > 0
}

// Undoable reports whether there is a command to undo.
func (h *History) Undoable() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.commands) > 0
}

// Commands returns a copy of the stack, oldest first.
func (h *History) Commands() []Command {
	h.mu.Lock()
	defer h.mu.Unlock()
	return slices.Clone(h.commands)
}

// Clear drops every command.
func (h *History) Clear(ctx context.Context) error {
	h.mu.Lock()
	h.commands = nil
	h.mu.Unlock()

	if h.store != nil {
		return h.store.ClearCommands(ctx, h.Provider())
	}
	return nil
}

// Undo pops the latest command and runs its inverses in reverse order.
//
// It returns the undone command, or nil when the history is empty. The first inverse
// failure stops the undo with an [*UndoError]; the jobs not yet undone, including the
// failing one, go back on the stack under the same id so a later Undo resumes there.
func (h *History) Undo(ctx context.Context) (*Command, error) {
	h.mu.Lock()
	if h.inflight > 0 {
		h.mu.Unlock()
		return nil, shared.ErrOperationInProgress
	}
	if len(h.commands) == 0 {
		h.mu.Unlock()
		return nil, nil
	}
	cmd := h.commands[len(h.commands)-1]
	h.commands = h.commands[:len(h.commands)-1]
	h.inflight++
	h.mu.Unlock()

	defer func() {
		h.mu.Lock()
		h.inflight--
		h.mu.Unlock()
	}()

	jobs := slices.Clone(cmd.Jobs)
	logger := h.logger.With("command", cmd.ID, "operation", cmd.Operation)

	for i := len(jobs) - 1; i >= 0; i-- {
		err := jobs[i].invert(ctx, h.repo, h.token, h.policy)
		if h.onInverse != nil {
			h.onInverse(jobs[i], err)
		}
		if err != nil {
			logger.Error("inverse failed", "job", i, "kind", jobs[i].Kind, "error", err)
			undoErr := &UndoError{CommandID: cmd.ID, JobIndex: i, Job: jobs[i], Err: err}

			cmd.Jobs = jobs[:i+1]
			cmd.PartiallyUndone = true
			if restoreErr := h.restore(ctx, cmd); restoreErr != nil {
				return nil, errors.Join(undoErr, restoreErr)
			}
			return nil, undoErr
		}
		logger.Debug("inverse applied", "job", i, "kind", jobs[i].Kind)
	}

	if h.store != nil {
		if err := h.store.DeleteCommand(ctx, cmd.ID); err != nil {
			return &cmd, fmt.Errorf("undo succeeded but the journal could not be updated: %w", err)
		}
	}
	logger.Info("command undone", "jobs", len(jobs))
	return &cmd, nil
}

// restore puts a partially undone command back on top of the stack.
func (h *History) restore(ctx context.Context, cmd Command) error {
	h.mu.Lock()
	h.commands = append(h.commands, cmd)
	h.mu.Unlock()

	if h.store != nil {
		return h.store.SaveCommand(ctx, cmd)
	}
	return nil
}
