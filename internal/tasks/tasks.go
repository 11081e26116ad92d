// package tasks implements the bulk playlist operations and their journaling.
//
// The core abstraction is Engine, which runs copies, merges, shuffles and structured syncs against one provider.
// Operations emit progress updates via channels so CLI layers can render them as they happen.
package tasks

import (
	"context"
	"errors"
	"fmt"
	"math"
	"math/rand/v2"
	"slices"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/listkit/internal/journal"
	"github.com/desertthunder/listkit/internal/models"
	"github.com/desertthunder/listkit/internal/services"
	"github.com/desertthunder/listkit/internal/shared"
	"github.com/desertthunder/listkit/internal/structure"
	"golang.org/x/oauth2"
)

// Operation names recorded on journal commands.
const (
	OpCopy    = "copy"
	OpMerge   = "merge"
	OpExtract = "extract"
	OpShuffle = "shuffle"
	OpImport  = "import"
	OpDelete  = "delete"
	OpSync    = "sync_structured"
)

// CopyOpts configures [PlaylistEngine.Copy]. An empty TargetID creates "<title> - Copied".
type CopyOpts struct {
	SourceID        string
	TargetID        string
	Privacy         models.Privacy
	AllowDuplicates bool
}

// MergeOpts configures [PlaylistEngine.Merge]. An empty Title joins the source titles with " & ".
type MergeOpts struct {
	SourceIDs       []string
	TargetID        string
	Title           string
	Privacy         models.Privacy
	AllowDuplicates bool
}

// ExtractOpts configures [PlaylistEngine.Extract]. An empty Title joins the artist names with " & ".
type ExtractOpts struct {
	SourceIDs       []string
	ArtistNames     []string
	TargetID        string
	Title           string
	Privacy         models.Privacy
	AllowDuplicates bool
}

// ImportOpts configures [PlaylistEngine.Import].
type ImportOpts struct {
	SourceID        string
	Privacy         models.Privacy
	AllowDuplicates bool
}

// TransferResult contains the outcome of an operation that adds items to one playlist.
type TransferResult struct {
	Sources   []models.Playlist     // Playlists items were read from
	Target    models.Playlist       // Playlist items were added to
	Created   bool                  // Whether Target was created by the operation
	Added     []models.PlaylistItem // Items added, as returned by the provider
	Skipped   int                   // Candidates skipped as duplicates
	CommandID string                // Journal command, empty when nothing changed
}

// ShuffleResult contains the outcome of a shuffle.
type ShuffleResult struct {
	Target    models.Playlist
	Moves     int                   // Position updates issued
	Items     []models.PlaylistItem // Local view of the final order
	CommandID string
}

// SyncResult contains the outcome of a structured sync.
type SyncResult struct {
	Name      string
	Executed  []structure.Step      // Non-leaf steps completed, in execution order
	Added     []models.PlaylistItem // Items added across all steps
	Skipped   int
	CommandID string
}

// Engine defines the bulk operations available against one provider.
type Engine interface {
	// ListPlaylists returns the current user's playlists.
	ListPlaylists(ctx context.Context) ([]models.Playlist, error)

	// GetPlaylist returns one playlist with all of its items.
	GetPlaylist(ctx context.Context, id string) (*models.FullPlaylist, error)

	// Copy adds a playlist's items to a target playlist, creating one when no target is given.
	Copy(ctx context.Context, progress chan<- ProgressUpdate, opts CopyOpts) (*TransferResult, error)

	// Merge adds the items of several playlists, in order, to one target.
	Merge(ctx context.Context, progress chan<- ProgressUpdate, opts MergeOpts) (*TransferResult, error)

	// Extract is Merge restricted to items whose author is one of the given artists.
	Extract(ctx context.Context, progress chan<- ProgressUpdate, opts ExtractOpts) (*TransferResult, error)

	// Import copies a playlist into a brand-new "<title> - Imported" playlist.
	Import(ctx context.Context, progress chan<- ProgressUpdate, opts ImportOpts) (*TransferResult, error)

	// Shuffle moves floor(n*ratio) randomly chosen items to random positions.
	Shuffle(ctx context.Context, progress chan<- ProgressUpdate, targetID string, ratio float64) (*ShuffleResult, error)

	// DeletePlaylist snapshots then deletes a playlist.
	DeletePlaylist(ctx context.Context, progress chan<- ProgressUpdate, id string) (*models.Playlist, error)

	// SyncStructured pulls items bottom-up through a validated definition tree.
	SyncStructured(ctx context.Context, progress chan<- ProgressUpdate, def *models.StructuredPlaylistsDefinition) (*SyncResult, error)
}

// Option configures a [PlaylistEngine].
type Option func(*PlaylistEngine)

// WithRetryPolicy sets the policy applied to every provider call.
func WithRetryPolicy(p services.RetryPolicy) Option {
	return func(e *PlaylistEngine) { e.policy = p }
}

// WithLogger sets the logger.
func WithLogger(l *log.Logger) Option {
	return func(e *PlaylistEngine) {
		if l != nil {
			e.logger = l
		}
	}
}

// WithMetrics records provider traffic on m.
func WithMetrics(m *Metrics) Option {
	return func(e *PlaylistEngine) { e.metrics = m }
}

// WithRandom replaces the source of shuffle indices. intn must return a value in [0, n).
func WithRandom(intn func(n int) int) Option {
	return func(e *PlaylistEngine) {
		if intn != nil {
			e.intn = intn
		}
	}
}

// WithDefaultPrivacy sets the privacy used when an operation does not specify one.
func WithDefaultPrivacy(p models.Privacy) Option {
	return func(e *PlaylistEngine) {
		if p != "" {
			e.privacy = p
		}
	}
}

// PlaylistEngine implements [Engine] against one provider and token.
//
// Every operation issues its provider calls sequentially and records its mutations in one
// journal command, which is pushed to the history even when the operation fails partway.
type PlaylistEngine struct {
	repo    services.ProviderRepository
	token   *oauth2.Token
	history *journal.History
	policy  services.RetryPolicy
	logger  *log.Logger
	metrics *Metrics
	intn    func(n int) int
	privacy models.Privacy
}

// NewPlaylistEngine creates a new engine. A nil history gets a fresh in-memory one.
func NewPlaylistEngine(repo services.ProviderRepository, token *oauth2.Token, history *journal.History, opts ...Option) *PlaylistEngine {
	if history == nil {
		history = journal.NewHistory(repo, token)
	}
	e := &PlaylistEngine{
		repo:    repo,
		token:   token,
		history: history,
		policy:  services.DefaultRetryPolicy(),
		logger:  shared.DiscardLogger(),
		intn:    rand.IntN,
		privacy: models.PrivacyPrivate,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// History returns the journal the engine records into.
func (e *PlaylistEngine) History() *journal.History { return e.history }

// ListPlaylists returns the current user's playlists.
func (e *PlaylistEngine) ListPlaylists(ctx context.Context) ([]models.Playlist, error) {
	return call(ctx, e, "get_mine_playlists", func(ctx context.Context) ([]models.Playlist, error) {
		return e.repo.GetMinePlaylists(ctx, e.token)
	})
}

// GetPlaylist returns one playlist with all of its items.
func (e *PlaylistEngine) GetPlaylist(ctx context.Context, id string) (*models.FullPlaylist, error) {
	if id == "" {
		return nil, fmt.Errorf("%w: playlist id", shared.ErrMissingArgument)
	}
	return e.fetch(ctx, id)
}

// Copy adds the source playlist's items to the target in order.
//
// Without AllowDuplicates an item is skipped when the target already holds its resource id,
// so repeating a copy adds nothing.
func (e *PlaylistEngine) Copy(ctx context.Context, progress chan<- ProgressUpdate, opts CopyOpts) (*TransferResult, error) {
	if opts.SourceID == "" {
		return nil, fmt.Errorf("%w: source playlist id", shared.ErrMissingArgument)
	}

	result := &TransferResult{}
	id, err := e.execute(ctx, OpCopy, func(cmd *journal.Command) error {
		sources, err := e.fetchAll(ctx, progress, []string{opts.SourceID})
		if err != nil {
			return err
		}
		source := sources[0]
		result.Sources = []models.Playlist{source.Playlist}

		return e.transferInto(ctx, progress, cmd, result, source.Items, opts.TargetID, source.Title+" - Copied", opts.Privacy, opts.AllowDuplicates)
	})
	result.CommandID = id
	return result, err
}

// Merge adds the items of every source, in input order then item order, to the target.
func (e *PlaylistEngine) Merge(ctx context.Context, progress chan<- ProgressUpdate, opts MergeOpts) (*TransferResult, error) {
	if len(opts.SourceIDs) == 0 {
		return nil, fmt.Errorf("%w: at least one source playlist id", shared.ErrMissingArgument)
	}

	result := &TransferResult{}
	id, err := e.execute(ctx, OpMerge, func(cmd *journal.Command) error {
		sources, err := e.fetchAll(ctx, progress, opts.SourceIDs)
		if err != nil {
			return err
		}

		var (
			titles []string
			items  []models.PlaylistItem
		)
		for _, s := range sources {
			result.Sources = append(result.Sources, s.Playlist)
			titles = append(titles, s.Title)
			items = append(items, s.Items...)
		}

		title := opts.Title
		if title == "" {
			title = strings.Join(titles, " & ")
		}
		return e.transferInto(ctx, progress, cmd, result, items, opts.TargetID, title, opts.Privacy, opts.AllowDuplicates)
	})
	result.CommandID = id
	return result, err
}

// Extract merges only the items whose author exactly equals one of the artist names.
func (e *PlaylistEngine) Extract(ctx context.Context, progress chan<- ProgressUpdate, opts ExtractOpts) (*TransferResult, error) {
	if len(opts.SourceIDs) == 0 {
		return nil, fmt.Errorf("%w: at least one source playlist id", shared.ErrMissingArgument)
	}
	if len(opts.ArtistNames) == 0 {
		return nil, fmt.Errorf("%w: at least one artist name", shared.ErrMissingArgument)
	}

	artists := make(map[string]struct{}, len(opts.ArtistNames))
	for _, name := range opts.ArtistNames {
		artists[name] = struct{}{}
	}

	result := &TransferResult{}
	id, err := e.execute(ctx, OpExtract, func(cmd *journal.Command) error {
		sources, err := e.fetchAll(ctx, progress, opts.SourceIDs)
		if err != nil {
			return err
		}

		var items []models.PlaylistItem
		for _, s := range sources {
			result.Sources = append(result.Sources, s.Playlist)
			for _, item := range s.Items {
				if _, ok := artists[item.Author]; ok {
					items = append(items, item)
				}
			}
		}
		e.logger.Debug("extract candidates", "sources", len(sources), "matched", len(items))

		title := opts.Title
		if title == "" {
			title = strings.Join(opts.ArtistNames, " & ")
		}
		return e.transferInto(ctx, progress, cmd, result, items, opts.TargetID, title, opts.Privacy, opts.AllowDuplicates)
	})
	result.CommandID = id
	return result, err
}

// Import copies the source into a new playlist titled "<title> - Imported". It never reuses a target.
func (e *PlaylistEngine) Import(ctx context.Context, progress chan<- ProgressUpdate, opts ImportOpts) (*TransferResult, error) {
	if opts.SourceID == "" {
		return nil, fmt.Errorf("%w: source playlist id", shared.ErrMissingArgument)
	}

	result := &TransferResult{}
	id, err := e.execute(ctx, OpImport, func(cmd *journal.Command) error {
		sources, err := e.fetchAll(ctx, progress, []string{opts.SourceID})
		if err != nil {
			return err
		}
		source := sources[0]
		result.Sources = []models.Playlist{source.Playlist}

		return e.transferInto(ctx, progress, cmd, result, source.Items, "", source.Title+" - Imported", opts.Privacy, opts.AllowDuplicates)
	})
	result.CommandID = id
	return result, err
}

// Shuffle moves floor(n*ratio) items. Each move draws independent uniform from and to
// indices, which may coincide.
//
// A ratio outside [0, 1] is a caller bug and panics.
func (e *PlaylistEngine) Shuffle(ctx context.Context, progress chan<- ProgressUpdate, targetID string, ratio float64) (*ShuffleResult, error) {
	if math.IsNaN(ratio) || ratio < 0 || ratio > 1 {
		panic(fmt.Sprintf("tasks: shuffle ratio %v outside [0, 1]", ratio))
	}
	if targetID == "" {
		return nil, fmt.Errorf("%w: target playlist id", shared.ErrMissingArgument)
	}

	result := &ShuffleResult{}
	id, err := e.execute(ctx, OpShuffle, func(cmd *journal.Command) error {
		e.sendProgress(ctx, progress, fetchTargetUpdate(targetID))
		target, err := e.fetch(ctx, targetID)
		if err != nil {
			return err
		}
		result.Target = target.Playlist

		items := slices.Clone(target.Items)
		result.Items = items

		n := len(items)
		moves := int(math.Floor(float64(n) * ratio))
		e.logger.Info("shuffling playlist", "playlist", targetID, "items", n, "moves", moves)

		for completed := 0; completed < moves; completed++ {
			from, to := e.intn(n), e.intn(n)
			if from < 0 || from >= n || to < 0 || to >= n {
				panic(fmt.Sprintf("tasks: shuffle index out of range: from=%d to=%d n=%d", from, to, n))
			}
			item := items[from]
			remoteFrom, remoteTo := item.Position, items[to].Position

			e.sendProgress(ctx, progress, updatingUpdate(item, from, to, completed, moves))
			_, err := call(ctx, e, "update_playlist_item_position", func(ctx context.Context) (*models.PlaylistItem, error) {
				return e.repo.UpdatePlaylistItemPosition(ctx, targetID, item, remoteTo, e.token)
			})
			if err != nil {
				return err
			}
			cmd.Record(journal.MoveItemJob(targetID, item, remoteFrom, remoteTo))

			items = moveItem(items, from, to)
			result.Items = items
			result.Moves++
			e.sendProgress(ctx, progress, updatedUpdate(items[to], from, to, completed+1, moves))
		}
		return nil
	})
	result.CommandID = id
	return result, err
}

// DeletePlaylist snapshots the playlist so undo can recreate it, then issues one delete.
// The returned descriptor may be empty except for its id.
func (e *PlaylistEngine) DeletePlaylist(ctx context.Context, progress chan<- ProgressUpdate, id string) (*models.Playlist, error) {
	if id == "" {
		return nil, fmt.Errorf("%w: playlist id", shared.ErrMissingArgument)
	}

	var deleted *models.Playlist
	_, err := e.execute(ctx, OpDelete, func(cmd *journal.Command) error {
		e.sendProgress(ctx, progress, fetchSourceUpdate(1, 1, id))
		snapshot, err := e.fetch(ctx, id)
		if err != nil {
			return err
		}

		e.sendProgress(ctx, progress, deletingUpdate(snapshot))
		p, err := call(ctx, e, "delete_playlist", func(ctx context.Context) (*models.Playlist, error) {
			return e.repo.DeletePlaylist(ctx, id, e.token)
		})
		if err != nil {
			return err
		}
		cmd.Record(journal.DeletePlaylistJob(snapshot, e.privacy))

		if p == nil {
			p = &models.Playlist{}
		}
		if p.ID == "" {
			p.ID = id
		}
		deleted = p
		e.sendProgress(ctx, progress, deletedUpdate(p))
		return nil
	})
	return deleted, err
}

// SyncStructured validates def, then walks its plan bottom-up. Each non-leaf playlist is
// fetched once and receives, in dependency order, every item of its already-synced
// dependencies that it does not hold yet.
//
// An invalid definition fails before any provider call.
func (e *PlaylistEngine) SyncStructured(ctx context.Context, progress chan<- ProgressUpdate, def *models.StructuredPlaylistsDefinition) (*SyncResult, error) {
	if def == nil {
		return nil, fmt.Errorf("%w: definition", shared.ErrMissingArgument)
	}
	if err := structure.Validate(def); err != nil {
		return nil, err
	}
	if def.Provider != e.repo.Provider() {
		return nil, fmt.Errorf("%w: definition %q targets %s, not %s", shared.ErrInvalidArgument, def.Name, def.Provider, e.repo.Provider())
	}

	plan := structure.Plan(def)
	total := structure.CountExecutable(plan)
	result := &SyncResult{Name: def.Name}

	id, err := e.execute(ctx, OpSync, func(cmd *journal.Command) error {
		synced := make(map[string][]models.PlaylistItem)
		completed := 0

		for _, level := range plan {
			for _, step := range level {
				if step.IsLeaf() {
					continue
				}
				e.sendProgress(ctx, progress, executingUpdate(step, completed, total))

				target, err := e.fetch(ctx, step.ID)
				if err != nil {
					return err
				}

				var candidates []models.PlaylistItem
				for _, dep := range step.Dependencies {
					items, ok := synced[dep]
					if !ok {
						p, err := e.fetch(ctx, dep)
						if err != nil {
							return err
						}
						items = p.Items
						synced[dep] = items
					}
					candidates = append(candidates, items...)
				}

				added, skipped, err := e.transfer(ctx, progress, cmd, candidates, target, false)
				result.Added = append(result.Added, added...)
				result.Skipped += skipped
				if err != nil {
					return err
				}

				synced[step.ID] = target.Items
				completed++
				result.Executed = append(result.Executed, step)
				e.sendProgress(ctx, progress, executedUpdate(step, completed, total))
			}
		}
		return nil
	})
	result.CommandID = id
	return result, err
}

// execute runs fn inside a journal command. The command is pushed even when fn fails,
// and undo is refused while fn runs.
func (e *PlaylistEngine) execute(ctx context.Context, operation string, fn func(cmd *journal.Command) error) (string, error) {
	done := e.history.Begin()
	defer done()

	cmd := journal.NewCommand(operation, e.repo.Provider())
	logger := e.logger.With("operation", operation, "command", cmd.ID)

	err := fn(cmd)
	if err != nil {
		logger.Error("operation failed", "jobs", len(cmd.Jobs), "error", err)
	}

	if pushErr := e.history.Push(context.WithoutCancel(ctx), *cmd); pushErr != nil {
		logger.Error("failed to record command", "error", pushErr)
		err = errors.Join(err, pushErr)
	}
	if cmd.Empty() {
		return "", err
	}
	if err == nil {
		logger.Info("operation finished", "jobs", len(cmd.Jobs))
	}
	return cmd.ID, err
}

// transferInto resolves the target, creating it when targetID is empty, and adds items to it.
func (e *PlaylistEngine) transferInto(
	ctx context.Context,
	progress chan<- ProgressUpdate,
	cmd *journal.Command,
	result *TransferResult,
	items []models.PlaylistItem,
	targetID, title string,
	privacy models.Privacy,
	allowDuplicates bool,
) error {
	var (
		target *models.FullPlaylist
		err    error
	)
	if targetID != "" {
		e.sendProgress(ctx, progress, fetchTargetUpdate(targetID))
		if target, err = e.fetch(ctx, targetID); err != nil {
			return err
		}
	} else {
		if target, err = e.create(ctx, progress, cmd, title, privacy); err != nil {
			return err
		}
		result.Created = true
	}
	result.Target = target.Playlist

	added, skipped, err := e.transfer(ctx, progress, cmd, items, target, allowDuplicates)
	result.Added = added
	result.Skipped = skipped
	result.Target.ItemsTotal = len(target.Items)
	return err
}

// transfer adds items to target one at a time, recording an add_item job for each.
// target.Items is kept in step with the remote playlist.
func (e *PlaylistEngine) transfer(
	ctx context.Context,
	progress chan<- ProgressUpdate,
	cmd *journal.Command,
	items []models.PlaylistItem,
	target *models.FullPlaylist,
	allowDuplicates bool,
) (added []models.PlaylistItem, skipped int, err error) {
	present := target.ResourceSet()
	total := len(items)

	for i, item := range items {
		if _, ok := present[item.ResourceID]; ok && !allowDuplicates {
			skipped++
			e.sendProgress(ctx, progress, skippedUpdate(item, i, total))
			continue
		}

		e.sendProgress(ctx, progress, addingUpdate(item, i, total))
		resourceID := item.ResourceID
		out, err := call(ctx, e, "add_playlist_item", func(ctx context.Context) (*models.PlaylistItem, error) {
			return e.repo.AddPlaylistItem(ctx, target.ID, resourceID, e.token)
		})
		if err != nil {
			return added, skipped, err
		}
		end := max(target.ItemsTotal, len(target.Items))
		if out == nil {
			out = &models.PlaylistItem{ResourceID: resourceID, Position: end}
		}
		if out.Position < 0 {
			out.Position = end
		}
		if out.Title == "" {
			out.Title, out.Author = item.Title, item.Author
		}

		cmd.Record(journal.AddItemJob(target.ID, *out))
		present[resourceID] = struct{}{}
		target.Items = append(target.Items, *out)
		target.ItemsTotal = end + 1
		added = append(added, *out)
		e.metrics.itemAdded()

		e.sendProgress(ctx, progress, addedUpdate(*out, i, total))
	}
	return added, skipped, nil
}

func (e *PlaylistEngine) create(ctx context.Context, progress chan<- ProgressUpdate, cmd *journal.Command, title string, privacy models.Privacy) (*models.FullPlaylist, error) {
	if privacy == "" {
		privacy = e.privacy
	}
	p, err := call(ctx, e, "add_playlist", func(ctx context.Context) (*models.Playlist, error) {
		return e.repo.AddPlaylist(ctx, title, privacy, e.token)
	})
	if err != nil {
		return nil, err
	}
	cmd.Record(journal.CreatePlaylistJob(p, privacy))
	e.logger.Info("created playlist", "id", p.ID, "title", p.Title, "privacy", privacy)
	e.sendProgress(ctx, progress, createPlaylistUpdate(p))
	return &models.FullPlaylist{Playlist: *p}, nil
}

func (e *PlaylistEngine) fetch(ctx context.Context, id string) (*models.FullPlaylist, error) {
	return call(ctx, e, "get_full_playlist", func(ctx context.Context) (*models.FullPlaylist, error) {
		return e.repo.GetFullPlaylist(ctx, id, e.token)
	})
}

func (e *PlaylistEngine) fetchAll(ctx context.Context, progress chan<- ProgressUpdate, ids []string) ([]*models.FullPlaylist, error) {
	out := make([]*models.FullPlaylist, 0, len(ids))
	for i, id := range ids {
		e.sendProgress(ctx, progress, fetchSourceUpdate(i+1, len(ids), id))
		p, err := e.fetch(ctx, id)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, nil
}

// sendProgress delivers update, waiting for the receiver unless ctx is done.
// A nil channel discards updates.
func (e *PlaylistEngine) sendProgress(ctx context.Context, progress chan<- ProgressUpdate, update ProgressUpdate) {
	if progress == nil {
		return
	}
	select {
	case progress <- update:
	case <-ctx.Done():
	}
}

// call runs one provider call through the retry policy, counting attempts, retries and failures.
func call[T any](ctx context.Context, e *PlaylistEngine, op string, fn func(context.Context) (T, error)) (T, error) {
	policy := e.policy
	next := policy.OnRetry
	policy.OnRetry = func(op string, attempt int, err error) {
		e.metrics.retry(op)
		e.logger.Warn("retrying provider call", "op", op, "attempt", attempt, "error", err)
		if next != nil {
			next(op, attempt, err)
		}
	}

	out, err := services.Retry(ctx, policy, op, func(ctx context.Context) (T, error) {
		e.metrics.call(op)
		return fn(ctx)
	})
	if err != nil {
		e.metrics.failure(op, err)
	}
	return out, err
}

// moveItem moves items[from] to slot to. Positions are remote indices, which may have gaps
// for entries the provider hides; every item between the two remote indices shifts by one.
func moveItem(items []models.PlaylistItem, from, to int) []models.PlaylistItem {
	item := items[from]
	pf, pt := item.Position, items[to].Position
	for i := range items {
		switch p := items[i].Position; {
		case pf < pt && p > pf && p <= pt:
			items[i].Position--
		case pf > pt && p >= pt && p < pf:
			items[i].Position++
		}
	}
	item.Position = pt
	items = slices.Delete(items, from, from+1)
	items = slices.Insert(items, to, item)
	return items
}

var _ Engine = (*PlaylistEngine)(nil)
