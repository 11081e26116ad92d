package journal

import (
	"context"
	"fmt"
	"time"

	"github.com/desertthunder/listkit/internal/models"
	"github.com/desertthunder/listkit/internal/services"
	"github.com/desertthunder/listkit/internal/shared"
	"golang.org/x/oauth2"
)

// Kind names the mutation a [Job] recorded.
type Kind string

const (
	KindCreatePlaylist Kind = "create_playlist"
	KindAddItem        Kind = "add_item"
	KindMoveItem       Kind = "move_item"
	KindDeletePlaylist Kind = "delete_playlist"
)

// Job is one executed mutation plus what its inverse needs.
//
// Restored* fields track progress of a delete_playlist inverse so a resumed undo does not
// recreate the playlist twice.
type Job struct {
	Kind       Kind                 `json:"kind"`
	PlaylistID string               `json:"playlist_id"`
	Title      string               `json:"title,omitempty"`
	Privacy    models.Privacy       `json:"privacy,omitempty"`
	Item       *models.PlaylistItem `json:"item,omitempty"`
	From       int                  `json:"from,omitempty"`
	To         int                  `json:"to,omitempty"`
	Snapshot   *models.FullPlaylist `json:"snapshot,omitempty"`

	RestoredID    string `json:"restored_id,omitempty"`
	RestoredItems int    `json:"restored_items,omitempty"`
}

// CreatePlaylistJob records a created playlist. Inverse: delete it.
func CreatePlaylistJob(p *models.Playlist, privacy models.Privacy) Job {
	return Job{Kind: KindCreatePlaylist, PlaylistID: p.ID, Title: p.Title, Privacy: privacy}
}

// AddItemJob records an item appended to a playlist. Inverse: remove that entry.
func AddItemJob(playlistID string, item models.PlaylistItem) Job {
	return Job{Kind: KindAddItem, PlaylistID: playlistID, Item: &item}
}

// MoveItemJob records an item moved from one index to another. Inverse: move it back.
func MoveItemJob(playlistID string, item models.PlaylistItem, from, to int) Job {
	return Job{Kind: KindMoveItem, PlaylistID: playlistID, Item: &item, From: from, To: to}
}

// DeletePlaylistJob records a deleted playlist with its contents.
// Inverse: create a playlist with the same title and privacy and re-add the items in order.
// The recreated playlist has a new id.
func DeletePlaylistJob(snapshot *models.FullPlaylist, privacy models.Privacy) Job {
	return Job{Kind: KindDeletePlaylist, PlaylistID: snapshot.ID, Title: snapshot.Title, Privacy: privacy, Snapshot: snapshot}
}

func (j Job) String() string {
	switch j.Kind {
	case KindAddItem, KindMoveItem:
		if j.Item != nil {
			return fmt.Sprintf("%s %s in %s", j.Kind, j.Item.ResourceID, j.PlaylistID)
		}
	}
	return fmt.Sprintf("%s %s", j.Kind, j.PlaylistID)
}

// invert runs the inverse of j. Every remote call goes through policy.
func (j *Job) invert(ctx context.Context, repo services.ProviderRepository, token *oauth2.Token, policy services.RetryPolicy) error {
	switch j.Kind {
	case KindCreatePlaylist:
		_, err := services.Retry(ctx, policy, "delete_playlist", func(ctx context.Context) (*models.Playlist, error) {
			return repo.DeletePlaylist(ctx, j.PlaylistID, token)
		})
		return err

	case KindAddItem:
		if j.Item == nil {
			return fmt.Errorf("%w: add_item without item", shared.ErrInconsistentJournal)
		}
		return services.RetryErr(ctx, policy, "delete_playlist_item", func(ctx context.Context) error {
			return repo.DeletePlaylistItem(ctx, j.PlaylistID, *j.Item, token)
		})

	case KindMoveItem:
		if j.Item == nil {
			return fmt.Errorf("%w: move_item without item", shared.ErrInconsistentJournal)
		}
		item := *j.Item
		item.Position = j.To
		_, err := services.Retry(ctx, policy, "update_playlist_item_position", func(ctx context.Context) (*models.PlaylistItem, error) {
			return repo.UpdatePlaylistItemPosition(ctx, j.PlaylistID, item, j.From, token)
		})
		return err

	case KindDeletePlaylist:
		return j.restore(ctx, repo, token, policy)

	default:
		return fmt.Errorf("%w: %q", shared.ErrUnknownJobKind, j.Kind)
	}
}

func (j *Job) restore(ctx context.Context, repo services.ProviderRepository, token *oauth2.Token, policy services.RetryPolicy) error {
	if j.RestoredID == "" {
		p, err := services.Retry(ctx, policy, "add_playlist", func(ctx context.Context) (*models.Playlist, error) {
			return repo.AddPlaylist(ctx, j.Title, j.Privacy, token)
		})
		if err != nil {
			return err
		}
		j.RestoredID = p.ID
	}

	if j.Snapshot == nil {
		return nil
	}
	for ; j.RestoredItems < len(j.Snapshot.Items); j.RestoredItems++ {
		resourceID := j.Snapshot.Items[j.RestoredItems].ResourceID
		_, err := services.Retry(ctx, policy, "add_playlist_item", func(ctx context.Context) (*models.PlaylistItem, error) {
			return repo.AddPlaylistItem(ctx, j.RestoredID, resourceID, token)
		})
		if err != nil {
			return err
		}
	}
	return nil
}

// Command is the ordered group of jobs produced by one orchestrator call.
type Command struct {
	ID              string          `json:"id"`
	Operation       string          `json:"operation"`
	Provider        models.Provider `json:"provider"`
	CreatedAt       time.Time       `json:"created_at"`
	Jobs            []Job           `json:"jobs"`
	PartiallyUndone bool            `json:"partially_undone,omitempty"`
}

// NewCommand starts an empty command for operation.
func NewCommand(operation string, provider models.Provider) *Command {
	return &Command{
		ID:        shared.GenerateID(),
		Operation: operation,
		Provider:  provider,
		CreatedAt: time.Now().UTC(),
	}
}

// Record appends a completed mutation.
func (c *Command) Record(job Job) {
	c.Jobs = append(c.Jobs, job)
}

// Empty reports whether nothing was recorded.
func (c *Command) Empty() bool { return len(c.Jobs) == 0 }
