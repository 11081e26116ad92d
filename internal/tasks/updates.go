package tasks

import (
	"fmt"

	"github.com/desertthunder/listkit/internal/models"
	"github.com/desertthunder/listkit/internal/structure"
)

// Phase represents the current stage of an operation.
type Phase int

const (
	FetchSource Phase = iota
	FetchTarget
	CreatePlaylist
	Adding
	Added
	Skipped
	Updating
	Updated
	Executing
	Executed
	Deleting
	Deleted
)

// String returns a human-readable representation of the phase.
func (p Phase) String() string {
	switch p {
	case FetchSource:
		return "Fetching source"
	case FetchTarget:
		return "Fetching target"
	case CreatePlaylist:
		return "Creating playlist"
	case Adding:
		return "Adding item"
	case Added:
		return "Added item"
	case Skipped:
		return "Skipped item"
	case Updating:
		return "Moving item"
	case Updated:
		return "Moved item"
	case Executing:
		return "Syncing playlist"
	case Executed:
		return "Synced playlist"
	case Deleting:
		return "Deleting playlist"
	case Deleted:
		return "Deleted playlist"
	default:
		return "Unknown"
	}
}

// ProgressUpdate represents a progress notification during an operation.
//
// Data carries the phase payload: [AddedData], [UpdatedData], [ExecutedData],
// a [models.PlaylistItem] for Adding/Skipped/Updating, a [structure.Step] for
// Executing, or a [models.Playlist] for CreatePlaylist/Deleted.
type ProgressUpdate struct {
	Phase   Phase
	Step    int
	Total   int
	Message string
	Data    any
}

// AddedData is the payload of an [Added] update. Index is the candidate's 0-based position.
type AddedData struct {
	Item  models.PlaylistItem
	Index int
	Total int
}

// UpdatedData is the payload of an [Updated] update.
type UpdatedData struct {
	Item      models.PlaylistItem
	From      int
	To        int
	Completed int
	Total     int
}

// ExecutedData is the payload of an [Executed] update.
type ExecutedData struct {
	Step      structure.Step
	Completed int
	Total     int
}

func fetchSourceUpdate(step, total int, id string) ProgressUpdate {
	return ProgressUpdate{
		Phase:   FetchSource,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("Fetching playlist %s...", id),
	}
}

func fetchTargetUpdate(id string) ProgressUpdate {
	return ProgressUpdate{
		Phase:   FetchTarget,
		Step:    1,
		Total:   1,
		Message: fmt.Sprintf("Fetching target playlist %s...", id),
	}
}

func createPlaylistUpdate(p *models.Playlist) ProgressUpdate {
	return ProgressUpdate{
		Phase:   CreatePlaylist,
		Step:    1,
		Total:   1,
		Message: fmt.Sprintf("Created playlist %q", p.Title),
		Data:    *p,
	}
}

func addingUpdate(item models.PlaylistItem, index, total int) ProgressUpdate {
	return ProgressUpdate{
		Phase:   Adding,
		Step:    index + 1,
		Total:   total,
		Message: fmt.Sprintf("Adding %s", describe(item)),
		Data:    item,
	}
}

func addedUpdate(item models.PlaylistItem, index, total int) ProgressUpdate {
	return ProgressUpdate{
		Phase:   Added,
		Step:    index + 1,
		Total:   total,
		Message: fmt.Sprintf("Added %s", describe(item)),
		Data:    AddedData{Item: item, Index: index, Total: total},
	}
}

func skippedUpdate(item models.PlaylistItem, index, total int) ProgressUpdate {
	return ProgressUpdate{
		Phase:   Skipped,
		Step:    index + 1,
		Total:   total,
		Message: fmt.Sprintf("Skipped %s (already present)", describe(item)),
		Data:    item,
	}
}

func updatingUpdate(item models.PlaylistItem, from, to, completed, total int) ProgressUpdate {
	return ProgressUpdate{
		Phase:   Updating,
		Step:    completed + 1,
		Total:   total,
		Message: fmt.Sprintf("Moving %s from %d to %d", describe(item), from, to),
		Data:    item,
	}
}

func updatedUpdate(item models.PlaylistItem, from, to, completed, total int) ProgressUpdate {
	return ProgressUpdate{
		Phase:   Updated,
		Step:    completed,
		Total:   total,
		Message: fmt.Sprintf("Moved %s from %d to %d", describe(item), from, to),
		Data:    UpdatedData{Item: item, From: from, To: to, Completed: completed, Total: total},
	}
}

func executingUpdate(step structure.Step, completed, total int) ProgressUpdate {
	return ProgressUpdate{
		Phase:   Executing,
		Step:    completed + 1,
		Total:   total,
		Message: fmt.Sprintf("Syncing %s from %d dependencies...", step.ID, len(step.Dependencies)),
		Data:    step,
	}
}

func executedUpdate(step structure.Step, completed, total int) ProgressUpdate {
	return ProgressUpdate{
		Phase:   Executed,
		Step:    completed,
		Total:   total,
		Message: fmt.Sprintf("Synced %s", step.ID),
		Data:    ExecutedData{Step: step, Completed: completed, Total: total},
	}
}

func deletingUpdate(p *models.FullPlaylist) ProgressUpdate {
	return ProgressUpdate{
		Phase:   Deleting,
		Step:    1,
		Total:   1,
		Message: fmt.Sprintf("Deleting playlist %q (%d items)", p.Title, len(p.Items)),
		Data:    p.Playlist,
	}
}

func deletedUpdate(p *models.Playlist) ProgressUpdate {
	return ProgressUpdate{
		Phase:   Deleted,
		Step:    1,
		Total:   1,
		Message: fmt.Sprintf("Deleted playlist %s", p.ID),
		Data:    *p,
	}
}

func describe(item models.PlaylistItem) string {
	switch {
	case item.Title != "" && item.Author != "":
		return fmt.Sprintf("%q by %s", item.Title, item.Author)
	case item.Title != "":
		return fmt.Sprintf("%q", item.Title)
	default:
		return item.ResourceID
	}
}
