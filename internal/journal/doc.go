// Package journal records reversible playlist mutations and undoes them.
//
// Every bulk operation collects the mutations it completed as [Job]s in one [Command]. The command is
// pushed onto a [History] when the operation ends, even when it ended in a failure, so partial work can
// still be undone.
//
// # Undo
//
// [History.Undo] pops the latest command and runs each job's inverse newest first:
//   - create_playlist: delete the playlist
//   - add_item: remove the added entry
//   - move_item: move the entry back to its original index
//   - delete_playlist: recreate the playlist and re-add its snapshot items (the new playlist has a new id)
//
// The first inverse that fails stops the undo with an [*UndoError]. The remaining jobs are pushed back
// under the same command id, so calling Undo again resumes where it stopped.
//
// Undo is refused with [shared.ErrOperationInProgress] while an operation started with [History.Begin]
// is still running.
//
// # Persistence
//
// A [Store] makes the history durable across processes; [History.Load] reads it back.
package journal
