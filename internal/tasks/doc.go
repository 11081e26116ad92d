// Package tasks runs bulk playlist mutations against one provider with real-time progress reporting.
//
// # Core Operations
//
// The [Engine] interface defines the operations:
//
//  1. [Engine.Copy], [Engine.Merge], [Engine.Extract], [Engine.Import] : item-copy loop
//     - Fetch every source, then fetch the target or create one with a derived title
//     - Add candidates in order, skipping resource ids the target already holds unless duplicates are allowed
//
//  2. [Engine.Shuffle] : floor(n*ratio) random moves, each a single position update
//
//  3. [Engine.DeletePlaylist] : snapshot then delete, so undo can recreate the playlist
//
//  4. [Engine.SyncStructured] : validate a definition, then walk [structure.Plan] bottom-up
//
// # Retries
//
// Every provider call, reads included, goes through [services.Retry] with the engine's
// [services.RetryPolicy]. Expired credentials (401) fail after one attempt. The first call
// that exhausts its budget ends the operation; nothing already done is rolled back.
//
// # Journaling
//
// Each mutating operation records its successful mutations as jobs of one [journal.Command]
// and pushes it to the engine's [journal.History] when the operation returns, failed or not.
// Undo is refused while an operation is running.
//
// # Progress Reporting
//
// Updates are [ProgressUpdate] values on a caller-supplied channel. An update is sent right
// before and right after each remote mutation ([Adding]/[Added], [Updating]/[Updated],
// [Executing]/[Executed]) and the send waits for the receiver, so an operation never
// reports success for an event its listener did not get. A nil channel disables updates.
//
// # Metrics
//
// [Metrics] counts provider calls, retries, failures, added items and undo jobs with
// prometheus counters. [WriteTextfile] exports them for node_exporter's textfile collector.
package tasks
