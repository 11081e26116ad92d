// Package repositories implements SQLite persistence for the undo journal.
//
// [CommandRepository] satisfies [journal.Store]. A command is one row in commands and one row per job in
// command_jobs, where each job is a JSON payload keyed by its position in the command.
//
// Sequence numbers keep commands in push order independent of their UUIDs and timestamps.
// The [NextSequence] function atomically increments per-table sequence counters in dedicated sequence tables.
// Replacing a partially undone command keeps its sequence so it stays on top of the stack.
package repositories
