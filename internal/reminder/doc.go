// Package reminder owns the reminder lifecycle: creation when a
// reminder-due event is first observed, the notified/cancelled terminal
// transitions, discovery via secondary indexes, and cleanup on task
// deletion. Whichever terminal transition commits first wins; the other
// becomes a no-op guarded by a state check.
package reminder
