// Package domain contains the core entities of the task side-effect
// coordinator: reminders, recurrence patterns, processing markers, and
// the task record exchanged with the external task service. Domain types
// carry their own validation and have no dependencies on storage or
// transport concerns.
package domain
