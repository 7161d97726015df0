// Package store defines the entity store interface for data persistence.
// The store is a point-access key/value abstraction: get, put, and delete
// on opaque byte payloads, with no range or predicate queries and no
// multi-key atomicity. Higher layers emulate queries with secondary
// indexes and treat every call as potentially failing.
package store
