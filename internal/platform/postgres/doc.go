// Package postgres provides a PostgreSQL-backed implementation of the
// entity store. Entities live in a single key/value table and the store
// deliberately exposes only point operations, keeping the contract
// identical to the other backends. The schema is managed with goose
// migrations embedded in the binary.
package postgres
