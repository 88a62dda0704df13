// Package postgres implements the storage repositories on PostgreSQL with
// pgx. Open connects a pgxpool, applies the embedded schema and returns
// every repository on the shared pool.
//
// Category and skill names live in a terms table keyed by kind and folded
// name; get-or-create relies on INSERT ... ON CONFLICT DO NOTHING so
// concurrent writers of the same name agree on the first spelling.
package postgres
