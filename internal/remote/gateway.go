// Package remote is the data gateway to the hosted store. Two backends
// implement it: a SQL one (sqlite or Postgres) and a PostgREST one.
package remote

import (
	"context"
)

// Gateway performs the filtered reads and writes the services rely on.
// Implementations return *Error for every failure.
type Gateway interface {
	Select(ctx context.Context, q *Query) ([]Record, error)
	Count(ctx context.Context, q *Query) (int, error)
	Insert(ctx context.Context, table string, rec Record) (Record, error)
	// Upsert inserts rec, or updates the mutable columns of the row that
	// conflicts on the onConflict columns. It is atomic.
	Upsert(ctx context.Context, table string, rec Record, onConflict ...string) (Record, error)
	// Update and Delete refuse to run without at least one filter.
	Update(ctx context.Context, q *Query, patch Record) ([]Record, error)
	Delete(ctx context.Context, q *Query) (int, error)
	Close() error
}
