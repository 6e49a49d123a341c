package repository

import (
	"context"
	"errors"
)

// ErrNotFound indicates the requested row does not exist.
var ErrNotFound = errors.New("not found")

// Store is the persistence capability set consumed by the resource
// handlers and the monitoring probe. Rows travel as generic maps so a
// single implementation can back every resource collection.
type Store interface {
	// List returns rows matching every filter, sorted by orderBy.
	List(ctx context.Context, table string, filters map[string]string, orderBy string, descending bool) ([]map[string]any, error)
	// Get fetches exactly one row by identifier.
	Get(ctx context.Context, table, id string) (map[string]any, error)
	// Insert persists a new row and returns it as stored.
	Insert(ctx context.Context, table string, row map[string]any) (map[string]any, error)
	// Update merges patch into the row with the given identifier and
	// returns the updated row.
	Update(ctx context.Context, table, id string, patch map[string]any) (map[string]any, error)
	// Delete removes the row with the given identifier. Deleting a
	// missing row is not an error.
	Delete(ctx context.Context, table, id string) error
	// Health runs a minimal one-row query to prove liveness.
	Health(ctx context.Context) error
}
