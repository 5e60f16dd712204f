package domain

import "context"

// Repository defines the contract for todo persistence. Both the
// postgres and the in-memory implementations satisfy it.
type Repository interface {
	// Create persists a new todo and fills in the store-assigned ID.
	Create(ctx context.Context, todo *Todo) error

	// GetByID retrieves a todo. Soft-deleted rows are hidden unless
	// includeDeleted is set.
	GetByID(ctx context.Context, id int64, includeDeleted bool) (*Todo, error)

	// Replace overwrites every mutable field of an existing todo.
	Replace(ctx context.Context, id int64, in *CreateInput) (*Todo, error)

	// PartialUpdate applies only the supplied patch fields, reading and
	// writing within a single transaction.
	PartialUpdate(ctx context.Context, id int64, patch *Patch) (*Todo, error)

	// UpdateStatus changes only the status and updated_at fields.
	UpdateStatus(ctx context.Context, id int64, status Status) (*Todo, error)

	// SoftDelete hides a todo from default listings. Deleting an
	// already-deleted todo is a no-op that succeeds.
	SoftDelete(ctx context.Context, id int64) error

	// Restore clears the deleted flag. Restoring an active todo is a
	// no-op that succeeds.
	Restore(ctx context.Context, id int64) (*Todo, error)

	// List retrieves todos matching a normalized query, plus the total
	// match count before pagination.
	List(ctx context.Context, q *ListQuery) ([]*Todo, int64, error)

	// Stats aggregates counts over the selected visibility scope.
	Stats(ctx context.Context, includeDeleted bool) (*Stats, error)

	// SeedIfEmpty inserts the given todos in one transaction, but only
	// when the store holds no visible rows.
	SeedIfEmpty(ctx context.Context, todos []*Todo) error
}
