package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/dmehra2102/TodoVault/internal/domain"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

const queryTimeout = 5 * time.Second

const todoColumns = "id, name, description, priority, status, due_date, is_deleted, created_at, updated_at"

type Repository struct {
	db     *sql.DB
	tracer trace.Tracer
}

func NewRepository(db *sql.DB) *Repository {
	return &Repository{
		db:     db,
		tracer: otel.Tracer("postgres-repository"),
	}
}

func scanTodo(row interface{ Scan(...any) error }) (*domain.Todo, error) {
	todo := &domain.Todo{}
	err := row.Scan(
		&todo.ID,
		&todo.Name,
		&todo.Description,
		&todo.Priority,
		&todo.Status,
		&todo.DueDate,
		&todo.IsDeleted,
		&todo.CreatedAt,
		&todo.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	todo.CreatedAt = todo.CreatedAt.UTC()
	todo.UpdatedAt = todo.UpdatedAt.UTC()
	if todo.DueDate != nil {
		utc := todo.DueDate.UTC()
		todo.DueDate = &utc
	}
	return todo, nil
}

func (r *Repository) Create(ctx context.Context, todo *domain.Todo) error {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	ctx, span := r.tracer.Start(ctx, "repository.Create")
	defer span.End()

	query := `
		INSERT INTO todos (name, description, priority, status, due_date, is_deleted, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id
	`

	err := r.db.QueryRowContext(ctx, query,
		todo.Name,
		todo.Description,
		todo.Priority,
		todo.Status,
		todo.DueDate,
		todo.IsDeleted,
		todo.CreatedAt,
		todo.UpdatedAt,
	).Scan(&todo.ID)

	if err != nil {
		span.RecordError(err)
		return &domain.StoreError{Op: "create todo", Err: err}
	}

	span.SetAttributes(attribute.Int64("todo.id", todo.ID))
	return nil
}

func (r *Repository) GetByID(ctx context.Context, id int64, includeDeleted bool) (*domain.Todo, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	ctx, span := r.tracer.Start(ctx, "repository.GetByID")
	defer span.End()

	span.SetAttributes(
		attribute.Int64("todo.id", id),
		attribute.Bool("include_deleted", includeDeleted),
	)

	query := fmt.Sprintf("SELECT %s FROM todos WHERE id = $1", todoColumns)
	if !includeDeleted {
		query += " AND is_deleted = FALSE"
	}

	todo, err := scanTodo(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			span.SetAttributes(attribute.Bool("not_found", true))
			return nil, domain.ErrNotFound
		}
		span.RecordError(err)
		return nil, &domain.StoreError{Op: "get todo", Err: err}
	}

	return todo, nil
}

func (r *Repository) Replace(ctx context.Context, id int64, in *domain.CreateInput) (*domain.Todo, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	ctx, span := r.tracer.Start(ctx, "repository.Replace")
	defer span.End()

	span.SetAttributes(attribute.Int64("todo.id", id))

	query := fmt.Sprintf(`
		UPDATE todos
		SET name = $1, description = $2, priority = $3, status = $4, due_date = $5, updated_at = $6
		WHERE id = $7 AND is_deleted = FALSE
		RETURNING %s
	`, todoColumns)

	todo, err := scanTodo(r.db.QueryRowContext(ctx, query,
		in.Name,
		in.Description,
		in.Priority,
		in.Status,
		in.DueDate,
		time.Now().UTC(),
		id,
	))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		span.RecordError(err)
		return nil, &domain.StoreError{Op: "replace todo", Err: err}
	}

	return todo, nil
}

// PartialUpdate reads the current row and writes the patched version
// within one transaction, so no concurrent write lands between the read
// and the write.
func (r *Repository) PartialUpdate(ctx context.Context, id int64, patch *domain.Patch) (*domain.Todo, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	ctx, span := r.tracer.Start(ctx, "repository.PartialUpdate")
	defer span.End()

	span.SetAttributes(attribute.Int64("todo.id", id))

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		span.RecordError(err)
		return nil, &domain.StoreError{Op: "begin transaction", Err: err}
	}
	defer tx.Rollback()

	query := fmt.Sprintf("SELECT %s FROM todos WHERE id = $1 AND is_deleted = FALSE FOR UPDATE", todoColumns)

	todo, err := scanTodo(tx.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		span.RecordError(err)
		return nil, &domain.StoreError{Op: "read todo for update", Err: err}
	}

	patch.Apply(todo)

	_, err = tx.ExecContext(ctx, `
		UPDATE todos
		SET name = $1, description = $2, priority = $3, status = $4, due_date = $5, updated_at = $6
		WHERE id = $7
	`,
		todo.Name,
		todo.Description,
		todo.Priority,
		todo.Status,
		todo.DueDate,
		todo.UpdatedAt,
		id,
	)
	if err != nil {
		span.RecordError(err)
		return nil, &domain.StoreError{Op: "update todo", Err: err}
	}

	if err := tx.Commit(); err != nil {
		span.RecordError(err)
		return nil, &domain.StoreError{Op: "commit transaction", Err: err}
	}

	return todo, nil
}

func (r *Repository) UpdateStatus(ctx context.Context, id int64, status domain.Status) (*domain.Todo, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	ctx, span := r.tracer.Start(ctx, "repository.UpdateStatus")
	defer span.End()

	span.SetAttributes(
		attribute.Int64("todo.id", id),
		attribute.String("todo.status", string(status)),
	)

	query := fmt.Sprintf(`
		UPDATE todos
		SET status = $1, updated_at = $2
		WHERE id = $3 AND is_deleted = FALSE
		RETURNING %s
	`, todoColumns)

	todo, err := scanTodo(r.db.QueryRowContext(ctx, query, status, time.Now().UTC(), id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		span.RecordError(err)
		return nil, &domain.StoreError{Op: "update status", Err: err}
	}

	return todo, nil
}

// SoftDelete marks the row deleted. updated_at is refreshed only on the
// transition, so repeating the call leaves the row unchanged.
func (r *Repository) SoftDelete(ctx context.Context, id int64) error {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	ctx, span := r.tracer.Start(ctx, "repository.SoftDelete")
	defer span.End()

	span.SetAttributes(attribute.Int64("todo.id", id))

	query := `
		UPDATE todos
		SET updated_at = CASE WHEN is_deleted THEN updated_at ELSE $1 END,
		    is_deleted = TRUE
		WHERE id = $2
	`

	result, err := r.db.ExecContext(ctx, query, time.Now().UTC(), id)
	if err != nil {
		span.RecordError(err)
		return &domain.StoreError{Op: "soft delete todo", Err: err}
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return &domain.StoreError{Op: "soft delete todo", Err: err}
	}

	if rowsAffected == 0 {
		return domain.ErrNotFound
	}

	return nil
}

func (r *Repository) Restore(ctx context.Context, id int64) (*domain.Todo, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	ctx, span := r.tracer.Start(ctx, "repository.Restore")
	defer span.End()

	span.SetAttributes(attribute.Int64("todo.id", id))

	query := fmt.Sprintf(`
		UPDATE todos
		SET updated_at = CASE WHEN is_deleted THEN $1 ELSE updated_at END,
		    is_deleted = FALSE
		WHERE id = $2
		RETURNING %s
	`, todoColumns)

	todo, err := scanTodo(r.db.QueryRowContext(ctx, query, time.Now().UTC(), id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		span.RecordError(err)
		return nil, &domain.StoreError{Op: "restore todo", Err: err}
	}

	return todo, nil
}

func (r *Repository) List(ctx context.Context, q *domain.ListQuery) ([]*domain.Todo, int64, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	ctx, span := r.tracer.Start(ctx, "repository.List")
	defer span.End()

	where, args := buildWhereClause(q)

	countQuery := fmt.Sprintf("SELECT COUNT(*) FROM todos WHERE %s", where)

	var totalCount int64
	if err := r.db.QueryRowContext(ctx, countQuery, args...).Scan(&totalCount); err != nil {
		span.RecordError(err)
		return nil, 0, &domain.StoreError{Op: "count todos", Err: err}
	}

	query := fmt.Sprintf(`
		SELECT %s
		FROM todos
		WHERE %s
		%s
		LIMIT $%d OFFSET $%d
	`, todoColumns, where, buildOrderByClause(q), len(args)+1, len(args)+2)

	args = append(args, q.Limit, q.Offset)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		span.RecordError(err)
		return nil, 0, &domain.StoreError{Op: "list todos", Err: err}
	}
	defer rows.Close()

	todos := make([]*domain.Todo, 0)
	for rows.Next() {
		todo, err := scanTodo(rows)
		if err != nil {
			span.RecordError(err)
			return nil, 0, &domain.StoreError{Op: "scan todo", Err: err}
		}
		todos = append(todos, todo)
	}

	if err = rows.Err(); err != nil {
		span.RecordError(err)
		return nil, 0, &domain.StoreError{Op: "iterate todos", Err: err}
	}

	span.SetAttributes(
		attribute.Int64("total_count", totalCount),
		attribute.Int("returned_count", len(todos)),
	)

	return todos, totalCount, nil
}

func (r *Repository) Stats(ctx context.Context, includeDeleted bool) (*domain.Stats, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	ctx, span := r.tracer.Start(ctx, "repository.Stats")
	defer span.End()

	span.SetAttributes(attribute.Bool("include_deleted", includeDeleted))

	query := `
		SELECT COUNT(*),
		       COUNT(*) FILTER (WHERE priority = 1),
		       COUNT(*) FILTER (WHERE priority = 2),
		       COUNT(*) FILTER (WHERE priority = 3)
		FROM todos
	`
	if !includeDeleted {
		query += " WHERE is_deleted = FALSE"
	}

	stats := &domain.Stats{}
	err := r.db.QueryRowContext(ctx, query).Scan(&stats.Total, &stats.High, &stats.Medium, &stats.Low)
	if err != nil {
		span.RecordError(err)
		return nil, &domain.StoreError{Op: "aggregate stats", Err: err}
	}

	return stats, nil
}

func (r *Repository) SeedIfEmpty(ctx context.Context, todos []*domain.Todo) error {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	ctx, span := r.tracer.Start(ctx, "repository.SeedIfEmpty")
	defer span.End()

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		span.RecordError(err)
		return &domain.StoreError{Op: "begin transaction", Err: err}
	}
	defer tx.Rollback()

	var count int64
	if err := tx.QueryRowContext(ctx, "SELECT COUNT(*) FROM todos WHERE is_deleted = FALSE").Scan(&count); err != nil {
		span.RecordError(err)
		return &domain.StoreError{Op: "count todos", Err: err}
	}
	if count > 0 {
		return nil
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO todos (name, description, priority, status, due_date, is_deleted, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`)
	if err != nil {
		span.RecordError(err)
		return &domain.StoreError{Op: "prepare seed insert", Err: err}
	}
	defer stmt.Close()

	for _, todo := range todos {
		_, err := stmt.ExecContext(ctx,
			todo.Name,
			todo.Description,
			todo.Priority,
			todo.Status,
			todo.DueDate,
			todo.IsDeleted,
			todo.CreatedAt,
			todo.UpdatedAt,
		)
		if err != nil {
			span.RecordError(err)
			return &domain.StoreError{Op: "insert seed todo", Err: err}
		}
	}

	if err := tx.Commit(); err != nil {
		span.RecordError(err)
		return &domain.StoreError{Op: "commit transaction", Err: err}
	}

	span.SetAttributes(attribute.Int("seed_size", len(todos)))
	return nil
}

func buildWhereClause(q *domain.ListQuery) (string, []any) {
	conditions := []string{}
	args := []any{}

	if !q.IncludeDeleted {
		conditions = append(conditions, "is_deleted = FALSE")
	}

	if q.Priority != nil {
		args = append(args, int(*q.Priority))
		conditions = append(conditions, fmt.Sprintf("priority = $%d", len(args)))
	}

	if q.Status != nil {
		args = append(args, string(*q.Status))
		conditions = append(conditions, fmt.Sprintf("status = $%d", len(args)))
	}

	if q.Search != "" {
		args = append(args, "%"+q.Search+"%")
		conditions = append(conditions, fmt.Sprintf("(name ILIKE $%d OR description ILIKE $%d)", len(args), len(args)))
	}

	if q.Overdue {
		args = append(args, time.Now().UTC())
		conditions = append(conditions, fmt.Sprintf("due_date IS NOT NULL AND due_date < $%d", len(args)))
	}

	if len(conditions) == 0 {
		return "TRUE", args
	}

	return strings.Join(conditions, " AND "), args
}

// buildOrderByClause assumes the query has been normalized, so SortBy
// is already whitelisted. The id tiebreak keeps pagination stable.
func buildOrderByClause(q *domain.ListQuery) string {
	order := "ASC"
	if q.SortOrder == domain.SortDesc {
		order = "DESC"
	}
	return fmt.Sprintf("ORDER BY %s %s, id ASC", q.SortBy, order)
}
