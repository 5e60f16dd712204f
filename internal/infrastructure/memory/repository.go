package memory

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/dmehra2102/TodoVault/internal/domain"
)

// Repository is a mutex-guarded in-memory store. It evaluates the same
// query semantics as the postgres backend and serves tests and the
// database-free development mode.
type Repository struct {
	mu     sync.RWMutex
	todos  map[int64]*domain.Todo
	nextID int64
}

func NewRepository() *Repository {
	return &Repository{
		todos:  make(map[int64]*domain.Todo),
		nextID: 1,
	}
}

func clone(t *domain.Todo) *domain.Todo {
	c := *t
	if t.DueDate != nil {
		d := *t.DueDate
		c.DueDate = &d
	}
	return &c
}

func (r *Repository) Create(_ context.Context, todo *domain.Todo) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	todo.ID = r.nextID
	r.nextID++
	r.todos[todo.ID] = clone(todo)
	return nil
}

func (r *Repository) GetByID(_ context.Context, id int64, includeDeleted bool) (*domain.Todo, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	t, ok := r.todos[id]
	if !ok || (t.IsDeleted && !includeDeleted) {
		return nil, domain.ErrNotFound
	}
	return clone(t), nil
}

func (r *Repository) Replace(_ context.Context, id int64, in *domain.CreateInput) (*domain.Todo, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	t, ok := r.todos[id]
	if !ok || t.IsDeleted {
		return nil, domain.ErrNotFound
	}

	t.Name = in.Name
	t.Description = in.Description
	t.Priority = in.Priority
	t.Status = in.Status
	t.DueDate = in.DueDate
	t.UpdatedAt = time.Now().UTC()
	return clone(t), nil
}

func (r *Repository) PartialUpdate(_ context.Context, id int64, patch *domain.Patch) (*domain.Todo, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	t, ok := r.todos[id]
	if !ok || t.IsDeleted {
		return nil, domain.ErrNotFound
	}

	patch.Apply(t)
	return clone(t), nil
}

func (r *Repository) UpdateStatus(_ context.Context, id int64, status domain.Status) (*domain.Todo, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	t, ok := r.todos[id]
	if !ok || t.IsDeleted {
		return nil, domain.ErrNotFound
	}

	t.Status = status
	t.UpdatedAt = time.Now().UTC()
	return clone(t), nil
}

func (r *Repository) SoftDelete(_ context.Context, id int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	t, ok := r.todos[id]
	if !ok {
		return domain.ErrNotFound
	}
	if t.IsDeleted {
		return nil
	}

	t.IsDeleted = true
	t.UpdatedAt = time.Now().UTC()
	return nil
}

func (r *Repository) Restore(_ context.Context, id int64) (*domain.Todo, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	t, ok := r.todos[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	if t.IsDeleted {
		t.IsDeleted = false
		t.UpdatedAt = time.Now().UTC()
	}
	return clone(t), nil
}

func (r *Repository) List(_ context.Context, q *domain.ListQuery) ([]*domain.Todo, int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	now := time.Now().UTC()

	matched := make([]*domain.Todo, 0)
	for _, t := range r.todos {
		if matches(t, q, now) {
			matched = append(matched, t)
		}
	}

	sortTodos(matched, q)

	total := int64(len(matched))

	if q.Offset >= len(matched) {
		return []*domain.Todo{}, total, nil
	}
	matched = matched[q.Offset:]
	if q.Limit < len(matched) {
		matched = matched[:q.Limit]
	}

	page := make([]*domain.Todo, len(matched))
	for i, t := range matched {
		page[i] = clone(t)
	}
	return page, total, nil
}

func (r *Repository) Stats(_ context.Context, includeDeleted bool) (*domain.Stats, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	stats := &domain.Stats{}
	for _, t := range r.todos {
		if t.IsDeleted && !includeDeleted {
			continue
		}
		stats.Total++
		switch t.Priority {
		case domain.PriorityHigh:
			stats.High++
		case domain.PriorityMedium:
			stats.Medium++
		case domain.PriorityLow:
			stats.Low++
		}
	}
	return stats, nil
}

func (r *Repository) SeedIfEmpty(_ context.Context, todos []*domain.Todo) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, t := range r.todos {
		if !t.IsDeleted {
			return nil
		}
	}

	for _, todo := range todos {
		c := clone(todo)
		c.ID = r.nextID
		r.nextID++
		r.todos[c.ID] = c
	}
	return nil
}

func matches(t *domain.Todo, q *domain.ListQuery, now time.Time) bool {
	if t.IsDeleted && !q.IncludeDeleted {
		return false
	}
	if q.Priority != nil && t.Priority != *q.Priority {
		return false
	}
	if q.Status != nil && t.Status != *q.Status {
		return false
	}
	if q.Search != "" {
		term := strings.ToLower(q.Search)
		if !strings.Contains(strings.ToLower(t.Name), term) &&
			!strings.Contains(strings.ToLower(t.Description), term) {
			return false
		}
	}
	if q.Overdue {
		if t.DueDate == nil || !t.DueDate.Before(now) {
			return false
		}
	}
	return true
}

// sortTodos orders by the requested field with id ASC as tiebreak. Nil
// due dates sort after everything else ascending, before it descending,
// matching postgres NULLS LAST/FIRST defaults.
func sortTodos(todos []*domain.Todo, q *domain.ListQuery) {
	desc := q.SortOrder == domain.SortDesc

	sort.Slice(todos, func(i, j int) bool {
		c := compareField(todos[i], todos[j], q.SortBy)
		if desc {
			c = -c
		}
		if c != 0 {
			return c < 0
		}
		return todos[i].ID < todos[j].ID
	})
}

func compareField(a, b *domain.Todo, field string) int {
	switch field {
	case "id":
		return compareInt64(a.ID, b.ID)
	case "name":
		return strings.Compare(a.Name, b.Name)
	case "priority":
		return compareInt64(int64(a.Priority), int64(b.Priority))
	case "status":
		return strings.Compare(string(a.Status), string(b.Status))
	case "due_date":
		return compareTimePtr(a.DueDate, b.DueDate)
	case "updated_at":
		return a.UpdatedAt.Compare(b.UpdatedAt)
	default:
		return a.CreatedAt.Compare(b.CreatedAt)
	}
}

func compareInt64(a, b int64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}

func compareTimePtr(a, b *time.Time) int {
	switch {
	case a == nil && b == nil:
		return 0
	case a == nil:
		return 1
	case b == nil:
		return -1
	default:
		return a.Compare(*b)
	}
}
