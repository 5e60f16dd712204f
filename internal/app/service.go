package app

import (
	"context"

	"github.com/dmehra2102/TodoVault/internal/domain"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

// TodoService orchestrates validation and persistence for the todo
// lifecycle. All inputs are fully validated before any store write.
type TodoService struct {
	repo         domain.Repository
	logger       *zap.Logger
	tracer       trace.Tracer
	defaultLimit int
	maxLimit     int
}

type Pagination struct {
	DefaultLimit int
	MaxLimit     int
}

func NewTodoService(repo domain.Repository, logger *zap.Logger, page Pagination) *TodoService {
	return &TodoService{
		repo:         repo,
		logger:       logger,
		tracer:       otel.Tracer("todo-service"),
		defaultLimit: page.DefaultLimit,
		maxLimit:     page.MaxLimit,
	}
}

func (s *TodoService) Create(ctx context.Context, in *domain.CreateInput) (*domain.Todo, error) {
	ctx, span := s.tracer.Start(ctx, "Create")
	defer span.End()

	todo, err := domain.NewTodo(in)
	if err != nil {
		return nil, err
	}

	if err := s.repo.Create(ctx, todo); err != nil {
		s.logger.Error("failed to persist todo", zap.Error(err))
		return nil, err
	}

	span.SetAttributes(attribute.Int64("todo.id", todo.ID))
	s.logger.Info("todo created",
		zap.Int64("todo_id", todo.ID),
		zap.String("priority", todo.Priority.String()),
	)

	return todo, nil
}

func (s *TodoService) Get(ctx context.Context, id int64, includeDeleted bool) (*domain.Todo, error) {
	ctx, span := s.tracer.Start(ctx, "Get")
	defer span.End()

	span.SetAttributes(attribute.Int64("todo.id", id))

	return s.repo.GetByID(ctx, id, includeDeleted)
}

func (s *TodoService) Replace(ctx context.Context, id int64, in *domain.CreateInput) (*domain.Todo, error) {
	ctx, span := s.tracer.Start(ctx, "Replace")
	defer span.End()

	span.SetAttributes(attribute.Int64("todo.id", id))

	if err := in.Validate(); err != nil {
		return nil, err
	}

	todo, err := s.repo.Replace(ctx, id, in)
	if err != nil {
		if err != domain.ErrNotFound {
			s.logger.Error("failed to replace todo", zap.Error(err), zap.Int64("todo_id", id))
		}
		return nil, err
	}

	s.logger.Info("todo replaced", zap.Int64("todo_id", id))
	return todo, nil
}

func (s *TodoService) PartialUpdate(ctx context.Context, id int64, patch *domain.Patch) (*domain.Todo, error) {
	ctx, span := s.tracer.Start(ctx, "PartialUpdate")
	defer span.End()

	span.SetAttributes(attribute.Int64("todo.id", id))

	if err := patch.Validate(); err != nil {
		return nil, err
	}

	todo, err := s.repo.PartialUpdate(ctx, id, patch)
	if err != nil {
		if err != domain.ErrNotFound {
			s.logger.Error("failed to update todo", zap.Error(err), zap.Int64("todo_id", id))
		}
		return nil, err
	}

	s.logger.Info("todo updated", zap.Int64("todo_id", id))
	return todo, nil
}

func (s *TodoService) UpdateStatus(ctx context.Context, id int64, status string) (*domain.Todo, error) {
	ctx, span := s.tracer.Start(ctx, "UpdateStatus")
	defer span.End()

	span.SetAttributes(attribute.Int64("todo.id", id))

	parsed, err := domain.ParseStatus(status)
	if err != nil {
		return nil, err
	}

	todo, err := s.repo.UpdateStatus(ctx, id, parsed)
	if err != nil {
		if err != domain.ErrNotFound {
			s.logger.Error("failed to update status", zap.Error(err), zap.Int64("todo_id", id))
		}
		return nil, err
	}

	s.logger.Info("todo status updated",
		zap.Int64("todo_id", id),
		zap.String("status", status),
	)
	return todo, nil
}

func (s *TodoService) SoftDelete(ctx context.Context, id int64) error {
	ctx, span := s.tracer.Start(ctx, "SoftDelete")
	defer span.End()

	span.SetAttributes(attribute.Int64("todo.id", id))

	if err := s.repo.SoftDelete(ctx, id); err != nil {
		if err != domain.ErrNotFound {
			s.logger.Error("failed to delete todo", zap.Error(err), zap.Int64("todo_id", id))
		}
		return err
	}

	s.logger.Info("todo deleted", zap.Int64("todo_id", id))
	return nil
}

func (s *TodoService) Restore(ctx context.Context, id int64) (*domain.Todo, error) {
	ctx, span := s.tracer.Start(ctx, "Restore")
	defer span.End()

	span.SetAttributes(attribute.Int64("todo.id", id))

	todo, err := s.repo.Restore(ctx, id)
	if err != nil {
		if err != domain.ErrNotFound {
			s.logger.Error("failed to restore todo", zap.Error(err), zap.Int64("todo_id", id))
		}
		return nil, err
	}

	s.logger.Info("todo restored", zap.Int64("todo_id", id))
	return todo, nil
}

func (s *TodoService) List(ctx context.Context, q *domain.ListQuery) ([]*domain.Todo, int64, error) {
	ctx, span := s.tracer.Start(ctx, "List")
	defer span.End()

	if err := q.Normalize(s.defaultLimit, s.maxLimit); err != nil {
		return nil, 0, err
	}

	todos, total, err := s.repo.List(ctx, q)
	if err != nil {
		s.logger.Error("failed to list todos", zap.Error(err))
		return nil, 0, err
	}

	span.SetAttributes(attribute.Int64("total_count", total))
	return todos, total, nil
}

func (s *TodoService) Stats(ctx context.Context, includeDeleted bool) (*domain.Stats, error) {
	ctx, span := s.tracer.Start(ctx, "Stats")
	defer span.End()

	stats, err := s.repo.Stats(ctx, includeDeleted)
	if err != nil {
		s.logger.Error("failed to aggregate stats", zap.Error(err))
		return nil, err
	}

	return stats, nil
}
