package app

import (
	"context"

	"github.com/dmehra2102/TodoVault/internal/domain"
	"go.uber.org/zap"
)

// SeedIfEmpty loads a starter set of todos when the store holds no
// visible records, for local development.
func (s *TodoService) SeedIfEmpty(ctx context.Context) error {
	seeds := []*domain.CreateInput{
		{Name: "Sports", Description: "Go to the Gym", Priority: domain.PriorityMedium, Status: domain.StatusInProgress},
		{Name: "Clean house", Description: "Cleaning the house thoroughly", Priority: domain.PriorityHigh, Status: domain.StatusNew},
		{Name: "Read", Description: "Read chapter 5 of the book", Priority: domain.PriorityLow, Status: domain.StatusDone},
		{Name: "Work", Description: "Complete project documentation", Priority: domain.PriorityMedium, Status: domain.StatusNew},
		{Name: "Study", Description: "Prepare for upcoming exam", Priority: domain.PriorityLow, Status: domain.StatusNew},
	}

	todos := make([]*domain.Todo, 0, len(seeds))
	for _, in := range seeds {
		todo, err := domain.NewTodo(in)
		if err != nil {
			return err
		}
		todos = append(todos, todo)
	}

	if err := s.repo.SeedIfEmpty(ctx, todos); err != nil {
		s.logger.Error("failed to seed todos", zap.Error(err))
		return err
	}

	return nil
}
