package repomanager

import (
	"context"

	"github.com/dmitrijs2005/taskmaster/internal/server/repositories/tasks"
	"github.com/dmitrijs2005/taskmaster/internal/server/repositories/users"
)

// InMemoryRepositoryManager keeps all data in process memory. Nothing
// survives a restart.
type InMemoryRepositoryManager struct {
	users *users.MemoryRepository
	tasks *tasks.MemoryRepository
}

func NewInMemoryRepositoryManager() *InMemoryRepositoryManager {
	return &InMemoryRepositoryManager{
		users: users.NewMemoryRepository(),
		tasks: tasks.NewMemoryRepository(),
	}
}

// RunMigrations is a no-op; the memory store has no schema.
func (m *InMemoryRepositoryManager) RunMigrations(context.Context) error {
	return nil
}

func (m *InMemoryRepositoryManager) Users() users.Repository {
	return m.users
}

func (m *InMemoryRepositoryManager) Tasks() tasks.Repository {
	return m.tasks
}

func (m *InMemoryRepositoryManager) Close() error {
	return nil
}
