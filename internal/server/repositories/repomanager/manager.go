// Package repomanager vends the repositories used by the services and owns
// the lifecycle of the storage they are backed by.
package repomanager

import (
	"context"

	"github.com/dmitrijs2005/taskmaster/internal/server/repositories/tasks"
	"github.com/dmitrijs2005/taskmaster/internal/server/repositories/users"
)

type RepositoryManager interface {
	RunMigrations(ctx context.Context) error
	Users() users.Repository
	Tasks() tasks.Repository
	Close() error
}
