package tasks

import (
	"context"

	"github.com/dmitrijs2005/taskmaster/internal/server/models"
)

// Repository stores tasks. Update and Delete are scoped to the owner: a task
// that exists but belongs to someone else is reported as
// common.ErrorNotFound, exactly like a missing one.
type Repository interface {
	ListByUser(ctx context.Context, userID int64) ([]*models.Task, error)
	Create(ctx context.Context, task *models.Task) (*models.Task, error)
	Update(ctx context.Context, userID, taskID int64, patch models.TaskPatch) (*models.Task, error)
	Delete(ctx context.Context, userID, taskID int64) error
}
