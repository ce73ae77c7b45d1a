package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/taskmaster/internal/common"
	"github.com/dmitrijs2005/taskmaster/internal/server/models"
	"github.com/dmitrijs2005/taskmaster/internal/server/repositories/repomanager"
)

// CreateTaskInput holds the client-supplied fields of a new task.
type CreateTaskInput struct {
	Title       string
	Description string
	Status      models.TaskStatus
}

// TaskService implements task CRUD scoped to one owner. A task that belongs
// to someone else is reported exactly like a missing one.
type TaskService struct {
	repomanager repomanager.RepositoryManager
}

func NewTaskService(m repomanager.RepositoryManager) *TaskService {
	return &TaskService{repomanager: m}
}

// List returns the owner's tasks in creation order; never nil.
func (s *TaskService) List(ctx context.Context, ownerID int64) ([]*models.Task, error) {
	tasks, err := s.repomanager.Tasks().ListByUser(ctx, ownerID)
	if err != nil {
		return nil, fmt.Errorf("error listing tasks: %w", err)
	}
	if tasks == nil {
		tasks = []*models.Task{}
	}
	return tasks, nil
}

// Create stores a new task for ownerID. Status defaults to pending.
func (s *TaskService) Create(ctx context.Context, ownerID int64, in CreateTaskInput) (*models.Task, error) {
	if in.Title == "" {
		return nil, common.NewValidationError("Title is required")
	}

	status := in.Status
	if status == "" {
		status = models.StatusPending
	}
	if !status.Valid() {
		return nil, invalidStatus()
	}

	task, err := s.repomanager.Tasks().Create(ctx, &models.Task{
		UserID:      ownerID,
		Title:       in.Title,
		Description: in.Description,
		Status:      status,
	})
	if err != nil {
		return nil, fmt.Errorf("error creating task: %w", err)
	}
	return task, nil
}

// Update merges patch into the owner's task. Nothing is written when any
// field fails validation.
func (s *TaskService) Update(ctx context.Context, ownerID, taskID int64, patch models.TaskPatch) (*models.Task, error) {
	if patch.Title != nil && *patch.Title == "" {
		return nil, common.NewValidationError("Title cannot be empty")
	}
	if patch.Status != nil && !patch.Status.Valid() {
		return nil, invalidStatus()
	}

	task, err := s.repomanager.Tasks().Update(ctx, ownerID, taskID, patch)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("error updating task: %w", err)
	}
	return task, nil
}

// Delete removes the owner's task for good. A second delete of the same id
// yields common.ErrorNotFound.
func (s *TaskService) Delete(ctx context.Context, ownerID, taskID int64) error {
	if err := s.repomanager.Tasks().Delete(ctx, ownerID, taskID); err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return common.ErrorNotFound
		}
		return fmt.Errorf("error deleting task: %w", err)
	}
	return nil
}

func invalidStatus() error {
	return common.NewValidationError(fmt.Sprintf("Status must be one of: %s, %s, %s",
		models.StatusPending, models.StatusInProgress, models.StatusCompleted))
}
