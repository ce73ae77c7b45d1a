package tasks

import (
	"context"
	"sync"
	"time"

	"github.com/dmitrijs2005/taskmaster/internal/common"
	"github.com/dmitrijs2005/taskmaster/internal/server/models"
)

// MemoryRepository keeps tasks in insertion order in process memory.
// Every operation runs under a single mutex.
type MemoryRepository struct {
	mu     sync.Mutex
	tasks  []*models.Task
	lastID int64
	now    func() time.Time
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{now: time.Now}
}

func (r *MemoryRepository) ListByUser(_ context.Context, userID int64) ([]*models.Task, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]*models.Task, 0)
	for _, t := range r.tasks {
		if t.UserID == userID {
			c := *t
			out = append(out, &c)
		}
	}
	return out, nil
}

func (r *MemoryRepository) Create(_ context.Context, task *models.Task) (*models.Task, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.now().UTC()
	r.lastID++

	stored := *task
	stored.ID = r.lastID
	stored.CreatedAt = now
	stored.UpdatedAt = now
	r.tasks = append(r.tasks, &stored)

	out := stored
	return &out, nil
}

func (r *MemoryRepository) Update(_ context.Context, userID, taskID int64, patch models.TaskPatch) (*models.Task, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	i := r.indexOf(userID, taskID)
	if i < 0 {
		return nil, common.ErrorNotFound
	}

	t := r.tasks[i]
	patch.Apply(t)

	// updatedAt strictly advances, even when the clock is coarser than the
	// interval between two updates.
	now := r.now().UTC()
	if !now.After(t.UpdatedAt) {
		now = t.UpdatedAt.Add(time.Microsecond)
	}
	t.UpdatedAt = now

	out := *t
	return &out, nil
}

func (r *MemoryRepository) Delete(_ context.Context, userID, taskID int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	i := r.indexOf(userID, taskID)
	if i < 0 {
		return common.ErrorNotFound
	}

	r.tasks = append(r.tasks[:i], r.tasks[i+1:]...)
	return nil
}

// indexOf must be called with r.mu held.
func (r *MemoryRepository) indexOf(userID, taskID int64) int {
	for i, t := range r.tasks {
		if t.ID == taskID && t.UserID == userID {
			return i
		}
	}
	return -1
}
