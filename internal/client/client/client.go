package client

import (
	"context"

	"github.com/dmitrijs2005/taskmaster/internal/client/models"
)

type Client interface {
	Register(ctx context.Context, name, email, password string) (*models.User, error)
	Login(ctx context.Context, email, password string) (*models.User, error)
	Logout()
	LoggedIn() bool
	Me(ctx context.Context) (*models.User, error)
	ListTasks(ctx context.Context) ([]*models.Task, error)
	CreateTask(ctx context.Context, t models.NewTask) (*models.Task, error)
	UpdateTask(ctx context.Context, id int64, c models.TaskChanges) (*models.Task, error)
	DeleteTask(ctx context.Context, id int64) error
}
