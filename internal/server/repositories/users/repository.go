package users

import (
	"context"

	"github.com/dmitrijs2005/taskmaster/internal/server/models"
)

// Repository stores users. Email is unique: Create returns
// common.ErrorAlreadyExists for a duplicate, lookups return
// common.ErrorNotFound for a missing user.
type Repository interface {
	Create(ctx context.Context, user *models.User) (*models.User, error)
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	GetUserByID(ctx context.Context, id int64) (*models.User, error)
}
