package users

import (
	"context"
	"time"

	"github.com/dmitrijs2005/userauth/internal/server/models"
)

// Repository persists user accounts.
//
// Lookups of a missing row return common.ErrorNotFound; writes that collide
// with the unique username or email indexes return common.ErrDuplicate.
type Repository interface {
	Create(ctx context.Context, user *models.User) (*models.User, error)
	GetByID(ctx context.Context, id int64) (*models.User, error)
	GetByUsername(ctx context.Context, username string) (*models.User, error)
	// GetByUsernameOrEmail matches login against both columns; a username
	// match wins over an email match.
	GetByUsernameOrEmail(ctx context.Context, login string) (*models.User, error)
	ExistsByUsernameOrEmail(ctx context.Context, username, email string) (bool, error)
	ExistsByUsername(ctx context.Context, username string) (bool, error)
	ExistsByEmail(ctx context.Context, email string) (bool, error)
	List(ctx context.Context) ([]*models.User, error)
	Update(ctx context.Context, user *models.User) error
	UpdateLastLogin(ctx context.Context, id int64, at time.Time) error
	UpdateRole(ctx context.Context, id int64, role models.Role) error
	UpdateEnabled(ctx context.Context, id int64, enabled bool) error
	Delete(ctx context.Context, id int64) error
}
