package repositories

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/shashiranjanraj/rincon/app/models"
	"github.com/shashiranjanraj/rincon/pkg/orm"
)

// UserRepository adds the email lookup used by login.
type UserRepository struct {
	*GormRepository[models.User, *models.User]
	store *orm.Store
}

func NewUserRepository(store *orm.Store) *UserRepository {
	return &UserRepository{
		GormRepository: NewGormRepository[models.User](store),
		store:          store,
	}
}

// FindByEmail looks up a user by their email address.
func (r *UserRepository) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	var user models.User
	err := r.store.Run(ctx, r.Table(), orm.OpSelect, func(tx *gorm.DB) error {
		return tx.Where("email = ?", email).First(&user).Error
	})
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("%s: find by email: %w", r.Table(), err)
	}
	return &user, nil
}
