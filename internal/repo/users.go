package repo

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/izinapp/izin-api/internal/models"
)

// FindUserByEmailForAuth returns the user with the password hash populated.
// Only the login path may call this; every other lookup goes through
// FindUserByID, which is all the token flows need.
func (r *Repo) FindUserByEmailForAuth(ctx context.Context, email string) (*models.User, error) {
	var user models.User
	if err := r.DB.WithContext(ctx).Where("email = ?", email).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &user, nil
}

func (r *Repo) FindUserByID(ctx context.Context, id uint) (*models.User, error) {
	var user models.User
	if err := r.DB.WithContext(ctx).Where("id = ?", id).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &user, nil
}
