package repo

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/Skotchmaster/online_restaurant/internal/models"
)

var ErrUserAlreadyExist = errors.New("user already exist")

func (r *GormRepo) CreateUser(ctx context.Context, u *models.User) error {
	return r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&models.User{}).
			Where("nickname = ? OR email = ?", u.Nickname, u.Email).
			Count(&count).Error; err != nil {
			return err
		}
		if count > 0 {
			return ErrUserAlreadyExist
		}
		if err := tx.Create(u).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return ErrUserAlreadyExist
			}
			return err
		}
		return nil
	})
}

func (r *GormRepo) GetUserByNickname(ctx context.Context, nickname string) (*models.User, error) {
	var user models.User
	if err := r.DB.WithContext(ctx).Where("nickname = ?", nickname).First(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *GormRepo) GetUserByID(ctx context.Context, id uint) (*models.User, error) {
	var user models.User
	if err := r.DB.WithContext(ctx).First(&user, id).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *GormRepo) ListUsers(ctx context.Context) ([]models.User, error) {
	var users []models.User
	if err := r.DB.WithContext(ctx).
		Select("id", "nickname", "email").
		Order("id ASC").
		Find(&users).Error; err != nil {
		return nil, err
	}
	return users, nil
}

// EnsureAdmin creates the account when the nickname is free and promotes it to
// admin otherwise. The stored password is left untouched for existing users.
func (r *GormRepo) EnsureAdmin(ctx context.Context, u *models.User) error {
	return r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var existing models.User
		err := tx.Where("nickname = ?", u.Nickname).First(&existing).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			u.Role = models.RoleAdmin
			return tx.Create(u).Error
		}
		if err != nil {
			return err
		}
		*u = existing
		if existing.Role == models.RoleAdmin {
			return nil
		}
		u.Role = models.RoleAdmin
		return tx.Model(&existing).Update("role", models.RoleAdmin).Error
	})
}
