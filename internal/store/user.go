package store

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"shortlink-service/internal/model"
)

var ErrUserNotFound = errors.New("user not found")

// UserStore 管理后台账号
type UserStore struct {
	db *gorm.DB
}

func NewUserStore(db *gorm.DB) *UserStore {
	return &UserStore{db: db}
}

func (s *UserStore) FindByUsername(ctx context.Context, username string) (*model.User, error) {
	var u model.User
	err := s.db.WithContext(ctx).Where("username = ?", username).First(&u).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, unavailable(err)
	}
	return &u, nil
}

// EnsureAdmin 创建或更新管理员账号的密码
func (s *UserStore) EnsureAdmin(ctx context.Context, username, password string) (*model.User, error) {
	u, err := s.FindByUsername(ctx, username)
	switch {
	case errors.Is(err, ErrUserNotFound):
		u = &model.User{Username: username, Role: model.RoleAdmin, IsActive: true}
	case err != nil:
		return nil, err
	}
	if !u.CheckPassword(password) {
		if err := u.SetPassword(password); err != nil {
			return nil, err
		}
	}
	u.Role = model.RoleAdmin
	u.IsActive = true
	if err := s.db.WithContext(ctx).Save(u).Error; err != nil {
		return nil, unavailable(err)
	}
	return u, nil
}

func (s *UserStore) TouchLogin(ctx context.Context, u *model.User) error {
	now := time.Now()
	if err := s.db.WithContext(ctx).Model(u).Update("last_login", now).Error; err != nil {
		return unavailable(err)
	}
	u.LastLogin = &now
	return nil
}
