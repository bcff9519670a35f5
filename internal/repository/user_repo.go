package repository

import (
	"Amoura/internal/model"
	"context"
	"errors"

	"gorm.io/gorm"
)

type UserRepo interface {
	GetUserById(ctx context.Context, id string) (*model.User, error)
	UpdateProfile(ctx context.Context, user *model.User) error
	// ListMatches 按对方的寻找偏好做属性过滤，分页返回候选用户
	ListMatches(ctx context.Context, viewer *model.User, page, pageSize int) ([]*model.User, error)
}

type UserRepoImpl struct {
	db *gorm.DB
}

func NewUserRepo(db *gorm.DB) UserRepo {
	return &UserRepoImpl{db: db}
}

func (s *UserRepoImpl) GetUserById(ctx context.Context, id string) (*model.User, error) {
	user := &model.User{}
	result := s.db.WithContext(ctx).
		Where("user_id = ?", id).
		First(user)

	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, result.Error
	}

	return user, nil
}

func (s *UserRepoImpl) UpdateProfile(ctx context.Context, user *model.User) error {
	return s.db.WithContext(ctx).
		Model(&model.User{}).
		Where("user_id = ?", user.UserID).
		Updates(map[string]interface{}{
			"nickname":    user.Nickname,
			"region":      user.Region,
			"avatar_url":  user.AvatarURL,
			"bio":         user.Bio,
			"seek_gender": user.SeekGender,
			"seek_region": user.SeekRegion,
		}).Error
}

func (s *UserRepoImpl) ListMatches(ctx context.Context, viewer *model.User, page, pageSize int) ([]*model.User, error) {
	if page < 1 {
		page = 1
	}

	users := make([]*model.User, 0)
	query := s.db.WithContext(ctx).
		Where("user_id <> ?", viewer.UserID).
		Where("is_ban = ?", false)

	if viewer.SeekGender != "" {
		query = query.Where("gender = ?", viewer.SeekGender)
	}
	if viewer.SeekRegion != "" {
		query = query.Where("region = ?", viewer.SeekRegion)
	}

	result := query.
		Order("updated_at DESC").
		Offset((page - 1) * pageSize).
		Limit(pageSize).
		Find(&users)
	if result.Error != nil {
		return nil, result.Error
	}
	return users, nil
}
