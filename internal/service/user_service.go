package service

import (
	"Amoura/internal/api/dto"
	"Amoura/internal/model"
	"Amoura/internal/pkg/cache"
	"Amoura/internal/pkg/consts"
	"Amoura/internal/repository"
	"context"

	"github.com/jinzhu/copier"
)

// UserService 资料与匹配的读多写少路径，统一走缓存门面
type UserService interface {
	GetProfile(ctx context.Context, userID string) (*dto.ProfileDTO, error)
	UpdateProfile(ctx context.Context, userID string, req *dto.UpdateProfileReq) (*dto.ProfileDTO, error)
	ListMatches(ctx context.Context, userID string, page, pageSize int) (*dto.MatchPageDTO, error)
}

type userServiceImpl struct {
	userRepo repository.UserRepo
	presence PresenceService
}

func NewUserService(userRepo repository.UserRepo, presence PresenceService) UserService {
	return &userServiceImpl{
		userRepo: userRepo,
		presence: presence,
	}
}

func (s *userServiceImpl) GetProfile(ctx context.Context, userID string) (*dto.ProfileDTO, error) {
	if userID == "" {
		return nil, ErrParamInvalid
	}

	key := cache.ProfileKey(userID)
	cached := &dto.ProfileDTO{}
	if cache.GetJSON(ctx, key, cached) {
		return cached, nil
	}

	user, err := s.userRepo.GetUserById(ctx, userID)
	if err != nil {
		return nil, UnExpectedError
	}
	if user == nil {
		return nil, ErrUserNotFound
	}

	res := s.toProfileDTO(user)
	cache.SetJSON(ctx, key, res, consts.ProfileCacheTTL)
	return res, nil
}

// UpdateProfile 可见属性变更会影响自己出现在谁的匹配页里，
// 因此除资料缓存外同时失效本人全部匹配分页缓存
func (s *userServiceImpl) UpdateProfile(ctx context.Context, userID string, req *dto.UpdateProfileReq) (*dto.ProfileDTO, error) {
	if userID == "" || req == nil {
		return nil, ErrParamInvalid
	}

	user, err := s.userRepo.GetUserById(ctx, userID)
	if err != nil {
		return nil, UnExpectedError
	}
	if user == nil {
		return nil, ErrUserNotFound
	}

	user.Nickname = req.Nickname
	user.Region = req.Region
	user.AvatarURL = req.AvatarURL
	user.Bio = req.Bio
	user.SeekGender = req.SeekGender
	user.SeekRegion = req.SeekRegion

	if err := s.userRepo.UpdateProfile(ctx, user); err != nil {
		return nil, UnExpectedError
	}

	cache.InvalidateUserCaches(ctx, userID)
	return s.toProfileDTO(user), nil
}

// ListMatches 分页匹配列表，带在线状态标注
func (s *userServiceImpl) ListMatches(ctx context.Context, userID string, page, pageSize int) (*dto.MatchPageDTO, error) {
	if userID == "" {
		return nil, ErrParamInvalid
	}
	if page < 1 {
		page = 1
	}
	if pageSize <= 0 || pageSize > 50 {
		pageSize = 20
	}

	key := cache.MatchPageKey(userID, page)
	cached := &dto.MatchPageDTO{}
	if cache.GetJSON(ctx, key, cached) {
		s.annotateOnline(ctx, cached.Matches)
		return cached, nil
	}

	viewer, err := s.userRepo.GetUserById(ctx, userID)
	if err != nil {
		return nil, UnExpectedError
	}
	if viewer == nil {
		return nil, ErrUserNotFound
	}

	users, err := s.userRepo.ListMatches(ctx, viewer, page, pageSize)
	if err != nil {
		return nil, UnExpectedError
	}

	matches := make([]*dto.MatchDTO, 0, len(users))
	for _, u := range users {
		m := &dto.MatchDTO{}
		_ = copier.Copy(m, u)
		matches = append(matches, m)
	}

	res := &dto.MatchPageDTO{Page: page, Matches: matches}
	cache.SetJSON(ctx, key, res, consts.MatchPageCacheTTL)

	// 在线标注是瞬态的，不进缓存
	s.annotateOnline(ctx, res.Matches)
	return res, nil
}

func (s *userServiceImpl) annotateOnline(ctx context.Context, matches []*dto.MatchDTO) {
	for _, m := range matches {
		m.Online = s.presence.IsOnline(ctx, m.UserID)
	}
}

func (s *userServiceImpl) toProfileDTO(user *model.User) *dto.ProfileDTO {
	res := &dto.ProfileDTO{}
	_ = copier.Copy(res, user)
	return res
}
