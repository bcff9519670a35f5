package handler

import (
	"Amoura/internal/api/dto"
	"Amoura/internal/pkg/response"
	"Amoura/internal/service"
	"strconv"

	"github.com/gin-gonic/gin"
)

type UserHandler struct {
	userService service.UserService
}

func NewUserHandler(userService service.UserService) *UserHandler {
	return &UserHandler{userService: userService}
}

// GetProfile 查看用户资料
func (s *UserHandler) GetProfile(c *gin.Context) {
	userID := c.Param("user_id")
	res, err := s.userService.GetProfile(c, userID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, res)
}

// UpdateProfile 更新本人资料
func (s *UserHandler) UpdateProfile(c *gin.Context) {
	var req dto.UpdateProfileReq
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, service.ErrParamInvalid)
		return
	}

	res, err := s.userService.UpdateProfile(c, c.GetString("user_id"), &req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, res)
}

// ListMatches 匹配列表分页
func (s *UserHandler) ListMatches(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))

	res, err := s.userService.ListMatches(c, c.GetString("user_id"), page, pageSize)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, res)
}
