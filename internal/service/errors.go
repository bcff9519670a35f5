package service

import (
	"errors"
)

const (
	BadRequest          = 400
	Unauthorized        = 401
	Forbidden           = 403
	NotFound            = 404
	InternalServerError = 500
	ServiceUnavailable  = 503
)

var (
	ErrParamInvalid     = errors.New("参数错误")
	ErrUserNotFound     = errors.New("用户不存在")
	ErrMessageNotFound  = errors.New("消息不存在")
	ErrNotMessageSender = errors.New("只有发送者可以撤回消息")
	ErrMessageStoreDown = errors.New("消息服务暂不可用，请稍后重试")
	UnauthorizedError   = errors.New("权限不足")
	UnExpectedError     = errors.New("系统异常，请稍后重试")
)

var ErrorMap = map[error]int{
	ErrParamInvalid:     BadRequest,
	ErrUserNotFound:     NotFound,
	ErrMessageNotFound:  NotFound,
	ErrNotMessageSender: Forbidden,
	ErrMessageStoreDown: ServiceUnavailable,
	UnauthorizedError:   Unauthorized,
	UnExpectedError:     InternalServerError,
}
