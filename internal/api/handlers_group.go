package api

import (
	"Amoura/internal/api/handler"
)

// HandlersGroup 聚合全部 HTTP/WS 处理器
type HandlersGroup struct {
	ChatHandler *handler.ChatHandler
	UserHandler *handler.UserHandler
	WsHandler   *handler.WsHandler
}
