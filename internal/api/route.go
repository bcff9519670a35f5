package api

import (
	"Amoura/internal/api/middleware"
	"Amoura/internal/pkg/logger"
	"net/http"

	"github.com/gin-gonic/gin"
)

func SetupRouter(group *HandlersGroup) *gin.Engine {
	r := gin.New()
	_ = r.SetTrustedProxies([]string{"localhost"})

	// TraceId & Logger & CORS
	r.Use(middleware.TraceMiddleware())
	r.Use(middleware.CORSMiddleware())
	logger.SetupGin(r)

	apiGroup := r.Group("/api")
	{
		apiGroup.GET("/ping", func(c *gin.Context) {
			c.JSON(http.StatusOK, gin.H{
				"Code":    200,
				"Message": "pong",
				"Data":    nil,
			})
		})

		imGroup := apiGroup.Group("/im")
		{
			// Websocket 在升级前用查询参数里的 token 自行鉴权
			imGroup.GET("/ws", group.WsHandler.Connect)

			authGroup := imGroup.Group("")
			authGroup.Use(middleware.AuthMiddleware())
			{
				authGroup.POST("/send", group.ChatHandler.SendMessage)
				authGroup.GET("/conversation", group.ChatHandler.GetConversation)
				authGroup.POST("/seen", group.ChatHandler.MarkSeen)
				authGroup.POST("/delete", group.ChatHandler.DeleteForMe)
				authGroup.POST("/unsend", group.ChatHandler.Unsend)
				authGroup.POST("/heartbeat", group.ChatHandler.Heartbeat)
				authGroup.GET("/online", group.ChatHandler.IsOnline)
				authGroup.GET("/online/list", group.ChatHandler.ListOnline)
			}
		}

		userGroup := apiGroup.Group("/user")
		{
			userGroup.GET("/:user_id/profile", group.UserHandler.GetProfile)

			authGroup := userGroup.Group("")
			authGroup.Use(middleware.AuthMiddleware())
			{
				authGroup.PUT("/profile", group.UserHandler.UpdateProfile)
				authGroup.GET("/matches", group.UserHandler.ListMatches)
			}
		}
	}

	return r
}
