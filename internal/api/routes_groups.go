package api

import (
	"github.com/gin-gonic/gin"

	"github.com/alumnethq/alumnet/internal/handlers"
)

func registerGroupRoutes(api *gin.RouterGroup, handler *handlers.GroupHandler, requireApproved gin.HandlerFunc) {
	group := api.Group("/groups", requireApproved)
	{
		group.GET("", handler.List)
		group.POST("", handler.Create)
		group.GET("/:id", handler.Get)
		group.POST("/:id/join", handler.Join)
		group.POST("/:id/leave", handler.Leave)
		group.GET("/:id/members", handler.Members)
		group.GET("/:id/messages", handler.Messages)
	}
}
