package api

import (
	"github.com/gin-gonic/gin"

	"github.com/alumnethq/alumnet/internal/handlers"
)

func registerPostRoutes(api *gin.RouterGroup, handler *handlers.PostHandler, requireApproved gin.HandlerFunc) {
	group := api.Group("/posts", requireApproved)
	{
		group.GET("", handler.List)
		group.POST("", handler.Create)
		group.GET("/:id", handler.Get)
		group.DELETE("/:id", handler.Delete)
		group.GET("/:id/comments", handler.ListComments)
		group.POST("/:id/comments", handler.AddComment)
		group.DELETE("/:id/comments/:commentId", handler.DeleteComment)
	}
}
