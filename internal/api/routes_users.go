package api

import (
	"github.com/gin-gonic/gin"

	"github.com/alumnethq/alumnet/internal/handlers"
	"github.com/alumnethq/alumnet/internal/middleware"
)

func registerUserRoutes(api *gin.RouterGroup, handler *handlers.UserHandler, requireApproved gin.HandlerFunc) {
	group := api.Group("/users")
	{
		group.GET("", requireApproved, handler.List)
		group.GET("/:id", requireApproved, handler.Get)
	}

	// Profile edits are allowed before approval so a pending member can finish
	// setting up their account.
	api.PATCH("/profile", handler.UpdateProfile)
}

func registerAdminRoutes(api *gin.RouterGroup, handler *handlers.AdminHandler) {
	group := api.Group("/admin", middleware.RequireAdmin())
	{
		group.GET("/pending", handler.ListPending)
		group.POST("/users/:id/approve", handler.Approve)
		group.POST("/users/:id/reject", handler.Reject)
	}
}
