package handler

import (
	"github.com/arborhq/arbor-backend/internal/middleware"
	"github.com/labstack/echo/v4"
)

// RegisterRoutes sets up all API routes
func RegisterRoutes(e *echo.Echo, authMiddleware *middleware.AuthMiddleware, rateLimiter *middleware.RateLimiter, authHandler *AuthHandler, workspaceHandler *WorkspaceHandler, pageHandler *PageHandler, collabHandler *CollabHandler, addressHandler *AddressHandler, imageHandler *ImageHandler, publicHandler *PublicHandler, wsHandler *WebSocketHandler) {
	// API version 1
	api := e.Group("/api/v1")
	api.Use(authMiddleware.Authenticate())
	api.Use(middleware.RateLimitMiddleware(rateLimiter))

	// Auth routes
	api.POST("/auth/callback", authHandler.Callback)
	api.GET("/auth/me", authHandler.Me)
	api.POST("/auth/logout", authHandler.Logout)

	// Workspace routes
	api.POST("/workspaces", workspaceHandler.CreateWorkspace)
	api.GET("/workspaces", workspaceHandler.GetWorkspaces)
	api.GET("/workspaces/:id", workspaceHandler.GetWorkspace)
	api.PUT("/workspaces/:id", workspaceHandler.UpdateWorkspace)
	api.DELETE("/workspaces/:id", workspaceHandler.DeleteWorkspace)
	api.GET("/workspaces/:id/pages", workspaceHandler.GetWorkspacePages)

	// Workspace collaboration routes
	api.POST("/workspaces/:id/invites", collabHandler.CreateWorkspaceInvite)
	api.DELETE("/workspaces/:id/invites/:inviteId", collabHandler.RevokeWorkspaceInvite)

	// Page routes
	api.POST("/pages", pageHandler.CreatePage)
	api.GET("/pages/:id", pageHandler.GetPage)
	api.GET("/pages/:id/path", pageHandler.GetPagePath)
	api.PATCH("/pages/:id/move", pageHandler.MovePage)
	api.POST("/pages/:id/move-to-workspace", pageHandler.MoveToWorkspace)
	api.DELETE("/pages/:id", pageHandler.DeletePage)
	api.PATCH("/pages/:id/title", pageHandler.UpdateTitle)
	api.PATCH("/pages/:id/content", pageHandler.UpdateContent)
	api.PATCH("/pages/:id/styles", pageHandler.UpdateStyles)
	api.PATCH("/pages/:id/head-tags", pageHandler.UpdateHeadTags)
	api.PATCH("/pages/:id/custom-link", pageHandler.UpdateCustomLink)

	// Page collaboration routes
	api.POST("/pages/:id/invites", collabHandler.CreatePageInvite)
	api.DELETE("/pages/:id/invites/:inviteId", collabHandler.RevokePageInvite)
	api.POST("/invites/accept", collabHandler.AcceptInvite)

	// Public address routes
	api.POST("/pages/:id/address", addressHandler.BindAddress)
	api.DELETE("/pages/:id/address", addressHandler.UnbindAddress)
	api.GET("/pages/:id/address", addressHandler.GetAddress)

	// Image routes
	api.POST("/pages/:id/images", imageHandler.UploadImage)
	api.DELETE("/pages/:id/images", imageHandler.DeleteImage)

	// Anonymous site resolution
	e.GET("/public/resolve", publicHandler.Resolve)

	// WebSocket endpoint (token auth via query parameter)
	e.GET("/ws", wsHandler.HandleWS)
}
