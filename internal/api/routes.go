// routes.go - Route registration helpers
package api

import (
	"github.com/labstack/echo/v4"
)

// Dependencies holds all handler dependencies
type Dependencies struct {
	Controller UploadController
	Downloads  DownloadStore
	Service    ServiceChecker
	Version    string
}

// Handlers holds all handler instances
type Handlers struct {
	Health    HealthHandler
	Upload    UploadHandler
	Downloads DownloadsHandler
	Stream    StateStreamHandler
}

// NewHandlers creates all handler instances
func NewHandlers(deps *Dependencies) *Handlers {
	return &Handlers{
		Health:    NewHealthHandler(deps.Version, deps.Service),
		Upload:    NewUploadHandler(deps.Controller),
		Downloads: NewDownloadsHandler(deps.Downloads),
		Stream:    NewWebSocketHandler(deps.Controller),
	}
}

// RegisterRoutes registers all API routes with the Echo instance
func RegisterRoutes(e *echo.Echo, handlers *Handlers) {
	apiGroup := e.Group("/api")

	// Health check
	apiGroup.GET("/health", handlers.Health.HandleHealth)

	// Controller state and operations
	apiGroup.GET("/state", handlers.Upload.HandleGetState)
	apiGroup.GET("/state/msgpack", handlers.Upload.HandleGetStateMsgpack)
	apiGroup.POST("/file", handlers.Upload.HandleSelectFile)
	apiGroup.PUT("/format", handlers.Upload.HandleSelectFormat)
	apiGroup.POST("/submit", handlers.Upload.HandleSubmit)
	apiGroup.POST("/reset", handlers.Upload.HandleReset)

	// Saved reports
	apiGroup.GET("/downloads", handlers.Downloads.HandleListDownloads)
	apiGroup.GET("/downloads/:name", handlers.Downloads.HandleGetDownload)

	// WebSocket endpoint
	apiGroup.GET("/ws", handlers.Stream.HandleStateStream)
}
