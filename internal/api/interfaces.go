// interfaces.go - Handler interface definitions for clean separation of concerns
package api

import (
	"context"

	"github.com/labstack/echo/v4"

	"github.com/circom-analyzer/frontend/internal/models"
)

// UploadHandler exposes the upload controller operations
type UploadHandler interface {
	HandleGetState(c echo.Context) error
	HandleGetStateMsgpack(c echo.Context) error
	HandleSelectFile(c echo.Context) error
	HandleSelectFormat(c echo.Context) error
	HandleSubmit(c echo.Context) error
	HandleReset(c echo.Context) error
}

// DownloadsHandler lists and serves saved reports
type DownloadsHandler interface {
	HandleListDownloads(c echo.Context) error
	HandleGetDownload(c echo.Context) error
}

// HealthHandler handles health check operations
type HealthHandler interface {
	HandleHealth(c echo.Context) error
}

// StateStreamHandler pushes controller snapshots to the browser
type StateStreamHandler interface {
	HandleStateStream(c echo.Context) error
}

// UploadController defines the controller operations the handlers need.
// This allows mocking in tests
type UploadController interface {
	SelectFile(candidate *models.SelectedFile) error
	SelectOutputFormat(format models.OutputFormat) error
	Start(ctx context.Context) <-chan error
	Reset() error
	Snapshot() models.Snapshot
	Subscribe(fn func(models.Snapshot)) func()
}

// DownloadStore gives access to the reports saved this session
type DownloadStore interface {
	List(limit int) []*models.DownloadInfo
	Lookup(filename string) (*models.DownloadInfo, error)
}

// ServiceChecker reports whether the analysis service is reachable
type ServiceChecker interface {
	Health(ctx context.Context) error
	BaseURL() string
}
