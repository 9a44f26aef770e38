// handlers_downloads.go - Saved report handlers
package api

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
)

const defaultDownloadsLimit = 20

// DownloadsHandlerImpl implements the DownloadsHandler interface
type DownloadsHandlerImpl struct {
	store DownloadStore
}

// NewDownloadsHandler creates a new downloads handler
func NewDownloadsHandler(store DownloadStore) DownloadsHandler {
	return &DownloadsHandlerImpl{
		store: store,
	}
}

// HandleListDownloads returns reports saved this session, newest first
func (h *DownloadsHandlerImpl) HandleListDownloads(c echo.Context) error {
	limit := defaultDownloadsLimit
	if s := c.QueryParam("limit"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n <= 0 {
			return NewBadRequestError("limit must be a positive integer", err)
		}
		limit = n
	}

	return c.JSON(http.StatusOK, h.store.List(limit))
}

// HandleGetDownload serves a saved report as an attachment
func (h *DownloadsHandlerImpl) HandleGetDownload(c echo.Context) error {
	name := c.Param("name")
	info, err := h.store.Lookup(name)
	if err != nil {
		return NewNotFoundError("download", name)
	}

	if info.ContentType != "" {
		c.Response().Header().Set(echo.HeaderContentType, info.ContentType)
	}
	return c.Attachment(info.Path, info.Filename)
}
