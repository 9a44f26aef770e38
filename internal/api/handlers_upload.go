// handlers_upload.go - Upload controller handlers
package api

import (
	"context"
	"errors"
	"io"
	"log"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/vmihailenco/msgpack/v5"

	"github.com/circom-analyzer/frontend/internal/models"
	"github.com/circom-analyzer/frontend/internal/upload"
)

// UploadHandlerImpl implements the UploadHandler interface
type UploadHandlerImpl struct {
	controller UploadController
}

// NewUploadHandler creates a new upload handler instance
func NewUploadHandler(controller UploadController) UploadHandler {
	return &UploadHandlerImpl{
		controller: controller,
	}
}

// HandleGetState returns the current controller snapshot
func (h *UploadHandlerImpl) HandleGetState(c echo.Context) error {
	return c.JSON(http.StatusOK, h.controller.Snapshot())
}

// HandleGetStateMsgpack returns the current controller snapshot as msgpack
func (h *UploadHandlerImpl) HandleGetStateMsgpack(c echo.Context) error {
	data, err := msgpack.Marshal(h.controller.Snapshot())
	if err != nil {
		return NewInternalError("failed to encode msgpack", err)
	}
	return c.Blob(http.StatusOK, "application/msgpack", data)
}

// HandleSelectFile accepts the picked file (multipart/form-data, field "file").
// A rejected file is not an HTTP error: the returned snapshot carries it.
func (h *UploadHandlerImpl) HandleSelectFile(c echo.Context) error {
	fh, err := c.FormFile("file")
	if err != nil {
		return NewBadRequestError("no file provided", err)
	}

	src, err := fh.Open()
	if err != nil {
		return NewInternalError("failed to open uploaded file", err)
	}
	defer src.Close()

	data, err := io.ReadAll(src)
	if err != nil {
		return NewInternalError("failed to read uploaded file", err)
	}

	candidate := &models.SelectedFile{
		Name:     fh.Filename,
		Size:     int64(len(data)),
		MimeType: fh.Header.Get(echo.HeaderContentType),
		Data:     data,
	}

	var verr *upload.ValidationError
	if err := h.controller.SelectFile(candidate); err != nil && !errors.As(err, &verr) {
		return NewInternalError("failed to select file", err)
	}

	return c.JSON(http.StatusOK, h.controller.Snapshot())
}

// HandleSelectFormat changes the requested report format
func (h *UploadHandlerImpl) HandleSelectFormat(c echo.Context) error {
	var req selectFormatRequest
	if err := c.Bind(&req); err != nil {
		return NewBadRequestError("invalid JSON body", err)
	}

	format, err := req.validate()
	if err != nil {
		return err
	}

	if err := h.controller.SelectOutputFormat(format); err != nil {
		return NewBadRequestError("unsupported format", err)
	}

	return c.JSON(http.StatusOK, h.controller.Snapshot())
}

// HandleSubmit starts an analysis and returns immediately. Progress and the
// outcome are observed through the state endpoints or the websocket.
func (h *UploadHandlerImpl) HandleSubmit(c echo.Context) error {
	// The submission outlives this request.
	done := h.controller.Start(context.WithoutCancel(c.Request().Context()))

	select {
	case err := <-done:
		var verr *upload.ValidationError
		switch {
		case errors.Is(err, upload.ErrSubmitInFlight):
			return NewConflictError(err.Error())
		case errors.As(err, &verr):
			return c.JSON(http.StatusOK, h.controller.Snapshot())
		case err != nil:
			log.Printf("[Upload] Submission finished before response: %v", err)
		}
	default:
	}

	return c.JSON(http.StatusAccepted, h.controller.Snapshot())
}

// HandleReset returns the controller to its initial state
func (h *UploadHandlerImpl) HandleReset(c echo.Context) error {
	if err := h.controller.Reset(); err != nil {
		if errors.Is(err, upload.ErrSubmitInFlight) {
			return NewConflictError(err.Error())
		}
		return NewInternalError("failed to reset", err)
	}
	return c.JSON(http.StatusOK, h.controller.Snapshot())
}

// Request types with validation

type selectFormatRequest struct {
	Format string `json:"format"`
}

func (r *selectFormatRequest) validate() (models.OutputFormat, error) {
	if r.Format == "" {
		return "", NewValidationError("format")
	}
	format, err := models.ParseOutputFormat(r.Format)
	if err != nil {
		return "", NewBadRequestError("unsupported format", err)
	}
	return format, nil
}
