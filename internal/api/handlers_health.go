// handlers_health.go - Health check handlers
package api

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
)

// serviceCheckTimeout bounds the analysis service probe
const serviceCheckTimeout = 3 * time.Second

// HealthHandlerImpl implements the HealthHandler interface
type HealthHandlerImpl struct {
	version string
	service ServiceChecker
}

// NewHealthHandler creates a new health handler
func NewHealthHandler(version string, service ServiceChecker) HealthHandler {
	return &HealthHandlerImpl{
		version: version,
		service: service,
	}
}

// HandleHealth returns console health status and whether the analysis
// service answers. An unreachable service only fails the check when the
// request asks for ?strict=true.
func (h *HealthHandlerImpl) HandleHealth(c echo.Context) error {
	strict, _ := strconv.ParseBool(c.QueryParam("strict"))

	resp := map[string]interface{}{
		"status":  "ok",
		"version": h.version,
	}

	if h.service != nil {
		ctx, cancel := context.WithTimeout(c.Request().Context(), serviceCheckTimeout)
		defer cancel()

		analysis := map[string]interface{}{
			"url":       h.service.BaseURL(),
			"reachable": true,
		}
		if err := h.service.Health(ctx); err != nil {
			if strict {
				return NewServiceUnavailableError("analysis service unreachable", err)
			}
			analysis["reachable"] = false
			analysis["error"] = err.Error()
		}
		resp["analysis"] = analysis
	}

	return c.JSON(http.StatusOK, resp)
}
