package web

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHasEmbeddedFiles(t *testing.T) {
	assert.True(t, HasEmbeddedFiles())
}

func TestRegisterStaticRoutes(t *testing.T) {
	e := echo.New()
	require.NoError(t, RegisterStaticRoutes(e))

	tests := []struct {
		name       string
		path       string
		wantStatus int
		wantPage   bool
	}{
		{name: "root", path: "/", wantStatus: http.StatusOK, wantPage: true},
		{name: "index", path: "/index.html", wantStatus: http.StatusOK, wantPage: true},
		{name: "page route fallback", path: "/history", wantStatus: http.StatusOK, wantPage: true},
		{name: "unknown api path", path: "/api/unknown", wantStatus: http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, tt.path, nil)
			rec := httptest.NewRecorder()
			e.ServeHTTP(rec, req)

			assert.Equal(t, tt.wantStatus, rec.Code)
			if tt.wantPage {
				assert.Contains(t, rec.Body.String(), `<form id="upload-form"`)
			}
		})
	}
}
