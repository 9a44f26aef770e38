package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/circom-analyzer/frontend/internal/blob"
	"github.com/circom-analyzer/frontend/internal/download"
)

type savedReport struct {
	name    string
	content string
}

func newDownloadsHandler(t *testing.T, reports ...savedReport) DownloadsHandler {
	t.Helper()
	registry := blob.NewRegistry()
	sink, err := download.NewDirSink(t.TempDir(), registry)
	require.NoError(t, err)

	for _, r := range reports {
		objectURL := registry.Create([]byte(r.content), "application/pdf")
		_, err := sink.Trigger(context.Background(), objectURL, r.name)
		require.NoError(t, err)
		registry.Revoke(objectURL)
	}

	return NewDownloadsHandler(sink)
}

func TestDownloadsHandler_HandleListDownloads(t *testing.T) {
	tests := []struct {
		name       string
		query      string
		wantCount  int
		wantErr    bool
		wantStatus int
	}{
		{name: "default limit", query: "", wantCount: 3, wantStatus: http.StatusOK},
		{name: "explicit limit", query: "?limit=2", wantCount: 2, wantStatus: http.StatusOK},
		{name: "zero limit", query: "?limit=0", wantErr: true, wantStatus: http.StatusBadRequest},
		{name: "not a number", query: "?limit=ten", wantErr: true, wantStatus: http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			handler := newDownloadsHandler(t,
				savedReport{"a_analysis.pdf", "a"},
				savedReport{"b_analysis.pdf", "b"},
				savedReport{"c_analysis.pdf", "c"},
			)

			req := httptest.NewRequest(http.MethodGet, "/api/downloads"+tt.query, nil)
			rec := httptest.NewRecorder()
			err := handler.HandleListDownloads(echo.New().NewContext(req, rec))

			if tt.wantErr {
				apiErr, ok := err.(*APIError)
				require.True(t, ok, "expected APIError, got %T", err)
				assert.Equal(t, tt.wantStatus, apiErr.Status)
				return
			}

			require.NoError(t, err)
			assert.Equal(t, tt.wantStatus, rec.Code)

			var list []map[string]interface{}
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &list))
			require.Len(t, list, tt.wantCount)
			assert.Equal(t, "c_analysis.pdf", list[0]["filename"], "newest first")
			for _, item := range list {
				assert.NotContains(t, item, "path", "local paths are not exposed")
			}
		})
	}
}

func TestDownloadsHandler_HandleGetDownload(t *testing.T) {
	handler := newDownloadsHandler(t,
		savedReport{"circuit_analysis.pdf", "first"},
		savedReport{"circuit_analysis.pdf", "second"},
	)

	e := echo.New()
	e.HTTPErrorHandler = ErrorHandler
	e.GET("/api/downloads/:name", handler.HandleGetDownload)

	tests := []struct {
		name       string
		file       string
		wantStatus int
		wantBody   string
	}{
		{name: "original", file: "circuit_analysis.pdf", wantStatus: http.StatusOK, wantBody: "first"},
		{name: "duplicate", file: "circuit_analysis (1).pdf", wantStatus: http.StatusOK, wantBody: "second"},
		{name: "unknown", file: "missing.pdf", wantStatus: http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/api/downloads/"+url.PathEscape(tt.file), nil)
			rec := httptest.NewRecorder()
			e.ServeHTTP(rec, req)

			assert.Equal(t, tt.wantStatus, rec.Code)
			if tt.wantStatus != http.StatusOK {
				assert.Contains(t, rec.Body.String(), `"code":"NOT_FOUND"`)
				return
			}

			assert.Equal(t, tt.wantBody, rec.Body.String())
			assert.Equal(t, "application/pdf", rec.Header().Get(echo.HeaderContentType))
			assert.Contains(t, rec.Header().Get(echo.HeaderContentDisposition), "attachment")
		})
	}
}
