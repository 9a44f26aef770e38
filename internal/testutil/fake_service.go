// fake_service.go - Scriptable analysis service for testing
package testutil

import (
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/labstack/echo/v4"
)

// FakeReport is the body returned by a FakeAnalysisService unless told otherwise.
const FakeReport = "%PDF-1.4 fake circomspect report"

// RecordedRequest is an /analyze call received by the fake service.
type RecordedRequest struct {
	Filename        string
	FileContentType string
	Data            []byte
	QueryFormat     string
	FormFormat      string
}

// Response is what the fake service answers to /analyze.
type Response struct {
	Status      int
	ContentType string
	Body        []byte
}

// FakeAnalysisService mimics the analysis service over real HTTP.
type FakeAnalysisService struct {
	URL string

	server       *httptest.Server
	mu           sync.Mutex
	requests     []RecordedRequest
	response     Response
	healthStatus string
	hold         chan struct{}
	arrived      chan struct{}
	release      func()
}

// NewFakeAnalysisService starts a fake service that is shut down when the test ends.
func NewFakeAnalysisService(t testing.TB) *FakeAnalysisService {
	t.Helper()

	f := &FakeAnalysisService{
		response: Response{
			Status:      http.StatusOK,
			ContentType: "application/pdf",
			Body:        []byte(FakeReport),
		},
		healthStatus: "ok",
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.POST("/analyze", f.handleAnalyze)
	e.GET("/healthz", f.handleHealth)

	f.server = httptest.NewServer(e)
	f.URL = f.server.URL

	t.Cleanup(func() {
		f.mu.Lock()
		release := f.release
		f.mu.Unlock()
		if release != nil {
			release()
		}
		f.server.Close()
	})

	return f
}

// RespondWith changes the /analyze response.
func (f *FakeAnalysisService) RespondWith(resp Response) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.response = resp
}

// RespondJSON makes /analyze answer with a JSON body.
func (f *FakeAnalysisService) RespondJSON(status int, body string) {
	f.RespondWith(Response{Status: status, ContentType: "application/json", Body: []byte(body)})
}

// SetHealthStatus changes the status reported by /healthz.
func (f *FakeAnalysisService) SetHealthStatus(status string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.healthStatus = status
}

// Hold makes /analyze block until release is called. arrived receives a
// value each time a held request comes in.
func (f *FakeAnalysisService) Hold() (arrived <-chan struct{}, release func()) {
	hold := make(chan struct{})
	ch := make(chan struct{}, 16)
	var once sync.Once
	release = func() {
		once.Do(func() { close(hold) })
	}

	f.mu.Lock()
	f.hold = hold
	f.arrived = ch
	f.release = release
	f.mu.Unlock()

	return ch, release
}

// Requests returns the /analyze calls received so far.
func (f *FakeAnalysisService) Requests() []RecordedRequest {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]RecordedRequest, len(f.requests))
	copy(out, f.requests)
	return out
}

// RequestCount returns the number of /analyze calls received so far.
func (f *FakeAnalysisService) RequestCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.requests)
}

func (f *FakeAnalysisService) handleAnalyze(c echo.Context) error {
	fh, err := c.FormFile("file")
	if err != nil {
		return c.JSON(http.StatusUnprocessableEntity, map[string]string{"detail": "file is required"})
	}
	src, err := fh.Open()
	if err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": err.Error()})
	}
	defer src.Close()

	data, err := io.ReadAll(src)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": err.Error()})
	}

	f.mu.Lock()
	f.requests = append(f.requests, RecordedRequest{
		Filename:        fh.Filename,
		FileContentType: fh.Header.Get("Content-Type"),
		Data:            data,
		QueryFormat:     c.QueryParam("format"),
		FormFormat:      c.Request().PostFormValue("format"),
	})
	hold, arrived := f.hold, f.arrived
	resp := f.response
	f.mu.Unlock()

	if hold != nil {
		select {
		case arrived <- struct{}{}:
		default:
		}
		select {
		case <-hold:
		case <-c.Request().Context().Done():
			return nil
		}
	}

	return c.Blob(resp.Status, resp.ContentType, resp.Body)
}

func (f *FakeAnalysisService) handleHealth(c echo.Context) error {
	f.mu.Lock()
	status := f.healthStatus
	f.mu.Unlock()
	return c.JSON(http.StatusOK, map[string]string{"status": status})
}

// UnreachableURL returns the address of a server that has already shut down.
func UnreachableURL(t testing.TB) string {
	t.Helper()
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()
	return url
}
