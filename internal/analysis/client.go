// Package analysis is the HTTP client for the remote static-analysis service.
package analysis

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"mime"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"net/url"
	"strings"
	"time"

	"github.com/circom-analyzer/frontend/internal/models"
)

const (
	analyzePath = "/analyze"
	healthPath  = "/healthz"

	// FileField is the multipart field carrying the source file.
	FileField = "file"
	// FormatField carries the output format alongside the file.
	FormatField = "format"
)

// Client talks to the analysis service.
type Client struct {
	baseURL    string
	reqTimeout time.Duration
	httpClient *http.Client
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the default http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// WithRequestTimeout bounds each request. Zero, the default, means no timeout.
func WithRequestTimeout(d time.Duration) Option {
	return func(c *Client) {
		c.reqTimeout = d
	}
}

// NewClient creates a client for the service rooted at baseURL.
func NewClient(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// BaseURL returns the service root the client was created with.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// Analyze uploads file and requests a report in the given format. It issues
// exactly one request and never retries.
func (c *Client) Analyze(ctx context.Context, file *models.SelectedFile, format models.OutputFormat) (*models.AnalysisResult, error) {
	if file == nil {
		return nil, errors.New("no file to analyze")
	}

	body, contentType, err := buildAnalyzeBody(file, format)
	if err != nil {
		return nil, &TransportError{Op: "build request", Err: err}
	}

	endpoint := c.baseURL + analyzePath + "?" + url.Values{FormatField: {string(format)}}.Encode()

	ctx, cancel := c.withTimeout(ctx)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, body)
	if err != nil {
		return nil, &TransportError{Op: "create request", Err: err}
	}
	req.Header.Set("Content-Type", contentType)

	log.Printf("[Analysis] POST %s (%s, %d bytes)", endpoint, file.Name, len(file.Data))

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &TransportError{Op: "analysis request failed", Err: err}
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &TransportError{Op: "read analysis response", Err: err}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		msg := errorMessage(data)
		if msg == "" {
			msg = FallbackMessage
		}
		log.Printf("[Analysis] %s failed with status %d: %s", file.Name, resp.StatusCode, msg)
		return nil, &ServiceError{Status: resp.StatusCode, Message: msg}
	}

	respType := resp.Header.Get("Content-Type")
	if isJSON(respType) {
		if msg := errorMessage(data); msg != "" {
			log.Printf("[Analysis] %s reported an error with status %d: %s", file.Name, resp.StatusCode, msg)
			return nil, &ServiceError{Status: resp.StatusCode, Message: msg}
		}
	}

	return &models.AnalysisResult{
		Data:        data,
		ContentType: respType,
		Filename:    ReportFilename(file.Name, format),
	}, nil
}

// Health checks that the service is up.
func (c *Client) Health(ctx context.Context) error {
	ctx, cancel := c.withTimeout(ctx)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+healthPath, nil)
	if err != nil {
		return &TransportError{Op: "create request", Err: err}
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return &TransportError{Op: "health request failed", Err: err}
	}
	defer resp.Body.Close()

	var payload struct {
		Status string `json:"status"`
	}
	if resp.StatusCode != http.StatusOK {
		return &ServiceError{Status: resp.StatusCode, Message: fmt.Sprintf("health check returned status %d", resp.StatusCode)}
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return &TransportError{Op: "decode health response", Err: err}
	}
	if payload.Status != "ok" {
		return &ServiceError{Status: resp.StatusCode, Message: fmt.Sprintf("service status %q", payload.Status)}
	}
	return nil
}

func (c *Client) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if c.reqTimeout > 0 {
		return context.WithTimeout(ctx, c.reqTimeout)
	}
	return context.WithCancel(ctx)
}

func buildAnalyzeBody(file *models.SelectedFile, format models.OutputFormat) (*bytes.Buffer, string, error) {
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)

	mimeType := file.MimeType
	if mimeType == "" {
		mimeType = "application/octet-stream"
	}
	header := make(textproto.MIMEHeader)
	header.Set("Content-Disposition", mime.FormatMediaType("form-data", map[string]string{
		"name":     FileField,
		"filename": file.Name,
	}))
	header.Set("Content-Type", mimeType)

	part, err := writer.CreatePart(header)
	if err != nil {
		return nil, "", fmt.Errorf("create multipart file: %w", err)
	}
	if _, err := part.Write(file.Data); err != nil {
		return nil, "", fmt.Errorf("copy file data: %w", err)
	}

	if err := writer.WriteField(FormatField, string(format)); err != nil {
		return nil, "", fmt.Errorf("write format field: %w", err)
	}

	if err := writer.Close(); err != nil {
		return nil, "", fmt.Errorf("close multipart writer: %w", err)
	}

	return body, writer.FormDataContentType(), nil
}

// errorMessage extracts the human readable message from a JSON error body,
// returning "" when there is none.
func errorMessage(body []byte) string {
	var payload struct {
		Error  string          `json:"error"`
		Detail json.RawMessage `json:"detail"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return ""
	}
	if strings.TrimSpace(payload.Error) != "" {
		return payload.Error
	}

	var detail string
	if len(payload.Detail) > 0 && json.Unmarshal(payload.Detail, &detail) == nil {
		return strings.TrimSpace(detail)
	}
	return ""
}

func isJSON(contentType string) bool {
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return false
	}
	return mediaType == "application/json" || strings.HasSuffix(mediaType, "+json")
}
