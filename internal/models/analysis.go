// Package models contains domain types for the Circom analyzer console.
package models

import (
	"fmt"
	"time"
)

// OutputFormat is the report format requested from the analysis service.
type OutputFormat string

const (
	FormatPDF OutputFormat = "pdf"
	FormatTXT OutputFormat = "txt"
)

// DefaultOutputFormat is used until the user picks a format, and again after
// every successful submission.
const DefaultOutputFormat = FormatPDF

// ParseOutputFormat converts a user supplied value into an OutputFormat.
func ParseOutputFormat(s string) (OutputFormat, error) {
	switch OutputFormat(s) {
	case FormatPDF, FormatTXT:
		return OutputFormat(s), nil
	default:
		return "", fmt.Errorf("unsupported output format: %q", s)
	}
}

// Extension returns the file extension used for reports of this format.
func (f OutputFormat) Extension() string {
	if f == FormatTXT {
		return ".txt"
	}
	return ".pdf"
}

// SelectedFile is a source file picked by the user, held until it is
// submitted or replaced.
type SelectedFile struct {
	Name     string `json:"name"`
	Size     int64  `json:"size"`
	MimeType string `json:"mimeType"`
	Data     []byte `json:"-"`
}

// Clone returns a copy that shares no memory with f.
func (f *SelectedFile) Clone() *SelectedFile {
	if f == nil {
		return nil
	}
	c := *f
	c.Data = append([]byte(nil), f.Data...)
	return &c
}

// AnalysisResult is the report artifact returned by a successful analysis.
// It lives only long enough to be handed to the download trigger.
type AnalysisResult struct {
	Data        []byte
	ContentType string
	Filename    string
}

// DownloadInfo records a download that has been triggered.
type DownloadInfo struct {
	Filename    string    `json:"filename" msgpack:"filename"`
	Path        string    `json:"-" msgpack:"-"`
	Size        int64     `json:"size" msgpack:"size"`
	ContentType string    `json:"contentType,omitempty" msgpack:"contentType,omitempty"`
	At          time.Time `json:"at" msgpack:"at"`
}
