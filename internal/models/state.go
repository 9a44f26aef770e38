package models

// RequestState represents where the upload controller is in its lifecycle.
// File validation happens synchronously inside file selection, so there is
// no separate validating state.
type RequestState string

const (
	StateIdle       RequestState = "idle"
	StateSubmitting RequestState = "submitting"
	StateSucceeded  RequestState = "succeeded"
	StateFailed     RequestState = "failed"
)

// ErrorKind classifies a user visible error.
type ErrorKind string

const (
	ErrorKindValidation ErrorKind = "validation"
	ErrorKindService    ErrorKind = "service"
	ErrorKindTransport  ErrorKind = "transport"
)

// ErrorInfo is the message shown to the user after a failure.
type ErrorInfo struct {
	Message string    `json:"message" msgpack:"message"`
	Kind    ErrorKind `json:"kind" msgpack:"kind"`
}

// FileMeta is the part of a SelectedFile that is safe to expose.
type FileMeta struct {
	Name     string `json:"name" msgpack:"name"`
	Size     int64  `json:"size" msgpack:"size"`
	MimeType string `json:"mimeType,omitempty" msgpack:"mimeType,omitempty"`
}

// Snapshot is a read-only view of the controller, rendered by the UI.
type Snapshot struct {
	State        RequestState  `json:"state" msgpack:"state"`
	File         *FileMeta     `json:"file,omitempty" msgpack:"file,omitempty"`
	Format       OutputFormat  `json:"format" msgpack:"format"`
	Error        *ErrorInfo    `json:"error,omitempty" msgpack:"error,omitempty"`
	LastDownload *DownloadInfo `json:"lastDownload,omitempty" msgpack:"lastDownload,omitempty"`
	CanSubmit    bool          `json:"canSubmit" msgpack:"canSubmit"`
	Revision     uint64        `json:"revision" msgpack:"revision"`
}
