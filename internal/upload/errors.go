package upload

import (
	"errors"
	"strings"

	"github.com/circom-analyzer/frontend/internal/analysis"
	"github.com/circom-analyzer/frontend/internal/models"
)

// User facing validation messages.
const (
	MsgWrongExtension = "Please upload a .circom file"
	MsgNoFile         = "Please select a file"
)

// ErrSubmitInFlight is returned while a submission has not resolved yet.
var ErrSubmitInFlight = errors.New("a submission is already in progress")

// ValidationError is returned when the selection cannot be submitted.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

// errorInfoFor converts a submission error into the message shown to the user.
func errorInfoFor(err error) *models.ErrorInfo {
	var (
		validationErr *ValidationError
		serviceErr    *analysis.ServiceError
	)

	info := &models.ErrorInfo{Message: err.Error(), Kind: models.ErrorKindTransport}
	switch {
	case errors.As(err, &validationErr):
		info.Kind = models.ErrorKindValidation
	case errors.As(err, &serviceErr):
		info.Kind = models.ErrorKindService
		info.Message = serviceErr.Message
	}

	if strings.TrimSpace(info.Message) == "" {
		info.Message = analysis.FallbackMessage
	}
	return info
}
