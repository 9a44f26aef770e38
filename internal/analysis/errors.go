package analysis

import (
	"fmt"
)

// FallbackMessage is shown when the service fails without saying why.
const FallbackMessage = "Analysis failed"

// ServiceError is returned when the analysis service answers with a failure.
type ServiceError struct {
	Status  int
	Message string
}

func (e *ServiceError) Error() string {
	return e.Message
}

// TransportError is returned when a request could not be completed or its
// response could not be read.
type TransportError struct {
	Op  string
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}
