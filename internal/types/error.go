package types

import (
	"fmt"
	"net/http"
)

// CustomError is returned from handlers to pick the response status and error type
type CustomError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Type    string `json:"type"`
	Err     error  `json:"-"`
}

func (e *CustomError) Error() string {
	return fmt.Sprintf("%d: %s [type: %s]", e.Code, e.Message, e.Type)
}

func (e *CustomError) Unwrap() error {
	return e.Err
}

// NewBadRequest wraps err as a 400
func NewBadRequest(err error, errorType string) *CustomError {
	return &CustomError{
		Code:    http.StatusBadRequest,
		Message: err.Error(),
		Type:    errorType,
		Err:     err,
	}
}
