package repositories

import (
	"context"
	"errors"
	"fmt"
	"net/http"
)

// ServiceError implements RepositoryError for Catalog Service responses.
type ServiceError struct {
	Op      string
	Status  int
	Message string
	Err     error
}

var _ RepositoryError = (*ServiceError)(nil)

// NewServiceError builds an error for an upstream response. A zero status means no response arrived.
func NewServiceError(op string, status int, message string, err error) *ServiceError {
	if message == "" {
		switch {
		case status > 0:
			message = http.StatusText(status)
		case err != nil:
			message = err.Error()
		default:
			message = "catalog service unavailable"
		}
	}
	return &ServiceError{Op: op, Status: status, Message: message, Err: err}
}

// Error implements the error interface.
func (e *ServiceError) Error() string {
	if e == nil {
		return ""
	}
	msg := e.Message
	if e.Status > 0 {
		msg = fmt.Sprintf("%d %s", e.Status, e.Message)
	}
	if e.Op != "" {
		return e.Op + ": " + msg
	}
	return msg
}

// Unwrap returns the underlying transport error, if any.
func (e *ServiceError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// IsNotFound reports a 404 from the service.
func (e *ServiceError) IsNotFound() bool {
	return e != nil && e.Status == http.StatusNotFound
}

// IsConflict reports a 409 or 412 from the service.
func (e *ServiceError) IsConflict() bool {
	return e != nil && (e.Status == http.StatusConflict || e.Status == http.StatusPreconditionFailed)
}

// IsUnavailable reports network failures, 5xx, 408 and 429.
func (e *ServiceError) IsUnavailable() bool {
	if e == nil {
		return false
	}
	switch {
	case e.Status == 0:
		return true
	case e.Status == http.StatusRequestTimeout, e.Status == http.StatusTooManyRequests:
		return true
	default:
		return e.Status >= 500
	}
}

// IsRejected reports every other 4xx.
func (e *ServiceError) IsRejected() bool {
	return e != nil && e.Status >= 400 && e.Status < 500 && !e.IsUnavailable()
}

// StatusCode returns the upstream status code.
func (e *ServiceError) StatusCode() int {
	if e == nil {
		return 0
	}
	return e.Status
}

// WrapTransportError annotates a failed round trip. Context cancellations pass through untouched.
func WrapTransportError(op string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, context.Canceled) {
		return err
	}
	var svcErr *ServiceError
	if errors.As(err, &svcErr) {
		if svcErr.Op == "" {
			svcErr.Op = op
		}
		return svcErr
	}
	return NewServiceError(op, 0, "", err)
}

// AsRepositoryError extracts a RepositoryError from err.
func AsRepositoryError(err error) (RepositoryError, bool) {
	var repoErr RepositoryError
	if errors.As(err, &repoErr) {
		return repoErr, true
	}
	return nil, false
}
