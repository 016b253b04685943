package service

import "net/http"

// DomainError is a failure the client caused; the error handler maps it to Status.
type DomainError struct {
	Status  int
	Message string
}

func (e *DomainError) Error() string {
	return e.Message
}

func (e *DomainError) StatusCode() int {
	return e.Status
}

var (
	ErrNotFound           = &DomainError{Status: http.StatusNotFound, Message: "not found"}
	ErrForbidden          = &DomainError{Status: http.StatusForbidden, Message: "forbidden"}
	ErrInvalidCredentials = &DomainError{Status: http.StatusUnauthorized, Message: "invalid credentials"}
	ErrEmailTaken         = &DomainError{Status: http.StatusConflict, Message: "email already registered"}
)
