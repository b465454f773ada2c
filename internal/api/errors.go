package api

import (
	"fmt"
	"net/http"
)

// Error messages surfaced verbatim to the client.
const (
	msgAuthRequired       = "Authentication required"
	msgInvalidToken       = "Invalid token"
	msgAccessDenied       = "Access denied"
	msgServerError        = "Server error"
	msgUserNotFound       = "User not found"
	msgChatNotFound       = "Chat not found"
	msgMessageNotFound    = "Message not found"
	msgCredentialsNeeded  = "Username and password are required"
	msgUsernameTaken      = "Username already exists"
	msgInvalidCredentials = "Invalid credentials"
	msgGroupNameRequired  = "Group name is required"
	msgUserIdRequired     = "User ID is required"
	msgCannotRemoveSelf   = "Cannot remove yourself"
	msgMessageEmpty       = "Message text or attachment is required"
	msgInvalidBody        = "Invalid request body"
	msgTooManyRequests    = "Too many requests, please try again later"
)

type ApiError struct {
	StatusCode int    `json:"status_code"`
	Message    string `json:"error"`
	Err        error  `json:"-"`
}

func (e *ApiError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s", e.Message, e.Err.Error())
	}

	return e.Message
}

func (e *ApiError) Unwrap() error {
	return e.Err
}

func NewBadRequestError(message string) *ApiError {
	return &ApiError{
		StatusCode: http.StatusBadRequest,
		Message:    message,
	}
}

func NewNotFoundError(message string) *ApiError {
	return &ApiError{
		StatusCode: http.StatusNotFound,
		Message:    message,
	}
}

func NewInternalServerError(err error) *ApiError {
	return &ApiError{
		StatusCode: http.StatusInternalServerError,
		Message:    msgServerError,
		Err:        err,
	}
}

func NewUnauthorizedError(message string) *ApiError {
	return &ApiError{
		StatusCode: http.StatusUnauthorized,
		Message:    message,
	}
}

func NewForbiddenError() *ApiError {
	return &ApiError{
		StatusCode: http.StatusForbidden,
		Message:    msgAccessDenied,
	}
}

func NewTooManyRequestsError() *ApiError {
	return &ApiError{
		StatusCode: http.StatusTooManyRequests,
		Message:    msgTooManyRequests,
	}
}
