// Package response defines the JSON envelope shared by every API endpoint.
package response

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

// Envelope is the shape of every API response body.
type Envelope struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
	Code    string      `json:"code,omitempty"`
}

// Error codes returned in the envelope's code field.
const (
	CodeUnauthorized      = "UNAUTHORIZED"
	CodeForbidden         = "FORBIDDEN"
	CodeInvalidInput      = "INVALID_INPUT"
	CodeInvalidQuantity   = "INVALID_QUANTITY"
	CodeCinemaNotFound    = "CINEMA_NOT_FOUND"
	CodeQuotaExceeded     = "QUOTA_EXCEEDED"
	CodeOutOfStock        = "OUT_OF_STOCK"
	CodeInvalidTransition = "INVALID_TRANSITION"
	CodeRateLimited       = "RATE_LIMITED"
	CodeInternalError     = "INTERNAL_ERROR"
)

// OK writes a 200 success envelope.
func OK(c echo.Context, data interface{}) error {
	return c.JSON(http.StatusOK, Envelope{Success: true, Data: data})
}

// Created writes a 201 success envelope.
func Created(c echo.Context, data interface{}) error {
	return c.JSON(http.StatusCreated, Envelope{Success: true, Data: data})
}

// Fail writes a failure envelope with the given HTTP status, code and message.
func Fail(c echo.Context, status int, code, message string) error {
	return c.JSON(status, Envelope{Success: false, Error: message, Code: code})
}

// Internal maps an unexpected downstream failure to a 500 envelope.  The
// underlying message is surfaced for diagnostics; no retry is attempted.
func Internal(c echo.Context, err error) error {
	msg := "internal error"
	if err != nil {
		msg = err.Error()
	}
	return Fail(c, http.StatusInternalServerError, CodeInternalError, msg)
}
