package handler

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/iliyamo/coffee-shop-api/internal/auth"
)

// Sentinel errors returned by handlers and translated by ErrorHandler.
var (
	// ErrBadRequest: the body is valid JSON but not a JSON object.
	ErrBadRequest = errors.New("bad request")
	// ErrNotFound: the addressed drink does not exist.
	ErrNotFound = errors.New("resource not found")
	// ErrUnprocessable: the body could not be used or the store failed.
	ErrUnprocessable = errors.New("unprocessable")
)

// errorResponse is the uniform error envelope.
type errorResponse struct {
	Success bool   `json:"success"`
	Error   int    `json:"error"`
	Message string `json:"message"`
}

var messages = map[int]string{
	http.StatusBadRequest:          "bad request",
	http.StatusNotFound:            "resource not found",
	http.StatusMethodNotAllowed:    "method not allowed",
	http.StatusUnprocessableEntity: "unprocessable",
	http.StatusTooManyRequests:     "rate limit exceeded",
}

// ErrorHandler maps handler and guard failures to the JSON error envelope.
// Auth errors answer with their own status and description; every other
// unknown error becomes a 500 without internal details.
func ErrorHandler(log *zap.Logger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}
		status, message := classify(err)
		if status >= http.StatusInternalServerError {
			log.Error("unhandled error", zap.String("route", c.Path()), zap.Error(err))
		}
		var werr error
		if c.Request().Method == http.MethodHead {
			werr = c.NoContent(status)
		} else {
			werr = c.JSON(status, errorResponse{Success: false, Error: status, Message: message})
		}
		if werr != nil {
			log.Warn("write error response", zap.Error(werr))
		}
	}
}

func classify(err error) (int, string) {
	var ae *auth.Error
	var he *echo.HTTPError
	switch {
	case errors.As(err, &ae):
		return ae.Status, ae.Description
	case errors.Is(err, ErrBadRequest):
		return http.StatusBadRequest, messages[http.StatusBadRequest]
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound, messages[http.StatusNotFound]
	case errors.Is(err, ErrUnprocessable):
		return http.StatusUnprocessableEntity, messages[http.StatusUnprocessableEntity]
	case errors.As(err, &he):
		if msg, ok := messages[he.Code]; ok {
			return he.Code, msg
		}
		if he.Code < http.StatusInternalServerError {
			return he.Code, http.StatusText(he.Code)
		}
	}
	return http.StatusInternalServerError, "internal server error"
}
