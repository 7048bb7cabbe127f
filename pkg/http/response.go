package http

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
)

// JSONResponse writes data as-is with the given status.
func JSONResponse(c echo.Context, statusCode int, data interface{}) error {
	return c.JSON(statusCode, data)
}

// SuccessResponse writes a 200 JSON response.
func SuccessResponse(c echo.Context, data interface{}) error {
	return JSONResponse(c, http.StatusOK, data)
}

// ErrorResponse writes the error envelope with the real HTTP status.
func ErrorResponse(c echo.Context, statusCode int, message, code string, details []ValidationError) error {
	if message == "" {
		message = http.StatusText(statusCode)
	}
	return c.JSON(statusCode, ErrorBody{
		Status:  statusCode,
		Error:   message,
		Code:    code,
		Details: details,
	})
}

// BadRequestResponse writes validation failures as a 400.
func BadRequestResponse(c echo.Context, details []ValidationError) error {
	msg := http.StatusText(http.StatusBadRequest)
	if len(details) > 0 && details[0].Message != "" {
		msg = details[0].Message
	}
	return ErrorResponse(c, http.StatusBadRequest, msg, "ERR_BAD_REQUEST", details)
}

// InternalServerErrorResponse writes internal server error.
func InternalServerErrorResponse(c echo.Context) error {
	return ErrorResponse(c, http.StatusInternalServerError, "Something went wrong", "ERR_INTERNAL", nil)
}

// AppErrorResponse writes application error response.
// Anything that is not an AppError becomes an opaque 500.
func AppErrorResponse(c echo.Context, err error) error {
	var appErr *AppError
	if errors.As(err, &appErr) {
		if appErr.Status >= http.StatusInternalServerError && appErr.Status != http.StatusServiceUnavailable {
			return InternalServerErrorResponse(c)
		}
		var details []ValidationError
		if appErr.Field != "" || len(appErr.Params) > 0 {
			details = []ValidationError{{Code: appErr.Code, Field: appErr.Field, Message: appErr.Message, Params: appErr.Params}}
		}
		return ErrorResponse(c, appErr.Status, appErr.Message, appErr.Code, details)
	}
	return InternalServerErrorResponse(c)
}
