package http

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"collateral-service/internal/domain/errs"

	"github.com/labstack/echo/v4"
)

// statusFor maps an error kind to its HTTP status.
func statusFor(err error) int {
	switch {
	case errors.Is(err, errs.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, errs.ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, errs.ErrStateConflict):
		return http.StatusConflict
	case errors.Is(err, errs.ErrUnavailable):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// writeError renders a usecase error. Unknown errors are logged and hidden.
func writeError(c echo.Context, err error) error {
	code := statusFor(err)
	msg := err.Error()
	if code == http.StatusInternalServerError {
		slog.ErrorContext(c.Request().Context(), "unhandled error",
			slog.String("path", c.Path()), slog.Any("error", err))
		msg = "internal error"
	}
	if code == http.StatusServiceUnavailable {
		c.Response().Header().Set("Retry-After", "1")
	}
	return c.JSON(code, ErrorResponse{Error: msg})
}

// bindAndValidate binds the request into req and runs the validator. It writes
// the 400/422 response itself and returns false when the request is rejected.
func bindAndValidate(c echo.Context, req any) (bool, error) {
	if err := c.Bind(req); err != nil {
		return false, c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid body"})
	}
	if err := c.Validate(req); err != nil {
		return false, c.JSON(http.StatusUnprocessableEntity, ErrorResponse{
			Error:   "validation failed",
			Details: ToFieldErrors(err),
		})
	}
	return true, nil
}

// actor is the caller named in Ax-Actor, used for created_by/updated_by when
// the body leaves it empty.
func actor(c echo.Context, fromBody string) string {
	if s := strings.TrimSpace(fromBody); s != "" {
		return s
	}
	return strings.TrimSpace(c.Request().Header.Get("Ax-Actor"))
}
