package handler

import (
	"errors"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"

	apperrors "authgate/internal/errors"
)

// operationalError translates a domain error into the uniform error envelope.
func operationalError(err error) *echo.HTTPError {
	httpErr := apperrors.MapErrorToHTTP(err)
	return echo.NewHTTPError(httpErr.StatusCode, httpErr.ToErrorResponse())
}

// isFieldMismatch reports whether the validation failure is an eqfield
// violation on the named field.
func isFieldMismatch(err error, field string) bool {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return false
	}
	for _, ferr := range verrs {
		if ferr.Field() == field && ferr.Tag() == "eqfield" {
			return true
		}
	}
	return false
}

// validationError rejects malformed input with a 400 envelope.
func validationError(msg string) *echo.HTTPError {
	return echo.NewHTTPError(http.StatusBadRequest, apperrors.ErrorResponse{
		Error: msg,
		Code:  "VALIDATION_ERROR",
	})
}
