package errors

import (
	"log"
	"net/http"

	"github.com/jordanlanch/dealboard/pkg/domain"
	"github.com/jordanlanch/dealboard/pkg/models"
	"github.com/labstack/echo/v4"
)

// ValidationError returns a generic validation error without exposing internal details
func ValidationError(c echo.Context, err error) error {
	// Log the actual error for debugging
	log.Printf("[VALIDATION ERROR] Path: %s, Error: %v", c.Request().URL.Path, err)

	return c.JSON(http.StatusBadRequest, models.ErrorResponse{
		Error:   "validation_error",
		Message: "Invalid request data. Please check your input and try again.",
	})
}

// InternalError returns a generic internal server error
func InternalError(c echo.Context, err error) error {
	// Log the actual error for debugging
	log.Printf("[INTERNAL ERROR] Path: %s, Error: %v", c.Request().URL.Path, err)

	return c.JSON(http.StatusInternalServerError, models.ErrorResponse{
		Error:   "internal_error",
		Message: "An internal error occurred. Please try again later.",
	})
}

// NotFoundError returns a generic not found error
func NotFoundError(c echo.Context, resource string) error {
	return c.JSON(http.StatusNotFound, models.ErrorResponse{
		Error:   "not_found",
		Message: "The requested resource was not found.",
	})
}

// ConflictError returns a conflict error with a safe message
func ConflictError(c echo.Context, message string) error {
	return c.JSON(http.StatusConflict, models.ErrorResponse{
		Error:   "conflict",
		Message: message,
	})
}

// DomainError maps an engine error to the right HTTP response. Validation
// failures never carry backend state; remote rejections report that the
// optimistic change was already rolled back.
func DomainError(c echo.Context, err error) error {
	de, ok := err.(*domain.DomainError)
	if !ok {
		return InternalError(c, err)
	}

	switch de.Code {
	case domain.ErrCodeUnknownStage, domain.ErrCodeValidation:
		return c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Error:   de.Code,
			Message: de.Message,
		})
	case domain.ErrCodeNotFound:
		return c.JSON(http.StatusNotFound, models.ErrorResponse{
			Error:   de.Code,
			Message: de.Message,
		})
	case domain.ErrCodeDealClosed, domain.ErrCodeMoveInFlight, domain.ErrCodeDragActive, domain.ErrCodeConflict:
		return c.JSON(http.StatusConflict, models.ErrorResponse{
			Error:   de.Code,
			Message: de.Message,
		})
	case domain.ErrCodeRemoteRejection:
		return c.JSON(http.StatusBadGateway, models.ErrorResponse{
			Error:   de.Code,
			Message: de.Message,
		})
	default:
		return InternalError(c, err)
	}
}
