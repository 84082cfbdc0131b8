package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	errorspkg "spotsapi.app/pkg/errors"
)

// ErrorResponse represents an error message structure for API responses
type ErrorResponse struct {
	Error string `json:"error"`
}

// handleError maps application error types to HTTP statuses
func (s *HTTPServerAdapter) handleError(c *gin.Context, err error) {
	var appErr *errorspkg.AppError
	var statusCode int
	var message string

	if !errors.As(err, &appErr) {
		statusCode = http.StatusInternalServerError
		message = "Internal server error"
		c.JSON(statusCode, ErrorResponse{Error: message})
		return
	}

	switch appErr.Type {
	case errorspkg.ValidationError:
		statusCode = http.StatusBadRequest
		message = appErr.Message
	case errorspkg.NotFoundError:
		statusCode = http.StatusNotFound
		message = appErr.Message
	case errorspkg.RegionMismatchError:
		statusCode = http.StatusUnprocessableEntity
		message = appErr.Message
	case errorspkg.ProviderUnavailableError, errorspkg.AuthenticationError:
		statusCode = http.StatusServiceUnavailable
		message = "Geocoding providers unavailable"
	case errorspkg.DatabaseError, errorspkg.CacheError:
		statusCode = http.StatusInternalServerError
		message = "Internal server error"
	default:
		statusCode = http.StatusInternalServerError
		message = "Internal server error"
	}

	c.JSON(statusCode, ErrorResponse{Error: message})
}
